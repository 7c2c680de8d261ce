package parser

import (
	"github.com/nlstn/go-odataql/internal/ast"
	"github.com/nlstn/go-odataql/internal/lexer"
	"github.com/nlstn/go-odataql/internal/literal"
	"github.com/nlstn/go-odataql/internal/queryerrors"
)

// parseCall parses the argument list of the method named by nameTok. The
// cursor is on the opening parenthesis. collection is the member path a
// quantifier was applied to, nil for ordinary calls.
func (p *parser) parseCall(nameTok lexer.Token, collection *ast.MemberExpr) (ast.Expr, error) {
	method, ok := ast.LookupMethod(nameTok.Text)
	if !ok {
		return nil, queryerrors.Parse(nameTok.Pos, "unknown method '%s'", nameTok.Text)
	}

	if method.Quantifier {
		if collection == nil {
			return nil, queryerrors.Parse(nameTok.Pos, "%s must be applied to a collection path", method.Name)
		}
		return p.parseQuantifier(nameTok, method, collection)
	}
	if collection != nil {
		return nil, queryerrors.Parse(nameTok.Pos, "method %s cannot be applied to a member path", method.Name)
	}

	if err := p.expectSyntax('('); err != nil {
		return nil, err
	}
	var args []ast.Expr
	if !p.isSyntax(')') {
		for {
			arg, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.isSyntax(',') {
				break
			}
			p.pos++
		}
	}
	if err := p.expectSyntax(')'); err != nil {
		return nil, err
	}

	if err := checkArity(nameTok, method, len(args)); err != nil {
		return nil, err
	}
	for i, kind := range method.ParamKinds(len(args)) {
		if kind != ast.StringLiteralOnly {
			continue
		}
		lit, ok := args[i].(*ast.LiteralExpr)
		if !ok || lit.Value.Type() != literal.String {
			return nil, queryerrors.Parse(nameTok.Pos, "argument %d of %s must be a string literal", i+1, method.Name)
		}
	}

	return &ast.MethodCallExpr{Method: method, Args: args}, nil
}

func checkArity(nameTok lexer.Token, method *ast.Method, n int) error {
	switch {
	case n >= method.MinArgs && (method.MaxArgs == ast.Unbounded || n <= method.MaxArgs):
		return nil
	case method.MinArgs == method.MaxArgs:
		return queryerrors.Parse(nameTok.Pos, "%s requires exactly %d argument(s), got %d", method.Name, method.MinArgs, n)
	case method.MaxArgs == ast.Unbounded:
		return queryerrors.Parse(nameTok.Pos, "%s requires at least %d argument(s), got %d", method.Name, method.MinArgs, n)
	}
	return queryerrors.Parse(nameTok.Pos, "%s requires between %d and %d arguments, got %d", method.Name, method.MinArgs, method.MaxArgs, n)
}

// parseQuantifier parses any(...) or all(...). The only accepted argument is
// a lambda "param: body" with a boolean body.
func (p *parser) parseQuantifier(nameTok lexer.Token, method *ast.Method, collection *ast.MemberExpr) (ast.Expr, error) {
	if err := p.expectSyntax('('); err != nil {
		return nil, err
	}

	if p.isSyntax(')') {
		p.pos++
		if method.MinArgs > 0 {
			return nil, queryerrors.Parse(nameTok.Pos, "%s requires a lambda predicate", method.Name)
		}
		return &ast.MethodCallExpr{Method: method, Args: []ast.Expr{collection}}, nil
	}

	param, ok := p.next()
	if !ok || param.Kind != lexer.Name || ast.IsKeyword(param.Text) {
		return nil, queryerrors.Parse(p.previous().Pos, "expected lambda parameter name in %s", method.Name)
	}
	if !p.isSyntax(':') {
		return nil, p.errorf("expected ':' after lambda parameter '%s'", param.Text)
	}
	p.pos++
	if p.done() || p.isSyntax(')') {
		return nil, p.errorf("missing lambda body in %s", method.Name)
	}

	body, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	boolBody, ok := ast.AsBoolean(body)
	if !ok {
		return nil, queryerrors.Parse(param.Pos, "%v as lambda body", ast.ErrNotBoolean)
	}
	if err := p.expectSyntax(')'); err != nil {
		return nil, err
	}

	lambda := &ast.LambdaExpr{Param: param.Text, Body: boolBody}
	return &ast.MethodCallExpr{Method: method, Args: []ast.Expr{collection, lambda}}, nil
}
