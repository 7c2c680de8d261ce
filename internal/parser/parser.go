// Package parser builds expression trees from query text. It offers entry
// points for boolean filters, plain value expressions, order-by lists,
// resource paths and standalone identifiers, all sharing one recursive-descent
// core.
package parser

import (
	"github.com/nlstn/go-odataql/internal/ast"
	"github.com/nlstn/go-odataql/internal/lexer"
	"github.com/nlstn/go-odataql/internal/literal"
	"github.com/nlstn/go-odataql/internal/queryerrors"
)

// parser walks a pre-scanned token list with an integer cursor.
type parser struct {
	source string
	tokens []lexer.Token
	pos    int
	// pathMode enables Name(key) segments and disables method calls.
	pathMode bool
}

func newParser(source string) (*parser, error) {
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	return &parser{source: source, tokens: tokens}, nil
}

// peek returns the token at the cursor without consuming it.
func (p *parser) peek() (lexer.Token, bool) {
	if p.pos >= len(p.tokens) {
		return lexer.Token{}, false
	}
	return p.tokens[p.pos], true
}

// peekAt looks offset tokens past the cursor.
func (p *parser) peekAt(offset int) (lexer.Token, bool) {
	if p.pos+offset >= len(p.tokens) {
		return lexer.Token{}, false
	}
	return p.tokens[p.pos+offset], true
}

// next consumes the token at the cursor.
func (p *parser) next() (lexer.Token, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

// previous returns the most recently consumed token.
func (p *parser) previous() lexer.Token {
	if p.pos == 0 {
		return lexer.Token{}
	}
	return p.tokens[p.pos-1]
}

func (p *parser) done() bool {
	return p.pos >= len(p.tokens)
}

// offset is the source position of the token at the cursor, or the end of the
// input when all tokens are consumed.
func (p *parser) offset() int {
	if tok, ok := p.peek(); ok {
		return tok.Pos
	}
	return len(p.source)
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return queryerrors.Parse(p.offset(), format, args...)
}

func (p *parser) isSyntax(c byte) bool {
	tok, ok := p.peek()
	return ok && tok.IsSyntax(c)
}

func (p *parser) expectSyntax(c byte) error {
	tok, ok := p.peek()
	if !ok {
		return p.errorf("expected '%c' but reached end of input", c)
	}
	if !tok.IsSyntax(c) {
		return p.errorf("expected '%c' but found %s", c, describe(tok))
	}
	p.pos++
	return nil
}

func (p *parser) expectEnd() error {
	if tok, ok := p.peek(); ok {
		return p.errorf("unexpected %s after complete expression", describe(tok))
	}
	return nil
}

// parseExpression parses items joined by binary operators whose tier is at
// least minTier. The right operand only absorbs operators of a higher tier,
// so operators of equal tier associate to the left.
func (p *parser) parseExpression(minTier int) (ast.Expr, error) {
	left, err := p.parseItem()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != lexer.Name {
			return left, nil
		}
		op, isOp := ast.LookupBinary(tok.Text)
		if !isOp || op.Tier() < minTier {
			return left, nil
		}
		p.pos++

		if p.done() {
			return nil, queryerrors.Parse(p.previous().Pos, "missing right operand for '%s'", op)
		}
		right, err := p.parseExpression(op.Tier() + 1)
		if err != nil {
			return nil, err
		}

		left, err = ast.NewBinary(op, left, right)
		if err != nil {
			return nil, queryerrors.Parse(tok.Pos, "%v for '%s'", err, op)
		}
	}
}

// parseItem parses a single operand: a literal, a parenthesized expression, a
// unary operation, a method call or a member path.
func (p *parser) parseItem() (ast.Expr, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, p.errorf("unexpected end of expression")
	}

	switch tok.Kind {
	case lexer.Literal:
		p.pos++
		return ast.NewLiteral(tok.Value), nil

	case lexer.Syntax:
		switch {
		case tok.IsSyntax('('):
			p.pos++
			inner, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			if err := p.expectSyntax(')'); err != nil {
				return nil, err
			}
			return &ast.GroupExpr{Inner: inner}, nil
		case tok.IsSyntax('-'):
			p.pos++
			operand, err := p.parseItem()
			if err != nil {
				return nil, err
			}
			return &ast.UnaryExpr{Op: ast.Negate, Operand: operand}, nil
		}
		return nil, p.errorf("unexpected %s", describe(tok))
	}

	if tok.Text == "not" {
		p.pos++
		operand, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		not, err := ast.NewNot(operand)
		if err != nil {
			return nil, queryerrors.Parse(tok.Pos, "%v for 'not'", err)
		}
		return not, nil
	}
	if ast.IsKeyword(tok.Text) {
		return nil, p.errorf("unexpected operator '%s'", tok.Text)
	}

	if after, ok := p.peekAt(1); ok && after.IsSyntax('(') && !p.pathMode {
		p.pos++
		return p.parseCall(tok, nil)
	}
	return p.parseMember()
}

// parseMember parses a '/'-separated member path. A quantifier call may
// terminate the path, in which case the path so far is its collection.
func (p *parser) parseMember() (ast.Expr, error) {
	member := &ast.MemberExpr{}
	for {
		tok, ok := p.next()
		if !ok {
			return nil, p.errorf("expected member name but reached end of input")
		}
		if tok.Kind != lexer.Name {
			return nil, queryerrors.Parse(tok.Pos, "expected member name but found %s", describe(tok))
		}

		if p.isSyntax('(') {
			if !p.pathMode && len(member.Path) > 0 {
				return p.parseCall(tok, member)
			}
			if p.pathMode {
				key, err := p.parseKey()
				if err != nil {
					return nil, err
				}
				member.Path = append(member.Path, ast.Segment{Name: tok.Text, Key: key})
				if !p.isSyntax('/') {
					return member, nil
				}
				p.pos++
				continue
			}
		}

		member.Path = append(member.Path, ast.Segment{Name: tok.Text})
		if !p.isSyntax('/') {
			return member, nil
		}
		p.pos++
	}
}

// parseKey parses an inline (literal) identifier.
func (p *parser) parseKey() (*literal.Value, error) {
	if err := p.expectSyntax('('); err != nil {
		return nil, err
	}
	key, err := p.parseKeyLiteral()
	if err != nil {
		return nil, err
	}
	if err := p.expectSyntax(')'); err != nil {
		return nil, err
	}
	return &key, nil
}

// parseKeyLiteral consumes a single non-null literal token.
func (p *parser) parseKeyLiteral() (literal.Value, error) {
	tok, ok := p.peek()
	if !ok || tok.Kind != lexer.Literal {
		return literal.Value{}, p.errorf("expected identifier literal")
	}
	if tok.Value.IsNull() {
		return literal.Value{}, queryerrors.Parse(tok.Pos, "identifier must not be null")
	}
	p.pos++
	return tok.Value, nil
}

func describe(tok lexer.Token) string {
	if tok.Kind == lexer.Literal {
		return "literal " + tok.Text
	}
	return "'" + tok.Text + "'"
}
