package parser

import (
	"github.com/nlstn/go-odataql/internal/ast"
	"github.com/nlstn/go-odataql/internal/lexer"
	"github.com/nlstn/go-odataql/internal/literal"
	"github.com/nlstn/go-odataql/internal/queryerrors"
)

// ParseFilter parses a boolean expression such as a $filter value.
func ParseFilter(src string) (ast.Expr, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	if p.done() {
		return nil, queryerrors.Parse(0, "empty expression")
	}

	e, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}

	b, ok := ast.AsBoolean(e)
	if !ok {
		return nil, queryerrors.Parse(0, "%v, got '%s'", ast.ErrNotBoolean, e)
	}
	return b, nil
}

// ParseCommon parses any value expression.
func ParseCommon(src string) (ast.Expr, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	if p.done() {
		return nil, queryerrors.Parse(0, "empty expression")
	}

	e, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return e, nil
}

// OrderByItem is one entry of an order-by list.
type OrderByItem struct {
	Expr       ast.Expr
	Descending bool
}

// ParseOrderBy parses a comma-separated list of "expr [asc|desc]" entries.
func ParseOrderBy(src string) ([]OrderByItem, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	if p.done() {
		return nil, queryerrors.Parse(0, "empty order-by list")
	}

	var items []OrderByItem
	for {
		e, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		item := OrderByItem{Expr: e}

		if tok, ok := p.peek(); ok && tok.Kind == lexer.Name {
			switch tok.Text {
			case "asc":
				p.pos++
			case "desc":
				item.Descending = true
				p.pos++
			default:
				return nil, p.errorf("expected 'asc' or 'desc' but found '%s'", tok.Text)
			}
		}
		items = append(items, item)

		if p.done() {
			return items, nil
		}
		if err := p.expectSyntax(','); err != nil {
			return nil, err
		}
		if p.done() {
			return nil, p.errorf("missing order-by entry after ','")
		}
	}
}

// ParsePath parses a resource path such as Customers(5)/Orders. Segments may
// carry an inline identifier; method calls are not recognized.
func ParsePath(src string) (*ast.MemberExpr, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	p.pathMode = true
	if p.isSyntax('/') {
		p.pos++
	}
	if p.done() {
		return nil, queryerrors.Parse(0, "empty path")
	}

	e, err := p.parseMember()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return e.(*ast.MemberExpr), nil
}

// ParseID parses a standalone identifier literal, optionally wrapped in
// parentheses: "5", "'abc'" or "(5L)".
func ParseID(src string) (literal.Value, error) {
	p, err := newParser(src)
	if err != nil {
		return literal.Value{}, err
	}

	wrapped := p.isSyntax('(')
	if wrapped {
		p.pos++
	}
	key, err := p.parseKeyLiteral()
	if err != nil {
		return literal.Value{}, err
	}
	if wrapped {
		if err := p.expectSyntax(')'); err != nil {
			return literal.Value{}, err
		}
	}
	if err := p.expectEnd(); err != nil {
		return literal.Value{}, err
	}
	return key, nil
}
