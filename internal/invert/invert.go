// Package invert computes the logical negation of a boolean expression by
// pushing the negation inward.
package invert

import (
	"fmt"

	"github.com/nlstn/go-odataql/internal/ast"
	"github.com/nlstn/go-odataql/internal/literal"
)

// Invert returns an expression that holds exactly when e does not. It never
// wraps e as a whole in a not: double negations unwrap, and/or swap by De
// Morgan's laws and comparisons flip to their complement. Only boolean members
// and boolean method calls gain an explicit not.
//
// Passing a non-boolean expression is a programming error and yields an error
// wrapping ast.ErrNotBoolean.
func Invert(e ast.Expr) (ast.Expr, error) {
	switch n := e.(type) {
	case *ast.UnaryExpr:
		if n.Op == ast.Not {
			return n.Operand, nil
		}
	case *ast.LogicalExpr:
		left, err := Invert(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := Invert(n.Right)
		if err != nil {
			return nil, err
		}
		op := ast.And
		if n.Op == ast.And {
			op = ast.Or
		}
		return &ast.LogicalExpr{Op: op, Left: group(op, left), Right: group(op, right)}, nil
	case *ast.ComparisonExpr:
		return &ast.ComparisonExpr{Op: n.Op.Complement(), Left: n.Left, Right: n.Right}, nil
	case *ast.GroupExpr:
		inner, err := Invert(n.Inner)
		if err != nil {
			return nil, err
		}
		return &ast.GroupExpr{Inner: inner}, nil
	case *ast.LiteralExpr:
		if n.Value.Type() == literal.Boolean {
			return ast.NewLiteral(literal.NewBool(!n.Value.Bool())), nil
		}
	case *ast.MemberExpr, *ast.ResolvedMemberExpr, *ast.MethodCallExpr:
		if e.IsBoolean() {
			return &ast.UnaryExpr{Op: ast.Not, Operand: e}, nil
		}
	}
	return nil, fmt.Errorf("invert %s: %w", e, ast.ErrNotBoolean)
}

// group parenthesizes an or operand of an and so the tree still renders as
// it is structured.
func group(parent ast.Operator, e ast.Expr) ast.Expr {
	if logical, ok := e.(*ast.LogicalExpr); ok && logical.Op.Tier() < parent.Tier() {
		return &ast.GroupExpr{Inner: e}
	}
	return e
}
