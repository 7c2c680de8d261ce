package ast

import (
	"errors"

	"github.com/nlstn/go-odataql/internal/literal"
)

// ErrNotBoolean is returned when an expression is used where a boolean is
// required and cannot be read as one.
var ErrNotBoolean = errors.New("expected boolean expression")

// AsBoolean reinterprets e as a boolean expression. Bare members become
// boolean members, the integer literals 0 and 1 become false and true, and
// parenthesized expressions are coerced recursively.
func AsBoolean(e Expr) (Expr, bool) {
	switch n := e.(type) {
	case *MemberExpr:
		if n.Kind == BooleanMember {
			return n, true
		}
		return &MemberExpr{Kind: BooleanMember, Path: n.Path}, true
	case *ResolvedMemberExpr:
		if n.Kind == BooleanMember {
			return n, true
		}
		if n.Type != literal.Boolean && n.Type != literal.Null {
			return nil, false
		}
		resolved := *n
		resolved.Kind = BooleanMember
		return &resolved, true
	case *LiteralExpr:
		switch {
		case n.Value.Type() == literal.Boolean:
			return n, true
		case n.Value.Type() == literal.Int && n.Value.Int64() == 0:
			return NewLiteral(literal.NewBool(false)), true
		case n.Value.Type() == literal.Int && n.Value.Int64() == 1:
			return NewLiteral(literal.NewBool(true)), true
		}
		return nil, false
	case *GroupExpr:
		inner, ok := AsBoolean(n.Inner)
		if !ok {
			return nil, false
		}
		if inner == n.Inner {
			return n, true
		}
		return &GroupExpr{Inner: inner}, true
	}
	if e.IsBoolean() {
		return e, true
	}
	return nil, false
}

// NewNot negates a boolean operand.
func NewNot(operand Expr) (Expr, error) {
	b, ok := AsBoolean(operand)
	if !ok {
		return nil, ErrNotBoolean
	}
	return &UnaryExpr{Op: Not, Operand: b}, nil
}

// NewBinary builds the node for a binary operator, coercing the operands of
// and/or to booleans.
func NewBinary(op Operator, left, right Expr) (Expr, error) {
	switch {
	case op.IsLogical():
		l, ok := AsBoolean(left)
		if !ok {
			return nil, ErrNotBoolean
		}
		r, ok := AsBoolean(right)
		if !ok {
			return nil, ErrNotBoolean
		}
		return &LogicalExpr{Op: op, Left: l, Right: r}, nil
	case op.IsComparison():
		return &ComparisonExpr{Op: op, Left: left, Right: right}, nil
	case op.IsArithmetic():
		return &ArithmeticExpr{Op: op, Left: left, Right: right}, nil
	}
	return nil, errors.New("not a binary operator: " + op.String())
}
