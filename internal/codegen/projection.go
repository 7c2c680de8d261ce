// Package codegen turns resolved, normalized expressions into criteria
// predicates and projections.
package codegen

import (
	"fmt"

	"github.com/nlstn/go-odataql/internal/ast"
	"github.com/nlstn/go-odataql/internal/criteria"
	"github.com/nlstn/go-odataql/internal/edm"
	"github.com/nlstn/go-odataql/internal/literal"
	"github.com/nlstn/go-odataql/internal/queryerrors"
)

const projectionContext = "a projection"

// DefaultArithmeticType is the result type of arithmetic between two
// non-literal operands.
const DefaultArithmeticType = literal.Decimal

var arithmeticOps = map[ast.Operator]criteria.Op{
	ast.Add: criteria.Add,
	ast.Sub: criteria.Sub,
	ast.Mul: criteria.Mul,
	ast.Div: criteria.Div,
	ast.Mod: criteria.Mod,
}

var comparisonOps = map[ast.Operator]criteria.Op{
	ast.Eq: criteria.Eq,
	ast.Ne: criteria.Ne,
	ast.Lt: criteria.Lt,
	ast.Le: criteria.Le,
	ast.Gt: criteria.Gt,
	ast.Ge: criteria.Ge,
}

// projectionRule builds the projection for one method call from its already
// generated arguments.
type projectionRule func(call *ast.MethodCallExpr, args []criteria.Projection) (criteria.Projection, error)

var projectionRules = map[ast.MethodID]projectionRule{
	ast.Length:    fixedType(criteria.Length, literal.Int),
	ast.IndexOf:   fixedType(criteria.IndexOf, literal.Int),
	ast.Replace:   fixedType(criteria.Replace, literal.String),
	ast.Substring: fixedType(criteria.Substring, literal.String),
	ast.ToLower:   fixedType(criteria.ToLower, literal.String),
	ast.ToUpper:   fixedType(criteria.ToUpper, literal.String),
	ast.Trim:      fixedType(criteria.Trim, literal.String),
	ast.Concat:    fixedType(criteria.Concat, literal.String),
	ast.Year:      fixedType(criteria.Year, literal.Int),
	ast.Month:     fixedType(criteria.Month, literal.Int),
	ast.Day:       fixedType(criteria.Day, literal.Int),
	ast.Hour:      fixedType(criteria.Hour, literal.Int),
	ast.Minute:    fixedType(criteria.Minute, literal.Int),
	ast.Second:    fixedType(criteria.Second, literal.Int),
	ast.Round:     argumentType(criteria.Round),
	ast.Floor:     argumentType(criteria.Floor),
	ast.Ceiling:   argumentType(criteria.Ceiling),
	ast.Cast:      castRule,
}

func fixedType(name criteria.FunctionName, t literal.Type) projectionRule {
	return func(_ *ast.MethodCallExpr, args []criteria.Projection) (criteria.Projection, error) {
		return &criteria.Function{Name: name, Args: args, Type: t}, nil
	}
}

// argumentType keeps the numeric type of the single argument, falling back
// to DefaultArithmeticType when it is unknown.
func argumentType(name criteria.FunctionName) projectionRule {
	return func(_ *ast.MethodCallExpr, args []criteria.Projection) (criteria.Projection, error) {
		t := args[0].ResultType()
		if !t.IsNumeric() {
			t = DefaultArithmeticType
		}
		return &criteria.Function{Name: name, Args: args, Type: t}, nil
	}
}

func castRule(call *ast.MethodCallExpr, args []criteria.Projection) (criteria.Projection, error) {
	if len(args) < 2 {
		return nil, queryerrors.Unsupported("cast of the current entity", projectionContext)
	}
	target, ok := args[1].(*criteria.Constant)
	if !ok {
		return nil, queryerrors.Unsupported("cast with a computed type name", projectionContext)
	}
	t, found := edm.Lookup(target.Value.Text())
	if !found {
		return nil, queryerrors.TypeCoercion("unknown type name '%s' in %s", target.Value.Text(), call.Method.Name)
	}
	return &criteria.Function{Name: criteria.Cast, Args: args, Type: t}, nil
}

// Projection generates the value expression for e.
func Projection(e ast.Expr) (criteria.Projection, error) {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		return &criteria.Constant{Value: n.Value}, nil
	case *ast.ResolvedMemberExpr:
		return property(n), nil
	case *ast.GroupExpr:
		return Projection(n.Inner)
	case *ast.UnaryExpr:
		if n.Op != ast.Negate {
			return nil, queryerrors.Unsupported("not", projectionContext)
		}
		operand, err := Projection(n.Operand)
		if err != nil {
			return nil, err
		}
		return &criteria.Negative{Operand: operand}, nil
	case *ast.ArithmeticExpr:
		return arithmetic(n)
	case *ast.MethodCallExpr:
		return methodProjection(n)
	case *ast.MemberExpr:
		return nil, &queryerrors.ResolutionError{Name: n.String(), Message: fmt.Sprintf("member '%s' was not resolved", n)}
	case *ast.AliasedMemberExpr:
		return nil, queryerrors.Unsupported(fmt.Sprintf("association '%s'", n.Association), projectionContext)
	}
	return nil, queryerrors.Unsupported(fmt.Sprintf("expression '%s'", e), projectionContext)
}

func property(m *ast.ResolvedMemberExpr) *criteria.Property {
	return &criteria.Property{
		Alias:  m.Alias,
		Name:   m.Property,
		Column: m.Column,
		Type:   m.Type,
		Path:   m.DynamicPath,
	}
}

func arithmetic(n *ast.ArithmeticExpr) (criteria.Projection, error) {
	left, err := Projection(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := Projection(n.Right)
	if err != nil {
		return nil, err
	}
	return &criteria.Arithmetic{Op: arithmeticOps[n.Op], Left: left, Right: right, Type: arithmeticType(n)}, nil
}

// arithmeticType derives the result type from a literal operand, left first.
func arithmeticType(n *ast.ArithmeticExpr) literal.Type {
	if lit, ok := n.Left.(*ast.LiteralExpr); ok {
		return lit.Value.Type()
	}
	if lit, ok := n.Right.(*ast.LiteralExpr); ok {
		return lit.Value.Type()
	}
	return DefaultArithmeticType
}

func methodProjection(call *ast.MethodCallExpr) (criteria.Projection, error) {
	rule, ok := projectionRules[call.Method.ID]
	if !ok {
		return nil, queryerrors.Unsupported(call.Method.Name, projectionContext)
	}
	args := make([]criteria.Projection, len(call.Args))
	for i, arg := range call.Args {
		p, err := Projection(arg)
		if err != nil {
			return nil, err
		}
		args[i] = p
	}
	return rule(call, args)
}
