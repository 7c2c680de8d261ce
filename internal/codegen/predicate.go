package codegen

import (
	"fmt"

	"github.com/nlstn/go-odataql/internal/ast"
	"github.com/nlstn/go-odataql/internal/criteria"
	"github.com/nlstn/go-odataql/internal/literal"
	"github.com/nlstn/go-odataql/internal/queryerrors"
)

const predicateContext = "a predicate"

// predicateRule builds the predicate for one boolean method call.
type predicateRule func(call *ast.MethodCallExpr) (criteria.Predicate, error)

var predicateRules map[ast.MethodID]predicateRule

func init() {
	predicateRules = map[ast.MethodID]predicateRule{
		ast.StartsWith:  likeRule(0, 1, criteria.Start),
		ast.EndsWith:    likeRule(0, 1, criteria.End),
		ast.SubstringOf: likeRule(1, 0, criteria.Anywhere),
		ast.Any:         anyRule,
		ast.All:         allRule,
	}
}

// Predicate generates the backend predicate for a boolean expression.
func Predicate(e ast.Expr) (criteria.Predicate, error) {
	switch n := e.(type) {
	case *ast.GroupExpr:
		return Predicate(n.Inner)
	case *ast.LiteralExpr:
		if n.Value.Type() != literal.Boolean {
			return nil, queryerrors.TypeCoercion("%s is not a boolean", n.Value)
		}
		return &criteria.Truth{Value: n.Value.Bool()}, nil
	case *ast.ResolvedMemberExpr:
		if n.Kind != ast.BooleanMember {
			return nil, queryerrors.TypeCoercion("member '%s' is not a boolean", n.Name)
		}
		return &criteria.Comparison{
			Op:    criteria.Eq,
			Left:  property(n),
			Right: &criteria.Constant{Value: literal.NewBool(true)},
		}, nil
	case *ast.UnaryExpr:
		if n.Op != ast.Not {
			return nil, queryerrors.TypeCoercion("%s is not a boolean", n)
		}
		operand, err := Predicate(n.Operand)
		if err != nil {
			return nil, err
		}
		return &criteria.Not{Operand: operand}, nil
	case *ast.LogicalExpr:
		left, err := Predicate(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := Predicate(n.Right)
		if err != nil {
			return nil, err
		}
		if n.Op == ast.And {
			return &criteria.And{Left: left, Right: right}, nil
		}
		return &criteria.Or{Left: left, Right: right}, nil
	case *ast.ComparisonExpr:
		return comparison(n)
	case *ast.MethodCallExpr:
		rule, ok := predicateRules[n.Method.ID]
		if !ok {
			return nil, queryerrors.Unsupported(n.Method.Name, predicateContext)
		}
		return rule(n)
	case *ast.MemberExpr:
		return nil, &queryerrors.ResolutionError{Name: n.String(), Message: fmt.Sprintf("member '%s' was not resolved", n)}
	}
	return nil, queryerrors.Unsupported(fmt.Sprintf("expression '%s'", e), predicateContext)
}

func comparison(n *ast.ComparisonExpr) (criteria.Predicate, error) {
	if operand, isNull := nullOperand(n); isNull {
		switch n.Op {
		case ast.Eq, ast.Ne:
			p, err := nullable(operand)
			if err != nil {
				return nil, err
			}
			if n.Op == ast.Eq {
				return &criteria.IsNull{Operand: p}, nil
			}
			return &criteria.IsNotNull{Operand: p}, nil
		}
		return nil, queryerrors.TypeCoercion("ordering comparison with null in '%s'", n)
	}

	left, err := Projection(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := Projection(n.Right)
	if err != nil {
		return nil, err
	}
	return &criteria.Comparison{Op: comparisonOps[n.Op], Left: left, Right: right}, nil
}

// nullOperand returns the operand compared with a null literal.
func nullOperand(n *ast.ComparisonExpr) (ast.Expr, bool) {
	if lit, ok := n.Right.(*ast.LiteralExpr); ok && lit.Value.IsNull() {
		return n.Left, true
	}
	if lit, ok := n.Left.(*ast.LiteralExpr); ok && lit.Value.IsNull() {
		return n.Right, true
	}
	return nil, false
}

// nullable projects the operand of a null check. A to-one association is
// null when its joined identifier is.
func nullable(e ast.Expr) (criteria.Projection, error) {
	aliased, ok := e.(*ast.AliasedMemberExpr)
	if !ok {
		return Projection(e)
	}
	if aliased.Collection {
		return nil, queryerrors.Unsupported(fmt.Sprintf("null check on collection '%s'", aliased.Association), predicateContext)
	}
	if aliased.Key == "" {
		return nil, &queryerrors.ResolutionError{Name: aliased.Entity, Message: fmt.Sprintf("entity '%s' has no identifier", aliased.Entity)}
	}
	return &criteria.Property{Alias: aliased.Alias, Name: aliased.Key, Column: aliased.KeyColumn}, nil
}

// likeRule matches the argument at subject against the string literal at
// pattern.
func likeRule(subject, pattern int, mode criteria.MatchMode) predicateRule {
	return func(call *ast.MethodCallExpr) (criteria.Predicate, error) {
		lit, ok := call.Args[pattern].(*ast.LiteralExpr)
		if !ok || lit.Value.Type() != literal.String {
			return nil, queryerrors.Unsupported(call.Method.Name+" with a non-literal pattern", predicateContext)
		}
		operand, err := Projection(call.Args[subject])
		if err != nil {
			return nil, err
		}
		return &criteria.Like{Operand: operand, Pattern: lit.Value.Text(), Mode: mode}, nil
	}
}

func anyRule(call *ast.MethodCallExpr) (criteria.Predicate, error) {
	if len(call.Args) > 1 {
		return nil, queryerrors.Unsupported("any with a predicate", predicateContext)
	}
	collection, ok := call.Args[0].(*ast.AliasedMemberExpr)
	if !ok || !collection.Collection {
		return nil, &queryerrors.ResolutionError{Name: call.Args[0].String(), Message: fmt.Sprintf("any requires a collection, '%s' is not one", call.Args[0])}
	}
	if collection.OwnerKey == "" {
		return nil, &queryerrors.ResolutionError{
			Name:    collection.Association,
			Message: fmt.Sprintf("the owner of '%s' has no identifier", collection.Association),
		}
	}
	return &criteria.Exists{Alias: collection.Alias, Owner: collection.Owner, Association: collection.Association}, nil
}

func allRule(*ast.MethodCallExpr) (criteria.Predicate, error) {
	return nil, queryerrors.Unsupported("all", predicateContext)
}
