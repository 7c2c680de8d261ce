// Package normalize folds constant subtrees of an expression and coerces
// mixed literal types. Normalization is idempotent.
package normalize

import (
	"github.com/nlstn/go-odataql/internal/ast"
	"github.com/nlstn/go-odataql/internal/literal"
	"github.com/nlstn/go-odataql/internal/queryerrors"
)

// MemberResolver flattens member paths during normalization. Lambda scopes are
// announced so that paths rooted at a lambda parameter resolve against the
// collection element.
type MemberResolver interface {
	ResolveMember(m *ast.MemberExpr) (ast.Expr, error)
	EnterLambda(collection ast.Expr, param string) error
	ExitLambda()
}

// Normalize rewrites e, folding literal-only operations. When members is nil,
// member paths are left untouched.
func Normalize(e ast.Expr, members MemberResolver) (ast.Expr, error) {
	n := &normalizer{members: members}
	return n.normalize(e)
}

type normalizer struct {
	members MemberResolver
}

func (n *normalizer) normalize(e ast.Expr) (ast.Expr, error) {
	switch e := e.(type) {
	case *ast.LiteralExpr, *ast.ResolvedMemberExpr, *ast.AliasedMemberExpr:
		return e, nil
	case *ast.MemberExpr:
		if n.members == nil {
			return e, nil
		}
		return n.members.ResolveMember(e)
	case *ast.GroupExpr:
		return n.group(e)
	case *ast.UnaryExpr:
		return n.unary(e)
	case *ast.LogicalExpr:
		return n.logical(e)
	case *ast.ComparisonExpr:
		return n.comparison(e)
	case *ast.ArithmeticExpr:
		return n.arithmetic(e)
	case *ast.MethodCallExpr:
		return n.call(e)
	case *ast.LambdaExpr:
		body, err := n.normalize(e.Body)
		if err != nil {
			return nil, err
		}
		return &ast.LambdaExpr{Param: e.Param, Body: body}, nil
	}
	return nil, queryerrors.Unsupported("expression", "normalization")
}

func (n *normalizer) group(e *ast.GroupExpr) (ast.Expr, error) {
	inner, err := n.normalize(e.Inner)
	if err != nil {
		return nil, err
	}
	switch inner.(type) {
	case *ast.LiteralExpr, *ast.MemberExpr, *ast.ResolvedMemberExpr, *ast.AliasedMemberExpr,
		*ast.MethodCallExpr, *ast.GroupExpr:
		return inner, nil
	}
	return &ast.GroupExpr{Inner: inner}, nil
}

func (n *normalizer) unary(e *ast.UnaryExpr) (ast.Expr, error) {
	operand, err := n.normalize(e.Operand)
	if err != nil {
		return nil, err
	}

	if lit, ok := operand.(*ast.LiteralExpr); ok {
		if e.Op == ast.Not {
			if lit.Value.Type() != literal.Boolean {
				return nil, queryerrors.TypeCoercion("cannot apply not to %s", lit.Value.Type())
			}
			return ast.NewLiteral(literal.NewBool(!lit.Value.Bool())), nil
		}
		v, err := literal.Negate(lit.Value)
		if err != nil {
			return nil, err
		}
		return ast.NewLiteral(v), nil
	}
	return &ast.UnaryExpr{Op: e.Op, Operand: operand}, nil
}

func (n *normalizer) logical(e *ast.LogicalExpr) (ast.Expr, error) {
	left, right, err := n.operands(e.Left, e.Right)
	if err != nil {
		return nil, err
	}

	l, lok := boolLiteral(left)
	r, rok := boolLiteral(right)
	if lok && rok {
		if e.Op == ast.And {
			return ast.NewLiteral(literal.NewBool(l && r)), nil
		}
		return ast.NewLiteral(literal.NewBool(l || r)), nil
	}
	return &ast.LogicalExpr{Op: e.Op, Left: left, Right: right}, nil
}

func (n *normalizer) comparison(e *ast.ComparisonExpr) (ast.Expr, error) {
	left, right, err := n.operands(e.Left, e.Right)
	if err != nil {
		return nil, err
	}

	ll, lok := left.(*ast.LiteralExpr)
	rl, rok := right.(*ast.LiteralExpr)
	if lok && rok {
		result, err := compareLiterals(e.Op, ll.Value, rl.Value)
		if err != nil {
			return nil, err
		}
		return ast.NewLiteral(literal.NewBool(result)), nil
	}

	if folded, ok := foldBooleanCall(e.Op, left, right); ok {
		return folded, nil
	}
	return &ast.ComparisonExpr{Op: e.Op, Left: left, Right: right}, nil
}

func compareLiterals(op ast.Operator, a, b literal.Value) (bool, error) {
	if op == ast.Eq || op == ast.Ne {
		eq, err := literal.Equals(a, b)
		if err != nil {
			return false, err
		}
		return eq == (op == ast.Eq), nil
	}

	cmp, err := literal.Compare(a, b)
	if err != nil {
		return false, err
	}
	switch op {
	case ast.Lt:
		return cmp < 0, nil
	case ast.Le:
		return cmp <= 0, nil
	case ast.Gt:
		return cmp > 0, nil
	}
	return cmp >= 0, nil
}

// foldBooleanCall rewrites "call eq true" to "call" and "call eq false" to
// "not call" for boolean method calls, in either operand order.
func foldBooleanCall(op ast.Operator, left, right ast.Expr) (ast.Expr, bool) {
	if op != ast.Eq && op != ast.Ne {
		return nil, false
	}
	call, ok := left.(*ast.MethodCallExpr)
	value, vok := boolLiteral(right)
	if !ok || !vok {
		call, ok = right.(*ast.MethodCallExpr)
		value, vok = boolLiteral(left)
	}
	if !ok || !vok || !call.IsBoolean() {
		return nil, false
	}
	if value == (op == ast.Eq) {
		return call, true
	}
	return &ast.UnaryExpr{Op: ast.Not, Operand: call}, true
}

var arithmeticOps = map[ast.Operator]literal.ArithmeticOp{
	ast.Add: literal.OpAdd,
	ast.Sub: literal.OpSub,
	ast.Mul: literal.OpMul,
	ast.Div: literal.OpDiv,
	ast.Mod: literal.OpMod,
}

func (n *normalizer) arithmetic(e *ast.ArithmeticExpr) (ast.Expr, error) {
	left, right, err := n.operands(e.Left, e.Right)
	if err != nil {
		return nil, err
	}

	ll, lok := left.(*ast.LiteralExpr)
	rl, rok := right.(*ast.LiteralExpr)
	if lok && rok {
		v, err := literal.Arithmetic(arithmeticOps[e.Op], ll.Value, rl.Value)
		if err != nil {
			return nil, err
		}
		return ast.NewLiteral(v), nil
	}
	return &ast.ArithmeticExpr{Op: e.Op, Left: left, Right: right}, nil
}

// operands normalizes both sides of a binary node. Both are always visited.
func (n *normalizer) operands(l, r ast.Expr) (ast.Expr, ast.Expr, error) {
	left, err := n.normalize(l)
	if err != nil {
		return nil, nil, err
	}
	right, err := n.normalize(r)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func (n *normalizer) call(e *ast.MethodCallExpr) (ast.Expr, error) {
	if e.Method.Quantifier {
		return n.quantifier(e)
	}

	args := make([]ast.Expr, len(e.Args))
	values := make([]literal.Value, 0, len(e.Args))
	for i, arg := range e.Args {
		normalized, err := n.normalize(arg)
		if err != nil {
			return nil, err
		}
		args[i] = normalized
		if lit, ok := normalized.(*ast.LiteralExpr); ok {
			values = append(values, lit.Value)
		}
	}

	if short, ok := shortcut(e.Method, args); ok {
		return short, nil
	}
	if len(values) == len(args) {
		v, ok, err := evaluate(e.Method, values)
		if err != nil {
			return nil, err
		}
		if ok {
			return ast.NewLiteral(v), nil
		}
	}
	return &ast.MethodCallExpr{Method: e.Method, Args: args}, nil
}

func (n *normalizer) quantifier(e *ast.MethodCallExpr) (ast.Expr, error) {
	collection, err := n.normalize(e.Args[0])
	if err != nil {
		return nil, err
	}
	args := []ast.Expr{collection}

	if len(e.Args) > 1 {
		lambda, ok := e.Args[1].(*ast.LambdaExpr)
		if !ok {
			return nil, queryerrors.Parse(queryerrors.NoOffset, "%s expects a lambda argument", e.Method.Name)
		}
		if n.members != nil {
			if err := n.members.EnterLambda(collection, lambda.Param); err != nil {
				return nil, err
			}
		}
		body, err := n.normalize(lambda.Body)
		if n.members != nil {
			n.members.ExitLambda()
		}
		if err != nil {
			return nil, err
		}
		args = append(args, &ast.LambdaExpr{Param: lambda.Param, Body: body})
	}
	return &ast.MethodCallExpr{Method: e.Method, Args: args}, nil
}

func boolLiteral(e ast.Expr) (bool, bool) {
	lit, ok := e.(*ast.LiteralExpr)
	if !ok || lit.Value.Type() != literal.Boolean {
		return false, false
	}
	return lit.Value.Bool(), true
}
