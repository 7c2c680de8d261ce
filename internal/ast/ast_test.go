package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlstn/go-odataql/internal/literal"
)

func TestOperatorTiers(t *testing.T) {
	ordered := []Operator{Or, And, Eq, Lt, Mul, Add, Negate}
	for i := 1; i < len(ordered); i++ {
		assert.Less(t, ordered[i-1].Tier(), ordered[i].Tier(), "%s vs %s", ordered[i-1], ordered[i])
	}
	assert.Equal(t, Add.Tier(), Sub.Tier())
	assert.Equal(t, Mul.Tier(), Div.Tier())
	assert.Equal(t, Mul.Tier(), Mod.Tier())
	assert.Equal(t, Eq.Tier(), Ne.Tier())
	assert.Equal(t, Not.Tier(), Negate.Tier())
}

func TestOperatorComplement(t *testing.T) {
	pairs := map[Operator]Operator{Eq: Ne, Gt: Le, Ge: Lt, And: Or}
	for op, complement := range pairs {
		assert.Equal(t, complement, op.Complement())
		assert.Equal(t, op, complement.Complement())
	}
}

func TestAsBoolean(t *testing.T) {
	t.Run("member becomes boolean member", func(t *testing.T) {
		got, ok := AsBoolean(NewMember("Active"))
		require.True(t, ok)
		assert.Equal(t, &MemberExpr{Kind: BooleanMember, Path: []Segment{{Name: "Active"}}}, got)
	})

	t.Run("zero and one become booleans", func(t *testing.T) {
		got, ok := AsBoolean(NewLiteral(literal.NewInt(1)))
		require.True(t, ok)
		assert.Equal(t, "true", got.String())

		got, ok = AsBoolean(NewLiteral(literal.NewInt(0)))
		require.True(t, ok)
		assert.Equal(t, "false", got.String())
	})

	t.Run("other integers are rejected", func(t *testing.T) {
		_, ok := AsBoolean(NewLiteral(literal.NewInt(2)))
		assert.False(t, ok)
	})

	t.Run("groups recurse", func(t *testing.T) {
		got, ok := AsBoolean(&GroupExpr{Inner: NewMember("Active")})
		require.True(t, ok)
		assert.True(t, got.IsBoolean())
		assert.Equal(t, "(Active)", got.String())
	})

	t.Run("arithmetic is rejected", func(t *testing.T) {
		_, ok := AsBoolean(&ArithmeticExpr{Op: Add, Left: NewMember("A"), Right: NewMember("B")})
		assert.False(t, ok)
	})

	t.Run("typed resolved members", func(t *testing.T) {
		_, ok := AsBoolean(&ResolvedMemberExpr{Name: "Price", Type: literal.Decimal})
		assert.False(t, ok)

		got, ok := AsBoolean(&ResolvedMemberExpr{Name: "Active", Type: literal.Boolean})
		require.True(t, ok)
		assert.True(t, got.IsBoolean())
	})
}

func TestNewBinary(t *testing.T) {
	e, err := NewBinary(And, NewMember("A"), NewLiteral(literal.NewInt(1)))
	require.NoError(t, err)
	logical, ok := e.(*LogicalExpr)
	require.True(t, ok)
	assert.True(t, logical.Left.IsBoolean())
	assert.True(t, logical.Right.IsBoolean())

	_, err = NewBinary(Or, NewMember("A"), NewLiteral(literal.NewString("x")))
	assert.ErrorIs(t, err, ErrNotBoolean)

	e, err = NewBinary(Gt, NewMember("A"), NewLiteral(literal.NewInt(5)))
	require.NoError(t, err)
	assert.Equal(t, "A gt 5", e.String())

	_, err = NewNot(NewLiteral(literal.NewString("x")))
	assert.ErrorIs(t, err, ErrNotBoolean)
}

func TestLookupMethod(t *testing.T) {
	m, ok := LookupMethod("SubstringOf")
	require.True(t, ok)
	assert.Equal(t, SubstringOf, m.ID)
	assert.True(t, m.Boolean)

	m, ok = LookupMethod("concat")
	require.True(t, ok)
	assert.Equal(t, Unbounded, m.MaxArgs)

	_, ok = LookupMethod("contains")
	assert.False(t, ok)

	for name, m := range Methods() {
		assert.Equal(t, name, m.Name)
	}
}

func TestParamKinds(t *testing.T) {
	cast, _ := LookupMethod("cast")
	assert.Equal(t, []ParamKind{StringLiteralOnly}, cast.ParamKinds(1))
	assert.Equal(t, []ParamKind{OptionalCommon, StringLiteralOnly}, cast.ParamKinds(2))

	concat, _ := LookupMethod("concat")
	assert.Equal(t, []ParamKind{Common, Common, Common}, concat.ParamKinds(3))
	assert.Empty(t, concat.ParamKinds(0))
}

func TestString(t *testing.T) {
	key := literal.NewInt(5)
	member := &MemberExpr{Path: []Segment{{Name: "Orders", Key: &key}, {Name: "Total"}}}
	assert.Equal(t, "Orders(5)/Total", member.String())

	startsWith, _ := LookupMethod("startswith")
	call := &MethodCallExpr{Method: startsWith, Args: []Expr{NewMember("Name"), NewLiteral(literal.NewString("A"))}}
	assert.Equal(t, "startswith(Name, 'A')", call.String())

	not := &UnaryExpr{Op: Not, Operand: &GroupExpr{Inner: call}}
	assert.Equal(t, "not (startswith(Name, 'A'))", not.String())
	assert.True(t, not.IsBoolean())

	neg := &UnaryExpr{Op: Negate, Operand: NewMember("Price")}
	assert.Equal(t, "-Price", neg.String())
	assert.False(t, neg.IsBoolean())

	anyMethod, _ := LookupMethod("any")
	lambda := &MethodCallExpr{Method: anyMethod, Args: []Expr{NewMember("Orders"), &LambdaExpr{Param: "o", Body: &ComparisonExpr{Op: Gt, Left: NewMember("o", "Total"), Right: NewLiteral(literal.NewInt(1))}}}}
	assert.Equal(t, "Orders/any(o: o/Total gt 1)", lambda.String())
}
