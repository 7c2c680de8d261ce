package normalize

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlstn/go-odataql/internal/ast"
	"github.com/nlstn/go-odataql/internal/literal"
	"github.com/nlstn/go-odataql/internal/parser"
	"github.com/nlstn/go-odataql/internal/queryerrors"
)

func normalizeCommon(t *testing.T, src string) (ast.Expr, error) {
	t.Helper()
	e, err := parser.ParseCommon(src)
	require.NoError(t, err)
	return Normalize(e, nil)
}

func normalizeLiteral(t *testing.T, src string) literal.Value {
	t.Helper()
	e, err := normalizeCommon(t, src)
	require.NoError(t, err)
	lit, ok := e.(*ast.LiteralExpr)
	require.True(t, ok, "expected literal, got %s", e)
	return lit.Value
}

func requireTypeError(t *testing.T, err error) {
	t.Helper()
	var typeErr *queryerrors.TypeCoercionError
	require.True(t, errors.As(err, &typeErr), "expected TypeCoercionError, got %v", err)
}

func TestNormalize_Arithmetic(t *testing.T) {
	t.Run("Single plus Int", func(t *testing.T) {
		v := normalizeLiteral(t, "1.1f add 1")
		assert.Equal(t, literal.Double, v.Type())
		assert.Equal(t, float64(float32(1.1))+1, v.Float64())
	})

	t.Run("Decimal plus Int", func(t *testing.T) {
		v := normalizeLiteral(t, "1.1m add 1")
		assert.Equal(t, literal.Decimal, v.Type())
		assert.True(t, decimal.RequireFromString("2.1").Equal(v.Decimal()))
	})

	t.Run("Int and Long", func(t *testing.T) {
		v := normalizeLiteral(t, "2 mul 3L")
		assert.True(t, v.Equal(literal.NewLong(6)))
	})

	t.Run("String arithmetic", func(t *testing.T) {
		_, err := normalizeCommon(t, "'a' add 1")
		requireTypeError(t, err)
	})

	t.Run("Binary", func(t *testing.T) {
		_, err := normalizeCommon(t, "X'00' add X'00'")
		requireTypeError(t, err)
	})

	t.Run("Negation", func(t *testing.T) {
		v := normalizeLiteral(t, "-(2 add 3)")
		assert.True(t, v.Equal(literal.NewInt(-5)))
	})

	t.Run("Left to right", func(t *testing.T) {
		tests := map[string]int32{
			"1 sub 2 sub 3": -4,
			"8 div 4 div 2": 1,
			"1 sub 2 add 3": 2,
			"2 mul 3 mod 4": 2,
			"1 mul 2 add 3": 5,
		}
		for src, want := range tests {
			v := normalizeLiteral(t, src)
			assert.True(t, v.Equal(literal.NewInt(want)), "%s = %s", src, v)
		}
	})

	t.Run("Partial folding", func(t *testing.T) {
		e, err := normalizeCommon(t, "Price add (1 add 2)")
		require.NoError(t, err)
		assert.Equal(t, "Price add 3", e.String())
	})
}

func TestNormalize_Comparisons(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"1 lt 2", true},
		{"2L ge 2.5m", false},
		{"'a' eq 'a'", true},
		{"'5' eq 5", true},
		{"null eq null", true},
		{"null ne 1", true},
		{"X'01' eq X'01'", true},
		{"datetime'2014-01-02T03:04' gt datetime'2014-01-01T03:04'", true},
		{"true and false", false},
		{"true or false", true},
		{"not false", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v := normalizeLiteral(t, tt.input)
			assert.True(t, v.Equal(literal.NewBool(tt.expected)), "got %s", v)
		})
	}

	for _, bad := range []string{"null lt 1", "X'01' lt X'02'", "guid'12345678-aaaa-bbbb-cccc-ddddeeeeffff' gt 'a'"} {
		t.Run(bad, func(t *testing.T) {
			_, err := normalizeCommon(t, bad)
			require.Error(t, err)
		})
	}
}

func TestNormalize_NullComparisonsStay(t *testing.T) {
	e, err := normalizeCommon(t, "Price eq null")
	require.NoError(t, err)
	cmp, ok := e.(*ast.ComparisonExpr)
	require.True(t, ok)
	assert.True(t, cmp.Right.(*ast.LiteralExpr).Value.IsNull())
}

func TestNormalize_NoShortCircuit(t *testing.T) {
	_, err := normalizeCommon(t, "false and (X'00' add X'00' eq 1)")
	requireTypeError(t, err)
}

func TestNormalize_Methods(t *testing.T) {
	tests := []struct {
		input    string
		expected literal.Value
	}{
		{"length('abc')", literal.NewInt(3)},
		{"indexof('abc', 'c')", literal.NewInt(3)},
		{"indexof('abc', 'z')", literal.NullValue},
		{"replace('a-b', '-', '+')", literal.NewString("a+b")},
		{"substring('hello', 1)", literal.NewString("ello")},
		{"substring('hello', 1, 3)", literal.NewString("ell")},
		{"substring('hello', 10)", literal.NewString("")},
		{"tolower('AbC')", literal.NewString("abc")},
		{"toupper('AbC')", literal.NewString("ABC")},
		{"trim('  x ')", literal.NewString("x")},
		{"concat('a', 1, 'b')", literal.NewString("a1b")},
		{"concat()", literal.NewString("")},
		{"substringof('ell', 'hello')", literal.NewBool(true)},
		{"startswith('hello', 'he')", literal.NewBool(true)},
		{"endswith('hello', 'he')", literal.NewBool(false)},
		{"startswith(null, 'he')", literal.NewBool(false)},
		{"length(null)", literal.NullValue},
		{"year(datetime'2014-01-02T03:04:05')", literal.NewInt(2014)},
		{"month(datetime'2014-01-02T03:04:05')", literal.NewInt(1)},
		{"day(datetime'2014-01-02T03:04:05')", literal.NewInt(2)},
		{"hour(datetime'2014-01-02T03:04:05')", literal.NewInt(3)},
		{"minute(datetime'2014-01-02T03:04:05')", literal.NewInt(4)},
		{"second(datetime'2014-01-02T03:04:05')", literal.NewInt(5)},
		{"round(2.5d)", literal.NewDouble(3)},
		{"floor(2.5f)", literal.NewSingle(2)},
		{"ceiling(2.1m)", literal.NewDecimal(decimal.NewFromInt(3))},
		{"round(5)", literal.NewInt(5)},
		{"cast(5, 'Edm.String')", literal.NewString("5")},
		{"cast('42', 'Edm.Int64')", literal.NewLong(42)},
		{"isof(5, 'Edm.Int64')", literal.NewBool(true)},
		{"isof(5.5d, 'Edm.Int32')", literal.NewBool(false)},
		{"isof('x', 'Edm.String')", literal.NewBool(true)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v := normalizeLiteral(t, tt.input)
			assert.Equal(t, tt.expected.Type(), v.Type())
			assert.True(t, tt.expected.Equal(v), "got %s", v)
		})
	}

	for _, bad := range []string{"cast(5, 'Edm.Foo')", "cast('x', 'Edm.Int32')", "round('x')", "year('nope')"} {
		t.Run(bad, func(t *testing.T) {
			_, err := normalizeCommon(t, bad)
			requireTypeError(t, err)
		})
	}
}

func TestNormalize_MethodShortcuts(t *testing.T) {
	e, err := normalizeCommon(t, "concat(Name)")
	require.NoError(t, err)
	assert.Equal(t, ast.NewMember("Name"), e)

	e, err = normalizeCommon(t, "substringof('', Name)")
	require.NoError(t, err)
	assert.Equal(t, "true", e.String())

	e, err = normalizeCommon(t, "isof('Model.Customer')")
	require.NoError(t, err)
	assert.Equal(t, "isof('Model.Customer')", e.String())

	e, err = normalizeCommon(t, "concat(Name, toupper('x'))")
	require.NoError(t, err)
	assert.Equal(t, "concat(Name, 'X')", e.String())
}

func TestNormalize_BooleanCallComparisons(t *testing.T) {
	tests := map[string]string{
		"startswith(Name, 'A') eq true":  "startswith(Name, 'A')",
		"startswith(Name, 'A') ne false": "startswith(Name, 'A')",
		"startswith(Name, 'A') eq false": "not startswith(Name, 'A')",
		"true ne endswith(Name, 'A')":    "not endswith(Name, 'A')",
		"length(Name) eq 1":              "length(Name) eq 1",
	}

	for input, expected := range tests {
		t.Run(input, func(t *testing.T) {
			e, err := normalizeCommon(t, input)
			require.NoError(t, err)
			assert.Equal(t, expected, e.String())
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Price add (1 add 2) gt 5 and not (Active)",
		"startswith(Name, 'A') eq false or Price eq null",
		"(A or B) and (C or 1)",
		"-(Price) mul 2 lt 10",
		"Orders/any(o: o/Total gt 1 add 1)",
		"concat(Name, concat()) eq 'x'",
		"not (1 eq 1)",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			e, err := parser.ParseFilter(input)
			require.NoError(t, err)
			once, err := Normalize(e, nil)
			require.NoError(t, err)
			twice, err := Normalize(once, nil)
			require.NoError(t, err)
			assert.Equal(t, once, twice)
		})
	}
}

// pathFlattener joins member paths with dots and records lambda scopes.
type pathFlattener struct {
	scopes []string
}

func (f *pathFlattener) ResolveMember(m *ast.MemberExpr) (ast.Expr, error) {
	names := m.Names()
	if len(f.scopes) > 0 && names[0] == f.scopes[len(f.scopes)-1] {
		names = append([]string{"elem"}, names[1:]...)
	}
	if names[0] == "Missing" {
		return nil, &queryerrors.ResolutionError{Name: "Missing", Owner: "Product"}
	}
	return &ast.ResolvedMemberExpr{Kind: m.Kind, Name: strings.Join(names, "."), Property: names[len(names)-1]}, nil
}

func (f *pathFlattener) EnterLambda(_ ast.Expr, param string) error {
	f.scopes = append(f.scopes, param)
	return nil
}

func (f *pathFlattener) ExitLambda() {
	f.scopes = f.scopes[:len(f.scopes)-1]
}

func TestNormalize_MemberResolver(t *testing.T) {
	e, err := parser.ParseFilter("Child/Name eq 'X' and Orders/any(o: o/Total gt 1)")
	require.NoError(t, err)

	flattener := &pathFlattener{}
	got, err := Normalize(e, flattener)
	require.NoError(t, err)
	assert.Equal(t, "Child.Name eq 'X' and Orders/any(o: elem.Total gt 1)", got.String())
	assert.Empty(t, flattener.scopes)

	again, err := Normalize(got, flattener)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	e, err = parser.ParseFilter("Missing eq 1")
	require.NoError(t, err)
	_, err = Normalize(e, flattener)
	var resErr *queryerrors.ResolutionError
	assert.True(t, errors.As(err, &resErr))
}
