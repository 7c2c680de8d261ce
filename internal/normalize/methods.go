package normalize

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/nlstn/go-odataql/internal/ast"
	"github.com/nlstn/go-odataql/internal/edm"
	"github.com/nlstn/go-odataql/internal/literal"
	"github.com/nlstn/go-odataql/internal/queryerrors"
)

// shortcut applies identity rewrites that hold even when some arguments are
// not literals.
func shortcut(m *ast.Method, args []ast.Expr) (ast.Expr, bool) {
	switch m.ID {
	case ast.Concat:
		switch len(args) {
		case 0:
			return ast.NewLiteral(literal.NewString("")), true
		case 1:
			return args[0], true
		}
	case ast.SubstringOf:
		// The empty string is a substring of every string.
		if lit, ok := args[0].(*ast.LiteralExpr); ok && lit.Value.Type() == literal.String && lit.Value.Text() == "" {
			if _, isLit := args[1].(*ast.LiteralExpr); !isLit {
				return ast.NewLiteral(literal.NewBool(true)), true
			}
		}
	}
	return nil, false
}

// evaluate computes a method call whose arguments are all literals. ok is
// false when the call cannot be folded, such as isof or cast applied to the
// implicit root.
func evaluate(m *ast.Method, args []literal.Value) (result literal.Value, ok bool, err error) {
	switch m.ID {
	case ast.SubstringOf, ast.StartsWith, ast.EndsWith:
		return stringPredicate(m.ID, args)
	case ast.Length:
		return stringFunc(args, func(s []string) literal.Value {
			return literal.NewInt(int32(utf8.RuneCountInString(s[0])))
		})
	case ast.IndexOf:
		return stringFunc(args, func(s []string) literal.Value {
			i := strings.Index(s[0], s[1])
			if i < 0 {
				return literal.NullValue
			}
			return literal.NewInt(int32(utf8.RuneCountInString(s[0][:i]) + 1))
		})
	case ast.Replace:
		return stringFunc(args, func(s []string) literal.Value {
			return literal.NewString(strings.ReplaceAll(s[0], s[1], s[2]))
		})
	case ast.ToLower:
		return stringFunc(args, func(s []string) literal.Value { return literal.NewString(strings.ToLower(s[0])) })
	case ast.ToUpper:
		return stringFunc(args, func(s []string) literal.Value { return literal.NewString(strings.ToUpper(s[0])) })
	case ast.Trim:
		return stringFunc(args, func(s []string) literal.Value { return literal.NewString(strings.TrimSpace(s[0])) })
	case ast.Substring:
		return substring(args)
	case ast.Concat:
		var b strings.Builder
		for _, a := range args {
			if a.IsNull() {
				continue
			}
			s, err := literal.Convert(a, literal.String)
			if err != nil {
				return literal.Value{}, false, err
			}
			b.WriteString(s.Text())
		}
		return literal.NewString(b.String()), true, nil
	case ast.Day, ast.Hour, ast.Minute, ast.Month, ast.Second, ast.Year:
		return datePart(m.ID, args[0])
	case ast.Round, ast.Floor, ast.Ceiling:
		return rounding(m.ID, args[0])
	case ast.IsOf, ast.Cast:
		if len(args) < 2 {
			return literal.Value{}, false, nil
		}
		target, found := edm.Lookup(args[1].Text())
		if !found {
			return literal.Value{}, false, queryerrors.TypeCoercion("unknown type name '%s' in %s", args[1].Text(), m.Name)
		}
		if m.ID == ast.IsOf {
			return literal.NewBool(isOf(args[0], target)), true, nil
		}
		v, err := literal.Convert(args[0], target)
		if err != nil {
			return literal.Value{}, false, err
		}
		return v, true, nil
	}
	return literal.Value{}, false, nil
}

func toStrings(args []literal.Value) ([]string, bool, error) {
	out := make([]string, len(args))
	for i, a := range args {
		if a.IsNull() {
			return nil, false, nil
		}
		s, err := literal.Convert(a, literal.String)
		if err != nil {
			return nil, false, err
		}
		out[i] = s.Text()
	}
	return out, true, nil
}

// stringFunc applies f to the string forms of args. A null argument yields
// null.
func stringFunc(args []literal.Value, f func([]string) literal.Value) (literal.Value, bool, error) {
	s, ok, err := toStrings(args)
	if err != nil {
		return literal.Value{}, false, err
	}
	if !ok {
		return literal.NullValue, true, nil
	}
	return f(s), true, nil
}

// stringPredicate evaluates substringof, startswith and endswith. A null
// argument makes the predicate false.
func stringPredicate(id ast.MethodID, args []literal.Value) (literal.Value, bool, error) {
	s, ok, err := toStrings(args)
	if err != nil {
		return literal.Value{}, false, err
	}
	if !ok {
		return literal.NewBool(false), true, nil
	}
	switch id {
	case ast.SubstringOf:
		return literal.NewBool(strings.Contains(s[1], s[0])), true, nil
	case ast.StartsWith:
		return literal.NewBool(strings.HasPrefix(s[0], s[1])), true, nil
	}
	return literal.NewBool(strings.HasSuffix(s[0], s[1])), true, nil
}

// substring takes a zero-based start and an optional length, both clamped to
// the string bounds.
func substring(args []literal.Value) (literal.Value, bool, error) {
	if args[0].IsNull() {
		return literal.NullValue, true, nil
	}
	s, err := literal.Convert(args[0], literal.String)
	if err != nil {
		return literal.Value{}, false, err
	}
	runes := []rune(s.Text())

	start, err := intArg(args[1])
	if err != nil {
		return literal.Value{}, false, err
	}
	start = clamp(start, 0, len(runes))
	end := len(runes)
	if len(args) > 2 {
		length, err := intArg(args[2])
		if err != nil {
			return literal.Value{}, false, err
		}
		end = clamp(start+clamp(length, 0, len(runes)), start, len(runes))
	}
	return literal.NewString(string(runes[start:end])), true, nil
}

func intArg(v literal.Value) (int, error) {
	i, err := literal.Convert(v, literal.Int)
	if err != nil {
		return 0, err
	}
	return int(i.Int64()), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func datePart(id ast.MethodID, arg literal.Value) (literal.Value, bool, error) {
	if arg.IsNull() {
		return literal.NullValue, true, nil
	}
	v, err := literal.Convert(arg, literal.DateTime)
	if err != nil {
		return literal.Value{}, false, err
	}
	t := v.Time()

	var part int
	switch id {
	case ast.Year:
		part = t.Year()
	case ast.Month:
		part = int(t.Month())
	case ast.Day:
		part = t.Day()
	case ast.Hour:
		part = t.Hour()
	case ast.Minute:
		part = t.Minute()
	default:
		part = t.Second()
	}
	return literal.NewInt(int32(part)), true, nil
}

// rounding applies round, floor or ceiling, keeping the numeric subtype of
// the argument.
func rounding(id ast.MethodID, arg literal.Value) (literal.Value, bool, error) {
	switch arg.Type() {
	case literal.Null:
		return literal.NullValue, true, nil
	case literal.Int, literal.Long:
		return arg, true, nil
	case literal.Decimal:
		d := arg.Decimal()
		switch id {
		case ast.Floor:
			d = d.Floor()
		case ast.Ceiling:
			d = d.Ceil()
		default:
			d = d.Round(0)
		}
		return literal.NewDecimal(d), true, nil
	case literal.Single, literal.Double:
		f := arg.Float64()
		switch id {
		case ast.Floor:
			f = math.Floor(f)
		case ast.Ceiling:
			f = math.Ceil(f)
		default:
			f = math.Round(f)
		}
		if arg.Type() == literal.Single {
			return literal.NewSingle(float32(f)), true, nil
		}
		return literal.NewDouble(f), true, nil
	}
	return literal.Value{}, false, queryerrors.TypeCoercion("cannot round a %s value", arg.Type())
}

// isOf reports whether v can be used as a value of type target without loss:
// either the types match or target is the common type of a numeric pair.
func isOf(v literal.Value, target literal.Type) bool {
	if v.IsNull() {
		return false
	}
	if v.Type() == target {
		return true
	}
	if !v.Type().IsNumeric() || !target.IsNumeric() {
		return false
	}
	common, ok := literal.CommonType(v.Type(), target)
	return ok && common == target
}
