package literal

import (
	"bytes"
	"math"
	"strings"

	"github.com/nlstn/go-odataql/internal/queryerrors"
)

// ArithmeticOp identifies a binary arithmetic operation on literals.
type ArithmeticOp int

const (
	OpAdd ArithmeticOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

var arithmeticNames = [...]string{"add", "sub", "mul", "div", "mod"}

func (op ArithmeticOp) String() string {
	if op < 0 || int(op) >= len(arithmeticNames) {
		return "?"
	}
	return arithmeticNames[op]
}

// Equals evaluates the eq operator. Null equals only Null; any other pair is
// coerced to its common type first. Binary payloads compare element-wise.
func Equals(a, b Value) (bool, error) {
	if a.typ == Null || b.typ == Null {
		return a.typ == b.typ, nil
	}
	ca, cb, err := Coerce(a, b)
	if err != nil {
		return false, err
	}
	switch ca.typ {
	case Binary:
		return bytes.Equal(ca.v.([]byte), cb.v.([]byte)), nil
	case Decimal:
		return ca.Decimal().Equal(cb.Decimal()), nil
	case DateTime:
		return ca.Time().Equal(cb.Time()), nil
	case Single, Double:
		return ca.Float64() == cb.Float64(), nil
	}
	return ca.v == cb.v, nil
}

// Compare orders a and b after coercion, returning -1, 0 or 1. Ordering is
// illegal on Null, Binary and Guid.
func Compare(a, b Value) (int, error) {
	if !a.typ.IsOrdered() || !b.typ.IsOrdered() {
		return 0, queryerrors.TypeCoercion("ordering comparison between %s and %s is not allowed", a.typ, b.typ)
	}
	ca, cb, err := Coerce(a, b)
	if err != nil {
		return 0, err
	}
	switch ca.typ {
	case String:
		return strings.Compare(ca.Text(), cb.Text()), nil
	case Boolean:
		return compareBool(ca.Bool(), cb.Bool()), nil
	case Int, Long:
		return compareInt(ca.Int64(), cb.Int64()), nil
	case Single, Double:
		return compareFloat(ca.Float64(), cb.Float64()), nil
	case Decimal:
		return ca.Decimal().Cmp(cb.Decimal()), nil
	case DateTime:
		return ca.Time().Compare(cb.Time()), nil
	case Duration:
		return compareInt(int64(ca.Duration()), int64(cb.Duration())), nil
	}
	return 0, queryerrors.TypeCoercion("ordering comparison on %s is not allowed", ca.typ)
}

// Arithmetic applies op to a and b. The result keeps the coerced common type.
func Arithmetic(op ArithmeticOp, a, b Value) (Value, error) {
	ca, cb, err := Coerce(a, b)
	if err != nil {
		return Value{}, err
	}
	switch ca.typ {
	case Int:
		n, err := integerOp(op, ca.Int64(), cb.Int64())
		if err != nil {
			return Value{}, err
		}
		if n > math.MaxInt32 || n < math.MinInt32 {
			return Value{}, queryerrors.TypeCoercion("Int overflow in %s", op)
		}
		return NewInt(int32(n)), nil
	case Long:
		n, err := integerOp(op, ca.Int64(), cb.Int64())
		if err != nil {
			return Value{}, err
		}
		return NewLong(n), nil
	case Single:
		return NewSingle(float32(floatOp(op, ca.Float64(), cb.Float64()))), nil
	case Double:
		return NewDouble(floatOp(op, ca.Float64(), cb.Float64())), nil
	case Decimal:
		x, y := ca.Decimal(), cb.Decimal()
		switch op {
		case OpAdd:
			return NewDecimal(x.Add(y)), nil
		case OpSub:
			return NewDecimal(x.Sub(y)), nil
		case OpMul:
			return NewDecimal(x.Mul(y)), nil
		}
		if y.IsZero() {
			return Value{}, queryerrors.TypeCoercion("division by zero")
		}
		if op == OpDiv {
			return NewDecimal(x.Div(y)), nil
		}
		return NewDecimal(x.Mod(y)), nil
	case Duration:
		switch op {
		case OpAdd:
			return NewDuration(ca.Duration() + cb.Duration()), nil
		case OpSub:
			return NewDuration(ca.Duration() - cb.Duration()), nil
		}
	}
	return Value{}, queryerrors.TypeCoercion("operator %s is not defined for %s", op, ca.typ)
}

// Negate flips the sign of a numeric or duration literal.
func Negate(v Value) (Value, error) {
	switch v.typ {
	case Int:
		if v.Int64() == math.MinInt32 {
			return NewLong(-v.Int64()), nil
		}
		return NewInt(int32(-v.Int64())), nil
	case Long:
		if v.Int64() == math.MinInt64 {
			return Value{}, queryerrors.TypeCoercion("Long overflow in negation")
		}
		return NewLong(-v.Int64()), nil
	case Single:
		return NewSingle(-v.v.(float32)), nil
	case Double:
		return NewDouble(-v.Float64()), nil
	case Decimal:
		return NewDecimal(v.Decimal().Neg()), nil
	case Duration:
		return NewDuration(-v.Duration()), nil
	}
	return Value{}, queryerrors.TypeCoercion("cannot negate %s", v.typ)
}

func integerOp(op ArithmeticOp, a, b int64) (int64, error) {
	switch op {
	case OpAdd:
		c := a + b
		if (c > a) != (b > 0) {
			return 0, queryerrors.TypeCoercion("Long overflow in add")
		}
		return c, nil
	case OpSub:
		c := a - b
		if (c < a) != (b > 0) {
			return 0, queryerrors.TypeCoercion("Long overflow in sub")
		}
		return c, nil
	case OpMul:
		if a == 0 || b == 0 {
			return 0, nil
		}
		c := a * b
		if c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return 0, queryerrors.TypeCoercion("Long overflow in mul")
		}
		return c, nil
	}
	if b == 0 {
		return 0, queryerrors.TypeCoercion("division by zero")
	}
	if op == OpDiv {
		return a / b, nil
	}
	return a % b, nil
}

func floatOp(op ArithmeticOp, a, b float64) float64 {
	switch op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		return a / b
	}
	return math.Mod(a, b)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
