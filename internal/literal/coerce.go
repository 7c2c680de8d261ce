package literal

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nlstn/go-odataql/internal/queryerrors"
)

// CommonType returns the type both operands of a binary operator coerce to.
// Identical types pass through; a String on either side wins; two integer
// types widen to Long; any other numeric pair promotes to Decimal when a
// Decimal is involved and to Double otherwise. Null never has a common type.
func CommonType(a, b Type) (Type, bool) {
	if a == Null || b == Null {
		return Null, false
	}
	if a == b {
		return a, true
	}
	if a == String || b == String {
		return String, true
	}
	if a.IsInteger() && b.IsInteger() {
		return Long, true
	}
	if a.IsNumeric() && b.IsNumeric() {
		if a == Decimal || b == Decimal {
			return Decimal, true
		}
		return Double, true
	}
	return Null, false
}

// Coerce converts both operands to their common type.
func Coerce(a, b Value) (Value, Value, error) {
	t, ok := CommonType(a.typ, b.typ)
	if !ok {
		return Value{}, Value{}, queryerrors.TypeCoercion("incompatible types %s and %s", a.typ, b.typ)
	}
	ca, err := Convert(a, t)
	if err != nil {
		return Value{}, Value{}, err
	}
	cb, err := Convert(b, t)
	if err != nil {
		return Value{}, Value{}, err
	}
	return ca, cb, nil
}

// Convert converts v to type t. Widening conversions always succeed;
// narrowing and string parsing conversions fail with a TypeCoercionError when
// the value does not fit. Null converts to Null for every target.
func Convert(v Value, t Type) (Value, error) {
	if v.typ == t {
		return v, nil
	}
	if v.typ == Null {
		return NullValue, nil
	}

	switch t {
	case String:
		return NewString(v.text()), nil
	case Boolean:
		return toBoolean(v)
	case Single, Double, Decimal, Int, Long:
		return toNumeric(v, t)
	case DateTime:
		if v.typ == String {
			if tm, ok := ParseDateTime(v.Text()); ok {
				return NewDateTime(tm), nil
			}
		}
	case Guid:
		if v.typ == String {
			if g, err := uuid.Parse(v.Text()); err == nil {
				return NewGuid(g), nil
			}
		}
	case Binary:
		if v.typ == String {
			if b, err := hex.DecodeString(v.Text()); err == nil {
				return NewBinary(b), nil
			}
		}
	case Duration:
		if v.typ == String {
			if d, err := ParseDuration(v.Text()); err == nil {
				return NewDuration(d), nil
			}
		}
	}
	return Value{}, conversionError(v, t)
}

func conversionError(v Value, t Type) error {
	return queryerrors.TypeCoercion("cannot convert %s value %s to %s", v.typ, v.String(), t)
}

func toBoolean(v Value) (Value, error) {
	switch v.typ {
	case String:
		switch strings.ToLower(v.Text()) {
		case "true":
			return NewBool(true), nil
		case "false":
			return NewBool(false), nil
		}
	case Int, Long:
		switch v.Int64() {
		case 0:
			return NewBool(false), nil
		case 1:
			return NewBool(true), nil
		}
	}
	return Value{}, conversionError(v, Boolean)
}

func toNumeric(v Value, t Type) (Value, error) {
	if v.typ == String {
		return parseNumeric(v, t)
	}
	if !v.typ.IsNumeric() {
		return Value{}, conversionError(v, t)
	}

	switch t {
	case Double:
		return NewDouble(v.Float64()), nil
	case Single:
		f := v.Float64()
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return Value{}, conversionError(v, t)
		}
		return NewSingle(float32(f)), nil
	case Decimal:
		if v.typ.IsFloating() {
			f := v.Float64()
			if math.IsInf(f, 0) || math.IsNaN(f) {
				return Value{}, conversionError(v, t)
			}
		}
		return NewDecimal(v.Decimal()), nil
	}

	// Int and Long truncate toward zero.
	var n int64
	switch v.typ {
	case Int, Long:
		n = v.Int64()
	case Decimal:
		d := v.Decimal().Truncate(0)
		if !d.IsInteger() || d.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || d.LessThan(decimal.NewFromInt(math.MinInt64)) {
			return Value{}, conversionError(v, t)
		}
		n = d.IntPart()
	default:
		f := math.Trunc(v.Float64())
		if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
			return Value{}, conversionError(v, t)
		}
		n = int64(f)
	}
	if t == Int {
		if n > math.MaxInt32 || n < math.MinInt32 {
			return Value{}, conversionError(v, t)
		}
		return NewInt(int32(n)), nil
	}
	return NewLong(n), nil
}

func parseNumeric(v Value, t Type) (Value, error) {
	s := strings.TrimSpace(v.Text())
	switch t {
	case Int:
		n, err := strconv.ParseInt(s, 10, 32)
		if err == nil {
			return NewInt(int32(n)), nil
		}
	case Long:
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return NewLong(n), nil
		}
	case Single:
		f, err := strconv.ParseFloat(s, 32)
		if err == nil {
			return NewSingle(float32(f)), nil
		}
	case Double:
		f, err := strconv.ParseFloat(s, 64)
		if err == nil {
			return NewDouble(f), nil
		}
	case Decimal:
		d, err := decimal.NewFromString(s)
		if err == nil {
			return NewDecimal(d), nil
		}
	}
	return Value{}, conversionError(v, t)
}
