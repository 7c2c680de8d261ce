package literal

import (
	"bytes"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Value is an immutable, typed literal value.
type Value struct {
	typ Type
	v   interface{}
}

// NullValue is the single null literal.
var NullValue = Value{typ: Null}

// NewString creates a String literal.
func NewString(s string) Value { return Value{typ: String, v: s} }

// NewBool creates a Boolean literal.
func NewBool(b bool) Value { return Value{typ: Boolean, v: b} }

// NewSingle creates a Single literal.
func NewSingle(f float32) Value { return Value{typ: Single, v: f} }

// NewDouble creates a Double literal.
func NewDouble(f float64) Value { return Value{typ: Double, v: f} }

// NewDecimal creates a Decimal literal.
func NewDecimal(d decimal.Decimal) Value { return Value{typ: Decimal, v: d} }

// NewInt creates a 32-bit Int literal.
func NewInt(i int32) Value { return Value{typ: Int, v: i} }

// NewLong creates a 64-bit Long literal.
func NewLong(i int64) Value { return Value{typ: Long, v: i} }

// NewBinary creates a Binary literal. The slice is copied.
func NewBinary(b []byte) Value {
	c := make([]byte, len(b))
	copy(c, b)
	return Value{typ: Binary, v: c}
}

// NewDateTime creates a DateTime literal normalized to UTC.
func NewDateTime(t time.Time) Value { return Value{typ: DateTime, v: t.UTC()} }

// NewGuid creates a Guid literal.
func NewGuid(g uuid.UUID) Value { return Value{typ: Guid, v: g} }

// NewDuration creates a Duration literal.
func NewDuration(d time.Duration) Value { return Value{typ: Duration, v: d} }

// Type returns the literal type tag.
func (v Value) Type() Type { return v.typ }

// IsNull reports whether v is the null literal.
func (v Value) IsNull() bool { return v.typ == Null }

// Interface returns the underlying Go value: nil, string, bool, float32,
// float64, decimal.Decimal, int32, int64, []byte, time.Time, uuid.UUID or
// time.Duration depending on the type tag.
func (v Value) Interface() interface{} {
	if v.typ == Binary {
		return v.Bytes()
	}
	return v.v
}

// Text returns the payload of a String literal.
func (v Value) Text() string {
	s, _ := v.v.(string)
	return s
}

// Bool returns the payload of a Boolean literal.
func (v Value) Bool() bool {
	b, _ := v.v.(bool)
	return b
}

// Int64 returns the payload of an integer-family literal.
func (v Value) Int64() int64 {
	switch v.typ {
	case Int:
		return int64(v.v.(int32))
	case Long:
		return v.v.(int64)
	}
	return 0
}

// Float64 returns the value of any numeric literal as a float64.
func (v Value) Float64() float64 {
	switch v.typ {
	case Single:
		return float64(v.v.(float32))
	case Double:
		return v.v.(float64)
	case Decimal:
		f, _ := v.v.(decimal.Decimal).Float64()
		return f
	case Int, Long:
		return float64(v.Int64())
	}
	return 0
}

// Decimal returns the value of any numeric literal as a decimal.
func (v Value) Decimal() decimal.Decimal {
	switch v.typ {
	case Decimal:
		return v.v.(decimal.Decimal)
	case Int, Long:
		return decimal.NewFromInt(v.Int64())
	case Single:
		return decimal.NewFromFloat32(v.v.(float32))
	case Double:
		return decimal.NewFromFloat(v.v.(float64))
	}
	return decimal.Zero
}

// Bytes returns a copy of the payload of a Binary literal.
func (v Value) Bytes() []byte {
	b, _ := v.v.([]byte)
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

// Time returns the payload of a DateTime literal.
func (v Value) Time() time.Time {
	t, _ := v.v.(time.Time)
	return t
}

// UUID returns the payload of a Guid literal.
func (v Value) UUID() uuid.UUID {
	g, _ := v.v.(uuid.UUID)
	return g
}

// Duration returns the payload of a Duration literal.
func (v Value) Duration() time.Duration {
	d, _ := v.v.(time.Duration)
	return d
}

// Equal reports structural equality: same type tag and same payload. Binary
// payloads compare element-wise and NaN equals NaN, so Equal is suitable for
// comparing trees, not for evaluating the eq operator.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case Null:
		return true
	case Binary:
		return bytes.Equal(v.v.([]byte), o.v.([]byte))
	case Decimal:
		return v.v.(decimal.Decimal).Equal(o.v.(decimal.Decimal))
	case DateTime:
		return v.Time().Equal(o.Time())
	case Double, Single:
		a, b := v.Float64(), o.Float64()
		if math.IsNaN(a) && math.IsNaN(b) {
			return true
		}
		return a == b
	}
	return v.v == o.v
}

// String renders v in query-language syntax so that lexing the result yields
// an equal value.
func (v Value) String() string {
	switch v.typ {
	case Null:
		return "null"
	case String:
		return "'" + strings.ReplaceAll(v.Text(), "'", "''") + "'"
	case Boolean:
		return strconv.FormatBool(v.Bool())
	case Single:
		return formatFloat(float64(v.v.(float32)), 32, "f")
	case Double:
		return formatFloat(v.v.(float64), 64, "d")
	case Decimal:
		return v.Decimal().String() + "m"
	case Int:
		return strconv.FormatInt(v.Int64(), 10)
	case Long:
		return strconv.FormatInt(v.Int64(), 10) + "L"
	case Binary:
		return "X'" + strings.ToUpper(hex.EncodeToString(v.v.([]byte))) + "'"
	case DateTime:
		return "datetime'" + FormatDateTime(v.Time()) + "'"
	case Guid:
		return "guid'" + v.UUID().String() + "'"
	case Duration:
		return "time'" + FormatDuration(v.Duration()) + "'"
	}
	return "?"
}

func formatFloat(f float64, bits int, suffix string) string {
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.IsNaN(f):
		return "Nan"
	}
	s := strings.Replace(strconv.FormatFloat(f, 'g', -1, bits), "e+", "e", 1)
	if bits == 32 || !strings.ContainsAny(s, ".e") {
		s += suffix
	}
	return s
}

// text renders v without query-language decoration, as used when a value is
// coerced to String.
func (v Value) text() string {
	switch v.typ {
	case Null:
		return ""
	case String:
		return v.Text()
	case Boolean:
		return strconv.FormatBool(v.Bool())
	case Single:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 32)
	case Double:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case Decimal:
		return v.Decimal().String()
	case Int, Long:
		return strconv.FormatInt(v.Int64(), 10)
	case Binary:
		return strings.ToUpper(hex.EncodeToString(v.v.([]byte)))
	case DateTime:
		return FormatDateTime(v.Time())
	case Guid:
		return v.UUID().String()
	case Duration:
		return FormatDuration(v.Duration())
	}
	return ""
}

// FormatDateTime renders t in the datetime literal layout, with milliseconds
// only when they are non-zero.
func FormatDateTime(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond() != 0 {
		return t.Format("2006-01-02T15:04:05.000")
	}
	return t.Format("2006-01-02T15:04:05")
}
