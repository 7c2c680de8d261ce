// Package literal implements the closed literal type system of the query
// language. Every value carries its Type tag; coercion, comparison and
// arithmetic are driven by the tag alone.
package literal

// Type is the literal type tag.
type Type int

const (
	Null Type = iota
	String
	Boolean
	Single
	Double
	Decimal
	Int
	Long
	Binary
	DateTime
	Guid
	Duration
)

var typeNames = [...]string{
	Null:     "Null",
	String:   "String",
	Boolean:  "Boolean",
	Single:   "Single",
	Double:   "Double",
	Decimal:  "Decimal",
	Int:      "Int",
	Long:     "Long",
	Binary:   "Binary",
	DateTime: "DateTime",
	Guid:     "Guid",
	Duration: "Duration",
}

// String returns the name of the type tag.
func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "Unknown"
	}
	return typeNames[t]
}

// IsInteger reports whether t belongs to the integer family.
func (t Type) IsInteger() bool {
	return t == Int || t == Long
}

// IsFloating reports whether t is a binary floating point type.
func (t Type) IsFloating() bool {
	return t == Single || t == Double
}

// IsNumeric reports whether t is an integer, floating point or decimal type.
func (t Type) IsNumeric() bool {
	return t.IsInteger() || t.IsFloating() || t == Decimal
}

// IsOrdered reports whether values of t may be compared with lt/le/gt/ge.
func (t Type) IsOrdered() bool {
	switch t {
	case Null, Binary, Guid:
		return false
	}
	return true
}
