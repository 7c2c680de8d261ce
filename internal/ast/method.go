package ast

import "strings"

// MethodID identifies a registered method.
type MethodID int

const (
	SubstringOf MethodID = iota
	EndsWith
	StartsWith
	Length
	IndexOf
	Replace
	Substring
	ToLower
	ToUpper
	Trim
	Concat
	Day
	Hour
	Minute
	Month
	Second
	Year
	Round
	Floor
	Ceiling
	IsOf
	Cast
	Any
	All
)

// ParamKind constrains one method argument.
type ParamKind int

const (
	// Common accepts any expression.
	Common ParamKind = iota
	// StringLiteralOnly requires a string literal.
	StringLiteralOnly
	// OptionalCommon accepts any expression and may be omitted.
	OptionalCommon
)

// Unbounded is the MaxArgs of a method taking any number of arguments.
const Unbounded = -1

// Method describes a callable function.
type Method struct {
	ID   MethodID
	Name string
	// Params lists the argument constraints. When a method accepts fewer
	// arguments than len(Params), leading OptionalCommon entries are dropped
	// first. Arguments beyond len(Params) use the last entry.
	Params  []ParamKind
	MinArgs int
	MaxArgs int
	// Boolean marks methods returning a boolean.
	Boolean bool
	// Quantifier marks any/all, whose single argument is a lambda.
	Quantifier bool
}

// ParamKinds returns the constraint for each of n supplied arguments.
func (m *Method) ParamKinds(n int) []ParamKind {
	params := m.Params
	for len(params) > n && len(params) > 0 && params[0] == OptionalCommon {
		params = params[1:]
	}
	kinds := make([]ParamKind, n)
	for i := range kinds {
		switch {
		case i < len(params):
			kinds[i] = params[i]
		case len(params) > 0:
			kinds[i] = params[len(params)-1]
		}
	}
	return kinds
}

func method(id MethodID, name string, min, max int, boolean bool, params ...ParamKind) *Method {
	return &Method{ID: id, Name: name, Params: params, MinArgs: min, MaxArgs: max, Boolean: boolean}
}

var methods = func() map[string]*Method {
	list := []*Method{
		method(SubstringOf, "substringof", 2, 2, true, Common, Common),
		method(EndsWith, "endswith", 2, 2, true, Common, Common),
		method(StartsWith, "startswith", 2, 2, true, Common, Common),
		method(Length, "length", 1, 1, false, Common),
		method(IndexOf, "indexof", 2, 2, false, Common, Common),
		method(Replace, "replace", 3, 3, false, Common, Common, Common),
		method(Substring, "substring", 2, 3, false, Common, Common, Common),
		method(ToLower, "tolower", 1, 1, false, Common),
		method(ToUpper, "toupper", 1, 1, false, Common),
		method(Trim, "trim", 1, 1, false, Common),
		method(Concat, "concat", 0, Unbounded, false, Common),
		method(Day, "day", 1, 1, false, Common),
		method(Hour, "hour", 1, 1, false, Common),
		method(Minute, "minute", 1, 1, false, Common),
		method(Month, "month", 1, 1, false, Common),
		method(Second, "second", 1, 1, false, Common),
		method(Year, "year", 1, 1, false, Common),
		method(Round, "round", 1, 1, false, Common),
		method(Floor, "floor", 1, 1, false, Common),
		method(Ceiling, "ceiling", 1, 1, false, Common),
		method(IsOf, "isof", 1, 2, true, OptionalCommon, StringLiteralOnly),
		method(Cast, "cast", 1, 2, false, OptionalCommon, StringLiteralOnly),
		{ID: Any, Name: "any", MinArgs: 0, MaxArgs: 1, Boolean: true, Quantifier: true},
		{ID: All, Name: "all", MinArgs: 1, MaxArgs: 1, Boolean: true, Quantifier: true},
	}
	m := make(map[string]*Method, len(list))
	for _, entry := range list {
		m[entry.Name] = entry
	}
	return m
}()

// LookupMethod finds a method by name, ignoring case.
func LookupMethod(name string) (*Method, bool) {
	m, ok := methods[strings.ToLower(name)]
	return m, ok
}

// Methods returns every registered method keyed by lower-case name. The
// returned map must not be modified.
func Methods() map[string]*Method {
	return methods
}
