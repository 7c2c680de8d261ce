// Package queryerrors defines the flat error taxonomy returned while compiling
// a query string. Every kind is terminal; callers distinguish them with errors.As.
package queryerrors

import (
	"errors"
	"fmt"
)

// NoOffset marks errors that are not tied to a position in the source text.
const NoOffset = -1

func format(kind, message string, offset int, err error) string {
	msg := kind + ": " + message
	if offset >= 0 {
		msg = fmt.Sprintf("%s at position %d", msg, offset)
	}
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return msg
}

// LexError reports an unrecognized or malformed token.
type LexError struct {
	Offset  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *LexError) Error() string { return format("lex error", e.Message, e.Offset, e.Err) }

// Unwrap returns the wrapped error, if any.
func (e *LexError) Unwrap() error { return e.Err }

// ParseError reports a grammar violation: unexpected or trailing tokens, bad
// method arity or argument shape, malformed lambdas, empty input.
type ParseError struct {
	Offset  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string { return format("parse error", e.Message, e.Offset, e.Err) }

// Unwrap returns the wrapped error, if any.
func (e *ParseError) Unwrap() error { return e.Err }

// TypeCoercionError reports incompatible literal types for an operator, an
// illegal ordering comparison, or a failed cast.
type TypeCoercionError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *TypeCoercionError) Error() string {
	return format("type error", e.Message, NoOffset, e.Err)
}

// Unwrap returns the wrapped error, if any.
func (e *TypeCoercionError) Unwrap() error { return e.Err }

// ResolutionError reports an unknown member, alias or entity name.
type ResolutionError struct {
	// Name is the unresolved segment or entity name.
	Name string
	// Owner is the type the name was looked up on, empty for entity lookups.
	Owner   string
	Message string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	if e.Message != "" {
		return "resolution error: " + e.Message
	}
	if e.Owner != "" {
		return fmt.Sprintf("resolution error: could not resolve member '%s' of type '%s'", e.Name, e.Owner)
	}
	return fmt.Sprintf("resolution error: could not resolve '%s'", e.Name)
}

// UnsupportedQueryError reports a syntactically valid construct the active
// generator has no rule for.
type UnsupportedQueryError struct {
	Construct string
	Context   string
}

// Error implements the error interface.
func (e *UnsupportedQueryError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("unsupported query: %s is not supported in %s", e.Construct, e.Context)
	}
	return fmt.Sprintf("unsupported query: %s is not supported", e.Construct)
}

// QueryError reports a malformed query string: unknown option keys, bad
// $top/$skip values, undecodable escapes.
type QueryError struct {
	Option  string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	msg := "query error: " + e.Message
	if e.Option != "" {
		msg = fmt.Sprintf("query error: invalid %s: %s", e.Option, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the wrapped error, if any.
func (e *QueryError) Unwrap() error { return e.Err }

// Lex builds a LexError.
func Lex(offset int, format string, args ...interface{}) error {
	return &LexError{Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// Parse builds a ParseError.
func Parse(offset int, format string, args ...interface{}) error {
	return &ParseError{Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// TypeCoercion builds a TypeCoercionError.
func TypeCoercion(format string, args ...interface{}) error {
	return &TypeCoercionError{Message: fmt.Sprintf(format, args...)}
}

// Unsupported builds an UnsupportedQueryError.
func Unsupported(construct, context string) error {
	return &UnsupportedQueryError{Construct: construct, Context: context}
}

// Kind names the taxonomy entry err belongs to: lex, parse, type, resolution,
// unsupported or query. Errors outside the taxonomy yield "internal".
func Kind(err error) string {
	var (
		lex         *LexError
		parse       *ParseError
		coercion    *TypeCoercionError
		resolution  *ResolutionError
		unsupported *UnsupportedQueryError
		query       *QueryError
	)
	switch {
	case errors.As(err, &lex):
		return "lex"
	case errors.As(err, &parse):
		return "parse"
	case errors.As(err, &coercion):
		return "type"
	case errors.As(err, &resolution):
		return "resolution"
	case errors.As(err, &unsupported):
		return "unsupported"
	case errors.As(err, &query):
		return "query"
	}
	return "internal"
}
