package odataql

import (
	"github.com/nlstn/go-odataql/internal/ast"
	"github.com/nlstn/go-odataql/internal/queryerrors"
)

// Error kinds raised by compilation. Every failure is one of these; match
// them with errors.As.
type (
	// LexError reports a malformed token: unexpected character, unterminated
	// string, bad exponent, numeric overflow or a malformed typed literal.
	LexError = queryerrors.LexError

	// ParseError reports an unexpected token, wrong method arity, a malformed
	// lambda, trailing tokens or empty input.
	ParseError = queryerrors.ParseError

	// TypeCoercionError reports incompatible operand types, an illegal
	// ordering comparison or a failed or unknown cast.
	TypeCoercionError = queryerrors.TypeCoercionError

	// ResolutionError reports an unknown member, alias or entity name, or an
	// ambiguous case-folded match.
	ResolutionError = queryerrors.ResolutionError

	// UnsupportedQueryError reports a valid construct that has no predicate
	// or projection rule.
	UnsupportedQueryError = queryerrors.UnsupportedQueryError

	// QueryError reports a malformed query string option.
	QueryError = queryerrors.QueryError
)

// Error kind names returned by ErrorKind.
const (
	KindLex         = "lex"
	KindParse       = "parse"
	KindType        = "type"
	KindResolution  = "resolution"
	KindUnsupported = "unsupported"
	KindQuery       = "query"
	KindInternal    = "internal"
)

// ErrNotBoolean is returned by Invert for expressions that do not yield a
// boolean.
var ErrNotBoolean = ast.ErrNotBoolean

// ErrorKind classifies err as one of the Kind constants. Errors that are not
// compilation errors are reported as KindInternal.
func ErrorKind(err error) string {
	return queryerrors.Kind(err)
}
