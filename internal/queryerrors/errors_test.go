package queryerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"lex with offset", Lex(4, "unterminated string"), "lex error: unterminated string at position 4"},
		{"parse without offset", Parse(NoOffset, "empty input"), "parse error: empty input"},
		{"coercion", TypeCoercion("cannot compare %s", "Guid"), "type error: cannot compare Guid"},
		{"unsupported", Unsupported("all", "a predicate"), "unsupported query: all is not supported in a predicate"},
		{"unsupported without context", &UnsupportedQueryError{Construct: "isof"}, "unsupported query: isof is not supported"},
		{"query", &QueryError{Option: "$skip", Message: "must be a non-negative integer"}, "query error: invalid $skip: must be a non-negative integer"},
		{"query without option", &QueryError{Message: "empty key"}, "query error: empty key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &QueryError{Option: "$top", Message: "bad", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")

	lex := &LexError{Offset: 0, Message: "bad number", Err: cause}
	assert.ErrorIs(t, lex, cause)
}

func TestKind(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{Lex(0, "x"), "lex"},
		{Parse(0, "x"), "parse"},
		{TypeCoercion("x"), "type"},
		{&ResolutionError{Name: "Foo"}, "resolution"},
		{Unsupported("all", ""), "unsupported"},
		{&QueryError{Message: "x"}, "query"},
		{fmt.Errorf("invalid $filter: %w", Parse(3, "x")), "parse"},
		{errors.New("other"), "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, Kind(tt.err))
		})
	}
}
