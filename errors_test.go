package odataql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"lex", &LexError{Offset: 3, Message: "unterminated string"}, KindLex},
		{"parse", &ParseError{Offset: 0, Message: "empty expression"}, KindParse},
		{"type", &TypeCoercionError{Message: "cannot add Binary and Binary"}, KindType},
		{"resolution", &ResolutionError{Name: "Missing", Owner: "Product"}, KindResolution},
		{"unsupported", &UnsupportedQueryError{Construct: "all", Context: "predicate"}, KindUnsupported},
		{"query", &QueryError{Option: "$skip", Message: "must not be negative"}, KindQuery},
		{"wrapped", fmt.Errorf("invalid $filter: %w", &LexError{Message: "bad exponent"}), KindLex},
		{"foreign", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ErrorKind(tt.err))
		})
	}
}

func TestErrorTypes_As(t *testing.T) {
	err := fmt.Errorf("invalid $orderby: %w", &ResolutionError{Name: "Nope", Owner: "Product"})

	var re *ResolutionError
	assert.True(t, errors.As(err, &re))
	assert.Equal(t, "Nope", re.Name)

	var pe *ParseError
	assert.False(t, errors.As(err, &pe))
}
