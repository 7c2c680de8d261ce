package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlstn/go-odataql/internal/queryerrors"
)

func intPtr(n int) *int { return &n }

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Options
	}{
		{"empty", "", Options{}},
		{"leading question mark", "?$top=5", Options{Top: intPtr(5)}},
		{"top only", "$top=5", Options{Top: intPtr(5)}},
		{"zero skip", "$skip=0", Options{Skip: intPtr(0)}},
		{"filter percent encoded", "$filter=Price%20gt%205", Options{Filter: "Price gt 5"}},
		{"filter plus as space", "$filter=Price+gt+5", Options{Filter: "Price gt 5"}},
		{"encoded key", "%24filter=Active", Options{Filter: "Active"}},
		{"encoded quote and ampersand", "$filter=Name+eq+%27a%26b%27", Options{Filter: "Name eq 'a&b'"}},
		{"all options", "$filter=Active&$orderby=Name desc&$top=10&$skip=20", Options{
			Filter: "Active", OrderBy: "Name desc", Top: intPtr(10), Skip: intPtr(20),
		}},
		{"empty pairs skipped", "&&$top=1&", Options{Top: intPtr(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOptions(tt.raw, false)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, *got)
		})
	}
}

func TestParseOptions_Errors(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		option string
	}{
		{"negative skip", "$skip=-1", "$skip"},
		{"non-numeric skip", "$skip=foo", "$skip"},
		{"signed top", "$top=+5", "$top"},
		{"empty top", "$top=", "$top"},
		{"fractional top", "$top=1.5", "$top"},
		{"overflowing top", "$top=99999999999999999999", "$top"},
		{"unknown option", "$select=Name", "$select"},
		{"unknown plain key", "foo=bar", "foo"},
		{"case sensitive key", "$Filter=Active", "$Filter"},
		{"empty filter", "$filter=", "$filter"},
		{"blank orderby", "$orderby=+", "$orderby"},
		{"duplicate", "$top=1&$top=2", "$top"},
		{"bad escape", "$filter=Name eq '%zz'", "$filter"},
		{"missing name", "=5", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOptions(tt.raw, false)
			require.Error(t, err)
			var qe *queryerrors.QueryError
			require.True(t, errors.As(err, &qe), "got %T: %v", err, err)
			assert.Equal(t, tt.option, qe.Option)
		})
	}
}

func TestParseOptions_FoldKeys(t *testing.T) {
	got, err := ParseOptions("$FILTER=Active&$Top=3", true)
	require.NoError(t, err)
	assert.Equal(t, "Active", got.Filter)
	assert.Equal(t, intPtr(3), got.Top)

	_, err = ParseOptions("$filter=Active&$FILTER=Active", true)
	assert.Error(t, err)
}

func TestOptionsEmpty(t *testing.T) {
	assert.True(t, (&Options{}).Empty())
	assert.False(t, (&Options{Skip: intPtr(0)}).Empty())
	assert.False(t, (&Options{Filter: "Active"}).Empty())
}
