package edm

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlstn/go-odataql/internal/literal"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		expected literal.Type
		ok       bool
	}{
		{"Edm.Int32", literal.Int, true},
		{"Edm.Int16", literal.Int, true},
		{"Edm.Int64", literal.Long, true},
		{"Edm.DateTimeOffset", literal.DateTime, true},
		{"Edm.Time", literal.Duration, true},
		{"edm.int32", literal.Null, false},
		{"Edm.Geography", literal.Null, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Lookup(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNameRoundTrip(t *testing.T) {
	for _, typ := range []literal.Type{literal.String, literal.Int, literal.Long, literal.Decimal, literal.Guid, literal.Duration} {
		got, ok := Lookup(Name(typ))
		require.True(t, ok, typ.String())
		assert.Equal(t, typ, got)
	}
	assert.Equal(t, "Edm.Null", Name(literal.Null))
}

func TestFromGoType(t *testing.T) {
	var ptr *int32

	tests := []struct {
		value    interface{}
		expected string
	}{
		{"", "Edm.String"},
		{int32(0), "Edm.Int32"},
		{ptr, "Edm.Int32"},
		{0, "Edm.Int64"},
		{int8(0), "Edm.SByte"},
		{uint8(0), "Edm.Byte"},
		{float32(0), "Edm.Single"},
		{0.0, "Edm.Double"},
		{true, "Edm.Boolean"},
		{[]byte{}, "Edm.Binary"},
		{time.Time{}, "Edm.DateTime"},
		{time.Duration(0), "Edm.Time"},
		{decimal.Zero, "Edm.Decimal"},
		{uuid.Nil, "Edm.Guid"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			got, err := FromGoType(reflect.TypeOf(tt.value))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := FromGoType(reflect.TypeOf(struct{}{}))
	assert.Error(t, err)
	_, err = FromGoType(nil)
	assert.Error(t, err)
}

func TestLiteralType(t *testing.T) {
	got, err := LiteralType(reflect.TypeOf(int16(0)))
	require.NoError(t, err)
	assert.Equal(t, literal.Int, got)

	_, err = LiteralType(reflect.TypeOf(map[string]int{}))
	assert.Error(t, err)
}
