// Package edm maps EDM primitive type names to literal types and infers EDM
// types from Go types.
package edm

import (
	"fmt"
	"reflect"

	"github.com/nlstn/go-odataql/internal/literal"
)

var byName = map[string]literal.Type{
	"Edm.String":         literal.String,
	"Edm.Boolean":        literal.Boolean,
	"Edm.Byte":           literal.Int,
	"Edm.SByte":          literal.Int,
	"Edm.Int16":          literal.Int,
	"Edm.Int32":          literal.Int,
	"Edm.Int64":          literal.Long,
	"Edm.Single":         literal.Single,
	"Edm.Double":         literal.Double,
	"Edm.Decimal":        literal.Decimal,
	"Edm.Binary":         literal.Binary,
	"Edm.DateTime":       literal.DateTime,
	"Edm.DateTimeOffset": literal.DateTime,
	"Edm.Guid":           literal.Guid,
	"Edm.Time":           literal.Duration,
}

var byType = map[literal.Type]string{
	literal.String:   "Edm.String",
	literal.Boolean:  "Edm.Boolean",
	literal.Int:      "Edm.Int32",
	literal.Long:     "Edm.Int64",
	literal.Single:   "Edm.Single",
	literal.Double:   "Edm.Double",
	literal.Decimal:  "Edm.Decimal",
	literal.Binary:   "Edm.Binary",
	literal.DateTime: "Edm.DateTime",
	literal.Guid:     "Edm.Guid",
	literal.Duration: "Edm.Time",
}

// Lookup returns the literal type for an EDM type name such as "Edm.Int32".
func Lookup(name string) (literal.Type, bool) {
	t, ok := byName[name]
	return t, ok
}

// Name returns the canonical EDM type name of a literal type.
func Name(t literal.Type) string {
	if name, ok := byType[t]; ok {
		return name
	}
	return "Edm.Null"
}

// FromGoType infers the EDM type from a Go type
func FromGoType(goType reflect.Type) (string, error) {
	if goType == nil {
		return "", fmt.Errorf("nil type")
	}

	if goType.Kind() == reflect.Ptr {
		goType = goType.Elem()
	}

	switch {
	case goType.PkgPath() == "time" && goType.Name() == "Time":
		return "Edm.DateTime", nil
	case goType.PkgPath() == "time" && goType.Name() == "Duration":
		return "Edm.Time", nil
	case goType.PkgPath() == "github.com/shopspring/decimal" && goType.Name() == "Decimal":
		return "Edm.Decimal", nil
	case goType.PkgPath() == "github.com/google/uuid" && goType.Name() == "UUID":
		return "Edm.Guid", nil
	}

	if (goType.Kind() == reflect.Slice || goType.Kind() == reflect.Array) && goType.Elem().Kind() == reflect.Uint8 {
		return "Edm.Binary", nil
	}

	switch goType.Kind() {
	case reflect.String:
		return "Edm.String", nil
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return "Edm.Int64", nil
	case reflect.Int32:
		return "Edm.Int32", nil
	case reflect.Int16:
		return "Edm.Int16", nil
	case reflect.Int8:
		return "Edm.SByte", nil
	case reflect.Uint16:
		return "Edm.Int32", nil
	case reflect.Uint8:
		return "Edm.Byte", nil
	case reflect.Float32:
		return "Edm.Single", nil
	case reflect.Float64:
		return "Edm.Double", nil
	case reflect.Bool:
		return "Edm.Boolean", nil
	default:
		return "", fmt.Errorf("unsupported Go type: %s", goType.String())
	}
}

// LiteralType infers the literal type of a Go type.
func LiteralType(goType reflect.Type) (literal.Type, error) {
	name, err := FromGoType(goType)
	if err != nil {
		return literal.Null, err
	}
	return byName[name], nil
}
