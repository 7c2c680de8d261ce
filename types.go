package odataql

import (
	"io"

	"gorm.io/gorm/schema"

	"github.com/nlstn/go-odataql/internal/ast"
	"github.com/nlstn/go-odataql/internal/criteria"
	"github.com/nlstn/go-odataql/internal/invert"
	"github.com/nlstn/go-odataql/internal/literal"
	"github.com/nlstn/go-odataql/internal/metadata"
	"github.com/nlstn/go-odataql/internal/normalize"
	"github.com/nlstn/go-odataql/internal/parser"
	"github.com/nlstn/go-odataql/internal/query"
	"github.com/nlstn/go-odataql/internal/resolve"
)

// Compilation results.
type (
	// Query is a compiled query string.
	Query = query.Query
	// PathQuery is a compiled resource path.
	PathQuery = query.PathQuery
	// Options holds the raw text of the recognized query options.
	Options = query.Options
	// Alias is a joined association in a compiled query.
	Alias = resolve.Alias
)

// Entity metadata.
type (
	Lookup           = metadata.Lookup
	Registry         = metadata.Registry
	RegistryOption   = metadata.RegistryOption
	EntityMetadata   = metadata.EntityMetadata
	PropertyMetadata = metadata.PropertyMetadata
	MetadataCache    = metadata.Cache
)

// Member name resolution.
type (
	NameResolver         = resolve.NameResolver
	NameResolverFunc     = resolve.NameResolverFunc
	ExactNames           = resolve.ExactNames
	CaseInsensitiveNames = resolve.CaseInsensitiveNames
	StripSuffix          = resolve.StripSuffix
)

// Backend-neutral criteria trees.
type (
	Predicate   = criteria.Predicate
	Projection  = criteria.Projection
	Order       = criteria.Order
	LiteralType = literal.Type
	Value       = literal.Value
)

// Expr is a parsed filter expression.
type Expr = ast.Expr

// NewRegistry creates an empty entity registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	return metadata.NewRegistry(opts...)
}

// WithNamer sets the naming strategy a registry derives tables and columns
// with.
func WithNamer(namer schema.Namer) RegistryOption {
	return metadata.WithNamer(namer)
}

// WithMetadataCache memoizes struct analysis in cache under scope.
func WithMetadataCache(cache *MetadataCache, scope string) RegistryOption {
	return metadata.WithCache(cache, scope)
}

// NewMetadataCache creates a cache that can be shared between registries.
func NewMetadataCache() *MetadataCache {
	return metadata.NewCache()
}

// LoadSchema reads YAML entity declarations from r. A nil namer selects
// gorm's default naming.
func LoadSchema(r io.Reader, namer schema.Namer) ([]*EntityMetadata, error) {
	return metadata.LoadSchema(r, namer)
}

// LoadSchemaFile reads YAML entity declarations from path.
func LoadSchemaFile(path string, namer schema.Namer) ([]*EntityMetadata, error) {
	return metadata.LoadSchemaFile(path, namer)
}

// ParseFilter parses a $filter expression without resolving member names.
func ParseFilter(src string) (Expr, error) {
	return parser.ParseFilter(src)
}

// ParseExpression parses any value expression, boolean or not.
func ParseExpression(src string) (Expr, error) {
	return parser.ParseCommon(src)
}

// Normalize folds constants and coerces literal operands of e. Normalizing
// an already normalized expression returns an equal expression.
func Normalize(e Expr) (Expr, error) {
	return normalize.Normalize(e, nil)
}

// Invert returns the logical negation of the boolean expression e, pushing
// the negation through and/or by De Morgan's laws. Inverting twice yields
// an expression equal to e.
func Invert(e Expr) (Expr, error) {
	return invert.Invert(e)
}
