package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlstn/go-odataql/internal/observability"
	"github.com/nlstn/go-odataql/internal/queryerrors"
	"github.com/nlstn/go-odataql/internal/testmodel"
)

func newTestCompiler(opts ...func(*Config)) *Compiler {
	cfg := Config{Entities: testmodel.Registry()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewCompiler(cfg)
}

func orderStrings(q *Query) []string {
	out := make([]string, len(q.Order))
	for i, o := range q.Order {
		out[i] = o.String()
	}
	return out
}

func aliasPaths(q *Query) []string {
	out := make([]string, len(q.Aliases))
	for i, a := range q.Aliases {
		out[i] = a.Name + "=" + a.Path
	}
	return out
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		predicate string
		order     []string
		aliases   []string
	}{
		{
			name:      "range without joins",
			raw:       "$filter=Int32 gt 5 and Int32 lt 10",
			predicate: "(Int32 gt 5 and Int32 lt 10)",
			order:     []string{},
			aliases:   []string{},
		},
		{
			name:      "association path",
			raw:       "$filter=Child/Name eq 'X'",
			predicate: "t1.Name eq 'X'",
			order:     []string{},
			aliases:   []string{"t1=Child"},
		},
		{
			name:      "filter and order share aliases",
			raw:       "$filter=Child/Parent/Name eq 'root'&$orderby=Child/Name desc,Name",
			predicate: "t2.Name eq 'root'",
			order:     []string{"t1.Name desc", "Name asc"},
			aliases:   []string{"t1=Child", "t2=Child.Parent"},
		},
		{
			name:      "existence over a collection",
			raw:       "$filter=Orders/any() and Price+gt+1.5",
			predicate: "(exists(t1) and Price gt 1.5)",
			order:     []string{},
			aliases:   []string{"t1=Orders"},
		},
		{
			name:      "constant folding",
			raw:       "$filter=Int32 gt 2 add 3",
			predicate: "Int32 gt 5",
			order:     []string{},
			aliases:   []string{},
		},
		{
			name:      "order by computed value",
			raw:       "$orderby=length(Name) desc",
			order:     []string{"length(Name) desc"},
			aliases:   []string{},
		},
	}

	c := newTestCompiler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := c.Compile(context.Background(), "Product", tt.raw)
			require.NoError(t, err)
			if tt.predicate == "" {
				assert.Nil(t, q.Predicate)
			} else {
				require.NotNil(t, q.Predicate)
				assert.Equal(t, tt.predicate, q.Predicate.String())
			}
			assert.Equal(t, tt.order, orderStrings(q))
			assert.Equal(t, tt.aliases, aliasPaths(q))
			assert.Equal(t, "Product", q.Entity.EntityName)
		})
	}
}

func TestCompile_Paging(t *testing.T) {
	c := newTestCompiler()

	q, err := c.Compile(context.Background(), "Product", "$top=5")
	require.NoError(t, err)
	assert.Nil(t, q.Predicate)
	assert.Nil(t, q.Filter)
	require.NotNil(t, q.Top)
	assert.Equal(t, 5, *q.Top)
	assert.Nil(t, q.Skip)
	assert.Empty(t, q.Aliases)

	for _, raw := range []string{"$skip=-1", "$skip=foo"} {
		t.Run(raw, func(t *testing.T) {
			_, err := c.Compile(context.Background(), "Product", raw)
			var qe *queryerrors.QueryError
			assert.True(t, errors.As(err, &qe), "got %v", err)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name   string
		entity string
		raw    string
		kind   string
	}{
		{"unknown entity", "Invoice", "$top=1", "resolution"},
		{"unknown member", "Product", "$filter=Nope eq 1", "resolution"},
		{"unknown option", "Product", "$expand=Child", "query"},
		{"lex error", "Product", "$filter=Name eq 'open", "lex"},
		{"parse error", "Product", "$filter=Name eq", "parse"},
		{"type error", "Product", "$filter=Price lt null", "type"},
		{"lambda body", "Product", "$filter=Orders/any(o: o/Total gt 10)", "unsupported"},
		{"association order", "Product", "$orderby=Child", "unsupported"},
		{"collection segment", "Product", "$filter=Orders/Total gt 1", "resolution"},
	}

	c := newTestCompiler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compile(context.Background(), tt.entity, tt.raw)
			require.Error(t, err)
			assert.Equal(t, tt.kind, queryerrors.Kind(err), "got %v", err)
		})
	}
}

func TestCompile_CaseInsensitive(t *testing.T) {
	c := newTestCompiler(func(cfg *Config) { cfg.CaseInsensitive = true })

	q, err := c.Compile(context.Background(), "product", "$FILTER=child/name eq 'x'&$OrderBy=PRICE")
	require.NoError(t, err)
	assert.Equal(t, "t1.Name eq 'x'", q.Predicate.String())
	assert.Equal(t, []string{"Price asc"}, orderStrings(q))
	assert.Equal(t, "Product", q.EntityName)
}

func TestCompile_Untyped(t *testing.T) {
	c := NewCompiler(Config{})

	q, err := c.Compile(context.Background(), "Anything", "$filter=A/B/C eq 1 and D ne 'x'")
	require.NoError(t, err)
	assert.Nil(t, q.Entity)
	assert.Equal(t, "Anything", q.EntityName)
	assert.Equal(t, "(t2.C eq 1 and D ne 'x')", q.Predicate.String())
	assert.Equal(t, []string{"t1=A", "t2=A.B"}, aliasPaths(q))
}

func TestCompile_Cache(t *testing.T) {
	cache := NewCache(2)
	c := newTestCompiler(func(cfg *Config) { cfg.Cache = cache })
	ctx := context.Background()

	first, err := c.Compile(ctx, "Product", "$filter=Active")
	require.NoError(t, err)
	second, err := c.Compile(ctx, "Product", "$filter=Active")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Len())

	other, err := c.Compile(ctx, "Product", "$filter=not Active")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, cache.Len())

	_, err = c.Compile(ctx, "Product", "$skip=-1")
	require.Error(t, err)
	assert.Equal(t, 2, cache.Len(), "failed compilations are not cached")

	uncached := newTestCompiler()
	a, err := uncached.Compile(ctx, "Product", "$filter=Active")
	require.NoError(t, err)
	b, err := uncached.Compile(ctx, "Product", "$filter=Active")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestCompile_Observability(t *testing.T) {
	obs := observability.NewConfig(observability.WithQueryOptionTracing())
	require.NoError(t, obs.Initialize())
	c := newTestCompiler(func(cfg *Config) { cfg.Observability = obs })

	q, err := c.Compile(context.Background(), "Product", "$filter=Active&$top=3")
	require.NoError(t, err)
	assert.Equal(t, "Active eq true", q.Predicate.String())
}

func TestCompilePath(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		entity     string
		alias      string
		collection bool
		predicate  string
	}{
		{"entity set", "Products", "Product", "", true, ""},
		{"single entity", "Products(5)", "Product", "", false, "ID eq 5"},
		{"navigation to collection", "Products(5)/Orders", "Order", "t1", true, "ID eq 5"},
		{"keyed collection member", "Products(5)/Orders(7)", "Order", "t1", false, "(ID eq 5 and t1.ID eq 7)"},
		{"to-one navigation", "Products(5)/Child/Parent", "Category", "t2", false, "ID eq 5"},
	}

	c := newTestCompiler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pq, err := c.CompilePath(context.Background(), tt.path)
			require.NoError(t, err)
			assert.Equal(t, "Product", pq.Root.EntityName)
			assert.Equal(t, tt.entity, pq.Entity.EntityName)
			assert.Equal(t, tt.alias, pq.Alias)
			assert.Equal(t, tt.collection, pq.Collection)
			if tt.predicate == "" {
				assert.Nil(t, pq.Predicate)
			} else {
				require.NotNil(t, pq.Predicate)
				assert.Equal(t, tt.predicate, pq.Predicate.String())
			}
		})
	}
}

func TestCompilePath_Errors(t *testing.T) {
	c := newTestCompiler()
	for _, path := range []string{"Products/Orders", "Products(5)/Name", "Invoices(1)", "Products(5)/Child(3)"} {
		t.Run(path, func(t *testing.T) {
			_, err := c.CompilePath(context.Background(), path)
			var re *queryerrors.ResolutionError
			assert.True(t, errors.As(err, &re), "got %v", err)
		})
	}

	for _, path := range []string{"Product(null)", "Products(null)", "Products(5)/Orders(null)"} {
		t.Run(path, func(t *testing.T) {
			pq, err := c.CompilePath(context.Background(), path)
			var pe *queryerrors.ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Contains(t, pe.Error(), "identifier must not be null")
			assert.Nil(t, pq)
		})
	}

	_, err := NewCompiler(Config{}).CompilePath(context.Background(), "Products(1)")
	var re *queryerrors.ResolutionError
	assert.True(t, errors.As(err, &re))
}
