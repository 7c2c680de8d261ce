// Package odataql compiles OData v2 style query strings ($filter, $orderby,
// $top, $skip) and resource paths into backend-neutral predicate and
// projection trees.
//
// A Compiler is created once per set of entity metadata and shared:
//
//	registry := odataql.NewRegistry()
//	if err := registry.Register(&Product{}, &Category{}); err != nil {
//		return err
//	}
//	compiler, err := odataql.NewCompiler(registry)
//	if err != nil {
//		return err
//	}
//	q, err := compiler.Compile(ctx, "Product", "$filter=Child/Name eq 'Tools'&$top=5")
//
// The resulting Query carries the predicate tree, ordering, paging and the
// list of joined association aliases. Backends translate it into SQL or any
// other criteria language.
package odataql

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/nlstn/go-odataql/internal/observability"
	"github.com/nlstn/go-odataql/internal/query"
)

// Config configures a Compiler.
type Config struct {
	// Logger receives debug records for every compilation. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// CaseInsensitiveNames matches member names and query option keys
	// ignoring case. Exact matches still win.
	CaseInsensitiveNames bool

	// NameResolver overrides member lookup entirely.
	NameResolver NameResolver

	// Scope keys the compiled query cache; set it when several compilers
	// with different metadata share one process-wide configuration.
	Scope string

	// CacheSize bounds the compiled query cache. Zero selects the default
	// size.
	CacheSize int
	// DisableCache turns off caching of compiled queries.
	DisableCache bool

	// TracerProvider enables OpenTelemetry spans for compilation phases.
	TracerProvider trace.TracerProvider
	// MeterProvider enables compilation metrics.
	MeterProvider metric.MeterProvider
	// ServiceName is reported as the instrumentation scope. Defaults to
	// "odataql".
	ServiceName string
	// QueryOptionTracing records the raw $filter and $orderby text on spans.
	QueryOptionTracing bool
}

// Compiler compiles query strings and resource paths against entity
// metadata. It is safe for concurrent use.
type Compiler struct {
	compiler *query.Compiler
	cache    *query.Cache
}

// NewCompiler creates a compiler configured by opts. A nil lookup compiles
// queries untyped: member paths are not checked and no aliases are recorded.
func NewCompiler(entities Lookup, opts ...Option) (*Compiler, error) {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewCompilerWithConfig(entities, cfg)
}

// NewCompilerWithConfig creates a compiler with cfg.
func NewCompilerWithConfig(entities Lookup, cfg Config) (*Compiler, error) {
	if cfg.CacheSize < 0 {
		return nil, fmt.Errorf("odataql: cache size must not be negative, got %d", cfg.CacheSize)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var obs *observability.Config
	if cfg.TracerProvider != nil || cfg.MeterProvider != nil {
		opts := []observability.Option{
			observability.WithTracerProvider(cfg.TracerProvider),
			observability.WithMeterProvider(cfg.MeterProvider),
		}
		if cfg.ServiceName != "" {
			opts = append(opts, observability.WithServiceName(cfg.ServiceName))
		}
		if cfg.QueryOptionTracing {
			opts = append(opts, observability.WithQueryOptionTracing())
		}
		obs = observability.NewConfig(opts...)
		if err := obs.Initialize(); err != nil {
			return nil, fmt.Errorf("odataql: initializing observability: %w", err)
		}
	}

	var cache *query.Cache
	if !cfg.DisableCache {
		size := cfg.CacheSize
		if size == 0 {
			size = query.DefaultCacheSize
		}
		cache = query.NewCache(size)
	}

	c := &Compiler{cache: cache}
	c.compiler = query.NewCompiler(query.Config{
		Entities:        entities,
		Names:           cfg.NameResolver,
		CaseInsensitive: cfg.CaseInsensitiveNames,
		Scope:           cfg.Scope,
		Cache:           cache,
		Observability:   obs,
		Logger:          logger,
	})
	return c, nil
}

// Compile compiles raw, a query string such as
// "$filter=Price gt 10&$orderby=Name desc&$top=5", for the named entity.
// The returned Query may be shared with other callers and must not be
// modified.
func (c *Compiler) Compile(ctx context.Context, entity, raw string) (*Query, error) {
	return c.compiler.Compile(ctx, entity, raw)
}

// CompilePath compiles a resource path such as "Customers(5)/Orders". The
// compiler needs entity metadata for paths.
func (c *Compiler) CompilePath(ctx context.Context, path string) (*PathQuery, error) {
	return c.compiler.CompilePath(ctx, path)
}

// ClearCache drops all cached compiled queries.
func (c *Compiler) ClearCache() {
	c.cache.Clear()
}

// CachedQueries returns the number of compiled queries held in the cache.
func (c *Compiler) CachedQueries() int {
	return c.cache.Len()
}
