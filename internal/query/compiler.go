// Package query compiles query strings against entity metadata: option
// splitting, parsing, name resolution, normalization and code generation, with
// an optional cache of compiled results.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nlstn/go-odataql/internal/ast"
	"github.com/nlstn/go-odataql/internal/codegen"
	"github.com/nlstn/go-odataql/internal/criteria"
	"github.com/nlstn/go-odataql/internal/metadata"
	"github.com/nlstn/go-odataql/internal/normalize"
	"github.com/nlstn/go-odataql/internal/observability"
	"github.com/nlstn/go-odataql/internal/parser"
	"github.com/nlstn/go-odataql/internal/queryerrors"
	"github.com/nlstn/go-odataql/internal/resolve"
)

// Query is a compiled query string. Queries may be shared through the cache
// and must be treated as read-only.
type Query struct {
	// Entity is the root entity, nil when compiled without metadata.
	Entity *metadata.EntityMetadata
	// EntityName is the name the query was compiled for.
	EntityName string
	Raw        string
	Options    Options
	// Filter is the resolved and normalized $filter expression.
	Filter ast.Expr
	// Predicate is nil when the query has no $filter.
	Predicate criteria.Predicate
	Order     []criteria.Order
	Top       *int
	Skip      *int
	// Aliases lists the joined associations in first-seen order.
	Aliases []*resolve.Alias
}

// PathQuery is a compiled resource path.
type PathQuery struct {
	Path   string
	Root   *metadata.EntityMetadata
	Entity *metadata.EntityMetadata
	// Alias is the alias of Entity, empty when it is the root.
	Alias      string
	Collection bool
	// Predicate constrains the inline keys; nil when none were given.
	Predicate criteria.Predicate
	Aliases   []*resolve.Alias
}

// Config configures a Compiler.
type Config struct {
	// Entities resolves entity and association target names. When nil,
	// queries compile untyped: member paths are flattened without checks.
	Entities metadata.Lookup
	// Names overrides member lookup; nil selects exact or case-folded
	// matching according to CaseInsensitive.
	Names           resolve.NameResolver
	CaseInsensitive bool
	// Scope distinguishes metadata sets sharing one cache.
	Scope         string
	Cache         *Cache
	Observability *observability.Config
	Logger        *slog.Logger
}

// Compiler turns query strings into Query values. It is safe for concurrent
// use; all per-compilation state lives in the call.
type Compiler struct {
	cfg    Config
	logger *slog.Logger
}

// NewCompiler creates a compiler with the given configuration.
func NewCompiler(cfg Config) *Compiler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{cfg: cfg, logger: logger}
}

// Compile compiles the raw query string for the named entity.
func (c *Compiler) Compile(ctx context.Context, entity, raw string) (*Query, error) {
	start := time.Now()
	tracer := c.cfg.Observability.Tracer()
	metrics := c.cfg.Observability.Metrics()

	ctx, span := tracer.StartCompile(ctx, entity, c.cfg.Scope)
	defer span.End()

	key := cacheKey(c.cfg.Scope, entity, raw, c.cfg.CaseInsensitive)
	if cached, ok := c.cfg.Cache.get(key); ok {
		span.SetAttributes(observability.CacheHitAttr(true))
		metrics.RecordCacheHit(ctx, entity)
		observability.LoggerWithTrace(ctx, c.logger).DebugContext(ctx, "Compiled query served from cache",
			observability.LogFieldEntity, entity)
		return cached, nil
	}
	span.SetAttributes(observability.CacheHitAttr(false))

	q, err := c.compile(ctx, entity, raw)
	if err != nil {
		tracer.RecordError(span, err)
		metrics.RecordError(ctx, entity, observability.OpCompileQuery, queryerrors.Kind(err))
		return nil, err
	}

	if c.cfg.Observability.QueryOptionTracingEnabled() {
		tracer.AddQueryOptions(span, q.Options.Filter, q.Options.OrderBy, intOr(q.Top, -1), intOr(q.Skip, -1))
	}
	span.SetAttributes(observability.AliasCountAttr(len(q.Aliases)))
	metrics.RecordCompile(ctx, entity, observability.OpCompileQuery, time.Since(start))
	observability.LoggerWithTrace(ctx, c.logger).DebugContext(ctx, "Compiled query",
		observability.LogFieldEntity, entity,
		observability.LogFieldAliases, len(q.Aliases),
		observability.LogFieldHasFilter, q.Predicate != nil,
		observability.LogFieldHasOrderBy, len(q.Order) > 0,
	)

	c.cfg.Cache.put(key, q)
	return q, nil
}

func (c *Compiler) compile(ctx context.Context, entity, raw string) (*Query, error) {
	q := &Query{EntityName: entity, Raw: raw}
	if c.cfg.Entities != nil {
		root, err := c.cfg.Entities.Entity(entity)
		if err != nil {
			return nil, err
		}
		q.Entity = root
		q.EntityName = root.EntityName
	}

	var (
		filter ast.Expr
		order  []parser.OrderByItem
	)
	err := c.phase(ctx, observability.SpanParse, func() error {
		options, err := ParseOptions(raw, c.cfg.CaseInsensitive)
		if err != nil {
			return err
		}
		q.Options = *options
		q.Top, q.Skip = options.Top, options.Skip

		if options.Filter != "" {
			if filter, err = parser.ParseFilter(options.Filter); err != nil {
				return fmt.Errorf("invalid %s: %w", OptionFilter, err)
			}
		}
		if options.OrderBy != "" {
			if order, err = parser.ParseOrderBy(options.OrderBy); err != nil {
				return fmt.Errorf("invalid %s: %w", OptionOrderBy, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rctx := resolve.NewContext()
	rctx.CaseInsensitive = c.cfg.CaseInsensitive
	resolver := resolve.New(rctx, q.Entity, c.cfg.Entities, c.cfg.Names)

	err = c.phase(ctx, observability.SpanNormalize, func() error {
		if filter != nil {
			resolved, err := prepare(resolver, filter)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", OptionFilter, err)
			}
			filter = resolved
			q.Filter = resolved
		}
		for i, item := range order {
			resolved, err := prepare(resolver, item.Expr)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", OptionOrderBy, err)
			}
			order[i].Expr = resolved
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = c.phase(ctx, observability.SpanGenerate, func() error {
		if filter != nil {
			p, err := codegen.Predicate(filter)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", OptionFilter, err)
			}
			q.Predicate = p
		}
		for _, item := range order {
			p, err := codegen.Projection(item.Expr)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", OptionOrderBy, err)
			}
			q.Order = append(q.Order, criteria.Order{Projection: p, Descending: item.Descending})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	q.Aliases = rctx.Aliases()
	return q, nil
}

// prepare resolves member paths, then folds constants over the resolved tree.
func prepare(resolver *resolve.Resolver, e ast.Expr) (ast.Expr, error) {
	resolved, err := resolver.Resolve(e)
	if err != nil {
		return nil, err
	}
	return normalize.Normalize(resolved, nil)
}

// CompilePath compiles a resource path such as Customers(5)/Orders. It needs
// entity metadata.
func (c *Compiler) CompilePath(ctx context.Context, path string) (*PathQuery, error) {
	start := time.Now()
	tracer := c.cfg.Observability.Tracer()
	metrics := c.cfg.Observability.Metrics()

	ctx, span := tracer.StartCompilePath(ctx, path)
	defer span.End()

	pq, err := c.compilePath(ctx, path)
	if err != nil {
		tracer.RecordError(span, err)
		metrics.RecordError(ctx, "", observability.OpCompilePath, queryerrors.Kind(err))
		return nil, err
	}

	span.SetAttributes(observability.EntityAttr(pq.Entity.EntityName), observability.AliasCountAttr(len(pq.Aliases)))
	metrics.RecordCompile(ctx, pq.Root.EntityName, observability.OpCompilePath, time.Since(start))
	observability.LoggerWithTrace(ctx, c.logger).DebugContext(ctx, "Compiled resource path",
		observability.LogFieldEntity, pq.Entity.EntityName,
		observability.LogFieldAliases, len(pq.Aliases),
	)
	return pq, nil
}

func (c *Compiler) compilePath(ctx context.Context, path string) (*PathQuery, error) {
	if c.cfg.Entities == nil {
		return nil, &queryerrors.ResolutionError{Name: path, Message: "resource paths need entity metadata"}
	}

	var member *ast.MemberExpr
	err := c.phase(ctx, observability.SpanParse, func() error {
		var err error
		member, err = parser.ParsePath(path)
		return err
	})
	if err != nil {
		return nil, err
	}

	rctx := resolve.NewContext()
	rctx.CaseInsensitive = c.cfg.CaseInsensitive
	var target *resolve.PathTarget
	err = c.phase(ctx, observability.SpanNormalize, func() error {
		var err error
		if target, err = resolve.ResolvePath(rctx, c.cfg.Entities, c.cfg.Names, member); err != nil {
			return err
		}
		if target.Predicate != nil {
			target.Predicate, err = normalize.Normalize(target.Predicate, nil)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	pq := &PathQuery{
		Path:       path,
		Root:       target.Root,
		Entity:     target.Entity,
		Alias:      target.Alias,
		Collection: target.Collection,
		Aliases:    rctx.Aliases(),
	}
	if target.Predicate != nil {
		err = c.phase(ctx, observability.SpanGenerate, func() error {
			var err error
			pq.Predicate, err = codegen.Predicate(target.Predicate)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	return pq, nil
}

// phase runs fn inside a child span of the compilation.
func (c *Compiler) phase(ctx context.Context, name string, fn func() error) error {
	tracer := c.cfg.Observability.Tracer()
	_, span := tracer.StartPhase(ctx, name)
	defer span.End()

	if err := fn(); err != nil {
		tracer.RecordError(span, err)
		return err
	}
	return nil
}

func intOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}
