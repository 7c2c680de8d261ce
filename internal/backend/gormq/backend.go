// Package gormq executes compiled queries through GORM: a LEFT JOIN per
// to-one alias, EXISTS subqueries for collection tests, dialect-aware
// function SQL, ordering and paging.
package gormq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nlstn/go-odataql/internal/observability"
	"github.com/nlstn/go-odataql/internal/query"
)

const loggerKey = "_odataql_logger"

var errNilQuery = errors.New("query is nil")

// Backend runs compiled queries against a GORM database.
type Backend struct {
	db            *gorm.DB
	dialect       string
	logger        *slog.Logger
	observability *observability.Config
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for executed statements.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// WithObservability enables tracing of executed queries. Detailed database
// spans are registered as GORM callbacks when the config asks for them.
func WithObservability(cfg *observability.Config) Option {
	return func(b *Backend) {
		b.observability = cfg
	}
}

// New creates a backend for db.
func New(db *gorm.DB, opts ...Option) (*Backend, error) {
	if db == nil {
		return nil, errors.New("gormq: db is nil")
	}
	b := &Backend{db: db, dialect: dialectSQLite}
	if db.Dialector != nil && db.Name() == dialectPostgres {
		b.dialect = dialectPostgres
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if err := observability.RegisterGORMCallbacks(db, b.observability); err != nil {
		return nil, fmt.Errorf("gormq: registering callbacks: %w", err)
	}
	return b, nil
}

// Dialect returns the SQL dialect queries are rendered for.
func (b *Backend) Dialect() string {
	return b.dialect
}

func setLoggerInDB(db *gorm.DB, logger *slog.Logger) *gorm.DB {
	if logger == nil {
		logger = slog.Default()
	}
	return db.Set(loggerKey, logger)
}

func loggerFromDB(db *gorm.DB) *slog.Logger {
	if v, ok := db.Get(loggerKey); ok {
		if logger, ok := v.(*slog.Logger); ok {
			return logger
		}
	}
	return slog.Default()
}

// Apply adds the joins, condition, ordering and paging of q to db.
func (b *Backend) Apply(db *gorm.DB, q *query.Query) (*gorm.DB, error) {
	return b.apply(db, q, true)
}

func (b *Backend) apply(db *gorm.DB, q *query.Query, rows bool) (*gorm.DB, error) {
	if q == nil {
		return nil, errNilQuery
	}
	r, err := newRenderer(b.dialect, q)
	if err != nil {
		return nil, err
	}

	db = setLoggerInDB(db, b.logger).Table(q.Entity.Table)

	joins, err := r.joins(q.Aliases)
	if err != nil {
		return nil, err
	}
	if len(joins) > 0 && rows {
		db = db.Select(r.root + ".*")
	}
	for _, j := range joins {
		db = db.Joins(j)
	}

	if q.Predicate != nil {
		where, args, err := r.predicate(q.Predicate)
		if err != nil {
			return nil, err
		}
		db = db.Where(where, args...)
	}

	if !rows {
		return db, nil
	}

	if len(q.Order) > 0 {
		terms := make([]string, len(q.Order))
		var vars []interface{}
		for i, o := range q.Order {
			sql, args, err := r.projection(o.Projection)
			if err != nil {
				return nil, err
			}
			if o.Descending {
				sql += " DESC"
			} else {
				sql += " ASC"
			}
			terms[i] = sql
			vars = append(vars, args...)
		}
		db = db.Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                strings.Join(terms, ", "),
			Vars:               vars,
			WithoutParentheses: true,
		}})
	}
	if q.Top != nil {
		db = db.Limit(*q.Top)
	}
	if q.Skip != nil {
		db = db.Offset(*q.Skip)
	}
	return db, nil
}

// Find loads the rows selected by q into dest, a pointer to a slice of the
// entity's struct type or to []map[string]interface{}.
func (b *Backend) Find(ctx context.Context, q *query.Query, dest interface{}) error {
	ctx, span := b.observability.Tracer().StartExecute(ctx, entityName(q), observability.OpFind)
	defer span.End()

	tx, err := b.apply(b.db.WithContext(ctx), q, true)
	if err != nil {
		b.observability.Tracer().RecordError(span, err)
		return err
	}

	start := time.Now()
	result := tx.Find(dest)
	b.logStatement(ctx, result, q, time.Since(start))
	if result.Error != nil {
		b.observability.Tracer().RecordError(span, result.Error)
		return result.Error
	}
	return nil
}

// Count returns the number of rows matching the condition of q, ignoring
// ordering and paging.
func (b *Backend) Count(ctx context.Context, q *query.Query) (int64, error) {
	ctx, span := b.observability.Tracer().StartExecute(ctx, entityName(q), observability.OpCount)
	defer span.End()

	tx, err := b.apply(b.db.WithContext(ctx), q, false)
	if err != nil {
		b.observability.Tracer().RecordError(span, err)
		return 0, err
	}

	var n int64
	start := time.Now()
	result := tx.Count(&n)
	b.logStatement(ctx, result, q, time.Since(start))
	if result.Error != nil {
		b.observability.Tracer().RecordError(span, result.Error)
		return 0, result.Error
	}
	return n, nil
}

// Statement renders the SELECT that Find would run for q without executing
// it.
func (b *Backend) Statement(q *query.Query) (string, []interface{}, error) {
	tx, err := b.apply(b.db.Session(&gorm.Session{DryRun: true}), q, true)
	if err != nil {
		return "", nil, err
	}
	var rows []map[string]interface{}
	result := tx.Find(&rows)
	if result.Error != nil {
		return "", nil, result.Error
	}
	return result.Statement.SQL.String(), result.Statement.Vars, nil
}

func (b *Backend) logStatement(ctx context.Context, result *gorm.DB, q *query.Query, d time.Duration) {
	logger := observability.LoggerWithTrace(ctx, loggerFromDB(result))
	logger.DebugContext(ctx, "Executed query",
		observability.LogFieldEntity, q.EntityName,
		observability.LogFieldSQL, result.Statement.SQL.String(),
		observability.LogFieldRows, result.RowsAffected,
		observability.LogFieldDuration, d.Milliseconds(),
	)
}

func entityName(q *query.Query) string {
	if q == nil {
		return ""
	}
	return q.EntityName
}
