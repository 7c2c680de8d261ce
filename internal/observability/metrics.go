package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the compiler metric instruments.
type Metrics struct {
	compileDuration metric.Float64Histogram
	compileCount    metric.Int64Counter
	errorCount      metric.Int64Counter
	cacheHits       metric.Int64Counter
	dbQueryDuration metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with the given MeterProvider.
func NewMetrics(mp metric.MeterProvider) *Metrics {
	meter := mp.Meter(MeterName)
	m := &Metrics{}

	// Note: errors from meter instrument creation are unlikely in practice
	// and would only occur with invalid parameters. We use explicit checks
	// to satisfy the linter while continuing with partial metrics on error.
	var err error

	m.compileDuration, err = meter.Float64Histogram(
		"odataql.compile.duration",
		metric.WithDescription("Duration of query compilations in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.compileDuration, _ = meter.Float64Histogram("odataql.compile.duration")
	}

	m.compileCount, err = meter.Int64Counter(
		"odataql.compile.count",
		metric.WithDescription("Total number of query compilations"),
		metric.WithUnit("{compilation}"),
	)
	if err != nil {
		m.compileCount, _ = meter.Int64Counter("odataql.compile.count")
	}

	m.errorCount, err = meter.Int64Counter(
		"odataql.compile.errors",
		metric.WithDescription("Total number of failed query compilations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.errorCount, _ = meter.Int64Counter("odataql.compile.errors")
	}

	m.cacheHits, err = meter.Int64Counter(
		"odataql.cache.hits",
		metric.WithDescription("Number of compilations served from the compiled query cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		m.cacheHits, _ = meter.Int64Counter("odataql.cache.hits")
	}

	m.dbQueryDuration, err = meter.Float64Histogram(
		"odataql.db.query.duration",
		metric.WithDescription("Duration of database queries in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.dbQueryDuration, _ = meter.Float64Histogram("odataql.db.query.duration")
	}

	return m
}

// RecordCompile records a successful compilation.
func (m *Metrics) RecordCompile(ctx context.Context, entity, operation string, duration time.Duration) {
	attrs := metric.WithAttributes(
		EntityAttr(entity),
		OperationAttr(operation),
	)
	m.compileDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	m.compileCount.Add(ctx, 1, attrs)
}

// RecordError records a failed compilation by error kind.
func (m *Metrics) RecordError(ctx context.Context, entity, operation, kind string) {
	attrs := metric.WithAttributes(
		EntityAttr(entity),
		OperationAttr(operation),
		ErrorKindAttr(kind),
	)
	m.errorCount.Add(ctx, 1, attrs)
}

// RecordCacheHit records a compilation served from the cache.
func (m *Metrics) RecordCacheHit(ctx context.Context, entity string) {
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(EntityAttr(entity)))
}

// RecordDBQuery records metrics for a database query.
func (m *Metrics) RecordDBQuery(ctx context.Context, operation string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("db.operation", operation))
	m.dbQueryDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}
