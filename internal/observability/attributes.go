// Package observability provides OpenTelemetry-based instrumentation for query
// compilation and execution.
//
// It supports distributed tracing, metrics collection, and enhanced structured logging.
//
// All observability features are opt-in. When not configured, no-op implementations
// are used with zero performance overhead.
package observability

import "go.opentelemetry.io/otel/attribute"

// Instrumentation identity constants
const (
	// TracerName is the instrumentation name for tracing.
	TracerName = "github.com/nlstn/go-odataql"
	// MeterName is the instrumentation name for metrics.
	MeterName = "github.com/nlstn/go-odataql"
	// DefaultServiceName is reported when no service name is configured.
	DefaultServiceName = "odataql"
)

// Span names.
const (
	SpanCompile   = "odataql.compile"
	SpanParse     = "odataql.parse"
	SpanNormalize = "odataql.normalize"
	SpanGenerate  = "odataql.generate"
	SpanExecute   = "odataql.execute"
)

// Semantic attribute keys following OpenTelemetry conventions.
const (
	AttrEntity     = "odataql.entity"
	AttrScope      = "odataql.scope"
	AttrAliasCount = "odataql.alias_count"
	AttrCacheHit   = "odataql.cache_hit"
	AttrOperation  = "odataql.operation"

	// Query option attributes
	AttrQueryFilter  = "odataql.query.filter"
	AttrQueryOrderBy = "odataql.query.orderby"
	AttrQueryTop     = "odataql.query.top"
	AttrQuerySkip    = "odataql.query.skip"

	// Error attributes
	AttrErrorKind = "odataql.error.kind"

	AttrService = "service.name"
)

// Operation types for the odataql.operation attribute.
const (
	OpCompileQuery = "compile_query"
	OpCompilePath  = "compile_path"
	OpFind         = "find"
	OpCount        = "count"
)

// Log field keys for structured logging with trace context.
const (
	LogFieldEntity     = "entity"
	LogFieldAliases    = "aliases"
	LogFieldHasFilter  = "has_filter"
	LogFieldHasOrderBy = "has_orderby"
	LogFieldTraceID    = "trace_id"
	LogFieldSpanID     = "span_id"
	LogFieldDuration   = "duration_ms"
	LogFieldSQL        = "sql"
	LogFieldRows       = "rows"
)

// EntityAttr creates an attribute for the root entity name.
func EntityAttr(name string) attribute.KeyValue {
	return attribute.String(AttrEntity, name)
}

// ServiceAttr creates an attribute for the configured service name.
func ServiceAttr(name string) attribute.KeyValue {
	return attribute.String(AttrService, name)
}

// ScopeAttr creates an attribute for the metadata scope.
func ScopeAttr(scope string) attribute.KeyValue {
	return attribute.String(AttrScope, scope)
}

// OperationAttr creates an attribute for the operation type.
func OperationAttr(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// AliasCountAttr creates an attribute for the number of join aliases.
func AliasCountAttr(n int) attribute.KeyValue {
	return attribute.Int(AttrAliasCount, n)
}

// CacheHitAttr creates an attribute telling whether a compiled query was
// served from the cache.
func CacheHitAttr(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheHit, hit)
}

// QueryFilterAttr creates an attribute for the $filter expression.
func QueryFilterAttr(filter string) attribute.KeyValue {
	return attribute.String(AttrQueryFilter, filter)
}

// QueryOrderByAttr creates an attribute for the $orderby expression.
func QueryOrderByAttr(orderby string) attribute.KeyValue {
	return attribute.String(AttrQueryOrderBy, orderby)
}

// QueryTopAttr creates an attribute for the $top value.
func QueryTopAttr(top int) attribute.KeyValue {
	return attribute.Int(AttrQueryTop, top)
}

// QuerySkipAttr creates an attribute for the $skip value.
func QuerySkipAttr(skip int) attribute.KeyValue {
	return attribute.Int(AttrQuerySkip, skip)
}

// ErrorKindAttr creates an attribute for the kind of a compilation error.
func ErrorKindAttr(kind string) attribute.KeyValue {
	return attribute.String(AttrErrorKind, kind)
}
