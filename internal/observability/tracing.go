package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer with compiler-specific span creation methods.
type Tracer struct {
	tracer      trace.Tracer
	serviceName string
}

// NewTracer creates a new Tracer using the given TracerProvider.
func NewTracer(tp trace.TracerProvider, serviceName string) *Tracer {
	return &Tracer{
		tracer:      tp.Tracer(TracerName),
		serviceName: serviceName,
	}
}

// StartSpan starts a new span with the given name and attributes.
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span
}

// StartCompile starts the span covering one query compilation.
func (t *Tracer) StartCompile(ctx context.Context, entity, scope string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		EntityAttr(entity),
		OperationAttr(OpCompileQuery),
	}
	if scope != "" {
		attrs = append(attrs, ScopeAttr(scope))
	}
	return t.tracer.Start(ctx, SpanCompile, trace.WithAttributes(t.withService(attrs)...))
}

// StartCompilePath starts the span covering one resource path compilation.
func (t *Tracer) StartCompilePath(ctx context.Context, path string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanCompile, trace.WithAttributes(t.withService([]attribute.KeyValue{
		OperationAttr(OpCompilePath),
		attribute.String("odataql.path", path),
	})...))
}

// withService appends the service attribute to the top-level span attributes.
func (t *Tracer) withService(attrs []attribute.KeyValue) []attribute.KeyValue {
	if t.serviceName == "" {
		return attrs
	}
	return append(attrs, ServiceAttr(t.serviceName))
}

// StartPhase starts a child span for one compilation phase, such as SpanParse.
func (t *Tracer) StartPhase(ctx context.Context, phase string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, phase)
}

// StartExecute starts a span for running a compiled query against a backend.
func (t *Tracer) StartExecute(ctx context.Context, entity, operation string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanExecute, trace.WithAttributes(t.withService([]attribute.KeyValue{
		EntityAttr(entity),
		OperationAttr(operation),
	})...))
}

// StartDBQuery starts a span for a database query.
func (t *Tracer) StartDBQuery(ctx context.Context, operation string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "db.query", trace.WithAttributes(
		attribute.String("db.operation", operation),
	))
}

// RecordError records an error on the span.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// AddQueryOptions adds query option attributes to a span. Negative paging
// values mean the option was absent.
func (t *Tracer) AddQueryOptions(span trace.Span, filter, orderby string, top, skip int) {
	var attrs []attribute.KeyValue
	if filter != "" {
		attrs = append(attrs, QueryFilterAttr(filter))
	}
	if orderby != "" {
		attrs = append(attrs, QueryOrderByAttr(orderby))
	}
	if top >= 0 {
		attrs = append(attrs, QueryTopAttr(top))
	}
	if skip >= 0 {
		attrs = append(attrs, QuerySkipAttr(skip))
	}
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
}

// LoggerWithTrace returns a logger enriched with trace context.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return logger
	}
	return logger.With(
		slog.String(LogFieldTraceID, span.SpanContext().TraceID().String()),
		slog.String(LogFieldSpanID, span.SpanContext().SpanID().String()),
	)
}
