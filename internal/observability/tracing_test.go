package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestNewTracer(t *testing.T) {
	tp := tracenoop.NewTracerProvider()
	tracer := NewTracer(tp, "test-service")

	if tracer == nil {
		t.Fatal("NewTracer() should return non-nil tracer")
		return
	}
	if tracer.serviceName != "test-service" {
		t.Errorf("serviceName = %q, want %q", tracer.serviceName, "test-service")
	}
}

func TestTracer_StartCompile(t *testing.T) {
	tracer := NewTracer(tracenoop.NewTracerProvider(), "test-service")

	ctx, span := tracer.StartCompile(context.Background(), "Product", "")
	defer span.End()

	if ctx == nil {
		t.Error("StartCompile() should return non-nil context")
	}
}

func TestTracer_StartPhase_Nested(t *testing.T) {
	tracer := NewTracer(tracenoop.NewTracerProvider(), "test-service")

	ctx, parent := tracer.StartCompile(context.Background(), "Product", "scope")
	defer parent.End()

	phaseCtx, span := tracer.StartPhase(ctx, SpanParse)
	defer span.End()

	if phaseCtx == nil {
		t.Error("StartPhase() should return non-nil context")
	}
}

func TestTracer_StartExecute(t *testing.T) {
	tracer := NewTracer(tracenoop.NewTracerProvider(), "test-service")

	ctx, span := tracer.StartExecute(context.Background(), "Product", OpCount)
	defer span.End()

	if ctx == nil {
		t.Error("StartExecute() should return non-nil context")
	}
}

func TestTracer_StartDBQuery(t *testing.T) {
	tracer := NewTracer(tracenoop.NewTracerProvider(), "test-service")

	ctx, span := tracer.StartDBQuery(context.Background(), "SELECT")
	defer span.End()

	if ctx == nil {
		t.Error("StartDBQuery() should return non-nil context")
	}
}

func TestLoggerWithTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	// Without valid trace context the logger is returned unchanged.
	if got := LoggerWithTrace(context.Background(), logger); got != logger {
		t.Error("LoggerWithTrace() should return the same logger without a span")
	}

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1},
		SpanID:  trace.SpanID{2},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	LoggerWithTrace(ctx, logger).Info("compiled")

	if !strings.Contains(buf.String(), LogFieldTraceID+"="+sc.TraceID().String()) {
		t.Errorf("expected trace id in log output, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), LogFieldSpanID+"="+sc.SpanID().String()) {
		t.Errorf("expected span id in log output, got %q", buf.String())
	}
}

func TestNewMetrics(t *testing.T) {
	metrics := NewMetrics(noopmetric.NewMeterProvider())

	if metrics == nil {
		t.Fatal("NewMetrics() should return non-nil metrics")
	}

	// Should not panic
	metrics.RecordCompile(context.Background(), "Product", OpCompilePath, time.Second)
	metrics.RecordError(context.Background(), "Product", OpCompileQuery, "resolution")
	metrics.RecordCacheHit(context.Background(), "Product")
}

func TestConfig_Tracer_Nil(t *testing.T) {
	var cfg *Config

	if cfg.Tracer() == nil {
		t.Error("Tracer() should return noop tracer for nil config")
	}
}

func TestConfig_Metrics_Nil(t *testing.T) {
	var cfg *Config

	if cfg.Metrics() == nil {
		t.Error("Metrics() should return noop metrics for nil config")
	}
}

func TestConfig_NotInitialized(t *testing.T) {
	cfg := NewConfig()

	if cfg.Tracer() == nil {
		t.Error("Tracer() should return noop tracer when not initialized")
	}
	if cfg.Metrics() == nil {
		t.Error("Metrics() should return noop metrics when not initialized")
	}
}
