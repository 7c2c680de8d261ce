package observability

import (
	"sync"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Config selects the OpenTelemetry providers used around compilation and
// query execution. A nil *Config is valid and behaves as if both providers
// were unset.
type Config struct {
	// TracerProvider enables spans; nil disables tracing.
	TracerProvider trace.TracerProvider
	// MeterProvider enables metrics; nil disables them.
	MeterProvider metric.MeterProvider

	// ServiceName is recorded on every span as the service attribute.
	ServiceName string

	// EnableDetailedDBTracing adds a span per statement issued by the GORM
	// backend.
	EnableDetailedDBTracing bool

	// EnableQueryOptionTracing records the raw $filter and $orderby text and
	// the paging bounds on compile spans.
	EnableQueryOptionTracing bool

	tracer  *Tracer
	metrics *Metrics
}

// Option is a functional option for Config.
type Option func(*Config)

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.TracerProvider = tp
	}
}

// WithMeterProvider sets the meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Config) {
		c.MeterProvider = mp
	}
}

// WithServiceName sets the service name recorded on spans.
func WithServiceName(name string) Option {
	return func(c *Config) {
		c.ServiceName = name
	}
}

// WithDetailedDBTracing traces every statement the GORM backend runs.
func WithDetailedDBTracing() Option {
	return func(c *Config) {
		c.EnableDetailedDBTracing = true
	}
}

// WithQueryOptionTracing records raw query options on compile spans.
func WithQueryOptionTracing() Option {
	return func(c *Config) {
		c.EnableQueryOptionTracing = true
	}
}

// NewConfig builds a configuration from opts. Call Initialize before use.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{ServiceName: DefaultServiceName}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Initialize creates the tracer and instruments for the configured
// providers.
func (c *Config) Initialize() error {
	c.tracer, c.metrics = nil, nil
	if c.TracerProvider != nil {
		c.tracer = NewTracer(c.TracerProvider, c.ServiceName)
	}
	if c.MeterProvider != nil {
		c.metrics = NewMetrics(c.MeterProvider)
	}
	return nil
}

// Tracer returns the configured tracer, or the shared no-op tracer.
func (c *Config) Tracer() *Tracer {
	if c == nil || c.tracer == nil {
		return NewNoopTracer()
	}
	return c.tracer
}

// Metrics returns the configured instruments, or the shared no-op set.
func (c *Config) Metrics() *Metrics {
	if c == nil || c.metrics == nil {
		return NewNoopMetrics()
	}
	return c.metrics
}

// IsEnabled reports whether a tracer or meter provider is configured.
func (c *Config) IsEnabled() bool {
	return c != nil && (c.TracerProvider != nil || c.MeterProvider != nil)
}

// QueryOptionTracingEnabled reports whether raw query options are recorded
// on spans.
func (c *Config) QueryOptionTracingEnabled() bool {
	return c != nil && c.EnableQueryOptionTracing
}

var (
	noopTracer  = sync.OnceValue(func() *Tracer { return NewTracer(tracenoop.NewTracerProvider(), "") })
	noopMetrics = sync.OnceValue(func() *Metrics { return NewMetrics(metricnoop.NewMeterProvider()) })
)

// NewNoopTracer returns a tracer whose spans record nothing.
func NewNoopTracer() *Tracer {
	return noopTracer()
}

// NewNoopMetrics returns instruments that record nothing.
func NewNoopMetrics() *Metrics {
	return noopMetrics()
}
