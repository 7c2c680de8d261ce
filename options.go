package odataql

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Compiler created by NewCompiler.
type Option func(*Config)

// WithLogger sets the logger for compilation debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithCaseInsensitiveNames matches member names and query option keys
// ignoring case.
func WithCaseInsensitiveNames() Option {
	return func(c *Config) {
		c.CaseInsensitiveNames = true
	}
}

// WithNameResolver replaces member name lookup.
func WithNameResolver(names NameResolver) Option {
	return func(c *Config) {
		c.NameResolver = names
	}
}

// WithScope sets the cache scope of the compiler.
func WithScope(scope string) Option {
	return func(c *Config) {
		c.Scope = scope
	}
}

// WithCacheSize bounds the compiled query cache. A size of zero disables
// the cache.
func WithCacheSize(size int) Option {
	return func(c *Config) {
		if size == 0 {
			c.DisableCache = true
			return
		}
		c.CacheSize = size
		c.DisableCache = false
	}
}

// WithTracerProvider enables tracing of compilations.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.TracerProvider = tp
	}
}

// WithMeterProvider enables compilation metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Config) {
		c.MeterProvider = mp
	}
}

// WithServiceName sets the instrumentation scope name.
func WithServiceName(name string) Option {
	return func(c *Config) {
		c.ServiceName = name
	}
}

// WithQueryOptionTracing records raw query options on compile spans.
func WithQueryOptionTracing() Option {
	return func(c *Config) {
		c.QueryOptionTracing = true
	}
}
