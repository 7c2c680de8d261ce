package odataql_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	odataql "github.com/nlstn/go-odataql"
	"github.com/nlstn/go-odataql/internal/testmodel"
)

func newCompiler(t *testing.T, opts ...odataql.Option) *odataql.Compiler {
	t.Helper()
	c, err := odataql.NewCompiler(testmodel.Registry(), opts...)
	require.NoError(t, err)
	return c
}

func aliasPaths(q *odataql.Query) []string {
	out := make([]string, len(q.Aliases))
	for i, a := range q.Aliases {
		out[i] = a.Name + "=" + a.Path
	}
	return out
}

func TestCompile_RangeOnIntegerMember(t *testing.T) {
	c := newCompiler(t)
	q, err := c.Compile(context.Background(), "Product", "$filter=Int32 gt 5 and Int32 lt 10")
	require.NoError(t, err)
	require.NotNil(t, q.Predicate)
	assert.Equal(t, "(Int32 gt 5 and Int32 lt 10)", q.Predicate.String())
	assert.Empty(t, q.Aliases)
}

func TestCompile_ToOneAssociation(t *testing.T) {
	c := newCompiler(t)
	q, err := c.Compile(context.Background(), "Product", "$filter=Child/Name eq 'X'")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1=Child"}, aliasPaths(q))
	assert.Equal(t, "t1.Name eq 'X'", q.Predicate.String())
}

func TestCompile_Paging(t *testing.T) {
	c := newCompiler(t)

	q, err := c.Compile(context.Background(), "Product", "$top=5")
	require.NoError(t, err)
	assert.Nil(t, q.Predicate)
	require.NotNil(t, q.Top)
	assert.Equal(t, 5, *q.Top)

	for _, raw := range []string{"$skip=-1", "$skip=foo"} {
		t.Run(raw, func(t *testing.T) {
			_, err := c.Compile(context.Background(), "Product", raw)
			var qe *odataql.QueryError
			require.True(t, errors.As(err, &qe), "got %v", err)
			assert.Equal(t, odataql.KindQuery, odataql.ErrorKind(err))
		})
	}
}

func TestCompile_ErrorKinds(t *testing.T) {
	tests := []struct {
		raw  string
		kind string
	}{
		{"$filter=Name eq 'x", odataql.KindLex},
		{"$filter=Name eq", odataql.KindParse},
		{"$filter=Missing eq 1", odataql.KindResolution},
		{"$filter=X'00' add X'00' eq Name", odataql.KindType},
		{"$filter=Orders/all(o: o/Total gt 1)", odataql.KindUnsupported},
		{"$top=x", odataql.KindQuery},
	}

	c := newCompiler(t)
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := c.Compile(context.Background(), "Product", tt.raw)
			require.Error(t, err)
			assert.Equal(t, tt.kind, odataql.ErrorKind(err))
		})
	}
}

func TestCompile_CaseInsensitiveNames(t *testing.T) {
	_, err := newCompiler(t).Compile(context.Background(), "Product", "$filter=child/name eq 'X'")
	require.Error(t, err)

	q, err := newCompiler(t, odataql.WithCaseInsensitiveNames()).
		Compile(context.Background(), "Product", "$FILTER=child/name eq 'X'")
	require.NoError(t, err)
	assert.Equal(t, "t1.Name eq 'X'", q.Predicate.String())
}

func TestCompile_NameResolver(t *testing.T) {
	c := newCompiler(t, odataql.WithNameResolver(odataql.StripSuffix{Suffix: "Field"}))
	q, err := c.Compile(context.Background(), "Product", "$filter=NameField eq 'x'")
	require.NoError(t, err)
	assert.Equal(t, "Name eq 'x'", q.Predicate.String())
}

func TestCompile_Untyped(t *testing.T) {
	c, err := odataql.NewCompiler(nil)
	require.NoError(t, err)

	q, err := c.Compile(context.Background(), "Anything", "$filter=A/B eq 1")
	require.NoError(t, err)
	assert.Nil(t, q.Entity)
	assert.Equal(t, "Anything", q.EntityName)
}

func TestCompiler_Cache(t *testing.T) {
	c := newCompiler(t)
	first, err := c.Compile(context.Background(), "Product", "$filter=Price gt 1")
	require.NoError(t, err)
	second, err := c.Compile(context.Background(), "Product", "$filter=Price gt 1")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, c.CachedQueries())

	c.ClearCache()
	assert.Equal(t, 0, c.CachedQueries())

	uncached := newCompiler(t, odataql.WithCacheSize(0))
	first, err = uncached.Compile(context.Background(), "Product", "$filter=Price gt 1")
	require.NoError(t, err)
	second, err = uncached.Compile(context.Background(), "Product", "$filter=Price gt 1")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 0, uncached.CachedQueries())

	_, err = odataql.NewCompilerWithConfig(nil, odataql.Config{CacheSize: -1})
	assert.Error(t, err)
}

func TestCompilePath(t *testing.T) {
	c := newCompiler(t)
	pq, err := c.CompilePath(context.Background(), "Products(5)/Orders")
	require.NoError(t, err)
	assert.Equal(t, "Order", pq.Entity.EntityName)
	assert.True(t, pq.Collection)
	assert.Equal(t, "ID eq 5", pq.Predicate.String())

	untyped, err := odataql.NewCompiler(nil)
	require.NoError(t, err)
	_, err = untyped.CompilePath(context.Background(), "Products(5)")
	assert.Equal(t, odataql.KindResolution, odataql.ErrorKind(err))
}

func TestCompiler_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newCompiler(t, odataql.WithLogger(logger))
	_, err := c.Compile(context.Background(), "Product", "$filter=Child/Name eq 'X'")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Compiled query")
	assert.Contains(t, buf.String(), "entity=Product")
}

// spanRecorder is a tracer provider that records the names of started spans.
type spanRecorder struct {
	tracenoop.TracerProvider
	mu    sync.Mutex
	names []string
}

func (r *spanRecorder) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return recordingTracer{recorder: r}
}

func (r *spanRecorder) started() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

type recordingTracer struct {
	tracenoop.Tracer
	recorder *spanRecorder
}

func (t recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	t.recorder.mu.Lock()
	t.recorder.names = append(t.recorder.names, name)
	t.recorder.mu.Unlock()
	return t.Tracer.Start(ctx, name, opts...)
}

func TestCompiler_Observability(t *testing.T) {
	recorder := &spanRecorder{}
	c := newCompiler(t,
		odataql.WithTracerProvider(recorder),
		odataql.WithMeterProvider(metricnoop.NewMeterProvider()),
		odataql.WithServiceName("catalog"),
		odataql.WithQueryOptionTracing(),
	)
	_, err := c.Compile(context.Background(), "Product", "$filter=Price gt 1&$top=2")
	require.NoError(t, err)

	assert.Equal(t, []string{"odataql.compile", "odataql.parse", "odataql.normalize", "odataql.generate"}, recorder.started())
}

func TestLoadSchema(t *testing.T) {
	entities, err := odataql.LoadSchema(strings.NewReader(testmodel.Schema), nil)
	require.NoError(t, err)

	registry := odataql.NewRegistry()
	require.NoError(t, registry.Add(entities...))

	c, err := odataql.NewCompiler(registry)
	require.NoError(t, err)
	q, err := c.Compile(context.Background(), "Product", "$filter=Child/Parent/Name eq 'root'")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1=Child", "t2=Child.Parent"}, aliasPaths(q))
}

func TestInvert_Involution(t *testing.T) {
	for _, src := range []string{"Int32 gt 5", "Active", "Name eq 'x' and (Active or Price lt 3)"} {
		t.Run(src, func(t *testing.T) {
			e, err := odataql.ParseFilter(src)
			require.NoError(t, err)
			want, err := odataql.Normalize(e)
			require.NoError(t, err)

			once, err := odataql.Invert(want)
			require.NoError(t, err)
			twice, err := odataql.Invert(once)
			require.NoError(t, err)
			got, err := odataql.Normalize(twice)
			require.NoError(t, err)
			assert.Equal(t, want.String(), got.String())
		})
	}

	literal, err := odataql.ParseExpression("1 add 2")
	require.NoError(t, err)
	_, err = odataql.Invert(literal)
	assert.ErrorIs(t, err, odataql.ErrNotBoolean)
}

func TestNormalize_FixedPoint(t *testing.T) {
	for _, src := range []string{"1.1m add 1", "Price gt 2 mul 3", "not (not Active)", "concat('a','b') eq Name"} {
		t.Run(src, func(t *testing.T) {
			e, err := odataql.ParseExpression(src)
			require.NoError(t, err)
			once, err := odataql.Normalize(e)
			require.NoError(t, err)
			twice, err := odataql.Normalize(once)
			require.NoError(t, err)
			assert.Equal(t, once.String(), twice.String())
		})
	}
}
