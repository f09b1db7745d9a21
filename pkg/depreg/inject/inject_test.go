package inject_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/randalmurphal/depreg/pkg/depreg"
	"github.com/randalmurphal/depreg/pkg/depreg/inject"
	"github.com/randalmurphal/depreg/pkg/depreg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// exporter receives every span produced by the package under test. The
// global provider is installed once so the package tracer binds to it.
var exporter = tracetest.NewInMemoryExporter()

func TestMain(m *testing.M) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	code := m.Run()
	_ = tp.Shutdown(context.Background())
	os.Exit(code)
}

type Clock interface {
	Now() int64
}

type fixedClock struct{ t int64 }

func (c fixedClock) Now() int64 { return c.t }

type Mailer interface {
	Send(to string) error
}

func newContext(t *testing.T) context.Context {
	t.Helper()
	exporter.Reset()
	r := depreg.New()
	depreg.Register(r, func() Clock { return fixedClock{t: 42} }, depreg.AsSingleton())
	return inject.WithRegistry(context.Background(), r)
}

func foundAttr(s tracetest.SpanStub) (bool, bool) {
	for _, a := range s.Attributes {
		if a.Key == "found" {
			return a.Value.AsBool(), true
		}
	}
	return false, false
}

func TestFromContext(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		r, ok := inject.FromContext(context.Background())
		assert.False(t, ok)
		assert.Nil(t, r)
	})

	t.Run("nil registry counts as missing", func(t *testing.T) {
		ctx := inject.WithRegistry(context.Background(), nil)
		_, ok := inject.FromContext(ctx)
		assert.False(t, ok)
	})

	t.Run("present", func(t *testing.T) {
		reg := depreg.New()
		r, ok := inject.FromContext(inject.WithRegistry(context.Background(), reg))
		require.True(t, ok)
		assert.Same(t, reg, r)
	})
}

func TestRequire(t *testing.T) {
	t.Run("returns registered capability", func(t *testing.T) {
		ctx := newContext(t)
		clock := inject.Require[Clock](ctx)
		assert.Equal(t, int64(42), clock.Now())

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "depreg.inject", spans[0].Name)
		found, ok := foundAttr(spans[0])
		require.True(t, ok)
		assert.True(t, found)
		assert.Equal(t, codes.Ok, spans[0].Status.Code)
	})

	t.Run("panics on missing capability", func(t *testing.T) {
		ctx := newContext(t)
		defer func() {
			rec := recover()
			require.NotNil(t, rec)
			err, ok := rec.(error)
			require.True(t, ok)
			assert.ErrorIs(t, err, depreg.ErrNotRegistered)

			var nre *depreg.NotRegisteredError
			require.ErrorAs(t, err, &nre)
			assert.Equal(t, depreg.KeyOf[Mailer](), nre.Key)
		}()
		inject.Require[Mailer](ctx)
	})

	t.Run("panics without registry", func(t *testing.T) {
		assert.PanicsWithError(t, inject.ErrNoRegistry.Error(), func() {
			inject.Require[Clock](context.Background())
		})
	})
}

func TestOptional(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		ctx := newContext(t)
		clock, ok := inject.Optional[Clock](ctx)
		require.True(t, ok)
		assert.Equal(t, int64(42), clock.Now())
	})

	t.Run("absent capability", func(t *testing.T) {
		ctx := newContext(t)
		m, ok := inject.Optional[Mailer](ctx)
		assert.False(t, ok)
		assert.Nil(t, m)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		found, _ := foundAttr(spans[0])
		assert.False(t, found)
		assert.Equal(t, codes.Ok, spans[0].Status.Code, "absence is not an error in lenient mode")
	})

	t.Run("absent registry", func(t *testing.T) {
		_, ok := inject.Optional[Clock](context.Background())
		assert.False(t, ok)
	})
}

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		ctx     func(t *testing.T) context.Context
		wantErr error
	}{
		{"no registry", func(*testing.T) context.Context { return context.Background() }, inject.ErrNoRegistry},
		{"not registered", newContext, depreg.ErrNotRegistered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := tt.ctx(t)
			exporter.Reset()

			m, err := inject.Get[Mailer](ctx)
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, codes.Error, spans[0].Status.Code)
		})
	}

	t.Run("found", func(t *testing.T) {
		ctx := newContext(t)
		clock, err := inject.Get[Clock](ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(42), clock.Now())
	})
}

func TestSingletonSharedAcrossCallSites(t *testing.T) {
	ctx := newContext(t)
	a := inject.Require[Clock](ctx)
	b, ok := inject.Optional[Clock](ctx)
	require.True(t, ok)
	c, err := inject.Get[Clock](ctx)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, b, c)
	assert.Len(t, exporter.GetSpans(), 3)
}

func TestWithSpanManager(t *testing.T) {
	t.Run("noop disables tracing", func(t *testing.T) {
		ctx := inject.WithSpanManager(newContext(t), observability.NoopSpanManager{})

		clock := inject.Require[Clock](ctx)
		assert.Equal(t, int64(42), clock.Now())
		_, _ = inject.Optional[Mailer](ctx)
		_, err := inject.Get[Mailer](ctx)
		require.Error(t, err)

		assert.Empty(t, exporter.GetSpans())
	})

	t.Run("nil restores default", func(t *testing.T) {
		ctx := inject.WithSpanManager(newContext(t), nil)
		_ = inject.Require[Clock](ctx)
		assert.Len(t, exporter.GetSpans(), 1)
	})
}

func TestMissingRegistryEvent(t *testing.T) {
	exporter.Reset()
	_, _ = inject.Optional[Clock](context.Background())
	_, _ = inject.Get[Clock](context.Background())

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	for _, s := range spans {
		names := make([]string, 0, len(s.Events))
		for _, e := range s.Events {
			names = append(names, e.Name)
		}
		assert.Contains(t, names, "registry.missing")
	}
}

func TestFactoryPanicEndsSpan(t *testing.T) {
	lookups := []struct {
		name   string
		lookup func(context.Context)
	}{
		{"require", func(ctx context.Context) { inject.Require[Mailer](ctx) }},
		{"optional", func(ctx context.Context) { _, _ = inject.Optional[Mailer](ctx) }},
		{"get", func(ctx context.Context) { _, _ = inject.Get[Mailer](ctx) }},
	}

	for _, tt := range lookups {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newContext(t)
			r, _ := inject.FromContext(ctx)
			depreg.Register(r, func() Mailer { panic("smtp down") })

			assert.PanicsWithValue(t, "smtp down", func() { tt.lookup(ctx) })

			spans := exporter.GetSpans()
			require.Len(t, spans, 1, "span is ended even when the factory panics")
			assert.Equal(t, codes.Error, spans[0].Status.Code)
			found, ok := foundAttr(spans[0])
			require.True(t, ok)
			assert.False(t, found)
		})
	}
}
