// Package inject resolves capabilities from a Registry carried on a
// context.Context.
//
// Bootstrap code attaches the registry once:
//
//	ctx = inject.WithRegistry(ctx, reg)
//
// Consumers then pick the handling strategy per call site:
//
//	store := inject.Require[Store](ctx)          // panics if missing
//	cache, ok := inject.Optional[Cache](ctx)     // absence is fine
//	mailer, err := inject.Get[Mailer](ctx)       // absence is an error
//
// Each lookup is traced through an observability.SpanManager. The default
// uses the global OpenTelemetry tracer provider; WithSpanManager swaps it,
// for example for observability.NoopSpanManager{} to turn tracing off.
//
// The package only reads from the registry. Registration, unregistration
// and reset belong to bootstrap and test code.
package inject

import (
	"context"
	"errors"

	"github.com/randalmurphal/depreg/pkg/depreg"
	"github.com/randalmurphal/depreg/pkg/depreg/observability"
	"go.opentelemetry.io/otel/attribute"
)

// ErrNoRegistry indicates the context carries no Registry.
var ErrNoRegistry = errors.New("no registry in context")

// errFactoryPanicked marks the span of a lookup whose factory panicked.
var errFactoryPanicked = errors.New("factory panicked")

var defaultSpans = observability.NewSpanManager()

type (
	registryKey struct{}
	spansKey    struct{}
)

// WithRegistry returns a copy of ctx that carries r.
func WithRegistry(ctx context.Context, r *depreg.Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, r)
}

// FromContext returns the Registry carried by ctx.
func FromContext(ctx context.Context) (*depreg.Registry, bool) {
	r, ok := ctx.Value(registryKey{}).(*depreg.Registry)
	return r, ok && r != nil
}

// WithSpanManager returns a copy of ctx whose lookups are traced by sm.
// A nil sm restores the default OpenTelemetry span manager.
func WithSpanManager(ctx context.Context, sm observability.SpanManager) context.Context {
	return context.WithValue(ctx, spansKey{}, sm)
}

func spansFrom(ctx context.Context) observability.SpanManager {
	if sm, ok := ctx.Value(spansKey{}).(observability.SpanManager); ok && sm != nil {
		return sm
	}
	return defaultSpans
}

// Require returns capability T or panics.
//
// A missing registry panics with ErrNoRegistry; a missing capability
// panics with *depreg.NotRegisteredError. Use it for dependencies whose
// absence is a programming error.
func Require[T any](ctx context.Context) T {
	v, err := get[T](ctx, "strict")
	if err != nil {
		panic(err)
	}
	return v
}

// Optional returns capability T, or false when either the registry or the
// capability is absent.
func Optional[T any](ctx context.Context) (v T, found bool) {
	sm := spansFrom(ctx)
	ctx, span := sm.StartResolveSpan(ctx, depreg.KeyOf[T]().String(), "lenient")
	completed := false
	defer func() {
		span.SetAttributes(attribute.Bool("found", found))
		if !completed {
			sm.EndSpanWithError(span, errFactoryPanicked)
			return
		}
		sm.EndSpanWithError(span, nil)
	}()

	r, ok := FromContext(ctx)
	if !ok {
		sm.AddSpanEvent(ctx, "registry.missing")
		completed = true
		return v, false
	}

	v, found = depreg.Resolve[T](r)
	completed = true
	return v, found
}

// Get returns capability T or an error: ErrNoRegistry, or the error from
// depreg.ResolveOrFail.
func Get[T any](ctx context.Context) (T, error) {
	return get[T](ctx, "error")
}

func get[T any](ctx context.Context, mode string) (v T, err error) {
	sm := spansFrom(ctx)
	ctx, span := sm.StartResolveSpan(ctx, depreg.KeyOf[T]().String(), mode)
	completed := false
	defer func() {
		span.SetAttributes(attribute.Bool("found", completed && err == nil))
		if !completed {
			sm.EndSpanWithError(span, errFactoryPanicked)
			return
		}
		sm.EndSpanWithError(span, err)
	}()

	r, ok := FromContext(ctx)
	if !ok {
		sm.AddSpanEvent(ctx, "registry.missing")
		completed = true
		return v, ErrNoRegistry
	}

	v, err = depreg.ResolveOrFail[T](r)
	completed = true
	return v, err
}
