package depreg

import (
	"context"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/randalmurphal/depreg/pkg/depreg/observability"
)

// registration is immutable once installed. Re-registering swaps the
// pointer, so readers never see a factory paired with the wrong lifecycle.
type registration struct {
	key          Key
	lifecycle    Lifecycle
	factory      func() any
	doc          string
	registeredAt time.Time
}

// Registry stores capability registrations and cached singletons.
// It is safe for concurrent use.
//
// A single mutex guards both the registration table and the singleton
// cache, so every operation observes one consistent state. Factories run
// with the mutex held: a factory must not call back into the same Registry.
type Registry struct {
	mu            sync.Mutex
	registrations map[Key]*registration
	singletons    map[Key]any

	id               string
	logger           *slog.Logger
	metrics          observability.MetricsRecorder
	defaultLifecycle Lifecycle
	capacity         int
	slowThreshold    time.Duration
}

// Entry describes one registration. It is a snapshot; later changes to
// the Registry are not reflected.
type Entry struct {
	Key          Key
	Lifecycle    Lifecycle
	Cached       bool
	Doc          string
	RegisteredAt time.Time
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		metrics: observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.registrations = make(map[Key]*registration, r.capacity)
	r.singletons = make(map[Key]any, r.capacity)
	if r.id == "" {
		r.id = uuid.NewString()
	}
	r.logger = observability.EnrichLogger(r.logger, r.id)
	return r
}

// ID returns the registry identifier.
func (r *Registry) ID() string { return r.id }

// Register installs factory as the construction rule for capability T,
// replacing any earlier registration and evicting its cached singleton.
// The lifecycle defaults to the registry default (Transient unless
// WithDefaultLifecycle was used).
//
// Register panics if factory is nil.
func Register[T any](r *Registry, factory func() T, opts ...RegisterOption) {
	k := KeyOf[T]()
	if factory == nil {
		panic("depreg: nil factory for " + k.String())
	}
	r.RegisterKey(k, func() any { return factory() }, opts...)
}

// RegisterInstance registers a finished value for capability T.
// The lifecycle defaults to Singleton; an explicit AsTransient is honored
// but every resolution still returns the same value.
func RegisterInstance[T any](r *Registry, instance T, opts ...RegisterOption) {
	opts = append([]RegisterOption{AsSingleton()}, opts...)
	r.RegisterKey(KeyOf[T](), func() any { return instance }, opts...)
}

// RegisterKey is the type-erased form of Register. Values produced by
// factory that do not conform to k's type are never handed out: they
// resolve as absent from Resolve and as *TypeMismatchError from
// ResolveOrFail.
func (r *Registry) RegisterKey(k Key, factory func() any, opts ...RegisterOption) {
	if k.IsZero() {
		panic("depreg: register with zero key")
	}
	if factory == nil {
		panic("depreg: nil factory for " + k.String())
	}

	o := regOpts{lifecycle: r.defaultLifecycle}
	for _, fn := range opts {
		fn(&o)
	}
	reg := &registration{
		key:          k,
		lifecycle:    o.lifecycle,
		factory:      factory,
		doc:          o.doc,
		registeredAt: time.Now(),
	}

	r.mu.Lock()
	_, replaced := r.registrations[k]
	_, evicted := r.singletons[k]
	r.registrations[k] = reg
	delete(r.singletons, k)
	r.mu.Unlock()

	ctx := context.Background()
	r.metrics.RecordRegistration(ctx, k.String(), reg.lifecycle.String())
	if evicted {
		r.metrics.RecordEviction(ctx, observability.EvictReplace, 1)
	}
	observability.LogRegister(r.logger, k.String(), reg.lifecycle.String(), replaced, evicted)
}

// Resolve returns the instance for capability T. The boolean is false when
// T was never registered; Resolve never fabricates a default.
//
// A panicking factory is not recovered: the panic reaches the caller and
// no cache entry is written.
func Resolve[T any](r *Registry) (T, bool) {
	v, ok := r.ResolveKey(KeyOf[T]())
	if !ok {
		var zero T
		return zero, false
	}
	return cast[T](v)
}

// ResolveOrFail is like Resolve but returns *NotRegisteredError when T
// was never registered.
func ResolveOrFail[T any](r *Registry) (T, error) {
	k := KeyOf[T]()
	v, err := r.ResolveKeyOrFail(k)
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := cast[T](v)
	if !ok {
		return t, &TypeMismatchError{Key: k, Got: reflect.TypeOf(v)}
	}
	return t, nil
}

// MustResolve is like ResolveOrFail but panics on error.
// Use it where a missing capability is a bug, e.g. during bootstrap.
func MustResolve[T any](r *Registry) T {
	t, err := ResolveOrFail[T](r)
	if err != nil {
		panic(err)
	}
	return t
}

// ResolveKey is the type-erased form of Resolve.
func (r *Registry) ResolveKey(k Key) (any, bool) {
	v, found, err := r.resolve(k)
	if !found || err != nil {
		return nil, false
	}
	return v, true
}

// ResolveKeyOrFail is the type-erased form of ResolveOrFail.
func (r *Registry) ResolveKeyOrFail(k Key) (any, error) {
	v, found, err := r.resolve(k)
	if !found {
		return nil, &NotRegisteredError{Key: k}
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// resolve looks up k and produces its value. found is false when k has no
// registration; err is a *TypeMismatchError when the factory produced a
// non-conforming value.
func (r *Registry) resolve(k Key) (v any, found bool, err error) {
	ctx := context.Background()

	// Every path holds the lock, factory calls included, so resolution is
	// mutually exclusive with all other operations.
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.registrations[k]
	if !ok {
		r.metrics.RecordResolution(ctx, k.String(), "", observability.OutcomeMiss)
		observability.LogResolveMiss(r.logger, k.String())
		return nil, false, nil
	}

	if reg.lifecycle == Transient {
		start := time.Now()
		v, err = r.construct(ctx, reg)
		if err != nil {
			return nil, true, err
		}
		if elapsed := time.Since(start); r.slow(elapsed) {
			observability.LogSlowConstruction(r.logger, k.String(), millis(elapsed), millis(r.slowThreshold))
		}
		r.metrics.RecordResolution(ctx, k.String(), reg.lifecycle.String(), observability.OutcomeTransient)
		return v, true, nil
	}

	if v, ok := r.singletons[k]; ok {
		r.metrics.RecordResolution(ctx, k.String(), reg.lifecycle.String(), observability.OutcomeHit)
		return v, true, nil
	}

	start := time.Now()
	v, err = r.construct(ctx, reg)
	if err != nil {
		return nil, true, err
	}
	r.singletons[k] = v
	r.metrics.RecordResolution(ctx, k.String(), reg.lifecycle.String(), observability.OutcomeConstructed)
	r.logConstructed(k.String(), time.Since(start))
	return v, true, nil
}

func (r *Registry) slow(d time.Duration) bool {
	return r.slowThreshold > 0 && d >= r.slowThreshold
}

// logConstructed reports a singleton construction, as a warning when it
// crossed the slow threshold.
func (r *Registry) logConstructed(capability string, d time.Duration) {
	if r.slow(d) {
		observability.LogSlowConstruction(r.logger, capability, millis(d), millis(r.slowThreshold))
		return
	}
	observability.LogConstructed(r.logger, capability, millis(d))
}

// construct runs reg's factory and checks the result against its key.
// A factory panic is logged and counted on the way out but not recovered.
func (r *Registry) construct(ctx context.Context, reg *registration) (any, error) {
	name := reg.key.String()
	start := time.Now()
	completed := false
	defer func() {
		if completed {
			return
		}
		elapsed := time.Since(start)
		r.metrics.RecordConstruction(ctx, name, elapsed, true)
		r.metrics.RecordResolution(ctx, name, reg.lifecycle.String(), observability.OutcomePanic)
		observability.LogConstructionPanic(r.logger, name, millis(elapsed))
	}()

	v := reg.factory()
	completed = true
	r.metrics.RecordConstruction(ctx, name, time.Since(start), false)

	if !reg.key.conforms(v) {
		got := reflect.TypeOf(v)
		gotName := "nil"
		if got != nil {
			gotName = got.String()
		}
		r.metrics.RecordResolution(ctx, name, reg.lifecycle.String(), observability.OutcomeMismatch)
		observability.LogTypeMismatch(r.logger, name, gotName)
		return nil, &TypeMismatchError{Key: reg.key, Got: got}
	}
	return v, nil
}

// DisposeSingletons drops every cached singleton and keeps all
// registrations. The next resolution of a Singleton runs its factory
// again. Returns the number of evicted instances.
func (r *Registry) DisposeSingletons() int {
	r.mu.Lock()
	n := len(r.singletons)
	r.singletons = make(map[Key]any, r.capacity)
	r.mu.Unlock()

	r.metrics.RecordEviction(context.Background(), observability.EvictDispose, n)
	observability.LogDispose(r.logger, n)
	return n
}

// Unregister removes capability T and its cached instance.
// Unregistering an unknown capability is a no-op.
func Unregister[T any](r *Registry) {
	r.Unregister(KeyOf[T]())
}

// Unregister removes the registration and cached instance for k.
// Unknown keys are a no-op.
func (r *Registry) Unregister(k Key) {
	r.mu.Lock()
	_, existed := r.registrations[k]
	_, cached := r.singletons[k]
	delete(r.registrations, k)
	delete(r.singletons, k)
	r.mu.Unlock()

	if cached {
		r.metrics.RecordEviction(context.Background(), observability.EvictUnregister, 1)
	}
	observability.LogUnregister(r.logger, k.String(), existed)
}

// Reset removes every registration and cached instance in one step.
// Concurrent callers observe either the full state before Reset or the
// empty state after it.
func (r *Registry) Reset() {
	r.mu.Lock()
	regs, cached := len(r.registrations), len(r.singletons)
	r.registrations = make(map[Key]*registration, r.capacity)
	r.singletons = make(map[Key]any, r.capacity)
	r.mu.Unlock()

	r.metrics.RecordEviction(context.Background(), observability.EvictReset, cached)
	observability.LogReset(r.logger, regs, cached)
}

// Has reports whether capability T is registered.
func Has[T any](r *Registry) bool {
	return r.HasKey(KeyOf[T]())
}

// HasKey reports whether k is registered.
func (r *Registry) HasKey(k Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.registrations[k]
	return ok
}

// Len returns the number of registrations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.registrations)
}

// Keys returns all registered keys sorted by name.
func (r *Registry) Keys() []Key {
	r.mu.Lock()
	keys := make([]Key, 0, len(r.registrations))
	for k := range r.registrations {
		keys = append(keys, k)
	}
	r.mu.Unlock()

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// Entries returns a snapshot of all registrations sorted by key name.
func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	entries := make([]Entry, 0, len(r.registrations))
	for k, reg := range r.registrations {
		_, cached := r.singletons[k]
		entries = append(entries, Entry{
			Key:          k,
			Lifecycle:    reg.lifecycle,
			Cached:       cached,
			Doc:          reg.doc,
			RegisteredAt: reg.registeredAt,
		})
	}
	r.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key.String() < entries[j].Key.String()
	})
	return entries
}

// cast converts a conforming value to T. A nil value is the zero T.
func cast[T any](v any) (T, bool) {
	if v == nil {
		var zero T
		return zero, true
	}
	t, ok := v.(T)
	return t, ok
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
