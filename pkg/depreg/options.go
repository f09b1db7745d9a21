package depreg

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/depreg/pkg/depreg/observability"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for registry events.
// The logger is enriched with registry_id. A nil logger disables logging,
// which is also the default.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
// Default: observability.NoopMetrics{}
//
// Example:
//
//	r := depreg.New(depreg.WithMetrics(observability.NewMetricsRecorder()))
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithDefaultLifecycle sets the lifecycle used by Register when no
// RegisterOption picks one. Default: Transient.
func WithDefaultLifecycle(l Lifecycle) Option {
	return func(r *Registry) {
		r.defaultLifecycle = l
	}
}

// WithID sets the registry identifier used in logs.
// If not set, a UUID is generated.
func WithID(id string) Option {
	return func(r *Registry) {
		r.id = id
	}
}

// WithCapacity presizes the registration table and singleton cache for n
// capabilities. Non-positive values are ignored.
func WithCapacity(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// WithSlowConstructionThreshold makes factory calls that take at least d
// log a warning. Zero disables the warning, which is the default.
func WithSlowConstructionThreshold(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.slowThreshold = d
		}
	}
}

// RegisterOption configures a single registration.
type RegisterOption func(*regOpts)

type regOpts struct {
	lifecycle Lifecycle
	doc       string
}

// WithLifecycle sets the registration's lifecycle.
func WithLifecycle(l Lifecycle) RegisterOption {
	return func(o *regOpts) { o.lifecycle = l }
}

// AsSingleton is shorthand for WithLifecycle(Singleton).
func AsSingleton() RegisterOption { return WithLifecycle(Singleton) }

// AsTransient is shorthand for WithLifecycle(Transient).
func AsTransient() RegisterOption { return WithLifecycle(Transient) }

// WithDoc attaches a human-readable note, reported by Entries.
func WithDoc(doc string) RegisterOption {
	return func(o *regOpts) { o.doc = doc }
}
