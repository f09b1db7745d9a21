package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Resolution outcomes recorded on depreg.resolutions.
const (
	OutcomeHit         = "hit"         // singleton served from cache
	OutcomeConstructed = "constructed" // singleton built on this call
	OutcomeTransient   = "transient"   // transient factory ran
	OutcomeMiss        = "miss"        // no registration
	OutcomeMismatch    = "mismatch"    // factory produced the wrong type
	OutcomePanic       = "panic"       // factory panicked
)

// Eviction reasons recorded on depreg.evictions.
const (
	EvictReplace    = "replace"
	EvictDispose    = "dispose"
	EvictUnregister = "unregister"
	EvictReset      = "reset"
)

// MetricsRecorder records registry metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordResolution records one resolution and how it was satisfied.
	RecordResolution(ctx context.Context, capability, lifecycle, outcome string)

	// RecordConstruction records how long a factory ran.
	RecordConstruction(ctx context.Context, capability string, duration time.Duration, panicked bool)

	// RecordRegistration records a register call.
	RecordRegistration(ctx context.Context, capability, lifecycle string)

	// RecordEviction records cached singletons dropped for the given reason.
	RecordEviction(ctx context.Context, reason string, count int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	resolutions   metric.Int64Counter
	construction  metric.Float64Histogram
	registrations metric.Int64Counter
	evictions     metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the shared OTel metrics instance.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("depreg")

	resolutions, err := meter.Int64Counter("depreg.resolutions",
		metric.WithDescription("Number of capability resolutions by outcome"),
	)
	if err != nil {
		return nil, err
	}

	construction, err := meter.Float64Histogram("depreg.construction.latency_ms",
		metric.WithDescription("Factory execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	registrations, err := meter.Int64Counter("depreg.registrations",
		metric.WithDescription("Number of register calls"),
	)
	if err != nil {
		return nil, err
	}

	evictions, err := meter.Int64Counter("depreg.evictions",
		metric.WithDescription("Number of cached singletons evicted"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		resolutions:   resolutions,
		construction:  construction,
		registrations: registrations,
		evictions:     evictions,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordResolution records a resolution.
func (m *otelMetrics) RecordResolution(ctx context.Context, capability, lifecycle, outcome string) {
	m.resolutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capability", capability),
		attribute.String("lifecycle", lifecycle),
		attribute.String("outcome", outcome),
	))
}

// RecordConstruction records factory latency.
func (m *otelMetrics) RecordConstruction(ctx context.Context, capability string, duration time.Duration, panicked bool) {
	m.construction.Record(ctx, float64(duration.Microseconds())/1000, metric.WithAttributes(
		attribute.String("capability", capability),
		attribute.Bool("panicked", panicked),
	))
}

// RecordRegistration records a register call.
func (m *otelMetrics) RecordRegistration(ctx context.Context, capability, lifecycle string) {
	m.registrations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capability", capability),
		attribute.String("lifecycle", lifecycle),
	))
}

// RecordEviction records evicted singletons. Zero counts are skipped.
func (m *otelMetrics) RecordEviction(ctx context.Context, reason string, count int) {
	if count <= 0 {
		return
	}
	m.evictions.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("reason", reason),
	))
}
