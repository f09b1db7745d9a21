// Package observability records registry activity: slog records for
// registrations, misses, constructions, evictions and resets, OpenTelemetry
// counters for the same events, and a span per ambient lookup.
//
// Every Log* helper accepts a nil logger and does nothing with it.
package observability

import (
	"log/slog"
)

// EnrichLogger adds registry context to a logger.
// Returns a new logger with the registry_id field.
func EnrichLogger(logger *slog.Logger, registryID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("registry_id", registryID))
}

// LogRegister logs a registration. replaced is true when an earlier
// registration for the same capability was overwritten, and evicted is
// true when that overwrite dropped a cached singleton.
func LogRegister(logger *slog.Logger, capability, lifecycle string, replaced, evicted bool) {
	if logger == nil {
		return
	}
	logger.Debug("capability registered",
		slog.String("capability", capability),
		slog.String("lifecycle", lifecycle),
		slog.Bool("replaced", replaced),
		slog.Bool("evicted", evicted),
	)
}

// LogResolveMiss logs a resolution for a capability with no registration.
func LogResolveMiss(logger *slog.Logger, capability string) {
	if logger == nil {
		return
	}
	logger.Debug("capability not registered",
		slog.String("capability", capability),
	)
}

// LogConstructed logs first construction of a singleton.
func LogConstructed(logger *slog.Logger, capability string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("singleton constructed",
		slog.String("capability", capability),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogSlowConstruction logs a factory call that took at least thresholdMs.
// The registry lock is held for the whole call.
func LogSlowConstruction(logger *slog.Logger, capability string, durationMs, thresholdMs float64) {
	if logger == nil {
		return
	}
	logger.Warn("slow construction",
		slog.String("capability", capability),
		slog.Float64("duration_ms", durationMs),
		slog.Float64("threshold_ms", thresholdMs),
	)
}

// LogConstructionPanic logs a factory that panicked. The panic itself is
// left to unwind to the caller.
func LogConstructionPanic(logger *slog.Logger, capability string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("factory panicked",
		slog.String("capability", capability),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogTypeMismatch logs a factory result that does not conform to its capability.
func LogTypeMismatch(logger *slog.Logger, capability, got string) {
	if logger == nil {
		return
	}
	logger.Warn("factory produced wrong type",
		slog.String("capability", capability),
		slog.String("got", got),
	)
}

// LogDispose logs a singleton cache flush.
func LogDispose(logger *slog.Logger, evicted int) {
	if logger == nil {
		return
	}
	logger.Info("singletons disposed",
		slog.Int("evicted", evicted),
	)
}

// LogUnregister logs removal of a capability.
func LogUnregister(logger *slog.Logger, capability string, existed bool) {
	if logger == nil {
		return
	}
	logger.Debug("capability unregistered",
		slog.String("capability", capability),
		slog.Bool("existed", existed),
	)
}

// LogReset logs a full registry reset.
func LogReset(logger *slog.Logger, registrations, evicted int) {
	if logger == nil {
		return
	}
	logger.Info("registry reset",
		slog.Int("registrations", registrations),
		slog.Int("evicted", evicted),
	)
}
