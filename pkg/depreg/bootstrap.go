package depreg

import (
	"fmt"
	"log/slog"

	"github.com/randalmurphal/depreg/pkg/depreg/config"
	"github.com/randalmurphal/depreg/pkg/depreg/observability"
)

// OptionsFromConfig translates a registry config section into Options.
//
// Recognized keys:
//
//	id:                 string, registry identifier (default: random UUID)
//	default_lifecycle:  "transient" | "singleton" (default: transient)
//	metrics:            bool, record OpenTelemetry metrics (default: false)
//	logging:            bool, attach logger (default: true)
//	capacity:           int, expected number of capabilities (default: 0)
//	construction_warn_threshold:
//	                    duration ("250ms") or whole seconds; slower factory
//	                    calls log a warning (default: disabled)
//
// logger may be nil, in which case logging stays disabled.
func OptionsFromConfig(cfg config.Config, logger *slog.Logger) ([]Option, error) {
	var opts []Option

	if id := cfg.String("id", ""); id != "" {
		opts = append(opts, WithID(id))
	}

	if cfg.Has("default_lifecycle") {
		l, err := ParseLifecycle(cfg.String("default_lifecycle", ""))
		if err != nil {
			return nil, fmt.Errorf("default_lifecycle: %w", err)
		}
		opts = append(opts, WithDefaultLifecycle(l))
	}

	if n := cfg.Int("capacity", 0); n > 0 {
		opts = append(opts, WithCapacity(n))
	}

	if cfg.Has("construction_warn_threshold") {
		d := cfg.Duration("construction_warn_threshold", -1)
		if d < 0 {
			return nil, fmt.Errorf("construction_warn_threshold: invalid duration %v", cfg.Raw()["construction_warn_threshold"])
		}
		opts = append(opts, WithSlowConstructionThreshold(d))
	}

	if cfg.Bool("metrics", false) {
		opts = append(opts, WithMetrics(observability.NewMetricsRecorder()))
	}

	if logger != nil && cfg.Bool("logging", true) {
		opts = append(opts, WithLogger(logger))
	}

	return opts, nil
}

// NewFromConfig creates a Registry configured by cfg.
// See OptionsFromConfig for the recognized keys.
func NewFromConfig(cfg config.Config, logger *slog.Logger) (*Registry, error) {
	opts, err := OptionsFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	return New(opts...), nil
}
