package depreg

import (
	"fmt"
	"strings"
)

// Lifecycle controls how often a registration's factory runs.
type Lifecycle int

const (
	// Transient runs the factory on every resolution. It is the default.
	Transient Lifecycle = iota

	// Singleton runs the factory once and hands the cached value to every
	// later resolution until the cache entry is evicted.
	Singleton
)

// String returns the lifecycle name.
func (l Lifecycle) String() string {
	switch l {
	case Transient:
		return "transient"
	case Singleton:
		return "singleton"
	default:
		return "unknown"
	}
}

// ParseLifecycle parses "transient" or "singleton", ignoring case and
// surrounding whitespace.
func ParseLifecycle(s string) (Lifecycle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transient":
		return Transient, nil
	case "singleton":
		return Singleton, nil
	default:
		return Transient, fmt.Errorf("unknown lifecycle %q", s)
	}
}
