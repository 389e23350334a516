// internal/app/system/timeouts/timeouts.go
// Package timeouts holds the shared deadlines for probes, exports and
// snapshot rebuilds. Values can be overridden through PULSE_TIMEOUT_*.
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults, used until Configure or ConfigureFromEnv changes them.
const (
	DefaultPing  = 2 * time.Second
	DefaultLong  = 60 * time.Second  // capture exports
	DefaultBatch = 120 * time.Second // snapshot rebuilds
)

// Config is a full set of timeout values. Zero fields are ignored by
// Configure.
type Config struct {
	Ping  time.Duration
	Long  time.Duration
	Batch time.Duration
}

var (
	mu      sync.RWMutex
	current = defaults()
)

func defaults() Config {
	return Config{Ping: DefaultPing, Long: DefaultLong, Batch: DefaultBatch}
}

// Ping bounds a single health probe.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return current.Ping
}

// Long bounds a capture export request.
func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return current.Long
}

// Batch bounds a snapshot rebuild, fetch through persistence.
func Batch() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return current.Batch
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Configure overrides the positive fields of cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	apply(&current, cfg)
}

// Reset restores the defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = defaults()
}

func apply(dst *Config, src Config) {
	if src.Ping > 0 {
		dst.Ping = src.Ping
	}
	if src.Long > 0 {
		dst.Long = src.Long
	}
	if src.Batch > 0 {
		dst.Batch = src.Batch
	}
}

// ConfigureFromEnv reads PULSE_TIMEOUT_PING, PULSE_TIMEOUT_LONG and
// PULSE_TIMEOUT_BATCH as Go durations. Invalid or non-positive values are
// skipped. It returns how many values were applied.
func ConfigureFromEnv() int {
	var cfg Config
	n := 0
	for name, dst := range map[string]*time.Duration{
		"PULSE_TIMEOUT_PING":  &cfg.Ping,
		"PULSE_TIMEOUT_LONG":  &cfg.Long,
		"PULSE_TIMEOUT_BATCH": &cfg.Batch,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
			n++
		}
	}
	Configure(cfg)
	return n
}

// WithTimeout derives a context bounded by timeout. The returned cancel
// logs a warning when the deadline was the reason the work stopped.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
