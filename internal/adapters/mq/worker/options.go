// Package worker runs calendar sync jobs pulled off the queue.
package worker

import (
	"time"

	"github.com/okian/datesync/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithLocation sets the zone used for all-day events and recurrence expansion.
func WithLocation(loc *time.Location) Option {
	return func(w *InMemoryWorker) {
		if loc != nil {
			w.loc = loc
		}
	}
}

// WithHorizon sets how far past now recurring events are expanded.
func WithHorizon(horizon time.Duration) Option {
	return func(w *InMemoryWorker) {
		if horizon > 0 {
			w.horizon = horizon
		}
	}
}

// WithLookback sets how far before now expanded instances are kept.
func WithLookback(lookback time.Duration) Option {
	return func(w *InMemoryWorker) {
		if lookback >= 0 {
			w.lookback = lookback
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *InMemoryWorker) {
		if now != nil {
			w.now = now
		}
	}
}
