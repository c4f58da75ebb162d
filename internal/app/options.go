package service

import (
	"time"

	"github.com/okian/datesync/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of calendar sync workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the sync queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMemoSize bounds the free-window cache. Zero disables it.
func WithMemoSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.memoSize = size
		}
	}
}

// WithLocation sets the zone that defines calendar days.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithMaxRangeDays caps how many days one request may cover.
func WithMaxRangeDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.maxRangeDays = days
		}
	}
}

// WithMaxSuggestions sets the suggestion cap used when callers give none.
func WithMaxSuggestions(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxSuggestions = n
		}
	}
}

// WithSyncSchedule sets the cron expression for refreshing every source.
// An empty expression disables periodic refresh.
func WithSyncSchedule(spec string) Option {
	return func(s *Service) {
		s.syncSchedule = spec
	}
}

// WithSyncHorizon sets how far ahead recurring events are expanded.
func WithSyncHorizon(horizon time.Duration) Option {
	return func(s *Service) {
		if horizon > 0 {
			s.syncHorizon = horizon
		}
	}
}

// WithFetcher replaces the ICS fetcher.
func WithFetcher(f Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
