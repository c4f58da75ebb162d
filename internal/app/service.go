// Package service wires the availability engine to storage and calendar
// sync, and implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/datesync/internal/adapters/calendar"
	syncqueue "github.com/okian/datesync/internal/adapters/mq/queue"
	workerpool "github.com/okian/datesync/internal/adapters/mq/worker"
	"github.com/okian/datesync/internal/adapters/repository"
	"github.com/okian/datesync/internal/domain/freewindow"
	"github.com/okian/datesync/internal/domain/memo"
	"github.com/okian/datesync/internal/domain/ranking"
	"github.com/okian/datesync/pkg/logger"
	"github.com/okian/datesync/pkg/metrics"
)

// Fetcher downloads one calendar source.
type Fetcher = workerpool.Fetcher

// Service implements the API dependencies for availability matching.
type Service struct {
	mu sync.RWMutex

	// Engine, usable before Start.
	builder *freewindow.Builder
	ranker  *ranking.Ranker
	cache   memo.Cache

	// Adapters, created by Start.
	store      *repository.MemoryStore
	syncQueue  syncqueue.Queue
	workerPool *workerpool.Pool
	scheduler  *cron.Cron
	fetcher    Fetcher

	// Configuration
	loc            *time.Location
	workerCount    int
	queueSize      int
	memoSize       int
	maxRangeDays   int
	maxSuggestions int
	syncSchedule   string
	syncHorizon    time.Duration
	now            func() time.Time

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service. The pure computation methods work immediately;
// stateful ones need Start.
func New(opts ...Option) *Service {
	s := &Service{
		loc:            time.UTC,
		workerCount:    runtime.NumCPU(),
		queueSize:      1024,
		memoSize:       4096,
		maxRangeDays:   92,
		maxSuggestions: 10,
		syncHorizon:    90 * 24 * time.Hour,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.builder = freewindow.NewBuilder(
		freewindow.WithLocation(s.loc),
		freewindow.WithMaxDays(s.maxRangeDays),
	)
	s.ranker = ranking.NewRanker(ranking.WithDefaultLimit(s.maxSuggestions))
	if s.memoSize > 0 {
		s.cache = memo.NewInMemoryCache(memo.WithMaxSize(s.memoSize))
	}
	return s
}

// Start initializes the store, the sync workers and the refresh schedule.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting datesync service...")

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if s.fetcher == nil {
		s.fetcher = calendar.NewFetcher(calendar.WithLogger(s.logger.Named("calendar")))
	}
	s.store = repository.NewMemoryStore(runCtx)
	s.syncQueue = syncqueue.NewInMemoryQueue(syncqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.syncQueue, s.fetcher, s.store,
		workerpool.WithLocation(s.loc),
		workerpool.WithHorizon(s.syncHorizon),
		workerpool.WithClock(s.now),
		workerpool.WithLogger(s.logger.Named("worker")),
	)
	s.workerPool.Start(runCtx)

	if s.syncSchedule != "" {
		s.scheduler = cron.New(cron.WithLocation(s.loc))
		if _, err := s.scheduler.AddFunc(s.syncSchedule, func() { s.SyncAll(runCtx) }); err != nil {
			cancel()
			return fmt.Errorf("schedule %q: %w", s.syncSchedule, err)
		}
		s.scheduler.Start()
	}

	s.started = true
	s.logger.Info(ctx, "datesync service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("memoSize", s.memoSize),
		logger.String("timezone", s.loc.String()),
		logger.String("syncSchedule", s.syncSchedule),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping datesync service...")

	if s.scheduler != nil {
		<-s.scheduler.Stop().Done()
	}
	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
	}
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.cancel != nil {
		s.cancel()
	}

	s.started = false
	s.logger.Info(ctx, "datesync service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"timezone":       s.loc.String(),
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"memoSize":       s.memoSize,
		"maxRangeDays":   s.maxRangeDays,
		"maxSuggestions": s.maxSuggestions,
		"syncSchedule":   s.syncSchedule,
	}
	if s.cache != nil {
		entries := s.cache.Size()
		stats["memoEntries"] = entries
		metrics.UpdateMemoEntries(entries)
	}

	if s.started {
		queueLen := s.syncQueue.Len(ctx)
		users := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["totalUsers"] = users

		metrics.UpdateUsersTotal(users)
		metrics.UpdateWorkerCount(s.workerPool.Size())
	}
	return stats
}

// Location returns the zone that defines calendar days.
func (s *Service) Location() *time.Location { return s.loc }

// storeIfStarted returns the store or ErrNotStarted.
func (s *Service) storeIfStarted() (*repository.MemoryStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}
