// Package worker runs calendar sync jobs pulled off the queue.
//
// A job fetches one ICS feed, parses it, expands recurrences over the sync
// horizon and replaces the stored events of that calendar.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/datesync/internal/adapters/calendar"
	"github.com/okian/datesync/internal/adapters/mq/queue"
	"github.com/okian/datesync/internal/domain/model"
	"github.com/okian/datesync/pkg/logger"
	"github.com/okian/datesync/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultHorizon      = 90 * 24 * time.Hour
	defaultLookback     = 24 * time.Hour
	poolShutdownTimeout = 30 * time.Second
)

// Job abstracts what workers read off the queue.
type Job = queue.Job

// Fetcher downloads one calendar source.
type Fetcher interface {
	Fetch(ctx context.Context, src model.CalendarSource) (calendar.FetchResult, error)
}

// EventWriter stores the events of one calendar.
type EventWriter interface {
	ReplaceEvents(ctx context.Context, userID, calendarID string, events []model.CalendarEvent) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes sync jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing sync jobs.
type InMemoryWorker struct {
	queue   Queue
	fetcher Fetcher
	writer  EventWriter
	name    string

	loc      *time.Location
	horizon  time.Duration
	lookback time.Duration
	now      func() time.Time

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, fetcher Fetcher, writer EventWriter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		fetcher:  fetcher,
		writer:   writer,
		name:     "worker",
		loc:      time.UTC,
		horizon:  defaultHorizon,
		lookback: defaultLookback,
		now:      time.Now,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.With(logger.String("worker", w.name))
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.Process(ctx, job); err != nil {
				w.logger.Error(ctx, "sync job failed",
					logger.String("user", job.UserID),
					logger.String("calendar", job.Source.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Process runs a single job synchronously.
func (w *InMemoryWorker) Process(ctx context.Context, job Job) error {
	start := time.Now()
	metrics.AddWorkerActive(1)
	defer metrics.AddWorkerActive(-1)

	err := w.process(ctx, job)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.RecordSyncJob(result, float64(time.Since(start).Milliseconds()))
	return err
}

func (w *InMemoryWorker) process(ctx context.Context, job Job) error {
	res, err := w.fetcher.Fetch(ctx, job.Source)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", job.Source.ID, err)
	}

	parsed, err := calendar.Parse(job.Source.ID, res.Body, w.loc)
	if err != nil {
		metrics.RecordSyncError("parse")
		return fmt.Errorf("parse %s: %w", job.Source.ID, err)
	}

	now := w.now()
	expanded, err := calendar.Expand(parsed, calendar.ExpandConfig{
		Location:   w.loc,
		RangeStart: now.Add(-w.lookback),
		RangeEnd:   now.Add(w.horizon),
	})
	if err != nil {
		metrics.RecordSyncError("expand")
		return fmt.Errorf("expand %s: %w", job.Source.ID, err)
	}
	if len(expanded.TruncatedEvents) > 0 {
		w.logger.Warn(ctx, "recurrence expansion truncated",
			logger.String("calendar", job.Source.ID),
			logger.Any("uids", expanded.TruncatedEvents),
		)
	}

	if err := w.writer.ReplaceEvents(ctx, job.UserID, job.Source.ID, expanded.Events); err != nil {
		metrics.RecordSyncError("store")
		return fmt.Errorf("store %s: %w", job.Source.ID, err)
	}

	w.logger.Debug(ctx, "calendar synced",
		logger.String("user", job.UserID),
		logger.String("calendar", job.Source.ID),
		logger.Int("events", len(expanded.Events)),
		logger.Bool("from_cache", res.FromCache),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool. Options apply to every worker.
func NewPool(workerCount int, q Queue, fetcher Fetcher, writer EventWriter, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, fetcher, writer, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for every worker to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
