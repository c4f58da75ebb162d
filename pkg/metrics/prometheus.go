// Package metrics provides Prometheus metrics for the datesync service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Computation stages used as the "stage" label.
const (
	StageWindows     = "windows"
	StageMutual      = "mutual"
	StageSuggestions = "suggestions"
)

// latencyBuckets suit sub-millisecond to multi-second operations.
var latencyBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Matching pipeline
	computations       *prometheus.CounterVec
	computationLatency *prometheus.HistogramVec
	computationErrors  *prometheus.CounterVec
	suggestions        *prometheus.CounterVec
	memoHits           prometheus.Counter
	memoMisses         prometheus.Counter
	memoEntries        prometheus.Gauge

	// Store
	usersTotal   prometheus.Gauge
	eventsStored prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// Sync queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec
	workerCount        prometheus.Gauge
	workerActive       prometheus.Gauge
	syncJobs           *prometheus.CounterVec
	syncLatency        prometheus.Histogram
	syncErrors         *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure rebuilds the global collectors on a fresh registry with opts.
// It is meant to run once at startup, before anything records or serves
// the registry.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "datesync",
		subsystem:        "matcher",
		histogramBuckets: latencyBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.computations = auto.NewCounterVec(m.counterOpts("computations_total", "Completed matching computations by stage"), []string{"stage"})
	m.computationLatency = auto.NewHistogramVec(m.histogramOpts("computation_latency_milliseconds", "Matching computation latency by stage"), []string{"stage"})
	m.computationErrors = auto.NewCounterVec(m.counterOpts("computation_errors_total", "Rejected computations by stage and error kind"), []string{"stage", "kind"})
	m.suggestions = auto.NewCounterVec(m.counterOpts("suggestions_total", "Suggestions returned by quality tier"), []string{"quality"})
	m.memoHits = auto.NewCounter(m.counterOpts("memo_hits_total", "Free-window cache hits"))
	m.memoMisses = auto.NewCounter(m.counterOpts("memo_misses_total", "Free-window cache misses"))
	m.memoEntries = auto.NewGauge(m.gaugeOpts("memo_entries", "Entries in the free-window cache"))

	m.usersTotal = auto.NewGauge(m.gaugeOpts("users_total", "Users with a stored profile"))
	m.eventsStored = auto.NewGauge(m.gaugeOpts("events_stored", "Calendar events held in the store"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total", "Errors by type and severity"), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"), []string{"endpoint", "method", "error_type"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("sync_queue_size", "Pending calendar sync jobs"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("sync_queue_capacity", "Maximum pending calendar sync jobs"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("sync_queue_utilization_ratio", "Pending jobs over capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("sync_queue_enqueued_total", "Sync jobs accepted by the queue"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("sync_queue_dequeued_total", "Sync jobs handed to workers"))
	m.queueEnqueueErrors = auto.NewCounterVec(m.counterOpts("sync_queue_enqueue_errors_total", "Rejected sync jobs by reason"), []string{"reason"})
	m.workerCount = auto.NewGauge(m.gaugeOpts("sync_worker_count", "Configured sync workers"))
	m.workerActive = auto.NewGauge(m.gaugeOpts("sync_worker_active", "Sync workers currently processing a job"))
	m.syncJobs = auto.NewCounterVec(m.counterOpts("sync_jobs_total", "Finished sync jobs by result"), []string{"result"})
	m.syncLatency = auto.NewHistogram(m.histogramOpts("sync_latency_milliseconds", "Fetch-parse-store latency per sync job"))
	m.syncErrors = auto.NewCounterVec(m.counterOpts("sync_errors_total", "Sync failures by stage"), []string{"stage"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause in milliseconds"))
}

// RecordComputation records one successful computation of stage.
func RecordComputation(stage string, latencyMs float64) {
	globalManager.computations.WithLabelValues(stage).Inc()
	globalManager.computationLatency.WithLabelValues(stage).Observe(latencyMs)
}

// RecordComputationError records a rejected computation.
func RecordComputationError(stage, kind string) {
	globalManager.computationErrors.WithLabelValues(stage, kind).Inc()
}

// RecordSuggestion counts one returned suggestion of the given quality.
func RecordSuggestion(quality string) {
	globalManager.suggestions.WithLabelValues(quality).Inc()
}

// RecordMemoHit increments the cache hit counter.
func RecordMemoHit() { globalManager.memoHits.Inc() }

// RecordMemoMiss increments the cache miss counter.
func RecordMemoMiss() { globalManager.memoMisses.Inc() }

// UpdateMemoEntries sets the cache size.
func UpdateMemoEntries(n int64) { globalManager.memoEntries.Set(float64(n)) }

// UpdateUsersTotal sets the stored user count.
func UpdateUsersTotal(n int) { globalManager.usersTotal.Set(float64(n)) }

// UpdateEventsStored sets the stored event count.
func UpdateEventsStored(n int) { globalManager.eventsStored.Set(float64(n)) }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateQueueSize sets the pending sync job count and utilization.
func UpdateQueueSize(size, capacity int) {
	globalManager.queueSize.Set(float64(size))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError records a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(n int) { globalManager.workerCount.Set(float64(n)) }

// AddWorkerActive adjusts the busy worker gauge by delta.
func AddWorkerActive(delta int) { globalManager.workerActive.Add(float64(delta)) }

// RecordSyncJob records a finished sync job ("ok" or "error") and its latency.
func RecordSyncJob(result string, latencyMs float64) {
	globalManager.syncJobs.WithLabelValues(result).Inc()
	globalManager.syncLatency.Observe(latencyMs)
}

// RecordSyncError records a sync failure at stage (fetch, parse, expand, store).
func RecordSyncError(stage string) {
	globalManager.syncErrors.WithLabelValues(stage).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
