// Package metrics provides Prometheus metrics for the skillmatch scorer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the scorer.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Scoring
	pairsScored       prometheus.Counter
	pairsSkipped      prometheus.Counter
	pairsFailed       prometheus.Counter
	pairsDuplicate    prometheus.Counter
	pairsPending      prometheus.Gauge
	scoringLatency    prometheus.Histogram
	batchRuns         *prometheus.CounterVec
	batchDuration     prometheus.Histogram
	batchLastUnix     prometheus.Gauge
	totalScores       prometheus.Gauge
	rankingUsers      prometheus.Gauge
	rankingEntries    prometheus.Gauge
	tagCacheHits      prometheus.Counter
	tagCacheMisses    prometheus.Counter
	profilesCreated   prometheus.Counter
	profilesReused    prometheus.Counter
	profileCacheHits  prometheus.Counter
	repositoryQuery   *prometheus.HistogramVec
	repositoryUpdate  prometheus.Histogram

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueued          prometheus.Counter
	queueDequeued          prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "skillmatch",
		subsystem:        "scorer",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.pairsScored = m.counter("pairs_scored_total", "Profile pairs scored and persisted")
	m.pairsSkipped = m.counter("pairs_skipped_total", "Profile pairs skipped because they cannot be scored")
	m.pairsFailed = m.counter("pairs_failed_total", "Profile pairs that failed with a retryable error")
	m.pairsDuplicate = m.counter("pairs_duplicate_total", "Profile pairs already settled or already stored")
	m.pairsPending = m.gauge("pairs_pending", "Profile pairs without a score at the start of the last run")
	m.scoringLatency = m.histogram("scoring_latency_milliseconds", "Time to load tags and compute one collection distance", m.histogramBuckets)
	m.batchRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "batch_runs_total", Help: "Scoring runs by outcome",
	}, []string{"status"})
	m.batchDuration = m.histogram("batch_duration_seconds", "Wall time of a scoring run",
		[]float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 900})
	m.batchLastUnix = m.gauge("batch_last_run_unix", "Unix time the last scoring run finished")
	m.totalScores = m.gauge("raw_scores", "Raw scores stored")
	m.rankingUsers = m.gauge("ranking_users", "User profiles held by the ranking index")
	m.rankingEntries = m.gauge("ranking_entries", "Entries held by the ranking index")
	m.tagCacheHits = m.counter("tag_cache_hits_total", "Profile tag lookups served from cache")
	m.tagCacheMisses = m.counter("tag_cache_misses_total", "Profile tag lookups that hit storage")
	m.profilesCreated = m.counter("profiles_created_total", "Tag profiles created")
	m.profilesReused = m.counter("profiles_reused_total", "Tag set resolutions that matched an existing profile")
	m.profileCacheHits = m.counter("profile_cache_hits_total", "Tag set resolutions served from the hash cache")
	m.repositoryQuery = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "repository_query_latency_milliseconds", Help: "Repository read latency by operation",
		Buckets: m.histogramBuckets,
	}, []string{"operation"})
	m.repositoryUpdate = m.histogram("repository_update_latency_milliseconds", "Raw score write latency", m.histogramBuckets)

	m.queueSize = m.gauge("queue_size", "Tasks waiting in the pair queue")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the pair queue")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size over capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Tasks enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Tasks handed to workers")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Tasks rejected by the queue")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds", "Enqueue latency", m.histogramBuckets)

	m.workerCount = m.gauge("worker_count", "Workers in the active pool")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Per-task worker latency", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Tasks a worker could not complete")

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "errors_by_component_total", Help: "Errors by component and type",
	}, []string{"component", "error_type"})
	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "errors_by_endpoint_total", Help: "HTTP errors by endpoint, method and type",
	}, []string{"endpoint", "method", "error_type"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "http_requests_total", Help: "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "http_request_duration_milliseconds", Help: "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Scoring.

// RecordPairScored counts a persisted score.
func RecordPairScored() { globalManager.pairsScored.Inc() }

// RecordPairSkipped counts a pair that can never be scored.
func RecordPairSkipped() { globalManager.pairsSkipped.Inc() }

// RecordPairFailed counts a pair that failed with a retryable error.
func RecordPairFailed() { globalManager.pairsFailed.Inc() }

// RecordPairDuplicate counts a pair that was already settled or stored.
func RecordPairDuplicate() { globalManager.pairsDuplicate.Inc() }

// UpdatePendingPairs sets the number of unscored pairs found by a run.
func UpdatePendingPairs(n int) { globalManager.pairsPending.Set(float64(n)) }

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) { globalManager.scoringLatency.Observe(latencyMs) }

// RecordBatchRun counts a finished run and records its duration.
func RecordBatchRun(status string, seconds float64, finishedUnix int64) {
	globalManager.batchRuns.WithLabelValues(status).Inc()
	globalManager.batchDuration.Observe(seconds)
	globalManager.batchLastUnix.Set(float64(finishedUnix))
}

// UpdateTotalScores sets the stored raw score count.
func UpdateTotalScores(n int) { globalManager.totalScores.Set(float64(n)) }

// UpdateRankingSize sets the ranking index gauges.
func UpdateRankingSize(users, entries int) {
	globalManager.rankingUsers.Set(float64(users))
	globalManager.rankingEntries.Set(float64(entries))
}

// RecordTagCacheHit counts a cached profile tag lookup.
func RecordTagCacheHit() { globalManager.tagCacheHits.Inc() }

// RecordTagCacheMiss counts a profile tag lookup that went to storage.
func RecordTagCacheMiss() { globalManager.tagCacheMisses.Inc() }

// RecordProfileCreated counts a new tag profile.
func RecordProfileCreated() { globalManager.profilesCreated.Inc() }

// RecordProfileReused counts a resolution that matched an existing profile.
func RecordProfileReused() { globalManager.profilesReused.Inc() }

// RecordProfileCacheHit counts a resolution served from the hash cache.
func RecordProfileCacheHit() { globalManager.profileCacheHits.Inc() }

// RecordRepositoryQueryLatency records a repository read latency.
func RecordRepositoryQueryLatency(operation string, latencyMs float64) {
	globalManager.repositoryQuery.WithLabelValues(operation).Observe(latencyMs)
}

// RecordRepositoryUpdateLatency records a raw score write latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdate.Observe(latencyMs)
}

// Queue.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue counts an enqueued task.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue counts a dequeued task.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a rejected task.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// RecordQueueProcessingLatency records enqueue latency in milliseconds.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Workers.

// UpdateWorkerCount sets the number of workers in the active pool.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records per-task latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a task a worker could not complete.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// Errors.

// RecordErrorByComponent counts an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint counts an HTTP error.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// System.

// UpdateSystemMemoryUsage sets the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the registry holding the global metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
