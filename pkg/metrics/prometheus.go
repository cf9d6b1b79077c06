// Package metrics provides Prometheus metrics for the duelo matchup service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the duelo service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Vote pipeline metrics
	votesRecorded  prometheus.Counter
	votesDuplicate prometheus.Counter
	votesRejected  prometheus.Counter
	upsets         prometheus.Counter
	skips          prometheus.Counter
	ratingsApplied prometheus.Histogram

	// Selection metrics
	selectionLatency   prometheus.Histogram
	selectionPoolSize  prometheus.Gauge
	selectionFallbacks prometheus.Counter
	insufficientPool   prometheus.Counter

	// Rescore pipeline metrics
	rescoreQueueSize     prometheus.Gauge
	rescoreQueueCapacity prometheus.Gauge
	rescoreEnqueued      prometheus.Counter
	rescoreDropped       prometheus.Counter
	rescoreLatency       prometheus.Histogram
	rescoreErrors        prometheus.Counter
	workerCount          prometheus.Gauge

	// Store metrics
	totalItems         prometheus.Gauge
	storeUpdateLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "duelo",
		subsystem:        "matchups",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.votesRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_recorded_total",
		Help:      "Total number of votes applied to ratings",
	})

	m.votesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_duplicate_total",
		Help:      "Total number of replayed vote submissions acknowledged without re-counting",
	})

	m.votesRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "votes_rejected_total",
		Help:      "Total number of malformed vote submissions rejected before any mutation",
	})

	m.upsets = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upsets_total",
		Help:      "Total number of comparisons where the lower-rated side won past the threshold",
	})

	m.skips = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "skips_total",
		Help:      "Total number of skipped pairs",
	})

	m.ratingsApplied = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_applied",
		Help:      "Distribution of post-vote Elo ratings",
		Buckets:   prometheus.LinearBuckets(1000, 100, 11),
	})

	m.selectionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "selection_latency_milliseconds",
		Help:      "Histogram of pair-selection latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.selectionPoolSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "selection_pool_size",
		Help:      "Size of the candidate pool used by the last selection",
	})

	m.selectionFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "selection_fallbacks_total",
		Help:      "Total number of selections that fell back to uniform sampling",
	})

	m.insufficientPool = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "selection_insufficient_pool_total",
		Help:      "Total number of selections refused for lack of eligible items",
	})

	m.rescoreQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rescore_queue_size",
		Help:      "Current number of queued rescore jobs",
	})

	m.rescoreQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rescore_queue_capacity",
		Help:      "Configured capacity of the rescore queue",
	})

	m.rescoreEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rescore_enqueued_total",
		Help:      "Total number of rescore jobs enqueued",
	})

	m.rescoreDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rescore_dropped_total",
		Help:      "Total number of rescore jobs dropped due to backpressure",
	})

	m.rescoreLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rescore_latency_milliseconds",
		Help:      "Histogram of rescore job processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.rescoreErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rescore_errors_total",
		Help:      "Total number of rescore jobs that failed",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rescore_workers",
		Help:      "Number of rescore workers",
	})

	m.totalItems = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "items_total",
		Help:      "Number of items tracked by the store",
	})

	m.storeUpdateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_update_latency_milliseconds",
		Help:      "Histogram of store write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Histogram of store read latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current heap memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
}

// Vote pipeline helpers.

// RecordVoteApplied increments the applied-vote counter.
func RecordVoteApplied() {
	if globalManager != nil && globalManager.enabled {
		globalManager.votesRecorded.Inc()
	}
}

// RecordVoteDuplicate increments the duplicate-vote counter.
func RecordVoteDuplicate() {
	if globalManager != nil && globalManager.enabled {
		globalManager.votesDuplicate.Inc()
	}
}

// RecordVoteRejected increments the rejected-vote counter.
func RecordVoteRejected() {
	if globalManager != nil && globalManager.enabled {
		globalManager.votesRejected.Inc()
	}
}

// RecordUpset increments the upset counter.
// RecordRatingApplied observes a post-vote rating for the distribution
// histogram.
func RecordRatingApplied(rating float64) {
	if globalManager != nil && globalManager.enabled {
		globalManager.ratingsApplied.Observe(rating)
	}
}

func RecordUpset() {
	if globalManager != nil && globalManager.enabled {
		globalManager.upsets.Inc()
	}
}

// RecordSkip increments the skip counter.
func RecordSkip() {
	if globalManager != nil && globalManager.enabled {
		globalManager.skips.Inc()
	}
}

// Selection helpers.

// RecordSelectionLatency records pair-selection latency in milliseconds.
func RecordSelectionLatency(latencyMs float64) {
	if globalManager != nil && globalManager.enabled {
		globalManager.selectionLatency.Observe(latencyMs)
	}
}

// UpdateSelectionPoolSize records the candidate pool size of the last selection.
func UpdateSelectionPoolSize(size int) {
	if globalManager != nil && globalManager.enabled {
		globalManager.selectionPoolSize.Set(float64(size))
	}
}

// RecordSelectionFallback increments the uniform-fallback counter.
func RecordSelectionFallback() {
	if globalManager != nil && globalManager.enabled {
		globalManager.selectionFallbacks.Inc()
	}
}

// RecordInsufficientPool increments the refused-selection counter.
func RecordInsufficientPool() {
	if globalManager != nil && globalManager.enabled {
		globalManager.insufficientPool.Inc()
	}
}

// Rescore pipeline helpers.

// UpdateRescoreQueueSize sets the current rescore queue depth.
func UpdateRescoreQueueSize(size int) {
	if globalManager != nil && globalManager.enabled {
		globalManager.rescoreQueueSize.Set(float64(size))
	}
}

// UpdateRescoreQueueCapacity sets the configured rescore queue capacity.
func UpdateRescoreQueueCapacity(capacity int) {
	if globalManager != nil && globalManager.enabled {
		globalManager.rescoreQueueCapacity.Set(float64(capacity))
	}
}

// RecordRescoreEnqueued increments the enqueued-job counter.
func RecordRescoreEnqueued() {
	if globalManager != nil && globalManager.enabled {
		globalManager.rescoreEnqueued.Inc()
	}
}

// RecordRescoreDropped increments the dropped-job counter.
func RecordRescoreDropped() {
	if globalManager != nil && globalManager.enabled {
		globalManager.rescoreDropped.Inc()
	}
}

// RecordRescoreLatency records rescore processing latency in milliseconds.
func RecordRescoreLatency(latencyMs float64) {
	if globalManager != nil && globalManager.enabled {
		globalManager.rescoreLatency.Observe(latencyMs)
	}
}

// RecordRescoreError increments the failed-job counter.
func RecordRescoreError() {
	if globalManager != nil && globalManager.enabled {
		globalManager.rescoreErrors.Inc()
	}
}

// UpdateWorkerCount sets the rescore worker gauge.
func UpdateWorkerCount(count int) {
	if globalManager != nil && globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

// Store helpers.

// UpdateTotalItems sets the tracked-item gauge.
func UpdateTotalItems(count int) {
	if globalManager != nil && globalManager.enabled {
		globalManager.totalItems.Set(float64(count))
	}
}

// RecordStoreUpdateLatency records store write latency in milliseconds.
func RecordStoreUpdateLatency(latencyMs float64) {
	if globalManager != nil && globalManager.enabled {
		globalManager.storeUpdateLatency.Observe(latencyMs)
	}
}

// RecordStoreQueryLatency records store read latency in milliseconds.
func RecordStoreQueryLatency(latencyMs float64) {
	if globalManager != nil && globalManager.enabled {
		globalManager.storeQueryLatency.Observe(latencyMs)
	}
}

// HTTP helpers.

// RecordHTTPRequest increments the request counter for an endpoint.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager != nil && globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if globalManager != nil && globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// System helpers.

// UpdateSystemMemoryUsage sets the heap memory gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager != nil && globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	if globalManager != nil && globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// GetRegistry returns the custom Prometheus registry for the /metrics handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
