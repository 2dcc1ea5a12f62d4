// Package metrics provides Prometheus metrics for the posture analysis service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Frame pipeline
	framesProcessed   *prometheus.CounterVec
	framesDropped     *prometheus.CounterVec
	framesViolating   *prometheus.CounterVec
	framesDuplicate   prometheus.Counter
	violations        *prometheus.CounterVec
	rulesSkipped      *prometheus.CounterVec
	evaluationLatency prometheus.Histogram

	// Sessions
	sessionsActive  prometheus.Gauge
	sessionsStarted *prometheus.CounterVec
	sessionsEnded   *prometheus.CounterVec
	sessionAccuracy *prometheus.HistogramVec
	historyRetained prometheus.Gauge

	// Queue
	queueCapacity      prometheus.Gauge
	queueSize          prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Emitter
	emitterPublished *prometheus.CounterVec
	emitterErrors    *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level recorders

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served by /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "posturai",
		subsystem:        "analysis",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.framesProcessed = auto.NewCounterVec(
		m.counterOpts("frames_processed_total", "Frames evaluated against the rule set"),
		[]string{"mode"})
	m.framesDropped = auto.NewCounterVec(
		m.counterOpts("frames_dropped_total", "Frames received but not counted, by reason"),
		[]string{"mode", "reason"})
	m.framesViolating = auto.NewCounterVec(
		m.counterOpts("frames_violating_total", "Frames with at least one violation"),
		[]string{"mode"})
	m.framesDuplicate = auto.NewCounter(
		m.counterOpts("frames_duplicate_total", "Asynchronous frames rejected as retries"))
	m.violations = auto.NewCounterVec(
		m.counterOpts("violations_total", "Violations emitted by type and severity"),
		[]string{"type", "severity"})
	m.rulesSkipped = auto.NewCounterVec(
		m.counterOpts("rules_skipped_total", "Rules skipped because required landmarks were not visible"),
		[]string{"rule"})
	m.evaluationLatency = auto.NewHistogram(m.histogramOpts(
		"evaluation_latency_milliseconds", "Rule evaluation latency per frame in milliseconds",
		[]float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}))

	m.sessionsActive = auto.NewGauge(m.gaugeOpts("sessions_active", "Sessions currently active or paused"))
	m.sessionsStarted = auto.NewCounterVec(
		m.counterOpts("sessions_started_total", "Sessions started by mode"),
		[]string{"mode"})
	m.sessionsEnded = auto.NewCounterVec(
		m.counterOpts("sessions_ended_total", "Sessions ended by mode"),
		[]string{"mode"})
	m.sessionAccuracy = auto.NewHistogramVec(m.histogramOpts(
		"session_accuracy_percent", "Final accuracy of ended sessions",
		prometheus.LinearBuckets(10, 10, 10)), []string{"mode"})
	m.historyRetained = auto.NewGauge(m.gaugeOpts("history_retained", "Session summaries kept in memory"))

	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum capacity of the frame queue"))
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current size of the frame queue"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue size divided by capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total", "Frames enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeued_total", "Frames dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Rejected enqueue attempts"))

	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Running frame workers"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts(
		"worker_processing_latency_milliseconds", "Time a worker spends on one queued frame",
		m.histogramBuckets))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Queued frames that failed processing"))

	m.emitterPublished = auto.NewCounterVec(
		m.counterOpts("emitter_published_total", "Violation events published by sink and type"),
		[]string{"sink", "type"})
	m.emitterErrors = auto.NewCounterVec(
		m.counterOpts("emitter_errors_total", "Violation events that failed to publish"),
		[]string{"sink"})

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts(
		"http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"})
	m.errorsByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "HTTP errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100}))
}

// active returns the global manager, or nil when collection is disabled.
func active() *Manager {
	if globalManager == nil || !globalManager.enabled {
		return nil
	}
	return globalManager
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
