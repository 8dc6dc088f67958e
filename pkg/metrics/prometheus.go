// Package metrics provides Prometheus metrics for the papi service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the papi service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Host event ingest
	eventsReceived  *prometheus.CounterVec
	eventsDuplicate prometheus.Counter
	eventsRejected  *prometheus.CounterVec

	// Combat ledger
	damageRecorded     prometheus.Counter
	killsCredited      prometheus.Counter
	deaths             *prometheus.CounterVec
	damageRecords      prometheus.Gauge
	damageRecordsSwept prometheus.Counter
	sweepDuration      prometheus.Histogram
	onlinePlayers      prometheus.Gauge

	// Placeholders
	placeholdersRegistered prometheus.Gauge
	placeholderExpansions  *prometheus.CounterVec
	placeholderDuplicates  prometheus.Counter

	// Queue / worker
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueEnqueue            prometheus.Counter
	queueDequeue            prometheus.Counter
	queueEnqueueErrors      prometheus.Counter
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

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
		namespace:        "papi",
		subsystem:        "plugin",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// RefreshInterval is how often gauges fed from snapshots should be refreshed.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	m.eventsReceived = m.counterVec("events_received_total", "Host events accepted for processing, by kind.", "kind")
	m.eventsDuplicate = m.counter("events_duplicate_total", "Host events dropped as duplicates.")
	m.eventsRejected = m.counterVec("events_rejected_total", "Host events rejected, by reason.", "reason")

	m.damageRecorded = m.counter("damage_recorded_total", "Player-vs-player damage records written.")
	m.killsCredited = m.counter("kills_credited_total", "Deaths credited to an attacker.")
	m.deaths = m.counterVec("deaths_total", "Player deaths, by whether a kill was credited.", "credited")
	m.damageRecords = m.gauge("damage_records", "Last-damage records currently held.")
	m.damageRecordsSwept = m.counter("damage_records_swept_total", "Expired damage records removed by the cleanup tick.")
	m.sweepDuration = m.histogram("sweep_duration_milliseconds", "Duration of the damage record sweep.")
	m.onlinePlayers = m.gauge("online_players", "Players currently online.")

	m.placeholdersRegistered = m.gauge("placeholders_registered", "Registered placeholder identifiers.")
	m.placeholderExpansions = m.counterVec("placeholder_expansions_total", "Placeholder tokens processed, by outcome.", "outcome")
	m.placeholderDuplicates = m.counter("placeholder_duplicates_total", "Rejected duplicate placeholder registrations.")

	m.queueSize = m.gauge("queue_size", "Events waiting in the queue.")
	m.queueCapacity = m.gauge("queue_capacity", "Configured queue capacity.")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Events enqueued.")
	m.queueDequeue = m.counter("queue_dequeue_total", "Events dequeued.")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Failed enqueue attempts.")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time spent handling one event.")
	m.workerErrors = m.counter("worker_errors_total", "Events the worker failed to handle.")

	auto := promauto.With(m.registry)
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "HTTP requests, by endpoint, method and status.",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration.",
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors, by component and type.", "component", "type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated.")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Live goroutines.")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause.")
}

// Ingest.

// RecordEventReceived counts an accepted host event of the given kind.
func RecordEventReceived(kind string) { globalManager.eventsReceived.WithLabelValues(kind).Inc() }

// RecordEventDuplicate counts a duplicate host event.
func RecordEventDuplicate() { globalManager.eventsDuplicate.Inc() }

// RecordEventRejected counts an invalid or refused host event.
func RecordEventRejected(reason string) { globalManager.eventsRejected.WithLabelValues(reason).Inc() }

// Combat.

// RecordDamage counts a damage record write.
func RecordDamage() { globalManager.damageRecorded.Inc() }

// RecordKill counts a credited kill.
func RecordKill() { globalManager.killsCredited.Inc() }

// RecordDeath counts a death.
func RecordDeath(credited bool) {
	label := "false"
	if credited {
		label = "true"
	}
	globalManager.deaths.WithLabelValues(label).Inc()
}

// UpdateDamageRecords sets the number of held damage records.
func UpdateDamageRecords(n int) { globalManager.damageRecords.Set(float64(n)) }

// RecordSweep records one cleanup pass.
func RecordSweep(removed int, elapsed time.Duration) {
	globalManager.damageRecordsSwept.Add(float64(removed))
	globalManager.sweepDuration.Observe(float64(elapsed.Microseconds()) / 1000)
}

// UpdateOnlinePlayers sets the online player gauge.
func UpdateOnlinePlayers(n int) { globalManager.onlinePlayers.Set(float64(n)) }

// Placeholders.

// UpdatePlaceholdersRegistered sets the registered identifier gauge.
func UpdatePlaceholdersRegistered(n int) { globalManager.placeholdersRegistered.Set(float64(n)) }

// RecordPlaceholderExpansion counts one token with outcome
// "replaced", "unknown" or "failed".
func RecordPlaceholderExpansion(outcome string) {
	globalManager.placeholderExpansions.WithLabelValues(outcome).Inc()
}

// RecordPlaceholderDuplicate counts a rejected registration.
func RecordPlaceholderDuplicate() { globalManager.placeholderDuplicates.Inc() }

// Queue / worker.

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueue.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeue.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// HTTP.

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// RefreshInterval is how often the global manager's snapshot gauges, such
// as the system gauges, should be refreshed.
func RefreshInterval() time.Duration { return globalManager.RefreshInterval() }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
