// Package metrics provides Prometheus metrics for the titlerace pipeline and API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingest
	gamesIngested   prometheus.Counter
	gamesDuplicate  prometheus.Counter
	teamSeasons     prometheus.Gauge
	imputedValues   *prometheus.CounterVec
	degenerateStats *prometheus.CounterVec

	// Pipeline
	stageDuration *prometheus.HistogramVec
	pipelineRuns  *prometheus.CounterVec
	lastRunUnix   prometheus.Gauge

	// Scoring
	scorerLatency *prometheus.HistogramVec
	scorerErrors  *prometheus.CounterVec

	// Evaluation
	championAccuracy prometheus.Gauge
	seasonsEvaluated prometheus.Gauge

	// Refresh
	refreshRequests *prometheus.CounterVec
	refreshQueue    prometheus.Gauge

	// System
	memoryBytes prometheus.Gauge
	goroutines  prometheus.Gauge
	gcPause     prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // isolates service metrics from Go runtime defaults

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "titlerace",
		subsystem:        "pipeline",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.gamesIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "games_ingested_total",
		Help:      "Raw game rows accepted by the normalizer",
	})
	m.gamesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "games_duplicate_total",
		Help:      "Raw game rows dropped because their game id was already seen",
	})
	m.teamSeasons = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "team_seasons",
		Help:      "Team-season groups produced by the last run",
	})
	m.imputedValues = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "imputed_values_total",
		Help:      "Team-season hustle means filled with the population mean",
	}, []string{"field"})
	m.degenerateStats = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "degenerate_statistics_total",
		Help:      "Zero denominators and zero-variance features resolved by fallback",
	}, []string{"kind"})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_duration_milliseconds",
		Help:      "Wall time of each pipeline stage",
		Buckets:   m.histogramBuckets,
	}, []string{"stage"})
	m.pipelineRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_total",
		Help:      "Pipeline runs by final status",
	}, []string{"status"})
	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_success_unixtime",
		Help:      "Unix time of the last successful run",
	})

	m.scorerLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "scoring",
		Name:      "latency_milliseconds",
		Help:      "Per-scorer predict latency",
		Buckets:   m.histogramBuckets,
	}, []string{"scorer"})
	m.scorerErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "scoring",
		Name:      "errors_total",
		Help:      "Per-scorer failures by kind (call, range)",
	}, []string{"scorer", "kind"})

	m.championAccuracy = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "evaluation",
		Name:      "champion_accuracy_ratio",
		Help:      "Fraction of evaluated seasons whose rank-1 team won the title",
	})
	m.seasonsEvaluated = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "evaluation",
		Name:      "seasons_evaluated",
		Help:      "Seasons with ground truth in the last run",
	})

	m.refreshRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "refresh",
		Name:      "requests_total",
		Help:      "Refresh requests by outcome (queued, rejected, completed, failed)",
	}, []string{"outcome"})
	m.refreshQueue = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "refresh",
		Name:      "queue_size",
		Help:      "Refresh requests waiting for the worker",
	})

	m.memoryBytes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_alloc_bytes",
		Help:      "Bytes of allocated heap objects",
	})
	m.goroutines = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutines",
		Help:      "Number of goroutines",
	})
	m.gcPause = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "gc_pause_avg_milliseconds",
		Help:      "Average GC pause since process start",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordGamesIngested adds n accepted game rows.
func RecordGamesIngested(n int) {
	globalManager.gamesIngested.Add(float64(n))
}

// RecordDuplicateGame counts one dropped duplicate row.
func RecordDuplicateGame() {
	globalManager.gamesDuplicate.Inc()
}

// UpdateTeamSeasons sets the number of team-season groups.
func UpdateTeamSeasons(n int) {
	globalManager.teamSeasons.Set(float64(n))
}

// RecordImputedValue counts one imputed hustle mean.
func RecordImputedValue(field string) {
	globalManager.imputedValues.WithLabelValues(field).Inc()
}

// RecordDegenerateStatistic counts one fallback of the given kind.
func RecordDegenerateStatistic(kind string) {
	globalManager.degenerateStats.WithLabelValues(kind).Inc()
}

// RecordStageDuration observes a stage's wall time.
func RecordStageDuration(stage string, ms float64) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(ms)
}

// RecordPipelineRun counts a run by status ("success" or "failed").
func RecordPipelineRun(status string) {
	globalManager.pipelineRuns.WithLabelValues(status).Inc()
}

// UpdateLastSuccess sets the last successful run time.
func UpdateLastSuccess(unix float64) {
	globalManager.lastRunUnix.Set(unix)
}

// RecordScorerLatency observes one predict call.
func RecordScorerLatency(scorer string, ms float64) {
	globalManager.scorerLatency.WithLabelValues(scorer).Observe(ms)
}

// RecordScorerError counts a scorer failure.
func RecordScorerError(scorer, kind string) {
	globalManager.scorerErrors.WithLabelValues(scorer, kind).Inc()
}

// UpdateChampionAccuracy publishes the latest accuracy summary.
func UpdateChampionAccuracy(accuracy float64, evaluated int) {
	globalManager.championAccuracy.Set(accuracy)
	globalManager.seasonsEvaluated.Set(float64(evaluated))
}

// RecordRefresh counts a refresh request by outcome.
func RecordRefresh(outcome string) {
	globalManager.refreshRequests.WithLabelValues(outcome).Inc()
}

// UpdateRefreshQueueSize sets the number of pending refresh requests.
func UpdateRefreshQueueSize(n int) {
	globalManager.refreshQueue.Set(float64(n))
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.memoryBytes.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(n int) {
	globalManager.goroutines.Set(float64(n))
}

// UpdateSystemGCPause sets the average GC pause.
func UpdateSystemGCPause(ms float64) {
	globalManager.gcPause.Set(ms)
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// GetRegistry returns the registry backing the package-level recorders.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
