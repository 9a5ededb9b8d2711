package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector provides application metrics collection
type Collector struct {
	// API Metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIErrorsTotal     *prometheus.CounterVec
	APIRateLimited     prometheus.Counter

	// Source Metrics
	SourceFetchDuration *prometheus.HistogramVec
	SourceErrorsTotal   *prometheus.CounterVec
	SourceRowsLoaded    *prometheus.GaugeVec
	SourceCacheRequests *prometheus.CounterVec
	BreakerState        *prometheus.GaugeVec

	// Database Metrics
	DBQueryDuration  *prometheus.HistogramVec
	DBConnectionPool *prometheus.GaugeVec
	DBErrorsTotal    *prometheus.CounterVec

	// Pipeline Metrics
	PipelineBuildDuration prometheus.Histogram
	PipelineBuildsTotal   *prometheus.CounterVec
	WellsSummarized       prometheus.Gauge
	CompletionsAccepted   prometheus.Gauge
	CompletionsRejected   prometheus.Gauge
}

// NewCollector creates a new metrics collector registered on reg.
// Pass prometheus.DefaultRegisterer to expose the metrics on /metrics.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)

	return &Collector{
		APIRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by endpoint, method, and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		APIRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0, 30.0},
			},
			[]string{"endpoint"},
		),

		APIErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_errors_total",
				Help:      "Total number of API errors by type",
			},
			[]string{"error_type", "endpoint"},
		),

		APIRateLimited: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_rate_limited_total",
				Help:      "Requests rejected by the API rate limiter",
			},
		),

		SourceFetchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "source_fetch_duration_seconds",
				Help:      "Duration of raw table fetches by table and source kind",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"table", "kind"},
		),

		SourceErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_errors_total",
				Help:      "Total number of raw table load errors by table and type",
			},
			[]string{"table", "error_type"},
		),

		SourceRowsLoaded: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "source_rows_loaded",
				Help:      "Rows in the most recent successful load by table",
			},
			[]string{"table"},
		),

		SourceCacheRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_cache_requests_total",
				Help:      "Raw fetch cache lookups by result",
			},
			[]string{"result"}, // "hit", "miss"
		),

		BreakerState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "source_breaker_state",
				Help:      "Circuit breaker state of remote sources (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),

		DBQueryDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Database query duration in seconds by query type",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"query_type"},
		),

		DBConnectionPool: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"state"}, // "in_use", "idle", "total"
		),

		DBErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_errors_total",
				Help:      "Total number of database errors by type",
			},
			[]string{"error_type"},
		),

		PipelineBuildDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_build_duration_seconds",
				Help:      "Duration of a full derivation pass in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),

		PipelineBuildsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_builds_total",
				Help:      "Pipeline builds by outcome",
			},
			[]string{"outcome"}, // "success", "load_error", "build_error"
		),

		WellsSummarized: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pipeline_wells_summarized",
				Help:      "Wells in the most recent pipeline pass",
			},
		),

		CompletionsAccepted: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pipeline_completions_accepted",
				Help:      "Fracture records passing the completion cutoff",
			},
		),

		CompletionsRejected: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pipeline_completions_rejected",
				Help:      "Fracture records dropped by the completion cutoff",
			},
		),
	}
}

// Timer provides timing functionality for operations
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer creates a new timer
func (c *Collector) NewTimer(histogram prometheus.Observer) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: histogram,
	}
}

// ObserveDuration records the elapsed time since timer creation
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(duration.Seconds())
	}
	return duration
}

// RecordAPIRequest increments API request counter
func (c *Collector) RecordAPIRequest(endpoint, method, status string) {
	c.APIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

// RecordAPIError increments API error counter
func (c *Collector) RecordAPIError(errorType, endpoint string) {
	c.APIErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}

// RecordSourceError increments the load error counter for a table
func (c *Collector) RecordSourceError(table, errorType string) {
	c.SourceErrorsTotal.WithLabelValues(table, errorType).Inc()
}

// RecordCacheLookup counts a raw fetch cache hit or miss
func (c *Collector) RecordCacheLookup(hit bool) {
	if hit {
		c.SourceCacheRequests.WithLabelValues("hit").Inc()
		return
	}
	c.SourceCacheRequests.WithLabelValues("miss").Inc()
}

// RecordDBError increments database error counter
func (c *Collector) RecordDBError(errorType string) {
	c.DBErrorsTotal.WithLabelValues(errorType).Inc()
}

// UpdateDBConnectionPool updates database connection pool metrics
func (c *Collector) UpdateDBConnectionPool(inUse, idle, total int) {
	c.DBConnectionPool.WithLabelValues("in_use").Set(float64(inUse))
	c.DBConnectionPool.WithLabelValues("idle").Set(float64(idle))
	c.DBConnectionPool.WithLabelValues("total").Set(float64(total))
}

// NewNopCollector returns a collector on a private registry, for tests and tools
// that do not expose /metrics.
func NewNopCollector() *Collector {
	return NewCollector("nop", prometheus.NewRegistry())
}
