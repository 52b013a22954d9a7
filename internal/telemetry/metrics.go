package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generation cycle metrics.
var (
	CycleRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bshorts_cycle_runs_total",
		Help: "Completed playlist generation cycles.",
	})

	CycleTicksSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bshorts_cycle_ticks_skipped_total",
		Help: "Scheduler ticks skipped because a cycle was still running.",
	})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bshorts_cycle_duration_seconds",
		Help:    "Wall time of one full multi-language generation cycle.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	LanguageBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bshorts_language_build_duration_seconds",
		Help:    "Wall time of one language's generation sub-pipeline.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"lang"})

	ItemsFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bshorts_items_fetched_total",
		Help: "Raw playlist items fetched from the upstream index.",
	}, []string{"lang"})

	RecordsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bshorts_records_published_total",
		Help: "Canonical video records written to snapshots.",
	}, []string{"lang"})

	PublishSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bshorts_publish_skipped_total",
		Help: "Cycles that skipped publishing to protect a previous snapshot.",
	}, []string{"lang"})

	EnrichmentFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bshorts_enrichment_failures_total",
		Help: "Best-effort enrichment lookups that failed, by stage.",
	}, []string{"stage"})
)

// HTTP API metrics, recorded by MetricsMiddleware.
var (
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bshorts_api_requests_total",
		Help: "HTTP requests served.",
	}, []string{"method", "endpoint", "status"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bshorts_api_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bshorts_api_active_connections",
		Help: "In-flight HTTP requests.",
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
