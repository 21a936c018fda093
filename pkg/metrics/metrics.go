// Package metrics defines the Prometheus metric collectors used across the
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	PassagesIngestedTotal prometheus.Counter
	WordsIncrementedTotal prometheus.Counter
	IngestFailuresTotal   *prometheus.CounterVec

	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	DefinitionLookupsTotal *prometheus.CounterVec

	SearchQueriesTotal *prometheus.CounterVec
	SearchLatency      prometheus.Histogram

	BackfillQueuedTotal  prometheus.Counter
	BackfillIndexedTotal *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		PassagesIngestedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "passages_ingested_total",
				Help: "Total passages persisted by the ingestion pipeline.",
			},
		),
		WordsIncrementedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "words_incremented_total",
				Help: "Total word-frequency increments applied.",
			},
		),
		IngestFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_failures_total",
				Help: "Ingestion failures by stage (fetch, persist, increment, index, cache).",
			},
			[]string{"stage"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Cache hits by cache name (ranking, definition).",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Cache misses by cache name (ranking, definition).",
			},
			[]string{"cache"},
		),
		DefinitionLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "definition_lookups_total",
				Help: "External definition lookups by outcome (ok, miss, error).",
			},
			[]string{"outcome"},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Search queries by operator and outcome.",
			},
			[]string{"operator", "outcome"},
		),
		SearchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		BackfillQueuedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "backfill_queued_total",
				Help: "Passages queued for index backfill after an indexing failure.",
			},
		),
		BackfillIndexedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backfill_indexed_total",
				Help: "Backfill indexing attempts by status (ok, error).",
			},
			[]string{"status"},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.PassagesIngestedTotal,
		m.WordsIncrementedTotal,
		m.IngestFailuresTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DefinitionLookupsTotal,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.BackfillQueuedTotal,
		m.BackfillIndexedTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
