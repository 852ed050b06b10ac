// Package prometheus registers the instrumentation for the deal
// pipeline and serves it over /metrics.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dealsense"

var (
	httpDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	packDurationBuckets = []float64{.5, 1, 2, 5, 10, 20, 30, 60, 120}
	dbDurationBuckets   = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// Metrics holds every instrument the platform exposes. All vectors
// live on a private registry so tests can build isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP layer
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Enrichment pipeline
	EnrichmentRunsTotal     *prometheus.CounterVec
	EnrichmentPackDuration  *prometheus.HistogramVec
	EnrichmentPacksDegraded *prometheus.CounterVec
	EnrichmentCacheHits     *prometheus.CounterVec
	EnrichmentCacheMisses   *prometheus.CounterVec

	// Research providers
	ProviderRequestsTotal *prometheus.CounterVec
	ProviderTokensUsed    *prometheus.CounterVec

	// Scoring
	ScoringRunsTotal *prometheus.CounterVec
	ScoringDuration  prometheus.Histogram

	// Infrastructure
	DBQueryDuration *prometheus.HistogramVec
	DBPoolInUse     prometheus.Gauge
	EventsConsumed  *prometheus.CounterVec
}

// New builds and registers all instruments on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = newCounterVec(registry, "http_requests_total",
		"Total HTTP requests served", "method", "path", "status")
	m.HTTPRequestDuration = newHistogramVec(registry, "http_request_duration_seconds",
		"HTTP request latency", httpDurationBuckets, "method", "path")

	m.EnrichmentRunsTotal = newCounterVec(registry, "enrichment_runs_total",
		"Enrichment runs by terminal status", "status")
	m.EnrichmentPackDuration = newHistogramVec(registry, "enrichment_pack_duration_seconds",
		"Wall time per enrichment pack", packDurationBuckets, "pack")
	m.EnrichmentPacksDegraded = newCounterVec(registry, "enrichment_packs_degraded_total",
		"Packs that produced a degraded result", "pack", "reason")
	m.EnrichmentCacheHits = newCounterVec(registry, "enrichment_cache_hits_total",
		"Enrichment cache hits", "pack")
	m.EnrichmentCacheMisses = newCounterVec(registry, "enrichment_cache_misses_total",
		"Enrichment cache misses", "pack")

	m.ProviderRequestsTotal = newCounterVec(registry, "provider_requests_total",
		"Research provider calls", "provider", "status")
	m.ProviderTokensUsed = newCounterVec(registry, "provider_tokens_total",
		"Tokens consumed per research provider", "provider", "model")

	m.ScoringRunsTotal = newCounterVec(registry, "scoring_runs_total",
		"Scoring runs by terminal status", "status")
	m.ScoringDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scoring_duration_seconds",
		Help:      "Wall time for a full deal re-score",
		Buckets:   dbDurationBuckets,
	})
	registry.MustRegister(m.ScoringDuration)

	m.DBQueryDuration = newHistogramVec(registry, "db_query_duration_seconds",
		"Database query latency", dbDurationBuckets, "operation")
	m.DBPoolInUse = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "db_pool_in_use",
		Help:      "Open database connections currently in use",
	})
	registry.MustRegister(m.DBPoolInUse)

	m.EventsConsumed = newCounterVec(registry, "events_consumed_total",
		"Pipeline events consumed by the worker", "topic", "status")

	return m
}

func newCounterVec(reg *prometheus.Registry, name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
	reg.MustRegister(vec)
	return vec
}

func newHistogramVec(reg *prometheus.Registry, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
	reg.MustRegister(vec)
	return vec
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry exposes the underlying registry for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePack records one pack execution.
func (m *Metrics) ObservePack(pack string, elapsed time.Duration, degraded bool, reason string) {
	m.EnrichmentPackDuration.WithLabelValues(pack).Observe(elapsed.Seconds())
	if degraded {
		m.EnrichmentPacksDegraded.WithLabelValues(pack, reason).Inc()
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path, status string, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
