package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service registry and its embedding collectors.
type Metrics struct {
	Registry *prometheus.Registry

	embeddingsTotal *prometheus.CounterVec
	embedDuration   *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	strategyGauge   *prometheus.GaugeVec
}

// New registers the collectors on a fresh registry. All series carry a
// constant service label.
func New(service string) *Metrics {
	registry := prometheus.NewRegistry()
	wrapped := prometheus.WrapRegistererWith(prometheus.Labels{"service": service}, registry)

	m := &Metrics{
		Registry: registry,
		embeddingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "embeddings_total",
			Help: "Embedding requests by strategy, modality and outcome.",
		}, []string{"strategy", "modality", "status"}),
		embedDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "embedding_duration_seconds",
			Help:    "Time spent producing one fused embedding.",
			Buckets: prometheus.DefBuckets,
		}, []string{"strategy", "transport"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "embedding_cache_lookups_total",
			Help: "Embedding cache lookups by result.",
		}, []string{"result"}),
		strategyGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "embedding_strategy",
			Help: "Set to 1 for the strategy resolved at startup.",
		}, []string{"strategy"}),
	}

	wrapped.MustRegister(
		m.embeddingsTotal,
		m.embedDuration,
		m.cacheLookups,
		m.strategyGauge,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry for Prometheus scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// SetStrategy records the strategy chosen at startup.
func (m *Metrics) SetStrategy(strategy string) {
	m.strategyGauge.Reset()
	m.strategyGauge.WithLabelValues(strategy).Set(1)
}

// ObserveEmbedding counts one request and its latency.
func (m *Metrics) ObserveEmbedding(strategy, transport string, withImage bool, err error, elapsed time.Duration) {
	modality := "text"
	if withImage {
		modality = "text_image"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.embeddingsTotal.WithLabelValues(strategy, modality, status).Inc()
	m.embedDuration.WithLabelValues(strategy, transport).Observe(elapsed.Seconds())
}

// ObserveCache counts a cache hit or miss.
func (m *Metrics) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
