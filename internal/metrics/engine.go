package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval engine Prometheus metrics.
var (
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsense",
			Name:      "search_duration_seconds",
			Help:      "Search execution duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"mode"},
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsense",
			Name:      "searches_total",
			Help:      "Total number of searches executed",
		},
		[]string{"mode", "status"},
	)

	DocumentsIndexedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsense",
			Name:      "documents_indexed_total",
			Help:      "Total number of document index operations",
		},
		[]string{"status"}, // "ok" / "partial" / "error"
	)

	IndexSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "docsense",
			Name:      "index_size",
			Help:      "Number of documents per index",
		},
		[]string{"index"}, // "lexical" / "semantic" / "store"
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsense",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsense",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache lookups by result",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsense",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers engine Prometheus metrics. Must be called
// once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(DocumentsIndexedTotal)
	prometheus.MustRegister(IndexSize)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	engineMetricsRegistered = true
}
