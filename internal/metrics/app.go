package metrics

import "github.com/prometheus/client_golang/prometheus"

// Application Prometheus metrics: cache-aside layer and similarity client.
var (
	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pawdex",
			Name:      "cache_total",
			Help:      "Cache lookups by result",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)

	CacheInvalidationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pawdex",
			Name:      "cache_invalidations_total",
			Help:      "Cache invalidation calls",
		},
	)

	SimilarityRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pawdex",
			Name:      "similarity_requests_total",
			Help:      "Requests to the similarity service",
		},
		[]string{"endpoint", "status"}, // status: "success" / "error"
	)

	SimilarityRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pawdex",
			Name:      "similarity_request_duration_seconds",
			Help:      "Similarity service request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	FeatureRegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pawdex",
			Name:      "feature_registrations_total",
			Help:      "Background feature registration outcomes",
		},
		[]string{"status"}, // "success" / "retry" / "failed" / "dropped"
	)

	ReverseSearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pawdex",
			Name:      "reverse_search_total",
			Help:      "Reverse searches by final search method",
		},
		[]string{"method"}, // "ai_similarity" / "city_fallback"
	)
)

var appMetricsRegistered bool

// RegisterAppMetrics registers application metrics. Must be called once from main.
func RegisterAppMetrics() {
	if appMetricsRegistered {
		return
	}
	prometheus.MustRegister(CacheTotal)
	prometheus.MustRegister(CacheInvalidationsTotal)
	prometheus.MustRegister(SimilarityRequestsTotal)
	prometheus.MustRegister(SimilarityRequestDuration)
	prometheus.MustRegister(FeatureRegistrationsTotal)
	prometheus.MustRegister(ReverseSearchTotal)
	appMetricsRegistered = true
}
