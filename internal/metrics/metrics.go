// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_rankings_total",
			Help: "Rankings produced, by scoring strategy",
		},
		[]string{"strategy"},
	)

	RankingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommender_ranking_duration_seconds",
			Help:    "Time spent ranking the catalog for one user",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommender_cache_hits_total",
			Help: "Recommendation cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommender_cache_misses_total",
			Help: "Recommendation cache misses",
		},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_cache_errors_total",
			Help: "Recommendation cache failures, by operation",
		},
		[]string{"operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recommender_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommender_catalog_movies",
			Help: "Movies loaded into the scoring engine",
		},
	)

	BatchUsers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_batch_users_total",
			Help: "Users processed by batch recommendation runs, by outcome",
		},
		[]string{"status"},
	)

	RecommendationsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommender_saved_recommendations_total",
			Help: "Recommendation rows persisted",
		},
	)
)
