package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records sign-in attempts by result (success|failure|error).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postboard_auth_attempts_total",
			Help: "Total number of sign-in attempts",
		},
		[]string{"result"},
	)

	// CacheLookups counts post listing cache lookups by result (hit|miss).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postboard_list_cache_lookups_total",
			Help: "Post listing cache lookups",
		},
		[]string{"result"},
	)

	// CacheInvalidations counts full listing cache purges triggered by writes.
	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postboard_list_cache_invalidations_total",
			Help: "Post listing cache invalidations by triggering operation",
		},
		[]string{"operation"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postboard_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
