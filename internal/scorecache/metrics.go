package scorecache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorecache_requests_total",
			Help: "Score cache lookups by result",
		},
		[]string{"cache", "result"},
	)

	cacheComputeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorecache_compute_errors_total",
			Help: "Failed score computations",
		},
		[]string{"cache"},
	)

	cacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorecache_invalidations_total",
			Help: "Score cache invalidations by scope",
		},
		[]string{"cache", "scope"},
	)
)
