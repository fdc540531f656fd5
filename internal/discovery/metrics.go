package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_ranking_duration_seconds",
			Help:    "Time spent scoring and ordering a feed",
			Buckets: prometheus.DefBuckets,
		},
	)

	feedsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_feeds_served_total",
			Help: "Feeds served by whether taste personalization was applied",
		},
		[]string{"personalized"},
	)
)
