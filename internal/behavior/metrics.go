package behavior

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	viewEventsTracked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "behavior_view_events_total",
			Help: "View events recorded by action",
		},
		[]string{"action"},
	)

	tasteRebuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "behavior_taste_rebuilds_total",
			Help: "Taste profile rebuilds by trigger",
		},
		[]string{"trigger"},
	)

	tasteRebuildErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "behavior_taste_rebuild_errors_total",
			Help: "Taste profile rebuilds that failed to load or persist",
		},
	)

	tasteConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "behavior_taste_confidence",
			Help:    "Confidence of rebuilt taste profiles",
			Buckets: []float64{0, 0.1, 0.2, 0.3, 0.5, 0.7, 0.9, 1},
		},
	)
)
