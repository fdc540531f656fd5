package trust

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	trustComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trust_computations_total",
			Help: "Trust scores computed by resulting tier",
		},
		[]string{"tier"},
	)

	badgesAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trust_badges_awarded_total",
			Help: "Badges newly written to the ledger",
		},
		[]string{"badge"},
	)

	trustOverallScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trust_overall_score",
			Help:    "Distribution of computed overall trust scores",
			Buckets: []float64{10, 20, 30, 40, 50, 55, 60, 70, 75, 80, 90, 100},
		},
	)
)
