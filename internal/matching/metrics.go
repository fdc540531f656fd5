package matching

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var compatibilityScores = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "scoring_compatibility_scores",
		Help:    "Distribution of computed compatibility scores",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	},
)

func RecordCompatibilityScore(score float64) {
	compatibilityScores.Observe(score)
}
