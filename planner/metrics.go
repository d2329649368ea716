package planner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search outcomes recorded by the searches counter.
const (
	OutcomeFound       = "found"
	OutcomeNoPath      = "no_path"
	OutcomeBlockedGoal = "blocked_goal"
	OutcomeOutOfBounds = "out_of_bounds"
	OutcomeBudget      = "budget_exhausted"
)

type metrics struct {
	searches *prometheus.CounterVec
	duration prometheus.Histogram
	expanded prometheus.Histogram
	pathLen  prometheus.Histogram
}

// newMetrics registers the planner metrics on reg. A nil reg leaves them
// unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "terrainpath_searches_total",
			Help: "Path searches by outcome",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "terrainpath_search_duration_seconds",
			Help:    "Path search duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14), // 50µs to ~400ms
		}),
		expanded: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "terrainpath_search_expanded_nodes",
			Help:    "Nodes expanded per path search",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		pathLen: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "terrainpath_path_nodes",
			Help:    "Nodes on found paths",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200, 500},
		}),
	}
}
