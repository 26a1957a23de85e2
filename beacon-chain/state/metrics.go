package state

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Count tracks the number of live beacon state objects.
	Count = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_state_count",
		Help: "Count the number of active beacon state objects.",
	})
	// StateRootTime observes how long a state hash tree root takes to compute.
	StateRootTime = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "beacon_state_root_computation_milliseconds",
		Help:    "Time taken to compute the hash tree root of a beacon state.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
)
