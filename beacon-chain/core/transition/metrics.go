package transition

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	processedSlots = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_processed_slots_total",
		Help: "Number of slots advanced by the slot processor.",
	})
	processedEpochs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_processed_epochs_total",
		Help: "Number of epoch transitions applied.",
	})
	processedBlocks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_processed_blocks_total",
		Help: "Number of blocks successfully applied to a state.",
	})
	transitionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beacon_state_transition_failures_total",
		Help: "Number of failed state transitions, labelled by the phase that failed.",
	}, []string{"phase"})
)

const (
	phaseSlot  = "slot"
	phaseEpoch = "epoch"
	phaseBlock = "block"
)
