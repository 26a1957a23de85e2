package epoch

import (
	"fmt"

	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
)

// EpochProcessingError is returned when a step of epoch processing fails. Arithmetic overflows
// unwrap to math.ErrOverflow.
type EpochProcessingError struct {
	Step  string
	Epoch types.Epoch
	Err   error
}

func (e *EpochProcessingError) Error() string {
	return fmt.Sprintf("could not process epoch %d: %s: %v", e.Epoch, e.Step, e.Err)
}

// Unwrap returns the underlying failure.
func (e *EpochProcessingError) Unwrap() error {
	return e.Err
}

// Epoch processing steps, in order.
const (
	StepPrecompute                = "precompute"
	StepJustificationFinalization = "justification and finalization"
	StepRewardsPenalties          = "rewards and penalties"
	StepRegistryUpdates           = "registry updates"
	StepSlashings                 = "slashings"
	StepFinalUpdates              = "final updates"
)
