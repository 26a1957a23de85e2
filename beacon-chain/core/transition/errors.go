package transition

import (
	"fmt"

	"github.com/pkg/errors"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
)

// ErrInvalidSlotOrder is returned when a state is asked to advance to a slot that is not after its own.
var ErrInvalidSlotOrder = errors.New("target slot is not greater than the state slot")

// ErrStateRootMismatch is returned when the post state root differs from the one committed in the block.
var ErrStateRootMismatch = errors.New("post state root does not match block state root")

// Steps of block processing reported by BlockProcessingError.
const (
	StepHeader     = "header"
	StepRandao     = "randao"
	StepEth1Data   = "eth1 data"
	StepOperations = "operations"
	StepSignatures = "signatures"
	StepStateRoot  = "state root"
)

// SlotProcessingError is returned when advancing a state through empty slots fails.
type SlotProcessingError struct {
	Slot types.Slot
	Err  error
}

func (e *SlotProcessingError) Error() string {
	return fmt.Sprintf("could not process slot %d: %v", e.Slot, e.Err)
}

func (e *SlotProcessingError) Unwrap() error {
	return e.Err
}

// BlockProcessingError is returned when a block cannot be applied to a state. Step names the
// stage of block processing that rejected it.
type BlockProcessingError struct {
	Step string
	Err  error
}

func (e *BlockProcessingError) Error() string {
	return fmt.Sprintf("could not process block %s: %v", e.Step, e.Err)
}

func (e *BlockProcessingError) Unwrap() error {
	return e.Err
}
