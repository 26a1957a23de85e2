package helpers

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
)

// BlockRootAtSlot returns the block root stored in the BeaconState for a recent slot.
// It returns an error if the requested block root is not within the slot range.
//
// Pseudocode definition:
//
//	def get_block_root_at_slot(state: BeaconState, slot: Slot) -> Root:
//	  """
//	  Return the block root at a recent `slot`.
//	  """
//	  assert slot < state.slot <= slot + SLOTS_PER_HISTORICAL_ROOT
//	  return state.block_roots[slot % SLOTS_PER_HISTORICAL_ROOT]
func BlockRootAtSlot(st state.ReadOnlyBeaconState, slot types.Slot) ([]byte, error) {
	cfg := st.Config()
	if math64Overflows(slot, cfg.SlotsPerHistoricalRoot) {
		return nil, errors.New("slot overflows uint64")
	}
	if slot >= st.Slot() || st.Slot() > slot+cfg.SlotsPerHistoricalRoot {
		return []byte{}, errors.Errorf("slot %d out of bounds", slot)
	}
	return st.BlockRootAtIndex(uint64(slot % cfg.SlotsPerHistoricalRoot))
}

// BlockRoot returns the block root stored in the BeaconState for epoch start slot.
//
// Pseudocode definition:
//
//	def get_block_root(state: BeaconState, epoch: Epoch) -> Root:
//	  """
//	  Return the block root at the start of a recent `epoch`.
//	  """
//	  return get_block_root_at_slot(state, compute_start_slot_at_epoch(epoch))
func BlockRoot(st state.ReadOnlyBeaconState, epoch types.Epoch) ([]byte, error) {
	s, err := EpochStart(st.Config(), epoch)
	if err != nil {
		return nil, err
	}
	return BlockRootAtSlot(st, s)
}

func math64Overflows(a, b types.Slot) bool {
	return a+b < a
}
