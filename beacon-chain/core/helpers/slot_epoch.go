package helpers

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
)

// SlotToEpoch returns the epoch number of the input slot.
//
// Pseudocode definition:
//
//	def compute_epoch_at_slot(slot: Slot) -> Epoch:
//	  """
//	  Return the epoch number at `slot`.
//	  """
//	  return Epoch(slot // SLOTS_PER_EPOCH)
func SlotToEpoch(cfg *params.BeaconChainConfig, slot types.Slot) types.Epoch {
	return types.Epoch(slot / cfg.SlotsPerEpoch)
}

// CurrentEpoch returns the current epoch number calculated from
// the slot number stored in beacon state.
//
// Pseudocode definition:
//
//	def get_current_epoch(state: BeaconState) -> Epoch:
//	  """
//	  Return the current epoch.
//	  """
//	  return compute_epoch_at_slot(state.slot)
func CurrentEpoch(st state.ReadOnlyBeaconState) types.Epoch {
	return SlotToEpoch(st.Config(), st.Slot())
}

// PrevEpoch returns the previous epoch number calculated from
// the slot number stored in beacon state. It also checks for
// underflow condition.
//
// Pseudocode definition:
//
//	def get_previous_epoch(state: BeaconState) -> Epoch:
//	  """`
//	  Return the previous epoch (unless the current epoch is ``GENESIS_EPOCH``).
//	  """
//	  current_epoch = get_current_epoch(state)
//	  return GENESIS_EPOCH if current_epoch == GENESIS_EPOCH else Epoch(current_epoch - 1)
func PrevEpoch(st state.ReadOnlyBeaconState) types.Epoch {
	currentEpoch := CurrentEpoch(st)
	if currentEpoch == st.Config().GenesisEpoch {
		return st.Config().GenesisEpoch
	}
	return currentEpoch - 1
}

// NextEpoch returns the next epoch number calculated from
// the slot number stored in beacon state.
func NextEpoch(st state.ReadOnlyBeaconState) types.Epoch {
	return CurrentEpoch(st) + 1
}

// EpochStart returns the first slot number of the
// current epoch.
//
// Pseudocode definition:
//
//	def compute_start_slot_at_epoch(epoch: Epoch) -> Slot:
//	  """
//	  Return the start slot of `epoch`.
//	  """
//	  return Slot(epoch * SLOTS_PER_EPOCH)
func EpochStart(cfg *params.BeaconChainConfig, epoch types.Epoch) (types.Slot, error) {
	slot, err := cfg.SlotsPerEpoch.SafeMul(uint64(epoch))
	if err != nil {
		return slot, errors.Errorf("start slot calculation overflows: %v", err)
	}
	return slot, nil
}

// IsEpochStart returns true if the given slot number is an epoch starting slot
// number.
func IsEpochStart(cfg *params.BeaconChainConfig, slot types.Slot) bool {
	return slot%cfg.SlotsPerEpoch == 0
}

// IsEpochEnd returns true if the given slot number is an epoch ending slot
// number.
func IsEpochEnd(cfg *params.BeaconChainConfig, slot types.Slot) bool {
	return IsEpochStart(cfg, slot+1)
}
