package precompute

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/math"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/go-bitfield"
)

// ProcessJustificationAndFinalizationPreCompute processes justification and finalization during
// epoch processing. This is where a beacon node can justify and finalize a new epoch.
//
// Pseudocode definition:
//
//	def process_justification_and_finalization(state: BeaconState) -> None:
//	  # Initial FFG checkpoint values have a `0x00` stub for `root`.
//	  # Skip FFG updates in the first two epochs to avoid corner cases that might result in modifying this stub.
//	  if get_current_epoch(state) <= GENESIS_EPOCH + 1:
//	      return
//	  previous_attestations = get_matching_target_attestations(state, get_previous_epoch(state))
//	  current_attestations = get_matching_target_attestations(state, get_current_epoch(state))
//	  total_active_balance = get_total_active_balance(state)
//	  previous_target_balance = get_attesting_balance(state, previous_attestations)
//	  current_target_balance = get_attesting_balance(state, current_attestations)
//	  weigh_justification_and_finalization(state, total_active_balance, previous_target_balance, current_target_balance)
func ProcessJustificationAndFinalizationPreCompute(st state.BeaconState, pBal *Balance) (state.BeaconState, error) {
	if pBal == nil {
		return nil, errors.New("nil precomputed balance")
	}
	if helpers.CurrentEpoch(st) <= st.Config().GenesisEpoch+1 {
		return st, nil
	}
	return weighJustificationAndFinalization(st, pBal.ActiveCurrentEpoch, pBal.PrevEpochTargetAttested, pBal.CurrentEpochTargetAttested)
}

// weighJustificationAndFinalization processes justification and finalization during
// epoch processing. This is where a beacon node can justify and finalize a new epoch.
//
// Pseudocode definition:
//
//	def weigh_justification_and_finalization(state: BeaconState,
//	                                       total_active_balance: Gwei,
//	                                       previous_epoch_target_balance: Gwei,
//	                                       current_epoch_target_balance: Gwei) -> None:
//	  previous_epoch = get_previous_epoch(state)
//	  current_epoch = get_current_epoch(state)
//	  old_previous_justified_checkpoint = state.previous_justified_checkpoint
//	  old_current_justified_checkpoint = state.current_justified_checkpoint
//
//	  # Process justifications
//	  state.previous_justified_checkpoint = state.current_justified_checkpoint
//	  state.justification_bits[1:] = state.justification_bits[:JUSTIFICATION_BITS_LENGTH - 1]
//	  state.justification_bits[0] = 0b0
//	  if previous_epoch_target_balance * 3 >= total_active_balance * 2:
//	      state.current_justified_checkpoint = Checkpoint(epoch=previous_epoch,
//	                                                      root=get_block_root(state, previous_epoch))
//	      state.justification_bits[1] = 0b1
//	  if current_epoch_target_balance * 3 >= total_active_balance * 2:
//	      state.current_justified_checkpoint = Checkpoint(epoch=current_epoch,
//	                                                      root=get_block_root(state, current_epoch))
//	      state.justification_bits[0] = 0b1
//
//	  # Process finalizations
//	  bits = state.justification_bits
//	  # The 2nd/3rd/4th most recent epochs are justified, the 2nd using the 4th as source
//	  if all(bits[1:4]) and old_previous_justified_checkpoint.epoch + 3 == current_epoch:
//	      state.finalized_checkpoint = old_previous_justified_checkpoint
//	  # The 2nd/3rd most recent epochs are justified, the 2nd using the 3rd as source
//	  if all(bits[1:3]) and old_previous_justified_checkpoint.epoch + 2 == current_epoch:
//	      state.finalized_checkpoint = old_previous_justified_checkpoint
//	  # The 1st/2nd/3rd most recent epochs are justified, the 1st using the 3rd as source
//	  if all(bits[0:3]) and old_current_justified_checkpoint.epoch + 2 == current_epoch:
//	      state.finalized_checkpoint = old_current_justified_checkpoint
//	  # The 1st/2nd most recent epochs are justified, the 1st using the 2nd as source
//	  if all(bits[0:2]) and old_current_justified_checkpoint.epoch + 1 == current_epoch:
//	      state.finalized_checkpoint = old_current_justified_checkpoint
func weighJustificationAndFinalization(st state.BeaconState,
	totalActiveBalance, prevEpochTargetBalance, currEpochTargetBalance uint64) (state.BeaconState, error) {
	prevEpoch := helpers.PrevEpoch(st)
	currentEpoch := helpers.CurrentEpoch(st)
	oldPrevJustifiedCheckpoint := st.PreviousJustifiedCheckpoint()
	oldCurrJustifiedCheckpoint := st.CurrentJustifiedCheckpoint()
	if oldPrevJustifiedCheckpoint == nil || oldCurrJustifiedCheckpoint == nil {
		return nil, errors.New("nil justified checkpoint in state")
	}

	// Process justification.
	if err := st.SetPreviousJustifiedCheckpoint(oldCurrJustifiedCheckpoint); err != nil {
		return nil, err
	}
	newBits := bitfield.Bitvector4(append([]byte{}, st.JustificationBits()...))
	if len(newBits) != 1 {
		return nil, errors.Errorf("justification bits have length %d, want 1", len(newBits))
	}
	newBits.Shift(1)

	balanceTarget, err := math.Mul64(totalActiveBalance, 2)
	if err != nil {
		return nil, errors.Wrap(err, "total active balance")
	}

	// If 2/3 or more of total balance attested in the previous epoch.
	prevWeight, err := math.Mul64(prevEpochTargetBalance, 3)
	if err != nil {
		return nil, errors.Wrap(err, "previous epoch target balance")
	}
	if prevWeight >= balanceTarget {
		if err := justify(st, prevEpoch, newBits, 1); err != nil {
			return nil, errors.Wrap(err, "could not justify previous epoch")
		}
	}

	// If 2/3 or more of the total balance attested in the current epoch.
	currWeight, err := math.Mul64(currEpochTargetBalance, 3)
	if err != nil {
		return nil, errors.Wrap(err, "current epoch target balance")
	}
	if currWeight >= balanceTarget {
		if err := justify(st, currentEpoch, newBits, 0); err != nil {
			return nil, errors.Wrap(err, "could not justify current epoch")
		}
	}

	if err := st.SetJustificationBits(newBits); err != nil {
		return nil, err
	}

	// Process finalization.
	justification := newBits.Bytes()[0]

	var finalized *ethpb.Checkpoint
	// 2nd/3rd/4th (0b1110) most recent epochs are justified, the 2nd using the 4th as source.
	if justification&0x0E == 0x0E && oldPrevJustifiedCheckpoint.Epoch+3 == currentEpoch {
		finalized = oldPrevJustifiedCheckpoint
	}

	// 2nd/3rd (0b0110) most recent epochs are justified, the 2nd using the 3rd as source.
	if justification&0x06 == 0x06 && oldPrevJustifiedCheckpoint.Epoch+2 == currentEpoch {
		finalized = oldPrevJustifiedCheckpoint
	}

	// 1st/2nd/3rd (0b0111) most recent epochs are justified, the 1st using the 3rd as source.
	if justification&0x07 == 0x07 && oldCurrJustifiedCheckpoint.Epoch+2 == currentEpoch {
		finalized = oldCurrJustifiedCheckpoint
	}

	// The 1st/2nd (0b0011) most recent epochs are justified, the 1st using the 2nd as source
	if justification&0x03 == 0x03 && oldCurrJustifiedCheckpoint.Epoch+1 == currentEpoch {
		finalized = oldCurrJustifiedCheckpoint
	}

	// The finalized epoch never moves backwards.
	if finalized != nil && finalized.Epoch >= st.FinalizedCheckpointEpoch() {
		if err := st.SetFinalizedCheckpoint(ethpb.CopyCheckpoint(finalized)); err != nil {
			return nil, err
		}
	}

	return st, nil
}

func justify(st state.BeaconState, epoch types.Epoch, bits bitfield.Bitvector4, bit uint64) error {
	blockRoot, err := helpers.BlockRoot(st, epoch)
	if err != nil {
		return errors.Wrapf(err, "could not get block root for epoch %d", epoch)
	}
	if err := st.SetCurrentJustifiedCheckpoint(&ethpb.Checkpoint{Epoch: epoch, Root: blockRoot}); err != nil {
		return err
	}
	bits.SetBitAt(bit, true)
	return nil
}
