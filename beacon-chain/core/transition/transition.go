// Package transition implements the phase0 state transition function: advancing a beacon
// state through slots and epochs and applying signed beacon blocks to it.
package transition

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/epoch"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/epoch/precompute"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/monitoring/tracing"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// ExecuteStateTransition defines the procedure for a state transition function.
// The input state is left untouched; the returned state is a processed copy.
//
// Pseudocode definition:
//
//	def state_transition(state: BeaconState, signed_block: SignedBeaconBlock, validate_result: bool=True) -> None:
//	  block = signed_block.message
//	  # Process slots (including those with no blocks) since block
//	  process_slots(state, block.slot)
//	  # Verify signature
//	  if validate_result:
//	      assert verify_block_signature(state, signed_block)
//	  # Process block
//	  process_block(state, block)
//	  # Verify state root
//	  if validate_result:
//	      assert block.state_root == hash_tree_root(state)
func ExecuteStateTransition(
	ctx context.Context,
	st state.BeaconState,
	signed *ethpb.SignedBeaconBlock,
) (state.BeaconState, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	ctx, span := trace.StartSpan(ctx, "core.state.ExecuteStateTransition")
	defer span.End()

	set, postState, err := ExecuteStateTransitionNoVerifyAnySig(ctx, st, signed)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, err
	}
	if err := verifySignatureBatch(set); err != nil {
		transitionFailures.WithLabelValues(phaseBlock).Inc()
		tracing.AnnotateError(span, err)
		return nil, err
	}
	processedBlocks.Inc()
	return postState, nil
}

// ProcessSlot happens every slot and focuses on the slot counter and block roots record updates.
// It happens regardless if there's an incoming block or not. The state is modified in place.
//
// Pseudocode definition:
//
//	def process_slot(state: BeaconState) -> None:
//	  # Cache state root
//	  previous_state_root = hash_tree_root(state)
//	  state.state_roots[state.slot % SLOTS_PER_HISTORICAL_ROOT] = previous_state_root
//	  # Cache latest block header state root
//	  if state.latest_block_header.state_root == Bytes32():
//	      state.latest_block_header.state_root = previous_state_root
//	  # Cache block root
//	  previous_block_root = hash_tree_root(state.latest_block_header)
//	  state.block_roots[state.slot % SLOTS_PER_HISTORICAL_ROOT] = previous_block_root
func ProcessSlot(ctx context.Context, st state.BeaconState) (state.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "core.state.ProcessSlot")
	defer span.End()
	span.AddAttributes(trace.Int64Attribute("slot", int64(st.Slot()))) // lint:ignore uintcast -- This is OK for tracing.

	cfg := st.Config()
	prevStateRoot, err := st.HashTreeRoot(ctx)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, err
	}
	if err := st.UpdateStateRootAtIndex(
		uint64(st.Slot()%cfg.SlotsPerHistoricalRoot),
		prevStateRoot,
	); err != nil {
		tracing.AnnotateError(span, err)
		return nil, err
	}

	header := st.LatestBlockHeader()
	if header == nil {
		err := errors.New("nil latest block header in state")
		tracing.AnnotateError(span, err)
		return nil, err
	}
	if bytes.Equal(header.StateRoot, cfg.ZeroHash[:]) {
		header.StateRoot = prevStateRoot[:]
		if err := st.SetLatestBlockHeader(header); err != nil {
			tracing.AnnotateError(span, err)
			return nil, err
		}
	}
	prevBlockRoot, err := st.LatestBlockHeader().HashTreeRoot()
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not determine prev block root")
	}
	// Cache the block root.
	if err := st.UpdateBlockRootAtIndex(
		uint64(st.Slot()%cfg.SlotsPerHistoricalRoot),
		prevBlockRoot,
	); err != nil {
		tracing.AnnotateError(span, err)
		return nil, err
	}
	return st, nil
}

// ProcessSlots process through skip slots and apply epoch transition when it's needed.
// The input state is copied before any slot is processed.
//
// Pseudocode definition:
//
//	def process_slots(state: BeaconState, slot: Slot) -> None:
//	  assert state.slot < slot
//	  while state.slot < slot:
//	      process_slot(state)
//	      # Process epoch on the start slot of the next epoch
//	      if (state.slot + 1) % SLOTS_PER_EPOCH == 0:
//	          process_epoch(state)
//	      state.slot = Slot(state.slot + 1)
func ProcessSlots(ctx context.Context, st state.BeaconState, slot types.Slot) (state.BeaconState, error) {
	if st == nil {
		return nil, errors.New("nil state")
	}
	return processSlots(ctx, st.Copy(), slot)
}

func processSlots(ctx context.Context, st state.BeaconState, slot types.Slot) (state.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "core.state.ProcessSlots")
	defer span.End()
	span.AddAttributes(trace.Int64Attribute("slots", int64(slot)-int64(st.Slot()))) // lint:ignore uintcast -- This is OK for tracing.

	if st.Slot() >= slot {
		err := &SlotProcessingError{
			Slot: slot,
			Err:  errors.Wrapf(ErrInvalidSlotOrder, "expected state.slot %d < slot %d", st.Slot(), slot),
		}
		transitionFailures.WithLabelValues(phaseSlot).Inc()
		tracing.AnnotateError(span, err)
		return nil, err
	}

	cfg := st.Config()
	var err error
	for st.Slot() < slot {
		if ctx.Err() != nil {
			tracing.AnnotateError(span, ctx.Err())
			return nil, ctx.Err()
		}
		current := st.Slot()
		st, err = ProcessSlot(ctx, st)
		if err != nil {
			transitionFailures.WithLabelValues(phaseSlot).Inc()
			tracing.AnnotateError(span, err)
			return nil, &SlotProcessingError{Slot: current, Err: err}
		}
		if helpers.IsEpochEnd(cfg, st.Slot()) {
			st, err = ProcessEpochPrecompute(ctx, st)
			if err != nil {
				transitionFailures.WithLabelValues(phaseEpoch).Inc()
				tracing.AnnotateError(span, err)
				return nil, err
			}
		}
		if err := st.SetSlot(st.Slot() + 1); err != nil {
			tracing.AnnotateError(span, err)
			return nil, errors.Wrap(err, "failed to increment state slot")
		}
		processedSlots.Inc()
	}
	return st, nil
}

// ProcessEpochPrecompute describes the per epoch operations that are performed on the beacon state.
// It's optimized by pre computing validator attested info and epoch total/attested balances upfront.
//
// Pseudocode definition:
//
//	def process_epoch(state: BeaconState) -> None:
//	  process_justification_and_finalization(state)
//	  process_rewards_and_penalties(state)
//	  process_registry_updates(state)
//	  process_slashings(state)
//	  process_eth1_data_reset(state)
//	  process_effective_balance_updates(state)
//	  process_slashings_reset(state)
//	  process_randao_mixes_reset(state)
//	  process_historical_roots_update(state)
//	  process_participation_record_updates(state)
func ProcessEpochPrecompute(ctx context.Context, st state.BeaconState) (state.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "core.state.ProcessEpoch")
	defer span.End()
	if st == nil {
		return nil, errors.New("nil state")
	}
	currentEpoch := helpers.CurrentEpoch(st)
	span.AddAttributes(trace.Int64Attribute("epoch", int64(currentEpoch))) // lint:ignore uintcast -- This is OK for tracing.

	fail := func(step string, err error) error {
		wrapped := &epoch.EpochProcessingError{Step: step, Epoch: currentEpoch, Err: err}
		tracing.AnnotateError(span, wrapped)
		return wrapped
	}

	vp, bp, err := precompute.New(ctx, st)
	if err != nil {
		return nil, fail(epoch.StepPrecompute, err)
	}
	vp, bp, err = precompute.ProcessAttestations(ctx, st, vp, bp)
	if err != nil {
		return nil, fail(epoch.StepPrecompute, err)
	}

	st, err = precompute.ProcessJustificationAndFinalizationPreCompute(st, bp)
	if err != nil {
		return nil, fail(epoch.StepJustificationFinalization, err)
	}

	st, err = precompute.ProcessRewardsAndPenaltiesPrecompute(ctx, st, bp, vp, precompute.AttestationsDelta, precompute.ProposersDelta)
	if err != nil {
		return nil, fail(epoch.StepRewardsPenalties, err)
	}

	st, err = epoch.ProcessRegistryUpdates(ctx, st)
	if err != nil {
		return nil, fail(epoch.StepRegistryUpdates, err)
	}

	if err := precompute.ProcessSlashingsPrecompute(st, bp); err != nil {
		return nil, fail(epoch.StepSlashings, err)
	}

	st, err = epoch.ProcessFinalUpdates(st)
	if err != nil {
		return nil, fail(epoch.StepFinalUpdates, err)
	}

	processedEpochs.Inc()
	log.WithFields(logrus.Fields{
		"epoch":          currentEpoch,
		"finalizedEpoch": st.FinalizedCheckpointEpoch(),
		"justifiedEpoch": st.CurrentJustifiedCheckpoint().Epoch,
		"activeBalance":  bp.ActiveCurrentEpoch,
	}).Debug("Processed epoch transition")
	return st, nil
}
