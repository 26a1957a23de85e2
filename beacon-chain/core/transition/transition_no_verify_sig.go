package transition

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	b "github.com/prysmaticlabs/beacon-transition/beacon-chain/core/blocks"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/monitoring/tracing"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// ExecuteStateTransitionNoVerifyAnySig defines the procedure for a state transition function.
// This does not validate any BLS signatures of attestations, block proposer signature, randao signature,
// it is used for performing a state transition as quickly as possible. Those signatures are returned
// as a batch for the caller to verify. The post state root of the block is still checked.
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
func ExecuteStateTransitionNoVerifyAnySig(
	ctx context.Context,
	st state.BeaconState,
	signed *ethpb.SignedBeaconBlock,
) (*bls.SignatureBatch, state.BeaconState, error) {
	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}
	if st == nil {
		return nil, nil, errors.New("nil state")
	}
	if err := b.VerifyNilBeaconBlock(signed); err != nil {
		return nil, nil, &BlockProcessingError{Step: StepHeader, Err: err}
	}

	ctx, span := trace.StartSpan(ctx, "core.state.ExecuteStateTransitionNoVerifyAnySig")
	defer span.End()

	postState, err := advanceToBlockSlot(ctx, st.Copy(), signed.Block)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, nil, err
	}

	set, postState, err := ProcessBlockNoVerifyAnySig(ctx, postState, signed)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, nil, err
	}

	if err := verifyStateRoot(ctx, postState, signed.Block); err != nil {
		transitionFailures.WithLabelValues(phaseBlock).Inc()
		tracing.AnnotateError(span, err)
		return nil, nil, err
	}
	return set, postState, nil
}

// CalculateStateRoot defines the procedure for a state transition function.
// This does not validate any BLS signatures in a block, it is used for calculating the
// state root of the state for the block proposer to use.
// This does not modify the input state.
func CalculateStateRoot(
	ctx context.Context,
	st state.BeaconState,
	signed *ethpb.SignedBeaconBlock,
) ([32]byte, error) {
	ctx, span := trace.StartSpan(ctx, "core.state.CalculateStateRoot")
	defer span.End()
	if ctx.Err() != nil {
		tracing.AnnotateError(span, ctx.Err())
		return [32]byte{}, ctx.Err()
	}
	if st == nil {
		return [32]byte{}, errors.New("nil state")
	}
	if err := b.VerifyNilBeaconBlock(signed); err != nil {
		return [32]byte{}, &BlockProcessingError{Step: StepHeader, Err: err}
	}

	// Copy state to avoid mutating the state reference.
	postState, err := advanceToBlockSlot(ctx, st.Copy(), signed.Block)
	if err != nil {
		tracing.AnnotateError(span, err)
		return [32]byte{}, err
	}
	_, postState, err = ProcessBlockNoVerifyAnySig(ctx, postState, signed)
	if err != nil {
		tracing.AnnotateError(span, err)
		return [32]byte{}, err
	}
	return postState.HashTreeRoot(ctx)
}

// ProcessBlock creates a new, modified beacon state by applying block operation
// transformations under the phase0 consensus rules, including processing proposer slashings,
// processing block attestations, and more. Every signature in the block is verified.
// The input state is never modified. Failures are reported as a *BlockProcessingError.
//
// Pseudocode definition:
//
//	def process_block(state: BeaconState, block: BeaconBlock) -> None:
//	  process_block_header(state, block)
//	  process_randao(state, block.body)
//	  process_eth1_data(state, block.body)
//	  process_operations(state, block.body)
func ProcessBlock(
	ctx context.Context,
	st state.BeaconState,
	signed *ethpb.SignedBeaconBlock,
) (state.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "core.state.ProcessBlock")
	defer span.End()
	if st == nil {
		return nil, errors.New("nil state")
	}

	postState, err := processBlock(ctx, st.Copy(), signed)
	if err != nil {
		transitionFailures.WithLabelValues(phaseBlock).Inc()
		tracing.AnnotateError(span, err)
		return nil, err
	}
	processedBlocks.Inc()
	return postState, nil
}

func processBlock(
	ctx context.Context,
	st state.BeaconState,
	signed *ethpb.SignedBeaconBlock,
) (state.BeaconState, error) {
	var err error
	st, err = b.ProcessBlockHeader(ctx, st, signed)
	if err != nil {
		return nil, &BlockProcessingError{Step: StepHeader, Err: err}
	}
	body := signed.Block.Body
	st, err = b.ProcessRandao(ctx, st, body.RandaoReveal)
	if err != nil {
		return nil, &BlockProcessingError{Step: StepRandao, Err: err}
	}
	st, err = b.ProcessEth1DataInBlock(ctx, st, body.Eth1Data)
	if err != nil {
		return nil, &BlockProcessingError{Step: StepEth1Data, Err: err}
	}
	st, err = ProcessOperations(ctx, st, body)
	if err != nil {
		return nil, &BlockProcessingError{Step: StepOperations, Err: err}
	}
	return st, nil
}

// ProcessBlockNoVerifyAnySig creates a new, modified beacon state by applying block operation
// transformations under the phase0 consensus rules. It does not validate
// any block signature except for deposit and slashing signatures. It also returns the relevant
// signature set from all the respective sub-processes. The state is modified in place.
func ProcessBlockNoVerifyAnySig(
	ctx context.Context,
	st state.BeaconState,
	signed *ethpb.SignedBeaconBlock,
) (*bls.SignatureBatch, state.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "core.state.ProcessBlockNoVerifyAnySig")
	defer span.End()
	if err := b.VerifyNilBeaconBlock(signed); err != nil {
		return nil, nil, &BlockProcessingError{Step: StepHeader, Err: err}
	}

	blk := signed.Block
	body := blk.Body
	bodyRoot, err := body.HashTreeRoot()
	if err != nil {
		return nil, nil, &BlockProcessingError{Step: StepHeader, Err: errors.Wrap(err, "could not hash block body")}
	}
	st, err = b.ProcessBlockHeaderNoVerify(ctx, st, blk.Slot, blk.ProposerIndex, blk.ParentRoot, bodyRoot[:])
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, nil, &BlockProcessingError{Step: StepHeader, Err: err}
	}
	bSet, err := b.BlockSignatureBatch(st, blk.ProposerIndex, signed.Signature, blk.HashTreeRoot)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, nil, &BlockProcessingError{Step: StepHeader, Err: errors.Wrap(err, "could not retrieve block signature set")}
	}
	rSet, err := b.RandaoSignatureBatch(ctx, st, body.RandaoReveal)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, nil, &BlockProcessingError{Step: StepRandao, Err: errors.Wrap(err, "could not retrieve randao signature set")}
	}
	st, err = b.ProcessRandaoNoVerify(st, body.RandaoReveal)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, nil, &BlockProcessingError{Step: StepRandao, Err: err}
	}
	st, err = b.ProcessEth1DataInBlock(ctx, st, body.Eth1Data)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, nil, &BlockProcessingError{Step: StepEth1Data, Err: err}
	}
	st, err = ProcessOperationsNoVerifyAttsSigs(ctx, st, body)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, nil, &BlockProcessingError{Step: StepOperations, Err: err}
	}
	aSet, err := b.AttestationSignatureBatch(ctx, st, body.Attestations)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, nil, &BlockProcessingError{Step: StepOperations, Err: errors.Wrap(err, "could not retrieve attestation signature set")}
	}

	set := bls.NewSet()
	set.Join(bSet).Join(rSet).Join(aSet)
	return set, st, nil
}

// ProcessOperations processes the operations of a block body in their canonical order,
// verifying every signature they carry.
//
// Pseudocode definition:
//
//	def process_operations(state: BeaconState, body: BeaconBlockBody) -> None:
//	  # Verify that outstanding deposits are processed up to the maximum number of deposits
//	  assert len(body.deposits) == min(MAX_DEPOSITS, state.eth1_data.deposit_count - state.eth1_deposit_index)
//
//	  def for_ops(operations: Sequence[Any], fn: Callable[[BeaconState, Any], None]) -> None:
//	      for operation in operations:
//	          fn(state, operation)
//
//	  for_ops(body.proposer_slashings, process_proposer_slashing)
//	  for_ops(body.attester_slashings, process_attester_slashing)
//	  for_ops(body.attestations, process_attestation)
//	  for_ops(body.deposits, process_deposit)
//	  for_ops(body.voluntary_exits, process_voluntary_exit)
func ProcessOperations(
	ctx context.Context,
	st state.BeaconState,
	body *ethpb.BeaconBlockBody,
) (state.BeaconState, error) {
	return processOperations(ctx, st, body, b.ProcessAttestations)
}

// ProcessOperationsNoVerifyAttsSigs processes the operations of a block body in their canonical
// order, skipping attestation signature verification.
func ProcessOperationsNoVerifyAttsSigs(
	ctx context.Context,
	st state.BeaconState,
	body *ethpb.BeaconBlockBody,
) (state.BeaconState, error) {
	return processOperations(ctx, st, body, b.ProcessAttestationsNoVerifySignature)
}

type attestationsProcessor func(context.Context, state.BeaconState, []*ethpb.Attestation) (state.BeaconState, error)

func processOperations(
	ctx context.Context,
	st state.BeaconState,
	body *ethpb.BeaconBlockBody,
	processAtts attestationsProcessor,
) (state.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "core.state.ProcessOperations")
	defer span.End()
	if body == nil {
		return nil, errors.Wrap(b.ErrNilBlock, "nil block body")
	}

	// The deposit count is checked before any operation applies.
	if err := b.VerifyDepositCount(st, body.Deposits); err != nil {
		tracing.AnnotateError(span, err)
		return nil, err
	}

	var err error
	st, err = b.ProcessProposerSlashings(ctx, st, body.ProposerSlashings)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not process block proposer slashings")
	}
	st, err = b.ProcessAttesterSlashings(ctx, st, body.AttesterSlashings)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not process block attester slashings")
	}
	st, err = processAtts(ctx, st, body.Attestations)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not process block attestations")
	}
	st, err = b.ProcessDeposits(ctx, st, body.Deposits)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not process block validator deposits")
	}
	st, err = b.ProcessVoluntaryExits(ctx, st, body.VoluntaryExits)
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, errors.Wrap(err, "could not process validator exits")
	}
	return st, nil
}

// advanceToBlockSlot runs the slot processor up to the slot of the block. A state already
// at the block slot is returned as is so that the header check can judge the block.
func advanceToBlockSlot(ctx context.Context, st state.BeaconState, blk *ethpb.BeaconBlock) (state.BeaconState, error) {
	if st.Slot() >= blk.Slot {
		return st, nil
	}
	return processSlots(ctx, st, blk.Slot)
}

func verifyStateRoot(ctx context.Context, st state.BeaconState, blk *ethpb.BeaconBlock) error {
	postStateRoot, err := st.HashTreeRoot(ctx)
	if err != nil {
		return &BlockProcessingError{Step: StepStateRoot, Err: err}
	}
	if !bytes.Equal(postStateRoot[:], blk.StateRoot) {
		return &BlockProcessingError{
			Step: StepStateRoot,
			Err:  errors.Wrapf(ErrStateRootMismatch, "wanted: %#x, received: %#x", postStateRoot[:], blk.StateRoot),
		}
	}
	return nil
}

// verifySignatureBatch verifies every signature collected from a block at once. When the
// batch fails, each signature is checked on its own to report the invalid ones.
func verifySignatureBatch(set *bls.SignatureBatch) error {
	if set == nil {
		return &BlockProcessingError{Step: StepSignatures, Err: errors.New("nil signature batch")}
	}
	valid, err := set.Verify()
	if err == nil && valid {
		return nil
	}
	_, verr := set.VerifyVerbosely()
	if verr == nil {
		verr = err
	}
	log.WithFields(logrus.Fields{
		"signatures": len(set.Signatures),
		"error":      verr,
	}).Debug("Block signature batch failed to verify")
	msg := "block signature batch failed to verify"
	if verr != nil {
		msg = verr.Error()
	}
	return &BlockProcessingError{Step: StepSignatures, Err: errors.Wrap(signing.ErrSigFailedToVerify, msg)}
}
