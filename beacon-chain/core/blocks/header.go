package blocks

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"go.opencensus.io/trace"
)

// VerifyNilBeaconBlock checks that the signed block and its nested block and body are set.
func VerifyNilBeaconBlock(b *ethpb.SignedBeaconBlock) error {
	if b == nil {
		return errors.Wrap(ErrNilBlock, "signed beacon block can't be nil")
	}
	if b.Block == nil {
		return errors.Wrap(ErrNilBlock, "beacon block can't be nil")
	}
	if b.Block.Body == nil {
		return errors.Wrap(ErrNilBlock, "beacon block body can't be nil")
	}
	return nil
}

// ProcessBlockHeader validates a block by its header.
//
// Pseudocode definition:
//
//	def process_block_header(state: BeaconState, block: BeaconBlock) -> None:
//	  # Verify that the slots match
//	  assert block.slot == state.slot
//	  # Verify that the block is newer than latest block header
//	  assert block.slot > state.latest_block_header.slot
//	  # Verify that proposer index is the correct index
//	  assert block.proposer_index == get_beacon_proposer_index(state)
//	  # Verify that the parent matches
//	  assert block.parent_root == hash_tree_root(state.latest_block_header)
//	  # Cache current block as the new latest block
//	  state.latest_block_header = BeaconBlockHeader(
//	      slot=block.slot,
//	      proposer_index=block.proposer_index,
//	      parent_root=block.parent_root,
//	      state_root=Bytes32(),  # Overwritten in the next process_slot call
//	      body_root=hash_tree_root(block.body),
//	  )
//
//	  # Verify proposer is not slashed
//	  proposer = state.validators[block.proposer_index]
//	  assert not proposer.slashed
func ProcessBlockHeader(
	ctx context.Context,
	beaconState state.BeaconState,
	block *ethpb.SignedBeaconBlock,
) (state.BeaconState, error) {
	if err := VerifyNilBeaconBlock(block); err != nil {
		return nil, err
	}
	bodyRoot, err := block.Block.Body.HashTreeRoot()
	if err != nil {
		return nil, errors.Wrap(err, "could not hash block body")
	}
	beaconState, err = ProcessBlockHeaderNoVerify(ctx, beaconState, block.Block.Slot, block.Block.ProposerIndex, block.Block.ParentRoot, bodyRoot[:])
	if err != nil {
		return nil, err
	}

	// Verify proposer signature.
	if err := VerifyBlockSignature(beaconState, block.Block.ProposerIndex, block.Signature, block.Block.HashTreeRoot); err != nil {
		return nil, err
	}
	return beaconState, nil
}

// ProcessBlockHeaderNoVerify validates a block by its header but skips proposer
// signature verification.
//
// WARNING: This method does not verify proposer signature. This is used for proposer to compute state root
// using a unsigned block.
func ProcessBlockHeaderNoVerify(
	ctx context.Context,
	beaconState state.BeaconState,
	slot types.Slot, proposerIndex types.ValidatorIndex,
	parentRoot, bodyRoot []byte,
) (state.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "blocks.ProcessBlockHeaderNoVerify")
	defer span.End()

	if beaconState.Slot() != slot {
		return nil, errors.Wrapf(ErrSlotMismatch, "state slot: %d, block slot: %d", beaconState.Slot(), slot)
	}
	parentHeader := beaconState.LatestBlockHeader()
	if parentHeader == nil {
		return nil, errors.New("nil latest block header in state")
	}
	if parentHeader.Slot >= slot {
		return nil, errors.Wrapf(ErrBlockNotNewer, "latest block header slot %d, block slot %d", parentHeader.Slot, slot)
	}
	idx, err := helpers.BeaconProposerIndex(ctx, beaconState)
	if err != nil {
		return nil, err
	}
	if proposerIndex != idx {
		return nil, errors.Wrapf(ErrWrongProposer, "proposer index: %d, calculated proposer index: %d", proposerIndex, idx)
	}
	parentHeaderRoot, err := parentHeader.HashTreeRoot()
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(parentRoot, parentHeaderRoot[:]) {
		return nil, errors.Wrapf(ErrParentRootMismatch, "parent root %#x does not match the latest block header signing root in state %#x", parentRoot, parentHeaderRoot[:])
	}

	proposer, err := beaconState.ValidatorAtIndexReadOnly(idx)
	if err != nil {
		return nil, err
	}
	if proposer.Slashed() {
		return nil, errors.Wrapf(ErrProposerSlashed, "proposer at index %d", idx)
	}

	if err := beaconState.SetLatestBlockHeader(&ethpb.BeaconBlockHeader{
		Slot:          slot,
		ProposerIndex: proposerIndex,
		ParentRoot:    parentRoot,
		StateRoot:     make([]byte, fieldparams.RootLength),
		BodyRoot:      bodyRoot,
	}); err != nil {
		return nil, err
	}
	return beaconState, nil
}
