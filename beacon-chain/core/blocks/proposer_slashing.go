package blocks

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/validators"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"go.opencensus.io/trace"
)

// proposerSlashingConditions are checked in order against every proposer slashing.
var proposerSlashingConditions = []validityCondition[*ethpb.ProposerSlashing]{
	{name: "headers present", check: func(_ context.Context, _ state.ReadOnlyBeaconState, s *ethpb.ProposerSlashing) error {
		if s == nil || s.Header_1 == nil || s.Header_1.Header == nil || s.Header_2 == nil || s.Header_2.Header == nil {
			return ErrNilOperation
		}
		return nil
	}},
	{name: "header slots match", check: func(_ context.Context, _ state.ReadOnlyBeaconState, s *ethpb.ProposerSlashing) error {
		if s.Header_1.Header.Slot != s.Header_2.Header.Slot {
			return errors.Wrapf(ErrNotSlashable, "mismatched header slots, received %d == %d", s.Header_1.Header.Slot, s.Header_2.Header.Slot)
		}
		return nil
	}},
	{name: "header proposers match", check: func(_ context.Context, _ state.ReadOnlyBeaconState, s *ethpb.ProposerSlashing) error {
		if s.Header_1.Header.ProposerIndex != s.Header_2.Header.ProposerIndex {
			return errors.Wrapf(ErrNotSlashable, "mismatched indices, received %d == %d", s.Header_1.Header.ProposerIndex, s.Header_2.Header.ProposerIndex)
		}
		return nil
	}},
	{name: "headers differ", check: func(_ context.Context, _ state.ReadOnlyBeaconState, s *ethpb.ProposerSlashing) error {
		if s.Header_1.Header.Equals(s.Header_2.Header) {
			return errors.Wrap(ErrNotSlashable, "expected slashing headers to differ")
		}
		return nil
	}},
	{name: "proposer slashable", check: func(_ context.Context, st state.ReadOnlyBeaconState, s *ethpb.ProposerSlashing) error {
		proposer, err := st.ValidatorAtIndexReadOnly(s.Header_1.Header.ProposerIndex)
		if err != nil {
			return errors.Wrap(ErrNotSlashable, err.Error())
		}
		if !helpers.IsSlashableValidatorUsingTrie(proposer, helpers.CurrentEpoch(st)) {
			if proposer.Slashed() {
				return errors.Wrapf(ErrAlreadySlashed, "validator with key %#x", proposer.PublicKey())
			}
			return errors.Wrapf(ErrNotSlashable, "validator with key %#x is not slashable", proposer.PublicKey())
		}
		return nil
	}},
	{name: "header signatures", check: func(_ context.Context, st state.ReadOnlyBeaconState, s *ethpb.ProposerSlashing) error {
		cfg := st.Config()
		pubKey := st.PubkeyAtIndex(s.Header_1.Header.ProposerIndex)
		for _, header := range []*ethpb.SignedBeaconBlockHeader{s.Header_1, s.Header_2} {
			epoch := helpers.SlotToEpoch(cfg, header.Header.Slot)
			if err := signing.ComputeDomainVerifySigningRoot(st.Fork(), st.GenesisValidatorsRoot(), epoch,
				cfg.DomainBeaconProposer, pubKey[:], header.Header, header.Signature); err != nil {
				return wrapSigError(err, "could not verify beacon block header")
			}
		}
		return nil
	}},
}

// ProcessProposerSlashings is one of the operations performed
// on each processed beacon block to slash proposers based on
// slashing conditions if any slashable events occurred.
//
// Pseudocode definition:
//
//	def process_proposer_slashing(state: BeaconState, proposer_slashing: ProposerSlashing) -> None:
//	  header_1 = proposer_slashing.signed_header_1.message
//	  header_2 = proposer_slashing.signed_header_2.message
//
//	  # Verify header slots match
//	  assert header_1.slot == header_2.slot
//	  # Verify header proposer indices match
//	  assert header_1.proposer_index == header_2.proposer_index
//	  # Verify the headers are different
//	  assert header_1 != header_2
//	  # Verify the proposer is slashable
//	  proposer = state.validators[header_1.proposer_index]
//	  assert is_slashable_validator(proposer, get_current_epoch(state))
//	  # Verify signatures
//	  for signed_header in (proposer_slashing.signed_header_1, proposer_slashing.signed_header_2):
//	      domain = get_domain(state, DOMAIN_BEACON_PROPOSER, compute_epoch_at_slot(signed_header.message.slot))
//	      signing_root = compute_signing_root(signed_header.message, domain)
//	      assert bls.Verify(proposer.pubkey, signing_root, signed_header.signature)
//
//	  slash_validator(state, header_1.proposer_index)
func ProcessProposerSlashings(
	ctx context.Context,
	beaconState state.BeaconState,
	slashings []*ethpb.ProposerSlashing,
) (state.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "blocks.ProcessProposerSlashings")
	defer span.End()

	maxSlashings := beaconState.Config().MaxProposerSlashings
	if uint64(len(slashings)) > maxSlashings {
		return nil, opError(ProposerSlashingOp, ListIndex,
			errors.Wrapf(ErrTooManyOperations, "%d > %d", len(slashings), maxSlashings))
	}
	seen := make(map[types.ValidatorIndex]bool, len(slashings))
	for idx, slashing := range slashings {
		if slashing != nil && slashing.Header_1 != nil && slashing.Header_1.Header != nil {
			pIdx := slashing.Header_1.Header.ProposerIndex
			if seen[pIdx] {
				return nil, opError(ProposerSlashingOp, idx, errors.Wrapf(ErrDuplicateIndices, "proposer %d", pIdx))
			}
			seen[pIdx] = true
		}
	}

	var err error
	for idx, slashing := range slashings {
		beaconState, err = ProcessProposerSlashing(ctx, beaconState, slashing)
		if err != nil {
			return nil, opError(ProposerSlashingOp, idx, err)
		}
	}
	return beaconState, nil
}

// ProcessProposerSlashing processes individual proposer slashing.
func ProcessProposerSlashing(
	ctx context.Context,
	beaconState state.BeaconState,
	slashing *ethpb.ProposerSlashing,
) (state.BeaconState, error) {
	if err := VerifyProposerSlashing(ctx, beaconState, slashing); err != nil {
		return nil, err
	}
	beaconState, err := validators.SlashValidator(ctx, beaconState, slashing.Header_1.Header.ProposerIndex)
	if err != nil {
		return nil, errors.Wrapf(err, "could not slash proposer index %d", slashing.Header_1.Header.ProposerIndex)
	}
	return beaconState, nil
}

// VerifyProposerSlashing verifies that the data provided from slashing is valid.
func VerifyProposerSlashing(
	ctx context.Context,
	beaconState state.ReadOnlyBeaconState,
	slashing *ethpb.ProposerSlashing,
) error {
	return verifyConditions(ctx, beaconState, slashing, proposerSlashingConditions)
}

// wrapSigError keeps signature failures matchable as signing.ErrSigFailedToVerify, including
// signatures and keys that do not deserialize.
func wrapSigError(err error, msg string) error {
	if errors.Is(err, signing.ErrSigFailedToVerify) {
		return errors.Wrap(err, msg)
	}
	return errors.Wrapf(signing.ErrSigFailedToVerify, "%s: %v", msg, err)
}
