package blocks

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/validators"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1/slashings"
	"go.opencensus.io/trace"
	"golang.org/x/exp/slices"
)

// attesterSlashingConditions are checked in order against every attester slashing.
var attesterSlashingConditions = []validityCondition[*ethpb.AttesterSlashing]{
	{name: "attestations present", check: func(_ context.Context, _ state.ReadOnlyBeaconState, s *ethpb.AttesterSlashing) error {
		if s == nil || s.Attestation_1 == nil || s.Attestation_2 == nil {
			return ErrNilOperation
		}
		if s.Attestation_1.Data == nil || s.Attestation_2.Data == nil {
			return ErrNilOperation
		}
		return nil
	}},
	{name: "attestation data slashable", check: func(_ context.Context, _ state.ReadOnlyBeaconState, s *ethpb.AttesterSlashing) error {
		if !slashings.IsSlashableAttestationData(s.Attestation_1.Data, s.Attestation_2.Data) {
			return errors.Wrap(ErrNotSlashable, "attestations are not slashable")
		}
		return nil
	}},
	{name: "first attestation valid", check: func(ctx context.Context, st state.ReadOnlyBeaconState, s *ethpb.AttesterSlashing) error {
		return VerifyIndexedAttestation(ctx, st, s.Attestation_1)
	}},
	{name: "second attestation valid", check: func(ctx context.Context, st state.ReadOnlyBeaconState, s *ethpb.AttesterSlashing) error {
		return VerifyIndexedAttestation(ctx, st, s.Attestation_2)
	}},
}

// ProcessAttesterSlashings is one of the operations performed
// on each processed beacon block to slash attesters based on
// Casper FFG slashing conditions if any slashable events occurred.
//
// Pseudocode definition:
//
//	def process_attester_slashing(state: BeaconState, attester_slashing: AttesterSlashing) -> None:
//	  attestation_1 = attester_slashing.attestation_1
//	  attestation_2 = attester_slashing.attestation_2
//	  assert is_slashable_attestation_data(attestation_1.data, attestation_2.data)
//	  assert is_valid_indexed_attestation(state, attestation_1)
//	  assert is_valid_indexed_attestation(state, attestation_2)
//
//	  slashed_any = False
//	  indices = set(attestation_1.attesting_indices).intersection(attestation_2.attesting_indices)
//	  for index in sorted(indices):
//	      if is_slashable_validator(state.validators[index], get_current_epoch(state)):
//	          slash_validator(state, index)
//	          slashed_any = True
//	  assert slashed_any
func ProcessAttesterSlashings(
	ctx context.Context,
	beaconState state.BeaconState,
	attSlashings []*ethpb.AttesterSlashing,
) (state.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "blocks.ProcessAttesterSlashings")
	defer span.End()

	maxSlashings := beaconState.Config().MaxAttesterSlashings
	if uint64(len(attSlashings)) > maxSlashings {
		return nil, opError(AttesterSlashingOp, ListIndex,
			errors.Wrapf(ErrTooManyOperations, "%d > %d", len(attSlashings), maxSlashings))
	}
	var err error
	for idx, slashing := range attSlashings {
		beaconState, err = ProcessAttesterSlashing(ctx, beaconState, slashing)
		if err != nil {
			return nil, opError(AttesterSlashingOp, idx, err)
		}
	}
	return beaconState, nil
}

// ProcessAttesterSlashing processes individual attester slashing.
func ProcessAttesterSlashing(
	ctx context.Context,
	beaconState state.BeaconState,
	slashing *ethpb.AttesterSlashing,
) (state.BeaconState, error) {
	if err := VerifyAttesterSlashing(ctx, beaconState, slashing); err != nil {
		return nil, errors.Wrap(err, "could not verify attester slashing")
	}
	slashableIndices := SlashableAttesterIndices(slashing)
	currentEpoch := helpers.CurrentEpoch(beaconState)
	var slashedAny, sawSlashed bool
	for _, validatorIndex := range slashableIndices {
		val, err := beaconState.ValidatorAtIndexReadOnly(validatorIndex)
		if err != nil {
			return nil, err
		}
		if val.Slashed() {
			sawSlashed = true
		}
		if helpers.IsSlashableValidatorUsingTrie(val, currentEpoch) {
			beaconState, err = validators.SlashValidator(ctx, beaconState, validatorIndex)
			if err != nil {
				return nil, errors.Wrapf(err, "could not slash validator index %d", validatorIndex)
			}
			slashedAny = true
		}
	}
	if !slashedAny {
		if sawSlashed {
			return nil, errors.Wrap(ErrAlreadySlashed, "unable to slash any validator despite confirmed attester slashing")
		}
		return nil, errors.Wrap(ErrNotSlashable, "unable to slash any validator despite confirmed attester slashing")
	}
	return beaconState, nil
}

// VerifyAttesterSlashing validates the attestation data in both attestations in the slashing object.
func VerifyAttesterSlashing(ctx context.Context, beaconState state.ReadOnlyBeaconState, slashing *ethpb.AttesterSlashing) error {
	return verifyConditions(ctx, beaconState, slashing, attesterSlashingConditions)
}

// SlashableAttesterIndices returns the sorted intersection of the attesting indices of both
// attestations in the slashing.
func SlashableAttesterIndices(slashing *ethpb.AttesterSlashing) []types.ValidatorIndex {
	if slashing == nil || slashing.Attestation_1 == nil || slashing.Attestation_2 == nil {
		return nil
	}
	inFirst := make(map[uint64]bool, len(slashing.Attestation_1.AttestingIndices))
	for _, i := range slashing.Attestation_1.AttestingIndices {
		inFirst[i] = true
	}
	seen := make(map[uint64]bool, len(slashing.Attestation_2.AttestingIndices))
	indices := make([]types.ValidatorIndex, 0)
	for _, i := range slashing.Attestation_2.AttestingIndices {
		if inFirst[i] && !seen[i] {
			seen[i] = true
			indices = append(indices, types.ValidatorIndex(i))
		}
	}
	slices.Sort(indices)
	return indices
}
