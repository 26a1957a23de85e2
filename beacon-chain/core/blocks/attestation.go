package blocks

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1/attestation"
	"go.opencensus.io/trace"
)

// attestationConditions are checked in order against every attestation. The aggregate
// signature is checked separately so that block processing can defer it to a batch.
var attestationConditions = []validityCondition[*ethpb.Attestation]{
	{name: "attestation present", check: func(_ context.Context, _ state.ReadOnlyBeaconState, att *ethpb.Attestation) error {
		return validateNilAttestation(att)
	}},
	{name: "target epoch", check: func(_ context.Context, st state.ReadOnlyBeaconState, att *ethpb.Attestation) error {
		currEpoch := helpers.CurrentEpoch(st)
		prevEpoch := helpers.PrevEpoch(st)
		if att.Data.Target.Epoch != prevEpoch && att.Data.Target.Epoch != currEpoch {
			return errors.Wrapf(ErrWrongTarget,
				"expected target epoch (%d) to be the previous epoch (%d) or the current epoch (%d)",
				att.Data.Target.Epoch, prevEpoch, currEpoch)
		}
		return nil
	}},
	{name: "target matches slot", check: func(_ context.Context, st state.ReadOnlyBeaconState, att *ethpb.Attestation) error {
		slotEpoch := helpers.SlotToEpoch(st.Config(), att.Data.Slot)
		if att.Data.Target.Epoch != slotEpoch {
			return errors.Wrapf(ErrWrongTarget, "slot %d does not match target epoch %d", att.Data.Slot, att.Data.Target.Epoch)
		}
		return nil
	}},
	{name: "inclusion window", check: func(_ context.Context, st state.ReadOnlyBeaconState, att *ethpb.Attestation) error {
		cfg := st.Config()
		s := att.Data.Slot
		earliest, err := s.SafeAdd(uint64(cfg.MinAttestationInclusionDelay))
		if err != nil {
			return errors.Wrap(ErrInclusionWindow, err.Error())
		}
		if earliest > st.Slot() {
			return errors.Wrapf(ErrInclusionWindow,
				"attestation slot %d + inclusion delay %d > state slot %d",
				s, cfg.MinAttestationInclusionDelay, st.Slot())
		}
		latest, err := s.SafeAdd(uint64(cfg.SlotsPerEpoch))
		if err != nil {
			return errors.Wrap(ErrInclusionWindow, err.Error())
		}
		if st.Slot() > latest {
			return errors.Wrapf(ErrInclusionWindow,
				"state slot %d > attestation slot %d + SLOTS_PER_EPOCH %d",
				st.Slot(), s, cfg.SlotsPerEpoch)
		}
		return nil
	}},
	{name: "committee index", check: func(ctx context.Context, st state.ReadOnlyBeaconState, att *ethpb.Attestation) error {
		activeValidatorCount, err := helpers.ActiveValidatorCount(ctx, st, att.Data.Target.Epoch)
		if err != nil {
			return err
		}
		c := helpers.SlotCommitteeCount(st.Config(), activeValidatorCount)
		if uint64(att.Data.CommitteeIndex) >= c {
			return errors.Wrapf(ErrInvalidCommitteeIndex, "committee index %d >= committee count %d", att.Data.CommitteeIndex, c)
		}
		return nil
	}},
	{name: "source checkpoint", check: func(_ context.Context, st state.ReadOnlyBeaconState, att *ethpb.Attestation) error {
		if att.Data.Target.Epoch == helpers.CurrentEpoch(st) {
			if !att.Data.Source.Equals(st.CurrentJustifiedCheckpoint()) {
				return errors.Wrap(ErrWrongSource, "source check point not equal to current justified checkpoint")
			}
			return nil
		}
		if !att.Data.Source.Equals(st.PreviousJustifiedCheckpoint()) {
			return errors.Wrap(ErrWrongSource, "source check point not equal to previous justified checkpoint")
		}
		return nil
	}},
	{name: "aggregation bits", check: func(ctx context.Context, st state.ReadOnlyBeaconState, att *ethpb.Attestation) error {
		committee, err := helpers.BeaconCommitteeFromState(ctx, st, att.Data.Slot, att.Data.CommitteeIndex)
		if err != nil {
			return err
		}
		if att.AggregationBits.Len() != uint64(len(committee)) {
			return errors.Wrapf(ErrBitfieldLength, "wanted participants bitfield length %d, got: %d",
				len(committee), att.AggregationBits.Len())
		}
		return nil
	}},
	{name: "attesting indices", check: func(ctx context.Context, st state.ReadOnlyBeaconState, att *ethpb.Attestation) error {
		committee, err := helpers.BeaconCommitteeFromState(ctx, st, att.Data.Slot, att.Data.CommitteeIndex)
		if err != nil {
			return err
		}
		indexedAtt, err := attestation.ConvertToIndexed(ctx, att, committee)
		if err != nil {
			return errors.Wrap(ErrInvalidIndexedAttestation, err.Error())
		}
		if err := attestation.IsValidAttestationIndices(ctx, indexedAtt, st.Config().MaxValidatorsPerCommittee); err != nil {
			return errors.Wrap(ErrInvalidIndexedAttestation, err.Error())
		}
		return nil
	}},
}

func validateNilAttestation(att *ethpb.Attestation) error {
	if att == nil {
		return errors.Wrap(ErrNilOperation, "attestation can't be nil")
	}
	if att.Data == nil {
		return errors.Wrap(ErrNilOperation, "attestation's data can't be nil")
	}
	if att.Data.Source == nil {
		return errors.Wrap(ErrNilOperation, "attestation's source can't be nil")
	}
	if att.Data.Target == nil {
		return errors.Wrap(ErrNilOperation, "attestation's target can't be nil")
	}
	if att.AggregationBits == nil {
		return errors.Wrap(ErrNilOperation, "attestation's bitfield can't be nil")
	}
	return nil
}

// ProcessAttestations applies processing operations to a block's inner attestation
// records.
func ProcessAttestations(
	ctx context.Context,
	beaconState state.BeaconState,
	atts []*ethpb.Attestation,
) (state.BeaconState, error) {
	return processAttestations(ctx, beaconState, atts, true)
}

// ProcessAttestationsNoVerifySignature applies processing operations to a block's inner attestation
// records. The only difference would be that the attestation signature would not be verified.
func ProcessAttestationsNoVerifySignature(
	ctx context.Context,
	beaconState state.BeaconState,
	atts []*ethpb.Attestation,
) (state.BeaconState, error) {
	return processAttestations(ctx, beaconState, atts, false)
}

func processAttestations(
	ctx context.Context,
	beaconState state.BeaconState,
	atts []*ethpb.Attestation,
	verifySig bool,
) (state.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "blocks.ProcessAttestations")
	defer span.End()

	maxAtts := beaconState.Config().MaxAttestations
	if uint64(len(atts)) > maxAtts {
		return nil, opError(AttestationOp, ListIndex,
			errors.Wrapf(ErrTooManyOperations, "%d > %d", len(atts), maxAtts))
	}
	var err error
	for idx, att := range atts {
		if verifySig {
			beaconState, err = ProcessAttestation(ctx, beaconState, att)
		} else {
			beaconState, err = ProcessAttestationNoVerifySignature(ctx, beaconState, att)
		}
		if err != nil {
			return nil, opError(AttestationOp, idx, err)
		}
	}
	return beaconState, nil
}

// ProcessAttestation verifies an input attestation can pass through processing using the given beacon state.
//
// Pseudocode definition:
//
//	def process_attestation(state: BeaconState, attestation: Attestation) -> None:
//	  data = attestation.data
//	  assert data.target.epoch in (get_previous_epoch(state), get_current_epoch(state))
//	  assert data.target.epoch == compute_epoch_at_slot(data.slot)
//	  assert data.slot + MIN_ATTESTATION_INCLUSION_DELAY <= state.slot <= data.slot + SLOTS_PER_EPOCH
//	  assert data.index < get_committee_count_per_slot(state, data.target.epoch)
//
//	  committee = get_beacon_committee(state, data.slot, data.index)
//	  assert len(attestation.aggregation_bits) == len(committee)
//
//	  pending_attestation = PendingAttestation(
//	      data=data,
//	      aggregation_bits=attestation.aggregation_bits,
//	      inclusion_delay=state.slot - data.slot,
//	      proposer_index=get_beacon_proposer_index(state),
//	  )
//
//	  if data.target.epoch == get_current_epoch(state):
//	      assert data.source == state.current_justified_checkpoint
//	      state.current_epoch_attestations.append(pending_attestation)
//	  else:
//	      assert data.source == state.previous_justified_checkpoint
//	      state.previous_epoch_attestations.append(pending_attestation)
//
//	  # Verify signature
//	  assert is_valid_indexed_attestation(state, get_indexed_attestation(state, attestation))
func ProcessAttestation(
	ctx context.Context,
	beaconState state.BeaconState,
	att *ethpb.Attestation,
) (state.BeaconState, error) {
	if err := VerifyAttestationNoVerifySignature(ctx, beaconState, att); err != nil {
		return nil, err
	}
	if err := VerifyAttestationSignature(ctx, beaconState, att); err != nil {
		return nil, err
	}
	return appendPendingAttestation(ctx, beaconState, att)
}

// VerifyAttestationNoVerifySignature verifies the attestation without verifying the attestation signature. This is
// used before processing attestation with the beacon state.
func VerifyAttestationNoVerifySignature(
	ctx context.Context,
	beaconState state.ReadOnlyBeaconState,
	att *ethpb.Attestation,
) error {
	ctx, span := trace.StartSpan(ctx, "blocks.VerifyAttestationNoVerifySignature")
	defer span.End()

	return verifyConditions(ctx, beaconState, att, attestationConditions)
}

// ProcessAttestationNoVerifySignature processes the attestation without verifying the attestation signature. This
// method is used to validate attestations whose signatures have already been verified.
func ProcessAttestationNoVerifySignature(
	ctx context.Context,
	beaconState state.BeaconState,
	att *ethpb.Attestation,
) (state.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "blocks.ProcessAttestationNoVerifySignature")
	defer span.End()

	if err := VerifyAttestationNoVerifySignature(ctx, beaconState, att); err != nil {
		return nil, err
	}
	return appendPendingAttestation(ctx, beaconState, att)
}

func appendPendingAttestation(ctx context.Context, beaconState state.BeaconState, att *ethpb.Attestation) (state.BeaconState, error) {
	proposerIndex, err := helpers.BeaconProposerIndex(ctx, beaconState)
	if err != nil {
		return nil, err
	}
	pendingAtt := &ethpb.PendingAttestation{
		Data:            att.Data,
		AggregationBits: att.AggregationBits,
		InclusionDelay:  beaconState.Slot() - att.Data.Slot,
		ProposerIndex:   proposerIndex,
	}

	if att.Data.Target.Epoch == helpers.CurrentEpoch(beaconState) {
		if err := beaconState.AppendCurrentEpochAttestations(pendingAtt); err != nil {
			return nil, err
		}
	} else {
		if err := beaconState.AppendPreviousEpochAttestations(pendingAtt); err != nil {
			return nil, err
		}
	}
	return beaconState, nil
}

// VerifyAttestationSignature converts and attestation into an indexed attestation and verifies
// the signature in that attestation.
func VerifyAttestationSignature(ctx context.Context, beaconState state.ReadOnlyBeaconState, att *ethpb.Attestation) error {
	if err := validateNilAttestation(att); err != nil {
		return err
	}
	committee, err := helpers.BeaconCommitteeFromState(ctx, beaconState, att.Data.Slot, att.Data.CommitteeIndex)
	if err != nil {
		return err
	}
	indexedAtt, err := attestation.ConvertToIndexed(ctx, att, committee)
	if err != nil {
		return errors.Wrap(ErrInvalidIndexedAttestation, err.Error())
	}
	return VerifyIndexedAttestation(ctx, beaconState, indexedAtt)
}

// VerifyIndexedAttestation determines the validity of an indexed attestation.
//
// Pseudocode definition:
//
//	def is_valid_indexed_attestation(state: BeaconState, indexed_attestation: IndexedAttestation) -> bool:
//	  """
//	  Check if `indexed_attestation` is not empty, has sorted and unique indices and has a valid aggregate signature.
//	  """
//	  # Verify indices are sorted and unique
//	  indices = indexed_attestation.attesting_indices
//	  if len(indices) == 0 or not indices == sorted(set(indices)):
//	      return False
//	  # Verify aggregate signature
//	  pubkeys = [state.validators[i].pubkey for i in indices]
//	  domain = get_domain(state, DOMAIN_BEACON_ATTESTER, indexed_attestation.data.target.epoch)
//	  signing_root = compute_signing_root(indexed_attestation.data, domain)
//	  return bls.FastAggregateVerify(pubkeys, signing_root, indexed_attestation.signature)
func VerifyIndexedAttestation(ctx context.Context, beaconState state.ReadOnlyBeaconState, indexedAtt *ethpb.IndexedAttestation) error {
	ctx, span := trace.StartSpan(ctx, "blocks.VerifyIndexedAttestation")
	defer span.End()

	if err := attestation.IsValidAttestationIndices(ctx, indexedAtt, beaconState.Config().MaxValidatorsPerCommittee); err != nil {
		return errors.Wrap(ErrInvalidIndexedAttestation, err.Error())
	}
	numVals := uint64(beaconState.NumValidators())
	for _, i := range indexedAtt.AttestingIndices {
		if i >= numVals {
			return errors.Wrapf(ErrInvalidIndexedAttestation, "attesting index %d does not exist", i)
		}
	}
	domain, err := signing.Domain(beaconState.Fork(), indexedAtt.Data.Target.Epoch, beaconState.Config().DomainBeaconAttester, beaconState.GenesisValidatorsRoot())
	if err != nil {
		return err
	}
	indices := indexedAtt.AttestingIndices
	pubkeys := make([]bls.PublicKey, 0, len(indices))
	for i := 0; i < len(indices); i++ {
		pubkeyAtIdx := beaconState.PubkeyAtIndex(types.ValidatorIndex(indices[i]))
		pk, err := bls.PublicKeyFromBytes(pubkeyAtIdx[:])
		if err != nil {
			return wrapSigError(err, "could not deserialize validator public key")
		}
		pubkeys = append(pubkeys, pk)
	}
	if err := attestation.VerifyIndexedAttestationSig(ctx, indexedAtt, pubkeys, domain); err != nil {
		return wrapSigError(err, "could not verify indexed attestation")
	}
	return nil
}
