package util

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/transition"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/go-bitfield"
)

// HydrateAttestation hydrates an attestation object with correct field length sizes
// to comply with fssz marshalling and unmarshalling rules.
func HydrateAttestation(a *ethpb.Attestation) *ethpb.Attestation {
	if a.Signature == nil {
		a.Signature = make([]byte, 96)
	}
	if a.AggregationBits == nil {
		a.AggregationBits = make([]byte, 1)
	}
	if a.Data == nil {
		a.Data = &ethpb.AttestationData{}
	}
	a.Data = HydrateAttestationData(a.Data)
	return a
}

// HydrateAttestationData hydrates an attestation data object with correct field length sizes
// to comply with fssz marshalling and unmarshalling rules.
func HydrateAttestationData(d *ethpb.AttestationData) *ethpb.AttestationData {
	if d.BeaconBlockRoot == nil {
		d.BeaconBlockRoot = make([]byte, 32)
	}
	if d.Target == nil {
		d.Target = &ethpb.Checkpoint{}
	}
	if d.Target.Root == nil {
		d.Target.Root = make([]byte, 32)
	}
	if d.Source == nil {
		d.Source = &ethpb.Checkpoint{}
	}
	if d.Source.Root == nil {
		d.Source.Root = make([]byte, 32)
	}
	return d
}

// HydrateIndexedAttestation hydrates an indexed attestation with correct field length sizes
// to comply with fssz marshalling and unmarshalling rules.
func HydrateIndexedAttestation(a *ethpb.IndexedAttestation) *ethpb.IndexedAttestation {
	if a.Signature == nil {
		a.Signature = make([]byte, 96)
	}
	if a.Data == nil {
		a.Data = &ethpb.AttestationData{}
	}
	a.Data = HydrateAttestationData(a.Data)
	return a
}

// GenerateAttestations creates attestations that are entirely valid, for all
// the committees of the current state slot. This function expects attestations
// requested to be cleanly divisible by committees per slot. If there is 1 committee
// in the slot, and numToGen is set to 4, then it will return 4 attestations
// for the same data with their aggregation bits split uniformly.
//
// The attestations are meant for a block one slot after the attested slot, so the
// source checkpoint is taken from the state at that slot.
func GenerateAttestations(
	bState state.BeaconState,
	privs []bls.SecretKey,
	numToGen uint64,
	slot types.Slot,
	randomRoot bool,
) ([]*ethpb.Attestation, error) {
	ctx := context.Background()
	cfg := bState.Config()

	headState := bState
	if slot >= bState.Slot() {
		var err error
		headState, err = transition.ProcessSlots(ctx, bState, slot+1)
		if err != nil {
			return nil, errors.Wrap(err, "could not advance state to attestation slot")
		}
	}

	targetEpoch := helpers.SlotToEpoch(cfg, slot)
	headRoot, err := helpers.BlockRootAtSlot(headState, slot)
	if err != nil {
		return nil, err
	}
	targetRoot, err := helpers.BlockRoot(headState, targetEpoch)
	if err != nil {
		return nil, err
	}
	if randomRoot {
		headRoot = bytesutil.PadTo([]byte("random"), 32)
	}
	source := headState.PreviousJustifiedCheckpoint()
	if targetEpoch == helpers.CurrentEpoch(headState) {
		source = headState.CurrentJustifiedCheckpoint()
	}

	activeValidatorCount, err := helpers.ActiveValidatorCount(ctx, headState, targetEpoch)
	if err != nil {
		return nil, err
	}
	committeesPerSlot := helpers.SlotCommitteeCount(cfg, activeValidatorCount)
	if numToGen < committeesPerSlot {
		committeesPerSlot = numToGen
	}
	if numToGen%committeesPerSlot != 0 {
		return nil, errors.Errorf("requested %d attestations, not divisible by %d committees", numToGen, committeesPerSlot)
	}
	attsPerCommittee := numToGen / committeesPerSlot

	domain, err := signing.Domain(headState.Fork(), targetEpoch, cfg.DomainBeaconAttester, headState.GenesisValidatorsRoot())
	if err != nil {
		return nil, err
	}

	var attestations []*ethpb.Attestation
	for c := types.CommitteeIndex(0); uint64(c) < committeesPerSlot; c++ {
		committee, err := helpers.BeaconCommitteeFromState(ctx, headState, slot, c)
		if err != nil {
			return nil, err
		}
		attData := &ethpb.AttestationData{
			Slot:            slot,
			CommitteeIndex:  c,
			BeaconBlockRoot: headRoot,
			Source:          ethpb.CopyCheckpoint(source),
			Target: &ethpb.Checkpoint{
				Epoch: targetEpoch,
				Root:  targetRoot,
			},
		}
		dataRoot, err := signing.ComputeSigningRoot(attData, domain)
		if err != nil {
			return nil, err
		}

		committeeSize := uint64(len(committee))
		bitsPerAtt := committeeSize / attsPerCommittee
		if bitsPerAtt == 0 {
			bitsPerAtt = 1
		}
		for k := uint64(0); k < attsPerCommittee; k++ {
			start := k * bitsPerAtt
			if start >= committeeSize {
				break
			}
			end := start + bitsPerAtt
			// The last attestation of a committee takes the remaining members.
			if k == attsPerCommittee-1 || end > committeeSize {
				end = committeeSize
			}
			aggregationBits := bitfield.NewBitlist(committeeSize)
			sigs := make([]bls.Signature, 0, end-start)
			for b := start; b < end; b++ {
				if uint64(committee[b]) >= uint64(len(privs)) {
					return nil, errors.Errorf("no private key for validator %d", committee[b])
				}
				aggregationBits.SetBitAt(b, true)
				sigs = append(sigs, privs[committee[b]].Sign(dataRoot[:]))
			}
			attestations = append(attestations, &ethpb.Attestation{
				Data:            attData,
				AggregationBits: aggregationBits,
				Signature:       bls.AggregateSignatures(sigs).Marshal(),
			})
		}
	}
	return attestations, nil
}
