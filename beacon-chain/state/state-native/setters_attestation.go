package state_native

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native/types"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/go-bitfield"
)

// SetPreviousEpochAttestations for the beacon state. Updates the entire
// list to a new value by overwriting the previous one.
func (b *BeaconState) SetPreviousEpochAttestations(val []*ethpb.PendingAttestation) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.replace(types.PreviousEpochAttestations)
	b.previousEpochAttestations = val
	b.markFieldAsDirty(types.PreviousEpochAttestations)
	return nil
}

// SetCurrentEpochAttestations for the beacon state. Updates the entire
// list to a new value by overwriting the previous one.
func (b *BeaconState) SetCurrentEpochAttestations(val []*ethpb.PendingAttestation) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.replace(types.CurrentEpochAttestations)
	b.currentEpochAttestations = val
	b.markFieldAsDirty(types.CurrentEpochAttestations)
	return nil
}

// AppendCurrentEpochAttestations for the beacon state. Appends the new value
// to the end of list.
func (b *BeaconState) AppendCurrentEpochAttestations(val *ethpb.PendingAttestation) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	atts, err := b.appendPendingAttestation(types.CurrentEpochAttestations, b.currentEpochAttestations, val)
	if err != nil {
		return err
	}
	b.currentEpochAttestations = atts
	return nil
}

// AppendPreviousEpochAttestations for the beacon state. Appends the new value
// to the end of list.
func (b *BeaconState) AppendPreviousEpochAttestations(val *ethpb.PendingAttestation) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	atts, err := b.appendPendingAttestation(types.PreviousEpochAttestations, b.previousEpochAttestations, val)
	if err != nil {
		return err
	}
	b.previousEpochAttestations = atts
	return nil
}

func (b *BeaconState) appendPendingAttestation(field types.FieldIndex, atts []*ethpb.PendingAttestation, val *ethpb.PendingAttestation) ([]*ethpb.PendingAttestation, error) {
	if val == nil {
		return nil, errors.New("nil pending attestation")
	}
	if uint64(len(atts)) >= b.cfg.MaxPendingAttestations() {
		return nil, errors.Errorf("%s is full with %d entries", field, len(atts))
	}
	res := atts
	if b.detach(field) {
		res = make([]*ethpb.PendingAttestation, len(atts), len(atts)+1)
		copy(res, atts)
	}
	b.markFieldAsDirty(field)
	return append(res, ethpb.CopyPendingAttestation(val)), nil
}

// SetJustificationBits for the beacon state.
func (b *BeaconState) SetJustificationBits(val bitfield.Bitvector4) error {
	if len(val) != 1 {
		return errors.Errorf("justification bits must be 1 byte, received %d", len(val))
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	b.justificationBits = bitfield.Bitvector4{val[0]}
	b.markFieldAsDirty(types.JustificationBits)
	return nil
}

// SetPreviousJustifiedCheckpoint for the beacon state.
func (b *BeaconState) SetPreviousJustifiedCheckpoint(val *ethpb.Checkpoint) error {
	if val == nil {
		return errors.New("nil checkpoint")
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	b.previousJustifiedCheckpoint = ethpb.CopyCheckpoint(val)
	b.markFieldAsDirty(types.PreviousJustifiedCheckpoint)
	return nil
}

// SetCurrentJustifiedCheckpoint for the beacon state.
func (b *BeaconState) SetCurrentJustifiedCheckpoint(val *ethpb.Checkpoint) error {
	if val == nil {
		return errors.New("nil checkpoint")
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	b.currentJustifiedCheckpoint = ethpb.CopyCheckpoint(val)
	b.markFieldAsDirty(types.CurrentJustifiedCheckpoint)
	return nil
}

// SetFinalizedCheckpoint for the beacon state.
func (b *BeaconState) SetFinalizedCheckpoint(val *ethpb.Checkpoint) error {
	if val == nil {
		return errors.New("nil checkpoint")
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	b.finalizedCheckpoint = ethpb.CopyCheckpoint(val)
	b.markFieldAsDirty(types.FinalizedCheckpoint)
	return nil
}
