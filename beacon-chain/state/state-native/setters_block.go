package state_native

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native/types"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

// SetLatestBlockHeader in the beacon state.
func (b *BeaconState) SetLatestBlockHeader(val *ethpb.BeaconBlockHeader) error {
	if val == nil {
		return errors.New("nil block header")
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	b.latestBlockHeader = ethpb.CopyBeaconBlockHeader(val)
	b.markFieldAsDirty(types.LatestBlockHeader)
	return nil
}

// SetBlockRoots for the beacon state. Updates the entire
// list to a new value by overwriting the previous one.
func (b *BeaconState) SetBlockRoots(val [][]byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if uint64(len(val)) != uint64(b.cfg.SlotsPerHistoricalRoot) {
		return errors.Errorf("block roots length %d does not match %d", len(val), b.cfg.SlotsPerHistoricalRoot)
	}
	b.replace(types.BlockRoots)
	b.blockRoots = toRoots(val)
	b.markFieldAsDirty(types.BlockRoots)
	return nil
}

// UpdateBlockRootAtIndex for the beacon state. Updates the block root
// at a specific index to a new value.
func (b *BeaconState) UpdateBlockRootAtIndex(idx uint64, blockRoot [32]byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	roots, err := b.updateRootAtIndex(types.BlockRoots, b.blockRoots, idx, blockRoot)
	if err != nil {
		return err
	}
	b.blockRoots = roots
	return nil
}

// SetStateRoots for the beacon state. Updates the state roots
// to a new value by overwriting the previous value.
func (b *BeaconState) SetStateRoots(val [][]byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if uint64(len(val)) != uint64(b.cfg.SlotsPerHistoricalRoot) {
		return errors.Errorf("state roots length %d does not match %d", len(val), b.cfg.SlotsPerHistoricalRoot)
	}
	b.replace(types.StateRoots)
	b.stateRoots = toRoots(val)
	b.markFieldAsDirty(types.StateRoots)
	return nil
}

// UpdateStateRootAtIndex for the beacon state. Updates the state root
// at a specific index to a new value.
func (b *BeaconState) UpdateStateRootAtIndex(idx uint64, stateRoot [32]byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	roots, err := b.updateRootAtIndex(types.StateRoots, b.stateRoots, idx, stateRoot)
	if err != nil {
		return err
	}
	b.stateRoots = roots
	return nil
}

// SetRandaoMixes for the beacon state. Updates the entire
// randao mixes to a new value by overwriting the previous one.
func (b *BeaconState) SetRandaoMixes(val [][]byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if uint64(len(val)) != uint64(b.cfg.EpochsPerHistoricalVector) {
		return errors.Errorf("randao mixes length %d does not match %d", len(val), b.cfg.EpochsPerHistoricalVector)
	}
	b.replace(types.RandaoMixes)
	b.randaoMixes = toRoots(val)
	b.markFieldAsDirty(types.RandaoMixes)
	return nil
}

// UpdateRandaoMixesAtIndex for the beacon state. Updates the randao mixes
// at a specific index to a new value.
func (b *BeaconState) UpdateRandaoMixesAtIndex(idx uint64, val []byte) error {
	if len(val) != 32 {
		return errors.Errorf("randao mix must be 32 bytes, received %d", len(val))
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	var mix [32]byte
	copy(mix[:], val)
	mixes, err := b.updateRootAtIndex(types.RandaoMixes, b.randaoMixes, idx, mix)
	if err != nil {
		return err
	}
	b.randaoMixes = mixes
	return nil
}

// updateRootAtIndex writes a root into a vector field, copying the vector first when it is
// shared with another state. The caller holds the lock.
func (b *BeaconState) updateRootAtIndex(field types.FieldIndex, roots [][32]byte, idx uint64, val [32]byte) ([][32]byte, error) {
	if uint64(len(roots)) <= idx {
		return nil, errors.Wrapf(state.ErrOutOfBounds, "%s index %d does not exist", field, idx)
	}
	r := roots
	if b.detach(field) {
		r = make([][32]byte, len(roots))
		copy(r, roots)
	}
	r[idx] = val
	b.markFieldAsDirty(field)
	return r, nil
}
