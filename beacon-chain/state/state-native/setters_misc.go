package state_native

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native/types"
	primitives "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

// SetGenesisTime for the beacon state.
func (b *BeaconState) SetGenesisTime(val uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.genesisTime = val
	b.markFieldAsDirty(types.GenesisTime)
	return nil
}

// SetGenesisValidatorsRoot for the beacon state.
func (b *BeaconState) SetGenesisValidatorsRoot(val []byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if len(val) != 32 {
		return errors.New("incorrect validators root length")
	}
	b.genesisValidatorsRoot = bytesutil.ToBytes32(val)
	b.markFieldAsDirty(types.GenesisValidatorsRoot)
	return nil
}

// SetSlot for the beacon state.
func (b *BeaconState) SetSlot(val primitives.Slot) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.slot = val
	b.markFieldAsDirty(types.Slot)
	return nil
}

// SetFork version for the beacon chain.
func (b *BeaconState) SetFork(val *ethpb.Fork) error {
	if val == nil {
		return errors.New("nil fork")
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	b.fork = ethpb.CopyFork(val)
	b.markFieldAsDirty(types.Fork)
	return nil
}

// SetHistoricalRoots for the beacon state. Updates the entire
// list to a new value by overwriting the previous one.
func (b *BeaconState) SetHistoricalRoots(val [][]byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.replace(types.HistoricalRoots)
	b.historicalRoots = toRoots(val)
	b.markFieldAsDirty(types.HistoricalRoots)
	return nil
}

// AppendHistoricalRoots for the beacon state. Appends the new value
// to the end of list.
func (b *BeaconState) AppendHistoricalRoots(root [32]byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	roots := b.historicalRoots
	if b.detach(types.HistoricalRoots) {
		roots = make([][32]byte, len(b.historicalRoots), len(b.historicalRoots)+1)
		copy(roots, b.historicalRoots)
	}
	b.historicalRoots = append(roots, root)
	b.markFieldAsDirty(types.HistoricalRoots)
	return nil
}

// SetEth1Data for the beacon state.
func (b *BeaconState) SetEth1Data(val *ethpb.Eth1Data) error {
	if val == nil {
		return errors.New("nil eth1 data")
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	b.eth1Data = ethpb.CopyETH1Data(val)
	b.markFieldAsDirty(types.Eth1Data)
	return nil
}

// SetEth1DataVotes for the beacon state. Updates the entire
// list to a new value by overwriting the previous one.
func (b *BeaconState) SetEth1DataVotes(val []*ethpb.Eth1Data) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.replace(types.Eth1DataVotes)
	b.eth1DataVotes = val
	b.markFieldAsDirty(types.Eth1DataVotes)
	return nil
}

// AppendEth1DataVotes for the beacon state. Appends the new value
// to the end of list.
func (b *BeaconState) AppendEth1DataVotes(val *ethpb.Eth1Data) error {
	if val == nil {
		return errors.New("nil eth1 data vote")
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	votes := b.eth1DataVotes
	if b.detach(types.Eth1DataVotes) {
		votes = make([]*ethpb.Eth1Data, len(b.eth1DataVotes), len(b.eth1DataVotes)+1)
		copy(votes, b.eth1DataVotes)
	}
	b.eth1DataVotes = append(votes, ethpb.CopyETH1Data(val))
	b.markFieldAsDirty(types.Eth1DataVotes)
	return nil
}

// SetEth1DepositIndex for the beacon state.
func (b *BeaconState) SetEth1DepositIndex(val uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.eth1DepositIndex = val
	b.markFieldAsDirty(types.Eth1DepositIndex)
	return nil
}

// SetSlashings for the beacon state. Updates the entire
// list to a new value by overwriting the previous one.
func (b *BeaconState) SetSlashings(val []uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if uint64(len(val)) != uint64(b.cfg.EpochsPerSlashingsVector) {
		return errors.Errorf("slashings length %d does not match %d", len(val), b.cfg.EpochsPerSlashingsVector)
	}
	b.replace(types.Slashings)
	b.slashings = val
	b.markFieldAsDirty(types.Slashings)
	return nil
}

// UpdateSlashingsAtIndex for the beacon state. Updates the slashings
// at a specific index to a new value.
func (b *BeaconState) UpdateSlashingsAtIndex(idx, val uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if uint64(len(b.slashings)) <= idx {
		return errors.Wrapf(state.ErrOutOfBounds, "slashings index %d does not exist", idx)
	}
	s := b.slashings
	if b.detach(types.Slashings) {
		s = make([]uint64, len(b.slashings))
		copy(s, b.slashings)
	}
	s[idx] = val
	b.slashings = s
	b.markFieldAsDirty(types.Slashings)
	return nil
}
