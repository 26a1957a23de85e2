package state_native

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native/types"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/stateutil"
	"github.com/prysmaticlabs/beacon-transition/encoding/ssz"
)

// rootSelector computes the merkle root of a single state field. The caller holds the lock.
func (b *BeaconState) rootSelector(field types.FieldIndex) ([32]byte, error) {
	switch field {
	case types.GenesisTime:
		return ssz.Uint64Root(b.genesisTime), nil
	case types.GenesisValidatorsRoot:
		return b.genesisValidatorsRoot, nil
	case types.Slot:
		return ssz.Uint64Root(uint64(b.slot)), nil
	case types.Fork:
		return b.fork.HashTreeRoot()
	case types.LatestBlockHeader:
		return b.latestBlockHeader.HashTreeRoot()
	case types.BlockRoots:
		return stateutil.RootsArrayHashTreeRoot(b.blockRoots, uint64(b.cfg.SlotsPerHistoricalRoot))
	case types.StateRoots:
		return stateutil.RootsArrayHashTreeRoot(b.stateRoots, uint64(b.cfg.SlotsPerHistoricalRoot))
	case types.HistoricalRoots:
		return stateutil.HistoricalRootsRoot(b.historicalRoots, b.cfg.HistoricalRootsLimit)
	case types.Eth1Data:
		return b.eth1Data.HashTreeRoot()
	case types.Eth1DataVotes:
		return stateutil.Eth1DataVotesRoot(b.eth1DataVotes, b.cfg.SlotsPerEth1VotingPeriod())
	case types.Eth1DepositIndex:
		return ssz.Uint64Root(b.eth1DepositIndex), nil
	case types.Validators:
		return stateutil.ValidatorRegistryRoot(b.validators, b.cfg.ValidatorRegistryLimit)
	case types.Balances:
		return stateutil.BalancesRoot(b.balances, b.cfg.ValidatorRegistryLimit)
	case types.RandaoMixes:
		return stateutil.RootsArrayHashTreeRoot(b.randaoMixes, uint64(b.cfg.EpochsPerHistoricalVector))
	case types.Slashings:
		return stateutil.SlashingsRoot(b.slashings), nil
	case types.PreviousEpochAttestations:
		return stateutil.EpochAttestationsRoot(b.previousEpochAttestations, b.cfg.MaxPendingAttestations())
	case types.CurrentEpochAttestations:
		return stateutil.EpochAttestationsRoot(b.currentEpochAttestations, b.cfg.MaxPendingAttestations())
	case types.JustificationBits:
		return stateutil.JustificationBitsRoot(b.justificationBits), nil
	case types.PreviousJustifiedCheckpoint:
		return b.previousJustifiedCheckpoint.HashTreeRoot()
	case types.CurrentJustifiedCheckpoint:
		return b.currentJustifiedCheckpoint.HashTreeRoot()
	case types.FinalizedCheckpoint:
		return b.finalizedCheckpoint.HashTreeRoot()
	}
	return [32]byte{}, errors.Errorf("invalid field index provided %d", field)
}
