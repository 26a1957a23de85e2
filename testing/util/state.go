package util

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	state_native "github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native"
	fieldparams "github.com/prysmaticlabs/beacon-transition/config/fieldparams"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/go-bitfield"
)

// FillRootsNaturalOpt is meant to be used as an option when calling NewBeaconState.
// It fills state and block roots with hex representations of natural numbers starting with 0.
// Example: 16 becomes 0x00...0f.
func FillRootsNaturalOpt(state *ethpb.BeaconState) error {
	roots, err := prepareRoots(len(state.BlockRoots))
	if err != nil {
		return err
	}
	state.StateRoots = roots
	state.BlockRoots = prepareRootsCopy(roots)
	return nil
}

// NewBeaconState creates a beacon state with minimum marshalable fields. Vector lengths
// follow the given config.
func NewBeaconState(cfg *params.BeaconChainConfig, options ...func(state *ethpb.BeaconState) error) (state.BeaconState, error) {
	if cfg == nil {
		return nil, errors.New("nil beacon chain config")
	}
	seed := &ethpb.BeaconState{
		GenesisTime:           0,
		GenesisValidatorsRoot: make([]byte, 32),
		Slot:                  0,
		Fork: &ethpb.Fork{
			PreviousVersion: make([]byte, 4),
			CurrentVersion:  make([]byte, 4),
		},
		LatestBlockHeader: HydrateBeaconHeader(&ethpb.BeaconBlockHeader{}),
		BlockRoots:        filledByteSlice2D(uint64(cfg.SlotsPerHistoricalRoot), 32),
		StateRoots:        filledByteSlice2D(uint64(cfg.SlotsPerHistoricalRoot), 32),
		HistoricalRoots:   make([][]byte, 0),
		Eth1Data: &ethpb.Eth1Data{
			DepositRoot: make([]byte, fieldparams.RootLength),
			BlockHash:   make([]byte, 32),
		},
		Eth1DataVotes:               make([]*ethpb.Eth1Data, 0),
		Eth1DepositIndex:            0,
		Validators:                  make([]*ethpb.Validator, 0),
		Balances:                    make([]uint64, 0),
		RandaoMixes:                 filledByteSlice2D(uint64(cfg.EpochsPerHistoricalVector), 32),
		Slashings:                   make([]uint64, cfg.EpochsPerSlashingsVector),
		PreviousEpochAttestations:   make([]*ethpb.PendingAttestation, 0),
		CurrentEpochAttestations:    make([]*ethpb.PendingAttestation, 0),
		JustificationBits:           bitfield.Bitvector4{0x0},
		PreviousJustifiedCheckpoint: &ethpb.Checkpoint{Root: make([]byte, fieldparams.RootLength)},
		CurrentJustifiedCheckpoint:  &ethpb.Checkpoint{Root: make([]byte, fieldparams.RootLength)},
		FinalizedCheckpoint:         &ethpb.Checkpoint{Root: make([]byte, fieldparams.RootLength)},
	}

	for _, opt := range options {
		err := opt(seed)
		if err != nil {
			return nil, err
		}
	}

	st, err := state_native.InitializeFromProtoUnsafePhase0(cfg, seed)
	if err != nil {
		return nil, err
	}
	return st.Copy(), nil
}

// SSZ will fill 2D byte slices with their respective values, so we must fill these in too for round
// trip testing.
func filledByteSlice2D(length, innerLen uint64) [][]byte {
	b := make([][]byte, length)
	for i := uint64(0); i < length; i++ {
		b[i] = make([]byte, innerLen)
	}
	return b
}

func prepareRoots(rootsLen int) ([][]byte, error) {
	roots := make([][]byte, rootsLen)
	for j := 0; j < len(roots); j++ {
		// Remove '0x' prefix and left-pad '0' to have 64 chars in total.
		s := fmt.Sprintf("%064s", hexutil.EncodeUint64(uint64(j))[2:])
		h, err := hexutil.Decode("0x" + s)
		if err != nil {
			return nil, err
		}
		roots[j] = h
	}
	return roots, nil
}

func prepareRootsCopy(roots [][]byte) [][]byte {
	cpy := make([][]byte, len(roots))
	for i, r := range roots {
		cpy[i] = append([]byte{}, r...)
	}
	return cpy
}
