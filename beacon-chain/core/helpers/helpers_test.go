package helpers_test

import (
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	statenative "github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/prysmaticlabs/go-bitfield"
)

// newState builds a minimal-preset state with n active validators at the given slot.
func newState(t testing.TB, cfg *params.BeaconChainConfig, n int, slot types.Slot) state.BeaconState {
	vals := make([]*ethpb.Validator, n)
	bals := make([]uint64, n)
	for i := range vals {
		vals[i] = &ethpb.Validator{
			PublicKey:             bytesutil.PadTo(bytesutil.Bytes8(uint64(i)+1), 48),
			WithdrawalCredentials: make([]byte, 32),
			EffectiveBalance:      cfg.MaxEffectiveBalance,
			ExitEpoch:             cfg.FarFutureEpoch,
			WithdrawableEpoch:     cfg.FarFutureEpoch,
		}
		bals[i] = cfg.MaxEffectiveBalance
	}
	roots := func(n uint64) [][]byte {
		r := make([][]byte, n)
		for i := range r {
			r[i] = make([]byte, 32)
		}
		return r
	}
	mixes := roots(uint64(cfg.EpochsPerHistoricalVector))
	for i := range mixes {
		mixes[i] = bytesutil.PadTo([]byte{byte(i), 'm'}, 32)
	}
	st, err := statenative.InitializeFromProtoPhase0(cfg, &ethpb.BeaconState{
		Slot:                  slot,
		GenesisValidatorsRoot: make([]byte, 32),
		Fork: &ethpb.Fork{
			PreviousVersion: cfg.GenesisForkVersion,
			CurrentVersion:  cfg.GenesisForkVersion,
		},
		BlockRoots:        roots(uint64(cfg.SlotsPerHistoricalRoot)),
		StateRoots:        roots(uint64(cfg.SlotsPerHistoricalRoot)),
		RandaoMixes:       mixes,
		Slashings:         make([]uint64, cfg.EpochsPerSlashingsVector),
		Validators:        vals,
		Balances:          bals,
		JustificationBits: bitfield.Bitvector4{0},
	})
	require.NoError(t, err)
	return st
}
