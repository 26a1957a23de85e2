package epoch_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/epoch"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/prysmaticlabs/beacon-transition/testing/util"
	"github.com/sirupsen/logrus"
	logTest "github.com/sirupsen/logrus/hooks/test"
)

// stateAtEpoch returns a 64 validator genesis state moved to the first slot of the given epoch.
func stateAtEpoch(t *testing.T, e types.Epoch) state.BeaconState {
	beaconState, _ := util.DeterministicGenesisState(t, 64)
	slot, err := helpers.EpochStart(beaconState.Config(), e)
	require.NoError(t, err)
	require.NoError(t, beaconState.SetSlot(slot))
	return beaconState
}

func pendingValidator(st state.BeaconState, seed byte, eligibility types.Epoch) *ethpb.Validator {
	cfg := st.Config()
	return &ethpb.Validator{
		PublicKey:                  bytesutil.PadTo([]byte{0xff, seed}, 48),
		WithdrawalCredentials:      make([]byte, 32),
		EffectiveBalance:           cfg.MaxEffectiveBalance,
		ActivationEligibilityEpoch: eligibility,
		ActivationEpoch:            cfg.FarFutureEpoch,
		ExitEpoch:                  cfg.FarFutureEpoch,
		WithdrawableEpoch:          cfg.FarFutureEpoch,
	}
}

func appendValidator(t *testing.T, st state.BeaconState, v *ethpb.Validator) types.ValidatorIndex {
	require.NoError(t, st.AppendValidator(v))
	require.NoError(t, st.AppendBalance(v.EffectiveBalance))
	return types.ValidatorIndex(st.NumValidators() - 1)
}

func TestProcessRegistryUpdates_EligibleForActivationQueue(t *testing.T) {
	beaconState := stateAtEpoch(t, 5)
	cfg := beaconState.Config()
	full := appendValidator(t, beaconState, pendingValidator(beaconState, 1, cfg.FarFutureEpoch))
	underfunded := pendingValidator(beaconState, 2, cfg.FarFutureEpoch)
	underfunded.EffectiveBalance = cfg.MaxEffectiveBalance - cfg.EffectiveBalanceIncrement
	short := appendValidator(t, beaconState, underfunded)

	newState, err := epoch.ProcessRegistryUpdates(context.Background(), beaconState)
	require.NoError(t, err)

	v, err := newState.ValidatorAtIndex(full)
	require.NoError(t, err)
	assert.Equal(t, types.Epoch(6), v.ActivationEligibilityEpoch)
	assert.Equal(t, cfg.FarFutureEpoch, v.ActivationEpoch, "eligibility is not yet finalized")

	v, err = newState.ValidatorAtIndex(short)
	require.NoError(t, err)
	assert.Equal(t, cfg.FarFutureEpoch, v.ActivationEligibilityEpoch)
}

func TestProcessRegistryUpdates_ActivationQueueOrderAndChurn(t *testing.T) {
	beaconState := stateAtEpoch(t, 5)
	cfg := beaconState.Config()
	require.NoError(t, beaconState.SetFinalizedCheckpoint(&ethpb.Checkpoint{Epoch: 2, Root: make([]byte, 32)}))

	eligibility := []types.Epoch{2, 1, 2, 0, 1, 2}
	indices := make([]types.ValidatorIndex, len(eligibility))
	for i, e := range eligibility {
		indices[i] = appendValidator(t, beaconState, pendingValidator(beaconState, byte(i+10), e))
	}
	activeCount, err := helpers.ActiveValidatorCount(context.Background(), beaconState, 5)
	require.NoError(t, err)
	require.Equal(t, uint64(4), helpers.ValidatorChurnLimit(cfg, activeCount))

	newState, err := epoch.ProcessRegistryUpdates(context.Background(), beaconState)
	require.NoError(t, err)

	activationEpoch := helpers.ActivationExitEpoch(cfg, 5)
	// Ordered by eligibility epoch and then index, only the churn limit gets through.
	activated := map[types.ValidatorIndex]bool{indices[3]: true, indices[1]: true, indices[4]: true, indices[0]: true}
	for _, idx := range indices {
		v, err := newState.ValidatorAtIndex(idx)
		require.NoError(t, err)
		if activated[idx] {
			assert.Equal(t, activationEpoch, v.ActivationEpoch, "validator %d", idx)
		} else {
			assert.Equal(t, cfg.FarFutureEpoch, v.ActivationEpoch, "validator %d", idx)
		}
	}
}

func TestProcessRegistryUpdates_EjectsLowBalance(t *testing.T) {
	beaconState := stateAtEpoch(t, 5)
	cfg := beaconState.Config()
	v, err := beaconState.ValidatorAtIndex(3)
	require.NoError(t, err)
	v.EffectiveBalance = cfg.EjectionBalance
	require.NoError(t, beaconState.UpdateValidatorAtIndex(3, v))

	newState, err := epoch.ProcessRegistryUpdates(context.Background(), beaconState)
	require.NoError(t, err)
	v, err = newState.ValidatorAtIndex(3)
	require.NoError(t, err)
	assert.Equal(t, helpers.ActivationExitEpoch(cfg, 5), v.ExitEpoch)
	assert.Equal(t, v.ExitEpoch+cfg.MinValidatorWithdrawabilityDelay, v.WithdrawableEpoch)

	v, err = newState.ValidatorAtIndex(4)
	require.NoError(t, err)
	assert.Equal(t, cfg.FarFutureEpoch, v.ExitEpoch)
}

func TestProcessRegistryUpdates_LogsValidatorsExitingThisEpoch(t *testing.T) {
	logrus.SetLevel(logrus.DebugLevel)
	defer logrus.SetLevel(logrus.InfoLevel)
	hook := logTest.NewGlobal()

	beaconState := stateAtEpoch(t, 5)
	cfg := beaconState.Config()
	exiting := pendingValidator(beaconState, 40, 0)
	exiting.ActivationEpoch = 0
	exiting.ExitEpoch = 5
	exiting.WithdrawableEpoch = 5 + cfg.MinValidatorWithdrawabilityDelay
	appendValidator(t, beaconState, exiting)

	_, err := epoch.ProcessRegistryUpdates(context.Background(), beaconState)
	require.NoError(t, err)
	require.LogsContain(t, hook, "Validators left the active set")
	require.LogsContain(t, hook, "exited=1")
}

func TestProcessRegistryUpdates_NoExitLogWithoutExits(t *testing.T) {
	logrus.SetLevel(logrus.DebugLevel)
	defer logrus.SetLevel(logrus.InfoLevel)
	hook := logTest.NewGlobal()

	_, err := epoch.ProcessRegistryUpdates(context.Background(), stateAtEpoch(t, 5))
	require.NoError(t, err)
	require.LogsDoNotContain(t, hook, "Validators left the active set")
}

func TestProcessEffectiveBalanceUpdates_Hysteresis(t *testing.T) {
	tests := []struct {
		effectiveBalance uint64
		balance          uint64
		want             uint64
	}{
		{effectiveBalance: 32e9, balance: 31_800_000_000, want: 32e9},
		{effectiveBalance: 32e9, balance: 31_700_000_000, want: 31e9},
		{effectiveBalance: 30e9, balance: 31_200_000_000, want: 30e9},
		{effectiveBalance: 30e9, balance: 31_300_000_000, want: 31e9},
		{effectiveBalance: 31e9, balance: 40e9, want: 32e9},
		{effectiveBalance: 32e9, balance: 0, want: 0},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			beaconState, _ := util.DeterministicGenesisState(t, 16)
			v, err := beaconState.ValidatorAtIndex(0)
			require.NoError(t, err)
			v.EffectiveBalance = tt.effectiveBalance
			require.NoError(t, beaconState.UpdateValidatorAtIndex(0, v))
			require.NoError(t, beaconState.UpdateBalancesAtIndex(0, tt.balance))

			newState, err := epoch.ProcessEffectiveBalanceUpdates(beaconState)
			require.NoError(t, err)
			v, err = newState.ValidatorAtIndex(0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.EffectiveBalance)

			// Untouched validators keep their effective balance.
			other, err := newState.ValidatorAtIndex(1)
			require.NoError(t, err)
			assert.Equal(t, beaconState.Config().MaxEffectiveBalance, other.EffectiveBalance)
		})
	}
}

func TestProcessEth1DataReset(t *testing.T) {
	data := &ethpb.Eth1Data{DepositRoot: make([]byte, 32), BlockHash: make([]byte, 32)}

	beaconState := stateAtEpoch(t, 2)
	require.NoError(t, beaconState.SetEth1DataVotes([]*ethpb.Eth1Data{data}))
	newState, err := epoch.ProcessEth1DataReset(beaconState)
	require.NoError(t, err)
	assert.Equal(t, 1, len(newState.Eth1DataVotes()))

	// The voting period ends with epoch 3.
	beaconState = stateAtEpoch(t, beaconState.Config().EpochsPerEth1VotingPeriod-1)
	require.NoError(t, beaconState.SetEth1DataVotes([]*ethpb.Eth1Data{data}))
	newState, err = epoch.ProcessEth1DataReset(beaconState)
	require.NoError(t, err)
	assert.Equal(t, 0, len(newState.Eth1DataVotes()))
}

func TestProcessSlashingsReset(t *testing.T) {
	beaconState := stateAtEpoch(t, 0)
	slashings := beaconState.Slashings()
	slashings[0] = 7
	slashings[1] = 100
	require.NoError(t, beaconState.SetSlashings(slashings))

	newState, err := epoch.ProcessSlashingsReset(beaconState)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), newState.Slashings()[0])
	assert.Equal(t, uint64(0), newState.Slashings()[1])
}

func TestProcessRandaoMixesReset(t *testing.T) {
	beaconState := stateAtEpoch(t, 3)
	require.NoError(t, beaconState.UpdateRandaoMixesAtIndex(3, bytesutil.PadTo([]byte("mix"), 32)))

	newState, err := epoch.ProcessRandaoMixesReset(beaconState)
	require.NoError(t, err)
	mix, err := newState.RandaoMixAtIndex(4)
	require.NoError(t, err)
	assert.DeepEqual(t, bytesutil.PadTo([]byte("mix"), 32), mix)
}

func TestProcessHistoricalRootsUpdate(t *testing.T) {
	beaconState := stateAtEpoch(t, 6)
	newState, err := epoch.ProcessHistoricalRootsUpdate(beaconState)
	require.NoError(t, err)
	assert.Equal(t, 0, len(newState.HistoricalRoots()))

	// Minimal preset: 64 slots per historical root, 8 epochs.
	beaconState = stateAtEpoch(t, 7)
	require.NoError(t, beaconState.UpdateBlockRootAtIndex(5, [32]byte{'a'}))
	newState, err = epoch.ProcessHistoricalRootsUpdate(beaconState)
	require.NoError(t, err)
	require.Equal(t, 1, len(newState.HistoricalRoots()))

	batch := &ethpb.HistoricalBatch{BlockRoots: beaconState.BlockRoots(), StateRoots: beaconState.StateRoots()}
	want, err := batch.HashTreeRoot()
	require.NoError(t, err)
	assert.DeepEqual(t, want[:], newState.HistoricalRoots()[0])
}

func TestProcessParticipationRecordUpdates(t *testing.T) {
	beaconState := stateAtEpoch(t, 1)
	att := &ethpb.PendingAttestation{
		AggregationBits: []byte{0x03},
		Data:            util.HydrateAttestationData(&ethpb.AttestationData{}),
		InclusionDelay:  1,
	}
	require.NoError(t, beaconState.AppendCurrentEpochAttestations(att))

	newState, err := epoch.ProcessParticipationRecordUpdates(beaconState)
	require.NoError(t, err)
	assert.Equal(t, 0, len(newState.CurrentEpochAttestations()))
	require.Equal(t, 1, len(newState.PreviousEpochAttestations()))
	assert.DeepEqual(t, att, newState.PreviousEpochAttestations()[0])
}

func TestProcessFinalUpdates_CanProcess(t *testing.T) {
	beaconState := stateAtEpoch(t, 3)
	balances := beaconState.Balances()
	balances[0] = 29 * 1e9
	require.NoError(t, beaconState.SetBalances(balances))
	slashings := beaconState.Slashings()
	slashings[4] = 50
	require.NoError(t, beaconState.SetSlashings(slashings))
	require.NoError(t, beaconState.SetEth1DataVotes([]*ethpb.Eth1Data{{DepositRoot: make([]byte, 32), BlockHash: make([]byte, 32)}}))

	newState, err := epoch.ProcessFinalUpdates(beaconState)
	require.NoError(t, err)

	v, err := newState.ValidatorAtIndex(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(29*1e9), v.EffectiveBalance)
	assert.Equal(t, uint64(0), newState.Slashings()[4])
	assert.Equal(t, 0, len(newState.Eth1DataVotes()))
	mix, err := newState.RandaoMixAtIndex(4)
	require.NoError(t, err)
	prev, err := newState.RandaoMixAtIndex(3)
	require.NoError(t, err)
	assert.DeepEqual(t, prev, mix)
}

func TestEpochProcessingError(t *testing.T) {
	err := &epoch.EpochProcessingError{Step: epoch.StepSlashings, Epoch: 9, Err: state.ErrOutOfBounds}
	assert.Equal(t, "could not process epoch 9: slashings: index out of bounds", err.Error())
	assert.ErrorIs(t, err, state.ErrOutOfBounds)
}
