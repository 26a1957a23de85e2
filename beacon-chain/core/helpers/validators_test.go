package helpers_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	statenative "github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestIsActiveValidator_OK(t *testing.T) {
	tests := []struct {
		a types.Epoch
		b bool
	}{
		{a: 0, b: false},
		{a: 10, b: true},
		{a: 100, b: false},
		{a: 1000, b: false},
		{a: 64, b: true},
	}
	for _, test := range tests {
		validator := &ethpb.Validator{ActivationEpoch: 10, ExitEpoch: 100}
		assert.Equal(t, test.b, helpers.IsActiveValidator(validator, test.a), "IsActiveValidator(%d)", test.a)
	}
}

func TestIsActiveValidatorUsingTrie_OK(t *testing.T) {
	tests := []struct {
		a types.Epoch
		b bool
	}{
		{a: 0, b: false},
		{a: 10, b: true},
		{a: 100, b: false},
		{a: 1000, b: false},
		{a: 64, b: true},
	}
	val := &ethpb.Validator{ActivationEpoch: 10, ExitEpoch: 100}
	for _, test := range tests {
		readOnlyVal, err := statenative.NewValidator(val)
		require.NoError(t, err)
		assert.Equal(t, test.b, helpers.IsActiveValidatorUsingTrie(readOnlyVal, test.a), "IsActiveValidatorUsingTrie(%d)", test.a)
	}
}

func TestIsSlashableValidator_OK(t *testing.T) {
	tests := []struct {
		name      string
		validator *ethpb.Validator
		epoch     types.Epoch
		slashable bool
	}{
		{
			name: "Unset withdrawable, slashable",
			validator: &ethpb.Validator{
				WithdrawableEpoch: params.MainnetConfig().FarFutureEpoch,
			},
			epoch:     0,
			slashable: true,
		},
		{
			name: "before withdrawable, slashable",
			validator: &ethpb.Validator{
				WithdrawableEpoch: 5,
			},
			epoch:     3,
			slashable: true,
		},
		{
			name: "inactive, not slashable",
			validator: &ethpb.Validator{
				ActivationEpoch:   5,
				WithdrawableEpoch: params.MainnetConfig().FarFutureEpoch,
			},
			epoch:     2,
			slashable: false,
		},
		{
			name: "after withdrawable, not slashable",
			validator: &ethpb.Validator{
				WithdrawableEpoch: 3,
			},
			epoch:     3,
			slashable: false,
		},
		{
			name: "slashed and withdrawable, not slashable",
			validator: &ethpb.Validator{
				Slashed:           true,
				ActivationEpoch:   4,
				ExitEpoch:         params.MainnetConfig().FarFutureEpoch,
				WithdrawableEpoch: 2,
			},
			epoch:     5,
			slashable: false,
		},
		{
			name: "slashed, not slashable",
			validator: &ethpb.Validator{
				Slashed:           true,
				ExitEpoch:         params.MainnetConfig().FarFutureEpoch,
				WithdrawableEpoch: params.MainnetConfig().FarFutureEpoch,
			},
			epoch:     2,
			slashable: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			slashableValidator := helpers.IsSlashableValidator(test.validator.ActivationEpoch,
				test.validator.WithdrawableEpoch, test.validator.Slashed, test.epoch)
			assert.Equal(t, test.slashable, slashableValidator, "Expected active validator slashable to be %t", test.slashable)
			readOnly, err := statenative.NewValidator(test.validator)
			require.NoError(t, err)
			assert.Equal(t, test.slashable, helpers.IsSlashableValidatorUsingTrie(readOnly, test.epoch))
		})
	}
}

func TestBeaconProposerIndex_Deterministic(t *testing.T) {
	cfg := params.MinimalSpecConfig()
	st := newState(t, cfg, 64, 9)

	first, err := helpers.BeaconProposerIndex(context.Background(), st)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := helpers.BeaconProposerIndex(context.Background(), st.Copy())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, true, uint64(first) < 64)

	seen := make(map[types.ValidatorIndex]bool)
	for s := types.Slot(8); s < 16; s++ {
		require.NoError(t, st.SetSlot(s))
		idx, err := helpers.BeaconProposerIndex(context.Background(), st)
		require.NoError(t, err)
		seen[idx] = true
	}
	assert.Equal(t, true, len(seen) > 1, "Proposer should vary across slots")
}

func TestComputeProposerIndex_SkipsLowBalance(t *testing.T) {
	cfg := params.MinimalSpecConfig()
	st := newState(t, cfg, 4, 0)
	for i := types.ValidatorIndex(0); i < 3; i++ {
		v, err := st.ValidatorAtIndex(i)
		require.NoError(t, err)
		v.EffectiveBalance = 0
		require.NoError(t, st.UpdateValidatorAtIndex(i, v))
	}
	// A zero balance candidate is only accepted when its random byte is zero.
	picked := 0
	for i := 0; i < 20; i++ {
		idx, err := helpers.ComputeProposerIndex(st, []types.ValidatorIndex{0, 1, 2, 3}, [32]byte{byte(i)})
		require.NoError(t, err)
		if idx == 3 {
			picked++
		}
	}
	assert.Equal(t, true, picked >= 15, "full balance validator picked %d times", picked)

	_, err := helpers.ComputeProposerIndex(st, nil, [32]byte{})
	assert.ErrorContains(t, "empty active indices list", err)
}

func TestActivationExitEpoch_OK(t *testing.T) {
	cfg := params.MainnetConfig()
	assert.Equal(t, types.Epoch(5+1+cfg.MaxSeedLookahead), helpers.ActivationExitEpoch(cfg, 5))
}

func TestChurnLimit_OK(t *testing.T) {
	cfg := params.MainnetConfig()
	tests := []struct {
		validatorCount int
		wantedChurn    uint64
	}{
		{validatorCount: 1000, wantedChurn: 4},
		{validatorCount: 100000, wantedChurn: 4},
		{validatorCount: 1000000, wantedChurn: 15 /* validatorCount/churnLimitQuotient */},
		{validatorCount: 2000000, wantedChurn: 30 /* validatorCount/churnLimitQuotient */},
	}
	for _, test := range tests {
		assert.Equal(t, test.wantedChurn, helpers.ValidatorChurnLimit(cfg, uint64(test.validatorCount)), "ValidatorChurnLimit(%d)", test.validatorCount)
	}
}

func TestIsEligibleForActivation(t *testing.T) {
	cfg := params.MinimalSpecConfig()
	st := newState(t, cfg, 1, 0)
	require.NoError(t, st.SetFinalizedCheckpoint(&ethpb.Checkpoint{Epoch: 2, Root: make([]byte, 32)}))

	tests := []struct {
		name      string
		validator *ethpb.Validator
		want      bool
	}{
		{"Eligible", &ethpb.Validator{ActivationEligibilityEpoch: 1, ActivationEpoch: cfg.FarFutureEpoch}, true},
		{"Not yet finalized", &ethpb.Validator{ActivationEligibilityEpoch: 3, ActivationEpoch: cfg.FarFutureEpoch}, false},
		{"Incorrect activation epoch", &ethpb.Validator{ActivationEligibilityEpoch: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := statenative.NewValidator(tt.validator)
			require.NoError(t, err)
			assert.Equal(t, tt.want, helpers.IsEligibleForActivation(st, v))
		})
	}

	queued, err := statenative.NewValidator(&ethpb.Validator{ActivationEligibilityEpoch: cfg.FarFutureEpoch, EffectiveBalance: cfg.MaxEffectiveBalance})
	require.NoError(t, err)
	assert.Equal(t, true, helpers.IsEligibleForActivationQueue(cfg, queued))
	low, err := statenative.NewValidator(&ethpb.Validator{ActivationEligibilityEpoch: cfg.FarFutureEpoch, EffectiveBalance: cfg.EjectionBalance})
	require.NoError(t, err)
	assert.Equal(t, false, helpers.IsEligibleForActivationQueue(cfg, low))
}
