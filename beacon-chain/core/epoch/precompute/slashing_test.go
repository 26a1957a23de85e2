package precompute_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/epoch/precompute"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestProcessSlashingsPrecompute_SlashedLess(t *testing.T) {
	beaconState := stateAtEpoch(t, 16, 0)
	cfg := beaconState.Config()
	v, err := beaconState.ValidatorAtIndex(0)
	require.NoError(t, err)
	v.Slashed = true
	v.WithdrawableEpoch = cfg.EpochsPerSlashingsVector / 2
	require.NoError(t, beaconState.UpdateValidatorAtIndex(0, v))
	slashings := beaconState.Slashings()
	slashings[0] = cfg.MaxEffectiveBalance
	require.NoError(t, beaconState.SetSlashings(slashings))

	_, pBal, err := precompute.New(context.Background(), beaconState)
	require.NoError(t, err)
	require.NoError(t, precompute.ProcessSlashingsPrecompute(beaconState, pBal))

	// 32 increments * min(32 ETH * 2, 512 ETH) / 512 ETH = 4 increments.
	bal, err := beaconState.BalanceAtIndex(0)
	require.NoError(t, err)
	assert.Equal(t, cfg.MaxEffectiveBalance-4*cfg.EffectiveBalanceIncrement, bal)
	bal, err = beaconState.BalanceAtIndex(1)
	require.NoError(t, err)
	assert.Equal(t, cfg.MaxEffectiveBalance, bal)
}

func TestProcessSlashingsPrecompute_NotWithdrawableYet(t *testing.T) {
	beaconState := stateAtEpoch(t, 16, 0)
	cfg := beaconState.Config()
	v, err := beaconState.ValidatorAtIndex(0)
	require.NoError(t, err)
	v.Slashed = true
	v.WithdrawableEpoch = cfg.EpochsPerSlashingsVector/2 + 1
	require.NoError(t, beaconState.UpdateValidatorAtIndex(0, v))
	slashings := beaconState.Slashings()
	slashings[0] = cfg.MaxEffectiveBalance
	require.NoError(t, beaconState.SetSlashings(slashings))

	_, pBal, err := precompute.New(context.Background(), beaconState)
	require.NoError(t, err)
	require.NoError(t, precompute.ProcessSlashingsPrecompute(beaconState, pBal))
	bal, err := beaconState.BalanceAtIndex(0)
	require.NoError(t, err)
	assert.Equal(t, cfg.MaxEffectiveBalance, bal)
}

func TestProcessSlashingsPrecompute_EmptyBalance(t *testing.T) {
	beaconState := stateAtEpoch(t, 16, 0)
	err := precompute.ProcessSlashingsPrecompute(beaconState, &precompute.Balance{})
	assert.ErrorContains(t, "nil or empty precomputed balance", err)
}
