package precompute_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/blocks"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/epoch/precompute"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/transition"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/prysmaticlabs/beacon-transition/testing/util"
)

func TestNew(t *testing.T) {
	beaconState := stateAtEpoch(t, 16, 1)
	cfg := beaconState.Config()
	v, err := beaconState.ValidatorAtIndex(3)
	require.NoError(t, err)
	v.ExitEpoch = 1
	v.WithdrawableEpoch = 1
	require.NoError(t, beaconState.UpdateValidatorAtIndex(3, v))

	vp, pBal, err := precompute.New(context.Background(), beaconState)
	require.NoError(t, err)
	require.Equal(t, 16, len(vp))
	assert.Equal(t, true, vp[3].IsActivePrevEpoch)
	assert.Equal(t, false, vp[3].IsActiveCurrentEpoch)
	assert.Equal(t, true, vp[3].IsWithdrawableCurrentEpoch)
	assert.Equal(t, true, vp[4].IsActiveCurrentEpoch)
	assert.Equal(t, false, vp[4].IsWithdrawableCurrentEpoch)
	assert.Equal(t, cfg.FarFutureSlot, vp[4].InclusionSlot)
	assert.Equal(t, cfg.FarFutureSlot, vp[4].InclusionDistance)
	assert.Equal(t, 15*cfg.MaxEffectiveBalance, pBal.ActiveCurrentEpoch)
	assert.Equal(t, 16*cfg.MaxEffectiveBalance, pBal.ActivePrevEpoch)
}

func TestProcessAttestations_IncludedAttestations(t *testing.T) {
	ctx := context.Background()
	genesis, privKeys := util.DeterministicGenesisState(t, 64)
	atts, err := util.GenerateAttestations(genesis, privKeys, 2, 0, false)
	require.NoError(t, err)
	beaconState, err := transition.ProcessSlots(ctx, genesis, 1)
	require.NoError(t, err)
	proposer, err := helpers.BeaconProposerIndex(ctx, beaconState)
	require.NoError(t, err)
	beaconState, err = blocks.ProcessAttestations(ctx, beaconState, atts)
	require.NoError(t, err)

	vp, pBal, err := precompute.New(ctx, beaconState)
	require.NoError(t, err)
	vp, pBal, err = precompute.ProcessAttestations(ctx, beaconState, vp, pBal)
	require.NoError(t, err)

	attesters := make(map[types.ValidatorIndex]bool)
	for _, att := range atts {
		committee, err := helpers.BeaconCommitteeFromState(ctx, beaconState, att.Data.Slot, att.Data.CommitteeIndex)
		require.NoError(t, err)
		for i, idx := range committee {
			if att.AggregationBits.BitAt(uint64(i)) {
				attesters[idx] = true
			}
		}
	}
	require.NotEqual(t, 0, len(attesters))

	cfg := beaconState.Config()
	for i, v := range vp {
		idx := types.ValidatorIndex(i)
		assert.Equal(t, attesters[idx], v.IsCurrentEpochAttester, "validator %d", i)
		assert.Equal(t, attesters[idx], v.IsCurrentEpochTargetAttester, "validator %d", i)
		// Genesis epoch is both the previous and the current epoch.
		assert.Equal(t, attesters[idx], v.IsPrevEpochHeadAttester, "validator %d", i)
		if attesters[idx] {
			assert.Equal(t, types.Slot(1), v.InclusionSlot)
			assert.Equal(t, types.Slot(1), v.InclusionDistance)
			assert.Equal(t, proposer, v.ProposerIndex)
		}
	}
	attested := uint64(len(attesters)) * cfg.MaxEffectiveBalance
	assert.Equal(t, attested, pBal.CurrentEpochAttested)
	assert.Equal(t, attested, pBal.CurrentEpochTargetAttested)
	assert.Equal(t, attested, pBal.PrevEpochHeadAttested)
}

func TestProcessAttestations_ZeroInclusionDelay(t *testing.T) {
	beaconState := stateAtEpoch(t, 16, 1)
	att := &ethpb.PendingAttestation{
		AggregationBits: []byte{0x03},
		Data:            util.HydrateAttestationData(&ethpb.AttestationData{}),
	}
	require.NoError(t, beaconState.AppendCurrentEpochAttestations(att))
	vp, pBal, err := precompute.New(context.Background(), beaconState)
	require.NoError(t, err)
	_, _, err = precompute.ProcessAttestations(context.Background(), beaconState, vp, pBal)
	assert.ErrorContains(t, "inclusion delay of 0", err)
}

func TestEnsureBalancesLowerBound(t *testing.T) {
	beaconState := stateAtEpoch(t, 16, 0)
	cfg := beaconState.Config()
	pBal := precompute.EnsureBalancesLowerBound(cfg, &precompute.Balance{ActivePrevEpoch: 5 * cfg.EffectiveBalanceIncrement})
	assert.Equal(t, cfg.EffectiveBalanceIncrement, pBal.ActiveCurrentEpoch)
	assert.Equal(t, 5*cfg.EffectiveBalanceIncrement, pBal.ActivePrevEpoch)
	assert.Equal(t, cfg.EffectiveBalanceIncrement, pBal.PrevEpochHeadAttested)
}
