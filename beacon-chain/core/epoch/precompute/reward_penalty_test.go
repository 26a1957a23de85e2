package precompute_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/epoch/precompute"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/math"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/prysmaticlabs/beacon-transition/testing/util"
)

func stateAtEpoch(t *testing.T, numValidators uint64, e types.Epoch) state.BeaconState {
	beaconState, _ := util.DeterministicGenesisState(t, numValidators)
	require.NoError(t, beaconState.SetSlot(types.Slot(uint64(e)*uint64(beaconState.Config().SlotsPerEpoch))))
	return beaconState
}

func expectedBaseReward(cfg *params.BeaconChainConfig, effectiveBalance, totalBalance uint64) uint64 {
	return effectiveBalance * cfg.BaseRewardFactor / math.IntegerSquareRoot(totalBalance) / cfg.BaseRewardsPerEpoch
}

func deltaValidators(eb uint64) []*precompute.Validator {
	return []*precompute.Validator{
		// Attested source, target and head with the best inclusion distance.
		{
			IsActivePrevEpoch:            true,
			IsPrevEpochAttester:          true,
			IsPrevEpochTargetAttester:    true,
			IsPrevEpochHeadAttester:      true,
			CurrentEpochEffectiveBalance: eb,
			InclusionDistance:            1,
			ProposerIndex:                2,
		},
		// Active but absent.
		{IsActivePrevEpoch: true, CurrentEpochEffectiveBalance: eb},
		// Not active in the previous epoch.
		{CurrentEpochEffectiveBalance: eb},
	}
}

func TestAttestationsDelta_NoLeak(t *testing.T) {
	beaconState := stateAtEpoch(t, 16, 2)
	cfg := beaconState.Config()
	eb := cfg.MaxEffectiveBalance
	total := 64 * eb
	pBal := &precompute.Balance{
		ActiveCurrentEpoch:      total,
		PrevEpochAttested:       total,
		PrevEpochTargetAttested: total,
		PrevEpochHeadAttested:   total,
	}

	rewards, penalties, err := precompute.AttestationsDelta(beaconState, pBal, deltaValidators(eb))
	require.NoError(t, err)
	br := expectedBaseReward(cfg, eb, total)
	assert.Equal(t, br-br/cfg.ProposerRewardQuotient+3*br, rewards[0])
	assert.Equal(t, uint64(0), penalties[0])
	assert.Equal(t, uint64(0), rewards[1])
	assert.Equal(t, 3*br, penalties[1])
	assert.Equal(t, uint64(0), rewards[2])
	assert.Equal(t, uint64(0), penalties[2])
}

func TestAttestationsDelta_InactivityLeak(t *testing.T) {
	// Finalized epoch 0 and previous epoch 9, past the inactivity threshold.
	beaconState := stateAtEpoch(t, 16, 10)
	cfg := beaconState.Config()
	eb := cfg.MaxEffectiveBalance
	total := 64 * eb
	pBal := &precompute.Balance{
		ActiveCurrentEpoch:      total,
		PrevEpochAttested:       total / 2,
		PrevEpochTargetAttested: total / 2,
		PrevEpochHeadAttested:   total / 2,
	}

	rewards, penalties, err := precompute.AttestationsDelta(beaconState, pBal, deltaValidators(eb))
	require.NoError(t, err)
	br := expectedBaseReward(cfg, eb, total)
	proposerReward := br / cfg.ProposerRewardQuotient
	leakPenalty := cfg.BaseRewardsPerEpoch*br - proposerReward

	// An optimal validator only nets its inclusion reward.
	assert.Equal(t, br-proposerReward+3*br, rewards[0])
	assert.Equal(t, leakPenalty, penalties[0])
	assert.Equal(t, uint64(0), rewards[1])
	assert.Equal(t, 3*br+leakPenalty+eb*9/cfg.InactivityPenaltyQuotient, penalties[1])
}

func TestProposersDelta(t *testing.T) {
	beaconState := stateAtEpoch(t, 16, 2)
	cfg := beaconState.Config()
	eb := cfg.MaxEffectiveBalance
	total := 64 * eb
	pBal := &precompute.Balance{ActiveCurrentEpoch: total}

	rewards, err := precompute.ProposersDelta(beaconState, pBal, deltaValidators(eb))
	require.NoError(t, err)
	br := expectedBaseReward(cfg, eb, total)
	assert.DeepEqual(t, []uint64{0, 0, br / cfg.ProposerRewardQuotient}, rewards)
}

func TestProposersDelta_ProposerOutOfRange(t *testing.T) {
	beaconState := stateAtEpoch(t, 16, 2)
	vp := deltaValidators(beaconState.Config().MaxEffectiveBalance)
	vp[0].ProposerIndex = 3
	_, err := precompute.ProposersDelta(beaconState, &precompute.Balance{ActiveCurrentEpoch: 1e9}, vp)
	assert.ErrorContains(t, "proposer index out of range", err)
}

func TestProcessRewardsAndPenaltiesPrecompute_GenesisEpoch(t *testing.T) {
	beaconState := stateAtEpoch(t, 16, 0)
	before := beaconState.Balances()
	vp, pBal, err := precompute.New(context.Background(), beaconState)
	require.NoError(t, err)

	newState, err := precompute.ProcessRewardsAndPenaltiesPrecompute(context.Background(), beaconState, pBal, vp, precompute.AttestationsDelta, precompute.ProposersDelta)
	require.NoError(t, err)
	assert.DeepEqual(t, before, newState.Balances())
}

func TestProcessRewardsAndPenaltiesPrecompute_NoParticipation(t *testing.T) {
	beaconState := stateAtEpoch(t, 16, 2)
	cfg := beaconState.Config()
	vp, pBal, err := precompute.New(context.Background(), beaconState)
	require.NoError(t, err)
	vp, pBal, err = precompute.ProcessAttestations(context.Background(), beaconState, vp, pBal)
	require.NoError(t, err)

	newState, err := precompute.ProcessRewardsAndPenaltiesPrecompute(context.Background(), beaconState, pBal, vp, precompute.AttestationsDelta, precompute.ProposersDelta)
	require.NoError(t, err)
	br := expectedBaseReward(cfg, cfg.MaxEffectiveBalance, 16*cfg.MaxEffectiveBalance)
	for i, b := range newState.Balances() {
		assert.Equal(t, cfg.MaxEffectiveBalance-3*br, b, "validator %d", i)
		assert.Equal(t, cfg.MaxEffectiveBalance-3*br, vp[i].AfterEpochTransitionBalance)
		assert.Equal(t, cfg.MaxEffectiveBalance, vp[i].BeforeEpochTransitionBalance)
	}
}

func TestProcessRewardsAndPenaltiesPrecompute_RegistryMismatch(t *testing.T) {
	beaconState := stateAtEpoch(t, 16, 2)
	vp, pBal, err := precompute.New(context.Background(), beaconState)
	require.NoError(t, err)
	_, err = precompute.ProcessRewardsAndPenaltiesPrecompute(context.Background(), beaconState, pBal, vp[:3], precompute.AttestationsDelta, precompute.ProposersDelta)
	assert.ErrorContains(t, "not the same length", err)
}
