package blocks_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/blocks"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/prysmaticlabs/beacon-transition/testing/util"
)

// exitTestState returns a genesis state whose validators may exit right away.
func exitTestState(t *testing.T) (state.BeaconState, []bls.SecretKey) {
	cfg := params.MinimalSpecConfig().Copy()
	cfg.ShardCommitteePeriod = 0
	return util.DeterministicGenesisStateWithConfig(t, cfg, 32)
}

func signedExit(t *testing.T, st state.ReadOnlyBeaconState, key bls.SecretKey, idx types.ValidatorIndex, epoch types.Epoch) *ethpb.SignedVoluntaryExit {
	exit := &ethpb.SignedVoluntaryExit{Exit: &ethpb.VoluntaryExit{ValidatorIndex: idx, Epoch: epoch}}
	var err error
	exit.Signature, err = util.ComputeDomainAndSign(st, epoch, exit.Exit, st.Config().DomainVoluntaryExit, key)
	require.NoError(t, err)
	return exit
}

func TestProcessVoluntaryExits_OK(t *testing.T) {
	beaconState, privKeys := exitTestState(t)
	cfg := beaconState.Config()
	exits := []*ethpb.SignedVoluntaryExit{
		signedExit(t, beaconState, privKeys[0], 0, 0),
		signedExit(t, beaconState, privKeys[1], 1, 0),
	}
	newState, err := blocks.ProcessVoluntaryExits(context.Background(), beaconState, exits)
	require.NoError(t, err)

	want := helpers.ActivationExitEpoch(cfg, 0)
	for _, idx := range []types.ValidatorIndex{0, 1} {
		v, err := newState.ValidatorAtIndexReadOnly(idx)
		require.NoError(t, err)
		assert.Equal(t, want, v.ExitEpoch())
		assert.Equal(t, want+cfg.MinValidatorWithdrawabilityDelay, v.WithdrawableEpoch())
	}
}

func TestProcessVoluntaryExits_NotActiveLongEnough(t *testing.T) {
	beaconState, privKeys := util.DeterministicGenesisState(t, 32)
	exit := signedExit(t, beaconState, privKeys[0], 0, 0)
	_, err := blocks.ProcessVoluntaryExits(context.Background(), beaconState, []*ethpb.SignedVoluntaryExit{exit})
	require.ErrorIs(t, err, blocks.ErrValidatorTooYoung)
}

func TestProcessVoluntaryExits_ExitAlreadySubmitted(t *testing.T) {
	beaconState, privKeys := exitTestState(t)
	v, err := beaconState.ValidatorAtIndex(0)
	require.NoError(t, err)
	v.ExitEpoch = 10
	require.NoError(t, beaconState.UpdateValidatorAtIndex(0, v))

	exit := signedExit(t, beaconState, privKeys[0], 0, 0)
	_, err = blocks.ProcessVoluntaryExits(context.Background(), beaconState, []*ethpb.SignedVoluntaryExit{exit})
	require.ErrorIs(t, err, blocks.ErrAlreadyExited)
}

func TestProcessVoluntaryExits_FutureEpoch(t *testing.T) {
	beaconState, privKeys := exitTestState(t)
	exit := signedExit(t, beaconState, privKeys[0], 0, 5)
	_, err := blocks.ProcessVoluntaryExits(context.Background(), beaconState, []*ethpb.SignedVoluntaryExit{exit})
	require.ErrorIs(t, err, blocks.ErrExitTooEarly)
}

func TestProcessVoluntaryExits_InactiveValidator(t *testing.T) {
	beaconState, privKeys := exitTestState(t)
	v, err := beaconState.ValidatorAtIndex(0)
	require.NoError(t, err)
	v.ActivationEpoch = beaconState.Config().FarFutureEpoch
	require.NoError(t, beaconState.UpdateValidatorAtIndex(0, v))

	exit := signedExit(t, beaconState, privKeys[0], 0, 0)
	_, err = blocks.ProcessVoluntaryExits(context.Background(), beaconState, []*ethpb.SignedVoluntaryExit{exit})
	require.ErrorIs(t, err, blocks.ErrValidatorNotActive)

	exit = signedExit(t, beaconState, privKeys[0], 1000, 0)
	_, err = blocks.ProcessVoluntaryExits(context.Background(), beaconState, []*ethpb.SignedVoluntaryExit{exit})
	require.ErrorIs(t, err, blocks.ErrValidatorNotActive)
}

func TestProcessVoluntaryExits_WrongSigner(t *testing.T) {
	beaconState, privKeys := exitTestState(t)
	exit := signedExit(t, beaconState, privKeys[1], 0, 0)
	_, err := blocks.ProcessVoluntaryExits(context.Background(), beaconState, []*ethpb.SignedVoluntaryExit{exit})
	require.ErrorIs(t, err, signing.ErrSigFailedToVerify)
}

func TestProcessVoluntaryExits_DuplicateValidator(t *testing.T) {
	beaconState, privKeys := exitTestState(t)
	exits := []*ethpb.SignedVoluntaryExit{
		signedExit(t, beaconState, privKeys[2], 2, 0),
		signedExit(t, beaconState, privKeys[3], 3, 0),
		signedExit(t, beaconState, privKeys[2], 2, 0),
	}
	_, err := blocks.ProcessVoluntaryExits(context.Background(), beaconState, exits)
	require.ErrorIs(t, err, blocks.ErrDuplicateIndices)
	opErr, ok := err.(*blocks.OperationError)
	require.Equal(t, true, ok)
	assert.Equal(t, 2, opErr.Index)
	assert.Equal(t, blocks.VoluntaryExitOp, opErr.Kind)
}

func TestProcessVoluntaryExits_ChurnLimitQueuesExits(t *testing.T) {
	beaconState, privKeys := exitTestState(t)
	cfg := beaconState.Config()
	churn := helpers.ValidatorChurnLimit(cfg, uint64(beaconState.NumValidators()))

	exits := make([]*ethpb.SignedVoluntaryExit, churn+1)
	for i := range exits {
		exits[i] = signedExit(t, beaconState, privKeys[i], types.ValidatorIndex(i), 0)
	}
	newState, err := blocks.ProcessVoluntaryExits(context.Background(), beaconState, exits)
	require.NoError(t, err)

	first := helpers.ActivationExitEpoch(cfg, 0)
	last, err := newState.ValidatorAtIndexReadOnly(types.ValidatorIndex(churn))
	require.NoError(t, err)
	assert.Equal(t, first+1, last.ExitEpoch(), "exit beyond the churn limit moves to the next epoch")
}
