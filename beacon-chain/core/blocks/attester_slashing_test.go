package blocks_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/blocks"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/prysmaticlabs/beacon-transition/testing/util"
)

func TestSlashableAttesterIndices_Intersection(t *testing.T) {
	slashing := &ethpb.AttesterSlashing{
		Attestation_1: &ethpb.IndexedAttestation{AttestingIndices: []uint64{0, 2, 3, 7}},
		Attestation_2: &ethpb.IndexedAttestation{AttestingIndices: []uint64{1, 2, 7, 9}},
	}
	assert.DeepEqual(t, []types.ValidatorIndex{2, 7}, blocks.SlashableAttesterIndices(slashing))
	assert.Equal(t, 0, len(blocks.SlashableAttesterIndices(nil)))
}

func TestProcessAttesterSlashings_DataNotSlashable(t *testing.T) {
	beaconState, _ := util.DeterministicGenesisState(t, 20)
	slashings := []*ethpb.AttesterSlashing{{
		Attestation_1: util.HydrateIndexedAttestation(&ethpb.IndexedAttestation{}),
		Attestation_2: util.HydrateIndexedAttestation(&ethpb.IndexedAttestation{
			Data: &ethpb.AttestationData{
				Source: &ethpb.Checkpoint{Epoch: 1},
				Target: &ethpb.Checkpoint{Epoch: 1},
			},
		}),
	}}
	_, err := blocks.ProcessAttesterSlashings(context.Background(), beaconState, slashings)
	assert.ErrorContains(t, "attestations are not slashable", err)
	require.ErrorIs(t, err, blocks.ErrNotSlashable)
}

func TestProcessAttesterSlashings_IndexedAttestationFailedToVerify(t *testing.T) {
	beaconState, _ := util.DeterministicGenesisState(t, 20)
	// Unsorted attesting indices are rejected before any signature check.
	slashings := []*ethpb.AttesterSlashing{{
		Attestation_1: util.HydrateIndexedAttestation(&ethpb.IndexedAttestation{
			Data: &ethpb.AttestationData{
				Source: &ethpb.Checkpoint{Epoch: 1},
			},
			AttestingIndices: []uint64{3, 1},
		}),
		Attestation_2: util.HydrateIndexedAttestation(&ethpb.IndexedAttestation{
			AttestingIndices: []uint64{1, 3},
		}),
	}}
	_, err := blocks.ProcessAttesterSlashings(context.Background(), beaconState, slashings)
	require.ErrorIs(t, err, blocks.ErrInvalidIndexedAttestation)
	opErr, ok := err.(*blocks.OperationError)
	require.Equal(t, true, ok)
	assert.Equal(t, blocks.Structural, opErr.Class())
}

func TestProcessAttesterSlashings_AppliesCorrectStatus(t *testing.T) {
	ctx := context.Background()
	beaconState, privKeys := util.DeterministicGenesisState(t, 100)
	cfg := beaconState.Config()
	proposer, err := helpers.BeaconProposerIndex(ctx, beaconState)
	require.NoError(t, err)
	slashedIdx := (proposer + 7) % 100
	before, err := beaconState.BalanceAtIndex(slashedIdx)
	require.NoError(t, err)

	slashing, err := util.GenerateAttesterSlashingForValidator(beaconState, privKeys[slashedIdx], slashedIdx)
	require.NoError(t, err)
	newState, err := blocks.ProcessAttesterSlashings(ctx, beaconState, []*ethpb.AttesterSlashing{slashing})
	require.NoError(t, err)

	v, err := newState.ValidatorAtIndexReadOnly(slashedIdx)
	require.NoError(t, err)
	assert.Equal(t, true, v.Slashed())
	after, err := newState.BalanceAtIndex(slashedIdx)
	require.NoError(t, err)
	assert.Equal(t, v.EffectiveBalance()/cfg.MinSlashingPenaltyQuotient, before-after)
}

func TestProcessAttesterSlashings_DuplicateSlashingInBlock(t *testing.T) {
	beaconState, privKeys := util.DeterministicGenesisState(t, 100)
	slashing, err := util.GenerateAttesterSlashingForValidator(beaconState, privKeys[10], 10)
	require.NoError(t, err)

	// The second copy finds the validator already slashed.
	_, err = blocks.ProcessAttesterSlashings(context.Background(), beaconState,
		[]*ethpb.AttesterSlashing{slashing, ethpb.CopyAttesterSlashing(slashing)})
	require.ErrorIs(t, err, blocks.ErrAlreadySlashed)
	opErr, ok := err.(*blocks.OperationError)
	require.Equal(t, true, ok)
	assert.Equal(t, 1, opErr.Index)
	assert.Equal(t, blocks.AttesterSlashingOp, opErr.Kind)
	assert.Equal(t, blocks.Semantic, opErr.Class())
}

func TestProcessAttesterSlashings_TooMany(t *testing.T) {
	beaconState, _ := util.DeterministicGenesisState(t, 20)
	slashings := make([]*ethpb.AttesterSlashing, beaconState.Config().MaxAttesterSlashings+1)
	_, err := blocks.ProcessAttesterSlashings(context.Background(), beaconState, slashings)
	require.ErrorIs(t, err, blocks.ErrTooManyOperations)
}
