package precompute_test

import (
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/epoch/precompute"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/prysmaticlabs/beacon-transition/testing/util"
	"github.com/prysmaticlabs/go-bitfield"
)

var (
	rootEpoch2 = bytesutil.PadTo([]byte("epoch 2"), 32)
	rootEpoch3 = bytesutil.PadTo([]byte("epoch 3"), 32)
)

// justificationState returns a state in epoch 3 where epochs 1 and 2 are justified.
func justificationState(t *testing.T) state.BeaconState {
	beaconState, _ := util.DeterministicGenesisState(t, 16)
	spe := uint64(beaconState.Config().SlotsPerEpoch)
	require.NoError(t, beaconState.SetSlot(types.Slot(3*spe+1)))
	require.NoError(t, beaconState.UpdateBlockRootAtIndex(2*spe, bytesutil.ToBytes32(rootEpoch2)))
	require.NoError(t, beaconState.UpdateBlockRootAtIndex(3*spe, bytesutil.ToBytes32(rootEpoch3)))
	require.NoError(t, beaconState.SetPreviousJustifiedCheckpoint(&ethpb.Checkpoint{Epoch: 1, Root: make([]byte, 32)}))
	require.NoError(t, beaconState.SetCurrentJustifiedCheckpoint(&ethpb.Checkpoint{Epoch: 2, Root: rootEpoch2}))
	require.NoError(t, beaconState.SetJustificationBits(bitfield.Bitvector4{0x03}))
	return beaconState
}

func TestProcessJustificationAndFinalizationPreCompute_ConsecutiveEpochs(t *testing.T) {
	beaconState := justificationState(t)
	pBal := &precompute.Balance{ActiveCurrentEpoch: 100, PrevEpochTargetAttested: 100, CurrentEpochTargetAttested: 100}

	newState, err := precompute.ProcessJustificationAndFinalizationPreCompute(beaconState, pBal)
	require.NoError(t, err)
	assert.DeepEqual(t, rootEpoch3, newState.CurrentJustifiedCheckpoint().Root)
	assert.Equal(t, types.Epoch(3), newState.CurrentJustifiedCheckpoint().Epoch)
	assert.Equal(t, types.Epoch(2), newState.PreviousJustifiedCheckpoint().Epoch)
	assert.DeepEqual(t, bitfield.Bitvector4{0x07}, newState.JustificationBits())
	assert.Equal(t, types.Epoch(2), newState.FinalizedCheckpointEpoch())
	assert.DeepEqual(t, rootEpoch2, newState.FinalizedCheckpoint().Root)
}

func TestProcessJustificationAndFinalizationPreCompute_NotEnoughBalance(t *testing.T) {
	beaconState := justificationState(t)
	// 66 * 3 < 100 * 2
	pBal := &precompute.Balance{ActiveCurrentEpoch: 100, PrevEpochTargetAttested: 66, CurrentEpochTargetAttested: 66}

	newState, err := precompute.ProcessJustificationAndFinalizationPreCompute(beaconState, pBal)
	require.NoError(t, err)
	assert.Equal(t, types.Epoch(2), newState.CurrentJustifiedCheckpoint().Epoch)
	assert.DeepEqual(t, bitfield.Bitvector4{0x06}, newState.JustificationBits())
	// Epochs 1 and 2 were already justified, so epoch 1 finalizes on the shifted bits.
	assert.Equal(t, types.Epoch(1), newState.FinalizedCheckpointEpoch())
}

func TestProcessJustificationAndFinalizationPreCompute_FinalizationNeverRegresses(t *testing.T) {
	beaconState := justificationState(t)
	finalized := &ethpb.Checkpoint{Epoch: 5, Root: bytesutil.PadTo([]byte("final"), 32)}
	require.NoError(t, beaconState.SetFinalizedCheckpoint(finalized))
	pBal := &precompute.Balance{ActiveCurrentEpoch: 100, PrevEpochTargetAttested: 100, CurrentEpochTargetAttested: 100}

	newState, err := precompute.ProcessJustificationAndFinalizationPreCompute(beaconState, pBal)
	require.NoError(t, err)
	assert.DeepEqual(t, finalized, newState.FinalizedCheckpoint())
}

func TestProcessJustificationAndFinalizationPreCompute_SkipsFirstEpochs(t *testing.T) {
	beaconState, _ := util.DeterministicGenesisState(t, 16)
	require.NoError(t, beaconState.SetSlot(beaconState.Config().SlotsPerEpoch+1))
	before := beaconState.CurrentJustifiedCheckpoint()
	pBal := &precompute.Balance{ActiveCurrentEpoch: 100, PrevEpochTargetAttested: 100, CurrentEpochTargetAttested: 100}

	newState, err := precompute.ProcessJustificationAndFinalizationPreCompute(beaconState, pBal)
	require.NoError(t, err)
	assert.DeepEqual(t, before, newState.CurrentJustifiedCheckpoint())
	assert.DeepEqual(t, bitfield.Bitvector4{0x00}, newState.JustificationBits())
}

func TestProcessJustificationAndFinalizationPreCompute_NilBalance(t *testing.T) {
	beaconState := justificationState(t)
	_, err := precompute.ProcessJustificationAndFinalizationPreCompute(beaconState, nil)
	assert.ErrorContains(t, "nil precomputed balance", err)
}
