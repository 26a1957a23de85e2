package helpers_test

import (
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestSlotToEpoch_OK(t *testing.T) {
	cfg := params.MainnetConfig()
	tests := []struct {
		slot  types.Slot
		epoch types.Epoch
	}{
		{slot: 0, epoch: 0},
		{slot: 50, epoch: 1},
		{slot: 64, epoch: 2},
		{slot: 128, epoch: 4},
		{slot: 200, epoch: 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.epoch, helpers.SlotToEpoch(cfg, tt.slot), "SlotToEpoch(%d)", tt.slot)
	}
}

func TestCurrentAndPrevEpoch_OK(t *testing.T) {
	cfg := params.MinimalSpecConfig()
	tests := []struct {
		slot    types.Slot
		current types.Epoch
		prev    types.Epoch
	}{
		{slot: 0, current: 0, prev: 0},
		{slot: 7, current: 0, prev: 0},
		{slot: 8, current: 1, prev: 0},
		{slot: 33, current: 4, prev: 3},
	}
	for _, tt := range tests {
		st := newState(t, cfg, 1, tt.slot)
		assert.Equal(t, tt.current, helpers.CurrentEpoch(st), "CurrentEpoch(%d)", tt.slot)
		assert.Equal(t, tt.prev, helpers.PrevEpoch(st), "PrevEpoch(%d)", tt.slot)
		assert.Equal(t, tt.current+1, helpers.NextEpoch(st), "NextEpoch(%d)", tt.slot)
	}
}

func TestEpochStart_OK(t *testing.T) {
	cfg := params.MainnetConfig()
	s, err := helpers.EpochStart(cfg, 3)
	require.NoError(t, err)
	assert.Equal(t, types.Slot(96), s)

	_, err = helpers.EpochStart(cfg, 1<<60)
	assert.ErrorContains(t, "start slot calculation overflows", err)
}

func TestIsEpochStartEnd(t *testing.T) {
	cfg := params.MinimalSpecConfig()
	assert.Equal(t, true, helpers.IsEpochStart(cfg, 0))
	assert.Equal(t, true, helpers.IsEpochStart(cfg, 16))
	assert.Equal(t, false, helpers.IsEpochStart(cfg, 15))
	assert.Equal(t, true, helpers.IsEpochEnd(cfg, 15))
	assert.Equal(t, false, helpers.IsEpochEnd(cfg, 16))
}
