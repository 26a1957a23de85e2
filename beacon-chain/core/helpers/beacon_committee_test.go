package helpers_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestSlotCommitteeCount_OK(t *testing.T) {
	cfg := params.MainnetConfig()
	tests := []struct {
		validatorCount uint64
		committeeCount uint64
	}{
		{validatorCount: 0, committeeCount: 1},
		{validatorCount: 1000, committeeCount: 1},
		{validatorCount: 2 * 128 * 32, committeeCount: 2},
		{validatorCount: 1 << 20, committeeCount: 64},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.committeeCount, helpers.SlotCommitteeCount(cfg, tt.validatorCount), "SlotCommitteeCount(%d)", tt.validatorCount)
	}
}

func TestBeaconCommitteeFromState_PartitionsActiveSet(t *testing.T) {
	helpers.ClearCache()
	cfg := params.MinimalSpecConfig()
	const n = 256
	st := newState(t, cfg, n, 0)

	committeesPerSlot := helpers.SlotCommitteeCount(cfg, n)
	seen := make(map[types.ValidatorIndex]int)
	for slot := types.Slot(0); slot < cfg.SlotsPerEpoch; slot++ {
		for i := uint64(0); i < committeesPerSlot; i++ {
			committee, err := helpers.BeaconCommitteeFromState(context.Background(), st, slot, types.CommitteeIndex(i))
			require.NoError(t, err)
			assert.Equal(t, true, len(committee) > 0)
			for _, idx := range committee {
				seen[idx]++
			}
		}
	}
	assert.Equal(t, n, len(seen), "Every active validator belongs to a committee")
	for idx, count := range seen {
		assert.Equal(t, 1, count, "validator %d in %d committees", idx, count)
	}

	_, err := helpers.BeaconCommitteeFromState(context.Background(), st, 0, types.CommitteeIndex(committeesPerSlot))
	assert.ErrorContains(t, "committee index", err)
}

func TestBeaconCommittee_MatchesComputeShuffledIndex(t *testing.T) {
	helpers.ClearCache()
	cfg := params.MinimalSpecConfig()
	st := newState(t, cfg, 64, 0)
	indices, err := helpers.ActiveValidatorIndices(context.Background(), st, 0)
	require.NoError(t, err)
	seed, err := helpers.Seed(st, 0, cfg.DomainBeaconAttester)
	require.NoError(t, err)

	slot := types.Slot(3)
	committee, err := helpers.BeaconCommittee(context.Background(), cfg, indices, seed, slot, 0)
	require.NoError(t, err)

	perSlot := helpers.SlotCommitteeCount(cfg, uint64(len(indices)))
	count := perSlot * uint64(cfg.SlotsPerEpoch)
	index := uint64(slot) * perSlot
	start := uint64(len(indices)) * index / count
	end := uint64(len(indices)) * (index + 1) / count
	want := make([]types.ValidatorIndex, 0, end-start)
	for i := start; i < end; i++ {
		p, err := helpers.ShuffledIndex(types.ValidatorIndex(i), uint64(len(indices)), seed, cfg.ShuffleRoundCount)
		require.NoError(t, err)
		want = append(want, indices[p])
	}
	assert.DeepEqual(t, want, committee)

	// A cached lookup returns the same committee.
	again, err := helpers.BeaconCommittee(context.Background(), cfg, indices, seed, slot, 0)
	require.NoError(t, err)
	assert.DeepEqual(t, committee, again)
}

func TestBeaconCommittee_DistinctRegistriesDoNotShareCache(t *testing.T) {
	helpers.ClearCache()
	cfg := params.MinimalSpecConfig()
	small := newState(t, cfg, 16, 0)
	large := newState(t, cfg, 64, 0)

	c1, err := helpers.BeaconCommitteeFromState(context.Background(), small, 0, 0)
	require.NoError(t, err)
	c2, err := helpers.BeaconCommitteeFromState(context.Background(), large, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, len(c1))
	assert.Equal(t, 4, len(c2))
}

func TestComputeCommittee_ZeroCount(t *testing.T) {
	_, err := helpers.ComputeCommittee([]types.ValidatorIndex{1, 2}, 0, 0)
	assert.ErrorContains(t, "zero committee count", err)
}
