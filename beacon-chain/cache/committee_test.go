package cache

import (
	"context"
	"testing"

	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestCommitteeCache_CommitteesByPosition(t *testing.T) {
	cache, err := NewCommitteesCache()
	require.NoError(t, err)

	item := &Committees{
		ShuffledIndices: []types.ValidatorIndex{1, 2, 3, 4, 5, 6},
		Seed:            [32]byte{'A'},
		CommitteeCount:  3,
	}

	indices, err := cache.Committee(context.Background(), item.Seed, 1)
	require.NoError(t, err)
	if indices != nil {
		t.Error("Expected committee not to exist in empty cache")
	}
	require.NoError(t, cache.AddCommitteeShuffledList(context.Background(), item))

	tests := []struct {
		position uint64
		want     []types.ValidatorIndex
	}{
		{position: 0, want: []types.ValidatorIndex{1, 2}},
		{position: 1, want: []types.ValidatorIndex{3, 4}},
		{position: 2, want: []types.ValidatorIndex{5, 6}},
	}
	for _, tt := range tests {
		indices, err = cache.Committee(context.Background(), item.Seed, tt.position)
		require.NoError(t, err)
		assert.DeepEqual(t, tt.want, indices)
	}

	_, err = cache.Committee(context.Background(), item.Seed, 3)
	assert.ErrorContains(t, "out of range", err)
}

func TestCommitteeCache_ActiveIndices(t *testing.T) {
	cache, err := NewCommitteesCache()
	require.NoError(t, err)

	item := &Committees{Seed: [32]byte{'A'}, SortedIndices: []types.ValidatorIndex{1, 2, 3, 4, 5, 6}}
	indices, err := cache.ActiveIndices(context.Background(), item.Seed)
	require.NoError(t, err)
	if indices != nil {
		t.Error("Expected committee not to exist in empty cache")
	}

	require.NoError(t, cache.AddCommitteeShuffledList(context.Background(), item))
	indices, err = cache.ActiveIndices(context.Background(), item.Seed)
	require.NoError(t, err)
	assert.DeepEqual(t, item.SortedIndices, indices)

	count, err := cache.ActiveIndicesCount(context.Background(), item.Seed)
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestCommitteeCache_CanRotate(t *testing.T) {
	cache, err := NewCommitteesCache()
	require.NoError(t, err)

	start := 100
	end := start + maxCommitteesCacheSize + 10
	for i := start; i < end; i++ {
		s := [32]byte{byte(i)}
		item := &Committees{Seed: s}
		require.NoError(t, cache.AddCommitteeShuffledList(context.Background(), item))
	}
	assert.Equal(t, maxCommitteesCacheSize, cache.CommitteeCache.Len())

	indices, err := cache.ShuffledIndices(context.Background(), [32]byte{byte(start)})
	require.NoError(t, err)
	assert.Equal(t, true, indices == nil)
	_, ok := cache.CommitteeCache.Get([32]byte{byte(end - 1)})
	assert.Equal(t, true, ok)
}

func TestCommitteeCache_Clear(t *testing.T) {
	cache, err := NewCommitteesCache()
	require.NoError(t, err)
	require.NoError(t, cache.AddCommitteeShuffledList(context.Background(), &Committees{Seed: [32]byte{1}}))
	cache.Clear()
	assert.Equal(t, 0, cache.CommitteeCache.Len())
	assert.ErrorIs(t, cache.AddCommitteeShuffledList(context.Background(), nil), ErrNilCommittees)
}
