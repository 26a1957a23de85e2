package cache

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"go.opencensus.io/trace"
)

const (
	// maxCommitteesCacheSize defines the max number of shuffled committees on per randao basis can cache.
	maxCommitteesCacheSize = 32
)

var (
	// CommitteeCacheMiss tracks the number of committee requests that aren't present in the cache.
	CommitteeCacheMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "committee_cache_miss",
		Help: "The number of committee requests that aren't present in the cache.",
	})
	// CommitteeCacheHit tracks the number of committee requests that are in the cache.
	CommitteeCacheHit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "committee_cache_hit",
		Help: "The number of committee requests that are present in the cache.",
	})
)

// Committees defines the shuffled committees seed.
type Committees struct {
	CommitteeCount  uint64
	Seed            [32]byte
	ShuffledIndices []types.ValidatorIndex
	SortedIndices   []types.ValidatorIndex
}

// CommitteeCache is a struct with 1 queue for looking up shuffled indices list by seed.
type CommitteeCache struct {
	CommitteeCache *lru.Cache
	lock           sync.RWMutex
}

// NewCommitteesCache creates a new committee cache for storing/accessing shuffled indices of a committee.
func NewCommitteesCache() (*CommitteeCache, error) {
	c, err := lru.New(maxCommitteesCacheSize)
	if err != nil {
		return nil, err
	}
	return &CommitteeCache{CommitteeCache: c}, nil
}

// Clear resets the CommitteeCache to its initial state.
func (c *CommitteeCache) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.CommitteeCache.Purge()
}

// Committee fetches the shuffled indices by position within the epoch and seed. Returns nil
// when the seed is not in the cache.
func (c *CommitteeCache) Committee(ctx context.Context, seed [32]byte, position uint64) ([]types.ValidatorIndex, error) {
	_, span := trace.StartSpan(ctx, "committeeCache.Committee")
	defer span.End()

	item, err := c.get(seed)
	if err != nil || item == nil {
		return nil, err
	}
	if position >= item.CommitteeCount {
		return nil, errors.Errorf("committee position %d is out of range for %d committees", position, item.CommitteeCount)
	}
	start, end := startEndIndices(item, position)
	return item.ShuffledIndices[start:end], nil
}

// AddCommitteeShuffledList adds Committee shuffled list object to the cache. This method also
// evicts the least recently used list once the cache size has reached the max cache size limit.
func (c *CommitteeCache) AddCommitteeShuffledList(ctx context.Context, committees *Committees) error {
	_, span := trace.StartSpan(ctx, "committeeCache.AddCommitteeShuffledList")
	defer span.End()

	if committees == nil {
		return ErrNilCommittees
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.CommitteeCache.Add(committees.Seed, committees)
	return nil
}

// ShuffledIndices returns the whole shuffled active set of the given seed, or nil when absent.
func (c *CommitteeCache) ShuffledIndices(ctx context.Context, seed [32]byte) ([]types.ValidatorIndex, error) {
	_, span := trace.StartSpan(ctx, "committeeCache.ShuffledIndices")
	defer span.End()

	item, err := c.get(seed)
	if err != nil || item == nil {
		return nil, err
	}
	return item.ShuffledIndices, nil
}

// ActiveIndices returns the active indices of a given seed stored in cache.
func (c *CommitteeCache) ActiveIndices(ctx context.Context, seed [32]byte) ([]types.ValidatorIndex, error) {
	_, span := trace.StartSpan(ctx, "committeeCache.ActiveIndices")
	defer span.End()

	item, err := c.get(seed)
	if err != nil || item == nil {
		return nil, err
	}
	return item.SortedIndices, nil
}

// ActiveIndicesCount returns the active indices count of a given seed stored in cache.
func (c *CommitteeCache) ActiveIndicesCount(ctx context.Context, seed [32]byte) (int, error) {
	_, span := trace.StartSpan(ctx, "committeeCache.ActiveIndicesCount")
	defer span.End()

	item, err := c.get(seed)
	if err != nil || item == nil {
		return 0, err
	}
	return len(item.SortedIndices), nil
}

func (c *CommitteeCache) get(seed [32]byte) (*Committees, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	obj, exists := c.CommitteeCache.Get(seed)
	if !exists {
		CommitteeCacheMiss.Inc()
		return nil, nil
	}
	CommitteeCacheHit.Inc()

	item, ok := obj.(*Committees)
	if !ok {
		return nil, ErrNotCommittee
	}
	return item, nil
}

// startEndIndices returns the bounds of a committee within the shuffled list.
//
// Pseudocode definition:
//
//	def compute_committee(indices: Sequence[ValidatorIndex],
//	                      seed: Bytes32,
//	                      index: uint64,
//	                      count: uint64) -> Sequence[ValidatorIndex]:
//	    start = (len(indices) * index) // count
//	    end = (len(indices) * (index + 1)) // count
//	    return [indices[compute_shuffled_index(i, len(indices), seed)] for i in range(start, end)]
func startEndIndices(c *Committees, index uint64) (uint64, uint64) {
	validatorCount := uint64(len(c.ShuffledIndices))
	start := validatorCount * index / c.CommitteeCount
	end := validatorCount * (index + 1) / c.CommitteeCount
	return start, end
}
