package helpers

import (
	"context"
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/cache"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/hash"
	"github.com/prysmaticlabs/beacon-transition/math"
	"go.opencensus.io/trace"
)

var committeeCache = newCommitteeCache()

func newCommitteeCache() *cache.CommitteeCache {
	c, err := cache.NewCommitteesCache()
	if err != nil {
		panic(err)
	}
	return c
}

// ClearCache clears the committee cache.
func ClearCache() {
	committeeCache.Clear()
}

// SlotCommitteeCount returns the number of beacon committees of a slot. The
// active validator count is provided as an argument rather than an imported implementation
// from the pseudocode definition. Having the active validator count as an argument allows for
// cheaper computation, instead of retrieving head state, one can retrieve the validator
// count.
//
// Pseudocode definition:
//
//	def get_committee_count_per_slot(state: BeaconState, epoch: Epoch) -> uint64:
//	  """
//	  Return the number of committees in each slot for the given `epoch`.
//	  """
//	  return max(uint64(1), min(
//	      MAX_COMMITTEES_PER_SLOT,
//	      uint64(len(get_active_validator_indices(state, epoch))) // SLOTS_PER_EPOCH // TARGET_COMMITTEE_SIZE,
//	  ))
func SlotCommitteeCount(cfg *params.BeaconChainConfig, activeValidatorCount uint64) uint64 {
	var committeesPerSlot = activeValidatorCount / uint64(cfg.SlotsPerEpoch) / cfg.TargetCommitteeSize

	if committeesPerSlot > cfg.MaxCommitteesPerSlot {
		return cfg.MaxCommitteesPerSlot
	}
	if committeesPerSlot == 0 {
		return 1
	}

	return committeesPerSlot
}

// BeaconCommitteeFromState returns the crosslink committee of a given slot and committee index,
// computing the seed and active indices from the state.
//
// Pseudocode definition:
//
//	def get_beacon_committee(state: BeaconState, slot: Slot, index: CommitteeIndex) -> Sequence[ValidatorIndex]:
//	  """
//	  Return the beacon committee at `slot` for `index`.
//	  """
//	  epoch = compute_epoch_at_slot(slot)
//	  committees_per_slot = get_committee_count_per_slot(state, epoch)
//	  return compute_committee(
//	      indices=get_active_validator_indices(state, epoch),
//	      seed=get_seed(state, epoch, DOMAIN_BEACON_ATTESTER),
//	      index=(slot % SLOTS_PER_EPOCH) * committees_per_slot + index,
//	      count=committees_per_slot * SLOTS_PER_EPOCH,
//	  )
func BeaconCommitteeFromState(ctx context.Context, st state.ReadOnlyBeaconState, slot types.Slot, committeeIndex types.CommitteeIndex) ([]types.ValidatorIndex, error) {
	ctx, span := trace.StartSpan(ctx, "helpers.BeaconCommitteeFromState")
	defer span.End()

	cfg := st.Config()
	epoch := SlotToEpoch(cfg, slot)
	seed, err := Seed(st, epoch, cfg.DomainBeaconAttester)
	if err != nil {
		return nil, errors.Wrap(err, "could not get seed")
	}
	indices, err := ActiveValidatorIndices(ctx, st, epoch)
	if err != nil {
		return nil, errors.Wrap(err, "could not get active indices")
	}
	return BeaconCommittee(ctx, cfg, indices, seed, slot, committeeIndex)
}

// BeaconCommittee returns the beacon committee of a given slot and committee index. The
// validator indices and seed are provided as an argument rather than an imported implementation
// from the pseudocode definition. Having them as an argument allows for cheaper computation run time.
func BeaconCommittee(
	ctx context.Context,
	cfg *params.BeaconChainConfig,
	validatorIndices []types.ValidatorIndex,
	seed [32]byte,
	slot types.Slot,
	committeeIndex types.CommitteeIndex,
) ([]types.ValidatorIndex, error) {
	committeesPerSlot := SlotCommitteeCount(cfg, uint64(len(validatorIndices)))
	if uint64(committeeIndex) >= committeesPerSlot {
		return nil, errors.Errorf("committee index %d is not less than committee count %d", committeeIndex, committeesPerSlot)
	}
	indexOffset, err := math.Add64(uint64(committeeIndex), uint64(slot%cfg.SlotsPerEpoch)*committeesPerSlot)
	if err != nil {
		return nil, errors.Wrap(err, "could not add calculate index offset")
	}
	count := committeesPerSlot * uint64(cfg.SlotsPerEpoch)

	key := shufflingKey(seed, validatorIndices, count, cfg.ShuffleRoundCount)
	committee, err := committeeCache.Committee(ctx, key, indexOffset)
	if err != nil {
		return nil, errors.Wrap(err, "could not interface with committee cache")
	}
	if committee != nil {
		return committee, nil
	}

	shuffled, err := shuffledActiveIndices(cfg, validatorIndices, seed)
	if err != nil {
		return nil, err
	}
	if err := committeeCache.AddCommitteeShuffledList(ctx, &cache.Committees{
		CommitteeCount:  count,
		Seed:            key,
		ShuffledIndices: shuffled,
		SortedIndices:   validatorIndices,
	}); err != nil {
		return nil, errors.Wrap(err, "could not add committee to cache")
	}
	return ComputeCommittee(shuffled, indexOffset, count)
}

// ComputeCommittee returns the requested shuffled committee out of the total committees using
// validator indices that were already unshuffled with the epoch seed.
//
// Pseudocode definition:
//
//	def compute_committee(indices: Sequence[ValidatorIndex],
//	                    seed: Bytes32,
//	                    index: uint64,
//	                    count: uint64) -> Sequence[ValidatorIndex]:
//	  """
//	  Return the committee corresponding to `indices`, `seed`, `index`, and committee `count`.
//	  """
//	  start = (len(indices) * index) // count
//	  end = (len(indices) * uint64(index + 1)) // count
//	  return [indices[compute_shuffled_index(uint64(i), uint64(len(indices)), seed)] for i in range(start, end)]
func ComputeCommittee(shuffled []types.ValidatorIndex, index, count uint64) ([]types.ValidatorIndex, error) {
	if count == 0 {
		return nil, errors.New("zero committee count")
	}
	validatorCount := uint64(len(shuffled))
	start, err := math.Div64(validatorCount*index, count)
	if err != nil {
		return nil, errors.Wrap(err, "could not get start index")
	}
	end, err := math.Div64(validatorCount*(index+1), count)
	if err != nil {
		return nil, errors.Wrap(err, "could not get end index")
	}
	if start > validatorCount || end > validatorCount {
		return nil, errors.New("index out of range")
	}
	return shuffled[start:end], nil
}

// shuffledActiveIndices returns a fresh slice holding the active indices in committee order.
func shuffledActiveIndices(cfg *params.BeaconChainConfig, indices []types.ValidatorIndex, seed [32]byte) ([]types.ValidatorIndex, error) {
	shuffledIndices := make([]types.ValidatorIndex, len(indices))
	copy(shuffledIndices, indices)
	// UnshuffleList is used here as it is an optimized implementation created
	// for fast computation of committees.
	// Reference implementation: https://github.com/protolambda/eth2-shuffle
	return UnshuffleList(shuffledIndices, seed, cfg.ShuffleRoundCount)
}

// shufflingKey commits to the seed, the active set and the committee parameters, so states that
// share a randao history but differ in their registry or config never share a shuffling.
func shufflingKey(seed [32]byte, indices []types.ValidatorIndex, count, rounds uint64) [32]byte {
	buf := make([]byte, 48+8*len(indices))
	copy(buf, seed[:])
	binary.LittleEndian.PutUint64(buf[32:], count)
	binary.LittleEndian.PutUint64(buf[40:], rounds)
	for i, idx := range indices {
		binary.LittleEndian.PutUint64(buf[48+8*i:], uint64(idx))
	}
	return hash.Hash(buf)
}
