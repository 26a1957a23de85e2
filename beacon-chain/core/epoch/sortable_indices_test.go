package epoch

import (
	"testing"

	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
)

func TestSortActivationQueue(t *testing.T) {
	queue := []queuedValidator{
		{index: 9, activationEligibilityEpoch: 3},
		{index: 1, activationEligibilityEpoch: 5},
		{index: 4, activationEligibilityEpoch: 3},
		{index: 2, activationEligibilityEpoch: 0},
		{index: 7, activationEligibilityEpoch: 5},
	}
	sortActivationQueue(queue)

	want := []types.ValidatorIndex{2, 4, 9, 1, 7}
	got := make([]types.ValidatorIndex, len(queue))
	for i, q := range queue {
		got[i] = q.index
	}
	assert.DeepEqual(t, want, got)
}
