package epoch

import (
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"golang.org/x/exp/slices"
)

// queuedValidator is an activation queue entry.
type queuedValidator struct {
	index                      types.ValidatorIndex
	activationEligibilityEpoch types.Epoch
}

// sortActivationQueue sorts newly activated validator indices by activation eligibility epoch
// and then by index number.
func sortActivationQueue(queue []queuedValidator) {
	slices.SortFunc(queue, func(a, b queuedValidator) bool {
		if a.activationEligibilityEpoch == b.activationEligibilityEpoch {
			return a.index < b.index
		}
		return a.activationEligibilityEpoch < b.activationEligibilityEpoch
	})
}

// activationQueue returns the validators eligible for activation and not yet dequeued, in
// activation order.
func activationQueue(st state.ReadOnlyBeaconState) ([]types.ValidatorIndex, error) {
	var queue []queuedValidator
	if err := st.ReadFromEveryValidator(func(idx int, val state.ReadOnlyValidator) error {
		if helpers.IsEligibleForActivation(st, val) {
			queue = append(queue, queuedValidator{
				index:                      types.ValidatorIndex(idx),
				activationEligibilityEpoch: val.ActivationEligibilityEpoch(),
			})
		}
		return nil
	}); err != nil {
		return nil, err
	}
	sortActivationQueue(queue)
	indices := make([]types.ValidatorIndex, len(queue))
	for i, q := range queue {
		indices[i] = q.index
	}
	return indices, nil
}
