package helpers

import (
	"context"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/math"
	"go.opencensus.io/trace"
)

// TotalBalance returns the total amount at stake in Gwei
// of input validators.
//
// Pseudocode definition:
//
//	def get_total_balance(state: BeaconState, indices: Set[ValidatorIndex]) -> Gwei:
//	 """
//	 Return the combined effective balance of the `indices`.
//	 ``EFFECTIVE_BALANCE_INCREMENT`` Gwei minimum to avoid divisions by zero.
//	 Math safe up to ~10B ETH, afterwhich this overflows uint64.
//	 """
//	 return Gwei(max(EFFECTIVE_BALANCE_INCREMENT, sum([state.validators[index].effective_balance for index in indices])))
func TotalBalance(st state.ReadOnlyBeaconState, indices []types.ValidatorIndex) uint64 {
	total := uint64(0)

	for _, idx := range indices {
		val, err := st.ValidatorAtIndexReadOnly(idx)
		if err != nil {
			// Unknown indices contribute nothing to the total.
			log.WithError(err).WithField("validatorIndex", idx).Debug("Skipping validator missing from registry in total balance")
			continue
		}
		total += val.EffectiveBalance()
	}

	// EFFECTIVE_BALANCE_INCREMENT is the lower bound for total balance.
	if total < st.Config().EffectiveBalanceIncrement {
		return st.Config().EffectiveBalanceIncrement
	}

	return total
}

// TotalActiveBalance returns the total amount at stake in Gwei
// of active validators.
//
// Pseudocode definition:
//
//	def get_total_active_balance(state: BeaconState) -> Gwei:
//	 """
//	 Return the combined effective balance of the active validators.
//	 Note: `get_total_balance` returns ``EFFECTIVE_BALANCE_INCREMENT`` Gwei minimum to avoid divisions by zero.
//	 """
//	 return get_total_balance(state, set(get_active_validator_indices(state, get_current_epoch(state))))
func TotalActiveBalance(ctx context.Context, st state.ReadOnlyBeaconState) (uint64, error) {
	_, span := trace.StartSpan(ctx, "helpers.TotalActiveBalance")
	defer span.End()

	total := uint64(0)
	epoch := CurrentEpoch(st)
	if err := st.ReadFromEveryValidator(func(idx int, val state.ReadOnlyValidator) error {
		if IsActiveValidatorUsingTrie(val, epoch) {
			total += val.EffectiveBalance()
		}
		return nil
	}); err != nil {
		return 0, err
	}

	// EffectiveBalanceIncrement is the floor to avoid divisions by zero.
	return math.Max(st.Config().EffectiveBalanceIncrement, total), nil
}

// IncreaseBalance increases validator with the given 'index' balance by 'delta' in Gwei.
//
// Pseudocode definition:
//
//	def increase_balance(state: BeaconState, index: ValidatorIndex, delta: Gwei) -> None:
//	  """
//	  Increase the validator balance at index `index` by `delta`.
//	  """
//	  state.balances[index] += delta
func IncreaseBalance(st state.BeaconState, idx types.ValidatorIndex, delta uint64) error {
	balAtIdx, err := st.BalanceAtIndex(idx)
	if err != nil {
		return err
	}
	newBal, err := math.Add64(balAtIdx, delta)
	if err != nil {
		return err
	}
	return st.UpdateBalancesAtIndex(idx, newBal)
}

// DecreaseBalance decreases validator with the given 'index' balance by 'delta' in Gwei.
//
// Pseudocode definition:
//
//	def decrease_balance(state: BeaconState, index: ValidatorIndex, delta: Gwei) -> None:
//	  """
//	  Decrease the validator balance at index `index` by `delta`, with underflow protection.
//	  """
//	  state.balances[index] = 0 if delta > state.balances[index] else state.balances[index] - delta
func DecreaseBalance(st state.BeaconState, idx types.ValidatorIndex, delta uint64) error {
	balAtIdx, err := st.BalanceAtIndex(idx)
	if err != nil {
		return err
	}
	return st.UpdateBalancesAtIndex(idx, math.SaturatingSub(balAtIdx, delta))
}
