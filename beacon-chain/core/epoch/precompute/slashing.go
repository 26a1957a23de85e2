package precompute

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/math"
)

// ProcessSlashingsPrecompute processes the slashed validators during epoch processing.
// This is an optimized version by passing in precomputed total epoch balances.
//
// Pseudocode definition:
//
//	def process_slashings(state: BeaconState) -> None:
//	  epoch = get_current_epoch(state)
//	  total_balance = get_total_active_balance(state)
//	  adjusted_total_slashing_balance = min(sum(state.slashings) * PROPORTIONAL_SLASHING_MULTIPLIER, total_balance)
//	  for index, validator in enumerate(state.validators):
//	      if validator.slashed and epoch + EPOCHS_PER_SLASHINGS_VECTOR // 2 == validator.withdrawable_epoch:
//	          increment = EFFECTIVE_BALANCE_INCREMENT  # Factored out from penalty numerator to avoid uint64 overflow
//	          penalty_numerator = validator.effective_balance // increment * adjusted_total_slashing_balance
//	          penalty = penalty_numerator // total_balance * increment
//	          decrease_balance(state, ValidatorIndex(index), penalty)
func ProcessSlashingsPrecompute(s state.BeaconState, pBal *Balance) error {
	if pBal == nil || pBal.ActiveCurrentEpoch == 0 {
		return errors.New("nil or empty precomputed balance")
	}
	cfg := s.Config()
	currentEpoch := helpers.CurrentEpoch(s)
	exitLength := cfg.EpochsPerSlashingsVector

	// Compute the sum of state slashings
	totalSlashing := uint64(0)
	var err error
	for _, slashing := range s.Slashings() {
		totalSlashing, err = math.Add64(totalSlashing, slashing)
		if err != nil {
			return errors.Wrap(err, "total slashing")
		}
	}

	adjusted, err := math.Mul64(totalSlashing, cfg.ProportionalSlashingMultiplier)
	if err != nil {
		return errors.Wrap(err, "adjusted slashing balance")
	}
	minSlashing := math.Min(adjusted, pBal.ActiveCurrentEpoch)
	epochToWithdraw, err := currentEpoch.SafeAdd(uint64(exitLength / 2))
	if err != nil {
		return err
	}

	var hasSlashing bool
	// Iterate through validator list in state, stop until a validator satisfies slashing condition of current epoch.
	err = s.ReadFromEveryValidator(func(idx int, val state.ReadOnlyValidator) error {
		if !hasSlashing && val.Slashed() && epochToWithdraw == val.WithdrawableEpoch() {
			hasSlashing = true
		}
		return nil
	})
	if err != nil {
		return err
	}
	// Exit early if there's no meaningful slashing to process.
	if !hasSlashing {
		return nil
	}

	increment := cfg.EffectiveBalanceIncrement
	var penalized []types.ValidatorIndex
	var penalties []uint64
	err = s.ReadFromEveryValidator(func(idx int, val state.ReadOnlyValidator) error {
		if val.Slashed() && epochToWithdraw == val.WithdrawableEpoch() {
			penaltyNumerator, err := math.Mul64(val.EffectiveBalance()/increment, minSlashing)
			if err != nil {
				return errors.Wrapf(err, "slashing penalty of validator %d", idx)
			}
			penalized = append(penalized, types.ValidatorIndex(idx))
			penalties = append(penalties, penaltyNumerator/pBal.ActiveCurrentEpoch*increment)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i, idx := range penalized {
		if err := helpers.DecreaseBalance(s, idx, penalties[i]); err != nil {
			return err
		}
	}
	return nil
}
