// Package validators contains libraries to initiate validator exits and to
// slash misbehaving validators.
package validators

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/math"
	"go.opencensus.io/trace"
)

// InitiateValidatorExit takes in validator index and updates
// validator with correct voluntary exit parameters.
//
// Pseudocode definition:
//
//	def initiate_validator_exit(state: BeaconState, index: ValidatorIndex) -> None:
//	  """
//	  Initiate the exit of the validator with index `index`.
//	  """
//	  # Return if validator already initiated exit
//	  validator = state.validators[index]
//	  if validator.exit_epoch != FAR_FUTURE_EPOCH:
//	      return
//
//	  # Compute exit queue epoch
//	  exit_epochs = [v.exit_epoch for v in state.validators if v.exit_epoch != FAR_FUTURE_EPOCH]
//	  exit_queue_epoch = max(exit_epochs + [compute_activation_exit_epoch(get_current_epoch(state))])
//	  exit_queue_churn = len([v for v in state.validators if v.exit_epoch == exit_queue_epoch])
//	  if exit_queue_churn >= get_validator_churn_limit(state):
//	      exit_queue_epoch += Epoch(1)
//
//	  # Set validator exit epoch and withdrawable epoch
//	  validator.exit_epoch = exit_queue_epoch
//	  validator.withdrawable_epoch = Epoch(validator.exit_epoch + MIN_VALIDATOR_WITHDRAWABILITY_DELAY)
func InitiateValidatorExit(ctx context.Context, s state.BeaconState, idx types.ValidatorIndex) (state.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "validators.InitiateValidatorExit")
	defer span.End()

	cfg := s.Config()
	validator, err := s.ValidatorAtIndex(idx)
	if err != nil {
		return nil, err
	}
	if validator.ExitEpoch != cfg.FarFutureEpoch {
		return s, nil
	}
	currentEpoch := helpers.CurrentEpoch(s)

	// The exit queue epoch is the latest scheduled exit, bounded below by the
	// earliest epoch an exit initiated now could take effect.
	exitQueueEpoch := helpers.ActivationExitEpoch(cfg, currentEpoch)
	if err := s.ReadFromEveryValidator(func(_ int, val state.ReadOnlyValidator) error {
		e := val.ExitEpoch()
		if e != cfg.FarFutureEpoch && e > exitQueueEpoch {
			exitQueueEpoch = e
		}
		return nil
	}); err != nil {
		return nil, err
	}

	exitQueueChurn := uint64(0)
	if err := s.ReadFromEveryValidator(func(_ int, val state.ReadOnlyValidator) error {
		if val.ExitEpoch() == exitQueueEpoch {
			exitQueueChurn++
		}
		return nil
	}); err != nil {
		return nil, err
	}
	activeValidatorCount, err := helpers.ActiveValidatorCount(ctx, s, currentEpoch)
	if err != nil {
		return nil, errors.Wrap(err, "could not get active validator count")
	}
	if exitQueueChurn >= helpers.ValidatorChurnLimit(cfg, activeValidatorCount) {
		exitQueueEpoch, err = exitQueueEpoch.SafeAdd(1)
		if err != nil {
			return nil, err
		}
	}

	validator.ExitEpoch = exitQueueEpoch
	validator.WithdrawableEpoch, err = exitQueueEpoch.SafeAdd(uint64(cfg.MinValidatorWithdrawabilityDelay))
	if err != nil {
		return nil, err
	}
	if err := s.UpdateValidatorAtIndex(idx, validator); err != nil {
		return nil, err
	}
	return s, nil
}

// SlashValidator slashes the malicious validator's balance and awards
// the whistleblower's balance.
//
// Pseudocode definition:
//
//	def slash_validator(state: BeaconState,
//	                  slashed_index: ValidatorIndex,
//	                  whistleblower_index: ValidatorIndex=None) -> None:
//	  """
//	  Slash the validator with index `slashed_index`.
//	  """
//	  epoch = get_current_epoch(state)
//	  initiate_validator_exit(state, slashed_index)
//	  validator = state.validators[slashed_index]
//	  validator.slashed = True
//	  validator.withdrawable_epoch = max(validator.withdrawable_epoch, Epoch(epoch + EPOCHS_PER_SLASHINGS_VECTOR))
//	  state.slashings[epoch % EPOCHS_PER_SLASHINGS_VECTOR] += validator.effective_balance
//	  decrease_balance(state, slashed_index, validator.effective_balance // MIN_SLASHING_PENALTY_QUOTIENT)
//
//	  # Apply proposer and whistleblower rewards
//	  proposer_index = get_beacon_proposer_index(state)
//	  if whistleblower_index is None:
//	      whistleblower_index = proposer_index
//	  whistleblower_reward = Gwei(validator.effective_balance // WHISTLEBLOWER_REWARD_QUOTIENT)
//	  proposer_reward = Gwei(whistleblower_reward // PROPOSER_REWARD_QUOTIENT)
//	  increase_balance(state, proposer_index, proposer_reward)
//	  increase_balance(state, whistleblower_index, Gwei(whistleblower_reward - proposer_reward))
func SlashValidator(ctx context.Context, s state.BeaconState, slashedIdx types.ValidatorIndex) (state.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "validators.SlashValidator")
	defer span.End()

	s, err := InitiateValidatorExit(ctx, s, slashedIdx)
	if err != nil {
		return nil, errors.Wrapf(err, "could not initiate validator %d exit", slashedIdx)
	}
	cfg := s.Config()
	currentEpoch := helpers.CurrentEpoch(s)
	validator, err := s.ValidatorAtIndex(slashedIdx)
	if err != nil {
		return nil, err
	}
	validator.Slashed = true
	slashedUntil, err := currentEpoch.SafeAdd(uint64(cfg.EpochsPerSlashingsVector))
	if err != nil {
		return nil, err
	}
	validator.WithdrawableEpoch = types.MaxEpoch(validator.WithdrawableEpoch, slashedUntil)
	if err := s.UpdateValidatorAtIndex(slashedIdx, validator); err != nil {
		return nil, err
	}

	// The slashed validator's effective balance is added to the slashings
	// vector at the current epoch's position.
	slashings := s.Slashings()
	currentSlashingEpoch := uint64(currentEpoch.Mod(uint64(cfg.EpochsPerSlashingsVector)))
	if currentSlashingEpoch >= uint64(len(slashings)) {
		return nil, errors.Wrapf(state.ErrOutOfBounds, "slashings index %d", currentSlashingEpoch)
	}
	slashed, err := math.Add64(slashings[currentSlashingEpoch], validator.EffectiveBalance)
	if err != nil {
		return nil, errors.Wrap(err, "could not accumulate slashed balance")
	}
	if err := s.UpdateSlashingsAtIndex(currentSlashingEpoch, slashed); err != nil {
		return nil, err
	}
	if err := helpers.DecreaseBalance(s, slashedIdx, validator.EffectiveBalance/cfg.MinSlashingPenaltyQuotient); err != nil {
		return nil, err
	}

	proposerIdx, err := helpers.BeaconProposerIndex(ctx, s)
	if err != nil {
		return nil, errors.Wrap(err, "could not get proposer idx")
	}
	// The proposer is the whistleblower.
	whistleBlowerIdx := proposerIdx
	whistleblowerReward := validator.EffectiveBalance / cfg.WhistleBlowerRewardQuotient
	proposerReward := whistleblowerReward / cfg.ProposerRewardQuotient
	if err := helpers.IncreaseBalance(s, proposerIdx, proposerReward); err != nil {
		return nil, err
	}
	if err := helpers.IncreaseBalance(s, whistleBlowerIdx, whistleblowerReward-proposerReward); err != nil {
		return nil, err
	}
	return s, nil
}

// ExitedValidatorIndices returns the indices of validators whose exit epoch is the given epoch.
func ExitedValidatorIndices(s state.ReadOnlyBeaconState, epoch types.Epoch) ([]types.ValidatorIndex, error) {
	exited := make([]types.ValidatorIndex, 0)
	if err := s.ReadFromEveryValidator(func(idx int, val state.ReadOnlyValidator) error {
		if val.ExitEpoch() == epoch {
			exited = append(exited, types.ValidatorIndex(idx))
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return exited, nil
}
