// Package epoch contains epoch processing libraries. These libraries
// process new balance for the validators, rotate validators in and out
// of the active set and maintain the historical accumulators.
package epoch

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/async"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/validators"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/math"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// ProcessRegistryUpdates rotates validators in and out of active pool.
// the amount to rotate is determined churn limit.
//
// Pseudocode definition:
//
//	def process_registry_updates(state: BeaconState) -> None:
//	  # Process activation eligibility and ejections
//	  for index, validator in enumerate(state.validators):
//	      if is_eligible_for_activation_queue(validator):
//	          validator.activation_eligibility_epoch = get_current_epoch(state) + 1
//
//	      if is_active_validator(validator, get_current_epoch(state)) and validator.effective_balance <= EJECTION_BALANCE:
//	          initiate_validator_exit(state, ValidatorIndex(index))
//
//	  # Queue validators eligible for activation and not yet dequeued for activation
//	  activation_queue = sorted([
//	      index for index, validator in enumerate(state.validators)
//	      if is_eligible_for_activation(state, validator)
//	      # Order by the sequence of activation_eligibility_epoch setting and then index
//	  ], key=lambda index: (state.validators[index].activation_eligibility_epoch, index))
//	  # Dequeued validators for activation up to churn limit
//	  for index in activation_queue[:get_validator_churn_limit(state)]:
//	      validator = state.validators[index]
//	      validator.activation_epoch = compute_activation_exit_epoch(get_current_epoch(state))
func ProcessRegistryUpdates(ctx context.Context, st state.BeaconState) (state.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "epoch.ProcessRegistryUpdates")
	defer span.End()

	cfg := st.Config()
	currentEpoch := helpers.CurrentEpoch(st)
	ejectionBal := cfg.EjectionBalance
	activationEligibilityEpoch, err := currentEpoch.SafeAdd(1)
	if err != nil {
		return nil, err
	}

	// Collect the indices first, the exits below change the validator registry.
	var eligible, ejected []types.ValidatorIndex
	if err := st.ReadFromEveryValidator(func(idx int, val state.ReadOnlyValidator) error {
		// Process the validators for activation eligibility.
		if helpers.IsEligibleForActivationQueue(cfg, val) {
			eligible = append(eligible, types.ValidatorIndex(idx))
		}
		// Process the validators for ejection.
		isActive := helpers.IsActiveValidatorUsingTrie(val, currentEpoch)
		belowEjectionBalance := val.EffectiveBalance() <= ejectionBal
		if isActive && belowEjectionBalance {
			ejected = append(ejected, types.ValidatorIndex(idx))
		}
		return nil
	}); err != nil {
		return nil, err
	}

	for _, idx := range eligible {
		v, err := st.ValidatorAtIndex(idx)
		if err != nil {
			return nil, err
		}
		v.ActivationEligibilityEpoch = activationEligibilityEpoch
		if err := st.UpdateValidatorAtIndex(idx, v); err != nil {
			return nil, err
		}
	}
	for _, idx := range ejected {
		st, err = validators.InitiateValidatorExit(ctx, st, idx)
		if err != nil {
			return nil, errors.Wrapf(err, "could not initiate exit for validator %d", idx)
		}
		log.WithFields(logrus.Fields{
			"validatorIndex": idx,
			"epoch":          currentEpoch,
		}).Debug("Ejected validator below ejection balance")
	}

	// Queue validators eligible for activation and not yet dequeued for activation.
	activationQ, err := activationQueue(st)
	if err != nil {
		return nil, errors.Wrap(err, "could not build activation queue")
	}

	// Only activate just enough validators according to the activation churn limit.
	limit := uint64(len(activationQ))
	activeValidatorCount, err := helpers.ActiveValidatorCount(ctx, st, currentEpoch)
	if err != nil {
		return nil, errors.Wrap(err, "could not get active validator count")
	}

	churnLimit := helpers.ValidatorChurnLimit(cfg, activeValidatorCount)

	// Prevent churn limit cause index out of bound.
	if churnLimit < limit {
		limit = churnLimit
	}

	activationExitEpoch := helpers.ActivationExitEpoch(cfg, currentEpoch)
	for _, index := range activationQ[:limit] {
		validator, err := st.ValidatorAtIndex(index)
		if err != nil {
			return nil, err
		}
		validator.ActivationEpoch = activationExitEpoch
		if err := st.UpdateValidatorAtIndex(index, validator); err != nil {
			return nil, err
		}
	}
	if limit > 0 {
		log.WithFields(logrus.Fields{
			"activated":       limit,
			"queued":          len(activationQ),
			"activationEpoch": activationExitEpoch,
		}).Debug("Dequeued validators for activation")
	}

	if log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		exited, err := validators.ExitedValidatorIndices(st, currentEpoch)
		if err != nil {
			return nil, errors.Wrap(err, "could not get exited validators")
		}
		if len(exited) > 0 {
			log.WithFields(logrus.Fields{
				"exited":  len(exited),
				"indices": exited,
				"epoch":   currentEpoch,
			}).Debug("Validators left the active set")
		}
	}
	return st, nil
}

// ProcessEth1DataReset processes updates to ETH1 data votes during epoch processing.
//
// Pseudocode definition:
//
//	def process_eth1_data_reset(state: BeaconState) -> None:
//	  next_epoch = Epoch(get_current_epoch(state) + 1)
//	  # Reset eth1 data votes
//	  if next_epoch % EPOCHS_PER_ETH1_VOTING_PERIOD == 0:
//	      state.eth1_data_votes = []
func ProcessEth1DataReset(st state.BeaconState) (state.BeaconState, error) {
	cfg := st.Config()
	currentEpoch := helpers.CurrentEpoch(st)
	nextEpoch := currentEpoch + 1

	// Reset ETH1 data votes.
	if nextEpoch%cfg.EpochsPerEth1VotingPeriod == 0 {
		if err := st.SetEth1DataVotes([]*ethpb.Eth1Data{}); err != nil {
			return nil, err
		}
	}

	return st, nil
}

// ProcessEffectiveBalanceUpdates processes effective balance updates during epoch processing.
// New effective balances are computed in parallel over disjoint validator ranges and applied
// afterwards in index order.
//
// Pseudocode definition:
//
//	def process_effective_balance_updates(state: BeaconState) -> None:
//	  # Update effective balances with hysteresis
//	  for index, validator in enumerate(state.validators):
//	      balance = state.balances[index]
//	      HYSTERESIS_INCREMENT = uint64(EFFECTIVE_BALANCE_INCREMENT // HYSTERESIS_QUOTIENT)
//	      DOWNWARD_THRESHOLD = HYSTERESIS_INCREMENT * HYSTERESIS_DOWNWARD_MULTIPLIER
//	      UPWARD_THRESHOLD = HYSTERESIS_INCREMENT * HYSTERESIS_UPWARD_MULTIPLIER
//	      if (
//	          balance + DOWNWARD_THRESHOLD < validator.effective_balance
//	          or validator.effective_balance + UPWARD_THRESHOLD < balance
//	      ):
//	          validator.effective_balance = min(balance - balance % EFFECTIVE_BALANCE_INCREMENT, MAX_EFFECTIVE_BALANCE)
func ProcessEffectiveBalanceUpdates(st state.BeaconState) (state.BeaconState, error) {
	cfg := st.Config()
	vals := st.Validators()
	bals := st.Balances()
	if len(vals) != len(bals) {
		return nil, errors.Errorf("validator registry length %d does not match balances length %d", len(vals), len(bals))
	}
	if len(vals) == 0 {
		return st, nil
	}

	results, err := async.Scatter(len(vals), func(offset int, entries int) (interface{}, error) {
		updated := make([]uint64, entries)
		for i := 0; i < entries; i++ {
			eb, err := newEffectiveBalance(cfg, vals[offset+i], bals[offset+i])
			if err != nil {
				return nil, errors.Wrapf(err, "validator %d", offset+i)
			}
			updated[i] = eb
		}
		return updated, nil
	})
	if err != nil {
		return nil, err
	}
	effectiveBalances := make([]uint64, len(vals))
	for _, res := range results {
		chunk, ok := res.Extent.([]uint64)
		if !ok {
			return nil, errors.New("unexpected scatter result type")
		}
		copy(effectiveBalances[res.Offset:], chunk)
	}

	validatorFunc := func(idx int, val *ethpb.Validator) (bool, *ethpb.Validator, error) {
		if val == nil {
			return false, nil, errors.Errorf("validator %d is nil in state", idx)
		}
		if val.EffectiveBalance == effectiveBalances[idx] {
			return false, val, nil
		}
		newVal := ethpb.CopyValidator(val)
		newVal.EffectiveBalance = effectiveBalances[idx]
		return true, newVal, nil
	}

	if err := st.ApplyToEveryValidator(validatorFunc); err != nil {
		return nil, err
	}
	return st, nil
}

func newEffectiveBalance(cfg *params.BeaconChainConfig, val *ethpb.Validator, balance uint64) (uint64, error) {
	if val == nil {
		return 0, errors.New("nil validator")
	}
	hysteresisInc := cfg.EffectiveBalanceIncrement / cfg.HysteresisQuotient
	downwardThreshold, err := math.Mul64(hysteresisInc, cfg.HysteresisDownwardMultiplier)
	if err != nil {
		return 0, err
	}
	upwardThreshold, err := math.Mul64(hysteresisInc, cfg.HysteresisUpwardMultiplier)
	if err != nil {
		return 0, err
	}
	lower, err := math.Add64(balance, downwardThreshold)
	if err != nil {
		return 0, err
	}
	upper, err := math.Add64(val.EffectiveBalance, upwardThreshold)
	if err != nil {
		return 0, err
	}
	if lower < val.EffectiveBalance || upper < balance {
		return math.Min(balance-balance%cfg.EffectiveBalanceIncrement, cfg.MaxEffectiveBalance), nil
	}
	return val.EffectiveBalance, nil
}

// ProcessSlashingsReset processes the total slashing balances updates during epoch processing.
//
// Pseudocode definition:
//
//	def process_slashings_reset(state: BeaconState) -> None:
//	  next_epoch = Epoch(get_current_epoch(state) + 1)
//	  # Reset slashings
//	  state.slashings[next_epoch % EPOCHS_PER_SLASHINGS_VECTOR] = Gwei(0)
func ProcessSlashingsReset(st state.BeaconState) (state.BeaconState, error) {
	cfg := st.Config()
	currentEpoch := helpers.CurrentEpoch(st)
	nextEpoch := currentEpoch + 1

	// Set total slashed balances.
	slashedExitLength := cfg.EpochsPerSlashingsVector
	slashedEpoch := nextEpoch % slashedExitLength
	if uint64(len(st.Slashings())) != uint64(slashedExitLength) {
		return nil, errors.Errorf(
			"state slashing length %d different than EpochsPerSlashingsVector %d",
			len(st.Slashings()),
			slashedExitLength,
		)
	}
	if err := st.UpdateSlashingsAtIndex(uint64(slashedEpoch) /* index */, 0 /* value */); err != nil {
		return nil, err
	}
	return st, nil
}

// ProcessRandaoMixesReset processes the final updates to RANDAO mix during epoch processing.
//
// Pseudocode definition:
//
//	def process_randao_mixes_reset(state: BeaconState) -> None:
//	  current_epoch = get_current_epoch(state)
//	  next_epoch = Epoch(current_epoch + 1)
//	  # Set randao mix
//	  state.randao_mixes[next_epoch % EPOCHS_PER_HISTORICAL_VECTOR] = get_randao_mix(state, current_epoch)
func ProcessRandaoMixesReset(st state.BeaconState) (state.BeaconState, error) {
	cfg := st.Config()
	currentEpoch := helpers.CurrentEpoch(st)
	nextEpoch := currentEpoch + 1

	// Set RANDAO mix.
	randaoMixLength := cfg.EpochsPerHistoricalVector
	if uint64(st.RandaoMixesLength()) != uint64(randaoMixLength) {
		return nil, errors.Errorf(
			"state randao length %d different than EpochsPerHistoricalVector %d",
			st.RandaoMixesLength(),
			randaoMixLength,
		)
	}
	mix, err := helpers.RandaoMix(st, currentEpoch)
	if err != nil {
		return nil, err
	}
	if err := st.UpdateRandaoMixesAtIndex(uint64(nextEpoch%randaoMixLength), mix); err != nil {
		return nil, err
	}

	return st, nil
}

// ProcessHistoricalRootsUpdate processes the updates to historical root accumulator during epoch processing.
//
// Pseudocode definition:
//
//	def process_historical_roots_update(state: BeaconState) -> None:
//	  # Set historical root accumulator
//	  next_epoch = Epoch(get_current_epoch(state) + 1)
//	  if next_epoch % (SLOTS_PER_HISTORICAL_ROOT // SLOTS_PER_EPOCH) == 0:
//	      historical_batch = HistoricalBatch(block_roots=state.block_roots, state_roots=state.state_roots)
//	      state.historical_roots.append(hash_tree_root(historical_batch))
func ProcessHistoricalRootsUpdate(st state.BeaconState) (state.BeaconState, error) {
	cfg := st.Config()
	currentEpoch := helpers.CurrentEpoch(st)
	nextEpoch := currentEpoch + 1

	// Set historical root accumulator.
	epochsPerHistoricalRoot := cfg.SlotsPerHistoricalRoot.Div(uint64(cfg.SlotsPerEpoch))
	if nextEpoch.Mod(uint64(epochsPerHistoricalRoot)) == 0 {
		if uint64(len(st.HistoricalRoots())) >= cfg.HistoricalRootsLimit {
			return nil, errors.New("historical roots list is full")
		}
		historicalBatch := &ethpb.HistoricalBatch{
			BlockRoots: st.BlockRoots(),
			StateRoots: st.StateRoots(),
		}
		batchRoot, err := historicalBatch.HashTreeRoot()
		if err != nil {
			return nil, errors.Wrap(err, "could not hash historical batch")
		}
		if err := st.AppendHistoricalRoots(batchRoot); err != nil {
			return nil, err
		}
	}

	return st, nil
}

// ProcessParticipationRecordUpdates rotates current/previous epoch attestations during epoch processing.
//
// Pseudocode definition:
//
//	def process_participation_record_updates(state: BeaconState) -> None:
//	  # Rotate current/previous epoch attestations
//	  state.previous_epoch_attestations = state.current_epoch_attestations
//	  state.current_epoch_attestations = []
func ProcessParticipationRecordUpdates(st state.BeaconState) (state.BeaconState, error) {
	if err := st.SetPreviousEpochAttestations(st.CurrentEpochAttestations()); err != nil {
		return nil, err
	}
	if err := st.SetCurrentEpochAttestations([]*ethpb.PendingAttestation{}); err != nil {
		return nil, err
	}
	return st, nil
}

// ProcessFinalUpdates processes the final updates during epoch processing.
func ProcessFinalUpdates(st state.BeaconState) (state.BeaconState, error) {
	var err error

	// Reset ETH1 data votes.
	st, err = ProcessEth1DataReset(st)
	if err != nil {
		return nil, err
	}

	// Update effective balances with hysteresis.
	st, err = ProcessEffectiveBalanceUpdates(st)
	if err != nil {
		return nil, err
	}

	// Set total slashed balances.
	st, err = ProcessSlashingsReset(st)
	if err != nil {
		return nil, err
	}

	// Set RANDAO mix.
	st, err = ProcessRandaoMixesReset(st)
	if err != nil {
		return nil, err
	}

	// Set historical root accumulator.
	st, err = ProcessHistoricalRootsUpdate(st)
	if err != nil {
		return nil, err
	}

	// Rotate current and previous epoch attestations.
	st, err = ProcessParticipationRecordUpdates(st)
	if err != nil {
		return nil, err
	}

	return st, nil
}
