package precompute

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/async"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/math"
	"go.opencensus.io/trace"
)

type attesterRewardFunc func(state.ReadOnlyBeaconState, *Balance, []*Validator) ([]uint64, []uint64, error)
type proposerRewardFunc func(state.ReadOnlyBeaconState, *Balance, []*Validator) ([]uint64, error)

// deltas is the per index reward and penalty buffer of one scatter worker.
type deltas struct {
	rewards   []uint64
	penalties []uint64
}

// ProcessRewardsAndPenaltiesPrecompute processes the rewards and penalties of individual validator.
// This is an optimized version by passing in precomputed validator attesting records and and total epoch balances.
func ProcessRewardsAndPenaltiesPrecompute(
	ctx context.Context,
	st state.BeaconState,
	pBal *Balance,
	vp []*Validator,
	attRewardsFunc attesterRewardFunc,
	proRewardsFunc proposerRewardFunc,
) (state.BeaconState, error) {
	_, span := trace.StartSpan(ctx, "precomputeEpoch.ProcessRewardsAndPenaltiesPrecompute")
	defer span.End()

	// Can't process rewards and penalties in genesis epoch.
	if helpers.CurrentEpoch(st) == st.Config().GenesisEpoch {
		return st, nil
	}

	numOfVals := st.NumValidators()
	// Guard against an out-of-bounds using validator balance precompute.
	if len(vp) != numOfVals || len(vp) != st.BalancesLength() {
		return st, errors.New("precomputed registries not the same length as state registries")
	}

	attsRewards, attsPenalties, err := attRewardsFunc(st, pBal, vp)
	if err != nil {
		return nil, errors.Wrap(err, "could not get attester reward delta")
	}
	proposerRewards, err := proRewardsFunc(st, pBal, vp)
	if err != nil {
		return nil, errors.Wrap(err, "could not get proposer reward delta")
	}
	validatorBals := st.Balances()
	for i := 0; i < numOfVals; i++ {
		vp[i].BeforeEpochTransitionBalance = validatorBals[i]

		// Compute the post balance of the validator after accounting for the
		// attester and proposer rewards and penalties.
		reward, err := math.Add64(attsRewards[i], proposerRewards[i])
		if err != nil {
			return nil, errors.Wrapf(err, "reward of validator %d", i)
		}
		validatorBals[i], err = math.Add64(validatorBals[i], reward)
		if err != nil {
			return nil, errors.Wrapf(err, "balance of validator %d", i)
		}
		validatorBals[i] = math.SaturatingSub(validatorBals[i], attsPenalties[i])

		vp[i].AfterEpochTransitionBalance = validatorBals[i]
	}

	if err := st.SetBalances(validatorBals); err != nil {
		return nil, errors.Wrap(err, "could not set validator balances")
	}

	return st, nil
}

// AttestationsDelta computes and returns the rewards and penalties differences for individual validators based on the
// voting records. Validators are split into disjoint ranges that are computed in parallel, each range
// writing into its own buffer.
func AttestationsDelta(st state.ReadOnlyBeaconState, pBal *Balance, vp []*Validator) ([]uint64, []uint64, error) {
	numOfVals := len(vp)
	rewards := make([]uint64, numOfVals)
	penalties := make([]uint64, numOfVals)
	if numOfVals == 0 {
		return rewards, penalties, nil
	}
	cfg := st.Config()
	prevEpoch := helpers.PrevEpoch(st)
	finalizedEpoch := st.FinalizedCheckpointEpoch()
	delay := finalityDelay(prevEpoch, finalizedEpoch)
	leak := isInInactivityLeak(cfg, prevEpoch, finalizedEpoch)
	bal := *pBal

	results, err := async.Scatter(numOfVals, func(offset int, entries int) (interface{}, error) {
		d := &deltas{
			rewards:   make([]uint64, entries),
			penalties: make([]uint64, entries),
		}
		for i := 0; i < entries; i++ {
			r, p, err := attestationDelta(cfg, &bal, vp[offset+i], leak, delay)
			if err != nil {
				return nil, errors.Wrapf(err, "validator %d", offset+i)
			}
			d.rewards[i], d.penalties[i] = r, p
		}
		return d, nil
	})
	if err != nil {
		return nil, nil, err
	}
	for _, res := range results {
		d, ok := res.Extent.(*deltas)
		if !ok {
			return nil, nil, errors.New("unexpected scatter result type")
		}
		copy(rewards[res.Offset:], d.rewards)
		copy(penalties[res.Offset:], d.penalties)
	}
	return rewards, penalties, nil
}

func attestationDelta(cfg *params.BeaconChainConfig, pBal *Balance, v *Validator, leak bool, finalityDelay uint64) (uint64, uint64, error) {
	eligible := v.IsActivePrevEpoch || (v.IsSlashed && !v.IsWithdrawableCurrentEpoch)
	// Validator needs to be eligible and total active balance must not be zero.
	if !eligible || pBal.ActiveCurrentEpoch == 0 {
		return 0, 0, nil
	}

	baseRewardsPerEpoch := cfg.BaseRewardsPerEpoch
	effectiveBalanceIncrement := cfg.EffectiveBalanceIncrement
	vb := v.CurrentEpochEffectiveBalance
	br, err := baseReward(cfg, vb, math.IntegerSquareRoot(pBal.ActiveCurrentEpoch))
	if err != nil {
		return 0, 0, err
	}
	r, p := uint64(0), uint64(0)
	currentEpochBalance := pBal.ActiveCurrentEpoch / effectiveBalanceIncrement

	componentReward := func(attested uint64) (uint64, error) {
		if leak {
			// Since full base reward will be canceled out by inactivity penalty deltas,
			// optimal participation receives full base reward compensation here.
			return br, nil
		}
		rewardNumerator, err := math.Mul64(br, attested/effectiveBalanceIncrement)
		if err != nil {
			return 0, err
		}
		return rewardNumerator / currentEpochBalance, nil
	}

	// Process source reward / penalty
	if v.IsPrevEpochAttester && !v.IsSlashed {
		proposerReward := br / cfg.ProposerRewardQuotient
		maxAttesterReward := br - proposerReward
		r += maxAttesterReward / uint64(v.InclusionDistance)
		cr, err := componentReward(pBal.PrevEpochAttested)
		if err != nil {
			return 0, 0, err
		}
		r += cr
	} else {
		p += br
	}

	// Process target reward / penalty
	if v.IsPrevEpochTargetAttester && !v.IsSlashed {
		cr, err := componentReward(pBal.PrevEpochTargetAttested)
		if err != nil {
			return 0, 0, err
		}
		r += cr
	} else {
		p += br
	}

	// Process head reward / penalty
	if v.IsPrevEpochHeadAttester && !v.IsSlashed {
		cr, err := componentReward(pBal.PrevEpochHeadAttested)
		if err != nil {
			return 0, 0, err
		}
		r += cr
	} else {
		p += br
	}

	// Process finality delay penalty
	if leak {
		// If validator is performing optimally, this cancels all rewards for a neutral balance.
		proposerReward := br / cfg.ProposerRewardQuotient
		p += baseRewardsPerEpoch*br - proposerReward
		// Apply an additional penalty to validators that did not vote on the correct target or have been slashed.
		if !v.IsPrevEpochTargetAttester || v.IsSlashed {
			numerator, err := math.Mul64(vb, finalityDelay)
			if err != nil {
				return 0, 0, err
			}
			p += numerator / cfg.InactivityPenaltyQuotient
		}
	}
	return r, p, nil
}

// ProposersDelta computes and returns the rewards and penalties differences for individual validators based on the
// proposer inclusion records.
func ProposersDelta(st state.ReadOnlyBeaconState, pBal *Balance, vp []*Validator) ([]uint64, error) {
	cfg := st.Config()
	numofVals := len(vp)
	rewards := make([]uint64, numofVals)

	totalBalance := pBal.ActiveCurrentEpoch
	balanceSqrt := math.IntegerSquareRoot(totalBalance)
	// Balance square root cannot be 0, this prevents division by 0.
	if balanceSqrt == 0 {
		balanceSqrt = 1
	}

	proposerRewardQuotient := cfg.ProposerRewardQuotient
	for _, v := range vp {
		// Only apply inclusion rewards to proposer only if the attested hasn't been slashed.
		if v.IsPrevEpochAttester && !v.IsSlashed {
			if uint64(v.ProposerIndex) >= uint64(len(rewards)) {
				// This should never happen with a valid state / validator.
				return nil, errors.New("proposer index out of range")
			}
			br, err := baseReward(cfg, v.CurrentEpochEffectiveBalance, balanceSqrt)
			if err != nil {
				return nil, err
			}
			proposerReward := br / proposerRewardQuotient
			rewards[v.ProposerIndex], err = math.Add64(rewards[v.ProposerIndex], proposerReward)
			if err != nil {
				return nil, err
			}
		}
	}
	return rewards, nil
}

// baseReward takes the square root of the total active balance so it is computed once per epoch.
//
// Pseudocode definition:
//
//	def get_base_reward(state: BeaconState, index: ValidatorIndex) -> Gwei:
//	  total_balance = get_total_active_balance(state)
//	  effective_balance = state.validators[index].effective_balance
//	  return Gwei(effective_balance * BASE_REWARD_FACTOR // integer_squareroot(total_balance) // BASE_REWARDS_PER_EPOCH)
func baseReward(cfg *params.BeaconChainConfig, effectiveBalance, balanceSqrt uint64) (uint64, error) {
	if balanceSqrt == 0 {
		return 0, errors.New("zero total balance")
	}
	numerator, err := math.Mul64(effectiveBalance, cfg.BaseRewardFactor)
	if err != nil {
		return 0, err
	}
	return numerator / balanceSqrt / cfg.BaseRewardsPerEpoch, nil
}

// isInInactivityLeak returns true if the state is experiencing inactivity leak.
//
// Pseudocode definition:
//
//	def is_in_inactivity_leak(state: BeaconState) -> bool:
//	  return get_finality_delay(state) > MIN_EPOCHS_TO_INACTIVITY_PENALTY
func isInInactivityLeak(cfg *params.BeaconChainConfig, prevEpoch, finalizedEpoch types.Epoch) bool {
	return finalityDelay(prevEpoch, finalizedEpoch) > uint64(cfg.MinEpochsToInactivityPenalty)
}

// finalityDelay returns the finality delay using the beacon state.
//
// Pseudocode definition:
//
//	def get_finality_delay(state: BeaconState) -> uint64:
//	  return get_previous_epoch(state) - state.finalized_checkpoint.epoch
func finalityDelay(prevEpoch, finalizedEpoch types.Epoch) uint64 {
	return math.SaturatingSub(uint64(prevEpoch), uint64(finalizedEpoch))
}
