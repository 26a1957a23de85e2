package blocks

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/validators"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"go.opencensus.io/trace"
)

// exitConditions are checked in order against every voluntary exit.
var exitConditions = []validityCondition[*ethpb.SignedVoluntaryExit]{
	{name: "exit present", check: func(_ context.Context, _ state.ReadOnlyBeaconState, e *ethpb.SignedVoluntaryExit) error {
		if e == nil || e.Exit == nil {
			return errors.Wrap(ErrNilOperation, "nil voluntary exit in block body")
		}
		return nil
	}},
	{name: "validator active", check: func(_ context.Context, st state.ReadOnlyBeaconState, e *ethpb.SignedVoluntaryExit) error {
		v, err := st.ValidatorAtIndexReadOnly(e.Exit.ValidatorIndex)
		if err != nil {
			return errors.Wrap(ErrValidatorNotActive, err.Error())
		}
		if !helpers.IsActiveValidatorUsingTrie(v, helpers.CurrentEpoch(st)) {
			return errors.Wrapf(ErrValidatorNotActive, "validator %d", e.Exit.ValidatorIndex)
		}
		return nil
	}},
	{name: "validator not exiting", check: func(_ context.Context, st state.ReadOnlyBeaconState, e *ethpb.SignedVoluntaryExit) error {
		v, err := st.ValidatorAtIndexReadOnly(e.Exit.ValidatorIndex)
		if err != nil {
			return err
		}
		if v.ExitEpoch() != st.Config().FarFutureEpoch {
			return errors.Wrapf(ErrAlreadyExited, "validator %d has exit epoch %d", e.Exit.ValidatorIndex, v.ExitEpoch())
		}
		return nil
	}},
	{name: "exit epoch reached", check: func(_ context.Context, st state.ReadOnlyBeaconState, e *ethpb.SignedVoluntaryExit) error {
		if current := helpers.CurrentEpoch(st); current < e.Exit.Epoch {
			return errors.Wrapf(ErrExitTooEarly, "expected current epoch >= exit epoch, received %d < %d", current, e.Exit.Epoch)
		}
		return nil
	}},
	{name: "validator served long enough", check: func(_ context.Context, st state.ReadOnlyBeaconState, e *ethpb.SignedVoluntaryExit) error {
		v, err := st.ValidatorAtIndexReadOnly(e.Exit.ValidatorIndex)
		if err != nil {
			return err
		}
		minEpoch, err := v.ActivationEpoch().SafeAdd(uint64(st.Config().ShardCommitteePeriod))
		if err != nil {
			return errors.Wrap(ErrValidatorTooYoung, err.Error())
		}
		if current := helpers.CurrentEpoch(st); current < minEpoch {
			return errors.Wrapf(ErrValidatorTooYoung,
				"validator has not been active long enough to exit: %d epochs vs required %d epochs",
				current, minEpoch)
		}
		return nil
	}},
	{name: "exit signature", check: func(_ context.Context, st state.ReadOnlyBeaconState, e *ethpb.SignedVoluntaryExit) error {
		return VerifyExitSignature(st, e)
	}},
}

// ProcessVoluntaryExits is one of the operations performed
// on each processed beacon block to determine which validators
// should exit the state's validator registry.
//
// Pseudocode definition:
//
//	def process_voluntary_exit(state: BeaconState, signed_voluntary_exit: SignedVoluntaryExit) -> None:
//	  voluntary_exit = signed_voluntary_exit.message
//	  validator = state.validators[voluntary_exit.validator_index]
//	  # Verify the validator is active
//	  assert is_active_validator(validator, get_current_epoch(state))
//	  # Verify exit has not been initiated
//	  assert validator.exit_epoch == FAR_FUTURE_EPOCH
//	  # Exits must specify an epoch when they become valid; they are not valid before then
//	  assert get_current_epoch(state) >= voluntary_exit.epoch
//	  # Verify the validator has been active long enough
//	  assert get_current_epoch(state) >= validator.activation_epoch + SHARD_COMMITTEE_PERIOD
//	  # Verify signature
//	  domain = get_domain(state, DOMAIN_VOLUNTARY_EXIT, voluntary_exit.epoch)
//	  signing_root = compute_signing_root(voluntary_exit, domain)
//	  assert bls.Verify(validator.pubkey, signing_root, signed_voluntary_exit.signature)
//	  # Initiate exit
//	  initiate_validator_exit(state, voluntary_exit.validator_index)
func ProcessVoluntaryExits(
	ctx context.Context,
	beaconState state.BeaconState,
	exits []*ethpb.SignedVoluntaryExit,
) (state.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "blocks.ProcessVoluntaryExits")
	defer span.End()

	maxExits := beaconState.Config().MaxVoluntaryExits
	if uint64(len(exits)) > maxExits {
		return nil, opError(VoluntaryExitOp, ListIndex,
			errors.Wrapf(ErrTooManyOperations, "%d > %d", len(exits), maxExits))
	}
	seen := make(map[types.ValidatorIndex]bool, len(exits))
	for idx, exit := range exits {
		if exit == nil || exit.Exit == nil {
			continue
		}
		if seen[exit.Exit.ValidatorIndex] {
			return nil, opError(VoluntaryExitOp, idx, errors.Wrapf(ErrDuplicateIndices, "validator %d", exit.Exit.ValidatorIndex))
		}
		seen[exit.Exit.ValidatorIndex] = true
	}

	var err error
	for idx, exit := range exits {
		beaconState, err = ProcessVoluntaryExit(ctx, beaconState, exit)
		if err != nil {
			return nil, opError(VoluntaryExitOp, idx, err)
		}
	}
	return beaconState, nil
}

// ProcessVoluntaryExit verifies a single exit and initiates the validator's exit.
func ProcessVoluntaryExit(
	ctx context.Context,
	beaconState state.BeaconState,
	exit *ethpb.SignedVoluntaryExit,
) (state.BeaconState, error) {
	if err := VerifyExitAndSignature(ctx, beaconState, exit); err != nil {
		return nil, errors.Wrap(err, "could not verify exit")
	}
	beaconState, err := validators.InitiateValidatorExit(ctx, beaconState, exit.Exit.ValidatorIndex)
	if err != nil {
		return nil, err
	}
	return beaconState, nil
}

// VerifyExitAndSignature runs every validity check for a voluntary exit.
func VerifyExitAndSignature(ctx context.Context, beaconState state.ReadOnlyBeaconState, signed *ethpb.SignedVoluntaryExit) error {
	return verifyConditions(ctx, beaconState, signed, exitConditions)
}

// VerifyExitSignature checks the validator's signature over the exit, using the domain of the
// exit's own epoch.
func VerifyExitSignature(beaconState state.ReadOnlyBeaconState, signed *ethpb.SignedVoluntaryExit) error {
	cfg := beaconState.Config()
	exit := signed.Exit
	domain, err := signing.Domain(beaconState.Fork(), exit.Epoch, cfg.DomainVoluntaryExit, beaconState.GenesisValidatorsRoot())
	if err != nil {
		return err
	}
	pubKey := beaconState.PubkeyAtIndex(exit.ValidatorIndex)
	if err := signing.VerifySigningRoot(exit, pubKey[:], signed.Signature, domain); err != nil {
		return wrapSigError(err, "could not verify voluntary exit signature")
	}
	return nil
}
