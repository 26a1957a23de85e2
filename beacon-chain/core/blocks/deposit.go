package blocks

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/container/trie"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	"github.com/prysmaticlabs/beacon-transition/math"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// depositConditions are checked in order against every deposit. The proof of possession is
// not among them: an invalid one never fails the block.
var depositConditions = []validityCondition[*ethpb.Deposit]{
	{name: "deposit present", check: func(_ context.Context, _ state.ReadOnlyBeaconState, d *ethpb.Deposit) error {
		if d == nil || d.Data == nil {
			return errors.Wrap(ErrNilOperation, "received nil deposit or nil deposit data")
		}
		return nil
	}},
	{name: "merkle proof", check: func(_ context.Context, st state.ReadOnlyBeaconState, d *ethpb.Deposit) error {
		return verifyDeposit(st, d)
	}},
}

// ProcessPreGenesisDeposits processes a deposit for the beacon state before chainstart.
func ProcessPreGenesisDeposits(
	ctx context.Context,
	beaconState state.BeaconState,
	deposits []*ethpb.Deposit,
) (state.BeaconState, error) {
	var err error
	for i, d := range deposits {
		beaconState, _, err = ProcessDeposit(ctx, beaconState, d, false)
		if err != nil {
			return nil, opError(DepositOp, i, err)
		}
	}
	beaconState, err = ActivateValidatorWithEffectiveBalance(beaconState, deposits)
	if err != nil {
		return nil, err
	}
	return beaconState, nil
}

// ActivateValidatorWithEffectiveBalance updates validator's effective balance, and if it's above MaxEffectiveBalance, validator becomes active in genesis.
func ActivateValidatorWithEffectiveBalance(beaconState state.BeaconState, deposits []*ethpb.Deposit) (state.BeaconState, error) {
	cfg := beaconState.Config()
	for _, d := range deposits {
		if d == nil || d.Data == nil {
			continue
		}
		pubkey := d.Data.PublicKey
		index, ok := beaconState.ValidatorIndexByPubkey(bytesutil.ToBytes48(pubkey))
		// In the event of the pubkey not existing, we continue processing the other
		// deposits.
		if !ok {
			continue
		}
		balance, err := beaconState.BalanceAtIndex(index)
		if err != nil {
			return nil, err
		}
		validator, err := beaconState.ValidatorAtIndex(index)
		if err != nil {
			return nil, err
		}
		validator.EffectiveBalance = math.Min(balance-balance%cfg.EffectiveBalanceIncrement, cfg.MaxEffectiveBalance)
		if validator.EffectiveBalance == cfg.MaxEffectiveBalance {
			validator.ActivationEligibilityEpoch = cfg.GenesisEpoch
			validator.ActivationEpoch = cfg.GenesisEpoch
		}
		if err := beaconState.UpdateValidatorAtIndex(index, validator); err != nil {
			return nil, err
		}
	}
	return beaconState, nil
}

// ProcessDeposits is one of the operations performed on each processed
// beacon block to verify queued validators from the Ethereum 1.0 Deposit Contract
// into the beacon chain.
//
// Pseudocode definition:
//
//	For each deposit in block.body.deposits:
//	  process_deposit(state, deposit)
func ProcessDeposits(
	ctx context.Context,
	beaconState state.BeaconState,
	deposits []*ethpb.Deposit,
) (state.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "blocks.ProcessDeposits")
	defer span.End()

	if err := VerifyDepositCount(beaconState, deposits); err != nil {
		return nil, opError(DepositOp, ListIndex, err)
	}

	// Attempt to verify all deposit signatures at once, if this fails then fall back to processing
	// individual deposits with signature verification enabled.
	batchVerified, err := BatchVerifyDepositsSignatures(ctx, beaconState.Config(), deposits)
	if err != nil {
		return nil, err
	}

	for i, d := range deposits {
		beaconState, _, err = ProcessDeposit(ctx, beaconState, d, batchVerified)
		if err != nil {
			return nil, opError(DepositOp, i, err)
		}
	}
	return beaconState, nil
}

// VerifyDepositCount checks the number of deposits in a block against the number of pending
// deposits the state expects.
//
// Pseudocode definition:
//
//	assert len(body.deposits) == min(MAX_DEPOSITS, state.eth1_data.deposit_count - state.eth1_deposit_index)
func VerifyDepositCount(beaconState state.ReadOnlyBeaconState, deposits []*ethpb.Deposit) error {
	cfg := beaconState.Config()
	if uint64(len(deposits)) > cfg.MaxDeposits {
		return errors.Wrapf(ErrTooManyOperations, "%d > %d", len(deposits), cfg.MaxDeposits)
	}
	eth1Data := beaconState.Eth1Data()
	if eth1Data == nil {
		return errors.New("nil eth1 data in state")
	}
	pending := math.SaturatingSub(eth1Data.DepositCount, beaconState.Eth1DepositIndex())
	expected := math.Min(cfg.MaxDeposits, pending)
	if uint64(len(deposits)) != expected {
		return errors.Wrapf(ErrDepositCount, "incorrect outstanding deposits in block body, wanted: %d, got: %d",
			expected, len(deposits))
	}
	return nil
}

// BatchVerifyDepositsSignatures batch verifies deposit signatures.
func BatchVerifyDepositsSignatures(ctx context.Context, cfg *params.BeaconChainConfig, deposits []*ethpb.Deposit) (bool, error) {
	if len(deposits) == 0 {
		return false, nil
	}
	domain, err := signing.ComputeDomain(cfg.DomainDeposit, cfg.GenesisForkVersion, nil)
	if err != nil {
		return false, err
	}

	if err := verifyDepositDataWithDomain(ctx, deposits, domain); err != nil {
		log.WithError(err).Debug("Failed to batch verify deposits signatures, will try individual verify")
		return false, nil
	}
	return true, nil
}

// ProcessDeposit takes in a deposit object and inserts it
// into the registry as a new validator or balance change.
// Returns the resulting state, a boolean to indicate whether or not the deposit
// resulted in a new validator entry into the beacon state, and any error.
// A new validator is added and credited even when its proof of possession does not verify.
//
// Pseudocode definition:
//
//	def process_deposit(state: BeaconState, deposit: Deposit) -> None:
//	  # Verify the Merkle branch
//	  assert is_valid_merkle_branch(
//	      leaf=hash_tree_root(deposit.data),
//	      branch=deposit.proof,
//	      depth=DEPOSIT_CONTRACT_TREE_DEPTH + 1,  # Add 1 for the List length mix-in
//	      index=state.eth1_deposit_index,
//	      root=state.eth1_data.deposit_root,
//	  )
//
//	  # Deposits must be processed in order
//	  state.eth1_deposit_index += 1
//
//	  pubkey = deposit.data.pubkey
//	  amount = deposit.data.amount
//	  validator_pubkeys = [v.pubkey for v in state.validators]
//	  if pubkey not in validator_pubkeys:
//	      # Verify the deposit signature (proof of possession) which is not checked by the deposit contract
//	      deposit_message = DepositMessage(
//	          pubkey=deposit.data.pubkey,
//	          withdrawal_credentials=deposit.data.withdrawal_credentials,
//	          amount=deposit.data.amount,
//	      )
//	      domain = compute_domain(DOMAIN_DEPOSIT)  # Fork-agnostic domain since deposits are valid across forks
//	      signing_root = compute_signing_root(deposit_message, domain)
//	      if not bls.Verify(pubkey, signing_root, deposit.data.signature):
//	          log_unverified_deposit(pubkey)
//
//	      # Add validator and balance entries
//	      state.validators.append(get_validator_from_deposit(state, deposit))
//	      state.balances.append(amount)
//	  else:
//	      # Increase balance by deposit amount
//	      index = ValidatorIndex(validator_pubkeys.index(pubkey))
//	      increase_balance(state, index, amount)
func ProcessDeposit(ctx context.Context, beaconState state.BeaconState, deposit *ethpb.Deposit, isVerifiedDeposit bool) (state.BeaconState, bool, error) {
	var newValidator bool
	if err := verifyConditions(ctx, beaconState, deposit, depositConditions); err != nil {
		if deposit == nil || deposit.Data == nil {
			return nil, newValidator, err
		}
		return nil, newValidator, errors.Wrapf(err, "could not verify deposit from %#x", bytesutil.Trunc(deposit.Data.PublicKey))
	}
	if err := beaconState.SetEth1DepositIndex(beaconState.Eth1DepositIndex() + 1); err != nil {
		return nil, newValidator, err
	}
	cfg := beaconState.Config()
	pubKey := deposit.Data.PublicKey
	amount := deposit.Data.Amount
	index, ok := beaconState.ValidatorIndexByPubkey(bytesutil.ToBytes48(pubKey))
	if ok {
		if err := helpers.IncreaseBalance(beaconState, index, amount); err != nil {
			return nil, newValidator, err
		}
		return beaconState, newValidator, nil
	}

	if !isVerifiedDeposit {
		domain, err := signing.ComputeDomain(cfg.DomainDeposit, cfg.GenesisForkVersion, nil)
		if err != nil {
			return nil, newValidator, err
		}
		if err := verifyDepositDataSigningRoot(deposit.Data, domain); err != nil {
			log.WithFields(logrus.Fields{
				"pubkey": bytesutil.Trunc(pubKey),
				"index":  beaconState.Eth1DepositIndex() - 1,
			}).WithError(err).Debug("Crediting deposit with unverified deposit data signature")
		}
	}

	effectiveBalance := amount - (amount % cfg.EffectiveBalanceIncrement)
	if cfg.MaxEffectiveBalance < effectiveBalance {
		effectiveBalance = cfg.MaxEffectiveBalance
	}
	if err := beaconState.AppendValidator(&ethpb.Validator{
		PublicKey:                  bytesutil.SafeCopyBytes(pubKey),
		WithdrawalCredentials:      bytesutil.SafeCopyBytes(deposit.Data.WithdrawalCredentials),
		ActivationEligibilityEpoch: cfg.FarFutureEpoch,
		ActivationEpoch:            cfg.FarFutureEpoch,
		ExitEpoch:                  cfg.FarFutureEpoch,
		WithdrawableEpoch:          cfg.FarFutureEpoch,
		EffectiveBalance:           effectiveBalance,
	}); err != nil {
		return nil, newValidator, err
	}
	newValidator = true
	if err := beaconState.AppendBalance(amount); err != nil {
		return nil, newValidator, err
	}
	return beaconState, newValidator, nil
}

func verifyDeposit(beaconState state.ReadOnlyBeaconState, deposit *ethpb.Deposit) error {
	// Verify Merkle proof of deposit and deposit trie root.
	eth1Data := beaconState.Eth1Data()
	if eth1Data == nil {
		return errors.New("received nil eth1data in the beacon state")
	}

	receiptRoot := eth1Data.DepositRoot
	leaf, err := deposit.Data.HashTreeRoot()
	if err != nil {
		return errors.Wrap(err, "could not tree hash deposit data")
	}
	if ok := trie.VerifyMerkleProofWithDepth(
		receiptRoot,
		leaf[:],
		beaconState.Eth1DepositIndex(),
		deposit.Proof,
		beaconState.Config().DepositContractTreeDepth,
	); !ok {
		return errors.Wrapf(
			ErrInvalidMerkleProof,
			"deposit merkle branch of deposit root did not verify for root: %#x",
			receiptRoot,
		)
	}
	return nil
}

func depositSigningRoot(obj *ethpb.DepositData, domain []byte) ([32]byte, error) {
	return signing.ComputeSigningRoot(&ethpb.DepositMessage{
		PublicKey:             obj.PublicKey,
		WithdrawalCredentials: obj.WithdrawalCredentials,
		Amount:                obj.Amount,
	}, domain)
}

// Deposit data signatures are checked against the DepositMessage root, which leaves the signature out.
func verifyDepositDataSigningRoot(obj *ethpb.DepositData, domain []byte) error {
	root, err := depositSigningRoot(obj, domain)
	if err != nil {
		return errors.Wrap(err, "could not get signing root")
	}
	return verifySignatureRoot(root, obj.PublicKey, obj.Signature)
}

func verifySignatureRoot(root [32]byte, pub, signature []byte) error {
	publicKey, err := bls.PublicKeyFromBytes(pub)
	if err != nil {
		return errors.Wrap(err, "could not convert bytes to public key")
	}
	sig, err := bls.SignatureFromBytes(signature)
	if err != nil {
		return errors.Wrap(err, "could not convert bytes to signature")
	}
	if !sig.Verify(publicKey, root[:]) {
		return signing.ErrSigFailedToVerify
	}
	return nil
}

func verifyDepositDataWithDomain(ctx context.Context, deps []*ethpb.Deposit, domain []byte) error {
	_, span := trace.StartSpan(ctx, "blocks.verifyDepositDataWithDomain")
	defer span.End()

	if len(deps) == 0 {
		return nil
	}
	pks := make([]bls.PublicKey, len(deps))
	sigs := make([][]byte, len(deps))
	msgs := make([][32]byte, len(deps))
	for i, dep := range deps {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if dep == nil || dep.Data == nil {
			return errors.New("nil deposit")
		}
		dpk, err := bls.PublicKeyFromBytes(dep.Data.PublicKey)
		if err != nil {
			return err
		}
		pks[i] = dpk
		sigs[i] = dep.Data.Signature
		root, err := depositSigningRoot(dep.Data, domain)
		if err != nil {
			return errors.Wrap(err, "could not get signing root")
		}
		msgs[i] = root
	}
	verify, err := bls.VerifyMultipleSignatures(sigs, msgs, pks)
	if err != nil {
		return errors.Errorf("could not verify multiple signatures: %v", err)
	}
	if !verify {
		return errors.New("one or more deposit signatures did not verify")
	}
	return nil
}
