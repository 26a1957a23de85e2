package transition

import (
	"context"

	"github.com/pkg/errors"
	b "github.com/prysmaticlabs/beacon-transition/beacon-chain/core/blocks"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	state_native "github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/stateutil"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/container/trie"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/go-bitfield"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// GenesisBeaconState gets called when MinGenesisActiveValidatorCount count of
// full deposits were made to the deposit contract and the ChainStart log gets emitted.
//
// Pseudocode definition:
//
//	def initialize_beacon_state_from_eth1(eth1_block_hash: Bytes32,
//	                                    eth1_timestamp: uint64,
//	                                    deposits: Sequence[Deposit]) -> BeaconState:
//	  fork = Fork(
//	      previous_version=GENESIS_FORK_VERSION,
//	      current_version=GENESIS_FORK_VERSION,
//	      epoch=GENESIS_EPOCH,
//	  )
//	  state = BeaconState(
//	      genesis_time=eth1_timestamp + GENESIS_DELAY,
//	      fork=fork,
//	      eth1_data=Eth1Data(block_hash=eth1_block_hash, deposit_count=uint64(len(deposits))),
//	      latest_block_header=BeaconBlockHeader(body_root=hash_tree_root(BeaconBlockBody())),
//	      randao_mixes=[eth1_block_hash] * EPOCHS_PER_HISTORICAL_VECTOR,  # Seed RANDAO with Eth1 entropy
//	  )
//
//	  # Process deposits
//	  leaves = list(map(lambda deposit: deposit.data, deposits))
//	  for index, deposit in enumerate(deposits):
//	      deposit_data_list = List[DepositData, 2**DEPOSIT_CONTRACT_TREE_DEPTH](*leaves[:index + 1])
//	      state.eth1_data.deposit_root = hash_tree_root(deposit_data_list)
//	      process_deposit(state, deposit)
//
//	  # Process activations
//	  for index, validator in enumerate(state.validators):
//	      balance = state.balances[index]
//	      validator.effective_balance = min(balance - balance % EFFECTIVE_BALANCE_INCREMENT, MAX_EFFECTIVE_BALANCE)
//	      if validator.effective_balance == MAX_EFFECTIVE_BALANCE:
//	          validator.activation_eligibility_epoch = GENESIS_EPOCH
//	          validator.activation_epoch = GENESIS_EPOCH
//
//	  # Set genesis validators root for domain separation and chain versioning
//	  state.genesis_validators_root = hash_tree_root(state.validators)
//
//	  return state
//
// The deposit root is computed once over every deposit, so each deposit proof must be
// generated from the complete deposit trie.
func GenesisBeaconState(
	ctx context.Context,
	cfg *params.BeaconChainConfig,
	deposits []*ethpb.Deposit,
	genesisTime uint64,
	eth1Data *ethpb.Eth1Data,
) (state.BeaconState, error) {
	ctx, span := trace.StartSpan(ctx, "core.state.GenesisBeaconState")
	defer span.End()
	if cfg == nil {
		return nil, errors.New("nil beacon chain config")
	}

	eth1Data, err := genesisEth1Data(cfg, deposits, eth1Data)
	if err != nil {
		return nil, err
	}
	pb, err := emptyGenesisState(cfg, genesisTime, eth1Data)
	if err != nil {
		return nil, err
	}
	st, err := state_native.InitializeFromProtoUnsafePhase0(cfg, pb)
	if err != nil {
		return nil, errors.Wrap(err, "could not initialize genesis state")
	}

	st, err = b.ProcessPreGenesisDeposits(ctx, st, deposits)
	if err != nil {
		return nil, errors.Wrap(err, "could not process validator deposits")
	}

	validatorsRoot, err := stateutil.ValidatorRegistryRoot(st.Validators(), cfg.ValidatorRegistryLimit)
	if err != nil {
		return nil, errors.Wrap(err, "could not hash tree root genesis validators")
	}
	if err := st.SetGenesisValidatorsRoot(validatorsRoot[:]); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"validators":  st.NumValidators(),
		"deposits":    len(deposits),
		"genesisTime": genesisTime,
	}).Debug("Built genesis state")
	return st, nil
}

// IsValidGenesisState gets called whenever there's a deposit event,
// it checks whether there's enough effective balance to trigger and
// if the minimum genesis time arrived already.
//
// Pseudocode definition:
//
//	def is_valid_genesis_state(state: BeaconState) -> bool:
//	  if state.genesis_time < MIN_GENESIS_TIME:
//	      return False
//	  if len(get_active_validator_indices(state, GENESIS_EPOCH)) < MIN_GENESIS_ACTIVE_VALIDATOR_COUNT:
//	      return False
//	  return True
func IsValidGenesisState(ctx context.Context, st state.ReadOnlyBeaconState) (bool, error) {
	cfg := st.Config()
	if st.GenesisTime() < cfg.MinGenesisTime {
		return false, nil
	}
	count, err := helpers.ActiveValidatorCount(ctx, st, cfg.GenesisEpoch)
	if err != nil {
		return false, errors.Wrap(err, "could not count genesis validators")
	}
	return count >= cfg.MinGenesisActiveValidatorCount, nil
}

// genesisEth1Data commits to the deposit root and count of the genesis deposits.
func genesisEth1Data(cfg *params.BeaconChainConfig, deposits []*ethpb.Deposit, eth1Data *ethpb.Eth1Data) (*ethpb.Eth1Data, error) {
	if eth1Data == nil {
		eth1Data = &ethpb.Eth1Data{}
	} else {
		eth1Data = ethpb.CopyETH1Data(eth1Data)
	}
	leaves := make([][]byte, 0, len(deposits))
	for i, d := range deposits {
		if d == nil || d.Data == nil {
			return nil, errors.Errorf("nil deposit at index %d", i)
		}
		leaf, err := d.Data.HashTreeRoot()
		if err != nil {
			return nil, errors.Wrapf(err, "could not hash deposit data %d", i)
		}
		leaves = append(leaves, leaf[:])
	}
	depositTrie, err := trie.GenerateTrieFromItems(leaves, cfg.DepositContractTreeDepth)
	if err != nil {
		return nil, errors.Wrap(err, "could not generate deposit trie")
	}
	root := depositTrie.HashTreeRoot()
	eth1Data.DepositRoot = root[:]
	eth1Data.DepositCount = uint64(len(deposits))
	eth1Data.BlockHash = bytesutil.PadTo(eth1Data.BlockHash, 32)
	return eth1Data, nil
}

func emptyGenesisState(cfg *params.BeaconChainConfig, genesisTime uint64, eth1Data *ethpb.Eth1Data) (*ethpb.BeaconState, error) {
	randaoMixes := make([][]byte, cfg.EpochsPerHistoricalVector)
	for i := range randaoMixes {
		randaoMixes[i] = bytesutil.SafeCopyBytes(eth1Data.BlockHash)
	}
	zeroRoots := func(n uint64) [][]byte {
		roots := make([][]byte, n)
		for i := range roots {
			roots[i] = make([]byte, 32)
		}
		return roots
	}
	zeroCheckpoint := func() *ethpb.Checkpoint {
		return &ethpb.Checkpoint{Epoch: cfg.GenesisEpoch, Root: make([]byte, 32)}
	}

	bodyRoot, err := (&ethpb.BeaconBlockBody{
		RandaoReveal: make([]byte, 96),
		Eth1Data: &ethpb.Eth1Data{
			DepositRoot: make([]byte, 32),
			BlockHash:   make([]byte, 32),
		},
		Graffiti: make([]byte, 32),
	}).HashTreeRoot()
	if err != nil {
		return nil, errors.Wrap(err, "could not hash tree root empty block body")
	}

	return &ethpb.BeaconState{
		GenesisTime:           genesisTime,
		GenesisValidatorsRoot: make([]byte, 32),
		Slot:                  0,
		Fork: &ethpb.Fork{
			PreviousVersion: bytesutil.SafeCopyBytes(cfg.GenesisForkVersion),
			CurrentVersion:  bytesutil.SafeCopyBytes(cfg.GenesisForkVersion),
			Epoch:           cfg.GenesisEpoch,
		},
		LatestBlockHeader: &ethpb.BeaconBlockHeader{
			ParentRoot: make([]byte, 32),
			StateRoot:  make([]byte, 32),
			BodyRoot:   bodyRoot[:],
		},
		BlockRoots:                  zeroRoots(uint64(cfg.SlotsPerHistoricalRoot)),
		StateRoots:                  zeroRoots(uint64(cfg.SlotsPerHistoricalRoot)),
		HistoricalRoots:             [][]byte{},
		Eth1Data:                    eth1Data,
		Eth1DataVotes:               []*ethpb.Eth1Data{},
		Eth1DepositIndex:            0,
		Validators:                  []*ethpb.Validator{},
		Balances:                    []uint64{},
		RandaoMixes:                 randaoMixes,
		Slashings:                   make([]uint64, cfg.EpochsPerSlashingsVector),
		PreviousEpochAttestations:   []*ethpb.PendingAttestation{},
		CurrentEpochAttestations:    []*ethpb.PendingAttestation{},
		JustificationBits:           bitfield.Bitvector4{0x0},
		PreviousJustifiedCheckpoint: zeroCheckpoint(),
		CurrentJustifiedCheckpoint:  zeroCheckpoint(),
		FinalizedCheckpoint:         zeroCheckpoint(),
	}, nil
}
