// Package params defines the constant sets that parameterize the beacon chain state transition.
package params

import (
	"github.com/mohae/deepcopy"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
)

// BeaconChainConfig contains the constants that parameterize the phase0 state transition.
// A config is treated as immutable once handed to a processor; use Copy before modifying one.
type BeaconChainConfig struct {
	// Constants (non-configurable)
	FarFutureEpoch           types.Epoch `yaml:"FAR_FUTURE_EPOCH"`
	FarFutureSlot            types.Slot  `yaml:"FAR_FUTURE_SLOT"`
	BaseRewardsPerEpoch      uint64      `yaml:"BASE_REWARDS_PER_EPOCH"`
	DepositContractTreeDepth uint64      `yaml:"DEPOSIT_CONTRACT_TREE_DEPTH"`
	JustificationBitsLength  uint64      `yaml:"JUSTIFICATION_BITS_LENGTH"`
	ZeroHash                 [32]byte

	// Misc constants.
	PresetBase                     string `yaml:"PRESET_BASE"`
	ConfigName                     string `yaml:"CONFIG_NAME"`
	TargetCommitteeSize            uint64 `yaml:"TARGET_COMMITTEE_SIZE"`
	MaxValidatorsPerCommittee      uint64 `yaml:"MAX_VALIDATORS_PER_COMMITTEE"`
	MaxCommitteesPerSlot           uint64 `yaml:"MAX_COMMITTEES_PER_SLOT"`
	MinPerEpochChurnLimit          uint64 `yaml:"MIN_PER_EPOCH_CHURN_LIMIT"`
	ChurnLimitQuotient             uint64 `yaml:"CHURN_LIMIT_QUOTIENT"`
	ShuffleRoundCount              uint64 `yaml:"SHUFFLE_ROUND_COUNT"`
	MinGenesisActiveValidatorCount uint64 `yaml:"MIN_GENESIS_ACTIVE_VALIDATOR_COUNT"`
	MinGenesisTime                 uint64 `yaml:"MIN_GENESIS_TIME"`
	HysteresisQuotient             uint64 `yaml:"HYSTERESIS_QUOTIENT"`
	HysteresisDownwardMultiplier   uint64 `yaml:"HYSTERESIS_DOWNWARD_MULTIPLIER"`
	HysteresisUpwardMultiplier     uint64 `yaml:"HYSTERESIS_UPWARD_MULTIPLIER"`

	// Gwei value constants.
	MinDepositAmount          uint64 `yaml:"MIN_DEPOSIT_AMOUNT"`
	MaxEffectiveBalance       uint64 `yaml:"MAX_EFFECTIVE_BALANCE"`
	EjectionBalance           uint64 `yaml:"EJECTION_BALANCE"`
	EffectiveBalanceIncrement uint64 `yaml:"EFFECTIVE_BALANCE_INCREMENT"`

	// Initial value constants.
	BLSWithdrawalPrefixByte byte   `yaml:"BLS_WITHDRAWAL_PREFIX"`
	GenesisForkVersion      []byte `yaml:"GENESIS_FORK_VERSION"`

	// Time parameters constants.
	GenesisDelay                     uint64     `yaml:"GENESIS_DELAY"`
	SecondsPerSlot                   uint64     `yaml:"SECONDS_PER_SLOT"`
	MinAttestationInclusionDelay     types.Slot `yaml:"MIN_ATTESTATION_INCLUSION_DELAY"`
	SlotsPerEpoch                    types.Slot `yaml:"SLOTS_PER_EPOCH"`
	SqrRootSlotsPerEpoch             types.Slot
	MinSeedLookahead                 types.Epoch `yaml:"MIN_SEED_LOOKAHEAD"`
	MaxSeedLookahead                 types.Epoch `yaml:"MAX_SEED_LOOKAHEAD"`
	EpochsPerEth1VotingPeriod        types.Epoch `yaml:"EPOCHS_PER_ETH1_VOTING_PERIOD"`
	SlotsPerHistoricalRoot           types.Slot  `yaml:"SLOTS_PER_HISTORICAL_ROOT"`
	MinValidatorWithdrawabilityDelay types.Epoch `yaml:"MIN_VALIDATOR_WITHDRAWABILITY_DELAY"`
	ShardCommitteePeriod             types.Epoch `yaml:"SHARD_COMMITTEE_PERIOD"`
	MinEpochsToInactivityPenalty     types.Epoch `yaml:"MIN_EPOCHS_TO_INACTIVITY_PENALTY"`

	// State list lengths.
	EpochsPerHistoricalVector types.Epoch `yaml:"EPOCHS_PER_HISTORICAL_VECTOR"`
	EpochsPerSlashingsVector  types.Epoch `yaml:"EPOCHS_PER_SLASHINGS_VECTOR"`
	HistoricalRootsLimit      uint64      `yaml:"HISTORICAL_ROOTS_LIMIT"`
	ValidatorRegistryLimit    uint64      `yaml:"VALIDATOR_REGISTRY_LIMIT"`

	// Reward and penalty quotients constants.
	BaseRewardFactor               uint64 `yaml:"BASE_REWARD_FACTOR"`
	WhistleBlowerRewardQuotient    uint64 `yaml:"WHISTLEBLOWER_REWARD_QUOTIENT"`
	ProposerRewardQuotient         uint64 `yaml:"PROPOSER_REWARD_QUOTIENT"`
	InactivityPenaltyQuotient      uint64 `yaml:"INACTIVITY_PENALTY_QUOTIENT"`
	MinSlashingPenaltyQuotient     uint64 `yaml:"MIN_SLASHING_PENALTY_QUOTIENT"`
	ProportionalSlashingMultiplier uint64 `yaml:"PROPORTIONAL_SLASHING_MULTIPLIER"`

	// Max operations per block constants.
	MaxProposerSlashings uint64 `yaml:"MAX_PROPOSER_SLASHINGS"`
	MaxAttesterSlashings uint64 `yaml:"MAX_ATTESTER_SLASHINGS"`
	MaxAttestations      uint64 `yaml:"MAX_ATTESTATIONS"`
	MaxDeposits          uint64 `yaml:"MAX_DEPOSITS"`
	MaxVoluntaryExits    uint64 `yaml:"MAX_VOLUNTARY_EXITS"`

	// BLS domain values.
	DomainBeaconProposer    [4]byte `yaml:"DOMAIN_BEACON_PROPOSER"`
	DomainBeaconAttester    [4]byte `yaml:"DOMAIN_BEACON_ATTESTER"`
	DomainRandao            [4]byte `yaml:"DOMAIN_RANDAO"`
	DomainDeposit           [4]byte `yaml:"DOMAIN_DEPOSIT"`
	DomainVoluntaryExit     [4]byte `yaml:"DOMAIN_VOLUNTARY_EXIT"`
	DomainSelectionProof    [4]byte `yaml:"DOMAIN_SELECTION_PROOF"`
	DomainAggregateAndProof [4]byte `yaml:"DOMAIN_AGGREGATE_AND_PROOF"`

	// Prysm constants.
	GenesisEpoch types.Epoch `yaml:"GENESIS_EPOCH"`
	GenesisSlot  types.Slot  `yaml:"GENESIS_SLOT"`
}

// Copy returns a deep copy of the config object.
func (b *BeaconChainConfig) Copy() *BeaconChainConfig {
	config, ok := deepcopy.Copy(*b).(BeaconChainConfig)
	if !ok {
		panic("could not deep copy beacon chain config")
	}
	return &config
}

// SlotsPerEth1VotingPeriod is the number of slots over which eth1 data votes are tallied.
func (b *BeaconChainConfig) SlotsPerEth1VotingPeriod() uint64 {
	return uint64(b.EpochsPerEth1VotingPeriod) * uint64(b.SlotsPerEpoch)
}

// MaxPendingAttestations bounds each of the previous and current epoch attestation lists.
func (b *BeaconChainConfig) MaxPendingAttestations() uint64 {
	return b.MaxAttestations * uint64(b.SlotsPerEpoch)
}
