package params

import (
	"math"

	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
)

// MainnetConfig returns a copy of the configuration used by the mainnet network.
func MainnetConfig() *BeaconChainConfig {
	return mainnetBeaconConfig.Copy()
}

var mainnetBeaconConfig = &BeaconChainConfig{
	// Constants (Non-configurable)
	FarFutureEpoch:           math.MaxUint64,
	FarFutureSlot:            math.MaxUint64,
	BaseRewardsPerEpoch:      4,
	DepositContractTreeDepth: 32,
	JustificationBitsLength:  4,

	// Misc constant.
	PresetBase:                     "mainnet",
	ConfigName:                     ConfigNames[Mainnet],
	TargetCommitteeSize:            128,
	MaxValidatorsPerCommittee:      2048,
	MaxCommitteesPerSlot:           64,
	MinPerEpochChurnLimit:          4,
	ChurnLimitQuotient:             1 << 16,
	ShuffleRoundCount:              90,
	MinGenesisActiveValidatorCount: 16384,
	MinGenesisTime:                 1606824000, // Dec 1, 2020, 12pm UTC.
	HysteresisQuotient:             4,
	HysteresisDownwardMultiplier:   1,
	HysteresisUpwardMultiplier:     5,

	// Gwei value constants.
	MinDepositAmount:          1 * 1e9,
	MaxEffectiveBalance:       32 * 1e9,
	EjectionBalance:           16 * 1e9,
	EffectiveBalanceIncrement: 1 * 1e9,

	// Initial value constants.
	BLSWithdrawalPrefixByte: byte(0),
	GenesisForkVersion:      []byte{0, 0, 0, 0},

	// Time parameter constants.
	GenesisDelay:                     604800, // 1 week.
	SecondsPerSlot:                   12,
	MinAttestationInclusionDelay:     1,
	SlotsPerEpoch:                    32,
	SqrRootSlotsPerEpoch:             5,
	MinSeedLookahead:                 1,
	MaxSeedLookahead:                 4,
	EpochsPerEth1VotingPeriod:        64,
	SlotsPerHistoricalRoot:           8192,
	MinValidatorWithdrawabilityDelay: 256,
	ShardCommitteePeriod:             256,
	MinEpochsToInactivityPenalty:     4,

	// State list length constants.
	EpochsPerHistoricalVector: 65536,
	EpochsPerSlashingsVector:  8192,
	HistoricalRootsLimit:      16777216,
	ValidatorRegistryLimit:    1099511627776,

	// Reward and penalty quotients constants.
	BaseRewardFactor:               64,
	WhistleBlowerRewardQuotient:    512,
	ProposerRewardQuotient:         8,
	InactivityPenaltyQuotient:      67108864,
	MinSlashingPenaltyQuotient:     128,
	ProportionalSlashingMultiplier: 1,

	// Max operations per block constants.
	MaxProposerSlashings: 16,
	MaxAttesterSlashings: 2,
	MaxAttestations:      128,
	MaxDeposits:          16,
	MaxVoluntaryExits:    16,

	// BLS domain values.
	DomainBeaconProposer:    [4]byte{0, 0, 0, 0},
	DomainBeaconAttester:    [4]byte{1, 0, 0, 0},
	DomainRandao:            [4]byte{2, 0, 0, 0},
	DomainDeposit:           [4]byte{3, 0, 0, 0},
	DomainVoluntaryExit:     [4]byte{4, 0, 0, 0},
	DomainSelectionProof:    [4]byte{5, 0, 0, 0},
	DomainAggregateAndProof: [4]byte{6, 0, 0, 0},

	// Prysm constants.
	GenesisEpoch: types.Epoch(0),
	GenesisSlot:  types.Slot(0),
}
