package types

// ValidatorIndex in eth2.
type ValidatorIndex uint64

// CommitteeIndex of a committee within a slot.
type CommitteeIndex uint64

// Gwei is the denomination of balances.
type Gwei uint64

// DomainType is the 4 byte prefix of a signature domain.
type DomainType [4]byte
