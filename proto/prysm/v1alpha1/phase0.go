// Package eth defines the phase0 consensus containers operated on by the state transition.
package eth

import (
	"bytes"

	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/go-bitfield"
)

// Fork describes the current and previous fork versions along with the epoch the current version activated.
type Fork struct {
	PreviousVersion []byte
	CurrentVersion  []byte
	Epoch           types.Epoch
}

// ForkData is hashed together with a domain type to derive a signature domain.
type ForkData struct {
	CurrentVersion        []byte
	GenesisValidatorsRoot []byte
}

// Checkpoint is an (epoch, root) pair used by justification and finality.
type Checkpoint struct {
	Epoch types.Epoch
	Root  []byte
}

// Equals reports whether two checkpoints share an epoch and root.
func (c *Checkpoint) Equals(o *Checkpoint) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.Epoch == o.Epoch && bytes.Equal(c.Root, o.Root)
}

// Validator is a single entry of the validator registry.
type Validator struct {
	PublicKey                  []byte
	WithdrawalCredentials      []byte
	EffectiveBalance           uint64
	Slashed                    bool
	ActivationEligibilityEpoch types.Epoch
	ActivationEpoch            types.Epoch
	ExitEpoch                  types.Epoch
	WithdrawableEpoch          types.Epoch
}

// BeaconBlockHeader summarises a block by the root of its body.
type BeaconBlockHeader struct {
	Slot          types.Slot
	ProposerIndex types.ValidatorIndex
	ParentRoot    []byte
	StateRoot     []byte
	BodyRoot      []byte
}

// Equals reports whether two headers are identical.
func (h *BeaconBlockHeader) Equals(o *BeaconBlockHeader) bool {
	if h == nil || o == nil {
		return h == o
	}
	return h.Slot == o.Slot &&
		h.ProposerIndex == o.ProposerIndex &&
		bytes.Equal(h.ParentRoot, o.ParentRoot) &&
		bytes.Equal(h.StateRoot, o.StateRoot) &&
		bytes.Equal(h.BodyRoot, o.BodyRoot)
}

// SignedBeaconBlockHeader is a header with the proposer's signature.
type SignedBeaconBlockHeader struct {
	Header    *BeaconBlockHeader
	Signature []byte
}

// Eth1Data is a vote on the state of the deposit contract.
type Eth1Data struct {
	DepositRoot  []byte
	DepositCount uint64
	BlockHash    []byte
}

// Equals reports whether two eth1 data votes are identical.
func (e *Eth1Data) Equals(o *Eth1Data) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.DepositCount == o.DepositCount &&
		bytes.Equal(e.DepositRoot, o.DepositRoot) &&
		bytes.Equal(e.BlockHash, o.BlockHash)
}

// AttestationData is the content a committee votes on.
type AttestationData struct {
	Slot            types.Slot
	CommitteeIndex  types.CommitteeIndex
	BeaconBlockRoot []byte
	Source          *Checkpoint
	Target          *Checkpoint
}

// Equals reports whether two attestation data objects are identical.
func (a *AttestationData) Equals(o *AttestationData) bool {
	if a == nil || o == nil {
		return a == o
	}
	return a.Slot == o.Slot &&
		a.CommitteeIndex == o.CommitteeIndex &&
		bytes.Equal(a.BeaconBlockRoot, o.BeaconBlockRoot) &&
		a.Source.Equals(o.Source) &&
		a.Target.Equals(o.Target)
}

// Attestation is an aggregated committee vote.
type Attestation struct {
	AggregationBits bitfield.Bitlist
	Data            *AttestationData
	Signature       []byte
}

// PendingAttestation records an included attestation until the next epoch transition.
type PendingAttestation struct {
	AggregationBits bitfield.Bitlist
	Data            *AttestationData
	InclusionDelay  types.Slot
	ProposerIndex   types.ValidatorIndex
}

// IndexedAttestation lists attesters by validator index instead of committee position.
type IndexedAttestation struct {
	AttestingIndices []uint64
	Data             *AttestationData
	Signature        []byte
}

// ProposerSlashing is evidence of a proposer signing two different headers for one slot.
type ProposerSlashing struct {
	Header_1 *SignedBeaconBlockHeader
	Header_2 *SignedBeaconBlockHeader
}

// AttesterSlashing is evidence of conflicting attestations.
type AttesterSlashing struct {
	Attestation_1 *IndexedAttestation
	Attestation_2 *IndexedAttestation
}

// DepositData is the payload of a deposit made to the deposit contract.
type DepositData struct {
	PublicKey             []byte
	WithdrawalCredentials []byte
	Amount                uint64
	Signature             []byte
}

// DepositMessage is the portion of DepositData covered by the proof of possession.
type DepositMessage struct {
	PublicKey             []byte
	WithdrawalCredentials []byte
	Amount                uint64
}

// Deposit pairs deposit data with a merkle branch into the deposit commitment.
type Deposit struct {
	Proof [][]byte
	Data  *DepositData
}

// VoluntaryExit is a validator's request to leave the active set.
type VoluntaryExit struct {
	Epoch          types.Epoch
	ValidatorIndex types.ValidatorIndex
}

// SignedVoluntaryExit is a voluntary exit with the validator's signature.
type SignedVoluntaryExit struct {
	Exit      *VoluntaryExit
	Signature []byte
}

// BeaconBlockBody contains the randao reveal, eth1 vote and the block operations.
type BeaconBlockBody struct {
	RandaoReveal      []byte
	Eth1Data          *Eth1Data
	Graffiti          []byte
	ProposerSlashings []*ProposerSlashing
	AttesterSlashings []*AttesterSlashing
	Attestations      []*Attestation
	Deposits          []*Deposit
	VoluntaryExits    []*SignedVoluntaryExit
}

// BeaconBlock is a phase0 beacon block.
type BeaconBlock struct {
	Slot          types.Slot
	ProposerIndex types.ValidatorIndex
	ParentRoot    []byte
	StateRoot     []byte
	Body          *BeaconBlockBody
}

// SignedBeaconBlock is a block with the proposer's signature.
type SignedBeaconBlock struct {
	Block     *BeaconBlock
	Signature []byte
}

// SigningData is the container whose root is signed: an object root mixed with a domain.
type SigningData struct {
	ObjectRoot []byte
	Domain     []byte
}

// HistoricalBatch is appended to historical roots once per SLOTS_PER_HISTORICAL_ROOT slots.
type HistoricalBatch struct {
	BlockRoots [][]byte
	StateRoots [][]byte
}

// BeaconState is the flat representation of a phase0 beacon state. Processors operate on the
// copy-on-write wrapper in beacon-chain/state; this form is used to build and export states.
type BeaconState struct {
	GenesisTime                 uint64
	GenesisValidatorsRoot       []byte
	Slot                        types.Slot
	Fork                        *Fork
	LatestBlockHeader           *BeaconBlockHeader
	BlockRoots                  [][]byte
	StateRoots                  [][]byte
	HistoricalRoots             [][]byte
	Eth1Data                    *Eth1Data
	Eth1DataVotes               []*Eth1Data
	Eth1DepositIndex            uint64
	Validators                  []*Validator
	Balances                    []uint64
	RandaoMixes                 [][]byte
	Slashings                   []uint64
	PreviousEpochAttestations   []*PendingAttestation
	CurrentEpochAttestations    []*PendingAttestation
	JustificationBits           bitfield.Bitvector4
	PreviousJustifiedCheckpoint *Checkpoint
	CurrentJustifiedCheckpoint  *Checkpoint
	FinalizedCheckpoint         *Checkpoint
}
