package blocks

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
)

// Block header failures.
var (
	ErrNilBlock             = errors.New("nil block")
	ErrSlotMismatch         = errors.New("block slot does not match state slot")
	ErrBlockNotNewer        = errors.New("block is not newer than latest block header")
	ErrWrongProposer        = errors.New("proposer index does not match expected proposer")
	ErrParentRootMismatch   = errors.New("parent root does not match latest block header root")
	ErrProposerSlashed      = errors.New("proposer is slashed")
	ErrInvalidRandaoReveal  = errors.New("could not verify randao reveal")
	ErrInvalidBlockSigBatch = errors.New("block signature batch is invalid")
)

// Operation failures. Every operation processor wraps one of these, or
// signing.ErrSigFailedToVerify, into an *OperationError.
var (
	ErrNilOperation              = errors.New("nil operation")
	ErrTooManyOperations         = errors.New("too many operations in block")
	ErrDepositCount              = errors.New("unexpected number of deposits in block")
	ErrDuplicateIndices          = errors.New("duplicate validator index in block")
	ErrAlreadySlashed            = errors.New("validator is already slashed")
	ErrNotSlashable              = errors.New("validator is not slashable")
	ErrValidatorNotActive        = errors.New("validator is not active")
	ErrAlreadyExited             = errors.New("validator has already initiated an exit")
	ErrExitTooEarly              = errors.New("exit epoch has not been reached")
	ErrValidatorTooYoung         = errors.New("validator has not been active long enough to exit")
	ErrWrongTarget               = errors.New("attestation target epoch is invalid")
	ErrWrongSource               = errors.New("attestation source does not match justified checkpoint")
	ErrInclusionWindow           = errors.New("attestation is outside its inclusion window")
	ErrInvalidCommitteeIndex     = errors.New("committee index is out of range")
	ErrBitfieldLength            = errors.New("aggregation bitfield length does not match committee size")
	ErrInvalidIndexedAttestation = errors.New("invalid indexed attestation")
	ErrInvalidMerkleProof        = errors.New("invalid deposit merkle proof")
)

// OperationKind names the block body list an operation was taken from.
type OperationKind string

// Block body operation kinds, in processing order.
const (
	ProposerSlashingOp OperationKind = "proposer slashing"
	AttesterSlashingOp OperationKind = "attester slashing"
	AttestationOp      OperationKind = "attestation"
	DepositOp          OperationKind = "deposit"
	VoluntaryExitOp    OperationKind = "voluntary exit"
)

// FailureClass groups operation failures by what went wrong.
type FailureClass int

const (
	// Structural failures concern the shape of the block: list lengths, duplicates, nil fields.
	Structural FailureClass = iota
	// Semantic failures concern the state: eligibility, epochs, checkpoints.
	Semantic
	// Cryptographic failures are BLS signature failures.
	Cryptographic
	// Proof failures are merkle inclusion failures.
	Proof
)

func (c FailureClass) String() string {
	switch c {
	case Structural:
		return "structural"
	case Semantic:
		return "semantic"
	case Cryptographic:
		return "cryptographic"
	case Proof:
		return "proof"
	default:
		return "unknown"
	}
}

// ListIndex is the Index of an OperationError raised against a whole operation list.
const ListIndex = -1

// OperationError is returned by the operation processors. Index is the
// position of the offending operation in its list, or ListIndex.
type OperationError struct {
	Kind  OperationKind
	Index int
	Err   error
}

func (e *OperationError) Error() string {
	if e.Index == ListIndex {
		return fmt.Sprintf("invalid %s list: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("could not process %s %d: %v", e.Kind, e.Index, e.Err)
}

// Unwrap returns the underlying failure.
func (e *OperationError) Unwrap() error {
	return e.Err
}

// Class reports the failure class of the underlying error.
func (e *OperationError) Class() FailureClass {
	switch {
	case errors.Is(e.Err, signing.ErrSigFailedToVerify):
		return Cryptographic
	case errors.Is(e.Err, ErrInvalidMerkleProof):
		return Proof
	case errors.Is(e.Err, ErrTooManyOperations),
		errors.Is(e.Err, ErrDepositCount),
		errors.Is(e.Err, ErrDuplicateIndices),
		errors.Is(e.Err, ErrNilOperation),
		errors.Is(e.Err, ErrBitfieldLength),
		errors.Is(e.Err, ErrInvalidIndexedAttestation):
		return Structural
	default:
		return Semantic
	}
}

func opError(kind OperationKind, idx int, err error) *OperationError {
	return &OperationError{Kind: kind, Index: idx, Err: err}
}

// validityCondition is a named predicate an operation must satisfy before it is applied.
type validityCondition[T any] struct {
	name  string
	check func(ctx context.Context, st state.ReadOnlyBeaconState, op T) error
}

// verifyConditions runs the conditions in order and stops at the first failure.
func verifyConditions[T any](ctx context.Context, st state.ReadOnlyBeaconState, op T, conditions []validityCondition[T]) error {
	for _, c := range conditions {
		if err := c.check(ctx, st, op); err != nil {
			return errors.Wrap(err, c.name)
		}
	}
	return nil
}
