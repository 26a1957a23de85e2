package blocks_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/blocks"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
)

func TestOperationError_Class(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want blocks.FailureClass
	}{
		{name: "signature", err: errors.Wrap(signing.ErrSigFailedToVerify, "header"), want: blocks.Cryptographic},
		{name: "merkle proof", err: blocks.ErrInvalidMerkleProof, want: blocks.Proof},
		{name: "too many", err: blocks.ErrTooManyOperations, want: blocks.Structural},
		{name: "deposit count", err: blocks.ErrDepositCount, want: blocks.Structural},
		{name: "duplicates", err: blocks.ErrDuplicateIndices, want: blocks.Structural},
		{name: "nil operation", err: errors.Wrap(blocks.ErrNilOperation, "exit"), want: blocks.Structural},
		{name: "bitfield", err: blocks.ErrBitfieldLength, want: blocks.Structural},
		{name: "already slashed", err: blocks.ErrAlreadySlashed, want: blocks.Semantic},
		{name: "too young", err: blocks.ErrValidatorTooYoung, want: blocks.Semantic},
		{name: "wrong source", err: blocks.ErrWrongSource, want: blocks.Semantic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opErr := &blocks.OperationError{Kind: blocks.DepositOp, Index: 3, Err: tt.err}
			assert.Equal(t, tt.want, opErr.Class())
			assert.Equal(t, true, errors.Is(opErr, tt.err))
		})
	}
}

func TestOperationError_Error(t *testing.T) {
	err := &blocks.OperationError{Kind: blocks.VoluntaryExitOp, Index: 2, Err: blocks.ErrAlreadyExited}
	assert.Equal(t, "could not process voluntary exit 2: validator has already initiated an exit", err.Error())

	err = &blocks.OperationError{Kind: blocks.AttestationOp, Index: blocks.ListIndex, Err: blocks.ErrTooManyOperations}
	assert.Equal(t, "invalid attestation list: too many operations in block", err.Error())
}

func TestFailureClass_String(t *testing.T) {
	assert.Equal(t, "structural", blocks.Structural.String())
	assert.Equal(t, "semantic", blocks.Semantic.String())
	assert.Equal(t, "cryptographic", blocks.Cryptographic.String())
	assert.Equal(t, "proof", blocks.Proof.String())
	assert.Equal(t, "unknown", blocks.FailureClass(42).String())
}
