package attestation_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1/attestation"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/prysmaticlabs/go-bitfield"
)

func TestAttestingIndices(t *testing.T) {
	type args struct {
		bf        bitfield.Bitfield
		committee []types.ValidatorIndex
	}
	tests := []struct {
		name string
		args args
		want []uint64
		err  string
	}{
		{
			name: "Full committee attested",
			args: args{
				bf:        bitfield.Bitlist{0b1111},
				committee: []types.ValidatorIndex{0, 1, 2},
			},
			want: []uint64{0, 1, 2},
		},
		{
			name: "Partial committee attested",
			args: args{
				bf:        bitfield.Bitlist{0b1101},
				committee: []types.ValidatorIndex{0, 1, 2},
			},
			want: []uint64{0, 2},
		},
		{
			name: "Invalid bit length",
			args: args{
				bf:        bitfield.Bitlist{0b11111},
				committee: []types.ValidatorIndex{0, 1, 2},
			},
			err: "bitfield length 4 is not equal to committee length 3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := attestation.AttestingIndices(tt.args.bf, tt.args.committee)
			if tt.err == "" {
				require.NoError(t, err)
				assert.DeepEqual(t, tt.want, got)
			} else {
				require.ErrorContains(t, tt.err, err)
			}
		})
	}
}

func TestConvertToIndexed_SortsIndices(t *testing.T) {
	att := &ethpb.Attestation{
		AggregationBits: bitfield.Bitlist{0b10111},
		Data:            &ethpb.AttestationData{},
		Signature:       make([]byte, 96),
	}
	indexed, err := attestation.ConvertToIndexed(context.Background(), att, []types.ValidatorIndex{40, 7, 12, 3})
	require.NoError(t, err)
	assert.DeepEqual(t, []uint64{7, 12, 40}, indexed.AttestingIndices)
}

func TestIsValidAttestationIndices(t *testing.T) {
	data := &ethpb.AttestationData{Target: &ethpb.Checkpoint{}, Source: &ethpb.Checkpoint{}}
	tests := []struct {
		name    string
		att     *ethpb.IndexedAttestation
		wantErr error
	}{
		{
			name:    "nil data",
			att:     &ethpb.IndexedAttestation{AttestingIndices: []uint64{1}},
			wantErr: attestation.ErrNilIndexedAttestation,
		},
		{
			name:    "empty indices",
			att:     &ethpb.IndexedAttestation{AttestingIndices: []uint64{}, Data: data},
			wantErr: attestation.ErrEmptyIndices,
		},
		{
			name:    "greater than max validators per committee",
			att:     &ethpb.IndexedAttestation{AttestingIndices: []uint64{1, 2, 3, 4, 5}, Data: data},
			wantErr: attestation.ErrTooManyIndices,
		},
		{
			name:    "unsorted",
			att:     &ethpb.IndexedAttestation{AttestingIndices: []uint64{2, 1}, Data: data},
			wantErr: attestation.ErrUnsortedIndices,
		},
		{
			name:    "duplicate",
			att:     &ethpb.IndexedAttestation{AttestingIndices: []uint64{1, 1, 2}, Data: data},
			wantErr: attestation.ErrUnsortedIndices,
		},
		{
			name: "valid",
			att:  &ethpb.IndexedAttestation{AttestingIndices: []uint64{1, 2, 4}, Data: data},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := attestation.IsValidAttestationIndices(context.Background(), tt.att, 4)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVerifyIndexedAttestationSig(t *testing.T) {
	keys := make([]bls.SecretKey, 3)
	pubs := make([]bls.PublicKey, 3)
	for i := range keys {
		k, err := bls.RandKey()
		require.NoError(t, err)
		keys[i] = k
		pubs[i] = k.PublicKey()
	}
	data := &ethpb.AttestationData{
		Slot:            3,
		BeaconBlockRoot: make([]byte, 32),
		Source:          &ethpb.Checkpoint{Root: make([]byte, 32)},
		Target:          &ethpb.Checkpoint{Epoch: 1, Root: make([]byte, 32)},
	}
	domain, err := signing.ComputeDomain([4]byte{1, 0, 0, 0}, nil, nil)
	require.NoError(t, err)
	root, err := signing.ComputeSigningRoot(data, domain)
	require.NoError(t, err)
	sigs := make([]bls.Signature, len(keys))
	for i, k := range keys {
		sigs[i] = k.Sign(root[:])
	}
	indexed := &ethpb.IndexedAttestation{
		AttestingIndices: []uint64{0, 1, 2},
		Data:             data,
		Signature:        bls.AggregateSignatures(sigs).Marshal(),
	}
	require.NoError(t, attestation.VerifyIndexedAttestationSig(context.Background(), indexed, pubs, domain))

	indexed.Data = ethpb.CopyAttestationData(data)
	indexed.Data.Slot = 4
	assert.ErrorIs(t, attestation.VerifyIndexedAttestationSig(context.Background(), indexed, pubs, domain), signing.ErrSigFailedToVerify)
}
