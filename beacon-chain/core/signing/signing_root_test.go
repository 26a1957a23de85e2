package signing_test

import (
	"bytes"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestSigningRoot_ComputeSigningRoot(t *testing.T) {
	emptyBlock := &ethpb.BeaconBlock{Body: &ethpb.BeaconBlockBody{}}
	_, err := signing.ComputeSigningRoot(emptyBlock, bytesutil.PadTo([]byte{'T', 'E', 'S', 'T'}, 32))
	assert.NoError(t, err, "Could not compute signing root of block")
}

func TestSigningRoot_ComputeDomain(t *testing.T) {
	tests := []struct {
		domainType [4]byte
		domain     []byte
	}{
		{domainType: [4]byte{4, 0, 0, 0}, domain: []byte{4, 0, 0, 0, 245, 165, 253, 66, 209, 106, 32, 48, 39, 152, 239, 110, 211, 9, 151, 155, 67, 0, 61, 35, 32, 217, 240, 232, 234, 152, 49, 169}},
		{domainType: [4]byte{5, 0, 0, 0}, domain: []byte{5, 0, 0, 0, 245, 165, 253, 66, 209, 106, 32, 48, 39, 152, 239, 110, 211, 9, 151, 155, 67, 0, 61, 35, 32, 217, 240, 232, 234, 152, 49, 169}},
	}
	for _, tt := range tests {
		if got, err := signing.ComputeDomain(tt.domainType, nil, nil); !bytes.Equal(got, tt.domain) {
			t.Errorf("wanted domain version: %d, got: %d", tt.domain, got)
		} else {
			require.NoError(t, err)
		}
	}
}

func TestSigningRoot_ComputeDomain_BadForkVersion(t *testing.T) {
	_, err := signing.ComputeDomain([4]byte{}, []byte{1, 2}, nil)
	assert.ErrorContains(t, "fork version length", err)
}

func TestDomain_OK(t *testing.T) {
	cfg := params.MainnetConfig()
	fork := &ethpb.Fork{
		Epoch:           3,
		PreviousVersion: []byte{0, 0, 0, 2},
		CurrentVersion:  []byte{0, 0, 0, 3},
	}
	tests := []struct {
		epoch      uint64
		domainType [4]byte
		version    []byte
	}{
		{epoch: 1, domainType: cfg.DomainBeaconProposer, version: fork.PreviousVersion},
		{epoch: 2, domainType: cfg.DomainBeaconAttester, version: fork.PreviousVersion},
		{epoch: 3, domainType: cfg.DomainRandao, version: fork.CurrentVersion},
		{epoch: 4, domainType: cfg.DomainVoluntaryExit, version: fork.CurrentVersion},
	}
	for _, tt := range tests {
		got, err := signing.Domain(fork, types.Epoch(tt.epoch), tt.domainType, nil)
		require.NoError(t, err)
		want, err := signing.ComputeDomain(tt.domainType, tt.version, nil)
		require.NoError(t, err)
		assert.DeepEqual(t, want, got)
		assert.DeepEqual(t, tt.domainType[:], got[:4])
	}

	_, err := signing.Domain(nil, 0, cfg.DomainRandao, nil)
	assert.ErrorContains(t, "nil fork", err)
}

func TestVerifySigningRoot(t *testing.T) {
	priv, err := bls.RandKey()
	require.NoError(t, err)
	exit := &ethpb.VoluntaryExit{Epoch: 4, ValidatorIndex: 9}
	domain, err := signing.ComputeDomain(params.MainnetConfig().DomainVoluntaryExit, nil, nil)
	require.NoError(t, err)
	root, err := signing.ComputeSigningRoot(exit, domain)
	require.NoError(t, err)
	sig := priv.Sign(root[:]).Marshal()

	require.NoError(t, signing.VerifySigningRoot(exit, priv.PublicKey().Marshal(), sig, domain))

	other := &ethpb.VoluntaryExit{Epoch: 5, ValidatorIndex: 9}
	assert.ErrorIs(t, signing.VerifySigningRoot(other, priv.PublicKey().Marshal(), sig, domain), signing.ErrSigFailedToVerify)

	set, err := signing.BlockSignatureBatch(priv.PublicKey().Marshal(), sig, domain, exit.HashTreeRoot)
	require.NoError(t, err)
	ok, err := set.Verify()
	require.NoError(t, err)
	assert.Equal(t, true, ok)
}

func TestFuzzverifySigningRoot_10000(t *testing.T) {
	fuzzer := fuzz.NewWithSeed(0)
	var pubkey [48]byte
	var sig [96]byte
	var domain [4]byte
	var p []byte
	var s []byte
	var d []byte
	for i := 0; i < 10000; i++ {
		fuzzer.Fuzz(&pubkey)
		fuzzer.Fuzz(&sig)
		fuzzer.Fuzz(&domain)
		fuzzer.Fuzz(&p)
		fuzzer.Fuzz(&s)
		fuzzer.Fuzz(&d)
		err := signing.VerifySigningRoot(&ethpb.Checkpoint{Root: make([]byte, 32)}, pubkey[:], sig[:], domain[:])
		_ = err
		err = signing.VerifySigningRoot(&ethpb.Checkpoint{Root: make([]byte, 32)}, p, s, d)
		_ = err
	}
}
