package stateutil_test

import (
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/stateutil"
	"github.com/prysmaticlabs/beacon-transition/encoding/ssz"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestReference_MinusRef(t *testing.T) {
	ref := stateutil.NewRef(1)
	ref.AddRef()
	assert.Equal(t, uint(2), ref.Refs())
	ref.MinusRef()
	ref.MinusRef()
	ref.MinusRef()
	assert.Equal(t, uint(0), ref.Refs())
}

func TestValMapHandler_CopyIsIndependent(t *testing.T) {
	vals := []*ethpb.Validator{{PublicKey: []byte{1}}, {PublicKey: []byte{2}}}
	h := stateutil.NewValMapHandler(vals)
	idx, ok := h.Get([48]byte{2})
	require.Equal(t, true, ok)
	assert.Equal(t, uint64(1), uint64(idx))

	cpy := h.Copy()
	cpy.Set([48]byte{3}, 2)
	_, ok = h.Get([48]byte{3})
	assert.Equal(t, false, ok)
	_, ok = cpy.Get([48]byte{3})
	assert.Equal(t, true, ok)
}

func TestValidatorRegistryRoot_ParallelMatchesSequential(t *testing.T) {
	vals := make([]*ethpb.Validator, 2000)
	for i := range vals {
		vals[i] = &ethpb.Validator{
			PublicKey:        []byte{byte(i), byte(i >> 8)},
			EffectiveBalance: uint64(i),
		}
		vals[i].PublicKey = append(vals[i].PublicKey, make([]byte, 46)...)
	}
	got, err := stateutil.ValidatorRegistryRoot(vals, 1<<40)
	require.NoError(t, err)

	want, err := ssz.MerkleizeListSSZ(vals, 1<<40)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestValidatorRegistryRoot_Errors(t *testing.T) {
	_, err := stateutil.ValidatorRegistryRoot([]*ethpb.Validator{{}, {}}, 1)
	require.ErrorContains(t, "exceeds limit", err)
	_, err = stateutil.ValidatorRegistryRoot([]*ethpb.Validator{nil}, 4)
	require.ErrorContains(t, "nil validator", err)
}

func TestRootsArrayHashTreeRoot_WrongLength(t *testing.T) {
	_, err := stateutil.RootsArrayHashTreeRoot(make([][32]byte, 3), 4)
	require.ErrorContains(t, "wanted 4 roots", err)
	root, err := stateutil.RootsArrayHashTreeRoot(make([][32]byte, 4), 4)
	require.NoError(t, err)
	assert.Equal(t, ssz.MerkleizeVector(nil, 4), root)
}
