package interop_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/transition"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/container/trie"
	eth "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	interop2 "github.com/prysmaticlabs/beacon-transition/runtime/interop"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestGenerateGenesisState(t *testing.T) {
	cfg := params.MinimalSpecConfig()
	numValidators := uint64(64)
	privKeys, pubKeys, err := interop2.DeterministicallyGenerateKeys(0 /*startIndex*/, numValidators)
	require.NoError(t, err)
	depositDataItems, depositDataRoots, err := interop2.DepositDataFromKeys(cfg, privKeys, pubKeys)
	require.NoError(t, err)
	tr, err := trie.GenerateTrieFromItems(depositDataRoots, cfg.DepositContractTreeDepth)
	require.NoError(t, err)
	deposits, err := interop2.GenerateDepositsFromData(depositDataItems, tr)
	require.NoError(t, err)
	root := tr.HashTreeRoot()
	genesisState, err := transition.GenesisBeaconState(context.Background(), cfg, deposits, 0, &eth.Eth1Data{
		DepositRoot:  root[:],
		DepositCount: uint64(len(deposits)),
	})
	require.NoError(t, err)
	want := int(numValidators)
	assert.Equal(t, want, genesisState.NumValidators())
	assert.Equal(t, uint64(0), genesisState.GenesisTime())
	assert.Equal(t, uint64(len(deposits)), genesisState.Eth1DepositIndex())
	assert.DeepEqual(t, root[:], genesisState.Eth1Data().DepositRoot)
	for i := 0; i < want; i++ {
		v, err := genesisState.ValidatorAtIndexReadOnly(types.ValidatorIndex(i))
		require.NoError(t, err)
		assert.Equal(t, cfg.GenesisEpoch, v.ActivationEpoch())
	}
}

func TestDeterministicallyGenerateKeys_Stable(t *testing.T) {
	privA, pubA, err := interop2.DeterministicallyGenerateKeys(3, 5)
	require.NoError(t, err)
	privB, pubB, err := interop2.DeterministicallyGenerateKeys(0, 8)
	require.NoError(t, err)
	for i := range privA {
		assert.DeepEqual(t, privB[i+3].Marshal(), privA[i].Marshal())
		assert.DeepEqual(t, pubB[i+3].Marshal(), pubA[i].Marshal())
	}
}

func TestGenerateGenesisState_ValidGenesis(t *testing.T) {
	cfg := params.MinimalSpecConfig()
	st, deposits, err := interop2.GenerateGenesisState(context.Background(), cfg, cfg.MinGenesisTime, cfg.MinGenesisActiveValidatorCount)
	require.NoError(t, err)
	assert.Equal(t, int(cfg.MinGenesisActiveValidatorCount), len(deposits))
	ok, err := transition.IsValidGenesisState(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, true, ok)
	assert.DeepNotEqual(t, make([]byte, 32), st.GenesisValidatorsRoot())
}
