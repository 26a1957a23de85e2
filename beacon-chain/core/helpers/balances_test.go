package helpers_test

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/math"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/sirupsen/logrus"
	logTest "github.com/sirupsen/logrus/hooks/test"
)

func TestTotalBalance_OK(t *testing.T) {
	cfg := params.MinimalSpecConfig()
	st := newState(t, cfg, 4, 0)

	balance := helpers.TotalBalance(st, []types.ValidatorIndex{0, 1, 2})
	assert.Equal(t, 3*cfg.MaxEffectiveBalance, balance)
	assert.Equal(t, cfg.EffectiveBalanceIncrement, helpers.TotalBalance(st, nil), "Empty set returns the increment floor")
}

func TestTotalBalance_SkipsUnknownIndex(t *testing.T) {
	logrus.SetLevel(logrus.DebugLevel)
	defer logrus.SetLevel(logrus.InfoLevel)
	hook := logTest.NewGlobal()
	cfg := params.MinimalSpecConfig()
	st := newState(t, cfg, 4, 0)

	balance := helpers.TotalBalance(st, []types.ValidatorIndex{0, 1, 100})
	assert.Equal(t, 2*cfg.MaxEffectiveBalance, balance)
	require.LogsContain(t, hook, "Skipping validator missing from registry")
}

func TestTotalActiveBalance_OK(t *testing.T) {
	cfg := params.MinimalSpecConfig()
	st := newState(t, cfg, 10, 0)
	v, err := st.ValidatorAtIndex(0)
	require.NoError(t, err)
	v.ExitEpoch = 0
	require.NoError(t, st.UpdateValidatorAtIndex(0, v))

	total, err := helpers.TotalActiveBalance(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, 9*cfg.MaxEffectiveBalance, total)
}

func TestIncreaseDecreaseBalance(t *testing.T) {
	cfg := params.MinimalSpecConfig()
	st := newState(t, cfg, 2, 0)

	require.NoError(t, helpers.IncreaseBalance(st, 0, 100))
	b, err := st.BalanceAtIndex(0)
	require.NoError(t, err)
	assert.Equal(t, cfg.MaxEffectiveBalance+100, b)

	require.NoError(t, helpers.DecreaseBalance(st, 1, cfg.MaxEffectiveBalance+1))
	b, err = st.BalanceAtIndex(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), b, "Decrease saturates at zero")

	require.NoError(t, st.UpdateBalancesAtIndex(0, ^uint64(0)))
	assert.ErrorIs(t, helpers.IncreaseBalance(st, 0, 1), math.ErrOverflow)
	assert.NotNil(t, helpers.IncreaseBalance(st, 5, 1))
}

func TestBlockRootAtSlot(t *testing.T) {
	cfg := params.MinimalSpecConfig()
	st := newState(t, cfg, 1, 20)
	require.NoError(t, st.UpdateBlockRootAtIndex(5, [32]byte{'r'}))

	root, err := helpers.BlockRootAtSlot(st, 5)
	require.NoError(t, err)
	assert.Equal(t, byte('r'), root[0])

	_, err = helpers.BlockRootAtSlot(st, 20)
	assert.ErrorContains(t, "out of bounds", err)

	root, err = helpers.BlockRoot(st, 1)
	require.NoError(t, err)
	assert.DeepEqual(t, make([]byte, 32), root)
}
