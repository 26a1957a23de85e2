package types_test

import (
	"testing"

	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/math"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestSlot_Arithmetic(t *testing.T) {
	tests := []struct {
		name string
		got  types.Slot
		want types.Slot
	}{
		{name: "add", got: types.Slot(31).Add(1), want: 32},
		{name: "sub", got: types.Slot(32).Sub(1), want: 31},
		{name: "mul", got: types.Slot(4).Mul(8), want: 32},
		{name: "div", got: types.Slot(65).Div(32), want: 2},
		{name: "mod", got: types.Slot(65).Mod(32), want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestSlot_SafeArithmeticErrors(t *testing.T) {
	_, err := types.Slot(math.MaxUint64).SafeAdd(1)
	require.ErrorIs(t, err, math.ErrOverflow)
	_, err = types.Slot(0).SafeSub(1)
	require.ErrorIs(t, err, math.ErrUnderflow)
	_, err = types.Slot(1 << 63).SafeMul(2)
	require.ErrorIs(t, err, math.ErrOverflow)
	_, err = types.Slot(1).SafeMod(0)
	require.ErrorIs(t, err, math.ErrDivByZero)
}

func TestEpoch_Arithmetic(t *testing.T) {
	assert.Equal(t, types.Epoch(6), types.Epoch(5).Add(1))
	assert.Equal(t, types.Epoch(4), types.Epoch(5).Sub(1))
	assert.Equal(t, types.Epoch(3), types.Epoch(67).Mod(64))
	assert.Equal(t, types.Epoch(7), types.MaxEpoch(3, 7))

	_, err := types.Epoch(math.MaxUint64).SafeAdd(1)
	require.ErrorIs(t, err, math.ErrOverflow)
}

func TestSlot_PanicsOnOverflow(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic on overflow")
		}
	}()
	types.Slot(math.MaxUint64).Add(1)
}
