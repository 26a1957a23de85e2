package math_test

import (
	"testing"

	"github.com/prysmaticlabs/beacon-transition/math"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestIntegerSquareRoot(t *testing.T) {
	tt := []struct {
		number uint64
		root   uint64
	}{
		{number: 20, root: 4},
		{number: 200, root: 14},
		{number: 1987, root: 44},
		{number: 34989843, root: 5915},
		{number: 97282, root: 311},
		{number: 1 << 32, root: 1 << 16},
		{number: (1 << 32) + 1, root: 1 << 16},
		{number: 1 << 33, root: 92681},
		{number: 1 << 60, root: 1 << 30},
		{number: 1 << 63, root: 3037000499},
		{number: math.MaxUint64, root: 4294967295},
	}
	for _, testVals := range tt {
		assert.Equal(t, testVals.root, math.IntegerSquareRoot(testVals.number))
	}
}

func TestMath_Mul64(t *testing.T) {
	type args struct {
		a uint64
		b uint64
	}
	tests := []struct {
		args    args
		res     uint64
		wantErr bool
	}{
		{args: args{0, 1}, res: 0, wantErr: false},
		{args: args{1 << 32, 1}, res: 1 << 32, wantErr: false},
		{args: args{1 << 32, 100}, res: 429496729600, wantErr: false},
		{args: args{1 << 32, 1 << 31}, res: 9223372036854775808, wantErr: false},
		{args: args{1 << 32, 1 << 32}, res: 0, wantErr: true},
		{args: args{1 << 62, 2}, res: 9223372036854775808, wantErr: false},
		{args: args{1 << 62, 4}, res: 0, wantErr: true},
		{args: args{1 << 63, 1}, res: 9223372036854775808, wantErr: false},
		{args: args{1 << 63, 2}, res: 0, wantErr: true},
	}
	for _, tt := range tests {
		got, err := math.Mul64(tt.args.a, tt.args.b)
		if tt.wantErr {
			require.ErrorIs(t, err, math.ErrOverflow)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.res, got)
	}
}

func TestMath_Add64(t *testing.T) {
	got, err := math.Add64(1<<63, 1<<62)
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<63+1<<62), got)

	_, err = math.Add64(1<<63, 1<<63)
	require.ErrorIs(t, err, math.ErrOverflow)
}

func TestMath_Sub64(t *testing.T) {
	got, err := math.Sub64(10, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got)

	_, err = math.Sub64(3, 10)
	require.ErrorIs(t, err, math.ErrUnderflow)
	assert.Equal(t, uint64(0), math.SaturatingSub(3, 10))
}

func TestMath_Div64(t *testing.T) {
	_, err := math.Div64(10, 0)
	require.ErrorIs(t, err, math.ErrDivByZero)
	got, err := math.Div64(10, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got)
}

func TestPowerOf2(t *testing.T) {
	assert.Equal(t, true, math.IsPowerOf2(64))
	assert.Equal(t, false, math.IsPowerOf2(0))
	assert.Equal(t, false, math.IsPowerOf2(96))
	assert.Equal(t, uint64(1024), math.PowerOf2(10))
}
