package bytesutil_test

import (
	"testing"

	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestToBytes(t *testing.T) {
	tests := []struct {
		a uint64
		b []byte
	}{
		{0, []byte{0, 0, 0, 0}},
		{1, []byte{1, 0, 0, 0}},
		{16777216, []byte{0, 0, 0, 1}},
		{4294967295, []byte{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		assert.DeepEqual(t, tt.b, bytesutil.ToBytes(tt.a, 4))
		assert.DeepEqual(t, tt.b, bytesutil.Bytes4(tt.a))
		assert.Equal(t, tt.a, bytesutil.FromBytes4(tt.b))
	}
	assert.DeepEqual(t, []byte{1, 0, 0, 0, 0, 0, 0, 0, 0, 0}, bytesutil.ToBytes(1, 10))
}

func TestBytes8RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 1 << 40, 1<<64 - 1} {
		assert.Equal(t, v, bytesutil.FromBytes8(bytesutil.Bytes8(v)))
	}
	assert.Equal(t, 32, len(bytesutil.Bytes32(7)))
}

func TestSafeCopyBytes_DoesNotAlias(t *testing.T) {
	in := []byte{1, 2, 3}
	out := bytesutil.SafeCopyBytes(in)
	out[0] = 9
	assert.Equal(t, byte(1), in[0])
	assert.DeepEqual(t, []byte(nil), bytesutil.SafeCopyBytes(nil))

	in2d := [][]byte{{1}, {2}}
	out2d := bytesutil.SafeCopy2dBytes(in2d)
	out2d[1][0] = 7
	assert.Equal(t, byte(2), in2d[1][0])
}

func TestReverseByteOrder(t *testing.T) {
	in := []byte{1, 2, 3}
	assert.DeepEqual(t, []byte{3, 2, 1}, bytesutil.ReverseByteOrder(in))
	assert.DeepEqual(t, []byte{1, 2, 3}, in)
	assert.Equal(t, uint64(258), bytesutil.LittleEndianBytesToBigInt([]byte{2, 1}).Uint64())
}

func TestDecodeHexWithLength(t *testing.T) {
	b, err := bytesutil.DecodeHexWithLength("0x0102", 2)
	require.NoError(t, err)
	assert.DeepEqual(t, []byte{1, 2}, b)
	_, err = bytesutil.DecodeHexWithLength("0x0102", 3)
	require.ErrorContains(t, "is not length 3 bytes", err)
	_, err = bytesutil.DecodeHexWithLength("0102", 2)
	require.ErrorContains(t, "is not a valid hex", err)
}

func TestPadToAndTrunc(t *testing.T) {
	assert.DeepEqual(t, []byte{1, 0, 0}, bytesutil.PadTo([]byte{1}, 3))
	assert.DeepEqual(t, []byte{1, 2, 3, 4, 5, 6}, bytesutil.Trunc([]byte{1, 2, 3, 4, 5, 6, 7}))
	assert.Equal(t, true, bytesutil.ZeroRoot(make([]byte, 32)))
	assert.Equal(t, false, bytesutil.ZeroRoot([]byte{0, 1}))
}
