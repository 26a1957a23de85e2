package slashings

import (
	"testing"

	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
)

func data(source, target uint64, root byte) *ethpb.AttestationData {
	return &ethpb.AttestationData{
		BeaconBlockRoot: []byte{root},
		Source:          &ethpb.Checkpoint{Epoch: types.Epoch(source)},
		Target:          &ethpb.Checkpoint{Epoch: types.Epoch(target)},
	}
}

func TestIsSlashableAttestationData(t *testing.T) {
	tests := []struct {
		name  string
		data1 *ethpb.AttestationData
		data2 *ethpb.AttestationData
		want  bool
	}{
		{name: "identical data", data1: data(1, 2, 0), data2: data(1, 2, 0), want: false},
		{name: "double vote", data1: data(1, 2, 0), data2: data(1, 2, 1), want: true},
		{name: "surround vote", data1: data(1, 4, 0), data2: data(2, 3, 0), want: true},
		{name: "surrounded is not slashable in this order", data1: data(2, 3, 0), data2: data(1, 4, 0), want: false},
		{name: "different targets", data1: data(1, 2, 0), data2: data(1, 3, 1), want: false},
		{name: "nil data", data1: nil, data2: data(1, 3, 1), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSlashableAttestationData(tt.data1, tt.data2))
		})
	}
}

func TestIsSlashableHeaderPair(t *testing.T) {
	h1 := &ethpb.BeaconBlockHeader{Slot: 1, ProposerIndex: 2, BodyRoot: []byte{1}}
	h2 := ethpb.CopyBeaconBlockHeader(h1)
	assert.Equal(t, false, IsSlashableHeaderPair(h1, h2))
	h2.BodyRoot = []byte{2}
	assert.Equal(t, true, IsSlashableHeaderPair(h1, h2))
	h2.Slot = 2
	assert.Equal(t, false, IsSlashableHeaderPair(h1, h2))
}
