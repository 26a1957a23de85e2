// Package ssz provides merkleization helpers for the simple serialize hash tree root
// of beacon state fields.
package ssz

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	"github.com/prysmaticlabs/go-bitfield"
)

// Uint64Root computes the HashTreeRoot Merkleization of
// a simple uint64 value using Simple Serialize rules.
func Uint64Root(val uint64) [32]byte {
	var root [32]byte
	binary.LittleEndian.PutUint64(root[:8], val)
	return root
}

// PackUint64s packs little endian uint64 values into 32 byte chunks, four per chunk.
func PackUint64s(vals []uint64) [][32]byte {
	chunks := make([][32]byte, (len(vals)+3)/4)
	for i, v := range vals {
		binary.LittleEndian.PutUint64(chunks[i/4][(i%4)*8:], v)
	}
	return chunks
}

// Uint64ListRootWithLimit computes the root of an SSZ List[uint64, limit].
func Uint64ListRootWithLimit(vals []uint64, limit uint64) ([32]byte, error) {
	if uint64(len(vals)) > limit {
		return [32]byte{}, errors.Errorf("list of %d items exceeds limit %d", len(vals), limit)
	}
	chunkLimit := (limit*8 + 31) / 32
	return MixInLength(MerkleizeVector(PackUint64s(vals), chunkLimit), uint64(len(vals))), nil
}

// Uint64VectorRoot computes the root of an SSZ Vector[uint64, N] where N is len(vals).
func Uint64VectorRoot(vals []uint64) [32]byte {
	chunks := PackUint64s(vals)
	return MerkleizeVector(chunks, uint64(len(chunks)))
}

// ByteArrayRootWithLimit computes the HashTreeRoot Merkleization of
// a list of [32]byte roots using Simple Serialize rules.
func ByteArrayRootWithLimit(roots [][]byte, limit uint64) ([32]byte, error) {
	if uint64(len(roots)) > limit {
		return [32]byte{}, errors.Errorf("list of %d roots exceeds limit %d", len(roots), limit)
	}
	chunks := make([][32]byte, len(roots))
	for i, r := range roots {
		chunks[i] = bytesutil.ToBytes32(r)
	}
	return MixInLength(MerkleizeVector(chunks, limit), uint64(len(roots))), nil
}

// RootsVectorRoot computes the root of an SSZ Vector[Bytes32, len(roots)].
func RootsVectorRoot(roots [][]byte) [32]byte {
	chunks := make([][32]byte, len(roots))
	for i, r := range roots {
		chunks[i] = bytesutil.ToBytes32(r)
	}
	return MerkleizeVector(chunks, uint64(len(chunks)))
}

// BitlistRoot returns the mix in length of a bitwise Merkleized bitfield.
func BitlistRoot(bfield bitfield.Bitlist, maxCapacity uint64) ([32]byte, error) {
	limit := (maxCapacity + 255) / 256
	if bfield == nil || bfield.Len() == 0 {
		return MixInLength(MerkleizeVector(nil, limit), 0), nil
	}
	if bfield.Len() > maxCapacity {
		return [32]byte{}, errors.Errorf("bitlist of %d bits exceeds capacity %d", bfield.Len(), maxCapacity)
	}
	raw := bfield.Bytes()
	chunks := make([][32]byte, (len(raw)+31)/32)
	for i := range chunks {
		copy(chunks[i][:], raw[i*32:])
	}
	return MixInLength(MerkleizeVector(chunks, limit), bfield.Len()), nil
}
