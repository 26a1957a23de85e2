package ssz

import (
	"encoding/binary"
	"math/bits"

	"github.com/prysmaticlabs/beacon-transition/container/trie"
	"github.com/prysmaticlabs/beacon-transition/crypto/hash/htr"
)

// Depth returns the depth of the smallest power of two tree holding v leaves.
// Zero and one leaf both have depth 0.
func Depth(v uint64) uint8 {
	if v <= 1 {
		return 0
	}
	return uint8(bits.Len64(v - 1))
}

// MerkleizeVector hashes a list of 32-byte chunks as a vector of the given length,
// padding with zero subtrees. The input slice is not modified.
func MerkleizeVector(elements [][32]byte, length uint64) [32]byte {
	depth := Depth(length)
	if len(elements) == 0 {
		return trie.ZeroHashes[depth]
	}
	layer := make([][32]byte, len(elements), len(elements)+1)
	copy(layer, elements)
	for i := uint8(0); i < depth; i++ {
		if len(layer)%2 == 1 {
			layer = append(layer, trie.ZeroHashes[i])
		}
		layer = htr.VectorizedSha256(layer)
	}
	return layer[0]
}

// MixInLength mixes a list length into a merkle root.
func MixInLength(root [32]byte, length uint64) [32]byte {
	chunks := make([][32]byte, 2)
	chunks[0] = root
	binary.LittleEndian.PutUint64(chunks[1][:], length)
	return htr.VectorizedSha256(chunks)[0]
}

// Hashable is an interface representing objects that implement HashTreeRoot()
type Hashable interface {
	HashTreeRoot() ([32]byte, error)
}

// MerkleizeVectorSSZ hashes each element in the list and then returns the HTR
// of the corresponding list of roots
func MerkleizeVectorSSZ[T Hashable](elements []T, length uint64) ([32]byte, error) {
	roots := make([][32]byte, len(elements))
	var err error
	for i, el := range elements {
		roots[i], err = el.HashTreeRoot()
		if err != nil {
			return [32]byte{}, err
		}
	}
	return MerkleizeVector(roots, length), nil
}

// MerkleizeListSSZ hashes each element in the list and then returns the HTR of
// the list of corresponding roots, with the length mixed in.
func MerkleizeListSSZ[T Hashable](elements []T, limit uint64) ([32]byte, error) {
	body, err := MerkleizeVectorSSZ(elements, limit)
	if err != nil {
		return [32]byte{}, err
	}
	return MixInLength(body, uint64(len(elements))), nil
}
