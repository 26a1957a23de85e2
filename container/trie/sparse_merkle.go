// Package trie defines utilities for sparse merkle tries for Ethereum consensus.
package trie

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/crypto/hash"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	"github.com/prysmaticlabs/beacon-transition/math"
)

// SparseMerkleTrie implements a sparse, general purpose Merkle trie. It is used to build
// the append-only deposit commitment and the proofs deposits are checked against.
type SparseMerkleTrie struct {
	depth    uint64
	branches [][][32]byte
	count    uint64
}

// NewTrie returns an empty trie of the given depth.
func NewTrie(depth uint64) (*SparseMerkleTrie, error) {
	if depth >= 64 {
		return nil, errors.New("depth exceeds 64")
	}
	return &SparseMerkleTrie{
		depth:    depth,
		branches: make([][][32]byte, depth+1),
	}, nil
}

// GenerateTrieFromItems constructs a Merkle trie from a sequence of byte slices.
func GenerateTrieFromItems(items [][]byte, depth uint64) (*SparseMerkleTrie, error) {
	if len(items) == 0 {
		return nil, errors.New("no items provided to generate Merkle trie")
	}
	if depth >= 64 {
		return nil, errors.New("depth exceeds 64")
	}
	if uint64(len(items)) > math.PowerOf2(depth) {
		return nil, fmt.Errorf("%d items do not fit in a trie of depth %d", len(items), depth)
	}
	layers := make([][][32]byte, depth+1)
	layers[0] = make([][32]byte, len(items))
	for i := range items {
		layers[0][i] = bytesutil.ToBytes32(items[i])
	}
	for i := uint64(0); i < depth; i++ {
		current := layers[i]
		next := make([][32]byte, (len(current)+1)/2)
		for j := 0; j < len(current); j += 2 {
			right := ZeroHashes[i]
			if j+1 < len(current) {
				right = current[j+1]
			}
			next[j/2] = hash.Hash(append(current[j][:], right[:]...))
		}
		layers[i+1] = next
	}
	return &SparseMerkleTrie{
		branches: layers,
		depth:    depth,
		count:    uint64(len(items)),
	}, nil
}

// Root returns the root of the trie without the item count mixed in.
func (m *SparseMerkleTrie) Root() [32]byte {
	top := m.branches[len(m.branches)-1]
	if len(top) == 0 {
		return ZeroHashes[m.depth]
	}
	return top[0]
}

// HashTreeRoot of the Merkle trie as defined in the deposit contract.
//
//	Pseudocode definition:
//	 sha256(concat(node, self.to_little_endian_64(self.deposit_count), slice(zero_bytes32, start=0, len=24)))
func (m *SparseMerkleTrie) HashTreeRoot() [32]byte {
	var enc [32]byte
	binary.LittleEndian.PutUint64(enc[:], m.count)
	root := m.Root()
	return hash.Hash(append(root[:], enc[:]...))
}

// Insert an item into the trie at the given index, growing the trie when the index
// is past the last inserted leaf.
func (m *SparseMerkleTrie) Insert(item []byte, index int) error {
	if index < 0 {
		return fmt.Errorf("negative index provided: %d", index)
	}
	if uint64(index) >= math.PowerOf2(m.depth) {
		return fmt.Errorf("index %d exceeds trie capacity", index)
	}
	for index >= len(m.branches[0]) {
		m.branches[0] = append(m.branches[0], ZeroHashes[0])
	}
	node := bytesutil.ToBytes32(item)
	m.branches[0][index] = node
	if uint64(index) >= m.count {
		m.count = uint64(index) + 1
	}
	currentIndex := index
	for i := uint64(0); i < m.depth; i++ {
		neighborIdx := currentIndex ^ 1
		neighbor := ZeroHashes[i]
		if neighborIdx < len(m.branches[i]) {
			neighbor = m.branches[i][neighborIdx]
		}
		if currentIndex%2 == 0 {
			node = hash.Hash(append(node[:], neighbor[:]...))
		} else {
			node = hash.Hash(append(neighbor[:], node[:]...))
		}
		parentIdx := currentIndex / 2
		for parentIdx >= len(m.branches[i+1]) {
			m.branches[i+1] = append(m.branches[i+1], ZeroHashes[i+1])
		}
		m.branches[i+1][parentIdx] = node
		currentIndex = parentIdx
	}
	return nil
}

// MerkleProof computes a proof from a trie's branches using a Merkle index.
// The final element of the proof is the little endian item count, so the proof
// verifies against HashTreeRoot at depth+1.
func (m *SparseMerkleTrie) MerkleProof(index int) ([][]byte, error) {
	if index < 0 {
		return nil, fmt.Errorf("merkle index is negative: %d", index)
	}
	leaves := m.branches[0]
	if index >= len(leaves) {
		return nil, fmt.Errorf("merkle index out of range in trie, max range: %d, received: %d", len(leaves), index)
	}
	merkleIndex := uint64(index)
	proof := make([][]byte, m.depth+1)
	for i := uint64(0); i < m.depth; i++ {
		subIndex := (merkleIndex >> i) ^ 1
		item := ZeroHashes[i]
		if subIndex < uint64(len(m.branches[i])) {
			item = m.branches[i][subIndex]
		}
		proof[i] = item[:]
	}
	enc := make([]byte, 32)
	binary.LittleEndian.PutUint64(enc, m.count)
	proof[len(proof)-1] = enc
	return proof, nil
}

// NumOfItems returns the number of leaves inserted into the trie.
func (m *SparseMerkleTrie) NumOfItems() int {
	return int(m.count)
}

// Copy performs a deep copy of the trie.
func (m *SparseMerkleTrie) Copy() *SparseMerkleTrie {
	dstBranches := make([][][32]byte, len(m.branches))
	for i, layer := range m.branches {
		dstBranches[i] = make([][32]byte, len(layer))
		copy(dstBranches[i], layer)
	}
	return &SparseMerkleTrie{
		depth:    m.depth,
		branches: dstBranches,
		count:    m.count,
	}
}

// VerifyMerkleProofWithDepth verifies a Merkle branch against a root of a trie.
func VerifyMerkleProofWithDepth(root, item []byte, merkleIndex uint64, proof [][]byte, depth uint64) bool {
	if uint64(len(proof)) != depth+1 {
		return false
	}
	if depth >= 64 {
		return false // PowerOf2 would overflow.
	}
	node := bytesutil.ToBytes32(item)
	for i := uint64(0); i <= depth; i++ {
		sibling := bytesutil.ToBytes32(proof[i])
		if (merkleIndex / math.PowerOf2(i) % 2) != 0 {
			node = hash.Hash(append(sibling[:], node[:]...))
		} else {
			node = hash.Hash(append(node[:], sibling[:]...))
		}
	}
	return bytes.Equal(root, node[:])
}

// VerifyMerkleProof given a trie root, a leaf, the generalized merkle index
// of the leaf in the trie, and the proof itself.
func VerifyMerkleProof(root, item []byte, merkleIndex uint64, proof [][]byte) bool {
	if len(proof) == 0 {
		return false
	}
	return VerifyMerkleProofWithDepth(root, item, merkleIndex, proof, uint64(len(proof)-1))
}
