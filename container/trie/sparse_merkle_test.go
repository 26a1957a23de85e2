package trie_test

import (
	"strconv"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/container/trie"
	"github.com/prysmaticlabs/beacon-transition/crypto/hash"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

const depositTreeDepth = 32

func testItems(n int) [][]byte {
	items := make([][]byte, n)
	for i := range items {
		h := hash.Hash([]byte(strconv.Itoa(i)))
		items[i] = h[:]
	}
	return items
}

func TestZeroHashes(t *testing.T) {
	assert.Equal(t, [32]byte{}, trie.ZeroHashes[0])
	want := hash.Hash(make([]byte, 64))
	assert.Equal(t, want, trie.ZeroHashes[1])
}

func TestMerkleTrie_MerkleProofOutOfRange(t *testing.T) {
	m, err := trie.GenerateTrieFromItems(testItems(2), depositTreeDepth)
	require.NoError(t, err)
	_, err = m.MerkleProof(-1)
	require.ErrorContains(t, "merkle index is negative", err)
	_, err = m.MerkleProof(2)
	require.ErrorContains(t, "merkle index out of range", err)
}

func TestGenerateTrieFromItems_NoItemsProvided(t *testing.T) {
	_, err := trie.GenerateTrieFromItems(nil, depositTreeDepth)
	require.ErrorContains(t, "no items provided", err)
}

func TestMerkleTrie_VerifyMerkleProofWithDepth(t *testing.T) {
	items := testItems(8)
	m, err := trie.GenerateTrieFromItems(items, depositTreeDepth)
	require.NoError(t, err)
	root := m.HashTreeRoot()
	for i := range items {
		proof, err := m.MerkleProof(i)
		require.NoError(t, err)
		require.Equal(t, depositTreeDepth+1, len(proof))
		assert.Equal(t, true, trie.VerifyMerkleProofWithDepth(root[:], items[i], uint64(i), proof, depositTreeDepth), "proof %d did not verify", i)
		assert.Equal(t, true, trie.VerifyMerkleProof(root[:], items[i], uint64(i), proof))
	}
	proof, err := m.MerkleProof(0)
	require.NoError(t, err)
	assert.Equal(t, false, trie.VerifyMerkleProofWithDepth(root[:], []byte("buzz"), 0, proof, depositTreeDepth))
	assert.Equal(t, false, trie.VerifyMerkleProofWithDepth(root[:], items[0], 1, proof, depositTreeDepth))
	assert.Equal(t, false, trie.VerifyMerkleProofWithDepth(root[:], items[0], 0, proof[1:], depositTreeDepth))
}

func TestMerkleTrie_InsertMatchesGenerate(t *testing.T) {
	items := testItems(5)
	generated, err := trie.GenerateTrieFromItems(items, depositTreeDepth)
	require.NoError(t, err)

	inserted, err := trie.NewTrie(depositTreeDepth)
	require.NoError(t, err)
	assert.Equal(t, trie.ZeroHashes[depositTreeDepth], inserted.Root())
	for i, item := range items {
		require.NoError(t, inserted.Insert(item, i))
	}
	assert.Equal(t, generated.HashTreeRoot(), inserted.HashTreeRoot())
	assert.Equal(t, 5, inserted.NumOfItems())
}

func TestMerkleTrie_CopyIsIndependent(t *testing.T) {
	m, err := trie.GenerateTrieFromItems(testItems(3), depositTreeDepth)
	require.NoError(t, err)
	cpy := m.Copy()
	before := m.HashTreeRoot()
	require.NoError(t, cpy.Insert([]byte{'x'}, 3))
	assert.Equal(t, before, m.HashTreeRoot())
	assert.NotEqual(t, before, cpy.HashTreeRoot())
}

func TestMerkleTrie_SmallDepthRoot(t *testing.T) {
	items := testItems(3)
	m, err := trie.GenerateTrieFromItems(items, 2)
	require.NoError(t, err)
	left := hash.Hash(append(items[0], items[1]...))
	right := hash.Hash(append(items[2], make([]byte, 32)...))
	assert.Equal(t, hash.Hash(append(left[:], right[:]...)), m.Root())

	_, err = trie.GenerateTrieFromItems(testItems(5), 2)
	require.ErrorContains(t, "do not fit", err)
}
