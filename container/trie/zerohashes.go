package trie

import "github.com/prysmaticlabs/beacon-transition/crypto/hash"

// ZeroHashes is a pre-computed table of the roots of all-zero subtrees by height.
var ZeroHashes [100][32]byte

func init() {
	for i := 1; i < len(ZeroHashes); i++ {
		ZeroHashes[i] = hash.Hash(append(ZeroHashes[i-1][:], ZeroHashes[i-1][:]...))
	}
}
