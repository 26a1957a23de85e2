// Package stateutil computes the per-field merkle roots of a phase0 beacon state and tracks
// how many state copies share a field value.
package stateutil

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/async"
	"github.com/prysmaticlabs/beacon-transition/encoding/ssz"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/go-bitfield"
)

// validatorsParallelThreshold is the registry size above which validator roots are hashed
// across goroutines.
const validatorsParallelThreshold = 1024

// RootsArrayHashTreeRoot computes the root of a vector of 32 byte roots of the given length.
func RootsArrayHashTreeRoot(vals [][32]byte, length uint64) ([32]byte, error) {
	if uint64(len(vals)) != length {
		return [32]byte{}, errors.Errorf("wanted %d roots, received %d", length, len(vals))
	}
	return ssz.MerkleizeVector(vals, length), nil
}

// HistoricalRootsRoot computes the root of the historical roots list.
func HistoricalRootsRoot(roots [][32]byte, limit uint64) ([32]byte, error) {
	if uint64(len(roots)) > limit {
		return [32]byte{}, errors.Errorf("historical roots length %d exceeds limit %d", len(roots), limit)
	}
	return ssz.MixInLength(ssz.MerkleizeVector(roots, limit), uint64(len(roots))), nil
}

// ValidatorRegistryRoot computes the HashTreeRoot Merkleization of the validator registry.
// Large registries are hashed in parallel, each worker writing its own range of roots.
func ValidatorRegistryRoot(vals []*ethpb.Validator, limit uint64) ([32]byte, error) {
	if uint64(len(vals)) > limit {
		return [32]byte{}, errors.Errorf("validator registry length %d exceeds limit %d", len(vals), limit)
	}
	roots := make([][32]byte, len(vals))
	hashRange := func(offset, entries int) (interface{}, error) {
		for i := offset; i < offset+entries; i++ {
			v := vals[i]
			if v == nil {
				return nil, errors.Errorf("nil validator at index %d", i)
			}
			r, err := v.HashTreeRoot()
			if err != nil {
				return nil, errors.Wrapf(err, "could not hash validator %d", i)
			}
			roots[i] = r
		}
		return nil, nil
	}
	if len(vals) > validatorsParallelThreshold {
		if _, err := async.Scatter(len(vals), hashRange); err != nil {
			return [32]byte{}, err
		}
	} else if _, err := hashRange(0, len(vals)); err != nil {
		return [32]byte{}, err
	}
	return ssz.MixInLength(ssz.MerkleizeVector(roots, limit), uint64(len(vals))), nil
}

// BalancesRoot computes the root of the balances list.
func BalancesRoot(balances []uint64, limit uint64) ([32]byte, error) {
	return ssz.Uint64ListRootWithLimit(balances, limit)
}

// SlashingsRoot computes the root of the slashings vector.
func SlashingsRoot(slashings []uint64) [32]byte {
	return ssz.Uint64VectorRoot(slashings)
}

// Eth1DataVotesRoot computes the root of the eth1 data votes list.
func Eth1DataVotesRoot(votes []*ethpb.Eth1Data, limit uint64) ([32]byte, error) {
	if uint64(len(votes)) > limit {
		return [32]byte{}, errors.Errorf("eth1 data votes length %d exceeds limit %d", len(votes), limit)
	}
	return ssz.MerkleizeListSSZ(votes, limit)
}

// EpochAttestationsRoot computes the root of a list of pending attestations.
func EpochAttestationsRoot(atts []*ethpb.PendingAttestation, limit uint64) ([32]byte, error) {
	if uint64(len(atts)) > limit {
		return [32]byte{}, errors.Errorf("pending attestations length %d exceeds limit %d", len(atts), limit)
	}
	return ssz.MerkleizeListSSZ(atts, limit)
}

// JustificationBitsRoot packs the justification bitvector into a single chunk.
func JustificationBitsRoot(bits bitfield.Bitvector4) [32]byte {
	var root [32]byte
	copy(root[:], bits)
	return root
}
