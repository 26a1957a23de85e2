// Package attestation contains useful helpers for converting
// attestations into indexed form and checking indexed attestations.
package attestation

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/go-bitfield"
	"go.opencensus.io/trace"
	"golang.org/x/exp/slices"
)

var (
	// ErrNilIndexedAttestation is returned for an indexed attestation without data.
	ErrNilIndexedAttestation = errors.New("nil or missing indexed attestation data")
	// ErrEmptyIndices is returned when an indexed attestation carries no attesting indices.
	ErrEmptyIndices = errors.New("expected non-empty attesting indices")
	// ErrTooManyIndices is returned when an indexed attestation exceeds the committee size limit.
	ErrTooManyIndices = errors.New("attesting indices exceed max validators per committee")
	// ErrUnsortedIndices is returned when attesting indices are not strictly increasing.
	ErrUnsortedIndices = errors.New("attesting indices are not sorted and unique")
)

// ConvertToIndexed converts attestation to (almost) indexed-verifiable form.
//
// Note about pseudocode definition. The state was used by get_attesting_indices to determine
// the attestation committee. Now that we provide this as an argument, we no longer need to provide
// a state.
//
// Pseudocode definition:
//
//	def get_indexed_attestation(state: BeaconState, attestation: Attestation) -> IndexedAttestation:
//	 """
//	 Return the indexed attestation corresponding to `attestation`.
//	 """
//	 attesting_indices = get_attesting_indices(state, attestation.data, attestation.aggregation_bits)
//
//	 return IndexedAttestation(
//	     attesting_indices=sorted(attesting_indices),
//	     data=attestation.data,
//	     signature=attestation.signature,
//	 )
func ConvertToIndexed(ctx context.Context, attestation *ethpb.Attestation, committee []types.ValidatorIndex) (*ethpb.IndexedAttestation, error) {
	_, span := trace.StartSpan(ctx, "attestationutil.ConvertToIndexed")
	defer span.End()

	if attestation == nil || attestation.Data == nil {
		return nil, errors.New("nil attestation or attestation data")
	}
	attIndices, err := AttestingIndices(attestation.AggregationBits, committee)
	if err != nil {
		return nil, err
	}
	slices.Sort(attIndices)
	return &ethpb.IndexedAttestation{
		Data:             attestation.Data,
		Signature:        attestation.Signature,
		AttestingIndices: attIndices,
	}, nil
}

// AttestingIndices returns the attesting participants indices from the attestation data. The
// committee is provided as an argument rather than an imported implementation from the pseudocode definition.
// Having the committee as an argument allows for re-use of beacon committees when possible.
//
// Pseudocode definition:
//
//	def get_attesting_indices(state: BeaconState,
//	                          data: AttestationData,
//	                          bits: Bitlist[MAX_VALIDATORS_PER_COMMITTEE]) -> Set[ValidatorIndex]:
//	 """
//	 Return the set of attesting indices corresponding to `data` and `bits`.
//	 """
//	 committee = get_beacon_committee(state, data.slot, data.index)
//	 return set(index for i, index in enumerate(committee) if bits[i])
func AttestingIndices(bf bitfield.Bitfield, committee []types.ValidatorIndex) ([]uint64, error) {
	if bf.Len() != uint64(len(committee)) {
		return nil, errors.Errorf("bitfield length %d is not equal to committee length %d", bf.Len(), len(committee))
	}
	indices := make([]uint64, 0, bf.Count())
	for _, idx := range bf.BitIndices() {
		if idx < len(committee) {
			indices = append(indices, uint64(committee[idx]))
		}
	}
	return indices, nil
}

// IsValidAttestationIndices validates an indexed attestation's attesting indices.
//
// Pseudocode definition:
//
//	def is_valid_indexed_attestation(state: BeaconState, indexed_attestation: IndexedAttestation) -> bool:
//	  """
//	  Check if `indexed_attestation` is not empty, has sorted and unique indices and has a valid aggregate signature.
//	  """
//	  # Verify indices are sorted and unique
//	  indices = indexed_attestation.attesting_indices
//	  if len(indices) == 0 or not indices == sorted(set(indices)):
//	      return False
//	  # Verify aggregate signature
//	  pubkeys = [state.validators[i].pubkey for i in indices]
//	  domain = get_domain(state, DOMAIN_BEACON_ATTESTER, indexed_attestation.data.target.epoch)
//	  signing_root = compute_signing_root(indexed_attestation.data, domain)
//	  return bls.FastAggregateVerify(pubkeys, signing_root, indexed_attestation.signature)
func IsValidAttestationIndices(ctx context.Context, indexedAttestation *ethpb.IndexedAttestation, maxValidatorsPerCommittee uint64) error {
	_, span := trace.StartSpan(ctx, "attestationutil.IsValidAttestationIndices")
	defer span.End()

	if indexedAttestation == nil || indexedAttestation.Data == nil || indexedAttestation.Data.Target == nil || indexedAttestation.AttestingIndices == nil {
		return ErrNilIndexedAttestation
	}
	indices := indexedAttestation.AttestingIndices
	if len(indices) == 0 {
		return ErrEmptyIndices
	}
	if uint64(len(indices)) > maxValidatorsPerCommittee {
		return errors.Wrapf(ErrTooManyIndices, "%d > %d", len(indices), maxValidatorsPerCommittee)
	}
	for i := 1; i < len(indices); i++ {
		if indices[i-1] >= indices[i] {
			return errors.Wrapf(ErrUnsortedIndices, "index %d at position %d follows %d", indices[i], i, indices[i-1])
		}
	}
	return nil
}

// VerifyIndexedAttestationSig this helper function performs the last part of the
// indexed attestation validation starting at Verify aggregate signature
// comment.
func VerifyIndexedAttestationSig(ctx context.Context, indexedAtt *ethpb.IndexedAttestation, pubKeys []bls.PublicKey, domain []byte) error {
	_, span := trace.StartSpan(ctx, "attestationutil.VerifyIndexedAttestationSig")
	defer span.End()
	indices := indexedAtt.AttestingIndices

	messageHash, err := signing.ComputeSigningRoot(indexedAtt.Data, domain)
	if err != nil {
		return errors.Wrap(err, "could not get signing root of object")
	}

	sig, err := bls.SignatureFromBytes(indexedAtt.Signature)
	if err != nil {
		return errors.Wrap(err, "could not convert bytes to signature")
	}

	voted := len(indices) > 0
	if voted && !sig.FastAggregateVerify(pubKeys, messageHash) {
		return signing.ErrSigFailedToVerify
	}
	return nil
}
