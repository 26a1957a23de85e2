// Package slashings holds predicates that decide whether two signed messages conflict.
package slashings

import (
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

// IsDoubleVote checks if two distinct attestation data objects share a target epoch.
func IsDoubleVote(data1, data2 *ethpb.AttestationData) bool {
	if data1 == nil || data2 == nil || data1.Target == nil || data2.Target == nil {
		return false
	}
	return !data1.Equals(data2) && data1.Target.Epoch == data2.Target.Epoch
}

// IsSurround checks if the first attestation data surrounds the second one.
func IsSurround(data1, data2 *ethpb.AttestationData) bool {
	if data1 == nil || data2 == nil {
		return false
	}
	if data1.Source == nil || data1.Target == nil || data2.Source == nil || data2.Target == nil {
		return false
	}
	return data1.Source.Epoch < data2.Source.Epoch && data2.Target.Epoch < data1.Target.Epoch
}

// IsSlashableAttestationData verifies a slashing against the Casper Proof of Stake FFG rules.
//
// Pseudocode definition:
//
//	def is_slashable_attestation_data(data_1: AttestationData, data_2: AttestationData) -> bool:
//	  """
//	  Check if ``data_1`` and ``data_2`` are slashable according to Casper FFG rules.
//	  """
//	  return (
//	      # Double vote
//	      (data_1 != data_2 and data_1.target.epoch == data_2.target.epoch) or
//	      # Surround vote
//	      (data_1.source.epoch < data_2.source.epoch and data_2.target.epoch < data_1.target.epoch)
//	  )
func IsSlashableAttestationData(data1, data2 *ethpb.AttestationData) bool {
	return IsDoubleVote(data1, data2) || IsSurround(data1, data2)
}

// IsSlashableHeaderPair checks that two headers were signed by the same proposer for the same
// slot and differ.
func IsSlashableHeaderPair(h1, h2 *ethpb.BeaconBlockHeader) bool {
	if h1 == nil || h2 == nil {
		return false
	}
	return h1.Slot == h2.Slot && h1.ProposerIndex == h2.ProposerIndex && !h1.Equals(h2)
}
