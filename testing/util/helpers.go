package util

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/transition"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

// BlockSignature signs the block with the private key of its proposer. The state is
// advanced to the block slot on a copy to find that proposer.
func BlockSignature(
	bState state.BeaconState,
	block *ethpb.BeaconBlock,
	privKeys []bls.SecretKey,
) (bls.Signature, error) {
	st := bState
	if st.Slot() < block.Slot {
		var err error
		st, err = transition.ProcessSlots(context.Background(), bState, block.Slot)
		if err != nil {
			return nil, err
		}
	}
	proposerIdx, err := helpers.BeaconProposerIndex(context.Background(), st)
	if err != nil {
		return nil, err
	}
	if uint64(proposerIdx) >= uint64(len(privKeys)) {
		return nil, errors.Errorf("no private key for proposer %d", proposerIdx)
	}
	epoch := helpers.SlotToEpoch(st.Config(), block.Slot)
	domain, err := signing.Domain(st.Fork(), epoch, st.Config().DomainBeaconProposer, st.GenesisValidatorsRoot())
	if err != nil {
		return nil, err
	}
	blockRoot, err := signing.ComputeSigningRoot(block, domain)
	if err != nil {
		return nil, err
	}
	return privKeys[proposerIdx].Sign(blockRoot[:]), nil
}

// RandaoReveal returns a signature of the requested epoch using the beacon proposer private key.
func RandaoReveal(beaconState state.ReadOnlyBeaconState, epoch types.Epoch, privKeys []bls.SecretKey) ([]byte, error) {
	// We fetch the proposer's index as that is whom the RANDAO will be verified against.
	proposerIdx, err := helpers.BeaconProposerIndex(context.Background(), beaconState)
	if err != nil {
		return []byte{}, errors.Wrap(err, "could not get beacon proposer index")
	}
	if uint64(proposerIdx) >= uint64(len(privKeys)) {
		return nil, errors.Errorf("no private key for proposer %d", proposerIdx)
	}
	domain, err := signing.Domain(beaconState.Fork(), epoch, beaconState.Config().DomainRandao, beaconState.GenesisValidatorsRoot())
	if err != nil {
		return nil, err
	}
	root, err := (&ethpb.SigningData{
		ObjectRoot: bytesutil.Bytes32(uint64(epoch)),
		Domain:     domain,
	}).HashTreeRoot()
	if err != nil {
		return nil, err
	}
	return privKeys[proposerIdx].Sign(root[:]).Marshal(), nil
}

// ComputeDomainAndSign computes the domain and signing root and sign it using the passed in private key.
func ComputeDomainAndSign(
	st state.ReadOnlyBeaconState,
	epoch types.Epoch,
	obj signing.SSZHashable,
	domain [4]byte,
	key bls.SecretKey,
) ([]byte, error) {
	d, err := signing.Domain(st.Fork(), epoch, domain, st.GenesisValidatorsRoot())
	if err != nil {
		return nil, err
	}
	sr, err := signing.ComputeSigningRoot(obj, d)
	if err != nil {
		return nil, err
	}
	return key.Sign(sr[:]).Marshal(), nil
}
