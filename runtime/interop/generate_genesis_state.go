package interop

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/signing"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/transition"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/container/trie"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/crypto/hash"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

// GenerateGenesisState deterministically given a genesis time and number of validators.
// If a genesis time of 0 is supplied it is used as is.
func GenerateGenesisState(
	ctx context.Context,
	cfg *params.BeaconChainConfig,
	genesisTime, numValidators uint64,
) (state.BeaconState, []*ethpb.Deposit, error) {
	privKeys, pubKeys, err := DeterministicallyGenerateKeys(0 /*startIndex*/, numValidators)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "could not deterministically generate keys for %d validators", numValidators)
	}
	depositDataItems, depositDataRoots, err := DepositDataFromKeys(cfg, privKeys, pubKeys)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not generate deposit data from keys")
	}
	depositTrie, err := trie.GenerateTrieFromItems(depositDataRoots, cfg.DepositContractTreeDepth)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not generate Merkle trie for deposit proofs")
	}
	deposits, err := GenerateDepositsFromData(depositDataItems, depositTrie)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not generate deposits from the deposit data provided")
	}
	root := depositTrie.HashTreeRoot()
	beaconState, err := transition.GenesisBeaconState(ctx, cfg, deposits, genesisTime, &ethpb.Eth1Data{
		DepositRoot:  root[:],
		DepositCount: uint64(len(deposits)),
		BlockHash:    make([]byte, 32),
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not generate genesis state")
	}
	return beaconState, deposits, nil
}

// GenerateDepositsFromData a list of deposit items by creating proofs for each of them from a sparse Merkle trie.
func GenerateDepositsFromData(depositDataItems []*ethpb.DepositData, depositTrie *trie.SparseMerkleTrie) ([]*ethpb.Deposit, error) {
	deposits := make([]*ethpb.Deposit, len(depositDataItems))
	for i, item := range depositDataItems {
		proof, err := depositTrie.MerkleProof(i)
		if err != nil {
			return nil, errors.Wrapf(err, "could not generate proof for deposit %d", i)
		}
		deposits[i] = &ethpb.Deposit{
			Proof: proof,
			Data:  item,
		}
	}
	return deposits, nil
}

// DepositDataFromKeys generates a list of deposit data items from a set of BLS validator keys.
func DepositDataFromKeys(
	cfg *params.BeaconChainConfig,
	privKeys []bls.SecretKey,
	pubKeys []bls.PublicKey,
) ([]*ethpb.DepositData, [][]byte, error) {
	if len(privKeys) != len(pubKeys) {
		return nil, nil, errors.Errorf("got %d private keys and %d public keys", len(privKeys), len(pubKeys))
	}
	dataList := make([]*ethpb.DepositData, len(privKeys))
	dataRoots := make([][]byte, len(privKeys))
	for i := range privKeys {
		data, err := createDepositData(cfg, privKeys[i], pubKeys[i], cfg.MaxEffectiveBalance)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "could not create deposit data for key: %#x", privKeys[i].Marshal())
		}
		h, err := data.HashTreeRoot()
		if err != nil {
			return nil, nil, errors.Wrap(err, "could not hash tree root deposit data item")
		}
		dataList[i] = data
		dataRoots[i] = h[:]
	}
	return dataList, dataRoots, nil
}

// DepositData builds a signed deposit data item for an arbitrary amount.
func DepositData(cfg *params.BeaconChainConfig, privKey bls.SecretKey, pubKey bls.PublicKey, amount uint64) (*ethpb.DepositData, error) {
	return createDepositData(cfg, privKey, pubKey, amount)
}

// Generates a deposit data item from BLS keys and signs the hash tree root of the data.
func createDepositData(cfg *params.BeaconChainConfig, privKey bls.SecretKey, pubKey bls.PublicKey, amount uint64) (*ethpb.DepositData, error) {
	depositMessage := &ethpb.DepositMessage{
		PublicKey:             pubKey.Marshal(),
		WithdrawalCredentials: withdrawalCredentialsHash(cfg, pubKey.Marshal()),
		Amount:                amount,
	}
	domain, err := signing.ComputeDomain(cfg.DomainDeposit, cfg.GenesisForkVersion, nil)
	if err != nil {
		return nil, err
	}
	root, err := signing.ComputeSigningRoot(depositMessage, domain)
	if err != nil {
		return nil, err
	}
	return &ethpb.DepositData{
		PublicKey:             depositMessage.PublicKey,
		WithdrawalCredentials: depositMessage.WithdrawalCredentials,
		Amount:                depositMessage.Amount,
		Signature:             privKey.Sign(root[:]).Marshal(),
	}, nil
}

// withdrawalCredentialsHash forms a 32 byte hash of the withdrawal public
// address.
//
// The credentials are formed as:
//
//	withdrawal_credentials[:1] == BLS_WITHDRAWAL_PREFIX_BYTE
//	withdrawal_credentials[1:] == hash(withdrawal_pubkey)[1:]
//
// where withdrawal_credentials is of type bytes32.
func withdrawalCredentialsHash(cfg *params.BeaconChainConfig, pubKey []byte) []byte {
	h := hash.Hash(pubKey)
	return append([]byte{cfg.BLSWithdrawalPrefixByte}, h[1:]...)
}
