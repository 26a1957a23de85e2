package util

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/transition"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/prysmaticlabs/beacon-transition/container/trie"
	"github.com/prysmaticlabs/beacon-transition/crypto/bls"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/runtime/interop"
)

// depositCacheKey separates cached deposit data of configs with different signing domains.
type depositCacheKey struct {
	forkVersion string
	amount      uint64
	depth       uint64
}

type depositCache struct {
	data  []*ethpb.DepositData
	roots [][]byte
}

var (
	lock          sync.Mutex
	cachedKeys    []bls.SecretKey
	cachedPubKeys []bls.PublicKey
	cachedData    = make(map[depositCacheKey]*depositCache)
)

// DeterministicDepositsAndKeys returns the amount of deposits specified with deterministic keys.
// Every returned deposit carries a proof against the deposit trie of exactly numDeposits leaves.
func DeterministicDepositsAndKeys(cfg *params.BeaconChainConfig, numDeposits uint64) ([]*ethpb.Deposit, []bls.SecretKey, error) {
	lock.Lock()
	defer lock.Unlock()

	if err := ensureKeys(numDeposits); err != nil {
		return nil, nil, err
	}
	data, roots, err := depositDataFor(cfg, numDeposits)
	if err != nil {
		return nil, nil, err
	}
	depositTrie, err := trie.GenerateTrieFromItems(roots[:numDeposits], cfg.DepositContractTreeDepth)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not create new trie")
	}
	deposits, err := interop.GenerateDepositsFromData(data[:numDeposits], depositTrie)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not generate deposits from data")
	}
	keys := make([]bls.SecretKey, numDeposits)
	copy(keys, cachedKeys[:numDeposits])
	return deposits, keys, nil
}

// DeterministicDepositTrie returns a sparse merkle trie over the first size deterministic deposits.
func DeterministicDepositTrie(cfg *params.BeaconChainConfig, size int) (*trie.SparseMerkleTrie, [][32]byte, error) {
	lock.Lock()
	defer lock.Unlock()

	if err := ensureKeys(uint64(size)); err != nil {
		return nil, nil, err
	}
	_, roots, err := depositDataFor(cfg, uint64(size))
	if err != nil {
		return nil, nil, err
	}
	depositTrie, err := trie.GenerateTrieFromItems(roots[:size], cfg.DepositContractTreeDepth)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not create new trie")
	}
	leaves := make([][32]byte, size)
	for i := range leaves {
		leaves[i] = bytesutil.ToBytes32(roots[i])
	}
	return depositTrie, leaves, nil
}

// DeterministicEth1Data takes an array of deposits and returns the eth1Data made from the deposit roots.
func DeterministicEth1Data(cfg *params.BeaconChainConfig, size int) (*ethpb.Eth1Data, error) {
	depositTrie, _, err := DeterministicDepositTrie(cfg, size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create trie")
	}
	root := depositTrie.HashTreeRoot()
	return &ethpb.Eth1Data{
		BlockHash:    root[:],
		DepositRoot:  root[:],
		DepositCount: uint64(size),
	}, nil
}

// DeterministicGenesisState returns a genesis state made using the deterministic deposits
// under the minimal preset.
func DeterministicGenesisState(t testing.TB, numValidators uint64) (state.BeaconState, []bls.SecretKey) {
	return DeterministicGenesisStateWithConfig(t, params.MinimalSpecConfig(), numValidators)
}

// DeterministicGenesisStateWithConfig returns a genesis state made using the deterministic
// deposits under the given config.
func DeterministicGenesisStateWithConfig(t testing.TB, cfg *params.BeaconChainConfig, numValidators uint64) (state.BeaconState, []bls.SecretKey) {
	deposits, privKeys, err := DeterministicDepositsAndKeys(cfg, numValidators)
	if err != nil {
		t.Fatal(errors.Wrapf(err, "failed to get %d deposits", numValidators))
	}
	eth1Data, err := DeterministicEth1Data(cfg, len(deposits))
	if err != nil {
		t.Fatal(errors.Wrapf(err, "failed to get eth1data for %d deposits", numValidators))
	}
	beaconState, err := transition.GenesisBeaconState(context.Background(), cfg, deposits, uint64(0), eth1Data)
	if err != nil {
		t.Fatal(errors.Wrapf(err, "failed to get genesis beacon state of %d validators", numValidators))
	}
	helpers.ClearCache()
	return beaconState, privKeys
}

// DepositTrieFromDeposits takes an array of deposits and returns the deposit trie.
func DepositTrieFromDeposits(cfg *params.BeaconChainConfig, deposits []*ethpb.Deposit) (*trie.SparseMerkleTrie, [][32]byte, error) {
	encodedDeposits := make([][]byte, len(deposits))
	roots := make([][32]byte, len(deposits))
	for i := 0; i < len(encodedDeposits); i++ {
		hashedDeposit, err := deposits[i].Data.HashTreeRoot()
		if err != nil {
			return nil, nil, errors.Wrap(err, "could not tree hash deposit data")
		}
		encodedDeposits[i] = hashedDeposit[:]
		roots[i] = hashedDeposit
	}
	depositTrie, err := trie.GenerateTrieFromItems(encodedDeposits, cfg.DepositContractTreeDepth)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not generate deposit trie")
	}
	return depositTrie, roots, nil
}

// ResetCache clears out the old trie, private keys and deposits.
func ResetCache() {
	lock.Lock()
	defer lock.Unlock()
	cachedKeys = nil
	cachedPubKeys = nil
	cachedData = make(map[depositCacheKey]*depositCache)
}

// ensureKeys extends the cached deterministic keys to at least n keys. Callers hold lock.
func ensureKeys(n uint64) error {
	have := uint64(len(cachedKeys))
	if n <= have {
		return nil
	}
	secs, pubs, err := interop.DeterministicallyGenerateKeys(have, n-have)
	if err != nil {
		return errors.Wrap(err, "could not create validator keys")
	}
	cachedKeys = append(cachedKeys, secs...)
	cachedPubKeys = append(cachedPubKeys, pubs...)
	return nil
}

// depositDataFor extends the cached deposit data of cfg to at least n items. Callers hold lock.
func depositDataFor(cfg *params.BeaconChainConfig, n uint64) ([]*ethpb.DepositData, [][]byte, error) {
	key := depositCacheKey{
		forkVersion: string(cfg.GenesisForkVersion),
		amount:      cfg.MaxEffectiveBalance,
		depth:       cfg.DepositContractTreeDepth,
	}
	c, ok := cachedData[key]
	if !ok {
		c = &depositCache{}
		cachedData[key] = c
	}
	have := uint64(len(c.data))
	if n > have {
		data, roots, err := interop.DepositDataFromKeys(cfg, cachedKeys[have:n], cachedPubKeys[have:n])
		if err != nil {
			return nil, nil, errors.Wrap(err, "could not create deposit data")
		}
		c.data = append(c.data, data...)
		c.roots = append(c.roots, roots...)
	}
	return c.data, c.roots, nil
}
