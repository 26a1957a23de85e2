package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/transition"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/runtime/interop"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
	"github.com/prysmaticlabs/beacon-transition/testing/util"
	logTest "github.com/sirupsen/logrus/hooks/test"
)

func runApp(t *testing.T, args ...string) (string, error) {
	app := newApp()
	out := new(bytes.Buffer)
	app.Writer = out
	err := app.Run(append([]string{"pcli"}, args...))
	return out.String(), err
}

func TestGenesis_WritesLoadableState(t *testing.T) {
	hook := logTest.NewGlobal()
	cfg := params.MinimalSpecConfig()
	path := filepath.Join(t.TempDir(), "genesis.json")
	_, err := runApp(t, "genesis", "--num-validators", "64", "--output-path", path)
	require.NoError(t, err)
	require.LogsContain(t, hook, "Generated genesis state")

	st, err := readState(cfg, path)
	require.NoError(t, err)
	want, _, err := interop.GenerateGenesisState(context.Background(), cfg, cfg.MinGenesisTime, 64)
	require.NoError(t, err)
	wantRoot, err := want.HashTreeRoot(context.Background())
	require.NoError(t, err)
	gotRoot, err := st.HashTreeRoot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wantRoot, gotRoot)
	valid, err := transition.IsValidGenesisState(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, true, valid)
}

func TestProcessSlots_AdvancesAcrossEpoch(t *testing.T) {
	hook := logTest.NewGlobal()
	cfg := params.MinimalSpecConfig()
	dir := t.TempDir()
	pre := filepath.Join(dir, "pre.json")
	post := filepath.Join(dir, "post.json")
	_, err := runApp(t, "genesis", "--num-validators", "16", "--output-path", pre)
	require.NoError(t, err)

	target := uint64(cfg.SlotsPerEpoch) + 1
	_, err = runApp(t, "process-slots", "--pre-state-path", pre, "--slot", strconv.FormatUint(target, 10), "--output-path", post)
	require.NoError(t, err)
	require.LogsContain(t, hook, "Finished state transition")

	st, err := readState(cfg, post)
	require.NoError(t, err)
	assert.Equal(t, target, uint64(st.Slot()))
}

func TestStateTransition_ExpectedPostState(t *testing.T) {
	hook := logTest.NewGlobal()
	dir := t.TempDir()
	genesis, privs := util.DeterministicGenesisState(t, 64)
	blk, err := util.GenerateFullBlock(genesis, privs, util.DefaultBlockGenConfig(), genesis.Slot())
	require.NoError(t, err)

	pre := filepath.Join(dir, "pre.json")
	block := filepath.Join(dir, "block.json")
	post := filepath.Join(dir, "post.json")
	require.NoError(t, writeState(pre, genesis))
	require.NoError(t, writeData(block, blk))

	_, err = runApp(t, "state-transition", "--pre-state-path", pre, "--block-path", block, "--output-path", post)
	require.NoError(t, err)
	require.LogsContain(t, hook, "Performing state transition")

	_, err = runApp(t, "state-transition", "--pre-state-path", pre, "--block-path", block, "--expected-post-state-path", post)
	require.NoError(t, err)
	require.LogsContain(t, hook, "Derived state matches provided post state")

	tampered := &ethpb.BeaconState{}
	require.NoError(t, dataFetcher(post, tampered))
	tampered.Balances[0]++
	require.NoError(t, writeData(post, tampered))
	_, err = runApp(t, "state-transition", "--pre-state-path", pre, "--block-path", block, "--expected-post-state-path", post)
	assert.ErrorIs(t, err, errPostStateMismatch)
}

func TestStateTransition_NoVerifySignatures(t *testing.T) {
	dir := t.TempDir()
	genesis, privs := util.DeterministicGenesisState(t, 16)
	blk, err := util.GenerateFullBlock(genesis, privs, &util.BlockGenConfig{}, genesis.Slot())
	require.NoError(t, err)
	blk.Signature = make([]byte, len(blk.Signature))

	pre := filepath.Join(dir, "pre.json")
	block := filepath.Join(dir, "block.json")
	require.NoError(t, writeState(pre, genesis))
	require.NoError(t, writeData(block, blk))

	_, err = runApp(t, "state-transition", "--pre-state-path", pre, "--block-path", block)
	assert.ErrorContains(t, "signature", err)
	_, err = runApp(t, "state-transition", "--pre-state-path", pre, "--block-path", block, "--no-verify-signatures")
	require.NoError(t, err)
}

func TestPretty_PrintsRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eth1.json")
	data := &ethpb.Eth1Data{DepositRoot: make([]byte, 32), DepositCount: 3, BlockHash: make([]byte, 32)}
	require.NoError(t, writeData(path, data))
	root, err := data.HashTreeRoot()
	require.NoError(t, err)

	out, err := runApp(t, "pretty", "--path", path, "eth1_data")
	require.NoError(t, err)
	assert.Equal(t, true, strings.Contains(out, "DepositCount"), out)
	assert.Equal(t, true, strings.Contains(out, fmt.Sprintf("hash_tree_root: %#x", root)), out)
}

func TestChainConfig_UnknownName(t *testing.T) {
	_, err := runApp(t, "--config-name", "devnet", "genesis")
	assert.ErrorContains(t, "unknown config name", err)
}
