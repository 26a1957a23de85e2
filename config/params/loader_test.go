package params_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prysmaticlabs/beacon-transition/config/params"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/testing/assert"
	"github.com/prysmaticlabs/beacon-transition/testing/require"
)

func TestMainnetAndMinimal_PhaseZeroValues(t *testing.T) {
	mainnet := params.MainnetConfig()
	assert.Equal(t, types.Slot(32), mainnet.SlotsPerEpoch)
	assert.Equal(t, uint64(128), mainnet.MinSlashingPenaltyQuotient)
	assert.Equal(t, uint64(4), mainnet.HysteresisQuotient)
	assert.Equal(t, uint64(1), mainnet.HysteresisDownwardMultiplier)
	assert.Equal(t, uint64(5), mainnet.HysteresisUpwardMultiplier)

	minimal := params.MinimalSpecConfig()
	assert.Equal(t, types.Slot(8), minimal.SlotsPerEpoch)
	assert.Equal(t, types.Slot(64), minimal.SlotsPerHistoricalRoot)
	assert.Equal(t, uint64(64), minimal.MinSlashingPenaltyQuotient)
	assert.Equal(t, "minimal", minimal.ConfigName)
}

func TestConfig_CopyDoesNotAlias(t *testing.T) {
	cfg := params.MainnetConfig()
	cpy := cfg.Copy()
	cpy.GenesisForkVersion[0] = 0xff
	cpy.SlotsPerEpoch = 4
	assert.Equal(t, byte(0), cfg.GenesisForkVersion[0])
	assert.Equal(t, types.Slot(32), cfg.SlotsPerEpoch)
	assert.Equal(t, byte(0), params.MainnetConfig().GenesisForkVersion[0])
}

func TestUnmarshalConfig_Overrides(t *testing.T) {
	input := []byte(`# Custom test network
CONFIG_NAME: "testnet"
SLOTS_PER_EPOCH: 16
DOMAIN_RANDAO: 0x02000000
GENESIS_FORK_VERSION: 0x00000042
BLS_WITHDRAWAL_PREFIX: 0x00
MIN_SLASHING_PENALTY_QUOTIENT: 32`)
	base := params.MainnetConfig()
	cfg, err := params.UnmarshalConfig(input, base)
	require.NoError(t, err)
	assert.Equal(t, "testnet", cfg.ConfigName)
	assert.Equal(t, types.Slot(16), cfg.SlotsPerEpoch)
	assert.Equal(t, types.Slot(4), cfg.SqrRootSlotsPerEpoch)
	assert.Equal(t, [4]byte{2, 0, 0, 0}, cfg.DomainRandao)
	assert.DeepEqual(t, []byte{0, 0, 0, 0x42}, cfg.GenesisForkVersion)
	assert.Equal(t, uint64(32), cfg.MinSlashingPenaltyQuotient)
	// The base config must not be modified.
	assert.Equal(t, types.Slot(32), base.SlotsPerEpoch)
}

func TestUnmarshalConfig_MinimalPresetSelectsBase(t *testing.T) {
	cfg, err := params.UnmarshalConfig([]byte("PRESET_BASE: 'minimal'\nSECONDS_PER_SLOT: 3"), nil)
	require.NoError(t, err)
	assert.Equal(t, types.Slot(8), cfg.SlotsPerEpoch)
	assert.Equal(t, uint64(3), cfg.SecondsPerSlot)
	assert.Equal(t, "devnet", cfg.ConfigName)
}

func TestLoadChainConfigFile_RoundTrip(t *testing.T) {
	minimal := params.MinimalSpecConfig()
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, params.ConfigToYaml(minimal), 0600))

	loaded, err := params.LoadChainConfigFile(file, params.MainnetConfig())
	require.NoError(t, err)
	assert.DeepEqual(t, minimal, loaded)
}

func TestReplaceHexStringWithYAMLFormat(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{line: "BLS_WITHDRAWAL_PREFIX: 0x00", want: "BLS_WITHDRAWAL_PREFIX: 0"},
		{line: "DOMAIN_DEPOSIT: 0x03000000", want: "DOMAIN_DEPOSIT: [3, 0, 0, 0]"},
		{line: "GENESIS_FORK_VERSION: '0x0000000a' # comment", want: "GENESIS_FORK_VERSION: [0, 0, 0, 10]"},
	}
	for _, tt := range tests {
		got, err := params.ReplaceHexStringWithYAMLFormat(tt.line)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	_, err := params.ReplaceHexStringWithYAMLFormat("DOMAIN_DEPOSIT: 0xzz")
	require.ErrorContains(t, "failed to decode hex string", err)
}
