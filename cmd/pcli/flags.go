package main

import (
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/urfave/cli/v2"
)

var (
	// VerbosityFlag defines the logrus configuration.
	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity (trace, debug, info=default, warn, error, fatal, panic)",
		Value: "info",
	}
	// ConfigNameFlag selects one of the built in chain configurations.
	ConfigNameFlag = &cli.StringFlag{
		Name:  "config-name",
		Usage: "Built in chain configuration to start from (mainnet, minimal)",
		Value: params.ConfigNames[params.Minimal],
	}
	// ChainConfigFileFlag overrides config values from a yaml file.
	ChainConfigFileFlag = &cli.StringFlag{
		Name:  "chain-config-file",
		Usage: "Path to a yaml file with chain config values to apply on top of --config-name",
	}
	// PreStatePathFlag points at a JSON encoded beacon state.
	PreStatePathFlag = &cli.StringFlag{
		Name:     "pre-state-path",
		Usage:    "Path to pre state file (json)",
		Required: true,
	}
	// BlockPathFlag points at a JSON encoded signed beacon block.
	BlockPathFlag = &cli.StringFlag{
		Name:     "block-path",
		Usage:    "Path to signed block file (json)",
		Required: true,
	}
	// ExpectedPostStatePathFlag points at the state the transition should produce.
	ExpectedPostStatePathFlag = &cli.StringFlag{
		Name:  "expected-post-state-path",
		Usage: "Path to expected post state file (json). The derived state is diffed against it",
	}
	// OutputPathFlag is where the resulting state is written.
	OutputPathFlag = &cli.StringFlag{
		Name:  "output-path",
		Usage: "Path to write the resulting state to (json)",
	}
	// SlotFlag is the slot to advance a state to.
	SlotFlag = &cli.Uint64Flag{
		Name:     "slot",
		Usage:    "Slot to advance the pre state to",
		Required: true,
	}
	// NumValidatorsFlag is the size of a deterministic genesis registry.
	NumValidatorsFlag = &cli.Uint64Flag{
		Name:  "num-validators",
		Usage: "Number of deterministic interop validators in the genesis state",
		Value: 64,
	}
	// GenesisTimeFlag is the genesis time of a deterministic genesis state.
	GenesisTimeFlag = &cli.Uint64Flag{
		Name:  "genesis-time",
		Usage: "Unix timestamp of the genesis state. 0 uses MIN_GENESIS_TIME of the chain config",
	}
	// NoVerifySignaturesFlag skips block signature verification.
	NoVerifySignaturesFlag = &cli.BoolFlag{
		Name:  "no-verify-signatures",
		Usage: "Skip proposer, randao, attestation and exit signature checks",
	}
	// SSZPathFlag points at the JSON encoded object to pretty print.
	SSZPathFlag = &cli.StringFlag{
		Name:     "path",
		Usage:    "Path to file (json)",
		Required: true,
	}
)

var appFlags = []cli.Flag{
	VerbosityFlag,
	ConfigNameFlag,
	ChainConfigFileFlag,
}
