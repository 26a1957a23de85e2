package main

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/transition"
	"github.com/prysmaticlabs/beacon-transition/runtime/interop"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var genesisCmd = &cli.Command{
	Name:   "genesis",
	Usage:  "Generate a deterministic genesis state from interop validator keys",
	Action: cliActionGenesis,
	Flags: []cli.Flag{
		NumValidatorsFlag,
		GenesisTimeFlag,
		OutputPathFlag,
	},
}

func cliActionGenesis(cliCtx *cli.Context) error {
	cfg, err := chainConfig(cliCtx)
	if err != nil {
		return err
	}
	genesisTime := cliCtx.Uint64(GenesisTimeFlag.Name)
	if genesisTime == 0 {
		genesisTime = cfg.MinGenesisTime
	}
	numValidators := cliCtx.Uint64(NumValidatorsFlag.Name)
	st, _, err := interop.GenerateGenesisState(cliCtx.Context, cfg, genesisTime, numValidators)
	if err != nil {
		return errors.Wrap(err, "could not generate genesis state")
	}
	root, err := st.HashTreeRoot(cliCtx.Context)
	if err != nil {
		return err
	}
	valid, err := transition.IsValidGenesisState(cliCtx.Context, st)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"validators":  st.NumValidators(),
		"genesisTime": st.GenesisTime(),
		"valid":       valid,
	}).Infof("Generated genesis state with root %#x", root)
	return writeState(cliCtx.String(OutputPathFlag.Name), st)
}
