// Package main defines pcli, a command line utility to run phase0 state transitions
// against beacon states and blocks stored on disk.
package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var log = logrus.WithField("prefix", "pcli")

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "pcli"
	app.Usage = "A command line utility to run phase0 beacon chain state transitions"
	app.Flags = appFlags
	app.Before = func(cliCtx *cli.Context) error {
		customFormatter := new(prefixed.TextFormatter)
		customFormatter.TimestampFormat = "2006-01-02 15:04:05"
		customFormatter.FullTimestamp = true
		logrus.SetFormatter(customFormatter)
		level, err := logrus.ParseLevel(cliCtx.String(VerbosityFlag.Name))
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	}
	app.Commands = []*cli.Command{
		genesisCmd,
		processSlotsCmd,
		stateTransitionCmd,
		prettyCmd,
	}
	return app
}

// chainConfig resolves the chain config selected by the global flags.
func chainConfig(cliCtx *cli.Context) (*params.BeaconChainConfig, error) {
	name := cliCtx.String(ConfigNameFlag.Name)
	cfg, ok := params.ByName(name)
	if !ok {
		return nil, errors.Errorf("unknown config name %q", name)
	}
	if path := cliCtx.String(ChainConfigFileFlag.Name); path != "" {
		var err error
		cfg, err = params.LoadChainConfigFile(path, cfg)
		if err != nil {
			return nil, err
		}
		log.WithField("path", path).Debug("Applied chain config file")
	}
	return cfg, nil
}
