package main

import (
	"fmt"

	"github.com/kr/pretty"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/urfave/cli/v2"
)

type hashable interface {
	HashTreeRoot() ([32]byte, error)
}

var prettyTypes = []struct {
	name  string
	usage string
	new   func() hashable
}{
	{"attestation", "Pretty print an Attestation", func() hashable { return &ethpb.Attestation{} }},
	{"attestation_data", "Pretty print an AttestationData", func() hashable { return &ethpb.AttestationData{} }},
	{"attester_slashing", "Pretty print an AttesterSlashing", func() hashable { return &ethpb.AttesterSlashing{} }},
	{"proposer_slashing", "Pretty print a ProposerSlashing", func() hashable { return &ethpb.ProposerSlashing{} }},
	{"signed_block", "Pretty print a SignedBeaconBlock", func() hashable { return &ethpb.SignedBeaconBlock{} }},
	{"block", "Pretty print a BeaconBlock", func() hashable { return &ethpb.BeaconBlock{} }},
	{"block_body", "Pretty print a BeaconBlockBody", func() hashable { return &ethpb.BeaconBlockBody{} }},
	{"block_header", "Pretty print a BeaconBlockHeader", func() hashable { return &ethpb.BeaconBlockHeader{} }},
	{"deposit", "Pretty print a Deposit", func() hashable { return &ethpb.Deposit{} }},
	{"deposit_data", "Pretty print a DepositData", func() hashable { return &ethpb.DepositData{} }},
	{"eth1_data", "Pretty print an Eth1Data", func() hashable { return &ethpb.Eth1Data{} }},
	{"signed_voluntary_exit", "Pretty print a SignedVoluntaryExit", func() hashable { return &ethpb.SignedVoluntaryExit{} }},
}

var prettyCmd = &cli.Command{
	Name:        "pretty",
	Aliases:     []string{"p"},
	Usage:       "pretty-print a json encoded consensus object along with its hash tree root",
	Flags:       []cli.Flag{SSZPathFlag},
	Subcommands: prettySubcommands(),
}

func prettySubcommands() []*cli.Command {
	cmds := make([]*cli.Command, 0, len(prettyTypes))
	for _, pt := range prettyTypes {
		newObj := pt.new
		cmds = append(cmds, &cli.Command{
			Name:  pt.name,
			Usage: pt.usage,
			Action: func(cliCtx *cli.Context) error {
				return prettyPrint(cliCtx, cliCtx.String(SSZPathFlag.Name), newObj())
			},
		})
	}
	cmds = append(cmds, &cli.Command{
		Name:  "state",
		Usage: "Pretty print a BeaconState",
		Action: func(cliCtx *cli.Context) error {
			cfg, err := chainConfig(cliCtx)
			if err != nil {
				return err
			}
			st, err := readState(cfg, cliCtx.String(SSZPathFlag.Name))
			if err != nil {
				return err
			}
			root, err := st.HashTreeRoot(cliCtx.Context)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cliCtx.App.Writer, "%s\nhash_tree_root: %#x\n", pretty.Sprint(st.ToProto()), root)
			return err
		},
	})
	return cmds
}

func prettyPrint(cliCtx *cli.Context, path string, data hashable) error {
	if err := dataFetcher(path, data); err != nil {
		return err
	}
	root, err := data.HashTreeRoot()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cliCtx.App.Writer, "%s\nhash_tree_root: %#x\n", pretty.Sprint(data), root)
	return err
}
