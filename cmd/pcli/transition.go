package main

import (
	"github.com/d4l3k/messagediff"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/transition"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var errPostStateMismatch = errors.New("derived state differs from provided post state")

var processSlotsCmd = &cli.Command{
	Name:   "process-slots",
	Usage:  "Advance a state through empty slots, running epoch processing at each boundary",
	Action: cliActionProcessSlots,
	Flags: []cli.Flag{
		PreStatePathFlag,
		SlotFlag,
		OutputPathFlag,
	},
}

var stateTransitionCmd = &cli.Command{
	Name:     "state-transition",
	Category: "state-transition",
	Usage:    "Subcommand to run manual state transitions",
	Action:   cliActionStateTransition,
	Flags: []cli.Flag{
		BlockPathFlag,
		PreStatePathFlag,
		ExpectedPostStatePathFlag,
		OutputPathFlag,
		NoVerifySignaturesFlag,
	},
}

func cliActionProcessSlots(cliCtx *cli.Context) error {
	cfg, err := chainConfig(cliCtx)
	if err != nil {
		return err
	}
	preState, err := readState(cfg, cliCtx.String(PreStatePathFlag.Name))
	if err != nil {
		return err
	}
	postState, err := transition.ProcessSlots(cliCtx.Context, preState, types.Slot(cliCtx.Uint64(SlotFlag.Name)))
	if err != nil {
		return err
	}
	if err := logPostState(cliCtx, postState); err != nil {
		return err
	}
	return writeState(cliCtx.String(OutputPathFlag.Name), postState)
}

func cliActionStateTransition(cliCtx *cli.Context) error {
	cfg, err := chainConfig(cliCtx)
	if err != nil {
		return err
	}
	blockPath := cliCtx.String(BlockPathFlag.Name)
	block := &ethpb.SignedBeaconBlock{}
	if err := dataFetcher(blockPath, block); err != nil {
		return errors.Wrapf(err, "could not read block from %s", blockPath)
	}
	if block.Block == nil {
		return errors.Errorf("no block found in %s", blockPath)
	}
	blkRoot, err := block.Block.HashTreeRoot()
	if err != nil {
		return err
	}
	preState, err := readState(cfg, cliCtx.String(PreStatePathFlag.Name))
	if err != nil {
		return err
	}
	preStateRoot, err := preState.HashTreeRoot(cliCtx.Context)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"blockSlot":    block.Block.Slot,
		"preStateSlot": preState.Slot(),
	}).Infof(
		"Performing state transition with a block root of %#x and pre state root of %#x",
		blkRoot,
		preStateRoot,
	)

	var postState state.BeaconState
	if cliCtx.Bool(NoVerifySignaturesFlag.Name) {
		_, postState, err = transition.ExecuteStateTransitionNoVerifyAnySig(cliCtx.Context, preState, block)
	} else {
		postState, err = transition.ExecuteStateTransition(cliCtx.Context, preState, block)
	}
	if err != nil {
		return err
	}
	if err := logPostState(cliCtx, postState); err != nil {
		return err
	}
	if err := writeState(cliCtx.String(OutputPathFlag.Name), postState); err != nil {
		return err
	}

	// Diff the state if a post state is provided.
	if expectedPath := cliCtx.String(ExpectedPostStatePathFlag.Name); expectedPath != "" {
		expectedState := &ethpb.BeaconState{}
		if err := dataFetcher(expectedPath, expectedState); err != nil {
			return errors.Wrapf(err, "could not read expected post state from %s", expectedPath)
		}
		diff, equal := messagediff.PrettyDiff(expectedState, postState.ToProto())
		if !equal {
			log.Errorf("Derived state differs from provided post state: %s", diff)
			return errPostStateMismatch
		}
		log.Info("Derived state matches provided post state")
	}
	return nil
}

func logPostState(cliCtx *cli.Context, st state.BeaconState) error {
	root, err := st.HashTreeRoot(cliCtx.Context)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"slot":           st.Slot(),
		"epoch":          helpers.CurrentEpoch(st),
		"justifiedEpoch": st.CurrentJustifiedCheckpoint().Epoch,
		"finalizedEpoch": st.FinalizedCheckpointEpoch(),
		"validators":     st.NumValidators(),
	}).Infof("Finished state transition with post state root of %#x", root)
	return nil
}
