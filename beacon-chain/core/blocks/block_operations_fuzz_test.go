package blocks_test

import (
	"context"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/core/blocks"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/beacon-transition/testing/util"
)

func TestFuzzProcessAttestationNoVerify_1000(t *testing.T) {
	fuzzer := fuzz.NewWithSeed(0)
	ctx := context.Background()
	beaconState, _ := util.DeterministicGenesisState(t, 16)
	att := &ethpb.Attestation{}

	for i := 0; i < 1000; i++ {
		fuzzer.Fuzz(att)
		_, err := blocks.ProcessAttestationNoVerifySignature(ctx, beaconState.Copy(), att)
		_ = err
	}
}

func TestFuzzProcessBlockHeader_1000(t *testing.T) {
	fuzzer := fuzz.NewWithSeed(0)
	ctx := context.Background()
	beaconState, _ := util.DeterministicGenesisState(t, 16)
	block := &ethpb.SignedBeaconBlock{}

	for i := 0; i < 1000; i++ {
		fuzzer.Fuzz(block)
		_, err := blocks.ProcessBlockHeader(ctx, beaconState.Copy(), block)
		_ = err
	}
}

func TestFuzzProcessProposerSlashings_1000(t *testing.T) {
	fuzzer := fuzz.NewWithSeed(0)
	ctx := context.Background()
	beaconState, _ := util.DeterministicGenesisState(t, 16)
	slashing := &ethpb.ProposerSlashing{}

	for i := 0; i < 1000; i++ {
		fuzzer.Fuzz(slashing)
		_, err := blocks.ProcessProposerSlashings(ctx, beaconState.Copy(), []*ethpb.ProposerSlashing{slashing})
		_ = err
	}
}

func TestFuzzProcessAttesterSlashings_1000(t *testing.T) {
	fuzzer := fuzz.NewWithSeed(0)
	ctx := context.Background()
	beaconState, _ := util.DeterministicGenesisState(t, 16)
	slashing := &ethpb.AttesterSlashing{}

	for i := 0; i < 1000; i++ {
		fuzzer.Fuzz(slashing)
		_, err := blocks.ProcessAttesterSlashings(ctx, beaconState.Copy(), []*ethpb.AttesterSlashing{slashing})
		_ = err
	}
}

func TestFuzzProcessDeposit_1000(t *testing.T) {
	fuzzer := fuzz.NewWithSeed(0)
	ctx := context.Background()
	beaconState, _ := util.DeterministicGenesisState(t, 16)
	deposit := &ethpb.Deposit{}

	for i := 0; i < 1000; i++ {
		fuzzer.Fuzz(deposit)
		_, _, err := blocks.ProcessDeposit(ctx, beaconState.Copy(), deposit, false)
		_ = err
	}
}

func TestFuzzProcessVoluntaryExits_1000(t *testing.T) {
	fuzzer := fuzz.NewWithSeed(0)
	ctx := context.Background()
	beaconState, _ := util.DeterministicGenesisState(t, 16)
	exit := &ethpb.SignedVoluntaryExit{}

	for i := 0; i < 1000; i++ {
		fuzzer.Fuzz(exit)
		_, err := blocks.ProcessVoluntaryExits(ctx, beaconState.Copy(), []*ethpb.SignedVoluntaryExit{exit})
		_ = err
	}
}
