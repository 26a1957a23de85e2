package main

import (
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	statenative "github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// dataFetcher fetches and unmarshals data from file to provided data structure.
func dataFetcher(fPath string, data interface{}) error {
	rawFile, err := os.ReadFile(fPath) // #nosec G304
	if err != nil {
		return err
	}
	return json.Unmarshal(rawFile, data)
}

func writeData(fPath string, data interface{}) error {
	enc, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(fPath, enc, 0600)
}

func readState(cfg *params.BeaconChainConfig, fPath string) (state.BeaconState, error) {
	pb := &ethpb.BeaconState{}
	if err := dataFetcher(fPath, pb); err != nil {
		return nil, errors.Wrapf(err, "could not read state from %s", fPath)
	}
	st, err := statenative.InitializeFromProtoUnsafePhase0(cfg, pb)
	if err != nil {
		return nil, errors.Wrapf(err, "could not initialize state from %s", fPath)
	}
	return st, nil
}

func writeState(fPath string, st state.ReadOnlyBeaconState) error {
	if fPath == "" {
		return nil
	}
	if err := writeData(fPath, st.ToProto()); err != nil {
		return errors.Wrapf(err, "could not write state to %s", fPath)
	}
	log.WithField("path", fPath).Info("Wrote state")
	return nil
}
