package eth

import (
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
)

// CopyFork copies the provided fork.
func CopyFork(f *Fork) *Fork {
	if f == nil {
		return nil
	}
	return &Fork{
		PreviousVersion: bytesutil.SafeCopyBytes(f.PreviousVersion),
		CurrentVersion:  bytesutil.SafeCopyBytes(f.CurrentVersion),
		Epoch:           f.Epoch,
	}
}

// CopyCheckpoint copies the provided checkpoint.
func CopyCheckpoint(cp *Checkpoint) *Checkpoint {
	if cp == nil {
		return nil
	}
	return &Checkpoint{
		Epoch: cp.Epoch,
		Root:  bytesutil.SafeCopyBytes(cp.Root),
	}
}

// CopyValidator copies the provided validator.
func CopyValidator(val *Validator) *Validator {
	if val == nil {
		return nil
	}
	return &Validator{
		PublicKey:                  bytesutil.SafeCopyBytes(val.PublicKey),
		WithdrawalCredentials:      bytesutil.SafeCopyBytes(val.WithdrawalCredentials),
		EffectiveBalance:           val.EffectiveBalance,
		Slashed:                    val.Slashed,
		ActivationEligibilityEpoch: val.ActivationEligibilityEpoch,
		ActivationEpoch:            val.ActivationEpoch,
		ExitEpoch:                  val.ExitEpoch,
		WithdrawableEpoch:          val.WithdrawableEpoch,
	}
}

// CopyBeaconBlockHeader copies the provided header.
func CopyBeaconBlockHeader(h *BeaconBlockHeader) *BeaconBlockHeader {
	if h == nil {
		return nil
	}
	return &BeaconBlockHeader{
		Slot:          h.Slot,
		ProposerIndex: h.ProposerIndex,
		ParentRoot:    bytesutil.SafeCopyBytes(h.ParentRoot),
		StateRoot:     bytesutil.SafeCopyBytes(h.StateRoot),
		BodyRoot:      bytesutil.SafeCopyBytes(h.BodyRoot),
	}
}

// CopySignedBeaconBlockHeader copies the provided signed header.
func CopySignedBeaconBlockHeader(h *SignedBeaconBlockHeader) *SignedBeaconBlockHeader {
	if h == nil {
		return nil
	}
	return &SignedBeaconBlockHeader{
		Header:    CopyBeaconBlockHeader(h.Header),
		Signature: bytesutil.SafeCopyBytes(h.Signature),
	}
}

// CopyETH1Data copies the provided eth1data object.
func CopyETH1Data(data *Eth1Data) *Eth1Data {
	if data == nil {
		return nil
	}
	return &Eth1Data{
		DepositRoot:  bytesutil.SafeCopyBytes(data.DepositRoot),
		DepositCount: data.DepositCount,
		BlockHash:    bytesutil.SafeCopyBytes(data.BlockHash),
	}
}

// CopyAttestationData copies the provided AttestationData object.
func CopyAttestationData(attData *AttestationData) *AttestationData {
	if attData == nil {
		return nil
	}
	return &AttestationData{
		Slot:            attData.Slot,
		CommitteeIndex:  attData.CommitteeIndex,
		BeaconBlockRoot: bytesutil.SafeCopyBytes(attData.BeaconBlockRoot),
		Source:          CopyCheckpoint(attData.Source),
		Target:          CopyCheckpoint(attData.Target),
	}
}

// CopyAttestation copies the provided attestation object.
func CopyAttestation(att *Attestation) *Attestation {
	if att == nil {
		return nil
	}
	return &Attestation{
		AggregationBits: bytesutil.SafeCopyBytes(att.AggregationBits),
		Data:            CopyAttestationData(att.Data),
		Signature:       bytesutil.SafeCopyBytes(att.Signature),
	}
}

// CopyPendingAttestation copies the provided pending attestation object.
func CopyPendingAttestation(att *PendingAttestation) *PendingAttestation {
	if att == nil {
		return nil
	}
	return &PendingAttestation{
		AggregationBits: bytesutil.SafeCopyBytes(att.AggregationBits),
		Data:            CopyAttestationData(att.Data),
		InclusionDelay:  att.InclusionDelay,
		ProposerIndex:   att.ProposerIndex,
	}
}

// CopyPendingAttestationSlice copies the provided slice of pending attestation objects.
func CopyPendingAttestationSlice(input []*PendingAttestation) []*PendingAttestation {
	if input == nil {
		return nil
	}
	res := make([]*PendingAttestation, len(input))
	for i := 0; i < len(res); i++ {
		res[i] = CopyPendingAttestation(input[i])
	}
	return res
}

// CopyIndexedAttestation copies the provided indexed attestation.
func CopyIndexedAttestation(indexedAtt *IndexedAttestation) *IndexedAttestation {
	var indices []uint64
	if indexedAtt == nil {
		return nil
	} else if indexedAtt.AttestingIndices != nil {
		indices = make([]uint64, len(indexedAtt.AttestingIndices))
		copy(indices, indexedAtt.AttestingIndices)
	}
	return &IndexedAttestation{
		AttestingIndices: indices,
		Data:             CopyAttestationData(indexedAtt.Data),
		Signature:        bytesutil.SafeCopyBytes(indexedAtt.Signature),
	}
}

// CopyProposerSlashing copies the provided proposer slashing.
func CopyProposerSlashing(slashing *ProposerSlashing) *ProposerSlashing {
	if slashing == nil {
		return nil
	}
	return &ProposerSlashing{
		Header_1: CopySignedBeaconBlockHeader(slashing.Header_1),
		Header_2: CopySignedBeaconBlockHeader(slashing.Header_2),
	}
}

// CopyAttesterSlashing copies the provided attester slashing.
func CopyAttesterSlashing(slashing *AttesterSlashing) *AttesterSlashing {
	if slashing == nil {
		return nil
	}
	return &AttesterSlashing{
		Attestation_1: CopyIndexedAttestation(slashing.Attestation_1),
		Attestation_2: CopyIndexedAttestation(slashing.Attestation_2),
	}
}

// CopyDepositData copies the provided deposit data.
func CopyDepositData(depData *DepositData) *DepositData {
	if depData == nil {
		return nil
	}
	return &DepositData{
		PublicKey:             bytesutil.SafeCopyBytes(depData.PublicKey),
		WithdrawalCredentials: bytesutil.SafeCopyBytes(depData.WithdrawalCredentials),
		Amount:                depData.Amount,
		Signature:             bytesutil.SafeCopyBytes(depData.Signature),
	}
}

// CopyDeposit copies the provided deposit.
func CopyDeposit(deposit *Deposit) *Deposit {
	if deposit == nil {
		return nil
	}
	return &Deposit{
		Proof: bytesutil.SafeCopy2dBytes(deposit.Proof),
		Data:  CopyDepositData(deposit.Data),
	}
}

// CopySignedVoluntaryExit copies the provided SignedVoluntaryExit.
func CopySignedVoluntaryExit(exit *SignedVoluntaryExit) *SignedVoluntaryExit {
	if exit == nil {
		return nil
	}
	var e *VoluntaryExit
	if exit.Exit != nil {
		e = &VoluntaryExit{
			Epoch:          exit.Exit.Epoch,
			ValidatorIndex: exit.Exit.ValidatorIndex,
		}
	}
	return &SignedVoluntaryExit{
		Exit:      e,
		Signature: bytesutil.SafeCopyBytes(exit.Signature),
	}
}

// CopyBeaconBlockBody copies the provided block body.
func CopyBeaconBlockBody(body *BeaconBlockBody) *BeaconBlockBody {
	if body == nil {
		return nil
	}
	res := &BeaconBlockBody{
		RandaoReveal: bytesutil.SafeCopyBytes(body.RandaoReveal),
		Eth1Data:     CopyETH1Data(body.Eth1Data),
		Graffiti:     bytesutil.SafeCopyBytes(body.Graffiti),
	}
	if body.ProposerSlashings != nil {
		res.ProposerSlashings = make([]*ProposerSlashing, len(body.ProposerSlashings))
		for i, s := range body.ProposerSlashings {
			res.ProposerSlashings[i] = CopyProposerSlashing(s)
		}
	}
	if body.AttesterSlashings != nil {
		res.AttesterSlashings = make([]*AttesterSlashing, len(body.AttesterSlashings))
		for i, s := range body.AttesterSlashings {
			res.AttesterSlashings[i] = CopyAttesterSlashing(s)
		}
	}
	if body.Attestations != nil {
		res.Attestations = make([]*Attestation, len(body.Attestations))
		for i, a := range body.Attestations {
			res.Attestations[i] = CopyAttestation(a)
		}
	}
	if body.Deposits != nil {
		res.Deposits = make([]*Deposit, len(body.Deposits))
		for i, d := range body.Deposits {
			res.Deposits[i] = CopyDeposit(d)
		}
	}
	if body.VoluntaryExits != nil {
		res.VoluntaryExits = make([]*SignedVoluntaryExit, len(body.VoluntaryExits))
		for i, e := range body.VoluntaryExits {
			res.VoluntaryExits[i] = CopySignedVoluntaryExit(e)
		}
	}
	return res
}

// CopyBeaconBlock copies the provided block.
func CopyBeaconBlock(block *BeaconBlock) *BeaconBlock {
	if block == nil {
		return nil
	}
	return &BeaconBlock{
		Slot:          block.Slot,
		ProposerIndex: block.ProposerIndex,
		ParentRoot:    bytesutil.SafeCopyBytes(block.ParentRoot),
		StateRoot:     bytesutil.SafeCopyBytes(block.StateRoot),
		Body:          CopyBeaconBlockBody(block.Body),
	}
}

// CopySignedBeaconBlock copies the provided signed block.
func CopySignedBeaconBlock(sigBlock *SignedBeaconBlock) *SignedBeaconBlock {
	if sigBlock == nil {
		return nil
	}
	return &SignedBeaconBlock{
		Block:     CopyBeaconBlock(sigBlock.Block),
		Signature: bytesutil.SafeCopyBytes(sigBlock.Signature),
	}
}

// CopyBeaconState returns a deep copy of the provided flat state.
func CopyBeaconState(st *BeaconState) *BeaconState {
	if st == nil {
		return nil
	}
	res := &BeaconState{
		GenesisTime:                 st.GenesisTime,
		GenesisValidatorsRoot:       bytesutil.SafeCopyBytes(st.GenesisValidatorsRoot),
		Slot:                        st.Slot,
		Fork:                        CopyFork(st.Fork),
		LatestBlockHeader:           CopyBeaconBlockHeader(st.LatestBlockHeader),
		BlockRoots:                  bytesutil.SafeCopy2dBytes(st.BlockRoots),
		StateRoots:                  bytesutil.SafeCopy2dBytes(st.StateRoots),
		HistoricalRoots:             bytesutil.SafeCopy2dBytes(st.HistoricalRoots),
		Eth1Data:                    CopyETH1Data(st.Eth1Data),
		Eth1DepositIndex:            st.Eth1DepositIndex,
		RandaoMixes:                 bytesutil.SafeCopy2dBytes(st.RandaoMixes),
		PreviousEpochAttestations:   CopyPendingAttestationSlice(st.PreviousEpochAttestations),
		CurrentEpochAttestations:    CopyPendingAttestationSlice(st.CurrentEpochAttestations),
		JustificationBits:           bytesutil.SafeCopyBytes(st.JustificationBits),
		PreviousJustifiedCheckpoint: CopyCheckpoint(st.PreviousJustifiedCheckpoint),
		CurrentJustifiedCheckpoint:  CopyCheckpoint(st.CurrentJustifiedCheckpoint),
		FinalizedCheckpoint:         CopyCheckpoint(st.FinalizedCheckpoint),
	}
	if st.Eth1DataVotes != nil {
		res.Eth1DataVotes = make([]*Eth1Data, len(st.Eth1DataVotes))
		for i, v := range st.Eth1DataVotes {
			res.Eth1DataVotes[i] = CopyETH1Data(v)
		}
	}
	if st.Validators != nil {
		res.Validators = make([]*Validator, len(st.Validators))
		for i, v := range st.Validators {
			res.Validators[i] = CopyValidator(v)
		}
	}
	if st.Balances != nil {
		res.Balances = make([]uint64, len(st.Balances))
		copy(res.Balances, st.Balances)
	}
	if st.Slashings != nil {
		res.Slashings = make([]uint64, len(st.Slashings))
		copy(res.Slashings, st.Slashings)
	}
	return res
}
