package eth

import (
	"errors"

	fssz "github.com/ferranbt/fastssz"
	"github.com/prysmaticlabs/beacon-transition/encoding/ssz"
)

// List limits and vector lengths fixed by the phase0 preset.
const (
	MaxProposerSlashings      = 16
	MaxAttesterSlashings      = 2
	MaxAttestations           = 128
	MaxDeposits               = 16
	MaxVoluntaryExits         = 16
	MaxValidatorsPerCommittee = 2048
	DepositProofLength        = 33
)

var errVectorLength = errors.New("incorrect vector length")

// putFixedBytes writes a fixed size byte vector. An empty value is hashed as the zero vector.
func putFixedBytes(hh *fssz.Hasher, b []byte, size int) error {
	if len(b) == 0 {
		hh.PutBytes(make([]byte, size))
		return nil
	}
	if len(b) != size {
		return fssz.ErrBytesLength
	}
	hh.PutBytes(b)
	return nil
}

// HashTreeRoot ssz hashes the Fork object
func (f *Fork) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(f)
}

// HashTreeRootWith ssz hashes the Fork object with a hasher
func (f *Fork) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	if err := putFixedBytes(hh, f.PreviousVersion, 4); err != nil {
		return err
	}
	if err := putFixedBytes(hh, f.CurrentVersion, 4); err != nil {
		return err
	}
	hh.PutUint64(uint64(f.Epoch))
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the ForkData object
func (f *ForkData) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(f)
}

// HashTreeRootWith ssz hashes the ForkData object with a hasher
func (f *ForkData) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	if err := putFixedBytes(hh, f.CurrentVersion, 4); err != nil {
		return err
	}
	if err := putFixedBytes(hh, f.GenesisValidatorsRoot, 32); err != nil {
		return err
	}
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the Checkpoint object
func (c *Checkpoint) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(c)
}

// HashTreeRootWith ssz hashes the Checkpoint object with a hasher
func (c *Checkpoint) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	hh.PutUint64(uint64(c.Epoch))
	if err := putFixedBytes(hh, c.Root, 32); err != nil {
		return err
	}
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the Validator object
func (v *Validator) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(v)
}

// HashTreeRootWith ssz hashes the Validator object with a hasher
func (v *Validator) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	if err := putFixedBytes(hh, v.PublicKey, 48); err != nil {
		return err
	}
	if err := putFixedBytes(hh, v.WithdrawalCredentials, 32); err != nil {
		return err
	}
	hh.PutUint64(v.EffectiveBalance)
	hh.PutBool(v.Slashed)
	hh.PutUint64(uint64(v.ActivationEligibilityEpoch))
	hh.PutUint64(uint64(v.ActivationEpoch))
	hh.PutUint64(uint64(v.ExitEpoch))
	hh.PutUint64(uint64(v.WithdrawableEpoch))
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the BeaconBlockHeader object
func (h *BeaconBlockHeader) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(h)
}

// HashTreeRootWith ssz hashes the BeaconBlockHeader object with a hasher
func (h *BeaconBlockHeader) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	hh.PutUint64(uint64(h.Slot))
	hh.PutUint64(uint64(h.ProposerIndex))
	if err := putFixedBytes(hh, h.ParentRoot, 32); err != nil {
		return err
	}
	if err := putFixedBytes(hh, h.StateRoot, 32); err != nil {
		return err
	}
	if err := putFixedBytes(hh, h.BodyRoot, 32); err != nil {
		return err
	}
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the SignedBeaconBlockHeader object
func (s *SignedBeaconBlockHeader) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(s)
}

// HashTreeRootWith ssz hashes the SignedBeaconBlockHeader object with a hasher
func (s *SignedBeaconBlockHeader) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	header := s.Header
	if header == nil {
		header = new(BeaconBlockHeader)
	}
	if err := header.HashTreeRootWith(hh); err != nil {
		return err
	}
	if err := putFixedBytes(hh, s.Signature, 96); err != nil {
		return err
	}
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the Eth1Data object
func (e *Eth1Data) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(e)
}

// HashTreeRootWith ssz hashes the Eth1Data object with a hasher
func (e *Eth1Data) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	if err := putFixedBytes(hh, e.DepositRoot, 32); err != nil {
		return err
	}
	hh.PutUint64(e.DepositCount)
	if err := putFixedBytes(hh, e.BlockHash, 32); err != nil {
		return err
	}
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the AttestationData object
func (a *AttestationData) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(a)
}

// HashTreeRootWith ssz hashes the AttestationData object with a hasher
func (a *AttestationData) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	hh.PutUint64(uint64(a.Slot))
	hh.PutUint64(uint64(a.CommitteeIndex))
	if err := putFixedBytes(hh, a.BeaconBlockRoot, 32); err != nil {
		return err
	}
	for _, cp := range []*Checkpoint{a.Source, a.Target} {
		if cp == nil {
			cp = new(Checkpoint)
		}
		if err := cp.HashTreeRootWith(hh); err != nil {
			return err
		}
	}
	hh.Merkleize(indx)
	return nil
}

func putAttestationData(hh *fssz.Hasher, data *AttestationData) error {
	if data == nil {
		data = new(AttestationData)
	}
	return data.HashTreeRootWith(hh)
}

// HashTreeRoot ssz hashes the Attestation object
func (a *Attestation) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(a)
}

// HashTreeRootWith ssz hashes the Attestation object with a hasher
func (a *Attestation) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	bitsRoot, err := ssz.BitlistRoot(a.AggregationBits, MaxValidatorsPerCommittee)
	if err != nil {
		return err
	}
	hh.PutBytes(bitsRoot[:])
	if err := putAttestationData(hh, a.Data); err != nil {
		return err
	}
	if err := putFixedBytes(hh, a.Signature, 96); err != nil {
		return err
	}
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the PendingAttestation object
func (p *PendingAttestation) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(p)
}

// HashTreeRootWith ssz hashes the PendingAttestation object with a hasher
func (p *PendingAttestation) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	bitsRoot, err := ssz.BitlistRoot(p.AggregationBits, MaxValidatorsPerCommittee)
	if err != nil {
		return err
	}
	hh.PutBytes(bitsRoot[:])
	if err := putAttestationData(hh, p.Data); err != nil {
		return err
	}
	hh.PutUint64(uint64(p.InclusionDelay))
	hh.PutUint64(uint64(p.ProposerIndex))
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the IndexedAttestation object
func (i *IndexedAttestation) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(i)
}

// HashTreeRootWith ssz hashes the IndexedAttestation object with a hasher
func (i *IndexedAttestation) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	indicesRoot, err := ssz.Uint64ListRootWithLimit(i.AttestingIndices, MaxValidatorsPerCommittee)
	if err != nil {
		return fssz.ErrIncorrectListSize
	}
	hh.PutBytes(indicesRoot[:])
	if err := putAttestationData(hh, i.Data); err != nil {
		return err
	}
	if err := putFixedBytes(hh, i.Signature, 96); err != nil {
		return err
	}
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the ProposerSlashing object
func (p *ProposerSlashing) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(p)
}

// HashTreeRootWith ssz hashes the ProposerSlashing object with a hasher
func (p *ProposerSlashing) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	for _, h := range []*SignedBeaconBlockHeader{p.Header_1, p.Header_2} {
		if h == nil {
			h = new(SignedBeaconBlockHeader)
		}
		if err := h.HashTreeRootWith(hh); err != nil {
			return err
		}
	}
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the AttesterSlashing object
func (a *AttesterSlashing) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(a)
}

// HashTreeRootWith ssz hashes the AttesterSlashing object with a hasher
func (a *AttesterSlashing) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	for _, att := range []*IndexedAttestation{a.Attestation_1, a.Attestation_2} {
		if att == nil {
			att = new(IndexedAttestation)
		}
		if err := att.HashTreeRootWith(hh); err != nil {
			return err
		}
	}
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the DepositData object
func (d *DepositData) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(d)
}

// HashTreeRootWith ssz hashes the DepositData object with a hasher
func (d *DepositData) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	if err := putFixedBytes(hh, d.PublicKey, 48); err != nil {
		return err
	}
	if err := putFixedBytes(hh, d.WithdrawalCredentials, 32); err != nil {
		return err
	}
	hh.PutUint64(d.Amount)
	if err := putFixedBytes(hh, d.Signature, 96); err != nil {
		return err
	}
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the DepositMessage object
func (d *DepositMessage) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(d)
}

// HashTreeRootWith ssz hashes the DepositMessage object with a hasher
func (d *DepositMessage) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	if err := putFixedBytes(hh, d.PublicKey, 48); err != nil {
		return err
	}
	if err := putFixedBytes(hh, d.WithdrawalCredentials, 32); err != nil {
		return err
	}
	hh.PutUint64(d.Amount)
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the Deposit object
func (d *Deposit) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(d)
}

// HashTreeRootWith ssz hashes the Deposit object with a hasher
func (d *Deposit) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	if len(d.Proof) != DepositProofLength {
		return errVectorLength
	}
	subIndx := hh.Index()
	for _, p := range d.Proof {
		if err := putFixedBytes(hh, p, 32); err != nil {
			return err
		}
	}
	hh.Merkleize(subIndx)
	data := d.Data
	if data == nil {
		data = new(DepositData)
	}
	if err := data.HashTreeRootWith(hh); err != nil {
		return err
	}
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the VoluntaryExit object
func (v *VoluntaryExit) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(v)
}

// HashTreeRootWith ssz hashes the VoluntaryExit object with a hasher
func (v *VoluntaryExit) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	hh.PutUint64(uint64(v.Epoch))
	hh.PutUint64(uint64(v.ValidatorIndex))
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the SignedVoluntaryExit object
func (s *SignedVoluntaryExit) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(s)
}

// HashTreeRootWith ssz hashes the SignedVoluntaryExit object with a hasher
func (s *SignedVoluntaryExit) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	exit := s.Exit
	if exit == nil {
		exit = new(VoluntaryExit)
	}
	if err := exit.HashTreeRootWith(hh); err != nil {
		return err
	}
	if err := putFixedBytes(hh, s.Signature, 96); err != nil {
		return err
	}
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the BeaconBlockBody object
func (b *BeaconBlockBody) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(b)
}

// HashTreeRootWith ssz hashes the BeaconBlockBody object with a hasher
func (b *BeaconBlockBody) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()

	// Field (0) 'RandaoReveal'
	if err := putFixedBytes(hh, b.RandaoReveal, 96); err != nil {
		return err
	}

	// Field (1) 'Eth1Data'
	eth1 := b.Eth1Data
	if eth1 == nil {
		eth1 = new(Eth1Data)
	}
	if err := eth1.HashTreeRootWith(hh); err != nil {
		return err
	}

	// Field (2) 'Graffiti'
	if err := putFixedBytes(hh, b.Graffiti, 32); err != nil {
		return err
	}

	// Field (3) 'ProposerSlashings'
	{
		subIndx := hh.Index()
		num := uint64(len(b.ProposerSlashings))
		if num > MaxProposerSlashings {
			return fssz.ErrIncorrectListSize
		}
		for _, elem := range b.ProposerSlashings {
			if elem == nil {
				elem = new(ProposerSlashing)
			}
			if err := elem.HashTreeRootWith(hh); err != nil {
				return err
			}
		}
		hh.MerkleizeWithMixin(subIndx, num, MaxProposerSlashings)
	}

	// Field (4) 'AttesterSlashings'
	{
		subIndx := hh.Index()
		num := uint64(len(b.AttesterSlashings))
		if num > MaxAttesterSlashings {
			return fssz.ErrIncorrectListSize
		}
		for _, elem := range b.AttesterSlashings {
			if elem == nil {
				elem = new(AttesterSlashing)
			}
			if err := elem.HashTreeRootWith(hh); err != nil {
				return err
			}
		}
		hh.MerkleizeWithMixin(subIndx, num, MaxAttesterSlashings)
	}

	// Field (5) 'Attestations'
	{
		subIndx := hh.Index()
		num := uint64(len(b.Attestations))
		if num > MaxAttestations {
			return fssz.ErrIncorrectListSize
		}
		for _, elem := range b.Attestations {
			if elem == nil {
				elem = new(Attestation)
			}
			if err := elem.HashTreeRootWith(hh); err != nil {
				return err
			}
		}
		hh.MerkleizeWithMixin(subIndx, num, MaxAttestations)
	}

	// Field (6) 'Deposits'
	{
		subIndx := hh.Index()
		num := uint64(len(b.Deposits))
		if num > MaxDeposits {
			return fssz.ErrIncorrectListSize
		}
		for _, elem := range b.Deposits {
			if elem == nil {
				elem = &Deposit{Proof: make([][]byte, DepositProofLength)}
			}
			if err := elem.HashTreeRootWith(hh); err != nil {
				return err
			}
		}
		hh.MerkleizeWithMixin(subIndx, num, MaxDeposits)
	}

	// Field (7) 'VoluntaryExits'
	{
		subIndx := hh.Index()
		num := uint64(len(b.VoluntaryExits))
		if num > MaxVoluntaryExits {
			return fssz.ErrIncorrectListSize
		}
		for _, elem := range b.VoluntaryExits {
			if elem == nil {
				elem = new(SignedVoluntaryExit)
			}
			if err := elem.HashTreeRootWith(hh); err != nil {
				return err
			}
		}
		hh.MerkleizeWithMixin(subIndx, num, MaxVoluntaryExits)
	}

	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the BeaconBlock object
func (b *BeaconBlock) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(b)
}

// HashTreeRootWith ssz hashes the BeaconBlock object with a hasher
func (b *BeaconBlock) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	hh.PutUint64(uint64(b.Slot))
	hh.PutUint64(uint64(b.ProposerIndex))
	if err := putFixedBytes(hh, b.ParentRoot, 32); err != nil {
		return err
	}
	if err := putFixedBytes(hh, b.StateRoot, 32); err != nil {
		return err
	}
	body := b.Body
	if body == nil {
		body = new(BeaconBlockBody)
	}
	if err := body.HashTreeRootWith(hh); err != nil {
		return err
	}
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the SignedBeaconBlock object
func (s *SignedBeaconBlock) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(s)
}

// HashTreeRootWith ssz hashes the SignedBeaconBlock object with a hasher
func (s *SignedBeaconBlock) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	blk := s.Block
	if blk == nil {
		blk = new(BeaconBlock)
	}
	if err := blk.HashTreeRootWith(hh); err != nil {
		return err
	}
	if err := putFixedBytes(hh, s.Signature, 96); err != nil {
		return err
	}
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the SigningData object
func (s *SigningData) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(s)
}

// HashTreeRootWith ssz hashes the SigningData object with a hasher
func (s *SigningData) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	if err := putFixedBytes(hh, s.ObjectRoot, 32); err != nil {
		return err
	}
	if err := putFixedBytes(hh, s.Domain, 32); err != nil {
		return err
	}
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the HistoricalBatch object
func (h *HistoricalBatch) HashTreeRoot() ([32]byte, error) {
	return fssz.HashWithDefaultHasher(h)
}

// HashTreeRootWith ssz hashes the HistoricalBatch object with a hasher.
// Both vectors are hashed at their own length.
func (h *HistoricalBatch) HashTreeRootWith(hh *fssz.Hasher) error {
	indx := hh.Index()
	if len(h.BlockRoots) != len(h.StateRoots) {
		return errVectorLength
	}
	blockRoots := ssz.RootsVectorRoot(h.BlockRoots)
	hh.PutBytes(blockRoots[:])
	stateRoots := ssz.RootsVectorRoot(h.StateRoots)
	hh.PutBytes(stateRoots[:])
	hh.Merkleize(indx)
	return nil
}
