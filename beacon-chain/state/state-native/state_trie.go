package state_native

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native/types"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/stateutil"
	"github.com/prysmaticlabs/beacon-transition/config/params"
	primitives "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	"github.com/prysmaticlabs/beacon-transition/encoding/ssz"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
	"github.com/prysmaticlabs/go-bitfield"
	"go.opencensus.io/trace"
)

// sharedFields are the slice fields shared between copies until one of them writes.
var sharedFields = []types.FieldIndex{
	types.BlockRoots,
	types.StateRoots,
	types.HistoricalRoots,
	types.Eth1DataVotes,
	types.Validators,
	types.Balances,
	types.RandaoMixes,
	types.Slashings,
	types.PreviousEpochAttestations,
	types.CurrentEpochAttestations,
}

// BeaconState defines a struct containing utilities for the phase0 beacon state, primarily
// encapsulating an underlying set of fields whose large slices are shared between copies and
// duplicated on first write.
type BeaconState struct {
	cfg *params.BeaconChainConfig

	genesisTime                 uint64
	genesisValidatorsRoot       [32]byte
	slot                        primitives.Slot
	fork                        *ethpb.Fork
	latestBlockHeader           *ethpb.BeaconBlockHeader
	blockRoots                  [][32]byte
	stateRoots                  [][32]byte
	historicalRoots             [][32]byte
	eth1Data                    *ethpb.Eth1Data
	eth1DataVotes               []*ethpb.Eth1Data
	eth1DepositIndex            uint64
	validators                  []*ethpb.Validator
	balances                    []uint64
	randaoMixes                 [][32]byte
	slashings                   []uint64
	previousEpochAttestations   []*ethpb.PendingAttestation
	currentEpochAttestations    []*ethpb.PendingAttestation
	justificationBits           bitfield.Bitvector4
	previousJustifiedCheckpoint *ethpb.Checkpoint
	currentJustifiedCheckpoint  *ethpb.Checkpoint
	finalizedCheckpoint         *ethpb.Checkpoint

	lock                  sync.RWMutex
	dirtyFields           map[types.FieldIndex]bool
	fieldRoots            [][32]byte
	sharedFieldReferences map[types.FieldIndex]*stateutil.Reference
	valMapHandler         *stateutil.ValidatorMapHandler
}

// InitializeFromProtoPhase0 the beacon state from a flat representation. The input is deep
// copied.
func InitializeFromProtoPhase0(cfg *params.BeaconChainConfig, st *ethpb.BeaconState) (state.BeaconState, error) {
	return InitializeFromProtoUnsafePhase0(cfg, ethpb.CopyBeaconState(st))
}

// InitializeFromProtoUnsafePhase0 directly uses the flat state fields
// and sets them as fields of the BeaconState type.
func InitializeFromProtoUnsafePhase0(cfg *params.BeaconChainConfig, st *ethpb.BeaconState) (state.BeaconState, error) {
	if st == nil {
		return nil, errors.New("received nil state")
	}
	if cfg == nil {
		return nil, errors.New("received nil config")
	}
	if err := validateLengths(cfg, st); err != nil {
		return nil, err
	}

	b := &BeaconState{
		cfg:                         cfg,
		genesisTime:                 st.GenesisTime,
		genesisValidatorsRoot:       bytesutil.ToBytes32(st.GenesisValidatorsRoot),
		slot:                        st.Slot,
		fork:                        st.Fork,
		latestBlockHeader:           st.LatestBlockHeader,
		blockRoots:                  toRoots(st.BlockRoots),
		stateRoots:                  toRoots(st.StateRoots),
		historicalRoots:             toRoots(st.HistoricalRoots),
		eth1Data:                    st.Eth1Data,
		eth1DataVotes:               st.Eth1DataVotes,
		eth1DepositIndex:            st.Eth1DepositIndex,
		validators:                  st.Validators,
		balances:                    st.Balances,
		randaoMixes:                 toRoots(st.RandaoMixes),
		slashings:                   st.Slashings,
		previousEpochAttestations:   st.PreviousEpochAttestations,
		currentEpochAttestations:    st.CurrentEpochAttestations,
		justificationBits:           st.JustificationBits,
		previousJustifiedCheckpoint: st.PreviousJustifiedCheckpoint,
		currentJustifiedCheckpoint:  st.CurrentJustifiedCheckpoint,
		finalizedCheckpoint:         st.FinalizedCheckpoint,

		dirtyFields:           make(map[types.FieldIndex]bool, types.FieldCount),
		fieldRoots:            make([][32]byte, types.FieldCount),
		sharedFieldReferences: make(map[types.FieldIndex]*stateutil.Reference, len(sharedFields)),
		valMapHandler:         stateutil.NewValMapHandler(st.Validators),
	}
	b.fillNilFields()

	for i := 0; i < types.FieldCount; i++ {
		b.dirtyFields[types.FieldIndex(i)] = true
	}
	// Initialize field reference tracking for shared data.
	for _, f := range sharedFields {
		b.sharedFieldReferences[f] = stateutil.NewRef(1)
	}

	state.Count.Inc()
	// Finalizer runs when dst is being destroyed in garbage collection.
	runtime.SetFinalizer(b, finalizerCleanup)
	return b, nil
}

func validateLengths(cfg *params.BeaconChainConfig, st *ethpb.BeaconState) error {
	if len(st.Validators) != len(st.Balances) {
		return errors.Errorf("validator registry length %d does not match balances length %d", len(st.Validators), len(st.Balances))
	}
	checks := []struct {
		name string
		have int
		want uint64
	}{
		{"block roots", len(st.BlockRoots), uint64(cfg.SlotsPerHistoricalRoot)},
		{"state roots", len(st.StateRoots), uint64(cfg.SlotsPerHistoricalRoot)},
		{"randao mixes", len(st.RandaoMixes), uint64(cfg.EpochsPerHistoricalVector)},
		{"slashings", len(st.Slashings), uint64(cfg.EpochsPerSlashingsVector)},
	}
	for _, c := range checks {
		if uint64(c.have) != c.want {
			return errors.Errorf("%s length %d does not match expected %d", c.name, c.have, c.want)
		}
	}
	for i, v := range st.Validators {
		if v == nil {
			return errors.Errorf("nil validator at index %d", i)
		}
	}
	return nil
}

func (b *BeaconState) fillNilFields() {
	if b.fork == nil {
		b.fork = &ethpb.Fork{PreviousVersion: make([]byte, 4), CurrentVersion: make([]byte, 4)}
	}
	if b.latestBlockHeader == nil {
		b.latestBlockHeader = &ethpb.BeaconBlockHeader{}
	}
	if b.eth1Data == nil {
		b.eth1Data = &ethpb.Eth1Data{}
	}
	if len(b.justificationBits) == 0 {
		b.justificationBits = bitfield.Bitvector4{0}
	}
	if b.previousJustifiedCheckpoint == nil {
		b.previousJustifiedCheckpoint = &ethpb.Checkpoint{}
	}
	if b.currentJustifiedCheckpoint == nil {
		b.currentJustifiedCheckpoint = &ethpb.Checkpoint{}
	}
	if b.finalizedCheckpoint == nil {
		b.finalizedCheckpoint = &ethpb.Checkpoint{}
	}
}

func toRoots(vals [][]byte) [][32]byte {
	roots := make([][32]byte, len(vals))
	for i, v := range vals {
		roots[i] = bytesutil.ToBytes32(v)
	}
	return roots
}

func fromRoots(roots [][32]byte) [][]byte {
	res := make([][]byte, len(roots))
	for i := range roots {
		r := roots[i]
		res[i] = r[:]
	}
	return res
}

// Copy returns a deep copy of the beacon state. Large slices are shared with the receiver
// and duplicated by whichever state writes to them first.
func (b *BeaconState) Copy() state.BeaconState {
	b.lock.RLock()
	defer b.lock.RUnlock()

	dst := &BeaconState{
		cfg: b.cfg,

		// Primitive types, safe to copy.
		genesisTime:           b.genesisTime,
		genesisValidatorsRoot: b.genesisValidatorsRoot,
		slot:                  b.slot,
		eth1DepositIndex:      b.eth1DepositIndex,

		// Large arrays, shared until written.
		blockRoots:                b.blockRoots,
		stateRoots:                b.stateRoots,
		historicalRoots:           b.historicalRoots,
		eth1DataVotes:             b.eth1DataVotes,
		validators:                b.validators,
		balances:                  b.balances,
		randaoMixes:               b.randaoMixes,
		slashings:                 b.slashings,
		previousEpochAttestations: b.previousEpochAttestations,
		currentEpochAttestations:  b.currentEpochAttestations,

		// Everything else, too small to be concerned about.
		fork:                        ethpb.CopyFork(b.fork),
		latestBlockHeader:           ethpb.CopyBeaconBlockHeader(b.latestBlockHeader),
		eth1Data:                    ethpb.CopyETH1Data(b.eth1Data),
		justificationBits:           b.justificationBitsVal(),
		previousJustifiedCheckpoint: ethpb.CopyCheckpoint(b.previousJustifiedCheckpoint),
		currentJustifiedCheckpoint:  ethpb.CopyCheckpoint(b.currentJustifiedCheckpoint),
		finalizedCheckpoint:         ethpb.CopyCheckpoint(b.finalizedCheckpoint),

		dirtyFields:           make(map[types.FieldIndex]bool, types.FieldCount),
		fieldRoots:            make([][32]byte, types.FieldCount),
		sharedFieldReferences: make(map[types.FieldIndex]*stateutil.Reference, len(sharedFields)),

		// Share the reference to validator index map.
		valMapHandler: b.valMapHandler,
	}

	for field, ref := range b.sharedFieldReferences {
		ref.AddRef()
		dst.sharedFieldReferences[field] = ref
	}
	b.valMapHandler.AddRef()

	for field, dirty := range b.dirtyFields {
		dst.dirtyFields[field] = dirty
	}
	copy(dst.fieldRoots, b.fieldRoots)

	state.Count.Inc()
	// Finalizer runs when dst is being destroyed in garbage collection.
	runtime.SetFinalizer(dst, finalizerCleanup)
	return dst
}

// HashTreeRoot of the beacon state retrieves the Merkle root of the trie
// representation of the beacon state based on the Simple Serialize merkleization rules.
// Only fields written since the last call are rehashed.
func (b *BeaconState) HashTreeRoot(ctx context.Context) ([32]byte, error) {
	_, span := trace.StartSpan(ctx, "beaconState.HashTreeRoot")
	defer span.End()

	b.lock.Lock()
	defer b.lock.Unlock()

	start := time.Now()
	for i := 0; i < types.FieldCount; i++ {
		field := types.FieldIndex(i)
		if !b.dirtyFields[field] {
			continue
		}
		root, err := b.rootSelector(field)
		if err != nil {
			return [32]byte{}, errors.Wrapf(err, "could not compute root of field %s", field)
		}
		b.fieldRoots[i] = root
		delete(b.dirtyFields, field)
	}
	root := ssz.MerkleizeVector(b.fieldRoots, uint64(types.FieldCount))
	state.StateRootTime.Observe(float64(time.Since(start).Milliseconds()))
	return root, nil
}

// ToProto returns a deep copy of the state in its flat representation.
func (b *BeaconState) ToProto() *ethpb.BeaconState {
	b.lock.RLock()
	defer b.lock.RUnlock()

	gvr := b.genesisValidatorsRoot
	return ethpb.CopyBeaconState(&ethpb.BeaconState{
		GenesisTime:                 b.genesisTime,
		GenesisValidatorsRoot:       gvr[:],
		Slot:                        b.slot,
		Fork:                        b.fork,
		LatestBlockHeader:           b.latestBlockHeader,
		BlockRoots:                  fromRoots(b.blockRoots),
		StateRoots:                  fromRoots(b.stateRoots),
		HistoricalRoots:             fromRoots(b.historicalRoots),
		Eth1Data:                    b.eth1Data,
		Eth1DataVotes:               b.eth1DataVotes,
		Eth1DepositIndex:            b.eth1DepositIndex,
		Validators:                  b.validators,
		Balances:                    b.balances,
		RandaoMixes:                 fromRoots(b.randaoMixes),
		Slashings:                   b.slashings,
		PreviousEpochAttestations:   b.previousEpochAttestations,
		CurrentEpochAttestations:    b.currentEpochAttestations,
		JustificationBits:           b.justificationBits,
		PreviousJustifiedCheckpoint: b.previousJustifiedCheckpoint,
		CurrentJustifiedCheckpoint:  b.currentJustifiedCheckpoint,
		FinalizedCheckpoint:         b.finalizedCheckpoint,
	})
}

// FieldReferencesCount returns the reference count held by each shared field. Used in tests.
func (b *BeaconState) FieldReferencesCount() map[string]uint64 {
	refMap := make(map[string]uint64)
	b.lock.RLock()
	defer b.lock.RUnlock()
	for i, f := range b.sharedFieldReferences {
		refMap[i.String()] = uint64(f.Refs())
	}
	return refMap
}

func (b *BeaconState) markFieldAsDirty(field types.FieldIndex) {
	b.dirtyFields[field] = true
}

// detach releases the receiver's reference to a shared field and reports whether the field
// was shared, in which case the caller must write to a fresh copy.
func (b *BeaconState) detach(field types.FieldIndex) bool {
	ref := b.sharedFieldReferences[field]
	if ref.Refs() <= 1 {
		return false
	}
	ref.MinusRef()
	b.sharedFieldReferences[field] = stateutil.NewRef(1)
	return true
}

// replace drops the receiver's reference to a field that is about to be overwritten.
func (b *BeaconState) replace(field types.FieldIndex) {
	b.sharedFieldReferences[field].MinusRef()
	b.sharedFieldReferences[field] = stateutil.NewRef(1)
}

func finalizerCleanup(b *BeaconState) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for field, v := range b.sharedFieldReferences {
		v.MinusRef()
		delete(b.sharedFieldReferences, field)
	}
	if b.valMapHandler != nil {
		b.valMapHandler.MinusRef()
	}
	state.Count.Sub(1)
}
