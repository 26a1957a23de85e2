package stateutil

import (
	"sync"

	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

// ValidatorMapHandler is a container to hold the map and a reference tracker for how many
// states shared this.
type ValidatorMapHandler struct {
	valIdxMap map[[48]byte]types.ValidatorIndex
	mapRef    *Reference
	sync.RWMutex
}

// NewValMapHandler returns a new validator map handler.
func NewValMapHandler(vals []*ethpb.Validator) *ValidatorMapHandler {
	return &ValidatorMapHandler{
		valIdxMap: coreIdxMap(vals),
		mapRef:    &Reference{refs: 1},
	}
}

// AddRef records one more state sharing this map.
func (v *ValidatorMapHandler) AddRef() {
	v.mapRef.AddRef()
}

// IsNil returns true if the underlying validator index map is nil.
func (v *ValidatorMapHandler) IsNil() bool {
	return v.mapRef == nil || v.valIdxMap == nil
}

// Copy the whole map and returns a map handler with the copied map.
func (v *ValidatorMapHandler) Copy() *ValidatorMapHandler {
	if v == nil || v.valIdxMap == nil {
		return &ValidatorMapHandler{valIdxMap: map[[48]byte]types.ValidatorIndex{}, mapRef: new(Reference)}
	}
	v.RLock()
	defer v.RUnlock()
	m := make(map[[48]byte]types.ValidatorIndex, len(v.valIdxMap))
	for k, v := range v.valIdxMap {
		m[k] = v
	}
	return &ValidatorMapHandler{
		valIdxMap: m,
		mapRef:    &Reference{refs: 1},
	}
}

// Refs returns how many states share this map.
func (v *ValidatorMapHandler) Refs() uint {
	return v.mapRef.Refs()
}

// MinusRef releases one reference to the map.
func (v *ValidatorMapHandler) MinusRef() {
	v.mapRef.MinusRef()
}

// Get the validator index using the corresponding public key.
func (v *ValidatorMapHandler) Get(key [48]byte) (types.ValidatorIndex, bool) {
	v.RLock()
	defer v.RUnlock()
	idx, ok := v.valIdxMap[key]
	if !ok {
		return 0, false
	}
	return idx, true
}

// Set the validator index using the corresponding public key.
func (v *ValidatorMapHandler) Set(key [48]byte, index types.ValidatorIndex) {
	v.Lock()
	defer v.Unlock()
	v.valIdxMap[key] = index
}

// coreIdxMap builds a pubkey to index map. The first occurrence of a key wins.
func coreIdxMap(validatorList []*ethpb.Validator) map[[48]byte]types.ValidatorIndex {
	m := make(map[[48]byte]types.ValidatorIndex, len(validatorList))
	for idx, record := range validatorList {
		if record == nil {
			continue
		}
		key := bytesutil.ToBytes48(record.PublicKey)
		if _, ok := m[key]; ok {
			continue
		}
		m[key] = types.ValidatorIndex(idx)
	}
	return m
}
