package state_native

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/state-native/types"
	"github.com/prysmaticlabs/beacon-transition/beacon-chain/state/stateutil"
	primitives "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/encoding/bytesutil"
	ethpb "github.com/prysmaticlabs/beacon-transition/proto/prysm/v1alpha1"
)

// SetValidators for the beacon state. Updates the entire
// to a new value by overwriting the previous one.
func (b *BeaconState) SetValidators(val []*ethpb.Validator) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.validators = val
	b.replace(types.Validators)
	b.markFieldAsDirty(types.Validators)
	b.valMapHandler.MinusRef()
	b.valMapHandler = stateutil.NewValMapHandler(val)
	return nil
}

// ApplyToEveryValidator applies the provided callback function to each validator in the
// validator registry. The callback must return a new validator object when it reports a change.
func (b *BeaconState) ApplyToEveryValidator(f func(idx int, val *ethpb.Validator) (bool, *ethpb.Validator, error)) error {
	b.lock.Lock()
	v := b.validators
	if b.detach(types.Validators) {
		v = make([]*ethpb.Validator, len(b.validators))
		copy(v, b.validators)
	}
	b.lock.Unlock()

	changed := false
	for i, val := range v {
		c, newVal, err := f(i, val)
		if err != nil {
			return err
		}
		if c {
			changed = true
			v[i] = newVal
		}
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.validators = v
	if changed {
		b.markFieldAsDirty(types.Validators)
	}
	return nil
}

// UpdateValidatorAtIndex for the beacon state. Updates the validator
// at a specific index to a new value.
func (b *BeaconState) UpdateValidatorAtIndex(idx primitives.ValidatorIndex, val *ethpb.Validator) error {
	if val == nil {
		return errors.New("nil validator")
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	if uint64(len(b.validators)) <= uint64(idx) {
		return errors.Wrapf(state.ErrOutOfBounds, "validator index %d does not exist", idx)
	}
	v := b.validators
	if b.detach(types.Validators) {
		v = make([]*ethpb.Validator, len(b.validators))
		copy(v, b.validators)
	}
	v[idx] = val
	b.validators = v
	b.markFieldAsDirty(types.Validators)
	return nil
}

// AppendValidator for the beacon state. Appends the new value
// to the end of list.
func (b *BeaconState) AppendValidator(val *ethpb.Validator) error {
	if val == nil {
		return errors.New("nil validator")
	}
	b.lock.Lock()
	defer b.lock.Unlock()

	vals := b.validators
	if b.detach(types.Validators) {
		vals = make([]*ethpb.Validator, len(b.validators), len(b.validators)+1)
		copy(vals, b.validators)
	}

	// Copy the validator index map before writing to it when other states share it.
	if b.valMapHandler.Refs() > 1 {
		b.valMapHandler.MinusRef()
		b.valMapHandler = b.valMapHandler.Copy()
	}
	key := bytesutil.ToBytes48(val.PublicKey)
	if _, ok := b.valMapHandler.Get(key); !ok {
		b.valMapHandler.Set(key, primitives.ValidatorIndex(len(vals)))
	}

	b.validators = append(vals, val)
	b.markFieldAsDirty(types.Validators)
	return nil
}

// SetBalances for the beacon state. Updates the entire
// list to a new value by overwriting the previous one.
func (b *BeaconState) SetBalances(val []uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.replace(types.Balances)
	b.balances = val
	b.markFieldAsDirty(types.Balances)
	return nil
}

// UpdateBalancesAtIndex for the beacon state. This method updates the balance
// at a specific index to a new value.
func (b *BeaconState) UpdateBalancesAtIndex(idx primitives.ValidatorIndex, val uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if uint64(len(b.balances)) <= uint64(idx) {
		return errors.Wrapf(state.ErrOutOfBounds, "balance index %d does not exist", idx)
	}
	bals := b.balances
	if b.detach(types.Balances) {
		bals = make([]uint64, len(b.balances))
		copy(bals, b.balances)
	}
	bals[idx] = val
	b.balances = bals
	b.markFieldAsDirty(types.Balances)
	return nil
}

// AppendBalance for the beacon state. Appends the new value
// to the end of list.
func (b *BeaconState) AppendBalance(bal uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	bals := b.balances
	if b.detach(types.Balances) {
		bals = make([]uint64, len(b.balances), len(b.balances)+1)
		copy(bals, b.balances)
	}
	b.balances = append(bals, bal)
	b.markFieldAsDirty(types.Balances)
	return nil
}
