// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package trackingcopy records reads and writes on top of a state root.
package trackingcopy

import (
	"bytes"
	"math/big"
	"slices"

	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/log"
	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/stackedmap"
	"github.com/meridianchain/meridian/state"
)

var logger = log.WithContext("pkg", "trackingcopy")

// entry is a journal entry: the value after the change and the change itself.
type entry struct {
	value     state.StoredValue
	exists    bool
	transform state.Transform
}

// TrackingCopy is a mutable overlay on a state reader.
// Every change is journaled, and Effects folds the journal into the
// set of transforms to commit. It is not safe for concurrent use.
type TrackingCopy struct {
	reader        state.Reader
	parent        *TrackingCopy
	sm            *stackedmap.StackedMap[state.Key, entry]
	cache         map[state.Key]entry
	maxQueryDepth uint64
	registry      *state.SystemRegistry
}

// New creates a tracking copy reading through reader.
func New(reader state.Reader, maxQueryDepth uint64) *TrackingCopy {
	tc := &TrackingCopy{
		reader:        reader,
		cache:         make(map[state.Key]entry),
		maxQueryDepth: maxQueryDepth,
	}
	tc.sm = stackedmap.New(tc.load)
	return tc
}

// load implements stackedmap.MapGetter. Values not in the overlay are read
// from the parent or from the reader.
func (tc *TrackingCopy) load(key state.Key) (entry, bool, error) {
	if tc.parent != nil {
		e, _, err := tc.parent.sm.Get(key)
		return e, true, err
	}
	if e, ok := tc.cache[key]; ok {
		return e, true, nil
	}
	v, found, err := tc.reader.Read(key)
	if err != nil {
		return entry{}, false, err
	}
	e := entry{value: v, exists: found}
	tc.cache[key] = e
	return e, true, nil
}

// Fork creates a child tracking copy reading through tc.
// Changes of the child are not visible to tc until merged.
func (tc *TrackingCopy) Fork() *TrackingCopy {
	child := &TrackingCopy{
		reader:        tc.reader,
		parent:        tc,
		maxQueryDepth: tc.maxQueryDepth,
	}
	child.sm = stackedmap.New(child.load)
	return child
}

// Read returns the current value under key.
func (tc *TrackingCopy) Read(key state.Key) (state.StoredValue, bool, error) {
	if err := key.Validate(); err != nil {
		return nil, false, &Error{err}
	}
	e, _, err := tc.sm.Get(key)
	if err != nil {
		return nil, false, err
	}
	return e.value, e.exists, nil
}

// Write sets the value under key.
func (tc *TrackingCopy) Write(key state.Key, value state.StoredValue) error {
	if err := key.Validate(); err != nil {
		return &Error{err}
	}
	if err := state.ValidateValue(value); err != nil {
		return &Error{errors.WithMessagef(err, "write %v", key)}
	}
	tc.put(key, entry{value, true, state.Write(value)})
	return nil
}

// Prune deletes the value under key.
func (tc *TrackingCopy) Prune(key state.Key) error {
	if err := key.Validate(); err != nil {
		return &Error{err}
	}
	tc.put(key, entry{nil, false, state.Prune()})
	return nil
}

// Add applies transform to the value under key. The overlay is untouched
// when the transform cannot be applied.
func (tc *TrackingCopy) Add(key state.Key, transform state.Transform) error {
	if err := key.Validate(); err != nil {
		return &Error{err}
	}
	switch transform.Kind() {
	case state.KindIdentity:
		return nil
	case state.KindWrite:
		return tc.Write(key, transform.Value())
	case state.KindPrune:
		return tc.Prune(key)
	case state.KindFailure:
		return transform.Err()
	}

	cur, _, err := tc.sm.Get(key)
	if err != nil {
		return err
	}
	next, exists, err := transform.Apply(cur.value, cur.exists)
	if err != nil {
		return errors.WithMessagef(err, "add to %v", key)
	}
	tc.put(key, entry{next, exists, transform})
	return nil
}

func (tc *TrackingCopy) put(key state.Key, e entry) {
	if key.Tag == state.KeySystemEntityRegistry {
		tc.registry = nil
	}
	tc.sm.Put(key, e)
}

// Merge applies effects produced by a fork on top of tc.
// Either every transform is applied or none is.
func (tc *TrackingCopy) Merge(effects *state.Effects) (err error) {
	cp := tc.NewCheckpoint()
	effects.Range(func(key state.Key, t state.Transform) bool {
		err = tc.Add(key, t)
		return err == nil
	})
	if err != nil {
		tc.RevertTo(cp)
	}
	return
}

// NewCheckpoint returns a checkpoint that RevertTo can go back to.
func (tc *TrackingCopy) NewCheckpoint() int {
	return tc.sm.Push()
}

// RevertTo drops every change made after the checkpoint.
func (tc *TrackingCopy) RevertTo(checkpoint int) {
	logger.Trace("revert tracking copy", "checkpoint", checkpoint, "depth", tc.sm.Depth())
	tc.sm.PopTo(checkpoint)
	if tc.sm.Depth() == 0 {
		tc.sm.Push()
	}
	tc.registry = nil
}

// Effects folds the journal into transforms, composed in write order.
func (tc *TrackingCopy) Effects() *state.Effects {
	effects := state.NewEffects()
	tc.sm.Journal(func(key state.Key, e entry) bool {
		effects.Add(key, e.transform)
		return true
	})
	return effects
}

// overlayKeys returns keys changed in tc or its ancestors.
func (tc *TrackingCopy) overlayKeys(prefix []byte, seen map[state.Key]struct{}) {
	if tc.parent != nil {
		tc.parent.overlayKeys(prefix, seen)
	}
	tc.sm.Journal(func(key state.Key, _ entry) bool {
		if bytes.HasPrefix(key.Bytes(), prefix) {
			seen[key] = struct{}{}
		}
		return true
	})
}

// KeysWithPrefix returns the keys present under the prefix, overlay included.
func (tc *TrackingCopy) KeysWithPrefix(prefix []byte) ([]state.Key, error) {
	base, err := tc.reader.KeysWithPrefix(prefix)
	if err != nil {
		return nil, err
	}
	candidates := make(map[state.Key]struct{}, len(base))
	for _, k := range base {
		candidates[k] = struct{}{}
	}
	tc.overlayKeys(prefix, candidates)

	keys := make([]state.Key, 0, len(candidates))
	for k := range candidates {
		e, _, err := tc.sm.Get(k)
		if err != nil {
			return nil, err
		}
		if e.exists {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, state.CompareKeys)
	return keys, nil
}

// ReadWithProof reads key, with a proof when the value comes from the
// underlying state rather than the overlay.
func (tc *TrackingCopy) ReadWithProof(key state.Key) (state.StoredValue, [][]byte, bool, error) {
	if err := key.Validate(); err != nil {
		return nil, nil, false, &Error{err}
	}
	if tc.inOverlay(key) {
		v, found, err := tc.Read(key)
		return v, nil, found, err
	}
	return tc.reader.ReadWithProof(key)
}

func (tc *TrackingCopy) inOverlay(key state.Key) bool {
	found := false
	for t := tc; t != nil && !found; t = t.parent {
		t.sm.Journal(func(k state.Key, _ entry) bool {
			found = k == key
			return !found
		})
	}
	return found
}

// SystemRegistry returns the registry of system contracts.
// The record is cached until the registry key is written or a revert happens.
func (tc *TrackingCopy) SystemRegistry() (*state.SystemRegistry, error) {
	if tc.registry != nil {
		return tc.registry, nil
	}
	key := state.SystemEntityRegistryKey()
	v, found, err := tc.Read(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &ValueNotFoundError{Key: key, Msg: "system registry not found"}
	}
	reg, ok := v.(*state.SystemRegistry)
	if !ok {
		return nil, &TypeMismatchError{Expected: state.ValueSystemRegistry.String(), Found: v.Tag().String()}
	}
	tc.registry = reg
	return reg, nil
}

// GetMainPurse returns the main purse of the account.
func (tc *TrackingCopy) GetMainPurse(accountHash meridian.Bytes32) (meridian.Bytes32, error) {
	acc, err := tc.GetAccount(accountHash)
	if err != nil {
		return meridian.Bytes32{}, err
	}
	return acc.MainPurse, nil
}

// GetAccount returns the account record.
func (tc *TrackingCopy) GetAccount(accountHash meridian.Bytes32) (*state.Account, error) {
	key := state.AccountKey(accountHash)
	v, found, err := tc.Read(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &ValueNotFoundError{Key: key, Msg: "account not found"}
	}
	acc, ok := v.(*state.Account)
	if !ok {
		return nil, &TypeMismatchError{Expected: state.ValueAccount.String(), Found: v.Tag().String()}
	}
	return acc, nil
}

// GetPurseBalance returns the balance of the purse.
func (tc *TrackingCopy) GetPurseBalance(purse meridian.Bytes32) (*big.Int, error) {
	key := state.BalanceKey(purse)
	v, found, err := tc.Read(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &ValueNotFoundError{Key: key, Msg: "purse not found"}
	}
	return BalanceOf(v)
}

// BalanceOf decodes a balance record.
func BalanceOf(v state.StoredValue) (*big.Int, error) {
	cl, ok := v.(*state.CLValue)
	if !ok {
		return nil, &TypeMismatchError{Expected: state.CLU512.String(), Found: v.Tag().String()}
	}
	return cl.U512()
}

// MainPurseOf returns the main purse of a newly created account.
func MainPurseOf(accountHash meridian.Bytes32) meridian.Bytes32 {
	return meridian.Blake2b(accountHash[:], []byte("main-purse"))
}

// CreateAccount writes a new account with its main purse funded with the balance.
func (tc *TrackingCopy) CreateAccount(accountHash meridian.Bytes32, balance *big.Int) (*state.Account, error) {
	acc := &state.Account{
		AccountHash: accountHash,
		MainPurse:   MainPurseOf(accountHash),
		NamedKeys:   state.NamedKeys{},
	}
	if balance == nil {
		balance = new(big.Int)
	}
	if err := tc.Write(state.AccountKey(accountHash), acc); err != nil {
		return nil, err
	}
	if err := tc.Write(state.BalanceKey(acc.MainPurse), state.NewCLU512(balance)); err != nil {
		return nil, err
	}
	return acc, nil
}
