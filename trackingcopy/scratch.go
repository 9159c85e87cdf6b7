// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trackingcopy

import (
	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
)

// ErrStaleRoot is returned when effects are committed to a scratch state
// on a root other than its working root.
var ErrStaleRoot = errors.New("commit on stale root")

// Store is the durable store behind a scratch state.
type Store interface {
	state.Provider
	Stage(root meridian.Bytes32) (*state.Stage, error)
}

// ScratchState keeps the effects of a whole block in memory and writes
// them to the durable store at once.
type ScratchState struct {
	store Store
	stage *state.Stage
	accum *state.Effects
}

var _ state.Provider = (*ScratchState)(nil)

// NewScratchState creates a scratch state over store.
func NewScratchState(store Store) *ScratchState {
	return &ScratchState{store: store, accum: state.NewEffects()}
}

// EmptyRoot implements state.Provider.
func (s *ScratchState) EmptyRoot() meridian.Bytes32 {
	return s.store.EmptyRoot()
}

// WorkingRoot returns the latest root produced, if any.
func (s *ScratchState) WorkingRoot() (meridian.Bytes32, bool) {
	if s.stage == nil {
		return meridian.Bytes32{}, false
	}
	return s.stage.Root(), true
}

// Checkout implements state.Provider. Roots produced by the scratch state
// are served from memory, others from the durable store.
func (s *ScratchState) Checkout(root meridian.Bytes32) (state.Reader, error) {
	if s.stage != nil {
		return s.stage.Checkout(root)
	}
	return s.store.Checkout(root)
}

// CommitEffects implements state.Provider. The first commit fixes the base
// root; later commits must target the working root.
func (s *ScratchState) CommitEffects(root meridian.Bytes32, effects *state.Effects) (meridian.Bytes32, error) {
	if s.stage == nil {
		stage, err := s.store.Stage(root)
		if err != nil {
			return meridian.Bytes32{}, err
		}
		s.stage = stage
	} else if root != s.stage.Root() {
		return meridian.Bytes32{}, errors.Wrapf(ErrStaleRoot, "got %v, working root %v", root, s.stage.Root())
	}

	reader, err := s.stage.Checkout(root)
	if err != nil {
		return meridian.Bytes32{}, err
	}
	resolved := state.NewEffects()
	for _, key := range effects.Keys() {
		t, _ := effects.Get(key)
		if t.Kind() == state.KindIdentity {
			continue
		}
		var (
			cur   state.StoredValue
			found bool
		)
		if t.Kind().IsAdd() {
			if cur, found, err = reader.Read(key); err != nil {
				return meridian.Bytes32{}, err
			}
		}
		next, exists, err := t.Apply(cur, found)
		if err != nil {
			return meridian.Bytes32{}, errors.WithMessagef(err, "resolve %v", key)
		}
		if exists {
			resolved.Set(key, state.Write(next))
		} else {
			resolved.Set(key, state.Prune())
		}
	}

	newRoot, err := s.stage.Apply(resolved)
	if err != nil {
		return meridian.Bytes32{}, err
	}
	resolved.Range(func(key state.Key, t state.Transform) bool {
		s.accum.Set(key, t)
		return true
	})
	return newRoot, nil
}

// Effects returns the accumulated writes and prunes.
func (s *ScratchState) Effects() *state.Effects {
	return s.accum.Copy()
}

// WriteToStore commits all accumulated changes to the durable store in a
// single CommitEffects call. It returns the durable root.
func (s *ScratchState) WriteToStore() (meridian.Bytes32, error) {
	if s.stage == nil {
		return meridian.Bytes32{}, nil
	}
	root, err := s.store.CommitEffects(s.stage.Base(), s.accum)
	if err != nil {
		return meridian.Bytes32{}, err
	}
	if root != s.stage.Root() {
		return meridian.Bytes32{}, errors.Errorf("scratch write produced root %v, expected %v", root, s.stage.Root())
	}
	logger.Debug("scratch state written", "root", root, "keys", s.accum.Len())
	return root, nil
}
