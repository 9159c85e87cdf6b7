// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/trie"
)

// Stage applies sequential effect sets in memory.
// Every intermediate root stays readable until the stage is dropped.
type Stage struct {
	gs    *GlobalState
	base  meridian.Bytes32
	root  meridian.Bytes32
	trie  *trie.Trie
	tries map[meridian.Bytes32]*trie.Trie
}

func newStage(gs *GlobalState, root meridian.Bytes32, t *trie.Trie) *Stage {
	return &Stage{
		gs:    gs,
		base:  root,
		root:  root,
		trie:  t,
		tries: map[meridian.Bytes32]*trie.Trie{root: t.Copy()},
	}
}

// Base returns the root the stage started from.
func (s *Stage) Base() meridian.Bytes32 { return s.base }

// Root returns the current staged root.
func (s *Stage) Root() meridian.Bytes32 { return s.root }

// Apply applies effects on the current staged root and returns the new root.
// Nothing is written. On error the stage is left unchanged.
func (s *Stage) Apply(effects *Effects) (meridian.Bytes32, error) {
	if effects.Len() == 0 {
		return s.root, nil
	}
	t := s.trie.Copy()
	if err := applyEffects(t, effects); err != nil {
		return meridian.Bytes32{}, err
	}
	s.trie = t
	s.root = t.Hash()
	if _, ok := s.tries[s.root]; !ok {
		s.tries[s.root] = t.Copy()
	}
	return s.root, nil
}

// Checkout returns a reader of any root produced by the stage,
// falling back to the durable store for other roots.
func (s *Stage) Checkout(root meridian.Bytes32) (Reader, error) {
	if t, ok := s.tries[root]; ok {
		return newTrieReader(root, t.Copy()), nil
	}
	return s.gs.Checkout(root)
}

// Has returns whether the root was produced by the stage.
func (s *Stage) Has(root meridian.Bytes32) bool {
	_, ok := s.tries[root]
	return ok
}

// Commit writes the nodes of the current staged root in one batch.
func (s *Stage) Commit() (meridian.Bytes32, error) {
	root, err := s.gs.commitTrie(s.trie)
	if err != nil {
		return meridian.Bytes32{}, err
	}
	if root != s.root {
		return meridian.Bytes32{}, errors.Errorf("state: committed root %v differs from staged %v", root, s.root)
	}
	return root, nil
}
