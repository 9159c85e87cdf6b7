// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/log"
	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/muxdb"
	"github.com/meridianchain/meridian/trie"
)

var logger = log.WithContext("pkg", "state")

// Provider is implemented by stores that can check out roots and commit effects.
type Provider interface {
	Checkout(root meridian.Bytes32) (Reader, error)
	CommitEffects(root meridian.Bytes32, effects *Effects) (meridian.Bytes32, error)
	EmptyRoot() meridian.Bytes32
}

// PruneResultKind is the outcome of a prune request.
type PruneResultKind uint8

// Prune outcomes.
const (
	PruneSuccess PruneResultKind = iota
	PruneRootNotFound
	PruneDoesNotExist
)

func (k PruneResultKind) String() string {
	switch k {
	case PruneSuccess:
		return "success"
	case PruneRootNotFound:
		return "root not found"
	case PruneDoesNotExist:
		return "does not exist"
	}
	return "unknown"
}

// PruneResult is the result of CommitPrune.
type PruneResult struct {
	Kind          PruneResultKind
	PostStateHash meridian.Bytes32 // set on success
}

// GlobalState is the durable, content addressed global state.
// Checkouts are safe for concurrent use while a commit runs,
// since trie nodes are never changed once written.
type GlobalState struct {
	db    *muxdb.MuxDB
	nodes *muxdb.NodeStore

	commitLock sync.Mutex
}

// NewGlobalState creates the global state over db.
func NewGlobalState(db *muxdb.MuxDB) *GlobalState {
	return &GlobalState{db: db, nodes: db.Nodes()}
}

// EmptyRoot returns the root of the empty state.
func (g *GlobalState) EmptyRoot() meridian.Bytes32 {
	return trie.EmptyRoot()
}

func (g *GlobalState) hasRoot(root meridian.Bytes32) (bool, error) {
	if root == trie.EmptyRoot() {
		return true, nil
	}
	return g.nodes.Has(root)
}

func (g *GlobalState) openTrie(root meridian.Bytes32) (*trie.Trie, error) {
	ok, err := g.hasRoot(root)
	if err != nil {
		return nil, &Error{err}
	}
	if !ok {
		return nil, errors.Wrapf(ErrRootNotFound, "%v", root)
	}
	return trie.New(root, g.nodes), nil
}

// Checkout returns a reader of the state at root.
func (g *GlobalState) Checkout(root meridian.Bytes32) (Reader, error) {
	t, err := g.openTrie(root)
	if err != nil {
		return nil, err
	}
	return newTrieReader(root, t), nil
}

// CommitEffects applies effects on top of root and persists the new nodes.
// Transforms are applied in key order.
func (g *GlobalState) CommitEffects(root meridian.Bytes32, effects *Effects) (meridian.Bytes32, error) {
	t, err := g.openTrie(root)
	if err != nil {
		return meridian.Bytes32{}, err
	}
	if effects.Len() == 0 {
		return root, nil
	}
	if err := applyEffects(t, effects); err != nil {
		return meridian.Bytes32{}, err
	}
	return g.commitTrie(t)
}

func (g *GlobalState) commitTrie(t *trie.Trie) (meridian.Bytes32, error) {
	g.commitLock.Lock()
	defer g.commitLock.Unlock()

	bulk := g.nodes.NewBulk()
	newRoot, err := t.Commit(bulk)
	if err != nil {
		return meridian.Bytes32{}, &Error{err}
	}
	if err := bulk.Write(); err != nil {
		return meridian.Bytes32{}, &Error{err}
	}
	return newRoot, nil
}

// CommitPrune deletes keys from the state at root. Missing keys are skipped.
// The result kind is PruneDoesNotExist when none of the keys is present.
func (g *GlobalState) CommitPrune(root meridian.Bytes32, keys []Key) (PruneResult, error) {
	t, err := g.openTrie(root)
	if err != nil {
		if errors.Is(err, ErrRootNotFound) {
			return PruneResult{Kind: PruneRootNotFound}, nil
		}
		return PruneResult{}, err
	}

	pruned := 0
	for _, key := range keys {
		k := key.Bytes()
		v, err := t.Get(k)
		if err != nil {
			return PruneResult{}, &Error{err}
		}
		if len(v) == 0 {
			logger.Debug("prune skips missing key", "key", key)
			continue
		}
		if err := t.Delete(k); err != nil {
			return PruneResult{}, &Error{err}
		}
		pruned++
	}
	if pruned == 0 {
		return PruneResult{Kind: PruneDoesNotExist}, nil
	}
	newRoot, err := g.commitTrie(t)
	if err != nil {
		return PruneResult{}, err
	}
	return PruneResult{Kind: PruneSuccess, PostStateHash: newRoot}, nil
}

// Stage creates an in-memory stage on top of root.
func (g *GlobalState) Stage(root meridian.Bytes32) (*Stage, error) {
	t, err := g.openTrie(root)
	if err != nil {
		return nil, err
	}
	return newStage(g, root, t), nil
}

// Trie returns the raw trie node with the digest, or nil if absent.
func (g *GlobalState) Trie(digest meridian.Bytes32) ([]byte, error) {
	blob, err := g.nodes.Get(digest)
	if err != nil {
		if g.nodes.IsNotFound(err) {
			return nil, nil
		}
		return nil, &Error{err}
	}
	return blob, nil
}

// Flush syncs the backend to disk.
func (g *GlobalState) Flush() error {
	return g.db.Flush()
}

// applyEffects applies transforms in key order on t.
func applyEffects(t *trie.Trie, effects *Effects) (err error) {
	effects.Range(func(key Key, tr Transform) bool {
		err = applyTransform(t, key, tr)
		return err == nil
	})
	return
}

func applyTransform(t *trie.Trie, key Key, tr Transform) error {
	k := key.Bytes()
	var (
		cur   StoredValue
		found bool
	)
	switch tr.Kind() {
	case KindIdentity:
		return nil
	case KindWrite, KindPrune:
		// no need to read
	default:
		data, err := t.Get(k)
		if err != nil {
			return &Error{err}
		}
		if cur, found, err = decodeStored(key, data); err != nil {
			return err
		}
	}

	next, exists, err := tr.Apply(cur, found)
	if err != nil {
		return &Error{errors.WithMessagef(err, "apply %v to %v", tr, key)}
	}
	if !exists {
		if err := t.Delete(k); err != nil {
			return &Error{err}
		}
		return nil
	}
	enc, err := EncodeValue(next)
	if err != nil {
		return &Error{err}
	}
	if err := t.Update(k, enc); err != nil {
		return &Error{err}
	}
	return nil
}
