// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package muxdb

import (
	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/kv"
	"github.com/meridianchain/meridian/meridian"
)

// NodeStore stores trie node blobs keyed by their hash.
// Nodes are content addressed, so a blob is written once and never modified.
type NodeStore struct {
	store    kv.Store
	cache    *nodeCache
	compress bool
}

func newNodeStore(engine kv.Store, cache *nodeCache, compress bool) *NodeStore {
	return &NodeStore{
		store:    kv.Bucket([]byte{trieNodeSpace}).NewStore(engine),
		cache:    cache,
		compress: compress,
	}
}

// Get returns the node blob with the given hash.
func (s *NodeStore) Get(hash meridian.Bytes32) ([]byte, error) {
	if s.cache != nil {
		if blob := s.cache.Get(hash[:]); blob != nil {
			return blob, nil
		}
	}
	data, err := s.store.Get(hash[:])
	if err != nil {
		return nil, err
	}
	blob := data
	if s.compress {
		if blob, err = snappy.Decode(nil, data); err != nil {
			return nil, errors.Wrap(err, "decode node")
		}
	}
	if s.cache != nil {
		s.cache.Add(hash[:], blob, false)
	}
	return blob, nil
}

// Has returns whether the node exists.
func (s *NodeStore) Has(hash meridian.Bytes32) (bool, error) {
	return s.store.Has(hash[:])
}

// IsNotFound returns whether the error is caused by a missing node.
func (s *NodeStore) IsNotFound(err error) bool {
	return s.store.IsNotFound(errors.Cause(err))
}

// NewBulk creates a bulk to write nodes atomically.
func (s *NodeStore) NewBulk() *NodeBulk {
	return &NodeBulk{s: s, bulk: s.store.Bulk()}
}

// NodeBulk collects node blobs and writes them in one batch.
type NodeBulk struct {
	s       *NodeStore
	bulk    kv.Bulk
	pending [][2][]byte
}

// Put adds a node blob.
func (b *NodeBulk) Put(hash meridian.Bytes32, blob []byte) error {
	data := blob
	if b.s.compress {
		data = snappy.Encode(nil, blob)
	}
	if b.s.cache != nil {
		b.pending = append(b.pending, [2][]byte{hash.Bytes(), blob})
	}
	return b.bulk.Put(hash[:], data)
}

// Delete removes a node blob.
func (b *NodeBulk) Delete(hash meridian.Bytes32) error {
	return b.bulk.Delete(hash[:])
}

// Len returns count of pending operations.
func (b *NodeBulk) Len() int {
	return b.bulk.Len()
}

// Write writes all pending nodes.
func (b *NodeBulk) Write() error {
	if err := b.bulk.Write(); err != nil {
		return err
	}
	for _, p := range b.pending {
		b.s.cache.Add(p[0], p[1], true)
	}
	b.pending = nil
	return nil
}
