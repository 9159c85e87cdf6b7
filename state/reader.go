// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/trie"
)

// Reader reads a checked out state root.
type Reader interface {
	// Read returns the value under key. The bool is false when there is none.
	Read(key Key) (StoredValue, bool, error)
	// ReadWithProof returns the value under key with the trie nodes proving it.
	ReadWithProof(key Key) (StoredValue, [][]byte, bool, error)
	// KeysWithPrefix returns all keys whose trie key starts with prefix.
	KeysWithPrefix(prefix []byte) ([]Key, error)
}

// TrieReader reads the state trie at a fixed root.
// It is safe for concurrent use.
type TrieReader struct {
	root meridian.Bytes32
	lock sync.Mutex
	trie *trie.Trie
}

func newTrieReader(root meridian.Bytes32, t *trie.Trie) *TrieReader {
	return &TrieReader{root: root, trie: t}
}

// Root returns the state root being read.
func (r *TrieReader) Root() meridian.Bytes32 { return r.root }

// Read implements Reader.
func (r *TrieReader) Read(key Key) (StoredValue, bool, error) {
	r.lock.Lock()
	data, err := r.trie.Get(key.Bytes())
	r.lock.Unlock()
	if err != nil {
		return nil, false, &Error{err}
	}
	return decodeStored(key, data)
}

// ReadWithProof implements Reader.
func (r *TrieReader) ReadWithProof(key Key) (StoredValue, [][]byte, bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	data, err := r.trie.Get(key.Bytes())
	if err != nil {
		return nil, nil, false, &Error{err}
	}
	proof, err := r.trie.Prove(key.Bytes())
	if err != nil {
		return nil, nil, false, &Error{err}
	}
	v, found, err := decodeStored(key, data)
	if err != nil {
		return nil, nil, false, err
	}
	return v, proof, found, nil
}

// KeysWithPrefix implements Reader.
func (r *TrieReader) KeysWithPrefix(prefix []byte) ([]Key, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	var (
		keys   []Key
		decErr error
	)
	err := r.trie.Iterate(prefix, func(k, _ []byte) bool {
		key, err := KeyFromBytes(k)
		if err != nil {
			decErr = err
			return false
		}
		keys = append(keys, key)
		return true
	})
	if err != nil {
		return nil, &Error{err}
	}
	if decErr != nil {
		return nil, &Error{decErr}
	}
	return keys, nil
}

func decodeStored(key Key, data []byte) (StoredValue, bool, error) {
	if len(data) == 0 {
		return nil, false, nil
	}
	v, err := DecodeValue(data)
	if err != nil {
		return nil, false, &Error{errors.WithMessagef(err, "key %v", key)}
	}
	return v, true, nil
}

// ReadProof verifies proof against root and decodes the proven value.
func ReadProof(root meridian.Bytes32, key Key, proof [][]byte) (StoredValue, bool, error) {
	data, err := trie.VerifyProof(root, key.Bytes(), proof)
	if err != nil {
		return nil, false, err
	}
	return decodeStored(key, data)
}
