// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.
package trie

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianchain/meridian/meridian"
)

type memDB map[meridian.Bytes32][]byte

var errNotFound = errors.New("not found")

func (db memDB) Get(hash meridian.Bytes32) ([]byte, error) {
	if blob, ok := db[hash]; ok {
		return blob, nil
	}
	return nil, errNotFound
}

func (db memDB) Put(hash meridian.Bytes32, blob []byte) error {
	db[hash] = bytes.Clone(blob)
	return nil
}

func TestEmptyTrie(t *testing.T) {
	var trie Trie
	assert.Equal(t, emptyRoot, trie.Hash())
	assert.Equal(t, emptyRoot, EmptyRoot())

	trie2 := New(meridian.Bytes32{}, nil)
	assert.Equal(t, emptyRoot, trie2.Hash())

	db := memDB{}
	root, err := trie.Commit(db)
	require.NoError(t, err)
	assert.Equal(t, emptyRoot, root)
	assert.Empty(t, db, "committing an empty trie writes nothing")
}

func TestMissingRoot(t *testing.T) {
	trie := New(meridian.Blake2b([]byte("nope")), memDB{})
	_, err := trie.Get([]byte("key"))
	var missing *MissingNodeError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, meridian.Blake2b([]byte("nope")), missing.NodeHash)
	assert.ErrorIs(t, err, errNotFound)
}

func TestInsertGetDelete(t *testing.T) {
	trie := new(Trie)
	updateString(trie, "doe", "reindeer")
	updateString(trie, "dog", "puppy")
	updateString(trie, "dogglesworth", "cat")

	assert.Equal(t, "puppy", getString(trie, "dog"))
	assert.Equal(t, "cat", getString(trie, "dogglesworth"))
	assert.Equal(t, "", getString(trie, "unknown"))
	assert.Equal(t, "", getString(trie, "do"))

	require.NoError(t, trie.Delete([]byte("dog")))
	assert.Equal(t, "", getString(trie, "dog"))
	assert.Equal(t, "cat", getString(trie, "dogglesworth"))

	// deleting a missing key is a no-op
	before := trie.Hash()
	require.NoError(t, trie.Delete([]byte("missing")))
	assert.Equal(t, before, trie.Hash())
}

func TestDeleteRestoresRoot(t *testing.T) {
	trie := new(Trie)
	updateString(trie, "alpha", "1")
	updateString(trie, "beta", "2")
	root := trie.Hash()

	updateString(trie, "alphabet", "3")
	updateString(trie, "gamma", "4")
	assert.NotEqual(t, root, trie.Hash())

	require.NoError(t, trie.Delete([]byte("alphabet")))
	require.NoError(t, trie.Delete([]byte("gamma")))
	assert.Equal(t, root, trie.Hash())

	require.NoError(t, trie.Delete([]byte("alpha")))
	require.NoError(t, trie.Delete([]byte("beta")))
	assert.Equal(t, emptyRoot, trie.Hash())
}

func TestHashIndependentOfOrder(t *testing.T) {
	kvs := randomPairs(200)

	a := new(Trie)
	for _, kv := range kvs {
		require.NoError(t, a.Update(kv[0], kv[1]))
	}

	b := new(Trie)
	perm := rand.Perm(len(kvs))
	for _, i := range perm {
		require.NoError(t, b.Update(kvs[i][0], kvs[i][1]))
	}
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestCommitAndReload(t *testing.T) {
	db := memDB{}
	kvs := randomPairs(300)

	trie := New(meridian.Bytes32{}, db)
	for _, kv := range kvs {
		require.NoError(t, trie.Update(kv[0], kv[1]))
	}
	hash := trie.Hash()
	root, err := trie.Commit(db)
	require.NoError(t, err)
	assert.Equal(t, hash, root)

	// every stored blob is addressed by its own hash
	for h, blob := range db {
		assert.Equal(t, h, meridian.Blake2b(blob))
	}

	reloaded := New(root, db)
	for _, kv := range kvs {
		v, err := reloaded.Get(kv[0])
		require.NoError(t, err)
		assert.Equal(t, kv[1], v)
	}
	assert.Equal(t, root, reloaded.Hash())

	// committing again without changes writes nothing new
	n := len(db)
	root2, err := trie.Commit(db)
	require.NoError(t, err)
	assert.Equal(t, root, root2)
	assert.Equal(t, n, len(db))
}

func TestCopyOnWrite(t *testing.T) {
	db := memDB{}
	trie := New(meridian.Bytes32{}, db)
	updateString(trie, "key1", "v1")
	updateString(trie, "key2", "v2")
	root, err := trie.Commit(db)
	require.NoError(t, err)

	cpy := trie.Copy()
	updateString(cpy, "key1", "changed")
	require.NoError(t, cpy.Delete([]byte("key2")))

	assert.Equal(t, "v1", getString(trie, "key1"))
	assert.Equal(t, "v2", getString(trie, "key2"))
	assert.Equal(t, root, trie.Hash())

	root2, err := cpy.Commit(db)
	require.NoError(t, err)
	assert.NotEqual(t, root, root2)

	// both versions stay readable from the store
	assert.Equal(t, "v2", getString(New(root, db), "key2"))
	assert.Equal(t, "", getString(New(root2, db), "key2"))
}

func TestSameValueUpdateKeepsRoot(t *testing.T) {
	trie := new(Trie)
	updateString(trie, "k", "v")
	root := trie.Hash()
	updateString(trie, "k", "v")
	assert.Equal(t, root, trie.Hash())
}

func TestIterate(t *testing.T) {
	db := memDB{}
	trie := New(meridian.Bytes32{}, db)
	keys := []string{"a", "ab", "abc", "b", "ba", "c", "\x00", "\xff\xff"}
	for _, k := range keys {
		updateString(trie, k, "v-"+k)
	}
	root, err := trie.Commit(db)
	require.NoError(t, err)

	collect := func(tr *Trie, prefix string) []string {
		var got []string
		require.NoError(t, tr.Iterate([]byte(prefix), func(k, v []byte) bool {
			assert.Equal(t, "v-"+string(k), string(v))
			got = append(got, string(k))
			return true
		}))
		return got
	}

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	// in memory and reloaded from the store
	for _, tr := range []*Trie{trie, New(root, db)} {
		assert.Equal(t, sorted, collect(tr, ""))
		assert.Equal(t, []string{"a", "ab", "abc"}, collect(tr, "a"))
		assert.Equal(t, []string{"ab", "abc"}, collect(tr, "ab"))
		assert.Equal(t, []string{"b", "ba"}, collect(tr, "b"))
		assert.Empty(t, collect(tr, "d"))
	}

	var n int
	require.NoError(t, trie.Iterate(nil, func(_, _ []byte) bool {
		n++
		return n < 3
	}))
	assert.Equal(t, 3, n)
}

func TestProof(t *testing.T) {
	db := memDB{}
	trie := New(meridian.Bytes32{}, db)
	kvs := randomPairs(100)
	for _, kv := range kvs {
		require.NoError(t, trie.Update(kv[0], kv[1]))
	}
	root, err := trie.Commit(db)
	require.NoError(t, err)

	for _, tr := range []*Trie{trie, New(root, db)} {
		for _, kv := range kvs {
			proof, err := tr.Prove(kv[0])
			require.NoError(t, err)
			require.NotEmpty(t, proof)
			v, err := VerifyProof(root, kv[0], proof)
			require.NoError(t, err)
			assert.Equal(t, kv[1], v)
		}
	}

	// absence proof
	missing := []byte("definitely-not-a-key-in-the-trie")
	proof, err := trie.Prove(missing)
	require.NoError(t, err)
	v, err := VerifyProof(root, missing, proof)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestBadProof(t *testing.T) {
	trie := new(Trie)
	kvs := randomPairs(50)
	for _, kv := range kvs {
		require.NoError(t, trie.Update(kv[0], kv[1]))
	}
	root := trie.Hash()

	proof, err := trie.Prove(kvs[0][0])
	require.NoError(t, err)

	// drop the root node
	_, err = VerifyProof(root, kvs[0][0], proof[1:])
	assert.Error(t, err)

	// tamper with the leaf
	tampered := make([][]byte, len(proof))
	copy(tampered, proof)
	last := bytes.Clone(tampered[len(tampered)-1])
	last[len(last)-1] ^= 0xff
	tampered[len(tampered)-1] = last
	_, err = VerifyProof(root, kvs[0][0], tampered)
	assert.Error(t, err)
}

func TestCompactEncoding(t *testing.T) {
	tests := []struct{ hex, compact []byte }{
		// empty keys, with and without terminator.
		{hex: []byte{}, compact: []byte{0x00}},
		{hex: []byte{16}, compact: []byte{0x20}},
		// odd length, no terminator
		{hex: []byte{1, 2, 3, 4, 5}, compact: []byte{0x11, 0x23, 0x45}},
		// even length, no terminator
		{hex: []byte{0, 1, 2, 3, 4, 5}, compact: []byte{0x00, 0x01, 0x23, 0x45}},
		// odd length, terminator
		{hex: []byte{15, 1, 12, 11, 8, 16}, compact: []byte{0x3f, 0x1c, 0xb8}},
		// even length, terminator
		{hex: []byte{0, 15, 1, 12, 11, 8, 16}, compact: []byte{0x20, 0x0f, 0x1c, 0xb8}},
	}
	for _, test := range tests {
		assert.Equal(t, test.compact, hexToCompact(test.hex), "hexToCompact(%x)", test.hex)
		assert.Equal(t, test.hex, compactToHex(test.compact), "compactToHex(%x)", test.compact)
	}
}

func TestHexKeybytes(t *testing.T) {
	for _, key := range [][]byte{{}, {0x12, 0x34, 0x56}, {0x12, 0x34, 0x5}} {
		assert.Equal(t, key, hexToKeybytes(keybytesToHex(key)))
	}
}

func TestDecodeNodeErrors(t *testing.T) {
	_, err := decodeNode(nil, nil)
	assert.Error(t, err)
	_, err = decodeNode(nil, []byte{0xc0})
	assert.Error(t, err)
}

func randomPairs(n int) [][2][]byte {
	kvs := make([][2][]byte, 0, n)
	seen := make(map[string]bool)
	for len(kvs) < n {
		k := fmt.Appendf(nil, "key-%d", rand.IntN(1_000_000))
		if seen[string(k)] {
			continue
		}
		seen[string(k)] = true
		kvs = append(kvs, [2][]byte{k, fmt.Appendf(nil, "value-%d", len(kvs))})
	}
	return kvs
}

func updateString(trie *Trie, k, v string) {
	if err := trie.Update([]byte(k), []byte(v)); err != nil {
		panic(err)
	}
}

func getString(trie *Trie, k string) string {
	v, err := trie.Get([]byte(k))
	if err != nil {
		panic(err)
	}
	return string(v)
}
