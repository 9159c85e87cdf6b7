// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package muxdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianchain/meridian/kv"
	"github.com/meridianchain/meridian/meridian"
)

func TestMuxdbOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.db")
	opts := Options{
		NodeCacheSizeMB:        16,
		CompressNodes:          true,
		OpenFilesCacheCapacity: 64,
		ReadCacheMB:            16,
		WriteBufferMB:          4,
	}
	db, err := Open(path, &opts)
	require.NoError(t, err)

	store := db.NewStore("test")
	require.NoError(t, store.Put([]byte("k"), []byte("v")))
	require.NoError(t, db.Flush())
	require.NoError(t, db.Close())

	// reopen with different compress option, stored config wins
	opts.CompressNodes = false
	db, err = Open(path, &opts)
	require.NoError(t, err)
	defer db.Close()
	assert.True(t, db.Nodes().compress)

	v, err := db.NewStore("test").Get([]byte("k"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestNamedStoresAreIsolated(t *testing.T) {
	db := NewMem()
	defer db.Close()

	s1 := db.NewStore("a")
	s2 := db.NewStore("b")
	require.NoError(t, s1.Put([]byte("k"), []byte("1")))

	_, err := s2.Get([]byte("k"))
	assert.True(t, s2.IsNotFound(err))
	assert.True(t, db.IsNotFound(err))

	var n int
	require.NoError(t, s1.Iterate(kv.Range{}, func(p kv.Pair) bool {
		assert.Equal(t, []byte("k"), p.Key())
		n++
		return true
	}))
	assert.Equal(t, 1, n)
}

func TestNodeStore(t *testing.T) {
	for _, withCache := range []bool{false, true} {
		db := NewMem()
		if withCache {
			db.nodes.cache = newNodeCache(1)
		}
		nodes := db.Nodes()

		blob := []byte("some node blob some node blob some node blob")
		hash := meridian.Blake2b(blob)

		has, err := nodes.Has(hash)
		require.NoError(t, err)
		assert.False(t, has)

		_, err = nodes.Get(hash)
		assert.True(t, nodes.IsNotFound(err))

		bulk := nodes.NewBulk()
		require.NoError(t, bulk.Put(hash, blob))
		assert.Equal(t, 1, bulk.Len())
		require.NoError(t, bulk.Write())

		got, err := nodes.Get(hash)
		require.NoError(t, err)
		assert.Equal(t, blob, got)

		// twice to hit the cache
		got, err = nodes.Get(hash)
		require.NoError(t, err)
		assert.Equal(t, blob, got)

		bulk = nodes.NewBulk()
		require.NoError(t, bulk.Delete(hash))
		require.NoError(t, bulk.Write())
		has, err = nodes.Has(hash)
		require.NoError(t, err)
		assert.False(t, has)
		db.Close()
	}
}

func TestConfigLoadSave(t *testing.T) {
	db := NewMem()
	defer db.Close()

	store := db.NewStore(propStoreName)

	cfg := config{Format: currentFormat, CompressNodes: true}
	require.NoError(t, cfg.LoadOrSave(store))

	cfg2 := config{Format: currentFormat}
	require.NoError(t, cfg2.LoadOrSave(store))
	assert.Equal(t, cfg, cfg2)

	require.NoError(t, store.Put([]byte(configKey), []byte(`{"Format":99}`)))
	assert.Error(t, cfg2.LoadOrSave(store))
}
