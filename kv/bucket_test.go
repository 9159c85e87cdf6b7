// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"bytes"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotFound = errors.New("not found")

type mem map[string]string

func (m mem) Get(k []byte) ([]byte, error) {
	if v, ok := m[string(k)]; ok {
		return []byte(v), nil
	}
	return nil, errNotFound
}

func (m mem) Has(k []byte) (bool, error) {
	_, ok := m[string(k)]
	return ok, nil
}

func (m mem) IsNotFound(err error) bool { return err == errNotFound }

func (m mem) Put(k, v []byte) error {
	m[string(k)] = string(v)
	return nil
}

func (m mem) Delete(k []byte) error {
	delete(m, string(k))
	return nil
}

func (m mem) Bulk() Bulk { return &memBulk{m: m} }

type pair struct{ k, v []byte }

func (p pair) Key() []byte   { return p.k }
func (p pair) Value() []byte { return p.v }

func (m mem) Iterate(r Range, fn func(Pair) bool) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		if bytes.Compare([]byte(k), r.Start) >= 0 && (len(r.Limit) == 0 || bytes.Compare([]byte(k), r.Limit) < 0) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !fn(pair{[]byte(k), []byte(m[k])}) {
			break
		}
	}
	return nil
}

type memBulk struct {
	m   mem
	ops []func()
}

func (b *memBulk) Put(k, v []byte) error {
	b.ops = append(b.ops, func() { b.m[string(k)] = string(v) })
	return nil
}

func (b *memBulk) Delete(k []byte) error {
	b.ops = append(b.ops, func() { delete(b.m, string(k)) })
	return nil
}

func (b *memBulk) Len() int { return len(b.ops) }

func (b *memBulk) Write() error {
	for _, op := range b.ops {
		op()
	}
	b.ops = nil
	return nil
}

func TestBucketGet(t *testing.T) {
	m := mem{"k1": "v1", "k2": "v2"}

	tests := []struct {
		b    Bucket
		key  string
		want string
	}{
		{Bucket(""), "k1", "v1"},
		{Bucket(""), "k2", "v2"},
		{Bucket("k"), "1", "v1"},
		{Bucket("k"), "2", "v2"},
		{Bucket("k1"), "", "v1"},
	}
	for _, tt := range tests {
		got, err := tt.b.NewStore(m).Get([]byte(tt.key))
		assert.NoError(t, err)
		assert.Equal(t, tt.want, string(got))
	}

	store := Bucket("x").NewStore(m)
	_, err := store.Get([]byte("k1"))
	assert.True(t, store.IsNotFound(err))
}

func TestBucketPutAndBulk(t *testing.T) {
	m := mem{}
	store := Bucket("b.").NewStore(m)

	require.NoError(t, store.Put([]byte("a"), []byte("1")))
	assert.Equal(t, "1", m["b.a"])

	bulk := store.Bulk()
	require.NoError(t, bulk.Put([]byte("b"), []byte("2")))
	require.NoError(t, bulk.Delete([]byte("a")))
	assert.Equal(t, 2, bulk.Len())
	_, ok := m["b.b"]
	assert.False(t, ok, "bulk must not write before Write")

	require.NoError(t, bulk.Write())
	assert.Equal(t, mem{"b.b": "2"}, m)

	has, err := store.Has([]byte("b"))
	assert.NoError(t, err)
	assert.True(t, has)
}

func TestBucketPutter(t *testing.T) {
	m := mem{}
	bulk := m.Bulk()
	require.NoError(t, Bucket("x.").NewPutter(bulk).Put([]byte("k"), []byte("1")))
	require.NoError(t, Bucket("y.").NewPutter(bulk).Put([]byte("k"), []byte("2")))
	require.NoError(t, bulk.Write())
	assert.Equal(t, mem{"x.k": "1", "y.k": "2"}, m)
}

func TestBucketIterate(t *testing.T) {
	m := mem{"a1": "x", "b1": "1", "b2": "2", "b3": "3", "c1": "y"}
	store := Bucket("b").NewStore(m)

	var keys []string
	require.NoError(t, store.Iterate(Range{}, func(p Pair) bool {
		keys = append(keys, string(p.Key()))
		return true
	}))
	assert.Equal(t, []string{"1", "2", "3"}, keys)

	keys = nil
	require.NoError(t, store.Iterate(Range{Start: []byte("2"), Limit: []byte("3")}, func(p Pair) bool {
		keys = append(keys, string(p.Key()))
		return true
	}))
	assert.Equal(t, []string{"2"}, keys)

	n := 0
	require.NoError(t, store.Iterate(Range{}, func(Pair) bool {
		n++
		return false
	}))
	assert.Equal(t, 1, n)
}
