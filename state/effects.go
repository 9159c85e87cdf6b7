// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"encoding/json"
	"io"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// Effects maps keys to transforms. Iteration is ordered by the trie key.
// A nil *Effects is empty.
type Effects struct {
	m map[Key]Transform
}

// NewEffects creates an empty effects set.
func NewEffects() *Effects {
	return &Effects{m: make(map[Key]Transform)}
}

// Len returns the number of keys.
func (e *Effects) Len() int {
	if e == nil {
		return 0
	}
	return len(e.m)
}

// Get returns the transform of the key.
func (e *Effects) Get(key Key) (Transform, bool) {
	if e == nil {
		return Transform{}, false
	}
	t, ok := e.m[key]
	return t, ok
}

// Set replaces the transform of the key.
func (e *Effects) Set(key Key, t Transform) {
	e.m[key] = t
}

// Add composes t after the current transform of the key.
func (e *Effects) Add(key Key, t Transform) {
	if prev, ok := e.m[key]; ok {
		e.m[key] = Compose(prev, t)
		return
	}
	e.m[key] = t
}

// Append composes every transform of other after the ones in e.
func (e *Effects) Append(other *Effects) {
	other.Range(func(k Key, t Transform) bool {
		e.Add(k, t)
		return true
	})
}

// Keys returns all keys in order.
func (e *Effects) Keys() []Key {
	if e == nil {
		return nil
	}
	keys := make([]Key, 0, len(e.m))
	for k := range e.m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, CompareKeys)
	return keys
}

// Range calls fn for every key in order until fn returns false.
func (e *Effects) Range(fn func(Key, Transform) bool) {
	for _, k := range e.Keys() {
		if !fn(k, e.m[k]) {
			return
		}
	}
}

// Copy returns a copy of the effects set.
func (e *Effects) Copy() *Effects {
	cpy := NewEffects()
	if e != nil {
		for k, t := range e.m {
			cpy.m[k] = t
		}
	}
	return cpy
}

type effectEntry struct {
	Key       Key
	Transform Transform
}

// EncodeRLP implements rlp.Encoder.
func (e *Effects) EncodeRLP(w io.Writer) error {
	entries := make([]effectEntry, 0, e.Len())
	e.Range(func(k Key, t Transform) bool {
		entries = append(entries, effectEntry{k, t})
		return true
	})
	return rlp.Encode(w, entries)
}

// DecodeRLP implements rlp.Decoder.
func (e *Effects) DecodeRLP(s *rlp.Stream) error {
	var entries []effectEntry
	if err := s.Decode(&entries); err != nil {
		return err
	}
	e.m = make(map[Key]Transform, len(entries))
	for _, entry := range entries {
		e.m[entry.Key] = entry.Transform
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (e *Effects) MarshalJSON() ([]byte, error) {
	type jsonEffect struct {
		Key       Key    `json:"key"`
		Transform string `json:"transform"`
	}
	entries := make([]jsonEffect, 0, e.Len())
	e.Range(func(k Key, t Transform) bool {
		entries = append(entries, jsonEffect{k, t.String()})
		return true
	})
	return json.Marshal(entries)
}

type transformRLP struct {
	Kind      TransformKind
	Value     []byte
	I64       uint64
	U64       uint64
	U256      *uint256.Int
	U512      *big.Int
	NamedKeys NamedKeys
	Err       string
}

// EncodeRLP implements rlp.Encoder.
func (t Transform) EncodeRLP(w io.Writer) error {
	obj := transformRLP{
		Kind:      t.kind,
		I64:       uint64(t.i64),
		U64:       t.u64,
		U256:      new(uint256.Int),
		U512:      new(big.Int),
		NamedKeys: t.namedKeys,
		Err:       t.err,
	}
	if t.u256 != nil {
		obj.U256 = t.u256
	}
	if t.u512 != nil {
		obj.U512 = t.u512
	}
	if t.kind == KindWrite {
		enc, err := EncodeValue(t.value)
		if err != nil {
			return err
		}
		obj.Value = enc
	}
	return rlp.Encode(w, &obj)
}

// DecodeRLP implements rlp.Decoder.
func (t *Transform) DecodeRLP(s *rlp.Stream) error {
	var obj transformRLP
	if err := s.Decode(&obj); err != nil {
		return err
	}
	*t = Transform{kind: obj.Kind, err: obj.Err}
	switch obj.Kind {
	case KindWrite:
		v, err := DecodeValue(obj.Value)
		if err != nil {
			return err
		}
		t.value = v
	case KindAddInt64:
		t.i64 = int64(obj.I64)
	case KindAddUint64:
		t.u64 = obj.U64
	case KindAddUint256:
		t.u256 = obj.U256
	case KindAddUint512:
		t.u512 = obj.U512
	case KindAddKeys:
		t.namedKeys = obj.NamedKeys
	}
	return nil
}
