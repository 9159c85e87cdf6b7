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
)

// Iterate calls fn for every key/value pair whose key starts with prefix,
// in ascending key order. Iteration stops when fn returns false.
// Resolved nodes are not cached back into the trie.
func (t *Trie) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	hexPrefix := keybytesToHex(prefix)
	hexPrefix = hexPrefix[:len(hexPrefix)-1] // strip terminator
	_, err := t.walk(t.root, nil, hexPrefix, fn)
	return err
}

// walk visits n in pre-order. A value stored at a node sorts before all
// of its descendants, so the value slot of a full node is visited first.
func (t *Trie) walk(n node, path, prefix []byte, fn func(key, value []byte) bool) (bool, error) {
	switch n := n.(type) {
	case nil:
		return true, nil
	case valueNode:
		if !bytes.HasPrefix(path, prefix) {
			return true, nil
		}
		return fn(hexToKeybytes(path), n), nil
	case *shortNode:
		p := concat(path, n.Key...)
		if !compatible(p, prefix) {
			return true, nil
		}
		return t.walk(n.Val, p, prefix, fn)
	case *fullNode:
		if n.Children[16] != nil {
			if cont, err := t.walk(n.Children[16], concat(path, 16), prefix, fn); err != nil || !cont {
				return cont, err
			}
		}
		for i := range 16 {
			if n.Children[i] == nil {
				continue
			}
			p := concat(path, byte(i))
			if !compatible(p, prefix) {
				continue
			}
			if cont, err := t.walk(n.Children[i], p, prefix, fn); err != nil || !cont {
				return cont, err
			}
		}
		return true, nil
	case hashNode:
		rn, err := t.resolveHash(n, path)
		if err != nil {
			return false, err
		}
		return t.walk(rn, path, prefix, fn)
	default:
		panic(fmt.Sprintf("%T: invalid node: %v", n, n))
	}
}

// compatible reports whether one of a and b is a prefix of the other.
func compatible(a, b []byte) bool {
	l := min(len(a), len(b))
	return bytes.Equal(a[:l], b[:l])
}
