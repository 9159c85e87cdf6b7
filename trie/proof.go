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
	"fmt"

	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/meridian"
)

// Prove constructs a merkle proof for key. The result contains all encoded nodes
// on the path to the value at key. The value itself is also included in the last
// node and can be retrieved by verifying the proof.
//
// If the trie does not contain a value for key, the returned proof contains all
// nodes of the longest existing prefix of the key (at least the root node), ending
// with the node that proves the absence of the key.
func (t *Trie) Prove(key []byte) ([][]byte, error) {
	// make sure every in-memory node carries its hash
	t.Hash()

	var (
		proof [][]byte
		h     = newHasher()
		tn    = t.root
		nib   = keybytesToHex(key)
		pos   = 0
	)
	for tn != nil {
		switch n := tn.(type) {
		case hashNode:
			rn, err := t.resolveHash(n, nib[:pos])
			if err != nil {
				return nil, err
			}
			tn = rn
			continue
		case valueNode:
			tn = nil
			continue
		}

		collapsed, _, err := h.hashChildren(tn, nil)
		if err != nil {
			return nil, err
		}
		enc, err := h.encode(collapsed)
		if err != nil {
			return nil, err
		}
		proof = append(proof, enc)

		switch n := tn.(type) {
		case *shortNode:
			if len(nib)-pos < len(n.Key) || !bytesEqual(n.Key, nib[pos:pos+len(n.Key)]) {
				tn = nil
			} else {
				tn = n.Val
				pos += len(n.Key)
			}
		case *fullNode:
			tn = n.Children[nib[pos]]
			pos++
		default:
			panic(fmt.Sprintf("%T: invalid node: %v", tn, tn))
		}
	}
	return proof, nil
}

// VerifyProof checks merkle proofs. The given proof must contain the value for
// key in a trie with the given root hash. VerifyProof returns an error if the
// proof contains invalid trie nodes or the wrong value. A nil value with a nil
// error proves the absence of key.
func VerifyProof(root meridian.Bytes32, key []byte, proof [][]byte) ([]byte, error) {
	if root == emptyRoot || root.IsZero() {
		return nil, nil
	}
	nodes := make(map[meridian.Bytes32][]byte, len(proof))
	for _, blob := range proof {
		nodes[meridian.Blake2b(blob)] = blob
	}

	key = keybytesToHex(key)
	wantHash := root
	for i := 0; ; i++ {
		buf, ok := nodes[wantHash]
		if !ok {
			return nil, errors.Errorf("proof node %d (hash %v) missing", i, wantHash)
		}
		n, err := decodeNode(wantHash.Bytes(), buf)
		if err != nil {
			return nil, errors.Wrapf(err, "bad proof node %d", i)
		}
		keyrest, cld := get(n, key)
		switch cld := cld.(type) {
		case nil:
			// The trie doesn't contain the key.
			return nil, nil
		case hashNode:
			key = keyrest
			wantHash = meridian.BytesToBytes32(cld)
		case valueNode:
			return cld, nil
		}
	}
}

func get(tn node, key []byte) ([]byte, node) {
	for {
		switch n := tn.(type) {
		case *shortNode:
			if len(key) < len(n.Key) || !bytesEqual(n.Key, key[:len(n.Key)]) {
				return nil, nil
			}
			tn = n.Val
			key = key[len(n.Key):]
		case *fullNode:
			tn = n.Children[key[0]]
			key = key[1:]
		case hashNode:
			return key, n
		case nil:
			return key, nil
		case valueNode:
			return nil, n
		default:
			panic(fmt.Sprintf("%T: invalid node: %v", tn, tn))
		}
	}
}

func bytesEqual(a, b []byte) bool { return string(a) == string(b) }
