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
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

var indices = []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "a", "b", "c", "d", "e", "f", "[17]"}

type node interface {
	fstring(string) string
	cache() (hashNode, bool)
}

type (
	fullNode struct {
		Children [17]node // Actual trie node data to encode/decode (needs custom encoder)
		flags    nodeFlag
	}
	shortNode struct {
		Key   []byte
		Val   node
		flags nodeFlag
	}
	hashNode  []byte
	valueNode []byte
)

// EncodeRLP encodes a collapsed full node. Children are hashes, so the
// encoding is always a list of 17 strings.
func (n *fullNode) EncodeRLP(w io.Writer) error {
	var items [17][]byte
	for i, child := range &n.Children {
		switch c := child.(type) {
		case nil:
		case hashNode:
			items[i] = c
		case valueNode:
			items[i] = c
		default:
			return errors.Errorf("trie: unexpected child type %T in collapsed node", child)
		}
	}
	return rlp.Encode(w, items[:])
}

// EncodeRLP encodes a collapsed short node as [compactKey, hashOrValue].
func (n *shortNode) EncodeRLP(w io.Writer) error {
	var val []byte
	switch v := n.Val.(type) {
	case hashNode:
		val = v
	case valueNode:
		val = v
	default:
		return errors.Errorf("trie: unexpected child type %T in collapsed node", n.Val)
	}
	return rlp.Encode(w, [][]byte{n.Key, val})
}

func (n *fullNode) copy() *fullNode   { copy := *n; return &copy }
func (n *shortNode) copy() *shortNode { copy := *n; return &copy }

// nodeFlag contains caching-related metadata about a node.
type nodeFlag struct {
	hash  hashNode // cached hash of the node (may be nil)
	dirty bool     // whether the node has changes that must be written to the database
}

func (n *fullNode) cache() (hashNode, bool)  { return n.flags.hash, n.flags.dirty }
func (n *shortNode) cache() (hashNode, bool) { return n.flags.hash, n.flags.dirty }
func (n hashNode) cache() (hashNode, bool)   { return nil, true }
func (n valueNode) cache() (hashNode, bool)  { return nil, true }

// Pretty printing.
func (n *fullNode) String() string  { return n.fstring("") }
func (n *shortNode) String() string { return n.fstring("") }
func (n hashNode) String() string   { return n.fstring("") }
func (n valueNode) String() string  { return n.fstring("") }

func (n *fullNode) fstring(ind string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[\n%s  ", ind)
	for i, node := range &n.Children {
		if node == nil {
			fmt.Fprintf(&b, "%s: <nil> ", indices[i])
		} else {
			fmt.Fprintf(&b, "%s: %v", indices[i], node.fstring(ind+"  "))
		}
	}
	fmt.Fprintf(&b, "\n%s] ", ind)
	return b.String()
}
func (n *shortNode) fstring(ind string) string {
	return fmt.Sprintf("{%x: %v} ", n.Key, n.Val.fstring(ind+"  "))
}
func (n hashNode) fstring(ind string) string {
	return fmt.Sprintf("<%x> ", []byte(n))
}
func (n valueNode) fstring(ind string) string {
	return fmt.Sprintf("%x ", []byte(n))
}

func mustDecodeNode(hash, buf []byte) node {
	n, err := decodeNode(hash, buf)
	if err != nil {
		panic(fmt.Sprintf("node %x: %v", hash, err))
	}
	return n
}

// decodeNode parses the RLP encoding of a trie node.
func decodeNode(hash, buf []byte) (node, error) {
	if len(buf) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	var items [][]byte
	if err := rlp.DecodeBytes(buf, &items); err != nil {
		return nil, errors.Wrap(err, "decode node")
	}
	flag := nodeFlag{hash: hash}
	switch len(items) {
	case 2:
		key := compactToHex(items[0])
		if len(key) == 0 {
			return nil, errors.New("decode short node: empty key")
		}
		if hasTerm(key) {
			return &shortNode{key, valueNode(items[1]), flag}, nil
		}
		if len(items[1]) != 32 {
			return nil, errors.Errorf("decode short node: invalid child hash length %d", len(items[1]))
		}
		return &shortNode{key, hashNode(items[1]), flag}, nil
	case 17:
		n := &fullNode{flags: flag}
		for i := range 16 {
			switch len(items[i]) {
			case 0:
			case 32:
				n.Children[i] = hashNode(items[i])
			default:
				return nil, errors.Errorf("decode full node: invalid child hash length %d at %d", len(items[i]), i)
			}
		}
		if len(items[16]) > 0 {
			n.Children[16] = valueNode(items[16])
		}
		return n, nil
	default:
		return nil, errors.Errorf("decode node: invalid number of list elements: %v", len(items))
	}
}
