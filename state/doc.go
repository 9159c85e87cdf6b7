// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the global state trie.
// It follows the flow as bellow:
//
//	  [ tracking copy ]
//	         |
//	[ effects (key -> transform) ]
//	         |
//	 [ stage / commit ] -> [ copy-on-write trie ] -> [ node store ]
//	         |
//	  [ checkout reader ]
//
// Every key of the state lives in a single trie, addressed by Key.Bytes().
// Values are StoredValue variants, encoded as a tagged rlp envelope.
package state
