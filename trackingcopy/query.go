// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trackingcopy

import (
	"github.com/meridianchain/meridian/state"
)

// KeyProof is the proof of the value under a visited key. Proof is nil
// when the value comes from uncommitted changes.
type KeyProof struct {
	Key   state.Key
	Proof [][]byte
}

// QueryResult is the value found by Query and the proofs of each key visited.
type QueryResult struct {
	Value  state.StoredValue
	Proofs []KeyProof
}

// Query starts at baseKey and follows path through the named keys of
// accounts and contracts. CLValues holding a key are followed without
// consuming a path element.
func (tc *TrackingCopy) Query(baseKey state.Key, path []string) (*QueryResult, error) {
	var (
		depth   uint64
		current = baseKey
		visited []string
		proofs  []KeyProof
	)
	for {
		if depth >= tc.maxQueryDepth {
			return nil, &QueryDepthError{Depth: depth}
		}
		v, proof, found, err := tc.ReadWithProof(current)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, &ValueNotFoundError{Key: baseKey, Path: visited}
		}
		proofs = append(proofs, KeyProof{current, proof})

		if len(path) == 0 {
			return &QueryResult{Value: v, Proofs: proofs}, nil
		}

		switch v := v.(type) {
		case *state.Account:
			next, ok := v.NamedKeys.Get(path[0])
			if !ok {
				return nil, &ValueNotFoundError{Key: baseKey, Path: append(visited, path[0]), Msg: "named key not found"}
			}
			visited = append(visited, path[0])
			path = path[1:]
			current = next
		case *state.Contract:
			next, ok := v.NamedKeys.Get(path[0])
			if !ok {
				return nil, &ValueNotFoundError{Key: baseKey, Path: append(visited, path[0]), Msg: "named key not found"}
			}
			visited = append(visited, path[0])
			path = path[1:]
			current = next
		case *state.CLValue:
			if v.Type != state.CLKey {
				return nil, &ValueNotFoundError{Key: baseKey, Path: visited, Msg: "query path is not valid"}
			}
			next, err := v.Key()
			if err != nil {
				return nil, err
			}
			current = next
		default:
			return nil, &ValueNotFoundError{Key: baseKey, Path: visited, Msg: "query path is not valid for " + v.Tag().String()}
		}
		depth++
	}
}
