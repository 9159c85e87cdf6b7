// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package states

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
	"github.com/meridianchain/meridian/trackingcopy"
)

// StoredValue is the JSON form of a stored value. Raw is the canonical
// encoding.
type StoredValue struct {
	Type  string        `json:"type"`
	Value any           `json:"value"`
	Raw   hexutil.Bytes `json:"raw"`
}

// CLValue is the JSON form of a CLValue.
type CLValue struct {
	CLType string        `json:"clType"`
	Bytes  hexutil.Bytes `json:"bytes"`
}

// KeyProof is the merkle proof of a key.
type KeyProof struct {
	Key   state.Key       `json:"key"`
	Proof []hexutil.Bytes `json:"proof"`
}

// QueryResult is the value at the end of a query path and the proofs of
// each record read.
type QueryResult struct {
	Value  *StoredValue `json:"value"`
	Proofs []KeyProof   `json:"proofs"`
}

// Balance is a purse balance with its proofs.
type Balance struct {
	Purse   state.Key  `json:"purse"`
	Balance string     `json:"balance"`
	Proofs  []KeyProof `json:"proofs"`
}

// TrieNode is a raw trie node.
type TrieNode struct {
	Digest meridian.Bytes32 `json:"digest"`
	Node   hexutil.Bytes    `json:"node"`
}

func convertValue(v state.StoredValue) (*StoredValue, error) {
	raw, err := state.EncodeValue(v)
	if err != nil {
		return nil, err
	}
	jv := &StoredValue{
		Type:  v.Tag().String(),
		Value: v,
		Raw:   raw,
	}
	if cl, ok := v.(*state.CLValue); ok {
		jv.Value = &CLValue{CLType: cl.Type.String(), Bytes: cl.Bytes}
	}
	return jv, nil
}

func convertValues(values []state.StoredValue) ([]*StoredValue, error) {
	jvs := make([]*StoredValue, 0, len(values))
	for _, v := range values {
		jv, err := convertValue(v)
		if err != nil {
			return nil, err
		}
		jvs = append(jvs, jv)
	}
	return jvs, nil
}

func convertProofs(proofs []trackingcopy.KeyProof) []KeyProof {
	jps := make([]KeyProof, 0, len(proofs))
	for _, p := range proofs {
		nodes := make([]hexutil.Bytes, 0, len(p.Proof))
		for _, n := range p.Proof {
			nodes = append(nodes, n)
		}
		jps = append(jps, KeyProof{Key: p.Key, Proof: nodes})
	}
	return jps
}
