// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/meridianchain/meridian/block"
	"github.com/meridianchain/meridian/contractruntime"
	"github.com/meridianchain/meridian/kv"
	"github.com/meridianchain/meridian/meridian"
)

func heightKey(height uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, height)
}

func saveRLP(w kv.Putter, key []byte, val any) error {
	data, err := rlp.EncodeToBytes(val)
	if err != nil {
		return err
	}
	return w.Put(key, data)
}

func loadRLP(r kv.Getter, key []byte, val any) error {
	data, err := r.Get(key)
	if err != nil {
		return err
	}
	return rlp.DecodeBytes(data, val)
}

func loadBlock(r kv.Getter, hash meridian.Bytes32) (*block.Block, error) {
	var dec block.Decoder
	if err := loadRLP(r, hash[:], &dec); err != nil {
		return nil, err
	}
	return dec.Result, nil
}

func loadBlockHash(r kv.Getter, height uint64) (meridian.Bytes32, error) {
	data, err := r.Get(heightKey(height))
	if err != nil {
		return meridian.Bytes32{}, err
	}
	return meridian.BytesToBytes32(data), nil
}

func loadResults(r kv.Getter, hash meridian.Bytes32) ([]*contractruntime.DeployResult, error) {
	var results []*contractruntime.DeployResult
	if err := loadRLP(r, hash[:], &results); err != nil {
		return nil, err
	}
	return results, nil
}

func loadPreState(r kv.Getter) (*contractruntime.ExecutionPreState, error) {
	var preState contractruntime.ExecutionPreState
	if err := loadRLP(r, preStateKey, &preState); err != nil {
		return nil, err
	}
	return &preState, nil
}
