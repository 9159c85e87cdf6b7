// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package blocks

import (
	"math/big"

	"github.com/meridianchain/meridian/block"
	"github.com/meridianchain/meridian/contractruntime"
	"github.com/meridianchain/meridian/meridian"
)

// JSONBlock is the JSON form of a block.
type JSONBlock struct {
	Hash             meridian.Bytes32    `json:"hash"`
	ParentHash       meridian.Bytes32    `json:"parentHash"`
	StateRootHash    meridian.Bytes32    `json:"stateRootHash"`
	BodyHash         meridian.Bytes32    `json:"bodyHash"`
	AccumulatedSeed  meridian.Bytes32    `json:"accumulatedSeed"`
	RandomBit        bool                `json:"randomBit"`
	Timestamp        meridian.Timestamp  `json:"timestamp"`
	EraID            meridian.EraID      `json:"eraId"`
	Height           uint64              `json:"height"`
	ProtocolVersion  string              `json:"protocolVersion"`
	Proposer         meridian.PublicKey  `json:"proposer"`
	DeployHashes     []meridian.Bytes32  `json:"deployHashes"`
	TransferHashes   []meridian.Bytes32  `json:"transferHashes"`
	EraEnd           *JSONEraEnd         `json:"eraEnd,omitempty"`
	ExecutionResults []*JSONDeployResult `json:"executionResults,omitempty"`
}

// JSONEraEnd is the era end of a switch block.
type JSONEraEnd struct {
	Equivocators            []meridian.PublicKey          `json:"equivocators"`
	Rewards                 map[meridian.PublicKey]string `json:"rewards"`
	InactiveValidators      []meridian.PublicKey          `json:"inactiveValidators"`
	NextEraValidatorWeights []JSONValidatorWeight         `json:"nextEraValidatorWeights"`
}

type JSONValidatorWeight struct {
	PublicKey meridian.PublicKey `json:"publicKey"`
	Weight    string             `json:"weight"`
}

// JSONDeployResult is the execution result of a deploy.
type JSONDeployResult struct {
	DeployHash   meridian.Bytes32   `json:"deployHash"`
	Account      meridian.PublicKey `json:"account"`
	Outcome      string             `json:"outcome"`
	Cost         string             `json:"cost"`
	Transfers    []meridian.Bytes32 `json:"transfers"`
	Effects      int                `json:"effects"`
	ErrorMessage string             `json:"errorMessage,omitempty"`
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func buildJSONBlock(blk *block.Block) *JSONBlock {
	var (
		header = blk.Header()
		body   = blk.Body()
	)
	jb := &JSONBlock{
		Hash:            header.Hash(),
		ParentHash:      header.ParentHash(),
		StateRootHash:   header.StateRootHash(),
		BodyHash:        header.BodyHash(),
		AccumulatedSeed: header.AccumulatedSeed(),
		RandomBit:       header.RandomBit(),
		Timestamp:       header.Timestamp(),
		EraID:           header.EraID(),
		Height:          header.Height(),
		ProtocolVersion: header.ProtocolVersion().String(),
		Proposer:        body.Proposer,
		DeployHashes:    body.DeployHashes,
		TransferHashes:  body.TransferHashes,
	}
	if eraEnd := header.EraEnd(); eraEnd != nil {
		rewards := make(map[meridian.PublicKey]string, len(eraEnd.Report.Rewards))
		for pk, amount := range eraEnd.Report.Rewards {
			rewards[pk] = bigString(amount)
		}
		weights := make([]JSONValidatorWeight, 0, len(eraEnd.NextEraValidatorWeights))
		for _, w := range eraEnd.NextEraValidatorWeights {
			weights = append(weights, JSONValidatorWeight{PublicKey: w.PublicKey, Weight: bigString(w.Weight)})
		}
		jb.EraEnd = &JSONEraEnd{
			Equivocators:            eraEnd.Report.Equivocators,
			Rewards:                 rewards,
			InactiveValidators:      eraEnd.Report.InactiveValidators,
			NextEraValidatorWeights: weights,
		}
	}
	return jb
}

func buildJSONDeployResults(results []*contractruntime.DeployResult) []*JSONDeployResult {
	jrs := make([]*JSONDeployResult, 0, len(results))
	for _, r := range results {
		jrs = append(jrs, &JSONDeployResult{
			DeployHash:   r.DeployHash,
			Account:      r.Header.Account,
			Outcome:      r.Result.Outcome.String(),
			Cost:         bigString(r.Result.Cost),
			Transfers:    r.Result.Transfers,
			Effects:      r.Result.Effects.Len(),
			ErrorMessage: r.Result.ErrorMessage,
		})
	}
	return jrs
}
