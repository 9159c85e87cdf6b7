// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contractruntime

import (
	"github.com/meridianchain/meridian/auction"
	"github.com/meridianchain/meridian/block"
	"github.com/meridianchain/meridian/engine"
	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
)

// ExecutionPreState is the state the next block is executed on.
type ExecutionPreState struct {
	PreStateRootHash meridian.Bytes32
	ParentHash       meridian.Bytes32
	ParentSeed       meridian.Bytes32
	NextBlockHeight  uint64
}

// PreStateAfter returns the pre-state for the child of the block.
func PreStateAfter(b *block.Block) *ExecutionPreState {
	h := b.Header()
	return &ExecutionPreState{
		PreStateRootHash: h.StateRootHash(),
		ParentHash:       h.Hash(),
		ParentSeed:       h.AccumulatedSeed(),
		NextBlockHeight:  h.Height() + 1,
	}
}

// DeployResult is the execution result of a deploy in a block.
type DeployResult struct {
	DeployHash meridian.Bytes32
	Header     block.DeployHeader
	Result     *engine.ExecutionResult
}

// StepEffectAndUpcomingEraValidators is the outcome of the step of a switch block.
type StepEffectAndUpcomingEraValidators struct {
	StepEffects           *state.Effects
	UpcomingEraValidators auction.EraValidators
}

// BlockAndExecutionEffects is the result of executing a finalized block.
type BlockAndExecutionEffects struct {
	Block                                   *block.Block
	ExecutionResults                        []*DeployResult
	MaybeStepEffectAndUpcomingEraValidators *StepEffectAndUpcomingEraValidators
}
