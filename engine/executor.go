// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package engine

//go:generate mockgen -source executor.go -destination executor_mock.go -package engine

import (
	"math/big"

	"github.com/meridianchain/meridian/auction"
	"github.com/meridianchain/meridian/block"
	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
	"github.com/meridianchain/meridian/trackingcopy"
)

// Outcome of a deploy execution.
type Outcome uint8

const (
	Success Outcome = iota
	Failure
)

func (o Outcome) String() string {
	if o == Success {
		return "success"
	}
	return "failure"
}

// Env is the block context a deploy is executed in.
type Env struct {
	Root            meridian.Bytes32
	BlockTime       meridian.Timestamp
	BlockHeight     uint64
	ProtocolVersion meridian.ProtocolVersion
	Proposer        meridian.PublicKey
}

// ExecutionResult is the result of one deploy. A failed deploy still has
// effects: the payment of its cost.
type ExecutionResult struct {
	Outcome      Outcome
	Effects      *state.Effects
	Transfers    []meridian.Bytes32
	Cost         *big.Int
	ErrorMessage string `rlp:"optional"`
}

// Executor executes a deploy on a tracking copy. A returned error is a
// failure of the executor itself. A failed deploy is a result with the
// Failure outcome.
type Executor interface {
	Exec(env *Env, tc *trackingcopy.TrackingCopy, deploy *block.Deploy) (*ExecutionResult, error)
}

// ValidatorWeightsOracle returns the validator weights of upcoming eras.
type ValidatorWeightsOracle interface {
	GetEraValidators(root meridian.Bytes32) (auction.EraValidators, error)
}
