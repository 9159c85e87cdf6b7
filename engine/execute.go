// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package engine

import (
	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/block"
	"github.com/meridianchain/meridian/meridian"
)

// ExecuteRequest executes deploys on top of a state root.
type ExecuteRequest struct {
	ParentStateHash meridian.Bytes32
	BlockTime       meridian.Timestamp
	BlockHeight     uint64
	ProtocolVersion meridian.ProtocolVersion
	Proposer        meridian.PublicKey
	Deploys         []*block.Deploy
}

// RunExecute executes the deploys in order, each observing the effects of
// the previous ones, and returns one result per deploy. Nothing is committed.
func (e *EngineState) RunExecute(req *ExecuteRequest) ([]*ExecutionResult, error) {
	tc, err := e.trackingCopy(req.ParentStateHash)
	if err != nil {
		return nil, err
	}
	env := &Env{
		Root:            req.ParentStateHash,
		BlockTime:       req.BlockTime,
		BlockHeight:     req.BlockHeight,
		ProtocolVersion: req.ProtocolVersion,
		Proposer:        req.Proposer,
	}

	results := make([]*ExecutionResult, 0, len(req.Deploys))
	for _, deploy := range req.Deploys {
		fork := tc.Fork()
		result, err := e.executor.Exec(env, fork, deploy)
		if err != nil {
			return nil, errors.WithMessagef(err, "execute deploy %v", deploy.Hash())
		}
		if result.Effects == nil {
			result.Effects = fork.Effects()
		}
		if err := tc.Merge(result.Effects); err != nil {
			return nil, errors.WithMessagef(err, "merge effects of deploy %v", deploy.Hash())
		}
		logger.Trace("deploy executed", "deploy", deploy.Hash(), "outcome", result.Outcome, "cost", result.Cost)
		results = append(results, result)
	}
	return results, nil
}
