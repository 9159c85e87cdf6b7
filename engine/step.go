// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package engine

import (
	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/auction"
	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
)

// StepRequest ends an era on top of a state root.
type StepRequest struct {
	PreStateHash    meridian.Bytes32
	ProtocolVersion meridian.ProtocolVersion
	RewardItems     []auction.RewardItem
	SlashItems      []meridian.PublicKey
	EvictItems      []meridian.PublicKey
	NextEraID       meridian.EraID
	EraEndTimestamp meridian.Timestamp
}

// StepSuccess is the result of a committed step.
type StepSuccess struct {
	PostStateHash meridian.Bytes32
	Effects       *state.Effects
}

// StepError names the step phase that failed.
type StepError struct {
	Phase string
	Err   error
}

func (e *StepError) Error() string {
	return "step " + e.Phase + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error { return e.Err }

// CommitStep runs the auction step on top of the pre-state root and commits
// its effects.
func (e *EngineState) CommitStep(req *StepRequest) (*StepSuccess, error) {
	tc, err := e.trackingCopy(req.PreStateHash)
	if err != nil {
		return nil, &StepError{"checkout", err}
	}
	a, err := auction.New(tc)
	if err != nil {
		return nil, &StepError{"load auction", err}
	}
	if err := a.Step(&auction.StepInput{
		RewardItems:     req.RewardItems,
		SlashItems:      req.SlashItems,
		EvictItems:      req.EvictItems,
		NextEraID:       req.NextEraID,
		EraEndTimestamp: req.EraEndTimestamp,
	}); err != nil {
		return nil, &StepError{"auction", err}
	}

	effects := tc.Effects()
	post, err := e.provider.CommitEffects(req.PreStateHash, effects)
	if err != nil {
		return nil, &StepError{"commit", errors.WithMessage(err, "commit step effects")}
	}
	logger.Debug("step committed", "nextEra", req.NextEraID, "root", post, "effects", effects.Len())
	return &StepSuccess{PostStateHash: post, Effects: effects}, nil
}
