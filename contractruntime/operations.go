// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package contractruntime executes finalized blocks: deploys in order on a
// scratch state, the era step of switch blocks, one durable commit and the
// gradual purge of historical era info.
package contractruntime

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/mclock"
	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/auction"
	"github.com/meridianchain/meridian/block"
	"github.com/meridianchain/meridian/engine"
	"github.com/meridianchain/meridian/log"
	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
)

var logger = log.WithContext("pkg", "contractruntime")

func stageErr(stage Stage, err error) error {
	return &BlockExecutionError{Stage: stage, Err: err}
}

// ExecuteFinalizedBlock executes the deploys then the transfers of the
// finalized block on top of the pre-state, runs the era step if the block
// carries an era report, writes everything to the durable store in one
// commit, purges a batch of historical era info and assembles the block.
//
// activationHeight is the height of the first block of the activation era,
// nil if unknown.
func ExecuteFinalizedBlock(
	eng *engine.EngineState,
	m *Metrics,
	protocolVersion meridian.ProtocolVersion,
	preState *ExecutionPreState,
	fb *block.FinalizedBlock,
	deploys []*block.Deploy,
	transfers []*block.Deploy,
	activationPoint ActivationPoint,
	activationHeight *uint64,
	purgeBatchSize uint64,
) (*BlockAndExecutionEffects, error) {
	if fb.Height != preState.NextBlockHeight {
		return nil, stageErr(StageValidate, &WrongBlockHeightError{Expected: preState.NextBlockHeight, Got: fb.Height})
	}
	if err := checkHashes(fb.DeployHashes, deploys); err != nil {
		return nil, stageErr(StageValidate, errors.WithMessage(err, "deploys"))
	}
	if err := checkHashes(fb.TransferHashes, transfers); err != nil {
		return nil, stageErr(StageValidate, errors.WithMessage(err, "transfers"))
	}

	startTime := mclock.Now()
	scratch := eng.Scratch()
	root := preState.PreStateRootHash

	results := make([]*DeployResult, 0, len(deploys)+len(transfers))
	for _, d := range append(append([]*block.Deploy(nil), deploys...), transfers...) {
		t := mclock.Now()
		execResults, err := scratch.RunExecute(&engine.ExecuteRequest{
			ParentStateHash: root,
			BlockTime:       fb.Timestamp,
			BlockHeight:     fb.Height,
			ProtocolVersion: protocolVersion,
			Proposer:        fb.Proposer,
			Deploys:         []*block.Deploy{d},
		})
		if err != nil {
			return nil, stageErr(StageExecute, err)
		}
		if m != nil {
			m.RunExecute.Observe(elapsedMs(t))
		}
		switch {
		case len(execResults) > 1:
			return nil, stageErr(StageExecute, ErrMoreThanOneExecutionResult)
		case len(execResults) == 0:
			return nil, stageErr(StageExecute, errors.Errorf("no execution result for deploy %v", d.Hash()))
		}
		result := execResults[0]

		t = mclock.Now()
		if root, err = scratch.ApplyEffect(root, result.Effects); err != nil {
			return nil, stageErr(StageCommit, err)
		}
		if m != nil {
			m.ApplyEffect.Observe(elapsedMs(t))
		}
		m.countDeploy(result.Outcome.String())

		results = append(results, &DeployResult{
			DeployHash: d.Hash(),
			Header:     d.Header(),
			Result:     result,
		})
	}

	var (
		stepOutcome    *StepEffectAndUpcomingEraValidators
		nextEraWeights block.ValidatorWeights
	)
	if fb.EraReport != nil {
		t := mclock.Now()
		nextEra := fb.EraID.Successor()
		step, err := commitStep(scratch, protocolVersion, root, fb.EraReport, fb.Timestamp, nextEra)
		if err != nil {
			return nil, stageErr(StageStep, err)
		}
		if m != nil {
			ms := elapsedMs(t)
			m.CommitStep.Observe(ms)
			m.setLatestCommitStep(ms)
		}
		root = step.PostStateHash

		upcoming, err := scratch.GetEraValidators(root)
		if err != nil {
			return nil, stageErr(StageStep, errors.WithMessage(err, "get era validators"))
		}
		nextEraWeights = upcoming[nextEra]
		stepOutcome = &StepEffectAndUpcomingEraValidators{
			StepEffects:           step.Effects,
			UpcomingEraValidators: upcoming,
		}
	}

	// a zero root means nothing was committed to the scratch state
	finalRoot, err := eng.WriteScratchToDB(scratch)
	if err != nil {
		return nil, stageErr(StageFlush, err)
	}
	if finalRoot.IsZero() {
		finalRoot = root
	} else if finalRoot != root {
		return nil, stageErr(StageFlush, errors.Errorf("flushed root %v differs from working root %v", finalRoot, root))
	}
	if err := eng.Flush(); err != nil {
		return nil, stageErr(StageFlush, err)
	}

	if finalRoot, err = purge(eng, m, finalRoot, fb.Height, activationPoint, activationHeight, purgeBatchSize); err != nil {
		return nil, stageErr(StagePurge, err)
	}

	blk, err := block.NewBlock(preState.ParentHash, preState.ParentSeed, finalRoot, fb, nextEraWeights, protocolVersion)
	if err != nil {
		return nil, stageErr(StageAssemble, err)
	}

	if m != nil {
		m.ExecBlock.Observe(elapsedMs(startTime))
	}
	m.setChainHeight(fb.Height)
	logger.Debug("executed block",
		"height", fb.Height,
		"hash", blk.Hash(),
		"root", finalRoot,
		"deploys", len(results),
		"switch", fb.EraReport != nil,
		"elapsed", common.PrettyDuration(mclock.Now()-startTime))

	return &BlockAndExecutionEffects{
		Block:                                   blk,
		ExecutionResults:                        results,
		MaybeStepEffectAndUpcomingEraValidators: stepOutcome,
	}, nil
}

func checkHashes(hashes []meridian.Bytes32, deploys []*block.Deploy) error {
	if len(hashes) != len(deploys) {
		return errors.Errorf("block lists %d, got %d", len(hashes), len(deploys))
	}
	for i, d := range deploys {
		if d.Hash() != hashes[i] {
			return errors.Errorf("hash mismatch at %d: block lists %v, got %v", i, hashes[i], d.Hash())
		}
	}
	return nil
}

// commitStep runs the era step for the era report. Equivocators and
// inactive validators are evicted, each once. Nothing is slashed.
func commitStep(
	scratch *engine.EngineState,
	protocolVersion meridian.ProtocolVersion,
	root meridian.Bytes32,
	report *block.EraReport,
	eraEnd meridian.Timestamp,
	nextEra meridian.EraID,
) (*engine.StepSuccess, error) {
	validators := report.SortedRewards()
	rewards := make([]auction.RewardItem, 0, len(validators))
	for _, pk := range validators {
		rewards = append(rewards, auction.RewardItem{Validator: pk, Amount: report.Rewards[pk]})
	}
	return scratch.CommitStep(&engine.StepRequest{
		PreStateHash:    root,
		ProtocolVersion: protocolVersion,
		RewardItems:     rewards,
		EvictItems:      report.Evictions(),
		NextEraID:       nextEra,
		EraEndTimestamp: eraEnd,
	})
}

// purge commits the deletion of the era info batch of the height and
// returns the resulting root. Missing roots and keys are not errors.
func purge(
	eng *engine.EngineState,
	m *Metrics,
	root meridian.Bytes32,
	height uint64,
	activationPoint ActivationPoint,
	activationHeight *uint64,
	batchSize uint64,
) (meridian.Bytes32, error) {
	era, ok := activationPoint.EraID()
	switch {
	case !ok && activationHeight != nil:
		logger.Warn("activation point is genesis, but activation height is set", "height", *activationHeight)
		return root, nil
	case !ok:
		logger.Warn("activation point is genesis, no era info to purge")
		return root, nil
	case activationHeight == nil:
		logger.Info("activation height unknown, skipping era info purge", "activation", activationPoint)
		return root, nil
	}

	keys := CalculatePurgeEras(era, *activationHeight, height, batchSize)
	if len(keys) == 0 {
		if height < *activationHeight {
			logger.Debug("block before activation height, nothing to purge", "height", height, "activation", *activationHeight)
		}
		return root, nil
	}

	t := mclock.Now()
	result, err := eng.CommitPurge(root, keys)
	if err != nil {
		return meridian.Bytes32{}, err
	}
	if m != nil {
		m.Purge.Observe(elapsedMs(t))
	}
	switch result.Kind {
	case state.PruneSuccess:
		logger.Debug("purged era info", "keys", len(keys), "root", result.PostStateHash)
		if err := eng.Flush(); err != nil {
			return meridian.Bytes32{}, err
		}
		return result.PostStateHash, nil
	case state.PruneRootNotFound:
		logger.Error("purge root not found", "root", root)
	case state.PruneDoesNotExist:
		logger.Debug("era info to purge does not exist", "first", keys[0], "count", len(keys))
	}
	return root, nil
}
