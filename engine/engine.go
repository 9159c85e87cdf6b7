// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package engine executes deploys and system operations against the global
// state, and answers read-only queries on any state root.
package engine

import (
	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/auction"
	"github.com/meridianchain/meridian/log"
	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
	"github.com/meridianchain/meridian/trackingcopy"
)

var logger = log.WithContext("pkg", "engine")

// ErrNotDurable is returned by operations that need the durable store when
// called on a scratch engine.
var ErrNotDurable = errors.New("operation requires the durable engine state")

// Config engine parameters.
type Config struct {
	MaxQueryDepth uint64
	TransferCost  uint64
	NativeOpCost  uint64
}

// DefaultConfig returns the default engine config.
func DefaultConfig() Config {
	return Config{
		MaxQueryDepth: meridian.DefaultMaxQueryDepth,
		TransferCost:  meridian.DefaultTransferCost,
		NativeOpCost:  meridian.DefaultNativeOpCost,
	}
}

// EngineState runs deploys and system operations on a state provider: the
// durable global state, or the scratch state of one block.
type EngineState struct {
	gs       *state.GlobalState
	provider state.Provider
	scratch  *trackingcopy.ScratchState
	executor Executor
	oracle   ValidatorWeightsOracle
	config   Config
}

// NewEngineState creates the durable engine state.
// A nil executor runs deploys with the native executor.
func NewEngineState(gs *state.GlobalState, executor Executor, config Config) *EngineState {
	if executor == nil {
		executor = NewNativeExecutor(config)
	}
	return &EngineState{
		gs:       gs,
		provider: gs,
		executor: executor,
		config:   config,
	}
}

// WithOracle returns a copy of the engine reading upcoming validator
// weights from oracle instead of the auction snapshot.
func (e *EngineState) WithOracle(oracle ValidatorWeightsOracle) *EngineState {
	cpy := *e
	cpy.oracle = oracle
	return &cpy
}

// Scratch returns an engine state sharing the executor, which batches
// every commit in memory until WriteScratchToDB.
func (e *EngineState) Scratch() *EngineState {
	scratch := trackingcopy.NewScratchState(e.gs)
	return &EngineState{
		gs:       e.gs,
		provider: scratch,
		scratch:  scratch,
		executor: e.executor,
		oracle:   e.oracle,
		config:   e.config,
	}
}

// IsScratch returns whether the engine state is a scratch state.
func (e *EngineState) IsScratch() bool { return e.scratch != nil }

// Config returns the engine config.
func (e *EngineState) Config() Config { return e.config }

// EmptyRoot returns the root of the empty state.
func (e *EngineState) EmptyRoot() meridian.Bytes32 { return e.provider.EmptyRoot() }

func (e *EngineState) trackingCopy(root meridian.Bytes32) (*trackingcopy.TrackingCopy, error) {
	reader, err := e.provider.Checkout(root)
	if err != nil {
		return nil, err
	}
	return trackingcopy.New(reader, e.config.MaxQueryDepth), nil
}

// ApplyEffect commits effects on top of root and returns the new root.
func (e *EngineState) ApplyEffect(root meridian.Bytes32, effects *state.Effects) (meridian.Bytes32, error) {
	return e.provider.CommitEffects(root, effects)
}

// WriteScratchToDB writes everything committed in the scratch engine to the
// durable store, in one commit, and returns the resulting root.
func (e *EngineState) WriteScratchToDB(scratch *EngineState) (meridian.Bytes32, error) {
	if e.scratch != nil {
		return meridian.Bytes32{}, ErrNotDurable
	}
	if scratch.scratch == nil {
		return meridian.Bytes32{}, errors.New("not a scratch engine state")
	}
	return scratch.scratch.WriteToStore()
}

// Flush syncs the durable store.
func (e *EngineState) Flush() error {
	return e.gs.Flush()
}

// CommitPurge deletes keys from the durable state at root.
func (e *EngineState) CommitPurge(root meridian.Bytes32, keys []state.Key) (state.PruneResult, error) {
	if e.scratch != nil {
		return state.PruneResult{}, ErrNotDurable
	}
	return e.gs.CommitPrune(root, keys)
}

// GetEraValidators returns the validator weights snapshot of the auction at root.
func (e *EngineState) GetEraValidators(root meridian.Bytes32) (auction.EraValidators, error) {
	if e.oracle != nil {
		return e.oracle.GetEraValidators(root)
	}
	tc, err := e.trackingCopy(root)
	if err != nil {
		return nil, err
	}
	a, err := auction.New(tc)
	if err != nil {
		return nil, err
	}
	return a.EraValidators()
}
