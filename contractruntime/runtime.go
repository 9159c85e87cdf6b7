// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package contractruntime

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/mclock"
	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/block"
	"github.com/meridianchain/meridian/co"
	"github.com/meridianchain/meridian/engine"
	"github.com/meridianchain/meridian/meridian"
)

// ExecutableBlock is a finalized block with its deploys and transfers.
type ExecutableBlock struct {
	FinalizedBlock *block.FinalizedBlock
	Deploys        []*block.Deploy
	Transfers      []*block.Deploy
}

// Store persists executed blocks and tracks the next pre-state.
type Store interface {
	PreState() *ExecutionPreState
	AddBlock(res *BlockAndExecutionEffects) error
}

// Config of the runtime.
type Config struct {
	ProtocolVersion  meridian.ProtocolVersion
	ActivationPoint  ActivationPoint
	ActivationHeight *uint64
	PurgeBatchSize   uint64
}

// Runtime is the single writer of the global state. It executes enqueued
// blocks strictly in height order and persists each result to the store.
type Runtime struct {
	eng     *engine.EngineState
	store   Store
	config  Config
	metrics *Metrics

	lock     sync.Mutex
	queue    map[uint64]*ExecutableBlock
	err      error
	enqueued co.Signal
	executed co.Signal
	goes     co.Goes
}

// New creates a runtime. m may be nil.
func New(eng *engine.EngineState, store Store, config Config, m *Metrics) *Runtime {
	return &Runtime{
		eng:     eng,
		store:   store,
		config:  config,
		metrics: m,
		queue:   make(map[uint64]*ExecutableBlock),
	}
}

// Enqueue adds a block to the execution queue. Blocks may be enqueued in
// any order.
func (rt *Runtime) Enqueue(eb *ExecutableBlock) error {
	height := eb.FinalizedBlock.Height
	if next := rt.store.PreState().NextBlockHeight; height < next {
		return errors.Errorf("block %d already executed, next is %d", height, next)
	}

	rt.lock.Lock()
	defer rt.lock.Unlock()

	if rt.err != nil {
		return errors.WithMessage(rt.err, "runtime stopped")
	}
	if _, ok := rt.queue[height]; ok {
		return errors.Errorf("block %d already enqueued", height)
	}
	rt.queue[height] = eb
	rt.enqueued.Signal()
	return nil
}

// QueueLen returns the number of blocks waiting for execution.
func (rt *Runtime) QueueLen() int {
	rt.lock.Lock()
	defer rt.lock.Unlock()
	return len(rt.queue)
}

// Err returns the error that stopped the runtime.
func (rt *Runtime) Err() error {
	rt.lock.Lock()
	defer rt.lock.Unlock()
	return rt.err
}

// Start runs the execution loop until ctx is done or a block fails.
func (rt *Runtime) Start(ctx context.Context) {
	rt.goes.Go(func() { rt.loop(ctx) })
}

// Wait waits for the execution loop to exit.
func (rt *Runtime) Wait() {
	rt.goes.Wait()
}

// WaitExecuted blocks until the block at the height is executed.
func (rt *Runtime) WaitExecuted(ctx context.Context, height uint64) error {
	waiter := rt.executed.NewWaiter()
	for {
		if rt.store.PreState().NextBlockHeight > height {
			return nil
		}
		if err := rt.Err(); err != nil {
			return err
		}
		if err := co.Wait(ctx, waiter); err != nil {
			return err
		}
	}
}

func (rt *Runtime) loop(ctx context.Context) {
	logger.Debug("enter execution loop")
	defer logger.Debug("leave execution loop")

	enqueued := rt.enqueued.NewWaiter()
	for {
		for eb := rt.dequeue(); eb != nil; eb = rt.dequeue() {
			if ctx.Err() != nil {
				return
			}
			if err := rt.execute(eb); err != nil {
				logger.Error("failed to execute block", "height", eb.FinalizedBlock.Height, "err", err)
				rt.lock.Lock()
				rt.err = err
				rt.lock.Unlock()
				rt.executed.Broadcast()
				return
			}
		}

		if co.Wait(ctx, enqueued) != nil {
			return
		}
	}
}

// dequeue pops the block following the pre-state, nil if not enqueued yet.
func (rt *Runtime) dequeue() *ExecutableBlock {
	next := rt.store.PreState().NextBlockHeight

	rt.lock.Lock()
	defer rt.lock.Unlock()

	eb := rt.queue[next]
	delete(rt.queue, next)
	return eb
}

func (rt *Runtime) execute(eb *ExecutableBlock) error {
	startTime := mclock.Now()
	res, err := ExecuteFinalizedBlock(
		rt.eng,
		rt.metrics,
		rt.config.ProtocolVersion,
		rt.store.PreState(),
		eb.FinalizedBlock,
		eb.Deploys,
		eb.Transfers,
		rt.config.ActivationPoint,
		rt.config.ActivationHeight,
		rt.config.PurgeBatchSize,
	)
	if err != nil {
		return err
	}
	if err := rt.store.AddBlock(res); err != nil {
		return errors.Wrap(err, "persist block")
	}
	rt.executed.Broadcast()

	logger.Info("executed block",
		"height", res.Block.Height(),
		"hash", res.Block.Hash().AbbrevString(),
		"deploys", len(res.ExecutionResults),
		"elapsed", common.PrettyDuration(mclock.Now()-startTime))
	return nil
}
