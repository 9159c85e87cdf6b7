// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package chain persists executed blocks, their execution results and the
// pre-state the next block is executed on.
package chain

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/block"
	"github.com/meridianchain/meridian/cache"
	"github.com/meridianchain/meridian/co"
	"github.com/meridianchain/meridian/contractruntime"
	"github.com/meridianchain/meridian/kv"
	"github.com/meridianchain/meridian/log"
	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/muxdb"
)

const (
	blockStoreName  = "chain.blocks"  // blocks by hash
	heightStoreName = "chain.heights" // block hash by height
	resultStoreName = "chain.results" // execution results by block hash
	propStoreName   = "chain.props"   // best block and next pre-state
)

var (
	logger = log.WithContext("pkg", "chain")

	bestBlockKey = []byte("best-block")
	preStateKey  = []byte("pre-state")
)

// Repository stores executed blocks and their execution results.
//
// It's thread-safe. Blocks are only appended on top of the best block.
type Repository struct {
	db          *muxdb.MuxDB
	blockStore  kv.Store
	heightStore kv.Store
	resultStore kv.Store
	propStore   kv.Store

	genesis  *block.Block
	best     atomic.Pointer[block.Block]
	preState atomic.Pointer[contractruntime.ExecutionPreState]
	tick     co.Signal

	caches struct {
		blocks  *cache.LRU[meridian.Bytes32, *block.Block]
		results *cache.LRU[meridian.Bytes32, []*contractruntime.DeployResult]
	}
}

// NewRepository creates a repository on the db. The genesis block is
// saved if the db is empty, and must match the saved one otherwise.
func NewRepository(db *muxdb.MuxDB, genesis *block.Block) (*Repository, error) {
	if genesis.Height() != 0 {
		return nil, errors.New("genesis height != 0")
	}

	repo := &Repository{
		db:          db,
		blockStore:  db.NewStore(blockStoreName),
		heightStore: db.NewStore(heightStoreName),
		resultStore: db.NewStore(resultStoreName),
		propStore:   db.NewStore(propStoreName),
		genesis:     genesis,
	}
	repo.caches.blocks, _ = cache.NewLRU[meridian.Bytes32, *block.Block](512)
	repo.caches.results, _ = cache.NewLRU[meridian.Bytes32, []*contractruntime.DeployResult](256)

	val, err := repo.propStore.Get(bestBlockKey)
	if err != nil {
		if !repo.propStore.IsNotFound(err) {
			return nil, err
		}
		if err := repo.saveBlock(genesis, nil); err != nil {
			return nil, errors.Wrap(err, "save genesis")
		}
		return repo, nil
	}

	existing, err := loadBlockHash(repo.heightStore, 0)
	if err != nil {
		return nil, errors.Wrap(err, "get existing genesis hash")
	}
	if existing != genesis.Hash() {
		return nil, errors.New("genesis mismatch")
	}
	best, err := repo.GetBlock(meridian.BytesToBytes32(val))
	if err != nil {
		return nil, errors.Wrap(err, "get best block")
	}
	preState, err := loadPreState(repo.propStore)
	if err != nil {
		return nil, errors.Wrap(err, "get pre-state")
	}
	repo.best.Store(best)
	repo.preState.Store(preState)
	return repo, nil
}

// GenesisBlock returns the genesis block.
func (r *Repository) GenesisBlock() *block.Block {
	return r.genesis
}

// BestBlock returns the newest executed block.
func (r *Repository) BestBlock() *block.Block {
	return r.best.Load()
}

// PreState returns the state the next block is executed on.
func (r *Repository) PreState() *contractruntime.ExecutionPreState {
	return r.preState.Load()
}

// NewTicker returns a waiter signaled when the best block changes.
func (r *Repository) NewTicker() co.Waiter {
	return r.tick.NewWaiter()
}

// IsNotFound returns whether the error is caused by a missing block or result.
func (r *Repository) IsNotFound(err error) bool {
	return r.db.IsNotFound(err)
}

func (r *Repository) saveBlock(blk *block.Block, results []*contractruntime.DeployResult) error {
	var (
		hash         = blk.Hash()
		bulk         = r.db.NewStore("").Bulk()
		blockPutter  = kv.Bucket(blockStoreName).NewPutter(bulk)
		heightPutter = kv.Bucket(heightStoreName).NewPutter(bulk)
		resultPutter = kv.Bucket(resultStoreName).NewPutter(bulk)
		propPutter   = kv.Bucket(propStoreName).NewPutter(bulk)
		preState     = contractruntime.PreStateAfter(blk)
	)
	if results == nil {
		results = []*contractruntime.DeployResult{}
	}

	if err := saveRLP(blockPutter, hash[:], blk); err != nil {
		return err
	}
	if err := heightPutter.Put(heightKey(blk.Height()), hash[:]); err != nil {
		return err
	}
	if err := saveRLP(resultPutter, hash[:], results); err != nil {
		return err
	}
	if err := propPutter.Put(bestBlockKey, hash[:]); err != nil {
		return err
	}
	if err := saveRLP(propPutter, preStateKey, preState); err != nil {
		return err
	}
	if err := bulk.Write(); err != nil {
		return err
	}

	r.caches.blocks.Add(hash, blk)
	r.caches.results.Add(hash, results)
	r.best.Store(blk)
	r.preState.Store(preState)
	r.tick.Broadcast()
	metricBlockRepositoryCounter().AddWithLabel(1, map[string]string{"type": "write", "target": "db"})
	return nil
}

// AddBlock saves an executed block and its results as the new best block.
// The block must be the child of the best block.
func (r *Repository) AddBlock(res *contractruntime.BlockAndExecutionEffects) error {
	var (
		blk  = res.Block
		best = r.BestBlock()
	)
	if blk.Header().ParentHash() != best.Hash() {
		return errors.Errorf("block %v is not a child of the best block %v", blk.Hash(), best.Hash())
	}
	if blk.Height() != best.Height()+1 {
		return errors.Errorf("block height %d does not follow best height %d", blk.Height(), best.Height())
	}
	if err := r.saveBlock(blk, res.ExecutionResults); err != nil {
		return err
	}
	logger.Debug("block added", "height", blk.Height(), "hash", blk.Hash(), "root", blk.Header().StateRootHash())
	return nil
}

// GetBlock returns the block of the hash.
func (r *Repository) GetBlock(hash meridian.Bytes32) (*block.Block, error) {
	blk, err := r.caches.blocks.GetOrLoad(hash, func(hash meridian.Bytes32) (*block.Block, error) {
		metricBlockRepositoryCounter().AddWithLabel(1, map[string]string{"type": "read", "target": "db"})
		return loadBlock(r.blockStore, hash)
	})
	if err != nil {
		return nil, err
	}
	if changed, hit, miss := r.caches.blocks.Stats().Stats(); changed {
		metricCacheHitMiss().SetWithLabel(hit, map[string]string{"type": "blocks", "event": "hit"})
		metricCacheHitMiss().SetWithLabel(miss, map[string]string{"type": "blocks", "event": "miss"})
	}
	return blk, nil
}

// GetBlockHash returns the hash of the block at the height.
func (r *Repository) GetBlockHash(height uint64) (meridian.Bytes32, error) {
	return loadBlockHash(r.heightStore, height)
}

// GetBlockByHeight returns the block at the height.
func (r *Repository) GetBlockByHeight(height uint64) (*block.Block, error) {
	hash, err := r.GetBlockHash(height)
	if err != nil {
		return nil, err
	}
	return r.GetBlock(hash)
}

// GetExecutionResults returns the deploy results of the block, in execution order.
func (r *Repository) GetExecutionResults(hash meridian.Bytes32) ([]*contractruntime.DeployResult, error) {
	return r.caches.results.GetOrLoad(hash, func(hash meridian.Bytes32) ([]*contractruntime.DeployResult, error) {
		return loadResults(r.resultStore, hash)
	})
}
