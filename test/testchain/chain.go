// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testchain builds an in-memory chain for tests.
package testchain

import (
	"math/big"

	"github.com/meridianchain/meridian/block"
	"github.com/meridianchain/meridian/chain"
	"github.com/meridianchain/meridian/contractruntime"
	"github.com/meridianchain/meridian/engine"
	"github.com/meridianchain/meridian/genesis"
	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/muxdb"
	"github.com/meridianchain/meridian/state"
)

// BlockInterval is the timestamp distance between minted blocks.
const BlockInterval = 1000

// Chain is a chain over a memory db: global state, engine and repository,
// with the dev genesis applied.
type Chain struct {
	db           *muxdb.MuxDB
	gs           *state.GlobalState
	engine       *engine.EngineState
	repo         *chain.Repository
	genesisBlock *block.Block
}

// NewDefault creates a chain from the dev genesis.
func NewDefault() (*Chain, error) {
	return NewWithGenesis(genesis.NewDevConfig())
}

// NewWithGenesis creates a chain from the genesis config.
func NewWithGenesis(cfg *genesis.Config) (*Chain, error) {
	db := muxdb.NewMem()
	gs := state.NewGlobalState(db)

	b0, _, err := genesis.NewBuilder(cfg).Build(gs)
	if err != nil {
		return nil, err
	}
	repo, err := chain.NewRepository(db, b0)
	if err != nil {
		return nil, err
	}
	return &Chain{
		db:           db,
		gs:           gs,
		engine:       engine.NewEngineState(gs, nil, engine.DefaultConfig()),
		repo:         repo,
		genesisBlock: b0,
	}, nil
}

func (c *Chain) Database() *muxdb.MuxDB { return c.db }

func (c *Chain) GlobalState() *state.GlobalState { return c.gs }

func (c *Chain) Engine() *engine.EngineState { return c.engine }

func (c *Chain) Repo() *chain.Repository { return c.repo }

func (c *Chain) GenesisBlock() *block.Block { return c.genesisBlock }

// BestBlock returns the best block of the repository.
func (c *Chain) BestBlock() *block.Block { return c.repo.BestBlock() }

// MintBlock executes a block with the deploys and adds it to the repository.
func (c *Chain) MintBlock(deploys ...*block.Deploy) (*contractruntime.BlockAndExecutionEffects, error) {
	return c.mint(nil, deploys)
}

// MintSwitchBlock executes a block ending the current era with the report.
func (c *Chain) MintSwitchBlock(report *block.EraReport, deploys ...*block.Deploy) (*contractruntime.BlockAndExecutionEffects, error) {
	return c.mint(report, deploys)
}

func (c *Chain) mint(report *block.EraReport, deploys []*block.Deploy) (*contractruntime.BlockAndExecutionEffects, error) {
	var (
		best      = c.repo.BestBlock().Header()
		era       = best.EraID()
		sessions  []*block.Deploy
		transfers []*block.Deploy
	)
	if best.IsSwitchBlock() {
		era = era.Successor()
	}
	for _, d := range deploys {
		if d.IsTransfer() {
			transfers = append(transfers, d)
		} else {
			sessions = append(sessions, d)
		}
	}

	fb := block.NewFinalizedBlock(sessions, transfers, best.Timestamp()+BlockInterval, report, era, best.Height()+1, genesis.DevAccounts[0])
	res, err := contractruntime.ExecuteFinalizedBlock(
		c.engine,
		nil,
		best.ProtocolVersion(),
		c.repo.PreState(),
		fb,
		sessions,
		transfers,
		contractruntime.GenesisActivation(c.genesisBlock.Header().Timestamp()),
		nil,
		meridian.DefaultPurgeBatchSize,
	)
	if err != nil {
		return nil, err
	}
	if err := c.repo.AddBlock(res); err != nil {
		return nil, err
	}
	return res, nil
}

// NewTransfer creates a transfer deploy from the account of the public key.
func NewTransfer(from meridian.PublicKey, to meridian.Bytes32, amount int64, id uint64) *block.Deploy {
	return block.NewDeploy(block.DeployHeader{
		Account:   from,
		Timestamp: meridian.Timestamp(id),
		TTL:       3600,
		GasPrice:  1,
		ChainName: "testchain",
	}, block.Session{
		Kind:     block.SessionTransfer,
		Transfer: &block.TransferArgs{Target: to, Amount: big.NewInt(amount), ID: id},
	})
}
