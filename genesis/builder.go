// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis builds the initial global state and the genesis block.
package genesis

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/auction"
	"github.com/meridianchain/meridian/block"
	"github.com/meridianchain/meridian/log"
	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
	"github.com/meridianchain/meridian/trackingcopy"
)

var logger = log.WithContext("pkg", "genesis")

// Builder helper to build genesis block.
type Builder struct {
	timestamp       meridian.Timestamp
	protocolVersion meridian.ProtocolVersion
	auction         auction.InstallConfig

	stateProcs []func(tc *trackingcopy.TrackingCopy) error
}

// NewBuilder creates a builder from the config.
func NewBuilder(cfg *Config) *Builder {
	b := new(Builder).
		Timestamp(cfg.Timestamp).
		ProtocolVersion(cfg.ProtocolVersion).
		Auction(cfg.ValidatorSlots, cfg.AuctionDelay)

	for _, acc := range cfg.Accounts {
		b.State(func(tc *trackingcopy.TrackingCopy) error {
			var balance *big.Int
			if acc.Balance != nil {
				balance = &acc.Balance.Int
			}
			_, err := tc.CreateAccount(acc.PublicKey.AccountHash(), balance)
			return err
		})
		if acc.BondedAmount != nil && acc.BondedAmount.Sign() > 0 {
			b.Validator(acc.PublicKey, &acc.BondedAmount.Int, acc.DelegationRate)
		}
	}
	return b
}

// Timestamp set timestamp.
func (b *Builder) Timestamp(t meridian.Timestamp) *Builder {
	b.timestamp = t
	return b
}

// ProtocolVersion set the protocol version.
func (b *Builder) ProtocolVersion(v meridian.ProtocolVersion) *Builder {
	b.protocolVersion = v
	return b
}

// Auction set the auction parameters.
func (b *Builder) Auction(validatorSlots uint32, auctionDelay uint64) *Builder {
	b.auction.ValidatorSlots = validatorSlots
	b.auction.AuctionDelay = auctionDelay
	return b
}

// Validator adds a genesis validator.
func (b *Builder) Validator(pk meridian.PublicKey, stake *big.Int, delegationRate uint8) *Builder {
	b.auction.Validators = append(b.auction.Validators, auction.GenesisValidator{
		PublicKey:      pk,
		Stake:          new(big.Int).Set(stake),
		DelegationRate: delegationRate,
	})
	return b
}

// State add a state process.
func (b *Builder) State(proc func(tc *trackingcopy.TrackingCopy) error) *Builder {
	b.stateProcs = append(b.stateProcs, proc)
	return b
}

// Build commits the genesis effects from the empty root and builds the genesis block.
func (b *Builder) Build(provider state.Provider) (*block.Block, *state.Effects, error) {
	reader, err := provider.Checkout(provider.EmptyRoot())
	if err != nil {
		return nil, nil, err
	}
	tc := trackingcopy.New(reader, meridian.DefaultMaxQueryDepth)

	for _, proc := range b.stateProcs {
		if err := proc(tc); err != nil {
			return nil, nil, errors.Wrap(err, "state process")
		}
	}

	cfg := b.auction
	cfg.Timestamp = b.timestamp
	cfg.ProtocolVersion = b.protocolVersion
	if _, err := auction.Install(tc, &cfg); err != nil {
		return nil, nil, errors.Wrap(err, "install auction")
	}

	effects := tc.Effects()
	root, err := provider.CommitEffects(provider.EmptyRoot(), effects)
	if err != nil {
		return nil, nil, errors.Wrap(err, "commit state")
	}

	fb := &block.FinalizedBlock{
		Timestamp: b.timestamp,
		EraID:     0,
		Height:    0,
	}
	blk, err := block.NewBlock(meridian.Bytes32{}, meridian.Bytes32{}, root, fb, nil, b.protocolVersion)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("genesis built", "root", root, "hash", blk.Hash(), "validators", len(cfg.Validators))
	return blk, effects, nil
}
