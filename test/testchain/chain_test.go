// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package testchain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianchain/meridian/block"
	"github.com/meridianchain/meridian/genesis"
	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/test/datagen"
)

func TestChain(t *testing.T) {
	c, err := NewDefault()
	require.NoError(t, err)
	defer c.Database().Close()

	target := datagen.RandomHash()
	res, err := c.MintBlock(NewTransfer(genesis.DevAccounts[1], target, 42, 1))
	require.NoError(t, err)
	require.Len(t, res.ExecutionResults, 1)
	assert.Equal(t, res.Block.Hash(), c.BestBlock().Hash())

	report := &block.EraReport{Rewards: map[meridian.PublicKey]*big.Int{}}
	res, err = c.MintSwitchBlock(report)
	require.NoError(t, err)
	assert.True(t, res.Block.Header().IsSwitchBlock())
	assert.Equal(t, meridian.EraID(0), res.Block.Header().EraID())

	res, err = c.MintBlock()
	require.NoError(t, err)
	assert.Equal(t, meridian.EraID(1), res.Block.Header().EraID())
	assert.Equal(t, uint64(3), res.Block.Height())
}
