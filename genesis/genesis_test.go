// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianchain/meridian/auction"
	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/muxdb"
	"github.com/meridianchain/meridian/state"
	"github.com/meridianchain/meridian/trackingcopy"
)

const testConfig = `
timestamp: 1000
protocol_version: 1.2.3
validator_slots: 1
auction_delay: 2
accounts:
  - public_key: 0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798
    balance: 1000
    bonded_amount: 500
  - public_key: 02c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5
    balance: "0x10"
    bonded_amount: 100
    delegation_rate: 10
  - public_key: 02f9308a019258c31049344f85f89d5229b531c845836f99b08601f113bce036f9
    balance: 7
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(testConfig))
	require.NoError(t, err)
	assert.Equal(t, meridian.Timestamp(1000), cfg.Timestamp)
	assert.Equal(t, meridian.ProtocolVersion{Major: 1, Minor: 2, Patch: 3}, cfg.ProtocolVersion)
	assert.Equal(t, uint32(1), cfg.ValidatorSlots)
	assert.Equal(t, uint64(2), cfg.AuctionDelay)
	require.Len(t, cfg.Accounts, 3)
	assert.Equal(t, DevAccounts[0], cfg.Accounts[0].PublicKey)
	assert.Equal(t, int64(16), cfg.Accounts[1].Balance.Int64())
	assert.Equal(t, uint8(10), cfg.Accounts[1].DelegationRate)
	assert.Nil(t, cfg.Accounts[2].BondedAmount)
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no validator", "accounts:\n  - public_key: 0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798\n    balance: 1\n"},
		{"negative amount", "accounts:\n  - public_key: 0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798\n    balance: -1\n"},
		{"bad key", "accounts:\n  - public_key: 00\n    balance: 1\n"},
		{"duplicated", "accounts:\n  - public_key: 0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798\n    bonded_amount: 1\n  - public_key: 0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798\n    bonded_amount: 1\n"},
		{"not yaml", "accounts: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestBuild(t *testing.T) {
	cfg, err := ParseConfig([]byte(testConfig))
	require.NoError(t, err)

	db := muxdb.NewMem()
	defer db.Close()
	gs := state.NewGlobalState(db)

	blk, effects, err := NewBuilder(cfg).Build(gs)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), blk.Height())
	assert.Equal(t, meridian.EraID(0), blk.Header().EraID())
	assert.False(t, blk.Header().IsSwitchBlock())
	assert.True(t, effects.Len() > 0)

	reader, err := gs.Checkout(blk.Header().StateRootHash())
	require.NoError(t, err)
	tc := trackingcopy.New(reader, meridian.DefaultMaxQueryDepth)

	purse, err := tc.GetMainPurse(DevAccounts[2].AccountHash())
	require.NoError(t, err)
	balance, err := tc.GetPurseBalance(purse)
	require.NoError(t, err)
	assert.Equal(t, int64(7), balance.Int64())

	a, err := auction.New(tc)
	require.NoError(t, err)
	ev, err := a.EraValidators()
	require.NoError(t, err)
	require.Len(t, ev, 3)
	for era := range meridian.EraID(3) {
		require.Len(t, ev[era], 1)
		assert.Equal(t, DevAccounts[0], ev[era][0].PublicKey)
	}

	// deterministic
	db2 := muxdb.NewMem()
	defer db2.Close()
	blk2, _, err := NewBuilder(cfg).Build(state.NewGlobalState(db2))
	require.NoError(t, err)
	assert.Equal(t, blk.Hash(), blk2.Hash())
}

func TestDevConfig(t *testing.T) {
	cfg := NewDevConfig()
	require.NoError(t, cfg.Validate())

	db := muxdb.NewMem()
	defer db.Close()
	_, _, err := NewBuilder(cfg).Build(state.NewGlobalState(db))
	require.NoError(t, err)
}
