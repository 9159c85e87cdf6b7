// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/meridianchain/meridian/meridian"
)

// DevAccounts are the well-known keys funded and bonded by the dev genesis.
var DevAccounts = []meridian.PublicKey{
	meridian.MustParsePublicKey("0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"),
	meridian.MustParsePublicKey("02c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5"),
	meridian.MustParsePublicKey("02f9308a019258c31049344f85f89d5229b531c845836f99b08601f113bce036f9"),
}

// NewDevConfig returns the genesis config for local development.
func NewDevConfig() *Config {
	cfg := &Config{
		Timestamp:       1526400000000,
		ProtocolVersion: meridian.V1_0_0,
		ValidatorSlots:  meridian.DefaultValidatorSlots,
		AuctionDelay:    meridian.DefaultAuctionDelay,
	}
	for _, pk := range DevAccounts {
		balance := new(Amount)
		balance.SetString("1000000000000000000000", 10)
		cfg.Accounts = append(cfg.Accounts, Account{
			PublicKey:    pk,
			Balance:      balance,
			BondedAmount: NewAmount(1_000_000_000_000),
		})
	}
	return cfg
}
