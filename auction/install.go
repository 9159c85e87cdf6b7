// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auction

import (
	"math/big"
	"slices"

	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
	"github.com/meridianchain/meridian/trackingcopy"
)

// GenesisValidator is a validator bonded at genesis.
type GenesisValidator struct {
	PublicKey      meridian.PublicKey
	Stake          *big.Int
	DelegationRate uint8
}

// InstallConfig configures the auction contract installed at genesis.
type InstallConfig struct {
	ValidatorSlots  uint32
	AuctionDelay    uint64
	Validators      []GenesisValidator
	Timestamp       meridian.Timestamp
	ProtocolVersion meridian.ProtocolVersion
}

// SystemContractHash returns the hash of the system contract with the name.
func SystemContractHash(name string) meridian.Bytes32 {
	return meridian.Blake2b([]byte("system-contract"), []byte(name))
}

// BondingPurse returns the purse holding the stake of the validator.
func BondingPurse(pk meridian.PublicKey) meridian.Bytes32 {
	return meridian.Blake2b(pk[:], []byte("bonding-purse"))
}

// Install writes the auction contract, genesis bids, the initial snapshot
// and registers the contract in the system registry.
func Install(tc *trackingcopy.TrackingCopy, cfg *InstallConfig) (meridian.Bytes32, error) {
	if cfg.ValidatorSlots == 0 {
		return meridian.Bytes32{}, errors.New("validator slots must be positive")
	}
	hash := SystemContractHash(ContractName)

	var namedKeys state.NamedKeys
	for _, name := range []string{SnapshotKeyName, EraIDKeyName, EraEndTimestampKeyName, ValidatorSlotsKeyName, AuctionDelayKeyName} {
		namedKeys = namedKeys.With(name, state.URefKey(meridian.Blake2b(hash[:], []byte(name))))
	}
	contract := &state.Contract{
		PackageHash:     meridian.Blake2b(hash[:], []byte("package")),
		NamedKeys:       namedKeys,
		ProtocolVersion: cfg.ProtocolVersion,
	}
	if err := tc.Write(state.HashKey(hash), contract); err != nil {
		return meridian.Bytes32{}, err
	}
	if err := tc.Write(state.HashKey(contract.PackageHash), &state.ContractPackage{
		AccessURef: meridian.Blake2b(hash[:], []byte("access")),
		Versions:   []meridian.Bytes32{hash},
	}); err != nil {
		return meridian.Bytes32{}, err
	}

	a := &Auction{tc: tc, contractHash: hash, contract: contract}
	for name, v := range map[string]*state.CLValue{
		EraIDKeyName:           state.NewCLU64(0),
		EraEndTimestampKeyName: state.NewCLU64(uint64(cfg.Timestamp)),
		ValidatorSlotsKeyName:  state.NewCLU64(uint64(cfg.ValidatorSlots)),
		AuctionDelayKeyName:    state.NewCLU64(cfg.AuctionDelay),
	} {
		if err := a.writeCL(name, v); err != nil {
			return meridian.Bytes32{}, err
		}
	}

	bids := make([]*state.Bid, 0, len(cfg.Validators))
	for _, v := range cfg.Validators {
		if v.Stake == nil || v.Stake.Sign() <= 0 {
			return meridian.Bytes32{}, errors.Errorf("validator %v has no stake", v.PublicKey)
		}
		bid := &state.Bid{
			ValidatorPublicKey: v.PublicKey,
			BondingPurse:       BondingPurse(v.PublicKey),
			StakedAmount:       new(big.Int).Set(v.Stake),
			DelegationRate:     v.DelegationRate,
		}
		if err := a.writeBid(bid); err != nil {
			return meridian.Bytes32{}, err
		}
		if err := tc.Write(state.BalanceKey(bid.BondingPurse), state.NewCLU512(v.Stake)); err != nil {
			return meridian.Bytes32{}, err
		}
		bids = append(bids, bid)
	}

	winners := Winners(bids, cfg.ValidatorSlots)
	eras := make([]state.EraWeights, 0, cfg.AuctionDelay+1)
	for era := range cfg.AuctionDelay + 1 {
		eras = append(eras, state.EraWeights{Era: meridian.EraID(era), Validators: winners})
	}
	snapshotKey, _ := namedKeys.Get(SnapshotKeyName)
	if err := tc.Write(snapshotKey, &state.EraValidators{Eras: eras}); err != nil {
		return meridian.Bytes32{}, err
	}

	return hash, Register(tc, ContractName, hash)
}

// Register adds a system contract to the system registry.
func Register(tc *trackingcopy.TrackingCopy, name string, hash meridian.Bytes32) error {
	reg := &state.SystemRegistry{}
	v, found, err := tc.Read(state.SystemEntityRegistryKey())
	if err != nil {
		return err
	}
	if found {
		existing, ok := v.(*state.SystemRegistry)
		if !ok {
			return &state.TypeMismatchError{Expected: state.ValueSystemRegistry.String(), Found: v.Tag().String()}
		}
		reg.Entries = slices.DeleteFunc(slices.Clone(existing.Entries), func(e state.RegistryEntry) bool {
			return e.Name == name
		})
	}
	reg.Entries = append(reg.Entries, state.RegistryEntry{Name: name, Hash: hash})
	slices.SortFunc(reg.Entries, func(a, b state.RegistryEntry) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return tc.Write(state.SystemEntityRegistryKey(), reg)
}
