// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auction

import (
	"math/big"
	"math/bits"
	"slices"

	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
)

// RewardItem is the reward of a validator for the ending era.
type RewardItem struct {
	Validator meridian.PublicKey
	Amount    *big.Int
}

// StepInput is the input of an era step.
type StepInput struct {
	RewardItems     []RewardItem
	SlashItems      []meridian.PublicKey
	EvictItems      []meridian.PublicKey
	NextEraID       meridian.EraID
	EraEndTimestamp meridian.Timestamp
}

// Step ends the current era. It distributes rewards into bids, records the
// allocations of the ending era, slashes and evicts validators, rotates the
// snapshot and stores the new era id.
func (a *Auction) Step(in *StepInput) error {
	logger.Debug("auction step", "nextEra", in.NextEraID, "rewards", len(in.RewardItems), "evictions", len(in.EvictItems))

	allocations, err := a.distributeRewards(in.RewardItems)
	if err != nil {
		return errors.WithMessage(err, "distribute rewards")
	}
	if prev, ok := in.NextEraID.Predecessor(); ok {
		if err := a.tc.Write(state.EraInfoKey(prev), &state.EraInfo{SeigniorageAllocations: allocations}); err != nil {
			return err
		}
	}
	if err := a.slash(in.SlashItems); err != nil {
		return errors.WithMessage(err, "slash")
	}
	if err := a.evict(in.EvictItems); err != nil {
		return errors.WithMessage(err, "evict")
	}
	if err := a.rotateSnapshot(in.NextEraID); err != nil {
		return errors.WithMessage(err, "rotate snapshot")
	}
	if err := a.writeCL(EraIDKeyName, state.NewCLU64(uint64(in.NextEraID))); err != nil {
		return err
	}
	return a.writeCL(EraEndTimestampKeyName, state.NewCLU64(uint64(in.EraEndTimestamp)))
}

func (a *Auction) distributeRewards(items []RewardItem) ([]state.SeigniorageAllocation, error) {
	allocations := make([]state.SeigniorageAllocation, 0, len(items))
	for _, item := range items {
		if item.Amount == nil || item.Amount.Sign() == 0 {
			continue
		}
		bid, found, err := a.Bid(item.Validator)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, errors.Errorf("no bid for rewarded validator %v", item.Validator)
		}
		updated := *bid
		updated.StakedAmount = new(big.Int).Add(bid.StakedAmount, item.Amount)
		if err := a.writeBid(&updated); err != nil {
			return nil, err
		}
		if err := a.tc.Add(state.BalanceKey(bid.BondingPurse), state.AddUint512(item.Amount)); err != nil {
			return nil, err
		}
		allocations = append(allocations, state.SeigniorageAllocation{
			ValidatorPublicKey: item.Validator,
			Amount:             new(big.Int).Set(item.Amount),
		})
	}
	return allocations, nil
}

// slash burns the stake of the validators and deactivates their bids.
func (a *Auction) slash(validators []meridian.PublicKey) error {
	for _, pk := range validators {
		bid, found, err := a.Bid(pk)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		updated := *bid
		updated.StakedAmount = new(big.Int)
		updated.Inactive = true
		if err := a.writeBid(&updated); err != nil {
			return err
		}
		if err := a.tc.Write(state.BalanceKey(bid.BondingPurse), state.NewCLU512(new(big.Int))); err != nil {
			return err
		}
	}
	return nil
}

// evict deactivates bids. Inactive bids are not elected until reactivated.
func (a *Auction) evict(validators []meridian.PublicKey) error {
	for _, pk := range validators {
		bid, found, err := a.Bid(pk)
		if err != nil {
			return err
		}
		if !found || bid.Inactive {
			continue
		}
		updated := *bid
		updated.Inactive = true
		if err := a.writeBid(&updated); err != nil {
			return err
		}
		logger.Debug("validator evicted", "validator", pk)
	}
	return nil
}

// rotateSnapshot drops eras before nextEra and elects the validators of
// nextEra + auction delay.
func (a *Auction) rotateSnapshot(nextEra meridian.EraID) error {
	delay, err := a.AuctionDelay()
	if err != nil {
		return err
	}
	slots, err := a.ValidatorSlots()
	if err != nil {
		return err
	}
	snapshot, err := a.Snapshot()
	if err != nil {
		return err
	}
	bids, err := a.Bids()
	if err != nil {
		return err
	}

	sum, carry := bits.Add64(uint64(nextEra), delay, 0)
	if carry != 0 {
		return errors.Errorf("elected era overflows: era %v, delay %v", nextEra, delay)
	}
	electedEra := meridian.EraID(sum)
	eras := make([]state.EraWeights, 0, delay+1)
	for _, e := range snapshot.Eras {
		if e.Era >= nextEra && e.Era != electedEra {
			eras = append(eras, e)
		}
	}
	eras = append(eras, state.EraWeights{Era: electedEra, Validators: Winners(bids, slots)})
	slices.SortFunc(eras, func(a, b state.EraWeights) int {
		switch {
		case a.Era < b.Era:
			return -1
		case a.Era > b.Era:
			return 1
		}
		return 0
	})

	key, err := a.namedKey(SnapshotKeyName)
	if err != nil {
		return err
	}
	return a.tc.Write(key, &state.EraValidators{Eras: eras})
}
