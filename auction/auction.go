// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package auction implements the native validator auction: bids, era
// reward allocations and the snapshot of validator weights for upcoming eras.
package auction

import (
	"math/big"
	"slices"

	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/log"
	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
	"github.com/meridianchain/meridian/trackingcopy"
)

var logger = log.WithContext("pkg", "auction")

// Names of the auction contract in the system registry and of its named keys.
const (
	ContractName = "auction"

	SnapshotKeyName        = "seigniorage_recipients_snapshot"
	EraIDKeyName           = "era_id"
	EraEndTimestampKeyName = "era_end_timestamp_millis"
	ValidatorSlotsKeyName  = "validator_slots"
	AuctionDelayKeyName    = "auction_delay"
)

// ErrAuctionNotFound is returned when the system registry has no auction contract.
var ErrAuctionNotFound = errors.New("auction contract not found")

// EraValidators maps eras to their validator weights.
type EraValidators map[meridian.EraID]state.ValidatorWeights

// Auction reads and changes auction records through a tracking copy.
type Auction struct {
	tc           *trackingcopy.TrackingCopy
	contractHash meridian.Bytes32
	contract     *state.Contract
}

// New loads the auction contract registered in the system registry.
func New(tc *trackingcopy.TrackingCopy) (*Auction, error) {
	reg, err := tc.SystemRegistry()
	if err != nil {
		return nil, errors.WithMessage(err, "load system registry")
	}
	hash, ok := reg.Get(ContractName)
	if !ok {
		return nil, ErrAuctionNotFound
	}
	v, found, err := tc.Read(state.HashKey(hash))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Wrapf(ErrAuctionNotFound, "contract %v", hash)
	}
	contract, ok := v.(*state.Contract)
	if !ok {
		return nil, &state.TypeMismatchError{Expected: state.ValueContract.String(), Found: v.Tag().String()}
	}
	return &Auction{tc: tc, contractHash: hash, contract: contract}, nil
}

// ContractHash returns the hash of the auction contract.
func (a *Auction) ContractHash() meridian.Bytes32 { return a.contractHash }

func (a *Auction) namedKey(name string) (state.Key, error) {
	key, ok := a.contract.NamedKeys.Get(name)
	if !ok {
		return state.Key{}, errors.Errorf("auction named key %q not found", name)
	}
	return key, nil
}

func (a *Auction) readCL(name string) (*state.CLValue, error) {
	key, err := a.namedKey(name)
	if err != nil {
		return nil, err
	}
	v, found, err := a.tc.Read(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Errorf("auction value %q not found", name)
	}
	cl, ok := v.(*state.CLValue)
	if !ok {
		return nil, &state.TypeMismatchError{Expected: "CLValue", Found: v.Tag().String()}
	}
	return cl, nil
}

func (a *Auction) writeCL(name string, v *state.CLValue) error {
	key, err := a.namedKey(name)
	if err != nil {
		return err
	}
	return a.tc.Write(key, v)
}

// EraID returns the current era.
func (a *Auction) EraID() (meridian.EraID, error) {
	cl, err := a.readCL(EraIDKeyName)
	if err != nil {
		return 0, err
	}
	era, err := cl.U64()
	return meridian.EraID(era), err
}

// ValidatorSlots returns how many validators are elected per era.
func (a *Auction) ValidatorSlots() (uint32, error) {
	cl, err := a.readCL(ValidatorSlotsKeyName)
	if err != nil {
		return 0, err
	}
	slots, err := cl.U64()
	return uint32(slots), err
}

// AuctionDelay returns how many eras ahead the snapshot is computed.
func (a *Auction) AuctionDelay() (uint64, error) {
	cl, err := a.readCL(AuctionDelayKeyName)
	if err != nil {
		return 0, err
	}
	return cl.U64()
}

// Snapshot returns the stored validator weights of upcoming eras.
func (a *Auction) Snapshot() (*state.EraValidators, error) {
	key, err := a.namedKey(SnapshotKeyName)
	if err != nil {
		return nil, err
	}
	v, found, err := a.tc.Read(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return &state.EraValidators{}, nil
	}
	snapshot, ok := v.(*state.EraValidators)
	if !ok {
		return nil, &state.TypeMismatchError{Expected: state.ValueEraValidators.String(), Found: v.Tag().String()}
	}
	return snapshot, nil
}

// EraValidators returns the snapshot as a map.
func (a *Auction) EraValidators() (EraValidators, error) {
	snapshot, err := a.Snapshot()
	if err != nil {
		return nil, err
	}
	ev := make(EraValidators, len(snapshot.Eras))
	for _, e := range snapshot.Eras {
		ev[e.Era] = e.Validators
	}
	return ev, nil
}

// Bid returns the bid of the validator.
func (a *Auction) Bid(pk meridian.PublicKey) (*state.Bid, bool, error) {
	v, found, err := a.tc.Read(state.BidKey(pk.AccountHash()))
	if err != nil || !found {
		return nil, false, err
	}
	bid, ok := v.(*state.Bid)
	if !ok {
		return nil, false, &state.TypeMismatchError{Expected: state.ValueBid.String(), Found: v.Tag().String()}
	}
	return bid, true, nil
}

// Bids returns all bids ordered by validator public key.
func (a *Auction) Bids() ([]*state.Bid, error) {
	keys, err := a.tc.KeysWithPrefix([]byte{byte(state.KeyBid)})
	if err != nil {
		return nil, err
	}
	bids := make([]*state.Bid, 0, len(keys))
	for _, key := range keys {
		v, _, err := a.tc.Read(key)
		if err != nil {
			return nil, err
		}
		bid, ok := v.(*state.Bid)
		if !ok {
			return nil, &state.TypeMismatchError{Expected: state.ValueBid.String(), Found: v.Tag().String()}
		}
		bids = append(bids, bid)
	}
	slices.SortFunc(bids, func(a, b *state.Bid) int {
		return a.ValidatorPublicKey.Compare(b.ValidatorPublicKey)
	})
	return bids, nil
}

func (a *Auction) writeBid(bid *state.Bid) error {
	return a.tc.Write(state.BidKey(bid.ValidatorPublicKey.AccountHash()), bid)
}

// Winners picks the top slots active bids by stake, ties broken by public
// key, and returns their weights ordered by public key.
func Winners(bids []*state.Bid, slots uint32) state.ValidatorWeights {
	candidates := make([]*state.Bid, 0, len(bids))
	for _, bid := range bids {
		if !bid.Inactive && bid.StakedAmount.Sign() > 0 {
			candidates = append(candidates, bid)
		}
	}
	slices.SortFunc(candidates, func(a, b *state.Bid) int {
		if c := b.StakedAmount.Cmp(a.StakedAmount); c != 0 {
			return c
		}
		return a.ValidatorPublicKey.Compare(b.ValidatorPublicKey)
	})
	if uint64(len(candidates)) > uint64(slots) {
		candidates = candidates[:slots]
	}
	weights := make(state.ValidatorWeights, 0, len(candidates))
	for _, bid := range candidates {
		weights = append(weights, state.ValidatorWeight{
			PublicKey: bid.ValidatorPublicKey,
			Weight:    new(big.Int).Set(bid.StakedAmount),
		})
	}
	slices.SortFunc(weights, func(a, b state.ValidatorWeight) int {
		return a.PublicKey.Compare(b.PublicKey)
	})
	return weights
}
