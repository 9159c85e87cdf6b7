// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"io"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
)

// ValidatorWeights are the stake weights of an era's validators.
type ValidatorWeights = state.ValidatorWeights

// EraReport is the consensus summary of an ending era, carried by switch blocks.
type EraReport struct {
	Equivocators       []meridian.PublicKey
	Rewards            map[meridian.PublicKey]*big.Int
	InactiveValidators []meridian.PublicKey
}

type rewardEntry struct {
	Validator meridian.PublicKey
	Amount    *big.Int
}

type eraReportRLP struct {
	Equivocators       []meridian.PublicKey
	Rewards            []rewardEntry
	InactiveValidators []meridian.PublicKey
}

// SortedRewards returns rewards ordered by validator.
func (r *EraReport) SortedRewards() []meridian.PublicKey {
	keys := make([]meridian.PublicKey, 0, len(r.Rewards))
	for pk := range r.Rewards {
		keys = append(keys, pk)
	}
	slices.SortFunc(keys, func(a, b meridian.PublicKey) int { return a.Compare(b) })
	return keys
}

// Evictions returns the union of inactive validators and equivocators,
// each validator once, ordered by public key.
func (r *EraReport) Evictions() []meridian.PublicKey {
	all := make([]meridian.PublicKey, 0, len(r.InactiveValidators)+len(r.Equivocators))
	all = append(all, r.InactiveValidators...)
	all = append(all, r.Equivocators...)
	slices.SortFunc(all, func(a, b meridian.PublicKey) int { return a.Compare(b) })
	return slices.Compact(all)
}

// EncodeRLP implements rlp.Encoder. Rewards are encoded in validator order.
func (r *EraReport) EncodeRLP(w io.Writer) error {
	obj := eraReportRLP{
		Equivocators:       r.Equivocators,
		InactiveValidators: r.InactiveValidators,
	}
	for _, pk := range r.SortedRewards() {
		obj.Rewards = append(obj.Rewards, rewardEntry{pk, r.Rewards[pk]})
	}
	return rlp.Encode(w, &obj)
}

// DecodeRLP implements rlp.Decoder.
func (r *EraReport) DecodeRLP(s *rlp.Stream) error {
	var obj eraReportRLP
	if err := s.Decode(&obj); err != nil {
		return err
	}
	rewards := make(map[meridian.PublicKey]*big.Int, len(obj.Rewards))
	for _, e := range obj.Rewards {
		rewards[e.Validator] = e.Amount
	}
	*r = EraReport{
		Equivocators:       obj.Equivocators,
		Rewards:            rewards,
		InactiveValidators: obj.InactiveValidators,
	}
	return nil
}

// FinalizedBlock is a block decided by consensus, not yet executed.
type FinalizedBlock struct {
	DeployHashes   []meridian.Bytes32
	TransferHashes []meridian.Bytes32
	Timestamp      meridian.Timestamp
	RandomBit      bool
	EraReport      *EraReport `rlp:"nil"`
	EraID          meridian.EraID
	Height         uint64
	Proposer       meridian.PublicKey
}

// NewFinalizedBlock creates a finalized block listing the deploys and transfers.
func NewFinalizedBlock(deploys, transfers []*Deploy, timestamp meridian.Timestamp, report *EraReport, era meridian.EraID, height uint64, proposer meridian.PublicKey) *FinalizedBlock {
	fb := &FinalizedBlock{
		Timestamp: timestamp,
		EraReport: report,
		EraID:     era,
		Height:    height,
		Proposer:  proposer,
	}
	for _, d := range deploys {
		fb.DeployHashes = append(fb.DeployHashes, d.Hash())
	}
	for _, t := range transfers {
		fb.TransferHashes = append(fb.TransferHashes, t.Hash())
	}
	return fb
}

// IsSwitchBlock returns whether the block ends its era.
func (fb *FinalizedBlock) IsSwitchBlock() bool { return fb.EraReport != nil }
