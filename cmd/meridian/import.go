// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/meridianchain/meridian/block"
	"github.com/meridianchain/meridian/contractruntime"
	"github.com/meridianchain/meridian/meridian"
)

// importReport is the era report of a switch block in a blocks file.
type importReport struct {
	Equivocators       []meridian.PublicKey                `json:"equivocators"`
	Rewards            map[meridian.PublicKey]*hexutil.Big `json:"rewards"`
	InactiveValidators []meridian.PublicKey                `json:"inactiveValidators"`
}

// importBlock is a finalized block in a blocks file. Deploys are RLP
// encoded, transfers and other deploys mixed in block order.
type importBlock struct {
	Height    uint64             `json:"height"`
	EraID     meridian.EraID     `json:"eraId"`
	Timestamp meridian.Timestamp `json:"timestamp"`
	Proposer  meridian.PublicKey `json:"proposer"`
	EraReport *importReport      `json:"eraReport,omitempty"`
	Deploys   []hexutil.Bytes    `json:"deploys"`
}

func readBlocksFile(path string) ([]*importBlock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read blocks file")
	}
	var blocks []*importBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, errors.Wrap(err, "decode blocks file")
	}
	return blocks, nil
}

func (ib *importBlock) executable() (*contractruntime.ExecutableBlock, error) {
	var deploys, transfers []*block.Deploy
	for i, raw := range ib.Deploys {
		var d block.Deploy
		if err := rlp.DecodeBytes(raw, &d); err != nil {
			return nil, errors.Wrapf(err, "block %d: decode deploy %d", ib.Height, i)
		}
		if err := d.Validate(); err != nil {
			return nil, errors.Wrapf(err, "block %d: deploy %d", ib.Height, i)
		}
		if d.IsTransfer() {
			transfers = append(transfers, &d)
		} else {
			deploys = append(deploys, &d)
		}
	}

	var report *block.EraReport
	if ib.EraReport != nil {
		report = &block.EraReport{
			Equivocators:       ib.EraReport.Equivocators,
			Rewards:            make(map[meridian.PublicKey]*big.Int, len(ib.EraReport.Rewards)),
			InactiveValidators: ib.EraReport.InactiveValidators,
		}
		for pk, amount := range ib.EraReport.Rewards {
			report.Rewards[pk] = amount.ToInt()
		}
	}
	return &contractruntime.ExecutableBlock{
		FinalizedBlock: block.NewFinalizedBlock(deploys, transfers, ib.Timestamp, report, ib.EraID, ib.Height, ib.Proposer),
		Deploys:        deploys,
		Transfers:      transfers,
	}, nil
}

// importBlocks executes the blocks through the runtime. Blocks already
// executed are skipped.
func importBlocks(ctx context.Context, rt *contractruntime.Runtime, next uint64, blocks []*importBlock) error {
	var last uint64
	pending := 0
	for _, ib := range blocks {
		if ib.Height < next {
			continue
		}
		eb, err := ib.executable()
		if err != nil {
			return err
		}
		if err := rt.Enqueue(eb); err != nil {
			return err
		}
		pending++
		last = max(last, ib.Height)
	}
	if pending == 0 {
		logger.Info("no block to import", "next", next)
		return nil
	}
	if uint64(pending) != last-next+1 {
		return errors.Errorf("blocks %d to %d are not contiguous", next, last)
	}

	bar := pb.New64(int64(pending)).
		SetMaxWidth(90).
		Start()
	defer func() { bar.NotPrint = true }()

	for height := next; height <= last; height++ {
		if err := rt.WaitExecuted(ctx, height); err != nil {
			return errors.WithMessagef(err, "block %d", height)
		}
		bar.Increment()
	}
	bar.Finish()
	return nil
}
