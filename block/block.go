// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/meridian"
)

// ErrEraEndMismatch is returned when only one of era report and next era
// validator weights is given.
var ErrEraEndMismatch = errors.New("era report and next era validator weights must be both present or both absent")

// Body lists the proposer and the deploys of a block.
type Body struct {
	Proposer       meridian.PublicKey
	DeployHashes   []meridian.Bytes32
	TransferHashes []meridian.Bytes32
}

// Hash returns the hash of the body.
func (b Body) Hash() meridian.Bytes32 {
	return meridian.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, &b)
	})
}

// Block is an immutable executed block.
type Block struct {
	header *Header
	body   Body
}

// NewBlock assembles the block executed on top of the parent.
// nextEraWeights must be given exactly when the finalized block carries an era report.
func NewBlock(
	parentHash meridian.Bytes32,
	parentSeed meridian.Bytes32,
	stateRoot meridian.Bytes32,
	fb *FinalizedBlock,
	nextEraWeights ValidatorWeights,
	protocolVersion meridian.ProtocolVersion,
) (*Block, error) {
	body := Body{
		Proposer:       fb.Proposer,
		DeployHashes:   fb.DeployHashes,
		TransferHashes: fb.TransferHashes,
	}

	var eraEnd *EraEnd
	switch {
	case fb.EraReport != nil && nextEraWeights != nil:
		eraEnd = &EraEnd{Report: *fb.EraReport, NextEraValidatorWeights: nextEraWeights}
	case fb.EraReport == nil && nextEraWeights == nil:
	default:
		return nil, ErrEraEndMismatch
	}

	var bit byte
	if fb.RandomBit {
		bit = 1
	}
	seed := meridian.Blake2b(parentSeed[:], []byte{bit})

	return &Block{
		header: &Header{body: headerBody{
			ParentHash:      parentHash,
			StateRootHash:   stateRoot,
			BodyHash:        body.Hash(),
			RandomBit:       fb.RandomBit,
			AccumulatedSeed: seed,
			EraEnd:          eraEnd,
			Timestamp:       fb.Timestamp,
			EraID:           fb.EraID,
			Height:          fb.Height,
			ProtocolVersion: protocolVersion,
		}},
		body: body,
	}, nil
}

// Header returns the block header.
func (b *Block) Header() *Header { return b.header }

// Body returns the block body.
func (b *Block) Body() Body { return b.body }

// Hash returns the block hash.
func (b *Block) Hash() meridian.Bytes32 { return b.header.Hash() }

// Height returns the block height.
func (b *Block) Height() uint64 { return b.header.Height() }

// EncodeRLP implements rlp.Encoder.
func (b *Block) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, []any{
		b.header,
		&b.body,
	})
}

// Decoder to decode block from bytes.
// Since Block is immutable, it's not suitable to implement rlp.Decoder.
type Decoder struct {
	Result *Block
}

// DecodeRLP implements rlp.Decoder.
func (d *Decoder) DecodeRLP(s *rlp.Stream) error {
	payload := struct {
		Header Header
		Body   Body
	}{}
	if err := s.Decode(&payload); err != nil {
		return err
	}
	if payload.Body.Hash() != payload.Header.BodyHash() {
		return errors.New("block body hash mismatch")
	}
	d.Result = &Block{
		header: &payload.Header,
		body:   payload.Body,
	}
	return nil
}
