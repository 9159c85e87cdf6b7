// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/meridianchain/meridian/meridian"
)

// EraEnd is present in the header of switch blocks.
type EraEnd struct {
	Report                  EraReport
	NextEraValidatorWeights ValidatorWeights
}

// Header contains all information about a block except its body.
// It's immutable.
type Header struct {
	body headerBody

	cache struct {
		hash atomic.Pointer[meridian.Bytes32]
	}
}

type headerBody struct {
	ParentHash      meridian.Bytes32
	StateRootHash   meridian.Bytes32
	BodyHash        meridian.Bytes32
	RandomBit       bool
	AccumulatedSeed meridian.Bytes32
	EraEnd          *EraEnd `rlp:"nil"`
	Timestamp       meridian.Timestamp
	EraID           meridian.EraID
	Height          uint64
	ProtocolVersion meridian.ProtocolVersion
}

// ParentHash returns hash of the parent block.
func (h *Header) ParentHash() meridian.Bytes32 { return h.body.ParentHash }

// StateRootHash returns the global state root after the block was executed.
func (h *Header) StateRootHash() meridian.Bytes32 { return h.body.StateRootHash }

// BodyHash returns hash of the block body.
func (h *Header) BodyHash() meridian.Bytes32 { return h.body.BodyHash }

// RandomBit returns the random bit contributed by the proposer.
func (h *Header) RandomBit() bool { return h.body.RandomBit }

// AccumulatedSeed returns the seed accumulated from genesis.
func (h *Header) AccumulatedSeed() meridian.Bytes32 { return h.body.AccumulatedSeed }

// EraEnd returns the era end, nil if the block is not a switch block.
func (h *Header) EraEnd() *EraEnd { return h.body.EraEnd }

// Timestamp returns the block timestamp.
func (h *Header) Timestamp() meridian.Timestamp { return h.body.Timestamp }

// EraID returns the era the block belongs to.
func (h *Header) EraID() meridian.EraID { return h.body.EraID }

// Height returns the block height.
func (h *Header) Height() uint64 { return h.body.Height }

// ProtocolVersion returns the protocol version the block was executed with.
func (h *Header) ProtocolVersion() meridian.ProtocolVersion { return h.body.ProtocolVersion }

// IsSwitchBlock returns whether the block ends its era.
func (h *Header) IsSwitchBlock() bool { return h.body.EraEnd != nil }

// NextEraValidatorWeights returns the weights carried by a switch block.
func (h *Header) NextEraValidatorWeights() ValidatorWeights {
	if h.body.EraEnd == nil {
		return nil
	}
	return h.body.EraEnd.NextEraValidatorWeights
}

// Hash computes the block hash, the blake2b digest of the rlp encoded header.
func (h *Header) Hash() meridian.Bytes32 {
	if cached := h.cache.hash.Load(); cached != nil {
		return *cached
	}
	hash := meridian.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, &h.body)
	})
	h.cache.hash.Store(&hash)
	return hash
}

// EncodeRLP implements rlp.Encoder.
func (h *Header) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &h.body)
}

// DecodeRLP implements rlp.Decoder.
func (h *Header) DecodeRLP(s *rlp.Stream) error {
	var body headerBody
	if err := s.Decode(&body); err != nil {
		return err
	}
	*h = Header{body: body}
	return nil
}

func (h *Header) String() string {
	return fmt.Sprintf(`Header(%v):
	Height:			%v
	ParentHash:		%v
	StateRootHash:		%v
	BodyHash:		%v
	AccumulatedSeed:	%v
	Era:			%v
	Timestamp:		%v
	SwitchBlock:		%v
	ProtocolVersion:	%v`, h.Hash(), h.body.Height, h.body.ParentHash, h.body.StateRootHash,
		h.body.BodyHash, h.body.AccumulatedSeed, uint64(h.body.EraID), h.body.Timestamp,
		h.IsSwitchBlock(), h.body.ProtocolVersion)
}
