// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
)

// SessionKind is the kind of logic a deploy runs.
type SessionKind uint8

const (
	SessionTransfer SessionKind = iota
	SessionNativeOps
	SessionModuleBytes
)

func (k SessionKind) String() string {
	switch k {
	case SessionTransfer:
		return "transfer"
	case SessionNativeOps:
		return "native-ops"
	case SessionModuleBytes:
		return "module-bytes"
	}
	return fmt.Sprintf("session(%d)", uint8(k))
}

// OpKind is the kind of a native op.
type OpKind uint8

const (
	OpWrite OpKind = iota
	OpAddUint64
	OpAddUint512
	OpPrune
)

// NativeOp is a declarative state operation run by the native executor.
type NativeOp struct {
	Kind   OpKind
	Key    state.Key
	Value  []byte   // encoded stored value, for OpWrite
	Amount *big.Int // for adds
}

// Transform converts the op into the transform it applies.
func (op *NativeOp) Transform() (state.Transform, error) {
	switch op.Kind {
	case OpWrite:
		v, err := state.DecodeValue(op.Value)
		if err != nil {
			return state.Transform{}, err
		}
		return state.Write(v), nil
	case OpAddUint64:
		if op.Amount == nil || !op.Amount.IsUint64() {
			return state.Transform{}, errors.New("add amount is not a uint64")
		}
		return state.AddUint64(op.Amount.Uint64()), nil
	case OpAddUint512:
		if op.Amount == nil || op.Amount.Sign() < 0 {
			return state.Transform{}, errors.New("add amount is negative")
		}
		return state.AddUint512(op.Amount), nil
	case OpPrune:
		return state.Prune(), nil
	}
	return state.Transform{}, errors.Errorf("unknown op kind %d", op.Kind)
}

// TransferArgs are the arguments of a native transfer.
type TransferArgs struct {
	Target meridian.Bytes32 // account hash
	Amount *big.Int
	ID     uint64
}

// Session is the logic a deploy runs.
type Session struct {
	Kind        SessionKind
	Transfer    *TransferArgs `rlp:"nil"`
	Ops         []NativeOp
	ModuleBytes []byte
}

// DeployHeader is the signed part of a deploy.
type DeployHeader struct {
	Account   meridian.PublicKey
	Timestamp meridian.Timestamp
	TTL       uint64
	GasPrice  uint64
	BodyHash  meridian.Bytes32
	ChainName string
}

// Deploy is an immutable transaction.
type Deploy struct {
	body deployBody

	cache struct {
		hash *meridian.Bytes32
	}
}

type deployBody struct {
	Header  DeployHeader
	Session Session
}

// NewDeploy creates a deploy and sets the header body hash.
func NewDeploy(header DeployHeader, session Session) *Deploy {
	header.BodyHash = meridian.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, &session)
	})
	return &Deploy{body: deployBody{Header: header, Session: session}}
}

// Hash returns the hash of the deploy header.
func (d *Deploy) Hash() meridian.Bytes32 {
	if cached := d.cache.hash; cached != nil {
		return *cached
	}
	h := meridian.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, &d.body.Header)
	})
	d.cache.hash = &h
	return h
}

// Header returns the deploy header.
func (d *Deploy) Header() DeployHeader { return d.body.Header }

// Session returns the deploy session.
func (d *Deploy) Session() *Session { return &d.body.Session }

// Account returns the public key of the deploy sender.
func (d *Deploy) Account() meridian.PublicKey { return d.body.Header.Account }

// IsTransfer returns whether the deploy is a native transfer.
func (d *Deploy) IsTransfer() bool { return d.body.Session.Kind == SessionTransfer }

// Validate checks the body hash and the session shape.
func (d *Deploy) Validate() error {
	bodyHash := meridian.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, &d.body.Session)
	})
	if bodyHash != d.body.Header.BodyHash {
		return errors.New("body hash mismatch")
	}
	s := &d.body.Session
	switch s.Kind {
	case SessionTransfer:
		if s.Transfer == nil {
			return errors.New("transfer session without args")
		}
		if s.Transfer.Amount == nil || s.Transfer.Amount.Sign() <= 0 {
			return errors.New("transfer amount must be positive")
		}
	case SessionNativeOps:
		for i := range s.Ops {
			if err := s.Ops[i].Key.Validate(); err != nil {
				return errors.WithMessagef(err, "op %d", i)
			}
		}
	case SessionModuleBytes:
	default:
		return errors.Errorf("unknown session kind %d", s.Kind)
	}
	return nil
}

// EncodeRLP implements rlp.Encoder.
func (d *Deploy) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &d.body)
}

// DecodeRLP implements rlp.Decoder.
func (d *Deploy) DecodeRLP(s *rlp.Stream) error {
	var body deployBody
	if err := s.Decode(&body); err != nil {
		return err
	}
	*d = Deploy{body: body}
	return nil
}

func (d *Deploy) String() string {
	return fmt.Sprintf(`Deploy(%v):
	Account:	%v
	Timestamp:	%v
	TTL:		%v
	GasPrice:	%v
	ChainName:	%v
	Session:	%v`, d.Hash(), d.body.Header.Account, d.body.Header.Timestamp, d.body.Header.TTL,
		d.body.Header.GasPrice, d.body.Header.ChainName, d.body.Session.Kind)
}
