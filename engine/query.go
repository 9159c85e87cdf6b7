// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package engine

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
	"github.com/meridianchain/meridian/trackingcopy"
)

// ErrPurseNotFound is returned when the purse of a balance query does not exist.
var ErrPurseNotFound = errors.New("purse not found")

// Query reads the value at baseKey and path in the state at root.
func (e *EngineState) Query(root meridian.Bytes32, baseKey state.Key, path []string) (*trackingcopy.QueryResult, error) {
	tc, err := e.trackingCopy(root)
	if err != nil {
		return nil, err
	}
	return tc.Query(baseKey, path)
}

// TaggedValues returns every value whose key has the tag.
func (e *EngineState) TaggedValues(root meridian.Bytes32, tag state.KeyTag) ([]state.StoredValue, error) {
	if !tag.Valid() {
		return nil, errors.Errorf("invalid key tag %d", tag)
	}
	return e.PrefixedValues(root, []byte{byte(tag)})
}

// PrefixedValues returns the values whose trie key starts with prefix, in key order.
func (e *EngineState) PrefixedValues(root meridian.Bytes32, prefix []byte) ([]state.StoredValue, error) {
	reader, err := e.provider.Checkout(root)
	if err != nil {
		return nil, err
	}
	keys, err := reader.KeysWithPrefix(prefix)
	if err != nil {
		return nil, err
	}
	values := make([]state.StoredValue, 0, len(keys))
	for _, key := range keys {
		v, found, err := reader.Read(key)
		if err != nil {
			return nil, err
		}
		if found {
			values = append(values, v)
		}
	}
	return values, nil
}

// PurseIdentifierKind tells how a purse is identified.
type PurseIdentifierKind uint8

const (
	PurseMainURef PurseIdentifierKind = iota
	PurseAccountHash
	PursePublicKey
)

// PurseIdentifier identifies a purse directly or by the account owning it.
type PurseIdentifier struct {
	Kind        PurseIdentifierKind
	Purse       meridian.Bytes32
	AccountHash meridian.Bytes32
	PublicKey   meridian.PublicKey
}

// ParsePurseIdentifier parses "uref-<hex>", "account-hash-<hex>" or a hex public key.
func ParsePurseIdentifier(s string) (*PurseIdentifier, error) {
	if key, err := state.ParseKey(s); err == nil {
		switch key.Tag {
		case state.KeyURef:
			return &PurseIdentifier{Kind: PurseMainURef, Purse: key.Addr}, nil
		case state.KeyAccount:
			return &PurseIdentifier{Kind: PurseAccountHash, AccountHash: key.Addr}, nil
		}
		return nil, errors.Errorf("key %v does not identify a purse", key)
	}
	pk, err := meridian.ParsePublicKey(s)
	if err != nil {
		return nil, errors.Errorf("invalid purse identifier %q", s)
	}
	return &PurseIdentifier{Kind: PursePublicKey, PublicKey: pk}, nil
}

// BalanceResult is a purse balance with the proofs of the records read.
type BalanceResult struct {
	Purse   meridian.Bytes32
	Balance *big.Int
	Proofs  []trackingcopy.KeyProof
}

// Balance returns the balance of the identified purse at root.
func (e *EngineState) Balance(root meridian.Bytes32, id *PurseIdentifier) (*BalanceResult, error) {
	tc, err := e.trackingCopy(root)
	if err != nil {
		return nil, err
	}
	result := &BalanceResult{Purse: id.Purse}

	if id.Kind != PurseMainURef {
		accountHash := id.AccountHash
		if id.Kind == PursePublicKey {
			accountHash = id.PublicKey.AccountHash()
		}
		key := state.AccountKey(accountHash)
		v, proof, found, err := tc.ReadWithProof(key)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, errors.Wrapf(ErrPurseNotFound, "no account %v", key)
		}
		acc, ok := v.(*state.Account)
		if !ok {
			return nil, &trackingcopy.TypeMismatchError{Expected: state.ValueAccount.String(), Found: v.Tag().String()}
		}
		result.Purse = acc.MainPurse
		result.Proofs = append(result.Proofs, trackingcopy.KeyProof{Key: key, Proof: proof})
	}

	key := state.BalanceKey(result.Purse)
	v, proof, found, err := tc.ReadWithProof(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Wrapf(ErrPurseNotFound, "no balance %v", key)
	}
	if result.Balance, err = trackingcopy.BalanceOf(v); err != nil {
		return nil, err
	}
	result.Proofs = append(result.Proofs, trackingcopy.KeyProof{Key: key, Proof: proof})
	return result, nil
}

// Trie returns the encoded trie node with the digest, nil if there is none.
func (e *EngineState) Trie(digest meridian.Bytes32) ([]byte, error) {
	return e.gs.Trie(digest)
}
