// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package meridian

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
)

// PublicKeyLength length of a compressed secp256k1 public key.
const PublicKeyLength = secp256k1.PubKeyBytesLenCompressed

// PublicKey compressed secp256k1 public key identifying a validator or an account owner.
type PublicKey [PublicKeyLength]byte

// NewPublicKey converts a secp256k1 public key.
func NewPublicKey(pub *secp256k1.PublicKey) (pk PublicKey) {
	copy(pk[:], pub.SerializeCompressed())
	return
}

// ParsePublicKey parses hex presented public key, with or without 0x prefix.
// The point is checked to be on the curve.
func ParsePublicKey(s string) (PublicKey, error) {
	if len(s) >= 2 && strings.ToLower(s[:2]) == "0x" {
		s = s[2:]
	}
	if len(s) != PublicKeyLength*2 {
		return PublicKey{}, errors.New("invalid public key length")
	}
	var pk PublicKey
	if _, err := hex.Decode(pk[:], []byte(s)); err != nil {
		return PublicKey{}, err
	}
	if _, err := secp256k1.ParsePubKey(pk[:]); err != nil {
		return PublicKey{}, errors.WithMessage(err, "public key")
	}
	return pk, nil
}

// MustParsePublicKey parses public key, panic on error.
func MustParsePublicKey(s string) PublicKey {
	pk, err := ParsePublicKey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// AccountHash returns the account address owned by the key.
func (pk PublicKey) AccountHash() Bytes32 {
	return Blake2b(pk[:])
}

// Compare orders public keys by their bytes.
func (pk PublicKey) Compare(other PublicKey) int {
	return bytes.Compare(pk[:], other[:])
}

// IsZero returns if the key has all zero bytes.
func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

func (pk PublicKey) String() string {
	return hex.EncodeToString(pk[:])
}

// MarshalText implements encoding.TextMarshaler.
func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. The zero key of the
// system proposer is accepted.
func (pk *PublicKey) UnmarshalText(text []byte) error {
	if string(text) == (PublicKey{}).String() {
		*pk = PublicKey{}
		return nil
	}
	parsed, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}
