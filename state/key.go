// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/meridian"
)

// KeyTag is the kind of a state key.
type KeyTag uint8

// Key tags.
const (
	KeyAccount KeyTag = iota
	KeyHash
	KeyURef
	KeyTransfer
	KeyDeployInfo
	KeyEraInfo
	KeyBalance
	KeyBid
	KeyDictionary
	KeySystemEntityRegistry
	KeyEraSummary

	keyTagCount
)

var keyTagPrefixes = [keyTagCount]string{
	KeyAccount:              "account-hash-",
	KeyHash:                 "hash-",
	KeyURef:                 "uref-",
	KeyTransfer:             "transfer-",
	KeyDeployInfo:           "deploy-",
	KeyEraInfo:              "era-",
	KeyBalance:              "balance-",
	KeyBid:                  "bid-",
	KeyDictionary:           "dictionary-",
	KeySystemEntityRegistry: "system-entity-registry",
	KeyEraSummary:           "era-summary",
}

var keyTagNames = [keyTagCount]string{
	KeyAccount:              "account",
	KeyHash:                 "hash",
	KeyURef:                 "uref",
	KeyTransfer:             "transfer",
	KeyDeployInfo:           "deploy-info",
	KeyEraInfo:              "era-info",
	KeyBalance:              "balance",
	KeyBid:                  "bid",
	KeyDictionary:           "dictionary",
	KeySystemEntityRegistry: "system-entity-registry",
	KeyEraSummary:           "era-summary",
}

// Valid returns whether the tag is a known key tag.
func (t KeyTag) Valid() bool { return t < keyTagCount }

func (t KeyTag) String() string {
	if !t.Valid() {
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
	return keyTagNames[t]
}

// ParseKeyTag parses the tag name as returned by KeyTag.String.
func ParseKeyTag(s string) (KeyTag, error) {
	for i, name := range keyTagNames {
		if name == s {
			return KeyTag(i), nil
		}
	}
	return 0, errors.Errorf("unknown key tag %q", s)
}

// KeyLength is the length of encoded keys.
const KeyLength = 1 + 32

// Key addresses a value in global state. Keys are comparable and used as map keys.
type Key struct {
	Tag  KeyTag
	Addr meridian.Bytes32
}

// AccountKey returns the key of the account with the given account hash.
func AccountKey(accountHash meridian.Bytes32) Key { return Key{KeyAccount, accountHash} }

// HashKey returns the key of a contract, package or wasm record.
func HashKey(hash meridian.Bytes32) Key { return Key{KeyHash, hash} }

// URefKey returns the key of an unforgeable reference.
func URefKey(addr meridian.Bytes32) Key { return Key{KeyURef, addr} }

// TransferKey returns the key of a transfer record.
func TransferKey(addr meridian.Bytes32) Key { return Key{KeyTransfer, addr} }

// DeployInfoKey returns the key of the deploy info record.
func DeployInfoKey(deployHash meridian.Bytes32) Key { return Key{KeyDeployInfo, deployHash} }

// EraInfoKey returns the key of the era info record of the era.
func EraInfoKey(era meridian.EraID) Key {
	var k Key
	k.Tag = KeyEraInfo
	binary.BigEndian.PutUint64(k.Addr[24:], uint64(era))
	return k
}

// BalanceKey returns the key of the balance of the purse.
func BalanceKey(purse meridian.Bytes32) Key { return Key{KeyBalance, purse} }

// BidKey returns the key of the bid of the validator with the account hash.
func BidKey(accountHash meridian.Bytes32) Key { return Key{KeyBid, accountHash} }

// DictionaryKey returns the key of a dictionary item.
func DictionaryKey(addr meridian.Bytes32) Key { return Key{KeyDictionary, addr} }

// SystemEntityRegistryKey returns the key of the system registry.
func SystemEntityRegistryKey() Key { return Key{Tag: KeySystemEntityRegistry} }

// EraSummaryKey returns the key of the era summary.
func EraSummaryKey() Key { return Key{Tag: KeyEraSummary} }

// EraID returns the era of an era info key.
func (k Key) EraID() (meridian.EraID, bool) {
	if k.Tag != KeyEraInfo {
		return 0, false
	}
	return meridian.EraID(binary.BigEndian.Uint64(k.Addr[24:])), true
}

// Bytes returns the trie key.
func (k Key) Bytes() []byte {
	b := make([]byte, KeyLength)
	b[0] = byte(k.Tag)
	copy(b[1:], k.Addr[:])
	return b
}

// Validate checks the structure of the key.
func (k Key) Validate() error {
	if !k.Tag.Valid() {
		return errors.Errorf("invalid key tag %d", k.Tag)
	}
	switch k.Tag {
	case KeySystemEntityRegistry, KeyEraSummary:
		if !k.Addr.IsZero() {
			return errors.Errorf("%v key with non-zero address", k.Tag)
		}
	case KeyEraInfo:
		var zero [24]byte
		if [24]byte(k.Addr[:24]) != zero {
			return errors.New("era info key with invalid address")
		}
	}
	return nil
}

// KeyFromBytes decodes a trie key.
func KeyFromBytes(b []byte) (Key, error) {
	if len(b) != KeyLength {
		return Key{}, errors.Errorf("invalid key length %d", len(b))
	}
	k := Key{Tag: KeyTag(b[0]), Addr: meridian.BytesToBytes32(b[1:])}
	if err := k.Validate(); err != nil {
		return Key{}, err
	}
	return k, nil
}

// String returns the formatted key, e.g. "account-hash-<hex>" or "era-42".
func (k Key) String() string {
	if !k.Tag.Valid() {
		return fmt.Sprintf("unknown-%d-%x", k.Tag, k.Addr[:])
	}
	switch k.Tag {
	case KeyEraInfo:
		era, _ := k.EraID()
		return keyTagPrefixes[k.Tag] + strconv.FormatUint(uint64(era), 10)
	case KeySystemEntityRegistry, KeyEraSummary:
		return keyTagPrefixes[k.Tag]
	}
	return keyTagPrefixes[k.Tag] + hex.EncodeToString(k.Addr[:])
}

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKey parses the formatted key.
func ParseKey(s string) (Key, error) {
	// fixed keys first, since "era-summary" shares the "era-" prefix.
	switch s {
	case keyTagPrefixes[KeySystemEntityRegistry]:
		return SystemEntityRegistryKey(), nil
	case keyTagPrefixes[KeyEraSummary]:
		return EraSummaryKey(), nil
	}
	if rest, ok := strings.CutPrefix(s, keyTagPrefixes[KeyEraInfo]); ok {
		era, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			return Key{}, errors.Wrapf(err, "parse key %q", s)
		}
		return EraInfoKey(meridian.EraID(era)), nil
	}
	for tag, prefix := range keyTagPrefixes {
		switch KeyTag(tag) {
		case KeyEraInfo, KeySystemEntityRegistry, KeyEraSummary:
			continue
		}
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			addr, err := meridian.ParseBytes32(rest)
			if err != nil {
				return Key{}, errors.Wrapf(err, "parse key %q", s)
			}
			return Key{KeyTag(tag), addr}, nil
		}
	}
	return Key{}, errors.Errorf("parse key %q: unknown prefix", s)
}

// CompareKeys orders keys by their trie key.
func CompareKeys(a, b Key) int {
	if a.Tag != b.Tag {
		if a.Tag < b.Tag {
			return -1
		}
		return 1
	}
	return bytes.Compare(a.Addr[:], b.Addr[:])
}
