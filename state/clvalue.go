// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"encoding/binary"
	"encoding/json"
	"math/big"
	"strconv"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/meridian"
)

// CLType is the type of a CLValue.
type CLType uint8

// CLValue types.
const (
	CLUnit CLType = iota
	CLBool
	CLI32
	CLI64
	CLU8
	CLU32
	CLU64
	CLU256
	CLU512
	CLString
	CLKey
	CLURef
	CLPublicKey
	CLBytes

	clTypeCount
)

var clTypeNames = [clTypeCount]string{
	"Unit", "Bool", "I32", "I64", "U8", "U32", "U64", "U256", "U512", "String", "Key", "URef", "PublicKey", "Bytes",
}

func (t CLType) String() string {
	if t >= clTypeCount {
		return "Unknown(" + strconv.Itoa(int(t)) + ")"
	}
	return clTypeNames[t]
}

// fixed encoded sizes, -1 for variable sized types.
var clTypeSizes = [clTypeCount]int{
	CLUnit:      0,
	CLBool:      1,
	CLI32:       4,
	CLI64:       8,
	CLU8:        1,
	CLU32:       4,
	CLU64:       8,
	CLU256:      32,
	CLU512:      -1,
	CLString:    -1,
	CLKey:       KeyLength,
	CLURef:      32,
	CLPublicKey: len(meridian.PublicKey{}),
	CLBytes:     -1,
}

// u512Max is 2^512-1.
var u512Max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 512), big.NewInt(1))

// CLValue is a typed value stored in global state.
type CLValue struct {
	Type  CLType
	Bytes []byte
}

func (*CLValue) storedValue() {}

// Tag implements StoredValue.
func (*CLValue) Tag() ValueTag { return ValueCLValue }

// NewCLUnit creates a unit value.
func NewCLUnit() *CLValue { return &CLValue{Type: CLUnit} }

// NewCLBool creates a bool value.
func NewCLBool(b bool) *CLValue {
	if b {
		return &CLValue{CLBool, []byte{1}}
	}
	return &CLValue{CLBool, []byte{0}}
}

// NewCLI32 creates a signed 32-bit value.
func NewCLI32(v int32) *CLValue {
	return &CLValue{CLI32, binary.BigEndian.AppendUint32(nil, uint32(v))}
}

// NewCLI64 creates a signed 64-bit value.
func NewCLI64(v int64) *CLValue {
	return &CLValue{CLI64, binary.BigEndian.AppendUint64(nil, uint64(v))}
}

// NewCLU8 creates an unsigned 8-bit value.
func NewCLU8(v uint8) *CLValue { return &CLValue{CLU8, []byte{v}} }

// NewCLU32 creates an unsigned 32-bit value.
func NewCLU32(v uint32) *CLValue {
	return &CLValue{CLU32, binary.BigEndian.AppendUint32(nil, v)}
}

// NewCLU64 creates an unsigned 64-bit value.
func NewCLU64(v uint64) *CLValue {
	return &CLValue{CLU64, binary.BigEndian.AppendUint64(nil, v)}
}

// NewCLU256 creates an unsigned 256-bit value.
func NewCLU256(v *uint256.Int) *CLValue {
	b := v.Bytes32()
	return &CLValue{CLU256, b[:]}
}

// NewCLU512 creates an unsigned 512-bit value.
// It panics if v is negative or does not fit in 512 bits.
func NewCLU512(v *big.Int) *CLValue {
	if v.Sign() < 0 || v.Cmp(u512Max) > 0 {
		panic("U512 out of range")
	}
	return &CLValue{CLU512, v.Bytes()}
}

// NewCLString creates a string value.
func NewCLString(s string) *CLValue { return &CLValue{CLString, []byte(s)} }

// NewCLKey creates a key value.
func NewCLKey(k Key) *CLValue { return &CLValue{CLKey, k.Bytes()} }

// NewCLURef creates an unforgeable reference value.
func NewCLURef(addr meridian.Bytes32) *CLValue { return &CLValue{CLURef, addr.Bytes()} }

// NewCLPublicKey creates a public key value.
func NewCLPublicKey(pk meridian.PublicKey) *CLValue {
	return &CLValue{CLPublicKey, append([]byte(nil), pk[:]...)}
}

// NewCLBytes creates a raw bytes value.
func NewCLBytes(b []byte) *CLValue { return &CLValue{CLBytes, append([]byte(nil), b...)} }

// Validate checks that the encoded bytes match the type.
func (v *CLValue) Validate() error {
	if v.Type >= clTypeCount {
		return errors.Errorf("invalid cl type %d", v.Type)
	}
	if size := clTypeSizes[v.Type]; size >= 0 && len(v.Bytes) != size {
		return errors.Errorf("invalid %v length %d", v.Type, len(v.Bytes))
	}
	switch v.Type {
	case CLBool:
		if v.Bytes[0] > 1 {
			return errors.New("invalid bool")
		}
	case CLU512:
		if len(v.Bytes) > 64 || (len(v.Bytes) > 0 && v.Bytes[0] == 0) {
			return errors.New("invalid U512 encoding")
		}
	case CLString:
		if !utf8.Valid(v.Bytes) {
			return errors.New("invalid utf8 string")
		}
	case CLKey:
		if _, err := KeyFromBytes(v.Bytes); err != nil {
			return err
		}
	}
	return nil
}

func (v *CLValue) expect(t CLType) error {
	if v.Type != t {
		return &TypeMismatchError{Expected: t.String(), Found: v.Type.String()}
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Bool returns the bool value.
func (v *CLValue) Bool() (bool, error) {
	if err := v.expect(CLBool); err != nil {
		return false, err
	}
	return v.Bytes[0] == 1, nil
}

// I64 returns the signed 64-bit value.
func (v *CLValue) I64() (int64, error) {
	if err := v.expect(CLI64); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(v.Bytes)), nil
}

// U64 returns the unsigned 64-bit value.
func (v *CLValue) U64() (uint64, error) {
	if err := v.expect(CLU64); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(v.Bytes), nil
}

// U256 returns the unsigned 256-bit value.
func (v *CLValue) U256() (*uint256.Int, error) {
	if err := v.expect(CLU256); err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes32(v.Bytes), nil
}

// U512 returns the unsigned 512-bit value.
func (v *CLValue) U512() (*big.Int, error) {
	if err := v.expect(CLU512); err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(v.Bytes), nil
}

// Str returns the string value.
func (v *CLValue) Str() (string, error) {
	if err := v.expect(CLString); err != nil {
		return "", err
	}
	return string(v.Bytes), nil
}

// Key returns the key value.
func (v *CLValue) Key() (Key, error) {
	if err := v.expect(CLKey); err != nil {
		return Key{}, err
	}
	return KeyFromBytes(v.Bytes)
}

// URef returns the address of an unforgeable reference value.
func (v *CLValue) URef() (meridian.Bytes32, error) {
	if err := v.expect(CLURef); err != nil {
		return meridian.Bytes32{}, err
	}
	return meridian.BytesToBytes32(v.Bytes), nil
}

// PublicKey returns the public key value.
func (v *CLValue) PublicKey() (meridian.PublicKey, error) {
	if err := v.expect(CLPublicKey); err != nil {
		return meridian.PublicKey{}, err
	}
	var pk meridian.PublicKey
	copy(pk[:], v.Bytes)
	return pk, nil
}

// parsed returns a json friendly rendering of the value.
func (v *CLValue) parsed() any {
	if v.Validate() != nil {
		return nil
	}
	switch v.Type {
	case CLUnit:
		return nil
	case CLBool:
		b, _ := v.Bool()
		return b
	case CLI32:
		return int32(binary.BigEndian.Uint32(v.Bytes))
	case CLI64:
		i, _ := v.I64()
		return i
	case CLU8:
		return v.Bytes[0]
	case CLU32:
		return binary.BigEndian.Uint32(v.Bytes)
	case CLU64:
		u, _ := v.U64()
		return u
	case CLU256:
		u, _ := v.U256()
		return u.Dec()
	case CLU512:
		u, _ := v.U512()
		return u.String()
	case CLString:
		return string(v.Bytes)
	case CLKey:
		k, _ := v.Key()
		return k.String()
	case CLURef:
		u, _ := v.URef()
		return URefKey(u).String()
	case CLPublicKey:
		pk, _ := v.PublicKey()
		return pk.String()
	default:
		return hexutil.Bytes(v.Bytes)
	}
}

// MarshalJSON implements json.Marshaler.
func (v *CLValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		CLType string        `json:"cl_type"`
		Bytes  hexutil.Bytes `json:"bytes"`
		Parsed any           `json:"parsed"`
	}{v.Type.String(), v.Bytes, v.parsed()})
}
