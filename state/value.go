// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"
	"slices"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/meridianchain/meridian/meridian"
)

// ValueTag is the variant tag of a StoredValue.
type ValueTag uint8

// Stored value variants.
const (
	ValueCLValue ValueTag = iota
	ValueAccount
	ValueContract
	ValueContractPackage
	ValueContractWasm
	ValueTransfer
	ValueDeployInfo
	ValueEraInfo
	ValueBid
	ValueEraValidators
	ValueSystemRegistry
)

var valueTagNames = []string{
	"CLValue", "Account", "Contract", "ContractPackage", "ContractWasm", "Transfer",
	"DeployInfo", "EraInfo", "Bid", "EraValidators", "SystemRegistry",
}

func (t ValueTag) String() string {
	if int(t) < len(valueTagNames) {
		return valueTagNames[t]
	}
	return "Unknown(" + strconv.Itoa(int(t)) + ")"
}

// StoredValue is a value stored in global state.
// The set of variants is closed.
type StoredValue interface {
	Tag() ValueTag
	storedValue()
}

// NamedKey binds a name to a key.
type NamedKey struct {
	Name string
	Key  Key
}

// NamedKeys is a list of named keys sorted by name.
type NamedKeys []NamedKey

func compareNamedKey(a, b NamedKey) int { return strings.Compare(a.Name, b.Name) }

// Get returns the key with the name.
func (nk NamedKeys) Get(name string) (Key, bool) {
	i, found := slices.BinarySearchFunc(nk, NamedKey{Name: name}, compareNamedKey)
	if !found {
		return Key{}, false
	}
	return nk[i].Key, true
}

// With returns a copy of nk with name bound to key.
func (nk NamedKeys) With(name string, key Key) NamedKeys {
	return nk.Merge(NamedKeys{{name, key}})
}

// Merge returns the union of nk and other. Keys of other win on name clashes.
func (nk NamedKeys) Merge(other NamedKeys) NamedKeys {
	merged := make(NamedKeys, 0, len(nk)+len(other))
	merged = append(merged, nk...)
	for _, e := range other {
		i, found := slices.BinarySearchFunc(merged, e, compareNamedKey)
		if found {
			merged[i] = e
		} else {
			merged = slices.Insert(merged, i, e)
		}
	}
	return merged
}

// Validate checks ordering, names and keys.
func (nk NamedKeys) Validate() error {
	for i, e := range nk {
		if len(e.Name) == 0 || len(e.Name) > meridian.MaxNamedKeyLength {
			return errors.Errorf("invalid named key name length %d", len(e.Name))
		}
		if err := e.Key.Validate(); err != nil {
			return errors.WithMessagef(err, "named key %q", e.Name)
		}
		if i > 0 && nk[i-1].Name >= e.Name {
			return errors.New("named keys not sorted or duplicated")
		}
	}
	return nil
}

// Account is an account record.
type Account struct {
	AccountHash meridian.Bytes32
	MainPurse   meridian.Bytes32
	NamedKeys   NamedKeys
}

// Contract is a contract record.
type Contract struct {
	PackageHash     meridian.Bytes32
	WasmHash        meridian.Bytes32
	NamedKeys       NamedKeys
	ProtocolVersion meridian.ProtocolVersion
}

// ContractPackage lists the versions of a contract.
type ContractPackage struct {
	AccessURef meridian.Bytes32
	Versions   []meridian.Bytes32
	Disabled   []meridian.Bytes32
}

// ContractWasm is the code of a contract.
type ContractWasm struct {
	Bytes []byte
}

// Transfer is the record of a native transfer.
type Transfer struct {
	DeployHash meridian.Bytes32
	From       meridian.Bytes32 // account hash
	To         meridian.Bytes32 // account hash
	Source     meridian.Bytes32 // purse
	Target     meridian.Bytes32 // purse
	Amount     *big.Int
	Gas        *big.Int
	ID         uint64
}

// DeployInfo records the outcome of a deploy.
type DeployInfo struct {
	DeployHash meridian.Bytes32
	Transfers  []meridian.Bytes32
	From       meridian.Bytes32
	Source     meridian.Bytes32
	Gas        *big.Int
}

// SeigniorageAllocation is the reward allocated to a validator in an era.
type SeigniorageAllocation struct {
	ValidatorPublicKey meridian.PublicKey
	Amount             *big.Int
}

// EraInfo is the per-era auction information.
type EraInfo struct {
	SeigniorageAllocations []SeigniorageAllocation
}

// Bid is the bid of a validator.
type Bid struct {
	ValidatorPublicKey meridian.PublicKey
	BondingPurse       meridian.Bytes32
	StakedAmount       *big.Int
	DelegationRate     uint8
	Inactive           bool
}

// ValidatorWeight is the weight of a validator.
type ValidatorWeight struct {
	PublicKey meridian.PublicKey
	Weight    *big.Int
}

// ValidatorWeights is a list of validator weights sorted by public key.
type ValidatorWeights []ValidatorWeight

// Get returns the weight of the validator.
func (vw ValidatorWeights) Get(pk meridian.PublicKey) (*big.Int, bool) {
	i, found := slices.BinarySearchFunc(vw, pk, func(w ValidatorWeight, pk meridian.PublicKey) int {
		return w.PublicKey.Compare(pk)
	})
	if !found {
		return nil, false
	}
	return vw[i].Weight, true
}

// TotalWeight sums all weights.
func (vw ValidatorWeights) TotalWeight() *big.Int {
	total := new(big.Int)
	for _, w := range vw {
		total.Add(total, w.Weight)
	}
	return total
}

// EraWeights are the validator weights of an era.
type EraWeights struct {
	Era        meridian.EraID
	Validators ValidatorWeights
}

// EraValidators is the snapshot of validator weights for upcoming eras,
// sorted by era.
type EraValidators struct {
	Eras []EraWeights
}

// Get returns the weights of the era.
func (ev *EraValidators) Get(era meridian.EraID) (ValidatorWeights, bool) {
	for _, e := range ev.Eras {
		if e.Era == era {
			return e.Validators, true
		}
	}
	return nil, false
}

// RegistryEntry maps a system contract name to its hash.
type RegistryEntry struct {
	Name string
	Hash meridian.Bytes32
}

// SystemRegistry is the registry of system contracts.
type SystemRegistry struct {
	Entries []RegistryEntry
}

// Get returns the hash of the system contract.
func (r *SystemRegistry) Get(name string) (meridian.Bytes32, bool) {
	for _, e := range r.Entries {
		if e.Name == name {
			return e.Hash, true
		}
	}
	return meridian.Bytes32{}, false
}

func (*Account) storedValue()         {}
func (*Contract) storedValue()        {}
func (*ContractPackage) storedValue() {}
func (*ContractWasm) storedValue()    {}
func (*Transfer) storedValue()        {}
func (*DeployInfo) storedValue()      {}
func (*EraInfo) storedValue()         {}
func (*Bid) storedValue()             {}
func (*EraValidators) storedValue()   {}
func (*SystemRegistry) storedValue()  {}

// Tag implements StoredValue.
func (*Account) Tag() ValueTag         { return ValueAccount }
func (*Contract) Tag() ValueTag        { return ValueContract }
func (*ContractPackage) Tag() ValueTag { return ValueContractPackage }
func (*ContractWasm) Tag() ValueTag    { return ValueContractWasm }
func (*Transfer) Tag() ValueTag        { return ValueTransfer }
func (*DeployInfo) Tag() ValueTag      { return ValueDeployInfo }
func (*EraInfo) Tag() ValueTag         { return ValueEraInfo }
func (*Bid) Tag() ValueTag             { return ValueBid }
func (*EraValidators) Tag() ValueTag   { return ValueEraValidators }
func (*SystemRegistry) Tag() ValueTag  { return ValueSystemRegistry }

type valueEnvelope struct {
	Tag  ValueTag
	Body rlp.RawValue
}

// EncodeValue encodes the stored value.
func EncodeValue(v StoredValue) ([]byte, error) {
	if v == nil {
		return nil, errors.New("encode nil value")
	}
	body, err := rlp.EncodeToBytes(v)
	if err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes(&valueEnvelope{v.Tag(), body})
}

// DecodeValue decodes the stored value.
func DecodeValue(data []byte) (StoredValue, error) {
	var env valueEnvelope
	if err := rlp.DecodeBytes(data, &env); err != nil {
		return nil, errors.Wrap(err, "decode value envelope")
	}
	var v StoredValue
	switch env.Tag {
	case ValueCLValue:
		v = new(CLValue)
	case ValueAccount:
		v = new(Account)
	case ValueContract:
		v = new(Contract)
	case ValueContractPackage:
		v = new(ContractPackage)
	case ValueContractWasm:
		v = new(ContractWasm)
	case ValueTransfer:
		v = new(Transfer)
	case ValueDeployInfo:
		v = new(DeployInfo)
	case ValueEraInfo:
		v = new(EraInfo)
	case ValueBid:
		v = new(Bid)
	case ValueEraValidators:
		v = new(EraValidators)
	case ValueSystemRegistry:
		v = new(SystemRegistry)
	default:
		return nil, errors.Errorf("unexpected variant %v", env.Tag)
	}
	if err := rlp.DecodeBytes(env.Body, v); err != nil {
		return nil, errors.Wrapf(err, "decode %v", env.Tag)
	}
	return v, nil
}

// ValidateValue checks the structure of a value before it is written.
func ValidateValue(v StoredValue) error {
	switch v := v.(type) {
	case nil:
		return errors.New("nil value")
	case *CLValue:
		return v.Validate()
	case *Account:
		return v.NamedKeys.Validate()
	case *Contract:
		return v.NamedKeys.Validate()
	case *Bid:
		if v.StakedAmount == nil || v.StakedAmount.Sign() < 0 {
			return errors.New("invalid bid stake")
		}
	}
	return nil
}
