// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianchain/meridian/meridian"
)

var testPubKey = meridian.MustParsePublicKey("0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")

func TestValueCodec(t *testing.T) {
	addr := meridian.Blake2b([]byte("a"))
	values := []StoredValue{
		NewCLU512(big.NewInt(1000)),
		NewCLI64(-5),
		NewCLString("hello"),
		&Account{AccountHash: addr, MainPurse: addr, NamedKeys: NamedKeys{{"a", URefKey(addr)}}},
		&Contract{PackageHash: addr, WasmHash: addr, NamedKeys: NamedKeys{}, ProtocolVersion: meridian.V1_0_0},
		&ContractPackage{AccessURef: addr, Versions: []meridian.Bytes32{addr}, Disabled: []meridian.Bytes32{}},
		&ContractWasm{Bytes: []byte{1, 2, 3}},
		&Transfer{DeployHash: addr, From: addr, Amount: big.NewInt(10), Gas: big.NewInt(1), ID: 3},
		&DeployInfo{DeployHash: addr, Transfers: []meridian.Bytes32{addr}, Gas: big.NewInt(7)},
		&EraInfo{SeigniorageAllocations: []SeigniorageAllocation{{testPubKey, big.NewInt(9)}}},
		&Bid{ValidatorPublicKey: testPubKey, BondingPurse: addr, StakedAmount: big.NewInt(100), DelegationRate: 10},
		&EraValidators{Eras: []EraWeights{{Era: 1, Validators: ValidatorWeights{{testPubKey, big.NewInt(100)}}}}},
		&SystemRegistry{Entries: []RegistryEntry{{"auction", addr}}},
	}
	for _, v := range values {
		enc, err := EncodeValue(v)
		require.NoError(t, err)
		dec, err := DecodeValue(enc)
		require.NoError(t, err)
		assert.Equal(t, v.Tag(), dec.Tag())
		assert.Equal(t, v, dec)
	}
}

func TestDecodeUnexpectedVariant(t *testing.T) {
	enc, err := rlp.EncodeToBytes(&valueEnvelope{Tag: 99, Body: rlp.EmptyString})
	require.NoError(t, err)
	_, err = DecodeValue(enc)
	assert.ErrorContains(t, err, "unexpected variant")
}

func TestCLValueAccessors(t *testing.T) {
	u, err := NewCLU256(uint256.NewInt(77)).U256()
	require.NoError(t, err)
	assert.Equal(t, uint64(77), u.Uint64())

	_, err = NewCLU64(1).I64()
	var mismatch *TypeMismatchError
	assert.ErrorAs(t, err, &mismatch)

	b, err := NewCLBool(true).Bool()
	require.NoError(t, err)
	assert.True(t, b)

	k, err := NewCLKey(EraInfoKey(3)).Key()
	require.NoError(t, err)
	assert.Equal(t, EraInfoKey(3), k)

	pk, err := NewCLPublicKey(testPubKey).PublicKey()
	require.NoError(t, err)
	assert.Equal(t, testPubKey, pk)

	assert.Error(t, (&CLValue{Type: CLU64, Bytes: []byte{1}}).Validate())
	assert.Error(t, (&CLValue{Type: CLBool, Bytes: []byte{2}}).Validate())
	assert.Error(t, (&CLValue{Type: 99}).Validate())
	assert.Panics(t, func() { NewCLU512(big.NewInt(-1)) })
}

func TestCLValueJSON(t *testing.T) {
	data, err := json.Marshal(NewCLU512(big.NewInt(1000)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"cl_type":"U512","bytes":"0x03e8","parsed":"1000"}`, string(data))
}

func TestNamedKeys(t *testing.T) {
	a, b := URefKey(meridian.Bytes32{1}), URefKey(meridian.Bytes32{2})

	nk := NamedKeys{}.With("b", b).With("a", a)
	assert.Equal(t, NamedKeys{{"a", a}, {"b", b}}, nk)
	assert.NoError(t, nk.Validate())

	k, ok := nk.Get("b")
	assert.True(t, ok)
	assert.Equal(t, b, k)
	_, ok = nk.Get("c")
	assert.False(t, ok)

	merged := nk.Merge(NamedKeys{{"a", b}, {"c", a}})
	assert.Equal(t, NamedKeys{{"a", b}, {"b", b}, {"c", a}}, merged)
	// the receiver is not modified
	assert.Equal(t, NamedKeys{{"a", a}, {"b", b}}, nk)

	assert.Error(t, NamedKeys{{"b", a}, {"a", b}}.Validate())
	assert.Error(t, NamedKeys{{"", a}}.Validate())
}

func TestValidatorWeights(t *testing.T) {
	other := meridian.MustParsePublicKey("03" + testPubKey.String()[2:])
	vw := ValidatorWeights{{testPubKey, big.NewInt(10)}, {other, big.NewInt(5)}}

	w, ok := vw.Get(other)
	assert.True(t, ok)
	assert.Equal(t, int64(5), w.Int64())
	assert.Equal(t, int64(15), vw.TotalWeight().Int64())
}
