// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianchain/meridian/meridian"
)

func TestKeyStringRoundTrip(t *testing.T) {
	addr := meridian.Blake2b([]byte("addr"))
	keys := []Key{
		AccountKey(addr),
		HashKey(addr),
		URefKey(addr),
		TransferKey(addr),
		DeployInfoKey(addr),
		EraInfoKey(42),
		BalanceKey(addr),
		BidKey(addr),
		DictionaryKey(addr),
		SystemEntityRegistryKey(),
		EraSummaryKey(),
	}
	for _, k := range keys {
		parsed, err := ParseKey(k.String())
		require.NoError(t, err, k.String())
		assert.Equal(t, k, parsed)

		fromBytes, err := KeyFromBytes(k.Bytes())
		require.NoError(t, err)
		assert.Equal(t, k, fromBytes)
	}

	assert.Equal(t, "era-42", EraInfoKey(42).String())
	assert.Equal(t, "account-hash-"+addr.String()[2:], AccountKey(addr).String())
}

func TestKeyEraID(t *testing.T) {
	era, ok := EraInfoKey(7).EraID()
	assert.True(t, ok)
	assert.Equal(t, meridian.EraID(7), era)

	_, ok = AccountKey(meridian.Bytes32{}).EraID()
	assert.False(t, ok)
}

func TestKeyOrdering(t *testing.T) {
	// era info keys sort by era since the era is stored big endian
	assert.Equal(t, -1, CompareKeys(EraInfoKey(1), EraInfoKey(256)))
	assert.Equal(t, -1, CompareKeys(AccountKey(meridian.Bytes32{0xff}), HashKey(meridian.Bytes32{})))
	assert.Equal(t, 0, CompareKeys(EraInfoKey(3), EraInfoKey(3)))
}

func TestInvalidKeys(t *testing.T) {
	_, err := KeyFromBytes([]byte{1, 2, 3})
	assert.Error(t, err)

	b := make([]byte, KeyLength)
	b[0] = 200
	_, err = KeyFromBytes(b)
	assert.Error(t, err)

	assert.Error(t, Key{Tag: KeySystemEntityRegistry, Addr: meridian.Bytes32{1}}.Validate())
	assert.Error(t, Key{Tag: KeyEraInfo, Addr: meridian.Bytes32{1}}.Validate())

	for _, s := range []string{"", "foo-00", "era-x", "uref-1234"} {
		_, err := ParseKey(s)
		assert.Error(t, err, s)
	}
}

func TestParseKeyTag(t *testing.T) {
	tag, err := ParseKeyTag("era-info")
	require.NoError(t, err)
	assert.Equal(t, KeyEraInfo, tag)

	_, err = ParseKeyTag("nope")
	assert.Error(t, err)
}
