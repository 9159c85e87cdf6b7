// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package engine

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianchain/meridian/auction"
	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/state"
	"github.com/meridianchain/meridian/trackingcopy"
	"github.com/meridianchain/meridian/trie"
)

func TestQuery(t *testing.T) {
	eng, root := newTestEngine(t, nil)
	contract := auction.SystemContractHash(auction.ContractName)

	qr, err := eng.Query(root, state.HashKey(contract), []string{auction.EraIDKeyName})
	require.NoError(t, err)
	era, err := qr.Value.(*state.CLValue).U64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), era)
	require.Len(t, qr.Proofs, 2)
	for _, p := range qr.Proofs {
		_, err := trie.VerifyProof(root, p.Key.Bytes(), p.Proof)
		assert.NoError(t, err)
	}

	_, err = eng.Query(root, state.HashKey(contract), []string{"missing"})
	var notFound *trackingcopy.ValueNotFoundError
	assert.True(t, errors.As(err, &notFound))

	_, err = eng.Query(meridian.Bytes32{1}, state.HashKey(contract), nil)
	assert.True(t, errors.Is(err, state.ErrRootNotFound))
}

func TestTaggedAndPrefixedValues(t *testing.T) {
	eng, root := newTestEngine(t, nil)

	bids, err := eng.TaggedValues(root, state.KeyBid)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	for _, v := range bids {
		assert.Equal(t, state.ValueBid, v.Tag())
	}

	accounts, err := eng.TaggedValues(root, state.KeyAccount)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	_, err = eng.TaggedValues(root, state.KeyTag(250))
	assert.Error(t, err)

	key := state.BidKey(pk1.AccountHash())
	values, err := eng.PrefixedValues(root, key.Bytes()[:10])
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, pk1, values[0].(*state.Bid).ValidatorPublicKey)

	_, err = eng.PrefixedValues(meridian.Bytes32{1}, nil)
	assert.True(t, errors.Is(err, state.ErrRootNotFound))
}

func TestBalance(t *testing.T) {
	eng, root := newTestEngine(t, nil)
	purse := trackingcopy.MainPurseOf(pk1.AccountHash())

	ids := []string{
		state.URefKey(purse).String(),
		state.AccountKey(pk1.AccountHash()).String(),
		pk1.String(),
	}
	for _, s := range ids {
		id, err := ParsePurseIdentifier(s)
		require.NoError(t, err, s)
		res, err := eng.Balance(root, id)
		require.NoError(t, err, s)
		assert.Equal(t, purse, res.Purse)
		assert.Equal(t, int64(1_000_000), res.Balance.Int64())
		assert.NotEmpty(t, res.Proofs)
	}

	_, err := eng.Balance(root, &PurseIdentifier{Kind: PurseMainURef, Purse: meridian.Bytes32{1}})
	assert.ErrorIs(t, err, ErrPurseNotFound)
	_, err = eng.Balance(root, &PurseIdentifier{Kind: PurseAccountHash, AccountHash: meridian.Bytes32{1}})
	assert.ErrorIs(t, err, ErrPurseNotFound)
	_, err = eng.Balance(meridian.Bytes32{1}, &PurseIdentifier{Kind: PursePublicKey, PublicKey: pk1})
	assert.True(t, errors.Is(err, state.ErrRootNotFound))
}

func TestParsePurseIdentifier(t *testing.T) {
	_, err := ParsePurseIdentifier(state.EraInfoKey(1).String())
	assert.Error(t, err)
	_, err = ParsePurseIdentifier("nonsense")
	assert.Error(t, err)

	id, err := ParsePurseIdentifier(pk2.String())
	require.NoError(t, err)
	assert.Equal(t, PursePublicKey, id.Kind)
	assert.Equal(t, pk2, id.PublicKey)
}

func TestTrie(t *testing.T) {
	eng, root := newTestEngine(t, nil)
	node, err := eng.Trie(root)
	require.NoError(t, err)
	assert.NotEmpty(t, node)
	assert.Equal(t, root, meridian.Blake2b(node))

	node, err = eng.Trie(meridian.Bytes32{1})
	require.NoError(t, err)
	assert.Nil(t, node)
}
