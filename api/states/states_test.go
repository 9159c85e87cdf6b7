// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package states_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianchain/meridian/api/states"
	"github.com/meridianchain/meridian/api/utils"
	"github.com/meridianchain/meridian/engine"
	"github.com/meridianchain/meridian/genesis"
	"github.com/meridianchain/meridian/state"
	"github.com/meridianchain/meridian/test/datagen"
	"github.com/meridianchain/meridian/test/testchain"
)

func initStatesServer(t *testing.T, allowGetAllValues, allowGetTrie bool) (*testchain.Chain, *httptest.Server) {
	testChain, err := testchain.NewDefault()
	require.NoError(t, err)

	_, err = testChain.MintBlock(testchain.NewTransfer(genesis.DevAccounts[0], datagen.RandomHash(), 10, 1))
	require.NoError(t, err)

	router := mux.NewRouter()
	s := states.New(testChain.Repo(), testChain.Engine(), allowGetAllValues, allowGetTrie)
	s.Mount(router, "/state")
	s.MountTrie(router, "/trie")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return testChain, ts
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func requireError(t *testing.T, body []byte, code utils.ErrorCode) {
	var res utils.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &res), string(body))
	assert.Equal(t, code, res.Code)
	assert.NotEmpty(t, res.Message)
}

func TestGetItem(t *testing.T) {
	_, ts := initStatesServer(t, false, false)
	accountKey := state.AccountKey(genesis.DevAccounts[0].AccountHash())

	for _, revision := range []string{"best", "0", "1"} {
		body, status := httpGet(t, ts.URL+"/state/"+revision+"/items/"+accountKey.String())
		require.Equal(t, http.StatusOK, status, string(body))

		var res states.QueryResult
		require.NoError(t, json.Unmarshal(body, &res))
		assert.Equal(t, state.ValueAccount.String(), res.Value.Type)
		assert.NotEmpty(t, res.Value.Raw)
		require.Len(t, res.Proofs, 1)
		assert.Equal(t, accountKey, res.Proofs[0].Key)
		assert.NotEmpty(t, res.Proofs[0].Proof)
	}
}

func TestGetItemErrors(t *testing.T) {
	_, ts := initStatesServer(t, false, false)
	accountKey := state.AccountKey(genesis.DevAccounts[0].AccountHash())

	for _, tt := range []struct {
		name   string
		path   string
		status int
		code   utils.ErrorCode
	}{
		{"bad key", "/state/best/items/nokey", http.StatusBadRequest, utils.CodeFailedQuery},
		{"bad revision", "/state/xyz/items/" + accountKey.String(), http.StatusBadRequest, utils.CodeFailedQuery},
		{"missing value", "/state/best/items/" + state.HashKey(datagen.RandomHash()).String(), http.StatusNotFound, utils.CodeNotFound},
		{"missing named key", "/state/best/items/" + accountKey.String() + "?path=nothing", http.StatusNotFound, utils.CodeNotFound},
		{"missing block", "/state/99/items/" + accountKey.String(), http.StatusNotFound, utils.CodeNotFound},
		{"missing root", "/state/root:" + datagen.RandomHash().String() + "/items/" + accountKey.String(), http.StatusNotFound, utils.CodeRootNotFound},
	} {
		t.Run(tt.name, func(t *testing.T) {
			body, status := httpGet(t, ts.URL+tt.path)
			assert.Equal(t, tt.status, status)
			requireError(t, body, tt.code)
		})
	}
}

func TestGetItemByRoot(t *testing.T) {
	c, ts := initStatesServer(t, false, false)
	accountKey := state.AccountKey(genesis.DevAccounts[0].AccountHash())
	root := c.BestBlock().Header().StateRootHash()

	body, status := httpGet(t, ts.URL+"/state/root:"+root.String()+"/items/"+accountKey.String())
	require.Equal(t, http.StatusOK, status, string(body))
	var res states.QueryResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, state.ValueAccount.String(), res.Value.Type)
}

func TestGetTagged(t *testing.T) {
	_, ts := initStatesServer(t, false, false)
	body, status := httpGet(t, ts.URL+"/state/best/tags/account")
	assert.Equal(t, http.StatusForbidden, status)
	requireError(t, body, utils.CodeFunctionDisabled)

	_, ts = initStatesServer(t, true, false)
	body, status = httpGet(t, ts.URL+"/state/best/tags/account")
	require.Equal(t, http.StatusOK, status, string(body))
	var values []*states.StoredValue
	require.NoError(t, json.Unmarshal(body, &values))
	// the dev accounts and the transfer target
	assert.GreaterOrEqual(t, len(values), len(genesis.DevAccounts)+1)
	for _, v := range values {
		assert.Equal(t, state.ValueAccount.String(), v.Type)
	}

	body, status = httpGet(t, ts.URL+"/state/best/tags/bogus")
	assert.Equal(t, http.StatusBadRequest, status)
	requireError(t, body, utils.CodeFailedQuery)
}

func TestGetPrefixed(t *testing.T) {
	_, ts := initStatesServer(t, false, false)
	prefix := fmt.Sprintf("%02x", byte(state.KeyTransfer))

	body, status := httpGet(t, ts.URL+"/state/best/prefix/"+prefix)
	require.Equal(t, http.StatusOK, status, string(body))
	var values []*states.StoredValue
	require.NoError(t, json.Unmarshal(body, &values))
	require.Len(t, values, 1)
	assert.Equal(t, state.ValueTransfer.String(), values[0].Type)

	// no transfers before the first block
	body, status = httpGet(t, ts.URL+"/state/0/prefix/0x"+prefix)
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &values))
	assert.Empty(t, values)

	body, status = httpGet(t, ts.URL+"/state/best/prefix/zz")
	assert.Equal(t, http.StatusBadRequest, status)
	requireError(t, body, utils.CodeFailedQuery)
}

func TestGetBalance(t *testing.T) {
	c, ts := initStatesServer(t, false, false)
	pk := genesis.DevAccounts[0]
	root := c.BestBlock().Header().StateRootHash()

	want, err := c.Engine().Balance(root, &engine.PurseIdentifier{Kind: engine.PursePublicKey, PublicKey: pk})
	require.NoError(t, err)

	for _, id := range []string{pk.String(), state.AccountKey(pk.AccountHash()).String(), state.URefKey(want.Purse).String()} {
		body, status := httpGet(t, ts.URL+"/state/best/balance/"+id)
		require.Equal(t, http.StatusOK, status, string(body))
		var res states.Balance
		require.NoError(t, json.Unmarshal(body, &res))
		assert.Equal(t, want.Balance.String(), res.Balance)
		assert.Equal(t, state.URefKey(want.Purse), res.Purse)
		assert.NotEmpty(t, res.Proofs)
	}

	body, status := httpGet(t, ts.URL+"/state/best/balance/"+state.AccountKey(datagen.RandomHash()).String())
	assert.Equal(t, http.StatusNotFound, status)
	requireError(t, body, utils.CodeNotFound)

	body, status = httpGet(t, ts.URL+"/state/best/balance/nopurse")
	assert.Equal(t, http.StatusBadRequest, status)
	requireError(t, body, utils.CodeFailedQuery)
}

func TestGetTrie(t *testing.T) {
	c, ts := initStatesServer(t, false, false)
	root := c.BestBlock().Header().StateRootHash()

	body, status := httpGet(t, ts.URL+"/trie/"+root.String())
	assert.Equal(t, http.StatusForbidden, status)
	requireError(t, body, utils.CodeFunctionDisabled)

	c, ts = initStatesServer(t, false, true)
	root = c.BestBlock().Header().StateRootHash()
	body, status = httpGet(t, ts.URL+"/trie/"+root.String())
	require.Equal(t, http.StatusOK, status, string(body))
	var node states.TrieNode
	require.NoError(t, json.Unmarshal(body, &node))
	assert.Equal(t, root, node.Digest)
	assert.NotEmpty(t, node.Node)

	body, status = httpGet(t, ts.URL+"/trie/"+datagen.RandomHash().String())
	assert.Equal(t, http.StatusNotFound, status)
	requireError(t, body, utils.CodeNotFound)
}
