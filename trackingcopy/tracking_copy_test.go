// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trackingcopy

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianchain/meridian/meridian"
	"github.com/meridianchain/meridian/muxdb"
	"github.com/meridianchain/meridian/state"
)

type testEnv struct {
	gs   *state.GlobalState
	root meridian.Bytes32

	accountHash meridian.Bytes32
	purse       meridian.Bytes32
	contract    meridian.Bytes32
}

// newTestEnv commits an account with a funded purse and a contract that
// holds a named key to a CLValue key.
func newTestEnv(t *testing.T) *testEnv {
	db := muxdb.NewMem()
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		gs:          state.NewGlobalState(db),
		accountHash: meridian.Blake2b([]byte("account")),
		purse:       meridian.Blake2b([]byte("purse")),
		contract:    meridian.Blake2b([]byte("contract")),
	}
	counter := state.URefKey(meridian.Blake2b([]byte("counter")))
	pointer := state.URefKey(meridian.Blake2b([]byte("pointer")))

	e := state.NewEffects()
	e.Set(state.AccountKey(env.accountHash), state.Write(&state.Account{
		AccountHash: env.accountHash,
		MainPurse:   env.purse,
		NamedKeys:   state.NamedKeys{{Name: "contract", Key: state.HashKey(env.contract)}},
	}))
	e.Set(state.BalanceKey(env.purse), state.Write(state.NewCLU512(big.NewInt(1000))))
	e.Set(state.HashKey(env.contract), state.Write(&state.Contract{
		NamedKeys: state.NamedKeys{{Name: "counter", Key: counter}, {Name: "pointer", Key: pointer}},
	}))
	e.Set(counter, state.Write(state.NewCLU64(7)))
	e.Set(pointer, state.Write(state.NewCLKey(counter)))
	e.Set(state.SystemEntityRegistryKey(), state.Write(&state.SystemRegistry{
		Entries: []state.RegistryEntry{{Name: "auction", Hash: env.contract}},
	}))

	root, err := env.gs.CommitEffects(env.gs.EmptyRoot(), e)
	require.NoError(t, err)
	env.root = root
	return env
}

func (env *testEnv) trackingCopy(t *testing.T) *TrackingCopy {
	r, err := env.gs.Checkout(env.root)
	require.NoError(t, err)
	return New(r, meridian.DefaultMaxQueryDepth)
}

func TestReadYourWrites(t *testing.T) {
	env := newTestEnv(t)
	tc := env.trackingCopy(t)
	key := state.EraInfoKey(1)

	_, found, err := tc.Read(key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, tc.Write(key, &state.EraInfo{}))
	v, found, err := tc.Read(key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, &state.EraInfo{}, v)

	require.NoError(t, tc.Prune(key))
	_, found, err = tc.Read(key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAddAndEffects(t *testing.T) {
	env := newTestEnv(t)
	tc := env.trackingCopy(t)
	balance := state.BalanceKey(env.purse)

	require.NoError(t, tc.Add(balance, state.AddUint512(big.NewInt(5))))
	require.NoError(t, tc.Add(balance, state.AddUint512(big.NewInt(10))))

	got, err := tc.GetPurseBalance(env.purse)
	require.NoError(t, err)
	assert.Equal(t, int64(1015), got.Int64())

	effects := tc.Effects()
	assert.Equal(t, 1, effects.Len())
	tr, _ := effects.Get(balance)
	assert.Equal(t, state.AddUint512(big.NewInt(15)), tr)

	root, err := env.gs.CommitEffects(env.root, effects)
	require.NoError(t, err)
	r, err := env.gs.Checkout(root)
	require.NoError(t, err)
	v, _, err := r.Read(balance)
	require.NoError(t, err)
	assert.Equal(t, state.NewCLU512(big.NewInt(1015)), v)
}

func TestAddFailureLeavesOverlay(t *testing.T) {
	env := newTestEnv(t)
	tc := env.trackingCopy(t)

	err := tc.Add(state.BalanceKey(env.purse), state.AddUint64(1))
	var mismatch *TypeMismatchError
	assert.True(t, errors.As(err, &mismatch))

	err = tc.Add(state.EraInfoKey(99), state.AddUint64(1))
	assert.Error(t, err)
	assert.Equal(t, 0, tc.Effects().Len())
}

func TestMergeFailureLeavesOverlay(t *testing.T) {
	env := newTestEnv(t)
	tc := env.trackingCopy(t)
	counter := state.URefKey(meridian.Blake2b([]byte("counter")))

	effects := state.NewEffects()
	effects.Set(counter, state.AddUint64(1))
	effects.Set(state.BalanceKey(env.purse), state.AddUint64(1))

	err := tc.Merge(effects)
	var mismatch *TypeMismatchError
	assert.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 0, tc.Effects().Len())

	v, found, err := tc.Read(counter)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, state.NewCLU64(7), v)

	// the overlay stays usable after the rollback
	require.NoError(t, tc.Merge(state.NewEffects()))
	require.NoError(t, tc.Add(counter, state.AddUint64(1)))
	v, _, err = tc.Read(counter)
	require.NoError(t, err)
	assert.Equal(t, state.NewCLU64(8), v)
}

func TestInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	tc := env.trackingCopy(t)

	var tcErr *Error
	err := tc.Write(state.Key{Tag: 200}, state.NewCLU64(1))
	assert.True(t, errors.As(err, &tcErr))
	assert.Contains(t, err.Error(), "trackingcopy: ")

	err = tc.Write(state.EraInfoKey(1), &state.CLValue{Type: state.CLU64, Bytes: []byte{1}})
	assert.True(t, errors.As(err, &tcErr))

	_, _, err = tc.Read(state.Key{Tag: 200})
	assert.True(t, errors.As(err, &tcErr))
	assert.Equal(t, 0, tc.Effects().Len())
}

func TestCheckpoint(t *testing.T) {
	env := newTestEnv(t)
	tc := env.trackingCopy(t)
	balance := state.BalanceKey(env.purse)

	// payment survives, session is reverted
	require.NoError(t, tc.Add(balance, state.AddUint512(big.NewInt(1))))
	cp := tc.NewCheckpoint()
	require.NoError(t, tc.Write(state.EraInfoKey(1), &state.EraInfo{}))
	require.NoError(t, tc.Add(balance, state.AddUint512(big.NewInt(100))))
	tc.RevertTo(cp)

	got, err := tc.GetPurseBalance(env.purse)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), got.Int64())
	assert.Equal(t, []state.Key{balance}, tc.Effects().Keys())

	// still writable after revert
	require.NoError(t, tc.Write(state.EraInfoKey(2), &state.EraInfo{}))
	assert.Equal(t, 2, tc.Effects().Len())
}

func TestForkAndMerge(t *testing.T) {
	env := newTestEnv(t)
	parent := env.trackingCopy(t)
	balance := state.BalanceKey(env.purse)
	require.NoError(t, parent.Add(balance, state.AddUint512(big.NewInt(1))))

	child := parent.Fork()
	got, err := child.GetPurseBalance(env.purse)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), got.Int64(), "child reads through parent")

	require.NoError(t, child.Add(balance, state.AddUint512(big.NewInt(2))))
	require.NoError(t, child.Write(state.EraInfoKey(1), &state.EraInfo{}))

	got, err = parent.GetPurseBalance(env.purse)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), got.Int64(), "parent does not see child changes")

	require.NoError(t, parent.Merge(child.Effects()))
	got, err = parent.GetPurseBalance(env.purse)
	require.NoError(t, err)
	assert.Equal(t, int64(1003), got.Int64())

	tr, _ := parent.Effects().Get(balance)
	assert.Equal(t, state.AddUint512(big.NewInt(3)), tr)
	_, found, err := parent.Read(state.EraInfoKey(1))
	require.NoError(t, err)
	assert.True(t, found)
}

func TestKeysWithPrefix(t *testing.T) {
	env := newTestEnv(t)
	tc := env.trackingCopy(t)

	require.NoError(t, tc.Write(state.EraInfoKey(2), &state.EraInfo{}))
	require.NoError(t, tc.Write(state.EraInfoKey(1), &state.EraInfo{}))
	keys, err := tc.KeysWithPrefix([]byte{byte(state.KeyEraInfo)})
	require.NoError(t, err)
	assert.Equal(t, []state.Key{state.EraInfoKey(1), state.EraInfoKey(2)}, keys)

	require.NoError(t, tc.Prune(state.BalanceKey(env.purse)))
	keys, err = tc.KeysWithPrefix([]byte{byte(state.KeyBalance)})
	require.NoError(t, err)
	assert.Empty(t, keys)

	keys, err = tc.KeysWithPrefix([]byte{byte(state.KeyAccount)})
	require.NoError(t, err)
	assert.Equal(t, []state.Key{state.AccountKey(env.accountHash)}, keys)
}

func TestQuery(t *testing.T) {
	env := newTestEnv(t)
	tc := env.trackingCopy(t)
	base := state.AccountKey(env.accountHash)

	res, err := tc.Query(base, []string{"contract", "counter"})
	require.NoError(t, err)
	assert.Equal(t, state.NewCLU64(7), res.Value)
	require.Len(t, res.Proofs, 3)
	for _, p := range res.Proofs {
		v, found, err := state.ReadProof(env.root, p.Key, p.Proof)
		require.NoError(t, err)
		assert.True(t, found)
		assert.NotNil(t, v)
	}

	// a CLValue key is followed without consuming the path
	res, err = tc.Query(base, []string{"contract", "pointer", "x"})
	var notFound *ValueNotFoundError
	assert.True(t, errors.As(err, &notFound), "%v", err)
	assert.Nil(t, res)

	_, err = tc.Query(base, []string{"missing"})
	assert.True(t, errors.As(err, &notFound))

	_, err = tc.Query(state.EraInfoKey(5), nil)
	assert.True(t, errors.As(err, &notFound))

	shallow := New(tc.reader, 2)
	_, err = shallow.Query(base, []string{"contract", "counter"})
	var depthErr *QueryDepthError
	assert.True(t, errors.As(err, &depthErr))
	assert.Equal(t, uint64(2), depthErr.Depth)
}

func TestSystemRegistry(t *testing.T) {
	env := newTestEnv(t)
	tc := env.trackingCopy(t)

	reg, err := tc.SystemRegistry()
	require.NoError(t, err)
	hash, ok := reg.Get("auction")
	assert.True(t, ok)
	assert.Equal(t, env.contract, hash)

	// writes to the registry invalidate the cache
	require.NoError(t, tc.Write(state.SystemEntityRegistryKey(), &state.SystemRegistry{}))
	reg, err = tc.SystemRegistry()
	require.NoError(t, err)
	_, ok = reg.Get("auction")
	assert.False(t, ok)

	empty := New(emptyReader(t), 5)
	_, err = empty.SystemRegistry()
	var notFound *ValueNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestAccountHelpers(t *testing.T) {
	env := newTestEnv(t)
	tc := env.trackingCopy(t)

	purse, err := tc.GetMainPurse(env.accountHash)
	require.NoError(t, err)
	assert.Equal(t, env.purse, purse)

	_, err = tc.GetMainPurse(meridian.Bytes32{})
	var notFound *ValueNotFoundError
	assert.True(t, errors.As(err, &notFound))

	_, err = tc.GetPurseBalance(meridian.Bytes32{})
	assert.True(t, errors.As(err, &notFound))
}

func emptyReader(t *testing.T) state.Reader {
	db := muxdb.NewMem()
	t.Cleanup(func() { db.Close() })
	gs := state.NewGlobalState(db)
	r, err := gs.Checkout(gs.EmptyRoot())
	require.NoError(t, err)
	return r
}

func TestCreateAccount(t *testing.T) {
	env := newTestEnv(t)
	tc := env.trackingCopy(t)
	hash := meridian.Blake2b([]byte("new account"))

	acc, err := tc.CreateAccount(hash, big.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, MainPurseOf(hash), acc.MainPurse)

	purse, err := tc.GetMainPurse(hash)
	require.NoError(t, err)
	balance, err := tc.GetPurseBalance(purse)
	require.NoError(t, err)
	assert.Equal(t, int64(42), balance.Int64())
}
