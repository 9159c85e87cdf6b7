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
	"github.com/meridianchain/meridian/state"
)

type countingStore struct {
	*state.GlobalState
	commits int
}

func (s *countingStore) CommitEffects(root meridian.Bytes32, effects *state.Effects) (meridian.Bytes32, error) {
	s.commits++
	return s.GlobalState.CommitEffects(root, effects)
}

func TestScratchStateSingleDurableWrite(t *testing.T) {
	env := newTestEnv(t)
	store := &countingStore{GlobalState: env.gs}
	scratch := NewScratchState(store)
	key := state.URefKey(meridian.Blake2b([]byte("counter")))

	// three transactions each incrementing the same key
	root := env.root
	var roots []meridian.Bytes32
	for range 3 {
		r, err := scratch.Checkout(root)
		require.NoError(t, err)
		tc := New(r, meridian.DefaultMaxQueryDepth)
		require.NoError(t, tc.Add(key, state.AddUint64(1)))

		root, err = scratch.CommitEffects(root, tc.Effects())
		require.NoError(t, err)
		roots = append(roots, root)
	}
	assert.Equal(t, 0, store.commits, "nothing written before WriteToStore")

	working, ok := scratch.WorkingRoot()
	assert.True(t, ok)
	assert.Equal(t, root, working)

	// intermediate roots are readable from the scratch state
	r, err := scratch.Checkout(roots[0])
	require.NoError(t, err)
	v, _, err := r.Read(key)
	require.NoError(t, err)
	assert.Equal(t, state.NewCLU64(8), v)

	durable, err := scratch.WriteToStore()
	require.NoError(t, err)
	assert.Equal(t, 1, store.commits)
	assert.Equal(t, root, durable)

	r, err = env.gs.Checkout(durable)
	require.NoError(t, err)
	v, _, err = r.Read(key)
	require.NoError(t, err)
	assert.Equal(t, state.NewCLU64(10), v)

	// the accumulated effects are absolute
	tr, ok := scratch.Effects().Get(key)
	assert.True(t, ok)
	assert.Equal(t, state.Write(state.NewCLU64(10)), tr)
}

func TestScratchStateStaleRoot(t *testing.T) {
	env := newTestEnv(t)
	scratch := NewScratchState(env.gs)

	e := state.NewEffects()
	e.Set(state.EraInfoKey(1), state.Write(&state.EraInfo{}))
	_, err := scratch.CommitEffects(env.root, e)
	require.NoError(t, err)

	_, err = scratch.CommitEffects(env.root, e)
	assert.True(t, errors.Is(err, ErrStaleRoot))
}

func TestScratchStateMatchesDirectCommits(t *testing.T) {
	env := newTestEnv(t)
	scratch := NewScratchState(env.gs)
	balance := state.BalanceKey(env.purse)

	e1 := state.NewEffects()
	e1.Set(balance, state.AddUint512(big.NewInt(10)))
	e1.Set(state.EraInfoKey(1), state.Write(&state.EraInfo{}))
	e2 := state.NewEffects()
	e2.Set(state.EraInfoKey(1), state.Prune())
	e2.Set(state.EraInfoKey(2), state.Prune()) // absent key

	r1, err := scratch.CommitEffects(env.root, e1)
	require.NoError(t, err)
	r2, err := scratch.CommitEffects(r1, e2)
	require.NoError(t, err)

	d1, err := env.gs.CommitEffects(env.root, e1)
	require.NoError(t, err)
	d2, err := env.gs.CommitEffects(d1, e2)
	require.NoError(t, err)
	assert.Equal(t, d1, r1)
	assert.Equal(t, d2, r2)

	durable, err := scratch.WriteToStore()
	require.NoError(t, err)
	assert.Equal(t, d2, durable)
}

func TestScratchStateFailedCommit(t *testing.T) {
	env := newTestEnv(t)
	scratch := NewScratchState(env.gs)

	bad := state.NewEffects()
	bad.Set(state.EraInfoKey(3), state.AddUint64(1))
	_, err := scratch.CommitEffects(env.root, bad)
	assert.Error(t, err)

	working, ok := scratch.WorkingRoot()
	assert.True(t, ok)
	assert.Equal(t, env.root, working)
	assert.Equal(t, 0, scratch.Effects().Len())
}

func TestScratchStateNothingToWrite(t *testing.T) {
	env := newTestEnv(t)
	store := &countingStore{GlobalState: env.gs}
	scratch := NewScratchState(store)

	_, ok := scratch.WorkingRoot()
	assert.False(t, ok)
	root, err := scratch.WriteToStore()
	require.NoError(t, err)
	assert.True(t, root.IsZero())
	assert.Equal(t, 0, store.commits)
	assert.Equal(t, env.gs.EmptyRoot(), scratch.EmptyRoot())
}
