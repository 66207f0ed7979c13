// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/votemarket/lvldb"
	"github.com/vechain/votemarket/state"
	"github.com/vechain/votemarket/thor"
)

type testStruct struct {
	Field1 uint64
	Amount *big.Int
	Addr   thor.Address
	List   []thor.Address
}

func newContext(t *testing.T) *Context {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	stater, err := state.NewStater(db, 1)
	require.NoError(t, err)
	return NewContext(thor.BytesToAddress([]byte("contract")), stater.NewState())
}

func TestMapping(t *testing.T) {
	ctx := newContext(t)
	m := NewMapping[Uint64Key, *testStruct](ctx, thor.Bytes32{1})

	v, err := m.Get(7)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Zero(t, v.Field1)

	ok, err := m.Exists(7)
	require.NoError(t, err)
	assert.False(t, ok)

	want := &testStruct{
		Field1: 3,
		Amount: big.NewInt(1e18),
		Addr:   thor.BytesToAddress([]byte("a")),
		List:   []thor.Address{thor.BytesToAddress([]byte("b"))},
	}
	require.NoError(t, m.Set(7, want))

	v, err = m.Get(7)
	require.NoError(t, err)
	assert.Equal(t, want, v)

	// distinct base positions do not collide
	other := NewMapping[Uint64Key, *testStruct](ctx, thor.Bytes32{2})
	ok, err = other.Exists(7)
	require.NoError(t, err)
	assert.False(t, ok)

	m.Delete(7)
	ok, err = m.Exists(7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPairKey(t *testing.T) {
	a := thor.BytesToAddress([]byte("a"))
	assert.NotEqual(t, PairKey(Uint64Key(1), a), PairKey(Uint64Key(2), a))
	assert.Equal(t, PairKey(Uint64Key(1), a), PairKey(Uint64Key(1), a))
}

func TestUint256(t *testing.T) {
	ctx := newContext(t)
	u := NewUint256(ctx, thor.Bytes32{3})

	require.NoError(t, u.Add(big.NewInt(10)))
	require.NoError(t, u.Sub(big.NewInt(4)))
	v, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(6), v)

	assert.ErrorIs(t, u.Sub(big.NewInt(7)), errUnderflow)
}

func TestUint64Counter(t *testing.T) {
	ctx := newContext(t)
	c := NewUint64(ctx, thor.Bytes32{4})
	for i := range uint64(3) {
		v, err := c.Next()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
}

func TestAddressAndRaw(t *testing.T) {
	ctx := newContext(t)
	a := NewAddress(ctx, thor.Bytes32{5})
	want := thor.BytesToAddress([]byte("owner"))
	a.Set(want)
	got, err := a.Get()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	r := NewRaw[[]thor.Address](ctx, thor.Bytes32{6})
	empty, err := r.Get()
	require.NoError(t, err)
	assert.Empty(t, empty)
	require.NoError(t, r.Set([]thor.Address{want}))
	list, err := r.Get()
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{want}, list)

	b := NewBytes32(ctx, thor.Bytes32{7})
	b.Set(thor.Bytes32{9})
	root, err := b.Get()
	require.NoError(t, err)
	assert.Equal(t, thor.Bytes32{9}, root)
}
