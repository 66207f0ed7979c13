// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/votemarket/builtin/reverts"
	"github.com/vechain/votemarket/lvldb"
	"github.com/vechain/votemarket/state"
	"github.com/vechain/votemarket/thor"
)

func newEnv(t *testing.T) *Environment {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	stater, err := state.NewStater(db, 1)
	require.NoError(t, err)
	return New(
		stater.NewState(),
		&BlockContext{Number: 1, Time: 1000},
		&TransactionContext{Origin: thor.BytesToAddress([]byte("origin"))},
	)
}

func TestEnter(t *testing.T) {
	env := newEnv(t)
	contract := thor.BytesToAddress([]byte("c"))

	leave, err := env.Enter(contract)
	require.NoError(t, err)

	_, err = env.Enter(contract)
	assert.True(t, reverts.IsRevertErr(err))
	assert.EqualError(t, err, "ReentrancyGuard: reentrant call")

	// a different contract may be entered
	leaveOther, err := env.Enter(thor.BytesToAddress([]byte("d")))
	require.NoError(t, err)
	leaveOther()

	leave()
	leave, err = env.Enter(contract)
	require.NoError(t, err)
	leave()
}

func TestLogAndCheckpoint(t *testing.T) {
	env := newEnv(t)
	addr := thor.BytesToAddress([]byte("c"))
	assert.Equal(t, uint64(1000), env.Now())
	assert.Equal(t, thor.BytesToAddress([]byte("origin")), env.Caller())

	require.NoError(t, env.Log(addr, "First", nil, map[string]int{"a": 1}))
	restore := env.Checkpoint()
	env.State().SetStorage(addr, thor.Bytes32{1}, thor.Bytes32{2})
	require.NoError(t, env.Log(addr, "Second", []thor.Bytes32{{1}}, nil))
	assert.Len(t, env.Events(), 2)

	restore()
	require.Len(t, env.Events(), 1)
	assert.Equal(t, "First", env.Events()[0].Name)
	assert.JSONEq(t, `{"a":1}`, string(env.Events()[0].Data))

	v, err := env.State().GetStorage(addr, thor.Bytes32{1})
	require.NoError(t, err)
	assert.True(t, v.IsZero())
}
