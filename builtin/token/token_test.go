// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/votemarket/builtin/reverts"
	"github.com/vechain/votemarket/lvldb"
	"github.com/vechain/votemarket/state"
	"github.com/vechain/votemarket/thor"
	"github.com/vechain/votemarket/xenv"
)

var (
	owner = thor.BytesToAddress([]byte("owner"))
	alice = thor.BytesToAddress([]byte("alice"))
	bob   = thor.BytesToAddress([]byte("bob"))
)

func newToken(t *testing.T) (*Token, *xenv.Environment) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	stater, err := state.NewStater(db, 1)
	require.NoError(t, err)
	env := xenv.New(stater.NewState(), &xenv.BlockContext{}, &xenv.TransactionContext{Origin: owner})

	tok := New(thor.BytesToAddress([]byte("tok")), env)
	require.NoError(t, tok.Deploy(owner, "Reward", "RWD", 18))
	return tok, env
}

func TestDeploy(t *testing.T) {
	tok, env := newToken(t)
	assert.True(t, reverts.IsRevertErr(tok.Deploy(owner, "again", "X", 18)))

	m, err := tok.Meta()
	require.NoError(t, err)
	assert.Equal(t, "RWD", m.Symbol)

	_, err = New(thor.BytesToAddress([]byte("none")), env).Meta()
	assert.ErrorIs(t, err, errNotDeployed)
}

func TestMintAndTransfer(t *testing.T) {
	tok, env := newToken(t)

	assert.ErrorIs(t, tok.Mint(alice, alice, big.NewInt(1)), errUnauthorized)
	require.NoError(t, tok.Mint(owner, alice, big.NewInt(100)))

	supply, err := tok.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), supply)

	require.NoError(t, tok.Transfer(alice, bob, big.NewInt(30)))
	assert.ErrorIs(t, tok.Transfer(alice, bob, big.NewInt(71)), errInsufficient)

	bal, _ := tok.BalanceOf(alice)
	assert.Equal(t, big.NewInt(70), bal)
	bal, _ = tok.BalanceOf(bob)
	assert.Equal(t, big.NewInt(30), bal)

	require.Len(t, env.Events(), 2)
	assert.Equal(t, "Transfer", env.Events()[1].Name)
}

func TestTransferFrom(t *testing.T) {
	tok, _ := newToken(t)
	require.NoError(t, tok.Mint(owner, alice, big.NewInt(100)))

	assert.ErrorIs(t, tok.TransferFrom(bob, alice, bob, big.NewInt(1)), errAllowanceExceeded)

	require.NoError(t, tok.Approve(alice, bob, big.NewInt(50)))
	require.NoError(t, tok.TransferFrom(bob, alice, bob, big.NewInt(20)))

	allowance, _ := tok.Allowance(alice, bob)
	assert.Equal(t, big.NewInt(30), allowance)
	bal, _ := tok.BalanceOf(bob)
	assert.Equal(t, big.NewInt(20), bal)
}
