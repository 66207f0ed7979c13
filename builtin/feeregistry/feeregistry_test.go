// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package feeregistry

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/votemarket/builtin/token"
	"github.com/vechain/votemarket/lvldb"
	"github.com/vechain/votemarket/state"
	"github.com/vechain/votemarket/thor"
	"github.com/vechain/votemarket/xenv"
)

var (
	registryAddr = thor.BytesToAddress([]byte("fees"))
	owner        = thor.BytesToAddress([]byte("owner"))
	dao          = thor.BytesToAddress([]byte("dao"))
	treasury     = thor.BytesToAddress([]byte("treasury"))
	market       = MarketID(thor.BytesToAddress([]byte("controller")))
)

func pct(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e16))
}

func setup(t *testing.T) (*FeeRegistry, *token.Token) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	stater, err := state.NewStater(db, 1)
	require.NoError(t, err)
	env := xenv.New(stater.NewState(), &xenv.BlockContext{}, &xenv.TransactionContext{Origin: owner})

	reg := New(registryAddr, env)
	require.NoError(t, reg.Deploy(owner))

	tok := token.New(thor.BytesToAddress([]byte("tok")), env)
	require.NoError(t, tok.Deploy(owner, "Reward", "RWD", 18))
	return reg, tok
}

func TestSetFee(t *testing.T) {
	reg, _ := setup(t)

	fee, err := reg.TotalFeePercent(market)
	require.NoError(t, err)
	assert.Zero(t, fee.Sign())

	assert.ErrorIs(t, reg.SetFee(dao, market, nil), errUnauthorized)
	assert.ErrorIs(t, reg.SetFee(owner, market, []*Recipient{{Address: dao, Percent: pct(101)}}), errFeeTooHigh)
	assert.ErrorIs(t, reg.SetFee(owner, market, []*Recipient{{Percent: pct(1)}}), errZeroRecipient)

	require.NoError(t, reg.SetFee(owner, market, []*Recipient{
		{Address: dao, Percent: pct(2)},
		{Address: treasury, Percent: pct(1)},
	}))
	fee, err = reg.TotalFeePercent(market)
	require.NoError(t, err)
	assert.Equal(t, pct(3), fee)

	require.NoError(t, reg.SetFee(owner, market, nil))
	fee, err = reg.TotalFeePercent(market)
	require.NoError(t, err)
	assert.Zero(t, fee.Sign())
}

func TestDisburse(t *testing.T) {
	reg, tok := setup(t)
	require.NoError(t, reg.SetFee(owner, market, []*Recipient{
		{Address: dao, Percent: pct(2)},
		{Address: treasury, Percent: pct(1)},
	}))

	assert.ErrorIs(t, reg.Disburse(MarketID(dao), tok), errNoRecipients)

	// fees arrive at the collector, then get booked
	require.NoError(t, tok.Mint(owner, reg.FeeCollector(), big.NewInt(100)))
	require.NoError(t, reg.Accrue(market, tok.Address(), big.NewInt(100)))
	accrued, _ := reg.Accrued(market, tok.Address())
	assert.Equal(t, big.NewInt(100), accrued)

	require.NoError(t, reg.Disburse(market, tok))

	daoBal, _ := tok.BalanceOf(dao)
	treasuryBal, _ := tok.BalanceOf(treasury)
	// 100*2/3 rounds down, the last recipient takes the remainder
	assert.Equal(t, big.NewInt(66), daoBal)
	assert.Equal(t, big.NewInt(34), treasuryBal)

	accrued, _ = reg.Accrued(market, tok.Address())
	assert.Zero(t, accrued.Sign())
	left, _ := tok.BalanceOf(reg.FeeCollector())
	assert.Zero(t, left.Sign())

	// nothing accrued is a no-op
	require.NoError(t, reg.Disburse(market, tok))
}
