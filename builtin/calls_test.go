// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin_test

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/votemarket/builtin"
	"github.com/vechain/votemarket/builtin/reverts"
	"github.com/vechain/votemarket/lvldb"
	"github.com/vechain/votemarket/state"
	"github.com/vechain/votemarket/thor"
	"github.com/vechain/votemarket/xenv"
)

var (
	owner    = thor.BytesToAddress([]byte("owner"))
	voter    = thor.BytesToAddress([]byte("voter"))
	gaugeA   = thor.BytesToAddress([]byte("gauge-a"))
	rewardTk = thor.BytesToAddress([]byte("reward"))

	start = thor.PeriodOf(1_700_000_000)
)

type ctest struct {
	t  *testing.T
	st *state.State
}

type ccase struct {
	c      *ctest
	call   builtin.Call
	caller thor.Address
	now    uint64
}

func newCtest(t *testing.T) *ctest {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	stater, err := state.NewStater(db, 1)
	require.NoError(t, err)
	return &ctest{t, stater.NewState()}
}

func (c *ctest) Case(kind, method string, args any) *ccase {
	raw, err := json.Marshal(args)
	require.NoError(c.t, err)
	return &ccase{c: c, call: builtin.Call{Contract: kind, Method: method, Args: raw}, caller: owner, now: start + 100}
}

func (cc *ccase) To(addr thor.Address) *ccase {
	cc.call.Address = &addr
	return cc
}

func (cc *ccase) Caller(addr thor.Address) *ccase {
	cc.caller = addr
	return cc
}

func (cc *ccase) At(now uint64) *ccase {
	cc.now = now
	return cc
}

func (cc *ccase) env() *xenv.Environment {
	return xenv.New(cc.c.st, &xenv.BlockContext{Time: cc.now}, &xenv.TransactionContext{Origin: cc.caller})
}

func (cc *ccase) ShouldSucceed() any {
	out, err := builtin.Dispatch(cc.env(), &cc.call)
	require.NoError(cc.c.t, err, "%s.%s", cc.call.Contract, cc.call.Method)
	return out
}

func (cc *ccase) ShouldRevert() error {
	_, err := builtin.Dispatch(cc.env(), &cc.call)
	require.Error(cc.c.t, err, "%s.%s", cc.call.Contract, cc.call.Method)
	assert.True(cc.c.t, reverts.IsRevertErr(err), "%s.%s: %v", cc.call.Contract, cc.call.Method, err)
	return err
}

func wad(n int64) string {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18)).String()
}

func TestDispatchErrors(t *testing.T) {
	c := newCtest(t)

	c.Case("token", "burn", nil).To(rewardTk).ShouldRevert()
	c.Case("platform", "claim", map[string]any{"id": 0}).ShouldRevert()
	c.Case("token", "mint", map[string]any{"amount": "not a number"}).To(rewardTk).ShouldRevert()

	methods := builtin.Methods()
	assert.Contains(t, methods, "platform.claimAllFor")
	assert.Contains(t, methods, "voteMarket.withdrawLeftover")
	assert.IsIncreasing(t, methods)
}

func TestDispatchTarget(t *testing.T) {
	call := builtin.Call{Contract: builtin.KindFactory}
	addr, err := call.Target()
	require.NoError(t, err)
	assert.Equal(t, builtin.Factory.Address, addr)

	call = builtin.Call{Contract: builtin.KindToken}
	_, err = call.Target()
	assert.True(t, reverts.IsRevertErr(err))
}

func TestDispatchBribeLifecycle(t *testing.T) {
	c := newCtest(t)

	c.Case("token", "deploy", map[string]any{"name": "Reward", "symbol": "RWD", "decimals": 18}).To(rewardTk).ShouldSucceed()
	c.Case("token", "mint", map[string]any{"to": owner, "amount": wad(700)}).To(rewardTk).ShouldSucceed()

	c.Case("gauge", "deploy", nil).ShouldSucceed()
	c.Case("gauge", "addGauge", map[string]any{"gauge": gaugeA}).ShouldSucceed()
	lock := new(big.Int).Mul(big.NewInt(1e18), new(big.Int).SetUint64(thor.GaugeMaxLockTime))
	c.Case("gauge", "createLock", map[string]any{"amount": lock.String(), "unlockTime": start + 20*thor.Week}).
		Caller(voter).ShouldSucceed()
	c.Case("gauge", "voteForGaugeWeights", map[string]any{"gauge": gaugeA, "weight": thor.GaugeVotePowerBase}).
		Caller(voter).ShouldSucceed()

	c.Case("feeRegistry", "deploy", nil).ShouldSucceed()
	c.Case("factory", "deploy", nil).ShouldSucceed()
	c.Case("factory", "deployPlatform", map[string]any{"gaugeController": builtin.GaugeController.Address}).
		Caller(voter).ShouldRevert()
	out := c.Case("factory", "deployPlatform", map[string]any{"gaugeController": builtin.GaugeController.Address}).ShouldSucceed()
	platformAddr, ok := out.(thor.Address)
	require.True(t, ok)

	c.Case("token", "approve", map[string]any{"spender": platformAddr, "amount": wad(700)}).To(rewardTk).ShouldSucceed()
	out = c.Case("platform", "createBribe", map[string]any{
		"gauge":             gaugeA,
		"manager":           owner,
		"rewardToken":       rewardTk,
		"numberOfPeriods":   7,
		"maxRewardPerVote":  wad(1000),
		"totalRewardAmount": wad(700),
	}).To(platformAddr).ShouldSucceed()
	assert.Equal(t, uint64(0), out)

	claimed := c.Case("platform", "claim", map[string]any{"id": 0}).To(platformAddr).
		Caller(voter).At(start + thor.Week + 10).ShouldSucceed().(*big.Int)
	assert.Positive(t, claimed.Sign())

	// same period again pays nothing
	again := c.Case("platform", "claim", map[string]any{"id": 0}).To(platformAddr).
		Caller(voter).At(start + thor.Week + 20).ShouldSucceed().(*big.Int)
	assert.Zero(t, again.Sign())

	env := xenv.New(c.st, &xenv.BlockContext{Time: start + thor.Week + 20}, &xenv.TransactionContext{Origin: voter})
	bal, err := builtin.Token(rewardTk, env).BalanceOf(voter)
	require.NoError(t, err)
	assert.Zero(t, bal.Cmp(claimed))

	c.Case("platform", "closeBribe", map[string]any{"id": 0}).To(platformAddr).Caller(voter).ShouldRevert()
}
