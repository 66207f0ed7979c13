// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gauge

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
	controllerAddr = thor.BytesToAddress([]byte("controller"))
	owner          = thor.BytesToAddress([]byte("owner"))
	voter          = thor.BytesToAddress([]byte("voter"))
	gaugeA         = thor.BytesToAddress([]byte("gauge-a"))
	gaugeB         = thor.BytesToAddress([]byte("gauge-b"))

	// a monday-aligned start time far from zero
	start = thor.PeriodOf(1_700_000_000)
)

type testChain struct {
	st *state.State
}

func newTestChain(t *testing.T) *testChain {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	stater, err := state.NewStater(db, 1)
	require.NoError(t, err)
	return &testChain{st: stater.NewState()}
}

func (c *testChain) at(now uint64) *Controller {
	env := xenv.New(c.st, &xenv.BlockContext{Time: now}, &xenv.TransactionContext{Origin: owner})
	return New(controllerAddr, env)
}

func TestAddGauge(t *testing.T) {
	chain := newTestChain(t)
	ctl := chain.at(start)

	_, err := ctl.Owner()
	assert.ErrorIs(t, err, errNotDeployed)

	require.NoError(t, ctl.Deploy(owner))
	assert.ErrorIs(t, ctl.Deploy(owner), errAlreadyDeployed)

	assert.ErrorIs(t, ctl.AddGauge(voter, gaugeA), errUnauthorized)
	require.NoError(t, ctl.AddGauge(owner, gaugeA))
	assert.ErrorIs(t, ctl.AddGauge(owner, gaugeA), errGaugeExists)
	require.NoError(t, ctl.AddGauge(owner, gaugeB))

	gauges, err := ctl.Gauges()
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{gaugeA, gaugeB}, gauges)
}

func TestVoteAndCheckpoint(t *testing.T) {
	chain := newTestChain(t)
	ctl := chain.at(start + 100)
	require.NoError(t, ctl.Deploy(owner))
	require.NoError(t, ctl.AddGauge(owner, gaugeA))

	amount := new(big.Int).Mul(big.NewInt(1e18), new(big.Int).SetUint64(thor.GaugeMaxLockTime))
	end := start + 20*thor.Week
	assert.True(t, reverts.IsRevertErr(ctl.CreateLock(voter, amount, start)))
	require.NoError(t, ctl.CreateLock(voter, amount, end+100))
	assert.ErrorIs(t, ctl.CreateLock(voter, amount, end), errLockExists)

	lock, err := ctl.LockOf(voter)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1e18), lock.Slope)
	assert.Equal(t, end, lock.End)

	assert.ErrorIs(t, ctl.VoteForGaugeWeights(voter, gaugeA, 10001), errWeight)
	assert.ErrorIs(t, ctl.VoteForGaugeWeights(voter, gaugeB, 100), errGaugeNotAdded)
	require.NoError(t, ctl.VoteForGaugeWeights(voter, gaugeA, 5000))

	half := big.NewInt(5e17)
	slope, err := ctl.SlopeOf(voter, gaugeA)
	require.NoError(t, err)
	assert.Equal(t, half, slope)
	lockEnd, _ := ctl.LockEndOf(voter, gaugeA)
	assert.Equal(t, end, lockEnd)
	last, _ := ctl.LastVoteOf(voter, gaugeA)
	assert.Equal(t, start+100, last)
	used, _ := ctl.VotePowerUsed(voter)
	assert.Equal(t, uint64(5000), used)

	// voting again within the delay is rejected
	assert.ErrorIs(t, ctl.VoteForGaugeWeights(voter, gaugeA, 6000), errVoteTooOften)

	// three weeks later the weight has decayed by three weeks of slope
	ctl = chain.at(start + 3*thor.Week + 5)
	require.NoError(t, ctl.Checkpoint(gaugeA))
	for w := uint64(1); w <= 3; w++ {
		bias, err := ctl.BiasOf(gaugeA, start+w*thor.Week)
		require.NoError(t, err)
		want := new(big.Int).Mul(half, new(big.Int).SetUint64(end-(start+w*thor.Week)))
		assert.Equal(t, want, bias, "week %d", w)
	}

	// changing the vote replaces the old slope
	require.NoError(t, ctl.VoteForGaugeWeights(voter, gaugeA, 10000))
	used, _ = ctl.VotePowerUsed(voter)
	assert.Equal(t, uint64(10000), used)
	next := start + 4*thor.Week
	pt, err := ctl.PointOf(gaugeA, next)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1e18), pt.Slope)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(1e18), new(big.Int).SetUint64(end-next)), pt.Bias)

	// after the lock ends the weight is gone
	ctl = chain.at(end + thor.Week)
	require.NoError(t, ctl.Checkpoint(gaugeA))
	bias, err := ctl.BiasOf(gaugeA, end)
	require.NoError(t, err)
	assert.Zero(t, bias.Sign())
}
