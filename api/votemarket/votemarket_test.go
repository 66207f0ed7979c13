// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package votemarket_test

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/votemarket/api/votemarket"
	"github.com/vechain/votemarket/builtin"
	"github.com/vechain/votemarket/genesis"
	"github.com/vechain/votemarket/lvldb"
	"github.com/vechain/votemarket/runtime"
	"github.com/vechain/votemarket/state"
	"github.com/vechain/votemarket/thor"
)

var (
	launch = thor.PeriodOf(1_700_000_000) + 100
	owner  = genesis.DevAccounts()[0]
)

func wad(n int64) string {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18)).String()
}

func execute(t *testing.T, rt *runtime.Runtime, kind string, addr *thor.Address, method string, args any) {
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	_, err = rt.Execute(owner, &builtin.Call{Contract: kind, Address: addr, Method: method, Args: raw})
	require.NoError(t, err)
}

func initServer(t *testing.T) (*httptest.Server, *runtime.Runtime, *runtime.ShiftedClock) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	stater, err := state.NewStater(db, 1)
	require.NoError(t, err)

	clock := runtime.NewShiftedClock(func() uint64 { return launch })
	rt := runtime.New(stater, nil, clock.Now)
	t.Cleanup(rt.Close)
	require.NoError(t, genesis.NewDevnet(launch).Build(rt))

	router := mux.NewRouter()
	votemarket.New(rt).Mount(router, "/votemarket")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, rt, clock
}

func httpGet(t *testing.T, url string, v any) int {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	if res.StatusCode == http.StatusOK && v != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(v))
	}
	return res.StatusCode
}

func TestMarket(t *testing.T) {
	ts, _, _ := initServer(t)

	var m votemarket.Market
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/votemarket", &m))
	assert.Equal(t, builtin.VoteMarket.Address, m.Address)
	assert.Equal(t, owner, m.Owner)
	assert.Equal(t, owner, m.Oracle)
	assert.Equal(t, int64(2e16), (*big.Int)(m.DaoFee).Int64())
	assert.Equal(t, uint64(0), m.NextID)
}

func TestBribeAndEpochs(t *testing.T) {
	ts, rt, clock := initServer(t)
	target := genesis.DevGauges[1]
	token := genesis.DevRewardToken

	execute(t, rt, builtin.KindToken, &token, "approve", map[string]any{
		"spender": builtin.VoteMarket.Address, "amount": wad(200)})
	execute(t, rt, builtin.KindVoteMarket, nil, "createBribe", map[string]any{
		"target":            target,
		"rewardToken":       token,
		"numberOfPeriods":   2,
		"maxRewardPerVote":  wad(1),
		"totalRewardAmount": wad(200),
	})

	var b votemarket.Bribe
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/votemarket/bribes/0", &b))
	start := thor.PeriodOf(launch) + thor.Week
	assert.Equal(t, start, b.StartEpoch)
	assert.Equal(t, start+2*thor.Week, b.EndEpoch)
	require.Len(t, b.Epochs, 2)
	assert.Nil(t, b.Epochs[0].RewardPerVote)

	clock.Advance(2 * thor.Week)
	execute(t, rt, builtin.KindVoteMarket, nil, "setTotalVotes", map[string]any{
		"epoch": start, "target": target, "total": wad(100)})

	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/votemarket/bribes/0", &b))
	require.NotNil(t, b.Epochs[0].RewardPerVote)
	assert.Equal(t, wad(1), (*big.Int)(b.Epochs[0].RewardPerVote).String())
	assert.Nil(t, b.Epochs[1].RewardPerVote)

	var r votemarket.Root
	url := fmt.Sprintf("%s/votemarket/epochs/%d?target=%s", ts.URL, start, target)
	require.Equal(t, http.StatusOK, httpGet(t, url, &r))
	assert.True(t, r.Root.IsZero())
	assert.Equal(t, wad(100), (*big.Int)(r.TotalVotes).String())

	var claimed map[string]bool
	url = fmt.Sprintf("%s/votemarket/bribes/0/claimed/%d/%s", ts.URL, start, owner)
	require.Equal(t, http.StatusOK, httpGet(t, url, &claimed))
	assert.False(t, claimed["claimed"])

	assert.Equal(t, http.StatusBadRequest, httpGet(t, ts.URL+"/votemarket/bribes/7", nil))
	assert.Equal(t, http.StatusBadRequest, httpGet(t, ts.URL+"/votemarket/epochs/5", nil))
}
