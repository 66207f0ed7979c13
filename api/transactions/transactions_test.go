// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/votemarket/api/transactions"
	"github.com/vechain/votemarket/lvldb"
	"github.com/vechain/votemarket/runtime"
	"github.com/vechain/votemarket/state"
	"github.com/vechain/votemarket/thor"
)

var (
	owner = thor.BytesToAddress([]byte("owner"))
	tok   = thor.BytesToAddress([]byte("token"))
	start = thor.PeriodOf(1_700_000_000) + 5
)

func initServer(t *testing.T) *httptest.Server {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	stater, err := state.NewStater(db, 1)
	require.NoError(t, err)
	clock := runtime.NewShiftedClock(func() uint64 { return start })
	rt := runtime.New(stater, nil, clock.Now)
	t.Cleanup(rt.Close)

	router := mux.NewRouter()
	transactions.New(rt, clock).Mount(router, "/transactions")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url string, body any, v any) int {
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(raw)) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	if res.StatusCode == http.StatusOK && v != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(v))
	}
	return res.StatusCode
}

func TestExecute(t *testing.T) {
	ts := initServer(t)
	url := ts.URL + "/transactions"

	var receipt runtime.Receipt
	require.Equal(t, http.StatusOK, post(t, url, map[string]any{
		"origin":   owner,
		"contract": "token",
		"address":  tok,
		"method":   "deploy",
		"args":     map[string]any{"name": "Reward", "symbol": "RWD", "decimals": 18},
	}, &receipt))
	assert.Equal(t, uint64(1), receipt.Revision)
	assert.Equal(t, owner, receipt.Origin)
	assert.Equal(t, start, receipt.Time)

	require.Equal(t, http.StatusOK, post(t, url, map[string]any{
		"origin":   owner,
		"contract": "token",
		"address":  tok,
		"method":   "mint",
		"args":     map[string]any{"to": owner, "amount": "10"},
	}, &receipt))
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, "Transfer", receipt.Events[0].Name)

	// reverts answer 400 and commit nothing
	assert.Equal(t, http.StatusBadRequest, post(t, url, map[string]any{
		"origin":   owner,
		"contract": "token",
		"address":  tok,
		"method":   "transfer",
		"args":     map[string]any{"to": tok, "amount": "11"},
	}, nil))
	assert.Equal(t, http.StatusBadRequest, post(t, url, map[string]any{"contract": "token", "method": "mint"}, nil))
	assert.Equal(t, http.StatusBadRequest, post(t, url, map[string]any{"origin": owner, "contract": "nope", "method": "x"}, nil))
}

func TestMethodsAndClock(t *testing.T) {
	ts := initServer(t)

	res, err := http.Get(ts.URL + "/transactions/methods")
	require.NoError(t, err)
	var methods []string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&methods))
	res.Body.Close()
	assert.Contains(t, methods, "platform.claim")

	var now transactions.ClockTime
	require.Equal(t, http.StatusOK, post(t, ts.URL+"/transactions/clock", map[string]any{"seconds": thor.Week}, &now))
	assert.Equal(t, start+thor.Week, now.Now)
	assert.Equal(t, thor.PeriodOf(start)+thor.Week, now.Period)

	assert.Equal(t, http.StatusBadRequest, post(t, ts.URL+"/transactions/clock", map[string]any{"seconds": 0}, nil))
}
