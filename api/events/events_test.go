// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/votemarket/api/events"
	"github.com/vechain/votemarket/eventdb"
	"github.com/vechain/votemarket/thor"
)

const limit = 5

var (
	market = thor.BytesToAddress([]byte("market"))
	other  = thor.BytesToAddress([]byte("other"))
	user   = thor.BytesToBytes32([]byte("user"))
)

func initServer(t *testing.T) *httptest.Server {
	db, err := eventdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var rows []*eventdb.Event
	for i := 0; i < 8; i++ {
		ev := &eventdb.Event{
			Revision: uint64(i),
			Time:     1000 + uint64(i)*10,
			TxID:     thor.BytesToBytes32([]byte{byte(i)}),
			Address:  market,
			Name:     "Claimed",
			Data:     []byte(`{"id":1}`),
		}
		if i%2 == 1 {
			ev.Address = other
			ev.Name = "BribeCreated"
		}
		if i < 3 {
			ev.Topics[0] = &user
		}
		rows = append(rows, ev)
	}
	require.NoError(t, db.Insert(rows))

	router := mux.NewRouter()
	events.New(db, limit).Mount(router, "/logs/event")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url string, body any) (int, []*events.FilteredEvent) {
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(raw)) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	var fes []*events.FilteredEvent
	if res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(&fes))
	}
	return res.StatusCode, fes
}

func TestFilter(t *testing.T) {
	ts := initServer(t)
	url := ts.URL + "/logs/event"

	status, fes := post(t, url, map[string]any{"address": market})
	require.Equal(t, http.StatusOK, status)
	require.Len(t, fes, 4)
	assert.Equal(t, "Claimed", fes[0].Name)
	assert.JSONEq(t, `{"id":1}`, string(fes[0].Data))
	assert.Equal(t, []thor.Bytes32{user}, fes[0].Topics)

	status, fes = post(t, url, map[string]any{
		"criteriaSet": []any{map[string]any{"topic0": user}},
		"order":       "desc",
	})
	require.Equal(t, http.StatusOK, status)
	require.Len(t, fes, 3)
	assert.Equal(t, uint64(2), fes[0].Meta.Revision)

	status, fes = post(t, url, map[string]any{
		"range":   map[string]any{"unit": "time", "from": 1040},
		"options": map[string]any{"offset": 1, "limit": 2},
	})
	require.Equal(t, http.StatusOK, status)
	require.Len(t, fes, 2)
	assert.Equal(t, uint64(5), fes[0].Meta.Revision)

	status, fes = post(t, url, map[string]any{"name": "BribeCreated", "range": map[string]any{"from": 2, "to": 5}})
	require.Equal(t, http.StatusOK, status)
	require.Len(t, fes, 2)
}

func TestFilterLimits(t *testing.T) {
	ts := initServer(t)
	url := ts.URL + "/logs/event"

	status, _ := post(t, url, map[string]any{})
	assert.Equal(t, http.StatusForbidden, status, "more than the limit without pagination")

	status, _ = post(t, url, map[string]any{"options": map[string]any{"limit": limit + 1}})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = post(t, url, map[string]any{"range": map[string]any{"from": 5, "to": 2}})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = post(t, url, map[string]any{"criteriaSet": []any{nil}})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = post(t, url, map[string]any{"order": "sideways"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = post(t, url, map[string]any{"unknown": true})
	assert.Equal(t, http.StatusBadRequest, status)
}
