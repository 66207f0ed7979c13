// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vechain/votemarket/builtin"
	"github.com/vechain/votemarket/lvldb"
	"github.com/vechain/votemarket/runtime"
	"github.com/vechain/votemarket/state"
	"github.com/vechain/votemarket/thor"
	"github.com/vechain/votemarket/xenv"
)

var (
	owner = thor.BytesToAddress([]byte("owner"))
	alice = thor.BytesToAddress([]byte("alice"))
	tokA  = thor.BytesToAddress([]byte("token-a"))
	tokB  = thor.BytesToAddress([]byte("token-b"))
)

func execute(t *testing.T, rt *runtime.Runtime, tok thor.Address, method string, args any) {
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	_, err = rt.Execute(owner, &builtin.Call{Contract: builtin.KindToken, Address: &tok, Method: method, Args: raw})
	require.NoError(t, err)
}

func TestEventFilter(t *testing.T) {
	topic := thor.BytesToBytes32(alice.Bytes())
	f, err := parseEventFilter(map[string][]string{
		"addr": {tokA.String()},
		"name": {"Transfer"},
		"t1":   {topic.String()},
	})
	require.NoError(t, err)

	ev := &xenv.Event{Address: tokA, Name: "Transfer", Topics: []thor.Bytes32{{}, topic}}
	assert.True(t, f.Match(ev))
	assert.False(t, f.Match(&xenv.Event{Address: tokB, Name: "Transfer", Topics: ev.Topics}))
	assert.False(t, f.Match(&xenv.Event{Address: tokA, Name: "Approval", Topics: ev.Topics}))
	assert.False(t, f.Match(&xenv.Event{Address: tokA, Name: "Transfer", Topics: ev.Topics[:1]}))

	_, err = parseEventFilter(map[string][]string{"t0": {"0x12"}})
	assert.Error(t, err)
	_, err = parseEventFilter(map[string][]string{"addr": {"nope"}})
	assert.Error(t, err)
}

func TestSubscribeEvent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	stater, err := state.NewStater(db, 1)
	require.NoError(t, err)
	rt := runtime.New(stater, nil, nil)
	defer rt.Close()

	for _, tok := range []thor.Address{tokA, tokB} {
		execute(t, rt, tok, "deploy", map[string]any{"name": "T", "symbol": "T", "decimals": 18})
	}

	subs, err := New(rt, nil, 16)
	require.NoError(t, err)
	router := mux.NewRouter()
	subs.Mount(router, "/subscriptions")
	ts := httptest.NewServer(router)

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/subscriptions/event?addr=" + tokA.String()
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)

	execute(t, rt, tokB, "mint", map[string]any{"to": alice, "amount": "1"})
	execute(t, rt, tokA, "mint", map[string]any{"to": alice, "amount": "7"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg EventMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, tokA, msg.Address)
	assert.Equal(t, "Transfer", msg.Name)
	assert.Equal(t, uint64(4), msg.Meta.Revision)
	assert.Contains(t, string(msg.Data), `"amount":7`)

	hit, _ := subs.messages.Stats()
	assert.Equal(t, int64(0), hit)

	subs.Close()
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "closed by server")
	conn.Close()
	ts.Close()
}

func TestBadFilter(t *testing.T) {
	subs, err := New(nil, nil, 1)
	require.NoError(t, err)
	router := mux.NewRouter()
	subs.Mount(router, "/subscriptions")
	ts := httptest.NewServer(router)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/subscriptions/event?addr=zz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}
