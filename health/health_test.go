// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vechain/votemarket/builtin"
	"github.com/vechain/votemarket/lvldb"
	"github.com/vechain/votemarket/runtime"
	"github.com/vechain/votemarket/state"
	"github.com/vechain/votemarket/thor"
)

func TestStatus(t *testing.T) {
	var h Health

	s := h.Status()
	assert.True(t, s.Healthy)
	assert.Nil(t, s.Commits.LastCommit)
	assert.Nil(t, s.ClockOffset)

	h.NewCommit(7)
	h.ClockOffset(-2 * time.Second)
	s = h.Status()
	assert.True(t, s.Healthy)
	assert.Equal(t, uint64(7), s.Commits.Revision)
	require.NotNil(t, s.Commits.LastCommit)
	assert.Equal(t, "-2s", *s.ClockOffset)

	h.ClockOffset(MaxClockOffset + time.Second)
	assert.False(t, h.Status().Healthy)
}

func TestTrack(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	stater, err := state.NewStater(db, 1)
	require.NoError(t, err)
	rt := runtime.New(stater, nil, nil)
	defer rt.Close()

	var h Health
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Track(ctx, rt)
	}()

	tok := thor.BytesToAddress([]byte("token"))
	args, _ := json.Marshal(map[string]any{"name": "T", "symbol": "T", "decimals": 18})
	_, err = rt.Execute(thor.BytesToAddress([]byte("owner")), &builtin.Call{
		Contract: builtin.KindToken, Address: &tok, Method: "deploy", Args: args})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return h.Status().Commits.Revision == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
