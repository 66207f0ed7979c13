// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"context"
	"sync"
	"time"

	"github.com/vechain/votemarket/runtime"
)

// MaxClockOffset is the drift past which a node is reported unhealthy.
// Periods start at week boundaries of the local clock.
const MaxClockOffset = 10 * time.Second

type Commits struct {
	Revision   uint64     `json:"revision"`
	LastCommit *time.Time `json:"lastCommit"`
}

type Status struct {
	Healthy     bool     `json:"healthy"`
	Commits     *Commits `json:"commits"`
	ClockOffset *string  `json:"clockOffset"`
}

type Health struct {
	lock        sync.RWMutex
	revision    uint64
	lastCommit  time.Time
	clockOffset *time.Duration
}

// NewCommit records a committed revision.
func (h *Health) NewCommit(revision uint64) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.revision = revision
	h.lastCommit = time.Now()
}

// ClockOffset records the last measured drift of the local clock.
func (h *Health) ClockOffset(offset time.Duration) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.clockOffset = &offset
}

func (h *Health) Status() *Status {
	h.lock.RLock()
	defer h.lock.RUnlock()

	status := &Status{
		Healthy: true,
		Commits: &Commits{Revision: h.revision},
	}
	if !h.lastCommit.IsZero() {
		t := h.lastCommit
		status.Commits.LastCommit = &t
	}
	if h.clockOffset != nil {
		s := h.clockOffset.String()
		status.ClockOffset = &s
		status.Healthy = h.clockOffset.Abs() <= MaxClockOffset
	}
	return status
}

// Track feeds the commits of rt into h until ctx is done.
func (h *Health) Track(ctx context.Context, rt *runtime.Runtime) {
	h.NewCommit(rt.Revision())

	ch := make(chan *runtime.Receipt, 16)
	sub := rt.SubscribeReceipts(ch)
	defer sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Err():
			return
		case r := <-ch:
			h.NewCommit(r.Revision)
		}
	}
}
