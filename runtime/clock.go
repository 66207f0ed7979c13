// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import "sync/atomic"

// ShiftedClock is a clock that can be moved forward, for dev nodes that
// need to cross period boundaries without waiting.
type ShiftedClock struct {
	base   Clock
	offset atomic.Uint64
}

// NewShiftedClock wraps base, SystemClock when nil.
func NewShiftedClock(base Clock) *ShiftedClock {
	if base == nil {
		base = SystemClock
	}
	return &ShiftedClock{base: base}
}

// Now returns the shifted time.
func (c *ShiftedClock) Now() uint64 {
	return c.base() + c.offset.Load()
}

// Advance moves the clock forward by seconds and returns the new time.
func (c *ShiftedClock) Advance(seconds uint64) uint64 {
	c.offset.Add(seconds)
	return c.Now()
}
