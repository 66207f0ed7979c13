// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gauge

import (
	"math/big"

	"github.com/vechain/votemarket/thor"
)

// CreateLock records a lock of amount until unlockTime, rounded down to a week.
// The slope is amount divided by the maximum lock time. Locked amounts are
// bookkeeping only, no tokens are moved.
func (c *Controller) CreateLock(voter thor.Address, amount *big.Int, unlockTime uint64) error {
	if _, err := c.Owner(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return errZeroAmount
	}
	now := c.env.Now()
	end := thor.PeriodOf(unlockTime)
	if end <= now || end > now+thor.GaugeMaxLockTime {
		return errLockTime
	}
	old, err := c.locks.Get(voter)
	if err != nil {
		return err
	}
	if old.End > now {
		return errLockExists
	}
	slope := new(big.Int).Div(amount, new(big.Int).SetUint64(thor.GaugeMaxLockTime))
	if slope.Sign() == 0 {
		return errZeroAmount
	}
	if err := c.locks.Set(voter, &Lock{Amount: amount, Slope: slope, End: end}); err != nil {
		return err
	}
	return c.env.Log(c.addr, "LockCreated", []thor.Bytes32{thor.BytesToBytes32(voter.Bytes())},
		&LockCreatedEvent{Voter: voter, Amount: amount, Slope: slope, End: end})
}

// LockOf returns voter's lock. A missing lock has a zero slope.
func (c *Controller) LockOf(voter thor.Address) (*Lock, error) {
	l, err := c.locks.Get(voter)
	if err != nil {
		return nil, err
	}
	if l.Slope == nil {
		l.Slope = new(big.Int)
		l.Amount = new(big.Int)
	}
	return l, nil
}
