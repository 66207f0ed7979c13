// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gauge

import (
	"math/big"

	"github.com/vechain/votemarket/thor"
)

// Lock is a voting escrow position. Its bias decays linearly to zero at End.
type Lock struct {
	Amount *big.Int
	Slope  *big.Int
	End    uint64
}

// BiasAt returns the voting weight of the lock at time t.
func (l *Lock) BiasAt(t uint64) *big.Int {
	if l == nil || l.Slope == nil || t >= l.End {
		return new(big.Int)
	}
	return new(big.Int).Mul(l.Slope, new(big.Int).SetUint64(l.End-t))
}

// VotedSlope is the share of a lock a voter directed to one gauge.
type VotedSlope struct {
	Slope *big.Int
	Power uint64 // basis points of the voter's lock
	End   uint64
}

// Point is the aggregated weight of a gauge at a week boundary.
type Point struct {
	Bias  *big.Int
	Slope *big.Int
}

func (p *Point) normalize() *Point {
	if p.Bias == nil {
		p.Bias = new(big.Int)
	}
	if p.Slope == nil {
		p.Slope = new(big.Int)
	}
	return p
}

type meta struct {
	Owner thor.Address
}

type (
	GaugeAddedEvent struct {
		Gauge thor.Address `json:"gauge"`
	}
	LockCreatedEvent struct {
		Voter  thor.Address `json:"voter"`
		Amount *big.Int     `json:"amount"`
		Slope  *big.Int     `json:"slope"`
		End    uint64       `json:"end"`
	}
	VoteForGaugeEvent struct {
		Voter  thor.Address `json:"voter"`
		Gauge  thor.Address `json:"gauge"`
		Weight uint64       `json:"weight"`
		Time   uint64       `json:"time"`
	}
)
