// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package platforms

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/votemarket/builtin/platform"
	"github.com/vechain/votemarket/thor"
)

type Summary struct {
	Address         thor.Address `json:"address"`
	GaugeController thor.Address `json:"gaugeController"`
	Factory         thor.Address `json:"factory"`
	Killed          bool         `json:"killed"`
	NextID          uint64       `json:"nextId"`
	CurrentPeriod   uint64       `json:"currentPeriod"`
}

type Bribe struct {
	Gauge             thor.Address          `json:"gauge"`
	Manager           thor.Address          `json:"manager"`
	RewardToken       thor.Address          `json:"rewardToken"`
	NumberOfPeriods   uint8                 `json:"numberOfPeriods"`
	EndTimestamp      uint64                `json:"endTimestamp"`
	MaxRewardPerVote  *math.HexOrDecimal256 `json:"maxRewardPerVote"`
	TotalRewardAmount *math.HexOrDecimal256 `json:"totalRewardAmount"`
	Blacklist         []thor.Address        `json:"blacklist"`
	Closed            bool                  `json:"closed"`
}

type Period struct {
	ID              uint8                 `json:"id"`
	Timestamp       uint64                `json:"timestamp"`
	RewardPerPeriod *math.HexOrDecimal256 `json:"rewardPerPeriod"`
}

type Upgrade struct {
	NumberOfPeriods   uint8                 `json:"numberOfPeriods"`
	TotalRewardAmount *math.HexOrDecimal256 `json:"totalRewardAmount"`
	MaxRewardPerVote  *math.HexOrDecimal256 `json:"maxRewardPerVote"`
	EndTimestamp      uint64                `json:"endTimestamp"`
	Blacklist         []thor.Address        `json:"blacklist"`
}

// BribeDetail is a bribe with its side tables.
type BribeDetail struct {
	ID            uint64                `json:"id"`
	Bribe         *Bribe                `json:"bribe"`
	ActivePeriod  *Period               `json:"activePeriod"`
	Upgrade       *Upgrade              `json:"upgrade"`
	RewardPerVote *math.HexOrDecimal256 `json:"rewardPerVote"`
	AmountClaimed *math.HexOrDecimal256 `json:"amountClaimed"`
	PeriodsLeft   uint64                `json:"periodsLeft"`
	Upgradeable   bool                  `json:"upgradeable"`
}

// Claimable is what a claim made now would pay.
type Claimable struct {
	User     thor.Address          `json:"user"`
	ID       uint64                `json:"id"`
	Eligible bool                  `json:"eligible"`
	Reason   string                `json:"reason"`
	Period   uint64                `json:"period"`
	Gross    *math.HexOrDecimal256 `json:"gross"`
	Fee      *math.HexOrDecimal256 `json:"fee"`
	Amount   *math.HexOrDecimal256 `json:"amount"`
}

func hex(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(new(big.Int).Set(v))
}

func convertBribe(b *platform.Bribe) *Bribe {
	return &Bribe{
		Gauge:             b.Gauge,
		Manager:           b.Manager,
		RewardToken:       b.RewardToken,
		NumberOfPeriods:   b.NumberOfPeriods,
		EndTimestamp:      b.EndTimestamp,
		MaxRewardPerVote:  hex(b.MaxRewardPerVote),
		TotalRewardAmount: hex(b.TotalRewardAmount),
		Blacklist:         b.Blacklist,
		Closed:            b.Closed(),
	}
}

func convertUpgrade(u *platform.Upgrade) *Upgrade {
	if !u.Pending() {
		return nil
	}
	return &Upgrade{
		NumberOfPeriods:   u.NumberOfPeriods,
		TotalRewardAmount: hex(u.TotalRewardAmount),
		MaxRewardPerVote:  hex(u.MaxRewardPerVote),
		EndTimestamp:      u.EndTimestamp,
		Blacklist:         u.Blacklist,
	}
}

func convertQuote(user thor.Address, id uint64, q *platform.Quote) *Claimable {
	return &Claimable{
		User:     user,
		ID:       id,
		Eligible: q.Reason == platform.Eligible,
		Reason:   q.Reason.String(),
		Period:   q.Period,
		Gross:    hex(q.Amount),
		Fee:      hex(q.Fee),
		Amount:   hex(q.Net()),
	}
}
