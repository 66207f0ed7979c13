// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package platform

import (
	"math/big"
	"slices"

	"github.com/vechain/votemarket/thor"
)

// Bribe is a funded reward pool attached to a gauge.
type Bribe struct {
	Gauge             thor.Address   `json:"gauge"`
	Manager           thor.Address   `json:"manager"`
	RewardToken       thor.Address   `json:"rewardToken"`
	NumberOfPeriods   uint8          `json:"numberOfPeriods"`
	EndTimestamp      uint64         `json:"endTimestamp"`
	MaxRewardPerVote  *big.Int       `json:"maxRewardPerVote"`
	TotalRewardAmount *big.Int       `json:"totalRewardAmount"`
	Blacklist         []thor.Address `json:"blacklist"`
}

// Exists reports whether the bribe was ever created. Closed bribes still exist.
func (b *Bribe) Exists() bool {
	return !b.RewardToken.IsZero()
}

// Closed reports whether the manager closed the bribe.
func (b *Bribe) Closed() bool {
	return b.Exists() && b.Manager.IsZero()
}

func (b *Bribe) IsBlacklisted(addr thor.Address) bool {
	return slices.Contains(b.Blacklist, addr)
}

// Period is the active period of a bribe.
type Period struct {
	ID              uint8    `json:"id"`
	Timestamp       uint64   `json:"timestamp"`
	RewardPerPeriod *big.Int `json:"rewardPerPeriod"`
}

// Upgrade is a queued duration extension. It is pending when TotalRewardAmount is not zero.
type Upgrade struct {
	NumberOfPeriods   uint8          `json:"numberOfPeriods"`
	TotalRewardAmount *big.Int       `json:"totalRewardAmount"`
	MaxRewardPerVote  *big.Int       `json:"maxRewardPerVote"`
	EndTimestamp      uint64         `json:"endTimestamp"`
	Blacklist         []thor.Address `json:"blacklist"`
}

func (u *Upgrade) Pending() bool {
	return u != nil && u.TotalRewardAmount != nil && u.TotalRewardAmount.Sign() != 0
}

type meta struct {
	GaugeController thor.Address
	Factory         thor.Address
	Killed          bool
}

// Ineligibility tells why a claim pays nothing. The zero value means eligible.
type Ineligibility uint8

const (
	Eligible Ineligibility = iota
	IneligibleBlacklisted
	IneligibleNoVote
	IneligibleLockExpired
	IneligibleAlreadyClaimed
	IneligibleVotedThisPeriod
	IneligibleBribeEnded
	IneligiblePeriodNotCurrent
	IneligibleFullyClaimed
	IneligibleClosed
)

func (i Ineligibility) String() string {
	switch i {
	case Eligible:
		return "eligible"
	case IneligibleBlacklisted:
		return "blacklisted"
	case IneligibleNoVote:
		return "no vote"
	case IneligibleLockExpired:
		return "lock expired"
	case IneligibleAlreadyClaimed:
		return "already claimed"
	case IneligibleVotedThisPeriod:
		return "voted during period"
	case IneligibleBribeEnded:
		return "bribe ended"
	case IneligiblePeriodNotCurrent:
		return "period not current"
	case IneligibleFullyClaimed:
		return "fully claimed"
	case IneligibleClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Quote is the outcome of evaluating a claim. Amount is the gross amount
// before fees and is zero unless Reason is Eligible.
type Quote struct {
	Reason Ineligibility
	Period uint64
	Amount *big.Int
	Fee    *big.Int
}

// Net returns the amount paid to the recipient.
func (q *Quote) Net() *big.Int {
	return new(big.Int).Sub(q.Amount, q.Fee)
}

type (
	BribeCreatedEvent struct {
		ID                uint64         `json:"id"`
		Gauge             thor.Address   `json:"gauge"`
		Manager           thor.Address   `json:"manager"`
		RewardToken       thor.Address   `json:"rewardToken"`
		NumberOfPeriods   uint8          `json:"numberOfPeriods"`
		MaxRewardPerVote  *big.Int       `json:"maxRewardPerVote"`
		RewardPerPeriod   *big.Int       `json:"rewardPerPeriod"`
		TotalRewardAmount *big.Int       `json:"totalRewardAmount"`
		Blacklist         []thor.Address `json:"blacklist"`
		Upgradeable       bool           `json:"upgradeable"`
	}
	BribeDurationIncreaseQueuedEvent struct {
		ID                uint64   `json:"id"`
		NumberOfPeriods   uint8    `json:"numberOfPeriods"`
		TotalRewardAmount *big.Int `json:"totalRewardAmount"`
		MaxRewardPerVote  *big.Int `json:"maxRewardPerVote"`
	}
	BribeDurationIncreasedEvent struct {
		ID                uint64   `json:"id"`
		NumberOfPeriods   uint8    `json:"numberOfPeriods"`
		TotalRewardAmount *big.Int `json:"totalRewardAmount"`
		MaxRewardPerVote  *big.Int `json:"maxRewardPerVote"`
	}
	PeriodRolledOverEvent struct {
		ID              uint64   `json:"id"`
		PeriodID        uint8    `json:"periodId"`
		Timestamp       uint64   `json:"timestamp"`
		RewardPerPeriod *big.Int `json:"rewardPerPeriod"`
		RewardPerVote   *big.Int `json:"rewardPerVote"`
	}
	ClaimedEvent struct {
		User        thor.Address `json:"user"`
		RewardToken thor.Address `json:"rewardToken"`
		ID          uint64       `json:"id"`
		Amount      *big.Int     `json:"amount"`
		ProtocolFee *big.Int     `json:"protocolFee"`
		Period      uint64       `json:"period"`
	}
	BribeClosedEvent struct {
		ID       uint64   `json:"id"`
		Leftover *big.Int `json:"leftover"`
	}
	ManagerUpdatedEvent struct {
		ID      uint64       `json:"id"`
		Manager thor.Address `json:"manager"`
	}
	KilledEvent struct {
		Time uint64 `json:"time"`
	}
)
