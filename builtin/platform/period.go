// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package platform

import (
	"math/big"

	"github.com/vechain/votemarket/builtin/fixedpoint"
	"github.com/vechain/votemarket/builtin/solidity"
	"github.com/vechain/votemarket/thor"
)

// UpdateBribePeriod advances the active period of the bribe when a new week started.
func (p *Platform) UpdateBribePeriod(id uint64) error {
	return p.UpdateBribePeriods([]uint64{id})
}

func (p *Platform) UpdateBribePeriods(ids []uint64) error {
	leave, err := p.env.Enter(p.addr)
	if err != nil {
		return err
	}
	defer leave()

	for _, id := range ids {
		if _, err := p.GetBribe(id); err != nil {
			return err
		}
		if _, err := p.updateBribePeriod(id); err != nil {
			return err
		}
	}
	return nil
}

// updateBribePeriod returns the timestamp of the period claims are made for.
// It differs from the current period when the rollover was deferred.
//
// A call rolls over at most once. When several weeks passed without any call,
// the skipped periods are never priced: the bribe jumps straight to the current
// week, and the unclaimed total is spread over the periods left from there.
func (p *Platform) updateBribePeriod(id uint64) (uint64, error) {
	period, err := p.GetActivePeriod(id)
	if err != nil {
		return 0, err
	}
	bribe, err := p.GetBribe(id)
	if err != nil {
		return 0, err
	}
	current := p.CurrentPeriod()

	if period.ID == 0 && period.Timestamp == current {
		rpv, err := p.RewardPerVote(id)
		if err != nil {
			return 0, err
		}
		if rpv.Sign() == 0 {
			if err := p.initRewardPerVote(id, bribe, period, current); err != nil {
				return 0, err
			}
		}
	}

	if p.env.Now() >= period.Timestamp+thor.Week {
		if err := p.deps.Ledger.Checkpoint(bribe.Gauge); err != nil {
			return 0, err
		}
		rolled, err := p.rollOver(id, bribe, current)
		if err != nil {
			return 0, err
		}
		if rolled {
			return current, nil
		}
	}
	return period.Timestamp, nil
}

// initRewardPerVote prices the first period once votes are known.
func (p *Platform) initRewardPerVote(id uint64, bribe *Bribe, period *Period, current uint64) error {
	if err := p.deps.Ledger.Checkpoint(bribe.Gauge); err != nil {
		return err
	}
	bias, err := p.adjustedBias(bribe.Gauge, bribe.Blacklist, current)
	if err != nil {
		return err
	}
	if bias.Sign() == 0 {
		return nil
	}
	rpv, err := fixedpoint.MulDiv(period.RewardPerPeriod, thor.BaseUnit, bias)
	if err != nil {
		return err
	}
	return p.rewardPerVote.Set(solidity.Uint64Key(id), rpv)
}

// rollOver moves the bribe to current. It reports false and writes nothing
// when no eligible vote is recorded for the gauge.
func (p *Platform) rollOver(id uint64, bribe *Bribe, current uint64) (bool, error) {
	key := solidity.Uint64Key(id)
	upgrade, err := p.GetUpgradedBribeQueued(id)
	if err != nil {
		return false, err
	}
	next := applyUpgrade(bribe, upgrade)

	claimed, err := p.AmountClaimed(id)
	if err != nil {
		return false, err
	}
	rewardPerPeriod, err := fixedpoint.Sub(next.TotalRewardAmount, claimed)
	if err != nil {
		return false, err
	}
	left := periodsLeft(next.EndTimestamp, current)
	if next.EndTimestamp > current+thor.Week && left > 1 {
		rewardPerPeriod.Div(rewardPerPeriod, new(big.Int).SetUint64(left))
	}

	bias, err := p.adjustedBias(next.Gauge, next.Blacklist, current)
	if err != nil {
		return false, err
	}
	if bias.Sign() == 0 {
		logger.Debug("rollover deferred, no eligible votes", "platform", p.addr, "id", id, "period", current)
		return false, nil
	}
	rpv, err := fixedpoint.MulDiv(rewardPerPeriod, thor.BaseUnit, bias)
	if err != nil {
		return false, err
	}

	if upgrade.Pending() {
		if err := p.bribes.Set(key, next); err != nil {
			return false, err
		}
		p.upgrades.Delete(key)
		logger.Debug("upgrade applied", "platform", p.addr, "id", id, "periods", next.NumberOfPeriods, "total", next.TotalRewardAmount)
		if err := p.env.Log(p.addr, "BribeDurationIncreased", []thor.Bytes32{idTopic(id)}, &BribeDurationIncreasedEvent{
			ID:                id,
			NumberOfPeriods:   next.NumberOfPeriods,
			TotalRewardAmount: next.TotalRewardAmount,
			MaxRewardPerVote:  next.MaxRewardPerVote,
		}); err != nil {
			return false, err
		}
	}

	if err := p.rewardPerVote.Set(key, rpv); err != nil {
		return false, err
	}
	index := periodIndex(next, current)
	if err := p.periods.Set(key, &Period{ID: index, Timestamp: current, RewardPerPeriod: rewardPerPeriod}); err != nil {
		return false, err
	}
	logger.Debug("period rolled over", "platform", p.addr, "id", id, "period", current, "index", index, "rpv", rpv)
	return true, p.env.Log(p.addr, "PeriodRolledOver", []thor.Bytes32{idTopic(id)}, &PeriodRolledOverEvent{
		ID:              id,
		PeriodID:        index,
		Timestamp:       current,
		RewardPerPeriod: rewardPerPeriod,
		RewardPerVote:   rpv,
	})
}

// applyUpgrade returns the bribe as it looks once upgrade is applied.
func applyUpgrade(bribe *Bribe, upgrade *Upgrade) *Bribe {
	next := *bribe
	if !upgrade.Pending() {
		return &next
	}
	next.NumberOfPeriods = upgrade.NumberOfPeriods
	next.EndTimestamp = upgrade.EndTimestamp
	next.MaxRewardPerVote = upgrade.MaxRewardPerVote
	next.TotalRewardAmount = upgrade.TotalRewardAmount
	if len(upgrade.Blacklist) > 0 {
		next.Blacklist = upgrade.Blacklist
	}
	return &next
}

// adjustedBias is the gauge bias at period less the bias of blacklisted voters.
func (p *Platform) adjustedBias(gauge thor.Address, blacklist []thor.Address, period uint64) (*big.Int, error) {
	bias, err := p.deps.Ledger.BiasOf(gauge, period)
	if err != nil {
		return nil, err
	}
	bias = new(big.Int).Set(bias)
	for _, addr := range blacklist {
		last, err := p.deps.Ledger.LastVoteOf(addr, gauge)
		if err != nil {
			return nil, err
		}
		if period <= last {
			continue
		}
		slope, err := p.deps.Ledger.SlopeOf(addr, gauge)
		if err != nil {
			return nil, err
		}
		end, err := p.deps.Ledger.LockEndOf(addr, gauge)
		if err != nil {
			return nil, err
		}
		addrBias, err := biasAt(slope, end, period)
		if err != nil {
			return nil, err
		}
		bias = fixedpoint.SaturatingSub(bias, addrBias)
	}
	return bias, nil
}

// biasAt is the vote weight of a slope at period. Locks ending within the
// next week carry no weight.
func biasAt(slope *big.Int, end, period uint64) (*big.Int, error) {
	if period+thor.Week >= end {
		return new(big.Int), nil
	}
	return fixedpoint.Mul(slope, new(big.Int).SetUint64(end-period))
}
