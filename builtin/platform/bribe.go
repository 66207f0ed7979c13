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

// CreateBribe funds a new bribe from the caller's balance and returns its id.
// The first period starts at the next week boundary.
func (p *Platform) CreateBribe(
	gauge, manager, rewardToken thor.Address,
	numberOfPeriods uint8,
	maxRewardPerVote, totalRewardAmount *big.Int,
	blacklist []thor.Address,
	upgradeable bool,
) (uint64, error) {
	leave, err := p.env.Enter(p.addr)
	if err != nil {
		return 0, err
	}
	defer leave()

	if err := p.notKilled(); err != nil {
		return 0, err
	}
	ok, err := p.deps.Ledger.IsGauge(gauge)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errNotGauge
	}
	if numberOfPeriods < thor.MinimumNumberOfPeriods {
		return 0, errNumberOfPeriods
	}
	if fixedpoint.IsZero(totalRewardAmount) || fixedpoint.IsZero(maxRewardPerVote) {
		return 0, errZeroInput
	}
	if rewardToken.IsZero() || manager.IsZero() {
		return 0, errZeroAddress
	}
	if err := checkBlacklist(blacklist); err != nil {
		return 0, err
	}

	tok, err := p.token(rewardToken)
	if err != nil {
		return 0, err
	}
	received, err := p.pull(tok, p.env.Caller(), totalRewardAmount)
	if err != nil {
		return 0, err
	}

	id, err := p.nextID.Next()
	if err != nil {
		return 0, err
	}
	key := solidity.Uint64Key(id)
	current := p.CurrentPeriod()
	bribe := &Bribe{
		Gauge:             gauge,
		Manager:           manager,
		RewardToken:       rewardToken,
		NumberOfPeriods:   numberOfPeriods,
		EndTimestamp:      current + (uint64(numberOfPeriods)+1)*thor.Week,
		MaxRewardPerVote:  new(big.Int).Set(maxRewardPerVote),
		TotalRewardAmount: received,
		Blacklist:         blacklist,
	}
	if err := p.bribes.Set(key, bribe); err != nil {
		return 0, err
	}
	if err := p.upgradeable.Set(key, upgradeable); err != nil {
		return 0, err
	}
	rewardPerPeriod := new(big.Int).Div(received, new(big.Int).SetUint64(uint64(numberOfPeriods)))
	if err := p.periods.Set(key, &Period{Timestamp: current + thor.Week, RewardPerPeriod: rewardPerPeriod}); err != nil {
		return 0, err
	}

	logger.Debug("bribe created", "platform", p.addr, "id", id, "gauge", gauge, "total", received)
	return id, p.env.Log(p.addr, "BribeCreated",
		[]thor.Bytes32{idTopic(id), thor.BytesToBytes32(gauge.Bytes()), thor.BytesToBytes32(manager.Bytes())},
		&BribeCreatedEvent{
			ID:                id,
			Gauge:             gauge,
			Manager:           manager,
			RewardToken:       rewardToken,
			NumberOfPeriods:   numberOfPeriods,
			MaxRewardPerVote:  bribe.MaxRewardPerVote,
			RewardPerPeriod:   rewardPerPeriod,
			TotalRewardAmount: received,
			Blacklist:         blacklist,
			Upgradeable:       upgradeable,
		})
}

func checkBlacklist(blacklist []thor.Address) error {
	seen := make(map[thor.Address]bool, len(blacklist))
	for _, addr := range blacklist {
		if addr.IsZero() {
			return errBlacklistedZero
		}
		if seen[addr] {
			return errBlacklistDuplicate
		}
		seen[addr] = true
	}
	return nil
}

// pull moves amount from the payer and returns what the platform actually received.
func (p *Platform) pull(tok Token, from thor.Address, amount *big.Int) (*big.Int, error) {
	before, err := tok.BalanceOf(p.addr)
	if err != nil {
		return nil, err
	}
	if err := tok.TransferFrom(p.addr, from, p.addr, amount); err != nil {
		return nil, err
	}
	after, err := tok.BalanceOf(p.addr)
	if err != nil {
		return nil, err
	}
	received, err := fixedpoint.Sub(after, before)
	if err != nil {
		return nil, err
	}
	if received.Sign() == 0 {
		return nil, errNothingReceived
	}
	return received, nil
}

func (p *Platform) onlyManager(id uint64) (*Bribe, error) {
	bribe, err := p.GetBribe(id)
	if err != nil {
		return nil, err
	}
	if bribe.Manager.IsZero() || bribe.Manager != p.env.Caller() {
		return nil, errManagerOnly
	}
	return bribe, nil
}

// IncreaseBribeDuration queues an extension applied at the next rollover.
// Funds are pulled immediately. Queued extensions merge: periods, amount and
// end add up while the price and blacklist are replaced.
func (p *Platform) IncreaseBribeDuration(
	id uint64,
	additionalPeriods uint8,
	increasedAmount, newMaxRewardPerVote *big.Int,
	blacklist []thor.Address,
) error {
	leave, err := p.env.Enter(p.addr)
	if err != nil {
		return err
	}
	defer leave()

	if err := p.notKilled(); err != nil {
		return err
	}
	bribe, err := p.onlyManager(id)
	if err != nil {
		return err
	}
	key := solidity.Uint64Key(id)
	upgradeable, err := p.upgradeable.Get(key)
	if err != nil {
		return err
	}
	if !upgradeable {
		return errNotUpgradeable
	}
	if periodsLeft(bribe.EndTimestamp, p.CurrentPeriod()) < 1 {
		return errNoPeriodsLeft
	}
	if fixedpoint.IsZero(increasedAmount) || fixedpoint.IsZero(newMaxRewardPerVote) {
		return errZeroInput
	}
	if err := checkBlacklist(blacklist); err != nil {
		return err
	}

	tok, err := p.token(bribe.RewardToken)
	if err != nil {
		return err
	}
	received, err := p.pull(tok, p.env.Caller(), increasedAmount)
	if err != nil {
		return err
	}

	queued, err := p.upgrades.Get(key)
	if err != nil {
		return err
	}
	base := &Upgrade{
		NumberOfPeriods:   bribe.NumberOfPeriods,
		TotalRewardAmount: bribe.TotalRewardAmount,
		EndTimestamp:      bribe.EndTimestamp,
	}
	if queued.Pending() {
		base = queued
	}
	periods := uint64(base.NumberOfPeriods) + uint64(additionalPeriods)
	if periods > 255 {
		return errPeriodsOverflow
	}
	total, err := fixedpoint.Add(base.TotalRewardAmount, received)
	if err != nil {
		return err
	}
	upgrade := &Upgrade{
		NumberOfPeriods:   uint8(periods),
		TotalRewardAmount: total,
		MaxRewardPerVote:  new(big.Int).Set(newMaxRewardPerVote),
		EndTimestamp:      base.EndTimestamp + uint64(additionalPeriods)*thor.Week,
		Blacklist:         blacklist,
	}
	if err := p.upgrades.Set(key, upgrade); err != nil {
		return err
	}
	logger.Debug("bribe extension queued", "platform", p.addr, "id", id, "periods", upgrade.NumberOfPeriods, "total", total)
	return p.env.Log(p.addr, "BribeDurationIncreaseQueued", []thor.Bytes32{idTopic(id)}, &BribeDurationIncreaseQueuedEvent{
		ID:                id,
		NumberOfPeriods:   upgrade.NumberOfPeriods,
		TotalRewardAmount: total,
		MaxRewardPerVote:  upgrade.MaxRewardPerVote,
	})
}

// CloseBribe returns the unclaimed rewards to the manager once the bribe
// ended, or at any time after the platform was killed. Before that it does nothing.
func (p *Platform) CloseBribe(id uint64) error {
	leave, err := p.env.Enter(p.addr)
	if err != nil {
		return err
	}
	defer leave()

	bribe, err := p.onlyManager(id)
	if err != nil {
		return err
	}
	killed, err := p.IsKilled()
	if err != nil {
		return err
	}
	if p.CurrentPeriod() < bribe.EndTimestamp && !killed {
		return nil
	}

	key := solidity.Uint64Key(id)
	claimed, err := p.AmountClaimed(id)
	if err != nil {
		return err
	}
	upgrade, err := p.upgrades.Get(key)
	if err != nil {
		return err
	}
	total := bribe.TotalRewardAmount
	if upgrade.Pending() {
		total = upgrade.TotalRewardAmount
		p.upgrades.Delete(key)
	}
	leftover, err := fixedpoint.Sub(total, claimed)
	if err != nil {
		return err
	}

	manager := bribe.Manager
	bribe.Manager = thor.Address{}
	if err := p.bribes.Set(key, bribe); err != nil {
		return err
	}
	if leftover.Sign() > 0 {
		tok, err := p.token(bribe.RewardToken)
		if err != nil {
			return err
		}
		if err := tok.Transfer(p.addr, manager, leftover); err != nil {
			return err
		}
	}
	logger.Debug("bribe closed", "platform", p.addr, "id", id, "leftover", leftover)
	return p.env.Log(p.addr, "BribeClosed", []thor.Bytes32{idTopic(id)}, &BribeClosedEvent{ID: id, Leftover: leftover})
}

// UpdateManager hands the bribe over to another manager.
func (p *Platform) UpdateManager(id uint64, manager thor.Address) error {
	leave, err := p.env.Enter(p.addr)
	if err != nil {
		return err
	}
	defer leave()

	bribe, err := p.onlyManager(id)
	if err != nil {
		return err
	}
	if manager.IsZero() {
		return errZeroAddress
	}
	bribe.Manager = manager
	if err := p.bribes.Set(solidity.Uint64Key(id), bribe); err != nil {
		return err
	}
	return p.env.Log(p.addr, "ManagerUpdated", []thor.Bytes32{idTopic(id)}, &ManagerUpdatedEvent{ID: id, Manager: manager})
}
