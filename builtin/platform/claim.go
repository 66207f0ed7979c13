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

// Claim pays the caller's reward for the current period to the caller.
func (p *Platform) Claim(id uint64) (*big.Int, error) {
	return p.ClaimTo(id, p.env.Caller())
}

// ClaimTo pays the caller's reward for the current period to recipient.
func (p *Platform) ClaimTo(id uint64, recipient thor.Address) (*big.Int, error) {
	leave, err := p.env.Enter(p.addr)
	if err != nil {
		return nil, err
	}
	defer leave()

	if recipient.IsZero() {
		return nil, errZeroAddress
	}
	return p.claim(p.env.Caller(), recipient, id)
}

// ClaimFor pays user's reward to the recipient user registered, or to user.
// Anyone may call it.
func (p *Platform) ClaimFor(user thor.Address, id uint64) (*big.Int, error) {
	return p.ClaimAllFor(user, []uint64{id})
}

// ClaimAll claims every bribe in ids for the caller and returns the total paid.
func (p *Platform) ClaimAll(ids []uint64) (*big.Int, error) {
	leave, err := p.env.Enter(p.addr)
	if err != nil {
		return nil, err
	}
	defer leave()

	caller := p.env.Caller()
	return p.claimAll(caller, caller, ids)
}

func (p *Platform) ClaimAllFor(user thor.Address, ids []uint64) (*big.Int, error) {
	leave, err := p.env.Enter(p.addr)
	if err != nil {
		return nil, err
	}
	defer leave()

	recipient := user
	if p.deps.Recipients != nil {
		r, err := p.deps.Recipients.RecipientOf(p.addr, user)
		if err != nil {
			return nil, err
		}
		if !r.IsZero() {
			recipient = r
		}
	}
	return p.claimAll(user, recipient, ids)
}

func (p *Platform) claimAll(user, recipient thor.Address, ids []uint64) (*big.Int, error) {
	total := new(big.Int)
	for _, id := range ids {
		amount, err := p.claim(user, recipient, id)
		if err != nil {
			return nil, err
		}
		total.Add(total, amount)
	}
	return total, nil
}

func (p *Platform) claim(user, recipient thor.Address, id uint64) (*big.Int, error) {
	bribe, err := p.GetBribe(id)
	if err != nil {
		return nil, err
	}
	if bribe.IsBlacklisted(user) {
		return new(big.Int), nil
	}
	current, err := p.updateBribePeriod(id)
	if err != nil {
		return nil, err
	}
	q, err := p.quote(user, id, current)
	if err != nil {
		return nil, err
	}
	if q.Reason != Eligible {
		logger.Trace("nothing to claim", "platform", p.addr, "id", id, "user", user, "reason", q.Reason)
		return new(big.Int), nil
	}

	key := solidity.Uint64Key(id)
	if err := p.lastUserClaim.Set(claimKey(user, id), current); err != nil {
		return nil, err
	}
	claimed, err := p.AmountClaimed(id)
	if err != nil {
		return nil, err
	}
	if claimed, err = fixedpoint.Add(claimed, q.Amount); err != nil {
		return nil, err
	}
	if err := p.amountClaimed.Set(key, claimed); err != nil {
		return nil, err
	}

	// bribe may have been upgraded by the rollover, but the token never changes.
	tok, err := p.token(bribe.RewardToken)
	if err != nil {
		return nil, err
	}
	if q.Fee.Sign() > 0 {
		if err := tok.Transfer(p.addr, p.deps.Fees.FeeCollector(), q.Fee); err != nil {
			return nil, err
		}
		marketID, err := p.marketID()
		if err != nil {
			return nil, err
		}
		if err := p.deps.Fees.Accrue(marketID, bribe.RewardToken, q.Fee); err != nil {
			return nil, err
		}
	}
	net := q.Net()
	if net.Sign() > 0 {
		if err := tok.Transfer(p.addr, recipient, net); err != nil {
			return nil, err
		}
	}
	return net, p.env.Log(p.addr, "Claimed",
		[]thor.Bytes32{idTopic(id), thor.BytesToBytes32(user.Bytes())},
		&ClaimedEvent{
			User:        user,
			RewardToken: bribe.RewardToken,
			ID:          id,
			Amount:      net,
			ProtocolFee: q.Fee,
			Period:      current,
		})
}

// quote evaluates a claim of user for the period at current without writing anything.
func (p *Platform) quote(user thor.Address, id uint64, current uint64) (*Quote, error) {
	q := &Quote{Period: current, Amount: new(big.Int), Fee: new(big.Int)}

	bribe, err := p.GetBribe(id)
	if err != nil {
		return nil, err
	}
	if bribe.Closed() {
		q.Reason = IneligibleClosed
		return q, nil
	}
	if bribe.IsBlacklisted(user) {
		q.Reason = IneligibleBlacklisted
		return q, nil
	}
	slope, err := p.deps.Ledger.SlopeOf(user, bribe.Gauge)
	if err != nil {
		return nil, err
	}
	lockEnd, err := p.deps.Ledger.LockEndOf(user, bribe.Gauge)
	if err != nil {
		return nil, err
	}
	lastVote, err := p.deps.Ledger.LastVoteOf(user, bribe.Gauge)
	if err != nil {
		return nil, err
	}
	lastClaim, err := p.LastUserClaim(user, id)
	if err != nil {
		return nil, err
	}
	claimed, err := p.AmountClaimed(id)
	if err != nil {
		return nil, err
	}

	switch {
	case slope.Sign() == 0:
		q.Reason = IneligibleNoVote
	case lastClaim >= current:
		q.Reason = IneligibleAlreadyClaimed
	case current >= lockEnd:
		q.Reason = IneligibleLockExpired
	case current <= lastVote:
		q.Reason = IneligibleVotedThisPeriod
	case current >= bribe.EndTimestamp:
		q.Reason = IneligibleBribeEnded
	case current != p.CurrentPeriod():
		q.Reason = IneligiblePeriodNotCurrent
	case claimed.Cmp(bribe.TotalRewardAmount) >= 0:
		q.Reason = IneligibleFullyClaimed
	}
	if q.Reason != Eligible {
		return q, nil
	}

	bias, err := biasAt(slope, lockEnd, current)
	if err != nil {
		return nil, err
	}
	rpv, err := p.RewardPerVote(id)
	if err != nil {
		return nil, err
	}
	byVotes, err := fixedpoint.MulWad(bias, rpv)
	if err != nil {
		return nil, err
	}
	byPrice, err := fixedpoint.MulWad(bias, bribe.MaxRewardPerVote)
	if err != nil {
		return nil, err
	}
	amount := fixedpoint.Min(byVotes, byPrice)
	if remaining := new(big.Int).Sub(bribe.TotalRewardAmount, claimed); amount.Cmp(remaining) > 0 {
		amount = remaining
	}
	q.Amount = amount

	marketID, err := p.marketID()
	if err != nil {
		return nil, err
	}
	pct, err := p.deps.Fees.TotalFeePercent(marketID)
	if err != nil {
		return nil, err
	}
	if pct.Sign() > 0 {
		if q.Fee, err = fixedpoint.MulWad(amount, pct); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// Claimable returns what Claim would pay user now, fees deducted.
func (p *Platform) Claimable(user thor.Address, id uint64) (*big.Int, error) {
	q, err := p.ClaimableDetail(user, id)
	if err != nil {
		return nil, err
	}
	return q.Net(), nil
}

// ClaimableDetail evaluates a claim of user against the period a claim would
// roll over to, including a queued upgrade. Nothing is persisted.
func (p *Platform) ClaimableDetail(user thor.Address, id uint64) (*Quote, error) {
	restore := p.env.Checkpoint()
	defer restore()

	bribe, err := p.GetBribe(id)
	if err != nil {
		return nil, err
	}
	if bribe.IsBlacklisted(user) {
		return &Quote{Reason: IneligibleBlacklisted, Period: p.CurrentPeriod(), Amount: new(big.Int), Fee: new(big.Int)}, nil
	}
	current, err := p.updateBribePeriod(id)
	if err != nil {
		return nil, err
	}
	return p.quote(user, id, current)
}
