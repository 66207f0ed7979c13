// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package platform implements the vote bribe reward accounting engine.
//
// One platform is bound to one gauge controller and holds any number of
// bribes. A bribe splits its reward pool over week aligned periods. The
// active period of a bribe is advanced lazily by whichever call touches the
// bribe first in a new week, converting the remaining pool into a reward per
// vote from the gauge bias at the period start. Voters then pull their share
// once per period.
package platform

import (
	"math/big"

	"github.com/vechain/votemarket/builtin/reverts"
	"github.com/vechain/votemarket/builtin/solidity"
	"github.com/vechain/votemarket/log"
	"github.com/vechain/votemarket/thor"
	"github.com/vechain/votemarket/xenv"
)

var logger = log.WithContext("pkg", "platform")

var (
	slotMeta          = thor.BytesToBytes32([]byte(("platform-meta")))
	slotNextID        = thor.BytesToBytes32([]byte(("platform-next-id")))
	slotBribes        = thor.BytesToBytes32([]byte(("bribes")))
	slotPeriods       = thor.BytesToBytes32([]byte(("active-periods")))
	slotUpgrades      = thor.BytesToBytes32([]byte(("upgrade-queue")))
	slotRewardPerVote = thor.BytesToBytes32([]byte(("reward-per-vote")))
	slotAmountClaimed = thor.BytesToBytes32([]byte(("amount-claimed")))
	slotLastUserClaim = thor.BytesToBytes32([]byte(("last-user-claim")))
	slotUpgradeable   = thor.BytesToBytes32([]byte(("is-upgradeable")))
)

var (
	errNotDeployed        = reverts.New("platform: not deployed")
	errAlreadyDeployed    = reverts.New("platform: already deployed")
	errKilled             = reverts.New("platform: killed")
	errNotFactory         = reverts.New("platform: caller is not the factory")
	errManagerOnly        = reverts.New("platform: caller is not the manager")
	errZeroAddress        = reverts.New("platform: zero address")
	errZeroInput          = reverts.New("platform: zero input")
	errNumberOfPeriods    = reverts.New("platform: invalid number of periods")
	errNotGauge           = reverts.New("platform: not a gauge")
	errNotUpgradeable     = reverts.New("platform: not upgradeable")
	errNoPeriodsLeft      = reverts.New("platform: no periods left")
	errUnknownBribe       = reverts.New("platform: unknown bribe")
	errPeriodsOverflow    = reverts.New("platform: number of periods overflow")
	errNothingReceived    = reverts.New("platform: no reward received")
	errBlacklistedZero    = reverts.New("platform: zero address in blacklist")
	errBlacklistDuplicate = reverts.New("platform: duplicate address in blacklist")
)

// VotingLedger supplies vote slopes and gauge biases.
type VotingLedger interface {
	IsGauge(target thor.Address) (bool, error)
	SlopeOf(voter, target thor.Address) (*big.Int, error)
	LockEndOf(voter, target thor.Address) (uint64, error)
	LastVoteOf(voter, target thor.Address) (uint64, error)
	BiasOf(target thor.Address, at uint64) (*big.Int, error)
	// Checkpoint must be called before BiasOf reads of recent weeks.
	Checkpoint(target thor.Address) error
}

// Token is a fungible token ledger.
type Token interface {
	Address() thor.Address
	BalanceOf(addr thor.Address) (*big.Int, error)
	Transfer(from, to thor.Address, amount *big.Int) error
	TransferFrom(spender, from, to thor.Address, amount *big.Int) error
}

// TokenProvider resolves a token address.
type TokenProvider func(addr thor.Address) (Token, error)

// FeeRegistry supplies the fee schedule and books collected fees.
type FeeRegistry interface {
	TotalFeePercent(marketID thor.Bytes32) (*big.Int, error)
	FeeCollector() thor.Address
	Accrue(marketID thor.Bytes32, token thor.Address, amount *big.Int) error
}

// RecipientResolver returns the payout address a user configured for a platform.
// A zero address means the user receives the rewards.
type RecipientResolver interface {
	RecipientOf(platform, user thor.Address) (thor.Address, error)
}

// Deps are the collaborators of a platform.
type Deps struct {
	Ledger     VotingLedger
	Tokens     TokenProvider
	Fees       FeeRegistry
	Recipients RecipientResolver
}

// Platform is a bribe platform bound to one gauge controller.
type Platform struct {
	addr thor.Address
	env  *xenv.Environment
	deps Deps

	meta          *solidity.Raw[*meta]
	nextID        *solidity.Uint64
	bribes        *solidity.Mapping[solidity.Uint64Key, *Bribe]
	periods       *solidity.Mapping[solidity.Uint64Key, *Period]
	upgrades      *solidity.Mapping[solidity.Uint64Key, *Upgrade]
	rewardPerVote *solidity.Mapping[solidity.Uint64Key, *big.Int]
	amountClaimed *solidity.Mapping[solidity.Uint64Key, *big.Int]
	lastUserClaim *solidity.Mapping[thor.Bytes32, uint64]
	upgradeable   *solidity.Mapping[solidity.Uint64Key, bool]
}

func New(addr thor.Address, env *xenv.Environment, deps Deps) *Platform {
	sctx := solidity.NewContext(addr, env.State())
	return &Platform{
		addr:          addr,
		env:           env,
		deps:          deps,
		meta:          solidity.NewRaw[*meta](sctx, slotMeta),
		nextID:        solidity.NewUint64(sctx, slotNextID),
		bribes:        solidity.NewMapping[solidity.Uint64Key, *Bribe](sctx, slotBribes),
		periods:       solidity.NewMapping[solidity.Uint64Key, *Period](sctx, slotPeriods),
		upgrades:      solidity.NewMapping[solidity.Uint64Key, *Upgrade](sctx, slotUpgrades),
		rewardPerVote: solidity.NewMapping[solidity.Uint64Key, *big.Int](sctx, slotRewardPerVote),
		amountClaimed: solidity.NewMapping[solidity.Uint64Key, *big.Int](sctx, slotAmountClaimed),
		lastUserClaim: solidity.NewMapping[thor.Bytes32, uint64](sctx, slotLastUserClaim),
		upgradeable:   solidity.NewMapping[solidity.Uint64Key, bool](sctx, slotUpgradeable),
	}
}

func (p *Platform) Address() thor.Address {
	return p.addr
}

// Deploy binds the platform to its gauge controller. factory is the only
// address allowed to kill it.
func (p *Platform) Deploy(gaugeController, factory thor.Address) error {
	m, err := p.meta.Get()
	if err != nil {
		return err
	}
	if m != nil && !m.GaugeController.IsZero() {
		return errAlreadyDeployed
	}
	if gaugeController.IsZero() || factory.IsZero() {
		return errZeroAddress
	}
	return p.meta.Set(&meta{GaugeController: gaugeController, Factory: factory})
}

func (p *Platform) getMeta() (*meta, error) {
	m, err := p.meta.Get()
	if err != nil {
		return nil, err
	}
	if m == nil || m.GaugeController.IsZero() {
		return nil, errNotDeployed
	}
	return m, nil
}

// GaugeController returns the controller the platform reads votes from.
func (p *Platform) GaugeController() (thor.Address, error) {
	m, err := p.getMeta()
	if err != nil {
		return thor.Address{}, err
	}
	return m.GaugeController, nil
}

// Factory returns the deployer of the platform.
func (p *Platform) Factory() (thor.Address, error) {
	m, err := p.getMeta()
	if err != nil {
		return thor.Address{}, err
	}
	return m.Factory, nil
}

func (p *Platform) IsKilled() (bool, error) {
	m, err := p.getMeta()
	if err != nil {
		return false, err
	}
	return m.Killed, nil
}

// Kill stops bribe creation and extension, and lets managers close their bribes early.
func (p *Platform) Kill(caller thor.Address) error {
	m, err := p.getMeta()
	if err != nil {
		return err
	}
	if caller != m.Factory {
		return errNotFactory
	}
	if m.Killed {
		return nil
	}
	m.Killed = true
	if err := p.meta.Set(m); err != nil {
		return err
	}
	logger.Info("platform killed", "platform", p.addr)
	return p.env.Log(p.addr, "Killed", nil, &KilledEvent{Time: p.env.Now()})
}

func (p *Platform) notKilled() error {
	killed, err := p.IsKilled()
	if err != nil {
		return err
	}
	if killed {
		return errKilled
	}
	return nil
}

func (p *Platform) marketID() (thor.Bytes32, error) {
	ctl, err := p.GaugeController()
	if err != nil {
		return thor.Bytes32{}, err
	}
	return thor.BytesToBytes32(ctl.Bytes()), nil
}

// CurrentPeriod returns the start of the current week.
func (p *Platform) CurrentPeriod() uint64 {
	return thor.PeriodOf(p.env.Now())
}

// NextID returns the id the next bribe will get.
func (p *Platform) NextID() (uint64, error) {
	return p.nextID.Get()
}

// GetBribe returns a bribe, or a revert when id was never assigned.
func (p *Platform) GetBribe(id uint64) (*Bribe, error) {
	b, err := p.bribes.Get(solidity.Uint64Key(id))
	if err != nil {
		return nil, err
	}
	if !b.Exists() {
		return nil, errUnknownBribe
	}
	return b, nil
}

// GetUpgradedBribeQueued returns the queued upgrade. Check Pending on the result.
func (p *Platform) GetUpgradedBribeQueued(id uint64) (*Upgrade, error) {
	return p.upgrades.Get(solidity.Uint64Key(id))
}

// GetActivePeriod returns the stored active period.
func (p *Platform) GetActivePeriod(id uint64) (*Period, error) {
	period, err := p.periods.Get(solidity.Uint64Key(id))
	if err != nil {
		return nil, err
	}
	if period.RewardPerPeriod == nil {
		period.RewardPerPeriod = new(big.Int)
	}
	return period, nil
}

// GetPeriodsLeft returns the number of whole periods until the bribe ends.
func (p *Platform) GetPeriodsLeft(id uint64) (uint64, error) {
	b, err := p.GetBribe(id)
	if err != nil {
		return 0, err
	}
	return periodsLeft(b.EndTimestamp, p.CurrentPeriod()), nil
}

// GetActivePeriodPerBribe returns the index of the current period in the bribe.
func (p *Platform) GetActivePeriodPerBribe(id uint64) (uint8, error) {
	b, err := p.GetBribe(id)
	if err != nil {
		return 0, err
	}
	return periodIndex(b, p.CurrentPeriod()), nil
}

func (p *Platform) RewardPerVote(id uint64) (*big.Int, error) {
	return p.rewardPerVote.Get(solidity.Uint64Key(id))
}

func (p *Platform) AmountClaimed(id uint64) (*big.Int, error) {
	return p.amountClaimed.Get(solidity.Uint64Key(id))
}

func claimKey(user thor.Address, id uint64) thor.Bytes32 {
	return solidity.PairKey(user, solidity.Uint64Key(id))
}

// LastUserClaim returns the period user last claimed for.
func (p *Platform) LastUserClaim(user thor.Address, id uint64) (uint64, error) {
	return p.lastUserClaim.Get(claimKey(user, id))
}

func (p *Platform) IsBlacklisted(user thor.Address, id uint64) (bool, error) {
	b, err := p.GetBribe(id)
	if err != nil {
		return false, err
	}
	return b.IsBlacklisted(user), nil
}

func (p *Platform) IsUpgradeable(id uint64) (bool, error) {
	return p.upgradeable.Get(solidity.Uint64Key(id))
}

func periodsLeft(end, current uint64) uint64 {
	if end <= current {
		return 0
	}
	return (end - current) / thor.Week
}

// periodIndex is 0 until the bribe started.
func periodIndex(b *Bribe, current uint64) uint8 {
	left := periodsLeft(b.EndTimestamp, current)
	if left > uint64(b.NumberOfPeriods) {
		return 0
	}
	return b.NumberOfPeriods - uint8(left)
}

func (p *Platform) token(addr thor.Address) (Token, error) {
	return p.deps.Tokens(addr)
}

func idTopic(id uint64) thor.Bytes32 {
	return thor.Uint64ToBytes32(id)
}
