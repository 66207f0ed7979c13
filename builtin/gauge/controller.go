// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package gauge implements a gauge controller with a built in voting escrow.
//
// Voters lock an amount until a week aligned end time, which gives them a
// linearly decaying bias. They split that bias among gauges in basis points.
// Each gauge keeps its aggregated bias and slope per week boundary, with the
// slope changes scheduled at the lock ends, so the weight at any past week
// can be read back once the gauge was checkpointed.
package gauge

import (
	"math/big"

	"github.com/vechain/votemarket/builtin/fixedpoint"
	"github.com/vechain/votemarket/builtin/reverts"
	"github.com/vechain/votemarket/builtin/solidity"
	"github.com/vechain/votemarket/log"
	"github.com/vechain/votemarket/thor"
	"github.com/vechain/votemarket/xenv"
)

var logger = log.WithContext("pkg", "gauge")

// bound on the weeks filled in by one checkpoint
const maxCheckpointWeeks = 500

var (
	slotMeta          = thor.BytesToBytes32([]byte(("gauge-meta")))
	slotGauges        = thor.BytesToBytes32([]byte(("gauge-list")))
	slotTimeWeight    = thor.BytesToBytes32([]byte(("gauge-time-weight")))
	slotPointsWeight  = thor.BytesToBytes32([]byte(("gauge-points-weight")))
	slotChangesWeight = thor.BytesToBytes32([]byte(("gauge-changes-weight")))
	slotLocks         = thor.BytesToBytes32([]byte(("escrow-locks")))
	slotVoteSlopes    = thor.BytesToBytes32([]byte(("vote-user-slopes")))
	slotVotePower     = thor.BytesToBytes32([]byte(("vote-user-power")))
	slotLastVote      = thor.BytesToBytes32([]byte(("last-user-vote")))
)

var (
	errNotDeployed     = reverts.New("gauge: controller not deployed")
	errAlreadyDeployed = reverts.New("gauge: controller already deployed")
	errUnauthorized    = reverts.New("gauge: caller is not the owner")
	errGaugeExists     = reverts.New("gauge: gauge already added")
	errGaugeNotAdded   = reverts.New("gauge: gauge not added")
	errLockExists      = reverts.New("gauge: withdraw old tokens first")
	errLockTime        = reverts.New("gauge: invalid unlock time")
	errZeroAmount      = reverts.New("gauge: zero amount")
	errLockExpires     = reverts.New("gauge: your token lock expires too soon")
	errWeight          = reverts.New("gauge: you used all your voting power")
	errVoteTooOften    = reverts.New("gauge: cannot vote so often")
	errTooMuchPower    = reverts.New("gauge: used too much power")
)

// Controller is a gauge controller deployed at one address.
type Controller struct {
	addr   thor.Address
	env    *xenv.Environment
	meta   *solidity.Raw[*meta]
	gauges *solidity.Raw[[]thor.Address]

	timeWeight    *solidity.Mapping[thor.Address, uint64]
	pointsWeight  *solidity.Mapping[thor.Bytes32, *Point]
	changesWeight *solidity.Mapping[thor.Bytes32, *big.Int]

	locks      *solidity.Mapping[thor.Address, *Lock]
	voteSlopes *solidity.Mapping[thor.Bytes32, *VotedSlope]
	votePower  *solidity.Mapping[thor.Address, uint64]
	lastVote   *solidity.Mapping[thor.Bytes32, uint64]
}

func New(addr thor.Address, env *xenv.Environment) *Controller {
	sctx := solidity.NewContext(addr, env.State())
	return &Controller{
		addr:          addr,
		env:           env,
		meta:          solidity.NewRaw[*meta](sctx, slotMeta),
		gauges:        solidity.NewRaw[[]thor.Address](sctx, slotGauges),
		timeWeight:    solidity.NewMapping[thor.Address, uint64](sctx, slotTimeWeight),
		pointsWeight:  solidity.NewMapping[thor.Bytes32, *Point](sctx, slotPointsWeight),
		changesWeight: solidity.NewMapping[thor.Bytes32, *big.Int](sctx, slotChangesWeight),
		locks:         solidity.NewMapping[thor.Address, *Lock](sctx, slotLocks),
		voteSlopes:    solidity.NewMapping[thor.Bytes32, *VotedSlope](sctx, slotVoteSlopes),
		votePower:     solidity.NewMapping[thor.Address, uint64](sctx, slotVotePower),
		lastVote:      solidity.NewMapping[thor.Bytes32, uint64](sctx, slotLastVote),
	}
}

func (c *Controller) Address() thor.Address {
	return c.addr
}

func weekKey(gauge thor.Address, t uint64) thor.Bytes32 {
	return solidity.PairKey(gauge, solidity.Uint64Key(t))
}

// Deploy sets the owner, who is the only one allowed to add gauges.
func (c *Controller) Deploy(owner thor.Address) error {
	m, err := c.meta.Get()
	if err != nil {
		return err
	}
	if m != nil && !m.Owner.IsZero() {
		return errAlreadyDeployed
	}
	return c.meta.Set(&meta{Owner: owner})
}

// Owner returns the owner, or a revert if the controller was never deployed.
func (c *Controller) Owner() (thor.Address, error) {
	m, err := c.meta.Get()
	if err != nil {
		return thor.Address{}, err
	}
	if m == nil || m.Owner.IsZero() {
		return thor.Address{}, errNotDeployed
	}
	return m.Owner, nil
}

// AddGauge registers a gauge. Its weight starts accruing from the next week.
func (c *Controller) AddGauge(caller, gauge thor.Address) error {
	owner, err := c.Owner()
	if err != nil {
		return err
	}
	if caller != owner {
		return errUnauthorized
	}
	ok, err := c.IsGauge(gauge)
	if err != nil {
		return err
	}
	if ok {
		return errGaugeExists
	}
	list, err := c.gauges.Get()
	if err != nil {
		return err
	}
	if err := c.gauges.Set(append(list, gauge)); err != nil {
		return err
	}
	if err := c.timeWeight.Set(gauge, thor.PeriodOf(c.env.Now()+thor.Week)); err != nil {
		return err
	}
	return c.env.Log(c.addr, "GaugeAdded", []thor.Bytes32{thor.BytesToBytes32(gauge.Bytes())}, &GaugeAddedEvent{gauge})
}

// Gauges lists registered gauges in insertion order.
func (c *Controller) Gauges() ([]thor.Address, error) {
	return c.gauges.Get()
}

func (c *Controller) IsGauge(gauge thor.Address) (bool, error) {
	t, err := c.timeWeight.Get(gauge)
	if err != nil {
		return false, err
	}
	return t != 0, nil
}

// Checkpoint fills in the gauge weight of every week boundary up to now.
func (c *Controller) Checkpoint(gauge thor.Address) error {
	_, err := c.weight(gauge)
	return err
}

func (c *Controller) weight(gauge thor.Address) (*big.Int, error) {
	t, err := c.timeWeight.Get(gauge)
	if err != nil {
		return nil, err
	}
	if t == 0 {
		return new(big.Int), nil
	}
	pt, err := c.pointsWeight.Get(weekKey(gauge, t))
	if err != nil {
		return nil, err
	}
	pt.normalize()

	now := c.env.Now()
	for range maxCheckpointWeeks {
		if t > now {
			break
		}
		t += thor.Week
		dBias := new(big.Int).Mul(pt.Slope, new(big.Int).SetUint64(thor.Week))
		if pt.Bias.Cmp(dBias) > 0 {
			pt.Bias.Sub(pt.Bias, dBias)
			dSlope, err := c.changesWeight.Get(weekKey(gauge, t))
			if err != nil {
				return nil, err
			}
			pt.Slope = fixedpoint.SaturatingSub(pt.Slope, dSlope)
		} else {
			pt.Bias.SetUint64(0)
			pt.Slope.SetUint64(0)
		}
		if err := c.pointsWeight.Set(weekKey(gauge, t), pt); err != nil {
			return nil, err
		}
		if t > now {
			if err := c.timeWeight.Set(gauge, t); err != nil {
				return nil, err
			}
		}
	}
	return new(big.Int).Set(pt.Bias), nil
}

// BiasOf returns the gauge weight recorded at the week boundary at.
func (c *Controller) BiasOf(gauge thor.Address, at uint64) (*big.Int, error) {
	pt, err := c.pointsWeight.Get(weekKey(gauge, at))
	if err != nil {
		return nil, err
	}
	return pt.normalize().Bias, nil
}

// PointOf returns the gauge point recorded at the week boundary at.
func (c *Controller) PointOf(gauge thor.Address, at uint64) (*Point, error) {
	pt, err := c.pointsWeight.Get(weekKey(gauge, at))
	if err != nil {
		return nil, err
	}
	return pt.normalize(), nil
}

// SlopeOf returns the slope voter directed to gauge.
func (c *Controller) SlopeOf(voter, gauge thor.Address) (*big.Int, error) {
	vs, err := c.voteSlopes.Get(solidity.PairKey(voter, gauge))
	if err != nil {
		return nil, err
	}
	if vs.Slope == nil {
		return new(big.Int), nil
	}
	return vs.Slope, nil
}

// LockEndOf returns the end of the lock backing voter's vote for gauge.
func (c *Controller) LockEndOf(voter, gauge thor.Address) (uint64, error) {
	vs, err := c.voteSlopes.Get(solidity.PairKey(voter, gauge))
	if err != nil {
		return 0, err
	}
	return vs.End, nil
}

// LastVoteOf returns when voter last voted for gauge.
func (c *Controller) LastVoteOf(voter, gauge thor.Address) (uint64, error) {
	return c.lastVote.Get(solidity.PairKey(voter, gauge))
}

// VotePowerUsed returns the basis points of voter's lock already allocated.
func (c *Controller) VotePowerUsed(voter thor.Address) (uint64, error) {
	return c.votePower.Get(voter)
}

// VoteForGaugeWeights directs weight basis points of the caller's lock to gauge.
func (c *Controller) VoteForGaugeWeights(voter, gauge thor.Address, weight uint64) error {
	now := c.env.Now()
	nextTime := thor.PeriodOf(now + thor.Week)

	lock, err := c.locks.Get(voter)
	if err != nil {
		return err
	}
	if lock.End <= nextTime {
		return errLockExpires
	}
	if weight > thor.GaugeVotePowerBase {
		return errWeight
	}
	key := solidity.PairKey(voter, gauge)
	last, err := c.lastVote.Get(key)
	if err != nil {
		return err
	}
	if last != 0 && now < last+thor.GaugeVoteDelay {
		return errVoteTooOften
	}
	ok, err := c.IsGauge(gauge)
	if err != nil {
		return err
	}
	if !ok {
		return errGaugeNotAdded
	}

	oldSlope, err := c.voteSlopes.Get(key)
	if err != nil {
		return err
	}
	if oldSlope.Slope == nil {
		oldSlope.Slope = new(big.Int)
	}
	oldBias := new(big.Int)
	if oldSlope.End > nextTime {
		oldBias.Mul(oldSlope.Slope, new(big.Int).SetUint64(oldSlope.End-nextTime))
	}

	slope, err := fixedpoint.MulDiv(lock.Slope, new(big.Int).SetUint64(weight), new(big.Int).SetUint64(thor.GaugeVotePowerBase))
	if err != nil {
		return err
	}
	newSlope := &VotedSlope{Slope: slope, Power: weight, End: lock.End}
	newBias, err := fixedpoint.Mul(slope, new(big.Int).SetUint64(lock.End-nextTime))
	if err != nil {
		return err
	}

	power, err := c.votePower.Get(voter)
	if err != nil {
		return err
	}
	powerUsed := power + newSlope.Power - oldSlope.Power
	if powerUsed > thor.GaugeVotePowerBase {
		return errTooMuchPower
	}
	if err := c.votePower.Set(voter, powerUsed); err != nil {
		return err
	}

	// bring the gauge up to date, then swap the old vote for the new one at nextTime
	if _, err := c.weight(gauge); err != nil {
		return err
	}
	pt, err := c.PointOf(gauge, nextTime)
	if err != nil {
		return err
	}
	pt.Bias = fixedpoint.SaturatingSub(new(big.Int).Add(pt.Bias, newBias), oldBias)
	if oldSlope.End > nextTime {
		pt.Slope = fixedpoint.SaturatingSub(new(big.Int).Add(pt.Slope, newSlope.Slope), oldSlope.Slope)
	} else {
		pt.Slope = new(big.Int).Add(pt.Slope, newSlope.Slope)
	}
	if err := c.pointsWeight.Set(weekKey(gauge, nextTime), pt); err != nil {
		return err
	}

	if oldSlope.End > now {
		change, err := c.changesWeight.Get(weekKey(gauge, oldSlope.End))
		if err != nil {
			return err
		}
		if err := c.changesWeight.Set(weekKey(gauge, oldSlope.End), fixedpoint.SaturatingSub(change, oldSlope.Slope)); err != nil {
			return err
		}
	}
	change, err := c.changesWeight.Get(weekKey(gauge, newSlope.End))
	if err != nil {
		return err
	}
	if err := c.changesWeight.Set(weekKey(gauge, newSlope.End), new(big.Int).Add(change, newSlope.Slope)); err != nil {
		return err
	}

	if err := c.voteSlopes.Set(key, newSlope); err != nil {
		return err
	}
	if err := c.lastVote.Set(key, now); err != nil {
		return err
	}
	logger.Debug("vote for gauge", "voter", voter, "gauge", gauge, "weight", weight, "slope", slope)
	return c.env.Log(c.addr, "VoteForGauge",
		[]thor.Bytes32{thor.BytesToBytes32(voter.Bytes()), thor.BytesToBytes32(gauge.Bytes())},
		&VoteForGaugeEvent{Voter: voter, Gauge: gauge, Weight: weight, Time: now})
}
