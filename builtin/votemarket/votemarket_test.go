// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package votemarket

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/votemarket/builtin/feeregistry"
	"github.com/vechain/votemarket/builtin/platform"
	"github.com/vechain/votemarket/builtin/token"
	"github.com/vechain/votemarket/lvldb"
	"github.com/vechain/votemarket/merkle"
	"github.com/vechain/votemarket/state"
	"github.com/vechain/votemarket/thor"
	"github.com/vechain/votemarket/xenv"
)

var (
	marketAddr = thor.BytesToAddress([]byte("votemarket"))
	feesAddr   = thor.BytesToAddress([]byte("fees"))
	rewardAddr = thor.BytesToAddress([]byte("reward"))
	owner      = thor.BytesToAddress([]byte("owner"))
	manager    = thor.BytesToAddress([]byte("manager"))
	alice      = thor.BytesToAddress([]byte("alice"))
	bob        = thor.BytesToAddress([]byte("bob"))
	target     = thor.BytesToAddress([]byte("gauge"))

	start = thor.PeriodOf(1_700_000_000)
	epoch = start + thor.Week
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

type harness struct {
	t   *testing.T
	st  *state.State
	now uint64
}

func newHarness(t *testing.T) *harness {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	stater, err := state.NewStater(db, 1)
	require.NoError(t, err)
	h := &harness{t: t, st: stater.NewState(), now: start + 100}

	tok := h.token(manager)
	require.NoError(t, tok.Deploy(manager, "Reward", "RWD", 18))
	require.NoError(t, tok.Mint(manager, manager, e18(300)))
	require.NoError(t, tok.Approve(manager, marketAddr, e18(300)))
	require.NoError(t, h.market(owner).Deploy(owner, big.NewInt(1e17)))
	return h
}

func (h *harness) env(caller thor.Address) *xenv.Environment {
	return xenv.New(h.st, &xenv.BlockContext{Time: h.now}, &xenv.TransactionContext{Origin: caller})
}

func (h *harness) market(caller thor.Address) *VoteMarket {
	env := h.env(caller)
	return New(marketAddr, env, Deps{
		Tokens: func(addr thor.Address) (platform.Token, error) { return token.New(addr, env), nil },
		Fees:   feeregistry.New(feesAddr, env),
	})
}

func (h *harness) token(caller thor.Address) *token.Token {
	return token.New(rewardAddr, h.env(caller))
}

func (h *harness) balance(addr thor.Address) *big.Int {
	b, err := h.token(addr).BalanceOf(addr)
	require.NoError(h.t, err)
	return b
}

// publish builds the tree of the given votes for epoch and publishes it.
func (h *harness) publish(at uint64, votes map[thor.Address]int64) *merkle.Output {
	d := &merkle.Distribution{Epoch: at}
	for account, w := range votes {
		d.Votes = append(d.Votes, &merkle.Vote{Account: account, Target: target, Weight: (*math.HexOrDecimal256)(e18(w))})
	}
	out, err := merkle.Build(d, nil)
	require.NoError(h.t, err)
	vm := h.market(owner)
	require.NoError(h.t, vm.SetEpochRoot(owner, at, out.Root))
	require.NoError(h.t, vm.SetTotalVotes(owner, at, target, (*big.Int)(out.Totals[target])))
	return out
}

func claimOf(out *merkle.Output, account thor.Address) *merkle.Claim {
	for _, c := range out.Claims {
		if c.Account == account {
			return c
		}
	}
	return nil
}

func TestCreateBribe(t *testing.T) {
	h := newHarness(t)
	vm := h.market(manager)

	_, err := vm.CreateBribe(thor.Address{}, rewardAddr, 3, e18(2), e18(300))
	assert.ErrorIs(t, err, errZeroAddress)
	_, err = vm.CreateBribe(target, rewardAddr, 0, e18(2), e18(300))
	assert.ErrorIs(t, err, errZeroInput)

	id, err := vm.CreateBribe(target, rewardAddr, 3, e18(2), e18(300))
	require.NoError(t, err)
	bribe, err := vm.GetBribe(id)
	require.NoError(t, err)
	assert.Equal(t, manager, bribe.Manager)
	assert.Equal(t, epoch, bribe.StartEpoch)
	assert.Equal(t, start+4*thor.Week, bribe.EndEpoch())
	assert.Equal(t, e18(100), bribe.PeriodBudget())
	assert.Equal(t, e18(300), h.balance(marketAddr))
}

func TestClaim(t *testing.T) {
	h := newHarness(t)
	id, err := h.market(manager).CreateBribe(target, rewardAddr, 3, e18(2), e18(300))
	require.NoError(t, err)

	assert.ErrorIs(t, h.market(owner).SetEpochRoot(owner, epoch, thor.Keccak256([]byte("root"))), errEpochNotEnded)

	h.now = epoch + thor.Week + 10
	assert.ErrorIs(t, h.market(alice).SetEpochRoot(alice, epoch, thor.Keccak256([]byte("root"))), errNotOracle)
	out := h.publish(epoch, map[thor.Address]int64{alice: 30, bob: 70})
	assert.ErrorIs(t, h.market(owner).SetEpochRoot(owner, epoch, out.Root), errRootExists)

	rpv, err := h.market(alice).RewardPerVote(id, epoch)
	require.NoError(t, err)
	assert.Equal(t, e18(1), rpv)

	a := claimOf(out, alice)
	b := claimOf(out, bob)

	// wrong weight fails the proof
	_, err = h.market(alice).Claim(alice, id, epoch, e18(70), a.Proof)
	assert.ErrorIs(t, err, errInvalidProof)

	// anyone can submit, alice gets paid
	amount, err := h.market(bob).Claim(alice, id, epoch, (*big.Int)(a.Weight), a.Proof)
	require.NoError(t, err)
	assert.Equal(t, e18(27), amount)
	assert.Equal(t, e18(27), h.balance(alice))
	assert.Equal(t, e18(3), h.balance(feesAddr))

	_, err = h.market(alice).Claim(alice, id, epoch, (*big.Int)(a.Weight), a.Proof)
	assert.ErrorIs(t, err, errAlreadyClaimed)

	// alice's claim does not block bob
	amount, err = h.market(bob).Claim(bob, id, epoch, (*big.Int)(b.Weight), b.Proof)
	require.NoError(t, err)
	assert.Equal(t, e18(63), amount)

	claimed, err := h.market(bob).IsClaimed(id, epoch, bob)
	require.NoError(t, err)
	assert.True(t, claimed)
	bribe, err := h.market(bob).GetBribe(id)
	require.NoError(t, err)
	assert.Equal(t, e18(100), bribe.AmountClaimed)

	_, err = h.market(bob).Claim(bob, id, epoch+thor.Week, (*big.Int)(b.Weight), b.Proof)
	assert.ErrorIs(t, err, errWindowNotOpen)
	_, err = h.market(bob).Claim(bob, id, start, (*big.Int)(b.Weight), b.Proof)
	assert.ErrorIs(t, err, errEpoch)
}

func TestClaimWindowAndPriceCap(t *testing.T) {
	h := newHarness(t)
	id, err := h.market(manager).CreateBribe(target, rewardAddr, 3, e18(2), e18(300))
	require.NoError(t, err)

	second := epoch + thor.Week
	h.now = second + thor.Week
	first := h.publish(epoch, map[thor.Address]int64{alice: 30, bob: 70})
	out := h.publish(second, map[thor.Address]int64{alice: 10})

	// few votes: the max price binds
	rpv, err := h.market(alice).RewardPerVote(id, second)
	require.NoError(t, err)
	assert.Equal(t, e18(2), rpv)
	c := claimOf(out, alice)
	amount, err := h.market(alice).Claim(alice, id, second, (*big.Int)(c.Weight), c.Proof)
	require.NoError(t, err)
	assert.Equal(t, e18(18), amount)

	// the first epoch's window closes four epochs after it opened
	h.now = epoch + 5*thor.Week
	c = claimOf(first, bob)
	_, err = h.market(bob).Claim(bob, id, epoch, (*big.Int)(c.Weight), c.Proof)
	assert.ErrorIs(t, err, errWindowClosed)
}

func TestWithdrawLeftover(t *testing.T) {
	h := newHarness(t)
	id, err := h.market(manager).CreateBribe(target, rewardAddr, 3, e18(2), e18(300))
	require.NoError(t, err)

	h.now = epoch + thor.Week
	out := h.publish(epoch, map[thor.Address]int64{alice: 30, bob: 70})
	c := claimOf(out, bob)
	_, err = h.market(bob).Claim(bob, id, epoch, (*big.Int)(c.Weight), c.Proof)
	require.NoError(t, err)

	_, err = h.market(manager).WithdrawLeftover(id)
	assert.ErrorIs(t, err, errWindowNotOpen)

	lastEpoch := start + 3*thor.Week
	h.now = lastEpoch + 5*thor.Week
	_, err = h.market(bob).WithdrawLeftover(id)
	assert.ErrorIs(t, err, errManagerOnly)

	leftover, err := h.market(manager).WithdrawLeftover(id)
	require.NoError(t, err)
	assert.Equal(t, e18(230), leftover)
	assert.Equal(t, e18(230), h.balance(manager))
	assert.Zero(t, h.balance(marketAddr).Sign())

	_, err = h.market(manager).WithdrawLeftover(id)
	assert.ErrorIs(t, err, errWithdrawn)
}

func TestAdmin(t *testing.T) {
	h := newHarness(t)
	vm := h.market(owner)

	assert.ErrorIs(t, vm.SetDaoFee(alice, big.NewInt(1)), errUnauthorized)
	assert.ErrorIs(t, vm.SetDaoFee(owner, e18(2)), errFeeTooHigh)
	require.NoError(t, vm.SetDaoFee(owner, big.NewInt(5e16)))
	fee, err := vm.DaoFee()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5e16), fee)

	require.NoError(t, vm.SetOracle(owner, alice))
	oracle, err := vm.Oracle()
	require.NoError(t, err)
	assert.Equal(t, alice, oracle)

	h.now = epoch + thor.Week
	assert.ErrorIs(t, h.market(owner).SetTotalVotes(owner, epoch, target, e18(1)), errNotOracle)
	require.NoError(t, h.market(alice).SetTotalVotes(alice, epoch, target, e18(1)))

	assert.ErrorIs(t, vm.Deploy(owner, nil), errAlreadyDeployed)
}
