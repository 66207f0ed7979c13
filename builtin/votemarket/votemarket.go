// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package votemarket is the bribe market settled from vote trees an oracle
// publishes after each epoch.
package votemarket

import (
	"math/big"

	"github.com/vechain/votemarket/builtin/fixedpoint"
	"github.com/vechain/votemarket/builtin/platform"
	"github.com/vechain/votemarket/builtin/reverts"
	"github.com/vechain/votemarket/builtin/solidity"
	"github.com/vechain/votemarket/log"
	"github.com/vechain/votemarket/merkle"
	"github.com/vechain/votemarket/thor"
	"github.com/vechain/votemarket/xenv"
)

var logger = log.WithContext("pkg", "votemarket")

var (
	slotMeta       = thor.BytesToBytes32([]byte(("votemarket-meta")))
	slotNextID     = thor.BytesToBytes32([]byte(("votemarket-next-id")))
	slotBribes     = thor.BytesToBytes32([]byte(("votemarket-bribes")))
	slotRoots      = thor.BytesToBytes32([]byte(("epoch-roots")))
	slotTotalVotes = thor.BytesToBytes32([]byte(("total-votes")))
	slotClaimed    = thor.BytesToBytes32([]byte(("claimed")))
)

var (
	errNotDeployed     = reverts.New("votemarket: not deployed")
	errAlreadyDeployed = reverts.New("votemarket: already deployed")
	errUnauthorized    = reverts.New("votemarket: unauthorized")
	errNotOracle       = reverts.New("votemarket: caller is not the oracle")
	errZeroAddress     = reverts.New("votemarket: zero address")
	errZeroInput       = reverts.New("votemarket: zero input")
	errFeeTooHigh      = reverts.New("votemarket: fee too high")
	errUnknownBribe    = reverts.New("votemarket: unknown bribe")
	errEpoch           = reverts.New("votemarket: epoch not in bribe")
	errEpochNotEnded   = reverts.New("votemarket: epoch not ended")
	errRootExists      = reverts.New("votemarket: root already set")
	errNoRoot          = reverts.New("votemarket: no root for epoch")
	errWindowClosed    = reverts.New("votemarket: claim window closed")
	errWindowNotOpen   = reverts.New("votemarket: claim window not open")
	errAlreadyClaimed  = reverts.New("votemarket: already claimed")
	errInvalidProof    = reverts.New("votemarket: invalid proof")
	errNoVotes         = reverts.New("votemarket: no votes for target")
	errManagerOnly     = reverts.New("votemarket: caller is not the manager")
	errWithdrawn       = reverts.New("votemarket: leftover withdrawn")
	errNothingReceived = reverts.New("votemarket: no reward received")
)

// FeeSink receives the DAO fee.
type FeeSink interface {
	FeeCollector() thor.Address
	Accrue(marketID thor.Bytes32, token thor.Address, amount *big.Int) error
}

type Deps struct {
	Tokens platform.TokenProvider
	Fees   FeeSink
}

type meta struct {
	Owner  thor.Address
	Oracle thor.Address
	DaoFee *big.Int
}

// Bribe funds a target for NumberOfPeriods epochs starting at StartEpoch.
type Bribe struct {
	Target            thor.Address `json:"target"`
	Manager           thor.Address `json:"manager"`
	RewardToken       thor.Address `json:"rewardToken"`
	NumberOfPeriods   uint8        `json:"numberOfPeriods"`
	StartEpoch        uint64       `json:"startEpoch"`
	MaxRewardPerVote  *big.Int     `json:"maxRewardPerVote"`
	TotalRewardAmount *big.Int     `json:"totalRewardAmount"`
	AmountClaimed     *big.Int     `json:"amountClaimed"`
	Withdrawn         bool         `json:"withdrawn"`
}

func (b *Bribe) Exists() bool {
	return !b.RewardToken.IsZero()
}

// EndEpoch is the first epoch past the bribe.
func (b *Bribe) EndEpoch() uint64 {
	return b.StartEpoch + uint64(b.NumberOfPeriods)*thor.Week
}

// PeriodBudget is the reward spread over one epoch.
func (b *Bribe) PeriodBudget() *big.Int {
	return new(big.Int).Div(b.TotalRewardAmount, new(big.Int).SetUint64(uint64(b.NumberOfPeriods)))
}

type (
	BribeCreatedEvent struct {
		ID                uint64       `json:"id"`
		Target            thor.Address `json:"target"`
		Manager           thor.Address `json:"manager"`
		RewardToken       thor.Address `json:"rewardToken"`
		NumberOfPeriods   uint8        `json:"numberOfPeriods"`
		StartEpoch        uint64       `json:"startEpoch"`
		MaxRewardPerVote  *big.Int     `json:"maxRewardPerVote"`
		TotalRewardAmount *big.Int     `json:"totalRewardAmount"`
	}
	EpochRootSetEvent struct {
		Epoch uint64       `json:"epoch"`
		Root  thor.Bytes32 `json:"root"`
	}
	TotalVotesSetEvent struct {
		Epoch  uint64       `json:"epoch"`
		Target thor.Address `json:"target"`
		Total  *big.Int     `json:"total"`
	}
	ClaimedEvent struct {
		Account thor.Address `json:"account"`
		ID      uint64       `json:"id"`
		Epoch   uint64       `json:"epoch"`
		Amount  *big.Int     `json:"amount"`
		Fee     *big.Int     `json:"fee"`
	}
	LeftoverWithdrawnEvent struct {
		ID     uint64   `json:"id"`
		Amount *big.Int `json:"amount"`
	}
)

// VoteMarket settles bribes against oracle published vote trees.
type VoteMarket struct {
	addr thor.Address
	env  *xenv.Environment
	deps Deps

	meta       *solidity.Raw[*meta]
	nextID     *solidity.Uint64
	bribes     *solidity.Mapping[solidity.Uint64Key, *Bribe]
	roots      *solidity.Mapping[solidity.Uint64Key, thor.Bytes32]
	totalVotes *solidity.Mapping[thor.Bytes32, *big.Int]
	claimed    *solidity.Mapping[thor.Bytes32, bool]
}

func New(addr thor.Address, env *xenv.Environment, deps Deps) *VoteMarket {
	sctx := solidity.NewContext(addr, env.State())
	return &VoteMarket{
		addr:       addr,
		env:        env,
		deps:       deps,
		meta:       solidity.NewRaw[*meta](sctx, slotMeta),
		nextID:     solidity.NewUint64(sctx, slotNextID),
		bribes:     solidity.NewMapping[solidity.Uint64Key, *Bribe](sctx, slotBribes),
		roots:      solidity.NewMapping[solidity.Uint64Key, thor.Bytes32](sctx, slotRoots),
		totalVotes: solidity.NewMapping[thor.Bytes32, *big.Int](sctx, slotTotalVotes),
		claimed:    solidity.NewMapping[thor.Bytes32, bool](sctx, slotClaimed),
	}
}

func (vm *VoteMarket) Address() thor.Address {
	return vm.addr
}

// MarketID keys the fees this market accrues.
func (vm *VoteMarket) MarketID() thor.Bytes32 {
	return thor.BytesToBytes32(vm.addr.Bytes())
}

// Deploy sets the owner, who also acts as oracle until SetOracle is called.
func (vm *VoteMarket) Deploy(owner thor.Address, daoFee *big.Int) error {
	m, err := vm.meta.Get()
	if err != nil {
		return err
	}
	if m != nil && !m.Owner.IsZero() {
		return errAlreadyDeployed
	}
	if owner.IsZero() {
		return errZeroAddress
	}
	if daoFee == nil {
		daoFee = new(big.Int)
	}
	if daoFee.Cmp(thor.BaseUnit) > 0 {
		return errFeeTooHigh
	}
	return vm.meta.Set(&meta{Owner: owner, Oracle: owner, DaoFee: daoFee})
}

func (vm *VoteMarket) getMeta() (*meta, error) {
	m, err := vm.meta.Get()
	if err != nil {
		return nil, err
	}
	if m == nil || m.Owner.IsZero() {
		return nil, errNotDeployed
	}
	if m.DaoFee == nil {
		m.DaoFee = new(big.Int)
	}
	return m, nil
}

func (vm *VoteMarket) Owner() (thor.Address, error) {
	m, err := vm.getMeta()
	if err != nil {
		return thor.Address{}, err
	}
	return m.Owner, nil
}

func (vm *VoteMarket) Oracle() (thor.Address, error) {
	m, err := vm.getMeta()
	if err != nil {
		return thor.Address{}, err
	}
	return m.Oracle, nil
}

// DaoFee returns the WAD fraction of each claim kept as fee.
func (vm *VoteMarket) DaoFee() (*big.Int, error) {
	m, err := vm.getMeta()
	if err != nil {
		return nil, err
	}
	return m.DaoFee, nil
}

func (vm *VoteMarket) SetOracle(caller, oracle thor.Address) error {
	m, err := vm.getMeta()
	if err != nil {
		return err
	}
	if caller != m.Owner {
		return errUnauthorized
	}
	if oracle.IsZero() {
		return errZeroAddress
	}
	m.Oracle = oracle
	return vm.meta.Set(m)
}

func (vm *VoteMarket) SetDaoFee(caller thor.Address, fee *big.Int) error {
	m, err := vm.getMeta()
	if err != nil {
		return err
	}
	if caller != m.Owner {
		return errUnauthorized
	}
	if fee == nil || fee.Cmp(thor.BaseUnit) > 0 {
		return errFeeTooHigh
	}
	m.DaoFee = new(big.Int).Set(fee)
	return vm.meta.Set(m)
}

func (vm *VoteMarket) NextID() (uint64, error) {
	return vm.nextID.Get()
}

func (vm *VoteMarket) GetBribe(id uint64) (*Bribe, error) {
	b, err := vm.bribes.Get(solidity.Uint64Key(id))
	if err != nil {
		return nil, err
	}
	if !b.Exists() {
		return nil, errUnknownBribe
	}
	if b.AmountClaimed == nil {
		b.AmountClaimed = new(big.Int)
	}
	return b, nil
}

// CreateBribe funds a bribe from the caller, who becomes its manager.
// Epochs start at the next week boundary.
func (vm *VoteMarket) CreateBribe(
	target, rewardToken thor.Address,
	numberOfPeriods uint8,
	maxRewardPerVote, totalRewardAmount *big.Int,
) (uint64, error) {
	leave, err := vm.env.Enter(vm.addr)
	if err != nil {
		return 0, err
	}
	defer leave()

	if _, err := vm.getMeta(); err != nil {
		return 0, err
	}
	if target.IsZero() || rewardToken.IsZero() {
		return 0, errZeroAddress
	}
	if numberOfPeriods == 0 || fixedpoint.IsZero(maxRewardPerVote) || fixedpoint.IsZero(totalRewardAmount) {
		return 0, errZeroInput
	}

	tok, err := vm.deps.Tokens(rewardToken)
	if err != nil {
		return 0, err
	}
	caller := vm.env.Caller()
	before, err := tok.BalanceOf(vm.addr)
	if err != nil {
		return 0, err
	}
	if err := tok.TransferFrom(vm.addr, caller, vm.addr, totalRewardAmount); err != nil {
		return 0, err
	}
	after, err := tok.BalanceOf(vm.addr)
	if err != nil {
		return 0, err
	}
	received, err := fixedpoint.Sub(after, before)
	if err != nil {
		return 0, err
	}
	if received.Sign() == 0 {
		return 0, errNothingReceived
	}

	id, err := vm.nextID.Next()
	if err != nil {
		return 0, err
	}
	bribe := &Bribe{
		Target:            target,
		Manager:           caller,
		RewardToken:       rewardToken,
		NumberOfPeriods:   numberOfPeriods,
		StartEpoch:        thor.PeriodOf(vm.env.Now()) + thor.Week,
		MaxRewardPerVote:  new(big.Int).Set(maxRewardPerVote),
		TotalRewardAmount: received,
		AmountClaimed:     new(big.Int),
	}
	if err := vm.bribes.Set(solidity.Uint64Key(id), bribe); err != nil {
		return 0, err
	}
	logger.Debug("bribe created", "id", id, "target", target, "total", received)
	return id, vm.env.Log(vm.addr, "BribeCreated",
		[]thor.Bytes32{thor.Uint64ToBytes32(id), thor.BytesToBytes32(target.Bytes())},
		&BribeCreatedEvent{
			ID:                id,
			Target:            target,
			Manager:           caller,
			RewardToken:       rewardToken,
			NumberOfPeriods:   numberOfPeriods,
			StartEpoch:        bribe.StartEpoch,
			MaxRewardPerVote:  bribe.MaxRewardPerVote,
			TotalRewardAmount: received,
		})
}

func (vm *VoteMarket) onlyOracle(caller thor.Address) error {
	m, err := vm.getMeta()
	if err != nil {
		return err
	}
	if caller != m.Oracle {
		return errNotOracle
	}
	return nil
}

// SetEpochRoot publishes the vote tree of an ended epoch. Roots are final.
func (vm *VoteMarket) SetEpochRoot(caller thor.Address, epoch uint64, root thor.Bytes32) error {
	if err := vm.onlyOracle(caller); err != nil {
		return err
	}
	if epoch%thor.Week != 0 || root.IsZero() {
		return errZeroInput
	}
	if vm.env.Now() < epoch+thor.Week {
		return errEpochNotEnded
	}
	key := solidity.Uint64Key(epoch)
	existing, err := vm.roots.Get(key)
	if err != nil {
		return err
	}
	if !existing.IsZero() {
		return errRootExists
	}
	if err := vm.roots.Set(key, root); err != nil {
		return err
	}
	logger.Info("epoch root published", "epoch", epoch, "root", root)
	return vm.env.Log(vm.addr, "EpochRootSet", []thor.Bytes32{thor.Uint64ToBytes32(epoch)},
		&EpochRootSetEvent{Epoch: epoch, Root: root})
}

func (vm *VoteMarket) EpochRoot(epoch uint64) (thor.Bytes32, error) {
	return vm.roots.Get(solidity.Uint64Key(epoch))
}

func votesKey(epoch uint64, target thor.Address) thor.Bytes32 {
	return solidity.PairKey(solidity.Uint64Key(epoch), target)
}

// SetTotalVotes publishes the total weight target received during epoch.
func (vm *VoteMarket) SetTotalVotes(caller thor.Address, epoch uint64, target thor.Address, total *big.Int) error {
	if err := vm.onlyOracle(caller); err != nil {
		return err
	}
	if epoch%thor.Week != 0 || fixedpoint.IsZero(total) {
		return errZeroInput
	}
	if vm.env.Now() < epoch+thor.Week {
		return errEpochNotEnded
	}
	if err := vm.totalVotes.Set(votesKey(epoch, target), total); err != nil {
		return err
	}
	return vm.env.Log(vm.addr, "TotalVotesSet",
		[]thor.Bytes32{thor.Uint64ToBytes32(epoch), thor.BytesToBytes32(target.Bytes())},
		&TotalVotesSetEvent{Epoch: epoch, Target: target, Total: total})
}

func (vm *VoteMarket) TotalVotes(epoch uint64, target thor.Address) (*big.Int, error) {
	return vm.totalVotes.Get(votesKey(epoch, target))
}

// ClaimHash keys the claimed set. Each account has its own entry per bribe and epoch.
func ClaimHash(id, epoch uint64, account thor.Address) thor.Bytes32 {
	idWord, epochWord := thor.Uint64ToBytes32(id), thor.Uint64ToBytes32(epoch)
	return thor.Keccak256(idWord.Bytes(), epochWord.Bytes(), account.Bytes())
}

func (vm *VoteMarket) IsClaimed(id, epoch uint64, account thor.Address) (bool, error) {
	return vm.claimed.Get(ClaimHash(id, epoch, account))
}

// RewardPerVote returns min(maxRewardPerVote, budget/totalVotes) for the epoch.
func (vm *VoteMarket) RewardPerVote(id, epoch uint64) (*big.Int, error) {
	bribe, err := vm.GetBribe(id)
	if err != nil {
		return nil, err
	}
	total, err := vm.TotalVotes(epoch, bribe.Target)
	if err != nil {
		return nil, err
	}
	if total.Sign() == 0 {
		return nil, errNoVotes
	}
	rpv, err := fixedpoint.MulDiv(bribe.PeriodBudget(), thor.BaseUnit, total)
	if err != nil {
		return nil, err
	}
	return fixedpoint.Min(rpv, bribe.MaxRewardPerVote), nil
}

func claimWindow(epoch uint64) (opens, closes uint64) {
	opens = epoch + thor.Week
	return opens, opens + thor.VoteMarketClaimWindow*thor.Week
}

// Claim pays account for the weight proven in the tree of epoch. Anyone may
// submit it, the reward always goes to account.
func (vm *VoteMarket) Claim(account thor.Address, id, epoch uint64, weight *big.Int, proof []thor.Bytes32) (*big.Int, error) {
	leave, err := vm.env.Enter(vm.addr)
	if err != nil {
		return nil, err
	}
	defer leave()

	bribe, err := vm.GetBribe(id)
	if err != nil {
		return nil, err
	}
	if epoch%thor.Week != 0 || epoch < bribe.StartEpoch || epoch >= bribe.EndEpoch() {
		return nil, errEpoch
	}
	now := vm.env.Now()
	opens, closes := claimWindow(epoch)
	if now < opens {
		return nil, errWindowNotOpen
	}
	if now >= closes {
		return nil, errWindowClosed
	}
	if fixedpoint.IsZero(weight) {
		return nil, errZeroInput
	}
	root, err := vm.EpochRoot(epoch)
	if err != nil {
		return nil, err
	}
	if root.IsZero() {
		return nil, errNoRoot
	}
	key := ClaimHash(id, epoch, account)
	done, err := vm.claimed.Get(key)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, errAlreadyClaimed
	}
	if !merkle.Verify(proof, root, merkle.Leaf(account, epoch, bribe.Target, weight)) {
		return nil, errInvalidProof
	}

	rpv, err := vm.RewardPerVote(id, epoch)
	if err != nil {
		return nil, err
	}
	amount, err := fixedpoint.MulWad(weight, rpv)
	if err != nil {
		return nil, err
	}
	if remaining := new(big.Int).Sub(bribe.TotalRewardAmount, bribe.AmountClaimed); amount.Cmp(remaining) > 0 {
		amount = remaining
	}

	if err := vm.claimed.Set(key, true); err != nil {
		return nil, err
	}
	bribe.AmountClaimed.Add(bribe.AmountClaimed, amount)
	if err := vm.bribes.Set(solidity.Uint64Key(id), bribe); err != nil {
		return nil, err
	}

	daoFee, err := vm.DaoFee()
	if err != nil {
		return nil, err
	}
	fee, err := fixedpoint.MulWad(amount, daoFee)
	if err != nil {
		return nil, err
	}
	tok, err := vm.deps.Tokens(bribe.RewardToken)
	if err != nil {
		return nil, err
	}
	if fee.Sign() > 0 {
		if err := tok.Transfer(vm.addr, vm.deps.Fees.FeeCollector(), fee); err != nil {
			return nil, err
		}
		if err := vm.deps.Fees.Accrue(vm.MarketID(), bribe.RewardToken, fee); err != nil {
			return nil, err
		}
	}
	net := new(big.Int).Sub(amount, fee)
	if net.Sign() > 0 {
		if err := tok.Transfer(vm.addr, account, net); err != nil {
			return nil, err
		}
	}
	return net, vm.env.Log(vm.addr, "Claimed",
		[]thor.Bytes32{thor.Uint64ToBytes32(id), thor.BytesToBytes32(account.Bytes())},
		&ClaimedEvent{Account: account, ID: id, Epoch: epoch, Amount: net, Fee: fee})
}

// WithdrawLeftover returns what was not claimed to the manager once the
// window of the last epoch closed.
func (vm *VoteMarket) WithdrawLeftover(id uint64) (*big.Int, error) {
	leave, err := vm.env.Enter(vm.addr)
	if err != nil {
		return nil, err
	}
	defer leave()

	bribe, err := vm.GetBribe(id)
	if err != nil {
		return nil, err
	}
	if vm.env.Caller() != bribe.Manager {
		return nil, errManagerOnly
	}
	if bribe.Withdrawn {
		return nil, errWithdrawn
	}
	if _, closes := claimWindow(bribe.EndEpoch() - thor.Week); vm.env.Now() < closes {
		return nil, errWindowNotOpen
	}
	leftover, err := fixedpoint.Sub(bribe.TotalRewardAmount, bribe.AmountClaimed)
	if err != nil {
		return nil, err
	}
	bribe.Withdrawn = true
	if err := vm.bribes.Set(solidity.Uint64Key(id), bribe); err != nil {
		return nil, err
	}
	if leftover.Sign() > 0 {
		tok, err := vm.deps.Tokens(bribe.RewardToken)
		if err != nil {
			return nil, err
		}
		if err := tok.Transfer(vm.addr, bribe.Manager, leftover); err != nil {
			return nil, err
		}
	}
	return leftover, vm.env.Log(vm.addr, "LeftoverWithdrawn", []thor.Bytes32{thor.Uint64ToBytes32(id)},
		&LeftoverWithdrawnEvent{ID: id, Amount: leftover})
}
