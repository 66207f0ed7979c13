// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token implements a fungible token ledger living at its own contract address.
package token

import (
	"math/big"

	"github.com/vechain/votemarket/builtin/fixedpoint"
	"github.com/vechain/votemarket/builtin/reverts"
	"github.com/vechain/votemarket/builtin/solidity"
	"github.com/vechain/votemarket/thor"
	"github.com/vechain/votemarket/xenv"
)

var (
	slotMeta       = thor.BytesToBytes32([]byte(("token-meta")))
	slotSupply     = thor.BytesToBytes32([]byte(("token-supply")))
	slotBalances   = thor.BytesToBytes32([]byte(("token-balances")))
	slotAllowances = thor.BytesToBytes32([]byte(("token-allowances")))
)

var (
	errNotDeployed       = reverts.New("token: not deployed")
	errAlreadyDeployed   = reverts.New("token: already deployed")
	errUnauthorized      = reverts.New("token: caller is not the owner")
	errZeroAddress       = reverts.New("token: zero address")
	errInsufficient      = reverts.New("token: transfer amount exceeds balance")
	errAllowanceExceeded = reverts.New("token: insufficient allowance")
)

// Meta describes a deployed token.
type Meta struct {
	Owner    thor.Address
	Name     string
	Symbol   string
	Decimals uint8
}

type (
	TransferEvent struct {
		From   thor.Address `json:"from"`
		To     thor.Address `json:"to"`
		Amount *big.Int     `json:"amount"`
	}
	ApprovalEvent struct {
		Owner   thor.Address `json:"owner"`
		Spender thor.Address `json:"spender"`
		Amount  *big.Int     `json:"amount"`
	}
)

// Token is the ledger of one token.
type Token struct {
	addr       thor.Address
	env        *xenv.Environment
	meta       *solidity.Raw[*Meta]
	supply     *solidity.Uint256
	balances   *solidity.Mapping[thor.Address, *big.Int]
	allowances *solidity.Mapping[thor.Bytes32, *big.Int]
}

func New(addr thor.Address, env *xenv.Environment) *Token {
	sctx := solidity.NewContext(addr, env.State())
	return &Token{
		addr:       addr,
		env:        env,
		meta:       solidity.NewRaw[*Meta](sctx, slotMeta),
		supply:     solidity.NewUint256(sctx, slotSupply),
		balances:   solidity.NewMapping[thor.Address, *big.Int](sctx, slotBalances),
		allowances: solidity.NewMapping[thor.Bytes32, *big.Int](sctx, slotAllowances),
	}
}

func (t *Token) Address() thor.Address {
	return t.addr
}

// Deploy initializes the token metadata. It can only happen once.
func (t *Token) Deploy(owner thor.Address, name, symbol string, decimals uint8) error {
	m, err := t.meta.Get()
	if err != nil {
		return err
	}
	if m != nil && !m.Owner.IsZero() {
		return errAlreadyDeployed
	}
	if owner.IsZero() {
		return errZeroAddress
	}
	return t.meta.Set(&Meta{Owner: owner, Name: name, Symbol: symbol, Decimals: decimals})
}

// Meta returns metadata, or a revert if the token was never deployed.
func (t *Token) Meta() (*Meta, error) {
	m, err := t.meta.Get()
	if err != nil {
		return nil, err
	}
	if m == nil || m.Owner.IsZero() {
		return nil, errNotDeployed
	}
	return m, nil
}

func (t *Token) TotalSupply() (*big.Int, error) {
	return t.supply.Get()
}

func (t *Token) BalanceOf(addr thor.Address) (*big.Int, error) {
	return t.balances.Get(addr)
}

func (t *Token) Allowance(owner, spender thor.Address) (*big.Int, error) {
	return t.allowances.Get(solidity.PairKey(owner, spender))
}

// Mint creates amount tokens for to. Only the owner can mint.
func (t *Token) Mint(caller, to thor.Address, amount *big.Int) error {
	m, err := t.Meta()
	if err != nil {
		return err
	}
	if caller != m.Owner {
		return errUnauthorized
	}
	if to.IsZero() {
		return errZeroAddress
	}
	supply, err := t.supply.Get()
	if err != nil {
		return err
	}
	if supply, err = fixedpoint.Add(supply, amount); err != nil {
		return err
	}
	t.supply.Set(supply)

	bal, err := t.balances.Get(to)
	if err != nil {
		return err
	}
	if bal, err = fixedpoint.Add(bal, amount); err != nil {
		return err
	}
	if err := t.balances.Set(to, bal); err != nil {
		return err
	}
	return t.env.Log(t.addr, "Transfer", []thor.Bytes32{{}, thor.BytesToBytes32(to.Bytes())},
		&TransferEvent{To: to, Amount: amount})
}

// Transfer moves amount from the sender's balance.
func (t *Token) Transfer(from, to thor.Address, amount *big.Int) error {
	if _, err := t.Meta(); err != nil {
		return err
	}
	if to.IsZero() {
		return errZeroAddress
	}
	fromBal, err := t.balances.Get(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return errInsufficient
	}
	if err := t.balances.Set(from, fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	toBal, err := t.balances.Get(to)
	if err != nil {
		return err
	}
	if toBal, err = fixedpoint.Add(toBal, amount); err != nil {
		return err
	}
	if err := t.balances.Set(to, toBal); err != nil {
		return err
	}
	return t.env.Log(t.addr, "Transfer",
		[]thor.Bytes32{thor.BytesToBytes32(from.Bytes()), thor.BytesToBytes32(to.Bytes())},
		&TransferEvent{From: from, To: to, Amount: amount})
}

// Approve sets the allowance of spender over owner's tokens.
func (t *Token) Approve(owner, spender thor.Address, amount *big.Int) error {
	if _, err := t.Meta(); err != nil {
		return err
	}
	if spender.IsZero() {
		return errZeroAddress
	}
	if err := t.allowances.Set(solidity.PairKey(owner, spender), amount); err != nil {
		return err
	}
	return t.env.Log(t.addr, "Approval",
		[]thor.Bytes32{thor.BytesToBytes32(owner.Bytes()), thor.BytesToBytes32(spender.Bytes())},
		&ApprovalEvent{Owner: owner, Spender: spender, Amount: amount})
}

// TransferFrom moves amount from from to to, spending the allowance granted to spender.
func (t *Token) TransferFrom(spender, from, to thor.Address, amount *big.Int) error {
	key := solidity.PairKey(from, spender)
	allowance, err := t.allowances.Get(key)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return errAllowanceExceeded
	}
	if err := t.allowances.Set(key, allowance.Sub(allowance, amount)); err != nil {
		return err
	}
	return t.Transfer(from, to, amount)
}
