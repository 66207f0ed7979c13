// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package feeregistry keeps the fee schedule of every market and splits
// collected fees among weighted recipients.
package feeregistry

import (
	"math/big"

	"github.com/vechain/votemarket/builtin/fixedpoint"
	"github.com/vechain/votemarket/builtin/reverts"
	"github.com/vechain/votemarket/builtin/solidity"
	"github.com/vechain/votemarket/log"
	"github.com/vechain/votemarket/thor"
	"github.com/vechain/votemarket/xenv"
)

var logger = log.WithContext("pkg", "feeregistry")

var (
	slotMeta       = thor.BytesToBytes32([]byte(("fee-meta")))
	slotRecipients = thor.BytesToBytes32([]byte(("fee-recipients")))
	slotAccrued    = thor.BytesToBytes32([]byte(("fee-accrued")))
)

var (
	errNotDeployed     = reverts.New("feeregistry: not deployed")
	errAlreadyDeployed = reverts.New("feeregistry: already deployed")
	errUnauthorized    = reverts.New("feeregistry: caller is not the owner")
	errFeeTooHigh      = reverts.New("feeregistry: total fee exceeds 100%")
	errZeroRecipient   = reverts.New("feeregistry: zero recipient")
	errNoRecipients    = reverts.New("feeregistry: no recipients")
)

// Recipient is paid a share of the fees of a market. Percent is the WAD
// fraction of every claim taken as fee on its behalf, and disbursed fees are
// split in proportion to it.
type Recipient struct {
	Address thor.Address `json:"address"`
	Percent *big.Int     `json:"percent"`
}

type meta struct {
	Owner thor.Address
}

// Token moves collected fees out of the registry.
type Token interface {
	Address() thor.Address
	Transfer(from, to thor.Address, amount *big.Int) error
}

type (
	FeeSetEvent struct {
		MarketID   thor.Bytes32 `json:"marketID"`
		Recipients []*Recipient `json:"recipients"`
		Total      *big.Int     `json:"total"`
	}
	FeeAccruedEvent struct {
		MarketID thor.Bytes32 `json:"marketID"`
		Token    thor.Address `json:"token"`
		Amount   *big.Int     `json:"amount"`
	}
	FeeDisbursedEvent struct {
		MarketID  thor.Bytes32 `json:"marketID"`
		Token     thor.Address `json:"token"`
		Recipient thor.Address `json:"recipient"`
		Amount    *big.Int     `json:"amount"`
	}
)

// MarketID derives the fee schedule key of a market, such as a gauge controller.
func MarketID(market thor.Address) thor.Bytes32 {
	return thor.BytesToBytes32(market.Bytes())
}

// FeeRegistry is deployed once. It is also the fee collector: fees are
// transferred to its address and accounted per market and token.
type FeeRegistry struct {
	addr       thor.Address
	env        *xenv.Environment
	meta       *solidity.Raw[*meta]
	recipients *solidity.Mapping[thor.Bytes32, []*Recipient]
	accrued    *solidity.Mapping[thor.Bytes32, *big.Int]
}

func New(addr thor.Address, env *xenv.Environment) *FeeRegistry {
	sctx := solidity.NewContext(addr, env.State())
	return &FeeRegistry{
		addr:       addr,
		env:        env,
		meta:       solidity.NewRaw[*meta](sctx, slotMeta),
		recipients: solidity.NewMapping[thor.Bytes32, []*Recipient](sctx, slotRecipients),
		accrued:    solidity.NewMapping[thor.Bytes32, *big.Int](sctx, slotAccrued),
	}
}

func (f *FeeRegistry) Address() thor.Address {
	return f.addr
}

// FeeCollector returns the address fees must be sent to.
func (f *FeeRegistry) FeeCollector() thor.Address {
	return f.addr
}

func (f *FeeRegistry) Deploy(owner thor.Address) error {
	m, err := f.meta.Get()
	if err != nil {
		return err
	}
	if m != nil && !m.Owner.IsZero() {
		return errAlreadyDeployed
	}
	return f.meta.Set(&meta{Owner: owner})
}

func (f *FeeRegistry) Owner() (thor.Address, error) {
	m, err := f.meta.Get()
	if err != nil {
		return thor.Address{}, err
	}
	if m == nil || m.Owner.IsZero() {
		return thor.Address{}, errNotDeployed
	}
	return m.Owner, nil
}

// SetFee replaces the recipients of a market. An empty list removes the fee.
func (f *FeeRegistry) SetFee(caller thor.Address, marketID thor.Bytes32, recipients []*Recipient) error {
	owner, err := f.Owner()
	if err != nil {
		return err
	}
	if caller != owner {
		return errUnauthorized
	}
	total := new(big.Int)
	for _, r := range recipients {
		if r.Address.IsZero() {
			return errZeroRecipient
		}
		if r.Percent == nil {
			r.Percent = new(big.Int)
		}
		total.Add(total, r.Percent)
	}
	if total.Cmp(thor.BaseUnit) > 0 {
		return errFeeTooHigh
	}
	if len(recipients) == 0 {
		f.recipients.Delete(marketID)
	} else if err := f.recipients.Set(marketID, recipients); err != nil {
		return err
	}
	return f.env.Log(f.addr, "FeeSet", []thor.Bytes32{marketID},
		&FeeSetEvent{MarketID: marketID, Recipients: recipients, Total: total})
}

// Recipients returns the recipients of a market.
func (f *FeeRegistry) Recipients(marketID thor.Bytes32) ([]*Recipient, error) {
	return f.recipients.Get(marketID)
}

// TotalFeePercent returns the WAD fraction taken as fee on the market.
func (f *FeeRegistry) TotalFeePercent(marketID thor.Bytes32) (*big.Int, error) {
	recipients, err := f.recipients.Get(marketID)
	if err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, r := range recipients {
		total.Add(total, r.Percent)
	}
	return total, nil
}

func accruedKey(marketID thor.Bytes32, token thor.Address) thor.Bytes32 {
	return solidity.PairKey(marketID, token)
}

// Accrue books fees already transferred to the collector.
func (f *FeeRegistry) Accrue(marketID thor.Bytes32, token thor.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	key := accruedKey(marketID, token)
	cur, err := f.accrued.Get(key)
	if err != nil {
		return err
	}
	if cur, err = fixedpoint.Add(cur, amount); err != nil {
		return err
	}
	if err := f.accrued.Set(key, cur); err != nil {
		return err
	}
	return f.env.Log(f.addr, "FeeAccrued", []thor.Bytes32{marketID, thor.BytesToBytes32(token.Bytes())},
		&FeeAccruedEvent{MarketID: marketID, Token: token, Amount: amount})
}

// Accrued returns fees of token waiting to be disbursed for the market.
func (f *FeeRegistry) Accrued(marketID thor.Bytes32, token thor.Address) (*big.Int, error) {
	return f.accrued.Get(accruedKey(marketID, token))
}

// Disburse pays the accrued fees of token to the market recipients in
// proportion to their percent. The last recipient receives the rounding
// remainder. Anyone may trigger it.
func (f *FeeRegistry) Disburse(marketID thor.Bytes32, token Token) error {
	recipients, err := f.recipients.Get(marketID)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return errNoRecipients
	}
	key := accruedKey(marketID, token.Address())
	amount, err := f.accrued.Get(key)
	if err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return nil
	}
	total := new(big.Int)
	for _, r := range recipients {
		total.Add(total, r.Percent)
	}
	if total.Sign() == 0 {
		return errNoRecipients
	}

	// clear the books before paying out
	f.accrued.Delete(key)

	remaining := new(big.Int).Set(amount)
	for i, r := range recipients {
		share := remaining
		if i < len(recipients)-1 {
			if share, err = fixedpoint.MulDiv(amount, r.Percent, total); err != nil {
				return err
			}
		}
		remaining = new(big.Int).Sub(remaining, share)
		if share.Sign() == 0 {
			continue
		}
		if err := token.Transfer(f.addr, r.Address, share); err != nil {
			return err
		}
		if err := f.env.Log(f.addr, "FeeDisbursed", []thor.Bytes32{marketID, thor.BytesToBytes32(r.Address.Bytes())},
			&FeeDisbursedEvent{MarketID: marketID, Token: token.Address(), Recipient: r.Address, Amount: share}); err != nil {
			return err
		}
	}
	logger.Debug("fees disbursed", "market", marketID, "token", token.Address(), "amount", amount)
	return nil
}
