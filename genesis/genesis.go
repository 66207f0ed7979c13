// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis turns a declarative description of tokens, gauges, platforms
// and bribes into the calls that bring an empty state to it.
package genesis

import (
	"bytes"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/votemarket/builtin"
	"github.com/vechain/votemarket/builtin/factory"
	"github.com/vechain/votemarket/builtin/feeregistry"
	"github.com/vechain/votemarket/thor"
)

// Market names accepted in fee settings.
const (
	MarketPlatform   = "platform"
	MarketVoteMarket = "voteMarket"
)

type (
	// CustomGenesis describes the seeded state. All admin calls are made by Owner.
	CustomGenesis struct {
		Owner      thor.Address   `json:"owner" yaml:"owner"`
		Tokens     []Token        `json:"tokens" yaml:"tokens"`
		Gauges     []thor.Address `json:"gauges" yaml:"gauges"`
		Locks      []Lock         `json:"locks" yaml:"locks"`
		Platform   bool           `json:"platform" yaml:"platform"`
		VoteMarket *VoteMarket    `json:"voteMarket" yaml:"voteMarket"`
		Fees       []Fee          `json:"fees" yaml:"fees"`
		Bribes     []Bribe        `json:"bribes" yaml:"bribes"`
	}

	Token struct {
		Address  thor.Address `json:"address" yaml:"address"`
		Name     string       `json:"name" yaml:"name"`
		Symbol   string       `json:"symbol" yaml:"symbol"`
		Decimals uint8        `json:"decimals" yaml:"decimals"`
		Balances []Balance    `json:"balances" yaml:"balances"`
	}

	Balance struct {
		Address thor.Address          `json:"address" yaml:"address"`
		Amount  *math.HexOrDecimal256 `json:"amount" yaml:"amount"`
	}

	// Lock creates a voting-escrow lock and spreads it over gauges.
	Lock struct {
		Voter  thor.Address          `json:"voter" yaml:"voter"`
		Amount *math.HexOrDecimal256 `json:"amount" yaml:"amount"`
		Weeks  uint64                `json:"weeks" yaml:"weeks"`
		Votes  []Vote                `json:"votes" yaml:"votes"`
	}

	// Vote weight is in basis points of the lock.
	Vote struct {
		Gauge  thor.Address `json:"gauge" yaml:"gauge"`
		Weight uint64       `json:"weight" yaml:"weight"`
	}

	VoteMarket struct {
		DaoFee *math.HexOrDecimal256 `json:"daoFee" yaml:"daoFee"`
		Oracle *thor.Address         `json:"oracle" yaml:"oracle"`
	}

	Fee struct {
		Market     string      `json:"market" yaml:"market"`
		Recipients []Recipient `json:"recipients" yaml:"recipients"`
	}

	Recipient struct {
		Address thor.Address          `json:"address" yaml:"address"`
		Percent *math.HexOrDecimal256 `json:"percent" yaml:"percent"`
	}

	// Bribe is funded by its manager, who must hold the tokens.
	Bribe struct {
		Manager           thor.Address          `json:"manager" yaml:"manager"`
		Gauge             thor.Address          `json:"gauge" yaml:"gauge"`
		RewardToken       thor.Address          `json:"rewardToken" yaml:"rewardToken"`
		NumberOfPeriods   uint8                 `json:"numberOfPeriods" yaml:"numberOfPeriods"`
		MaxRewardPerVote  *math.HexOrDecimal256 `json:"maxRewardPerVote" yaml:"maxRewardPerVote"`
		TotalRewardAmount *math.HexOrDecimal256 `json:"totalRewardAmount" yaml:"totalRewardAmount"`
		Blacklist         []thor.Address        `json:"blacklist" yaml:"blacklist"`
		Upgradeable       bool                  `json:"upgradeable" yaml:"upgradeable"`
	}
)

// Load reads a YAML or JSON genesis file. JSON is a subset of YAML.
func Load(path string) (*CustomGenesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis")
	}
	var gen CustomGenesis
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&gen); err != nil {
		return nil, errors.Wrapf(err, "decode genesis %s", filepath.Base(path))
	}
	return &gen, nil
}

func amount(v *math.HexOrDecimal256) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return (*big.Int)(v)
}

func (g *CustomGenesis) validate() error {
	if g.Owner.IsZero() {
		return errors.New("owner must be set")
	}
	for _, t := range g.Tokens {
		if t.Address.IsZero() {
			return fmt.Errorf("token %q: address must be set", t.Symbol)
		}
		for _, b := range t.Balances {
			if amount(b.Amount).Sign() <= 0 {
				return fmt.Errorf("token %s: balance of %s must be positive", t.Address, b.Address)
			}
		}
	}
	for _, l := range g.Locks {
		if l.Weeks == 0 {
			return fmt.Errorf("lock of %s: weeks must be set", l.Voter)
		}
	}
	for _, f := range g.Fees {
		if f.Market != MarketPlatform && f.Market != MarketVoteMarket {
			return fmt.Errorf("fee market must be %q or %q, got %q", MarketPlatform, MarketVoteMarket, f.Market)
		}
	}
	if len(g.Bribes) > 0 && !g.Platform {
		return errors.New("bribes need the platform to be deployed")
	}
	return nil
}

// NewCustomNet validates gen and queues its calls. launchTime anchors lock ends.
func NewCustomNet(gen *CustomGenesis, launchTime uint64) (*Builder, error) {
	if err := gen.validate(); err != nil {
		return nil, err
	}
	owner := gen.Owner
	b := new(Builder)

	for _, t := range gen.Tokens {
		addr := t.Address
		b.Call(owner, builtin.KindToken, &addr, "deploy", map[string]any{
			"name": t.Name, "symbol": t.Symbol, "decimals": t.Decimals,
		})
		for _, bal := range t.Balances {
			b.Call(owner, builtin.KindToken, &addr, "mint", map[string]any{"to": bal.Address, "amount": bal.Amount})
		}
	}

	b.Call(owner, builtin.KindGauge, nil, "deploy", nil)
	for _, g := range gen.Gauges {
		b.Call(owner, builtin.KindGauge, nil, "addGauge", map[string]any{"gauge": g})
	}
	for _, l := range gen.Locks {
		b.Call(l.Voter, builtin.KindGauge, nil, "createLock", map[string]any{
			"amount": l.Amount, "unlockTime": launchTime + l.Weeks*thor.Week,
		})
		for _, v := range l.Votes {
			b.Call(l.Voter, builtin.KindGauge, nil, "voteForGaugeWeights", map[string]any{"gauge": v.Gauge, "weight": v.Weight})
		}
	}

	b.Call(owner, builtin.KindFeeRegistry, nil, "deploy", nil)
	b.Call(owner, builtin.KindFactory, nil, "deploy", nil)

	platformAddr := PlatformAddress()
	if gen.Platform {
		b.Call(owner, builtin.KindFactory, nil, "deployPlatform", map[string]any{"gaugeController": builtin.GaugeController.Address})
	}
	if vm := gen.VoteMarket; vm != nil {
		b.Call(owner, builtin.KindVoteMarket, nil, "deploy", map[string]any{"daoFee": vm.DaoFee})
		if vm.Oracle != nil {
			b.Call(owner, builtin.KindVoteMarket, nil, "setOracle", map[string]any{"oracle": vm.Oracle})
		}
	}

	for _, f := range gen.Fees {
		market := feeregistry.MarketID(builtin.GaugeController.Address)
		if f.Market == MarketVoteMarket {
			market = feeregistry.MarketID(builtin.VoteMarket.Address)
		}
		b.Call(owner, builtin.KindFeeRegistry, nil, "setFee", map[string]any{"marketId": market, "recipients": f.Recipients})
	}

	for _, br := range gen.Bribes {
		tok := br.RewardToken
		b.Call(br.Manager, builtin.KindToken, &tok, "approve", map[string]any{"spender": platformAddr, "amount": br.TotalRewardAmount})
		b.Call(br.Manager, builtin.KindPlatform, &platformAddr, "createBribe", map[string]any{
			"gauge":             br.Gauge,
			"manager":           br.Manager,
			"rewardToken":       br.RewardToken,
			"numberOfPeriods":   br.NumberOfPeriods,
			"maxRewardPerVote":  br.MaxRewardPerVote,
			"totalRewardAmount": br.TotalRewardAmount,
			"blacklist":         br.Blacklist,
			"upgradeable":       br.Upgradeable,
		})
	}
	return b, nil
}

// PlatformAddress is where the factory deploys the platform of the builtin gauge controller.
func PlatformAddress() thor.Address {
	return factory.PlatformAddressOf(builtin.Factory.Address, builtin.GaugeController.Address)
}

// String names the seeded contracts for logs.
func (g *CustomGenesis) String() string {
	var parts []string
	for _, t := range g.Tokens {
		parts = append(parts, t.Symbol)
	}
	return fmt.Sprintf("tokens=[%s] gauges=%d locks=%d platform=%v voteMarket=%v bribes=%d",
		strings.Join(parts, ","), len(g.Gauges), len(g.Locks), g.Platform, g.VoteMarket != nil, len(g.Bribes))
}
