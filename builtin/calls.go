// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"encoding/json"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/votemarket/builtin/feeregistry"
	"github.com/vechain/votemarket/builtin/reverts"
	"github.com/vechain/votemarket/thor"
	"github.com/vechain/votemarket/xenv"
)

// Contract kinds a call can address.
const (
	KindToken       = "token"
	KindGauge       = "gauge"
	KindFeeRegistry = "feeRegistry"
	KindFactory     = "factory"
	KindPlatform    = "platform"
	KindVoteMarket  = "voteMarket"
)

// Call is a named operation sent on behalf of the transaction origin.
type Call struct {
	Contract string          `json:"contract"`
	Address  *thor.Address   `json:"address,omitempty"`
	Method   string          `json:"method"`
	Args     json.RawMessage `json:"args,omitempty"`
}

// Target resolves the contract address. Singletons default to their builtin address.
func (c *Call) Target() (thor.Address, error) {
	if c.Address != nil && !c.Address.IsZero() {
		return *c.Address, nil
	}
	switch c.Contract {
	case KindFeeRegistry:
		return FeeRegistry.Address, nil
	case KindFactory:
		return Factory.Address, nil
	case KindVoteMarket:
		return VoteMarket.Address, nil
	case KindGauge:
		return GaugeController.Address, nil
	}
	return thor.Address{}, reverts.Newf("%s.%s: address required", c.Contract, c.Method)
}

type callKey struct {
	contract string
	method   string
}

type handler func(env *xenv.Environment, addr thor.Address, args json.RawMessage) (any, error)

var handlers = make(map[callKey]handler)

// define registers run under contract.method. Args decode into a fresh A.
func define[A any](contract, method string, run func(env *xenv.Environment, addr thor.Address, args *A) (any, error)) {
	key := callKey{contract, method}
	if _, dup := handlers[key]; dup {
		panic("duplicated method " + contract + "." + method)
	}
	handlers[key] = func(env *xenv.Environment, addr thor.Address, raw json.RawMessage) (any, error) {
		args := new(A)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, args); err != nil {
				return nil, reverts.Newf("%s.%s: bad arguments: %v", contract, method, err)
			}
		}
		return run(env, addr, args)
	}
}

// Dispatch runs call in env.
func Dispatch(env *xenv.Environment, call *Call) (any, error) {
	h, ok := handlers[callKey{call.Contract, call.Method}]
	if !ok {
		return nil, reverts.Newf("unknown method %s.%s", call.Contract, call.Method)
	}
	addr, err := call.Target()
	if err != nil {
		return nil, err
	}
	return h(env, addr, call.Args)
}

// Methods lists the dispatchable methods as contract.method.
func Methods() []string {
	names := make([]string, 0, len(handlers))
	for k := range handlers {
		names = append(names, k.contract+"."+k.method)
	}
	sort.Strings(names)
	return names
}

func bigOf(v *math.HexOrDecimal256) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set((*big.Int)(v))
}

type (
	idArgs struct {
		ID uint64 `json:"id"`
	}
	idsArgs struct {
		IDs []uint64 `json:"ids"`
	}
	gaugeArgs struct {
		Gauge thor.Address `json:"gauge"`
	}
	noArgs struct{}
)

func init() {
	initTokenMethods()
	initGaugeMethods()
	initFeeRegistryMethods()
	initFactoryMethods()
	initPlatformMethods()
	initVoteMarketMethods()
}

func initTokenMethods() {
	define(KindToken, "deploy", func(env *xenv.Environment, addr thor.Address, args *struct {
		Name     string `json:"name"`
		Symbol   string `json:"symbol"`
		Decimals uint8  `json:"decimals"`
	}) (any, error) {
		return nil, Token(addr, env).Deploy(env.Caller(), args.Name, args.Symbol, args.Decimals)
	})
	define(KindToken, "mint", func(env *xenv.Environment, addr thor.Address, args *struct {
		To     thor.Address          `json:"to"`
		Amount *math.HexOrDecimal256 `json:"amount"`
	}) (any, error) {
		return nil, Token(addr, env).Mint(env.Caller(), args.To, bigOf(args.Amount))
	})
	define(KindToken, "transfer", func(env *xenv.Environment, addr thor.Address, args *struct {
		To     thor.Address          `json:"to"`
		Amount *math.HexOrDecimal256 `json:"amount"`
	}) (any, error) {
		return nil, Token(addr, env).Transfer(env.Caller(), args.To, bigOf(args.Amount))
	})
	define(KindToken, "approve", func(env *xenv.Environment, addr thor.Address, args *struct {
		Spender thor.Address          `json:"spender"`
		Amount  *math.HexOrDecimal256 `json:"amount"`
	}) (any, error) {
		return nil, Token(addr, env).Approve(env.Caller(), args.Spender, bigOf(args.Amount))
	})
}

func initGaugeMethods() {
	define(KindGauge, "deploy", func(env *xenv.Environment, addr thor.Address, _ *noArgs) (any, error) {
		return nil, Gauge(addr, env).Deploy(env.Caller())
	})
	define(KindGauge, "addGauge", func(env *xenv.Environment, addr thor.Address, args *gaugeArgs) (any, error) {
		return nil, Gauge(addr, env).AddGauge(env.Caller(), args.Gauge)
	})
	define(KindGauge, "createLock", func(env *xenv.Environment, addr thor.Address, args *struct {
		Amount     *math.HexOrDecimal256 `json:"amount"`
		UnlockTime uint64                `json:"unlockTime"`
	}) (any, error) {
		return nil, Gauge(addr, env).CreateLock(env.Caller(), bigOf(args.Amount), args.UnlockTime)
	})
	define(KindGauge, "voteForGaugeWeights", func(env *xenv.Environment, addr thor.Address, args *struct {
		Gauge  thor.Address `json:"gauge"`
		Weight uint64       `json:"weight"`
	}) (any, error) {
		return nil, Gauge(addr, env).VoteForGaugeWeights(env.Caller(), args.Gauge, args.Weight)
	})
	define(KindGauge, "checkpoint", func(env *xenv.Environment, addr thor.Address, args *gaugeArgs) (any, error) {
		return nil, Gauge(addr, env).Checkpoint(args.Gauge)
	})
}

type recipientArg struct {
	Address thor.Address          `json:"address"`
	Percent *math.HexOrDecimal256 `json:"percent"`
}

func initFeeRegistryMethods() {
	define(KindFeeRegistry, "deploy", func(env *xenv.Environment, addr thor.Address, _ *noArgs) (any, error) {
		return nil, feeregistry.New(addr, env).Deploy(env.Caller())
	})
	define(KindFeeRegistry, "setFee", func(env *xenv.Environment, addr thor.Address, args *struct {
		MarketID   thor.Bytes32   `json:"marketId"`
		Recipients []recipientArg `json:"recipients"`
	}) (any, error) {
		recipients := make([]*feeregistry.Recipient, 0, len(args.Recipients))
		for _, r := range args.Recipients {
			recipients = append(recipients, &feeregistry.Recipient{Address: r.Address, Percent: bigOf(r.Percent)})
		}
		return nil, feeregistry.New(addr, env).SetFee(env.Caller(), args.MarketID, recipients)
	})
	define(KindFeeRegistry, "disburse", func(env *xenv.Environment, addr thor.Address, args *struct {
		MarketID thor.Bytes32 `json:"marketId"`
		Token    thor.Address `json:"token"`
	}) (any, error) {
		tok, err := Tokens(env)(args.Token)
		if err != nil {
			return nil, err
		}
		return nil, feeregistry.New(addr, env).Disburse(args.MarketID, tok)
	})
}

func initFactoryMethods() {
	define(KindFactory, "deploy", func(env *xenv.Environment, addr thor.Address, _ *noArgs) (any, error) {
		return nil, Factory.WithEnv(env).Deploy(env.Caller())
	})
	define(KindFactory, "deployPlatform", func(env *xenv.Environment, addr thor.Address, args *struct {
		GaugeController thor.Address `json:"gaugeController"`
	}) (any, error) {
		return Factory.WithEnv(env).DeployPlatform(env.Caller(), args.GaugeController)
	})
	define(KindFactory, "kill", func(env *xenv.Environment, addr thor.Address, args *struct {
		Platform thor.Address `json:"platform"`
	}) (any, error) {
		return nil, Factory.WithEnv(env).Kill(env.Caller(), args.Platform)
	})
	define(KindFactory, "setRecipient", func(env *xenv.Environment, addr thor.Address, args *struct {
		Platform  thor.Address `json:"platform"`
		Recipient thor.Address `json:"recipient"`
	}) (any, error) {
		return nil, Factory.WithEnv(env).SetRecipient(env.Caller(), args.Platform, args.Recipient)
	})
}

func initPlatformMethods() {
	define(KindPlatform, "createBribe", func(env *xenv.Environment, addr thor.Address, args *struct {
		Gauge             thor.Address          `json:"gauge"`
		Manager           thor.Address          `json:"manager"`
		RewardToken       thor.Address          `json:"rewardToken"`
		NumberOfPeriods   uint8                 `json:"numberOfPeriods"`
		MaxRewardPerVote  *math.HexOrDecimal256 `json:"maxRewardPerVote"`
		TotalRewardAmount *math.HexOrDecimal256 `json:"totalRewardAmount"`
		Blacklist         []thor.Address        `json:"blacklist"`
		Upgradeable       bool                  `json:"upgradeable"`
	}) (any, error) {
		p, err := Platform(addr, env)
		if err != nil {
			return nil, err
		}
		return p.CreateBribe(args.Gauge, args.Manager, args.RewardToken, args.NumberOfPeriods,
			bigOf(args.MaxRewardPerVote), bigOf(args.TotalRewardAmount), args.Blacklist, args.Upgradeable)
	})
	define(KindPlatform, "increaseBribeDuration", func(env *xenv.Environment, addr thor.Address, args *struct {
		ID                  uint64                `json:"id"`
		AdditionalPeriods   uint8                 `json:"additionalPeriods"`
		IncreasedAmount     *math.HexOrDecimal256 `json:"increasedAmount"`
		NewMaxRewardPerVote *math.HexOrDecimal256 `json:"newMaxRewardPerVote"`
		Blacklist           []thor.Address        `json:"blacklist"`
	}) (any, error) {
		p, err := Platform(addr, env)
		if err != nil {
			return nil, err
		}
		return nil, p.IncreaseBribeDuration(args.ID, args.AdditionalPeriods,
			bigOf(args.IncreasedAmount), bigOf(args.NewMaxRewardPerVote), args.Blacklist)
	})
	define(KindPlatform, "closeBribe", func(env *xenv.Environment, addr thor.Address, args *idArgs) (any, error) {
		p, err := Platform(addr, env)
		if err != nil {
			return nil, err
		}
		return nil, p.CloseBribe(args.ID)
	})
	define(KindPlatform, "updateManager", func(env *xenv.Environment, addr thor.Address, args *struct {
		ID      uint64       `json:"id"`
		Manager thor.Address `json:"manager"`
	}) (any, error) {
		p, err := Platform(addr, env)
		if err != nil {
			return nil, err
		}
		return nil, p.UpdateManager(args.ID, args.Manager)
	})
	define(KindPlatform, "updateBribePeriods", func(env *xenv.Environment, addr thor.Address, args *idsArgs) (any, error) {
		p, err := Platform(addr, env)
		if err != nil {
			return nil, err
		}
		return nil, p.UpdateBribePeriods(args.IDs)
	})
	define(KindPlatform, "claim", func(env *xenv.Environment, addr thor.Address, args *idArgs) (any, error) {
		p, err := Platform(addr, env)
		if err != nil {
			return nil, err
		}
		return p.Claim(args.ID)
	})
	define(KindPlatform, "claimTo", func(env *xenv.Environment, addr thor.Address, args *struct {
		ID        uint64       `json:"id"`
		Recipient thor.Address `json:"recipient"`
	}) (any, error) {
		p, err := Platform(addr, env)
		if err != nil {
			return nil, err
		}
		return p.ClaimTo(args.ID, args.Recipient)
	})
	define(KindPlatform, "claimFor", func(env *xenv.Environment, addr thor.Address, args *struct {
		User thor.Address `json:"user"`
		ID   uint64       `json:"id"`
	}) (any, error) {
		p, err := Platform(addr, env)
		if err != nil {
			return nil, err
		}
		return p.ClaimFor(args.User, args.ID)
	})
	define(KindPlatform, "claimAll", func(env *xenv.Environment, addr thor.Address, args *idsArgs) (any, error) {
		p, err := Platform(addr, env)
		if err != nil {
			return nil, err
		}
		return p.ClaimAll(args.IDs)
	})
	define(KindPlatform, "claimAllFor", func(env *xenv.Environment, addr thor.Address, args *struct {
		User thor.Address `json:"user"`
		IDs  []uint64     `json:"ids"`
	}) (any, error) {
		p, err := Platform(addr, env)
		if err != nil {
			return nil, err
		}
		return p.ClaimAllFor(args.User, args.IDs)
	})
}

func initVoteMarketMethods() {
	define(KindVoteMarket, "deploy", func(env *xenv.Environment, addr thor.Address, args *struct {
		DaoFee *math.HexOrDecimal256 `json:"daoFee"`
	}) (any, error) {
		return nil, VoteMarket.WithEnv(env).Deploy(env.Caller(), bigOf(args.DaoFee))
	})
	define(KindVoteMarket, "setOracle", func(env *xenv.Environment, addr thor.Address, args *struct {
		Oracle thor.Address `json:"oracle"`
	}) (any, error) {
		return nil, VoteMarket.WithEnv(env).SetOracle(env.Caller(), args.Oracle)
	})
	define(KindVoteMarket, "setDaoFee", func(env *xenv.Environment, addr thor.Address, args *struct {
		Fee *math.HexOrDecimal256 `json:"fee"`
	}) (any, error) {
		return nil, VoteMarket.WithEnv(env).SetDaoFee(env.Caller(), bigOf(args.Fee))
	})
	define(KindVoteMarket, "createBribe", func(env *xenv.Environment, addr thor.Address, args *struct {
		Target            thor.Address          `json:"target"`
		RewardToken       thor.Address          `json:"rewardToken"`
		NumberOfPeriods   uint8                 `json:"numberOfPeriods"`
		MaxRewardPerVote  *math.HexOrDecimal256 `json:"maxRewardPerVote"`
		TotalRewardAmount *math.HexOrDecimal256 `json:"totalRewardAmount"`
	}) (any, error) {
		return VoteMarket.WithEnv(env).CreateBribe(args.Target, args.RewardToken, args.NumberOfPeriods,
			bigOf(args.MaxRewardPerVote), bigOf(args.TotalRewardAmount))
	})
	define(KindVoteMarket, "setEpochRoot", func(env *xenv.Environment, addr thor.Address, args *struct {
		Epoch uint64       `json:"epoch"`
		Root  thor.Bytes32 `json:"root"`
	}) (any, error) {
		return nil, VoteMarket.WithEnv(env).SetEpochRoot(env.Caller(), args.Epoch, args.Root)
	})
	define(KindVoteMarket, "setTotalVotes", func(env *xenv.Environment, addr thor.Address, args *struct {
		Epoch  uint64                `json:"epoch"`
		Target thor.Address          `json:"target"`
		Total  *math.HexOrDecimal256 `json:"total"`
	}) (any, error) {
		return nil, VoteMarket.WithEnv(env).SetTotalVotes(env.Caller(), args.Epoch, args.Target, bigOf(args.Total))
	})
	define(KindVoteMarket, "claim", func(env *xenv.Environment, addr thor.Address, args *struct {
		Account thor.Address          `json:"account"`
		ID      uint64                `json:"id"`
		Epoch   uint64                `json:"epoch"`
		Weight  *math.HexOrDecimal256 `json:"weight"`
		Proof   []thor.Bytes32        `json:"proof"`
	}) (any, error) {
		return VoteMarket.WithEnv(env).Claim(args.Account, args.ID, args.Epoch, bigOf(args.Weight), args.Proof)
	})
	define(KindVoteMarket, "withdrawLeftover", func(env *xenv.Environment, addr thor.Address, args *idArgs) (any, error) {
		return VoteMarket.WithEnv(env).WithdrawLeftover(args.ID)
	})
}
