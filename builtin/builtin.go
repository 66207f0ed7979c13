// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/vechain/votemarket/builtin/factory"
	"github.com/vechain/votemarket/builtin/feeregistry"
	"github.com/vechain/votemarket/builtin/gauge"
	"github.com/vechain/votemarket/builtin/platform"
	"github.com/vechain/votemarket/builtin/token"
	"github.com/vechain/votemarket/builtin/votemarket"
	"github.com/vechain/votemarket/thor"
	"github.com/vechain/votemarket/xenv"
)

// Builtin contracts binding.
var (
	FeeRegistry     = &feeRegistryContract{newContract("FeeRegistry")}
	Factory         = &factoryContract{newContract("Factory")}
	VoteMarket      = &voteMarketContract{newContract("VoteMarket")}
	GaugeController = &gaugeContract{newContract("GaugeController")}
)

type contract struct {
	name    string
	Address thor.Address
}

// newContract places a singleton at the address spelled by its name.
func newContract(name string) *contract {
	return &contract{name, thor.BytesToAddress([]byte(name))}
}

func (c *contract) Name() string { return c.name }

type (
	feeRegistryContract struct{ *contract }
	factoryContract     struct{ *contract }
	voteMarketContract  struct{ *contract }
	gaugeContract       struct{ *contract }
)

func (f *feeRegistryContract) WithEnv(env *xenv.Environment) *feeregistry.FeeRegistry {
	return feeregistry.New(f.Address, env)
}

func (f *factoryContract) WithEnv(env *xenv.Environment) *factory.Factory {
	return factory.New(f.Address, env)
}

func (v *voteMarketContract) WithEnv(env *xenv.Environment) *votemarket.VoteMarket {
	return votemarket.New(v.Address, env, votemarket.Deps{
		Tokens: Tokens(env),
		Fees:   FeeRegistry.WithEnv(env),
	})
}

// WithEnv binds the default controller. Others are reached with Gauge.
func (g *gaugeContract) WithEnv(env *xenv.Environment) *gauge.Controller {
	return gauge.New(g.Address, env)
}

// Gauge binds the gauge controller at addr.
func Gauge(addr thor.Address, env *xenv.Environment) *gauge.Controller {
	return gauge.New(addr, env)
}

// Token binds the token ledger at addr.
func Token(addr thor.Address, env *xenv.Environment) *token.Token {
	return token.New(addr, env)
}

// Tokens resolves deployed tokens only.
func Tokens(env *xenv.Environment) platform.TokenProvider {
	return func(addr thor.Address) (platform.Token, error) {
		t := token.New(addr, env)
		if _, err := t.Meta(); err != nil {
			return nil, err
		}
		return t, nil
	}
}

// Platform binds the platform at addr with its gauge controller, the fee
// registry and the factory as collaborators.
func Platform(addr thor.Address, env *xenv.Environment) (*platform.Platform, error) {
	ctl, err := platform.New(addr, env, platform.Deps{}).GaugeController()
	if err != nil {
		return nil, err
	}
	return platform.New(addr, env, platform.Deps{
		Ledger:     gauge.New(ctl, env),
		Tokens:     Tokens(env),
		Fees:       FeeRegistry.WithEnv(env),
		Recipients: Factory.WithEnv(env),
	}), nil
}
