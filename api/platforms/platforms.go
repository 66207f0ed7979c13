// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package platforms

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/votemarket/api/restutil"
	"github.com/vechain/votemarket/builtin"
	"github.com/vechain/votemarket/cache"
	"github.com/vechain/votemarket/thor"
	"github.com/vechain/votemarket/xenv"
)

// Viewer reads committed state. *runtime.Runtime implements it.
type Viewer interface {
	View(caller thor.Address, fn func(env *xenv.Environment) error) error
	Revision() uint64
	Now() uint64
}

type bribeKey struct {
	platform thor.Address
	id       uint64
	revision uint64
	period   uint64
}

type Platforms struct {
	viewer Viewer
	bribes *cache.LRU[bribeKey, *BribeDetail]
}

func New(viewer Viewer, cacheSize int) (*Platforms, error) {
	bribes, err := cache.NewLRU[bribeKey, *BribeDetail]("api_bribes", max(cacheSize, 1))
	if err != nil {
		return nil, err
	}
	return &Platforms{viewer, bribes}, nil
}

func parseAddress(req *http.Request, name string) (thor.Address, error) {
	addr, err := thor.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return thor.Address{}, restutil.BadRequest(errors.WithMessage(err, name))
	}
	return addr, nil
}

func parseID(req *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		return 0, restutil.BadRequest(errors.WithMessage(err, "id"))
	}
	return id, nil
}

func (p *Platforms) handleGetPlatforms(w http.ResponseWriter, _ *http.Request) error {
	var list []*Summary
	err := p.viewer.View(thor.Address{}, func(env *xenv.Environment) error {
		addrs, err := builtin.Factory.WithEnv(env).Platforms()
		if err != nil {
			return err
		}
		list = make([]*Summary, 0, len(addrs))
		for _, addr := range addrs {
			s, err := summarize(env, addr)
			if err != nil {
				return err
			}
			list = append(list, s)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, list)
}

func summarize(env *xenv.Environment, addr thor.Address) (*Summary, error) {
	plat, err := builtin.Platform(addr, env)
	if err != nil {
		return nil, err
	}
	s := &Summary{Address: addr, CurrentPeriod: plat.CurrentPeriod()}
	if s.GaugeController, err = plat.GaugeController(); err != nil {
		return nil, err
	}
	if s.Factory, err = plat.Factory(); err != nil {
		return nil, err
	}
	if s.Killed, err = plat.IsKilled(); err != nil {
		return nil, err
	}
	if s.NextID, err = plat.NextID(); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Platforms) handleGetPlatform(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	var s *Summary
	if err := p.viewer.View(thor.Address{}, func(env *xenv.Environment) (err error) {
		s, err = summarize(env, addr)
		return
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, s)
}

func (p *Platforms) loadBribe(key bribeKey) (*BribeDetail, error) {
	var d *BribeDetail
	err := p.viewer.View(thor.Address{}, func(env *xenv.Environment) error {
		plat, err := builtin.Platform(key.platform, env)
		if err != nil {
			return err
		}
		bribe, err := plat.GetBribe(key.id)
		if err != nil {
			return err
		}
		period, err := plat.GetActivePeriod(key.id)
		if err != nil {
			return err
		}
		upgrade, err := plat.GetUpgradedBribeQueued(key.id)
		if err != nil {
			return err
		}
		rpv, err := plat.RewardPerVote(key.id)
		if err != nil {
			return err
		}
		claimed, err := plat.AmountClaimed(key.id)
		if err != nil {
			return err
		}
		left, err := plat.GetPeriodsLeft(key.id)
		if err != nil {
			return err
		}
		upgradeable, err := plat.IsUpgradeable(key.id)
		if err != nil {
			return err
		}
		d = &BribeDetail{
			ID:            key.id,
			Bribe:         convertBribe(bribe),
			ActivePeriod:  &Period{ID: period.ID, Timestamp: period.Timestamp, RewardPerPeriod: hex(period.RewardPerPeriod)},
			Upgrade:       convertUpgrade(upgrade),
			RewardPerVote: hex(rpv),
			AmountClaimed: hex(claimed),
			PeriodsLeft:   left,
			Upgradeable:   upgradeable,
		}
		return nil
	})
	return d, err
}

func (p *Platforms) handleGetBribe(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	id, err := parseID(req)
	if err != nil {
		return err
	}
	key := bribeKey{addr, id, p.viewer.Revision(), thor.PeriodOf(p.viewer.Now())}
	d, err := p.bribes.GetOrLoad(key, p.loadBribe)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, d)
}

func (p *Platforms) handleGetClaimable(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	id, err := parseID(req)
	if err != nil {
		return err
	}
	user, err := parseAddress(req, "user")
	if err != nil {
		return err
	}
	var c *Claimable
	err = p.viewer.View(user, func(env *xenv.Environment) error {
		plat, err := builtin.Platform(addr, env)
		if err != nil {
			return err
		}
		q, err := plat.ClaimableDetail(user, id)
		if err != nil {
			return err
		}
		c = convertQuote(user, id, q)
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, c)
}

func (p *Platforms) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /platforms").
		HandlerFunc(restutil.WrapHandlerFunc(p.handleGetPlatforms))
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /platforms/{address}").
		HandlerFunc(restutil.WrapHandlerFunc(p.handleGetPlatform))
	sub.Path("/{address}/bribes/{id}").
		Methods(http.MethodGet).
		Name("GET /platforms/{address}/bribes/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(p.handleGetBribe))
	sub.Path("/{address}/bribes/{id}/claimable/{user}").
		Methods(http.MethodGet).
		Name("GET /platforms/{address}/bribes/{id}/claimable/{user}").
		HandlerFunc(restutil.WrapHandlerFunc(p.handleGetClaimable))
}
