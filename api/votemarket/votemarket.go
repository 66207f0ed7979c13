// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package votemarket

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/votemarket/api/restutil"
	"github.com/vechain/votemarket/builtin"
	"github.com/vechain/votemarket/thor"
	"github.com/vechain/votemarket/xenv"
)

// Viewer reads committed state.
type Viewer interface {
	View(caller thor.Address, fn func(env *xenv.Environment) error) error
}

type Market struct {
	Address thor.Address          `json:"address"`
	Owner   thor.Address          `json:"owner"`
	Oracle  thor.Address          `json:"oracle"`
	DaoFee  *math.HexOrDecimal256 `json:"daoFee"`
	NextID  uint64                `json:"nextId"`
}

type Epoch struct {
	Epoch         uint64                `json:"epoch"`
	TotalVotes    *math.HexOrDecimal256 `json:"totalVotes"`
	RewardPerVote *math.HexOrDecimal256 `json:"rewardPerVote"`
}

type Bribe struct {
	ID                uint64                `json:"id"`
	Target            thor.Address          `json:"target"`
	Manager           thor.Address          `json:"manager"`
	RewardToken       thor.Address          `json:"rewardToken"`
	NumberOfPeriods   uint8                 `json:"numberOfPeriods"`
	StartEpoch        uint64                `json:"startEpoch"`
	EndEpoch          uint64                `json:"endEpoch"`
	MaxRewardPerVote  *math.HexOrDecimal256 `json:"maxRewardPerVote"`
	TotalRewardAmount *math.HexOrDecimal256 `json:"totalRewardAmount"`
	AmountClaimed     *math.HexOrDecimal256 `json:"amountClaimed"`
	Withdrawn         bool                  `json:"withdrawn"`
	Epochs            []*Epoch              `json:"epochs"`
}

type Root struct {
	Epoch      uint64                `json:"epoch"`
	Root       thor.Bytes32          `json:"root"`
	Target     *thor.Address         `json:"target,omitempty"`
	TotalVotes *math.HexOrDecimal256 `json:"totalVotes,omitempty"`
}

type VoteMarket struct {
	viewer Viewer
}

func New(viewer Viewer) *VoteMarket {
	return &VoteMarket{viewer}
}

func hex(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(new(big.Int).Set(v))
}

func parseUint(req *http.Request, name string) (uint64, error) {
	v, err := strconv.ParseUint(mux.Vars(req)[name], 10, 64)
	if err != nil {
		return 0, restutil.BadRequest(errors.WithMessage(err, name))
	}
	return v, nil
}

func (v *VoteMarket) handleGetMarket(w http.ResponseWriter, _ *http.Request) error {
	m := &Market{Address: builtin.VoteMarket.Address}
	err := v.viewer.View(thor.Address{}, func(env *xenv.Environment) (err error) {
		vm := builtin.VoteMarket.WithEnv(env)
		if m.Owner, err = vm.Owner(); err != nil {
			return
		}
		if m.Oracle, err = vm.Oracle(); err != nil {
			return
		}
		fee, err := vm.DaoFee()
		if err != nil {
			return
		}
		m.DaoFee = hex(fee)
		m.NextID, err = vm.NextID()
		return
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, m)
}

func (v *VoteMarket) handleGetBribe(w http.ResponseWriter, req *http.Request) error {
	id, err := parseUint(req, "id")
	if err != nil {
		return err
	}
	var b *Bribe
	err = v.viewer.View(thor.Address{}, func(env *xenv.Environment) error {
		vm := builtin.VoteMarket.WithEnv(env)
		bribe, err := vm.GetBribe(id)
		if err != nil {
			return err
		}
		b = &Bribe{
			ID:                id,
			Target:            bribe.Target,
			Manager:           bribe.Manager,
			RewardToken:       bribe.RewardToken,
			NumberOfPeriods:   bribe.NumberOfPeriods,
			StartEpoch:        bribe.StartEpoch,
			EndEpoch:          bribe.EndEpoch(),
			MaxRewardPerVote:  hex(bribe.MaxRewardPerVote),
			TotalRewardAmount: hex(bribe.TotalRewardAmount),
			AmountClaimed:     hex(bribe.AmountClaimed),
			Withdrawn:         bribe.Withdrawn,
			Epochs:            make([]*Epoch, 0, bribe.NumberOfPeriods),
		}
		for epoch := bribe.StartEpoch; epoch < bribe.EndEpoch(); epoch += thor.Week {
			total, err := vm.TotalVotes(epoch, bribe.Target)
			if err != nil {
				return err
			}
			e := &Epoch{Epoch: epoch, TotalVotes: hex(total)}
			// rate stays empty until the oracle publishes totals
			if total != nil && total.Sign() > 0 {
				rpv, err := vm.RewardPerVote(id, epoch)
				if err != nil {
					return err
				}
				e.RewardPerVote = hex(rpv)
			}
			b.Epochs = append(b.Epochs, e)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, b)
}

func (v *VoteMarket) handleGetEpoch(w http.ResponseWriter, req *http.Request) error {
	epoch, err := parseUint(req, "epoch")
	if err != nil {
		return err
	}
	if epoch%thor.Week != 0 {
		return restutil.BadRequest(errors.New("epoch: not a week boundary"))
	}
	r := &Root{Epoch: epoch}
	if s := req.URL.Query().Get("target"); s != "" {
		target, err := thor.ParseAddress(s)
		if err != nil {
			return restutil.BadRequest(errors.WithMessage(err, "target"))
		}
		r.Target = &target
	}
	err = v.viewer.View(thor.Address{}, func(env *xenv.Environment) (err error) {
		vm := builtin.VoteMarket.WithEnv(env)
		if r.Root, err = vm.EpochRoot(epoch); err != nil {
			return
		}
		if r.Target != nil {
			total, err := vm.TotalVotes(epoch, *r.Target)
			if err != nil {
				return err
			}
			r.TotalVotes = hex(total)
		}
		return
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, r)
}

func (v *VoteMarket) handleGetClaimed(w http.ResponseWriter, req *http.Request) error {
	id, err := parseUint(req, "id")
	if err != nil {
		return err
	}
	epoch, err := parseUint(req, "epoch")
	if err != nil {
		return err
	}
	account, err := thor.ParseAddress(mux.Vars(req)["account"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "account"))
	}
	var claimed bool
	if err := v.viewer.View(thor.Address{}, func(env *xenv.Environment) (err error) {
		claimed, err = builtin.VoteMarket.WithEnv(env).IsClaimed(id, epoch, account)
		return
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, map[string]bool{"claimed": claimed})
}

func (v *VoteMarket) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /votemarket").
		HandlerFunc(restutil.WrapHandlerFunc(v.handleGetMarket))
	sub.Path("/bribes/{id}").
		Methods(http.MethodGet).
		Name("GET /votemarket/bribes/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(v.handleGetBribe))
	sub.Path("/bribes/{id}/claimed/{epoch}/{account}").
		Methods(http.MethodGet).
		Name("GET /votemarket/bribes/{id}/claimed/{epoch}/{account}").
		HandlerFunc(restutil.WrapHandlerFunc(v.handleGetClaimed))
	sub.Path("/epochs/{epoch}").
		Methods(http.MethodGet).
		Name("GET /votemarket/epochs/{epoch}").
		HandlerFunc(restutil.WrapHandlerFunc(v.handleGetEpoch))
}
