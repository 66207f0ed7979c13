// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package transactions executes calls on behalf of any origin. It is only
// mounted by solo nodes, where accounts need no signatures.
package transactions

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/votemarket/api/restutil"
	"github.com/vechain/votemarket/builtin"
	"github.com/vechain/votemarket/runtime"
	"github.com/vechain/votemarket/thor"
)

// Executor runs one call as a transaction.
type Executor interface {
	Execute(origin thor.Address, call *builtin.Call) (*runtime.Receipt, error)
}

// Clock is a clock that can be moved forward.
type Clock interface {
	Now() uint64
	Advance(seconds uint64) uint64
}

type Transaction struct {
	Origin   thor.Address    `json:"origin"`
	Contract string          `json:"contract"`
	Address  *thor.Address   `json:"address"`
	Method   string          `json:"method"`
	Args     json.RawMessage `json:"args"`
}

type ClockAdvance struct {
	Seconds uint64 `json:"seconds"`
}

type ClockTime struct {
	Now    uint64 `json:"now"`
	Period uint64 `json:"period"`
}

type Transactions struct {
	exec  Executor
	clock Clock
}

// New creates the handlers. clock may be nil, the clock endpoint is then not mounted.
func New(exec Executor, clock Clock) *Transactions {
	return &Transactions{exec, clock}
}

func (t *Transactions) handleExecute(w http.ResponseWriter, req *http.Request) error {
	var tx Transaction
	if err := restutil.ParseJSON(req.Body, &tx); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if tx.Origin.IsZero() {
		return restutil.BadRequest(errors.New("origin: required"))
	}
	if tx.Contract == "" || tx.Method == "" {
		return restutil.BadRequest(errors.New("contract and method: required"))
	}
	receipt, err := t.exec.Execute(tx.Origin, &builtin.Call{
		Contract: tx.Contract,
		Address:  tx.Address,
		Method:   tx.Method,
		Args:     tx.Args,
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, receipt)
}

func (t *Transactions) handleGetMethods(w http.ResponseWriter, _ *http.Request) error {
	return restutil.WriteJSON(w, builtin.Methods())
}

func (t *Transactions) handleGetClock(w http.ResponseWriter, _ *http.Request) error {
	now := t.clock.Now()
	return restutil.WriteJSON(w, &ClockTime{now, thor.PeriodOf(now)})
}

func (t *Transactions) handleAdvanceClock(w http.ResponseWriter, req *http.Request) error {
	var adv ClockAdvance
	if err := restutil.ParseJSON(req.Body, &adv); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if adv.Seconds == 0 {
		return restutil.BadRequest(errors.New("seconds: must be positive"))
	}
	now := t.clock.Advance(adv.Seconds)
	return restutil.WriteJSON(w, &ClockTime{now, thor.PeriodOf(now)})
}

func (t *Transactions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /transactions").
		HandlerFunc(restutil.WrapHandlerFunc(t.handleExecute))
	sub.Path("/methods").
		Methods(http.MethodGet).
		Name("GET /transactions/methods").
		HandlerFunc(restutil.WrapHandlerFunc(t.handleGetMethods))
	if t.clock != nil {
		sub.Path("/clock").
			Methods(http.MethodGet).
			Name("GET /transactions/clock").
			HandlerFunc(restutil.WrapHandlerFunc(t.handleGetClock))
		sub.Path("/clock").
			Methods(http.MethodPost).
			Name("POST /transactions/clock").
			HandlerFunc(restutil.WrapHandlerFunc(t.handleAdvanceClock))
	}
}
