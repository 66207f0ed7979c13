// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/vechain/votemarket/builtin/reverts"
	"github.com/vechain/votemarket/state"
	"github.com/vechain/votemarket/thor"
)

var errReentrant = reverts.New("ReentrancyGuard: reentrant call")

// BlockContext block context.
type BlockContext struct {
	Number uint32
	Time   uint64
}

// TransactionContext transaction context.
type TransactionContext struct {
	ID     thor.Bytes32
	Origin thor.Address
}

// Event is a log record emitted by a contract.
type Event struct {
	Address thor.Address    `json:"address"`
	Name    string          `json:"name"`
	Topics  []thor.Bytes32  `json:"topics"`
	Data    json.RawMessage `json:"data"`
}

// Environment an env to execute native contract code for one transaction.
type Environment struct {
	state    *state.State
	blockCtx *BlockContext
	txCtx    *TransactionContext
	caller   thor.Address
	events   []*Event
	entered  map[thor.Address]bool
}

// New create a new env. The caller is the transaction origin.
func New(
	state *state.State,
	blockCtx *BlockContext,
	txCtx *TransactionContext,
) *Environment {
	return &Environment{
		state:    state,
		blockCtx: blockCtx,
		txCtx:    txCtx,
		caller:   txCtx.Origin,
		entered:  make(map[thor.Address]bool),
	}
}

func (env *Environment) State() *state.State                     { return env.state }
func (env *Environment) TransactionContext() *TransactionContext { return env.txCtx }
func (env *Environment) BlockContext() *BlockContext             { return env.blockCtx }
func (env *Environment) Caller() thor.Address                    { return env.caller }
func (env *Environment) Now() uint64                             { return env.blockCtx.Time }

// Enter marks contract as executing. The returned func must be called on exit.
// Entering a contract that is already executing in this transaction is a revert.
func (env *Environment) Enter(contract thor.Address) (func(), error) {
	if env.entered[contract] {
		return nil, errReentrant
	}
	env.entered[contract] = true
	return func() { delete(env.entered, contract) }, nil
}

// Log appends an event. data is json encoded.
func (env *Environment) Log(address thor.Address, name string, topics []thor.Bytes32, data any) error {
	enc, err := json.Marshal(data)
	if err != nil {
		return errors.WithMessage(err, "encode event")
	}
	env.events = append(env.events, &Event{
		Address: address,
		Name:    name,
		Topics:  topics,
		Data:    enc,
	})
	return nil
}

// Events returns events logged so far.
func (env *Environment) Events() []*Event {
	return env.events
}

// Checkpoint returns a marker to restore both state and events.
func (env *Environment) Checkpoint() func() {
	rev := env.state.NewCheckpoint()
	n := len(env.events)
	return func() {
		env.state.RevertTo(rev)
		env.events = env.events[:n]
	}
}
