// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime executes calls against the contract state one at a time.
// A call either commits all of its storage writes and events or none.
package runtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/votemarket/builtin"
	"github.com/vechain/votemarket/builtin/reverts"
	"github.com/vechain/votemarket/eventdb"
	"github.com/vechain/votemarket/log"
	"github.com/vechain/votemarket/state"
	"github.com/vechain/votemarket/thor"
	"github.com/vechain/votemarket/xenv"
)

var logger = log.WithContext("pkg", "runtime")

// Clock returns the unix time a call executes at.
type Clock func() uint64

// SystemClock reads the wall clock.
func SystemClock() uint64 { return uint64(time.Now().Unix()) }

// Receipt is the outcome of a committed call.
type Receipt struct {
	TxID     thor.Bytes32  `json:"txID"`
	Revision uint64        `json:"revision"`
	Time     uint64        `json:"time"`
	Origin   thor.Address  `json:"origin"`
	Contract string        `json:"contract"`
	Method   string        `json:"method"`
	Output   any           `json:"output,omitempty"`
	Events   []*xenv.Event `json:"events"`
}

// Runtime serializes calls. Readers see committed state only.
type Runtime struct {
	lock   sync.RWMutex
	stater *state.Stater
	events *eventdb.EventDB
	clock  Clock
	feed   event.Feed
	scope  event.SubscriptionScope
}

// New creates a runtime. events may be nil to skip indexing.
func New(stater *state.Stater, events *eventdb.EventDB, clock Clock) *Runtime {
	if clock == nil {
		clock = SystemClock
	}
	return &Runtime{
		stater: stater,
		events: events,
		clock:  clock,
	}
}

// Now returns the time the next call would execute at.
func (rt *Runtime) Now() uint64 { return rt.clock() }

// Revision returns the number of committed calls.
func (rt *Runtime) Revision() uint64 { return rt.stater.Revision() }

// Execute runs call on behalf of origin. Reverts and storage errors are
// returned as is, with nothing committed.
func (rt *Runtime) Execute(origin thor.Address, call *builtin.Call) (*Receipt, error) {
	receipt, err := rt.execute(origin, call)
	if err != nil {
		return nil, err
	}
	// Sent outside the state lock, but Send blocks until every subscriber took
	// the receipt, so a stuck subscriber stalls later calls until it unsubscribes.
	rt.feed.Send(receipt)
	return receipt, nil
}

func (rt *Runtime) execute(origin thor.Address, call *builtin.Call) (*Receipt, error) {
	start := time.Now()
	rt.lock.Lock()
	defer rt.lock.Unlock()

	now := rt.clock()
	rev := rt.stater.Revision()
	raw, err := json.Marshal(call)
	if err != nil {
		return nil, errors.Wrap(err, "encode call")
	}
	txID := thor.Blake2b(origin.Bytes(), thor.Uint64ToBytes32(rev).Bytes(), thor.Uint64ToBytes32(now).Bytes(), raw)

	st := rt.stater.NewState()
	env := xenv.New(st,
		&xenv.BlockContext{Number: uint32(rev + 1), Time: now},
		&xenv.TransactionContext{ID: txID, Origin: origin})

	restore := env.Checkpoint()
	output, err := builtin.Dispatch(env, call)
	if err != nil {
		restore()
		observe(call, start, err)
		if reverts.IsRevertErr(err) {
			logger.Debug("call reverted", "contract", call.Contract, "method", call.Method, "origin", origin, "err", err)
			return nil, err
		}
		logger.Warn("call failed", "contract", call.Contract, "method", call.Method, "err", err)
		return nil, err
	}

	stage := st.Stage()
	newRev, err := stage.Commit()
	if err != nil {
		observe(call, start, err)
		return nil, errors.WithMessage(err, "commit state")
	}

	receipt := &Receipt{
		TxID:     txID,
		Revision: newRev,
		Time:     now,
		Origin:   origin,
		Contract: call.Contract,
		Method:   call.Method,
		Output:   output,
		Events:   env.Events(),
	}
	if err := rt.index(receipt); err != nil {
		// state is already durable, the index can be rebuilt by replaying
		logger.Warn("failed to index events", "revision", newRev, "err", err)
	}
	observe(call, start, nil)
	logger.Debug("call committed", "contract", call.Contract, "method", call.Method,
		"revision", newRev, "slots", stage.Len(), "events", len(receipt.Events))
	return receipt, nil
}

func (rt *Runtime) index(r *Receipt) error {
	if rt.events == nil || len(r.Events) == 0 {
		return nil
	}
	rows := make([]*eventdb.Event, 0, len(r.Events))
	for i, ev := range r.Events {
		row := &eventdb.Event{
			Revision: r.Revision,
			Index:    uint32(i),
			Time:     r.Time,
			TxID:     r.TxID,
			TxOrigin: r.Origin,
			Address:  ev.Address,
			Name:     ev.Name,
			Data:     ev.Data,
		}
		for j := 0; j < len(ev.Topics) && j < eventdb.MaxTopics; j++ {
			topic := ev.Topics[j]
			row.Topics[j] = &topic
		}
		rows = append(rows, row)
	}
	return rt.events.Insert(rows)
}

// View runs fn against the committed state. Writes made by fn are dropped.
func (rt *Runtime) View(caller thor.Address, fn func(env *xenv.Environment) error) error {
	rt.lock.RLock()
	defer rt.lock.RUnlock()

	env := xenv.New(rt.stater.NewState(),
		&xenv.BlockContext{Number: uint32(rt.stater.Revision()), Time: rt.clock()},
		&xenv.TransactionContext{Origin: caller})
	return fn(env)
}

// SubscribeReceipts delivers every committed receipt to ch until the subscription ends.
func (rt *Runtime) SubscribeReceipts(ch chan<- *Receipt) event.Subscription {
	return rt.scope.Track(rt.feed.Subscribe(ch))
}

// Close ends all subscriptions.
func (rt *Runtime) Close() {
	rt.scope.Close()
}
