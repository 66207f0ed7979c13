// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"encoding/json"
	"net/url"

	"github.com/pkg/errors"

	"github.com/vechain/votemarket/runtime"
	"github.com/vechain/votemarket/thor"
	"github.com/vechain/votemarket/xenv"
)

type EventFilter struct {
	Address *thor.Address
	Name    string
	Topics  [4]*thor.Bytes32
}

func parseEventFilter(query url.Values) (*EventFilter, error) {
	f := &EventFilter{Name: query.Get("name")}
	if s := query.Get("addr"); s != "" {
		addr, err := thor.ParseAddress(s)
		if err != nil {
			return nil, errors.WithMessage(err, "addr")
		}
		f.Address = &addr
	}
	for i, key := range []string{"t0", "t1", "t2", "t3"} {
		s := query.Get(key)
		if s == "" {
			continue
		}
		topic, err := thor.ParseBytes32(s)
		if err != nil {
			return nil, errors.WithMessage(err, key)
		}
		f.Topics[i] = &topic
	}
	return f, nil
}

func (f *EventFilter) Match(ev *xenv.Event) bool {
	if f.Address != nil && *f.Address != ev.Address {
		return false
	}
	if f.Name != "" && f.Name != ev.Name {
		return false
	}
	for i, topic := range f.Topics {
		if topic == nil {
			continue
		}
		if i >= len(ev.Topics) || ev.Topics[i] != *topic {
			return false
		}
	}
	return true
}

type Meta struct {
	TxID     thor.Bytes32 `json:"txID"`
	TxOrigin thor.Address `json:"txOrigin"`
	Revision uint64       `json:"revision"`
	Time     uint64       `json:"time"`
	Index    int          `json:"index"`
}

type EventMessage struct {
	Address thor.Address    `json:"address"`
	Name    string          `json:"name"`
	Topics  []thor.Bytes32  `json:"topics"`
	Data    json.RawMessage `json:"data"`
	Meta    Meta            `json:"meta"`
}

func newEventMessage(r *runtime.Receipt, index int) *EventMessage {
	ev := r.Events[index]
	msg := &EventMessage{
		Address: ev.Address,
		Name:    ev.Name,
		Topics:  ev.Topics,
		Data:    ev.Data,
		Meta: Meta{
			TxID:     r.TxID,
			TxOrigin: r.Origin,
			Revision: r.Revision,
			Time:     r.Time,
			Index:    index,
		},
	}
	if msg.Topics == nil {
		msg.Topics = []thor.Bytes32{}
	}
	if len(msg.Data) == 0 {
		msg.Data = json.RawMessage("null")
	}
	return msg
}
