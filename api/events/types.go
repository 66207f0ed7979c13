// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"encoding/json"
	"math"

	"github.com/vechain/votemarket/eventdb"
	"github.com/vechain/votemarket/thor"
)

// TopicCriteria matches positional topics. Nil topics match anything.
type TopicCriteria struct {
	Topic0 *thor.Bytes32 `json:"topic0"`
	Topic1 *thor.Bytes32 `json:"topic1"`
	Topic2 *thor.Bytes32 `json:"topic2"`
	Topic3 *thor.Bytes32 `json:"topic3"`
}

func (c *TopicCriteria) topics() [eventdb.MaxTopics]*thor.Bytes32 {
	return [eventdb.MaxTopics]*thor.Bytes32{c.Topic0, c.Topic1, c.Topic2, c.Topic3}
}

type Range struct {
	Unit eventdb.RangeType `json:"unit"`
	From *uint64           `json:"from"`
	To   *uint64           `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// EventFilter is the body of POST /logs/event. Entries of CriteriaSet are ORed.
type EventFilter struct {
	Address     *thor.Address     `json:"address"`
	Name        string            `json:"name"`
	CriteriaSet []*TopicCriteria  `json:"criteriaSet"`
	Range       *Range            `json:"range"`
	Options     *Options          `json:"options"`
	Order       eventdb.OrderType `json:"order"`
}

type Meta struct {
	Revision uint64       `json:"revision"`
	Index    uint32       `json:"index"`
	Time     uint64       `json:"time"`
	TxID     thor.Bytes32 `json:"txID"`
	TxOrigin thor.Address `json:"txOrigin"`
}

type FilteredEvent struct {
	Address thor.Address    `json:"address"`
	Name    string          `json:"name"`
	Topics  []thor.Bytes32  `json:"topics"`
	Data    json.RawMessage `json:"data"`
	Meta    Meta            `json:"meta"`
}

func convertFilter(ef *EventFilter) *eventdb.Filter {
	f := &eventdb.Filter{
		Address: ef.Address,
		Name:    ef.Name,
		Order:   ef.Order,
	}
	for _, c := range ef.CriteriaSet {
		f.TopicSet = append(f.TopicSet, c.topics())
	}
	if ef.Range != nil {
		r := &eventdb.Range{Unit: ef.Range.Unit, To: math.MaxInt64}
		if r.Unit == "" {
			r.Unit = eventdb.Revision
		}
		if ef.Range.From != nil {
			r.From = *ef.Range.From
		}
		if ef.Range.To != nil {
			r.To = *ef.Range.To
		}
		f.Range = r
	}
	if ef.Options != nil {
		f.Options = &eventdb.Options{Offset: ef.Options.Offset, Limit: ef.Options.Limit}
	}
	return f
}

func convertEvent(e *eventdb.Event) *FilteredEvent {
	fe := &FilteredEvent{
		Address: e.Address,
		Name:    e.Name,
		Data:    json.RawMessage(e.Data),
		Topics:  make([]thor.Bytes32, 0, eventdb.MaxTopics),
		Meta: Meta{
			Revision: e.Revision,
			Index:    e.Index,
			Time:     e.Time,
			TxID:     e.TxID,
			TxOrigin: e.TxOrigin,
		},
	}
	for _, t := range e.Topics {
		if t != nil {
			fe.Topics = append(fe.Topics, *t)
		}
	}
	if len(fe.Data) == 0 {
		fe.Data = json.RawMessage("null")
	}
	return fe
}
