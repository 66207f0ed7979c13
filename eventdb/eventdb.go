// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/votemarket/log"
	"github.com/vechain/votemarket/thor"
)

var logger = log.WithContext("pkg", "eventdb")

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	revision INTEGER NOT NULL,
	eventIndex INTEGER NOT NULL,
	time INTEGER NOT NULL,
	txID BLOB NOT NULL,
	txOrigin BLOB NOT NULL,
	address BLOB NOT NULL,
	name TEXT NOT NULL,
	topic0 BLOB,
	topic1 BLOB,
	topic2 BLOB,
	topic3 BLOB,
	data BLOB,
	PRIMARY KEY (revision, eventIndex)
);
CREATE INDEX IF NOT EXISTS event_address_name ON event(address, name);
CREATE INDEX IF NOT EXISTS event_time ON event(time);`

const columns = "revision, eventIndex, time, txID, txOrigin, address, name, topic0, topic1, topic2, topic3, data"

// MaxTopics is the number of indexed topics per event.
const MaxTopics = 4

type RangeType string

const (
	Revision RangeType = "revision"
	Time     RangeType = "time"
)

type OrderType string

const (
	ASC  OrderType = "asc"
	DESC OrderType = "desc"
)

// Range bounds the query on revision or time, both ends inclusive. To below From means open ended.
type Range struct {
	Unit RangeType `json:"unit"`
	From uint64    `json:"from"`
	To   uint64    `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Event is an indexed contract event.
type Event struct {
	Revision uint64                   `json:"revision"`
	Index    uint32                   `json:"index"`
	Time     uint64                   `json:"time"`
	TxID     thor.Bytes32             `json:"txID"`
	TxOrigin thor.Address             `json:"txOrigin"`
	Address  thor.Address             `json:"address"`
	Name     string                   `json:"name"`
	Topics   [MaxTopics]*thor.Bytes32 `json:"topics"`
	Data     []byte                   `json:"data"`
}

// Filter selects events. Criteria in a TopicSet entry are ANDed, entries are ORed.
type Filter struct {
	Address  *thor.Address              `json:"address"`
	Name     string                     `json:"name"`
	TopicSet [][MaxTopics]*thor.Bytes32 `json:"topicSet"`
	Range    *Range                     `json:"range"`
	Options  *Options                   `json:"options"`
	Order    OrderType                  `json:"order"`
}

// EventDB manages indexed events.
type EventDB struct {
	path          string
	db            *sql.DB
	sqliteVersion string
}

// New opens an event db at path, creating the schema if needed.
func New(path string) (*EventDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open event db")
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(eventTableSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create event schema")
	}
	s, _, _ := sqlite3.Version()
	logger.Debug("event db opened", "path", path, "sqlite", s)
	return &EventDB{
		path:          path,
		db:            db,
		sqliteVersion: s,
	}, nil
}

// NewMem creates an in-memory event db.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Insert writes events in one transaction. Reinserting the same (revision, index) replaces it.
func (db *EventDB) Insert(events []*Event) (err error) {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO event(" + columns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err = stmt.Exec(
			ev.Revision,
			ev.Index,
			ev.Time,
			ev.TxID.Bytes(),
			ev.TxOrigin.Bytes(),
			ev.Address.Bytes(),
			ev.Name,
			topicValue(ev.Topics[0]),
			topicValue(ev.Topics[1]),
			topicValue(ev.Topics[2]),
			topicValue(ev.Topics[3]),
			ev.Data,
		); err != nil {
			return errors.Wrap(err, "insert event")
		}
	}
	return tx.Commit()
}

// Filter returns events matching filter. A nil filter matches everything.
func (db *EventDB) Filter(ctx context.Context, filter *Filter) ([]*Event, error) {
	if filter == nil {
		return db.query(ctx, "SELECT "+columns+" FROM event ORDER BY revision, eventIndex")
	}

	var (
		args  []any
		where strings.Builder
	)
	where.WriteString(" WHERE 1")
	if filter.Range != nil {
		col := "revision"
		if filter.Range.Unit == Time {
			col = "time"
		}
		where.WriteString(" AND " + col + " >= ?")
		args = append(args, filter.Range.From)
		if filter.Range.To >= filter.Range.From {
			where.WriteString(" AND " + col + " <= ?")
			args = append(args, filter.Range.To)
		}
	}
	if filter.Address != nil {
		where.WriteString(" AND address = ?")
		args = append(args, filter.Address.Bytes())
	}
	if filter.Name != "" {
		where.WriteString(" AND name = ?")
		args = append(args, filter.Name)
	}
	if len(filter.TopicSet) > 0 {
		where.WriteString(" AND (")
		for i, topics := range filter.TopicSet {
			if i > 0 {
				where.WriteString(" OR ")
			}
			where.WriteString("(1")
			for j, topic := range topics {
				if topic != nil {
					fmt.Fprintf(&where, " AND topic%d = ?", j)
					args = append(args, topic.Bytes())
				}
			}
			where.WriteString(")")
		}
		where.WriteString(")")
	}

	order := "ASC"
	if filter.Order == DESC {
		order = "DESC"
	}
	stmt := "SELECT " + columns + " FROM event" + where.String() +
		fmt.Sprintf(" ORDER BY revision %s, eventIndex %s", order, order)

	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.query(ctx, stmt, args...)
}

func (db *EventDB) query(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query events")
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			ev                 Event
			txID, origin, addr []byte
			topics             [MaxTopics][]byte
		)
		if err := rows.Scan(
			&ev.Revision,
			&ev.Index,
			&ev.Time,
			&txID,
			&origin,
			&addr,
			&ev.Name,
			&topics[0],
			&topics[1],
			&topics[2],
			&topics[3],
			&ev.Data,
		); err != nil {
			return nil, err
		}
		ev.TxID = thor.BytesToBytes32(txID)
		ev.TxOrigin = thor.BytesToAddress(origin)
		ev.Address = thor.BytesToAddress(addr)
		for i, topic := range topics {
			if len(topic) > 0 {
				h := thor.BytesToBytes32(topic)
				ev.Topics[i] = &h
			}
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Path returns the db location.
func (db *EventDB) Path() string {
	return db.path
}

// Close closes the db.
func (db *EventDB) Close() error {
	return db.db.Close()
}

func topicValue(topic *thor.Bytes32) []byte {
	if topic == nil {
		return nil
	}
	return topic.Bytes()
}
