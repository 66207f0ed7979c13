// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// Stage abstracts changes on the committed storage.
type Stage struct {
	stater  *Stater
	changes map[storageKey]rlp.RawValue
}

// Len returns the count of changed slots.
func (s *Stage) Len() int {
	return len(s.changes)
}

// Commit writes all changes atomically and returns the new revision.
func (s *Stage) Commit() (uint64, error) {
	stater := s.stater
	bulk := stater.store.Bulk()
	storage := storageBucket.NewPutter(bulk)
	for k, v := range s.changes {
		key := k.bytes()
		if len(v) == 0 {
			if err := storage.Delete(key); err != nil {
				return 0, err
			}
		} else if err := storage.Put(key, v); err != nil {
			return 0, err
		}
	}
	rev := stater.revision.Load() + 1
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], rev)
	if err := metaBucket.NewPutter(bulk).Put(revisionKey, buf[:]); err != nil {
		return 0, err
	}
	if err := bulk.Write(); err != nil {
		return 0, errors.Wrap(err, "commit storage")
	}

	// refresh cached slots after the write succeeded
	for k, v := range s.changes {
		key := k.bytes()
		if len(v) == 0 {
			stater.cache.Del(key)
		} else {
			_ = stater.cache.Set(key, v)
		}
	}
	stater.revision.Store(rev)
	metricCommittedSlots().Add(int64(len(s.changes)))
	return rev, nil
}
