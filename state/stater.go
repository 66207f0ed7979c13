// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/qianbin/directcache"

	"github.com/vechain/votemarket/kv"
)

const (
	storageBucket = kv.Bucket("s")
	metaBucket    = kv.Bucket("m")
)

var revisionKey = []byte("revision")

// Stater is the state creator. It owns the persistent storage and a
// shared read cache of committed slots.
type Stater struct {
	store    kv.Store
	storage  kv.Store
	meta     kv.Store
	cache    *directcache.Cache
	revision atomic.Uint64
}

// NewStater create a new stater. cacheSizeMB bounds the slot cache.
func NewStater(store kv.Store, cacheSizeMB int) (*Stater, error) {
	if cacheSizeMB < 1 {
		cacheSizeMB = 1
	}
	s := &Stater{
		store:   store,
		storage: storageBucket.NewStore(store),
		meta:    metaBucket.NewStore(store),
		cache:   directcache.New(cacheSizeMB * 1024 * 1024),
	}

	data, err := s.meta.Get(revisionKey)
	if err != nil {
		if !s.meta.IsNotFound(err) {
			return nil, errors.Wrap(err, "load revision")
		}
	} else {
		s.revision.Store(binary.BigEndian.Uint64(data))
	}
	return s, nil
}

// NewState create a new state object over the latest committed data.
func (s *Stater) NewState() *State {
	return newState(s)
}

// Revision returns the number of commits so far.
func (s *Stater) Revision() uint64 {
	return s.revision.Load()
}

func (s *Stater) load(key []byte) ([]byte, error) {
	var (
		val []byte
		hit bool
	)
	if s.cache.AdvGet(key, func(v []byte) {
		val = append([]byte(nil), v...)
		hit = true
	}, false) && hit {
		metricCacheHit().AddWithLabel(1, map[string]string{"result": "hit"})
		return val, nil
	}
	metricCacheHit().AddWithLabel(1, map[string]string{"result": "miss"})

	val, err := s.storage.Get(key)
	if err != nil {
		if s.storage.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	_ = s.cache.Set(key, val)
	return val, nil
}
