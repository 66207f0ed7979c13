// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// LRU is a typed, size bounded cache.
type LRU[K comparable, V any] struct {
	name  string
	cache *lru.Cache
	load  sync.Mutex
	stats Stats
}

// NewLRU creates a cache of at most size entries. name labels its hit rate metric.
func NewLRU[K comparable, V any](name string, size int) (*LRU[K, V], error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrapf(err, "new lru %s", name)
	}
	return &LRU[K, V]{name: name, cache: c}, nil
}

// Get returns the cached value of key.
func (l *LRU[K, V]) Get(key K) (V, bool) {
	if v, ok := l.cache.Get(key); ok {
		l.hit()
		return v.(V), true
	}
	l.miss()
	var zero V
	return zero, false
}

// Add caches value under key.
func (l *LRU[K, V]) Add(key K, value V) {
	l.cache.Add(key, value)
}

// Remove drops key.
func (l *LRU[K, V]) Remove(key K) {
	l.cache.Remove(key)
}

// Purge drops everything.
func (l *LRU[K, V]) Purge() {
	l.cache.Purge()
}

// Len returns the number of cached entries.
func (l *LRU[K, V]) Len() int {
	return l.cache.Len()
}

// GetOrLoad returns the cached value or loads, caches and returns it.
// Concurrent misses on any key load one at a time. Load errors are not cached.
func (l *LRU[K, V]) GetOrLoad(key K, load func(K) (V, error)) (V, error) {
	if v, ok := l.cache.Get(key); ok {
		l.hit()
		return v.(V), nil
	}

	l.load.Lock()
	defer l.load.Unlock()
	if v, ok := l.cache.Get(key); ok {
		l.hit()
		return v.(V), nil
	}
	l.miss()
	v, err := load(key)
	if err != nil {
		var zero V
		return zero, err
	}
	l.cache.Add(key, v)
	return v, nil
}

// Stats returns hits and misses so far.
func (l *LRU[K, V]) Stats() (hit, miss int64) {
	_, hit, miss = l.stats.Stats()
	return
}

func (l *LRU[K, V]) hit() {
	l.stats.Hit()
	metricCacheLookups().AddWithLabel(1, map[string]string{"cache": l.name, "result": "hit"})
}

func (l *LRU[K, V]) miss() {
	l.stats.Miss()
	metricCacheLookups().AddWithLabel(1, map[string]string{"cache": l.name, "result": "miss"})
}
