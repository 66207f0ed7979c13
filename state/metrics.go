// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import "github.com/vechain/votemarket/metrics"

var (
	metricCacheHit       = metrics.LazyLoadCounterVec("state_cache_count", []string{"result"})
	metricCommittedSlots = metrics.LazyLoadCounter("state_committed_slots_count")
)
