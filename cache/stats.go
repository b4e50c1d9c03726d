// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"sync/atomic"

	"github.com/subquery/network-ledger/metrics"
)

var metricHitRate = metrics.LazyLoadGaugeVec("cache_hit_rate_permill", []string{"cache"})

// Stats counts cache hits and misses.
type Stats struct {
	hit, miss atomic.Int64
	lastRate  atomic.Int64
}

func (cs *Stats) Hit() int64 { return cs.hit.Add(1) }

func (cs *Stats) Miss() int64 { return cs.miss.Add(1) }

// Stats returns hits and misses, and whether the hit rate (in per mill)
// moved since the previous call.
func (cs *Stats) Stats() (changed bool, hit, miss int64) {
	hit, miss = cs.hit.Load(), cs.miss.Load()
	rate := int64(0)
	if lookups := hit + miss; lookups > 0 {
		rate = hit * 1000 / lookups
	}
	return cs.lastRate.Swap(rate) != rate, hit, miss
}

// Publish exports the hit rate under the given cache name if it changed.
func (cs *Stats) Publish(name string) {
	if changed, _, _ := cs.Stats(); changed {
		metricHitRate().SetWithLabel(cs.lastRate.Load(), map[string]string{"cache": name})
	}
}
