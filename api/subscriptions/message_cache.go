// Copyright (c) 2024 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"encoding/json"
	"sync"

	"github.com/subquery/network-ledger/cache"
	"github.com/subquery/network-ledger/logdb"
)

const maxMessageCacheSize = 1000

// messageCache holds encoded event messages by sequence, so concurrent
// subscribers following the same tail encode each event once.
type messageCache struct {
	mu    sync.Mutex // serializes encoding of missing entries
	cache *cache.LRU[int64, []byte]
}

func newMessageCache(size int) *messageCache {
	size = min(max(size, 1), maxMessageCacheSize)
	// size is at least 1, the only case NewLRU rejects
	c, _ := cache.NewLRU[int64, []byte](size)
	return &messageCache{cache: c}
}

// GetOrAdd returns the message of the event, encoding and caching it when
// absent. The second return value reports whether it was newly encoded.
func (mc *messageCache) GetOrAdd(ev *logdb.Event) ([]byte, bool, error) {
	if msg, ok := mc.cache.Get(ev.Seq); ok {
		return msg, false, nil
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()
	if msg, ok := mc.cache.Get(ev.Seq); ok {
		return msg, false, nil
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		return nil, false, err
	}
	mc.cache.Add(ev.Seq, msg)
	mc.cache.Stats().Publish("subscriptions")
	return msg, true, nil
}
