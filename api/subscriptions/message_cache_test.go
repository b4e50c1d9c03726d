// Copyright (c) 2024 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subquery/network-ledger/logdb"
	"github.com/subquery/network-ledger/sq"
)

func TestMessageCacheEncodesOnce(t *testing.T) {
	mc := newMessageCache(10)
	ev := &logdb.Event{Seq: 1, Name: "Delegate", Emitter: sq.NamedAddress("staking")}

	var (
		added atomic.Int32
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, isNew, err := mc.GetOrAdd(ev)
			assert.NoError(t, err)
			if isNew {
				added.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	assert.Equal(t, int32(1), added.Load())

	msg, isNew, err := mc.GetOrAdd(&logdb.Event{Seq: 2, Name: "Claim"})
	require.NoError(t, err)
	assert.True(t, isNew)
	var decoded logdb.Event
	require.NoError(t, json.Unmarshal(msg, &decoded))
	assert.Equal(t, int64(2), decoded.Seq)
	assert.Equal(t, "Claim", decoded.Name)
	assert.Equal(t, 2, mc.cache.Len())
}

func TestMessageCacheSizeBounds(t *testing.T) {
	for _, tt := range []struct{ size, want int }{{0, 1}, {-5, 1}, {3, 3}, {5000, maxMessageCacheSize}} {
		mc := newMessageCache(tt.size)
		for i := range tt.want + 2 {
			_, _, err := mc.GetOrAdd(&logdb.Event{Seq: int64(i)})
			require.NoError(t, err)
		}
		assert.Equal(t, tt.want, mc.cache.Len(), "size %d", tt.size)
	}
}
