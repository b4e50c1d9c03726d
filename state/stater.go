// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/subquery/network-ledger/cache"
	"github.com/subquery/network-ledger/kv"
	"github.com/subquery/network-ledger/sq"
)

// Stater creates states sharing one kv store and read cache.
type Stater struct {
	db    kv.Store
	cache *cache.LRU[string, []byte]
}

// NewStater creates a stater. cacheSize <= 0 disables the read cache.
func NewStater(db kv.Store, cacheSize int) *Stater {
	s := &Stater{db: db}
	if cacheSize > 0 {
		s.cache, _ = cache.NewLRU[string, []byte](cacheSize)
	}
	return s
}

// NewState creates a state at the given root.
func (s *Stater) NewState(root sq.Bytes32) *State {
	return New(s.db, root, s.cache)
}
