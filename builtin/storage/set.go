// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/subquery/network-ledger/sq"
)

// IndexedSet is an unordered set with O(1) add, remove and membership.
// Removal moves the last member into the freed slot.
type IndexedSet[V Key] struct {
	items *Array[V]
	index *Mapping[V, uint64] // position + 1
}

func NewIndexedSet[V Key](context *Context, pos sq.Bytes32) *IndexedSet[V] {
	return &IndexedSet[V]{
		items: NewArray[V](context, pos),
		index: NewMapping[V, uint64](context, sq.Blake2b(pos.Bytes(), []byte("index"))),
	}
}

func (s *IndexedSet[V]) Contains(v V) (bool, error) {
	i, err := s.index.Get(v)
	return i > 0, err
}

// Add inserts v and reports whether it was absent.
func (s *IndexedSet[V]) Add(v V) (bool, error) {
	if ok, err := s.Contains(v); err != nil || ok {
		return false, err
	}
	n, err := s.items.Push(v)
	if err != nil {
		return false, err
	}
	return true, s.index.Set(v, n+1)
}

// Remove deletes v and reports whether it was present.
func (s *IndexedSet[V]) Remove(v V) (bool, error) {
	i, err := s.index.Get(v)
	if err != nil || i == 0 {
		return false, err
	}
	n, err := s.items.Len()
	if err != nil {
		return false, err
	}
	if last := n - 1; i-1 != last {
		moved, err := s.items.Get(last)
		if err != nil {
			return false, err
		}
		if err := s.index.Set(moved, i); err != nil {
			return false, err
		}
	}
	if err := s.items.SwapRemove(i - 1); err != nil {
		return false, err
	}
	s.index.Delete(v)
	return true, nil
}

func (s *IndexedSet[V]) Len() (uint64, error) { return s.items.Len() }

func (s *IndexedSet[V]) At(i uint64) (V, error) { return s.items.Get(i) }

func (s *IndexedSet[V]) All() ([]V, error) { return s.items.All() }
