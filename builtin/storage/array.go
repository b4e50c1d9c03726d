// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"errors"

	"github.com/subquery/network-ledger/sq"
)

var errOutOfRange = errors.New("array index out of range")

// Array is a dynamic array. The length lives at the base slot and the
// elements in a mapping keyed by index.
type Array[V any] struct {
	length *Uint256
	items  *Mapping[Uint64, V]
}

func NewArray[V any](context *Context, pos sq.Bytes32) *Array[V] {
	return &Array[V]{
		length: NewUint256(context, pos),
		items:  NewMapping[Uint64, V](context, sq.Blake2b(pos.Bytes(), []byte("items"))),
	}
}

func (a *Array[V]) Len() (uint64, error) { return a.length.Uint64() }

func (a *Array[V]) Get(i uint64) (v V, err error) {
	n, err := a.Len()
	if err != nil {
		return v, err
	}
	if i >= n {
		return v, errOutOfRange
	}
	return a.items.Get(Uint64(i))
}

func (a *Array[V]) Set(i uint64, v V) error {
	n, err := a.Len()
	if err != nil {
		return err
	}
	if i >= n {
		return errOutOfRange
	}
	return a.items.Set(Uint64(i), v)
}

// Push appends v and returns its index.
func (a *Array[V]) Push(v V) (uint64, error) {
	n, err := a.Len()
	if err != nil {
		return 0, err
	}
	if err := a.items.Set(Uint64(n), v); err != nil {
		return 0, err
	}
	a.length.SetUint64(n + 1)
	return n, nil
}

// SwapRemove removes index i by moving the last element into its place.
func (a *Array[V]) SwapRemove(i uint64) error {
	n, err := a.Len()
	if err != nil {
		return err
	}
	if i >= n {
		return errOutOfRange
	}
	if last := n - 1; i != last {
		v, err := a.items.Get(Uint64(last))
		if err != nil {
			return err
		}
		if err := a.items.Set(Uint64(i), v); err != nil {
			return err
		}
	}
	a.items.Delete(Uint64(n - 1))
	a.length.SetUint64(n - 1)
	return nil
}

// All returns every element in order.
func (a *Array[V]) All() ([]V, error) {
	n, err := a.Len()
	if err != nil {
		return nil, err
	}
	out := make([]V, 0, n)
	for i := range n {
		v, err := a.items.Get(Uint64(i))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
