// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/subquery/network-ledger/sq"
)

// Value is a single rlp encoded value stored at a fixed slot.
type Value[V any] struct {
	m *Mapping[String, V]
}

func NewValue[V any](context *Context, pos sq.Bytes32) *Value[V] {
	return &Value[V]{m: NewMapping[String, V](context, pos)}
}

func (v *Value[V]) Get() (V, error) { return v.m.Get("") }

func (v *Value[V]) Set(val V) error { return v.m.Set("", val) }

func (v *Value[V]) Clear() { v.m.Delete("") }
