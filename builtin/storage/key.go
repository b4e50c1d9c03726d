// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"encoding/binary"

	"github.com/subquery/network-ledger/sq"
)

// Key is anything that can address a mapping entry.
type Key interface {
	Bytes() []byte
}

// Uint64 is a numeric key, eras and indexes mostly.
type Uint64 uint64

func (k Uint64) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(k))
}

// String is a textual key.
type String string

func (k String) Bytes() []byte { return []byte(k) }

// Pair is a composite key of two keys.
type Pair[A, B Key] struct {
	A A
	B B
}

func PairOf[A, B Key](a A, b B) Pair[A, B] { return Pair[A, B]{a, b} }

func (p Pair[A, B]) Bytes() []byte {
	a, b := p.A.Bytes(), p.B.Bytes()
	out := make([]byte, 0, len(a)+len(b)+1)
	out = append(out, a...)
	out = append(out, byte(len(a)))
	return append(out, b...)
}

// Derive returns the base position of a structure nested under pos for key.
func Derive(pos sq.Bytes32, key Key) sq.Bytes32 {
	return sq.Blake2b(pos.Bytes(), []byte{'/'}, key.Bytes())
}
