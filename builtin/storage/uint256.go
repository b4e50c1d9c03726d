// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"errors"
	"math/big"

	"github.com/subquery/network-ledger/sq"
)

var errUnderflow = errors.New("uint256 underflow")

// Uint256 is a single unsigned word stored at a fixed slot. Values exceeding
// 256 bits are truncated.
type Uint256 struct {
	context *Context
	pos     sq.Bytes32
}

func NewUint256(context *Context, slot sq.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: slot}
}

func (u *Uint256) Get() (*big.Int, error) {
	word, err := u.context.state.GetStorage(u.context.address, u.pos)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(word.Bytes()), nil
}

func (u *Uint256) Set(value *big.Int) {
	u.context.state.SetStorage(u.context.address, u.pos, sq.BytesToBytes32(value.Bytes()))
}

func (u *Uint256) Add(delta *big.Int) error {
	v, err := u.Get()
	if err != nil {
		return err
	}
	u.Set(v.Add(v, delta))
	return nil
}

// Sub subtracts delta, failing rather than wrapping below zero.
func (u *Uint256) Sub(delta *big.Int) error {
	v, err := u.Get()
	if err != nil {
		return err
	}
	if v.Cmp(delta) < 0 {
		return errUnderflow
	}
	u.Set(v.Sub(v, delta))
	return nil
}

// Uint64 is a convenience for counters that never exceed 64 bits.
func (u *Uint256) Uint64() (uint64, error) {
	v, err := u.Get()
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

func (u *Uint256) SetUint64(v uint64) {
	u.Set(new(big.Int).SetUint64(v))
}
