// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/subquery/network-ledger/sq"
)

// Address is an address stored at a fixed slot.
type Address struct {
	context *Context
	pos     sq.Bytes32
}

func NewAddress(context *Context, pos sq.Bytes32) *Address {
	return &Address{context: context, pos: pos}
}

func (a *Address) Get() (sq.Address, error) {
	word, err := a.context.state.GetStorage(a.context.address, a.pos)
	if err != nil {
		return sq.Address{}, err
	}
	return sq.BytesToAddress(word.Bytes()), nil
}

func (a *Address) Set(addr sq.Address) {
	a.context.state.SetStorage(a.context.address, a.pos, sq.BytesToBytes32(addr.Bytes()))
}
