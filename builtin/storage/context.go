// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/state"
)

// Context binds a builtin service to its storage account.
type Context struct {
	address sq.Address
	state   *state.State
}

func NewContext(address sq.Address, state *state.State) *Context {
	return &Context{address: address, state: state}
}

func (c *Context) Address() sq.Address { return c.address }

func (c *Context) State() *state.State { return c.state }

// Slot derives a named top level slot.
func Slot(name string) sq.Bytes32 {
	return sq.BytesToBytes32([]byte(name))
}
