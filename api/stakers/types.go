// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakers

import (
	"github.com/subquery/network-ledger/api/utils"
	"github.com/subquery/network-ledger/sq"
)

type Delegation struct {
	Runner     sq.Address `json:"runner"`
	Era        uint64     `json:"era"`
	ValueAt    string     `json:"valueAt"`
	ValueAfter string     `json:"valueAfter"`
}

type Unbonding struct {
	ID        uint64     `json:"id"`
	Runner    sq.Address `json:"runner"`
	Amount    string     `json:"amount"`
	StartTime uint64     `json:"startTime"`
}

type Account struct {
	Address sq.Address `json:"address"`
	Balance string     `json:"balance"`
}

type delegateRequest struct {
	utils.CommandBody
	Runner string `json:"runner"`
	Amount string `json:"amount"`
}

type redelegateRequest struct {
	utils.CommandBody
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type cancelRequest struct {
	utils.CommandBody
	ID uint64 `json:"id"`
}

type transferRequest struct {
	utils.CommandBody
	To     string `json:"to"`
	Amount string `json:"amount"`
}
