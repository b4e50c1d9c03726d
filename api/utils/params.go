// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/subquery/network-ledger/ledger"
	"github.com/subquery/network-ledger/sq"
)

// Account parses a hex address or account name, failing with 400.
func Account(name, s string) (sq.Address, error) {
	addr, err := ledger.ParseAccount(s)
	if err != nil {
		return sq.Address{}, BadRequest(errors.WithMessage(err, name))
	}
	return addr, nil
}

// Accounts parses a list of accounts.
func Accounts(name string, list []string) ([]sq.Address, error) {
	out := make([]sq.Address, 0, len(list))
	for _, s := range list {
		addr, err := Account(name, s)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// Amount parses a decimal SQT amount.
func Amount(name, s string) (*big.Int, error) {
	v, err := sq.ParseSQT(s)
	if err != nil {
		return nil, BadRequest(errors.WithMessage(err, name))
	}
	return v, nil
}

// Deployment parses a 32 byte deployment id.
func Deployment(name, s string) (sq.Bytes32, error) {
	id, err := sq.ParseBytes32(s)
	if err != nil {
		return sq.Bytes32{}, BadRequest(errors.WithMessage(err, name))
	}
	return id, nil
}

// Uint parses a decimal unsigned integer.
func Uint(name, s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, BadRequest(errors.WithMessage(err, name))
	}
	return n, nil
}

// Var returns the named route variable.
func Var(req *http.Request, name string) string {
	return mux.Vars(req)[name]
}

// WriteReceipt answers a command: the receipt on success, the mapped error
// otherwise.
func WriteReceipt(w http.ResponseWriter, receipt *ledger.Receipt, err error) error {
	if err != nil {
		return CommandError(err)
	}
	return WriteJSON(w, receipt)
}

// FormatAmount renders base units as decimal SQT.
func FormatAmount(v *big.Int) string {
	return sq.FormatSQT(v)
}

// CommandBody is embedded by every command request. Caller names the
// account sending the command.
type CommandBody struct {
	Caller string `json:"caller"`
}

func (b *CommandBody) callerName() string { return b.Caller }

type commandRequest interface {
	callerName() string
}

// ParseCommand decodes a command request and resolves its caller.
func ParseCommand(req *http.Request, body commandRequest) (sq.Address, error) {
	if err := ParseJSON(req.Body, body); err != nil {
		return sq.Address{}, BadRequest(errors.WithMessage(err, "body"))
	}
	return Account("caller", body.callerName())
}
