// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package scenario

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/subquery/network-ledger/ledger"
	"github.com/subquery/network-ledger/sq"
)

// args are the string arguments of a command step.
type args map[string]string

func (a args) get(key string) (string, error) {
	v, ok := a[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", errors.Errorf("arg %q required", key)
	}
	return v, nil
}

func (a args) account(key string) (sq.Address, error) {
	v, err := a.get(key)
	if err != nil {
		return sq.Address{}, err
	}
	addr, err := ledger.ParseAccount(v)
	return addr, errors.WithMessagef(err, "arg %q", key)
}

// accounts reads a comma separated account list.
func (a args) accounts(key string) ([]sq.Address, error) {
	v, err := a.get(key)
	if err != nil {
		return nil, err
	}
	var out []sq.Address
	for _, s := range strings.Split(v, ",") {
		addr, err := ledger.ParseAccount(s)
		if err != nil {
			return nil, errors.WithMessagef(err, "arg %q", key)
		}
		out = append(out, addr)
	}
	return out, nil
}

func (a args) amount(key string) (*big.Int, error) {
	v, err := a.get(key)
	if err != nil {
		return nil, err
	}
	amount, err := sq.ParseSQT(v)
	return amount, errors.WithMessagef(err, "arg %q", key)
}

func (a args) uint(key string) (uint64, error) {
	v, err := a.get(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	return n, errors.Wrapf(err, "arg %q", key)
}

// uintOr reads an optional integer.
func (a args) uintOr(key string, def uint64) (uint64, error) {
	if _, ok := a[key]; !ok {
		return def, nil
	}
	return a.uint(key)
}

func (a args) bool(key string) (bool, error) {
	v, err := a.get(key)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return b, errors.Wrapf(err, "arg %q", key)
}

func (a args) deployment(key string) (sq.Bytes32, error) {
	v, err := a.get(key)
	if err != nil {
		return sq.Bytes32{}, err
	}
	return ParseDeployment(v)
}

// ParseDeployment accepts a 32 byte hex id or a name, which maps to the
// blake2b hash of the name.
func ParseDeployment(s string) (sq.Bytes32, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return sq.ParseBytes32(s)
	}
	if s == "" {
		return sq.Bytes32{}, errors.New("empty deployment")
	}
	return sq.Blake2b([]byte(s)), nil
}
