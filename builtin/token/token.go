// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/builtin/storage"
	"github.com/subquery/network-ledger/log"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/state"
)

var logger = log.WithContext("pkg", "token")

var (
	slotTotalSupply = storage.Slot("total-supply")
	slotTotalMinted = storage.Slot("total-minted")
	slotTotalBurned = storage.Slot("total-burned")
)

// Token is the SQT ledger. Balances live on state accounts, aggregates in
// the token's own storage.
type Token struct {
	state       *state.State
	totalSupply *storage.Uint256
	totalMinted *storage.Uint256
	totalBurned *storage.Uint256
}

func New(addr sq.Address, state *state.State) *Token {
	sctx := storage.NewContext(addr, state)
	return &Token{
		state:       state,
		totalSupply: storage.NewUint256(sctx, slotTotalSupply),
		totalMinted: storage.NewUint256(sctx, slotTotalMinted),
		totalBurned: storage.NewUint256(sctx, slotTotalBurned),
	}
}

func (t *Token) BalanceOf(addr sq.Address) (*big.Int, error) {
	return t.state.GetBalance(addr)
}

func (t *Token) TotalSupply() (*big.Int, error) { return t.totalSupply.Get() }

func (t *Token) TotalMinted() (*big.Int, error) { return t.totalMinted.Get() }

func (t *Token) TotalBurned() (*big.Int, error) { return t.totalBurned.Get() }

// Transfer moves amount from one account to another.
func (t *Token) Transfer(from, to sq.Address, amount *big.Int) error {
	if amount.Sign() == 0 || from == to {
		return nil
	}
	if amount.Sign() < 0 {
		return errors.New("negative transfer")
	}
	fromBal, err := t.state.GetBalance(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return reverts.Newf("T001", "transfer amount exceeds balance of %v", from)
	}
	toBal, err := t.state.GetBalance(to)
	if err != nil {
		return err
	}
	if err := t.state.SetBalance(from, fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	return t.state.SetBalance(to, toBal.Add(toBal, amount))
}

// Mint creates amount new tokens for to.
func (t *Token) Mint(to sq.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return nil
	}
	bal, err := t.state.GetBalance(to)
	if err != nil {
		return err
	}
	if err := t.state.SetBalance(to, bal.Add(bal, amount)); err != nil {
		return err
	}
	if err := t.totalSupply.Add(amount); err != nil {
		return err
	}
	logger.Trace("minted", "to", to, "amount", amount)
	return t.totalMinted.Add(amount)
}

// Burn destroys amount tokens held by from.
func (t *Token) Burn(from sq.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return nil
	}
	bal, err := t.state.GetBalance(from)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return reverts.Newf("T002", "burn amount exceeds balance of %v", from)
	}
	if err := t.state.SetBalance(from, bal.Sub(bal, amount)); err != nil {
		return err
	}
	if err := t.totalSupply.Sub(amount); err != nil {
		return errors.Wrap(err, "burn")
	}
	logger.Trace("burned", "from", from, "amount", amount)
	return t.totalBurned.Add(amount)
}
