// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package inflation

import (
	"math/big"

	"github.com/subquery/network-ledger/builtin/params"
	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/builtin/storage"
	"github.com/subquery/network-ledger/builtin/token"
	"github.com/subquery/network-ledger/log"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/xenv"
)

var logger = log.WithContext("pkg", "inflation")

var (
	slotDestination = storage.Slot("inflation-destination")
	slotLastMint    = storage.Slot("last-inflation-time")

	bigYearPerMill = new(big.Int).Mul(big.NewInt(sq.YearSeconds), sq.BigPerMill)
)

// Controller mints the yearly inflation in per era installments.
type Controller struct {
	addr        sq.Address
	env         *xenv.Environment
	params      *params.Params
	token       *token.Token
	destination *storage.Address
	lastMint    *storage.Uint256
}

func New(addr sq.Address, env *xenv.Environment, params *params.Params, token *token.Token) *Controller {
	sctx := storage.NewContext(addr, env.State())
	return &Controller{
		addr:        addr,
		env:         env,
		params:      params,
		token:       token,
		destination: storage.NewAddress(sctx, slotDestination),
		lastMint:    storage.NewUint256(sctx, slotLastMint),
	}
}

// Initialize sets the destination and starts the inflation clock at now.
func (c *Controller) Initialize(destination sq.Address) {
	c.destination.Set(destination)
	c.lastMint.SetUint64(c.env.Now())
}

func (c *Controller) InflationRate() (uint64, error) {
	return c.params.GetUint64(params.KeyInflationRate)
}

func (c *Controller) InflationDestination() (sq.Address, error) {
	return c.destination.Get()
}

func (c *Controller) SetInflationRate(rate uint64) error {
	if err := c.params.RequireOwner(c.env.Caller()); err != nil {
		return err
	}
	if rate > sq.PerMill {
		return reverts.New("IC001", "inflation rate can not exceed the per mill base")
	}
	return c.params.Set(params.KeyInflationRate, new(big.Int).SetUint64(rate))
}

func (c *Controller) SetInflationDestination(dest sq.Address) error {
	if err := c.params.RequireOwner(c.env.Caller()); err != nil {
		return err
	}
	c.destination.Set(dest)
	return nil
}

// MintInflatedTokens mints supply*rate*elapsed/(1e6*YEAR) to the destination,
// where elapsed is the time since the previous installment. It is simple
// interest on the supply at mint time.
func (c *Controller) MintInflatedTokens(era uint64) error {
	rate, err := c.InflationRate()
	if err != nil {
		return err
	}
	last, err := c.lastMint.Uint64()
	if err != nil {
		return err
	}
	now := c.env.Now()
	c.lastMint.SetUint64(now)
	if rate == 0 || last == 0 || now <= last {
		return nil
	}

	supply, err := c.token.TotalSupply()
	if err != nil {
		return err
	}
	amount := new(big.Int).Mul(supply, new(big.Int).SetUint64(rate))
	amount.Mul(amount, new(big.Int).SetUint64(now-last))
	amount.Quo(amount, bigYearPerMill)

	dest, err := c.destination.Get()
	if err != nil {
		return err
	}
	if err := c.token.Mint(dest, amount); err != nil {
		return err
	}
	logger.Debug("inflation minted", "era", era, "amount", amount, "to", dest)
	return c.env.Log(c.addr, "InflationMinted", []sq.Address{dest}, map[string]any{
		"era":    era,
		"amount": amount.String(),
	})
}

// MintSQT lets the owner mint arbitrary amounts.
func (c *Controller) MintSQT(to sq.Address, amount *big.Int) error {
	if err := c.params.RequireOwner(c.env.Caller()); err != nil {
		return err
	}
	return c.token.Mint(to, amount)
}
