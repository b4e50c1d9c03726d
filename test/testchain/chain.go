// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package testchain

import (
	"math/big"

	"github.com/subquery/network-ledger/builtin"
	"github.com/subquery/network-ledger/lvldb"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/state"
	"github.com/subquery/network-ledger/xenv"
)

const (
	Day = uint64(24 * 3600)

	// GenesisTime is the block time the default chain starts at.
	GenesisTime = uint64(1_700_000_000)
)

// Well known accounts of the default chain.
var (
	Owner       = sq.NamedAddress("owner")
	Treasury    = sq.NamedAddress("treasury")
	Reporter    = sq.NamedAddress("reporter")
	Spender     = sq.NamedAddress("spender")
	LaborSource = sq.NamedAddress("labor-source")
)

// Chain is an in memory ledger driving the builtin services command by
// command, the way the executor does.
type Chain struct {
	db        *lvldb.LevelDB
	state     *state.State
	block     *xenv.BlockContext
	cmd       *xenv.CommandContext
	env       *xenv.Environment
	contracts *builtin.Contracts
}

// DefaultGenesis funds the owner and the labor source and starts with
// one day eras.
func DefaultGenesis() *builtin.Genesis {
	return &builtin.Genesis{
		Owner:       Owner,
		Treasury:    Treasury,
		Reporter:    Reporter,
		Spender:     Spender,
		LaborSource: LaborSource,
		EraPeriod:   Day,
		Balances: map[sq.Address]*big.Int{
			Owner:       sq.SQT(10_000_000),
			LaborSource: sq.SQT(1_000_000),
		},
	}
}

func New(gene *builtin.Genesis) (*Chain, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	st := state.New(db, sq.Bytes32{}, nil)
	block := &xenv.BlockContext{Number: 1, Time: GenesisTime}
	cmd := &xenv.CommandContext{Origin: gene.Owner}
	env := xenv.New(st, block, cmd)
	c := &Chain{
		db:        db,
		state:     st,
		block:     block,
		cmd:       cmd,
		env:       env,
		contracts: builtin.New(env),
	}
	if err := c.contracts.Initialize(gene); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func NewDefault() (*Chain, error) {
	return New(DefaultGenesis())
}

func (c *Chain) Close() error { return c.db.Close() }

func (c *Chain) State() *state.State { return c.state }

func (c *Chain) Contracts() *builtin.Contracts { return c.contracts }

func (c *Chain) Env() *xenv.Environment { return c.env }

func (c *Chain) Now() uint64 { return c.block.Time }

func (c *Chain) BlockNumber() uint64 { return c.block.Number }

// Travel moves the clock forward by secs and mints one block.
func (c *Chain) Travel(secs uint64) {
	c.block.Time += secs
	c.block.Number++
}

// MintBlocks advances the block number without moving the clock.
func (c *Chain) MintBlocks(n uint64) {
	c.block.Number += n
}

// Exec runs fn as a command sent by caller. State and events are rolled
// back when fn fails.
func (c *Chain) Exec(caller sq.Address, fn func(*builtin.Contracts) error) error {
	c.cmd.Origin = caller
	cp := c.state.NewCheckpoint()
	ecp := c.env.EventCheckpoint()
	if err := fn(c.contracts); err != nil {
		c.state.RevertTo(cp)
		c.env.RevertEvents(ecp)
		return err
	}
	return nil
}

// Fund transfers amount from the owner to each account.
func (c *Chain) Fund(amount *big.Int, accounts ...sq.Address) error {
	for _, acc := range accounts {
		if err := c.contracts.Token.Transfer(Owner, acc, amount); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chain) Balance(addr sq.Address) (*big.Int, error) {
	return c.contracts.Token.BalanceOf(addr)
}

// StartEras starts the era clock and advances it n eras.
func (c *Chain) StartEras(n int) error {
	for i := 0; i < n; i++ {
		if i > 0 {
			period, err := c.contracts.Era.EraPeriod()
			if err != nil {
				return err
			}
			c.Travel(period)
		}
		if err := c.Exec(Owner, func(b *builtin.Contracts) error { return b.Era.StartNewEra() }); err != nil {
			return err
		}
	}
	return nil
}

// RegisterRunner funds and registers runner with a default stake.
func (c *Chain) RegisterRunner(runner sq.Address, stake *big.Int, rate uint64) error {
	if err := c.Fund(stake, runner); err != nil {
		return err
	}
	return c.Exec(runner, func(b *builtin.Contracts) error {
		return b.Registry.RegisterRunner(stake, rate, sq.Blake2b(runner.Bytes()))
	})
}
