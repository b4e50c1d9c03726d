// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/subquery/network-ledger/builtin/allocation"
	"github.com/subquery/network-ledger/builtin/booster"
	"github.com/subquery/network-ledger/builtin/commission"
	"github.com/subquery/network-ledger/builtin/era"
	"github.com/subquery/network-ledger/builtin/inflation"
	"github.com/subquery/network-ledger/builtin/params"
	"github.com/subquery/network-ledger/builtin/registry"
	"github.com/subquery/network-ledger/builtin/rewards"
	"github.com/subquery/network-ledger/builtin/rewardspool"
	"github.com/subquery/network-ledger/builtin/staking"
	"github.com/subquery/network-ledger/builtin/token"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/xenv"
)

// Builtin service addresses.
var (
	ParamsAddress      = sq.NamedAddress("Params")
	TokenAddress       = sq.NamedAddress("SQToken")
	EraAddress         = sq.NamedAddress("EraManager")
	InflationAddress   = sq.NamedAddress("InflationController")
	CommissionAddress  = sq.NamedAddress("IndexerRegistry")
	StakingAddress     = sq.NamedAddress("Staking")
	RewardsAddress     = sq.NamedAddress("RewardsDistributor")
	AllocationAddress  = sq.NamedAddress("StakingAllocation")
	BoosterAddress     = sq.NamedAddress("RewardsBooster")
	RewardsPoolAddress = sq.NamedAddress("RewardsPool")
	RegistryAddress    = sq.NamedAddress("RunnerRegistry")
)

// Contracts binds every builtin service to one environment.
type Contracts struct {
	Env         *xenv.Environment
	Params      *params.Params
	Token       *token.Token
	Era         *era.Clock
	Inflation   *inflation.Controller
	Commission  *commission.Registry
	Staking     *staking.Staking
	Rewards     *rewards.Rewards
	Allocation  *allocation.Allocation
	Booster     *booster.Booster
	RewardsPool *rewardspool.Pool
	Registry    *registry.Registry
}

// New builds the services over env and wires their hooks.
func New(env *xenv.Environment) *Contracts {
	st := env.State()
	c := &Contracts{Env: env}
	c.Params = params.New(ParamsAddress, st)
	c.Token = token.New(TokenAddress, st)
	c.Era = era.New(EraAddress, env, c.Params)
	c.Inflation = inflation.New(InflationAddress, env, c.Params, c.Token)
	c.Commission = commission.New(CommissionAddress, env, c.Params, c.Era)
	c.Staking = staking.New(StakingAddress, env, c.Params, c.Token, c.Era)
	c.Rewards = rewards.New(RewardsAddress, env, c.Params, c.Token, c.Era, c.Commission, c.Staking)
	c.Allocation = allocation.New(AllocationAddress, env, c.Params, c.Staking)
	c.Booster = booster.New(BoosterAddress, env, c.Params, c.Token, c.Era, c.Rewards, c.Allocation)
	c.Registry = registry.New(RegistryAddress, env, c.Params, c.Staking, c.Commission, c.Rewards, c.Allocation)
	c.RewardsPool = rewardspool.New(RewardsPoolAddress, env, c.Params, c.Token, c.Era, c.Rewards, c.Registry)

	c.Era.OnNewEra(c.Inflation.MintInflatedTokens)
	c.Staking.Bind(c.Registry, c.Rewards)
	c.Rewards.Bind(c.Registry, c.Allocation)
	c.Allocation.Bind(c.Registry, c.Booster)
	return c
}

// Genesis is the initial configuration of a ledger.
type Genesis struct {
	Owner                sq.Address
	Treasury             sq.Address
	Reporter             sq.Address
	Spender              sq.Address
	LaborSource          sq.Address
	InflationDestination sq.Address
	EraPeriod            uint64
	Params               map[sq.Bytes32]*big.Int
	Balances             map[sq.Address]*big.Int
}

// Initialize writes the genesis state. It runs once, before any command.
func (c *Contracts) Initialize(g *Genesis) error {
	roles := []struct {
		key  sq.Bytes32
		addr sq.Address
	}{
		{params.KeyOwner, g.Owner},
		{params.KeyTreasury, g.Treasury},
		{params.KeyReporter, g.Reporter},
		{params.KeySpender, g.Spender},
		{params.KeyLaborSource, g.LaborSource},
	}
	for _, r := range roles {
		if r.addr.IsZero() {
			continue
		}
		if err := c.Params.SetRole(r.key, r.addr); err != nil {
			return errors.Wrap(err, "set role")
		}
	}
	for key, v := range g.Params {
		if err := c.Params.Set(key, v); err != nil {
			return errors.Wrap(err, "set param")
		}
	}
	for addr, v := range g.Balances {
		if err := c.Token.Mint(addr, v); err != nil {
			return errors.Wrap(err, "mint genesis balance")
		}
	}
	c.Era.Initialize(g.EraPeriod)
	dest := g.InflationDestination
	if dest.IsZero() {
		dest = g.Treasury
	}
	c.Inflation.Initialize(dest)
	return nil
}
