// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package booster

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/subquery/network-ledger/builtin/params"
	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/builtin/storage"
	"github.com/subquery/network-ledger/builtin/token"
	"github.com/subquery/network-ledger/log"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/xenv"
)

var logger = log.WithContext("pkg", "booster")

type boosterKey = storage.Pair[sq.Bytes32, sq.Address]

type runnerKey = storage.Pair[sq.Address, sq.Bytes32]

// Booster runs the block based issuance. Boosted tokens are escrowed at its
// address; rewards are minted only when paid.
type Booster struct {
	addr        sq.Address
	env         *xenv.Environment
	params      *params.Params
	token       *token.Token
	eras        Eras
	rewards     Rewards
	allocations Allocations

	pool        *storage.Value[*Pool]
	deployments *storage.Mapping[sq.Bytes32, *DeploymentPool]
	boosters    *storage.Mapping[boosterKey, *BoosterShare]
	runners     *storage.Mapping[runnerKey, *RunnerReward]
	rates       *storage.Mapping[storage.Uint64, *rateSetting]
}

func New(
	addr sq.Address,
	env *xenv.Environment,
	params *params.Params,
	token *token.Token,
	eras Eras,
	rewards Rewards,
	allocations Allocations,
) *Booster {
	sctx := storage.NewContext(addr, env.State())
	return &Booster{
		addr:        addr,
		env:         env,
		params:      params,
		token:       token,
		eras:        eras,
		rewards:     rewards,
		allocations: allocations,
		pool:        storage.NewValue[*Pool](sctx, storage.Slot("pool")),
		deployments: storage.NewMapping[sq.Bytes32, *DeploymentPool](sctx, storage.Slot("deployments")),
		boosters:    storage.NewMapping[boosterKey, *BoosterShare](sctx, storage.Slot("boosters")),
		runners:     storage.NewMapping[runnerKey, *RunnerReward](sctx, storage.Slot("runners")),
		rates:       storage.NewMapping[storage.Uint64, *rateSetting](sctx, storage.Slot("query-rates")),
	}
}

func (b *Booster) Address() sq.Address { return b.addr }

func (b *Booster) block() uint64 { return b.env.BlockContext().Number }

// QueryRewardRate is the per mill share of a deployment reward that goes to
// its boosters as free queries.
func (b *Booster) QueryRewardRate(projectType uint64) (uint64, error) {
	s, err := b.rates.Get(storage.Uint64(projectType))
	if err != nil {
		return 0, err
	}
	if s.Set {
		return s.Rate, nil
	}
	return defaultQueryRewardRates[projectType], nil
}

// projectPool returns the global pool brought up to the current block.
func (b *Booster) projectPool() (*Pool, error) {
	p, err := b.pool.Get()
	if err != nil {
		return nil, errors.Wrap(err, "get booster pool")
	}
	p.normalize()
	block := b.block()
	if block > p.LastBlock && p.TotalBoosted.Sign() > 0 {
		issuance, err := b.params.Get(params.KeyIssuancePerBlock)
		if err != nil {
			return nil, err
		}
		delta := new(big.Int).Mul(issuance, new(big.Int).SetUint64(block-p.LastBlock))
		p.AccRewardsPerBooster.Add(p.AccRewardsPerBooster, sq.MulDiv(delta, sq.AccScale, p.TotalBoosted))
	}
	if block > p.LastBlock {
		p.LastBlock = block
	}
	return p, nil
}

// projectDeployment brings a deployment up to the pool accumulator and
// splits the new reward between boosters and allocations.
func (b *Booster) projectDeployment(deployment sq.Bytes32, p *Pool) (*DeploymentPool, error) {
	d, err := b.deployments.Get(deployment)
	if err != nil {
		return nil, errors.Wrap(err, "get deployment pool")
	}
	d.normalize()
	delta := new(big.Int).Sub(p.AccRewardsPerBooster, d.AccRewardsPerBoosterSnapshot)
	d.AccRewardsPerBoosterSnapshot = new(big.Int).Set(p.AccRewardsPerBooster)
	if delta.Sign() <= 0 || d.TotalBoosted.Sign() == 0 {
		return d, nil
	}
	minimum, err := b.params.Get(params.KeyMinimumDeploymentBooster)
	if err != nil {
		return nil, err
	}
	if d.TotalBoosted.Cmp(minimum) < 0 {
		return d, nil
	}
	reward := sq.MulDiv(delta, d.TotalBoosted, sq.AccScale)
	d.AccRewardsForDeployment.Add(d.AccRewardsForDeployment, reward)

	rate, err := b.QueryRewardRate(d.ProjectType)
	if err != nil {
		return nil, err
	}
	query := sq.PerMillOf(reward, rate)
	d.AccQueryRewardsPerBooster.Add(d.AccQueryRewardsPerBooster, sq.MulDiv(query, sq.AccScale, d.TotalBoosted))

	allocated, err := b.allocations.DeploymentAllocations(deployment)
	if err != nil {
		return nil, err
	}
	if allocated.Sign() > 0 {
		alloc := new(big.Int).Sub(reward, query)
		d.AccRewardsPerAllocatedToken.Add(d.AccRewardsPerAllocatedToken, sq.MulDiv(alloc, sq.AccScale, allocated))
	}
	return d, nil
}

// update writes the pool and deployment as of the current block.
func (b *Booster) update(deployment sq.Bytes32) (*Pool, *DeploymentPool, error) {
	p, err := b.projectPool()
	if err != nil {
		return nil, nil, err
	}
	d, err := b.projectDeployment(deployment, p)
	if err != nil {
		return nil, nil, err
	}
	if err := b.pool.Set(p); err != nil {
		return nil, nil, err
	}
	if err := b.deployments.Set(deployment, d); err != nil {
		return nil, nil, err
	}
	return p, d, nil
}

func (b *Booster) booster(deployment sq.Bytes32, account sq.Address) (*BoosterShare, error) {
	s, err := b.boosters.Get(storage.PairOf(deployment, account))
	if err != nil {
		return nil, errors.Wrap(err, "get booster share")
	}
	return s.normalize(), nil
}

func (b *Booster) changeBoost(deployment sq.Bytes32, account sq.Address, delta *big.Int) error {
	p, d, err := b.update(deployment)
	if err != nil {
		return err
	}
	s, err := b.booster(deployment, account)
	if err != nil {
		return err
	}
	s.settle(d.AccQueryRewardsPerBooster)
	s.Amount.Add(s.Amount, delta)
	s.QueryDebt = sq.MulDiv(s.Amount, d.AccQueryRewardsPerBooster, sq.AccScale)
	d.TotalBoosted.Add(d.TotalBoosted, delta)
	p.TotalBoosted.Add(p.TotalBoosted, delta)

	if err := b.boosters.Set(storage.PairOf(deployment, account), s); err != nil {
		return err
	}
	if err := b.deployments.Set(deployment, d); err != nil {
		return err
	}
	if err := b.pool.Set(p); err != nil {
		return err
	}
	return b.env.Log(b.addr, "DeploymentBoosterChanged", []sq.Address{account}, map[string]any{
		"deployment": deployment,
		"delta":      delta.String(),
		"amount":     s.Amount.String(),
	})
}

// BoostDeployment escrows the caller's tokens as booster of deployment.
func (b *Booster) BoostDeployment(deployment sq.Bytes32, amount *big.Int) error {
	if err := b.params.RequireNotMaintenance(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New("S001", "amount must be positive")
	}
	caller := b.env.Caller()
	if err := b.token.Transfer(caller, b.addr, amount); err != nil {
		return err
	}
	return b.changeBoost(deployment, caller, amount)
}

// RemoveBoosterDeployment returns boosted tokens to the caller.
func (b *Booster) RemoveBoosterDeployment(deployment sq.Bytes32, amount *big.Int) error {
	if err := b.params.RequireNotMaintenance(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New("S001", "amount must be positive")
	}
	caller := b.env.Caller()
	s, err := b.booster(deployment, caller)
	if err != nil {
		return err
	}
	if s.Amount.Cmp(amount) < 0 {
		return reverts.New("RB002", "not enough booster")
	}
	if err := b.changeBoost(deployment, caller, new(big.Int).Neg(amount)); err != nil {
		return err
	}
	return b.token.Transfer(b.addr, caller, amount)
}

func (b *Booster) requireSpender() error {
	return b.params.RequireRole(params.KeySpender, b.env.Caller(), "RB001", "caller is not the query reward spender")
}

func (b *Booster) settledBooster(deployment sq.Bytes32, account sq.Address) (*BoosterShare, error) {
	_, d, err := b.update(deployment)
	if err != nil {
		return nil, err
	}
	s, err := b.booster(deployment, account)
	if err != nil {
		return nil, err
	}
	s.settle(d.AccQueryRewardsPerBooster)
	return s, nil
}

// SpendQueryRewards mints amount of account's free query quota to the
// spender.
func (b *Booster) SpendQueryRewards(deployment sq.Bytes32, account sq.Address, amount *big.Int) error {
	if err := b.requireSpender(); err != nil {
		return err
	}
	s, err := b.settledBooster(deployment, account)
	if err != nil {
		return err
	}
	if s.QueryRewards.Cmp(amount) < 0 {
		return reverts.New("RB007", "exceeds available query rewards")
	}
	s.QueryRewards.Sub(s.QueryRewards, amount)
	s.Spent.Add(s.Spent, amount)
	if err := b.boosters.Set(storage.PairOf(deployment, account), s); err != nil {
		return err
	}
	if err := b.token.Mint(b.env.Caller(), amount); err != nil {
		return err
	}
	return b.env.Log(b.addr, "QueryRewardsSpent", []sq.Address{account}, map[string]any{
		"deployment": deployment,
		"amount":     amount.String(),
	})
}

// RefundQueryRewards burns amount from the spender and gives it back to
// account's quota.
func (b *Booster) RefundQueryRewards(deployment sq.Bytes32, account sq.Address, amount *big.Int) error {
	if err := b.requireSpender(); err != nil {
		return err
	}
	s, err := b.settledBooster(deployment, account)
	if err != nil {
		return err
	}
	if s.Spent.Cmp(amount) < 0 {
		return reverts.New("RB008", "refund exceeds spent query rewards")
	}
	if err := b.token.Burn(b.env.Caller(), amount); err != nil {
		return err
	}
	s.Spent.Sub(s.Spent, amount)
	s.QueryRewards.Add(s.QueryRewards, amount)
	if err := b.boosters.Set(storage.PairOf(deployment, account), s); err != nil {
		return err
	}
	return b.env.Log(b.addr, "QueryRewardsRefunded", []sq.Address{account}, map[string]any{
		"deployment": deployment,
		"amount":     amount.String(),
	})
}
