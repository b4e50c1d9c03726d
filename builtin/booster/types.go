// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package booster

import (
	"math/big"

	"github.com/subquery/network-ledger/sq"
)

// Project types.
const (
	ProjectSubquery uint64 = iota
	ProjectRPC
)

var defaultQueryRewardRates = map[uint64]uint64{
	ProjectSubquery: 500_000,
	ProjectRPC:      900_000,
}

func zero(v **big.Int) {
	if *v == nil {
		*v = new(big.Int)
	}
}

// Pool is the global issuance accumulator.
type Pool struct {
	AccRewardsPerBooster *big.Int
	LastBlock            uint64
	TotalBoosted         *big.Int
}

func (p *Pool) normalize() *Pool {
	zero(&p.AccRewardsPerBooster)
	zero(&p.TotalBoosted)
	return p
}

// DeploymentPool is the booster state of a deployment.
// AccRewardsPerBoosterSnapshot is the global accumulator value the
// deployment was last brought up to.
type DeploymentPool struct {
	ProjectType                  uint64
	TotalBoosted                 *big.Int
	AccRewardsForDeployment      *big.Int
	AccRewardsPerBoosterSnapshot *big.Int
	AccQueryRewardsPerBooster    *big.Int
	AccRewardsPerAllocatedToken  *big.Int
}

func (d *DeploymentPool) normalize() *DeploymentPool {
	zero(&d.TotalBoosted)
	zero(&d.AccRewardsForDeployment)
	zero(&d.AccRewardsPerBoosterSnapshot)
	zero(&d.AccQueryRewardsPerBooster)
	zero(&d.AccRewardsPerAllocatedToken)
	return d
}

// BoosterShare is an account's boost on a deployment with its free query
// quota. QueryRewards is accrued and unspent; Spent can be refunded.
type BoosterShare struct {
	Amount       *big.Int
	QueryDebt    *big.Int
	QueryRewards *big.Int
	Spent        *big.Int
}

func (b *BoosterShare) normalize() *BoosterShare {
	zero(&b.Amount)
	zero(&b.QueryDebt)
	zero(&b.QueryRewards)
	zero(&b.Spent)
	return b
}

func (b *BoosterShare) settle(accQuery *big.Int) {
	owed := sq.MulDiv(b.Amount, accQuery, sq.AccScale)
	if owed.Cmp(b.QueryDebt) > 0 {
		b.QueryRewards.Add(b.QueryRewards, owed.Sub(owed, b.QueryDebt))
	}
	b.QueryDebt = sq.MulDiv(b.Amount, accQuery, sq.AccScale)
}

// RunnerReward is the allocation reward state of a runner on a deployment.
// Rewards accrue in Unclaimed; at collection the share matching overflow
// and missed labor since LastClaimedAt is burnt.
type RunnerReward struct {
	AccSnapshot      *big.Int
	Unclaimed        *big.Int
	LastClaimedAt    uint64
	OverflowSnapshot uint64
	MissedLabor      uint64
	Disabled         bool
	LastReportAt     uint64
}

func (r *RunnerReward) normalize() *RunnerReward {
	zero(&r.AccSnapshot)
	zero(&r.Unclaimed)
	return r
}

type rateSetting struct {
	Rate uint64
	Set  bool
}

// Eras supplies the current era.
type Eras interface {
	SafeUpdateAndGetEra() (uint64, error)
}

// Rewards receives the eligible allocation rewards.
type Rewards interface {
	AddInstantRewards(payer, runner sq.Address, amount *big.Int, era uint64) error
}

// Allocations is the staking allocation as seen by the booster.
type Allocations interface {
	Allocated(runner sq.Address, deployment sq.Bytes32) (*big.Int, error)
	DeploymentAllocations(deployment sq.Bytes32) (*big.Int, error)
	OverflowTime(runner sq.Address) (uint64, error)
}
