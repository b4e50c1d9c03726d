// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package booster

import (
	"math/big"

	"github.com/subquery/network-ledger/builtin/params"
	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/builtin/storage"
	"github.com/subquery/network-ledger/sq"
)

// GetPool returns the global pool as of the current block.
func (b *Booster) GetPool() (*Pool, error) { return b.projectPool() }

// GetDeploymentPool returns the deployment as of the current block.
func (b *Booster) GetDeploymentPool(deployment sq.Bytes32) (*DeploymentPool, error) {
	p, err := b.projectPool()
	if err != nil {
		return nil, err
	}
	return b.projectDeployment(deployment, p)
}

func (b *Booster) GetAccRewardsForDeployment(deployment sq.Bytes32) (*big.Int, error) {
	d, err := b.GetDeploymentPool(deployment)
	if err != nil {
		return nil, err
	}
	return d.AccRewardsForDeployment, nil
}

func (b *Booster) GetBoosterAmount(deployment sq.Bytes32, account sq.Address) (*big.Int, error) {
	s, err := b.booster(deployment, account)
	if err != nil {
		return nil, err
	}
	return s.Amount, nil
}

// GetQueryRewards is the unspent free query quota of account on deployment.
func (b *Booster) GetQueryRewards(deployment sq.Bytes32, account sq.Address) (*big.Int, error) {
	d, err := b.GetDeploymentPool(deployment)
	if err != nil {
		return nil, err
	}
	s, err := b.booster(deployment, account)
	if err != nil {
		return nil, err
	}
	s.settle(d.AccQueryRewardsPerBooster)
	return s.QueryRewards, nil
}

// GetAllocationRewards returns what collecting now would pay and burn.
func (b *Booster) GetAllocationRewards(deployment sq.Bytes32, runner sq.Address) (paid, burnt *big.Int, err error) {
	d, err := b.GetDeploymentPool(deployment)
	if err != nil {
		return nil, nil, err
	}
	r, err := b.runnerReward(runner, deployment)
	if err != nil {
		return nil, nil, err
	}
	if err := b.accrue(r, d, runner, deployment); err != nil {
		return nil, nil, err
	}
	paid, burnt, _, err = b.eligible(r, runner)
	return paid, burnt, err
}

func (b *Booster) GetRunnerReward(deployment sq.Bytes32, runner sq.Address) (*RunnerReward, error) {
	return b.runnerReward(runner, deployment)
}

func (b *Booster) requireOwner() error {
	return b.params.RequireOwner(b.env.Caller())
}

// SetIssuancePerBlock changes the issuance from the current block on.
func (b *Booster) SetIssuancePerBlock(amount *big.Int) error {
	if err := b.requireOwner(); err != nil {
		return err
	}
	p, err := b.projectPool()
	if err != nil {
		return err
	}
	if err := b.pool.Set(p); err != nil {
		return err
	}
	return b.params.Set(params.KeyIssuancePerBlock, amount)
}

func (b *Booster) SetMinimumDeploymentBooster(amount *big.Int) error {
	if err := b.requireOwner(); err != nil {
		return err
	}
	return b.params.Set(params.KeyMinimumDeploymentBooster, amount)
}

func (b *Booster) SetQueryRewardRate(projectType, rate uint64) error {
	if err := b.requireOwner(); err != nil {
		return err
	}
	if rate >= sq.PerMill {
		return reverts.New("RB004", "query reward rate must be below the per mill base")
	}
	return b.rates.Set(storage.Uint64(projectType), &rateSetting{Rate: rate, Set: true})
}

// SetProjectType settles the deployment under its old type first.
func (b *Booster) SetProjectType(deployment sq.Bytes32, projectType uint64) error {
	if err := b.requireOwner(); err != nil {
		return err
	}
	_, d, err := b.update(deployment)
	if err != nil {
		return err
	}
	d.ProjectType = projectType
	return b.deployments.Set(deployment, d)
}

func (b *Booster) SetReporter(addr sq.Address) error {
	if err := b.requireOwner(); err != nil {
		return err
	}
	return b.params.SetRole(params.KeyReporter, addr)
}
