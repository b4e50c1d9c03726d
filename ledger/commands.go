// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/subquery/network-ledger/builtin"
	"github.com/subquery/network-ledger/builtin/params"
	"github.com/subquery/network-ledger/sq"
)

// Typed commands. Each one is a single Execute named after the operation.

func (l *Ledger) StartNewEra(caller sq.Address) (*Receipt, error) {
	return l.Execute(caller, "startNewEra", func(c *builtin.Contracts) error {
		return c.Era.StartNewEra()
	})
}

func (l *Ledger) UpdateEra(caller sq.Address) (*Receipt, error) {
	return l.Execute(caller, "safeUpdateAndGetEra", func(c *builtin.Contracts) error {
		_, err := c.Era.SafeUpdateAndGetEra()
		return err
	})
}

func (l *Ledger) UpdateEraPeriod(caller sq.Address, period uint64) (*Receipt, error) {
	return l.Execute(caller, "updateEraPeriod", func(c *builtin.Contracts) error {
		return c.Era.UpdateEraPeriod(period)
	})
}

func (l *Ledger) Transfer(caller, to sq.Address, amount *big.Int) (*Receipt, error) {
	return l.Execute(caller, "transfer", func(c *builtin.Contracts) error {
		return c.Token.Transfer(caller, to, amount)
	})
}

func (l *Ledger) RegisterRunner(caller sq.Address, amount *big.Int, rate uint64, metadata sq.Bytes32) (*Receipt, error) {
	return l.Execute(caller, "registerIndexer", func(c *builtin.Contracts) error {
		return c.Registry.RegisterRunner(amount, rate, metadata)
	})
}

func (l *Ledger) UnregisterRunner(caller sq.Address) (*Receipt, error) {
	return l.Execute(caller, "unregisterIndexer", func(c *builtin.Contracts) error {
		return c.Registry.UnregisterRunner()
	})
}

func (l *Ledger) UpdateMetadata(caller sq.Address, metadata sq.Bytes32) (*Receipt, error) {
	return l.Execute(caller, "updateMetadata", func(c *builtin.Contracts) error {
		return c.Registry.UpdateMetadata(metadata)
	})
}

func (l *Ledger) SetCommissionRate(caller sq.Address, rate uint64) (*Receipt, error) {
	return l.Execute(caller, "setCommissionRate", func(c *builtin.Contracts) error {
		return c.Commission.SetCommissionRate(rate)
	})
}

func (l *Ledger) Stake(caller sq.Address, amount *big.Int) (*Receipt, error) {
	return l.Execute(caller, "stake", func(c *builtin.Contracts) error {
		return c.Staking.Stake(caller, amount)
	})
}

func (l *Ledger) Unstake(caller sq.Address, amount *big.Int) (*Receipt, error) {
	return l.Execute(caller, "unstake", func(c *builtin.Contracts) error {
		return c.Staking.Unstake(caller, amount)
	})
}

func (l *Ledger) Delegate(caller, runner sq.Address, amount *big.Int) (*Receipt, error) {
	return l.Execute(caller, "delegate", func(c *builtin.Contracts) error {
		return c.Staking.Delegate(runner, amount)
	})
}

func (l *Ledger) Undelegate(caller, runner sq.Address, amount *big.Int) (*Receipt, error) {
	return l.Execute(caller, "undelegate", func(c *builtin.Contracts) error {
		return c.Staking.Undelegate(runner, amount)
	})
}

func (l *Ledger) Redelegate(caller, from, to sq.Address, amount *big.Int) (*Receipt, error) {
	return l.Execute(caller, "redelegate", func(c *builtin.Contracts) error {
		return c.Staking.Redelegate(from, to, amount)
	})
}

func (l *Ledger) CancelUnbonding(caller sq.Address, id uint64) (*Receipt, error) {
	return l.Execute(caller, "cancelUnbonding", func(c *builtin.Contracts) error {
		return c.Staking.CancelUnbonding(id)
	})
}

func (l *Ledger) Withdraw(caller sq.Address) (*Receipt, error) {
	return l.Execute(caller, "withdraw", func(c *builtin.Contracts) error {
		return c.Staking.Withdraw()
	})
}

func (l *Ledger) CollectAndDistributeRewards(caller, runner sq.Address) (*Receipt, error) {
	return l.Execute(caller, "collectAndDistributeRewards", func(c *builtin.Contracts) error {
		return c.Rewards.CollectAndDistributeRewards(runner)
	})
}

func (l *Ledger) BatchCollect(caller, runner sq.Address, maxEras uint64) (*Receipt, error) {
	return l.Execute(caller, "batchCollectAndDistributeRewards", func(c *builtin.Contracts) error {
		_, err := c.Rewards.BatchCollectAndDistributeRewards(runner, maxEras)
		return err
	})
}

func (l *Ledger) IndexerCatchup(caller, runner sq.Address, maxEras uint64) (*Receipt, error) {
	return l.Execute(caller, "indexerCatchup", func(c *builtin.Contracts) error {
		_, err := c.Rewards.IndexerCatchup(runner, maxEras)
		return err
	})
}

func (l *Ledger) ApplyStakeChange(caller, runner, staker sq.Address) (*Receipt, error) {
	return l.Execute(caller, "applyStakeChange", func(c *builtin.Contracts) error {
		return c.Rewards.ApplyStakeChange(runner, staker)
	})
}

func (l *Ledger) ApplyStakeChanges(caller, runner sq.Address, stakers []sq.Address) (*Receipt, error) {
	return l.Execute(caller, "applyStakeChanges", func(c *builtin.Contracts) error {
		return c.Rewards.BatchApplyStakeChange(runner, stakers)
	})
}

func (l *Ledger) ApplyICRChange(caller, runner sq.Address) (*Receipt, error) {
	return l.Execute(caller, "applyICRChange", func(c *builtin.Contracts) error {
		return c.Rewards.ApplyICRChange(runner)
	})
}

func (l *Ledger) Claim(caller, runner sq.Address) (*Receipt, error) {
	return l.Execute(caller, "claim", func(c *builtin.Contracts) error {
		return c.Rewards.Claim(runner)
	})
}

func (l *Ledger) ClaimFrom(caller, runner, account sq.Address) (*Receipt, error) {
	return l.Execute(caller, "claimFrom", func(c *builtin.Contracts) error {
		return c.Rewards.ClaimFrom(runner, account)
	})
}

func (l *Ledger) BatchClaim(caller sq.Address, runners []sq.Address) (*Receipt, error) {
	return l.Execute(caller, "batchClaim", func(c *builtin.Contracts) error {
		_, err := c.Rewards.BatchClaim(caller, runners)
		return err
	})
}

func (l *Ledger) IncreaseAgreementRewards(caller, runner sq.Address, value *big.Int, start, period uint64) (*Receipt, error) {
	return l.Execute(caller, "increaseAgreementRewards", func(c *builtin.Contracts) error {
		return c.Rewards.IncreaseAgreementRewards(caller, runner, value, start, period)
	})
}

func (l *Ledger) AddInstantRewards(caller, runner sq.Address, amount *big.Int, era uint64) (*Receipt, error) {
	return l.Execute(caller, "addInstantRewards", func(c *builtin.Contracts) error {
		return c.Rewards.AddInstantRewards(caller, runner, amount, era)
	})
}

func (l *Ledger) AddAllocation(caller sq.Address, deployment sq.Bytes32, runner sq.Address, amount *big.Int) (*Receipt, error) {
	return l.Execute(caller, "addAllocation", func(c *builtin.Contracts) error {
		return c.Allocation.AddAllocation(deployment, runner, amount)
	})
}

func (l *Ledger) RemoveAllocation(caller sq.Address, deployment sq.Bytes32, runner sq.Address, amount *big.Int) (*Receipt, error) {
	return l.Execute(caller, "removeAllocation", func(c *builtin.Contracts) error {
		return c.Allocation.RemoveAllocation(deployment, runner, amount)
	})
}

func (l *Ledger) BoostDeployment(caller sq.Address, deployment sq.Bytes32, amount *big.Int) (*Receipt, error) {
	return l.Execute(caller, "boostDeployment", func(c *builtin.Contracts) error {
		return c.Booster.BoostDeployment(deployment, amount)
	})
}

func (l *Ledger) RemoveBooster(caller sq.Address, deployment sq.Bytes32, amount *big.Int) (*Receipt, error) {
	return l.Execute(caller, "removeBoosterDeployment", func(c *builtin.Contracts) error {
		return c.Booster.RemoveBoosterDeployment(deployment, amount)
	})
}

func (l *Ledger) CollectAllocationReward(caller sq.Address, deployment sq.Bytes32, runner sq.Address) (*Receipt, error) {
	return l.Execute(caller, "collectAllocationReward", func(c *builtin.Contracts) error {
		return c.Booster.CollectAllocationReward(deployment, runner)
	})
}

func (l *Ledger) SpendQueryRewards(caller sq.Address, deployment sq.Bytes32, account sq.Address, amount *big.Int) (*Receipt, error) {
	return l.Execute(caller, "spendQueryRewards", func(c *builtin.Contracts) error {
		return c.Booster.SpendQueryRewards(deployment, account, amount)
	})
}

func (l *Ledger) RefundQueryRewards(caller sq.Address, deployment sq.Bytes32, account sq.Address, amount *big.Int) (*Receipt, error) {
	return l.Execute(caller, "refundQueryRewards", func(c *builtin.Contracts) error {
		return c.Booster.RefundQueryRewards(deployment, account, amount)
	})
}

// MissedLabor is one row of a missed labor report.
type MissedLabor struct {
	Deployment sq.Bytes32
	Runner     sq.Address
	Disable    bool
	Missed     uint64
}

func (l *Ledger) SetMissedLabor(caller sq.Address, rows []MissedLabor, reportAt uint64) (*Receipt, error) {
	deployments := make([]sq.Bytes32, len(rows))
	runners := make([]sq.Address, len(rows))
	disable := make([]bool, len(rows))
	missed := make([]uint64, len(rows))
	for i, r := range rows {
		deployments[i], runners[i], disable[i], missed[i] = r.Deployment, r.Runner, r.Disable, r.Missed
	}
	return l.Execute(caller, "setMissedLabor", func(c *builtin.Contracts) error {
		return c.Booster.SetMissedLabor(deployments, runners, disable, missed, reportAt)
	})
}

func (l *Ledger) Labor(caller sq.Address, deployment sq.Bytes32, runner sq.Address, amount *big.Int) (*Receipt, error) {
	return l.Execute(caller, "labor", func(c *builtin.Contracts) error {
		return c.RewardsPool.Labor(deployment, runner, amount)
	})
}

func (l *Ledger) CollectPool(caller sq.Address, deployment sq.Bytes32, era uint64, runner sq.Address) (*Receipt, error) {
	return l.Execute(caller, "collect", func(c *builtin.Contracts) error {
		return c.RewardsPool.Collect(deployment, era, runner)
	})
}

func (l *Ledger) BatchCollectPool(caller, runner sq.Address) (*Receipt, error) {
	return l.Execute(caller, "batchCollect", func(c *builtin.Contracts) error {
		_, err := c.RewardsPool.BatchCollect(runner)
		return err
	})
}

func (l *Ledger) MintSQT(caller, to sq.Address, amount *big.Int) (*Receipt, error) {
	return l.Execute(caller, "mintSQT", func(c *builtin.Contracts) error {
		return c.Inflation.MintSQT(to, amount)
	})
}

// Admin settings.

// SetParam changes a named setting through the service owning it, so
// accruals up to now use the old value.
func (l *Ledger) SetParam(caller sq.Address, name, value string) (*Receipt, error) {
	key, v, err := ParseParam(name, value)
	if err != nil {
		return nil, err
	}
	return l.Execute(caller, "setParam", func(c *builtin.Contracts) error {
		switch key {
		case params.KeyLockPeriod:
			return c.Staking.SetLockPeriod(v.Uint64())
		case params.KeyIndexerLeverageLimit:
			return c.Staking.SetIndexerLeverageLimit(v.Uint64())
		case params.KeyUnbondFeeRate:
			return c.Staking.SetUnbondFeeRate(v.Uint64())
		case params.KeyMaxUnbondingRequests:
			return c.Staking.SetMaxUnbondingRequests(v.Uint64())
		case params.KeyMinimumStakingAmount:
			return c.Staking.SetMinimumStakingAmount(v)
		case params.KeyInflationRate:
			return c.Inflation.SetInflationRate(v.Uint64())
		case params.KeyIssuancePerBlock:
			return c.Booster.SetIssuancePerBlock(v)
		case params.KeyMinimumDeploymentBooster:
			return c.Booster.SetMinimumDeploymentBooster(v)
		}
		if err := c.Params.RequireOwner(caller); err != nil {
			return err
		}
		return c.Params.Set(key, v)
	})
}

func (l *Ledger) SetMaintenance(caller sq.Address, on bool) (*Receipt, error) {
	return l.Execute(caller, "setMaintenance", func(c *builtin.Contracts) error {
		if err := c.Params.RequireOwner(caller); err != nil {
			return err
		}
		return c.Params.SetMaintenance(on)
	})
}

func (l *Ledger) SetQueryRewardRate(caller sq.Address, projectType, rate uint64) (*Receipt, error) {
	return l.Execute(caller, "setQueryRewardRate", func(c *builtin.Contracts) error {
		return c.Booster.SetQueryRewardRate(projectType, rate)
	})
}

func (l *Ledger) SetProjectType(caller sq.Address, deployment sq.Bytes32, projectType uint64) (*Receipt, error) {
	return l.Execute(caller, "setProjectType", func(c *builtin.Contracts) error {
		return c.Booster.SetProjectType(deployment, projectType)
	})
}

func (l *Ledger) SetInflationRate(caller sq.Address, rate uint64) (*Receipt, error) {
	return l.Execute(caller, "setInflationRate", func(c *builtin.Contracts) error {
		return c.Inflation.SetInflationRate(rate)
	})
}

func (l *Ledger) SetInflationDestination(caller, dest sq.Address) (*Receipt, error) {
	return l.Execute(caller, "setInflationDestination", func(c *builtin.Contracts) error {
		return c.Inflation.SetInflationDestination(dest)
	})
}
