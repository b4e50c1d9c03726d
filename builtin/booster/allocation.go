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
	"github.com/subquery/network-ledger/sq"
)

func (b *Booster) runnerReward(runner sq.Address, deployment sq.Bytes32) (*RunnerReward, error) {
	r, err := b.runners.Get(storage.PairOf(runner, deployment))
	if err != nil {
		return nil, errors.Wrap(err, "get runner reward")
	}
	return r.normalize(), nil
}

// accrue moves the reward earned by the current allocation into Unclaimed.
func (b *Booster) accrue(r *RunnerReward, d *DeploymentPool, runner sq.Address, deployment sq.Bytes32) error {
	allocated, err := b.allocations.Allocated(runner, deployment)
	if err != nil {
		return err
	}
	delta := new(big.Int).Sub(d.AccRewardsPerAllocatedToken, r.AccSnapshot)
	if delta.Sign() > 0 && allocated.Sign() > 0 {
		r.Unclaimed.Add(r.Unclaimed, sq.MulDiv(allocated, delta, sq.AccScale))
	}
	r.AccSnapshot = new(big.Int).Set(d.AccRewardsPerAllocatedToken)
	if r.LastClaimedAt == 0 {
		r.LastClaimedAt = b.env.Now()
		if r.OverflowSnapshot, err = b.allocations.OverflowTime(runner); err != nil {
			return err
		}
	}
	return nil
}

func (b *Booster) settleRunner(deployment sq.Bytes32, runner sq.Address) (*RunnerReward, error) {
	_, d, err := b.update(deployment)
	if err != nil {
		return nil, err
	}
	r, err := b.runnerReward(runner, deployment)
	if err != nil {
		return nil, err
	}
	if err := b.accrue(r, d, runner, deployment); err != nil {
		return nil, err
	}
	return r, nil
}

// OnAllocationUpdate settles the runner's reward before its allocation on
// deployment changes.
func (b *Booster) OnAllocationUpdate(deployment sq.Bytes32, runner sq.Address) error {
	r, err := b.settleRunner(deployment, runner)
	if err != nil {
		return err
	}
	return b.runners.Set(storage.PairOf(runner, deployment), r)
}

// eligible splits reward by the share of time since the last claim that
// was neither overflow nor missed labor.
func (b *Booster) eligible(r *RunnerReward, runner sq.Address) (paid, burnt *big.Int, overflow uint64, err error) {
	overflow, err = b.allocations.OverflowTime(runner)
	if err != nil {
		return nil, nil, 0, err
	}
	reward := r.Unclaimed
	elapsed := b.env.Now() - r.LastClaimedAt
	ineligible := overflow - r.OverflowSnapshot + r.MissedLabor
	switch {
	case r.Disabled:
		ineligible = elapsed
	case ineligible > elapsed:
		ineligible = elapsed
	}
	paid = new(big.Int).Set(reward)
	if ineligible > 0 && elapsed > 0 {
		paid = sq.MulDiv(reward, new(big.Int).SetUint64(elapsed-ineligible), new(big.Int).SetUint64(elapsed))
	}
	return paid, new(big.Int).Sub(reward, paid), overflow, nil
}

// CollectAllocationReward pays the runner's eligible allocation reward into
// the current era. The ineligible part is never minted.
func (b *Booster) CollectAllocationReward(deployment sq.Bytes32, runner sq.Address) error {
	if err := b.params.RequireNotMaintenance(); err != nil {
		return err
	}
	if b.env.Caller() != runner {
		return reverts.New("G002", "only the runner can collect")
	}
	r, err := b.settleRunner(deployment, runner)
	if err != nil {
		return err
	}
	paid, burnt, overflow, err := b.eligible(r, runner)
	if err != nil {
		return err
	}
	r.Unclaimed = new(big.Int)
	r.LastClaimedAt = b.env.Now()
	r.OverflowSnapshot = overflow
	r.MissedLabor = 0
	if err := b.runners.Set(storage.PairOf(runner, deployment), r); err != nil {
		return err
	}

	if paid.Sign() > 0 {
		era, err := b.eras.SafeUpdateAndGetEra()
		if err != nil {
			return err
		}
		if err := b.token.Mint(b.addr, paid); err != nil {
			return err
		}
		if err := b.rewards.AddInstantRewards(b.addr, runner, paid, era); err != nil {
			return err
		}
	}
	if burnt.Sign() > 0 {
		logger.Debug("allocation reward burnt", "runner", runner, "deployment", deployment, "amount", burnt)
	}
	return b.env.Log(b.addr, "AllocationRewardsGiven", []sq.Address{runner}, map[string]any{
		"deployment": deployment,
		"amount":     paid.String(),
		"burnt":      burnt.String(),
	})
}

// SetMissedLabor applies reporter findings made at reportAt. Reports older
// than a runner's last claim are ignored.
func (b *Booster) SetMissedLabor(deployments []sq.Bytes32, runners []sq.Address, disable []bool, missed []uint64, reportAt uint64) error {
	if err := b.params.RequireRole(params.KeyReporter, b.env.Caller(), "RB003", "caller is not the reporter"); err != nil {
		return err
	}
	n := len(deployments)
	if len(runners) != n || len(disable) != n || len(missed) != n {
		return reverts.New("RB005", "report length mismatch")
	}
	if reportAt > b.env.Now() {
		return reverts.New("RB006", "report time in the future")
	}
	for i := range deployments {
		r, err := b.settleRunner(deployments[i], runners[i])
		if err != nil {
			return err
		}
		if reportAt < r.LastClaimedAt {
			continue
		}
		r.MissedLabor += missed[i]
		r.Disabled = disable[i]
		r.LastReportAt = reportAt
		if err := b.runners.Set(storage.PairOf(runners[i], deployments[i]), r); err != nil {
			return err
		}
		if err := b.env.Log(b.addr, "MissedLabor", []sq.Address{runners[i]}, map[string]any{
			"deployment": deployments[i],
			"missed":     missed[i],
			"disabled":   disable[i],
			"reportAt":   reportAt,
		}); err != nil {
			return err
		}
	}
	return nil
}
