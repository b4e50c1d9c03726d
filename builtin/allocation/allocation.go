// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package allocation

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/subquery/network-ledger/builtin/params"
	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/builtin/storage"
	"github.com/subquery/network-ledger/log"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/xenv"
)

var logger = log.WithContext("pkg", "allocation")

// RunnerAllocation tracks how much of a runner's effective stake is
// allocated. While Used exceeds Total the runner overflows; OverflowAt is
// the start of the open overflow interval and OverflowTime the sum of the
// closed ones.
type RunnerAllocation struct {
	Total        *big.Int
	Used         *big.Int
	OverflowAt   uint64
	OverflowTime uint64
}

func (a *RunnerAllocation) normalize() *RunnerAllocation {
	if a.Total == nil {
		a.Total = new(big.Int)
	}
	if a.Used == nil {
		a.Used = new(big.Int)
	}
	return a
}

func (a *RunnerAllocation) overflowing() bool { return a.Used.Cmp(a.Total) > 0 }

// Stakes supplies the effective total stake of a runner.
type Stakes interface {
	GetTotalStakingAmount(runner sq.Address) (*big.Int, error)
}

type Runners interface {
	IsRunner(addr sq.Address) (bool, error)
}

// Hook is called before the allocation of runner on deployment changes.
type Hook interface {
	OnAllocationUpdate(deployment sq.Bytes32, runner sq.Address) error
}

type allocKey = storage.Pair[sq.Address, sq.Bytes32]

var slotRunnerDeployments = storage.Slot("runner-deployments")

// Allocation lets runners commit their effective stake to deployments.
type Allocation struct {
	addr    sq.Address
	env     *xenv.Environment
	params  *params.Params
	stakes  Stakes
	runners Runners
	hook    Hook

	sctx        *storage.Context
	runnerInfo  *storage.Mapping[sq.Address, *RunnerAllocation]
	allocations *storage.Mapping[allocKey, *big.Int]
	deployments *storage.Mapping[sq.Bytes32, *big.Int]
}

func New(addr sq.Address, env *xenv.Environment, params *params.Params, stakes Stakes) *Allocation {
	sctx := storage.NewContext(addr, env.State())
	return &Allocation{
		addr:        addr,
		env:         env,
		params:      params,
		stakes:      stakes,
		sctx:        sctx,
		runnerInfo:  storage.NewMapping[sq.Address, *RunnerAllocation](sctx, storage.Slot("runners")),
		allocations: storage.NewMapping[allocKey, *big.Int](sctx, storage.Slot("allocations")),
		deployments: storage.NewMapping[sq.Bytes32, *big.Int](sctx, storage.Slot("deployments")),
	}
}

func (a *Allocation) Bind(runners Runners, hook Hook) {
	a.runners = runners
	a.hook = hook
}

func (a *Allocation) runnerDeployments(runner sq.Address) *storage.IndexedSet[sq.Bytes32] {
	return storage.NewIndexedSet[sq.Bytes32](a.sctx, storage.Derive(slotRunnerDeployments, runner))
}

func (a *Allocation) info(runner sq.Address) (*RunnerAllocation, error) {
	v, err := a.runnerInfo.Get(runner)
	if err != nil {
		return nil, errors.Wrap(err, "get runner allocation")
	}
	return v.normalize(), nil
}

func (a *Allocation) amount(m *storage.Mapping[allocKey, *big.Int], key allocKey) (*big.Int, error) {
	v, err := m.Get(key)
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = new(big.Int)
	}
	return v, nil
}

// save closes or opens the overflow interval according to the new values.
func (a *Allocation) save(runner sq.Address, info *RunnerAllocation) error {
	now := a.env.Now()
	switch over := info.overflowing(); {
	case over && info.OverflowAt == 0:
		info.OverflowAt = now
		logger.Debug("runner overflowing", "runner", runner, "used", info.Used, "total", info.Total)
	case !over && info.OverflowAt != 0:
		info.OverflowTime += now - info.OverflowAt
		info.OverflowAt = 0
	}
	return a.runnerInfo.Set(runner, info)
}

func (a *Allocation) checkCaller(runner sq.Address) error {
	if a.env.Caller() != runner {
		return reverts.New("SA02", "only the runner can change its allocation")
	}
	ok, err := a.runners.IsRunner(runner)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New("SA02", "not a registered runner")
	}
	return nil
}

func (a *Allocation) update(deployment sq.Bytes32, runner sq.Address, delta *big.Int) error {
	if a.hook != nil {
		if err := a.hook.OnAllocationUpdate(deployment, runner); err != nil {
			return err
		}
	}
	info, err := a.info(runner)
	if err != nil {
		return err
	}
	key := storage.PairOf(runner, deployment)
	current, err := a.amount(a.allocations, key)
	if err != nil {
		return err
	}
	total, err := a.deployments.Get(deployment)
	if err != nil {
		return err
	}
	if total == nil {
		total = new(big.Int)
	}
	current.Add(current, delta)
	total.Add(total, delta)
	info.Used.Add(info.Used, delta)

	if current.Sign() == 0 {
		a.allocations.Delete(key)
		if _, err := a.runnerDeployments(runner).Remove(deployment); err != nil {
			return err
		}
	} else {
		if err := a.allocations.Set(key, current); err != nil {
			return err
		}
		if _, err := a.runnerDeployments(runner).Add(deployment); err != nil {
			return err
		}
	}
	if err := a.deployments.Set(deployment, total); err != nil {
		return err
	}
	if err := a.save(runner, info); err != nil {
		return err
	}
	return a.env.Log(a.addr, "StakeAllocationChanged", []sq.Address{runner}, map[string]any{
		"deployment": deployment,
		"delta":      delta.String(),
		"amount":     current.String(),
	})
}

// AddAllocation commits amount of the runner's free stake to deployment.
func (a *Allocation) AddAllocation(deployment sq.Bytes32, runner sq.Address, amount *big.Int) error {
	if err := a.params.RequireNotMaintenance(); err != nil {
		return err
	}
	if err := a.checkCaller(runner); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New("S001", "amount must be positive")
	}
	info, err := a.info(runner)
	if err != nil {
		return err
	}
	if new(big.Int).Add(info.Used, amount).Cmp(info.Total) > 0 {
		return reverts.New("SA01", "not enough stake to allocate")
	}
	return a.update(deployment, runner, amount)
}

// RemoveAllocation releases amount from deployment.
func (a *Allocation) RemoveAllocation(deployment sq.Bytes32, runner sq.Address, amount *big.Int) error {
	if err := a.params.RequireNotMaintenance(); err != nil {
		return err
	}
	if err := a.checkCaller(runner); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New("S001", "amount must be positive")
	}
	current, err := a.amount(a.allocations, storage.PairOf(runner, deployment))
	if err != nil {
		return err
	}
	if current.Cmp(amount) < 0 {
		return reverts.New("SA04", "not enough allocation to remove")
	}
	return a.update(deployment, runner, new(big.Int).Neg(amount))
}

// OnStakeUpdate refreshes the runner's total from its effective stake.
func (a *Allocation) OnStakeUpdate(runner sq.Address) error {
	total, err := a.stakes.GetTotalStakingAmount(runner)
	if err != nil {
		return err
	}
	info, err := a.info(runner)
	if err != nil {
		return err
	}
	info.Total = new(big.Int).Set(total)
	return a.save(runner, info)
}

func (a *Allocation) RunnerAllocation(runner sq.Address) (*RunnerAllocation, error) {
	return a.info(runner)
}

func (a *Allocation) Allocated(runner sq.Address, deployment sq.Bytes32) (*big.Int, error) {
	return a.amount(a.allocations, storage.PairOf(runner, deployment))
}

func (a *Allocation) DeploymentAllocations(deployment sq.Bytes32) (*big.Int, error) {
	v, err := a.deployments.Get(deployment)
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = new(big.Int)
	}
	return v, nil
}

func (a *Allocation) RunnerDeployments(runner sq.Address) ([]sq.Bytes32, error) {
	return a.runnerDeployments(runner).All()
}

func (a *Allocation) IsOverflow(runner sq.Address) (bool, error) {
	info, err := a.info(runner)
	if err != nil {
		return false, err
	}
	return info.overflowing(), nil
}

// OverflowTime is the total time the runner spent overflowing, the open
// interval included.
func (a *Allocation) OverflowTime(runner sq.Address) (uint64, error) {
	info, err := a.info(runner)
	if err != nil {
		return 0, err
	}
	t := info.OverflowTime
	if info.OverflowAt != 0 {
		t += a.env.Now() - info.OverflowAt
	}
	return t, nil
}
