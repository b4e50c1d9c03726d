// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"math/big"

	"github.com/subquery/network-ledger/builtin/allocation"
	"github.com/subquery/network-ledger/builtin/params"
	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/builtin/storage"
	"github.com/subquery/network-ledger/log"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/xenv"
)

var logger = log.WithContext("pkg", "registry")

type Stakes interface {
	StakeInstant(runner sq.Address, amount *big.Int) error
	UnstakeAll(runner sq.Address) error
}

type Commissions interface {
	Init(runner sq.Address, rate uint64) error
	Retire(runner sq.Address) error
}

type Rewards interface {
	OnRegister(runner sq.Address, amount *big.Int) error
}

type Allocations interface {
	RunnerAllocation(runner sq.Address) (*allocation.RunnerAllocation, error)
}

// Registry tracks the set of registered runners.
type Registry struct {
	addr        sq.Address
	env         *xenv.Environment
	params      *params.Params
	stakes      Stakes
	commissions Commissions
	rewards     Rewards
	allocations Allocations

	runners  *storage.IndexedSet[sq.Address]
	metadata *storage.Mapping[sq.Address, sq.Bytes32]
}

func New(
	addr sq.Address,
	env *xenv.Environment,
	params *params.Params,
	stakes Stakes,
	commissions Commissions,
	rewards Rewards,
	allocations Allocations,
) *Registry {
	sctx := storage.NewContext(addr, env.State())
	return &Registry{
		addr:        addr,
		env:         env,
		params:      params,
		stakes:      stakes,
		commissions: commissions,
		rewards:     rewards,
		allocations: allocations,
		runners:     storage.NewIndexedSet[sq.Address](sctx, storage.Slot("runners")),
		metadata:    storage.NewMapping[sq.Address, sq.Bytes32](sctx, storage.Slot("metadata")),
	}
}

func (r *Registry) IsRunner(addr sq.Address) (bool, error) {
	return r.runners.Contains(addr)
}

func (r *Registry) Runners() ([]sq.Address, error) {
	return r.runners.All()
}

func (r *Registry) Metadata(runner sq.Address) (sq.Bytes32, error) {
	return r.metadata.Get(runner)
}

// RegisterRunner registers the caller, staking amount at once and setting
// its initial commission rate.
func (r *Registry) RegisterRunner(amount *big.Int, rate uint64, metadata sq.Bytes32) error {
	if err := r.params.RequireNotMaintenance(); err != nil {
		return err
	}
	runner := r.env.Caller()
	ok, err := r.runners.Contains(runner)
	if err != nil {
		return err
	}
	if ok {
		return reverts.New("IR001", "already registered")
	}
	minimum, err := r.params.Get(params.KeyMinimumStakingAmount)
	if err != nil {
		return err
	}
	if amount == nil || amount.Cmp(minimum) < 0 {
		return reverts.New("IR002", "stake below the minimum staking amount")
	}
	if rate > sq.PerMill {
		return reverts.New("IR006", "commission rate exceeds the per mill base")
	}

	if _, err := r.runners.Add(runner); err != nil {
		return err
	}
	if err := r.metadata.Set(runner, metadata); err != nil {
		return err
	}
	if err := r.stakes.StakeInstant(runner, amount); err != nil {
		return err
	}
	// eras left from a previous registration settle before the new rate is set
	if err := r.rewards.OnRegister(runner, amount); err != nil {
		return err
	}
	if err := r.commissions.Init(runner, rate); err != nil {
		return err
	}
	logger.Debug("runner registered", "runner", runner, "stake", amount, "rate", rate)
	return r.env.Log(r.addr, "RegisterIndexer", []sq.Address{runner}, map[string]any{
		"amount":   amount.String(),
		"metadata": metadata,
	})
}

// UnregisterRunner removes the caller and unbonds its whole self stake.
// Allocations must be removed first.
func (r *Registry) UnregisterRunner() error {
	if err := r.params.RequireNotMaintenance(); err != nil {
		return err
	}
	runner := r.env.Caller()
	ok, err := r.runners.Contains(runner)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New("G002", "caller is not a runner")
	}
	alloc, err := r.allocations.RunnerAllocation(runner)
	if err != nil {
		return err
	}
	if alloc.Used.Sign() > 0 {
		return reverts.New("IR004", "runner still has allocations")
	}

	if err := r.stakes.UnstakeAll(runner); err != nil {
		return err
	}
	if _, err := r.runners.Remove(runner); err != nil {
		return err
	}
	r.metadata.Delete(runner)
	if err := r.commissions.Retire(runner); err != nil {
		return err
	}
	logger.Debug("runner unregistered", "runner", runner)
	return r.env.Log(r.addr, "UnregisterIndexer", []sq.Address{runner}, nil)
}

// UpdateMetadata replaces the caller's metadata.
func (r *Registry) UpdateMetadata(metadata sq.Bytes32) error {
	runner := r.env.Caller()
	ok, err := r.runners.Contains(runner)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New("G002", "caller is not a runner")
	}
	if err := r.metadata.Set(runner, metadata); err != nil {
		return err
	}
	return r.env.Log(r.addr, "UpdateMetadata", []sq.Address{runner}, map[string]any{"metadata": metadata})
}
