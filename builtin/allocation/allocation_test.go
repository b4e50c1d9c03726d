// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package allocation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subquery/network-ledger/builtin"
	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/test/testchain"
)

var (
	runner     = sq.NamedAddress("runner")
	other      = sq.NamedAddress("other")
	deployment = sq.Blake2b([]byte("deployment"))
)

func newChain(t *testing.T) *testchain.Chain {
	chain, err := testchain.NewDefault()
	require.NoError(t, err)
	t.Cleanup(func() { chain.Close() })

	require.NoError(t, chain.Exec(testchain.Owner, func(b *builtin.Contracts) error {
		return b.Staking.SetMinimumStakingAmount(sq.SQT(100))
	}))
	require.NoError(t, chain.StartEras(1))
	require.NoError(t, chain.RegisterRunner(runner, sq.SQT(1000), 0))
	return chain
}

func assertCode(t *testing.T, code string, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, reverts.Code(err), err.Error())
}

func allocate(amount int64) func(b *builtin.Contracts) error {
	return func(b *builtin.Contracts) error {
		return b.Allocation.AddAllocation(deployment, runner, sq.SQT(amount))
	}
}

func TestAllocateWithinStake(t *testing.T) {
	chain := newChain(t)
	a := chain.Contracts().Allocation

	info, err := a.RunnerAllocation(runner)
	require.NoError(t, err)
	assert.Equal(t, sq.SQT(1000).String(), info.Total.String())

	require.NoError(t, chain.Exec(runner, allocate(600)))
	assertCode(t, "SA01", chain.Exec(runner, allocate(401)))
	assertCode(t, "SA02", chain.Exec(other, allocate(1)))
	assertCode(t, "SA04", chain.Exec(runner, func(b *builtin.Contracts) error {
		return b.Allocation.RemoveAllocation(deployment, runner, sq.SQT(601))
	}))

	got, err := a.Allocated(runner, deployment)
	require.NoError(t, err)
	assert.Equal(t, sq.SQT(600).String(), got.String())
	total, err := a.DeploymentAllocations(deployment)
	require.NoError(t, err)
	assert.Equal(t, sq.SQT(600).String(), total.String())
	deps, err := a.RunnerDeployments(runner)
	require.NoError(t, err)
	assert.Equal(t, []sq.Bytes32{deployment}, deps)

	require.NoError(t, chain.Exec(runner, func(b *builtin.Contracts) error {
		return b.Allocation.RemoveAllocation(deployment, runner, sq.SQT(600))
	}))
	deps, err = a.RunnerDeployments(runner)
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestOverflowTime(t *testing.T) {
	chain := newChain(t)
	a := chain.Contracts().Allocation

	require.NoError(t, chain.Exec(runner, allocate(1000)))
	require.NoError(t, chain.Exec(runner, func(b *builtin.Contracts) error {
		return b.Staking.Unstake(runner, sq.SQT(500))
	}))

	// the unstake lands once the era is settled and the change applied
	chain.Travel(testchain.Day)
	require.NoError(t, chain.Exec(runner, func(b *builtin.Contracts) error {
		if err := b.Rewards.CollectAndDistributeRewards(runner); err != nil {
			return err
		}
		return b.Rewards.ApplyStakeChange(runner, runner)
	}))
	over, err := a.IsOverflow(runner)
	require.NoError(t, err)
	assert.True(t, over)

	chain.Travel(100)
	secs, err := a.OverflowTime(runner)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), secs)

	require.NoError(t, chain.Exec(runner, func(b *builtin.Contracts) error {
		return b.Allocation.RemoveAllocation(deployment, runner, sq.SQT(500))
	}))
	chain.Travel(100)
	secs, err = a.OverflowTime(runner)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), secs)

	over, err = a.IsOverflow(runner)
	require.NoError(t, err)
	assert.False(t, over)
}
