// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subquery/network-ledger/builtin"
	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/test/testchain"
)

var (
	runner    = sq.NamedAddress("runner")
	delegator = sq.NamedAddress("delegator")
	owner     = testchain.Owner
	day       = testchain.Day
)

type rewardsTest struct {
	*testchain.Chain
	t *testing.T
}

func newRewardsTest(t *testing.T) *rewardsTest {
	chain, err := testchain.NewDefault()
	require.NoError(t, err)
	t.Cleanup(func() { chain.Close() })

	require.NoError(t, chain.StartEras(1))
	require.NoError(t, chain.RegisterRunner(runner, sq.SQT(1000), 100_000))
	require.NoError(t, chain.Fund(sq.SQT(10_000), delegator))
	return &rewardsTest{Chain: chain, t: t}
}

func (rt *rewardsTest) exec(caller sq.Address, fn func(b *builtin.Contracts) error) *rewardsTest {
	rt.t.Helper()
	require.NoError(rt.t, rt.Exec(caller, fn))
	return rt
}

func (rt *rewardsTest) expectCode(code string, caller sq.Address, fn func(b *builtin.Contracts) error) *rewardsTest {
	rt.t.Helper()
	err := rt.Exec(caller, fn)
	require.Error(rt.t, err)
	assert.Equal(rt.t, code, reverts.Code(err), err.Error())
	return rt
}

func (rt *rewardsTest) travel(secs uint64) *rewardsTest {
	rt.Travel(secs)
	return rt
}

func (rt *rewardsTest) collect() *rewardsTest {
	rt.t.Helper()
	return rt.exec(runner, func(b *builtin.Contracts) error { return b.Rewards.CollectAndDistributeRewards(runner) })
}

func (rt *rewardsTest) apply(staker sq.Address) *rewardsTest {
	rt.t.Helper()
	return rt.exec(runner, func(b *builtin.Contracts) error { return b.Rewards.ApplyStakeChange(runner, staker) })
}

func (rt *rewardsTest) delegate(amount *big.Int) *rewardsTest {
	rt.t.Helper()
	return rt.exec(delegator, func(b *builtin.Contracts) error { return b.Staking.Delegate(runner, amount) })
}

func (rt *rewardsTest) info() (lastClaimEra uint64, eraReward string) {
	rt.t.Helper()
	info, err := rt.Contracts().Rewards.GetRewardInfo(runner)
	require.NoError(rt.t, err)
	return info.LastClaimEra, info.EraReward.String()
}

func (rt *rewardsTest) userRewards(account sq.Address) string {
	rt.t.Helper()
	v, err := rt.Contracts().Rewards.UserRewards(runner, account)
	require.NoError(rt.t, err)
	return v.String()
}

func (rt *rewardsTest) era() uint64 {
	rt.t.Helper()
	era, err := rt.Contracts().Era.EraNumber()
	require.NoError(rt.t, err)
	return era
}

func TestRegisterStartsTracking(t *testing.T) {
	rt := newRewardsTest(t)
	last, reward := rt.info()
	assert.Equal(t, uint64(1), last)
	assert.Equal(t, "0", reward)

	total, err := rt.Contracts().Rewards.GetTotalStakingAmount(runner)
	require.NoError(t, err)
	assert.Equal(t, sq.SQT(1000).String(), total.String())
}

func TestProRataDistribution(t *testing.T) {
	rt := newRewardsTest(t)
	rt.delegate(sq.SQT(100)).
		travel(day).collect().apply(delegator)

	era := rt.era()
	rt.exec(owner, func(b *builtin.Contracts) error {
		return b.Rewards.AddInstantRewards(owner, runner, sq.SQT(100), era)
	})
	rt.travel(day).collect()

	// 90 left after 10% commission, split 100/1100 and 1000/1100
	assert.Equal(t, "8181818181818181800", rt.userRewards(delegator))
	assert.Equal(t, "81818181818181818000", rt.userRewards(runner))

	before, err := rt.Balance(delegator)
	require.NoError(t, err)
	rt.exec(delegator, func(b *builtin.Contracts) error { return b.Rewards.Claim(runner) })
	after, err := rt.Balance(delegator)
	require.NoError(t, err)
	assert.Equal(t, "8181818181818181800", new(big.Int).Sub(after, before).String())

	rt.expectCode("RD007", delegator, func(b *builtin.Contracts) error { return b.Rewards.Claim(runner) })
}

func TestCommissionPaidToRunner(t *testing.T) {
	rt := newRewardsTest(t)
	era := rt.era()
	before, err := rt.Balance(runner)
	require.NoError(t, err)

	rt.exec(owner, func(b *builtin.Contracts) error {
		return b.Rewards.AddInstantRewards(owner, runner, sq.SQT(50), era)
	})
	rt.travel(day).collect()

	after, err := rt.Balance(runner)
	require.NoError(t, err)
	assert.Equal(t, sq.SQT(5).String(), new(big.Int).Sub(after, before).String())
	assert.Equal(t, sq.SQT(45).String(), rt.userRewards(runner))
}

func TestAgreementSplit(t *testing.T) {
	rt := newRewardsTest(t)
	start := rt.Now() + day/2
	value := sq.SQT(10)
	rt.exec(owner, func(b *builtin.Contracts) error {
		return b.Rewards.IncreaseAgreementRewards(owner, runner, value, start, 3*day)
	})

	r := rt.Contracts().Rewards
	adds, err := r.GetRewardsAddTable(runner, 2, 7)
	require.NoError(t, err)
	removes, err := r.GetRewardsRemoveTable(runner, 2, 7)
	require.NoError(t, err)

	sum, running := new(big.Int), new(big.Int)
	perEra := make([]string, 0, 5)
	for i := range adds {
		running.Add(running, adds[i])
		running.Sub(running, removes[i])
		sum.Add(sum, running)
		perEra = append(perEra, running.String())
	}
	assert.Equal(t, value.String(), sum.String())
	assert.Equal(t, []string{
		"1666666666666666666",
		"3333333333333333334",
		"3333333333333333334",
		"1666666666666666666",
		"0",
	}, perEra)

	// settle era by era and watch the running reward follow the table
	for i, want := range perEra[:4] {
		rt.travel(day).collect()
		last, reward := rt.info()
		assert.Equal(t, uint64(2+i), last)
		assert.Equal(t, want, reward)
	}
}

func TestAgreementWithinOneEra(t *testing.T) {
	rt := newRewardsTest(t)
	rt.exec(owner, func(b *builtin.Contracts) error {
		return b.Rewards.IncreaseAgreementRewards(owner, runner, sq.SQT(1), rt.Now(), day/4)
	})
	adds, err := rt.Contracts().Rewards.GetRewardsAddTable(runner, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, sq.SQT(1).String(), adds[0].String())

	rt.expectCode("S001", owner, func(b *builtin.Contracts) error {
		return b.Rewards.IncreaseAgreementRewards(owner, runner, sq.SQT(1), rt.Now(), 0)
	})
}

func TestCollectRules(t *testing.T) {
	rt := newRewardsTest(t)

	// the current era can not be settled
	rt.expectCode("RD002", runner, func(b *builtin.Contracts) error {
		return b.Rewards.CollectAndDistributeRewards(runner)
	})

	rt.travel(day).collect()
	last, _ := rt.info()
	assert.Equal(t, uint64(2), last)

	rt.expectCode("RD006", owner, func(b *builtin.Contracts) error {
		return b.Rewards.AddInstantRewards(owner, runner, sq.SQT(1), 2)
	})
	rt.expectCode("RD006", owner, func(b *builtin.Contracts) error {
		return b.Rewards.AddInstantRewards(owner, runner, sq.SQT(1), 10)
	})
}

func TestLastClaimEraMonotonic(t *testing.T) {
	rt := newRewardsTest(t)
	rt.travel(4 * day)

	prev, _ := rt.info()
	for {
		err := rt.Exec(runner, func(b *builtin.Contracts) error {
			return b.Rewards.CollectAndDistributeRewards(runner)
		})
		if err != nil {
			assert.Equal(t, "RD002", reverts.Code(err))
			break
		}
		last, _ := rt.info()
		assert.Equal(t, prev+1, last)
		prev = last
	}
	assert.Equal(t, rt.era()-1, prev)
}

func TestStakeChangeRules(t *testing.T) {
	rt := newRewardsTest(t)
	rt.delegate(sq.SQT(10))

	// queued in era 2, not applied yet and era 2 settled: era 3 is blocked
	rt.travel(day).collect()
	rt.expectCode("RS003", delegator, func(b *builtin.Contracts) error {
		return b.Staking.Delegate(runner, sq.SQT(1))
	})
	rt.travel(day)
	rt.expectCode("RD005", runner, func(b *builtin.Contracts) error {
		return b.Rewards.CollectAndDistributeRewards(runner)
	})
	rt.apply(delegator).collect()
	rt.expectCode("RS004", runner, func(b *builtin.Contracts) error {
		return b.Rewards.ApplyStakeChange(runner, delegator)
	})

	// one unsettled era before the previous one is settled on the way,
	// more are not
	rt.travel(day).delegate(sq.SQT(1))
	rt.travel(day).collect().apply(delegator)
	rt.travel(3 * day)
	rt.expectCode("RS002", delegator, func(b *builtin.Contracts) error {
		return b.Staking.Delegate(runner, sq.SQT(1))
	})
}

func TestApplyBeforeSettled(t *testing.T) {
	rt := newRewardsTest(t)
	rt.delegate(sq.SQT(10))
	rt.expectCode("RS006", runner, func(b *builtin.Contracts) error {
		return b.Rewards.ApplyStakeChange(runner, delegator)
	})
}

func TestCommissionChange(t *testing.T) {
	rt := newRewardsTest(t)
	rt.exec(runner, func(b *builtin.Contracts) error { return b.Commission.SetCommissionRate(500_000) })

	rate, err := rt.Contracts().Commission.CommissionRate(runner)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000), rate)

	rt.travel(day).collect()
	rt.expectCode("RS005", runner, func(b *builtin.Contracts) error { return b.Rewards.ApplyICRChange(runner) })

	rt.travel(day).collect()
	rate, err = rt.Contracts().Commission.CommissionRate(runner)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000), rate)

	rt.travel(day)
	rt.expectCode("RD005", runner, func(b *builtin.Contracts) error {
		return b.Rewards.CollectAndDistributeRewards(runner)
	})
	rt.exec(runner, func(b *builtin.Contracts) error { return b.Rewards.ApplyICRChange(runner) })

	era := rt.era()
	rt.exec(owner, func(b *builtin.Contracts) error {
		return b.Rewards.AddInstantRewards(owner, runner, sq.SQT(10), era)
	})
	rt.collect()
	before, err := rt.Balance(runner)
	require.NoError(t, err)
	rt.travel(day).collect()
	after, err := rt.Balance(runner)
	require.NoError(t, err)
	assert.Equal(t, sq.SQT(5).String(), new(big.Int).Sub(after, before).String())
}

func TestIndexerCatchup(t *testing.T) {
	rt := newRewardsTest(t)
	rt.delegate(sq.SQT(10))
	rt.exec(runner, func(b *builtin.Contracts) error { return b.Commission.SetCommissionRate(0) })
	rt.travel(5 * day)

	var n uint64
	rt.exec(runner, func(b *builtin.Contracts) error {
		var err error
		n, err = b.Rewards.IndexerCatchup(runner, 10)
		return err
	})
	assert.Equal(t, uint64(5), n)

	last, _ := rt.info()
	assert.Equal(t, rt.era()-1, last)
	pending, err := rt.Contracts().Rewards.GetPendingStakers(runner)
	require.NoError(t, err)
	assert.Empty(t, pending)
	rate, err := rt.Contracts().Commission.Get(runner)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), rate.Current)
	assert.Equal(t, uint64(0), rate.PendingEra)
}

func TestBatchClaim(t *testing.T) {
	rt := newRewardsTest(t)
	era := rt.era()
	rt.exec(owner, func(b *builtin.Contracts) error {
		return b.Rewards.AddInstantRewards(owner, runner, sq.SQT(10), era)
	})
	rt.travel(day).collect()

	var paid *big.Int
	rt.exec(runner, func(b *builtin.Contracts) error {
		var err error
		paid, err = b.Rewards.BatchClaim(runner, []sq.Address{runner, delegator})
		return err
	})
	assert.Equal(t, sq.SQT(9).String(), paid.String())
}
