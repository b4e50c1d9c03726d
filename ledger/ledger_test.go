// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subquery/network-ledger/builtin"
	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/health"
	"github.com/subquery/network-ledger/ledger"
	"github.com/subquery/network-ledger/logdb"
	"github.com/subquery/network-ledger/lvldb"
	"github.com/subquery/network-ledger/sq"
)

const day = 24 * time.Hour

var (
	owner    = sq.NamedAddress("owner")
	treasury = sq.NamedAddress("treasury")
	runner   = sq.NamedAddress("runner")
	alice    = sq.NamedAddress("alice")
)

type fixture struct {
	db    *lvldb.LevelDB
	logs  *logdb.LogDB
	clock *clockwork.FakeClock
	l     *ledger.Ledger
}

func newFixture(t *testing.T) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	logs, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() {
		logs.Close()
		db.Close()
	})
	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	l, err := ledger.Open(db, logs, clock, ledger.DevGenesis(), ledger.Options{CacheSize: 128})
	require.NoError(t, err)
	return &fixture{db, logs, clock, l}
}

func balance(t *testing.T, l *ledger.Ledger, addr sq.Address) string {
	var out string
	require.NoError(t, l.View(func(c *builtin.Contracts) error {
		b, err := c.Token.BalanceOf(addr)
		out = sq.FormatSQT(b)
		return err
	}))
	return out
}

func TestOpenGenesis(t *testing.T) {
	f := newFixture(t)
	head := f.l.Head()
	assert.Equal(t, uint64(0), head.Number)
	assert.Equal(t, uint64(1_700_000_000), head.Time)
	assert.False(t, head.Root.IsZero())
	assert.Equal(t, "10000000", balance(t, f.l, owner))

	// reopening keeps the head and ignores genesis
	again, err := ledger.Open(f.db, f.logs, f.clock, nil, ledger.Options{})
	require.NoError(t, err)
	assert.Equal(t, head, again.Head())
	assert.Equal(t, "10000000", balance(t, again, owner))
}

func TestOpenEmptyWithoutGenesis(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	_, err = ledger.Open(db, nil, clockwork.NewFakeClock(), nil, ledger.Options{})
	assert.Error(t, err)
}

func TestExecuteCommits(t *testing.T) {
	f := newFixture(t)
	f.clock.Advance(time.Minute)

	receipt, err := f.l.Transfer(owner, alice, sq.SQT(5))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.BlockNumber)
	assert.Equal(t, uint64(1_700_000_060), receipt.BlockTime)
	assert.Equal(t, uint64(1), receipt.Era)
	assert.Equal(t, "transfer", receipt.Name)
	assert.Equal(t, f.l.Head().Root, receipt.StateRoot)
	assert.Equal(t, "5", balance(t, f.l, alice))

	_, err = f.l.Transfer(alice, owner, sq.SQT(6))
	assert.Equal(t, "T001", reverts.Code(err))
	assert.Equal(t, uint64(1), f.l.Head().Number, "rejected command is not a block")
	assert.Equal(t, "5", balance(t, f.l, alice))
}

func TestViewDiscardsWrites(t *testing.T) {
	f := newFixture(t)
	root := f.l.Head().Root
	require.NoError(t, f.l.View(func(c *builtin.Contracts) error {
		return c.Token.Transfer(owner, alice, sq.SQT(1))
	}))
	assert.Equal(t, root, f.l.Head().Root)
	assert.Equal(t, "0", balance(t, f.l, alice))
}

func TestEventsAndFeed(t *testing.T) {
	f := newFixture(t)
	waiter := f.l.NewEventWaiter()

	_, err := f.l.StartNewEra(owner)
	require.NoError(t, err)

	select {
	case <-waiter.C():
	default:
		t.Fatal("feed not signaled")
	}

	events, err := f.l.EventsAfter(context.Background(), 0, 100)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, "NewEraStart", events[0].Name)
	assert.Equal(t, builtin.EraAddress, events[0].Emitter)
	assert.Equal(t, owner, events[0].Origin)
	assert.Equal(t, uint64(1), events[0].BlockNumber)
}

func TestTick(t *testing.T) {
	f := newFixture(t)
	_, err := f.l.StartNewEra(owner)
	require.NoError(t, err)
	number := f.l.Head().Number

	require.NoError(t, f.l.Tick())
	assert.Equal(t, number, f.l.Head().Number, "era not elapsed")

	f.clock.Advance(2*day + time.Hour)
	require.NoError(t, f.l.Tick())
	assert.Equal(t, number+1, f.l.Head().Number)
	require.NoError(t, f.l.View(func(c *builtin.Contracts) error {
		era, err := c.Era.EraNumber()
		assert.Equal(t, uint64(4), era)
		return err
	}))
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	_, err := f.l.StartNewEra(owner)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.l.Run(ctx, time.Minute)
		close(done)
	}()
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(day)

	assert.Eventually(t, func() bool {
		var era uint64
		_ = f.l.View(func(c *builtin.Contracts) error {
			era, _ = c.Era.EraNumber()
			return nil
		})
		return era == 3
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestRunReportsHealth(t *testing.T) {
	f := newFixture(t)
	h := health.New(f.clock, time.Minute)
	l, err := ledger.Open(f.db, f.logs, f.clock, nil, ledger.Options{Health: h})
	require.NoError(t, err)
	_, err = l.StartNewEra(owner)
	require.NoError(t, err)
	assert.False(t, h.Status().Healthy)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx, time.Minute)
		close(done)
	}()
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	assert.True(t, h.Status().Healthy)

	f.clock.Advance(day)
	assert.Eventually(t, func() bool {
		return h.Status().EraKeeper.Head == l.Head().Number && l.Head().Number == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
	assert.False(t, h.Status().Healthy)
}

func TestTimeNeverGoesBack(t *testing.T) {
	f := newFixture(t)
	f.clock.Advance(time.Hour)
	_, err := f.l.StartNewEra(owner)
	require.NoError(t, err)
	back := f.l.Head().Time

	clock := clockwork.NewFakeClockAt(time.Unix(1_600_000_000, 0))
	again, err := ledger.Open(f.db, f.logs, clock, nil, ledger.Options{})
	require.NoError(t, err)
	r, err := again.Transfer(owner, treasury, sq.SQT(1))
	require.NoError(t, err)
	assert.Equal(t, back, r.BlockTime)
}

func TestSetParam(t *testing.T) {
	f := newFixture(t)

	_, err := f.l.SetParam(alice, "lockPeriod", "60")
	assert.Equal(t, "G001", reverts.Code(err))

	_, err = f.l.SetParam(owner, "lockPeriod", "60")
	require.NoError(t, err)
	_, err = f.l.SetParam(owner, "minimumStakingAmount", "5")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, f.l.View(func(c *builtin.Contracts) (err error) {
		got, err = ledger.ReadParams(c)
		return
	}))
	assert.Equal(t, "60", got["lockPeriod"])
	assert.Equal(t, "5", got["minimumStakingAmount"])

	_, err = f.l.SetParam(owner, "unknown", "1")
	assert.Error(t, err)
}

func TestBoosterIssuanceFollowsTime(t *testing.T) {
	f := newFixture(t)
	deployment := sq.Blake2b([]byte("deployment"))
	_, err := f.l.BoostDeployment(owner, deployment, sq.SQT(20_000))
	require.NoError(t, err)

	accRewards := func() string {
		var out string
		require.NoError(t, f.l.View(func(c *builtin.Contracts) error {
			v, err := c.Booster.GetAccRewardsForDeployment(deployment)
			out = sq.FormatSQT(v)
			return err
		}))
		return out
	}

	// 1 SQT per 6s block
	f.clock.Advance(time.Minute)
	assert.Equal(t, "10", accRewards())

	// commands at the same time do not issue more
	for range 3 {
		r, err := f.l.Transfer(owner, treasury, sq.SQT(1))
		require.NoError(t, err)
		assert.Equal(t, uint64(10), r.BlockHeight)
	}
	assert.Equal(t, "10", accRewards())

	f.clock.Advance(30 * day)
	assert.Equal(t, "432010", accRewards())

	var query string
	require.NoError(t, f.l.View(func(c *builtin.Contracts) error {
		v, err := c.Booster.GetQueryRewards(deployment, owner)
		query = sq.FormatSQT(v)
		return err
	}))
	assert.Equal(t, "216005", query)
}

func TestChainInfoSurvivesReopen(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, uint64(1_700_000_000), f.l.GenesisTime())
	assert.Equal(t, uint64(sq.DefaultBlockInterval), f.l.BlockInterval())

	f.clock.Advance(time.Hour)
	again, err := ledger.Open(f.db, f.logs, f.clock, nil, ledger.Options{})
	require.NoError(t, err)
	assert.Equal(t, f.l.GenesisTime(), again.GenesisTime())
	assert.Equal(t, uint64(600), again.HeightAt(uint64(f.clock.Now().Unix())))
	assert.Equal(t, uint64(0), again.HeightAt(1_600_000_000))
}

func TestGenesisBlockInterval(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	gene := ledger.DevGenesis()
	gene.BlockInterval = 12
	gene.StartTime = 1_700_000_000
	l, err := ledger.Open(db, nil, clockwork.NewFakeClockAt(time.Unix(1_700_000_120, 0)), gene, ledger.Options{})
	require.NoError(t, err)
	r, err := l.Transfer(owner, alice, sq.SQT(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(10), r.BlockHeight)
}
