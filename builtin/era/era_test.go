// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package era

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subquery/network-ledger/builtin/params"
	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/lvldb"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/state"
	"github.com/subquery/network-ledger/xenv"
)

const day = uint64(24 * 3600)

var owner = sq.NamedAddress("owner")

type clockTest struct {
	*Clock
	t      *testing.T
	block  *xenv.BlockContext
	params *params.Params
}

func newClockTest(t *testing.T) *clockTest {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db, sq.Bytes32{}, nil)
	block := &xenv.BlockContext{Time: 1_700_000_000}
	env := xenv.New(st, block, &xenv.CommandContext{Origin: owner})
	p := params.New(sq.NamedAddress("params"), st)
	require.NoError(t, p.SetRole(params.KeyOwner, owner))

	c := New(sq.NamedAddress("era"), env, p)
	c.Initialize(0)
	return &clockTest{Clock: c, t: t, block: block, params: p}
}

func (ct *clockTest) travel(secs uint64) *clockTest {
	ct.block.Time += secs
	return ct
}

func (ct *clockTest) assertEra(want uint64) *clockTest {
	got, err := ct.EraNumber()
	require.NoError(ct.t, err)
	assert.Equal(ct.t, want, got)
	return ct
}

func TestDefaults(t *testing.T) {
	ct := newClockTest(t)
	period, _ := ct.EraPeriod()
	start, _ := ct.EraStartTime()
	assert.Equal(t, day, period)
	assert.Zero(t, start)
	ct.assertEra(1)
}

func TestStartNewEra(t *testing.T) {
	ct := newClockTest(t)

	var hooked []uint64
	ct.OnNewEra(func(era uint64) error {
		hooked = append(hooked, era)
		return nil
	})

	require.NoError(t, ct.StartNewEra())
	ct.assertEra(2)
	assert.Equal(t, "E002", reverts.Code(ct.StartNewEra()))

	ct.travel(day)
	require.NoError(t, ct.StartNewEra())
	ct.assertEra(3)
	assert.Equal(t, []uint64{2, 3}, hooked)
}

func TestSafeUpdate(t *testing.T) {
	ct := newClockTest(t)

	era, err := ct.SafeUpdateAndGetEra()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), era)
	start, _ := ct.EraStartTime()

	era, _ = ct.SafeUpdateAndGetEra()
	assert.Equal(t, uint64(2), era, "idempotent when caught up")

	ct.travel(2*day + 100)
	era, _ = ct.SafeUpdateAndGetEra()
	assert.Equal(t, uint64(4), era)
	newStart, _ := ct.EraStartTime()
	assert.Equal(t, start+2*day, newStart, "boundaries stay aligned")
}

func TestTimestampToEraNumber(t *testing.T) {
	ct := newClockTest(t)
	require.NoError(t, ct.UpdateEraPeriod(3*day))
	ct.travel(3 * day)
	_, err := ct.SafeUpdateAndGetEra()
	require.NoError(t, err)

	now := ct.block.Time
	era, err := ct.TimestampToEraNumber(now)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), era)

	era, _ = ct.TimestampToEraNumber(now + 13*day)
	assert.Equal(t, uint64(6), era)

	_, err = ct.TimestampToEraNumber(now - 100)
	assert.Equal(t, "E003", reverts.Code(err))
}

func TestGuards(t *testing.T) {
	ct := newClockTest(t)
	assert.Equal(t, "E001", reverts.Code(ct.UpdateEraPeriod(0)))

	require.NoError(t, ct.params.SetMaintenance(true))
	assert.Equal(t, "G019", reverts.Code(ct.StartNewEra()))
	_, err := ct.SafeUpdateAndGetEra()
	assert.Equal(t, "G019", reverts.Code(err))

	other := xenv.New(ct.env.State(), ct.block, &xenv.CommandContext{Origin: sq.NamedAddress("x")})
	c := New(sq.NamedAddress("era"), other, ct.params)
	assert.Equal(t, "G001", reverts.Code(c.UpdateEraPeriod(10)))
}
