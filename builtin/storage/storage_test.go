// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subquery/network-ledger/lvldb"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/state"
)

type record struct {
	Amount *big.Int
	Era    uint64
	Owner  sq.Address
	Active bool
}

func newTestContext(t *testing.T) *Context {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewContext(sq.NamedAddress("contract"), state.New(db, sq.Bytes32{}, nil))
}

func TestMapping(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[sq.Address, *record](ctx, Slot("records"))
	alice := sq.NamedAddress("alice")

	got, err := m.Get(alice)
	require.NoError(t, err)
	require.NotNil(t, got, "missing entries decode to zero values")
	assert.Nil(t, got.Amount)

	exists, _ := m.Exists(alice)
	assert.False(t, exists)

	want := &record{Amount: big.NewInt(42), Era: 3, Owner: alice, Active: true}
	require.NoError(t, m.Set(alice, want))
	got, err = m.Get(alice)
	require.NoError(t, err)
	assert.Equal(t, want.Amount.String(), got.Amount.String())
	assert.Equal(t, want.Era, got.Era)
	assert.Equal(t, want.Owner, got.Owner)
	assert.True(t, got.Active)

	// distinct base slots never collide
	other := NewMapping[sq.Address, *record](ctx, Slot("other"))
	exists, _ = other.Exists(alice)
	assert.False(t, exists)

	m.Delete(alice)
	exists, _ = m.Exists(alice)
	assert.False(t, exists)
}

func TestMappingFuzzedRecords(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[Uint64, *record](ctx, Slot("fuzzed"))

	f := fuzz.New().NilChance(0).Funcs(func(b **big.Int, c fuzz.Continue) {
		*b = new(big.Int).SetUint64(c.Uint64())
		(*b).Lsh(*b, uint(c.Intn(64)))
	})
	want := make(map[Uint64]*record)
	for range 200 {
		var (
			key Uint64
			rec record
		)
		f.Fuzz(&key)
		f.Fuzz(&rec)
		require.NoError(t, m.Set(key, &rec))
		want[key] = &rec
	}

	for key, rec := range want {
		got, err := m.Get(key)
		require.NoError(t, err)
		assert.Zero(t, rec.Amount.Cmp(got.Amount), "amount at %d", key)
		assert.Equal(t, rec.Era, got.Era)
		assert.Equal(t, rec.Owner, got.Owner)
		assert.Equal(t, rec.Active, got.Active)
	}
}

func TestPairKey(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[Pair[sq.Address, Uint64], *big.Int](ctx, Slot("pairs"))
	a := sq.NamedAddress("a")

	require.NoError(t, m.Set(PairOf(a, Uint64(1)), big.NewInt(1)))
	require.NoError(t, m.Set(PairOf(a, Uint64(2)), big.NewInt(2)))

	v, err := m.Get(PairOf(a, Uint64(2)))
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.Int64())

	v, err = m.Get(PairOf(a, Uint64(3)))
	require.NoError(t, err)
	assert.Zero(t, v.Sign())
}

func TestUint256(t *testing.T) {
	ctx := newTestContext(t)
	u := NewUint256(ctx, Slot("total"))

	require.NoError(t, u.Add(big.NewInt(10)))
	require.NoError(t, u.Sub(big.NewInt(4)))
	assert.Error(t, u.Sub(big.NewInt(7)))

	v, err := u.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(6), v)
}

func TestAddressAndValue(t *testing.T) {
	ctx := newTestContext(t)
	addr := NewAddress(ctx, Slot("owner"))
	owner := sq.NamedAddress("owner")
	addr.Set(owner)
	got, err := addr.Get()
	require.NoError(t, err)
	assert.Equal(t, owner, got)

	val := NewValue[*record](ctx, Slot("single"))
	require.NoError(t, val.Set(&record{Era: 9}))
	r, err := val.Get()
	require.NoError(t, err)
	assert.Equal(t, uint64(9), r.Era)
	val.Clear()
	r, _ = val.Get()
	assert.Zero(t, r.Era)
}

func TestArray(t *testing.T) {
	ctx := newTestContext(t)
	arr := NewArray[sq.Address](ctx, Slot("list"))
	names := []string{"a", "b", "c"}
	for i, n := range names {
		idx, err := arr.Push(sq.NamedAddress(n))
		require.NoError(t, err)
		assert.Equal(t, uint64(i), idx)
	}

	_, err := arr.Get(3)
	assert.Error(t, err)

	require.NoError(t, arr.SwapRemove(0))
	all, err := arr.All()
	require.NoError(t, err)
	assert.Equal(t, []sq.Address{sq.NamedAddress("c"), sq.NamedAddress("b")}, all)

	require.NoError(t, arr.Set(1, sq.NamedAddress("d")))
	require.NoError(t, arr.SwapRemove(1))
	n, _ := arr.Len()
	assert.Equal(t, uint64(1), n)
}

func TestIndexedSet(t *testing.T) {
	ctx := newTestContext(t)
	set := NewIndexedSet[sq.Address](ctx, Derive(Slot("members"), sq.NamedAddress("group")))
	a, b, c := sq.NamedAddress("a"), sq.NamedAddress("b"), sq.NamedAddress("c")

	for _, v := range []sq.Address{a, b, c} {
		added, err := set.Add(v)
		require.NoError(t, err)
		assert.True(t, added)
	}
	added, err := set.Add(b)
	require.NoError(t, err)
	assert.False(t, added)

	removed, err := set.Remove(a)
	require.NoError(t, err)
	assert.True(t, removed)

	all, err := set.All()
	require.NoError(t, err)
	assert.Equal(t, []sq.Address{c, b}, all)

	// c moved into slot 0 and must still be removable
	removed, _ = set.Remove(c)
	assert.True(t, removed)
	ok, _ := set.Contains(c)
	assert.False(t, ok)
	n, _ := set.Len()
	assert.Equal(t, uint64(1), n)

	removed, _ = set.Remove(a)
	assert.False(t, removed)
}
