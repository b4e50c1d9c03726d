// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subquery/network-ledger/kv"
	"github.com/subquery/network-ledger/lvldb"
	"github.com/subquery/network-ledger/sq"
)

func newStater(t *testing.T) *Stater {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStater(db, 64)
}

func TestStateReadWrite(t *testing.T) {
	st := newStater(t).NewState(sq.Bytes32{})
	addr := sq.NamedAddress("acc1")
	slot := sq.BytesToBytes32([]byte("slot"))

	bal, err := st.GetBalance(addr)
	require.NoError(t, err)
	assert.Zero(t, bal.Sign())

	require.NoError(t, st.SetBalance(addr, big.NewInt(10)))
	assert.Error(t, st.SetBalance(addr, big.NewInt(-1)))

	st.SetStorage(addr, slot, sq.BytesToBytes32([]byte{1, 2}))
	v, err := st.GetStorage(addr, slot)
	require.NoError(t, err)
	assert.Equal(t, sq.BytesToBytes32([]byte{1, 2}), v)

	type pair struct{ A, B uint64 }
	require.NoError(t, st.EncodeStorage(addr, sq.Bytes32{1}, func() ([]byte, error) {
		return rlp.EncodeToBytes(&pair{1, 2})
	}))
	var got pair
	require.NoError(t, st.DecodeStorage(addr, sq.Bytes32{1}, func(raw []byte) error {
		return rlp.DecodeBytes(raw, &got)
	}))
	assert.Equal(t, pair{1, 2}, got)
}

func TestCheckpointRevert(t *testing.T) {
	st := newStater(t).NewState(sq.Bytes32{})
	addr := sq.NamedAddress("acc")

	require.NoError(t, st.SetBalance(addr, big.NewInt(1)))
	cp := st.NewCheckpoint()
	require.NoError(t, st.SetBalance(addr, big.NewInt(2)))
	st.RevertTo(cp)

	bal, _ := st.GetBalance(addr)
	assert.Equal(t, int64(1), bal.Int64())

	st.RevertTo(0)
	bal, _ = st.GetBalance(addr)
	assert.Zero(t, bal.Sign())
	require.NoError(t, st.SetBalance(addr, big.NewInt(3)), "state usable after full revert")
}

func TestStageCommit(t *testing.T) {
	stater := newStater(t)
	st := stater.NewState(sq.Bytes32{})
	addr := sq.NamedAddress("acc")
	slots := map[sq.Bytes32]sq.Bytes32{
		sq.BytesToBytes32([]byte("s1")): sq.BytesToBytes32([]byte("v1")),
		sq.BytesToBytes32([]byte("s2")): sq.BytesToBytes32([]byte("v2")),
	}

	require.NoError(t, st.SetBalance(addr, big.NewInt(10)))
	for k, v := range slots {
		st.SetStorage(addr, k, v)
	}

	stage := st.Stage()
	assert.Equal(t, 3, stage.Len())
	assert.Equal(t, stage.Root(), st.Stage().Root(), "deterministic")
	require.NoError(t, stage.Commit())

	next := stater.NewState(stage.Root())
	assert.Equal(t, stage.Root(), next.Root())
	bal, _ := next.GetBalance(addr)
	assert.Equal(t, int64(10), bal.Int64())
	for k, v := range slots {
		got, err := next.GetStorage(addr, k)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	// deletes are persisted too
	next.SetStorage(addr, sq.BytesToBytes32([]byte("s1")), sq.Bytes32{})
	require.NoError(t, next.Stage().Commit())
	fresh := New(stater.db, sq.Bytes32{}, nil)
	got, _ := fresh.GetStorage(addr, sq.BytesToBytes32([]byte("s1")))
	assert.True(t, got.IsZero())
}

func TestCommitExtraPuts(t *testing.T) {
	stater := newStater(t)
	st := stater.NewState(sq.Bytes32{})
	require.NoError(t, st.SetBalance(sq.NamedAddress("acc"), big.NewInt(1)))

	require.NoError(t, st.Stage().Commit(func(p kv.Putter) error {
		return p.Put([]byte("head"), []byte{1})
	}))
	v, err := stater.db.Get([]byte("head"))
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, v)

	failing := stater.NewState(sq.Bytes32{})
	failing.SetStorage(sq.NamedAddress("acc"), sq.BytesToBytes32([]byte("x")), sq.BytesToBytes32([]byte("y")))
	err = failing.Stage().Commit(func(kv.Putter) error { return errors.New("boom") })
	assert.ErrorContains(t, err, "boom")
	got, _ := stater.NewState(sq.Bytes32{}).GetStorage(sq.NamedAddress("acc"), sq.BytesToBytes32([]byte("x")))
	assert.True(t, got.IsZero())
}
