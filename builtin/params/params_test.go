// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/lvldb"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/state"
)

func newParams(t *testing.T) *Params {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sq.NamedAddress("params"), state.New(db, sq.Bytes32{}, nil))
}

func TestParamsDefaults(t *testing.T) {
	p := newParams(t)

	v, err := p.Get(KeyLockPeriod)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), v.Int64())

	require.NoError(t, p.Set(KeyUnbondFeeRate, big.NewInt(0)))
	fee, err := p.GetUint64(KeyUnbondFeeRate)
	require.NoError(t, err)
	assert.Zero(t, fee, "explicit zero overrides the default")

	v, _ = p.Get(sq.BytesToBytes32([]byte("unknown")))
	assert.Zero(t, v.Sign())

	// defaults are copies
	Default(KeyLockPeriod).SetInt64(1)
	assert.Equal(t, int64(1000), Default(KeyLockPeriod).Int64())
}

func TestRolesAndMaintenance(t *testing.T) {
	p := newParams(t)
	owner := sq.NamedAddress("owner")
	require.NoError(t, p.SetRole(KeyOwner, owner))

	assert.NoError(t, p.RequireOwner(owner))
	err := p.RequireOwner(sq.NamedAddress("mallory"))
	assert.Equal(t, "G001", reverts.Code(err))

	assert.NoError(t, p.RequireNotMaintenance())
	require.NoError(t, p.SetMaintenance(true))
	assert.Equal(t, "G019", reverts.Code(p.RequireNotMaintenance()))
	require.NoError(t, p.SetMaintenance(false))
	assert.NoError(t, p.RequireNotMaintenance())
}
