// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package inflation

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subquery/network-ledger/builtin/params"
	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/builtin/token"
	"github.com/subquery/network-ledger/lvldb"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/state"
	"github.com/subquery/network-ledger/xenv"
)

var (
	owner    = sq.NamedAddress("owner")
	treasury = sq.NamedAddress("treasury")
	alice    = sq.NamedAddress("alice")
)

type fixture struct {
	*Controller
	block *xenv.BlockContext
	cmd   *xenv.CommandContext
	token *token.Token
}

func newFixture(t *testing.T) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db, sq.Bytes32{}, nil)
	block := &xenv.BlockContext{Time: 1_700_000_000}
	cmd := &xenv.CommandContext{Origin: owner}
	env := xenv.New(st, block, cmd)

	p := params.New(sq.NamedAddress("params"), st)
	require.NoError(t, p.SetRole(params.KeyOwner, owner))
	tk := token.New(sq.NamedAddress("token"), st)
	require.NoError(t, tk.Mint(owner, sq.SQT(10_000_000_000)))

	c := New(sq.NamedAddress("inflation"), env, p, tk)
	c.Initialize(treasury)
	return &fixture{Controller: c, block: block, cmd: cmd, token: tk}
}

func expectedMint(supply *big.Int, rate, elapsed uint64) *big.Int {
	v := new(big.Int).Mul(supply, new(big.Int).SetUint64(rate*elapsed))
	return v.Quo(v, bigYearPerMill)
}

func TestMintInflatedTokens(t *testing.T) {
	f := newFixture(t)
	supply, _ := f.token.TotalSupply()

	f.block.Time += 24 * 3600
	require.NoError(t, f.MintInflatedTokens(2))

	got, err := f.token.BalanceOf(treasury)
	require.NoError(t, err)
	want := expectedMint(supply, 1000, 24*3600)
	assert.Equal(t, want.String(), got.String())

	// the next installment compounds on the new supply
	supply, _ = f.token.TotalSupply()
	f.block.Time += 3600
	require.NoError(t, f.MintInflatedTokens(3))
	got2, _ := f.token.BalanceOf(treasury)
	assert.Equal(t, new(big.Int).Add(want, expectedMint(supply, 1000, 3600)).String(), got2.String())
}

func TestZeroRateMintsNothing(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.SetInflationRate(0))

	f.block.Time += 24 * 3600
	require.NoError(t, f.MintInflatedTokens(2))
	got, _ := f.token.BalanceOf(treasury)
	assert.Zero(t, got.Sign())
}

func TestOwnerSetters(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "IC001", reverts.Code(f.SetInflationRate(sq.PerMill+1)))
	require.NoError(t, f.SetInflationRate(sq.PerMill))
	rate, _ := f.InflationRate()
	assert.Equal(t, uint64(sq.PerMill), rate)

	require.NoError(t, f.SetInflationDestination(alice))
	dest, _ := f.InflationDestination()
	assert.Equal(t, alice, dest)

	require.NoError(t, f.MintSQT(alice, sq.SQT(5)))
	bal, _ := f.token.BalanceOf(alice)
	assert.Equal(t, sq.SQT(5), bal)

	f.cmd.Origin = alice
	assert.Equal(t, "G001", reverts.Code(f.SetInflationRate(1)))
	assert.Equal(t, "G001", reverts.Code(f.SetInflationDestination(alice)))
	assert.Equal(t, "G001", reverts.Code(f.MintSQT(alice, sq.SQT(1))))
}
