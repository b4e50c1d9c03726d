// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package testchain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subquery/network-ledger/builtin"
	"github.com/subquery/network-ledger/sq"
)

func Test_ChainDefault(t *testing.T) {
	chain, err := NewDefault()
	require.NoError(t, err)
	defer chain.Close()

	bal, err := chain.Balance(Owner)
	require.NoError(t, err)
	assert.Equal(t, sq.SQT(10_000_000).String(), bal.String())

	require.NoError(t, chain.StartEras(3))
	era, err := chain.Contracts().Era.EraNumber()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), era)
}

func Test_ExecReverts(t *testing.T) {
	chain, err := NewDefault()
	require.NoError(t, err)
	defer chain.Close()

	acc := sq.NamedAddress("acc")
	boom := errors.New("boom")
	err = chain.Exec(Owner, func(b *builtin.Contracts) error {
		if err := b.Token.Transfer(Owner, acc, sq.SQT(1)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	bal, err := chain.Balance(acc)
	require.NoError(t, err)
	assert.Equal(t, 0, bal.Sign())
}
