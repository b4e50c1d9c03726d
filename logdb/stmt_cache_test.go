// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStmtCacheReuses(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	for range 3 {
		_, err := db.LastSeq(ctx)
		require.NoError(t, err)
		_, err = db.EventsAfter(ctx, 0, 10)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, db.stmtCache.Len())

	_, err = db.FilterEvents(ctx, &EventFilter{CriteriaSet: []*EventCriteria{{Name: "Delegate"}}})
	require.NoError(t, err)
	_, err = db.FilterEvents(ctx, &EventFilter{CriteriaSet: []*EventCriteria{{Name: "Stake"}}})
	require.NoError(t, err)
	assert.Equal(t, 3, db.stmtCache.Len(), "same shape, same statement")

	require.NoError(t, db.stmtCache.Close())
	assert.Zero(t, db.stmtCache.Len())
}
