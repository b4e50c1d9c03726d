// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence(t *testing.T) {
	tests := []struct {
		block uint64
		index uint32
	}{
		{0, 0},
		{1, 1},
		{1 << 30, indexMask},
		{blockMask, 12345},
	}
	for _, tt := range tests {
		seq := newSequence(tt.block, tt.index)
		assert.Equal(t, tt.block, seq.BlockNumber())
		assert.Equal(t, tt.index, seq.Index())
		assert.GreaterOrEqual(t, int64(seq), int64(0))
	}

	assert.Less(t, newSequence(1, indexMask), newSequence(2, 0))
	assert.Panics(t, func() { newSequence(blockMask+1, 0) })
	assert.Panics(t, func() { newSequence(0, indexMask+1) })
}
