// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sq

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulDiv(t *testing.T) {
	tests := []struct {
		name    string
		x, y, d *big.Int
		want    *big.Int
	}{
		{"simple", big.NewInt(90), big.NewInt(100), big.NewInt(1100), big.NewInt(8)},
		{"zero divisor", big.NewInt(1), big.NewInt(1), big.NewInt(0), big.NewInt(0)},
		{"floor", big.NewInt(1000), big.NewInt(1000), big.NewInt(PerMill), big.NewInt(1)},
		{
			"beyond 256 bits",
			new(big.Int).Lsh(big.NewInt(1), 255),
			big.NewInt(4),
			big.NewInt(2),
			new(big.Int).Lsh(big.NewInt(1), 256),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 0, tt.want.Cmp(MulDiv(tt.x, tt.y, tt.d)), "got %s", MulDiv(tt.x, tt.y, tt.d))
		})
	}
}

func TestPerMillOf(t *testing.T) {
	// unbonding 1000 base units at 0.1% leaves a fee of 1
	assert.Equal(t, "1", PerMillOf(big.NewInt(1000), 1000).String())
	assert.Equal(t, "0", PerMillOf(big.NewInt(999), 1000).String())
}

func TestParseAndFormatSQT(t *testing.T) {
	v, err := ParseSQT("1.5")
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", v.String())
	assert.Equal(t, "1.5", FormatSQT(v))

	v, err = ParseSQT("1000")
	require.NoError(t, err)
	assert.Equal(t, 0, SQT(1000).Cmp(v))
	assert.Equal(t, "1000", FormatSQT(v))

	_, err = ParseSQT("0.0000000000000000001")
	assert.Error(t, err)
	_, err = ParseSQT("abc")
	assert.Error(t, err)
	_, err = ParseSQT("")
	assert.Error(t, err)
}
