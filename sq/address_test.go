// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sq

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	addr := NamedAddress("runner")
	parsed, err := ParseAddress(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, *parsed)

	parsed, err = ParseAddress(addr.String()[2:])
	require.NoError(t, err)
	assert.Equal(t, addr, *parsed)

	_, err = ParseAddress("0x1234")
	assert.EqualError(t, err, "invalid length")
	_, err = ParseAddress("1x" + addr.String()[2:])
	assert.EqualError(t, err, "invalid prefix")
}

func TestAddressJSON(t *testing.T) {
	type body struct {
		Runner Address `json:"runner"`
	}
	in := body{Runner: NamedAddress("runner")}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out body
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestBytes32(t *testing.T) {
	b := Blake2b([]byte("deployment"))
	assert.False(t, b.IsZero())

	parsed, err := ParseBytes32(b.String())
	require.NoError(t, err)
	assert.Equal(t, b, parsed)

	assert.Equal(t, byte(1), BytesToBytes32([]byte{1})[31])
	assert.Panics(t, func() { MustParseBytes32("0x01") })
}
