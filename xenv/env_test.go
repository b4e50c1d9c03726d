// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subquery/network-ledger/sq"
)

func TestEnvironmentLog(t *testing.T) {
	caller := sq.NamedAddress("caller")
	env := New(nil, &BlockContext{Number: 7, Time: 1000}, &CommandContext{Origin: caller})

	assert.Equal(t, caller, env.Caller())
	assert.Equal(t, uint64(1000), env.Now())

	emitter := sq.NamedAddress("rewards")
	require.NoError(t, env.Log(emitter, "Claimed", []sq.Address{caller}, map[string]string{"amount": "10"}))
	cp := env.EventCheckpoint()
	require.NoError(t, env.Log(emitter, "Dropped", nil, nil))
	env.RevertEvents(cp)

	events := env.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "Claimed", events[0].Name)
	assert.JSONEq(t, `{"amount":"10"}`, string(events[0].Data))

	assert.Error(t, env.Log(emitter, "Bad", nil, make(chan int)))
}
