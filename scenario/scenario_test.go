// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package scenario

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subquery/network-ledger/logdb"
	"github.com/subquery/network-ledger/sq"
)

func TestReplayBasic(t *testing.T) {
	s, err := Load("testdata/basic.yaml")
	require.NoError(t, err)
	assert.Equal(t, "register and delegate", s.Name)
	assert.Equal(t, Duration(25*time.Hour), s.Steps[7].Advance)

	logs, err := logdb.NewMem()
	require.NoError(t, err)
	defer logs.Close()

	var progress bytes.Buffer
	res, err := Run(context.Background(), s, Options{Logs: logs, Progress: &progress})
	require.NoError(t, err)

	assert.Equal(t, len(s.Steps), res.Steps)
	assert.Equal(t, 8, res.Commands)
	assert.Equal(t, 2, res.Reverts)
	assert.Equal(t, uint64(3), res.Era)
	// reverted commands are not blocks
	assert.Equal(t, uint64(6), res.Head.Number)
	assert.NotEmpty(t, progress.String())

	last, err := logs.LastSeq(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(6), logdb.SequenceBlock(last))
}

func TestReplayReportsMismatch(t *testing.T) {
	s, err := Parse([]byte(`
steps:
  - do: startNewEra
    caller: owner
  - do: transfer
    caller: owner
    args: {to: alice, amount: "5"}
    expect:
      balances: {alice: "6", owner: "9999995"}
`))
	require.NoError(t, err)

	res, err := Run(context.Background(), s, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 2")
	assert.Contains(t, err.Error(), "balance alice: want 6, got 5")
	assert.NotContains(t, err.Error(), "owner")
	assert.Equal(t, 1, res.Steps)

	var mm *MismatchError
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, []string{"balance alice: want 6, got 5"}, mm.Failures)
	assert.Contains(t, mm.Diff(), "-balance alice = 6")
	assert.Contains(t, mm.Diff(), "+balance alice = 5")
}

func TestReplayUnexpectedOutcome(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{
			"succeeds when a revert is expected",
			"steps:\n  - {do: startNewEra, caller: owner, expectError: E002}\n",
			"expected revert E002, succeeded",
		},
		{
			"wrong revert code",
			"steps:\n  - {do: transfer, caller: alice, args: {to: bob, amount: '1'}, expectError: T002}\n",
			"expected revert T002",
		},
		{
			"unexpected revert",
			"steps:\n  - {do: transfer, caller: alice, args: {to: bob, amount: '1'}}\n",
			"T001",
		},
		{
			"missing arg",
			"steps:\n  - {do: transfer, caller: owner, args: {to: bob}}\n",
			`arg "amount" required`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.doc))
			require.NoError(t, err)
			_, err = Run(context.Background(), s, Options{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown command", "steps:\n  - {do: fly, caller: owner}\n"},
		{"missing caller", "steps:\n  - {do: startNewEra}\n"},
		{"expectError alone", "steps:\n  - {expectError: T001}\n"},
		{"advance with command", "steps:\n  - {do: startNewEra, caller: owner, advance: 1h}\n"},
		{"bad duration", "steps:\n  - {advance: soon}\n"},
		{"genesis without owner", "genesis: {eraPeriod: 10}\n"},
		{"empty step", "steps:\n  -\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestRunCancelled(t *testing.T) {
	s, err := Parse([]byte("steps:\n  - {do: startNewEra, caller: owner}\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Run(ctx, s, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Steps)
}

func TestParseDeployment(t *testing.T) {
	byName, err := ParseDeployment("my-project")
	require.NoError(t, err)
	assert.Equal(t, sq.Blake2b([]byte("my-project")), byName)

	hex := byName.String()
	byHex, err := ParseDeployment(hex)
	require.NoError(t, err)
	assert.Equal(t, byName, byHex)

	_, err = ParseDeployment(" ")
	assert.Error(t, err)
}

func TestCommandsListed(t *testing.T) {
	names := Commands()
	assert.Contains(t, names, "delegate")
	assert.Contains(t, names, "collectPool")
	assert.IsIncreasing(t, names)
}
