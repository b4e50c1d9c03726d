// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/subquery/network-ledger/ledger"
	"github.com/subquery/network-ledger/logdb"
	"github.com/subquery/network-ledger/lvldb"
)

func TestEnvFileFromArgs(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, ""},
		{[]string{"serve"}, ""},
		{[]string{"--env-file", "a.env", "serve"}, "a.env"},
		{[]string{"-env-file=b.env"}, "b.env"},
		{[]string{"--data-dir", "x", "--env-file=c.env"}, "c.env"},
		{[]string{"--env-file"}, ""},
		{[]string{"env-file", "d.env"}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, envFileFromArgs(tt.args), "%v", tt.args)
	}
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, loadEnvFile(""))

	path := filepath.Join(t.TempDir(), "ledger.env")
	require.NoError(t, os.WriteFile(path, []byte("LEDGER_TEST_ENV_FILE=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LEDGER_TEST_ENV_FILE") })

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "loaded", os.Getenv("LEDGER_TEST_ENV_FILE"))

	assert.Error(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestStateCacheEntries(t *testing.T) {
	assert.Equal(t, 0, stateCacheEntries(0))
	assert.Equal(t, 256*1024, stateCacheEntries(128))
}

func newContext(t *testing.T, args ...string) *cli.Context {
	app := newApp()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range app.Flags {
		f.Apply(set)
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(app, set, nil)
}

func TestSelectGenesis(t *testing.T) {
	gene, err := selectGenesis(newContext(t))
	require.NoError(t, err)
	assert.Equal(t, ledger.DevGenesis(), gene)

	_, err = selectGenesis(newContext(t, "--genesis", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestMakeDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	got, err := makeDataDir(newContext(t, "--data-dir", dir))
	require.NoError(t, err)
	assert.Equal(t, dir, got)
	assert.DirExists(t, dir)

	_, err = makeDataDir(newContext(t, "--data-dir", ""))
	assert.Error(t, err)
}

func TestPrintInfo(t *testing.T) {
	logs, err := logdb.NewMem()
	require.NoError(t, err)
	defer logs.Close()

	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	l, err := ledger.Open(db, logs, clock, ledger.DevGenesis(), ledger.Options{})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printInfo(&out, l))
	assert.Contains(t, out.String(), "Head:     #0")
	assert.Contains(t, out.String(), "Era:      1")
	assert.Contains(t, out.String(), "Height:   0 (6s blocks since 2023-11-14 22:13:20 +0000 UTC)")
	assert.Contains(t, out.String(), "minimumStakingAmount")

	out.Reset()
	printStartupMessage(&out, l, "/tmp/ledger", "http://localhost:8680", "")
	assert.Contains(t, out.String(), "Disabled")
	assert.Contains(t, out.String(), "http://localhost:8680")
}

func TestPrintDiskUsage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "main.db"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.db", "000001.log"), make([]byte, 2048), 0o600))

	var out bytes.Buffer
	require.NoError(t, printDiskUsage(&out, dir))
	assert.Contains(t, out.String(), "main.db    2.05 kB")
	assert.Contains(t, out.String(), "events.db  0 B")
}
