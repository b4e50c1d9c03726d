// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metric

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageSizeString(t *testing.T) {
	assert.Equal(t, "512 B", StorageSize(512).String())
	assert.Equal(t, "1.50 kB", StorageSize(1500).String())
	assert.Equal(t, "2.00 mB", StorageSize(2_000_001).String())
	assert.Equal(t, "3.00 gB", StorageSize(3_000_000_001).String())
}

func TestPathSize(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), make([]byte, 100), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b"), make([]byte, 23), 0o600))

	size, err := PathSize(dir)
	require.NoError(t, err)
	assert.Equal(t, StorageSize(123), size)

	size, err = PathSize(filepath.Join(dir, "a"))
	require.NoError(t, err)
	assert.Equal(t, StorageSize(100), size)

	size, err = PathSize(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Equal(t, StorageSize(0), size)
}
