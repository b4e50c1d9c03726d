// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metric

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// StorageSize describes storage size in bytes.
type StorageSize int64

func (ss StorageSize) String() string {
	switch {
	case ss > 1000000000:
		return fmt.Sprintf("%.2f gB", float64(ss)/1000000000)
	case ss > 1000000:
		return fmt.Sprintf("%.2f mB", float64(ss)/1000000)
	case ss > 1000:
		return fmt.Sprintf("%.2f kB", float64(ss)/1000)
	}
	return fmt.Sprintf("%d B", ss)
}

// PathSize sums the sizes of the regular files under path, which may be a
// single file. A missing path has size zero.
func PathSize(path string) (StorageSize, error) {
	var total StorageSize
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += StorageSize(info.Size())
		return nil
	})
	if os.IsNotExist(err) {
		return 0, nil
	}
	return total, err
}
