// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import "github.com/subquery/network-ledger/metrics"

var (
	metricCommandCount    = metrics.LazyLoadCounterVec("ledger_command_count", []string{"name", "outcome"})
	metricCommandDuration = metrics.LazyLoadHistogram("ledger_command_duration_ms", metrics.BucketExec)
	metricEra             = metrics.LazyLoadGauge("ledger_era")
)
