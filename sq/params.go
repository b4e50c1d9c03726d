// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sq

import "math/big"

// Rate denominators.
const (
	PerMill  = 1_000_000
	PerBill  = 1_000_000_000
	PerTrill = 1_000_000_000_000

	// YearSeconds is the length of a Julian year, used for annualised rates.
	YearSeconds = 3600 * 24 * 36525 / 100

	// DefaultBlockInterval is the block time used to derive block heights from wall clock time.
	DefaultBlockInterval = 6
)

var (
	// Decimals is the base unit of one SQT.
	Decimals = big.NewInt(1e18)
	// AccScale scales reward-per-share accumulators.
	AccScale = big.NewInt(1e18)

	BigPerMill = big.NewInt(PerMill)
)

// Well known role and treasury addresses used when genesis does not override them.
var (
	DefaultOwner    = NamedAddress("owner")
	DefaultTreasury = NamedAddress("treasury")
)
