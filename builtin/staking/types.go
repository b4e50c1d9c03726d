// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/subquery/network-ledger/sq"
)

// StakeRecord is a two phase balance. ValueAt is the amount effective in Era,
// ValueAfter the amount effective from the next era on.
type StakeRecord struct {
	Era        uint64
	ValueAt    *big.Int
	ValueAfter *big.Int
}

func (r *StakeRecord) normalize() *StakeRecord {
	if r.ValueAt == nil {
		r.ValueAt = new(big.Int)
	}
	if r.ValueAfter == nil {
		r.ValueAfter = new(big.Int)
	}
	return r
}

// reflect rolls the record forward to era. A record last touched before era
// has its pending value in effect.
func (r *StakeRecord) reflect(era uint64) {
	if r.Era < era {
		r.ValueAt = new(big.Int).Set(r.ValueAfter)
		r.Era = era
	}
}

// IsPending reports whether the record carries a change not yet in effect.
func (r *StakeRecord) IsPending() bool {
	return r.ValueAt.Cmp(r.ValueAfter) != 0
}

// UnbondingRequest is a withdrawal waiting for the lock period. A zero
// amount marks a cancelled or withdrawn slot.
type UnbondingRequest struct {
	Runner    sq.Address
	Amount    *big.Int
	StartTime uint64
}

func (u *UnbondingRequest) normalize() *UnbondingRequest {
	if u.Amount == nil {
		u.Amount = new(big.Int)
	}
	return u
}

// Eras supplies the current era.
type Eras interface {
	SafeUpdateAndGetEra() (uint64, error)
	EraNumber() (uint64, error)
}

// Runners tells registered runners apart.
type Runners interface {
	IsRunner(addr sq.Address) (bool, error)
}

// StakeHook is notified before any queued change to a stake record.
type StakeHook interface {
	OnStakeChange(runner, staker sq.Address) error
}
