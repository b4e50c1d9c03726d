// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/subquery/network-ledger/builtin/commission"
	"github.com/subquery/network-ledger/sq"
)

// RewardInfo is the settlement cursor of a runner. EraReward is the running
// per era reward, moved by the add and remove tables.
type RewardInfo struct {
	LastClaimEra   uint64
	EraReward      *big.Int
	AccSQTPerStake *big.Int
}

func (i *RewardInfo) normalize() *RewardInfo {
	if i.EraReward == nil {
		i.EraReward = new(big.Int)
	}
	if i.AccSQTPerStake == nil {
		i.AccSQTPerStake = new(big.Int)
	}
	return i
}

// StakerShare is the effective stake of a staker on a runner and the
// accumulator value already paid for it.
type StakerShare struct {
	Amount *big.Int
	Debt   *big.Int
}

func (s *StakerShare) normalize() *StakerShare {
	if s.Amount == nil {
		s.Amount = new(big.Int)
	}
	if s.Debt == nil {
		s.Debt = new(big.Int)
	}
	return s
}

// accrued returns amount*acc/AccScale - debt.
func (s *StakerShare) accrued(acc *big.Int) *big.Int {
	v := sq.MulDiv(s.Amount, acc, sq.AccScale)
	if v.Cmp(s.Debt) <= 0 {
		return new(big.Int)
	}
	return v.Sub(v, s.Debt)
}

// Eras is the era clock as seen by the engine.
type Eras interface {
	SafeUpdateAndGetEra() (uint64, error)
	EraNumber() (uint64, error)
	EraPeriod() (uint64, error)
	EraStartTime() (uint64, error)
	TimestampToEraNumber(ts uint64) (uint64, error)
}

// Commissions is the commission registry as seen by the engine.
type Commissions interface {
	Get(runner sq.Address) (*commission.Rate, error)
	Apply(runner sq.Address, settledEra uint64) error
}

// Stakes exposes the queued stake amounts.
type Stakes interface {
	GetAfterDelegationAmount(staker, runner sq.Address) (*big.Int, error)
}

// Runners tells registered runners apart.
type Runners interface {
	IsRunner(addr sq.Address) (bool, error)
}

// StakeUpdateHook is told whenever a runner's effective total stake changed.
type StakeUpdateHook interface {
	OnStakeUpdate(runner sq.Address) error
}
