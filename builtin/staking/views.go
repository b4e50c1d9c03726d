// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/subquery/network-ledger/builtin/params"
	"github.com/subquery/network-ledger/builtin/storage"
	"github.com/subquery/network-ledger/sq"
)

func (s *Staking) reflected(rec *StakeRecord) (*StakeRecord, error) {
	era, err := s.eras.EraNumber()
	if err != nil {
		return nil, err
	}
	rec.reflect(era)
	return rec, nil
}

// GetDelegation returns the staker's record on runner as of the current era.
func (s *Staking) GetDelegation(staker, runner sq.Address) (*StakeRecord, error) {
	rec, err := s.delegation(staker, runner)
	if err != nil {
		return nil, err
	}
	return s.reflected(rec)
}

func (s *Staking) GetDelegationAmount(staker, runner sq.Address) (*big.Int, error) {
	rec, err := s.GetDelegation(staker, runner)
	if err != nil {
		return nil, err
	}
	return rec.ValueAt, nil
}

func (s *Staking) GetAfterDelegationAmount(staker, runner sq.Address) (*big.Int, error) {
	rec, err := s.delegation(staker, runner)
	if err != nil {
		return nil, err
	}
	return rec.ValueAfter, nil
}

// GetTotalStake returns the runner's total record as of the current era.
func (s *Staking) GetTotalStake(runner sq.Address) (*StakeRecord, error) {
	rec, err := s.total(runner)
	if err != nil {
		return nil, err
	}
	return s.reflected(rec)
}

func (s *Staking) GetTotalStakingAmount(runner sq.Address) (*big.Int, error) {
	rec, err := s.GetTotalStake(runner)
	if err != nil {
		return nil, err
	}
	return rec.ValueAt, nil
}

func (s *Staking) UnbondingLength(account sq.Address) (uint64, error) {
	return s.unbondingLen.Get(account)
}

func (s *Staking) WithdrawnLength(account sq.Address) (uint64, error) {
	return s.withdrawnLen.Get(account)
}

func (s *Staking) UnbondingRequest(account sq.Address, id uint64) (*UnbondingRequest, error) {
	req, err := s.unbonding.Get(storage.PairOf(account, storage.Uint64(id)))
	if err != nil {
		return nil, err
	}
	return req.normalize(), nil
}

// GetUnbondingRequests lists the slots in [withdrawnLength, unbondingLength),
// cancelled ones included.
func (s *Staking) GetUnbondingRequests(account sq.Address) ([]*UnbondingRequest, error) {
	length, err := s.unbondingLen.Get(account)
	if err != nil {
		return nil, err
	}
	withdrawn, err := s.withdrawnLen.Get(account)
	if err != nil {
		return nil, err
	}
	out := make([]*UnbondingRequest, 0, length-withdrawn)
	for i := withdrawn; i < length; i++ {
		req, err := s.UnbondingRequest(account, i)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

func (s *Staking) setParam(key sq.Bytes32, v uint64) error {
	if err := s.params.RequireOwner(s.env.Caller()); err != nil {
		return err
	}
	return s.params.Set(key, new(big.Int).SetUint64(v))
}

func (s *Staking) SetLockPeriod(secs uint64) error { return s.setParam(params.KeyLockPeriod, secs) }

func (s *Staking) SetIndexerLeverageLimit(limit uint64) error {
	return s.setParam(params.KeyIndexerLeverageLimit, limit)
}

func (s *Staking) SetUnbondFeeRate(rate uint64) error {
	return s.setParam(params.KeyUnbondFeeRate, rate)
}

func (s *Staking) SetMaxUnbondingRequests(n uint64) error {
	return s.setParam(params.KeyMaxUnbondingRequests, n)
}

func (s *Staking) SetMinimumStakingAmount(amount *big.Int) error {
	if err := s.params.RequireOwner(s.env.Caller()); err != nil {
		return err
	}
	return s.params.Set(params.KeyMinimumStakingAmount, amount)
}
