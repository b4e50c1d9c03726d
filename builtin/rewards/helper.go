// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/subquery/network-ledger/builtin/storage"
	"github.com/subquery/network-ledger/sq"
)

// BatchCollectAndDistributeRewards settles up to maxEras eras and returns
// how many were settled.
func (r *Rewards) BatchCollectAndDistributeRewards(runner sq.Address, maxEras uint64) (uint64, error) {
	if err := r.params.RequireNotMaintenance(); err != nil {
		return 0, err
	}
	current, err := r.eras.SafeUpdateAndGetEra()
	if err != nil {
		return 0, err
	}
	var n uint64
	for ; n < maxEras; n++ {
		info, err := r.info(runner)
		if err != nil {
			return n, err
		}
		if info.LastClaimEra+1 >= current {
			break
		}
		if err := r.collect(runner, current); err != nil {
			return n, err
		}
	}
	return n, nil
}

// IndexerCatchup settles up to maxEras eras, applying queued stake and
// commission changes whenever they are what blocks the next era.
func (r *Rewards) IndexerCatchup(runner sq.Address, maxEras uint64) (uint64, error) {
	if err := r.params.RequireNotMaintenance(); err != nil {
		return 0, err
	}
	current, err := r.eras.SafeUpdateAndGetEra()
	if err != nil {
		return 0, err
	}
	var n uint64
	for ; n < maxEras; n++ {
		info, err := r.info(runner)
		if err != nil {
			return n, err
		}
		if info.LastClaimEra+1 >= current {
			break
		}
		if err := r.applyReady(runner, info.LastClaimEra); err != nil {
			return n, err
		}
		rate, err := r.commissions.Get(runner)
		if err != nil {
			return n, err
		}
		if rate.PendingEra != 0 && rate.PendingEra <= info.LastClaimEra+1 {
			if err := r.commissions.Apply(runner, info.LastClaimEra); err != nil {
				return n, err
			}
		}
		if err := r.collect(runner, current); err != nil {
			return n, err
		}
	}
	info, err := r.info(runner)
	if err != nil {
		return n, err
	}
	return n, r.applyReady(runner, info.LastClaimEra)
}

// applyReady applies every pending stake change queued at or before
// settledEra.
func (r *Rewards) applyReady(runner sq.Address, settledEra uint64) error {
	stakers, err := r.pendingStakers(runner).All()
	if err != nil {
		return err
	}
	for _, staker := range stakers {
		queued, err := r.pendingEra.Get(storage.PairOf(runner, staker))
		if err != nil {
			return err
		}
		if queued <= settledEra {
			if err := r.ApplyStakeChange(runner, staker); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Rewards) BatchApplyStakeChange(runner sq.Address, stakers []sq.Address) error {
	for _, staker := range stakers {
		if err := r.ApplyStakeChange(runner, staker); err != nil {
			return err
		}
	}
	return nil
}

// BatchClaim claims account's rewards on each runner, skipping runners with
// nothing to pay. It returns the total paid.
func (r *Rewards) BatchClaim(account sq.Address, runners []sq.Address) (*big.Int, error) {
	if err := r.params.RequireNotMaintenance(); err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, runner := range runners {
		paid, err := r.payout(runner, account)
		if err != nil {
			return nil, err
		}
		total.Add(total, paid)
	}
	return total, nil
}
