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

func (r *Rewards) GetRewardInfo(runner sq.Address) (*RewardInfo, error) {
	return r.info(runner)
}

// UserRewards is what account could claim on runner right now.
func (r *Rewards) UserRewards(runner, account sq.Address) (*big.Int, error) {
	info, err := r.info(runner)
	if err != nil {
		return nil, err
	}
	share, err := r.share(runner, account)
	if err != nil {
		return nil, err
	}
	return share.accrued(info.AccSQTPerStake), nil
}

// GetTotalStakingAmount is the runner's effective stake used for
// distribution.
func (r *Rewards) GetTotalStakingAmount(runner sq.Address) (*big.Int, error) {
	return r.total(runner)
}

// GetDelegationAmount is the staker's effective stake on runner.
func (r *Rewards) GetDelegationAmount(staker, runner sq.Address) (*big.Int, error) {
	share, err := r.share(runner, staker)
	if err != nil {
		return nil, err
	}
	return share.Amount, nil
}

func (r *Rewards) GetPendingStakers(runner sq.Address) ([]sq.Address, error) {
	return r.pendingStakers(runner).All()
}

// GetPendingStakeChangeEra returns the era a pending change was queued in,
// zero when there is none.
func (r *Rewards) GetPendingStakeChangeEra(runner, staker sq.Address) (uint64, error) {
	return r.pendingEra.Get(storage.PairOf(runner, staker))
}

func (r *Rewards) tableRange(m *storage.Mapping[eraKey, *big.Int], runner sq.Address, from, to uint64) ([]*big.Int, error) {
	if to < from {
		return nil, nil
	}
	out := make([]*big.Int, 0, to-from)
	for era := from; era < to; era++ {
		v, err := r.table(m, runner, era)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// GetRewardsAddTable returns the add entries of eras [from, to).
func (r *Rewards) GetRewardsAddTable(runner sq.Address, from, to uint64) ([]*big.Int, error) {
	return r.tableRange(r.addTable, runner, from, to)
}

// GetRewardsRemoveTable returns the remove entries of eras [from, to).
func (r *Rewards) GetRewardsRemoveTable(runner sq.Address, from, to uint64) ([]*big.Int, error) {
	return r.tableRange(r.removeTable, runner, from, to)
}
