// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/builtin/storage"
	"github.com/subquery/network-ledger/sq"
)

func (r *Rewards) notifyStakeUpdate(runner sq.Address) error {
	if r.hook == nil {
		return nil
	}
	return r.hook.OnStakeUpdate(runner)
}

// MaxRegisterCatchup is the most eras a returning runner settles while
// registering. Longer gaps are settled with IndexerCatchup beforehand.
const MaxRegisterCatchup = 32

// OnRegister starts reward tracking for a runner whose registration stake
// is effective at once. A runner coming back must have no stake and no
// pending stakers left from its previous registration; the eras it missed
// are settled first, at the commission rate they were earned under.
func (r *Rewards) OnRegister(runner sq.Address, amount *big.Int) error {
	current, err := r.eras.SafeUpdateAndGetEra()
	if err != nil {
		return err
	}
	info, err := r.info(runner)
	if err != nil {
		return err
	}
	if info.LastClaimEra != 0 {
		total, err := r.total(runner)
		if err != nil {
			return err
		}
		pending, err := r.pendingStakers(runner).Len()
		if err != nil {
			return err
		}
		if total.Sign() != 0 || pending > 0 {
			return reverts.New("RS001", "last registration not settled")
		}
		if current-info.LastClaimEra-1 > MaxRegisterCatchup {
			return reverts.Newf("RS001", "%d eras of the last registration to settle first", current-info.LastClaimEra-1)
		}
		for info.LastClaimEra+1 < current {
			if err := r.collect(runner, current); err != nil {
				return err
			}
			if info, err = r.info(runner); err != nil {
				return err
			}
		}
	} else {
		info.LastClaimEra = current - 1
		if err := r.infos.Set(runner, info); err != nil {
			return err
		}
	}

	if _, err := r.payout(runner, runner); err != nil {
		return err
	}
	share := &StakerShare{
		Amount: new(big.Int).Set(amount),
		Debt:   sq.MulDiv(amount, info.AccSQTPerStake, sq.AccScale),
	}
	if err := r.shares.Set(storage.PairOf(runner, runner), share); err != nil {
		return err
	}
	if err := r.totals.Set(runner, new(big.Int).Set(amount)); err != nil {
		return err
	}
	logger.Debug("runner tracked", "runner", runner, "stake", amount, "lastClaimEra", info.LastClaimEra)
	return r.notifyStakeUpdate(runner)
}

// OnStakeChange records that staker's stake on runner will change from the
// next era on. The previous era is settled first when it is the only one
// outstanding.
func (r *Rewards) OnStakeChange(runner, staker sq.Address) error {
	current, err := r.eras.SafeUpdateAndGetEra()
	if err != nil {
		return err
	}
	info, err := r.info(runner)
	if err != nil {
		return err
	}
	if info.LastClaimEra == 0 {
		return reverts.New("G002", "not a registered runner")
	}
	if info.LastClaimEra+2 == current {
		if err := r.collect(runner, current); err != nil {
			return err
		}
		if info, err = r.info(runner); err != nil {
			return err
		}
	}
	if info.LastClaimEra+1 != current {
		return reverts.New("RS002", "rewards of previous eras not distributed")
	}

	key := storage.PairOf(runner, staker)
	queued, err := r.pendingEra.Get(key)
	if err != nil {
		return err
	}
	switch {
	case queued == 0:
		if err := r.pendingEra.Set(key, current); err != nil {
			return err
		}
		if _, err := r.pendingStakers(runner).Add(staker); err != nil {
			return err
		}
	case queued != current:
		return reverts.New("RS003", "need apply pending stake change")
	}
	return nil
}

// ApplyStakeChange moves staker to its queued stake once the era it was
// queued in is settled. Rewards accrued on the old stake are paid out.
func (r *Rewards) ApplyStakeChange(runner, staker sq.Address) error {
	if err := r.params.RequireNotMaintenance(); err != nil {
		return err
	}
	if _, err := r.eras.SafeUpdateAndGetEra(); err != nil {
		return err
	}
	key := storage.PairOf(runner, staker)
	queued, err := r.pendingEra.Get(key)
	if err != nil {
		return err
	}
	if queued == 0 {
		return reverts.New("RS004", "no pending stake change")
	}
	info, err := r.info(runner)
	if err != nil {
		return err
	}
	if info.LastClaimEra < queued {
		return reverts.New("RS006", "rewards not collected")
	}
	if _, err := r.payout(runner, staker); err != nil {
		return err
	}

	share, err := r.share(runner, staker)
	if err != nil {
		return err
	}
	after, err := r.stakes.GetAfterDelegationAmount(staker, runner)
	if err != nil {
		return err
	}
	total, err := r.total(runner)
	if err != nil {
		return err
	}
	total.Sub(total, share.Amount)
	total.Add(total, after)
	if err := r.totals.Set(runner, total); err != nil {
		return err
	}
	share = &StakerShare{
		Amount: new(big.Int).Set(after),
		Debt:   sq.MulDiv(after, info.AccSQTPerStake, sq.AccScale),
	}
	if err := r.shares.Set(key, share); err != nil {
		return err
	}
	r.pendingEra.Delete(key)
	if _, err := r.pendingStakers(runner).Remove(staker); err != nil {
		return err
	}
	if err := r.env.Log(r.addr, "StakeChanged", []sq.Address{runner, staker}, map[string]any{
		"amount": after.String(),
	}); err != nil {
		return err
	}
	return r.notifyStakeUpdate(runner)
}

// ApplyICRChange commits the runner's pending commission once every era
// charged at the old rate is settled.
func (r *Rewards) ApplyICRChange(runner sq.Address) error {
	if err := r.params.RequireNotMaintenance(); err != nil {
		return err
	}
	if _, err := r.eras.SafeUpdateAndGetEra(); err != nil {
		return err
	}
	info, err := r.info(runner)
	if err != nil {
		return err
	}
	return r.commissions.Apply(runner, info.LastClaimEra)
}
