// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/subquery/network-ledger/builtin/params"
	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/builtin/storage"
	"github.com/subquery/network-ledger/builtin/token"
	"github.com/subquery/network-ledger/log"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/xenv"
)

var logger = log.WithContext("pkg", "rewards")

type eraKey = storage.Pair[sq.Address, storage.Uint64]

type stakerKey = storage.Pair[sq.Address, sq.Address]

var slotPendingStakers = storage.Slot("pending-stakers")

// Rewards is the era based distribution engine. Reward tokens are escrowed
// at its address until paid out.
type Rewards struct {
	addr        sq.Address
	env         *xenv.Environment
	params      *params.Params
	token       *token.Token
	eras        Eras
	commissions Commissions
	stakes      Stakes
	runners     Runners
	hook        StakeUpdateHook

	sctx        *storage.Context
	infos       *storage.Mapping[sq.Address, *RewardInfo]
	addTable    *storage.Mapping[eraKey, *big.Int]
	removeTable *storage.Mapping[eraKey, *big.Int]
	totals      *storage.Mapping[sq.Address, *big.Int]
	shares      *storage.Mapping[stakerKey, *StakerShare]
	pendingEra  *storage.Mapping[stakerKey, uint64]
}

func New(
	addr sq.Address,
	env *xenv.Environment,
	params *params.Params,
	token *token.Token,
	eras Eras,
	commissions Commissions,
	stakes Stakes,
) *Rewards {
	sctx := storage.NewContext(addr, env.State())
	return &Rewards{
		addr:        addr,
		env:         env,
		params:      params,
		token:       token,
		eras:        eras,
		commissions: commissions,
		stakes:      stakes,
		sctx:        sctx,
		infos:       storage.NewMapping[sq.Address, *RewardInfo](sctx, storage.Slot("infos")),
		addTable:    storage.NewMapping[eraKey, *big.Int](sctx, storage.Slot("add-table")),
		removeTable: storage.NewMapping[eraKey, *big.Int](sctx, storage.Slot("remove-table")),
		totals:      storage.NewMapping[sq.Address, *big.Int](sctx, storage.Slot("totals")),
		shares:      storage.NewMapping[stakerKey, *StakerShare](sctx, storage.Slot("shares")),
		pendingEra:  storage.NewMapping[stakerKey, uint64](sctx, storage.Slot("pending-era")),
	}
}

// Bind wires the collaborators that are built after the engine.
func (r *Rewards) Bind(runners Runners, hook StakeUpdateHook) {
	r.runners = runners
	r.hook = hook
}

func (r *Rewards) Address() sq.Address { return r.addr }

func (r *Rewards) pendingStakers(runner sq.Address) *storage.IndexedSet[sq.Address] {
	return storage.NewIndexedSet[sq.Address](r.sctx, storage.Derive(slotPendingStakers, runner))
}

func (r *Rewards) info(runner sq.Address) (*RewardInfo, error) {
	info, err := r.infos.Get(runner)
	if err != nil {
		return nil, errors.Wrap(err, "get reward info")
	}
	return info.normalize(), nil
}

func (r *Rewards) total(runner sq.Address) (*big.Int, error) {
	v, err := r.totals.Get(runner)
	if err != nil {
		return nil, errors.Wrap(err, "get total stake")
	}
	if v == nil {
		v = new(big.Int)
	}
	return v, nil
}

func (r *Rewards) share(runner, staker sq.Address) (*StakerShare, error) {
	s, err := r.shares.Get(storage.PairOf(runner, staker))
	if err != nil {
		return nil, errors.Wrap(err, "get staker share")
	}
	return s.normalize(), nil
}

func (r *Rewards) table(m *storage.Mapping[eraKey, *big.Int], runner sq.Address, era uint64) (*big.Int, error) {
	v, err := m.Get(storage.PairOf(runner, storage.Uint64(era)))
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = new(big.Int)
	}
	return v, nil
}

func (r *Rewards) addToTable(m *storage.Mapping[eraKey, *big.Int], runner sq.Address, era uint64, amount *big.Int) error {
	v, err := r.table(m, runner, era)
	if err != nil {
		return err
	}
	return m.Set(storage.PairOf(runner, storage.Uint64(era)), v.Add(v, amount))
}

// addSlice makes amount part of the runner's reward for eras [from, to).
func (r *Rewards) addSlice(runner sq.Address, from, to uint64, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if err := r.addToTable(r.addTable, runner, from, amount); err != nil {
		return err
	}
	return r.addToTable(r.removeTable, runner, to, amount)
}

func (r *Rewards) requireRunner(runner sq.Address) error {
	ok, err := r.runners.IsRunner(runner)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New("G002", "not a registered runner")
	}
	return nil
}

// IncreaseAgreementRewards pulls value from payer and spreads it over the
// eras covered by [start, start+period), pro rata to the time overlap.
// Full eras in the middle share one rate; the last era takes the rounding
// remainder.
func (r *Rewards) IncreaseAgreementRewards(payer, runner sq.Address, value *big.Int, start, period uint64) error {
	if err := r.params.RequireNotMaintenance(); err != nil {
		return err
	}
	if _, err := r.eras.SafeUpdateAndGetEra(); err != nil {
		return err
	}
	if err := r.requireRunner(runner); err != nil {
		return err
	}
	if value == nil || value.Sign() <= 0 || period == 0 {
		return reverts.New("S001", "agreement value and period must be positive")
	}
	firstEra, err := r.eras.TimestampToEraNumber(start)
	if err != nil {
		return err
	}
	number, err := r.eras.EraNumber()
	if err != nil {
		return err
	}
	eraStart, err := r.eras.EraStartTime()
	if err != nil {
		return err
	}
	eraPeriod, err := r.eras.EraPeriod()
	if err != nil {
		return err
	}
	if err := r.token.Transfer(payer, r.addr, value); err != nil {
		return err
	}

	var (
		end      = start + period
		firstEnd = eraStart + (firstEra-number+1)*eraPeriod
	)
	if eraStart == 0 {
		firstEnd = start + eraPeriod
	}
	if end <= firstEnd {
		if err := r.addSlice(runner, firstEra, firstEra+1, value); err != nil {
			return err
		}
	} else {
		var (
			bigPeriod   = new(big.Int).SetUint64(period)
			restPeriod  = end - firstEnd
			lastEra     = firstEra + (restPeriod+eraPeriod-1)/eraPeriod
			middle      = lastEra - firstEra - 1
			lastPortion = restPeriod - middle*eraPeriod
			firstReward = sq.MulDiv(value, new(big.Int).SetUint64(firstEnd-start), bigPeriod)
			lastReward  = sq.MulDiv(value, new(big.Int).SetUint64(lastPortion), bigPeriod)
			rest        = new(big.Int).Sub(value, firstReward)
		)
		rest.Sub(rest, lastReward)
		if middle > 0 {
			per := new(big.Int).Quo(rest, new(big.Int).SetUint64(middle))
			if err := r.addSlice(runner, firstEra+1, lastEra, per); err != nil {
				return err
			}
			rest.Sub(rest, per.Mul(per, new(big.Int).SetUint64(middle)))
		}
		lastReward.Add(lastReward, rest)
		if err := r.addSlice(runner, firstEra, firstEra+1, firstReward); err != nil {
			return err
		}
		if err := r.addSlice(runner, lastEra, lastEra+1, lastReward); err != nil {
			return err
		}
	}
	logger.Debug("agreement rewards added", "runner", runner, "value", value, "firstEra", firstEra)
	return r.env.Log(r.addr, "AgreementRewardsAdded", []sq.Address{runner, payer}, map[string]any{
		"value":  value.String(),
		"start":  start,
		"period": period,
	})
}

// AddInstantRewards pulls amount from payer into the reward of a single era
// that is neither settled nor in the future.
func (r *Rewards) AddInstantRewards(payer, runner sq.Address, amount *big.Int, era uint64) error {
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
	if era <= info.LastClaimEra || era > current {
		return reverts.New("RD006", "era already settled or not started")
	}
	if amount.Sign() == 0 {
		return nil
	}
	if err := r.token.Transfer(payer, r.addr, amount); err != nil {
		return err
	}
	if err := r.addSlice(runner, era, era+1, amount); err != nil {
		return err
	}
	return r.env.Log(r.addr, "InstantRewardsAdded", []sq.Address{runner, payer}, map[string]any{
		"amount": amount.String(),
		"era":    era,
	})
}

// CollectAndDistributeRewards settles the runner's next unsettled era.
func (r *Rewards) CollectAndDistributeRewards(runner sq.Address) error {
	if err := r.params.RequireNotMaintenance(); err != nil {
		return err
	}
	current, err := r.eras.SafeUpdateAndGetEra()
	if err != nil {
		return err
	}
	return r.collect(runner, current)
}

// blockingStakeChange reports whether a stake change queued before era is
// still waiting to be applied.
func (r *Rewards) blockingStakeChange(runner sq.Address, era uint64) (bool, error) {
	stakers, err := r.pendingStakers(runner).All()
	if err != nil {
		return false, err
	}
	for _, staker := range stakers {
		q, err := r.pendingEra.Get(storage.PairOf(runner, staker))
		if err != nil {
			return false, err
		}
		if q < era {
			return true, nil
		}
	}
	return false, nil
}

func (r *Rewards) collect(runner sq.Address, current uint64) error {
	info, err := r.info(runner)
	if err != nil {
		return err
	}
	if info.LastClaimEra == 0 {
		return reverts.New("G002", "not a registered runner")
	}
	era := info.LastClaimEra + 1
	if era >= current {
		return reverts.New("RD002", "no era to collect")
	}
	blocked, err := r.blockingStakeChange(runner, era)
	if err != nil {
		return err
	}
	rate, err := r.commissions.Get(runner)
	if err != nil {
		return err
	}
	if blocked || (rate.PendingEra != 0 && rate.PendingEra <= era) {
		return reverts.New("RD005", "apply pending changes first")
	}

	add, err := r.table(r.addTable, runner, era)
	if err != nil {
		return err
	}
	remove, err := r.table(r.removeTable, runner, era)
	if err != nil {
		return err
	}
	info.EraReward.Add(info.EraReward, add)
	info.EraReward.Sub(info.EraReward, remove)

	commission := new(big.Int)
	if reward := info.EraReward; reward.Sign() > 0 {
		commission = sq.PerMillOf(reward, rate.Current)
		if err := r.token.Transfer(r.addr, runner, commission); err != nil {
			return err
		}
		rest := new(big.Int).Sub(reward, commission)
		total, err := r.total(runner)
		if err != nil {
			return err
		}
		if total.Sign() == 0 {
			treasury, err := r.params.Treasury()
			if err != nil {
				return err
			}
			if err := r.token.Transfer(r.addr, treasury, rest); err != nil {
				return err
			}
			logger.Warn("era reward without stakers sent to treasury", "runner", runner, "era", era, "amount", rest)
		} else {
			info.AccSQTPerStake.Add(info.AccSQTPerStake, sq.MulDiv(rest, sq.AccScale, total))
		}
	}
	info.LastClaimEra = era
	if err := r.infos.Set(runner, info); err != nil {
		return err
	}
	logger.Debug("era distributed", "runner", runner, "era", era, "reward", info.EraReward)
	return r.env.Log(r.addr, "DistributeRewards", []sq.Address{runner}, map[string]any{
		"era":        era,
		"reward":     info.EraReward.String(),
		"commission": commission.String(),
	})
}

// Claim pays the caller's accrued rewards on runner.
func (r *Rewards) Claim(runner sq.Address) error {
	return r.ClaimFrom(runner, r.env.Caller())
}

// ClaimFrom pays account's accrued rewards on runner to account.
func (r *Rewards) ClaimFrom(runner, account sq.Address) error {
	if err := r.params.RequireNotMaintenance(); err != nil {
		return err
	}
	paid, err := r.payout(runner, account)
	if err != nil {
		return err
	}
	if paid.Sign() == 0 {
		return reverts.New("RD007", "no rewards")
	}
	return nil
}

// payout settles the share of account at the runner's accumulator.
func (r *Rewards) payout(runner, account sq.Address) (*big.Int, error) {
	info, err := r.info(runner)
	if err != nil {
		return nil, err
	}
	share, err := r.share(runner, account)
	if err != nil {
		return nil, err
	}
	reward := share.accrued(info.AccSQTPerStake)
	if reward.Sign() == 0 {
		return reward, nil
	}
	share.Debt.Add(share.Debt, reward)
	if err := r.shares.Set(storage.PairOf(runner, account), share); err != nil {
		return nil, err
	}
	if err := r.token.Transfer(r.addr, account, reward); err != nil {
		return nil, err
	}
	return reward, r.env.Log(r.addr, "ClaimRewards", []sq.Address{runner, account}, map[string]any{
		"amount": reward.String(),
	})
}
