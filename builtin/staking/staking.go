// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

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

var logger = log.WithContext("pkg", "staking")

// MaxWithdrawPerCall bounds the requests paid by a single Withdraw.
const MaxWithdrawPerCall = 10

type delegationKey = storage.Pair[sq.Address, sq.Address]

type unbondingKey = storage.Pair[sq.Address, storage.Uint64]

// Staking holds self stakes, delegations and unbonding requests. Staked
// tokens are escrowed at the staking address.
type Staking struct {
	addr    sq.Address
	env     *xenv.Environment
	params  *params.Params
	token   *token.Token
	eras    Eras
	runners Runners
	hook    StakeHook

	delegations  *storage.Mapping[delegationKey, *StakeRecord]
	totals       *storage.Mapping[sq.Address, *StakeRecord]
	unbonding    *storage.Mapping[unbondingKey, *UnbondingRequest]
	unbondingLen *storage.Mapping[sq.Address, uint64]
	withdrawnLen *storage.Mapping[sq.Address, uint64]
}

func New(addr sq.Address, env *xenv.Environment, params *params.Params, token *token.Token, eras Eras) *Staking {
	sctx := storage.NewContext(addr, env.State())
	return &Staking{
		addr:         addr,
		env:          env,
		params:       params,
		token:        token,
		eras:         eras,
		delegations:  storage.NewMapping[delegationKey, *StakeRecord](sctx, storage.Slot("delegations")),
		totals:       storage.NewMapping[sq.Address, *StakeRecord](sctx, storage.Slot("totals")),
		unbonding:    storage.NewMapping[unbondingKey, *UnbondingRequest](sctx, storage.Slot("unbonding")),
		unbondingLen: storage.NewMapping[sq.Address, uint64](sctx, storage.Slot("unbonding-length")),
		withdrawnLen: storage.NewMapping[sq.Address, uint64](sctx, storage.Slot("withdrawn-length")),
	}
}

// Bind wires the collaborators that are built after staking.
func (s *Staking) Bind(runners Runners, hook StakeHook) {
	s.runners = runners
	s.hook = hook
}

func (s *Staking) Address() sq.Address { return s.addr }

func (s *Staking) delegation(staker, runner sq.Address) (*StakeRecord, error) {
	rec, err := s.delegations.Get(storage.PairOf(staker, runner))
	if err != nil {
		return nil, errors.Wrap(err, "get delegation")
	}
	return rec.normalize(), nil
}

func (s *Staking) total(runner sq.Address) (*StakeRecord, error) {
	rec, err := s.totals.Get(runner)
	if err != nil {
		return nil, errors.Wrap(err, "get total")
	}
	return rec.normalize(), nil
}

func (s *Staking) requireRunner(addr sq.Address) error {
	ok, err := s.runners.IsRunner(addr)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New("G002", "not a registered runner")
	}
	return nil
}

func (s *Staking) guard(amount *big.Int) error {
	if err := s.params.RequireNotMaintenance(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New("S001", "amount must be positive")
	}
	return nil
}

// checkLeverage fails with code when the runner's upcoming total exceeds
// the leverage limit times its upcoming self stake.
func (s *Staking) checkLeverage(runner sq.Address, code string) error {
	limit, err := s.params.Get(params.KeyIndexerLeverageLimit)
	if err != nil {
		return err
	}
	self, err := s.delegation(runner, runner)
	if err != nil {
		return err
	}
	total, err := s.total(runner)
	if err != nil {
		return err
	}
	if total.ValueAfter.Cmp(new(big.Int).Mul(self.ValueAfter, limit)) > 0 {
		return reverts.New(code, "delegation exceeds the runner leverage limit")
	}
	return nil
}

func (s *Staking) addDelegation(staker, runner sq.Address, amount *big.Int, instant bool) error {
	era, err := s.eras.SafeUpdateAndGetEra()
	if err != nil {
		return err
	}
	if !instant {
		if err := s.hook.OnStakeChange(runner, staker); err != nil {
			return err
		}
	}
	rec, err := s.delegation(staker, runner)
	if err != nil {
		return err
	}
	total, err := s.total(runner)
	if err != nil {
		return err
	}
	for _, r := range []*StakeRecord{rec, total} {
		r.reflect(era)
		r.ValueAfter.Add(r.ValueAfter, amount)
		if instant {
			r.ValueAt.Add(r.ValueAt, amount)
		}
	}
	if err := s.delegations.Set(storage.PairOf(staker, runner), rec); err != nil {
		return err
	}
	if err := s.totals.Set(runner, total); err != nil {
		return err
	}
	return s.env.Log(s.addr, "DelegationAdded", []sq.Address{staker, runner}, map[string]any{
		"amount": amount.String(),
	})
}

func (s *Staking) removeDelegation(staker, runner sq.Address, amount *big.Int) error {
	era, err := s.eras.SafeUpdateAndGetEra()
	if err != nil {
		return err
	}
	if err := s.hook.OnStakeChange(runner, staker); err != nil {
		return err
	}
	rec, err := s.delegation(staker, runner)
	if err != nil {
		return err
	}
	if rec.ValueAfter.Cmp(amount) < 0 {
		return reverts.New("S003", "insufficient delegation")
	}
	total, err := s.total(runner)
	if err != nil {
		return err
	}
	for _, r := range []*StakeRecord{rec, total} {
		r.reflect(era)
		r.ValueAfter.Sub(r.ValueAfter, amount)
	}
	if err := s.delegations.Set(storage.PairOf(staker, runner), rec); err != nil {
		return err
	}
	if err := s.totals.Set(runner, total); err != nil {
		return err
	}
	return s.env.Log(s.addr, "DelegationRemoved", []sq.Address{staker, runner}, map[string]any{
		"amount": amount.String(),
	})
}

func (s *Staking) startUnbond(source, runner sq.Address, amount *big.Int) error {
	length, err := s.unbondingLen.Get(source)
	if err != nil {
		return err
	}
	withdrawn, err := s.withdrawnLen.Get(source)
	if err != nil {
		return err
	}
	limit, err := s.params.GetUint64(params.KeyMaxUnbondingRequests)
	if err != nil {
		return err
	}
	if length-withdrawn >= limit {
		return reverts.New("S006", "too many unbonding requests")
	}
	req := &UnbondingRequest{Runner: runner, Amount: new(big.Int).Set(amount), StartTime: s.env.Now()}
	if err := s.unbonding.Set(storage.PairOf(source, storage.Uint64(length)), req); err != nil {
		return err
	}
	if err := s.unbondingLen.Set(source, length+1); err != nil {
		return err
	}
	logger.Debug("unbond requested", "source", source, "runner", runner, "amount", amount, "id", length)
	return s.env.Log(s.addr, "UnbondRequested", []sq.Address{source, runner}, map[string]any{
		"amount": amount.String(),
		"index":  length,
	})
}

// StakeInstant records a runner's registration stake, effective at once.
func (s *Staking) StakeInstant(runner sq.Address, amount *big.Int) error {
	if err := s.token.Transfer(runner, s.addr, amount); err != nil {
		return err
	}
	return s.addDelegation(runner, runner, amount, true)
}

// Stake adds to the caller's self stake from the next era on.
func (s *Staking) Stake(runner sq.Address, amount *big.Int) error {
	if err := s.guard(amount); err != nil {
		return err
	}
	if s.env.Caller() != runner {
		return reverts.New("G002", "only the runner can stake")
	}
	if err := s.requireRunner(runner); err != nil {
		return err
	}
	if err := s.token.Transfer(runner, s.addr, amount); err != nil {
		return err
	}
	if err := s.addDelegation(runner, runner, amount, false); err != nil {
		return err
	}
	return s.checkLeverage(runner, "S002")
}

// Unstake queues an unbonding of the caller's self stake. What remains must
// cover the minimum stake and the leverage limit.
func (s *Staking) Unstake(runner sq.Address, amount *big.Int) error {
	if err := s.guard(amount); err != nil {
		return err
	}
	if s.env.Caller() != runner {
		return reverts.New("G002", "only the runner can unstake")
	}
	if err := s.requireRunner(runner); err != nil {
		return err
	}
	if err := s.removeDelegation(runner, runner, amount); err != nil {
		return err
	}
	self, err := s.delegation(runner, runner)
	if err != nil {
		return err
	}
	minimum, err := s.params.Get(params.KeyMinimumStakingAmount)
	if err != nil {
		return err
	}
	if self.ValueAfter.Cmp(minimum) < 0 {
		return reverts.New("S008", "insufficient stake left")
	}
	if err := s.checkLeverage(runner, "S008"); err != nil {
		return err
	}
	return s.startUnbond(runner, runner, amount)
}

// UnstakeAll unbonds the whole self stake of an unregistering runner.
func (s *Staking) UnstakeAll(runner sq.Address) error {
	self, err := s.delegation(runner, runner)
	if err != nil {
		return err
	}
	amount := new(big.Int).Set(self.ValueAfter)
	if amount.Sign() == 0 {
		return nil
	}
	if err := s.removeDelegation(runner, runner, amount); err != nil {
		return err
	}
	return s.startUnbond(runner, runner, amount)
}

// Delegate stakes the caller's tokens on runner from the next era on.
func (s *Staking) Delegate(runner sq.Address, amount *big.Int) error {
	if err := s.guard(amount); err != nil {
		return err
	}
	caller := s.env.Caller()
	if caller == runner {
		return reverts.New("G004", "runner can not delegate to itself")
	}
	if err := s.requireRunner(runner); err != nil {
		return err
	}
	if err := s.token.Transfer(caller, s.addr, amount); err != nil {
		return err
	}
	if err := s.addDelegation(caller, runner, amount, false); err != nil {
		return err
	}
	return s.checkLeverage(runner, "S002")
}

// Undelegate queues an unbonding of the caller's delegation to runner.
func (s *Staking) Undelegate(runner sq.Address, amount *big.Int) error {
	if err := s.guard(amount); err != nil {
		return err
	}
	caller := s.env.Caller()
	if caller == runner {
		return reverts.New("G004", "runner must unstake instead")
	}
	if err := s.removeDelegation(caller, runner, amount); err != nil {
		return err
	}
	return s.startUnbond(caller, runner, amount)
}

// Redelegate moves a delegation between runners without unbonding.
func (s *Staking) Redelegate(from, to sq.Address, amount *big.Int) error {
	if err := s.guard(amount); err != nil {
		return err
	}
	caller := s.env.Caller()
	if caller == from || caller == to {
		return reverts.New("G004", "runner can not redelegate its own stake")
	}
	if from == to {
		return reverts.New("S011", "redelegate to the same runner")
	}
	if err := s.requireRunner(to); err != nil {
		return err
	}
	if err := s.removeDelegation(caller, from, amount); err != nil {
		return err
	}
	if err := s.addDelegation(caller, to, amount, false); err != nil {
		return err
	}
	return s.checkLeverage(to, "S002")
}

// CancelUnbonding puts a live request back into stake.
func (s *Staking) CancelUnbonding(id uint64) error {
	if err := s.params.RequireNotMaintenance(); err != nil {
		return err
	}
	caller := s.env.Caller()
	length, err := s.unbondingLen.Get(caller)
	if err != nil {
		return err
	}
	withdrawn, err := s.withdrawnLen.Get(caller)
	if err != nil {
		return err
	}
	if id >= length {
		return reverts.New("S007", "invalid unbonding index")
	}
	key := storage.PairOf(caller, storage.Uint64(id))
	req, err := s.unbonding.Get(key)
	if err != nil {
		return err
	}
	req.normalize()
	if id < withdrawn || req.Amount.Sign() == 0 {
		return reverts.New("S009", "unbonding already withdrawn")
	}
	ok, err := s.runners.IsRunner(req.Runner)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New("S010", "runner unregistered")
	}
	amount := req.Amount
	if err := s.addDelegation(caller, req.Runner, amount, false); err != nil {
		return err
	}
	if err := s.checkLeverage(req.Runner, "S002"); err != nil {
		return err
	}
	if err := s.unbonding.Set(key, &UnbondingRequest{Runner: req.Runner, Amount: new(big.Int), StartTime: req.StartTime}); err != nil {
		return err
	}
	return s.env.Log(s.addr, "UnbondCancelled", []sq.Address{caller, req.Runner}, map[string]any{
		"amount": amount.String(),
		"index":  id,
	})
}

// Withdraw pays out matured requests in order, at most MaxWithdrawPerCall
// of them, keeping the unbonding fee for the treasury.
func (s *Staking) Withdraw() error {
	if err := s.params.RequireNotMaintenance(); err != nil {
		return err
	}
	caller := s.env.Caller()
	length, err := s.unbondingLen.Get(caller)
	if err != nil {
		return err
	}
	withdrawn, err := s.withdrawnLen.Get(caller)
	if err != nil {
		return err
	}
	lock, err := s.params.GetUint64(params.KeyLockPeriod)
	if err != nil {
		return err
	}
	feeRate, err := s.params.GetUint64(params.KeyUnbondFeeRate)
	if err != nil {
		return err
	}

	var (
		now   = s.env.Now()
		paid  = new(big.Int)
		fees  = new(big.Int)
		count = 0
		i     = withdrawn
	)
	for ; i < length && count < MaxWithdrawPerCall; i++ {
		key := storage.PairOf(caller, storage.Uint64(i))
		req, err := s.unbonding.Get(key)
		if err != nil {
			return err
		}
		req.normalize()
		if req.Amount.Sign() > 0 {
			if req.StartTime+lock > now {
				break
			}
			fee := sq.PerMillOf(req.Amount, feeRate)
			fees.Add(fees, fee)
			paid.Add(paid, new(big.Int).Sub(req.Amount, fee))
			count++
		}
		s.unbonding.Delete(key)
	}
	if i == withdrawn {
		return reverts.New("S005", "need unbond")
	}
	if err := s.withdrawnLen.Set(caller, i); err != nil {
		return err
	}
	if err := s.token.Transfer(s.addr, caller, paid); err != nil {
		return err
	}
	if fees.Sign() > 0 {
		treasury, err := s.params.Treasury()
		if err != nil {
			return err
		}
		if err := s.token.Transfer(s.addr, treasury, fees); err != nil {
			return err
		}
	}
	logger.Debug("withdrawn", "account", caller, "requests", count, "paid", paid, "fee", fees)
	return s.env.Log(s.addr, "UnbondWithdrawn", []sq.Address{caller}, map[string]any{
		"amount": paid.String(),
		"fee":    fees.String(),
		"upTo":   i,
	})
}
