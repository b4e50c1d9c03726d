// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/subquery/network-ledger/api/utils"
	"github.com/subquery/network-ledger/builtin"
	"github.com/subquery/network-ledger/ledger"
	"github.com/subquery/network-ledger/sq"
)

// maxScheduleEras bounds the schedule returned in one response.
const maxScheduleEras = 256

type Rewards struct {
	ledger *ledger.Ledger
}

func New(ledger *ledger.Ledger) *Rewards {
	return &Rewards{ledger}
}

func (r *Rewards) handleGetRunnerRewards(w http.ResponseWriter, req *http.Request) error {
	runner, err := utils.Account("runner", utils.Var(req, "runner"))
	if err != nil {
		return err
	}
	var from, to uint64
	query := req.URL.Query()
	if s := query.Get("from"); s != "" {
		if from, err = utils.Uint("from", s); err != nil {
			return err
		}
		if to, err = utils.Uint("to", query.Get("to")); err != nil {
			return err
		}
		if to < from || to-from > maxScheduleEras {
			return utils.BadRequest(errors.New("to: out of range"))
		}
	}

	out := RunnerRewards{Runner: runner}
	if err := r.ledger.View(func(c *builtin.Contracts) error {
		info, err := c.Rewards.GetRewardInfo(runner)
		if err != nil {
			return err
		}
		out.LastClaimEra = info.LastClaimEra
		out.EraReward = sq.FormatSQT(info.EraReward)
		out.AccSQTPerStake = info.AccSQTPerStake.String()

		total, err := c.Rewards.GetTotalStakingAmount(runner)
		if err != nil {
			return err
		}
		out.TotalStake = sq.FormatSQT(total)
		if out.PendingStakers, err = c.Rewards.GetPendingStakers(runner); err != nil {
			return err
		}
		if out.PendingStakers == nil {
			out.PendingStakers = []sq.Address{}
		}
		if to > from {
			adds, err := c.Rewards.GetRewardsAddTable(runner, from, to)
			if err != nil {
				return err
			}
			removes, err := c.Rewards.GetRewardsRemoveTable(runner, from, to)
			if err != nil {
				return err
			}
			for i := range adds {
				out.Schedule = append(out.Schedule, &EraEntry{
					Era:    from + uint64(i),
					Add:    sq.FormatSQT(adds[i]),
					Remove: sq.FormatSQT(removes[i]),
				})
			}
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &out)
}

func (r *Rewards) handleGetAccountRewards(w http.ResponseWriter, req *http.Request) error {
	runner, err := utils.Account("runner", utils.Var(req, "runner"))
	if err != nil {
		return err
	}
	account, err := utils.Account("account", utils.Var(req, "account"))
	if err != nil {
		return err
	}
	out := AccountRewards{Runner: runner, Account: account}
	if err := r.ledger.View(func(c *builtin.Contracts) error {
		stake, err := c.Rewards.GetDelegationAmount(account, runner)
		if err != nil {
			return err
		}
		unclaimed, err := c.Rewards.UserRewards(runner, account)
		if err != nil {
			return err
		}
		out.Stake, out.Unclaimed = sq.FormatSQT(stake), sq.FormatSQT(unclaimed)
		out.PendingChangeEra, err = c.Rewards.GetPendingStakeChangeEra(runner, account)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &out)
}

func (r *Rewards) handleClaim(w http.ResponseWriter, req *http.Request) error {
	var body claimRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	runner, err := utils.Account("runner", body.Runner)
	if err != nil {
		return err
	}
	var receipt *ledger.Receipt
	if body.Account != "" {
		account, err := utils.Account("account", body.Account)
		if err != nil {
			return err
		}
		receipt, err = r.ledger.ClaimFrom(caller, runner, account)
		return utils.WriteReceipt(w, receipt, err)
	}
	receipt, err = r.ledger.Claim(caller, runner)
	return utils.WriteReceipt(w, receipt, err)
}

func (r *Rewards) handleBatchClaim(w http.ResponseWriter, req *http.Request) error {
	var body batchClaimRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	runners, err := utils.Accounts("runners", body.Runners)
	if err != nil {
		return err
	}
	receipt, err := r.ledger.BatchClaim(caller, runners)
	return utils.WriteReceipt(w, receipt, err)
}

func (r *Rewards) handleApplyStakeChange(w http.ResponseWriter, req *http.Request) error {
	var body applyRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	runner, err := utils.Account("runner", body.Runner)
	if err != nil {
		return err
	}
	stakers, err := utils.Accounts("stakers", body.Stakers)
	if err != nil {
		return err
	}
	receipt, err := r.ledger.ApplyStakeChanges(caller, runner, stakers)
	return utils.WriteReceipt(w, receipt, err)
}

func (r *Rewards) handleAgreement(w http.ResponseWriter, req *http.Request) error {
	var body agreementRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	runner, err := utils.Account("runner", body.Runner)
	if err != nil {
		return err
	}
	value, err := utils.Amount("value", body.Value)
	if err != nil {
		return err
	}
	receipt, err := r.ledger.IncreaseAgreementRewards(caller, runner, value, body.Start, body.Period)
	return utils.WriteReceipt(w, receipt, err)
}

func (r *Rewards) handleInstant(w http.ResponseWriter, req *http.Request) error {
	var body instantRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	runner, err := utils.Account("runner", body.Runner)
	if err != nil {
		return err
	}
	amount, err := utils.Amount("amount", body.Amount)
	if err != nil {
		return err
	}
	receipt, err := r.ledger.AddInstantRewards(caller, runner, amount, body.Era)
	return utils.WriteReceipt(w, receipt, err)
}

func (r *Rewards) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/claim").
		Methods(http.MethodPost).
		Name("POST /rewards/claim").
		HandlerFunc(utils.WrapHandlerFunc(r.handleClaim))
	sub.Path("/batch-claim").
		Methods(http.MethodPost).
		Name("POST /rewards/batch-claim").
		HandlerFunc(utils.WrapHandlerFunc(r.handleBatchClaim))
	sub.Path("/apply-stake-change").
		Methods(http.MethodPost).
		Name("POST /rewards/apply-stake-change").
		HandlerFunc(utils.WrapHandlerFunc(r.handleApplyStakeChange))
	sub.Path("/agreements").
		Methods(http.MethodPost).
		Name("POST /rewards/agreements").
		HandlerFunc(utils.WrapHandlerFunc(r.handleAgreement))
	sub.Path("/instant").
		Methods(http.MethodPost).
		Name("POST /rewards/instant").
		HandlerFunc(utils.WrapHandlerFunc(r.handleInstant))
	sub.Path("/{runner}").
		Methods(http.MethodGet).
		Name("GET /rewards/{runner}").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetRunnerRewards))
	sub.Path("/{runner}/{account}").
		Methods(http.MethodGet).
		Name("GET /rewards/{runner}/{account}").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetAccountRewards))
}
