// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package boosters

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/subquery/network-ledger/api/utils"
	"github.com/subquery/network-ledger/builtin"
	"github.com/subquery/network-ledger/ledger"
	"github.com/subquery/network-ledger/sq"
)

type Boosters struct {
	ledger *ledger.Ledger
}

func New(ledger *ledger.Ledger) *Boosters {
	return &Boosters{ledger}
}

func (b *Boosters) handleGetPool(w http.ResponseWriter, _ *http.Request) error {
	var out Pool
	if err := b.ledger.View(func(c *builtin.Contracts) error {
		p, err := c.Booster.GetPool()
		if err != nil {
			return err
		}
		out = Pool{sq.FormatSQT(p.TotalBoosted), p.AccRewardsPerBooster.String(), p.LastBlock}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &out)
}

func (b *Boosters) handleGetDeployment(w http.ResponseWriter, req *http.Request) error {
	deployment, err := utils.Deployment("deployment", utils.Var(req, "deployment"))
	if err != nil {
		return err
	}
	out := Deployment{Deployment: deployment}
	if err := b.ledger.View(func(c *builtin.Contracts) error {
		d, err := c.Booster.GetDeploymentPool(deployment)
		if err != nil {
			return err
		}
		allocated, err := c.Allocation.DeploymentAllocations(deployment)
		if err != nil {
			return err
		}
		out.ProjectType = d.ProjectType
		out.TotalBoosted = sq.FormatSQT(d.TotalBoosted)
		out.AccRewardsForDeployment = sq.FormatSQT(d.AccRewardsForDeployment)
		out.Allocated = sq.FormatSQT(allocated)
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &out)
}

func (b *Boosters) handleGetBooster(w http.ResponseWriter, req *http.Request) error {
	deployment, err := utils.Deployment("deployment", utils.Var(req, "deployment"))
	if err != nil {
		return err
	}
	account, err := utils.Account("account", utils.Var(req, "account"))
	if err != nil {
		return err
	}
	out := Booster{Deployment: deployment, Account: account}
	if err := b.ledger.View(func(c *builtin.Contracts) error {
		amount, err := c.Booster.GetBoosterAmount(deployment, account)
		if err != nil {
			return err
		}
		quota, err := c.Booster.GetQueryRewards(deployment, account)
		if err != nil {
			return err
		}
		out.Amount, out.QueryRewards = sq.FormatSQT(amount), sq.FormatSQT(quota)
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &out)
}

func (b *Boosters) handleGetRunnerReward(w http.ResponseWriter, req *http.Request) error {
	deployment, err := utils.Deployment("deployment", utils.Var(req, "deployment"))
	if err != nil {
		return err
	}
	runner, err := utils.Account("runner", utils.Var(req, "runner"))
	if err != nil {
		return err
	}
	out := RunnerReward{Deployment: deployment, Runner: runner}
	if err := b.ledger.View(func(c *builtin.Contracts) error {
		allocated, err := c.Allocation.Allocated(runner, deployment)
		if err != nil {
			return err
		}
		paid, burnt, err := c.Booster.GetAllocationRewards(deployment, runner)
		if err != nil {
			return err
		}
		r, err := c.Booster.GetRunnerReward(deployment, runner)
		if err != nil {
			return err
		}
		out.Allocated = sq.FormatSQT(allocated)
		out.Claimable, out.Burnable = sq.FormatSQT(paid), sq.FormatSQT(burnt)
		out.LastClaimedAt, out.MissedLabor, out.Disabled = r.LastClaimedAt, r.MissedLabor, r.Disabled
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &out)
}

func (b *Boosters) handleBoost(remove bool) utils.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		var body boostRequest
		caller, err := utils.ParseCommand(req, &body)
		if err != nil {
			return err
		}
		deployment, err := utils.Deployment("deployment", body.Deployment)
		if err != nil {
			return err
		}
		amount, err := utils.Amount("amount", body.Amount)
		if err != nil {
			return err
		}
		var receipt *ledger.Receipt
		if remove {
			receipt, err = b.ledger.RemoveBooster(caller, deployment, amount)
		} else {
			receipt, err = b.ledger.BoostDeployment(caller, deployment, amount)
		}
		return utils.WriteReceipt(w, receipt, err)
	}
}

func (b *Boosters) handleCollect(w http.ResponseWriter, req *http.Request) error {
	var body collectRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	deployment, err := utils.Deployment("deployment", body.Deployment)
	if err != nil {
		return err
	}
	runner, err := utils.Account("runner", body.Runner)
	if err != nil {
		return err
	}
	receipt, err := b.ledger.CollectAllocationReward(caller, deployment, runner)
	return utils.WriteReceipt(w, receipt, err)
}

func (b *Boosters) handleQueryRewards(refund bool) utils.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		var body queryRewardsRequest
		caller, err := utils.ParseCommand(req, &body)
		if err != nil {
			return err
		}
		deployment, err := utils.Deployment("deployment", body.Deployment)
		if err != nil {
			return err
		}
		account, err := utils.Account("account", body.Account)
		if err != nil {
			return err
		}
		amount, err := utils.Amount("amount", body.Amount)
		if err != nil {
			return err
		}
		var receipt *ledger.Receipt
		if refund {
			receipt, err = b.ledger.RefundQueryRewards(caller, deployment, account, amount)
		} else {
			receipt, err = b.ledger.SpendQueryRewards(caller, deployment, account, amount)
		}
		return utils.WriteReceipt(w, receipt, err)
	}
}

func (b *Boosters) handleMissedLabor(w http.ResponseWriter, req *http.Request) error {
	var body missedLaborRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	rows := make([]ledger.MissedLabor, 0, len(body.Rows))
	for _, r := range body.Rows {
		deployment, err := utils.Deployment("deployment", r.Deployment)
		if err != nil {
			return err
		}
		runner, err := utils.Account("runner", r.Runner)
		if err != nil {
			return err
		}
		rows = append(rows, ledger.MissedLabor{Deployment: deployment, Runner: runner, Disable: r.Disable, Missed: r.Missed})
	}
	receipt, err := b.ledger.SetMissedLabor(caller, rows, body.ReportAt)
	return utils.WriteReceipt(w, receipt, err)
}

func (b *Boosters) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/pool").
		Methods(http.MethodGet).
		Name("GET /boosters/pool").
		HandlerFunc(utils.WrapHandlerFunc(b.handleGetPool))
	sub.Path("/deployments/{deployment}").
		Methods(http.MethodGet).
		Name("GET /boosters/deployments/{deployment}").
		HandlerFunc(utils.WrapHandlerFunc(b.handleGetDeployment))
	sub.Path("/deployments/{deployment}/boosters/{account}").
		Methods(http.MethodGet).
		Name("GET /boosters/deployments/{deployment}/boosters/{account}").
		HandlerFunc(utils.WrapHandlerFunc(b.handleGetBooster))
	sub.Path("/deployments/{deployment}/runners/{runner}").
		Methods(http.MethodGet).
		Name("GET /boosters/deployments/{deployment}/runners/{runner}").
		HandlerFunc(utils.WrapHandlerFunc(b.handleGetRunnerReward))
	sub.Path("/boost").
		Methods(http.MethodPost).
		Name("POST /boosters/boost").
		HandlerFunc(utils.WrapHandlerFunc(b.handleBoost(false)))
	sub.Path("/remove").
		Methods(http.MethodPost).
		Name("POST /boosters/remove").
		HandlerFunc(utils.WrapHandlerFunc(b.handleBoost(true)))
	sub.Path("/collect").
		Methods(http.MethodPost).
		Name("POST /boosters/collect").
		HandlerFunc(utils.WrapHandlerFunc(b.handleCollect))
	sub.Path("/spend").
		Methods(http.MethodPost).
		Name("POST /boosters/spend").
		HandlerFunc(utils.WrapHandlerFunc(b.handleQueryRewards(false)))
	sub.Path("/refund").
		Methods(http.MethodPost).
		Name("POST /boosters/refund").
		HandlerFunc(utils.WrapHandlerFunc(b.handleQueryRewards(true)))
	sub.Path("/missed-labor").
		Methods(http.MethodPost).
		Name("POST /boosters/missed-labor").
		HandlerFunc(utils.WrapHandlerFunc(b.handleMissedLabor))
}
