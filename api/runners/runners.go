// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runners

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/subquery/network-ledger/api/utils"
	"github.com/subquery/network-ledger/builtin"
	"github.com/subquery/network-ledger/ledger"
	"github.com/subquery/network-ledger/sq"
)

type Runners struct {
	ledger *ledger.Ledger
}

func New(ledger *ledger.Ledger) *Runners {
	return &Runners{ledger}
}

func (r *Runners) handleListRunners(w http.ResponseWriter, _ *http.Request) error {
	var list []sq.Address
	if err := r.ledger.View(func(c *builtin.Contracts) (err error) {
		list, err = c.Registry.Runners()
		return
	}); err != nil {
		return err
	}
	if list == nil {
		list = []sq.Address{}
	}
	return utils.WriteJSON(w, list)
}

func (r *Runners) handleGetRunner(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.Account("runner", utils.Var(req, "runner"))
	if err != nil {
		return err
	}
	var (
		runner = Runner{Address: addr}
		found  bool
	)
	if err := r.ledger.View(func(c *builtin.Contracts) error {
		var err error
		if found, err = c.Registry.IsRunner(addr); err != nil || !found {
			return err
		}
		if runner.Metadata, err = c.Registry.Metadata(addr); err != nil {
			return err
		}
		rate, err := c.Commission.Get(addr)
		if err != nil {
			return err
		}
		runner.Commission = Commission{rate.Current, rate.Pending, rate.PendingEra}

		stake, err := c.Staking.GetTotalStake(addr)
		if err != nil {
			return err
		}
		runner.Stake = Stake{stake.Era, sq.FormatSQT(stake.ValueAt), sq.FormatSQT(stake.ValueAfter)}

		alloc, err := c.Allocation.RunnerAllocation(addr)
		if err != nil {
			return err
		}
		overflowing, err := c.Allocation.IsOverflow(addr)
		if err != nil {
			return err
		}
		overflowTime, err := c.Allocation.OverflowTime(addr)
		if err != nil {
			return err
		}
		deployments, err := c.Allocation.RunnerDeployments(addr)
		if err != nil {
			return err
		}
		if deployments == nil {
			deployments = []sq.Bytes32{}
		}
		runner.Allocation = Allocation{
			Total:        sq.FormatSQT(alloc.Total),
			Used:         sq.FormatSQT(alloc.Used),
			Overflowing:  overflowing,
			OverflowTime: overflowTime,
			Deployments:  deployments,
		}

		info, err := c.Rewards.GetRewardInfo(addr)
		if err != nil {
			return err
		}
		runner.Rewards = RewardInfo{info.LastClaimEra, sq.FormatSQT(info.EraReward), info.AccSQTPerStake.String()}
		return nil
	}); err != nil {
		return err
	}
	if !found {
		return utils.NotFound(errors.New("runner not registered"))
	}
	return utils.WriteJSON(w, &runner)
}

func (r *Runners) handleRegister(w http.ResponseWriter, req *http.Request) error {
	var body registerRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	amount, err := utils.Amount("amount", body.Amount)
	if err != nil {
		return err
	}
	var metadata sq.Bytes32
	if body.Metadata != "" {
		if metadata, err = utils.Deployment("metadata", body.Metadata); err != nil {
			return err
		}
	}
	receipt, err := r.ledger.RegisterRunner(caller, amount, body.Rate, metadata)
	return utils.WriteReceipt(w, receipt, err)
}

func (r *Runners) handleUnregister(w http.ResponseWriter, req *http.Request) error {
	var body utils.CommandBody
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	receipt, err := r.ledger.UnregisterRunner(caller)
	return utils.WriteReceipt(w, receipt, err)
}

func (r *Runners) handleUpdateMetadata(w http.ResponseWriter, req *http.Request) error {
	var body metadataRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	metadata, err := utils.Deployment("metadata", body.Metadata)
	if err != nil {
		return err
	}
	receipt, err := r.ledger.UpdateMetadata(caller, metadata)
	return utils.WriteReceipt(w, receipt, err)
}

func (r *Runners) handleSetCommission(w http.ResponseWriter, req *http.Request) error {
	var body rateRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	receipt, err := r.ledger.SetCommissionRate(caller, body.Rate)
	return utils.WriteReceipt(w, receipt, err)
}

func (r *Runners) handleStake(unstake bool) utils.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		var body amountRequest
		caller, err := utils.ParseCommand(req, &body)
		if err != nil {
			return err
		}
		amount, err := utils.Amount("amount", body.Amount)
		if err != nil {
			return err
		}
		var receipt *ledger.Receipt
		if unstake {
			receipt, err = r.ledger.Unstake(caller, amount)
		} else {
			receipt, err = r.ledger.Stake(caller, amount)
		}
		return utils.WriteReceipt(w, receipt, err)
	}
}

// handleRunnerCommand serves commands that act on one runner.
func (r *Runners) handleRunnerCommand(run func(caller, runner sq.Address, maxEras uint64) (*ledger.Receipt, error)) utils.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		var body runnerRequest
		caller, err := utils.ParseCommand(req, &body)
		if err != nil {
			return err
		}
		runner, err := utils.Account("runner", body.Runner)
		if err != nil {
			return err
		}
		receipt, err := run(caller, runner, body.MaxEras)
		return utils.WriteReceipt(w, receipt, err)
	}
}

func (r *Runners) handleAllocation(remove bool) utils.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		var body allocationRequest
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
		amount, err := utils.Amount("amount", body.Amount)
		if err != nil {
			return err
		}
		var receipt *ledger.Receipt
		if remove {
			receipt, err = r.ledger.RemoveAllocation(caller, deployment, runner, amount)
		} else {
			receipt, err = r.ledger.AddAllocation(caller, deployment, runner, amount)
		}
		return utils.WriteReceipt(w, receipt, err)
	}
}

func (r *Runners) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /runners").
		HandlerFunc(utils.WrapHandlerFunc(r.handleListRunners))
	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /runners").
		HandlerFunc(utils.WrapHandlerFunc(r.handleRegister))
	sub.Path("/unregister").
		Methods(http.MethodPost).
		Name("POST /runners/unregister").
		HandlerFunc(utils.WrapHandlerFunc(r.handleUnregister))
	sub.Path("/metadata").
		Methods(http.MethodPost).
		Name("POST /runners/metadata").
		HandlerFunc(utils.WrapHandlerFunc(r.handleUpdateMetadata))
	sub.Path("/commission").
		Methods(http.MethodPost).
		Name("POST /runners/commission").
		HandlerFunc(utils.WrapHandlerFunc(r.handleSetCommission))
	sub.Path("/stake").
		Methods(http.MethodPost).
		Name("POST /runners/stake").
		HandlerFunc(utils.WrapHandlerFunc(r.handleStake(false)))
	sub.Path("/unstake").
		Methods(http.MethodPost).
		Name("POST /runners/unstake").
		HandlerFunc(utils.WrapHandlerFunc(r.handleStake(true)))
	sub.Path("/collect").
		Methods(http.MethodPost).
		Name("POST /runners/collect").
		HandlerFunc(utils.WrapHandlerFunc(r.handleRunnerCommand(func(caller, runner sq.Address, maxEras uint64) (*ledger.Receipt, error) {
			if maxEras > 0 {
				return r.ledger.BatchCollect(caller, runner, maxEras)
			}
			return r.ledger.CollectAndDistributeRewards(caller, runner)
		})))
	sub.Path("/catchup").
		Methods(http.MethodPost).
		Name("POST /runners/catchup").
		HandlerFunc(utils.WrapHandlerFunc(r.handleRunnerCommand(r.ledger.IndexerCatchup)))
	sub.Path("/apply-icr").
		Methods(http.MethodPost).
		Name("POST /runners/apply-icr").
		HandlerFunc(utils.WrapHandlerFunc(r.handleRunnerCommand(func(caller, runner sq.Address, _ uint64) (*ledger.Receipt, error) {
			return r.ledger.ApplyICRChange(caller, runner)
		})))
	sub.Path("/allocations/add").
		Methods(http.MethodPost).
		Name("POST /runners/allocations/add").
		HandlerFunc(utils.WrapHandlerFunc(r.handleAllocation(false)))
	sub.Path("/allocations/remove").
		Methods(http.MethodPost).
		Name("POST /runners/allocations/remove").
		HandlerFunc(utils.WrapHandlerFunc(r.handleAllocation(true)))
	sub.Path("/{runner}").
		Methods(http.MethodGet).
		Name("GET /runners/{runner}").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetRunner))
}
