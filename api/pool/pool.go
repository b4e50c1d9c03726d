// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/subquery/network-ledger/api/utils"
	"github.com/subquery/network-ledger/builtin"
	"github.com/subquery/network-ledger/ledger"
	"github.com/subquery/network-ledger/sq"
)

type Bucket struct {
	Deployment      sq.Bytes32 `json:"deployment"`
	Era             uint64     `json:"era"`
	TotalReward     string     `json:"totalReward"`
	UnclaimedReward string     `json:"unclaimedReward"`
	UnclaimedLabor  string     `json:"unclaimedLabor"`
	Runners         uint64     `json:"runners"`
}

type Reward struct {
	Runner sq.Address `json:"runner"`
	Labor  string     `json:"labor"`
	Reward string     `json:"reward"`
}

type Entry struct {
	Deployment sq.Bytes32 `json:"deployment"`
	Era        uint64     `json:"era"`
}

type laborRequest struct {
	utils.CommandBody
	Deployment string `json:"deployment"`
	Runner     string `json:"runner"`
	Amount     string `json:"amount"`
}

type collectRequest struct {
	utils.CommandBody
	Deployment string `json:"deployment,omitempty"`
	Era        uint64 `json:"era,omitempty"`
	Runner     string `json:"runner"`
}

type Pool struct {
	ledger *ledger.Ledger
}

func New(ledger *ledger.Ledger) *Pool {
	return &Pool{ledger}
}

func (p *Pool) bucketParams(req *http.Request) (sq.Bytes32, uint64, error) {
	deployment, err := utils.Deployment("deployment", utils.Var(req, "deployment"))
	if err != nil {
		return sq.Bytes32{}, 0, err
	}
	era, err := utils.Uint("era", utils.Var(req, "era"))
	if err != nil {
		return sq.Bytes32{}, 0, err
	}
	return deployment, era, nil
}

func (p *Pool) handleGetBucket(w http.ResponseWriter, req *http.Request) error {
	deployment, era, err := p.bucketParams(req)
	if err != nil {
		return err
	}
	out := Bucket{Deployment: deployment, Era: era}
	if err := p.ledger.View(func(c *builtin.Contracts) error {
		b, err := c.RewardsPool.GetBucket(deployment, era)
		if err != nil {
			return err
		}
		out.TotalReward = sq.FormatSQT(b.TotalReward)
		out.UnclaimedReward = sq.FormatSQT(b.UnclaimedReward)
		out.UnclaimedLabor = sq.FormatSQT(b.UnclaimedLabor)
		out.Runners = b.Runners
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &out)
}

func (p *Pool) handleGetReward(w http.ResponseWriter, req *http.Request) error {
	deployment, era, err := p.bucketParams(req)
	if err != nil {
		return err
	}
	runner, err := utils.Account("runner", utils.Var(req, "runner"))
	if err != nil {
		return err
	}
	out := Reward{Runner: runner}
	if err := p.ledger.View(func(c *builtin.Contracts) error {
		r, err := c.RewardsPool.GetReward(deployment, era, runner)
		if err != nil {
			return err
		}
		out.Labor, out.Reward = sq.FormatSQT(r.Labor), sq.FormatSQT(r.Reward)
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &out)
}

func (p *Pool) handleGetEntries(w http.ResponseWriter, req *http.Request) error {
	runner, err := utils.Account("runner", utils.Var(req, "runner"))
	if err != nil {
		return err
	}
	out := []Entry{}
	if err := p.ledger.View(func(c *builtin.Contracts) error {
		entries, err := c.RewardsPool.Entries(runner)
		for _, e := range entries {
			out = append(out, Entry{e.Deployment, e.Era})
		}
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (p *Pool) handleLabor(w http.ResponseWriter, req *http.Request) error {
	var body laborRequest
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
	receipt, err := p.ledger.Labor(caller, deployment, runner, amount)
	return utils.WriteReceipt(w, receipt, err)
}

// handleCollect collects one bucket, or every bucket of the runner when no
// deployment is given.
func (p *Pool) handleCollect(w http.ResponseWriter, req *http.Request) error {
	var body collectRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	runner, err := utils.Account("runner", body.Runner)
	if err != nil {
		return err
	}
	if body.Deployment == "" {
		receipt, err := p.ledger.BatchCollectPool(caller, runner)
		return utils.WriteReceipt(w, receipt, err)
	}
	deployment, err := utils.Deployment("deployment", body.Deployment)
	if err != nil {
		return err
	}
	receipt, err := p.ledger.CollectPool(caller, deployment, body.Era, runner)
	return utils.WriteReceipt(w, receipt, err)
}

func (p *Pool) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/labor").
		Methods(http.MethodPost).
		Name("POST /pool/labor").
		HandlerFunc(utils.WrapHandlerFunc(p.handleLabor))
	sub.Path("/collect").
		Methods(http.MethodPost).
		Name("POST /pool/collect").
		HandlerFunc(utils.WrapHandlerFunc(p.handleCollect))
	sub.Path("/runners/{runner}").
		Methods(http.MethodGet).
		Name("GET /pool/runners/{runner}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetEntries))
	sub.Path("/{deployment}/{era}").
		Methods(http.MethodGet).
		Name("GET /pool/{deployment}/{era}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetBucket))
	sub.Path("/{deployment}/{era}/{runner}").
		Methods(http.MethodGet).
		Name("GET /pool/{deployment}/{era}/{runner}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetReward))
}
