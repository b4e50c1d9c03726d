// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	healthAPI "github.com/subquery/network-ledger/api/admin/health"
	"github.com/subquery/network-ledger/api/admin/loglevel"
	"github.com/subquery/network-ledger/api/utils"
	"github.com/subquery/network-ledger/builtin"
	"github.com/subquery/network-ledger/health"
	"github.com/subquery/network-ledger/ledger"
)

// Admin serves owner commands and node settings.
type Admin struct {
	ledger   *ledger.Ledger
	logLevel *slog.LevelVar
	health   *health.Health
}

func New(ledger *ledger.Ledger, logLevel *slog.LevelVar, health *health.Health) *Admin {
	return &Admin{ledger, logLevel, health}
}

type paramRequest struct {
	utils.CommandBody
	Name  string `json:"name"`
	Value string `json:"value"`
}

type maintenanceRequest struct {
	utils.CommandBody
	On bool `json:"on"`
}

type queryRewardRateRequest struct {
	utils.CommandBody
	ProjectType uint64 `json:"projectType"`
	Rate        uint64 `json:"rate"`
}

type projectTypeRequest struct {
	utils.CommandBody
	Deployment  string `json:"deployment"`
	ProjectType uint64 `json:"projectType"`
}

type inflationRequest struct {
	utils.CommandBody
	Rate        *uint64 `json:"rate,omitempty"`
	Destination string  `json:"destination,omitempty"`
}

type mintRequest struct {
	utils.CommandBody
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (a *Admin) handleGetHead(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, a.ledger.Head())
}

func (a *Admin) handleGetParams(w http.ResponseWriter, _ *http.Request) error {
	var out map[string]string
	if err := a.ledger.View(func(c *builtin.Contracts) (err error) {
		out, err = ledger.ReadParams(c)
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (a *Admin) handleSetParam(w http.ResponseWriter, req *http.Request) error {
	var body paramRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	if _, _, err := ledger.ParseParam(body.Name, body.Value); err != nil {
		return utils.BadRequest(err)
	}
	receipt, err := a.ledger.SetParam(caller, body.Name, body.Value)
	return utils.WriteReceipt(w, receipt, err)
}

func (a *Admin) handleSetMaintenance(w http.ResponseWriter, req *http.Request) error {
	var body maintenanceRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	receipt, err := a.ledger.SetMaintenance(caller, body.On)
	return utils.WriteReceipt(w, receipt, err)
}

func (a *Admin) handleSetQueryRewardRate(w http.ResponseWriter, req *http.Request) error {
	var body queryRewardRateRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	receipt, err := a.ledger.SetQueryRewardRate(caller, body.ProjectType, body.Rate)
	return utils.WriteReceipt(w, receipt, err)
}

func (a *Admin) handleSetProjectType(w http.ResponseWriter, req *http.Request) error {
	var body projectTypeRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	deployment, err := utils.Deployment("deployment", body.Deployment)
	if err != nil {
		return err
	}
	receipt, err := a.ledger.SetProjectType(caller, deployment, body.ProjectType)
	return utils.WriteReceipt(w, receipt, err)
}

// handleSetInflation changes the rate, the destination, or both. The
// receipt of the last command is returned.
func (a *Admin) handleSetInflation(w http.ResponseWriter, req *http.Request) error {
	var body inflationRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	if body.Rate == nil && body.Destination == "" {
		return utils.BadRequest(errors.New("rate or destination required"))
	}
	var receipt *ledger.Receipt
	if body.Rate != nil {
		if receipt, err = a.ledger.SetInflationRate(caller, *body.Rate); err != nil {
			return utils.CommandError(err)
		}
	}
	if body.Destination != "" {
		dest, err := utils.Account("destination", body.Destination)
		if err != nil {
			return err
		}
		if receipt, err = a.ledger.SetInflationDestination(caller, dest); err != nil {
			return utils.CommandError(err)
		}
	}
	return utils.WriteJSON(w, receipt)
}

func (a *Admin) handleMint(w http.ResponseWriter, req *http.Request) error {
	var body mintRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	to, err := utils.Account("to", body.To)
	if err != nil {
		return err
	}
	amount, err := utils.Amount("amount", body.Amount)
	if err != nil {
		return err
	}
	receipt, err := a.ledger.MintSQT(caller, to, amount)
	return utils.WriteReceipt(w, receipt, err)
}

func (a *Admin) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	loglevel.New(a.logLevel).Mount(sub, "/loglevel")
	if a.health != nil {
		healthAPI.New(a.health).Mount(sub, "/health")
	}

	sub.Path("/head").
		Methods(http.MethodGet).
		Name("GET /admin/head").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetHead))
	sub.Path("/params").
		Methods(http.MethodGet).
		Name("GET /admin/params").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetParams))
	sub.Path("/params").
		Methods(http.MethodPost).
		Name("POST /admin/params").
		HandlerFunc(utils.WrapHandlerFunc(a.handleSetParam))
	sub.Path("/maintenance").
		Methods(http.MethodPost).
		Name("POST /admin/maintenance").
		HandlerFunc(utils.WrapHandlerFunc(a.handleSetMaintenance))
	sub.Path("/query-reward-rate").
		Methods(http.MethodPost).
		Name("POST /admin/query-reward-rate").
		HandlerFunc(utils.WrapHandlerFunc(a.handleSetQueryRewardRate))
	sub.Path("/project-type").
		Methods(http.MethodPost).
		Name("POST /admin/project-type").
		HandlerFunc(utils.WrapHandlerFunc(a.handleSetProjectType))
	sub.Path("/inflation").
		Methods(http.MethodPost).
		Name("POST /admin/inflation").
		HandlerFunc(utils.WrapHandlerFunc(a.handleSetInflation))
	sub.Path("/mint").
		Methods(http.MethodPost).
		Name("POST /admin/mint").
		HandlerFunc(utils.WrapHandlerFunc(a.handleMint))
}
