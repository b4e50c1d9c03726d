// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eras

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/subquery/network-ledger/api/utils"
	"github.com/subquery/network-ledger/builtin"
	"github.com/subquery/network-ledger/ledger"
)

type Eras struct {
	ledger *ledger.Ledger
}

func New(ledger *ledger.Ledger) *Eras {
	return &Eras{ledger}
}

// Era is the state of the era clock. Projected is the era the clock would
// reach when updated now.
type Era struct {
	Number    uint64 `json:"number"`
	StartTime uint64 `json:"startTime"`
	Period    uint64 `json:"period"`
	Projected uint64 `json:"projected"`
	Now       uint64 `json:"now"`
}

type periodRequest struct {
	utils.CommandBody
	Period uint64 `json:"period"`
}

func (e *Eras) handleGetEra(w http.ResponseWriter, _ *http.Request) error {
	var era Era
	if err := e.ledger.View(func(c *builtin.Contracts) (err error) {
		if era.Number, err = c.Era.EraNumber(); err != nil {
			return
		}
		if era.StartTime, err = c.Era.EraStartTime(); err != nil {
			return
		}
		if era.Period, err = c.Era.EraPeriod(); err != nil {
			return
		}
		era.Projected, err = c.Era.Projected()
		era.Now = c.Env.Now()
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &era)
}

func (e *Eras) handleStartNewEra(w http.ResponseWriter, req *http.Request) error {
	var body utils.CommandBody
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	receipt, err := e.ledger.StartNewEra(caller)
	return utils.WriteReceipt(w, receipt, err)
}

func (e *Eras) handleUpdateEra(w http.ResponseWriter, req *http.Request) error {
	var body utils.CommandBody
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	receipt, err := e.ledger.UpdateEra(caller)
	return utils.WriteReceipt(w, receipt, err)
}

func (e *Eras) handleUpdatePeriod(w http.ResponseWriter, req *http.Request) error {
	var body periodRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	receipt, err := e.ledger.UpdateEraPeriod(caller, body.Period)
	return utils.WriteReceipt(w, receipt, err)
}

func (e *Eras) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /eras").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetEra))
	sub.Path("/start").
		Methods(http.MethodPost).
		Name("POST /eras/start").
		HandlerFunc(utils.WrapHandlerFunc(e.handleStartNewEra))
	sub.Path("/update").
		Methods(http.MethodPost).
		Name("POST /eras/update").
		HandlerFunc(utils.WrapHandlerFunc(e.handleUpdateEra))
	sub.Path("/period").
		Methods(http.MethodPost).
		Name("POST /eras/period").
		HandlerFunc(utils.WrapHandlerFunc(e.handleUpdatePeriod))
}
