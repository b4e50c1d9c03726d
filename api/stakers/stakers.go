// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/subquery/network-ledger/api/utils"
	"github.com/subquery/network-ledger/builtin"
	"github.com/subquery/network-ledger/ledger"
	"github.com/subquery/network-ledger/sq"
)

type Stakers struct {
	ledger *ledger.Ledger
}

func New(ledger *ledger.Ledger) *Stakers {
	return &Stakers{ledger}
}

func (s *Stakers) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.Account("staker", utils.Var(req, "staker"))
	if err != nil {
		return err
	}
	acc := Account{Address: addr}
	if err := s.ledger.View(func(c *builtin.Contracts) error {
		balance, err := c.Token.BalanceOf(addr)
		acc.Balance = sq.FormatSQT(balance)
		return err
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &acc)
}

func (s *Stakers) handleGetDelegation(w http.ResponseWriter, req *http.Request) error {
	staker, err := utils.Account("staker", utils.Var(req, "staker"))
	if err != nil {
		return err
	}
	runner, err := utils.Account("runner", utils.Var(req, "runner"))
	if err != nil {
		return err
	}
	d := Delegation{Runner: runner}
	if err := s.ledger.View(func(c *builtin.Contracts) error {
		rec, err := c.Staking.GetDelegation(staker, runner)
		if err != nil {
			return err
		}
		d.Era, d.ValueAt, d.ValueAfter = rec.Era, sq.FormatSQT(rec.ValueAt), sq.FormatSQT(rec.ValueAfter)
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, &d)
}

func (s *Stakers) handleGetUnbondings(w http.ResponseWriter, req *http.Request) error {
	staker, err := utils.Account("staker", utils.Var(req, "staker"))
	if err != nil {
		return err
	}
	list := []*Unbonding{}
	if err := s.ledger.View(func(c *builtin.Contracts) error {
		withdrawn, err := c.Staking.WithdrawnLength(staker)
		if err != nil {
			return err
		}
		reqs, err := c.Staking.GetUnbondingRequests(staker)
		if err != nil {
			return err
		}
		for i, r := range reqs {
			list = append(list, &Unbonding{
				ID:        withdrawn + uint64(i),
				Runner:    r.Runner,
				Amount:    sq.FormatSQT(r.Amount),
				StartTime: r.StartTime,
			})
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, list)
}

func (s *Stakers) handleDelegate(undelegate bool) utils.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		var body delegateRequest
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
		var receipt *ledger.Receipt
		if undelegate {
			receipt, err = s.ledger.Undelegate(caller, runner, amount)
		} else {
			receipt, err = s.ledger.Delegate(caller, runner, amount)
		}
		return utils.WriteReceipt(w, receipt, err)
	}
}

func (s *Stakers) handleRedelegate(w http.ResponseWriter, req *http.Request) error {
	var body redelegateRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	from, err := utils.Account("from", body.From)
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
	receipt, err := s.ledger.Redelegate(caller, from, to, amount)
	return utils.WriteReceipt(w, receipt, err)
}

func (s *Stakers) handleCancelUnbonding(w http.ResponseWriter, req *http.Request) error {
	var body cancelRequest
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	receipt, err := s.ledger.CancelUnbonding(caller, body.ID)
	return utils.WriteReceipt(w, receipt, err)
}

func (s *Stakers) handleWithdraw(w http.ResponseWriter, req *http.Request) error {
	var body utils.CommandBody
	caller, err := utils.ParseCommand(req, &body)
	if err != nil {
		return err
	}
	receipt, err := s.ledger.Withdraw(caller)
	return utils.WriteReceipt(w, receipt, err)
}

func (s *Stakers) handleTransfer(w http.ResponseWriter, req *http.Request) error {
	var body transferRequest
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
	receipt, err := s.ledger.Transfer(caller, to, amount)
	return utils.WriteReceipt(w, receipt, err)
}

func (s *Stakers) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/delegate").
		Methods(http.MethodPost).
		Name("POST /stakers/delegate").
		HandlerFunc(utils.WrapHandlerFunc(s.handleDelegate(false)))
	sub.Path("/undelegate").
		Methods(http.MethodPost).
		Name("POST /stakers/undelegate").
		HandlerFunc(utils.WrapHandlerFunc(s.handleDelegate(true)))
	sub.Path("/redelegate").
		Methods(http.MethodPost).
		Name("POST /stakers/redelegate").
		HandlerFunc(utils.WrapHandlerFunc(s.handleRedelegate))
	sub.Path("/cancel-unbonding").
		Methods(http.MethodPost).
		Name("POST /stakers/cancel-unbonding").
		HandlerFunc(utils.WrapHandlerFunc(s.handleCancelUnbonding))
	sub.Path("/withdraw").
		Methods(http.MethodPost).
		Name("POST /stakers/withdraw").
		HandlerFunc(utils.WrapHandlerFunc(s.handleWithdraw))
	sub.Path("/transfer").
		Methods(http.MethodPost).
		Name("POST /stakers/transfer").
		HandlerFunc(utils.WrapHandlerFunc(s.handleTransfer))
	sub.Path("/{staker}").
		Methods(http.MethodGet).
		Name("GET /stakers/{staker}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetAccount))
	sub.Path("/{staker}/delegations/{runner}").
		Methods(http.MethodGet).
		Name("GET /stakers/{staker}/delegations/{runner}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetDelegation))
	sub.Path("/{staker}/unbondings").
		Methods(http.MethodGet).
		Name("GET /stakers/{staker}/unbondings").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetUnbondings))
}
