// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/subquery/network-ledger/api/utils"
	"github.com/subquery/network-ledger/logdb"
)

type Events struct {
	db    *logdb.LogDB
	limit uint64
}

func New(db *logdb.LogDB, limit uint64) *Events {
	return &Events{
		db,
		limit,
	}
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter EventFilter
	if err := utils.ParseJSON(req.Body, &filter); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if filter.Options != nil && filter.Options.Limit > e.limit {
		return utils.Forbidden(fmt.Errorf("options.limit exceeds the maximum allowed value of %d", e.limit))
	}
	converted, err := filter.Convert()
	if err != nil {
		return utils.BadRequest(err)
	}
	if converted.Options == nil {
		// one more than the limit tells whether there are more events
		converted.Options = &logdb.Options{Limit: e.limit + 1}
	}

	events, err := e.db.FilterEvents(req.Context(), converted)
	if err != nil {
		return err
	}
	if len(events) > int(e.limit) {
		return utils.Forbidden(fmt.Errorf("the number of filtered events exceeds the maximum allowed value of %d, please use pagination", e.limit))
	}
	if events == nil {
		events = []*logdb.Event{}
	}
	return utils.WriteJSON(w, events)
}

// handleAfter pages through the whole log by sequence.
func (e *Events) handleAfter(w http.ResponseWriter, req *http.Request) error {
	query := req.URL.Query()
	var (
		after int64
		limit = e.limit
		err   error
	)
	if s := query.Get("after"); s != "" {
		if after, err = strconv.ParseInt(s, 10, 64); err != nil {
			return utils.BadRequest(errors.WithMessage(err, "after"))
		}
	}
	if s := query.Get("limit"); s != "" {
		if limit, err = utils.Uint("limit", s); err != nil {
			return err
		}
		if limit > e.limit {
			return utils.Forbidden(fmt.Errorf("limit exceeds the maximum allowed value of %d", e.limit))
		}
	}
	events, err := e.db.EventsAfter(req.Context(), after, limit)
	if err != nil {
		return err
	}
	if events == nil {
		events = []*logdb.Event{}
	}
	return utils.WriteJSON(w, events)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleAfter))
}
