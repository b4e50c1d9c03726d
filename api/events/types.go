// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"github.com/pkg/errors"

	"github.com/subquery/network-ledger/ledger"
	"github.com/subquery/network-ledger/logdb"
)

type Range struct {
	Unit logdb.RangeType `json:"unit"`
	From uint64          `json:"from"`
	To   uint64          `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type Criteria struct {
	Emitter string `json:"emitter,omitempty"`
	Name    string `json:"name,omitempty"`
	Subject string `json:"subject,omitempty"`
}

type EventFilter struct {
	CriteriaSet []*Criteria `json:"criteriaSet"`
	Range       *Range      `json:"range"`
	Options     *Options    `json:"options"`
	Order       logdb.Order `json:"order"`
}

// Convert resolves accounts and validates the filter.
func (f *EventFilter) Convert() (*logdb.EventFilter, error) {
	out := &logdb.EventFilter{Order: f.Order}
	switch f.Order {
	case "", logdb.ASC, logdb.DESC:
	default:
		return nil, errors.Errorf("order: unknown %q", f.Order)
	}
	if f.Range != nil {
		unit := f.Range.Unit
		switch unit {
		case "":
			unit = logdb.Block
		case logdb.Block, logdb.Time:
		default:
			return nil, errors.Errorf("range.unit: unknown %q", unit)
		}
		if f.Range.To < f.Range.From {
			return nil, errors.New("range.to must be greater than or equal to range.from")
		}
		out.Range = &logdb.Range{Unit: unit, From: f.Range.From, To: f.Range.To}
	}
	if f.Options != nil {
		out.Options = &logdb.Options{Offset: f.Options.Offset, Limit: f.Options.Limit}
	}
	for i, c := range f.CriteriaSet {
		if c == nil {
			return nil, errors.Errorf("criteriaSet[%d]: null not allowed", i)
		}
		crit := &logdb.EventCriteria{Name: c.Name}
		if c.Emitter != "" {
			addr, err := ledger.ParseAccount(c.Emitter)
			if err != nil {
				return nil, errors.WithMessagef(err, "criteriaSet[%d].emitter", i)
			}
			crit.Emitter = &addr
		}
		if c.Subject != "" {
			addr, err := ledger.ParseAccount(c.Subject)
			if err != nil {
				return nil, errors.WithMessagef(err, "criteriaSet[%d].subject", i)
			}
			crit.Subject = &addr
		}
		out.CriteriaSet = append(out.CriteriaSet, crit)
	}
	return out, nil
}
