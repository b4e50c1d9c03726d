// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"encoding/json"

	"github.com/subquery/network-ledger/sq"
)

// Event is a builtin service event as stored.
type Event struct {
	Seq         int64           `json:"seq"`
	BlockNumber uint64          `json:"blockNumber"`
	BlockTime   uint64          `json:"blockTime"`
	CommandID   sq.Bytes32      `json:"commandID"`
	Origin      sq.Address      `json:"origin"`
	Emitter     sq.Address      `json:"emitter"`
	Name        string          `json:"name"`
	Subjects    [2]*sq.Address  `json:"subjects"`
	Data        json.RawMessage `json:"data,omitempty"`
}

type RangeType string

const (
	Block RangeType = "block"
	Time  RangeType = "time"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

type Range struct {
	Unit RangeType
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events by emitter, name and either subject. Nil
// fields match anything.
type EventCriteria struct {
	Emitter *sq.Address
	Name    string
	Subject *sq.Address
}

type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
