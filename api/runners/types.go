// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runners

import (
	"github.com/subquery/network-ledger/api/utils"
	"github.com/subquery/network-ledger/sq"
)

type Commission struct {
	Current    uint64 `json:"current"`
	Pending    uint64 `json:"pending"`
	PendingEra uint64 `json:"pendingEra"`
}

type Stake struct {
	Era        uint64 `json:"era"`
	ValueAt    string `json:"valueAt"`
	ValueAfter string `json:"valueAfter"`
}

type Allocation struct {
	Total        string       `json:"total"`
	Used         string       `json:"used"`
	Overflowing  bool         `json:"overflowing"`
	OverflowTime uint64       `json:"overflowTime"`
	Deployments  []sq.Bytes32 `json:"deployments"`
}

type RewardInfo struct {
	LastClaimEra   uint64 `json:"lastClaimEra"`
	EraReward      string `json:"eraReward"`
	AccSQTPerStake string `json:"accSQTPerStake"`
}

type Runner struct {
	Address    sq.Address `json:"address"`
	Metadata   sq.Bytes32 `json:"metadata"`
	Commission Commission `json:"commission"`
	Stake      Stake      `json:"stake"`
	Allocation Allocation `json:"allocation"`
	Rewards    RewardInfo `json:"rewards"`
}

type registerRequest struct {
	utils.CommandBody
	Amount   string `json:"amount"`
	Rate     uint64 `json:"rate"`
	Metadata string `json:"metadata"`
}

type metadataRequest struct {
	utils.CommandBody
	Metadata string `json:"metadata"`
}

type rateRequest struct {
	utils.CommandBody
	Rate uint64 `json:"rate"`
}

type amountRequest struct {
	utils.CommandBody
	Amount string `json:"amount"`
}

type runnerRequest struct {
	utils.CommandBody
	Runner  string `json:"runner"`
	MaxEras uint64 `json:"maxEras,omitempty"`
}

type allocationRequest struct {
	utils.CommandBody
	Deployment string `json:"deployment"`
	Runner     string `json:"runner"`
	Amount     string `json:"amount"`
}
