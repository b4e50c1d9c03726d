// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"github.com/subquery/network-ledger/api/utils"
	"github.com/subquery/network-ledger/sq"
)

// EraEntry is one era of the reward schedule.
type EraEntry struct {
	Era    uint64 `json:"era"`
	Add    string `json:"add"`
	Remove string `json:"remove"`
}

type RunnerRewards struct {
	Runner         sq.Address   `json:"runner"`
	LastClaimEra   uint64       `json:"lastClaimEra"`
	EraReward      string       `json:"eraReward"`
	AccSQTPerStake string       `json:"accSQTPerStake"`
	TotalStake     string       `json:"totalStake"`
	PendingStakers []sq.Address `json:"pendingStakers"`
	Schedule       []*EraEntry  `json:"schedule,omitempty"`
}

type AccountRewards struct {
	Runner           sq.Address `json:"runner"`
	Account          sq.Address `json:"account"`
	Stake            string     `json:"stake"`
	Unclaimed        string     `json:"unclaimed"`
	PendingChangeEra uint64     `json:"pendingChangeEra"`
}

type claimRequest struct {
	utils.CommandBody
	Runner  string `json:"runner"`
	Account string `json:"account,omitempty"`
}

type batchClaimRequest struct {
	utils.CommandBody
	Runners []string `json:"runners"`
}

type applyRequest struct {
	utils.CommandBody
	Runner  string   `json:"runner"`
	Stakers []string `json:"stakers"`
}

type agreementRequest struct {
	utils.CommandBody
	Runner string `json:"runner"`
	Value  string `json:"value"`
	Start  uint64 `json:"start"`
	Period uint64 `json:"period"`
}

type instantRequest struct {
	utils.CommandBody
	Runner string `json:"runner"`
	Amount string `json:"amount"`
	Era    uint64 `json:"era"`
}
