// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package boosters

import (
	"github.com/subquery/network-ledger/api/utils"
	"github.com/subquery/network-ledger/sq"
)

type Pool struct {
	TotalBoosted         string `json:"totalBoosted"`
	AccRewardsPerBooster string `json:"accRewardsPerBooster"`
	LastBlock            uint64 `json:"lastBlock"`
}

type Deployment struct {
	Deployment              sq.Bytes32 `json:"deployment"`
	ProjectType             uint64     `json:"projectType"`
	TotalBoosted            string     `json:"totalBoosted"`
	AccRewardsForDeployment string     `json:"accRewardsForDeployment"`
	Allocated               string     `json:"allocated"`
}

type Booster struct {
	Deployment   sq.Bytes32 `json:"deployment"`
	Account      sq.Address `json:"account"`
	Amount       string     `json:"amount"`
	QueryRewards string     `json:"queryRewards"`
}

type RunnerReward struct {
	Deployment    sq.Bytes32 `json:"deployment"`
	Runner        sq.Address `json:"runner"`
	Allocated     string     `json:"allocated"`
	Claimable     string     `json:"claimable"`
	Burnable      string     `json:"burnable"`
	LastClaimedAt uint64     `json:"lastClaimedAt"`
	MissedLabor   uint64     `json:"missedLabor"`
	Disabled      bool       `json:"disabled"`
}

type boostRequest struct {
	utils.CommandBody
	Deployment string `json:"deployment"`
	Amount     string `json:"amount"`
}

type collectRequest struct {
	utils.CommandBody
	Deployment string `json:"deployment"`
	Runner     string `json:"runner"`
}

type queryRewardsRequest struct {
	utils.CommandBody
	Deployment string `json:"deployment"`
	Account    string `json:"account"`
	Amount     string `json:"amount"`
}

type MissedLaborRow struct {
	Deployment string `json:"deployment"`
	Runner     string `json:"runner"`
	Disable    bool   `json:"disable"`
	Missed     uint64 `json:"missed"`
}

type missedLaborRequest struct {
	utils.CommandBody
	ReportAt uint64            `json:"reportAt"`
	Rows     []*MissedLaborRow `json:"rows"`
}
