// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package scenario

import (
	"math/big"
	"sort"

	"github.com/subquery/network-ledger/ledger"
	"github.com/subquery/network-ledger/sq"
)

type command func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error)

// commands maps step names onto ledger commands.
var commands = map[string]command{
	"startNewEra": func(l *ledger.Ledger, caller sq.Address, _ args) (*ledger.Receipt, error) {
		return l.StartNewEra(caller)
	},
	"updateEra": func(l *ledger.Ledger, caller sq.Address, _ args) (*ledger.Receipt, error) {
		return l.UpdateEra(caller)
	},
	"updateEraPeriod": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		period, err := a.uint("period")
		if err != nil {
			return nil, err
		}
		return l.UpdateEraPeriod(caller, period)
	},
	"transfer": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		to, err := a.account("to")
		if err != nil {
			return nil, err
		}
		amount, err := a.amount("amount")
		if err != nil {
			return nil, err
		}
		return l.Transfer(caller, to, amount)
	},
	"register": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		amount, err := a.amount("amount")
		if err != nil {
			return nil, err
		}
		rate, err := a.uintOr("rate", 0)
		if err != nil {
			return nil, err
		}
		var metadata sq.Bytes32
		if _, ok := a["metadata"]; ok {
			if metadata, err = a.deployment("metadata"); err != nil {
				return nil, err
			}
		}
		return l.RegisterRunner(caller, amount, rate, metadata)
	},
	"unregister": func(l *ledger.Ledger, caller sq.Address, _ args) (*ledger.Receipt, error) {
		return l.UnregisterRunner(caller)
	},
	"setCommissionRate": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		rate, err := a.uint("rate")
		if err != nil {
			return nil, err
		}
		return l.SetCommissionRate(caller, rate)
	},
	"stake":      amountCommand((*ledger.Ledger).Stake),
	"unstake":    amountCommand((*ledger.Ledger).Unstake),
	"delegate":   runnerAmountCommand((*ledger.Ledger).Delegate),
	"undelegate": runnerAmountCommand((*ledger.Ledger).Undelegate),
	"redelegate": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		from, err := a.account("from")
		if err != nil {
			return nil, err
		}
		to, err := a.account("to")
		if err != nil {
			return nil, err
		}
		amount, err := a.amount("amount")
		if err != nil {
			return nil, err
		}
		return l.Redelegate(caller, from, to, amount)
	},
	"cancelUnbonding": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		id, err := a.uint("id")
		if err != nil {
			return nil, err
		}
		return l.CancelUnbonding(caller, id)
	},
	"withdraw": func(l *ledger.Ledger, caller sq.Address, _ args) (*ledger.Receipt, error) {
		return l.Withdraw(caller)
	},
	"collect": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		runner, err := a.account("runner")
		if err != nil {
			return nil, err
		}
		maxEras, err := a.uintOr("maxEras", 0)
		if err != nil {
			return nil, err
		}
		if maxEras > 0 {
			return l.BatchCollect(caller, runner, maxEras)
		}
		return l.CollectAndDistributeRewards(caller, runner)
	},
	"catchup": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		runner, err := a.account("runner")
		if err != nil {
			return nil, err
		}
		maxEras, err := a.uint("maxEras")
		if err != nil {
			return nil, err
		}
		return l.IndexerCatchup(caller, runner, maxEras)
	},
	"applyStakeChange": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		runner, err := a.account("runner")
		if err != nil {
			return nil, err
		}
		stakers, err := a.accounts("stakers")
		if err != nil {
			return nil, err
		}
		return l.ApplyStakeChanges(caller, runner, stakers)
	},
	"applyICRChange": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		runner, err := a.account("runner")
		if err != nil {
			return nil, err
		}
		return l.ApplyICRChange(caller, runner)
	},
	"claim": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		runner, err := a.account("runner")
		if err != nil {
			return nil, err
		}
		if _, ok := a["account"]; ok {
			account, err := a.account("account")
			if err != nil {
				return nil, err
			}
			return l.ClaimFrom(caller, runner, account)
		}
		return l.Claim(caller, runner)
	},
	"batchClaim": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		runners, err := a.accounts("runners")
		if err != nil {
			return nil, err
		}
		return l.BatchClaim(caller, runners)
	},
	"agreement": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		runner, err := a.account("runner")
		if err != nil {
			return nil, err
		}
		value, err := a.amount("value")
		if err != nil {
			return nil, err
		}
		start, err := a.uint("start")
		if err != nil {
			return nil, err
		}
		period, err := a.uint("period")
		if err != nil {
			return nil, err
		}
		return l.IncreaseAgreementRewards(caller, runner, value, start, period)
	},
	"instantRewards": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		runner, err := a.account("runner")
		if err != nil {
			return nil, err
		}
		amount, err := a.amount("amount")
		if err != nil {
			return nil, err
		}
		era, err := a.uint("era")
		if err != nil {
			return nil, err
		}
		return l.AddInstantRewards(caller, runner, amount, era)
	},
	"allocate":      deploymentRunnerAmountCommand((*ledger.Ledger).AddAllocation),
	"deallocate":    deploymentRunnerAmountCommand((*ledger.Ledger).RemoveAllocation),
	"boost":         deploymentAmountCommand((*ledger.Ledger).BoostDeployment),
	"removeBooster": deploymentAmountCommand((*ledger.Ledger).RemoveBooster),
	"collectAllocationReward": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		deployment, err := a.deployment("deployment")
		if err != nil {
			return nil, err
		}
		runner, err := a.account("runner")
		if err != nil {
			return nil, err
		}
		return l.CollectAllocationReward(caller, deployment, runner)
	},
	"spendQueryRewards":  deploymentAccountAmountCommand((*ledger.Ledger).SpendQueryRewards),
	"refundQueryRewards": deploymentAccountAmountCommand((*ledger.Ledger).RefundQueryRewards),
	"missedLabor": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		deployment, err := a.deployment("deployment")
		if err != nil {
			return nil, err
		}
		runner, err := a.account("runner")
		if err != nil {
			return nil, err
		}
		missed, err := a.uintOr("missed", 0)
		if err != nil {
			return nil, err
		}
		disable := false
		if _, ok := a["disable"]; ok {
			if disable, err = a.bool("disable"); err != nil {
				return nil, err
			}
		}
		reportAt, err := a.uint("reportAt")
		if err != nil {
			return nil, err
		}
		return l.SetMissedLabor(caller, []ledger.MissedLabor{{
			Deployment: deployment,
			Runner:     runner,
			Disable:    disable,
			Missed:     missed,
		}}, reportAt)
	},
	"labor": deploymentRunnerAmountCommand((*ledger.Ledger).Labor),
	"collectPool": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		runner, err := a.account("runner")
		if err != nil {
			return nil, err
		}
		if _, ok := a["deployment"]; !ok {
			return l.BatchCollectPool(caller, runner)
		}
		deployment, err := a.deployment("deployment")
		if err != nil {
			return nil, err
		}
		era, err := a.uint("era")
		if err != nil {
			return nil, err
		}
		return l.CollectPool(caller, deployment, era, runner)
	},
	"mint": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		to, err := a.account("to")
		if err != nil {
			return nil, err
		}
		amount, err := a.amount("amount")
		if err != nil {
			return nil, err
		}
		return l.MintSQT(caller, to, amount)
	},
	"setParam": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		name, err := a.get("name")
		if err != nil {
			return nil, err
		}
		value, err := a.get("value")
		if err != nil {
			return nil, err
		}
		return l.SetParam(caller, name, value)
	},
	"setMaintenance": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		on, err := a.bool("on")
		if err != nil {
			return nil, err
		}
		return l.SetMaintenance(caller, on)
	},
	"setQueryRewardRate": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		projectType, err := a.uint("projectType")
		if err != nil {
			return nil, err
		}
		rate, err := a.uint("rate")
		if err != nil {
			return nil, err
		}
		return l.SetQueryRewardRate(caller, projectType, rate)
	},
	"setProjectType": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		deployment, err := a.deployment("deployment")
		if err != nil {
			return nil, err
		}
		projectType, err := a.uint("projectType")
		if err != nil {
			return nil, err
		}
		return l.SetProjectType(caller, deployment, projectType)
	},
	"setInflationRate": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		rate, err := a.uint("rate")
		if err != nil {
			return nil, err
		}
		return l.SetInflationRate(caller, rate)
	},
	"setInflationDestination": func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		dest, err := a.account("destination")
		if err != nil {
			return nil, err
		}
		return l.SetInflationDestination(caller, dest)
	},
}

// Commands returns the sorted names usable in a step's do field.
func Commands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func amountCommand(f func(*ledger.Ledger, sq.Address, *big.Int) (*ledger.Receipt, error)) command {
	return func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		amount, err := a.amount("amount")
		if err != nil {
			return nil, err
		}
		return f(l, caller, amount)
	}
}

func runnerAmountCommand(f func(*ledger.Ledger, sq.Address, sq.Address, *big.Int) (*ledger.Receipt, error)) command {
	return func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		runner, err := a.account("runner")
		if err != nil {
			return nil, err
		}
		amount, err := a.amount("amount")
		if err != nil {
			return nil, err
		}
		return f(l, caller, runner, amount)
	}
}

func deploymentAmountCommand(f func(*ledger.Ledger, sq.Address, sq.Bytes32, *big.Int) (*ledger.Receipt, error)) command {
	return func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		deployment, err := a.deployment("deployment")
		if err != nil {
			return nil, err
		}
		amount, err := a.amount("amount")
		if err != nil {
			return nil, err
		}
		return f(l, caller, deployment, amount)
	}
}

func deploymentRunnerAmountCommand(f func(*ledger.Ledger, sq.Address, sq.Bytes32, sq.Address, *big.Int) (*ledger.Receipt, error)) command {
	return deploymentAccountCommand("runner", f)
}

func deploymentAccountAmountCommand(f func(*ledger.Ledger, sq.Address, sq.Bytes32, sq.Address, *big.Int) (*ledger.Receipt, error)) command {
	return deploymentAccountCommand("account", f)
}

func deploymentAccountCommand(key string, f func(*ledger.Ledger, sq.Address, sq.Bytes32, sq.Address, *big.Int) (*ledger.Receipt, error)) command {
	return func(l *ledger.Ledger, caller sq.Address, a args) (*ledger.Receipt, error) {
		deployment, err := a.deployment("deployment")
		if err != nil {
			return nil, err
		}
		account, err := a.account(key)
		if err != nil {
			return nil, err
		}
		amount, err := a.amount("amount")
		if err != nil {
			return nil, err
		}
		return f(l, caller, deployment, account, amount)
	}
}
