// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package scenario replays scripted command sequences against a ledger
// running on a fake clock, checking reverts and balances along the way.
package scenario

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/subquery/network-ledger/ledger"
)

// Scenario is a genesis plus the steps to run on top of it.
type Scenario struct {
	Name    string          `yaml:"name"`
	Genesis *ledger.Genesis `yaml:"genesis"`
	Steps   []*Step         `yaml:"steps"`
}

// Step does at most one of: move the clock, run a command, check state.
// A command step may also carry expectations, checked after it runs.
type Step struct {
	Advance     Duration          `yaml:"advance,omitempty"`
	Do          string            `yaml:"do,omitempty"`
	Caller      string            `yaml:"caller,omitempty"`
	Args        map[string]string `yaml:"args,omitempty"`
	ExpectError string            `yaml:"expectError,omitempty"`
	Expect      *Expectation      `yaml:"expect,omitempty"`
}

// Expectation lists state to assert. Keys pairing two accounts are
// written "a/b". Amounts are decimal SQT.
type Expectation struct {
	Era         *uint64           `yaml:"era,omitempty"`
	Balances    map[string]string `yaml:"balances,omitempty"`
	Rewards     map[string]string `yaml:"rewards,omitempty"`     // runner/account -> unclaimed
	Delegations map[string]string `yaml:"delegations,omitempty"` // staker/runner -> value after
	TotalStakes map[string]string `yaml:"totalStakes,omitempty"` // runner -> value after
	Supply      string            `yaml:"supply,omitempty"`
}

// Duration reads yaml durations like "25h" or "90s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := time.ParseDuration(node.Value)
	if err != nil {
		return errors.Wrapf(err, "line %d", node.Line)
	}
	if v < 0 {
		return errors.Errorf("line %d: negative duration", node.Line)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return s, nil
}

// Parse decodes and validates a scenario.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "decode scenario")
	}
	if s.Genesis == nil {
		s.Genesis = ledger.DevGenesis()
	}
	if s.Genesis.Owner == "" || s.Genesis.EraPeriod == 0 {
		return nil, errors.New("genesis: owner and eraPeriod required")
	}
	for i, step := range s.Steps {
		if step == nil {
			return nil, errors.Errorf("step %d: empty", i+1)
		}
		if step.Do != "" {
			if _, ok := commands[step.Do]; !ok {
				return nil, errors.Errorf("step %d: unknown command %q", i+1, step.Do)
			}
			if step.Caller == "" {
				return nil, errors.Errorf("step %d: caller required", i+1)
			}
		} else if step.ExpectError != "" {
			return nil, errors.Errorf("step %d: expectError without a command", i+1)
		}
		if step.Do != "" && step.Advance != 0 {
			return nil, errors.Errorf("step %d: advance and do are exclusive", i+1)
		}
	}
	return &s, nil
}
