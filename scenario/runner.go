// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package scenario

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/subquery/network-ledger/builtin"
	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/kv"
	"github.com/subquery/network-ledger/ledger"
	"github.com/subquery/network-ledger/log"
	"github.com/subquery/network-ledger/logdb"
	"github.com/subquery/network-ledger/lvldb"
	"github.com/subquery/network-ledger/sq"
)

var logger = log.WithContext("pkg", "scenario")

// defaultStartTime is used when the genesis has no start time, so replays
// are reproducible.
const defaultStartTime = 1_700_000_000

type Options struct {
	Store    kv.Store     // nil runs in memory
	Logs     *logdb.LogDB // nil skips the event log
	Progress io.Writer    // nil disables the progress bar
	Cache    int
}

// Result summarizes a finished replay.
type Result struct {
	Steps    int
	Commands int
	Reverts  int // expected reverts
	Head     ledger.Head
	Era      uint64
}

// Run replays the scenario on a fresh ledger. It stops at the first step
// whose outcome differs from what the step expects.
func Run(ctx context.Context, s *Scenario, opts Options) (*Result, error) {
	store := opts.Store
	if store == nil {
		mem, err := lvldb.NewMem()
		if err != nil {
			return nil, err
		}
		defer mem.Close()
		store = mem
	}
	start := s.Genesis.StartTime
	if start == 0 {
		start = defaultStartTime
	}
	gene := *s.Genesis
	gene.StartTime = start

	clock := clockwork.NewFakeClockAt(time.Unix(int64(start), 0))
	l, err := ledger.Open(store, opts.Logs, clock, &gene, ledger.Options{CacheSize: opts.Cache})
	if err != nil {
		return nil, err
	}

	var bar *pb.ProgressBar
	if opts.Progress != nil {
		bar = pb.New(len(s.Steps)).SetMaxWidth(90)
		bar.Output = opts.Progress
		bar.Start()
		defer func() { bar.NotPrint = true }()
	}

	res := &Result{}
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := runStep(l, clock, step, res); err != nil {
			logger.Debug("step failed", "index", i+1, "step", spew.Sdump(step))
			return res, errors.WithMessagef(err, "step %d", i+1)
		}
		res.Steps++
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}

	res.Head = l.Head()
	if err := l.View(func(c *builtin.Contracts) (err error) {
		res.Era, err = c.Era.EraNumber()
		return
	}); err != nil {
		return res, err
	}
	logger.Info("scenario replayed", "name", s.Name, "steps", res.Steps, "commands", res.Commands, "era", res.Era)
	return res, nil
}

func runStep(l *ledger.Ledger, clock *clockwork.FakeClock, step *Step, res *Result) error {
	if step.Advance > 0 {
		clock.Advance(time.Duration(step.Advance))
	}
	if step.Do != "" {
		caller, err := ledger.ParseAccount(step.Caller)
		if err != nil {
			return errors.WithMessage(err, "caller")
		}
		receipt, err := commands[step.Do](l, caller, args(step.Args))
		res.Commands++
		switch {
		case step.ExpectError != "":
			if err == nil {
				return errors.Errorf("%v: expected revert %v, succeeded", step.Do, step.ExpectError)
			}
			if code := reverts.Code(err); code != step.ExpectError {
				return errors.Errorf("%v: expected revert %v, got %v", step.Do, step.ExpectError, err)
			}
			res.Reverts++
		case err != nil:
			return errors.WithMessage(err, step.Do)
		default:
			logger.Debug("command executed", "do", step.Do, "number", receipt.BlockNumber, "events", len(receipt.Events))
		}
	}
	if step.Expect != nil {
		return l.View(func(c *builtin.Contracts) error {
			return step.Expect.check(c)
		})
	}
	return nil
}

// MismatchError lists the expectations a step did not meet.
type MismatchError struct {
	Failures []string
	want     []string
	got      []string
}

func (e *MismatchError) Error() string { return strings.Join(e.Failures, "; ") }

// Diff renders the unmet expectations as a unified diff of the expected
// values against the actual ones.
func (e *MismatchError) Diff() string {
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        e.want,
		B:        e.got,
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  1,
	})
	return diff
}

func (e *Expectation) check(c *builtin.Contracts) error {
	mm := &MismatchError{}
	mismatch := func(what string, want, got any) {
		mm.Failures = append(mm.Failures, fmt.Sprintf("%v: want %v, got %v", what, want, got))
		mm.want = append(mm.want, fmt.Sprintf("%v = %v\n", what, want))
		mm.got = append(mm.got, fmt.Sprintf("%v = %v\n", what, got))
	}

	if e.Era != nil {
		era, err := c.Era.EraNumber()
		if err != nil {
			return err
		}
		if era != *e.Era {
			mismatch("era", *e.Era, era)
		}
	}
	if e.Supply != "" {
		supply, err := c.Token.TotalSupply()
		if err != nil {
			return err
		}
		if err := compare("supply", e.Supply, supply, mismatch); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(e.Balances) {
		addr, err := ledger.ParseAccount(key)
		if err != nil {
			return err
		}
		v, err := c.Token.BalanceOf(addr)
		if err != nil {
			return err
		}
		if err := compare("balance "+key, e.Balances[key], v, mismatch); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(e.Rewards) {
		runner, account, err := pair(key)
		if err != nil {
			return err
		}
		v, err := c.Rewards.UserRewards(runner, account)
		if err != nil {
			return err
		}
		if err := compare("rewards "+key, e.Rewards[key], v, mismatch); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(e.Delegations) {
		staker, runner, err := pair(key)
		if err != nil {
			return err
		}
		rec, err := c.Staking.GetDelegation(staker, runner)
		if err != nil {
			return err
		}
		if err := compare("delegation "+key, e.Delegations[key], rec.ValueAfter, mismatch); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(e.TotalStakes) {
		runner, err := ledger.ParseAccount(key)
		if err != nil {
			return err
		}
		rec, err := c.Staking.GetTotalStake(runner)
		if err != nil {
			return err
		}
		if err := compare("total stake "+key, e.TotalStakes[key], rec.ValueAfter, mismatch); err != nil {
			return err
		}
	}
	if len(mm.Failures) > 0 {
		return mm
	}
	return nil
}

func compare(what, want string, got *big.Int, mismatch func(string, any, any)) error {
	v, err := sq.ParseSQT(want)
	if err != nil {
		return errors.WithMessage(err, what)
	}
	if got == nil {
		got = new(big.Int)
	}
	if v.Cmp(got) != 0 {
		mismatch(what, want, sq.FormatSQT(got))
	}
	return nil
}

func pair(key string) (sq.Address, sq.Address, error) {
	a, b, ok := strings.Cut(key, "/")
	if !ok {
		return sq.Address{}, sq.Address{}, errors.Errorf("%q: want a/b", key)
	}
	first, err := ledger.ParseAccount(a)
	if err != nil {
		return sq.Address{}, sq.Address{}, err
	}
	second, err := ledger.ParseAccount(b)
	if err != nil {
		return sq.Address{}, sq.Address{}, err
	}
	return first, second, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
