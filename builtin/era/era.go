// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package era

import (
	"github.com/pkg/errors"

	"github.com/subquery/network-ledger/builtin/params"
	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/builtin/storage"
	"github.com/subquery/network-ledger/log"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/xenv"
)

var logger = log.WithContext("pkg", "era")

const DefaultEraPeriod uint64 = 24 * 60 * 60

var (
	slotEraPeriod    = storage.Slot("era-period")
	slotEraNumber    = storage.Slot("era-number")
	slotEraStartTime = storage.Slot("era-start-time")
)

// NewEraHook runs whenever the clock moves to a new era.
type NewEraHook func(era uint64) error

// Clock tracks the current era and its boundary.
type Clock struct {
	addr      sq.Address
	env       *xenv.Environment
	params    *params.Params
	period    *storage.Uint256
	number    *storage.Uint256
	startTime *storage.Uint256
	hook      NewEraHook
}

func New(addr sq.Address, env *xenv.Environment, params *params.Params) *Clock {
	sctx := storage.NewContext(addr, env.State())
	return &Clock{
		addr:      addr,
		env:       env,
		params:    params,
		period:    storage.NewUint256(sctx, slotEraPeriod),
		number:    storage.NewUint256(sctx, slotEraNumber),
		startTime: storage.NewUint256(sctx, slotEraStartTime),
	}
}

// OnNewEra registers the hook run after each advance.
func (c *Clock) OnNewEra(hook NewEraHook) { c.hook = hook }

// Initialize sets the genesis values: era 1 with the clock not started.
func (c *Clock) Initialize(period uint64) {
	if period == 0 {
		period = DefaultEraPeriod
	}
	c.period.SetUint64(period)
	c.number.SetUint64(1)
	c.startTime.SetUint64(0)
}

func (c *Clock) EraPeriod() (uint64, error) { return c.period.Uint64() }

func (c *Clock) EraNumber() (uint64, error) { return c.number.Uint64() }

func (c *Clock) EraStartTime() (uint64, error) { return c.startTime.Uint64() }

func (c *Clock) load() (number, start, period uint64, err error) {
	if number, err = c.EraNumber(); err != nil {
		return
	}
	if start, err = c.EraStartTime(); err != nil {
		return
	}
	period, err = c.EraPeriod()
	return
}

// StartNewEra moves to the next era, starting now. It fails with E002 while
// the current era has not elapsed.
func (c *Clock) StartNewEra() error {
	if err := c.params.RequireNotMaintenance(); err != nil {
		return err
	}
	number, start, period, err := c.load()
	if err != nil {
		return err
	}
	now := c.env.Now()
	if start != 0 && start+period > now {
		return reverts.New("E002", "current era is still active")
	}
	return c.advance(number+1, now)
}

// SafeUpdateAndGetEra catches the clock up with the current time and
// returns the current era. Boundaries stay aligned on the era period, except
// for the very first advance which starts the clock at now.
func (c *Clock) SafeUpdateAndGetEra() (uint64, error) {
	if err := c.params.RequireNotMaintenance(); err != nil {
		return 0, err
	}
	number, start, period, err := c.load()
	if err != nil {
		return 0, err
	}
	now := c.env.Now()
	if start == 0 {
		if err := c.advance(number+1, now); err != nil {
			return 0, err
		}
		return number + 1, nil
	}
	if now < start || period == 0 {
		return number, nil
	}
	if n := (now - start) / period; n > 0 {
		if err := c.advance(number+n, start+n*period); err != nil {
			return 0, err
		}
		return number + n, nil
	}
	return number, nil
}

func (c *Clock) advance(number, start uint64) error {
	c.number.SetUint64(number)
	c.startTime.SetUint64(start)
	if err := c.env.Log(c.addr, "NewEraStart", []sq.Address{c.env.Caller()}, map[string]any{
		"era":       number,
		"startTime": start,
	}); err != nil {
		return err
	}
	logger.Info("new era", "era", number, "start", start)
	if c.hook != nil {
		if err := c.hook(number); err != nil {
			return errors.WithMessage(err, "new era hook")
		}
	}
	return nil
}

// TimestampToEraNumber maps ts to its era. Timestamps before the last
// boundary cannot be resolved (E003).
func (c *Clock) TimestampToEraNumber(ts uint64) (uint64, error) {
	number, start, period, err := c.load()
	if err != nil {
		return 0, err
	}
	if start == 0 || period == 0 {
		return number, nil
	}
	if ts < start {
		return 0, reverts.New("E003", "only further timestamp available")
	}
	return number + (ts-start)/period, nil
}

// Projected returns the era the clock would be in after catching up, without
// writing anything.
func (c *Clock) Projected() (uint64, error) {
	return c.TimestampToEraNumber(c.env.Now())
}

// UpdateEraPeriod changes the period of the running and later eras.
func (c *Clock) UpdateEraPeriod(period uint64) error {
	if err := c.params.RequireOwner(c.env.Caller()); err != nil {
		return err
	}
	if period == 0 {
		return reverts.New("E001", "era period can not be 0")
	}
	number, err := c.EraNumber()
	if err != nil {
		return err
	}
	c.period.SetUint64(period)
	return c.env.Log(c.addr, "EraPeriodUpdate", nil, map[string]any{
		"era":    number,
		"period": period,
	})
}
