// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package commission

import (
	"github.com/subquery/network-ledger/builtin/params"
	"github.com/subquery/network-ledger/builtin/reverts"
	"github.com/subquery/network-ledger/builtin/storage"
	"github.com/subquery/network-ledger/log"
	"github.com/subquery/network-ledger/sq"
	"github.com/subquery/network-ledger/xenv"
)

var logger = log.WithContext("pkg", "commission")

// ActivationDelay is the number of eras between a rate change and the first
// era it is charged in.
const ActivationDelay = 2

// Rate is a runner's commission. A pending change is set when PendingEra > 0.
type Rate struct {
	Current    uint64
	Pending    uint64
	PendingEra uint64
}

// Eras supplies the current era.
type Eras interface {
	SafeUpdateAndGetEra() (uint64, error)
	EraNumber() (uint64, error)
}

// Registry stores commission rates per runner.
type Registry struct {
	addr   sq.Address
	env    *xenv.Environment
	params *params.Params
	eras   Eras
	rates  *storage.Mapping[sq.Address, *Rate]
	known  *storage.Mapping[sq.Address, bool]
}

func New(addr sq.Address, env *xenv.Environment, params *params.Params, eras Eras) *Registry {
	sctx := storage.NewContext(addr, env.State())
	return &Registry{
		addr:   addr,
		env:    env,
		params: params,
		eras:   eras,
		rates:  storage.NewMapping[sq.Address, *Rate](sctx, storage.Slot("rates")),
		known:  storage.NewMapping[sq.Address, bool](sctx, storage.Slot("known")),
	}
}

func checkRate(rate uint64) error {
	if rate > sq.PerMill {
		return reverts.New("IR006", "commission rate exceeds the per mill base")
	}
	return nil
}

// Init sets the rate of a freshly registered runner. It applies at once and
// drops any change left pending from an earlier registration.
func (r *Registry) Init(runner sq.Address, rate uint64) error {
	if err := checkRate(rate); err != nil {
		return err
	}
	if err := r.known.Set(runner, true); err != nil {
		return err
	}
	if err := r.rates.Set(runner, &Rate{Current: rate}); err != nil {
		return err
	}
	return r.env.Log(r.addr, "SetCommissionRate", []sq.Address{runner}, map[string]any{"rate": rate})
}

// Retire stops the runner from scheduling changes. The current rate keeps
// applying to eras still being settled.
func (r *Registry) Retire(runner sq.Address) error {
	rate, err := r.rates.Get(runner)
	if err != nil {
		return err
	}
	rate.Pending, rate.PendingEra = 0, 0
	r.known.Delete(runner)
	return r.rates.Set(runner, rate)
}

// SetCommissionRate schedules a rate change for the calling runner.
func (r *Registry) SetCommissionRate(rate uint64) error {
	if err := r.params.RequireNotMaintenance(); err != nil {
		return err
	}
	runner := r.env.Caller()
	ok, err := r.known.Get(runner)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New("G002", "caller is not a runner")
	}
	if err := checkRate(rate); err != nil {
		return err
	}
	era, err := r.eras.SafeUpdateAndGetEra()
	if err != nil {
		return err
	}
	cur, err := r.rates.Get(runner)
	if err != nil {
		return err
	}
	cur.Pending = rate
	cur.PendingEra = era + ActivationDelay
	if err := r.rates.Set(runner, cur); err != nil {
		return err
	}
	logger.Debug("commission change queued", "runner", runner, "rate", rate, "era", cur.PendingEra)
	return r.env.Log(r.addr, "SetCommissionRate", []sq.Address{runner}, map[string]any{
		"rate":       rate,
		"pendingEra": cur.PendingEra,
	})
}

// Get returns the stored record.
func (r *Registry) Get(runner sq.Address) (*Rate, error) {
	return r.rates.Get(runner)
}

// CommissionRate returns the rate charged on the current era, counting a
// pending change whose era has been reached as applied.
func (r *Registry) CommissionRate(runner sq.Address) (uint64, error) {
	rate, err := r.rates.Get(runner)
	if err != nil {
		return 0, err
	}
	if rate.PendingEra == 0 {
		return rate.Current, nil
	}
	era, err := r.eras.EraNumber()
	if err != nil {
		return 0, err
	}
	if era >= rate.PendingEra {
		return rate.Pending, nil
	}
	return rate.Current, nil
}

// Apply commits the pending change once settledEra has reached the era
// before it takes effect.
func (r *Registry) Apply(runner sq.Address, settledEra uint64) error {
	rate, err := r.rates.Get(runner)
	if err != nil {
		return err
	}
	if rate.PendingEra == 0 || settledEra+1 < rate.PendingEra {
		return reverts.New("RS005", "no pending commission change to apply")
	}
	rate.Current = rate.Pending
	rate.Pending, rate.PendingEra = 0, 0
	if err := r.rates.Set(runner, rate); err != nil {
		return err
	}
	return r.env.Log(r.addr, "ICRChanged", []sq.Address{runner}, map[string]any{"rate": rate.Current})
}
