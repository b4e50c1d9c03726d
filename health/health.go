// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type EraKeeper struct {
	Running   bool       `json:"running"`
	LastCheck *time.Time `json:"lastCheck"`
	LastError string     `json:"lastError,omitempty"`
	Head      uint64     `json:"head"`
}

type Status struct {
	Healthy   bool       `json:"healthy"`
	EraKeeper *EraKeeper `json:"eraKeeper"`
}

// Health follows the era keeper loop. The ledger is healthy while the loop
// runs and has checked the era clock recently without error.
type Health struct {
	lock      sync.RWMutex
	clock     clockwork.Clock
	interval  time.Duration
	running   bool
	lastCheck time.Time
	lastErr   error
	head      uint64
}

func New(clock clockwork.Clock, interval time.Duration) *Health {
	return &Health{clock: clock, interval: interval}
}

func (h *Health) Running(running bool) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.running = running
}

// Checked records one pass of the keeper loop.
func (h *Health) Checked(head uint64, err error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.lastCheck = h.clock.Now()
	h.lastErr = err
	h.head = head
}

func (h *Health) Status() *Status {
	h.lock.RLock()
	defer h.lock.RUnlock()

	keeper := &EraKeeper{
		Running: h.running,
		Head:    h.head,
	}
	if !h.lastCheck.IsZero() {
		t := h.lastCheck
		keeper.LastCheck = &t
	}
	if h.lastErr != nil {
		keeper.LastError = h.lastErr.Error()
	}

	// two missed checks mark the keeper as stalled
	fresh := keeper.LastCheck != nil && h.clock.Since(h.lastCheck) <= 2*h.interval
	return &Status{
		Healthy:   h.running && fresh && h.lastErr == nil,
		EraKeeper: keeper,
	}
}
