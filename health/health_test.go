// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestHealth_Checked(t *testing.T) {
	clock := clockwork.NewFakeClock()
	h := New(clock, 10*time.Second)

	status := h.Status()
	assert.False(t, status.Healthy)
	assert.Nil(t, status.EraKeeper.LastCheck)

	h.Running(true)
	h.Checked(7, nil)

	status = h.Status()
	assert.True(t, status.Healthy)
	assert.Equal(t, uint64(7), status.EraKeeper.Head)
	assert.Equal(t, clock.Now(), *status.EraKeeper.LastCheck)
}

func TestHealth_Stalled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	h := New(clock, 10*time.Second)
	h.Running(true)
	h.Checked(1, nil)

	clock.Advance(20 * time.Second)
	assert.True(t, h.Status().Healthy)

	clock.Advance(time.Second)
	assert.False(t, h.Status().Healthy)

	h.Checked(1, nil)
	assert.True(t, h.Status().Healthy)

	h.Running(false)
	assert.False(t, h.Status().Healthy)
}

func TestHealth_Error(t *testing.T) {
	h := New(clockwork.NewFakeClock(), time.Second)
	h.Running(true)

	h.Checked(3, errors.New("disk full"))
	status := h.Status()
	assert.False(t, status.Healthy)
	assert.Equal(t, "disk full", status.EraKeeper.LastError)

	h.Checked(3, nil)
	assert.True(t, h.Status().Healthy)
	assert.Empty(t, h.Status().EraKeeper.LastError)
}
