// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync"
)

// Waiter is notified once per Broadcast that happened since it last read C.
type Waiter interface {
	C() <-chan struct{}
}

// Signal wakes every waiter on Broadcast. The zero value is ready to use.
type Signal struct {
	mu sync.Mutex
	ch chan struct{}
}

func (s *Signal) current() chan struct{} {
	if s.ch == nil {
		s.ch = make(chan struct{})
	}
	return s.ch
}

// Broadcast wakes up all waiters.
func (s *Signal) Broadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()

	close(s.current())
	s.ch = make(chan struct{})
}

// NewWaiter creates a waiter that fires on the next Broadcast.
func (s *Signal) NewWaiter() Waiter {
	s.mu.Lock()
	w := &waiter{s: s, ch: s.current()}
	s.mu.Unlock()
	return w
}

type waiter struct {
	s  *Signal
	ch chan struct{}
}

// C returns the channel to wait on and rearms the waiter for the broadcast
// after it.
func (w *waiter) C() <-chan struct{} {
	ch := w.ch
	w.s.mu.Lock()
	w.ch = w.s.current()
	w.s.mu.Unlock()
	return ch
}
