// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"context"
	"sync"
)

// Waiter gives the channel to wait on for the next event. A value of true
// means Signal, a closed channel means Broadcast.
type Waiter interface {
	C() <-chan bool
}

// Signal notifies goroutines of an event through channels, so a wait can
// be combined with other cases in a select. Signal wakes a single waiter
// and is kept for the next one if nobody waits. Broadcast wakes everyone
// waiting at the time.
type Signal struct {
	mu sync.Mutex
	ch chan bool
}

// current returns the channel of the current generation.
// s.mu must be held.
func (s *Signal) current() chan bool {
	if s.ch == nil {
		s.ch = make(chan bool, 1)
	}
	return s.ch
}

// Signal wakes one goroutine waiting on s.
func (s *Signal) Signal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case s.current() <- true:
	default:
	}
}

// Broadcast wakes all goroutines waiting on s and starts a new generation.
func (s *Signal) Broadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()

	close(s.current())
	s.ch = make(chan bool, 1)
}

// NewWaiter returns a waiter bound to the current generation. Each call of
// C returns the channel of the generation the previous wake-up left it at.
func (s *Signal) NewWaiter() Waiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &waiter{s, s.current()}
}

type waiter struct {
	s  *Signal
	ch chan bool
}

func (w *waiter) C() <-chan bool {
	ch := w.ch

	w.s.mu.Lock()
	w.ch = w.s.current()
	w.s.mu.Unlock()

	return ch
}

// Wait blocks until the waiter wakes up or ctx is done.
func Wait(ctx context.Context, w Waiter) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.C():
		return nil
	}
}
