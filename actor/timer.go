// File: actor/timer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Timer is a single-shot scheduled callback built on time.Timer. Its
// contract is deliberately narrow: the closure runs once, no earlier than
// now+duration, or not at all if cancelled first.

package actor

import (
	"sync"
	"time"
)

// Timer arms a closure to run once after a delay.
type Timer struct {
	mu         sync.Mutex
	fn         func()
	t          *time.Timer
	fired      bool
	cancelled  bool
	autoDelete bool
}

// NewTimer creates an unarmed Timer wrapping fn. Call FireAfter to arm it.
func NewTimer(fn func()) *Timer {
	return &Timer{fn: fn}
}

// AutoDelete marks the Timer to release its reference to fn once it has
// either fired or been cancelled, so it doesn't keep captured state (e.g. a
// mailboxProxy) alive any longer than necessary.
func (t *Timer) AutoDelete() {
	t.mu.Lock()
	t.autoDelete = true
	t.mu.Unlock()
}

// FireAfter arms the timer to run its closure after delay.
func (t *Timer) FireAfter(delay time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled || t.t != nil {
		return
	}
	t.t = time.AfterFunc(delay, t.run)
}

func (t *Timer) run() {
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		return
	}
	t.fired = true
	fn := t.fn
	if t.autoDelete {
		t.fn = nil
	}
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Cancel disarms the timer if it has not yet fired. Returns true if the
// cancellation prevented a pending fire.
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired || t.cancelled {
		return false
	}
	t.cancelled = true
	if t.autoDelete {
		t.fn = nil
	}
	if t.t != nil {
		return t.t.Stop()
	}
	return true
}
