// File: actor/mailbox.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Mailbox serializes execution of closures submitted to one Actor. At most
// one worker ever executes a given Mailbox's closures at a time, and they
// always run in the order they were enqueued. This is the concurrency
// substrate the BMP protocol engine (the Connection/BMPIO actor) is built
// on, so that protocol state never needs an explicit lock: only the
// Mailbox's own closures ever touch it, and they never overlap.

package actor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/petermattis/goid"
	"github.com/rs/zerolog/log"
)

// Actor is anything with exclusive state reachable only through a Mailbox.
// ActorName is used purely for diagnostics (logging, stats dumps).
type Actor interface {
	ActorName() string
}

var currentActors sync.Map // goroutine id (int64) -> Actor

// Current returns the Actor whose closure is executing on the calling
// goroutine, or nil if the caller is not running inside a Mailbox.
func Current() Actor {
	if v, ok := currentActors.Load(goid.Get()); ok {
		return v.(Actor)
	}
	return nil
}

// AssertCurrent panics if the calling goroutine is not currently executing a
// closure belonging to a. Protocol code uses this at boundaries to assert
// "I am on the BMPIO actor".
func AssertCurrent(a Actor) {
	if Current() != a {
		panic("actor: expected to run on " + a.ActorName() + "'s mailbox")
	}
}

// Stats holds optional per-mailbox diagnostics, updated only when enabled.
type Stats struct {
	MaxQueueDepth int64
	MaxLatency    time.Duration
	BusyTime      time.Duration
}

// mailboxProxy is a small ref-counted forwarder that lets a Timer safely
// reference a Mailbox that may be destroyed before the timer fires. The
// proxy's link to the mailbox is cleared by the Mailbox's Close, so a late
// timer firing after the actor's death becomes a no-op instead of touching
// freed state.
type mailboxProxy struct {
	mu sync.Mutex
	mb *Mailbox
}

func (p *mailboxProxy) detach() {
	p.mu.Lock()
	p.mb = nil
	p.mu.Unlock()
}

func (p *mailboxProxy) enqueue(f func()) {
	p.mu.Lock()
	mb := p.mb
	p.mu.Unlock()
	if mb != nil {
		mb.Enqueue(f)
	}
}

// Mailbox is a per-actor FIFO of closures plus the bookkeeping needed to
// hand it to a Scheduler exactly once per empty-to-non-empty transition.
type Mailbox struct {
	actor     Actor
	scheduler *Scheduler
	queue     *Channel[func()]
	executing atomic.Bool

	statsEnabled bool
	statsMu      sync.Mutex
	stats        Stats

	proxyMu sync.Mutex
	proxy   *mailboxProxy

	closed atomic.Bool
}

// NewMailbox creates a Mailbox bound to actor and dispatched by scheduler.
// If scheduler is nil, Default() is used.
func NewMailbox(a Actor, scheduler *Scheduler) *Mailbox {
	if scheduler == nil {
		scheduler = Default()
	}
	return &Mailbox{
		actor:     a,
		scheduler: scheduler,
		queue:     NewChannel[func()](),
	}
}

// EnableStats turns on queue-depth/latency/busy-time tracking. Disabled by
// default because it adds a timestamp capture to every Enqueue.
func (m *Mailbox) EnableStats(enabled bool) {
	m.statsMu.Lock()
	m.statsEnabled = enabled
	m.statsMu.Unlock()
}

// Stats returns a snapshot of accumulated statistics.
func (m *Mailbox) Stats() Stats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.stats
}

// Enqueue appends f to the Mailbox's FIFO. When the push takes the queue
// from empty to non-empty, the Mailbox is submitted to the Scheduler's
// ready channel; otherwise a worker already executing (or about to
// execute) this Mailbox will pick f up when it drains the queue. The
// submission happens even while a worker is running one of this Mailbox's
// closures, so the Mailbox can sit in the ready channel more than once;
// performNextMessage skips a copy picked up while the Mailbox is running.
func (m *Mailbox) Enqueue(f func()) {
	if m.closed.Load() {
		return
	}
	m.statsMu.Lock()
	enabled := m.statsEnabled
	depth := m.queue.Len() + 1
	if enabled && int64(depth) > m.stats.MaxQueueDepth {
		m.stats.MaxQueueDepth = int64(depth)
	}
	m.statsMu.Unlock()

	if m.queue.Push(f) {
		m.scheduler.submit(m)
	}
}

// EnqueueAfter behaves like Enqueue, but delays submission by delay. If
// delay <= 0 it is identical to Enqueue. Otherwise it arms a Timer that
// forwards through a weak mailboxProxy, so the closure is silently dropped
// if this Mailbox is closed before the timer fires.
func (m *Mailbox) EnqueueAfter(delay time.Duration, f func()) {
	if delay <= 0 {
		m.Enqueue(f)
		return
	}
	m.proxyMu.Lock()
	if m.proxy == nil {
		m.proxy = &mailboxProxy{mb: m}
	}
	proxy := m.proxy
	m.proxyMu.Unlock()

	t := NewTimer(func() { proxy.enqueue(f) })
	t.AutoDelete()
	t.FireAfter(delay)
}

// performNextMessage pops and runs exactly one closure, then resubmits this
// Mailbox to the Scheduler if more work remains. This deliberate yield —
// running one closure and returning to the scheduler even when the queue is
// non-empty — is what gives mailboxes fair, round-robin-ish access to the
// shared worker pool instead of one busy actor starving the others. If
// another worker is already running this Mailbox it returns at once; that
// worker resubmits the Mailbox when it finishes if work remains.
func (m *Mailbox) performNextMessage() {
	if !m.executing.CompareAndSwap(false, true) {
		return
	}
	f, ok := m.queue.TryPop()
	if !ok {
		m.executing.Store(false)
		if m.queue.Len() > 0 {
			m.scheduler.submit(m)
		}
		return
	}

	gid := goid.Get()
	currentActors.Store(gid, m.actor)

	var started time.Time
	m.statsMu.Lock()
	enabled := m.statsEnabled
	m.statsMu.Unlock()
	if enabled {
		started = time.Now()
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("actor", m.actor.ActorName()).
					Interface("panic", r).
					Msg("actor: closure panicked, mailbox continues")
			}
		}()
		f()
	}()

	if enabled {
		elapsed := time.Since(started)
		m.statsMu.Lock()
		m.stats.BusyTime += elapsed
		if elapsed > m.stats.MaxLatency {
			m.stats.MaxLatency = elapsed
		}
		m.statsMu.Unlock()
	}

	currentActors.Delete(gid)
	m.executing.Store(false)

	if m.queue.Len() > 0 {
		m.scheduler.submit(m)
	}
}

// Close detaches any armed-timer proxy and closes the internal queue. Further
// Enqueue calls are no-ops. Closures already queued are not discarded: they
// still run, one at a time and in order, as on an open Mailbox.
func (m *Mailbox) Close() {
	if !m.closed.CompareAndSwap(false, true) {
		return
	}
	m.proxyMu.Lock()
	if m.proxy != nil {
		m.proxy.detach()
	}
	m.proxyMu.Unlock()
	m.queue.Close()
}
