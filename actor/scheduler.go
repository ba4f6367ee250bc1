// File: actor/scheduler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Scheduler owns a fixed worker pool and a single shared Channel of ready
// Mailboxes (mailboxes with pending work not currently executing). Each
// worker repeatedly pops a Mailbox and invokes its performNextMessage,
// generalizing the teacher's concurrency.Executor worker-pool design
// (core/concurrency/executor.go) from arbitrary task funcs to actor
// mailboxes specifically.

package actor

import (
	"runtime"
	"sync"
)

// Scheduler dispatches ready Mailboxes onto a bounded pool of worker
// goroutines. Two closures enqueued on different Mailboxes may run
// concurrently on different workers; two closures on the same Mailbox never
// do (Mailbox enforces that invariant, not the Scheduler).
type Scheduler struct {
	ready   *Channel[*Mailbox]
	workers int
	wg      sync.WaitGroup
	stopped chan struct{}
}

// NewScheduler starts a Scheduler with the given number of workers. A
// workers value <= 0 uses max(runtime.NumCPU(), 2), matching the source's
// "hardware_concurrency, floor 2" rule.
func NewScheduler(workers int) *Scheduler {
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers < 2 {
			workers = 2
		}
	}
	s := &Scheduler{
		ready:   NewChannel[*Mailbox](),
		workers: workers,
		stopped: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.work()
	}
	return s
}

func (s *Scheduler) work() {
	defer s.wg.Done()
	for {
		mb, ok := s.ready.Pop()
		if !ok {
			return
		}
		mb.performNextMessage()
	}
}

// submit hands mb to the ready channel for pickup by some worker. Called by
// Mailbox.Enqueue on the queue's empty-to-non-empty transition and by
// performNextMessage when work remains, so a mailbox may be queued more
// than once; performNextMessage skips a copy whose mailbox is running.
func (s *Scheduler) submit(mb *Mailbox) {
	s.ready.Push(mb)
}

// NumWorkers reports the size of the worker pool.
func (s *Scheduler) NumWorkers() int {
	return s.workers
}

// Stop closes the ready channel and waits for all workers to drain and
// exit. Mailboxes with pending work that have not yet been submitted are
// abandoned; callers should quiesce actors before stopping their scheduler.
func (s *Scheduler) Stop() {
	s.ready.Close()
	s.wg.Wait()
}

var (
	defaultOnce sync.Once
	defaultSch  *Scheduler
)

// Default returns a process-wide shared Scheduler, created lazily on first
// use. The source has a single global scheduler; BMP prefers passing an
// explicit *Scheduler into actor constructors (so tests can run isolated
// pools), but keeps this accessor for ergonomics when a caller doesn't care.
func Default() *Scheduler {
	defaultOnce.Do(func() {
		defaultSch = NewScheduler(0)
	})
	return defaultSch
}
