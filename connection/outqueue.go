// File: connection/outqueue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// outQueue holds every Out currently mid-transmission or waiting to start
// and implements the fairness policy (§4.7 step 2): urgent messages are
// drained before any normal-priority one, and within a priority class the
// message with the fewest frames sent so far goes next, so a single large
// message cannot starve its siblings out of interleaving.

package connection

import "github.com/momentics/bmp/message"

type outQueue struct {
	active []*message.Out
}

func (q *outQueue) add(o *message.Out) {
	q.active = append(q.active, o)
}

func (q *outQueue) empty() bool { return len(q.active) == 0 }

// next picks the next Out to write a frame from, per the fairness policy,
// and removes it from the active set — the caller re-adds it via add if
// it still has more frames after the write.
func (q *outQueue) next() *message.Out {
	if len(q.active) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(q.active); i++ {
		if takesPriority(q.active[i], q.active[best]) {
			best = i
		}
	}
	o := q.active[best]
	q.active = append(q.active[:best], q.active[best+1:]...)
	return o
}

// takesPriority reports whether a should be written before b under the
// fairness policy (§4.7 step 2): urgent messages precede non-urgent ones;
// within a priority class, fewest frames sent so far goes next; ties are
// broken by lowest message number, per the spec's "round-robin tie-break
// by lowest number" — not by insertion order, which would let the order
// messages happened to be enqueued in leak into the wire schedule.
func takesPriority(a, b *message.Out) bool {
	if a.Urgent() != b.Urgent() {
		return a.Urgent()
	}
	if a.SentFrames() != b.SentFrames() {
		return a.SentFrames() < b.SentFrames()
	}
	return a.Number() < b.Number()
}
