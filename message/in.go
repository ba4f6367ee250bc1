// File: message/in.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// In accumulates inbound frames in arrival order. While incomplete it is
// owned exclusively by the Connection actor's inbound reader; once its
// terminal frame (MoreComing clear) arrives it becomes a read-only handle
// shared with the delegate or a response handler, and ErrAlreadyResponded
// guards the one additional piece of mutable state a Request In exposes:
// whether Respond has already been called.

package message

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/momentics/bmp/wire"
)

// ErrAlreadyResponded is returned by Respond if it has already been called
// for this request.
var ErrAlreadyResponded = errors.New("message: request already responded to")

// ErrNotARequest is returned by Respond on a non-Request In.
var ErrNotARequest = errors.New("message: Respond called on a non-request message")

type inState int32

const (
	stateReceiving inState = iota
	stateComplete
)

// In is one inbound BMP message.
type In struct {
	number     uint64
	firstFlags wire.Flags

	mu       sync.Mutex
	raw      []byte
	state    atomic.Int32
	props    []wire.Property
	propsErr error
	parsed   bool

	responded atomic.Bool
	respondFn    func(*Builder) error                 // set by Connection for Request messages only
	respondErrFn func(domain, code, msg string) error // set by Connection alongside respondFn
}

// NewIn creates an In for the first frame of a new inbound message. flags
// are the first frame's flags, which fix this message's type and noReply
// bit for its entire lifetime — continuation frames must agree (§3).
func NewIn(number uint64, flags wire.Flags) *In {
	in := &In{number: number, firstFlags: flags}
	in.state.Store(int32(stateReceiving))
	return in
}

// Number returns the sender-assigned message number.
func (in *In) Number() uint64 { return in.number }

// Type returns the message's frame type, fixed by its first frame.
func (in *In) Type() wire.MessageType { return in.firstFlags.Type() }

// NoReply reports whether the sender declared no response will be
// accepted, fixed by the first frame.
func (in *In) NoReply() bool { return in.firstFlags.NoReply() }

// AppendFrame appends one frame's payload bytes (already inflated, if that
// frame was compressed) in arrival order. typeMismatch reports a protocol
// violation: a continuation frame whose type disagrees with the first
// frame's, which the caller must treat as fatal (§3, §4.7 step 2).
func (in *In) AppendFrame(flags wire.Flags, payload []byte, final bool) (typeMismatch bool) {
	if flags.Type() != in.firstFlags.Type() {
		return true
	}
	in.mu.Lock()
	in.raw = append(in.raw, payload...)
	if final {
		in.state.Store(int32(stateComplete))
	}
	in.mu.Unlock()
	return false
}

// Complete reports whether the terminal frame has been appended.
func (in *In) Complete() bool { return inState(in.state.Load()) == stateComplete }

// Properties parses (lazily, once) the message's property section and
// returns it. It does not check Complete: a call before the terminal frame
// parses and caches only the bytes appended so far.
func (in *In) Properties() ([]wire.Property, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.parsed {
		props, _, err := wire.DecodeProperties(in.raw)
		in.props, in.propsErr = props, err
		in.parsed = true
	}
	return in.props, in.propsErr
}

// Body returns the message body following its property section. Parses
// properties first (to find the split point) if not already done.
func (in *In) Body() ([]byte, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.parsed {
		in.mu.Unlock()
		_, _ = in.Properties() // error is kept in propsErr, checked below
		in.mu.Lock()
	}
	if in.propsErr != nil {
		return nil, in.propsErr
	}
	_, n, err := wire.DecodeProperties(in.raw)
	if err != nil {
		return nil, err
	}
	return in.raw[n:], nil
}

// SetResponder installs the closure the Connection uses to actually queue
// a Response Out when Respond is called; only meaningful for Request
// messages, wired up by the Connection's inbound dispatch path.
func (in *In) SetResponder(fn func(*Builder) error) {
	in.respondFn = fn
}

// SetErrorResponder installs the closure RespondError invokes; wired
// alongside SetResponder for every Request message.
func (in *In) SetErrorResponder(fn func(domain, code, msg string) error) {
	in.respondErrFn = fn
}

// Respond queues a Response message with this request's number. After the
// first successful call, further calls return ErrAlreadyResponded. Calling
// Respond on anything but a Request, or on an In with no responder wired
// (i.e. not produced by a live Connection's dispatch path), returns
// ErrNotARequest.
func (in *In) Respond(b *Builder) error {
	if in.Type() != wire.TypeRequest {
		return ErrNotARequest
	}
	if in.respondFn == nil {
		return ErrNotARequest
	}
	if !in.responded.CompareAndSwap(false, true) {
		return ErrAlreadyResponded
	}
	return in.respondFn(b)
}

// RespondError queues an Error message answering this request instead of
// a normal Response. Subject to the same one-shot guard as Respond.
func (in *In) RespondError(domain, code, msg string) error {
	if in.Type() != wire.TypeRequest {
		return ErrNotARequest
	}
	if in.respondErrFn == nil {
		return ErrNotARequest
	}
	if !in.responded.CompareAndSwap(false, true) {
		return ErrAlreadyResponded
	}
	return in.respondErrFn(domain, code, msg)
}

// Responded reports whether Respond or RespondError has already been
// called for this message (set before the responder runs, whatever it
// returns).
func (in *In) Responded() bool { return in.responded.Load() }
