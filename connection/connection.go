// File: connection/connection.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Connection is the BMPIO actor (§5): one per duplex Transport, driving a
// dedicated reader goroutine and an actor.Mailbox that serializes every
// other state transition — frame dispatch, outbound writes, and delegate
// callbacks — onto a single logical thread of execution, generalizing the
// teacher's core/concurrency executor pattern to the wire protocol here.

package connection

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/momentics/bmp/actor"
	"github.com/momentics/bmp/bufpool"
	"github.com/momentics/bmp/control"
	"github.com/momentics/bmp/message"
	"github.com/momentics/bmp/wire"
	"github.com/rs/zerolog/log"
)

// State is a Connection's lifecycle stage.
type State int32

const (
	StateUnopened State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

const defaultMaxFramePayload = 16 * 1024

// Option configures a Connection at construction time.
type Option func(*Connection)

// WithMaxFramePayload sets the maximum payload bytes per outbound frame.
func WithMaxFramePayload(n int) Option {
	return func(c *Connection) { c.maxFramePayload = n }
}

// WithCompression enables per-direction DEFLATE framing (§4.5).
func WithCompression(enabled bool) Option {
	return func(c *Connection) { c.compressionEnabled = enabled }
}

// WithName overrides the Connection's actor name, used in logs.
func WithName(name string) Option {
	return func(c *Connection) { c.name = name }
}

// WithScheduler overrides the actor.Scheduler the Connection's mailbox
// runs on; defaults to actor.Default().
func WithScheduler(s *actor.Scheduler) Option {
	return func(c *Connection) { c.scheduler = s }
}

// WithCounters attaches a control.ConnectionCounters this Connection keeps
// updated with frame/byte traffic, for export via control.RegisterConnection.
func WithCounters(counters *control.ConnectionCounters) Option {
	return func(c *Connection) { c.counters = counters }
}

// WithBufferPool overrides the bufpool.Pool used to allocate outbound frame
// buffers; defaults to bufpool.Default().
func WithBufferPool(p *bufpool.Pool) Option {
	return func(c *Connection) { c.bufPool = p }
}

// Connection is one BMP peer connection: frame multiplexing, request/
// response correlation, and delegate dispatch, all serialized through a
// single actor.Mailbox.
type Connection struct {
	name      string
	transport Transport
	delegate  Delegate
	scheduler *actor.Scheduler
	mailbox   *actor.Mailbox

	maxFramePayload    int
	compressionEnabled bool
	deflater           *wire.Deflater
	inflater           *wire.Inflater

	mu       sync.Mutex // guards state/closeErr for outside-actor reads (State, LastError)
	state    State
	closeErr error

	nextNumber uint64
	out        outQueue
	pumping    bool
	pending    map[uint64]*message.Out
	incomplete map[uint64]*message.In

	counters *control.ConnectionCounters
	bufPool  *bufpool.Pool

	readerDone chan struct{}
}

// New creates a Connection over transport, dispatching to delegate. The
// connection does not start reading or sending until Open is called.
func New(transport Transport, delegate Delegate, opts ...Option) *Connection {
	c := &Connection{
		transport:       transport,
		delegate:        delegate,
		scheduler:       actor.Default(),
		maxFramePayload: defaultMaxFramePayload,
		nextNumber:      1, // §3: message numbers are unsigned integers >= 1
		pending:         make(map[uint64]*message.Out),
		incomplete:      make(map[uint64]*message.In),
		bufPool:         bufpool.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.name == "" {
		c.name = fmt.Sprintf("bmp.Connection(%p)", c)
	}
	c.mailbox = actor.NewMailbox(c, c.scheduler)
	if c.compressionEnabled {
		d, err := wire.NewDeflater(-1)
		if err != nil {
			// flate.NewWriter only fails for an out-of-range level, and -1
			// (DefaultCompression) is always valid.
			panic(fmt.Sprintf("bmp: NewDeflater: %v", err))
		}
		c.deflater = d
		c.inflater = wire.NewInflater()
	}
	return c
}

// ActorName implements actor.Actor.
func (c *Connection) ActorName() string { return c.name }

// State returns the connection's current lifecycle stage.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Open transitions the connection to Open, invokes the delegate's
// OnConnect, and starts the reader goroutine. Open must be called exactly
// once.
func (c *Connection) Open() {
	c.setState(StateOpen)
	c.readerDone = make(chan struct{})
	go c.readLoop()
	c.mailbox.Enqueue(func() {
		c.delegate.OnConnect(c)
	})
}

func (c *Connection) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Connection) readLoop() {
	defer close(c.readerDone)
	for {
		frame, err := c.transport.Recv()
		if err != nil {
			c.mailbox.Enqueue(func() { c.handleTransportEOF(err) })
			return
		}
		f := frame
		c.mailbox.Enqueue(func() { c.handleFrame(f) })
	}
}

func (c *Connection) handleTransportEOF(err error) {
	if c.State() == StateClosed {
		return
	}
	if errors.Is(err, io.EOF) {
		c.closeInternal(nil)
		return
	}
	c.closeInternal(&TransportError{Cause: err})
}

func (c *Connection) failProtocol(reason string) {
	log.Warn().Str("connection", c.name).Str("reason", reason).Msg("bmp protocol error")
	c.closeInternal(&ProtocolError{Reason: reason})
}

// handleFrame decodes and dispatches one inbound frame. Runs on the
// mailbox.
func (c *Connection) handleFrame(raw []byte) {
	if c.State() == StateClosed {
		return
	}
	if c.counters != nil {
		c.counters.AddReceived(1, len(raw))
	}
	hdr, err := wire.DecodeHeader(raw)
	if err != nil {
		c.failProtocol("malformed frame header: " + err.Error())
		return
	}
	payload := hdr.Payload
	if hdr.Flags.Compressed() {
		if c.inflater == nil {
			c.failProtocol("compressed frame received with compression disabled")
			return
		}
		payload, err = c.inflater.Decompress(payload)
		if err != nil {
			c.failProtocol("inflate: " + err.Error())
			return
		}
	}

	switch hdr.Flags.Type() {
	case wire.TypeAckRequest, wire.TypeAckResponse:
		return
	}

	final := !hdr.Flags.MoreComing()
	in, existed := c.incomplete[hdr.Number]
	if !existed {
		in = message.NewIn(hdr.Number, hdr.Flags)
		if !final {
			c.incomplete[hdr.Number] = in
		}
	}
	if mismatch := in.AppendFrame(hdr.Flags, payload, final); mismatch {
		c.failProtocol("continuation frame type disagrees with first frame")
		return
	}
	if !final {
		return
	}
	delete(c.incomplete, hdr.Number)
	c.dispatchComplete(in)
}

func (c *Connection) dispatchComplete(in *message.In) {
	switch in.Type() {
	case wire.TypeRequest:
		c.handleRequest(in)
	case wire.TypeResponse, wire.TypeError:
		c.handleReply(in)
	}
}

func (c *Connection) handleRequest(in *message.In) {
	if !in.NoReply() {
		in.SetResponder(func(b *message.Builder) error {
			return c.enqueueOut(message.NewResponse(in, b))
		})
		in.SetErrorResponder(func(domain, code, msg string) error {
			return c.enqueueOut(message.NewErrorResponse(in, domain, code, msg))
		})
	}
	c.delegate.OnRequestReceived(c, in)
	if !in.NoReply() && !in.Responded() {
		_ = c.enqueueOut(message.NewResponse(in, message.NewBuilder()))
	}
}

func (c *Connection) handleReply(in *message.In) {
	out, ok := c.pending[in.Number()]
	if !ok {
		c.delegate.OnResponseReceived(c, in)
		return
	}
	delete(c.pending, in.Number())
	handler := out.OnResponse()
	if handler == nil {
		return
	}
	if in.Type() == wire.TypeError {
		handler(nil, applicationErrorFrom(in))
		return
	}
	handler(in, nil)
}

func applicationErrorFrom(in *message.In) error {
	props, _ := in.Properties()
	body, _ := in.Body()
	appErr := &ApplicationError{Message: string(body)}
	for _, p := range props {
		switch p.Name {
		case "Error-Domain":
			appErr.Domain = p.Value
		case "Error-Code":
			appErr.Code = p.Value
		}
	}
	return appErr
}

// SendRequest builds and queues a Request; onResponse is invoked exactly
// once (unless the builder is NoReply) when a matching Response/Error
// arrives, or with CancelledByClose if the connection closes first.
// Message-number assignment happens inside the enqueued closure, on the
// mailbox, alongside every other mutation of connection state (§4.7) —
// nextNumber is never touched off the actor, so it needs no lock of its
// own.
func (c *Connection) SendRequest(b *message.Builder, onResponse message.ResponseHandler) {
	c.mailbox.Enqueue(func() {
		number := c.nextNumber
		c.nextNumber++
		out := message.NewRequest(number, b, onResponse)
		_ = c.enqueueOut(out)
	})
}

// enqueueOut registers out (if it awaits a response) and schedules the
// writer pump. Must run on the mailbox.
func (c *Connection) enqueueOut(out *message.Out) error {
	if c.State() == StateClosed {
		return errors.New("bmp: connection closed")
	}
	if out.Type() == wire.TypeRequest && out.OnResponse() != nil {
		c.pending[out.Number()] = out
	}
	c.out.add(out)
	if !c.pumping {
		c.pumping = true
		c.pumpWriter()
	}
	return nil
}

// pumpWriter writes exactly one frame from the Out the fairness policy
// picks next, then — if any Out remains active — reschedules itself as a
// fresh mailbox closure instead of looping in place. That yield is what
// makes the fairness policy actually interleave: any SendRequest enqueued
// while a large message is mid-transmission runs its own enqueueOut
// closure between this frame and the next, so its Out joins the active
// set before the following frame is chosen (§4.7). Runs on the mailbox,
// so it is the only writer for this connection's transport.
func (c *Connection) pumpWriter() {
	out := c.out.next()
	if out == nil {
		c.pumping = false
		return
	}
	chunk, flags := out.NextFrame(c.maxFramePayload)
	var payload []byte
	if c.deflater != nil && flags.Compressed() && len(chunk) > 0 {
		compressed, err := c.deflater.Compress(chunk)
		if err != nil {
			log.Error().Str("connection", c.name).Err(err).Msg("bmp: deflate failed")
			flags &^= wire.FlagCompressed
		} else {
			payload = compressed
		}
	} else {
		flags &^= wire.FlagCompressed
	}
	if payload == nil {
		payload = chunk
	}

	frameCap := wire.HeaderSize(out.Number(), flags) + len(payload)
	frame := wire.EncodeHeader(c.bufPool.GetCap(frameCap), out.Number(), flags)
	frame = append(frame, payload...)

	err := c.transport.Send(frame)
	frameLen := len(frame)
	c.bufPool.Put(frame)
	if err != nil {
		c.pumping = false
		c.closeInternal(&TransportError{Cause: err})
		return
	}
	if c.counters != nil {
		c.counters.AddSent(1, frameLen)
	}
	if !out.Done() {
		c.out.add(out)
	}

	c.mailbox.Enqueue(c.pumpWriter)
}

// Close begins an orderly shutdown: no further frames are accepted, the
// transport is closed, and any still-pending response handlers are
// invoked with CancelledByClose.
func (c *Connection) Close() {
	c.mailbox.Enqueue(func() {
		c.closeInternal(nil)
	})
}

func (c *Connection) closeInternal(reason error) {
	if c.State() == StateClosed {
		return
	}
	c.setState(StateClosing)
	_ = c.transport.Close()

	for number, out := range c.pending {
		delete(c.pending, number)
		if h := out.OnResponse(); h != nil {
			h(nil, CancelledByClose)
		}
	}

	c.mu.Lock()
	c.closeErr = reason
	c.state = StateClosed
	c.mu.Unlock()

	c.mailbox.Close()
	c.delegate.OnClose(c, reason)
}

// LastError returns the reason the connection closed, or nil for a clean
// close (or if it has not closed yet).
func (c *Connection) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeErr
}
