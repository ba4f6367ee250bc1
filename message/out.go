// File: message/out.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Out is an in-flight outbound message: a finalized Builder's serialized
// bytes plus the transmission state (cursor, assigned number, priority,
// response handler) the Connection actor advances frame by frame. Out is
// owned exclusively by the Connection actor once enqueued (§3 "MessageOut");
// nothing outside the actor's mailbox closures should touch its mutable
// fields, which is why all mutation happens through methods called only
// from Connection's writer loop.

package message

import "github.com/momentics/bmp/wire"

// ResponseHandler is invoked exactly once per non-noReply request: with a
// completed Response In and a nil err, or with a nil In and err set to an
// ApplicationError (built from an Error message) or CancelledByClose.
type ResponseHandler func(in *In, err error)

// Out is one outbound BMP message, mid-transmission or queued to start.
type Out struct {
	number  uint64
	flags   wire.Flags // base flags; MoreComing is computed per frame
	payload []byte
	cursor  int

	sentFrames int
	onResponse ResponseHandler
}

func newOut(number uint64, msgType wire.MessageType, b *Builder, onResponse ResponseHandler) *Out {
	flags := wire.Flags(0).WithType(msgType)
	if b.IsUrgent() {
		flags |= wire.FlagUrgent
	}
	if b.IsNoReply() {
		flags |= wire.FlagNoReply
	}
	if b.IsCompressed() {
		flags |= wire.FlagCompressed
	}
	return &Out{
		number:     number,
		flags:      flags,
		payload:    b.finalizePayload(),
		onResponse: onResponse,
	}
}

// NewRequest builds an outbound Request message. onResponse is nil when the
// builder is marked NoReply; the Connection must not register a
// pending-response entry for such a message.
func NewRequest(number uint64, b *Builder, onResponse ResponseHandler) *Out {
	if b.IsNoReply() {
		onResponse = nil
	}
	return newOut(number, wire.TypeRequest, b, onResponse)
}

// NewResponse builds a Response sharing the given request's message number,
// per §4.6 ("a response builder is constructed from an incoming request so
// that it inherits the request's number").
func NewResponse(req *In, b *Builder) *Out {
	return newOut(req.Number(), wire.TypeResponse, b, nil)
}

// NewErrorResponse builds an Error message answering req, carrying the
// error domain/code as properties and msg as the body, per §7
// (ApplicationError is "carried in an inbound Error message").
func NewErrorResponse(req *In, domain, code, msg string) *Out {
	b := NewBuilder().
		AddProperty("Error-Domain", domain).
		AddProperty("Error-Code", code).
		SetBody([]byte(msg))
	return newOut(req.Number(), wire.TypeError, b, nil)
}

// NewAck builds an empty Ack frame's message (AckRequest or AckResponse)
// matching the number of the message being acknowledged. Acks carry no
// body and impose no protocol obligation (§4.7 step 4).
func NewAck(number uint64, ofResponse bool) *Out {
	t := wire.TypeAckRequest
	if ofResponse {
		t = wire.TypeAckResponse
	}
	return newOut(number, t, NewBuilder(), nil)
}

// Number returns the sender-assigned message number.
func (o *Out) Number() uint64 { return o.number }

// Type returns the message's frame type.
func (o *Out) Type() wire.MessageType { return o.flags.Type() }

// Urgent reports whether this message is in the urgent priority class.
func (o *Out) Urgent() bool { return o.flags.Urgent() }

// NoReply reports whether no response is expected for this request.
func (o *Out) NoReply() bool { return o.flags.NoReply() }

// OnResponse returns the registered response handler, or nil.
func (o *Out) OnResponse() ResponseHandler { return o.onResponse }

// SentFrames returns how many frames of this message have been written so
// far — the fairness policy's ordering key within a priority class, with
// ties broken by message number (§4.7 step 2).
func (o *Out) SentFrames() int { return o.sentFrames }

// Done reports whether every payload byte has been handed to NextFrame.
func (o *Out) Done() bool { return o.cursor >= len(o.payload) }

// NextFrame returns up to maxPayload bytes of this message's remaining
// payload, advances the cursor and frame counter, and reports whether more
// frames remain after this one (the MoreComing flag). frameFlags is the
// complete Flags value to encode for this frame (base flags plus
// MoreComing), ready to pass to wire.EncodeHeader.
func (o *Out) NextFrame(maxPayload int) (chunk []byte, frameFlags wire.Flags) {
	remaining := len(o.payload) - o.cursor
	n := remaining
	if n > maxPayload {
		n = maxPayload
	}
	chunk = o.payload[o.cursor : o.cursor+n]
	o.cursor += n
	o.sentFrames++

	flags := o.flags
	if o.cursor < len(o.payload) {
		flags |= wire.FlagMoreComing
	}
	return chunk, flags
}
