// File: message/builder.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Builder provides ergonomic construction of outbound messages: a property
// list plus a body appended in one or more chunks. Finalize serializes the
// properties (§3) and concatenates them with the body to produce the byte
// sequence a MessageOut transmits frame by frame.

package message

import "github.com/momentics/bmp/wire"

// Builder accumulates properties and body bytes for one outbound message.
type Builder struct {
	props    []wire.Property
	body     []byte
	urgent   bool
	noReply  bool
	compress bool
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddProperty appends one (name, value) pair, preserving insertion order.
func (b *Builder) AddProperty(name, value string) *Builder {
	b.props = append(b.props, wire.Property{Name: name, Value: value})
	return b
}

// AppendBody appends chunk to the body. May be called repeatedly to build
// up a large body incrementally without a single huge allocation up front.
func (b *Builder) AppendBody(chunk []byte) *Builder {
	b.body = append(b.body, chunk...)
	return b
}

// SetBody replaces the body wholesale.
func (b *Builder) SetBody(body []byte) *Builder {
	b.body = body
	return b
}

// Urgent marks the eventual MessageOut for priority in the outbound
// fairness policy.
func (b *Builder) Urgent(v bool) *Builder {
	b.urgent = v
	return b
}

// NoReply declares that the sender will not accept a response for this
// request; only meaningful for requests.
func (b *Builder) NoReply(v bool) *Builder {
	b.noReply = v
	return b
}

// Compressed requests that the frame codec deflate this message's payload.
func (b *Builder) Compressed(v bool) *Builder {
	b.compress = v
	return b
}

// IsUrgent, IsNoReply, IsCompressed report the flags set on this Builder.
func (b *Builder) IsUrgent() bool     { return b.urgent }
func (b *Builder) IsNoReply() bool    { return b.noReply }
func (b *Builder) IsCompressed() bool { return b.compress }

// Properties returns the accumulated property list in insertion order.
func (b *Builder) Properties() []wire.Property { return b.props }

// finalizePayload serializes properties followed by the body — the exact
// byte sequence a MessageOut transmits across one or more frames.
func (b *Builder) finalizePayload() []byte {
	payload := wire.EncodeProperties(nil, b.props)
	return append(payload, b.body...)
}
