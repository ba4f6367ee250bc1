// File: wire/frame.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Wire frame header codec: varint(message_number) | varint(flags) |
// payload_bytes. Frame boundaries are inherited from the transport — one
// transport message is exactly one frame — so this codec never searches for
// delimiters, only decodes the header prefix of an already-delimited
// buffer. Generalized from the teacher's protocol/frame_codec.go, which
// does the analogous job for raw WebSocket frames (FIN/opcode/mask/length)
// rather than BMP's varint header.

package wire

import (
	"errors"
	"fmt"
)

// MessageType occupies the low 3 bits of the flags varint (§3).
type MessageType uint8

const (
	TypeRequest MessageType = iota
	TypeResponse
	TypeError
	TypeAckRequest
	TypeAckResponse
)

func (t MessageType) String() string {
	switch t {
	case TypeRequest:
		return "Request"
	case TypeResponse:
		return "Response"
	case TypeError:
		return "Error"
	case TypeAckRequest:
		return "AckRequest"
	case TypeAckResponse:
		return "AckResponse"
	default:
		return fmt.Sprintf("MessageType(%d)", uint8(t))
	}
}

// Flags is the per-frame bitset carried in the header's flags varint.
type Flags uint64

const (
	flagTypeMask   Flags = 0x7 // bits 0-2
	FlagCompressed Flags = 1 << 3
	FlagUrgent     Flags = 1 << 4
	FlagNoReply    Flags = 1 << 5
	FlagMoreComing Flags = 1 << 6
)

// Type extracts the MessageType from the flags bitset.
func (f Flags) Type() MessageType { return MessageType(f & flagTypeMask) }

// WithType returns f with its type bits replaced by t.
func (f Flags) WithType(t MessageType) Flags {
	return (f &^ flagTypeMask) | Flags(t)&flagTypeMask
}

func (f Flags) Compressed() bool  { return f&FlagCompressed != 0 }
func (f Flags) Urgent() bool      { return f&FlagUrgent != 0 }
func (f Flags) NoReply() bool     { return f&FlagNoReply != 0 }
func (f Flags) MoreComing() bool  { return f&FlagMoreComing != 0 }

// ErrFrameTooShort is returned when a buffer doesn't contain a full header.
var ErrFrameTooShort = errors.New("wire: frame too short")

// Header is a decoded frame header (number, flags) plus the remaining raw
// payload bytes of the buffer it was decoded from. Payload is possibly
// still deflate-compressed; the caller (the Connection actor, which owns
// per-direction compressor state) is responsible for inflating it when
// Flags.Compressed() is set.
type Header struct {
	Number  uint64
	Flags   Flags
	Payload []byte
}

// EncodeHeader appends the wire header for (number, flags) to dst. The
// caller appends payload bytes after calling this.
func EncodeHeader(dst []byte, number uint64, flags Flags) []byte {
	dst = AppendVarint(dst, number)
	dst = AppendVarint(dst, uint64(flags))
	return dst
}

// HeaderSize returns the encoded size of the header for (number, flags),
// without any payload.
func HeaderSize(number uint64, flags Flags) int {
	return SizeVarint(number) + SizeVarint(uint64(flags))
}

// DecodeHeader parses (number, flags) from the start of raw and returns a
// Header whose Payload aliases the remainder of raw (no copy).
func DecodeHeader(raw []byte) (Header, error) {
	number, n1, err := GetVarint(raw)
	if err != nil {
		return Header{}, fmt.Errorf("wire: decode message number: %w", err)
	}
	flagsVal, n2, err := GetVarint(raw[n1:])
	if err != nil {
		return Header{}, fmt.Errorf("wire: decode flags: %w", err)
	}
	return Header{
		Number:  number,
		Flags:   Flags(flagsVal),
		Payload: raw[n1+n2:],
	}, nil
}
