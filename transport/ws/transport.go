// File: transport/ws/transport.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Conn adapts a net.Conn that has already completed the WebSocket
// handshake (via Accept server-side, or DialClient client-side, both in
// handshake.go) into the connection.Transport one-frame-per-call contract,
// generalizing the teacher's protocol.WSConnection (protocol/connection.go)
// from its inbox/outbox channel-pump design to the simpler synchronous
// Send/Recv loopback.Pipe already models.

package ws

import (
	"bufio"
	"io"
	"net"
	"sync"
)

// Conn is a connection.Transport backed by a live net.Conn speaking the
// WebSocket binary-frame subset BMP rides on.
type Conn struct {
	nc       net.Conn
	r        *bufio.Reader
	isClient bool // clients must mask outbound frames per RFC 6455 §5.1

	writeMu sync.Mutex
	closed  bool
}

// NewConn wraps an already-upgraded net.Conn. isClient selects whether
// outbound frames are masked.
func NewConn(nc net.Conn, isClient bool) *Conn {
	return &Conn{nc: nc, r: bufio.NewReader(nc), isClient: isClient}
}

// Send implements connection.Transport: writes one BMP frame as a single
// unfragmented binary WebSocket message.
func (c *Conn) Send(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return io.ErrClosedPipe
	}
	return writeFrame(c.nc, OpBinary, frame, c.isClient)
}

// Recv implements connection.Transport: blocks for the next binary (or
// text) message, transparently answering pings and treating a peer Close
// frame as io.EOF. A transport read error is returned as is.
func (c *Conn) Recv() ([]byte, error) {
	for {
		f, err := readFrame(c.r)
		if err != nil {
			return nil, err
		}
		switch f.opcode {
		case OpBinary, OpText:
			return f.payload, nil
		case OpPing:
			c.writeMu.Lock()
			err := writeFrame(c.nc, OpPong, f.payload, c.isClient)
			c.writeMu.Unlock()
			if err != nil {
				return nil, err
			}
		case OpPong:
			// no action needed
		case OpClose:
			c.writeMu.Lock()
			_ = writeFrame(c.nc, OpClose, f.payload, c.isClient)
			c.closed = true
			c.writeMu.Unlock()
			return nil, io.EOF
		default:
			// unknown/reserved opcode: ignore and keep reading
		}
	}
}

// Close implements connection.Transport.
func (c *Conn) Close() error {
	c.writeMu.Lock()
	c.closed = true
	c.writeMu.Unlock()
	return c.nc.Close()
}
