// File: transport/loopback/loopback.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pipe is an in-process connection.Transport backed by a pair of Go
// channels, generalizing fake.Transport's (fake/transport.go) controllable
// send/recv buffers to the blocking, whole-frame Transport contract
// connection.Connection drives. Used by tests instead of a real socket;
// the bmpecho CLI has no loopback mode and speaks WebSocket only.
package loopback

import (
	"errors"
	"io"
	"sync"
)

// ErrClosed is returned by Send once the local side has been closed.
var ErrClosed = errors.New("loopback: transport closed")

// Pipe is one end of an in-process duplex frame channel.
type Pipe struct {
	out  chan []byte // frames this end writes, closed by this end on Close
	in   chan []byte // frames this end reads, closed by the peer on Close

	closeOnce sync.Once
	closed    chan struct{}
}

// NewPair returns two connected Pipes: frames sent on a arrive on b, and
// vice versa.
func NewPair() (a, b *Pipe) {
	c1 := make(chan []byte, 64)
	c2 := make(chan []byte, 64)
	a = &Pipe{out: c1, in: c2, closed: make(chan struct{})}
	b = &Pipe{out: c2, in: c1, closed: make(chan struct{})}
	return a, b
}

// Send implements connection.Transport.
func (p *Pipe) Send(frame []byte) error {
	select {
	case <-p.closed:
		return ErrClosed
	default:
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	select {
	case p.out <- cp:
		return nil
	case <-p.closed:
		return ErrClosed
	}
}

// Recv implements connection.Transport.
func (p *Pipe) Recv() ([]byte, error) {
	select {
	case f, ok := <-p.in:
		if !ok {
			return nil, io.EOF
		}
		return f, nil
	case <-p.closed:
		return nil, io.EOF
	}
}

// Close implements connection.Transport. Closing this end closes its
// write channel, which surfaces as io.EOF from the peer's next Recv.
func (p *Pipe) Close() error {
	p.closeOnce.Do(func() {
		close(p.closed)
		close(p.out)
	})
	return nil
}
