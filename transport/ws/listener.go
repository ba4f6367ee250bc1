// File: transport/ws/listener.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ListenerConfig/Serve generalize the teacher's transport/tcp/listener.go
// accept loop — optional CPU-pinning of the accept goroutine, one
// goroutine per inbound connection — from its ad hoc inline handshake to
// this package's Accept, handing a fully handshaken *Conn to ConnHandler
// instead of a raw net.Conn.

package ws

import (
	"fmt"
	"net"
	"os"
)

// ListenerConfig configures Serve.
type ListenerConfig struct {
	Addr string // TCP address to bind, e.g. ":8931"

	// AffinityCPU, if >= 0, pins the accept loop's OS thread to that CPU
	// (Linux only; a no-op elsewhere), matching the teacher's
	// single-accept-thread pinning strategy for high connection-rate
	// servers where handshake CPU cost matters.
	AffinityCPU int

	// ConnHandler receives each successfully handshaken connection. It is
	// invoked in its own goroutine, independent of the accept loop.
	ConnHandler func(*Conn)
}

// Serve opens cfg.Addr, accepts connections, performs the WebSocket
// handshake on each, and dispatches to cfg.ConnHandler. It blocks until
// the listener errors (including from an external Close).
func Serve(cfg ListenerConfig) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("ws: listen: %w", err)
	}
	defer ln.Close()

	if cfg.AffinityCPU >= 0 {
		setCPUAffinity(cfg.AffinityCPU)
	}

	for {
		nc, err := ln.Accept()
		if err != nil {
			return err
		}
		go func() {
			c, err := Accept(nc)
			if err != nil {
				fmt.Fprintf(os.Stderr, "ws: handshake failed: %v\n", err)
				nc.Close()
				return
			}
			cfg.ConnHandler(c)
		}()
	}
}
