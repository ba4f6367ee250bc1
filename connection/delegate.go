// File: connection/delegate.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Delegate is the application's hook into a Connection's lifecycle and
// inbound traffic, in the spirit of api.Handler (api/handler.go) and the
// reactor package's Open/Close events (api/events.go), generalized to
// BMP's four callbacks (§6).

package connection

import "github.com/momentics/bmp/message"

// Delegate receives lifecycle and inbound-message callbacks from a
// Connection. All methods are invoked on the Connection's own actor
// mailbox, serialized with every other operation on that connection —
// implementations must not block for long, and must not call back into
// the Connection synchronously from within a callback (queue further
// work instead).
type Delegate interface {
	// OnConnect is called once the connection is open and ready to send.
	OnConnect(c *Connection)

	// OnClose is called exactly once, after the connection has fully
	// closed, with the reason (nil for a clean peer- or locally-
	// initiated close, otherwise a *TransportError or *ProtocolError).
	OnClose(c *Connection, reason error)

	// OnRequestReceived is called for each complete inbound Request. The
	// delegate may call in.Respond (or in.RespondError) before returning;
	// if it returns without responding and the request did not set
	// NoReply, the Connection sends an empty success Response at once
	// (§4.6), so a Respond made after returning sends a second Response.
	OnRequestReceived(c *Connection, in *message.In)

	// OnResponseReceived is called for each complete inbound Response or
	// Error message that was not claimed by a registered ResponseHandler
	// (i.e. received for a message number this connection has no pending
	// request for, which is itself a protocol anomaly worth observing).
	OnResponseReceived(c *Connection, in *message.In)
}

// NopDelegate implements Delegate with no-op methods, useful as an
// embeddable base for delegates that only care about a subset of events.
type NopDelegate struct{}

func (NopDelegate) OnConnect(*Connection)                          {}
func (NopDelegate) OnClose(*Connection, error)                      {}
func (NopDelegate) OnRequestReceived(*Connection, *message.In)       {}
func (NopDelegate) OnResponseReceived(*Connection, *message.In)      {}
