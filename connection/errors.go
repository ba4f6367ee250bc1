// File: connection/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error taxonomy for a Connection, grounded on api/errors.go's structured
// Error type but specialized to the four causes a BMP connection can fail
// or close for (§7): the transport misbehaved, the peer violated the wire
// protocol, the peer's delegate returned an application error, or the
// connection was torn down locally while requests were still pending.

package connection

import "fmt"

// TransportError wraps a failure reported by the underlying Transport
// (a read, write, or open/close failure below the BMP framing layer).
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string { return fmt.Sprintf("bmp: transport error: %v", e.Cause) }
func (e *TransportError) Unwrap() error { return e.Cause }

// ProtocolError reports a peer violating the wire protocol itself:
// a malformed frame header, a continuation frame whose type disagrees with
// its message's first frame, a compressed frame on a connection without
// compression, or a compressed payload that fails to inflate.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("bmp: protocol error: %s", e.Reason) }

// ApplicationError is carried by an inbound Error message answering one of
// this connection's own requests (§7).
type ApplicationError struct {
	Domain  string
	Code    string
	Message string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("bmp: application error [%s/%s]: %s", e.Domain, e.Code, e.Message)
}

// CancelledByClose is the error delivered to any still-pending response
// handler when the connection closes before a reply arrived (§7).
var CancelledByClose = &cancelledError{}

type cancelledError struct{}

func (*cancelledError) Error() string { return "bmp: connection closed before response arrived" }
