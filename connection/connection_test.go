package connection

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/momentics/bmp/message"
	"github.com/momentics/bmp/transport/loopback"
	"github.com/momentics/bmp/wire"
)

func TestEchoRequestResponse(t *testing.T) {
	a, b := loopback.NewPair()

	serverDone := make(chan struct{})
	server := New(a, &funcDelegate{
		onRequest: func(c *Connection, in *message.In) {
			body, err := in.Body()
			if err != nil {
				t.Errorf("server Body: %v", err)
			}
			_ = in.Respond(message.NewBuilder().SetBody(body))
		},
		onClose: func(c *Connection, reason error) { close(serverDone) },
	})
	server.Open()
	defer server.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	var gotBody []byte
	var gotErr error

	client := New(b, &funcDelegate{})
	client.Open()
	defer client.Close()

	client.SendRequest(message.NewBuilder().SetBody([]byte("ping")), func(in *message.In, err error) {
		defer wg.Done()
		gotErr = err
		if err == nil {
			gotBody, gotErr = in.Body()
		}
	})

	waitOrTimeout(t, &wg, 2*time.Second)
	if gotErr != nil {
		t.Fatalf("response error: %v", gotErr)
	}
	if !bytes.Equal(gotBody, []byte("ping")) {
		t.Fatalf("body = %q, want %q", gotBody, "ping")
	}
	_ = serverDone
}

func TestNoReplyRequestGetsNoResponse(t *testing.T) {
	a, b := loopback.NewPair()

	var requestSeen sync.WaitGroup
	requestSeen.Add(1)
	server := New(a, &funcDelegate{
		onRequest: func(c *Connection, in *message.In) {
			requestSeen.Done()
		},
	})
	server.Open()
	defer server.Close()

	client := New(b, &funcDelegate{})
	client.Open()
	defer client.Close()

	called := false
	client.SendRequest(message.NewBuilder().NoReply(true).SetBody([]byte("x")), func(in *message.In, err error) {
		called = true
	})

	waitOrTimeout(t, &requestSeen, 2*time.Second)
	time.Sleep(50 * time.Millisecond)
	if called {
		t.Fatal("expected no response handler invocation for a NoReply request")
	}
}

func TestCloseCancelsPendingResponses(t *testing.T) {
	a, b := loopback.NewPair()

	// server never responds
	block := make(chan struct{})
	server := New(a, &funcDelegate{
		onRequest: func(c *Connection, in *message.In) {
			<-block
		},
	})
	server.Open()

	client := New(b, &funcDelegate{})
	client.Open()

	var wg sync.WaitGroup
	wg.Add(1)
	var gotErr error
	client.SendRequest(message.NewBuilder().SetBody([]byte("x")), func(in *message.In, err error) {
		gotErr = err
		wg.Done()
	})

	time.Sleep(50 * time.Millisecond)
	client.Close()
	waitOrTimeout(t, &wg, 2*time.Second)
	if gotErr != CancelledByClose {
		t.Fatalf("err = %v, want CancelledByClose", gotErr)
	}
	close(block)
	server.Close()
}

// TestLargeEchoRoundTrip sends a body much larger than one frame's payload
// through the echo delegate, exercising chunking on both the outbound and
// inbound sides (§4.7 "MoreComing" reassembly).
func TestLargeEchoRoundTrip(t *testing.T) {
	a, b := loopback.NewPair()

	server := New(a, &funcDelegate{
		onRequest: func(c *Connection, in *message.In) {
			body, err := in.Body()
			if err != nil {
				t.Errorf("server Body: %v", err)
			}
			_ = in.Respond(message.NewBuilder().SetBody(body))
		},
	}, WithMaxFramePayload(64))
	server.Open()
	defer server.Close()

	client := New(b, &funcDelegate{}, WithMaxFramePayload(64))
	client.Open()
	defer client.Close()

	want := bytes.Repeat([]byte("0123456789abcdef"), 2000) // ~32KiB, many frames at 64B/frame

	var wg sync.WaitGroup
	wg.Add(1)
	var got []byte
	var gotErr error
	client.SendRequest(message.NewBuilder().SetBody(want), func(in *message.In, err error) {
		defer wg.Done()
		gotErr = err
		if err == nil {
			got, gotErr = in.Body()
		}
	})

	waitOrTimeout(t, &wg, 5*time.Second)
	if gotErr != nil {
		t.Fatalf("response error: %v", gotErr)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("body length = %d, want %d (mismatch)", len(got), len(want))
	}
}

// recordingTransport wraps a Transport and records the message number of
// every frame handed to Send, in order — used to observe the fairness
// policy's interleaving of concurrently active Outs.
type recordingTransport struct {
	Transport
	mu  sync.Mutex
	seq []uint64
}

func (r *recordingTransport) Send(frame []byte) error {
	if hdr, err := wire.DecodeHeader(frame); err == nil {
		r.mu.Lock()
		r.seq = append(r.seq, hdr.Number)
		r.mu.Unlock()
	}
	return r.Transport.Send(frame)
}

func (r *recordingTransport) sequence() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint64, len(r.seq))
	copy(out, r.seq)
	return out
}

// TestFairnessInterleavesConcurrentRequests verifies that two large
// requests enqueued back to back are transmitted frame-by-frame in
// round-robin order rather than one draining fully before the other
// starts (§4.7's fairness policy).
func TestFairnessInterleavesConcurrentRequests(t *testing.T) {
	a, b := loopback.NewPair()
	rec := &recordingTransport{Transport: b}

	server := New(a, &funcDelegate{
		onRequest: func(c *Connection, in *message.In) { _, _ = in.Body() },
	}, WithMaxFramePayload(16))
	server.Open()
	defer server.Close()

	client := New(rec, &funcDelegate{}, WithMaxFramePayload(16))
	client.Open()
	defer client.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	bodyA := bytes.Repeat([]byte("A"), 160) // 11 frames at 16B/frame (1-byte empty property section + body)
	bodyB := bytes.Repeat([]byte("B"), 160)
	client.SendRequest(message.NewBuilder().SetBody(bodyA), func(in *message.In, err error) { wg.Done() })
	client.SendRequest(message.NewBuilder().SetBody(bodyB), func(in *message.In, err error) { wg.Done() })

	waitOrTimeout(t, &wg, 5*time.Second)

	seq := rec.sequence()
	if len(seq) < 4 {
		t.Fatalf("expected several recorded frames, got %d", len(seq))
	}
	// Both message numbers (1 and 2) must appear among the first few frames
	// sent; if the fairness policy failed to interleave, message 1 would
	// fully drain (11 frames) before message 2's first frame ever appears.
	sawOther := false
	for _, n := range seq[:4] {
		if n != seq[0] {
			sawOther = true
			break
		}
	}
	if !sawOther {
		t.Fatalf("frames did not interleave within first 4 sends: %v", seq)
	}
}

// TestUrgentPreemption verifies that a request marked Urgent is sent ahead
// of an already-active non-urgent request's remaining frames.
func TestUrgentPreemption(t *testing.T) {
	a, b := loopback.NewPair()
	rec := &recordingTransport{Transport: b}

	server := New(a, &funcDelegate{
		onRequest: func(c *Connection, in *message.In) { _, _ = in.Body() },
	}, WithMaxFramePayload(16))
	server.Open()
	defer server.Close()

	client := New(rec, &funcDelegate{}, WithMaxFramePayload(16))
	client.Open()
	defer client.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	bulk := bytes.Repeat([]byte("X"), 160)
	client.SendRequest(message.NewBuilder().SetBody(bulk), func(in *message.In, err error) { wg.Done() })
	client.SendRequest(message.NewBuilder().Urgent(true).SetBody([]byte("hi")), func(in *message.In, err error) { wg.Done() })

	waitOrTimeout(t, &wg, 5*time.Second)

	seq := rec.sequence()
	if len(seq) < 2 {
		t.Fatalf("expected at least 2 frames, got %d", len(seq))
	}
	// The bulk transfer (number 1) necessarily sends its first frame
	// before the urgent request even exists. From then on, the urgent
	// message (number 2) must cut ahead of the bulk transfer's remaining
	// frames rather than waiting its turn round-robin.
	if seq[1] != 2 {
		t.Fatalf("urgent message did not preempt bulk transfer: %v", seq)
	}
}

// TestProtocolErrorOnTypeMismatchCloses verifies that a continuation frame
// whose type disagrees with its message's first frame closes the
// connection with a ProtocolError, instead of silently corrupting state
// (§6 edge case, §9 continuation-frame type check).
func TestProtocolErrorOnTypeMismatchCloses(t *testing.T) {
	peer, clientSide := loopback.NewPair()

	closed := make(chan error, 1)
	client := New(clientSide, &funcDelegate{
		onClose: func(c *Connection, reason error) { closed <- reason },
	})
	client.Open()

	// Forge the raw frames a well-behaved peer would never produce: a
	// first frame claiming MoreComing as a Request, followed by a second
	// frame with the same message number but typed as a Response. peer is
	// the other end of the pipe, standing in for a misbehaving remote.
	first := wire.EncodeHeader(nil, 42, wire.Flags(0).WithType(wire.TypeRequest)|wire.FlagMoreComing)
	first = append(first, []byte("part1")...)
	if err := peer.Send(first); err != nil {
		t.Fatalf("send first: %v", err)
	}
	second := wire.EncodeHeader(nil, 42, wire.Flags(0).WithType(wire.TypeResponse))
	second = append(second, []byte("part2")...)
	if err := peer.Send(second); err != nil {
		t.Fatalf("send second: %v", err)
	}

	select {
	case reason := <-closed:
		var protoErr *ProtocolError
		if reason == nil {
			t.Fatal("expected a ProtocolError, got clean close")
		}
		if pe, ok := reason.(*ProtocolError); ok {
			protoErr = pe
		} else {
			t.Fatalf("expected *ProtocolError, got %T: %v", reason, reason)
		}
		if !strings.Contains(protoErr.Reason, "type disagrees") {
			t.Fatalf("unexpected reason: %q", protoErr.Reason)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client to close on protocol error")
	}
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out waiting for expected callback")
	}
}

// funcDelegate adapts function fields to the Delegate interface for tests.
type funcDelegate struct {
	onConnect  func(c *Connection)
	onClose    func(c *Connection, reason error)
	onRequest  func(c *Connection, in *message.In)
	onResponse func(c *Connection, in *message.In)
}

func (d *funcDelegate) OnConnect(c *Connection) {
	if d.onConnect != nil {
		d.onConnect(c)
	}
}
func (d *funcDelegate) OnClose(c *Connection, reason error) {
	if d.onClose != nil {
		d.onClose(c, reason)
	}
}
func (d *funcDelegate) OnRequestReceived(c *Connection, in *message.In) {
	if d.onRequest != nil {
		d.onRequest(c, in)
	}
}
func (d *funcDelegate) OnResponseReceived(c *Connection, in *message.In) {
	if d.onResponse != nil {
		d.onResponse(c, in)
	}
}
