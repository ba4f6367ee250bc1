package ws

import (
	"bufio"
	"bytes"
	"testing"
)

func TestWriteReadFrameRoundTripUnmasked(t *testing.T) {
	var buf bytes.Buffer
	payload := bytes.Repeat([]byte("abc"), 1000)
	if err := writeFrame(&buf, OpBinary, payload, false); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	f, err := readFrame(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if f.opcode != OpBinary || !f.fin {
		t.Fatalf("unexpected frame header: opcode=%d fin=%v", f.opcode, f.fin)
	}
	if !bytes.Equal(f.payload, payload) {
		t.Fatalf("payload mismatch: got %d bytes want %d", len(f.payload), len(payload))
	}
}

func TestWriteReadFrameRoundTripMasked(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("client frame must be masked")
	if err := writeFrame(&buf, OpBinary, payload, true); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	f, err := readFrame(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if !bytes.Equal(f.payload, payload) {
		t.Fatalf("payload mismatch after unmasking: got %q want %q", f.payload, payload)
	}
}

func TestWriteReadFrameLargePayloadLengthEncoding(t *testing.T) {
	var buf bytes.Buffer
	payload := bytes.Repeat([]byte("z"), 70000) // over 0xFFFF: forces the 64-bit extended length path
	if err := writeFrame(&buf, OpBinary, payload, false); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	f, err := readFrame(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if len(f.payload) != len(payload) {
		t.Fatalf("payload len = %d, want %d", len(f.payload), len(payload))
	}
}
