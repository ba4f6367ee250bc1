package wire

import (
	"bytes"
	"testing"
)

func TestVarintRoundTrip(t *testing.T) {
	vals := []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40, ^uint64(0)}
	for _, v := range vals {
		buf := AppendVarint(nil, v)
		if len(buf) != SizeVarint(v) {
			t.Errorf("SizeVarint(%d) = %d, encoded length = %d", v, SizeVarint(v), len(buf))
		}
		got, n, err := GetVarint(buf)
		if err != nil {
			t.Fatalf("GetVarint error: %v", err)
		}
		if got != v || n != len(buf) {
			t.Errorf("round-trip %d: got %d consuming %d bytes, want %d bytes", v, got, n, len(buf))
		}
	}
}

func TestGetVarintTruncated(t *testing.T) {
	_, _, err := GetVarint([]byte{0x80, 0x80})
	if err != ErrVarintTruncated {
		t.Fatalf("expected ErrVarintTruncated, got %v", err)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	flags := Flags(0).WithType(TypeRequest) | FlagUrgent | FlagMoreComing
	var buf []byte
	buf = EncodeHeader(buf, 42, flags)
	buf = append(buf, []byte("payload")...)

	hdr, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("DecodeHeader error: %v", err)
	}
	if hdr.Number != 42 {
		t.Errorf("Number = %d, want 42", hdr.Number)
	}
	if hdr.Flags.Type() != TypeRequest {
		t.Errorf("Type = %v, want Request", hdr.Flags.Type())
	}
	if !hdr.Flags.Urgent() || !hdr.Flags.MoreComing() || hdr.Flags.NoReply() {
		t.Errorf("unexpected flag bits: %v", hdr.Flags)
	}
	if !bytes.Equal(hdr.Payload, []byte("payload")) {
		t.Errorf("Payload = %q, want %q", hdr.Payload, "payload")
	}
}

func TestWithTypeDistinguishesResponseAndError(t *testing.T) {
	first := Flags(0).WithType(TypeResponse)
	cont := Flags(0).WithType(TypeError)
	if first.Type() == cont.Type() {
		t.Fatal("WithType(TypeResponse) and WithType(TypeError) should yield different types")
	}
}
