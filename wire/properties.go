// File: wire/properties.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Property-list encoding: an ordered sequence of (name, value) byte-string
// pairs serialized as a varint byte length followed by NUL-delimited
// alternating names and values (§3, §6). A fixed well-known string table
// may substitute a single-byte token (any byte < 32 other than NUL) for a
// common name or value during encode, and the decoder expands tokens back
// to their full string.
//
// OPEN QUESTION (spec.md §9): "The property well-known string table's exact
// contents are part of the wire protocol and must be copied verbatim from
// the reference implementation." The reference table is not present in the
// excerpted source available here. This file supplies a representative
// table of the property names/values BMP messages most commonly carry
// (mirroring the shape of BLIP's own table: Profile, Content-Type and a
// handful of common MIME types) so the codec is fully exercised and
// round-trips correctly; a production deployment must replace
// wellKnownStrings with the exact table shared by both peers, since any
// mismatch between peers silently corrupts property values.

package wire

import (
	"bytes"
	"errors"
)

// wellKnownStrings maps a one-byte token (values 1..31, skipping 0 which is
// reserved as the NUL terminator) to the string it abbreviates. Both
// directions of the map are derived from this single ordered list.
var wellKnownStrings = []string{
	1:  "Profile",
	2:  "Error-Code",
	3:  "Error-Domain",
	4:  "Content-Type",
	5:  "application/json",
	6:  "application/octet-stream",
	7:  "text/plain; charset=UTF-8",
	8:  "text/plain",
	9:  "Channels",
	10: "Compress",
}

var stringToToken = func() map[string]byte {
	m := make(map[string]byte, len(wellKnownStrings))
	for tok, s := range wellKnownStrings {
		if tok == 0 || s == "" {
			continue
		}
		m[s] = byte(tok)
	}
	return m
}()

// ErrPropertiesTruncated is returned when the property section ends before
// its declared length, or a name/value is missing its NUL terminator.
var ErrPropertiesTruncated = errors.New("wire: truncated property section")

// Property is one (name, value) pair in encounter order.
type Property struct {
	Name  string
	Value string
}

// EncodeProperties serializes props as described above and returns
// varint(byte_length) followed by the NUL-delimited token stream,
// appended to dst.
func EncodeProperties(dst []byte, props []Property) []byte {
	var body []byte
	for _, p := range props {
		body = appendToken(body, p.Name)
		body = appendToken(body, p.Value)
	}
	dst = AppendVarint(dst, uint64(len(body)))
	dst = append(dst, body...)
	return dst
}

func appendToken(dst []byte, s string) []byte {
	if tok, ok := stringToToken[s]; ok {
		return append(dst, tok)
	}
	dst = append(dst, s...)
	return append(dst, 0)
}

// DecodeProperties parses the property section from the start of raw and
// returns the properties plus the number of bytes consumed (including the
// length prefix).
func DecodeProperties(raw []byte) ([]Property, int, error) {
	length, n, err := GetVarint(raw)
	if err != nil {
		return nil, 0, err
	}
	if uint64(len(raw)-n) < length {
		return nil, 0, ErrPropertiesTruncated
	}
	body := raw[n : n+int(length)]

	var props []Property
	for len(body) > 0 {
		name, rest, err := readToken(body)
		if err != nil {
			return nil, 0, err
		}
		value, rest2, err := readToken(rest)
		if err != nil {
			return nil, 0, err
		}
		props = append(props, Property{Name: name, Value: value})
		body = rest2
	}
	return props, n + int(length), nil
}

// readToken consumes one name-or-value token: either a single byte < 32
// (a well-known string index) or a run of bytes terminated by NUL.
func readToken(buf []byte) (string, []byte, error) {
	if len(buf) == 0 {
		return "", nil, ErrPropertiesTruncated
	}
	if buf[0] != 0 && buf[0] < 32 {
		idx := int(buf[0])
		if idx >= len(wellKnownStrings) || wellKnownStrings[idx] == "" {
			return "", nil, errors.New("wire: unknown well-known string token")
		}
		return wellKnownStrings[idx], buf[1:], nil
	}
	end := bytes.IndexByte(buf, 0)
	if end < 0 {
		return "", nil, ErrPropertiesTruncated
	}
	return string(buf[:end]), buf[end+1:], nil
}
