// File: address/address.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Address is a structural, URL-like target for a BMP peer: scheme,
// hostname, port, and path. Grounded directly on the BLIP-Cpp reference
// (websocket/Address.cc) rather than the teacher, since the teacher has no
// equivalent type; the boundary semantics of DomainContains/PathContains
// below are copied from that source rather than re-derived.

package address

import (
	"fmt"
	"strconv"
	"strings"
)

// Address is a pure value type; construct with New.
type Address struct {
	Scheme   string
	Hostname string
	Port     uint16
	Path     string
}

// secureSchemes are schemes whose default port is 443 instead of 80.
var secureSchemes = map[string]bool{
	"wss":   true,
	"https": true,
	"blips": true,
}

// New builds an Address, lower-casing scheme, giving a non-empty path a
// leading '/' if it lacks one, and defaulting Port to 443 or 80 per
// IsSecure when port is 0.
func New(scheme, hostname string, port uint16, path string) Address {
	scheme = strings.ToLower(scheme)
	if path != "" && path[0] != '/' {
		path = "/" + path
	}
	a := Address{Scheme: scheme, Hostname: hostname, Path: path}
	if port == 0 {
		port = a.DefaultPort()
	}
	a.Port = port
	return a
}

// IsSecure reports whether the scheme is one of wss, https, blips.
func (a Address) IsSecure() bool {
	return secureSchemes[a.Scheme]
}

// DefaultPort is 443 for secure schemes, 80 otherwise.
func (a Address) DefaultPort() uint16 {
	if a.IsSecure() {
		return 443
	}
	return 80
}

// String renders scheme:hostname[:port if non-default]/path, always
// inserting a leading '/' before path if it doesn't already start with one.
func (a Address) String() string {
	var b strings.Builder
	b.WriteString(a.Scheme)
	b.WriteByte(':')
	b.WriteString(a.Hostname)
	if a.Port != a.DefaultPort() {
		b.WriteByte(':')
		b.WriteString(uitoa(a.Port))
	}
	if a.Path == "" || a.Path[0] != '/' {
		b.WriteByte('/')
	}
	b.WriteString(a.Path)
	return b.String()
}

func uitoa(v uint16) string {
	if v == 0 {
		return "0"
	}
	var buf [5]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// Parse reverses String: scheme:hostname[:port]/path. Round-tripping a
// value produced by Address.String always yields an equivalent Address.
func Parse(s string) (Address, error) {
	schemeSep := strings.IndexByte(s, ':')
	if schemeSep < 0 {
		return Address{}, fmt.Errorf("address: missing scheme in %q", s)
	}
	scheme := s[:schemeSep]
	rest := s[schemeSep+1:]

	slash := strings.IndexByte(rest, '/')
	hostport := rest
	path := ""
	if slash >= 0 {
		hostport = rest[:slash]
		path = rest[slash:]
	}

	hostname := hostport
	var port uint16
	if c := strings.LastIndexByte(hostport, ':'); c >= 0 {
		hostname = hostport[:c]
		p, err := strconv.ParseUint(hostport[c+1:], 10, 16)
		if err != nil {
			return Address{}, fmt.Errorf("address: bad port in %q: %w", s, err)
		}
		port = uint16(p)
	}

	// String() always emits a leading '/' before path; New treats an empty
	// path the same as "/" would be re-derived as empty by String again, so
	// strip a bare "/" back to "" to round-trip Address{Path: ""} exactly.
	if path == "/" {
		path = ""
	}

	return New(scheme, hostname, port, path), nil
}

// DomainEquals is a case-insensitive exact match of two domain strings.
func DomainEquals(a, b string) bool {
	return strings.EqualFold(a, b)
}

// DomainContains reports whether hostname is baseDomain itself, or a strict
// subdomain of it (hostname ends in ".baseDomain"), case-insensitively.
func DomainContains(baseDomain, hostname string) bool {
	if !hasSuffixFold(hostname, baseDomain) {
		return false
	}
	return len(hostname) == len(baseDomain) ||
		hostname[len(hostname)-len(baseDomain)-1] == '.'
}

// PathContains reports whether p falls under basePath: an empty basePath
// matches everything; otherwise p must have basePath as a prefix and either
// equal it exactly, have '/' as the next character, or basePath must
// already end in '/'.
func PathContains(basePath, p string) bool {
	if basePath == "" {
		return true
	}
	if p == "" {
		return false
	}
	if !strings.HasPrefix(p, basePath) {
		return false
	}
	return len(p) == len(basePath) ||
		p[len(basePath)] == '/' ||
		basePath[len(basePath)-1] == '/'
}

func hasSuffixFold(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	return strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
