package address

import "testing"

func TestDefaultPorts(t *testing.T) {
	cases := []struct {
		scheme string
		secure bool
		port   uint16
	}{
		{"ws", false, 80},
		{"http", false, 80},
		{"blip", false, 80},
		{"wss", true, 443},
		{"https", true, 443},
		{"blips", true, 443},
	}
	for _, c := range cases {
		a := New(c.scheme, "example.com", 0, "")
		if a.IsSecure() != c.secure {
			t.Errorf("%s: IsSecure() = %v, want %v", c.scheme, a.IsSecure(), c.secure)
		}
		if a.Port != c.port {
			t.Errorf("%s: Port = %d, want %d", c.scheme, a.Port, c.port)
		}
	}
}

func TestString(t *testing.T) {
	cases := []struct {
		a    Address
		want string
	}{
		{New("wss", "Example.com", 0, ""), "wss:Example.com/"},
		{New("wss", "example.com", 8080, "/db"), "wss:example.com:8080/db"},
		{New("ws", "example.com", 0, "db"), "ws:example.com/db"},
	}
	for _, c := range cases {
		if got := c.a.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	inputs := []Address{
		New("ws", "example.com", 0, ""),
		New("wss", "example.com", 0, "/db/_blipsync"),
		New("blip", "10.0.0.5", 12345, "path"),
		New("blips", "host.local", 443, "/a/b/c"),
	}
	for _, a := range inputs {
		s := a.String()
		got, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", s, err)
		}
		if got != a {
			t.Errorf("round-trip mismatch for %q: got %+v, want %+v", s, got, a)
		}
	}
}

func TestDomainEquals(t *testing.T) {
	if !DomainEquals("Example.com", "example.COM") {
		t.Fatal("expected case-insensitive equality")
	}
	if DomainEquals("example.com", "other.com") {
		t.Fatal("expected inequality")
	}
}

func TestDomainContains(t *testing.T) {
	cases := []struct{ base, host string; want bool }{
		{"example.com", "example.com", true},
		{"example.com", "Sub.example.com", true},
		{"example.com", "notexample.com", false},
		{"example.com", "example.com.evil.com", false},
	}
	for _, c := range cases {
		if got := DomainContains(c.base, c.host); got != c.want {
			t.Errorf("DomainContains(%q,%q) = %v, want %v", c.base, c.host, got, c.want)
		}
	}
}

func TestPathContains(t *testing.T) {
	cases := []struct{ base, path string; want bool }{
		{"", "/anything", true},
		{"/db", "/db", true},
		{"/db", "/db/doc1", true},
		{"/db/", "/db/doc1", true},
		{"/db", "/database", false},
		{"/db", "", false},
	}
	for _, c := range cases {
		if got := PathContains(c.base, c.path); got != c.want {
			t.Errorf("PathContains(%q,%q) = %v, want %v", c.base, c.path, got, c.want)
		}
	}
}
