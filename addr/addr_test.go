package addr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIPv4(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"0.0.0.0", true},
		{"255.255.255.255", true},
		{"192.168.1.1", true},
		{"256.0.0.1", false},
		{"1.2.3", false},
		{"1.2.3.4.5", false},
		{"01.2.3.4", false},
		{"1.2.3.", false},
		{"", false},
		{"a.b.c.d", false},
	}
	for _, c := range cases {
		_, ok := ParseIPv4(c.in)
		assert.Equal(t, c.ok, ok, "ParseIPv4(%q)", c.in)
	}
}

func TestParseIPv4Prefix(t *testing.T) {
	addr, ok := ParseIPv4Prefix("192.168.1.0/24", true)
	assert.True(t, ok)
	assert.Equal(t, 24, addr.Length)

	_, ok = ParseIPv4Prefix("192.168.1.5/24", true)
	assert.False(t, ok, "strict prefix rejects nonzero host bits")

	_, ok = ParseIPv4Prefix("192.168.1.5/24", false)
	assert.True(t, ok, "non-strict prefix allows nonzero host bits")

	_, ok = ParseIPv4Prefix("10.0.0.0/33", false)
	assert.False(t, ok, "prefix length above 32 is rejected")
}

func TestParseIPv6(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"::1", true},
		{"::", true},
		{"2001:db8::1", true},
		{"fe80::1%eth0", true},
		{"::ffff:192.168.1.1", true},
		{"1:2:3:4:5:6:7:8", true},
		{"1:2:3:4:5:6:7:8:9", false},
		{"gggg::1", false},
		{"fe80::1%", false},
	}
	for _, c := range cases {
		_, ok := ParseIPv6(c.in)
		assert.Equal(t, c.ok, ok, "ParseIPv6(%q)", c.in)
	}
}

func TestParseIPv6PrefixRejectsZone(t *testing.T) {
	_, ok := ParseIPv6Prefix("fe80::1%eth0/64", false)
	assert.False(t, ok, "zone-id is not allowed in prefix form")

	_, ok = ParseIPv6Prefix("2001:db8::/32", false)
	assert.True(t, ok)
}

func TestParseHostname(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"example.com", true},
		{"a.b.c", true},
		{"localhost", true},
		{"-bad.com", false},
		{"bad-.com", false},
		{"", false},
		{"has_underscore.com", false},
	}
	for _, c := range cases {
		_, ok := ParseHostname(c.in)
		assert.Equal(t, c.ok, ok, "ParseHostname(%q)", c.in)
	}
}

func TestParseEmail(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"a@b.com", true},
		{"first.last@example.com", true},
		{"no-at-sign", false},
		{"@b.com", false},
		{"a@", false},
		{"a@-bad.com", false},
	}
	for _, c := range cases {
		_, ok := ParseEmail(c.in)
		assert.Equal(t, c.ok, ok, "ParseEmail(%q)", c.in)
	}
}

func TestParseURI(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"https://example.com/path?q=1#frag", true},
		{"mailto:a@b.com", true},
		{"/relative/path", false},
		{"://missing-scheme", false},
		{"http://[::1]:8080/", true},
	}
	for _, c := range cases {
		_, ok := ParseURI(c.in)
		assert.Equal(t, c.ok, ok, "ParseURI(%q)", c.in)
	}
}

func TestParseURIReferenceAllowsRelative(t *testing.T) {
	_, ok := ParseURIReference("/relative/path?x=1")
	assert.True(t, ok)

	_, ok = ParseURIReference("https://example.com")
	assert.True(t, ok)
}

func TestParseHostAndPort(t *testing.T) {
	hp, ok := ParseHostAndPort("example.com:8080", true)
	assert.True(t, ok)
	assert.Equal(t, "example.com", hp.Host)
	assert.Equal(t, 8080, hp.Port)
	assert.True(t, hp.HasPort)

	hp, ok = ParseHostAndPort("[::1]:443", true)
	assert.True(t, ok)
	assert.Equal(t, "::1", hp.Host)
	assert.Equal(t, 443, hp.Port)

	_, ok = ParseHostAndPort("example.com", true)
	assert.False(t, ok, "port is required here")

	hp, ok = ParseHostAndPort("example.com", false)
	assert.True(t, ok)
	assert.False(t, hp.HasPort)

	_, ok = ParseHostAndPort("example.com:99999", false)
	assert.False(t, ok, "port out of range")
}
