package addr

import (
	"strconv"
	"strings"
)

// HostAndPort is the parsed result of ParseHostAndPort.
type HostAndPort struct {
	Host   string
	Port   int
	HasPort bool
}

// ParseHostAndPort accepts "host:port", "[ipv6]:port", a bare host (when
// portRequired is false), or a bare "[ipv6]" (when portRequired is false).
// Port, when present, is decimal 0..65535.
func ParseHostAndPort(s string, portRequired bool) (HostAndPort, bool) {
	if len(s) == 0 {
		return HostAndPort{}, false
	}
	if s[0] == '[' {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return HostAndPort{}, false
		}
		hostStr := s[1:end]
		if _, ok := ParseIPv6(hostStr); !ok {
			return HostAndPort{}, false
		}
		rest := s[end+1:]
		if rest == "" {
			if portRequired {
				return HostAndPort{}, false
			}
			return HostAndPort{Host: hostStr}, true
		}
		if rest[0] != ':' {
			return HostAndPort{}, false
		}
		port, ok := parsePort(rest[1:])
		if !ok {
			return HostAndPort{}, false
		}
		return HostAndPort{Host: hostStr, Port: port, HasPort: true}, true
	}

	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		if portRequired {
			return HostAndPort{}, false
		}
		if !validBareHost(s) {
			return HostAndPort{}, false
		}
		return HostAndPort{Host: s}, true
	}
	hostStr := s[:colon]
	if !validBareHost(hostStr) {
		return HostAndPort{}, false
	}
	port, ok := parsePort(s[colon+1:])
	if !ok {
		return HostAndPort{}, false
	}
	return HostAndPort{Host: hostStr, Port: port, HasPort: true}, true
}

func validBareHost(s string) bool {
	if _, ok := ParseHostname(s); ok {
		return true
	}
	if _, ok := ParseIPv4(s); ok {
		return true
	}
	return false
}

func parsePort(s string) (int, bool) {
	if len(s) == 0 || len(s) > 5 {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 65535 {
		return 0, false
	}
	return n, true
}
