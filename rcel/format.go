package rcel

import (
	"strings"

	"github.com/google/uuid"

	"github.com/fieldrules/fieldrules/addr"
)

// checkFormat implements the `format` built-in: given a value and a
// well-known format name, report whether the value matches. The name set
// covers every StringFormat the ruleschema package declares, plus the
// supplemented header-name/header-value/media-type cases pulled from
// original_source/buf/validate/internal/string_format.cc, which the
// distilled spec.md prose doesn't enumerate but are part of the original
// implementation's format table.
// CheckFormat is the exported form of checkFormat, used directly by the
// root package's structured string-format predicate (StringRules.Format)
// so it doesn't need to round-trip through a CEL expression just to reuse
// the same format table the `format` built-in uses.
func CheckFormat(name, value string) bool {
	return checkFormat(value, name)
}

func checkFormat(value, name string) bool {
	switch name {
	case "email":
		_, ok := addr.ParseEmail(value)
		return ok
	case "hostname":
		_, ok := addr.ParseHostname(value)
		return ok
	case "ip":
		_, ok4 := addr.ParseIPv4(value)
		_, ok6 := addr.ParseIPv6(value)
		return ok4 || ok6
	case "ipv4":
		_, ok := addr.ParseIPv4(value)
		return ok
	case "ipv6":
		_, ok := addr.ParseIPv6(value)
		return ok
	case "ip_prefix":
		_, ok4 := addr.ParseIPv4Prefix(value, false)
		_, ok6 := addr.ParseIPv6Prefix(value, false)
		return ok4 || ok6
	case "ipv4_prefix":
		_, ok := addr.ParseIPv4Prefix(value, false)
		return ok
	case "ipv6_prefix":
		_, ok := addr.ParseIPv6Prefix(value, false)
		return ok
	case "ip_with_prefixlen":
		_, ok4 := addr.ParseIPv4Prefix(value, false)
		_, ok6 := addr.ParseIPv6Prefix(value, false)
		return ok4 || ok6
	case "uri":
		_, ok := addr.ParseURI(value)
		return ok
	case "uri_ref":
		_, ok := addr.ParseURIReference(value)
		return ok
	case "uuid":
		return isUUID(value)
	case "host_and_port":
		_, ok := addr.ParseHostAndPort(value, false)
		return ok
	case "header_name":
		return isHeaderName(value)
	case "header_value":
		return isHeaderValue(value)
	case "media_type":
		return isMediaType(value)
	default:
		return false
	}
}

// isUUID delegates to github.com/google/uuid's Parse, the same library
// huma keeps in its own go.mod, rather than re-deriving the canonical
// 8-4-4-4-12 hex-and-hyphen layout check by hand.
func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func isHeaderName(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isTokenChar(c) {
			return false
		}
	}
	return true
}

func isTokenChar(c byte) bool {
	if c <= 0x20 || c >= 0x7f {
		return false
	}
	switch c {
	case '(', ')', '<', '>', '@', ',', ';', ':', '\\', '"', '/', '[', ']', '?', '=', '{', '}':
		return false
	}
	return true
}

func isHeaderValue(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == 0 || c == '\r' || c == '\n' {
			return false
		}
	}
	return true
}

func isMediaType(s string) bool {
	slash := strings.IndexByte(s, '/')
	if slash <= 0 || slash == len(s)-1 {
		return false
	}
	typ, subtype := s[:slash], s[slash+1:]
	if semi := strings.IndexByte(subtype, ';'); semi >= 0 {
		subtype = subtype[:semi]
	}
	return isHeaderName(typ) && isHeaderName(subtype)
}
