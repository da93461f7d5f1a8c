package addr

import (
	"regexp"
	"strings"
)

// rxEmailLocal is the WHATWG-style local-part pattern spec.md calls for,
// the same character-class shape huma's own email-format regex uses.
var rxEmailLocal = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+$`)

// ParseEmail validates s as "local@domain": exactly one "@" with a
// non-empty local part (1..64 bytes, matching rxEmailLocal, no "<") and a
// domain part (≤253 bytes) that itself passes ParseHostname.
func ParseEmail(s string) (string, bool) {
	at := strings.IndexByte(s, '@')
	if at < 0 {
		return "", false
	}
	local := s[:at]
	domain := s[at+1:]
	if len(local) == 0 || len(local) > 64 {
		return "", false
	}
	if strings.IndexByte(local, '<') >= 0 {
		return "", false
	}
	if !rxEmailLocal.MatchString(local) {
		return "", false
	}
	if len(domain) == 0 || len(domain) > 253 {
		return "", false
	}
	if _, ok := ParseHostname(domain); !ok {
		return "", false
	}
	return s, true
}
