package addr

import (
	"regexp"
	"strings"
)

// rxLabel matches a single DNS label, the same shape huma's rxHostname
// uses per dot-separated component.
var rxLabel = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?$`)

var rxAllDigits = regexp.MustCompile(`^[0-9]+$`)

// ParseHostname validates s as a DNS hostname: overall length ≤ 253 (after
// stripping one optional trailing dot), each label non-empty and ≤ 63
// characters matching rxLabel, and the last label (also when it is the only
// label) must not be all-digits (to reject bare IPv4-shaped "hostnames"
// like "1.2.3.4" masquerading past a hostname check).
func ParseHostname(s string) (string, bool) {
	if len(s) == 0 {
		return "", false
	}
	trimmed := strings.TrimSuffix(s, ".")
	if len(trimmed) > 253 {
		return "", false
	}
	labels := strings.Split(trimmed, ".")
	for _, l := range labels {
		if len(l) == 0 || len(l) > 63 || !rxLabel.MatchString(l) {
			return "", false
		}
	}
	last := labels[len(labels)-1]
	if len(labels) > 1 {
		if rxAllDigits.MatchString(last) {
			return "", false
		}
	} else {
		if rxAllDigits.MatchString(last) {
			return "", false
		}
	}
	return trimmed, true
}
