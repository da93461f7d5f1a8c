package fieldrules

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fieldrules/fieldrules/rcel"
	"github.com/fieldrules/fieldrules/ruleschema"
)

// evaluateScalarChecks runs the structured predicates carried directly on
// a FieldConstraints (const, range, length, pattern, membership, format)
// as plain Go comparisons rather than compiled CEL, per this module's
// design choice to keep hand-authored structured rules out of the
// expression runtime entirely (see DESIGN.md). It's shared by singular
// fields, repeated items, and map keys/values, since all three dispatch
// on the same FieldConstraints shape. Violations are appended directly to
// ctx; the caller is responsible for path-patching via the returned Mark.
func evaluateScalarChecks(ctx *Context, rc *ruleschema.FieldConstraints, value any) Mark {
	start := ctx.Mark()
	if rc == nil {
		return start
	}
	switch {
	case rc.Bool != nil:
		checkBool(ctx, rc.Bool, value)
	case rc.Numeric != nil:
		checkNumeric(ctx, rc.Numeric, value)
	case rc.String != nil:
		checkString(ctx, rc.String, value)
	case rc.Bytes != nil:
		checkBytes(ctx, rc.Bytes, value)
	case rc.Enum != nil:
		checkEnum(ctx, rc.Enum, value)
	case rc.Duration != nil:
		checkDuration(ctx, rc.Duration, value)
	case rc.Timestamp != nil:
		checkTimestamp(ctx, rc.Timestamp, ctx.Now, value)
	}
	return start
}

func violate(ctx *Context, ruleID, format string, args ...any) {
	ctx.AddViolation(Violation{RuleID: ruleID, Message: fmt.Sprintf(format, args...)})
}

func checkBool(ctx *Context, r *ruleschema.BoolRules, value any) {
	v, ok := value.(bool)
	if !ok {
		return
	}
	if r.HasConst && v != *r.Const {
		violate(ctx, "bool.const", "value must equal %v", *r.Const)
	}
}

func asFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	default:
		return 0, false
	}
}

func checkNumeric(ctx *Context, r *ruleschema.NumericRules, value any) {
	f, ok := asFloat64(value)
	if !ok {
		return
	}
	if r.Finite && (math.IsNaN(f) || math.IsInf(f, 0)) {
		violate(ctx, "numeric.finite", "value must be finite")
	}
	if r.HasConst && f != r.Const {
		violate(ctx, "numeric.const", "value must equal %v", r.Const)
	}
	if r.HasLt && !(f < r.Lt) {
		violate(ctx, "numeric.lt", "value must be less than %v", r.Lt)
	}
	if r.HasLte && !(f <= r.Lte) {
		violate(ctx, "numeric.lte", "value must be less than or equal to %v", r.Lte)
	}
	if r.HasGt && !(f > r.Gt) {
		violate(ctx, "numeric.gt", "value must be greater than %v", r.Gt)
	}
	if r.HasGte && !(f >= r.Gte) {
		violate(ctx, "numeric.gte", "value must be greater than or equal to %v", r.Gte)
	}
	if len(r.In) > 0 && !floatIn(f, r.In) {
		violate(ctx, "numeric.in", "value must be in %v", r.In)
	}
	if len(r.NotIn) > 0 && floatIn(f, r.NotIn) {
		violate(ctx, "numeric.not_in", "value must not be in %v", r.NotIn)
	}
}

func floatIn(f float64, set []float64) bool {
	for _, v := range set {
		if v == f {
			return true
		}
	}
	return false
}

func checkString(ctx *Context, r *ruleschema.StringRules, value any) {
	s, ok := value.(string)
	if !ok {
		return
	}
	runeLen := uint64(utf8.RuneCountInString(s))
	byteLen := uint64(len(s))

	if r.Const != nil && s != *r.Const {
		violate(ctx, "string.const", "value must equal %q", *r.Const)
	}
	if r.Len != nil && runeLen != *r.Len {
		violate(ctx, "string.len", "value length must be %d", *r.Len)
	}
	if r.MinLen != nil && runeLen < *r.MinLen {
		violate(ctx, "string.min_len", "value length must be at least %d", *r.MinLen)
	}
	if r.MaxLen != nil && runeLen > *r.MaxLen {
		violate(ctx, "string.max_len", "value length must be at most %d", *r.MaxLen)
	}
	if r.LenBytes != nil && byteLen != *r.LenBytes {
		violate(ctx, "string.len_bytes", "value byte length must be %d", *r.LenBytes)
	}
	if r.MinBytes != nil && byteLen < *r.MinBytes {
		violate(ctx, "string.min_bytes", "value byte length must be at least %d", *r.MinBytes)
	}
	if r.MaxBytes != nil && byteLen > *r.MaxBytes {
		violate(ctx, "string.max_bytes", "value byte length must be at most %d", *r.MaxBytes)
	}
	if r.Pattern != nil {
		if re, err := regexp.Compile(*r.Pattern); err == nil && !re.MatchString(s) {
			violate(ctx, "string.pattern", "value must match pattern %q", *r.Pattern)
		}
	}
	if r.Prefix != nil && !strings.HasPrefix(s, *r.Prefix) {
		violate(ctx, "string.prefix", "value must start with %q", *r.Prefix)
	}
	if r.Suffix != nil && !strings.HasSuffix(s, *r.Suffix) {
		violate(ctx, "string.suffix", "value must end with %q", *r.Suffix)
	}
	if r.Contains != nil && !strings.Contains(s, *r.Contains) {
		violate(ctx, "string.contains", "value must contain %q", *r.Contains)
	}
	if r.NotContains != nil && strings.Contains(s, *r.NotContains) {
		violate(ctx, "string.not_contains", "value must not contain %q", *r.NotContains)
	}
	if len(r.In) > 0 && !stringIn(s, r.In) {
		violate(ctx, "string.in", "value must be in %v", r.In)
	}
	if len(r.NotIn) > 0 && stringIn(s, r.NotIn) {
		violate(ctx, "string.not_in", "value must not be in %v", r.NotIn)
	}
	if r.Format != ruleschema.FormatUnspecified {
		checkStringFormat(ctx, r.Format, s)
	}
}

func stringIn(s string, set []string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func checkBytes(ctx *Context, r *ruleschema.BytesRules, value any) {
	b, ok := value.([]byte)
	if !ok {
		return
	}
	n := uint64(len(b))
	if r.Len != nil && n != *r.Len {
		violate(ctx, "bytes.len", "value length must be %d", *r.Len)
	}
	if r.MinLen != nil && n < *r.MinLen {
		violate(ctx, "bytes.min_len", "value length must be at least %d", *r.MinLen)
	}
	if r.MaxLen != nil && n > *r.MaxLen {
		violate(ctx, "bytes.max_len", "value length must be at most %d", *r.MaxLen)
	}
	if r.Const != nil && !bytesEqual(b, r.Const) {
		violate(ctx, "bytes.const", "value does not match expected constant")
	}
	if r.Pattern != nil {
		if re, err := regexp.Compile(*r.Pattern); err == nil && !re.Match(b) {
			violate(ctx, "bytes.pattern", "value must match pattern %q", *r.Pattern)
		}
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func checkEnum(ctx *Context, r *ruleschema.EnumRules, value any) {
	v, ok := value.(int64)
	if !ok {
		return
	}
	iv := int32(v)
	if r.Const != nil && iv != *r.Const {
		violate(ctx, "enum.const", "value must equal %d", *r.Const)
	}
	if len(r.In) > 0 && !int32In(iv, r.In) {
		violate(ctx, "enum.in", "value must be in %v", r.In)
	}
	if len(r.NotIn) > 0 && int32In(iv, r.NotIn) {
		violate(ctx, "enum.not_in", "value must not be in %v", r.NotIn)
	}
}

func int32In(v int32, set []int32) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func checkDuration(ctx *Context, r *ruleschema.DurationRules, value any) {
	d, ok := value.(time.Duration)
	if !ok {
		return
	}
	n := d.Nanoseconds()
	if r.HasConst && n != r.ConstNanos {
		violate(ctx, "duration.const", "value must equal %s", time.Duration(r.ConstNanos))
	}
	if r.HasLt && !(n < r.LtNanos) {
		violate(ctx, "duration.lt", "value must be less than %s", time.Duration(r.LtNanos))
	}
	if r.HasLte && !(n <= r.LteNanos) {
		violate(ctx, "duration.lte", "value must be at most %s", time.Duration(r.LteNanos))
	}
	if r.HasGt && !(n > r.GtNanos) {
		violate(ctx, "duration.gt", "value must be greater than %s", time.Duration(r.GtNanos))
	}
	if r.HasGte && !(n >= r.GteNanos) {
		violate(ctx, "duration.gte", "value must be at least %s", time.Duration(r.GteNanos))
	}
	if len(r.In) > 0 && !int64In(n, r.In) {
		violate(ctx, "duration.in", "value must be in the allowed set")
	}
	if len(r.NotIn) > 0 && int64In(n, r.NotIn) {
		violate(ctx, "duration.not_in", "value must not be in the disallowed set")
	}
}

func int64In(v int64, set []int64) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func checkTimestamp(ctx *Context, r *ruleschema.TimestampRules, now time.Time, value any) {
	t, ok := value.(time.Time)
	if !ok {
		return
	}
	n := t.UnixNano()
	if r.HasConst && n != r.ConstUnixNanos {
		violate(ctx, "timestamp.const", "value must equal the required timestamp")
	}
	if r.HasLt && !(n < r.LtUnixNanos) {
		violate(ctx, "timestamp.lt", "value must be before the required timestamp")
	}
	if r.HasLte && !(n <= r.LteUnixNanos) {
		violate(ctx, "timestamp.lte", "value must be at or before the required timestamp")
	}
	if r.HasGt && !(n > r.GtUnixNanos) {
		violate(ctx, "timestamp.gt", "value must be after the required timestamp")
	}
	if r.HasGte && !(n >= r.GteUnixNanos) {
		violate(ctx, "timestamp.gte", "value must be at or after the required timestamp")
	}
	if r.LtNow && !t.Before(now) {
		violate(ctx, "timestamp.lt_now", "value must be in the past")
	}
	if r.GtNow && !t.After(now) {
		violate(ctx, "timestamp.gt_now", "value must be in the future")
	}
	if r.HasWithin {
		delta := t.Sub(now)
		if delta < 0 {
			delta = -delta
		}
		if delta.Nanoseconds() > r.WithinNanos {
			violate(ctx, "timestamp.within", "value must be within the configured window of now")
		}
	}
}

func checkStringFormat(ctx *Context, f ruleschema.StringFormat, s string) {
	name, ok := formatName(f)
	if !ok {
		return
	}
	if !rcel.CheckFormat(name, s) {
		violate(ctx, "string."+name, "value must be a valid %s", name)
	}
}

func formatName(f ruleschema.StringFormat) (string, bool) {
	switch f {
	case ruleschema.FormatEmail:
		return "email", true
	case ruleschema.FormatHostname:
		return "hostname", true
	case ruleschema.FormatIP:
		return "ip", true
	case ruleschema.FormatIPv4:
		return "ipv4", true
	case ruleschema.FormatIPv6:
		return "ipv6", true
	case ruleschema.FormatURI:
		return "uri", true
	case ruleschema.FormatURIRef:
		return "uri_ref", true
	case ruleschema.FormatUUID:
		return "uuid", true
	case ruleschema.FormatIPWithPrefixLen, ruleschema.FormatIPv4WithPrefixLen, ruleschema.FormatIPv6WithPrefixLen:
		return "ip_with_prefixlen", true
	case ruleschema.FormatIPPrefix:
		return "ip_prefix", true
	case ruleschema.FormatIPv4Prefix:
		return "ipv4_prefix", true
	case ruleschema.FormatIPv6Prefix:
		return "ipv6_prefix", true
	case ruleschema.FormatHostAndPort:
		return "host_and_port", true
	case ruleschema.FormatHeaderName:
		return "header_name", true
	case ruleschema.FormatHeaderValue:
		return "header_value", true
	case ruleschema.FormatMediaType:
		return "media_type", true
	default:
		return "", false
	}
}
