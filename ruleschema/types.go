// Package ruleschema defines the rule annotation types the compiler reads
// off a message descriptor. A real protobuf deployment of this system
// would carry these as custom FieldOptions/MessageOptions/OneofOptions
// extension messages, looked up by extension number the way the original
// C++ implementation's buf.validate.* options do. Registering and
// resolving extensions against a live descriptor pool is exactly the kind
// of schema/reflection substrate this project treats as an external
// collaborator (see the package doc for fieldrules) — so this package
// plays that role with plain, hand-written Go structs plus a small Source
// interface the compiler queries, rather than pulling in protoc-generated
// extension machinery.
package ruleschema

// Ignore controls whether a field-level annotation is evaluated at all.
type Ignore int

const (
	// IgnoreUnspecified evaluates the field's rules unconditionally
	// (besides the ordinary ignore_empty/ignore_default handling).
	IgnoreUnspecified Ignore = iota
	// IgnoreIfUnpopulated skips rules when the field has no explicit
	// presence (unset, or set to its zero value for proto3 scalars
	// without presence tracking).
	IgnoreIfUnpopulated
	// IgnoreIfDefaultValue skips rules when the field's value equals the
	// field's declared default, regardless of presence.
	IgnoreIfDefaultValue
	// IgnoreAlways removes the field from compilation entirely: no node
	// is produced for it, and it is excluded from MessageOneof overrides.
	IgnoreAlways
)

// FieldConstraints is the rule annotation attached to a single field. Only
// one of the typed rule structs below should be non-nil, matching the
// "rule case" oneof spec.md describes; Cel carries free-form expressions
// that apply regardless of rule case.
type FieldConstraints struct {
	Required     bool
	IgnoreEmpty  bool
	IgnoreDefault bool
	Ignore       Ignore

	Bool      *BoolRules
	Numeric   *NumericRules // shared by float, double, int32, int64, uint32, uint64, sint32, sint64, fixed32, fixed64, sfixed32, sfixed64
	String    *StringRules
	Bytes     *BytesRules
	Enum      *EnumRules
	Repeated  *RepeatedRules
	Map       *MapRules
	Any       *AnyRules
	Duration  *DurationRules
	Timestamp *TimestampRules

	Cel []CelExpr
}

// HasTypedRule reports whether any typed rule case is set.
func (f *FieldConstraints) HasTypedRule() bool {
	if f == nil {
		return false
	}
	return f.Bool != nil || f.Numeric != nil || f.String != nil || f.Bytes != nil ||
		f.Enum != nil || f.Repeated != nil || f.Map != nil || f.Any != nil ||
		f.Duration != nil || f.Timestamp != nil
}

// CelExpr is a free-form expression attached to a rule annotation,
// mirroring spec.md's `{id, message, expression}` RuleAnnotation shape.
type CelExpr struct {
	ID         string
	Message    string
	Expression string
}

// BoolRules constrains a bool-typed field.
type BoolRules struct {
	Const    *bool
	HasConst bool
}

// NumericRules unifies the twelve numeric wire-type rule cases
// (float/double/int32/int64/uint32/uint64/sint32/sint64/fixed32/fixed64/
// sfixed32/sfixed64) into a single float64-based struct. protovalidate's
// C++/proto source keeps these as twelve near-identical generated
// messages because each is generated from a distinct proto field type;
// since this module hand-writes the annotation structs rather than
// generating them, there is no generator forcing twelve copies of the
// same six comparisons, so they collapse into one generic rule set
// applied after converting the field's concrete numeric kind to float64
// for comparison purposes (exact integers up to 2^53 round-trip losslessly).
type NumericRules struct {
	Const    float64
	HasConst bool
	Lt       float64
	HasLt    bool
	Lte      float64
	HasLte   bool
	Gt       float64
	HasGt    bool
	Gte      float64
	HasGte   bool
	In       []float64
	NotIn    []float64
	Finite   bool // reject NaN/Inf (float/double only)
}

// StringRules constrains a string-typed field.
type StringRules struct {
	Const      *string
	Len        *uint64
	MinLen     *uint64
	MaxLen     *uint64
	LenBytes   *uint64
	MinBytes   *uint64
	MaxBytes   *uint64
	Pattern    *string
	Prefix     *string
	Suffix     *string
	Contains   *string
	NotContains *string
	In         []string
	NotIn      []string
	Format     StringFormat
}

// StringFormat names a well-known string format check, matching the
// `format` built-in's recognized names.
type StringFormat int

const (
	FormatUnspecified StringFormat = iota
	FormatEmail
	FormatHostname
	FormatIP
	FormatIPv4
	FormatIPv6
	FormatURI
	FormatURIRef
	FormatUUID
	FormatIPWithPrefixLen
	FormatIPv4WithPrefixLen
	FormatIPv6WithPrefixLen
	FormatIPPrefix
	FormatIPv4Prefix
	FormatIPv6Prefix
	FormatHostAndPort
	FormatHeaderName
	FormatHeaderValue
	FormatMediaType
)

// BytesRules constrains a bytes-typed field. The evaluator checks Const,
// Len, MinLen, MaxLen and Pattern; Prefix, Suffix, Contains, In, NotIn, IP,
// IPv4 and IPv6 are carried but not checked.
type BytesRules struct {
	Const    []byte
	Len      *uint64
	MinLen   *uint64
	MaxLen   *uint64
	Pattern  *string
	Prefix   []byte
	Suffix   []byte
	Contains []byte
	In       [][]byte
	NotIn    [][]byte
	IP       bool
	IPv4     bool
	IPv6     bool
}

// EnumRules constrains an enum-typed field.
type EnumRules struct {
	Const       *int32
	DefinedOnly bool
	In          []int32
	NotIn       []int32
}

// RepeatedRules constrains a repeated field and describes its item rules.
type RepeatedRules struct {
	MinItems *uint64
	MaxItems *uint64
	Unique   bool
	Items    *FieldConstraints
}

// MapRules constrains a map field and describes its key/value rules.
type MapRules struct {
	MinPairs *uint64
	MaxPairs *uint64
	Keys     *FieldConstraints
	Values   *FieldConstraints
}

// AnyRules constrains a google.protobuf.Any field's type_url.
type AnyRules struct {
	In    []string
	NotIn []string
}

// DurationRules constrains a google.protobuf.Duration field. Comparisons
// are expressed in nanoseconds for uniformity.
type DurationRules struct {
	ConstNanos int64
	HasConst   bool
	LtNanos    int64
	HasLt      bool
	LteNanos   int64
	HasLte     bool
	GtNanos    int64
	HasGt      bool
	GteNanos   int64
	HasGte     bool
	In         []int64
	NotIn      []int64
}

// TimestampRules constrains a google.protobuf.Timestamp field. Comparisons
// are expressed in Unix nanoseconds for uniformity; LtNow/GtNow/WithinNanos
// compare against the evaluator-bound `now`.
type TimestampRules struct {
	ConstUnixNanos int64
	HasConst       bool
	LtUnixNanos    int64
	HasLt          bool
	LteUnixNanos   int64
	HasLte         bool
	GtUnixNanos    int64
	HasGt          bool
	GteUnixNanos   int64
	HasGte         bool
	LtNow          bool
	GtNow          bool
	WithinNanos    int64
	HasWithin      bool
}

// OneofConstraints is the rule annotation attached to a oneof declaration.
type OneofConstraints struct {
	Required bool
}

// MessageConstraints is the rule annotation attached to a whole message.
type MessageConstraints struct {
	Disabled bool
	Cel      []CelExpr
	Oneofs   []MessageOneofConstraint
}

// MessageOneofConstraint names a synthetic multi-field coupling: at most
// (and, if Required, at least) one of Fields may be populated.
type MessageOneofConstraint struct {
	Fields   []string
	Required bool
}
