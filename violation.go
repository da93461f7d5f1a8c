package fieldrules

import (
	"strconv"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// PathElement is one step of a FieldPath: a field access, a repeated index,
// or a map key. Exactly one of the typed accessors is meaningful, selected
// by the constructor that built it (Field, AtIndex or AtKey).
type PathElement struct {
	FieldName string
	FieldNum  protoreflect.FieldNumber
	Index     int
	MapKey    protoreflect.MapKey
	hasIndex  bool
	hasKey    bool
}

// Field builds a field-access path element.
func Field(fd protoreflect.FieldDescriptor) PathElement {
	return PathElement{FieldName: string(fd.Name()), FieldNum: fd.Number()}
}

// AtIndex builds a repeated-field index path element.
func AtIndex(i int) PathElement {
	return PathElement{Index: i, hasIndex: true}
}

// AtKey builds a map-field key path element.
func AtKey(k protoreflect.MapKey) PathElement {
	return PathElement{MapKey: k, hasKey: true}
}

func (e PathElement) String() string {
	switch {
	case e.hasIndex:
		return "[" + strconv.Itoa(e.Index) + "]"
	case e.hasKey:
		return "[" + e.MapKey.String() + "]"
	default:
		return e.FieldName
	}
}

// FieldPath is an immutable, ordered sequence of PathElements locating a
// value inside a message tree. A violation is recorded with an empty path,
// and the evaluation context prepends elements to it after the fact as
// evaluation returns through each enclosing field (see Context.Mark and
// PushFieldPathElement).
type FieldPath struct {
	elems []PathElement
}

// String renders the path the way protovalidate field paths are usually
// displayed: dot-separated field names with bracketed index/key suffixes,
// e.g. "addresses[2].street".
func (p FieldPath) String() string {
	var b strings.Builder
	for i, e := range p.elems {
		if e.hasIndex || e.hasKey {
			b.WriteString(e.String())
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(e.FieldName)
	}
	return b.String()
}

// Elements returns a copy of the path's elements.
func (p FieldPath) Elements() []PathElement {
	out := make([]PathElement, len(p.elems))
	copy(out, p.elems)
	return out
}

// Violation describes a single rule failure located at a FieldPath, plus
// the identifying fields protovalidate-style conformance output expects:
// the id of the rule that fired (RuleID) and its message.
type Violation struct {
	FieldPath    FieldPath
	RulePath     FieldPath
	RuleID       string
	Message      string
	ForKey       bool
	FieldValue   any
}

// Result is the outcome of a single Validate call.
type Result struct {
	Violations []Violation
}

// Valid reports whether no violations were recorded.
func (r Result) Valid() bool { return len(r.Violations) == 0 }
