package fieldrules

import (
	"time"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// Mark is an opaque position in a Context's violation list, returned by
// Context.Mark and consumed by PushFieldPathElement/PushRulePathElements to
// retroactively patch every violation appended since that position. This
// mirrors huma's PathBuffer, which grows and shrinks a single path buffer
// around a recursive descent; here the growing is deferred until a whole
// subtree of violations already exists, since a field's own rule-level
// errors and its children's nested errors all need the same prefix applied
// once the subtree is done.
type Mark int

// Context is the per-validation evaluator state spec.md calls RuleContext:
// the violation list under construction, the fail-fast switch, and the
// path-patching bookkeeping the compiled node tree uses to build field and
// rule paths from the leaves up rather than threading a path argument
// through every Evaluate call.
type Context struct {
	FailFast   bool
	Violations []Violation

	// Now is the evaluator-bound `now`, captured once per Validate call
	// so every timestamp rule comparison in the tree sees the same
	// instant rather than drifting mid-evaluation.
	Now time.Time

	// Resolve looks up the compiled node list for a nested message
	// descriptor, bound by the Factory so composed (nested-message)
	// validation doesn't require this package to depend on Factory.
	Resolve resolver

	pendingValue map[int]any
}

// NewContext starts a fresh evaluation context.
func NewContext(failFast bool) *Context {
	return &Context{FailFast: failFast, Now: time.Now()}
}

// Mark returns the current length of the violation list, to be passed back
// into PushFieldPathElement/PushRulePathElements once a subtree of
// evaluation has finished appending its violations.
func (c *Context) Mark() Mark { return Mark(len(c.Violations)) }

// ShouldReturn reports whether the caller should stop evaluating siblings:
// true if err is non-nil, or if fail-fast is on and at least one violation
// has been recorded.
func (c *Context) ShouldReturn(err error) bool {
	if err != nil {
		return true
	}
	return c.FailFast && len(c.Violations) > 0
}

// AddViolation appends a violation with an empty path; the enclosing node
// is responsible for calling PushFieldPathElement/PushRulePathElements
// once the subtree completes so the path reads root-to-leaf.
func (c *Context) AddViolation(v Violation) {
	c.Violations = append(c.Violations, v)
}

// PushFieldPathElement prepends elem to the FieldPath of every violation
// appended since since.
func (c *Context) PushFieldPathElement(since Mark, elem PathElement) {
	for i := int(since); i < len(c.Violations); i++ {
		v := &c.Violations[i]
		v.FieldPath.elems = prepend(v.FieldPath.elems, elem)
	}
}

// PushRulePathElements prepends elems, in order, to the RulePath of every
// violation appended since since.
func (c *Context) PushRulePathElements(since Mark, elems ...PathElement) {
	for i := int(since); i < len(c.Violations); i++ {
		v := &c.Violations[i]
		v.RulePath.elems = prependAll(v.RulePath.elems, elems)
	}
}

// MarkForKey flags every violation appended since since as pertaining to a
// map entry's key rather than its value, matching spec.md §4.D's map-entry
// ForKey bookkeeping.
func (c *Context) MarkForKey(since Mark) {
	for i := int(since); i < len(c.Violations); i++ {
		c.Violations[i].ForKey = true
	}
}

// DeferFieldValue stashes an already-bridged value for the violation at
// violationIndex; Finalize copies it onto that violation's FieldValue.
func (c *Context) DeferFieldValue(violationIndex int, value any) {
	if c.pendingValue == nil {
		c.pendingValue = make(map[int]any)
	}
	c.pendingValue[violationIndex] = value
}

// Finalize realises any deferred field-value captures onto their
// violations. Call once after a top-level Evaluate returns successfully.
func (c *Context) Finalize() {
	for i, v := range c.pendingValue {
		if i < len(c.Violations) {
			c.Violations[i].FieldValue = v
		}
	}
}

func prepend(elems []PathElement, e PathElement) []PathElement {
	out := make([]PathElement, 0, len(elems)+1)
	out = append(out, e)
	out = append(out, elems...)
	return out
}

func prependAll(elems []PathElement, es []PathElement) []PathElement {
	out := make([]PathElement, 0, len(elems)+len(es))
	out = append(out, es...)
	out = append(out, elems...)
	return out
}

// resolver is the callback a Context-independent node uses to fetch a
// submessage's compiled node list from the owning Factory during composed
// (nested-message) validation, without the node package depending on
// Factory directly.
type resolver func(protoreflect.MessageDescriptor) ([]node, error)
