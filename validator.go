package fieldrules

import "google.golang.org/protobuf/reflect/protoreflect"

// Validator is a scoped evaluator handle bound to one Factory, matching
// spec.md §4.G's new_validator API and §5's "Validator is single-threaded
// per instance" rule: do not call Validate concurrently on the same
// Validator, though many Validators may share one Factory safely.
type Validator struct {
	factory  *Factory
	failFast bool
}

// Validate looks up (or lazily compiles) the node tree for msg's
// descriptor and evaluates it, returning the accumulated violations. A
// non-nil error is always a *Error carrying a Kind from spec.md §7; a nil
// error with a non-empty Result.Violations means validation ran to
// completion and found problems, which is a success from the evaluator's
// point of view.
func (v *Validator) Validate(msg protoreflect.Message) (Result, error) {
	nodes, err := v.factory.Get(msg.Descriptor())
	if err != nil {
		return Result{}, err
	}

	ctx := NewContext(v.failFast)
	ctx.Resolve = v.factory.resolveFor()

	for _, n := range nodes {
		if err := n.Evaluate(ctx, msg); err != nil {
			return Result{}, err
		}
		if ctx.ShouldReturn(nil) {
			break
		}
	}
	ctx.Finalize()
	return Result{Violations: ctx.Violations}, nil
}
