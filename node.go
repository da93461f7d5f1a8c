package fieldrules

import (
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/fieldrules/fieldrules/rcel"
)

// node is the compiled-node contract of spec.md §4.D, translated to Go
// casing. Every node kind (message, field, enum, repeated, map, oneof,
// messageoneof) implements Evaluate against the message instance it was
// compiled for.
type node interface {
	Evaluate(ctx *Context, msg protoreflect.Message) error
}

// compiledExpr is spec.md's CompiledExpr: an immutable, already-parsed
// expression plus the id/message pair used to render a violation and the
// rule-path prefix identifying where in the rule annotation this
// expression came from (e.g. "FieldRules.cel[0]").
type compiledExpr struct {
	id       string
	message  string
	program  cel.Program
	rulePath []PathElement
	ruleVal  any // value bound to `rule` when evaluating, nil if none
}

// exprHost is embedded by every node kind that carries a list of
// compiledExprs, giving them evaluateExpressions for free — mirroring how
// spec.md describes evaluate_expressions as "shared helper" rather than
// being duplicated per node kind.
type exprHost struct {
	exprs []compiledExpr
}

// evaluateExpressions runs every compiledExpr against an activation with
// `this` bound to this, `rules` bound to rulesLiteral (the node's own
// rule-literal value, e.g. the StringRules struct converted to a map), and
// `rule` bound per-expression when the expression carries one. It returns
// the Mark marking where new violations begin, so the caller can patch
// field/rule paths and value captures once the whole node's evaluation
// finishes, per spec.md step 4 of evaluate_expressions.
func (h *exprHost) evaluateExpressions(ctx *Context, this any, rulesLiteral any, now any) (Mark, error) {
	start := ctx.Mark()
	for _, ce := range h.exprs {
		if ctx.ShouldReturn(nil) {
			break
		}
		act := rcel.Activation{This: this, Rules: rulesLiteral, Rule: ce.ruleVal, Now: now}
		val, err := rcel.Eval(ce.program, act)
		if err != nil {
			return start, RuntimeErrorWrap(err, "evaluating expression %q", ce.id)
		}
		if err := recordExprResult(ctx, ce, val); err != nil {
			return start, err
		}
	}
	return start, nil
}

// recordExprResult implements step 3 of spec.md's evaluate_expressions:
// bool(false) emits a violation using the expression's own message/id,
// a non-empty string result emits a violation using the string as the
// message, and bool(true) or "" emit nothing. Any other result type is a
// compiler/rule-author error surfaced as a runtime error.
func recordExprResult(ctx *Context, ce compiledExpr, val ref.Val) error {
	switch v := val.Value().(type) {
	case bool:
		if !v {
			ctx.AddViolation(Violation{
				RuleID:   ce.id,
				Message:  ce.message,
				RulePath: FieldPath{elems: append([]PathElement{}, ce.rulePath...)},
			})
		}
	case string:
		if v != "" {
			ctx.AddViolation(Violation{
				RuleID:   ce.id,
				Message:  v,
				RulePath: FieldPath{elems: append([]PathElement{}, ce.rulePath...)},
			})
		}
	default:
		return RuntimeError("expression %q produced non-bool/non-string result", ce.id)
	}
	return nil
}
