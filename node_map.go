package fieldrules

import (
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/fieldrules/fieldrules/rcel"
	"github.com/fieldrules/fieldrules/ruleschema"
)

// mapNode is spec.md's Map node: container-level required/ignore_empty
// and min_pairs/max_pairs checks, map-level free-form expressions, then
// per-entry key and value sub-rule evaluation, each tagged with its own
// rule-path prefix and, for keys, ForKey marked on the resulting
// violations.
type mapNode struct {
	exprHost
	fd            protoreflect.FieldDescriptor
	required      bool
	ignoreEmpty   bool
	mapRules      *ruleschema.MapRules
	keyRC         *ruleschema.FieldConstraints
	valueRC       *ruleschema.FieldConstraints
	valueAnyRules *ruleschema.AnyRules
	keyExprs      []compiledExpr
	valueExprs    []compiledExpr
}

var keysRulePath = []PathElement{{FieldName: "MapRules.keys"}, {FieldName: "FieldRules.map"}}
var valuesRulePath = []PathElement{{FieldName: "MapRules.values"}, {FieldName: "FieldRules.map"}}

func (n *mapNode) Evaluate(ctx *Context, msg protoreflect.Message) error {
	m := msg.Get(n.fd).Map()
	if m.Len() == 0 {
		if n.ignoreEmpty {
			return nil
		}
		if n.required {
			mark := ctx.Mark()
			violate(ctx, "required", "value is required")
			ctx.PushFieldPathElement(mark, Field(n.fd))
			return nil
		}
	}

	mark := ctx.Mark()
	checkMapContainer(ctx, n.mapRules, m)
	mapLiteral := rcel.BridgeField(msg, n.fd)
	if _, err := n.evaluateExpressions(ctx, mapLiteral, ruleLiteralAny(n.mapRules), ctx.Now); err != nil {
		return err
	}
	if ctx.Mark() != mark {
		ctx.PushFieldPathElement(mark, Field(n.fd))
	}
	if ctx.ShouldReturn(nil) {
		return nil
	}

	keyFD := n.fd.MapKey()
	valFD := n.fd.MapValue()
	isValueMessage := valFD.Kind() == protoreflect.MessageKind || valFD.Kind() == protoreflect.GroupKind

	var rangeErr error
	m.Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
		entryMark := ctx.Mark()

		if n.keyRC != nil || len(n.keyExprs) > 0 {
			keyMark := ctx.Mark()
			keyVal := rcel.BridgeValue(k.Value(), keyFD)
			evaluateScalarChecks(ctx, n.keyRC, keyVal)
			for _, ce := range n.keyExprs {
				act := rcel.Activation{This: keyVal, Rules: ruleLiteral(n.keyRC), Rule: ce.ruleVal, Now: ctx.Now}
				val, err := rcel.Eval(ce.program, act)
				if err != nil {
					rangeErr = RuntimeErrorWrap(err, "evaluating map key expression %q", ce.id)
					return false
				}
				if err := recordExprResult(ctx, ce, val); err != nil {
					rangeErr = err
					return false
				}
			}
			if ctx.Mark() != keyMark {
				ctx.PushRulePathElements(keyMark, keysRulePath...)
				ctx.MarkForKey(keyMark)
			}
		}

		if isValueMessage && n.valueAnyRules != nil {
			evaluateAnyRules(ctx, n.valueAnyRules, v.Message())
		} else if !isValueMessage {
			valMark := ctx.Mark()
			val := rcel.BridgeValue(v, valFD)
			evaluateScalarChecks(ctx, n.valueRC, val)
			for _, ce := range n.valueExprs {
				act := rcel.Activation{This: val, Rules: ruleLiteral(n.valueRC), Rule: ce.ruleVal, Now: ctx.Now}
				out, err := rcel.Eval(ce.program, act)
				if err != nil {
					rangeErr = RuntimeErrorWrap(err, "evaluating map value expression %q", ce.id)
					return false
				}
				if err := recordExprResult(ctx, ce, out); err != nil {
					rangeErr = err
					return false
				}
			}
			if ctx.Mark() != valMark {
				ctx.PushRulePathElements(valMark, valuesRulePath...)
			}
		}

		if ctx.Mark() != entryMark {
			ctx.PushFieldPathElement(entryMark, AtKey(k))
			ctx.PushFieldPathElement(entryMark, Field(n.fd))
		}
		return !ctx.ShouldReturn(nil)
	})
	return rangeErr
}

func checkMapContainer(ctx *Context, r *ruleschema.MapRules, m protoreflect.Map) {
	if r == nil {
		return
	}
	n := uint64(m.Len())
	if r.MinPairs != nil && n < *r.MinPairs {
		violate(ctx, "map.min_pairs", "value must contain at least %d entries", *r.MinPairs)
	}
	if r.MaxPairs != nil && n > *r.MaxPairs {
		violate(ctx, "map.max_pairs", "value must contain at most %d entries", *r.MaxPairs)
	}
}
