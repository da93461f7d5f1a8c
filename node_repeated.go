package fieldrules

import (
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/fieldrules/fieldrules/rcel"
	"github.com/fieldrules/fieldrules/ruleschema"
)

// repeatedNode is spec.md's Repeated node: extends the field node's
// required/ignore_empty handling over the whole list, runs list-level
// free-form expressions (min_items/max_items/unique are structured
// container checks, handled directly rather than via CEL), then evaluates
// each item against the item sub-rules, prepending the item's index to
// the field path and the {RepeatedRules.items, FieldRules.repeated} rule
// path prefix spec.md calls for.
type repeatedNode struct {
	exprHost // list-level free-form expressions
	fd            protoreflect.FieldDescriptor
	required      bool
	ignoreEmpty   bool
	repeatedRules *ruleschema.RepeatedRules
	itemRC        *ruleschema.FieldConstraints
	itemAnyRules  *ruleschema.AnyRules
	itemExprs     []compiledExpr
}

var itemsRulePath = []PathElement{{FieldName: "RepeatedRules.items"}, {FieldName: "FieldRules.repeated"}}

func (n *repeatedNode) Evaluate(ctx *Context, msg protoreflect.Message) error {
	l := msg.Get(n.fd).List()
	if l.Len() == 0 {
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
	checkRepeatedContainer(ctx, n.repeatedRules, l)
	listLiteral := rcel.BridgeField(msg, n.fd)
	if _, err := n.evaluateExpressions(ctx, listLiteral, ruleLiteralAny(n.repeatedRules), ctx.Now); err != nil {
		return err
	}
	if ctx.Mark() != mark {
		ctx.PushFieldPathElement(mark, Field(n.fd))
	}
	if ctx.ShouldReturn(nil) {
		return nil
	}

	isItemMessage := n.fd.Kind() == protoreflect.MessageKind || n.fd.Kind() == protoreflect.GroupKind
	for i := 0; i < l.Len(); i++ {
		itemMark := ctx.Mark()
		item := l.Get(i)

		if isItemMessage && n.itemAnyRules != nil {
			evaluateAnyRules(ctx, n.itemAnyRules, item.Message())
		} else if !isItemMessage {
			value := rcel.BridgeValue(item, n.fd)
			evaluateScalarChecks(ctx, n.itemRC, value)
			for _, ce := range n.itemExprs {
				act := rcel.Activation{This: value, Rules: ruleLiteral(n.itemRC), Rule: ce.ruleVal, Now: ctx.Now}
				val, err := rcel.Eval(ce.program, act)
				if err != nil {
					return RuntimeErrorWrap(err, "evaluating item expression %q", ce.id)
				}
				if err := recordExprResult(ctx, ce, val); err != nil {
					return err
				}
				if ctx.ShouldReturn(nil) {
					break
				}
			}
		}

		if ctx.Mark() != itemMark {
			ctx.PushRulePathElements(itemMark, itemsRulePath...)
			ctx.PushFieldPathElement(itemMark, AtIndex(i))
			ctx.PushFieldPathElement(itemMark, Field(n.fd))
		}
		if ctx.ShouldReturn(nil) {
			return nil
		}
	}
	return nil
}

func checkRepeatedContainer(ctx *Context, r *ruleschema.RepeatedRules, l protoreflect.List) {
	if r == nil {
		return
	}
	n := uint64(l.Len())
	if r.MinItems != nil && n < *r.MinItems {
		violate(ctx, "repeated.min_items", "value must contain at least %d items", *r.MinItems)
	}
	if r.MaxItems != nil && n > *r.MaxItems {
		violate(ctx, "repeated.max_items", "value must contain at most %d items", *r.MaxItems)
	}
	if r.Unique {
		seen := make(map[any]struct{}, l.Len())
		for i := 0; i < l.Len(); i++ {
			key := l.Get(i).Interface()
			if b, ok := key.([]byte); ok {
				key = string(b)
			}
			if _, dup := seen[key]; dup {
				violate(ctx, "repeated.unique", "value must contain unique items")
				return
			}
			seen[key] = struct{}{}
		}
	}
}
