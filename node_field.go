package fieldrules

import (
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/fieldrules/fieldrules/rcel"
	"github.com/fieldrules/fieldrules/ruleschema"
)

// fieldNode is spec.md's Field node for a singular (non-repeated,
// non-map) field: presence/required handling, ignore_empty/ignore_default
// short-circuiting, the any_rules Any-URL check for message fields, the
// structured predicate checks (evaluateScalarChecks), and the free-form
// CEL expressions (exprHost), applied in the order spec.md §4.D lists for
// the Singular case.
type fieldNode struct {
	exprHost
	fd       protoreflect.FieldDescriptor
	rc       *ruleschema.FieldConstraints
	anyRules *ruleschema.AnyRules
}

func (n *fieldNode) Evaluate(ctx *Context, msg protoreflect.Message) error {
	fd := n.fd
	has := msg.Has(fd)

	if !has {
		if n.rc != nil && n.rc.Required {
			mark := ctx.Mark()
			violate(ctx, "required", "value is required")
			ctx.PushFieldPathElement(mark, Field(fd))
		}
		// A field without explicit presence reports has=false whenever its
		// value equals the type's zero value, but the zero value still
		// owns its own rules (a `const: 0` on a plain int32 has to fire),
		// so only fields with real presence, or rules that ask to skip
		// unpopulated values (ignore_empty / IgnoreIfUnpopulated),
		// short-circuit here; other implicit ones fall through below.
		if fd.HasPresence() || (n.rc != nil && (n.rc.IgnoreEmpty || n.rc.Ignore == ruleschema.IgnoreIfUnpopulated)) {
			return nil
		}
	}

	isMessage := fd.Kind() == protoreflect.MessageKind || fd.Kind() == protoreflect.GroupKind
	if isMessage && n.anyRules == nil {
		// Message-typed fields (other than Any) carry no scalar rules of
		// their own; composed validation of their contents happens via
		// messageNode, not here.
		return nil
	}

	mark := ctx.Mark()

	if isMessage && n.anyRules != nil {
		sub := msg.Get(fd).Message()
		evaluateAnyRules(ctx, n.anyRules, sub)
	} else {
		value := rcel.BridgeField(msg, fd)
		if n.rc != nil && (n.rc.IgnoreDefault || n.rc.Ignore == ruleschema.IgnoreIfDefaultValue) && isDefaultValue(fd, msg) {
			return nil
		}
		evaluateScalarChecks(ctx, n.rc, value)
		if _, err := n.evaluateExpressions(ctx, value, ruleLiteral(n.rc), ctx.Now); err != nil {
			return err
		}
	}

	if ctx.Mark() != mark {
		ctx.PushFieldPathElement(mark, Field(fd))
	}
	return nil
}

// isDefaultValue reports whether msg's value for fd equals the field's
// declared default — only meaningful for scalar proto3 fields without
// explicit presence tracking, matching spec.md's ignore_default semantics.
func isDefaultValue(fd protoreflect.FieldDescriptor, msg protoreflect.Message) bool {
	return msg.Get(fd).Equal(fd.Default())
}
