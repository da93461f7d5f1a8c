package fieldrules

import "google.golang.org/protobuf/reflect/protoreflect"

// enumNode extends fieldNode with the defined_only check spec.md §4.D
// describes: after the ordinary field-level checks and expressions run,
// if defined_only is set and the field's numeric value isn't one of the
// enum's declared value numbers, emit enum.defined_only.
type enumNode struct {
	fieldNode
	definedOnly bool
}

func (n *enumNode) Evaluate(ctx *Context, msg protoreflect.Message) error {
	if err := n.fieldNode.Evaluate(ctx, msg); err != nil {
		return err
	}
	if !n.definedOnly || !msg.Has(n.fd) {
		return nil
	}
	v := msg.Get(n.fd).Enum()
	if n.fd.Enum().Values().ByNumber(v) == nil {
		mark := ctx.Mark()
		violate(ctx, "enum.defined_only", "value must be one of the defined enum values")
		ctx.PushFieldPathElement(mark, Field(n.fd))
	}
	return nil
}
