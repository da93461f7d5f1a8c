package fieldrules

import "google.golang.org/protobuf/reflect/protoreflect"

// oneofNode is spec.md's Oneof node: if required and no member field of
// the proto oneof is set, emit a required violation. No path element is
// added, so the violation sits at the containing message's own path.
type oneofNode struct {
	od       protoreflect.OneofDescriptor
	required bool
}

func (n *oneofNode) Evaluate(ctx *Context, msg protoreflect.Message) error {
	if !n.required {
		return nil
	}
	if msg.WhichOneof(n.od) != nil {
		return nil
	}
	violate(ctx, "required", "exactly one field of oneof "+string(n.od.Name())+" must be set")
	return nil
}
