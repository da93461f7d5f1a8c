package fieldrules

import (
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// messageOneofNode is spec.md's MessageOneof node: a message-level
// constraint coupling an arbitrary list of fields (not necessarily a
// proto oneof) so that at most one — and, if required, at least one — of
// them is populated.
type messageOneofNode struct {
	fields   []protoreflect.FieldDescriptor
	required bool
}

func (n *messageOneofNode) Evaluate(ctx *Context, msg protoreflect.Message) error {
	var set []string
	for _, fd := range n.fields {
		if msg.Has(fd) {
			set = append(set, string(fd.Name()))
		}
	}
	if len(set) > 1 {
		violate(ctx, "message.oneof", "only one of %s can be set", strings.Join(fieldNames(n.fields), ", "))
	} else if n.required && len(set) == 0 {
		violate(ctx, "message.oneof", "one of %s must be set", strings.Join(fieldNames(n.fields), ", "))
	}
	return nil
}

func fieldNames(fds []protoreflect.FieldDescriptor) []string {
	out := make([]string, len(fds))
	for i, fd := range fds {
		out[i] = string(fd.Name())
	}
	return out
}
