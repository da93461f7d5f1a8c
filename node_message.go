package fieldrules

import "google.golang.org/protobuf/reflect/protoreflect"

// composedExcluded names the well-known message types composed
// (nested-message) validation never recurses into: Any is validated by
// its own any_rules check (node_any.go), not by walking its packed
// message; Duration/Timestamp/wrapper types are leaf scalars as far as
// this engine's rule language is concerned.
var composedExcluded = map[protoreflect.FullName]bool{
	"google.protobuf.Any":        true,
	"google.protobuf.Duration":   true,
	"google.protobuf.Timestamp":  true,
	"google.protobuf.BoolValue":   true,
	"google.protobuf.Int32Value":  true,
	"google.protobuf.Int64Value":  true,
	"google.protobuf.UInt32Value": true,
	"google.protobuf.UInt64Value": true,
	"google.protobuf.FloatValue":  true,
	"google.protobuf.DoubleValue": true,
	"google.protobuf.StringValue": true,
	"google.protobuf.BytesValue":  true,
}

// messageNode is spec.md's Message node: binds this = message and runs
// the message-level free-form expressions. It additionally drives
// composed validation — recursing into every populated message-kind field
// (singular, repeated, or map-valued) that isn't one of composedExcluded,
// whether or not that field itself carries a rule annotation, resolving
// each submessage's own compiled node list through ctx.Resolve. This is
// how a nested message's rules fire without the caller having to walk the
// tree by hand.
type messageNode struct {
	exprHost
	desc          protoreflect.MessageDescriptor
	composed      []protoreflect.FieldDescriptor
}

func (n *messageNode) Evaluate(ctx *Context, msg protoreflect.Message) error {
	if _, err := n.evaluateExpressions(ctx, BridgeMessageForThis(msg), nil, ctx.Now); err != nil {
		return err
	}
	if ctx.ShouldReturn(nil) {
		return nil
	}

	for _, fd := range n.composed {
		if err := n.evaluateComposedField(ctx, msg, fd); err != nil {
			return err
		}
		if ctx.ShouldReturn(nil) {
			return nil
		}
	}
	return nil
}

func (n *messageNode) evaluateComposedField(ctx *Context, msg protoreflect.Message, fd protoreflect.FieldDescriptor) error {
	switch {
	case fd.IsMap():
		if fd.MapValue().Kind() != protoreflect.MessageKind && fd.MapValue().Kind() != protoreflect.GroupKind {
			return nil
		}
		m := msg.Get(fd).Map()
		var rangeErr error
		m.Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
			sub := v.Message()
			if !sub.IsValid() || composedExcluded[sub.Descriptor().FullName()] {
				return true
			}
			nodes, err := ctx.Resolve(sub.Descriptor())
			if err != nil {
				rangeErr = err
				return false
			}
			mark := ctx.Mark()
			for _, cn := range nodes {
				if err := cn.Evaluate(ctx, sub); err != nil {
					rangeErr = err
					return false
				}
				if ctx.ShouldReturn(nil) {
					break
				}
			}
			ctx.PushFieldPathElement(mark, AtKey(k))
			ctx.PushFieldPathElement(mark, Field(fd))
			return !ctx.ShouldReturn(nil)
		})
		return rangeErr

	case fd.IsList():
		if fd.Kind() != protoreflect.MessageKind && fd.Kind() != protoreflect.GroupKind {
			return nil
		}
		l := msg.Get(fd).List()
		for i := 0; i < l.Len(); i++ {
			sub := l.Get(i).Message()
			if !sub.IsValid() || composedExcluded[sub.Descriptor().FullName()] {
				continue
			}
			nodes, err := ctx.Resolve(sub.Descriptor())
			if err != nil {
				return err
			}
			mark := ctx.Mark()
			for _, cn := range nodes {
				if err := cn.Evaluate(ctx, sub); err != nil {
					return err
				}
				if ctx.ShouldReturn(nil) {
					break
				}
			}
			ctx.PushFieldPathElement(mark, AtIndex(i))
			ctx.PushFieldPathElement(mark, Field(fd))
			if ctx.ShouldReturn(nil) {
				return nil
			}
		}
		return nil

	default:
		if fd.Kind() != protoreflect.MessageKind && fd.Kind() != protoreflect.GroupKind {
			return nil
		}
		if !msg.Has(fd) {
			return nil
		}
		sub := msg.Get(fd).Message()
		if !sub.IsValid() || composedExcluded[sub.Descriptor().FullName()] {
			return nil
		}
		nodes, err := ctx.Resolve(sub.Descriptor())
		if err != nil {
			return err
		}
		mark := ctx.Mark()
		for _, cn := range nodes {
			if err := cn.Evaluate(ctx, sub); err != nil {
				return err
			}
			if ctx.ShouldReturn(nil) {
				break
			}
		}
		ctx.PushFieldPathElement(mark, Field(fd))
		return nil
	}
}
