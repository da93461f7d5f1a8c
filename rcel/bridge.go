package rcel

import (
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// BridgeField implements the value bridge of spec.md §4.C:
// (message, field) -> the runtime's dynamic value. Map
// fields become map[any]any views, repeated fields become []any views
// (materialized eagerly here rather than lazily, since CEL's own list/map
// traits already defer per-element conversion), singular scalar fields
// become their native Go scalar, and singular message fields are bridged
// through BridgeMessage so well-known wrapper/Duration/Timestamp types
// unwrap to CEL-native values.
func BridgeField(msg protoreflect.Message, fd protoreflect.FieldDescriptor) any {
	if fd.IsMap() {
		return bridgeMap(msg.Get(fd).Map(), fd)
	}
	if fd.IsList() {
		return bridgeList(msg.Get(fd).List(), fd)
	}
	return BridgeValue(msg.Get(fd), fd)
}

func bridgeMap(m protoreflect.Map, fd protoreflect.FieldDescriptor) map[any]any {
	keyFD := fd.MapKey()
	valFD := fd.MapValue()
	out := make(map[any]any, m.Len())
	m.Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
		out[BridgeValue(k.Value(), keyFD)] = BridgeValue(v, valFD)
		return true
	})
	return out
}

func bridgeList(l protoreflect.List, fd protoreflect.FieldDescriptor) []any {
	out := make([]any, l.Len())
	for i := 0; i < l.Len(); i++ {
		out[i] = BridgeValue(l.Get(i), fd)
	}
	return out
}

// BridgeValue converts a single protoreflect.Value of the given field's
// kind into a CEL-friendly dynamic value.
func BridgeValue(v protoreflect.Value, fd protoreflect.FieldDescriptor) any {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return v.Bool()
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return v.Int()
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return v.Uint()
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		return v.Float()
	case protoreflect.StringKind:
		return v.String()
	case protoreflect.BytesKind:
		return v.Bytes()
	case protoreflect.EnumKind:
		return int64(v.Enum())
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return BridgeMessage(v.Message())
	default:
		return v.Interface()
	}
}

// BridgeMessage bridges a whole message value, special-casing the
// well-known types spec.md §4.E.4.c calls out for scalar-rule type
// checking: Duration and Timestamp become CEL-native time values,
// wrapper messages (google.protobuf.*Value) unwrap to their single
// scalar field, and every other message becomes a map[string]any keyed by
// field name, letting CEL's dot-selection and `has()` work over it
// without registering the concrete proto type with the environment.
func BridgeMessage(m protoreflect.Message) any {
	if !m.IsValid() {
		return nil
	}
	full := m.Descriptor().FullName()
	switch full {
	case "google.protobuf.Duration":
		d := &durationpb.Duration{}
		copyScalarFields(m, d.ProtoReflect())
		return d.AsDuration()
	case "google.protobuf.Timestamp":
		t := &timestamppb.Timestamp{}
		copyScalarFields(m, t.ProtoReflect())
		return t.AsTime()
	}
	if v, ok := bridgeWellKnownWrapper(m); ok {
		return v
	}
	return bridgeGenericMessage(m)
}

// copyScalarFields copies m's populated fields onto dst by field number;
// used only to hand well-known Duration/Timestamp values, which are
// always backed by int32/int64 seconds/nanos fields regardless of whether
// m is a generated or dynamicpb message, to their concrete Go wrapper
// types so AsDuration/AsTime can be called.
func copyScalarFields(src, dst protoreflect.Message) {
	src.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		dstFD := dst.Descriptor().Fields().ByNumber(fd.Number())
		if dstFD != nil {
			dst.Set(dstFD, v)
		}
		return true
	})
}

func bridgeWellKnownWrapper(m protoreflect.Message) (any, bool) {
	full := string(m.Descriptor().FullName())
	switch full {
	case "google.protobuf.BoolValue", "google.protobuf.Int32Value", "google.protobuf.Int64Value",
		"google.protobuf.UInt32Value", "google.protobuf.UInt64Value", "google.protobuf.FloatValue",
		"google.protobuf.DoubleValue", "google.protobuf.StringValue", "google.protobuf.BytesValue":
		fd := m.Descriptor().Fields().ByNumber(1)
		if fd == nil {
			return nil, false
		}
		return BridgeValue(m.Get(fd), fd), true
	default:
		return nil, false
	}
}

// bridgeGenericMessage builds the map[string]any CEL sees for "this" (or a
// composed submessage) on a message-level expression. A field the message
// has explicitly populated, or a map/list field (always addressable as an
// empty collection), is bridged as-is. A message-typed field left unset
// stays out of the map entirely, the same null-by-absence CEL gets from
// has()/select on an unpopulated submessage, and so does an unset field
// with explicit presence (proto3 optional or oneof member). Everything
// else — a
// proto3 implicit-presence scalar, enum, or bytes field sitting at its zero
// value — still gets a map entry so `this.field < other` type expressions
// (spec.md §8 scenario 6) see the proto default instead of erroring on a
// missing key.
func bridgeGenericMessage(m protoreflect.Message) map[string]any {
	out := make(map[string]any)
	fields := m.Descriptor().Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		switch {
		case m.Has(fd):
			out[string(fd.Name())] = BridgeField(m, fd)
		case fd.IsMap() || fd.IsList():
			out[string(fd.Name())] = BridgeField(m, fd)
		case fd.Kind() == protoreflect.MessageKind || fd.Kind() == protoreflect.GroupKind:
			// left unset, no default to synthesize
		case fd.HasPresence():
			// explicit optional or oneof member left unset
		default:
			out[string(fd.Name())] = BridgeValue(fd.Default(), fd)
		}
	}
	return out
}
