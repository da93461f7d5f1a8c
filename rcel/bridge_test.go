package rcel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// buildBridgeTestDescriptor builds a "rcel.test.Widget" message with an
// implicit-presence int32 (count), an explicit-presence int32 (optional
// limit), and a self-referential message field (child), for exercising
// bridgeGenericMessage's default-population rules.
func buildBridgeTestDescriptor(t *testing.T) protoreflect.MessageDescriptor {
	t.Helper()

	label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	tInt32 := descriptorpb.FieldDescriptorProto_TYPE_INT32
	tMessage := descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	proto3Optional := true

	fdProto := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("rcel_test/widget.proto"),
		Package: proto.String("rcel.test"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("Widget"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{Name: proto.String("count"), Number: proto.Int32(1), Label: &label, Type: &tInt32},
					{
						Name: proto.String("limit"), Number: proto.Int32(2), Label: &label, Type: &tInt32,
						Proto3Optional: &proto3Optional, OneofIndex: proto.Int32(0),
					},
					{
						Name: proto.String("child"), Number: proto.Int32(3), Label: &label, Type: &tMessage,
						TypeName: proto.String(".rcel.test.Widget"),
					},
				},
				OneofDecl: []*descriptorpb.OneofDescriptorProto{
					{Name: proto.String("_limit")},
				},
			},
		},
	}

	fd, err := protodesc.NewFile(fdProto, protoregistry.GlobalFiles)
	require.NoError(t, err)
	desc := fd.Messages().ByName("Widget")
	require.NotNil(t, desc)
	return desc
}

func TestBridgeGenericMessagePopulatesImplicitScalarDefault(t *testing.T) {
	desc := buildBridgeTestDescriptor(t)
	msg := dynamicpb.NewMessage(desc)

	bridged := BridgeMessage(msg.ProtoReflect())
	m, ok := bridged.(map[string]any)
	require.True(t, ok)

	v, present := m["count"]
	require.True(t, present, "unset implicit-presence scalar should still be bridged with its default")
	n, ok := v.(int64)
	require.True(t, ok, "expected int64 default, got %T", v)
	require.Zero(t, n)
}

func TestBridgeGenericMessageOmitsUnsetExplicitPresenceField(t *testing.T) {
	desc := buildBridgeTestDescriptor(t)
	msg := dynamicpb.NewMessage(desc)

	bridged := BridgeMessage(msg.ProtoReflect())
	m, ok := bridged.(map[string]any)
	require.True(t, ok)

	_, present := m["limit"]
	require.False(t, present, "unset explicit-presence field must stay absent so has()/select sees no value")
}

func TestBridgeGenericMessageOmitsUnsetMessageField(t *testing.T) {
	desc := buildBridgeTestDescriptor(t)
	msg := dynamicpb.NewMessage(desc)

	bridged := BridgeMessage(msg.ProtoReflect())
	m, ok := bridged.(map[string]any)
	require.True(t, ok)

	_, present := m["child"]
	require.False(t, present, "unset message-typed field must stay absent, not synthesize a zero-valued submessage")
}
