package fieldrules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	_ "google.golang.org/protobuf/types/known/anypb" // registers google/protobuf/any.proto in protoregistry.GlobalFiles
)

// buildTestMessageDescriptor builds, at test run time via protodesc.NewFile
// (no protoc/codegen step), a self-contained "fieldrules.test.TestMessage"
// descriptor with a scalar bool, a repeated string, two format-checked
// strings, a self-referential message field for exercising composed
// validation, an int32 count, and a map<string, google.protobuf.Any> field
// for exercising map-value any_rules.
func buildTestMessageDescriptor(t *testing.T) protoreflect.MessageDescriptor {
	t.Helper()

	label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	repeated := descriptorpb.FieldDescriptorProto_LABEL_REPEATED
	tBool := descriptorpb.FieldDescriptorProto_TYPE_BOOL
	tString := descriptorpb.FieldDescriptorProto_TYPE_STRING
	tMessage := descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	tInt32 := descriptorpb.FieldDescriptorProto_TYPE_INT32
	mapEntry := true

	fdProto := &descriptorpb.FileDescriptorProto{
		Name:       proto.String("fieldrules_test/test.proto"),
		Package:    proto.String("fieldrules.test"),
		Syntax:     proto.String("proto3"),
		Dependency: []string{"google/protobuf/any.proto"},
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("TestMessage"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{Name: proto.String("flag"), Number: proto.Int32(1), Label: &label, Type: &tBool},
					{Name: proto.String("tags"), Number: proto.Int32(2), Label: &repeated, Type: &tString},
					{Name: proto.String("website"), Number: proto.Int32(3), Label: &label, Type: &tString},
					{Name: proto.String("host"), Number: proto.Int32(4), Label: &label, Type: &tString},
					{
						Name: proto.String("child"), Number: proto.Int32(5), Label: &label, Type: &tMessage,
						TypeName: proto.String(".fieldrules.test.TestMessage"),
					},
					{Name: proto.String("count"), Number: proto.Int32(6), Label: &label, Type: &tInt32},
					{
						Name: proto.String("children"), Number: proto.Int32(7), Label: &repeated, Type: &tMessage,
						TypeName: proto.String(".fieldrules.test.TestMessage.ChildrenEntry"),
					},
				},
				NestedType: []*descriptorpb.DescriptorProto{
					{
						Name: proto.String("ChildrenEntry"),
						Field: []*descriptorpb.FieldDescriptorProto{
							{Name: proto.String("key"), Number: proto.Int32(1), Label: &label, Type: &tString},
							{
								Name: proto.String("value"), Number: proto.Int32(2), Label: &label, Type: &tMessage,
								TypeName: proto.String(".google.protobuf.Any"),
							},
						},
						Options: &descriptorpb.MessageOptions{MapEntry: &mapEntry},
					},
				},
			},
		},
	}

	fd, err := protodesc.NewFile(fdProto, protoregistry.GlobalFiles)
	require.NoError(t, err)
	desc := fd.Messages().ByName("TestMessage")
	require.NotNil(t, desc)
	return desc
}

func fieldByName(desc protoreflect.MessageDescriptor, name string) protoreflect.FieldDescriptor {
	return desc.Fields().ByName(protoreflect.Name(name))
}
