package ruleschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

func buildSourceTestDescriptor(t *testing.T) protoreflect.MessageDescriptor {
	t.Helper()
	label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	tString := descriptorpb.FieldDescriptorProto_TYPE_STRING

	fdProto := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("ruleschema_test/source.proto"),
		Package: proto.String("ruleschema.test"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("Thing"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{Name: proto.String("name"), Number: proto.Int32(1), Label: &label, Type: &tString},
				},
				OneofDecl: []*descriptorpb.OneofDescriptorProto{
					{Name: proto.String("which")},
				},
			},
		},
	}
	fd, err := protodesc.NewFile(fdProto, protoregistry.GlobalFiles)
	require.NoError(t, err)
	return fd.Messages().ByName("Thing")
}

func TestStaticSourceRoundTrip(t *testing.T) {
	desc := buildSourceTestDescriptor(t)
	nameFD := desc.Fields().ByName("name")

	source := NewStaticSource()
	assert.Nil(t, source.Message(desc))
	assert.Nil(t, source.Field(nameFD))

	msgRule := &MessageConstraints{Cel: []CelExpr{{ID: "x", Expression: "true"}}}
	fieldRule := &FieldConstraints{Required: true, String: &StringRules{Format: FormatEmail}}

	source.SetMessage(desc.FullName(), msgRule)
	source.SetField(desc.FullName(), nameFD.Number(), fieldRule)

	assert.Same(t, msgRule, source.Message(desc))
	assert.Same(t, fieldRule, source.Field(nameFD))
}

func TestStaticSourceOneof(t *testing.T) {
	desc := buildSourceTestDescriptor(t)
	od := desc.Oneofs().ByName("which")
	require.NotNil(t, od)

	source := NewStaticSource()
	assert.Nil(t, source.Oneof(od))

	rule := &OneofConstraints{Required: true}
	source.SetOneof(desc.FullName(), od.Name(), rule)
	assert.Same(t, rule, source.Oneof(od))
}

func TestStaticSourceRefreshIsNoOp(t *testing.T) {
	desc := buildSourceTestDescriptor(t)
	nameFD := desc.Fields().ByName("name")
	source := NewStaticSource()

	fieldRule := &FieldConstraints{Required: true}
	got := source.Refresh(nameFD, fieldRule)
	assert.Same(t, fieldRule, got)
}
