package conformance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/fieldrules/fieldrules"
	"github.com/fieldrules/fieldrules/ruleschema"
)

// buildConformanceFDSet returns a marshaled FileDescriptorSet for a single
// message "conformance.test.Widget" with one bool field "enabled", plus a
// constructor returning empty Widget messages for building case payloads.
func buildConformanceFDSet(t *testing.T) ([]byte, func() proto.Message) {
	t.Helper()
	label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	tBool := descriptorpb.FieldDescriptorProto_TYPE_BOOL

	fdProto := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("conformance_test/widget.proto"),
		Package: proto.String("conformance.test"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("Widget"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{Name: proto.String("enabled"), Number: proto.Int32(1), Label: &label, Type: &tBool},
				},
			},
		},
	}

	set := &descriptorpb.FileDescriptorSet{File: []*descriptorpb.FileDescriptorProto{fdProto}}
	raw, err := proto.Marshal(set)
	require.NoError(t, err)

	files := &protoregistry.Files{}
	fd, err := protodesc.NewFile(fdProto, files)
	require.NoError(t, err)
	require.NoError(t, files.RegisterFile(fd))
	desc := fd.Messages().ByName("Widget")

	newMsg := func() proto.Message { return dynamicpb.NewMessage(desc) }
	return raw, newMsg
}

func packWidget(t *testing.T, newMsg func() proto.Message, enabled bool) AnyMessage {
	t.Helper()
	msg := newMsg().(*dynamicpb.Message)
	msg.Set(msg.Descriptor().Fields().ByName("enabled"), protoreflect.ValueOfBool(enabled))
	raw, err := proto.Marshal(msg)
	require.NoError(t, err)
	return AnyMessage{TypeURL: "type.googleapis.com/conformance.test.Widget", Value: raw}
}

func TestRunnerSuccessAndValidationError(t *testing.T) {
	raw, newMsg := buildConformanceFDSet(t)

	source := ruleschema.NewStaticSource()
	desc := newMsg().(*dynamicpb.Message).Descriptor()
	enabledFD := desc.Fields().ByName("enabled")
	source.SetField(desc.FullName(), enabledFD.Number(), &ruleschema.FieldConstraints{
		Bool: &ruleschema.BoolRules{HasConst: true, Const: boolRef(true)},
	})

	factory, err := fieldrules.NewFactory(source)
	require.NoError(t, err)
	runner := NewRunner(factory)

	req := &Request{
		FileDescriptorSet: raw,
		Cases: map[string]AnyMessage{
			"ok":  packWidget(t, newMsg, true),
			"bad": packWidget(t, newMsg, false),
		},
	}

	resp := runner.Run(req)
	require.Len(t, resp.Results, 2)

	ok := resp.Results["ok"]
	assert.Equal(t, OutcomeSuccess, ok.Outcome)
	assert.Empty(t, ok.Violations)

	bad := resp.Results["bad"]
	assert.Equal(t, OutcomeValidationError, bad.Outcome)
	require.Len(t, bad.Violations, 1)
	assert.Equal(t, "bool.const", bad.Violations[0].RuleID)
	assert.Equal(t, "enabled", bad.Violations[0].FieldPath)
}

func TestRunnerUnknownTypeURL(t *testing.T) {
	raw, _ := buildConformanceFDSet(t)
	factory, err := fieldrules.NewFactory(ruleschema.NewStaticSource())
	require.NoError(t, err)
	runner := NewRunner(factory)

	req := &Request{
		FileDescriptorSet: raw,
		Cases: map[string]AnyMessage{
			"missing": {TypeURL: "type.googleapis.com/conformance.test.DoesNotExist", Value: nil},
		},
	}

	resp := runner.Run(req)
	result := resp.Results["missing"]
	assert.Equal(t, OutcomeUnexpectedError, result.Outcome)
	assert.NotEmpty(t, result.Error)
}

func TestRunnerMalformedDescriptorSet(t *testing.T) {
	factory, err := fieldrules.NewFactory(ruleschema.NewStaticSource())
	require.NoError(t, err)
	runner := NewRunner(factory)

	req := &Request{
		FileDescriptorSet: []byte{0xff, 0xff, 0xff},
		Cases: map[string]AnyMessage{
			"x": {TypeURL: "type.googleapis.com/whatever", Value: nil},
		},
	}

	resp := runner.Run(req)
	result := resp.Results["x"]
	assert.Equal(t, OutcomeUnexpectedError, result.Outcome)
}

func TestTypeURLTail(t *testing.T) {
	assert.Equal(t, "conformance.test.Widget", typeURLTail("type.googleapis.com/conformance.test.Widget"))
	assert.Equal(t, "bare.Name", typeURLTail("bare.Name"))
}

func boolRef(b bool) *bool { return &b }
