package conformance

import (
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/fieldrules/fieldrules"
)

// Runner drives one Request through a fieldrules.Factory, resolving each
// case's dynamic message against an ad-hoc descriptor pool built from the
// request's own FileDescriptorSet — mirroring TestRunner's
// DynamicMessageFactory + DescriptorPool pairing in original_source's
// runner.h, minus the long-lived pool (each Request brings its own).
type Runner struct {
	Factory *fieldrules.Factory
}

// NewRunner builds a Runner bound to factory.
func NewRunner(factory *fieldrules.Factory) *Runner {
	return &Runner{Factory: factory}
}

// Run executes every case in req and returns the classified results.
func (r *Runner) Run(req *Request) *Response {
	resp := &Response{Results: make(map[string]CaseResult, len(req.Cases))}

	files, err := buildPool(req.FileDescriptorSet)
	if err != nil {
		for name := range req.Cases {
			resp.Results[name] = CaseResult{Outcome: OutcomeUnexpectedError, Error: err.Error()}
		}
		return resp
	}

	for name, msg := range req.Cases {
		resp.Results[name] = r.runCase(files, msg)
	}
	return resp
}

func buildPool(raw []byte) (*protoregistry.Files, error) {
	var set descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(raw, &set); err != nil {
		return nil, err
	}
	files := &protoregistry.Files{}
	for _, fdProto := range set.File {
		fd, err := protodesc.NewFile(fdProto, files)
		if err != nil {
			return nil, err
		}
		if err := files.RegisterFile(fd); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func (r *Runner) runCase(files *protoregistry.Files, any AnyMessage) CaseResult {
	name := typeURLTail(any.TypeURL)
	if name == "" {
		return CaseResult{Outcome: OutcomeUnexpectedError, Error: "empty type_url"}
	}

	desc, err := files.FindDescriptorByName(protoreflect.FullName(name))
	if err != nil {
		return CaseResult{Outcome: OutcomeUnexpectedError, Error: "unknown type " + name + ": " + err.Error()}
	}
	msgDesc, ok := desc.(protoreflect.MessageDescriptor)
	if !ok {
		return CaseResult{Outcome: OutcomeUnexpectedError, Error: name + " is not a message type"}
	}

	dyn := dynamicpb.NewMessage(msgDesc)
	if err := proto.Unmarshal(any.Value, dyn); err != nil {
		return CaseResult{Outcome: OutcomeUnexpectedError, Error: "unpack failure: " + err.Error()}
	}

	validator := r.Factory.NewValidator(false)
	result, err := validator.Validate(dyn.ProtoReflect())
	if err != nil {
		return classifyError(err)
	}

	if result.Valid() {
		return CaseResult{Outcome: OutcomeSuccess}
	}

	summaries := make([]ViolationSummary, 0, len(result.Violations))
	for _, v := range result.Violations {
		summaries = append(summaries, ViolationSummary{
			FieldPath: v.FieldPath.String(),
			RuleID:    v.RuleID,
			Message:   v.Message,
		})
	}
	return CaseResult{Outcome: OutcomeValidationError, Violations: summaries}
}

func classifyError(err error) CaseResult {
	switch fieldrules.AsKind(err) {
	case fieldrules.KindCompilation:
		return CaseResult{Outcome: OutcomeCompilationError, Error: err.Error()}
	case fieldrules.KindRuntime:
		return CaseResult{Outcome: OutcomeRuntimeError, Error: err.Error()}
	default:
		return CaseResult{Outcome: OutcomeUnexpectedError, Error: err.Error()}
	}
}

func typeURLTail(url string) string {
	if idx := strings.LastIndexByte(url, '/'); idx >= 0 {
		return url[idx+1:]
	}
	return url
}
