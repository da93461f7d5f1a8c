// Package fieldrules compiles declarative validation rules attached to a
// protobuf schema into an executable plan, then evaluates that plan against
// concrete message instances, producing a list of precisely-located
// violations.
//
// A Factory owns compiled rule trees keyed by message descriptor:
//
//	factory, err := fieldrules.NewFactory(source)
//	validator := factory.NewValidator(false)
//	result, err := validator.Validate(msg)
//	if err != nil {
//		// compilation_error, runtime_error, or unexpected_error
//	}
//	for _, v := range result.Violations {
//		fmt.Println(v.Message, v.FieldPath.String())
//	}
//
// The schema substrate is google.golang.org/protobuf's protoreflect package;
// the expression subsystem is the rcel package, a thin wrapper around
// github.com/google/cel-go. Address and string-format parsing lives in the
// addr package. The ruleschema package defines the rule annotation types
// read by the compiler.
package fieldrules
