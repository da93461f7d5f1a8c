// Package conformance implements the batch request/response envelope of
// spec.md §4.H / §6.3: unmarshal a descriptor set plus a map of named
// test cases, run each case's dynamic message through a fieldrules
// Validator, and classify the outcome. The shape mirrors
// buf/validate/conformance/runner.h's TestRunner from original_source —
// one DescriptorPool, one Factory, one result per named case — kept to
// the spec's single request/single response contract rather than the
// original's harness-driven repeated calls.
package conformance

// Request is the conformance envelope's input: a serialized
// FileDescriptorSet (so the runner can resolve every message type
// mentioned in Cases without requiring generated Go types) plus one
// self-describing google.protobuf.Any per named case.
type Request struct {
	FileDescriptorSet []byte
	Cases             map[string]AnyMessage
}

// AnyMessage is a minimal stand-in for google.protobuf.Any, carrying the
// packed message's type URL and serialized bytes.
type AnyMessage struct {
	TypeURL string
	Value   []byte
}

// Outcome names the classification buckets of spec.md §4.H's table.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeValidationError  Outcome = "validation_error"
	OutcomeCompilationError Outcome = "compilation_error"
	OutcomeRuntimeError     Outcome = "runtime_error"
	OutcomeUnexpectedError  Outcome = "unexpected_error"
)

// CaseResult is the per-case outcome: the classification, any violation
// messages (only meaningful for OutcomeValidationError), and an error
// string (meaningful for the three error outcomes).
type CaseResult struct {
	Outcome    Outcome
	Violations []ViolationSummary
	Error      string
}

// ViolationSummary is a flattened, wire-friendly rendering of a
// fieldrules.Violation.
type ViolationSummary struct {
	FieldPath string
	RuleID    string
	Message   string
}

// Response is the conformance envelope's output: one CaseResult per case
// name from the request.
type Response struct {
	Results map[string]CaseResult
}
