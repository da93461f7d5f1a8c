// Package rcel wraps github.com/google/cel-go into the small expression
// runtime spec.md §6.2 requires: a single immutable environment, a value
// bridge from protoreflect values into CEL's dynamic value universe, and
// the extra built-in functions (`format`, `isIp`, `unique`, ...) the rule
// language depends on. The API shape — a long-lived Engine holding a
// *cel.Env, short-lived compiled programs cached per expression — follows
// how other_examples' CEL-consuming services (openshift-hyperfleet's
// Validator.initCELEnv, k8s.io/apiserver's CEL-based validation) build one
// environment up front from a fixed set of cel.EnvOption values and reuse
// it across many Parse/Compile calls.
package rcel

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"
)

// Engine owns one CEL environment: a cel.Env built once by NewEngine and
// shared read-only by every expression compiled through it. Each Factory
// builds its own Engine.
type Engine struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewEngine builds the environment: the four activation variables
// (`this`, `rules`, `rule`, `now`), every built-in function from spec.md
// §4.B, and the interpreter options spec.md §6.2 calls out explicitly —
// eager declaration validation on, homogeneous-aggregate-literal checking
// left off (the rule language needs heterogeneous equality, e.g. comparing
// a dyn list element against a string constant), and optional types on for
// well-known-wrapper unboxing parity with Map/Repeated ignore_empty
// handling.
func NewEngine() (*Engine, error) {
	opts := []cel.EnvOption{
		cel.Variable("this", cel.DynType),
		cel.Variable("rules", cel.DynType),
		cel.Variable("rule", cel.DynType),
		cel.Variable("now", cel.TimestampType),
		cel.EagerlyValidateDeclarations(true),
		cel.OptionalTypes(),
	}
	opts = append(opts, builtinOptions()...)

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("rcel: building environment: %w", err)
	}
	return &Engine{env: env, programs: make(map[string]cel.Program)}, nil
}

// Compile parses and checks expr once, caching the resulting Program keyed
// by source text so repeated compilation of the same rule-author-supplied
// string (common across many fields sharing a predefined predicate) is
// free after the first call.
func (e *Engine) Compile(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.programs[expr]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("rcel: compiling %q: %w", expr, issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("rcel: building program for %q: %w", expr, err)
	}

	e.mu.Lock()
	e.programs[expr] = prg
	e.mu.Unlock()
	return prg, nil
}

// Activation is the evaluation-time binding of this/rules/rule/now for a
// single CompiledExpr evaluation.
type Activation struct {
	This  any
	Rules any
	Rule  any
	Now   any
}

// vars implements interpreter.Activation via cel-go's map-based adapter.
func (a Activation) vars() map[string]any {
	m := map[string]any{
		"this":  a.This,
		"rules": a.Rules,
		"now":   a.Now,
	}
	if a.Rule != nil {
		m["rule"] = a.Rule
	} else {
		m["rule"] = nil
	}
	return m
}

// Eval runs prg against act, returning the raw CEL result value.
func Eval(prg cel.Program, act Activation) (ref.Val, error) {
	out, _, err := prg.Eval(act.vars())
	if err != nil {
		return nil, err
	}
	return out, nil
}
