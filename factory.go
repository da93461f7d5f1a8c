package fieldrules

import (
	"sync"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/fieldrules/fieldrules/rcel"
	"github.com/fieldrules/fieldrules/ruleschema"
)

// compiledEntry is the cached result of compiling one descriptor: either a
// node list or the compilation error that occurred, so a descriptor that
// fails to compile doesn't get silently retried on every lookup.
type compiledEntry struct {
	nodes []node
	err   error
}

// Factory is spec.md §4.G's thread-safe registry from descriptor to
// compiled node list, grounded on huma's mapRegistry (registry.go): a
// name-keyed map of lazily-built values, generalized from huma's
// single-goroutine map to a sync.RWMutex-guarded map safe for concurrent
// Get calls from many Validator instances, with double-checked locking on
// the lazy-build path.
type Factory struct {
	source ruleschema.Source
	engine *rcel.Engine
	c      *compiler

	mu        sync.RWMutex
	compiled  map[protoreflect.FullName]*compiledEntry
	lazy      bool
	building  map[protoreflect.FullName]*sync.WaitGroup
}

// NewFactory builds a Factory's own expression engine (registering every
// built-in once for this factory) and an empty, lazily-populated cache.
func NewFactory(source ruleschema.Source) (*Factory, error) {
	engine, err := rcel.NewEngine()
	if err != nil {
		return nil, err
	}
	return &Factory{
		source:   source,
		engine:   engine,
		c:        newCompiler(source, engine, false),
		compiled: make(map[protoreflect.FullName]*compiledEntry),
		lazy:     true,
		building: make(map[protoreflect.FullName]*sync.WaitGroup),
	}, nil
}

// AllowUnknownFields records the setting on the factory's compiler. The
// compiler does not read it: rule annotations are never checked for
// unknown or unresolved fields, so the setting has no effect on
// compilation.
func (f *Factory) AllowUnknownFields(allow bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.allowUnknownFields = allow
}

// DisableLazyLoading makes Get return a not-found error for any
// descriptor not previously Added, matching spec.md's eager-only mode.
func (f *Factory) DisableLazyLoading() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lazy = false
}

// Add eagerly compiles desc and every message descriptor transitively
// reachable from it through composed (message-typed) fields, per spec.md
// §4.G. Each descriptor is registered in the compiled cache before Add
// descends into its fields, so a cyclic message graph still terminates
// (spec.md §3/§9) instead of recursing forever. Duplicate adds are
// idempotent; a descriptor already compiled (successfully or not) is not
// recompiled.
func (f *Factory) Add(desc protoreflect.MessageDescriptor) error {
	return f.addRecursive(desc, make(map[protoreflect.FullName]bool))
}

func (f *Factory) addRecursive(desc protoreflect.MessageDescriptor, visited map[protoreflect.FullName]bool) error {
	name := desc.FullName()
	if visited[name] {
		return nil
	}
	visited[name] = true

	if _, err := f.get(desc, true); err != nil {
		return err
	}
	for _, fd := range composedFields(desc) {
		sub := fd.Message()
		if fd.IsMap() {
			sub = fd.MapValue().Message()
		}
		if err := f.addRecursive(sub, visited); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the compiled node list for desc, compiling it on first use
// when lazy loading is enabled.
func (f *Factory) Get(desc protoreflect.MessageDescriptor) ([]node, error) {
	return f.get(desc, false)
}

// get looks desc up in the cache and compiles it on a miss when lazy
// loading is enabled or when eager is true (the Add path).
func (f *Factory) get(desc protoreflect.MessageDescriptor, eager bool) ([]node, error) {
	name := desc.FullName()

	f.mu.RLock()
	entry, ok := f.compiled[name]
	lazy := f.lazy
	f.mu.RUnlock()
	if ok {
		return entry.nodes, entry.err
	}
	if !lazy && !eager {
		return nil, UnexpectedError("no compiled rules registered for %s", name)
	}

	f.mu.Lock()
	if entry, ok := f.compiled[name]; ok {
		f.mu.Unlock()
		return entry.nodes, entry.err
	}
	if wg, building := f.building[name]; building {
		f.mu.Unlock()
		wg.Wait()
		f.mu.RLock()
		entry := f.compiled[name]
		f.mu.RUnlock()
		return entry.nodes, entry.err
	}
	wg := &sync.WaitGroup{}
	wg.Add(1)
	f.building[name] = wg
	f.mu.Unlock()

	nodes, err := f.c.compileMessage(desc)

	f.mu.Lock()
	f.compiled[name] = &compiledEntry{nodes: nodes, err: err}
	delete(f.building, name)
	f.mu.Unlock()
	wg.Done()

	return nodes, err
}

// resolveFor returns a resolver bound to this factory, handed to every
// Context created by NewValidator so composed validation can fetch a
// submessage's compiled node list without the node package depending on
// Factory directly.
func (f *Factory) resolveFor() resolver {
	return func(desc protoreflect.MessageDescriptor) ([]node, error) {
		return f.get(desc, false)
	}
}

// NewValidator creates a scoped evaluator handle bound to this factory.
func (f *Factory) NewValidator(failFast bool) *Validator {
	return &Validator{factory: f, failFast: failFast}
}
