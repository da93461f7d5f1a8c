package fieldrules

import (
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/fieldrules/fieldrules/rcel"
	"github.com/fieldrules/fieldrules/ruleschema"
)

// compiler implements spec.md §4.E: walk a descriptor, read its attached
// rule annotations from a ruleschema.Source, type-check each rule against
// its field, compile embedded expressions through an rcel.Engine, and
// assemble the resulting node tree.
type compiler struct {
	source             ruleschema.Source
	engine             *rcel.Engine
	allowUnknownFields bool
}

func newCompiler(source ruleschema.Source, engine *rcel.Engine, allowUnknownFields bool) *compiler {
	return &compiler{source: source, engine: engine, allowUnknownFields: allowUnknownFields}
}

// compileMessage is step 1-6 of spec.md §4.E for a single descriptor. It
// does not recurse into submessage descriptors — composed validation is
// resolved lazily at evaluation time via Context.Resolve, which is how
// cyclic message graphs stay representable with a finite compiled tree
// (spec.md §3's cycle invariant).
func (c *compiler) compileMessage(desc protoreflect.MessageDescriptor) ([]node, error) {
	msgRules := c.source.Message(desc)
	if msgRules != nil && msgRules.Disabled {
		return nil, nil
	}

	mn := &messageNode{desc: desc}
	if msgRules != nil {
		exprs, err := c.compileCelExprs(msgRules.Cel, []PathElement{{FieldName: "message.cel"}})
		if err != nil {
			return nil, err
		}
		mn.exprs = exprs
	}
	mn.composed = composedFields(desc)

	nodes := []node{mn}

	oneofFieldsInMessageOneof := map[protoreflect.Name]bool{}
	if msgRules != nil {
		for _, oc := range msgRules.Oneofs {
			monode, fds, err := c.compileMessageOneof(desc, oc)
			if err != nil {
				return nil, err
			}
			for _, fd := range fds {
				oneofFieldsInMessageOneof[fd.Name()] = true
			}
			nodes = append(nodes, monode)
		}
	}

	fields := desc.Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		rc := c.source.Field(fd)
		if rc == nil {
			continue
		}
		if rc.Ignore == ruleschema.IgnoreAlways {
			continue
		}
		effective := *rc
		if effective.Ignore == ruleschema.IgnoreUnspecified && oneofFieldsInMessageOneof[fd.Name()] {
			effective.Ignore = ruleschema.IgnoreIfUnpopulated
			effective.IgnoreEmpty = true
		}
		fieldNodeOut, err := c.compileField(fd, &effective)
		if err != nil {
			return nil, err
		}
		if fieldNodeOut != nil {
			nodes = append(nodes, fieldNodeOut)
		}
	}

	oneofs := desc.Oneofs()
	for i := 0; i < oneofs.Len(); i++ {
		od := oneofs.Get(i)
		if od.IsSynthetic() {
			continue
		}
		oc := c.source.Oneof(od)
		if oc == nil {
			continue
		}
		nodes = append(nodes, &oneofNode{od: od, required: oc.Required})
	}

	return nodes, nil
}

func composedFields(desc protoreflect.MessageDescriptor) []protoreflect.FieldDescriptor {
	var out []protoreflect.FieldDescriptor
	fields := desc.Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		kind := fd.Kind()
		if fd.IsMap() {
			kind = fd.MapValue().Kind()
		}
		if kind != protoreflect.MessageKind && kind != protoreflect.GroupKind {
			continue
		}
		var full protoreflect.FullName
		if fd.IsMap() {
			full = fd.MapValue().Message().FullName()
		} else {
			full = fd.Message().FullName()
		}
		if composedExcluded[full] {
			continue
		}
		out = append(out, fd)
	}
	return out
}

func (c *compiler) compileMessageOneof(desc protoreflect.MessageDescriptor, oc ruleschema.MessageOneofConstraint) (*messageOneofNode, []protoreflect.FieldDescriptor, error) {
	if len(oc.Fields) == 0 {
		return nil, nil, CompilationError("message.oneof on %s: field list must not be empty", desc.FullName())
	}
	seen := make(map[string]bool, len(oc.Fields))
	var fds []protoreflect.FieldDescriptor
	for _, name := range oc.Fields {
		if seen[name] {
			return nil, nil, CompilationError("message.oneof on %s: duplicate field %q", desc.FullName(), name)
		}
		seen[name] = true
		fd := desc.Fields().ByName(protoreflect.Name(name))
		if fd == nil {
			return nil, nil, CompilationError("message.oneof on %s: unknown field %q", desc.FullName(), name)
		}
		fds = append(fds, fd)
	}
	return &messageOneofNode{fields: fds, required: oc.Required}, fds, nil
}

// compileField is spec.md §4.E step 4: dispatch on the rule case, type
// checking the field's wire kind against the expected shape for that
// case, and build the resulting node.
func (c *compiler) compileField(fd protoreflect.FieldDescriptor, rc *ruleschema.FieldConstraints) (node, error) {
	celPath := []PathElement{{FieldName: "FieldRules.cel"}}
	celExprs, err := c.compileCelExprs(rc.Cel, celPath)
	if err != nil {
		return nil, err
	}

	switch {
	case fd.IsMap():
		return c.compileMapField(fd, rc, celExprs)
	case fd.IsList():
		return c.compileRepeatedField(fd, rc, celExprs)
	case rc.Any != nil:
		if fd.Kind() != protoreflect.MessageKind || fd.Message().FullName() != "google.protobuf.Any" {
			return nil, CompilationError("field %s: any rules require a google.protobuf.Any field", fd.FullName())
		}
		fn := &fieldNode{fd: fd, rc: rc, anyRules: rc.Any}
		fn.exprs = celExprs
		return fn, nil
	case rc.Enum != nil:
		if fd.Kind() != protoreflect.EnumKind {
			return nil, CompilationError("field %s: enum rules require an enum field", fd.FullName())
		}
		en := &enumNode{definedOnly: rc.Enum.DefinedOnly}
		en.fd = fd
		en.rc = rc
		en.exprs = celExprs
		return en, nil
	case rc.Duration != nil:
		if !isWellKnown(fd, "google.protobuf.Duration") {
			return nil, CompilationError("field %s: duration rules require a google.protobuf.Duration field", fd.FullName())
		}
	case rc.Timestamp != nil:
		if !isWellKnown(fd, "google.protobuf.Timestamp") {
			return nil, CompilationError("field %s: timestamp rules require a google.protobuf.Timestamp field", fd.FullName())
		}
	case rc.Bool != nil:
		if !scalarKindMatches(fd, protoreflect.BoolKind, "google.protobuf.BoolValue") {
			return nil, CompilationError("field %s: bool rules require a bool field", fd.FullName())
		}
	case rc.String != nil:
		if !scalarKindMatches(fd, protoreflect.StringKind, "google.protobuf.StringValue") {
			return nil, CompilationError("field %s: string rules require a string field", fd.FullName())
		}
	case rc.Bytes != nil:
		if !scalarKindMatches(fd, protoreflect.BytesKind, "google.protobuf.BytesValue") {
			return nil, CompilationError("field %s: bytes rules require a bytes field", fd.FullName())
		}
	case rc.Numeric != nil:
		if !isNumericKind(fd.Kind()) && !isNumericWrapper(fd) {
			return nil, CompilationError("field %s: numeric rules require a numeric field", fd.FullName())
		}
	}

	fn := &fieldNode{fd: fd, rc: rc}
	fn.exprs = celExprs
	return fn, nil
}

func isWellKnown(fd protoreflect.FieldDescriptor, fullName protoreflect.FullName) bool {
	return fd.Kind() == protoreflect.MessageKind && fd.Message().FullName() == fullName
}

func scalarKindMatches(fd protoreflect.FieldDescriptor, kind protoreflect.Kind, wrapperName protoreflect.FullName) bool {
	if fd.Kind() == kind {
		return true
	}
	return isWellKnown(fd, wrapperName)
}

func isNumericKind(k protoreflect.Kind) bool {
	switch k {
	case protoreflect.FloatKind, protoreflect.DoubleKind,
		protoreflect.Int32Kind, protoreflect.Int64Kind,
		protoreflect.Uint32Kind, protoreflect.Uint64Kind,
		protoreflect.Sint32Kind, protoreflect.Sint64Kind,
		protoreflect.Fixed32Kind, protoreflect.Fixed64Kind,
		protoreflect.Sfixed32Kind, protoreflect.Sfixed64Kind:
		return true
	default:
		return false
	}
}

var numericWrapperNames = map[protoreflect.FullName]bool{
	"google.protobuf.FloatValue":  true,
	"google.protobuf.DoubleValue": true,
	"google.protobuf.Int32Value":  true,
	"google.protobuf.Int64Value":  true,
	"google.protobuf.UInt32Value": true,
	"google.protobuf.UInt64Value": true,
}

func isNumericWrapper(fd protoreflect.FieldDescriptor) bool {
	return fd.Kind() == protoreflect.MessageKind && numericWrapperNames[fd.Message().FullName()]
}

func (c *compiler) compileRepeatedField(fd protoreflect.FieldDescriptor, rc *ruleschema.FieldConstraints, celExprs []compiledExpr) (node, error) {
	if rc.Repeated == nil {
		fn := &fieldNode{fd: fd, rc: rc}
		fn.exprs = celExprs
		return fn, nil
	}
	rn := &repeatedNode{
		fd:            fd,
		required:      rc.Required,
		ignoreEmpty:   rc.IgnoreEmpty || rc.Ignore == ruleschema.IgnoreIfUnpopulated,
		repeatedRules: rc.Repeated,
	}
	rn.exprs = celExprs
	if items := rc.Repeated.Items; items != nil {
		rn.itemRC = items
		rn.itemAnyRules = items.Any
		itemExprs, err := c.compileCelExprs(items.Cel, []PathElement{{FieldName: "RepeatedRules.items"}, {FieldName: "FieldRules.cel"}})
		if err != nil {
			return nil, err
		}
		rn.itemExprs = itemExprs
	}
	return rn, nil
}

func (c *compiler) compileMapField(fd protoreflect.FieldDescriptor, rc *ruleschema.FieldConstraints, celExprs []compiledExpr) (node, error) {
	if rc.Map == nil {
		fn := &fieldNode{fd: fd, rc: rc}
		fn.exprs = celExprs
		return fn, nil
	}
	mn := &mapNode{
		fd:          fd,
		required:    rc.Required,
		ignoreEmpty: rc.IgnoreEmpty || rc.Ignore == ruleschema.IgnoreIfUnpopulated,
		mapRules:    rc.Map,
	}
	mn.exprs = celExprs
	if keys := rc.Map.Keys; keys != nil {
		mn.keyRC = keys
		exprs, err := c.compileCelExprs(keys.Cel, []PathElement{{FieldName: "MapRules.keys"}, {FieldName: "FieldRules.cel"}})
		if err != nil {
			return nil, err
		}
		mn.keyExprs = exprs
	}
	if values := rc.Map.Values; values != nil {
		mn.valueRC = values
		mn.valueAnyRules = values.Any
		exprs, err := c.compileCelExprs(values.Cel, []PathElement{{FieldName: "MapRules.values"}, {FieldName: "FieldRules.cel"}})
		if err != nil {
			return nil, err
		}
		mn.valueExprs = exprs
	}
	return mn, nil
}

// compileCelExprs compiles a list of free-form CelExpr, each getting a
// rule path of basePath with an index appended, matching spec.md's
// "FieldRules.cel[i]"-style rule paths.
func (c *compiler) compileCelExprs(exprs []ruleschema.CelExpr, basePath []PathElement) ([]compiledExpr, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	out := make([]compiledExpr, 0, len(exprs))
	for i, e := range exprs {
		prg, err := c.engine.Compile(e.Expression)
		if err != nil {
			return nil, CompilationErrorWrap(err, "compiling expression %q", e.ID)
		}
		path := append(append([]PathElement{}, basePath...), AtIndex(i))
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("cel[%d]", i)
		}
		out = append(out, compiledExpr{id: id, message: e.Message, program: prg, rulePath: path})
	}
	return out, nil
}
