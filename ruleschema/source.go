package ruleschema

import "google.golang.org/protobuf/reflect/protoreflect"

// Source is the narrow interface the compiler uses to look up rule
// annotations for a descriptor, mirroring how huma's SchemaProvider lets a
// caller override schema generation for a type without the generator
// needing to know where the override data lives. A production deployment
// could back this with a descriptor-options extension reader; tests and
// the conformance runner back it with StaticSource.
type Source interface {
	// Message returns the message-level annotation for desc, or nil if
	// none is attached.
	Message(desc protoreflect.MessageDescriptor) *MessageConstraints
	// Field returns the field-level annotation for fd, or nil if none is
	// attached.
	Field(fd protoreflect.FieldDescriptor) *FieldConstraints
	// Oneof returns the oneof-level annotation for od, or nil if none is
	// attached.
	Oneof(od protoreflect.OneofDescriptor) *OneofConstraints
	// Refresh returns an updated field-level annotation for fd given the
	// current one. The compiler does not call it: annotations are used as
	// returned by Field, with no reparse or unknown-field check.
	// StaticSource's Refresh is a no-op returning the same annotation,
	// since static sources never acquire new predicates after construction.
	Refresh(fd protoreflect.FieldDescriptor, current *FieldConstraints) *FieldConstraints
}

// StaticSource is an in-memory Source keyed by full name / field number,
// built once and never mutated after construction — the shape tests and
// the conformance runner use to attach annotations to descriptors built
// at runtime via protodesc.NewFile, without any extension machinery.
type StaticSource struct {
	messages map[protoreflect.FullName]*MessageConstraints
	fields   map[fieldKey]*FieldConstraints
	oneofs   map[oneofKey]*OneofConstraints
}

type fieldKey struct {
	msg protoreflect.FullName
	num protoreflect.FieldNumber
}

type oneofKey struct {
	msg  protoreflect.FullName
	name protoreflect.Name
}

// NewStaticSource returns an empty StaticSource ready for registration.
func NewStaticSource() *StaticSource {
	return &StaticSource{
		messages: make(map[protoreflect.FullName]*MessageConstraints),
		fields:   make(map[fieldKey]*FieldConstraints),
		oneofs:   make(map[oneofKey]*OneofConstraints),
	}
}

// SetMessage registers rules for a message type by full name.
func (s *StaticSource) SetMessage(name protoreflect.FullName, c *MessageConstraints) {
	s.messages[name] = c
}

// SetField registers rules for a field, identified by its owning message's
// full name and the field's number (stable across reflection lookups,
// unlike name, for map-entry synthetic fields).
func (s *StaticSource) SetField(msg protoreflect.FullName, num protoreflect.FieldNumber, c *FieldConstraints) {
	s.fields[fieldKey{msg, num}] = c
}

// SetOneof registers rules for a oneof declaration.
func (s *StaticSource) SetOneof(msg protoreflect.FullName, name protoreflect.Name, c *OneofConstraints) {
	s.oneofs[oneofKey{msg, name}] = c
}

func (s *StaticSource) Message(desc protoreflect.MessageDescriptor) *MessageConstraints {
	return s.messages[desc.FullName()]
}

func (s *StaticSource) Field(fd protoreflect.FieldDescriptor) *FieldConstraints {
	return s.fields[fieldKey{fd.ContainingMessage().FullName(), fd.Number()}]
}

func (s *StaticSource) Oneof(od protoreflect.OneofDescriptor) *OneofConstraints {
	return s.oneofs[oneofKey{od.Parent().(protoreflect.MessageDescriptor).FullName(), od.Name()}]
}

func (s *StaticSource) Refresh(_ protoreflect.FieldDescriptor, current *FieldConstraints) *FieldConstraints {
	return current
}
