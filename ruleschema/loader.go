package ruleschema

import (
	"encoding/json"
	"fmt"
	"io"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// RuleSet is the JSON-serializable sidecar form of a StaticSource, letting
// the fieldrules CLI attach annotations to descriptors it did not compile
// from (no extension machinery to decode, per the package doc). A
// production deployment would read these off the descriptor itself;
// RuleSet is the file-based substitute this exercise uses instead.
type RuleSet struct {
	Messages []MessageRule `json:"messages"`
}

// MessageRule names one message type and its field/oneof/message-level
// annotations, keyed the same way StaticSource keys them internally:
// fields by number (stable across reflection lookups), oneofs by name.
type MessageRule struct {
	Name    string                    `json:"name"`
	Message *MessageConstraints       `json:"message,omitempty"`
	Fields  map[string]*FieldConstraints `json:"fields,omitempty"`
	Oneofs  map[string]*OneofConstraints `json:"oneofs,omitempty"`
}

// LoadStaticSource decodes a RuleSet from r and builds a StaticSource from
// it. Field keys in the JSON are field numbers given as decimal strings
// (JSON object keys are always strings), since FieldConstraints are looked
// up by number rather than name.
func LoadStaticSource(r io.Reader) (*StaticSource, error) {
	var rs RuleSet
	if err := json.NewDecoder(r).Decode(&rs); err != nil {
		return nil, fmt.Errorf("ruleschema: decoding rule set: %w", err)
	}

	source := NewStaticSource()
	for _, m := range rs.Messages {
		name := protoreflect.FullName(m.Name)
		if !name.IsValid() {
			return nil, fmt.Errorf("ruleschema: invalid message name %q", m.Name)
		}
		if m.Message != nil {
			source.SetMessage(name, m.Message)
		}
		for numStr, fc := range m.Fields {
			var num int32
			if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
				return nil, fmt.Errorf("ruleschema: %s: invalid field number %q: %w", m.Name, numStr, err)
			}
			source.SetField(name, protoreflect.FieldNumber(num), fc)
		}
		for oneofName, oc := range m.Oneofs {
			source.SetOneof(name, protoreflect.Name(oneofName), oc)
		}
	}
	return source, nil
}
