package fieldrules

import (
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/fieldrules/fieldrules/ruleschema"
)

// evaluateAnyRules implements spec.md §4.D's Any-URL check: given the
// any_rules attached to a google.protobuf.Any field and the packed Any
// message instance, check its type_url against the in/not_in lists.
// Per spec, only the first not_in match produces a violation.
func evaluateAnyRules(ctx *Context, rules *ruleschema.AnyRules, anyMsg protoreflect.Message) {
	if !anyMsg.IsValid() {
		return
	}
	fd := anyMsg.Descriptor().Fields().ByName("type_url")
	if fd == nil {
		return
	}
	typeURL := anyMsg.Get(fd).String()

	if len(rules.In) > 0 && !stringIn(typeURL, rules.In) {
		violate(ctx, "any.in", "type_url must be in the allowed set")
	}
	for _, notAllowed := range rules.NotIn {
		if typeURL == notAllowed {
			violate(ctx, "any.not_in", "type_url must not be %q", notAllowed)
			break
		}
	}
}
