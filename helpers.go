package fieldrules

import (
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/fieldrules/fieldrules/rcel"
)

// BridgeMessageForThis bridges a whole message for binding as `this` in a
// message-level expression, delegating to rcel's value bridge so message,
// field, and item-level expressions all see values converted the same
// way.
func BridgeMessageForThis(msg protoreflect.Message) any {
	return rcel.BridgeMessage(msg)
}
