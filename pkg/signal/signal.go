// Package signal implements the classification protocol that keeps the
// node's command/echo loop open: inbound messages are tagged by a marker
// attribute, and only messages marked as commands are ever acted on.
package signal

import (
	"github.com/illmade-knight/go-actuator-node/pkg/bus"
)

// Marker literals recognised on the bus. A node publishes its own state
// tagged MarkerStatus, so classification is the only thing preventing an
// infinite command/echo feedback loop on the shared topic.
const (
	// MarkerCommand tags a message as a target-value command.
	MarkerCommand = "targetValue"
	// MarkerStatus tags a message as a current-value status echo.
	MarkerStatus = "currentValue"
)

// EncodingTextUTF8 is declared on every published echo.
const EncodingTextUTF8 = "text/plain;charset=utf-8"

// Kind classifies an inbound message by its marker. It is derived per
// message, never stored.
type Kind int

const (
	// KindUnknown is the classification for an absent or unrecognised
	// marker. Unknown messages are a normal, silently-ignored case.
	KindUnknown Kind = iota
	// KindCommand identifies a target-value command the node must act on.
	KindCommand
	// KindStatusEcho identifies a current-value echo the node must discard.
	KindStatusEcho
)

// String returns a human-readable name for logging.
func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindStatusEcho:
		return "statusEcho"
	default:
		return "unknown"
	}
}

// Classify inspects only the message's marker attribute. The comparison is
// byte-for-byte, not a prefix match: "targetValueX" is unknown. Classify is
// total and never fails.
func Classify(msg *bus.Message) Kind {
	marker, ok := msg.Marker()
	if !ok {
		return KindUnknown
	}
	switch marker {
	case MarkerCommand:
		return KindCommand
	case MarkerStatus:
		return KindStatusEcho
	default:
		return KindUnknown
	}
}
