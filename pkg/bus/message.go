package bus

import (
	"time"
)

// Well-known attribute keys. Attributes are the side channel of a message:
// they travel alongside the payload, never inside it.
const (
	// AttrMarker carries the signal marker that distinguishes a command
	// ("targetValue") from a status echo ("currentValue").
	AttrMarker = "marker"
	// AttrEncoding declares the payload encoding of an outbound message.
	AttrEncoding = "encoding"
	// AttrMessageID carries the publisher-assigned message identifier.
	AttrMessageID = "messageId"
)

// Message is the canonical, in-process representation of a unit received
// from or sent to the bus. It is immutable once constructed: handlers read
// it, act, and discard it.
type Message struct {
	// ID is the unique identifier for the message from the source broker.
	ID string

	// Topic is the key expression the message was received on.
	Topic string

	// Payload is the raw byte content, interpreted as UTF-8 text.
	Payload []byte

	// Attributes holds broker metadata and the classification side channel.
	// It may be nil for messages that carried no metadata.
	Attributes map[string]string

	// PublishTime is the timestamp when the message was originally published.
	PublishTime time.Time

	// Ack signals that handling is complete and the message can be removed
	// from the source.
	Ack func()

	// Nack signals that handling failed and the message should be re-queued
	// by brokers that support it.
	Nack func()
}

// Marker returns the classification marker attribute, if present.
func (m *Message) Marker() (string, bool) {
	if m.Attributes == nil {
		return "", false
	}
	v, ok := m.Attributes[AttrMarker]
	return v, ok
}
