package mqttbus

import (
	"encoding/json"
	"time"

	"github.com/illmade-knight/go-actuator-node/pkg/bus"
)

// Envelope is the on-wire JSON form of a message on the MQTT binding. The
// marker and encoding ride in the envelope, not in the payload, so the
// in-process side channel survives a transport that has no native message
// attributes.
type Envelope struct {
	ID        string    `json:"id,omitempty"`
	Payload   []byte    `json:"payload"`
	Marker    string    `json:"marker,omitempty"`
	Encoding  string    `json:"encoding,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EncodeEnvelope builds the wire bytes for a payload and its side-channel
// attributes.
func EncodeEnvelope(payload []byte, attributes map[string]string, now time.Time) ([]byte, error) {
	env := Envelope{
		ID:        attributes[bus.AttrMessageID],
		Payload:   payload,
		Marker:    attributes[bus.AttrMarker],
		Encoding:  attributes[bus.AttrEncoding],
		Timestamp: now.UTC(),
	}
	return json.Marshal(env)
}

// DecodeEnvelope parses wire bytes into a payload and attribute map. Bytes
// that are not a valid envelope are returned as a bare payload with no
// attributes: the classifier will treat such a message as unknown and the
// node silently ignores it.
func DecodeEnvelope(raw []byte) ([]byte, map[string]string, time.Time) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw, nil, time.Time{}
	}
	attributes := make(map[string]string)
	if env.ID != "" {
		attributes[bus.AttrMessageID] = env.ID
	}
	if env.Marker != "" {
		attributes[bus.AttrMarker] = env.Marker
	}
	if env.Encoding != "" {
		attributes[bus.AttrEncoding] = env.Encoding
	}
	return env.Payload, attributes, env.Timestamp
}
