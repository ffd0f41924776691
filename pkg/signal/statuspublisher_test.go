package signal_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-actuator-node/pkg/bus"
	"github.com/illmade-knight/go-actuator-node/pkg/signal"
)

// capturedPublish records one Publish call made against the mock publisher.
type capturedPublish struct {
	Payload    []byte
	Attributes map[string]string
}

// mockPublisher is a bus.Publisher that records publishes and can be
// configured to fail.
type mockPublisher struct {
	mu         sync.Mutex
	published  []capturedPublish
	publishErr error
}

func (m *mockPublisher) Publish(_ context.Context, payload []byte, attributes map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	payloadCopy := make([]byte, len(payload))
	copy(payloadCopy, payload)
	m.published = append(m.published, capturedPublish{Payload: payloadCopy, Attributes: attributes})
	return nil
}

func (m *mockPublisher) Stop(_ context.Context) error { return nil }

func (m *mockPublisher) Published() []capturedPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]capturedPublish, len(m.published))
	copy(out, m.published)
	return out
}

func TestStatusPublisher_PublishState(t *testing.T) {
	pub := &mockPublisher{}
	statusPub := signal.NewStatusPublisher(pub, zerolog.Nop())

	err := statusPub.PublishState(context.Background(), signal.On)
	require.NoError(t, err)

	published := pub.Published()
	require.Len(t, published, 1)
	assert.Equal(t, []byte("true"), published[0].Payload)
	assert.Equal(t, signal.MarkerStatus, published[0].Attributes[bus.AttrMarker])
	assert.Equal(t, signal.EncodingTextUTF8, published[0].Attributes[bus.AttrEncoding])
	assert.NotEmpty(t, published[0].Attributes[bus.AttrMessageID])
}

func TestStatusPublisher_EchoClassifiesAsNonActionable(t *testing.T) {
	pub := &mockPublisher{}
	statusPub := signal.NewStatusPublisher(pub, zerolog.Nop())

	require.NoError(t, statusPub.PublishState(context.Background(), signal.Off))

	published := pub.Published()
	require.Len(t, published, 1)

	// An echo re-delivered to this node must classify as a status echo,
	// never as a command.
	echo := &bus.Message{Payload: published[0].Payload, Attributes: published[0].Attributes}
	assert.Equal(t, signal.KindStatusEcho, signal.Classify(echo))
}

func TestStatusPublisher_TransportFailureSurfaces(t *testing.T) {
	transportErr := errors.New("broker unavailable")
	pub := &mockPublisher{publishErr: transportErr}
	statusPub := signal.NewStatusPublisher(pub, zerolog.Nop())

	err := statusPub.PublishState(context.Background(), signal.On)
	require.Error(t, err)
	assert.ErrorIs(t, err, transportErr)
}
