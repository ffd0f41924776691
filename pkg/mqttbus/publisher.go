package mqttbus

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// MqttPublisher implements bus.Publisher on the same Paho client (and the
// same topic) the consumer uses: one client is one transport session.
type MqttPublisher struct {
	pahoClient mqtt.Client
	topic      string
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewMqttPublisher creates a publisher bound to the config's topic.
func NewMqttPublisher(client mqtt.Client, cfg *MQTTClientConfig, logger zerolog.Logger) (*MqttPublisher, error) {
	if client == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("MQTT topic is required")
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MqttPublisher{
		pahoClient: client,
		topic:      cfg.Topic,
		timeout:    timeout,
		logger:     logger.With().Str("component", "MqttPublisher").Str("topic", cfg.Topic).Logger(),
	}, nil
}

// Publish wraps the payload and attributes in the wire envelope and sends it
// with QoS 1, blocking until the broker confirms or the send times out.
func (p *MqttPublisher) Publish(ctx context.Context, payload []byte, attributes map[string]string) error {
	wire, err := EncodeEnvelope(payload, attributes, time.Now())
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}

	token := p.pahoClient.Publish(p.topic, 1, false, wire)

	completed := make(chan bool, 1)
	go func() { completed <- token.WaitTimeout(p.timeout) }()
	select {
	case ok := <-completed:
		if !ok {
			return fmt.Errorf("mqtt publish timed out after %s", p.timeout)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish failed: %w", err)
	}
	p.logger.Debug().Int("bytes", len(wire)).Msg("Message sent successfully.")
	return nil
}

// Stop is a no-op: the session (and its disconnect) is owned by the
// consumer side of the same client.
func (p *MqttPublisher) Stop(_ context.Context) error { return nil }
