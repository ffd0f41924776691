package mqttbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-actuator-node/pkg/bus"
)

// MqttConsumer implements bus.MessageConsumer for an MQTT source.
type MqttConsumer struct {
	pahoClient mqtt.Client
	logger     zerolog.Logger
	outputChan chan bus.Message
	doneChan   chan struct{}
	mqttCfg    *MQTTClientConfig
	stopOnce   sync.Once
}

// NewMqttConsumer creates a consumer around an already-constructed Paho
// client. It does not connect until Start is called.
func NewMqttConsumer(client mqtt.Client, cfg *MQTTClientConfig, logger zerolog.Logger) (*MqttConsumer, error) {
	if client == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("MQTT topic is required")
	}
	return &MqttConsumer{
		pahoClient: client,
		logger:     logger.With().Str("component", "MqttConsumer").Logger(),
		outputChan: make(chan bus.Message, 64),
		doneChan:   make(chan struct{}),
		mqttCfg:    cfg,
	}, nil
}

// Messages returns the read-only channel inbound messages arrive on.
func (c *MqttConsumer) Messages() <-chan bus.Message {
	return c.outputChan
}

// Start connects to the broker and declares the subscription. Either step
// failing is returned as an error: the node must not serve traffic on a
// partially established session.
func (c *MqttConsumer) Start(ctx context.Context) error {
	c.logger.Info().Msg("Connecting to MQTT broker...")
	if token := c.pahoClient.Connect(); !token.WaitTimeout(c.connectTimeout()) || token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", tokenError(token))
	}
	c.logger.Info().Msg("Connected to MQTT broker.")

	c.logger.Info().Str("topic", c.mqttCfg.Topic).Msg("Declaring subscription...")
	token := c.pahoClient.Subscribe(c.mqttCfg.Topic, 1, c.handleIncomingMessage(ctx))
	if !token.WaitTimeout(c.connectTimeout()) || token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", c.mqttCfg.Topic, tokenError(token))
	}
	c.logger.Info().Str("topic", c.mqttCfg.Topic).Msg("Subscription declared.")

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()

	return nil
}

// Stop unsubscribes, disconnects and closes the output channel.
func (c *MqttConsumer) Stop(_ context.Context) error {
	c.stopOnce.Do(func() {
		c.logger.Info().Msg("Stopping MqttConsumer...")
		if c.pahoClient.IsConnected() {
			if token := c.pahoClient.Unsubscribe(c.mqttCfg.Topic); token.WaitTimeout(2*time.Second) && token.Error() != nil {
				c.logger.Warn().Err(token.Error()).Str("topic", c.mqttCfg.Topic).Msg("Failed to unsubscribe from MQTT topic.")
			}
			c.pahoClient.Disconnect(500) // 500ms grace period
		}
		close(c.outputChan)
		close(c.doneChan)
		c.logger.Info().Msg("MqttConsumer stopped.")
	})
	return nil
}

// Done returns a channel that is closed when the consumer has fully stopped.
func (c *MqttConsumer) Done() <-chan struct{} {
	return c.doneChan
}

// IsConnected reports the connection status of the underlying Paho client.
func (c *MqttConsumer) IsConnected() bool {
	return c.pahoClient.IsConnected()
}

// handleIncomingMessage converts MQTT messages into the canonical bus form,
// lifting the marker and encoding out of the wire envelope.
func (c *MqttConsumer) handleIncomingMessage(ctx context.Context) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		raw := make([]byte, len(msg.Payload()))
		copy(raw, msg.Payload())

		payload, attributes, publishTime := DecodeEnvelope(raw)
		if publishTime.IsZero() {
			publishTime = time.Now().UTC()
		}

		received := bus.Message{
			ID:          fmt.Sprintf("%d", msg.MessageID()),
			Topic:       msg.Topic(),
			Payload:     payload,
			Attributes:  attributes,
			PublishTime: publishTime,
			// For QoS > 0 the ack happens at the protocol level inside the
			// Paho client; nothing further is needed from the pipeline.
			Ack:  func() {},
			Nack: func() {},
		}
		select {
		case c.outputChan <- received:
		case <-ctx.Done():
			c.logger.Warn().Str("topic", msg.Topic()).Msg("Consumer is shutting down, dropping MQTT message.")
		}
	}
}

func (c *MqttConsumer) connectTimeout() time.Duration {
	if c.mqttCfg.ConnectTimeout > 0 {
		return c.mqttCfg.ConnectTimeout
	}
	return 10 * time.Second
}

// tokenError returns the token's error, or a generic timeout error when the
// token never completed.
func tokenError(token mqtt.Token) error {
	if err := token.Error(); err != nil {
		return err
	}
	return fmt.Errorf("operation timed out")
}
