package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
)

// GooglePubsubConsumerConfig holds configuration for the Pub/Sub consumer.
type GooglePubsubConsumerConfig struct {
	SubscriptionID         string
	MaxOutstandingMessages int
	NumGoroutines          int
}

// LoadDefaultGooglePubsubConsumerConfig returns a consumer config with
// defaults suitable for a single-actuator node: delivery stays effectively
// serialized so command handling never overlaps.
func LoadDefaultGooglePubsubConsumerConfig(subID string) *GooglePubsubConsumerConfig {
	return &GooglePubsubConsumerConfig{
		SubscriptionID:         subID,
		MaxOutstandingMessages: 16,
		NumGoroutines:          1,
	}
}

// GooglePubsubConsumer implements MessageConsumer on a Pub/Sub subscription.
type GooglePubsubConsumer struct {
	subscription       *pubsub.Subscription
	logger             zerolog.Logger
	outputChan         chan Message
	stopOnce           sync.Once
	cancelSubscription context.CancelFunc
	wg                 sync.WaitGroup
	doneChan           chan struct{}
}

// NewGooglePubsubConsumer verifies the subscription exists and returns a
// consumer for it. A missing subscription is fatal: the node must not serve
// on a partially established session.
func NewGooglePubsubConsumer(ctx context.Context, cfg *GooglePubsubConsumerConfig, client *pubsub.Client, logger zerolog.Logger) (*GooglePubsubConsumer, error) {
	if client == nil {
		return nil, fmt.Errorf("pubsub client cannot be nil")
	}
	sub := client.Subscription(cfg.SubscriptionID)

	existsCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	exists, err := sub.Exists(existsCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for subscription %s: %w", cfg.SubscriptionID, err)
	}
	if !exists {
		return nil, fmt.Errorf("subscription %s does not exist", cfg.SubscriptionID)
	}

	sub.ReceiveSettings.MaxOutstandingMessages = cfg.MaxOutstandingMessages
	sub.ReceiveSettings.NumGoroutines = cfg.NumGoroutines

	return &GooglePubsubConsumer{
		subscription: sub,
		logger:       logger.With().Str("component", "GooglePubsubConsumer").Str("subscription_id", cfg.SubscriptionID).Logger(),
		outputChan:   make(chan Message, cfg.MaxOutstandingMessages),
		doneChan:     make(chan struct{}),
	}, nil
}

// Messages returns the read-only channel inbound messages arrive on.
func (c *GooglePubsubConsumer) Messages() <-chan Message { return c.outputChan }

// Start begins receiving from the subscription in a background goroutine.
func (c *GooglePubsubConsumer) Start(ctx context.Context) error {
	c.logger.Info().Msg("Starting Pub/Sub message consumption...")
	receiveCtx, cancel := context.WithCancel(ctx)
	c.cancelSubscription = cancel
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.outputChan)
		defer close(c.doneChan)

		err := c.subscription.Receive(receiveCtx, func(_ context.Context, msg *pubsub.Message) {
			payloadCopy := make([]byte, len(msg.Data))
			copy(payloadCopy, msg.Data)

			received := Message{
				ID:          msg.ID,
				Payload:     payloadCopy,
				Attributes:  msg.Attributes,
				PublishTime: msg.PublishTime,
				Ack:         msg.Ack,
				Nack:        msg.Nack,
			}

			select {
			case c.outputChan <- received:
			case <-receiveCtx.Done():
				msg.Nack()
				c.logger.Warn().Str("msg_id", msg.ID).Msg("Consumer stopping, Nacking message.")
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Error().Err(err).Msg("Pub/Sub Receive call exited with error")
		}
		c.logger.Info().Msg("Pub/Sub Receive goroutine stopped.")
	}()
	return nil
}

// Stop cancels the subscription and waits for the receive goroutine to exit,
// respecting the context deadline.
func (c *GooglePubsubConsumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		c.logger.Info().Msg("Stopping Pub/Sub consumer...")
		if c.cancelSubscription != nil {
			c.cancelSubscription()
		}
		select {
		case <-c.doneChan:
			c.logger.Info().Msg("Pub/Sub Receive goroutine confirmed stopped.")
		case <-ctx.Done():
			c.logger.Error().Msg("Timeout waiting for Pub/Sub Receive goroutine to stop.")
			err = ctx.Err()
		}
	})
	return err
}

// Done returns a channel closed once the consumer has fully shut down.
func (c *GooglePubsubConsumer) Done() <-chan struct{} { return c.doneChan }
