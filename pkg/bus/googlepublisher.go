package bus

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// NewGoogleClient creates a Pub/Sub client, honouring an optional service
// account credentials file.
func NewGoogleClient(ctx context.Context, projectID, credentialsFile string) (*pubsub.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client for project %s: %w", projectID, err)
	}
	return client, nil
}

// GooglePubsubPublisher implements Publisher on a Pub/Sub topic. Unlike a
// batching producer it confirms every publish before returning, so callers
// see transport failures synchronously.
type GooglePubsubPublisher struct {
	topic  *pubsub.Topic
	logger zerolog.Logger
}

// NewGooglePubsubPublisher verifies the topic exists and returns a
// publisher bound to it.
func NewGooglePubsubPublisher(ctx context.Context, client *pubsub.Client, topicID string, logger zerolog.Logger) (*GooglePubsubPublisher, error) {
	if client == nil {
		return nil, fmt.Errorf("pubsub client cannot be nil")
	}
	topic := client.Topic(topicID)

	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for topic %s: %w", topicID, err)
	}
	if !exists {
		return nil, fmt.Errorf("pubsub topic %s does not exist", topicID)
	}

	return &GooglePubsubPublisher{
		topic:  topic,
		logger: logger.With().Str("component", "GooglePubsubPublisher").Str("topic_id", topicID).Logger(),
	}, nil
}

// Publish sends a single message and blocks until the broker confirms it.
// The error, if any, is the caller's to handle; no retry happens here.
func (p *GooglePubsubPublisher) Publish(ctx context.Context, payload []byte, attributes map[string]string) error {
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       payload,
		Attributes: attributes,
	})
	msgID, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("pubsub publish failed: %w", err)
	}
	p.logger.Debug().Str("published_msg_id", msgID).Msg("Message sent successfully.")
	return nil
}

// Stop flushes any pending messages for the topic, respecting the context's
// timeout.
func (p *GooglePubsubPublisher) Stop(ctx context.Context) error {
	if p.topic == nil {
		return nil
	}

	stopDone := make(chan struct{})
	go func() {
		p.topic.Stop()
		close(stopDone)
	}()

	select {
	case <-stopDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
