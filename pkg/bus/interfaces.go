// Package bus defines the canonical message type and the transport
// contracts this node consumes and publishes through, plus the Google
// Cloud Pub/Sub bindings for them.
package bus

import (
	"context"
)

// MessageConsumer is the inbound side of a transport session. It delivers
// received messages one at a time on a channel; implementations guarantee
// the channel is closed once the consumer has stopped.
type MessageConsumer interface {
	// Messages returns the read-only channel inbound messages arrive on.
	Messages() <-chan Message
	// Start opens the subscription and begins delivery.
	Start(ctx context.Context) error
	// Stop gracefully ceases delivery and waits for background tasks.
	Stop(ctx context.Context) error
	// Done returns a channel that is closed when the consumer has fully shut down.
	Done() <-chan struct{}
}

// Publisher sends a single message to the bus. Both bindings publish on the
// fixed topic they were constructed with: commands and their echoes travel
// on the same key expression.
type Publisher interface {
	// Publish sends the payload with the given side-channel attributes and
	// blocks until the transport confirms or rejects it.
	Publish(ctx context.Context, payload []byte, attributes map[string]string) error
	// Stop flushes any pending messages.
	Stop(ctx context.Context) error
}
