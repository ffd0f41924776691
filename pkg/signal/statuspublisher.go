package signal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-actuator-node/pkg/bus"
)

// StatusPublisher emits current-value echoes. Every echo is tagged with
// MarkerStatus so any node that receives it back — including this one —
// classifies it as non-actionable.
type StatusPublisher struct {
	publisher bus.Publisher
	logger    zerolog.Logger
}

// NewStatusPublisher creates a StatusPublisher on top of a transport
// publisher bound to the same topic as the node's subscription.
func NewStatusPublisher(publisher bus.Publisher, logger zerolog.Logger) *StatusPublisher {
	return &StatusPublisher{
		publisher: publisher,
		logger:    logger.With().Str("component", "StatusPublisher").Logger(),
	}
}

// PublishState sends the textual form of state with the status marker and
// UTF-8 text encoding declared out of band of the payload. A transport
// failure is returned to the caller; there is no retry here, and the caller
// must not roll back the already-applied actuator state because of it.
func (p *StatusPublisher) PublishState(ctx context.Context, state State) error {
	attributes := map[string]string{
		bus.AttrMarker:    MarkerStatus,
		bus.AttrEncoding:  EncodingTextUTF8,
		bus.AttrMessageID: uuid.NewString(),
	}

	if err := p.publisher.Publish(ctx, []byte(state.String()), attributes); err != nil {
		return fmt.Errorf("failed to publish status echo: %w", err)
	}
	p.logger.Info().Str("state", state.String()).Msg("Status echo published.")
	return nil
}
