// Package node owns the link session lifecycle: it brings the transport
// session up in order, runs the serialized dispatch loop that feeds the
// classifier and the actuation controller, and tears everything down again.
package node

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-actuator-node/pkg/actuator"
	"github.com/illmade-knight/go-actuator-node/pkg/bus"
	"github.com/illmade-knight/go-actuator-node/pkg/connectivity"
	"github.com/illmade-knight/go-actuator-node/pkg/signal"
)

// Service is the running node. Bring-up order is fixed: link readiness →
// consumer (session plus subscription) → dispatch loop → Serving. Teardown
// reverses it. Any failure during bring-up is fatal; the node never serves
// on a partially established session.
type Service struct {
	logger     zerolog.Logger
	waiter     connectivity.Waiter
	consumer   bus.MessageConsumer
	controller *actuator.Controller
	server     *Server
	state      atomic.Int32
	wg         sync.WaitGroup
	stopOnce   sync.Once
}

// NewService wires the collaborators together. The server may be nil when
// no HTTP surface is wanted.
func NewService(
	waiter connectivity.Waiter,
	consumer bus.MessageConsumer,
	controller *actuator.Controller,
	server *Server,
	logger zerolog.Logger,
) (*Service, error) {
	if waiter == nil {
		return nil, fmt.Errorf("waiter cannot be nil")
	}
	if consumer == nil {
		return nil, fmt.Errorf("consumer cannot be nil")
	}
	if controller == nil {
		return nil, fmt.Errorf("controller cannot be nil")
	}
	return &Service{
		logger:     logger.With().Str("service", "ActuatorNode").Logger(),
		waiter:     waiter,
		consumer:   consumer,
		controller: controller,
		server:     server,
	}, nil
}

// State returns the current lifecycle state.
func (s *Service) State() LifecycleState {
	return LifecycleState(s.state.Load())
}

func (s *Service) setState(state LifecycleState) {
	s.state.Store(int32(state))
	s.logger.Info().Str("state", state.String()).Msg("Lifecycle state changed.")
}

// Start brings the session up. It returns an error — and leaves the node
// out of service — if the link never becomes ready or any declaration fails.
func (s *Service) Start(ctx context.Context) error {
	s.setState(Initializing)

	if err := s.waiter.WaitReady(ctx); err != nil {
		return fmt.Errorf("link acquisition failed: %w", err)
	}
	s.setState(LinkUp)

	if err := s.consumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to establish transport session: %w", err)
	}
	s.setState(SessionOpen)

	if s.server != nil {
		if err := s.server.Start(); err != nil {
			_ = s.consumer.Stop(context.Background())
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}

	// A single dispatch worker: inbound handling runs to completion, one
	// message at a time, so the controller never sees overlapping commands.
	s.wg.Add(1)
	go s.dispatch(ctx)

	s.setState(Serving)
	s.logger.Info().Msg("Actuator node is serving.")
	return nil
}

// dispatch drains the consumer channel until shutdown or channel close.
func (s *Service) dispatch(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Dispatch loop shutting down.")
			return
		case msg, ok := <-s.consumer.Messages():
			if !ok {
				s.logger.Info().Msg("Consumer channel closed, dispatch loop exiting.")
				return
			}
			s.handle(ctx, &msg)
		}
	}
}

// handle processes one inbound message to completion. Failures are logged
// and swallowed here: nothing propagates across the transport boundary and
// nothing is ever published back on error, so the subscription stays alive
// and rejected commands are silent no-ops from the bus's perspective.
func (s *Service) handle(ctx context.Context, msg *bus.Message) {
	event := s.logger.Debug().
		Str("msg_id", msg.ID).
		Str("topic", msg.Topic).
		Str("payload", string(msg.Payload))
	if encoding, ok := msg.Attributes[bus.AttrEncoding]; ok {
		event = event.Str("encoding", encoding)
	}
	if !msg.PublishTime.IsZero() {
		event = event.Time("publish_time", msg.PublishTime)
	}
	event.Msg("Received message.")

	defer msg.Ack()

	switch kind := signal.Classify(msg); kind {
	case signal.KindStatusEcho:
		s.logger.Debug().Str("msg_id", msg.ID).Msg("Received currentValue, discarding signal.")
	case signal.KindUnknown:
		s.logger.Debug().Str("msg_id", msg.ID).Msg("Message has no recognised marker, ignoring.")
	case signal.KindCommand:
		state, err := s.controller.Apply(ctx, string(msg.Payload))
		switch {
		case errors.Is(err, signal.ErrUnrecognizedValue):
			s.logger.Warn().Str("msg_id", msg.ID).Str("payload", string(msg.Payload)).Msg("Unrecognized target value, no state change.")
		case err != nil:
			// The physical action has taken effect; only the echo is lost.
			s.logger.Error().Err(err).Str("msg_id", msg.ID).Msg("Command applied but status echo failed.")
		default:
			s.logger.Info().Str("msg_id", msg.ID).Str("state", state.String()).Msg("Command applied.")
		}
	}
}

// Stop tears the session down in reverse order of bring-up.
func (s *Service) Stop(ctx context.Context) error {
	var stopErr error
	s.stopOnce.Do(func() {
		s.setState(ShuttingDown)

		if err := s.consumer.Stop(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Error during consumer stop, continuing shutdown.")
		}

		workerDone := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(workerDone)
		}()
		select {
		case <-workerDone:
			s.logger.Info().Msg("Dispatch loop completed gracefully.")
		case <-ctx.Done():
			s.logger.Error().Err(ctx.Err()).Msg("Timeout waiting for dispatch loop to finish.")
			stopErr = ctx.Err()
		}

		if s.server != nil {
			if err := s.server.Shutdown(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("Error during HTTP server shutdown.")
			}
		}

		s.setState(Closed)
	})
	return stopErr
}
