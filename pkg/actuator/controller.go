package actuator

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-actuator-node/pkg/signal"
)

// Controller owns the actuator state. It is the only writer of both the
// in-memory state and the physical actuator; the state starts Off and is
// mutated only by a successfully validated command.
type Controller struct {
	mu     sync.Mutex
	driver Driver
	echo   *signal.StatusPublisher
	state  signal.State
	logger zerolog.Logger
}

// NewController creates a Controller with the state initialised to Off.
func NewController(driver Driver, echo *signal.StatusPublisher, logger zerolog.Logger) *Controller {
	return &Controller{
		driver: driver,
		echo:   echo,
		state:  signal.Off,
		logger: logger.With().Str("component", "Controller").Logger(),
	}
}

// State returns the current actuator state.
func (c *Controller) State() signal.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Apply validates a command payload, drives the actuator, updates the state
// and publishes a status echo, all as one mutually-exclusive unit so a
// second command can never observe a half-applied state.
//
// An unrecognised payload returns signal.ErrUnrecognizedValue and leaves
// everything untouched. A failed echo is returned wrapped, but the already
// applied state is kept: the physical action has taken effect and is not
// rolled back or retried. Apply is idempotent with respect to state —
// re-applying the same payload re-drives the actuator and emits a fresh
// echo.
func (c *Controller) Apply(ctx context.Context, payload string) (signal.State, error) {
	target, err := signal.ParseState(payload)
	if err != nil {
		return c.State(), err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Info().Str("target", target.String()).Msg("Driving actuator.")
	c.driver.Set(bool(target))
	c.state = target

	if err := c.echo.PublishState(ctx, target); err != nil {
		return target, fmt.Errorf("state %s applied but echo failed: %w", target, err)
	}
	return target, nil
}
