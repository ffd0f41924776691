// Package connectivity gates session bring-up on link readiness. The node
// only ever enters service strictly after a Waiter reports the link ready;
// this is also the only place any retry exists in the node.
package connectivity

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
)

// Waiter blocks until the network link is ready.
type Waiter interface {
	WaitReady(ctx context.Context) error
}

// NopWaiter reports the link ready immediately. Used when the node scouts
// for its transport instead of dialing a fixed endpoint.
type NopWaiter struct{}

// WaitReady always succeeds.
func (NopWaiter) WaitReady(_ context.Context) error { return nil }

// ProbeConfig holds the settings for a TCPProbe.
type ProbeConfig struct {
	// Address is the "<host>:<port>" endpoint to probe.
	Address string
	// MaxRetries bounds how many times a failed probe is retried before the
	// node gives up.
	MaxRetries int
	// RetryWait is the pause between attempts.
	RetryWait time.Duration
	// DialTimeout caps a single attempt.
	DialTimeout time.Duration
}

// TCPProbe waits for a TCP endpoint to accept connections, retrying a
// bounded number of times.
type TCPProbe struct {
	cfg    ProbeConfig
	logger zerolog.Logger
}

// NewTCPProbe creates a probe with defaults filled in for unset fields.
func NewTCPProbe(cfg ProbeConfig, logger zerolog.Logger) *TCPProbe {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 2 * time.Second
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}
	return &TCPProbe{
		cfg:    cfg,
		logger: logger.With().Str("component", "TCPProbe").Str("address", cfg.Address).Logger(),
	}
}

// WaitReady dials the endpoint until a connection succeeds or the retry
// budget is spent. The last dial error is wrapped into the failure.
func (p *TCPProbe) WaitReady(ctx context.Context) error {
	var lastErr error
	attempts := p.cfg.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := (&net.Dialer{Timeout: p.cfg.DialTimeout}).DialContext(ctx, "tcp", p.cfg.Address)
		if err == nil {
			_ = conn.Close()
			p.logger.Info().Int("attempt", attempt).Msg("Link is ready.")
			return nil
		}
		lastErr = err
		p.logger.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", attempts).Msg("Link not ready yet.")

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.cfg.RetryWait):
		}
	}
	return fmt.Errorf("link not ready after %d attempts: %w", attempts, lastErr)
}
