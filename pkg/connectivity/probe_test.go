package connectivity_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-actuator-node/pkg/connectivity"
)

func TestTCPProbe_ReadyEndpoint(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		for {
			conn, acceptErr := listener.Accept()
			if acceptErr != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	probe := connectivity.NewTCPProbe(connectivity.ProbeConfig{
		Address:     listener.Addr().String(),
		MaxRetries:  1,
		RetryWait:   10 * time.Millisecond,
		DialTimeout: time.Second,
	}, zerolog.Nop())

	assert.NoError(t, probe.WaitReady(context.Background()))
}

func TestTCPProbe_RetriesAreBounded(t *testing.T) {
	// Reserve a port, then close it so nothing is listening there.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := listener.Addr().String()
	require.NoError(t, listener.Close())

	probe := connectivity.NewTCPProbe(connectivity.ProbeConfig{
		Address:     address,
		MaxRetries:  2,
		RetryWait:   5 * time.Millisecond,
		DialTimeout: 100 * time.Millisecond,
	}, zerolog.Nop())

	start := time.Now()
	err = probe.WaitReady(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 attempts")
	assert.Less(t, time.Since(start), 5*time.Second, "the probe must give up, not retry forever")
}

func TestTCPProbe_ContextCancelStopsWaiting(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := listener.Addr().String()
	require.NoError(t, listener.Close())

	probe := connectivity.NewTCPProbe(connectivity.ProbeConfig{
		Address:     address,
		MaxRetries:  100,
		RetryWait:   time.Hour,
		DialTimeout: 50 * time.Millisecond,
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	t.Cleanup(cancel)

	err = probe.WaitReady(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNopWaiter(t *testing.T) {
	assert.NoError(t, connectivity.NopWaiter{}.WaitReady(context.Background()))
}
