package core

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reconnectableSource fails its state queries with a connection-class
// error until the service reconnects it.
type reconnectableSource struct {
	*stubSource
	reconnects atomic.Int32
}

func (s *reconnectableSource) Reconnect(ctx context.Context) error {
	s.reconnects.Add(1)
	s.stateErr = nil
	return nil
}

func TestRelayServiceReconnectsBothClients(t *testing.T) {
	fastRetry(t)

	source := &reconnectableSource{
		stubSource: &stubSource{
			chainID:  "alpha",
			stateErr: NewConnectionError(errors.New("connection refused")),
		},
	}
	target := &stubTarget{chainID: "beta"}

	srv := NewRelayService(testLaneID(t), source, target, ServiceOptions{
		RelayInterval: time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()

	require.Eventually(t, func() bool {
		return source.reconnects.Load() >= 1
	}, 5*time.Second, 5*time.Millisecond, "service never reconnected the failed client")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop after context cancellation")
	}
}

func TestRelayServiceStopsOnContextCancellation(t *testing.T) {
	source := &stubSource{chainID: "alpha"}
	target := &stubTarget{chainID: "beta"}
	srv := NewRelayService(testLaneID(t), source, target, ServiceOptions{
		RelayInterval: time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop after context cancellation")
	}
}

func TestNewRelayServiceDefaults(t *testing.T) {
	srv := NewRelayService(testLaneID(t), &stubSource{chainID: "alpha"}, &stubTarget{chainID: "beta"}, ServiceOptions{})
	assert.Equal(t, "basic", srv.opts.Strategy.GetType())
	assert.Equal(t, DefaultRelayInterval, srv.opts.RelayInterval)
	assert.Equal(t, DefaultStallTimeout, srv.opts.StallTimeout)
}
