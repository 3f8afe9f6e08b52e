package cache

import (
	"context"
	"io"
	"net"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connErr() error {
	return &net.OpError{Op: "read", Net: "tcp", Err: io.EOF}
}

func TestHealthFlipsOnConnectionEvents(t *testing.T) {
	ctx := context.Background()

	c := &Client{}
	c.healthy.Store(true)
	hook := &healthHook{client: c}

	// A connection-level command failure flips health false.
	process := hook.ProcessHook(func(ctx context.Context, cmd redis.Cmder) error {
		return connErr()
	})
	require.Error(t, process(ctx, redis.NewStatusCmd(ctx)))
	assert.False(t, c.IsHealthy())

	// The reconnect event alone restores it; no operation in between.
	require.NoError(t, c.onConnect(ctx, nil))
	assert.True(t, c.IsHealthy())
}

func TestHealthIgnoresCommandLevelOutcomes(t *testing.T) {
	ctx := context.Background()

	c := &Client{}
	c.healthy.Store(true)
	hook := &healthHook{client: c}

	// An absent key is a command outcome, not a connection event.
	process := hook.ProcessHook(func(ctx context.Context, cmd redis.Cmder) error {
		return redis.Nil
	})
	require.Error(t, process(ctx, redis.NewStatusCmd(ctx)))
	assert.True(t, c.IsHealthy())
}

func TestHealthFlipsOnDialFailure(t *testing.T) {
	ctx := context.Background()

	c := &Client{}
	c.healthy.Store(true)
	hook := &healthHook{client: c}

	dial := hook.DialHook(func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, connErr()
	})
	_, err := dial(ctx, "tcp", "localhost:6379")
	require.Error(t, err)
	assert.False(t, c.IsHealthy())

	require.NoError(t, c.onConnect(ctx, nil))
	assert.True(t, c.IsHealthy())
}

func TestHealthFlipsOnPipelineFailure(t *testing.T) {
	ctx := context.Background()

	c := &Client{}
	c.healthy.Store(true)
	hook := &healthHook{client: c}

	pipeline := hook.ProcessPipelineHook(func(ctx context.Context, cmds []redis.Cmder) error {
		return connErr()
	})
	require.Error(t, pipeline(ctx, []redis.Cmder{redis.NewStatusCmd(ctx)}))
	assert.False(t, c.IsHealthy())
}
