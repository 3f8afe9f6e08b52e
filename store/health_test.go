package store

import (
	"context"
	"database/sql"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
)

func TestHealthHookFlipsOnConnectionEvents(t *testing.T) {
	ctx := context.Background()

	c := &Client{}
	c.healthy.Store(true)
	hook := &healthHook{client: c}

	// A connection-level failure flips health false.
	hook.AfterQuery(ctx, &bun.QueryEvent{
		Err: &net.OpError{Op: "read", Net: "tcp", Err: io.EOF},
	})
	assert.False(t, c.IsHealthy())

	// The next successful round-trip alone restores it.
	hook.AfterQuery(ctx, &bun.QueryEvent{})
	assert.True(t, c.IsHealthy())
}

func TestHealthHookIgnoresRowLevelOutcomes(t *testing.T) {
	ctx := context.Background()

	c := &Client{}
	c.healthy.Store(true)
	hook := &healthHook{client: c}

	hook.AfterQuery(ctx, &bun.QueryEvent{Err: sql.ErrNoRows})
	assert.True(t, c.IsHealthy())

	// And an empty result while unhealthy does not fake a recovery either.
	c.healthy.Store(false)
	hook.AfterQuery(ctx, &bun.QueryEvent{Err: sql.ErrNoRows})
	assert.False(t, c.IsHealthy())
}
