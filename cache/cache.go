// Package cache wraps a Redis client as the ephemeral keyed store backing
// session tokens. Keys expire on the server side; the wrapper never runs
// cleanup of its own.
package cache

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"sync/atomic"
	"time"

	identity "github.com/filevault/go-identity"
	"github.com/goliatone/go-errors"
	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"
)

// Config for the Redis-backed keyed store. Defaults load via envdecode.
type Config struct {
	// Addr like "localhost:6379". ENV: REDIS_ADDR
	Addr string `env:"REDIS_ADDR,default=localhost:6379"`
	// DB selects the logical Redis database. ENV: REDIS_DB
	DB int `env:"REDIS_DB,default=0"`
	// DialTimeout bounds connection establishment. ENV: REDIS_DIAL_TIMEOUT
	DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT,default=5s"`
}

// Client is a process-wide singleton over one shared Redis connection pool,
// safe for concurrent use by many in-flight requests.
type Client struct {
	rdb     *redis.Client
	healthy atomic.Bool
}

var _ identity.KeyedStore = (*Client)(nil)

// New builds the client and primes the health flag with one ping. A store
// that is down at startup is not fatal: health reads false until the next
// successful connect event.
func New(cfg Config) *Client {
	c := &Client{}

	c.rdb = redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
		OnConnect:   c.onConnect,
	})
	c.rdb.AddHook(&healthHook{client: c})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	c.healthy.Store(c.rdb.Ping(ctx).Err() == nil)

	return c
}

// onConnect marks the store reachable on every successful (re)connect.
func (c *Client) onConnect(ctx context.Context, cn *redis.Conn) error {
	c.healthy.Store(true)
	return nil
}

// NewFromEnv builds a Client using envdecode to populate Config; defaults
// come from the struct tags. A malformed environment value is an error,
// not a silent fallback to zero values.
func NewFromEnv() (*Client, error) {
	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, err
	}
	return New(cfg), nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error { return c.rdb.Close() }

// Redis exposes the shared client so collaborators (the work queue) can
// reuse the same connection.
func (c *Client) Redis() *redis.Client { return c.rdb }

// IsHealthy reflects the last observed connection event, not a live probe.
func (c *Client) IsHealthy() bool { return c.healthy.Load() }

// Get retrieves the value of a key. An absent key is (_, false, nil), not
// an error.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, wrap(err, "redis get")
	}
	return val, true, nil
}

// Set stores a key with a server-side expiry in one atomic command.
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return wrap(err, "redis set")
	}
	return nil
}

// Del removes a key. Deleting an absent key is not an error.
func (c *Client) Del(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return wrap(err, "redis del")
	}
	return nil
}

func wrap(err error, op string) error {
	return errors.Wrap(err, errors.CategoryOperation, op+" failed").
		WithTextCode(identity.TextCodeStoreUnreachable)
}

// healthHook flips the health flag on connection-level events. Individual
// command outcomes (redis.Nil and friends) leave it alone.
type healthHook struct {
	client *Client
}

var _ redis.Hook = (*healthHook)(nil)

func (h *healthHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.client.healthy.Store(false)
		}
		return conn, err
	}
}

func (h *healthHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if isConnError(err) {
			h.client.healthy.Store(false)
		}
		return err
	}
}

func (h *healthHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if isConnError(err) {
			h.client.healthy.Store(false)
		}
		return err
	}
}

func isConnError(err error) bool {
	if err == nil || stderrors.Is(err, redis.Nil) {
		return false
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) ||
		stderrors.Is(err, io.EOF) ||
		stderrors.Is(err, net.ErrClosed)
}
