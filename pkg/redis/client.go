package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/aegis-ratings/pkg/config"
)

const dialTimeout = 5 * time.Second

// ErrDisabled is returned by Ping when REDIS_ENABLED is false
var ErrDisabled = errors.New("redis disabled")

// Client holds the shared connection behind the provider call budget and
// the company profile cache. A disabled client is valid: the limiter lets
// every call through and the cache always misses.
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb  *redis.Client
	addr string
}

// New connects when cfg.Redis.Enabled, otherwise returns a disabled client
func New(cfg *config.Config) (*Client, error) {
	rc := cfg.Redis
	if !rc.Enabled {
		return &Client{}, nil
	}

	addr := net.JoinHostPort(rc.Host, rc.Port)
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    rc.Password,
		DB:          rc.DB,
		DialTimeout: dialTimeout,
	})

	c := &Client{rdb: rdb, addr: addr}
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if _, err := c.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return c, nil
}

// Ping round-trips to the server and reports the latency
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	if c.rdb == nil {
		return 0, ErrDisabled
	}
	start := time.Now()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("ping redis at %s: %w", c.addr, err)
	}
	return time.Since(start), nil
}

// Addr returns host:port, empty when disabled
func (c *Client) Addr() string {
	return c.addr
}

// Enabled reports whether a connection is held
func (c *Client) Enabled() bool {
	return c.rdb != nil
}

// Close releases the connection; no-op when disabled
func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Redis exposes the raw client to the cache and limiter in this package
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
