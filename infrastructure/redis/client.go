package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/AzielCF/az-pricing/infrastructure/valkey"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultConnectTimeout is the maximum time to wait for initial connection
const DefaultConnectTimeout = 5 * time.Second

// Config holds the configuration for creating a Redis client
type Config struct {
	Address        string
	Password       string
	DB             int
	KeyPrefix      string
	ConnectTimeout time.Duration
}

// Client wraps go-redis with the same key namespace rules as the Valkey client.
type Client struct {
	inner     *goredis.Client
	keyPrefix string
}

// NewClient connects to Redis and verifies the connection with a PING.
func NewClient(cfg Config) (*Client, error) {
	inner := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := inner.Ping(ctx).Err(); err != nil {
		_ = inner.Close()
		return nil, fmt.Errorf("failed to ping redis (timeout: %v): %w", timeout, err)
	}

	return &Client{inner: inner, keyPrefix: valkey.NormalizePrefix(cfg.KeyPrefix)}, nil
}

// Inner returns the underlying go-redis client.
func (c *Client) Inner() *goredis.Client {
	return c.inner
}

// Close closes the Redis connection.
func (c *Client) Close() {
	if c.inner != nil {
		_ = c.inner.Close()
	}
}

// Key constructs a prefixed key from the given parts.
func (c *Client) Key(parts ...string) string {
	return valkey.JoinKey(c.keyPrefix, parts...)
}

// IsNil reports a missing key.
func IsNil(err error) bool {
	return err == goredis.Nil
}
