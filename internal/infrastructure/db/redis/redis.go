package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout   = 2 * time.Second
	defaultPoolSize  = 10
	defaultKeyPrefix = "smartsprint"
)

// Config captures the settings for the Redis connection backing the login
// throttle. Command timeouts are short because throttle checks sit on the
// login path and fail open.
type Config struct {
	Addr      string
	Password  string
	DB        int
	PoolSize  int
	Timeout   time.Duration
	KeyPrefix string
}

func (c Config) options() *redis.Options {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pool := c.PoolSize
	if pool <= 0 {
		pool = defaultPoolSize
	}
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     pool,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
}

// Client is a Redis client scoped to this service's key namespace.
type Client struct {
	*redis.Client
	prefix string
}

// NewClient wraps an existing client. An empty prefix uses the default
// namespace.
func NewClient(rdb *redis.Client, prefix string) *Client {
	prefix = strings.TrimSuffix(prefix, ":")
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Client{Client: rdb, prefix: prefix}
}

// Key joins parts under the client's namespace: <prefix>:<part>:<part>.
func (c *Client) Key(parts ...string) string {
	return c.prefix + ":" + strings.Join(parts, ":")
}

// Connect initialises a Redis client and validates connectivity with a ping.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	opts := cfg.options()
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return NewClient(client, cfg.KeyPrefix), nil
}
