// Package redis holds the shared connection behind the summary cache. The
// cache is optional: deployments without a configured URL run every summary
// query against Postgres.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"capledger/internal/platform/config"
)

// Client wraps go-redis and carries the liveness probe the health endpoint
// polls.
type Client struct {
	*redis.Client
}

// New dials Redis from the given configuration and verifies the connection
// before returning it. An empty URL disables caching; callers receive a nil
// client and must treat it as absent.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	// Non-positive pool settings fall through to the driver defaults.
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{Client: client}, nil
}

// Health reports whether the connection still answers.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
