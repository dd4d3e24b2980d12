package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config describes the Redis connection backing idempotency keys.
type Config struct {
	URL         string
	PoolSize    int
	ClientName  string
	PingTimeout time.Duration
}

// NewClient connects using cfg and checks that the server answers. Values
// set in cfg override those parsed from the URL.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.ClientName = cfg.ClientName
	if opts.ClientName == "" {
		opts.ClientName = "tapajos"
	}

	client := redis.NewClient(opts)

	if err := Ping(client)(ctx, cfg.PingTimeout); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// Ping returns a health probe for client bounded by timeout (5s when zero).
func Ping(client redis.UniversalClient) func(ctx context.Context, timeout time.Duration) error {
	return func(ctx context.Context, timeout time.Duration) error {
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		return nil
	}
}
