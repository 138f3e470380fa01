// Package store provides the redis-backed session store and the
// outbound message correlation cache.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/appswitch-io/appswitch/internal/logging"
	"github.com/appswitch-io/appswitch/pkg/types"
)

// Connect dials redis and verifies the connection with a ping, retrying
// with exponential backoff until the context is done or the retry
// budget is exhausted.
func Connect(ctx context.Context, cfg types.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(), 5), ctx)

	err := backoff.Retry(func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			logging.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis ping failed, retrying")
			return err
		}
		return nil
	}, policy)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return client, nil
}

// Seconds converts a config expiry in seconds to a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
