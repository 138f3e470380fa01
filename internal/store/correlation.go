package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CorrelationCache remembers which user each outbound message was sent
// to, so delivery events arriving later can be routed back through the
// user's session. Entries expire after the message expiry; an event
// arriving after that is simply dropped by the caller.
type CorrelationCache struct {
	client *redis.Client
	expiry time.Duration
}

// NewCorrelationCache creates a correlation cache with the given entry
// TTL.
func NewCorrelationCache(client *redis.Client, expiry time.Duration) *CorrelationCache {
	return &CorrelationCache{client: client, expiry: expiry}
}

func cacheKey(messageID string) string {
	return "cache:" + messageID
}

// Put records the user an outbound message was addressed to.
func (c *CorrelationCache) Put(ctx context.Context, messageID, userID string) error {
	if err := c.client.SetEx(ctx, cacheKey(messageID), userID, c.expiry).Err(); err != nil {
		return fmt.Errorf("failed to cache user for message %s: %w", messageID, err)
	}
	return nil
}

// Get returns the user id recorded for a message, or empty when the
// entry is missing or expired.
func (c *CorrelationCache) Get(ctx context.Context, messageID string) (string, error) {
	userID, err := c.client.Get(ctx, cacheKey(messageID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up user for message %s: %w", messageID, err)
	}
	return userID, nil
}
