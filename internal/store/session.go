package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/appswitch-io/appswitch/pkg/types"
)

// SessionStore persists per-user dialog sessions as redis hashes. Keys
// are namespaced by the worker prefix; every write refreshes the
// session TTL.
type SessionStore struct {
	client *redis.Client
	prefix string
	expiry time.Duration
}

// NewSessionStore creates a session store with the given key prefix and
// session expiry.
func NewSessionStore(client *redis.Client, prefix string, expiry time.Duration) *SessionStore {
	return &SessionStore{client: client, prefix: prefix, expiry: expiry}
}

func (s *SessionStore) key(userID string) string {
	return s.prefix + ":" + userID
}

// Load fetches a user's session. A missing session comes back as an
// empty map; callers treat that as "no open dialog".
func (s *SessionStore) Load(ctx context.Context, userID string) (types.Session, error) {
	fields, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session for %s: %w", userID, err)
	}
	return types.Session(fields), nil
}

// Create initializes a session with the given fields plus a
// store-managed created_at timestamp. Any previous session for the
// user is removed first so the new one starts clean.
func (s *SessionStore) Create(ctx context.Context, userID string, fields types.Session) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to reset session for %s: %w", userID, err)
	}
	sess := types.Session{
		types.FieldCreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	sess.Merge(fields)
	return s.Save(ctx, userID, sess)
}

// Save writes the session fields and refreshes the TTL.
func (s *SessionStore) Save(ctx context.Context, userID string, sess types.Session) error {
	key := s.key(userID)
	pipe := s.client.TxPipeline()
	for field, value := range sess {
		pipe.HSet(ctx, key, field, value)
	}
	pipe.Expire(ctx, key, s.expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session for %s: %w", userID, err)
	}
	return nil
}

// Clear removes a user's session. Clearing an absent session is not an
// error.
func (s *SessionStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session for %s: %w", userID, err)
	}
	return nil
}
