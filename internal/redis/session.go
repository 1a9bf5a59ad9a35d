package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"busticket/internal/domain"
)

const sessionCachePrefix = "session:"

// SessionStore caches login sessions by session key.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Get retrieves a cached session. Returns nil on a cache miss.
func (s *SessionStore) Get(ctx context.Context, key string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, sessionCachePrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Set caches a session until it expires or ttl elapses, whichever is first.
func (s *SessionStore) Set(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	if remaining := time.Until(session.ExpiresAt); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionCachePrefix+session.SessionKey, data, ttl).Err()
}

// Delete removes a session from cache.
func (s *SessionStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, sessionCachePrefix+key).Err()
}
