package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore caches a provider bearer token until its validity window elapses.
// There is no invalidation path for early revocation; the next provider call
// fails and the caller re-authenticates.
type TokenStore interface {
	// Get returns the cached token, or "" when absent or expired.
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string, ttl time.Duration) error
}

type memoryTokenStore struct {
	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewMemoryTokenStore returns a process-local token cache.
func NewMemoryTokenStore() TokenStore {
	return &memoryTokenStore{}
}

func (s *memoryTokenStore) Get(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" || time.Now().After(s.expires) {
		return "", nil
	}
	return s.token, nil
}

func (s *memoryTokenStore) Set(_ context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expires = time.Now().Add(ttl)
	return nil
}

type redisTokenStore struct {
	client *redis.Client
	key    string
}

// NewRedisTokenStore returns a token cache shared across instances.
func NewRedisTokenStore(client *redis.Client, key string) TokenStore {
	return &redisTokenStore{client: client, key: key}
}

func (s *redisTokenStore) Get(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get token from redis: %w", err)
	}
	return token, nil
}

func (s *redisTokenStore) Set(ctx context.Context, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key, token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set token in redis: %w", err)
	}
	return nil
}
