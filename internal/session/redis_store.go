// Package session resolves request credentials to usernames.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Resolver maps a request credential to a username. It never fails: an
// absent, unknown or unreadable credential resolves to "" (anonymous).
type Resolver interface {
	ResolveIdentity(ctx context.Context, credential string) string
}

// tokenData holds the data stored for each session token
type tokenData struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisStore implements session token storage using Redis
type RedisStore struct {
	client *redis.Client
	prefix string
	log    zerolog.Logger
}

// NewRedisStore creates a new Redis-backed session store
func NewRedisStore(redisURL, prefix string, log zerolog.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, prefix, log), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client, prefix string, log zerolog.Logger) *RedisStore {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		log:    log.With().Str("component", "session").Logger(),
	}
}

// key stores a hash of the token so a leaked keyspace does not leak credentials
func (s *RedisStore) key(token string) string {
	return fmt.Sprintf("%s%x", s.prefix, sha256.Sum256([]byte(token)))
}

// Issue creates a new session token for username valid for ttl
func (s *RedisStore) Issue(ctx context.Context, username string, ttl time.Duration) (string, error) {
	if username == "" {
		return "", errors.New("username is required")
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	jsonData, err := json.Marshal(tokenData{Username: username, CreatedAt: time.Now().UTC()})
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}

	token := uuid.NewString()
	if err := s.client.Set(ctx, s.key(token), jsonData, ttl).Err(); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return token, nil
}

// ResolveIdentity returns the username bound to credential, or "" when the
// credential is missing, expired or the store cannot be read
func (s *RedisStore) ResolveIdentity(ctx context.Context, credential string) string {
	if credential == "" {
		return ""
	}

	jsonData, err := s.client.Get(ctx, s.key(credential)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ""
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("Session lookup failed, treating request as anonymous")
		return ""
	}

	var data tokenData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		s.log.Warn().Err(err).Msg("Corrupt session record, treating request as anonymous")
		return ""
	}
	return data.Username
}

// Revoke deletes a session token
func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
