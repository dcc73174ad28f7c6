package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/erazemk/katalog/internal/store"
)

// Revocations records logged out tokens until they expire.
type Revocations interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// StoreRevocations keeps the revocation list in the document store.
type StoreRevocations struct {
	Tokens store.Tokens
}

func (s StoreRevocations) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	return s.Tokens.RevokeToken(ctx, jti, expiresAt)
}

func (s StoreRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.Tokens.IsTokenRevoked(ctx, jti)
}

// RedisRevocations keeps one key per revoked token, expiring with the token.
type RedisRevocations struct {
	client *redis.Client
	prefix string
}

// NewRedisRevocations connects to redisURL and checks the connection.
func NewRedisRevocations(ctx context.Context, redisURL string) (*RedisRevocations, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return NewRedisRevocationsFromClient(client), nil
}

// NewRedisRevocationsFromClient wraps an existing client.
func NewRedisRevocationsFromClient(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{client: client, prefix: "katalog:revoked:"}
}

// Revoke stores the JTI with a TTL equal to the token's remaining lifetime.
// Tokens that have already expired need no entry.
func (r *RedisRevocations) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.prefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return n > 0, nil
}

// Close closes the Redis client.
func (r *RedisRevocations) Close() error {
	return r.client.Close()
}
