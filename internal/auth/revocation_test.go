package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/katalog/internal/store/sqlitestore"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisRevocations) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	revs := NewRedisRevocationsFromClient(client)
	t.Cleanup(func() { revs.Close() })

	return mr, revs
}

func TestRedisRevocations(t *testing.T) {
	mr, revs := setupTestRedis(t)
	ctx := context.Background()

	revoked, err := revs.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, revs.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = revs.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl := mr.TTL("katalog:revoked:jti-1")
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	mr.FastForward(2 * time.Hour)
	revoked, err = revs.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entry expires with the token")
}

func TestRedisRevocationsSkipsExpired(t *testing.T) {
	mr, revs := setupTestRedis(t)

	require.NoError(t, revs.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("katalog:revoked:old"))
}

func TestNewRedisRevocations(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	revs, err := NewRedisRevocations(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer revs.Close()

	_, err = NewRedisRevocations(context.Background(), "://bad")
	assert.Error(t, err)
}

func TestStoreRevocations(t *testing.T) {
	revs := StoreRevocations{Tokens: sqlitestore.NewTestStore(t)}
	ctx := context.Background()

	require.NoError(t, revs.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err := revs.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = revs.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}
