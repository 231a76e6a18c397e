package revocation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	keys   map[string]time.Duration
	setErr error
	exErr  error
}

func (f *fakeRedis) Set(_ context.Context, key string, _ interface{}, exp time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.keys[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	if f.exErr != nil {
		return redis.NewIntResult(0, f.exErr)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	f := &fakeRedis{keys: map[string]time.Duration{}}
	s := NewRedisStore(f)

	require.NoError(t, s.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

	ttl, ok := f.keys["babypal:revoked:jti-1"]
	require.True(t, ok)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = s.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisStore_AlreadyExpiredIsNoop(t *testing.T) {
	f := &fakeRedis{keys: map[string]time.Duration{}}
	s := NewRedisStore(f)

	require.NoError(t, s.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	assert.Empty(t, f.keys)
}

func TestRedisStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := NewRedisStore(&fakeRedis{keys: map[string]time.Duration{}, setErr: errors.New("down"), exErr: errors.New("down")})

	assert.ErrorContains(t, s.Revoke(ctx, "j", time.Now().Add(time.Hour)), "redis set: down")

	_, err := s.IsRevoked(ctx, "j")
	assert.ErrorContains(t, err, "redis exists: down")
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "http://not-redis")
	assert.ErrorContains(t, err, "failed to parse Redis URL")
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Revoke(ctx, "a", now.Add(time.Minute)))
	require.NoError(t, s.Revoke(ctx, "stale", now.Add(-time.Minute)))

	revoked, _ := s.IsRevoked(ctx, "a")
	assert.True(t, revoked)
	revoked, _ = s.IsRevoked(ctx, "stale")
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, _ = s.IsRevoked(ctx, "a")
	assert.False(t, revoked, "entries lapse with the token")

	require.NoError(t, s.Revoke(ctx, "b", now.Add(time.Minute)))
	assert.Len(t, s.revoked, 1, "expired entries are purged on write")
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Revoke(ctx, string(rune('a'+i%26)), time.Now().Add(time.Minute))
			_, _ = s.IsRevoked(ctx, "a")
		}(i)
	}
	wg.Wait()

	revoked, err := s.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)
}
