package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, s
}

func TestRedisLockerIsExclusive(t *testing.T) {
	ctx := context.Background()
	client, s := setupTestRedis(t)
	locker := New(client)

	token, ok, err := locker.Acquire(ctx, "lock:engagement_sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, token)

	_, ok, err = locker.Acquire(ctx, "lock:engagement_sweep", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, locker.Release(ctx, "lock:engagement_sweep", token))
	_, ok, err = locker.Acquire(ctx, "lock:engagement_sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	s.FastForward(2 * time.Minute)
	require.False(t, s.Exists("lock:engagement_sweep"))
}

func TestRedisLockerKeepsLockTakenAfterExpiry(t *testing.T) {
	ctx := context.Background()
	client, s := setupTestRedis(t)
	locker := NewRedisLocker(client)

	first, ok, err := locker.Acquire(ctx, "lock:engagement_sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	s.FastForward(2 * time.Minute)

	second, ok, err := locker.Acquire(ctx, "lock:engagement_sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, first, second)

	err = locker.Release(ctx, "lock:engagement_sweep", first)
	require.ErrorIs(t, err, ErrLockLost)

	stored, err := s.Get("lock:engagement_sweep")
	require.NoError(t, err)
	require.Equal(t, second, stored)

	require.NoError(t, locker.Release(ctx, "lock:engagement_sweep", second))
	require.False(t, s.Exists("lock:engagement_sweep"))
}

func TestRedisLockerSurfacesConnectionErrors(t *testing.T) {
	client, s := setupTestRedis(t)
	s.Close()

	_, _, err := NewRedisLocker(client).Acquire(context.Background(), "lock:x", time.Minute)
	require.Error(t, err)
}

func TestLocalLockerExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 1, 3, 0, 0, 0, time.UTC)
	locker := &localLocker{held: make(map[string]localLease), nowFunc: func() time.Time { return now }}

	first, ok, err := locker.Acquire(ctx, "k", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, _ = locker.Acquire(ctx, "k", time.Hour)
	require.False(t, ok)

	now = now.Add(61 * time.Minute)
	second, ok, _ := locker.Acquire(ctx, "k", time.Hour)
	require.True(t, ok)

	require.ErrorIs(t, locker.Release(ctx, "k", first), ErrLockLost)
	_, ok, _ = locker.Acquire(ctx, "k", time.Hour)
	require.False(t, ok)

	require.NoError(t, locker.Release(ctx, "k", second))
	_, ok, _ = locker.Acquire(ctx, "k", time.Hour)
	require.True(t, ok)
}
