package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockLost is returned by Release when the key expired and is now owned
// by someone else, or is gone.
var ErrLockLost = errors.New("lock no longer held")

// Locker grants short-lived exclusive ownership of a named key.
type Locker interface {
	// Acquire reports whether the caller now owns key. Ownership lapses after
	// ttl. The returned token must be handed back to Release.
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	// Release drops key only while it is still held under token.
	Release(ctx context.Context, key, token string) error
}

// New returns a Redis backed locker, or an in-process one when rdb is nil.
func New(rdb *redis.Client) Locker {
	if rdb == nil {
		return NewLocalLocker()
	}
	return NewRedisLocker(rdb)
}

// releaseScript deletes the key only when it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	rdb *redis.Client
}

func NewRedisLocker(rdb *redis.Client) Locker {
	return &redisLocker{rdb: rdb}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	wasSet, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !wasSet {
		return "", false, nil
	}
	return token, true, nil
}

func (l *redisLocker) Release(ctx context.Context, key, token string) error {
	deleted, err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Int()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	if deleted == 0 {
		return fmt.Errorf("release %s: %w", key, ErrLockLost)
	}
	return nil
}

type localLease struct {
	token     string
	expiresAt time.Time
}

type localLocker struct {
	mu      sync.Mutex
	held    map[string]localLease
	nowFunc func() time.Time
}

// NewLocalLocker guards keys inside a single process only.
func NewLocalLocker() Locker {
	return &localLocker{
		held:    make(map[string]localLease),
		nowFunc: time.Now,
	}
}

func (l *localLocker) Acquire(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	if lease, ok := l.held[key]; ok && now.Before(lease.expiresAt) {
		return "", false, nil
	}
	token := uuid.NewString()
	l.held[key] = localLease{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

func (l *localLocker) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	lease, ok := l.held[key]
	if !ok || lease.token != token {
		return fmt.Errorf("release %s: %w", key, ErrLockLost)
	}
	delete(l.held, key)
	return nil
}
