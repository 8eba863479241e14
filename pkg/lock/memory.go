package lock

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryLocker serialises work inside a single process.
type MemoryLocker struct {
	cache *cache.Cache
}

var _ Locker = &MemoryLocker{}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{cache: cache.New(cache.NoExpiration, time.Minute)}
}

func (m *MemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (Unlock, error) {
	token := newToken()
	// Add fails when a live item already exists under key.
	if err := m.cache.Add(key, token, ttl); err != nil {
		return nil, ErrLocked
	}
	return func(context.Context) error {
		if v, ok := m.cache.Get(key); ok && v.(string) == token {
			m.cache.Delete(key)
		}
		return nil
	}, nil
}
