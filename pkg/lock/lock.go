package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrLocked is returned by TryLock when another holder owns the key.
var ErrLocked = errors.New("lock is held by another worker")

// Unlock releases a lock obtained from TryLock. Releasing an expired or
// already released lock is a no-op.
type Unlock func(ctx context.Context) error

// Locker hands out exclusive, expiring leases on string keys.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (Unlock, error)
}

func newToken() string {
	return uuid.NewString()
}
