package lock

import (
	"context"
	"time"
)

// Locker кратковременная блокировка по ключу. Lock не ждёт: false означает,
// что ключ уже занят.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}
