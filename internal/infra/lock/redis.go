package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockScript удаляет ключ, только если он всё ещё принадлежит нам
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock распределённая блокировка на SET NX. Работает между репликами сервиса.
type RedisLock struct {
	client *redis.Client
	owners sync.Map // lock key -> token владельца
}

func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

func (r *RedisLock) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	const op = "lock.RedisLock.Lock"

	lockKey := fmt.Sprintf("lock:%s", key)
	owner := uuid.NewString()

	ok, err := r.client.SetNX(ctx, lockKey, owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if ok {
		r.owners.Store(lockKey, owner)
	}
	return ok, nil
}

func (r *RedisLock) Unlock(ctx context.Context, key string) error {
	const op = "lock.RedisLock.Unlock"

	lockKey := fmt.Sprintf("lock:%s", key)
	owner, ok := r.owners.LoadAndDelete(lockKey)
	if !ok {
		return nil
	}

	if err := unlockScript.Run(ctx, r.client, []string{lockKey}, owner).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
