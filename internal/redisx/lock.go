package redisx

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotAcquired = errors.New("lock not acquired")

// hanya hapus kalau token masih milik kita
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type Locker struct {
	RDB     *redis.Client
	TTL     time.Duration
	Retries int
	Wait    time.Duration
}

func NewLocker(rdb *redis.Client) *Locker {
	return &Locker{RDB: rdb, TTL: TTLLock, Retries: 50, Wait: 100 * time.Millisecond}
}

// Acquire spins on SETNX until the lock is held or retries run out.
func (l *Locker) Acquire(ctx context.Context, kind, id string) (release func(), err error) {
	key := fmt.Sprintf(KeyLock, kind, id)
	token := uuid.NewString()
	for i := 0; i <= l.Retries; i++ {
		ok, err := l.RDB.SetNX(ctx, key, token, l.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock error: %w", err)
		}
		if ok {
			return func() {
				if err := unlockScript.Run(context.Background(), l.RDB, []string{key}, token).Err(); err != nil {
					log.Printf("[redisx] release %s: %v", key, err)
				}
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.Wait):
		}
	}
	return nil, ErrLockNotAcquired
}
