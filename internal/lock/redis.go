package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only when it still holds our token, so a
// holder whose TTL expired cannot release a lock taken by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every process talking to the same Redis.
type Redis struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	retry  time.Duration
	logger *zap.Logger
}

// NewRedis creates a Redis-backed Locker on key. ttl bounds how long a crashed
// holder can keep the lock. A nil logger discards release failures.
func NewRedis(client redis.UniversalClient, key string, ttl time.Duration, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{
		client: client,
		key:    key,
		ttl:    ttl,
		retry:  50 * time.Millisecond,
		logger: logger,
	}
}

func (r *Redis) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	for {
		ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return nil, errors.Join(ErrNotAcquired, ctx.Err())
			}
			return nil, err
		}
		if ok {
			return r.releaser(token), nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-time.After(r.retry):
		}
	}
}

func (r *Redis) releaser(token string) func() {
	return func() {
		if err := r.release(token); err != nil {
			r.logger.Warn("failed to release booking lock, it is held until the TTL expires",
				zap.String("key", r.key), zap.Duration("ttl", r.ttl), zap.Error(err))
		}
	}
}

// release deletes the key if it still holds token. It uses a fresh context
// because the caller's may already be done.
func (r *Redis) release(token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := releaseScript.Run(ctx, r.client, []string{r.key}, token).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
