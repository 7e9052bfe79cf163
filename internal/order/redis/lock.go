package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"linkdesk/internal/logger"
)

// Redis guards mutations with per-(resource, id, action) locks so two writes
// against the same logical resource never race, without serializing
// unrelated actions behind one flag.
type Redis struct {
	Client    *redis.Client
	Logger    *logger.Logger
	LockTTL   time.Duration
	UnreadTTL time.Duration
}

func NewRedis(client *redis.Client, log *logger.Logger, lockTTL, unreadTTL time.Duration) *Redis {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	if unreadTTL <= 0 {
		unreadTTL = DefaultUnreadTTL
	}
	return &Redis{
		Client:    client,
		Logger:    log,
		LockTTL:   lockTTL,
		UnreadTTL: unreadTTL,
	}
}

func lockKey(resource, id, action string) string {
	return fmt.Sprintf("action_lock:%s:%s:%s", resource, id, action)
}

// Acquire takes the lock for one action on one resource. The owner value is
// checked on release so a lock that expired and was re-taken by someone else
// is never deleted from under them.
func (r *Redis) Acquire(ctx context.Context, resource, id, action, owner string) (bool, error) {
	key := lockKey(resource, id, action)
	ok, err := r.Client.SetNX(ctx, key, owner, r.LockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis lock error: %w", err)
	}
	if !ok && r.Logger != nil {
		r.Logger.Warn("LOCK", fmt.Sprintf("%s already held", key))
	}
	return ok, nil
}

// Release frees the lock if the caller still owns it.
func (r *Redis) Release(ctx context.Context, resource, id, action, owner string) error {
	key := lockKey(resource, id, action)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already expired
	}
	if err != nil {
		return err
	}
	if val == owner {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}
