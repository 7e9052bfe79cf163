package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const unreadKeyPrefix = "unread_counts:"

// DefaultUnreadTTL caps how stale a cached unread-count map can be. Views
// poll every few seconds, so a short TTL absorbs most of that load.
const DefaultUnreadTTL = 3 * time.Second

// GetUnreadCounts returns the cached per-order unread map for a viewer, or
// (nil, false) on a miss.
func (r *Redis) GetUnreadCounts(ctx context.Context, userID string) (map[string]int, bool, error) {
	raw, err := r.Client.Get(ctx, unreadKeyPrefix+userID).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get unread counts: %w", err)
	}

	var counts map[string]int
	if err := json.Unmarshal([]byte(raw), &counts); err != nil {
		return nil, false, fmt.Errorf("unmarshal unread counts: %w", err)
	}
	return counts, true, nil
}

// SetUnreadCounts caches a viewer's unread map. A non-positive ttl means
// the configured one.
func (r *Redis) SetUnreadCounts(ctx context.Context, userID string, counts map[string]int, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.UnreadTTL
	}
	if ttl <= 0 {
		ttl = DefaultUnreadTTL
	}
	raw, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("marshal unread counts: %w", err)
	}
	return r.Client.Set(ctx, unreadKeyPrefix+userID, raw, ttl).Err()
}

// InvalidateUnreadCounts drops a viewer's cached map, e.g. after a new
// comment or a read mark.
func (r *Redis) InvalidateUnreadCounts(ctx context.Context, userID string) error {
	return r.Client.Del(ctx, unreadKeyPrefix+userID).Err()
}
