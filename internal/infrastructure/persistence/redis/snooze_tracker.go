package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keySnoozeDeadlines is the sorted set of snoozed alerts scored by
// expiry time (unix seconds).
const keySnoozeDeadlines = "alerts:snooze:deadlines"

// ══════════════════════════════════════════════════════════════════════════════
// SNOOZE TRACKER
// ══════════════════════════════════════════════════════════════════════════════

// SnoozeTracker implements alert.SnoozeTracker on top of a Redis sorted set.
// The set is a hint for the wake-up job, not the source of truth: the job
// always confirms expiry against PostgreSQL before transitioning an alert.
type SnoozeTracker struct {
	cache *Cache
}

// NewSnoozeTracker creates a new SnoozeTracker instance.
func NewSnoozeTracker(cache *Cache) *SnoozeTracker {
	return &SnoozeTracker{cache: cache}
}

// Track registers the snooze deadline of an alert.
func (t *SnoozeTracker) Track(ctx context.Context, alertID string, until time.Time) error {
	if alertID == "" {
		return ErrCacheKeyEmpty
	}

	err := t.cache.Client().ZAdd(ctx, keySnoozeDeadlines, redis.Z{
		Score:  float64(until.Unix()),
		Member: alertID,
	}).Err()
	if err != nil {
		return fmt.Errorf("snooze_tracker: failed to track alert %s: %w", alertID, err)
	}
	return nil
}

// Untrack removes an alert from the deadline set.
func (t *SnoozeTracker) Untrack(ctx context.Context, alertID string) error {
	if alertID == "" {
		return ErrCacheKeyEmpty
	}

	err := t.cache.Client().ZRem(ctx, keySnoozeDeadlines, alertID).Err()
	if err != nil {
		return fmt.Errorf("snooze_tracker: failed to untrack alert %s: %w", alertID, err)
	}
	return nil
}

// ListDue returns the IDs of alerts whose snooze deadline has passed.
func (t *SnoozeTracker) ListDue(ctx context.Context, now time.Time) ([]string, error) {
	ids, err := t.cache.Client().ZRangeByScore(ctx, keySnoozeDeadlines, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.Unix()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("snooze_tracker: failed to list due alerts: %w", err)
	}
	return ids, nil
}
