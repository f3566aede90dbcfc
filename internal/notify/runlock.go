package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunLock claims a calendar day in Redis so a double-fired trigger
// cannot send the day's notification twice. The claim is a SETNX on a
// date-stamped key; whoever sets it runs, everyone else bows out.
type RunLock struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewRunLock(redisClient *redis.Client) *RunLock {
	return &RunLock{
		redisClient: redisClient,
		ttl:         26 * time.Hour,
	}
}

func lockKey(day time.Time) string {
	return fmt.Sprintf("notify_run:%s", day.UTC().Format("2006-01-02"))
}

// Acquire claims the given day. Returns false when another invocation
// already holds it.
func (l *RunLock) Acquire(ctx context.Context, day time.Time) (bool, error) {
	ok, err := l.redisClient.SetNX(ctx, lockKey(day), time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring run lock: %w", err)
	}
	return ok, nil
}

// Release frees the day's claim. Only used when a run fails before any
// delivery was attempted, so a later retry of the trigger can proceed.
func (l *RunLock) Release(ctx context.Context, day time.Time) error {
	return l.redisClient.Del(ctx, lockKey(day)).Err()
}
