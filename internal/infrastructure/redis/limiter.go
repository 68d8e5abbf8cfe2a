package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// Result describes one limiter decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAfter is the time until the current window closes.
	ResetAfter time.Duration
}

// Limiter is a fixed-window counter shared by every API instance.
type Limiter struct {
	client goredis.Cmdable
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewLimiter allows limit hits per key in each window.
func NewLimiter(client goredis.Cmdable, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: limit, window: window, now: time.Now}
}

// Allow counts a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now()
	slot := now.UnixNano() / int64(l.window)
	windowKey := keyPrefix + key + ":" + strconv.FormatInt(slot, 10)

	var incr *goredis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.Incr(ctx, windowKey)
		pipe.Expire(ctx, windowKey, l.window)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	count := int(incr.Val())
	reset := time.Unix(0, (slot+1)*int64(l.window)).Sub(now)

	return Result{
		Allowed:    count <= l.limit,
		Limit:      l.limit,
		Remaining:  max(l.limit-count, 0),
		ResetAfter: reset,
	}, nil
}
