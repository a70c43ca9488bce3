package redis

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindow trims the log, then either records the call or reports
// how many milliseconds remain until the oldest entry leaves the window.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local limit = tonumber(ARGV[2])
	local window_ms = tonumber(ARGV[3])
	local member = ARGV[4]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window_ms)

	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	return {0, tonumber(oldest[2]) + window_ms - now}
`)

// RateLimiter is a sliding-window log shared by every process using the same key
// ⭐ SSOT: 분산 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	key    string
	limit  int
	window time.Duration
	seq    atomic.Uint64
}

// NewRateLimiter allows limit calls per window under prefix:ratelimit:name
func NewRateLimiter(client *Client, prefix, name string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		key:    fmt.Sprintf("%s:ratelimit:%s", prefix, name),
		limit:  limit,
		window: window,
	}
}

// Allow records a call if capacity remains.
// It returns whether the call was admitted and, if not, how long to back off.
func (r *RateLimiter) Allow(ctx context.Context) (bool, time.Duration, error) {
	if !r.client.Enabled() {
		return true, 0, nil
	}

	now := time.Now().UnixMilli()
	member := fmt.Sprintf("%d-%d", now, r.seq.Add(1))

	res, err := slidingWindow.Run(ctx, r.client.Redis(), []string{r.key},
		now, r.limit, r.window.Milliseconds(), member,
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	if res[0] == 1 {
		return true, 0, nil
	}
	return false, time.Duration(res[1]) * time.Millisecond, nil
}

// Wait blocks until the call is admitted or ctx is done
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		ok, backoff, err := r.Allow(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if backoff < 10*time.Millisecond {
			backoff = 10 * time.Millisecond
		}

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
