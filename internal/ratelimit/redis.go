package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type RedisLimiter struct {
	client  *redis.Client
	policy  Policy
	prefix  string
	timeout time.Duration
	now     func() time.Time
	member  func(time.Time) string
}

type Option func(*RedisLimiter)

func WithPrefix(prefix string) Option {
	return func(r *RedisLimiter) {
		r.prefix = prefix
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(r *RedisLimiter) {
		r.timeout = timeout
	}
}

func NewRedisLimiter(client *redis.Client, policy Policy, opts ...Option) *RedisLimiter {
	r := &RedisLimiter{
		client:  client,
		policy:  policy.normalize(),
		prefix:  "ratelimit:",
		timeout: 500 * time.Millisecond,
		now:     time.Now,
		member: func(t time.Time) string {
			return strconv.FormatInt(t.UnixNano(), 10) + "-" + uuid.NewString()
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	now := r.now()
	k := r.prefix + key
	cutoff := strconv.FormatInt(now.Add(-r.policy.Window).UnixMilli(), 10)

	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", cutoff)
	count := pipe.ZCard(ctx, k)
	oldest := pipe.ZRangeWithScores(ctx, k, 0, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("read rate window %s: %w", k, err)
	}

	n := int(count.Val())
	if n >= r.policy.Max {
		retry := r.policy.Window
		if z := oldest.Val(); len(z) > 0 {
			retry = time.UnixMilli(int64(z[0].Score)).Add(r.policy.Window).Sub(now)
		}
		return Decision{Allow: false, Remaining: 0, RetryAfter: retry}, nil
	}

	pipe = r.client.Pipeline()
	pipe.ZAdd(ctx, k, &redis.Z{Score: float64(now.UnixMilli()), Member: r.member(now)})
	pipe.PExpire(ctx, k, r.policy.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("record rate window %s: %w", k, err)
	}

	return Decision{Allow: true, Remaining: r.policy.Max - n - 1}, nil
}
