package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
)

func newTestRedisLimiter(client *redis.Client, now time.Time) *RedisLimiter {
	l := NewRedisLimiter(client, Policy{Max: 3, Window: time.Minute}, WithPrefix("test:"), WithTimeout(time.Second))
	l.now = func() time.Time { return now }
	l.member = func(t time.Time) string { return "m-" + strconv.FormatInt(t.UnixMilli(), 10) }
	return l
}

func TestRedisLimiter_Allow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cutoff := strconv.FormatInt(now.Add(-time.Minute).UnixMilli(), 10)

	t.Run("admits under the cap", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		l := newTestRedisLimiter(client, now)

		mock.ExpectZRemRangeByScore("test:1.2.3.4", "-inf", cutoff).SetVal(1)
		mock.ExpectZCard("test:1.2.3.4").SetVal(1)
		mock.ExpectZRangeWithScores("test:1.2.3.4", 0, 0).SetVal([]redis.Z{{Score: float64(now.Add(-10 * time.Second).UnixMilli()), Member: "old"}})
		mock.ExpectZAdd("test:1.2.3.4", &redis.Z{Score: float64(now.UnixMilli()), Member: "m-" + strconv.FormatInt(now.UnixMilli(), 10)}).SetVal(1)
		mock.ExpectPExpire("test:1.2.3.4", time.Minute).SetVal(true)

		dec, err := l.Allow(context.Background(), "1.2.3.4")
		assert.NoError(t, err)
		assert.True(t, dec.Allow)
		assert.Equal(t, 1, dec.Remaining)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects at the cap without recording", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		l := newTestRedisLimiter(client, now)

		oldest := now.Add(-45 * time.Second)
		mock.ExpectZRemRangeByScore("test:1.2.3.4", "-inf", cutoff).SetVal(0)
		mock.ExpectZCard("test:1.2.3.4").SetVal(3)
		mock.ExpectZRangeWithScores("test:1.2.3.4", 0, 0).SetVal([]redis.Z{{Score: float64(oldest.UnixMilli()), Member: "a"}})

		dec, err := l.Allow(context.Background(), "1.2.3.4")
		assert.NoError(t, err)
		assert.False(t, dec.Allow)
		assert.Equal(t, 15*time.Second, dec.RetryAfter)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates redis errors", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		l := newTestRedisLimiter(client, now)

		mock.ExpectZRemRangeByScore("test:1.2.3.4", "-inf", cutoff).SetErr(errors.New("connection refused"))

		_, err := l.Allow(context.Background(), "1.2.3.4")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "test:1.2.3.4")
	})
}
