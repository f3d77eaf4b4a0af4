package ratelimit

import (
	"context"
	"time"
)

// Policy is the sliding window configuration.
type Policy struct {
	Max    int
	Window time.Duration
}

// DefaultPolicy admits 20 requests per address per minute.
var DefaultPolicy = Policy{Max: 20, Window: time.Minute}

// Decision is the result of a single Allow call.
type Decision struct {
	Allow     bool
	Remaining int
	// RetryAfter is zero when allowed, otherwise the time until the oldest
	// recorded request leaves the window.
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

func (p Policy) normalize() Policy {
	if p.Max <= 0 {
		p.Max = DefaultPolicy.Max
	}
	if p.Window <= 0 {
		p.Window = DefaultPolicy.Window
	}
	return p
}
