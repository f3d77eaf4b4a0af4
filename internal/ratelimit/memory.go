package ratelimit

import (
	"context"
	"sync"
	"time"
)

type MemoryLimiter struct {
	mu     sync.Mutex
	policy Policy
	hits   map[string][]time.Time
	now    func() time.Time
}

func NewMemoryLimiter(policy Policy) *MemoryLimiter {
	return &MemoryLimiter{
		policy: policy.normalize(),
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	hits := m.prune(key, now)

	if len(hits) >= m.policy.Max {
		return Decision{
			Allow:      false,
			Remaining:  0,
			RetryAfter: hits[0].Add(m.policy.Window).Sub(now),
		}, nil
	}

	hits = append(hits, now)
	m.hits[key] = hits
	return Decision{Allow: true, Remaining: m.policy.Max - len(hits)}, nil
}

// prune drops entries that are a full window old. Must hold m.mu.
func (m *MemoryLimiter) prune(key string, now time.Time) []time.Time {
	hits := m.hits[key]
	cutoff := now.Add(-m.policy.Window)

	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return hits
	}
	if i == len(hits) {
		delete(m.hits, key)
		return nil
	}

	kept := make([]time.Time, len(hits)-i, max(len(hits)-i, m.policy.Max))
	copy(kept, hits[i:])
	m.hits[key] = kept
	return kept
}

// Sweep forgets addresses whose whole log has left the window.
func (m *MemoryLimiter) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key := range m.hits {
		if m.prune(key, now) == nil {
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *MemoryLimiter) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Tracked reports how many addresses currently hold entries.
func (m *MemoryLimiter) Tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hits)
}
