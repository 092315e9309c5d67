package ratelimiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type keyLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// MemoryLimiter keeps a token bucket per key in process memory. Buckets
// refill continuously at Limit per Window with a burst of Limit. Idle keys
// are evicted by Cleanup.
type MemoryLimiter struct {
	rule Rule

	mu   sync.Mutex
	keys map[string]*keyLimiter
	now  func() time.Time
}

func NewMemoryLimiter(rule Rule) (*MemoryLimiter, error) {
	if err := rule.validate(); err != nil {
		return nil, err
	}
	return &MemoryLimiter{
		rule: rule,
		keys: make(map[string]*keyLimiter),
		now:  time.Now,
	}, nil
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (*Result, error) {
	now := m.now()

	m.mu.Lock()
	kl, ok := m.keys[key]
	if !ok {
		kl = &keyLimiter{
			limiter: rate.NewLimiter(rate.Every(m.rule.Window/time.Duration(m.rule.Limit)), m.rule.Limit),
		}
		m.keys[key] = kl
	}
	kl.lastAccess = now
	m.mu.Unlock()

	r := kl.limiter.ReserveN(now, 1)
	if !r.OK() {
		return &Result{Limit: m.rule.Limit, ResetAt: now.Add(m.rule.Window)}, nil
	}
	delay := r.DelayFrom(now)
	if delay > 0 {
		r.CancelAt(now)
		return &Result{Limit: m.rule.Limit, ResetAt: now.Add(delay)}, nil
	}

	return &Result{
		Limit:     m.rule.Limit,
		Remaining: int(kl.limiter.TokensAt(now)),
		ResetAt:   now.Add(m.rule.Window),
		allowed:   true,
	}, nil
}

// Cleanup drops keys idle for longer than the rule window and returns how
// many were removed.
func (m *MemoryLimiter) Cleanup() int {
	cutoff := m.now().Add(-m.rule.Window)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for k, kl := range m.keys {
		if kl.lastAccess.Before(cutoff) {
			delete(m.keys, k)
			removed++
		}
	}
	return removed
}

// RunCleanup evicts idle keys every interval until ctx is done.
func (m *MemoryLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Cleanup()
		}
	}
}

// Len returns the number of tracked keys.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}
