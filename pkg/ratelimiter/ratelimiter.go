package ratelimiter

import (
	"context"
	"fmt"
	"time"
)

// Limiter decides whether one more event for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// Result describes the outcome of one Allow call.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
	allowed   bool
}

// Allowed reports whether the event may proceed.
func (r *Result) Allowed() bool {
	return r.allowed
}

// RetryAfter is how long to wait before the next attempt can succeed.
// Zero when allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.allowed {
		return 0
	}
	return max(time.Until(r.ResetAt), 0)
}

// Rule allows Limit events per Window for each key.
type Rule struct {
	Limit  int
	Window time.Duration
}

func (r Rule) validate() error {
	if r.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidConfig, r.Limit)
	}
	if r.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %v", ErrInvalidConfig, r.Window)
	}
	return nil
}
