package ratelimiter

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter shared by every process using the
// same Redis. Each key gets one counter per window, stored under
// prefix+key+":"+windowStart.
type RedisLimiter struct {
	client redis.UniversalClient
	rule   Rule
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(client redis.UniversalClient, rule Rule, prefix string) (*RedisLimiter, error) {
	if err := rule.validate(); err != nil {
		return nil, err
	}
	return &RedisLimiter{client: client, rule: rule, prefix: prefix, now: time.Now}, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := l.now()
	windowStart := now.Truncate(l.rule.Window)
	resetAt := windowStart.Add(l.rule.Window)
	k := l.prefix + key + ":" + strconv.FormatInt(windowStart.Unix(), 10)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.ExpireAt(ctx, k, resetAt.Add(time.Second))
		return nil
	})
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	count := int(incr.Val())
	return &Result{
		Limit:     l.rule.Limit,
		Remaining: max(l.rule.Limit-count, 0),
		ResetAt:   resetAt,
		allowed:   count <= l.rule.Limit,
	}, nil
}
