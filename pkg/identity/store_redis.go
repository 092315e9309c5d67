package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps session credentials in Redis under
// prefix+"session:"+browserID.
type RedisSessionStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisSessionStore(client redis.UniversalClient, prefix string) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: prefix + "session:"}
}

func (s *RedisSessionStore) Get(ctx context.Context, browserID string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+browserID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get session: %w", err)
	}
	return v, nil
}

func (s *RedisSessionStore) Set(ctx context.Context, browserID, credential string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+browserID, credential, ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, browserID string) error {
	if err := s.client.Del(ctx, s.prefix+browserID).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RedisLedger is a Ledger on Redis. Claim uses SETNX and Take uses GETDEL,
// so both are atomic across instances.
type RedisLedger struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisLedger(client redis.UniversalClient, prefix string) *RedisLedger {
	return &RedisLedger{client: client, prefix: prefix + "ledger:"}
}

func (l *RedisLedger) Claim(ctx context.Context, key string, ttl time.Duration) error {
	ok, err := l.client.SetNX(ctx, l.prefix+key, 1, ttl).Result()
	if err != nil {
		return fmt.Errorf("claim %q: %w", key, err)
	}
	if !ok {
		return ErrAlreadyClaimed
	}
	return nil
}

func (l *RedisLedger) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := l.client.Set(ctx, l.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

func (l *RedisLedger) Take(ctx context.Context, key string) (string, error) {
	v, err := l.client.GetDel(ctx, l.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrStateNotFound
	}
	if err != nil {
		return "", fmt.Errorf("take %q: %w", key, err)
	}
	return v, nil
}
