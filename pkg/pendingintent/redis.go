package pendingintent

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/linkaura/linkaura/pkg/logger"
)

// RedisStore keeps the pending address server side under the browser ID.
type RedisStore struct {
	ctx    context.Context
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

func (s *RedisStore) SavePendingEmail(email string) {
	if err := s.client.Set(s.ctx, s.key, email, s.ttl).Err(); err != nil {
		s.logger.WarnContext(s.ctx, "failed to save pending email",
			logger.Component("pendingintent"),
			logger.Error(err),
		)
	}
}

func (s *RedisStore) LoadPendingEmail() (string, bool) {
	v, err := s.client.Get(s.ctx, s.key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WarnContext(s.ctx, "failed to load pending email",
				logger.Component("pendingintent"),
				logger.Error(err),
			)
		}
		return "", false
	}
	return v, v != ""
}

func (s *RedisStore) ClearPendingEmail() {
	if err := s.client.Del(s.ctx, s.key).Err(); err != nil {
		s.logger.WarnContext(s.ctx, "failed to clear pending email",
			logger.Component("pendingintent"),
			logger.Error(err),
		)
	}
}

// RedisFactory opens RedisStores keyed by prefix+"pending:"+browserID.
type RedisFactory struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisFactory(client redis.UniversalClient, prefix string, ttl time.Duration, log *slog.Logger) *RedisFactory {
	if log == nil {
		log = logger.Discard()
	}
	return &RedisFactory{client: client, prefix: prefix + "pending:", ttl: ttl, logger: log}
}

func (f *RedisFactory) For(_ http.ResponseWriter, r *http.Request, browserID string) Store {
	return f.Open(r.Context(), browserID)
}

// Open returns the store of browserID bound to ctx.
func (f *RedisFactory) Open(ctx context.Context, browserID string) *RedisStore {
	return &RedisStore{
		ctx:    context.WithoutCancel(ctx),
		client: f.client,
		key:    f.prefix + browserID,
		ttl:    f.ttl,
		logger: f.logger,
	}
}
