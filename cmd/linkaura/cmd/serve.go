package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/linkaura/linkaura/modules/account"
	"github.com/linkaura/linkaura/pkg/clientip"
	"github.com/linkaura/linkaura/pkg/cookie"
	"github.com/linkaura/linkaura/pkg/email"
	"github.com/linkaura/linkaura/pkg/httpserver"
	"github.com/linkaura/linkaura/pkg/identity"
	"github.com/linkaura/linkaura/pkg/logger"
	"github.com/linkaura/linkaura/pkg/metrics"
	"github.com/linkaura/linkaura/pkg/pendingintent"
	"github.com/linkaura/linkaura/pkg/pg"
	"github.com/linkaura/linkaura/pkg/ratelimiter"
	lkredis "github.com/linkaura/linkaura/pkg/redis"
	"github.com/linkaura/linkaura/pkg/requestid"
	"github.com/linkaura/linkaura/pkg/secrets"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadSettings()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg.app.logConfig)

	keys, err := secrets.NewKeyring(cfg.app.Secret)
	if err != nil {
		return fmt.Errorf("derive keys: %w", err)
	}
	creds, err := identity.NewCredentials(keys.SessionToken, cfg.identity.Issuer, cfg.identity.SessionTTL)
	if err != nil {
		return fmt.Errorf("session credentials: %w", err)
	}
	sender, err := email.NewSender(cfg.email)
	if err != nil {
		return fmt.Errorf("email sender: %w", err)
	}
	if !cfg.email.UsePostmark() {
		log.WarnContext(ctx, "postmark not configured, writing emails to disk",
			logger.Component("email"),
			slog.String("dir", cfg.email.DevDir),
		)
	}
	cookies, err := cookie.NewFromConfig(cfg.cookie, keys.Cookie)
	if err != nil {
		return fmt.Errorf("cookies: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	idOpts := []identity.Option{
		identity.WithLogger(log),
		identity.WithRecorder(collector),
	}
	var checks []httpserver.Check

	if cfg.pg.Enabled() {
		pool, err := pg.Connect(ctx, cfg.pg, log)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		if cfg.app.AutoMigrate {
			if err := pg.Migrate(ctx, pool, identity.Migrations, identity.MigrationsDir, cfg.pg, log); err != nil {
				return err
			}
		}
		idOpts = append(idOpts, identity.WithAccountStore(identity.NewPostgresAccountStore(pool)))
		checks = append(checks, httpserver.Check{Name: "postgres", Probe: pg.Healthcheck(pool)})
	} else {
		log.WarnContext(ctx, "PG_CONN_URL not set, accounts are kept in memory", logger.Component("serve"))
	}

	var (
		pending         pendingintent.Factory
		dispatchLimiter ratelimiter.Limiter
	)
	if cfg.redis.Enabled() {
		client, err := lkredis.Connect(ctx, cfg.redis, log)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()

		backend, err := newRedisBackend(client, cfg, log)
		if err != nil {
			return err
		}
		idOpts = append(idOpts, backend.identityOptions()...)
		dispatchLimiter = backend.perIP
		pending = backend.pending
		checks = append(checks, httpserver.Check{Name: "redis", Probe: lkredis.Healthcheck(client)})
	} else {
		ml, err := ratelimiter.NewMemoryLimiter(ratelimiter.Rule{
			Limit:  cfg.app.DispatchPerIP,
			Window: cfg.identity.DispatchWindow,
		})
		if err != nil {
			return err
		}
		go ml.RunCleanup(ctx, time.Minute)
		dispatchLimiter = ml
		pending = pendingintent.NewCookieFactory(cookies, cfg.identity.LinkTTL, log)
	}

	if cfg.google.Enabled() {
		idOpts = append(idOpts, identity.WithProvider(identity.NewGoogleAdapter(cfg.google)))
	}
	if cfg.github.Enabled() {
		idOpts = append(idOpts, identity.WithProvider(identity.NewGitHubAdapter(cfg.github)))
	}

	svc, err := identity.NewService(cfg.identity, keys.LinkToken, creds, sender, idOpts...)
	if err != nil {
		return fmt.Errorf("identity service: %w", err)
	}
	defer svc.Close()

	mod := account.New(svc, cookies, pending, cfg.account,
		account.WithLogger(log),
		account.WithRecorder(collector),
		account.WithDispatchLimiter(dispatchLimiter),
		account.WithTimeout(cfg.app.RequestTimeout),
	)

	r := chi.NewRouter()
	r.Use(clientip.New(cfg.clientIP).Middleware)
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(metrics.NewHTTP(reg).Middleware)

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, checks...))
	r.Handle("/metrics", metrics.Handler(reg))
	r.Mount("/", mod.Routes())

	log.InfoContext(ctx, "starting linkaura",
		logger.Component("serve"),
		slog.String("addr", cfg.http.Addr),
		slog.String("base_url", cfg.identity.BaseURL),
		slog.Any("providers", svc.Providers()),
	)
	return httpserver.New(cfg.http, httpserver.WithLogger(log)).Run(ctx, r)
}

// redisBackend moves sessions, the link ledger, pending addresses and the
// dispatch limits to Redis so several instances share them. Every key
// starts with the configured REDIS_KEY_PREFIX.
type redisBackend struct {
	sessions   *identity.RedisSessionStore
	ledger     *identity.RedisLedger
	pending    *pendingintent.RedisFactory
	perAddress *ratelimiter.RedisLimiter
	perBrowser *ratelimiter.RedisLimiter
	perIP      *ratelimiter.RedisLimiter
}

func newRedisBackend(client redis.UniversalClient, cfg settings, log *slog.Logger) (*redisBackend, error) {
	prefix := cfg.redis.KeyPrefix
	window := cfg.identity.DispatchWindow
	b := &redisBackend{
		sessions: identity.NewRedisSessionStore(client, prefix),
		ledger:   identity.NewRedisLedger(client, prefix),
		pending:  pendingintent.NewRedisFactory(client, prefix, cfg.identity.LinkTTL, log),
	}

	var err error
	if b.perAddress, err = ratelimiter.NewRedisLimiter(client, ratelimiter.Rule{
		Limit:  cfg.identity.DispatchPerAddress,
		Window: window,
	}, prefix+"rl:address:"); err != nil {
		return nil, fmt.Errorf("address limiter: %w", err)
	}
	if b.perBrowser, err = ratelimiter.NewRedisLimiter(client, ratelimiter.Rule{
		Limit:  cfg.identity.DispatchPerBrowser,
		Window: window,
	}, prefix+"rl:browser:"); err != nil {
		return nil, fmt.Errorf("browser limiter: %w", err)
	}
	if b.perIP, err = ratelimiter.NewRedisLimiter(client, ratelimiter.Rule{
		Limit:  cfg.app.DispatchPerIP,
		Window: window,
	}, prefix+"rl:ip:"); err != nil {
		return nil, fmt.Errorf("ip limiter: %w", err)
	}
	return b, nil
}

func (b *redisBackend) identityOptions() []identity.Option {
	return []identity.Option{
		identity.WithSessionStore(b.sessions),
		identity.WithLedger(b.ledger),
		identity.WithRateLimiters(b.perAddress, b.perBrowser),
	}
}
