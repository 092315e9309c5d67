package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linkaura/linkaura/modules/account"
	"github.com/linkaura/linkaura/pkg/clientip"
	"github.com/linkaura/linkaura/pkg/config"
	"github.com/linkaura/linkaura/pkg/cookie"
	"github.com/linkaura/linkaura/pkg/email"
	"github.com/linkaura/linkaura/pkg/httpserver"
	"github.com/linkaura/linkaura/pkg/identity"
	"github.com/linkaura/linkaura/pkg/logger"
	"github.com/linkaura/linkaura/pkg/pg"
	lkredis "github.com/linkaura/linkaura/pkg/redis"
	"github.com/linkaura/linkaura/pkg/requestid"
	"github.com/linkaura/linkaura/pkg/secrets"
)

type logConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`
}

// appConfig holds the settings that belong to no single package.
type appConfig struct {
	logConfig

	// Secret is the master key every signing and encryption key is
	// derived from.
	Secret string `env:"APP_SECRET,required"`

	DispatchPerIP  int           `env:"SIGNIN_LINK_PER_IP" envDefault:"30"`
	RequestTimeout time.Duration `env:"SIGNIN_REQUEST_TIMEOUT" envDefault:"15s"`
	AutoMigrate    bool          `env:"PG_AUTO_MIGRATE" envDefault:"false"`
}

func (c appConfig) Validate() error {
	if len(c.Secret) < secrets.MinMasterKeyLength {
		return fmt.Errorf("APP_SECRET must be at least %d characters", secrets.MinMasterKeyLength)
	}
	if c.DispatchPerIP <= 0 {
		return errors.New("SIGNIN_LINK_PER_IP must be positive")
	}
	return nil
}

type settings struct {
	app      appConfig
	http     httpserver.Config
	identity identity.Config
	account  account.Config
	cookie   cookie.Config
	email    email.Config
	pg       pg.Config
	redis    lkredis.Config
	google   identity.GoogleOAuthConfig
	github   identity.GitHubOAuthConfig
	clientIP clientip.Config
}

func loadSettings() (settings, error) {
	var s settings
	err := errors.Join(
		config.Load(&s.app),
		config.Load(&s.http),
		config.Load(&s.identity),
		config.Load(&s.account),
		config.Load(&s.cookie),
		config.Load(&s.email),
		config.Load(&s.pg),
		config.Load(&s.redis),
		config.Load(&s.google),
		config.Load(&s.github),
		config.Load(&s.clientIP),
	)
	return s, err
}

func newLogger(cfg logConfig) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, "linkaura"),
		logger.WithContextExtractors(requestid.LoggerExtractor(), clientip.LoggerExtractor()),
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	}
	log := logger.New(opts...)
	logger.SetAsDefault(log)
	return log
}
