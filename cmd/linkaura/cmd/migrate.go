package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linkaura/linkaura/pkg/config"
	"github.com/linkaura/linkaura/pkg/identity"
	"github.com/linkaura/linkaura/pkg/logger"
	"github.com/linkaura/linkaura/pkg/pg"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the account database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var (
			logCfg logConfig
			db     pg.Config
		)
		if err := errors.Join(config.Load(&logCfg), config.Load(&db)); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if !db.Enabled() {
			return errors.New("PG_CONN_URL is not set")
		}
		log := newLogger(logCfg)

		ctx := cmd.Context()
		pool, err := pg.Connect(ctx, db, log)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		if err := pg.Migrate(ctx, pool, identity.Migrations, identity.MigrationsDir, db, log); err != nil {
			return err
		}
		log.InfoContext(ctx, "migrations applied", logger.Component("migrate"))
		return nil
	},
}
