// Package pg connects to PostgreSQL through github.com/jackc/pgx/v5 and
// applies embedded github.com/pressly/goose/v3 migrations.
package pg
