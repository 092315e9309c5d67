package identity

import (
	"context"
	"embed"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/linkaura/linkaura/pkg/pg"
)

// Migrations holds the goose migrations for the account tables.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresAccountStore is the AccountStore backed by PostgreSQL.
type PostgresAccountStore struct {
	db DBTX
}

func NewPostgresAccountStore(db DBTX) *PostgresAccountStore {
	return &PostgresAccountStore{db: db}
}

const accountColumns = `a.id, a.email, a.display_name, a.email_verified, a.created_at, a.updated_at`

func (s *PostgresAccountStore) AccountByEmail(ctx context.Context, email string) (*Account, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts a WHERE a.email = $1`, email)
	return scanAccount(row)
}

func (s *PostgresAccountStore) AccountByProvider(ctx context.Context, provider, providerUserID string) (*Account, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts a
		 JOIN account_providers p ON p.account_id = a.id
		 WHERE p.provider = $1 AND p.provider_user_id = $2`, provider, providerUserID)
	return scanAccount(row)
}

func (s *PostgresAccountStore) CreateAccount(ctx context.Context, acc *Account) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO accounts (id, email, display_name, email_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		acc.ID, acc.Email, acc.DisplayName, acc.EmailVerified, acc.CreatedAt, acc.UpdatedAt)
	if pg.IsDuplicateKeyError(err) {
		return ErrAccountExists
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *PostgresAccountStore) LinkProvider(ctx context.Context, accountID uuid.UUID, provider, providerUserID string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO account_providers (account_id, provider, provider_user_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (provider, provider_user_id) DO UPDATE SET account_id = EXCLUDED.account_id`,
		accountID, provider, providerUserID)
	if err != nil {
		return fmt.Errorf("link provider: %w", err)
	}
	return nil
}

func (s *PostgresAccountStore) MarkEmailVerified(ctx context.Context, accountID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE accounts SET email_verified = TRUE, updated_at = now() WHERE id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	var acc Account
	err := row.Scan(&acc.ID, &acc.Email, &acc.DisplayName, &acc.EmailVerified, &acc.CreatedAt, &acc.UpdatedAt)
	if pg.IsNotFoundError(err) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &acc, nil
}
