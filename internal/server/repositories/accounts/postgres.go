// Package accounts stores credential records in PostgreSQL for the
// credential server.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/booksummary/internal/common"
	"github.com/dmitrijs2005/booksummary/internal/dbx"
	"github.com/dmitrijs2005/booksummary/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) error {
	query :=
		`INSERT INTO accounts (id, email, display_name, salt, verifier, created_at)
         VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query, a.ID, a.Email, a.DisplayName, a.Salt, a.Verifier, a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT id, email, display_name, salt, verifier, created_at FROM accounts
		 WHERE email = $1`
	return r.one(ctx, query, email)
}

func (r *PostgresRepository) ByID(ctx context.Context, id string) (*models.Account, error) {
	query :=
		`SELECT id, email, display_name, salt, verifier, created_at FROM accounts
		 WHERE id = $1`
	return r.one(ctx, query, id)
}

func (r *PostgresRepository) UpdateDisplayName(ctx context.Context, id, name string) error {
	query :=
		`UPDATE accounts SET display_name = $2
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, name)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Delete removes the account and its pending resets.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SavePasswordReset(ctx context.Context, p *models.PasswordReset) error {
	query :=
		`INSERT INTO password_resets (token_hash, account_id, expires_at, created_at)
         VALUES ($1, $2, $3, $4)`

	if _, err := r.db.ExecContext(ctx, query, p.TokenHash, p.AccountID, p.ExpiresAt, p.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) one(ctx context.Context, query string, arg any) (*models.Account, error) {
	a := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&a.ID, &a.Email, &a.DisplayName, &a.Salt, &a.Verifier, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}
