// Package accounts stores local credential records for the in-process
// credential provider.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/booksummary/internal/common"
	"github.com/dmitrijs2005/booksummary/internal/dbx"
	"github.com/dmitrijs2005/booksummary/internal/models"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a. It returns common.ErrAlreadyExists when the email is
// taken.
func (r *SQLiteRepository) Create(ctx context.Context, a *models.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, display_name, salt, verifier, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.Email, a.DisplayName, a.Salt, a.Verifier, a.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.one(ctx, `
		SELECT id, email, display_name, salt, verifier, created_at
		FROM accounts WHERE email = ?
	`, email)
}

func (r *SQLiteRepository) ByID(ctx context.Context, id string) (*models.Account, error) {
	return r.one(ctx, `
		SELECT id, email, display_name, salt, verifier, created_at
		FROM accounts WHERE id = ?
	`, id)
}

func (r *SQLiteRepository) UpdateDisplayName(ctx context.Context, id, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET display_name = ? WHERE id = ?`, name, id)
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

// Delete removes the account; its resets go with it.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
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

func (r *SQLiteRepository) SavePasswordReset(ctx context.Context, p *models.PasswordReset) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO password_resets (token_hash, account_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`, p.TokenHash, p.AccountID, p.ExpiresAt.Unix(), p.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// PurgeExpiredResets deletes reset requests that expired before now.
func (r *SQLiteRepository) PurgeExpiredResets(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM password_resets WHERE expires_at < ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

// PendingResets counts unexpired reset requests for an account.
func (r *SQLiteRepository) PendingResets(ctx context.Context, accountID string, now time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM password_resets WHERE account_id = ? AND expires_at >= ?
	`, accountID, now.Unix()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) one(ctx context.Context, query string, arg any) (*models.Account, error) {
	a := &models.Account{}
	var created int64
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&a.ID, &a.Email, &a.DisplayName, &a.Salt, &a.Verifier, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	a.CreatedAt = time.Unix(created, 0).UTC()
	return a, nil
}

func isUniqueViolation(err error) bool {
	var coded interface{ Code() int }
	if !errors.As(err, &coded) {
		return false
	}
	return coded.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		coded.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
