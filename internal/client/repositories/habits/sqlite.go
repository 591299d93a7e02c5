// Package habits stores the habit selection made during setup.
package habits

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/booksummary/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// SaveHabits replaces the stored selection in one transaction. Order is
// preserved.
func (r *SQLiteRepository) SaveHabits(ctx context.Context, habits []string) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM habits`); err != nil {
			return fmt.Errorf("failed to clear habits: %w", err)
		}
		for i, h := range habits {
			if _, err := tx.ExecContext(ctx, `INSERT INTO habits (key, position) VALUES (?, ?)`, h, i); err != nil {
				return fmt.Errorf("failed to insert habit %q: %w", h, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) LoadHabits(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key FROM habits ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan habit row: %w", err)
		}
		out = append(out, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate habit rows: %w", err)
	}
	return out, nil
}
