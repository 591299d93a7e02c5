// Package storage opens the client SQLite database and brings its schema
// up to date.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/booksummary/internal/client/repositories/accounts"
	"github.com/dmitrijs2005/booksummary/internal/client/repositories/habits"
	"github.com/dmitrijs2005/booksummary/internal/client/repositories/preferences"
	"github.com/dmitrijs2005/booksummary/internal/client/storage/migrations"
	"github.com/dmitrijs2005/booksummary/internal/filex"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Repositories bundles the client repositories over one database.
type Repositories struct {
	DB          *sql.DB
	Preferences *preferences.SQLiteRepository
	Accounts    *accounts.SQLiteRepository
	Habits      *habits.SQLiteRepository
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

// RunMigrations applies the embedded migrations. Running it again on an
// up-to-date database is a no-op.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens the database at dsn, enables foreign keys and migrates it.
func Open(ctx context.Context, dsn string) (*Repositories, error) {
	if err := filex.EnsureParentDir(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// single writer, and ":memory:" databases are per connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Repositories{
		DB:          db,
		Preferences: preferences.NewSQLiteRepository(db),
		Accounts:    accounts.NewSQLiteRepository(db),
		Habits:      habits.NewSQLiteRepository(db),
	}, nil
}
