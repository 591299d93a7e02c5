package accounts

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/booksummary/internal/common"
	"github.com/dmitrijs2005/booksummary/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

const (
	insertAccountQ = `(?s)^INSERT\s+INTO\s+accounts\s*\(id,\s*email,\s*display_name,\s*salt,\s*verifier,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*$`
	selectByEmailQ = `(?s)^SELECT\s+id,\s*email,\s*display_name,\s*salt,\s*verifier,\s*created_at\s+FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1\s*$`
	selectByIDQ    = `(?s)^SELECT\s+id,\s*email,\s*display_name,\s*salt,\s*verifier,\s*created_at\s+FROM\s+accounts\s+WHERE\s+id\s*=\s*\$1\s*$`
	updateNameQ    = `(?s)^UPDATE\s+accounts\s+SET\s+display_name\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1\s*$`
	deleteQ        = `(?s)^DELETE\s+FROM\s+accounts\s+WHERE\s+id\s*=\s*\$1\s*$`
	insertResetQ   = `(?s)^INSERT\s+INTO\s+password_resets\s*\(token_hash,\s*account_id,\s*expires_at,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*$`
)

var created = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleAccount() *models.Account {
	return &models.Account{
		ID:        "0b7f6c1e-8a57-4c43-9b39-4a4f4b2d9f10",
		Email:     "a@b.co",
		Salt:      []byte("salt"),
		Verifier:  []byte("verifier"),
		CreatedAt: created,
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	a := sampleAccount()

	mock.ExpectExec(insertAccountQ).
		WithArgs(a.ID, a.Email, "", a.Salt, a.Verifier, a.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), a))
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	a := sampleAccount()

	mock.ExpectExec(insertAccountQ).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"})

	assert.ErrorIs(t, repo.Create(context.Background(), a), common.ErrAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertAccountQ).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), sampleAccount())
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestByEmail_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	want := sampleAccount()
	want.DisplayName = "Ada"

	rows := sqlmock.NewRows([]string{"id", "email", "display_name", "salt", "verifier", "created_at"}).
		AddRow(want.ID, want.Email, want.DisplayName, want.Salt, want.Verifier, want.CreatedAt)
	mock.ExpectQuery(selectByEmailQ).WithArgs("a@b.co").WillReturnRows(rows)

	got, err := repo.ByEmail(context.Background(), "a@b.co")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("account mismatch (-want +got):\n%s", diff)
	}
}

func TestByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectByIDQ).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.ByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateDisplayName(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(updateNameQ).WithArgs("u-1", "Ada").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updateNameQ).WithArgs("ghost", "Ada").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateDisplayName(context.Background(), "u-1", "Ada"))
	assert.ErrorIs(t, repo.UpdateDisplayName(context.Background(), "ghost", "Ada"), common.ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(deleteQ).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteQ).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "u-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "ghost"), common.ErrNotFound)
}

func TestSavePasswordReset(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	p := &models.PasswordReset{
		TokenHash: []byte{1, 2, 3},
		AccountID: "u-1",
		ExpiresAt: created.Add(time.Hour),
		CreatedAt: created,
	}

	mock.ExpectExec(insertResetQ).
		WithArgs(p.TokenHash, p.AccountID, p.ExpiresAt, p.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SavePasswordReset(context.Background(), p))
}
