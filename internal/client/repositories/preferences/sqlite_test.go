package preferences

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/booksummary/internal/client/storage/migrations"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, "."))
	return db
}

func TestSetAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k1", []byte{0x01, 0x02}))
	v, err := r.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, v)

	require.NoError(t, r.Set(ctx, "k1", []byte("new")))
	v, err = r.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), v)
}

func TestGet_Absent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	v, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestListDeleteClear(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", []byte{0xAA}))
	require.NoError(t, r.Set(ctx, "b", []byte{0xBB}))

	m, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, m, 2)

	require.NoError(t, r.Delete(ctx, "a"))
	require.NoError(t, r.Delete(ctx, "a"))
	m, err = r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"b": {0xBB}}, m)

	require.NoError(t, r.Clear(ctx))
	m, err = r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestFlags(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	v, err := r.GetFlag(ctx, "hasSetHabits")
	require.NoError(t, err)
	assert.False(t, v)

	require.NoError(t, r.SetFlag(ctx, "hasSetHabits", true))
	v, err = r.GetFlag(ctx, "hasSetHabits")
	require.NoError(t, err)
	assert.True(t, v)

	require.NoError(t, r.SetFlag(ctx, "hasSetHabits", false))
	v, err = r.GetFlag(ctx, "hasSetHabits")
	require.NoError(t, err)
	assert.False(t, v)
}

func TestGetFlag_Corrupt(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	require.NoError(t, r.Set(ctx, "isAuthenticated", []byte("maybe")))

	_, err := r.GetFlag(ctx, "isAuthenticated")
	assert.Error(t, err)
}

func TestSession(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	tok, err := r.LoadSession(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, r.SaveSession(ctx, "jwt"))
	tok, err = r.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jwt", tok)

	require.NoError(t, r.ClearSession(ctx))
	tok, err = r.LoadSession(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestClosedDB(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	require.NoError(t, db.Close())

	_, err := r.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, r.Set(context.Background(), "k", nil))
	_, err = r.List(context.Background())
	assert.Error(t, err)
}
