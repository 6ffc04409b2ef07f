package repo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageRepository_PutUpsert_GetAll(t *testing.T) {
	db := newTestDB(t)
	r := NewImageRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "1", "data:image/png;base64,AAA"))
	require.NoError(t, r.Put(ctx, "2", "data:image/png;base64,BBB"))
	// повторный put заменяет значение
	require.NoError(t, r.Put(ctx, "1", "data:image/png;base64,ZZZ"))

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"1": "data:image/png;base64,ZZZ",
		"2": "data:image/png;base64,BBB",
	}, all)
}

func TestImageRepository_Delete_Idempotent(t *testing.T) {
	db := newTestDB(t)
	r := NewImageRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "1", "data:x"))
	assert.NoError(t, r.Delete(ctx, "1"))
	assert.NoError(t, r.Delete(ctx, "1"))
	assert.NoError(t, r.Delete(ctx, "never"))

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestImageRepository_PutEmptyID(t *testing.T) {
	r := NewImageRepository(newTestDB(t))
	assert.Error(t, r.Put(context.Background(), "", "data:x"))
}

func TestInitDB_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img", "images.db")
	db, err := InitDB(path)
	require.NoError(t, err)
	defer CloseDB(db)

	r := NewImageRepository(db)
	require.NoError(t, r.Put(context.Background(), "a", "data:a"))
	all, err := r.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "data:a", all["a"])
}

func TestInitDB_EmptyDSN(t *testing.T) {
	_, err := InitDB("")
	assert.Error(t, err)
}

func TestIsPostgres(t *testing.T) {
	assert.True(t, isPostgres("postgres://u:p@localhost/db"))
	assert.True(t, isPostgres("POSTGRESQL://localhost/db"))
	assert.False(t, isPostgres("/tmp/images.db"))
	assert.False(t, isPostgres("file::memory:"))
}
