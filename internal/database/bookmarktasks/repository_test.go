package bookmarktasks

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookmarks/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "tasks.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.BookmarkTask{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewRepository(db)
}

func TestRepository_CreatePending(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	task := &entities.BookmarkTask{UserID: 3, URL: "https://example.com/a", Tags: []string{"x"}}
	require.NoError(t, repo.CreatePending(ctx, task))
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, entities.BookmarkTaskPending, task.Status)

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "https://example.com/a", got.URL)
	assert.Equal(t, []string{"x"}, got.Tags)
	assert.Nil(t, got.BookmarkID)
}

func TestRepository_CreatePending_NilTags(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	task := &entities.BookmarkTask{UserID: 3, URL: "https://example.com/a"}
	require.NoError(t, repo.CreatePending(ctx, task))

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Tags)
}

func TestRepository_GetForUser_ScopedToOwner(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	task := &entities.BookmarkTask{UserID: 3, URL: "https://example.com/a"}
	require.NoError(t, repo.CreatePending(ctx, task))

	got, err := repo.GetForUser(ctx, 3, task.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)

	got, err = repo.GetForUser(ctx, 4, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_MarkDoneAndFailed(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	task := &entities.BookmarkTask{UserID: 3, URL: "https://example.com/a"}
	require.NoError(t, repo.CreatePending(ctx, task))

	require.NoError(t, repo.MarkFailed(ctx, task.ID, "connection refused"))
	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookmarkTaskError, got.Status)
	assert.Equal(t, "connection refused", got.Error)

	require.NoError(t, repo.MarkDone(ctx, task.ID, "bm1"))
	got, err = repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookmarkTaskDone, got.Status)
	require.NotNil(t, got.BookmarkID)
	assert.Equal(t, "bm1", *got.BookmarkID)
	assert.Empty(t, got.Error)
}

func TestRepository_MarkDone_UnknownTask(t *testing.T) {
	repo := setupTestDB(t)

	err := repo.MarkDone(context.Background(), "missing", "bm1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
