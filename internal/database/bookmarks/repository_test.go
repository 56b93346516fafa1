package bookmarks

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookmarks/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "bookmarks.db")

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Bookmark{}, &entities.BookmarkUser{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db), db
}

func saveBookmark(t *testing.T, repo *Repository, id, url string) *entities.Bookmark {
	t.Helper()
	b := &entities.Bookmark{
		ID:          id,
		URL:         url,
		Domain:      "example.com",
		Title:       "Title " + id,
		TextContent: "content of " + id,
	}
	require.NoError(t, repo.Save(context.Background(), b))
	return b
}

func TestRepository_Save_And_GetByURL(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	saved := saveBookmark(t, repo, "b1", "https://example.com/a")
	assert.True(t, saved.CreatedAt.After(before))

	got, err := repo.GetByURL(ctx, "https://example.com/a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "b1", got.ID)
	assert.Equal(t, "example.com", got.Domain)
	assert.Equal(t, "Title b1", got.Title)
	assert.Equal(t, "content of b1", got.TextContent)
	assert.WithinDuration(t, saved.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestRepository_GetByURL_Missing(t *testing.T) {
	repo, _ := setupTestDB(t)

	got, err := repo.GetByURL(context.Background(), "https://nowhere.example/")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_Save_DuplicateURLFails(t *testing.T) {
	repo, _ := setupTestDB(t)
	saveBookmark(t, repo, "b1", "https://example.com/a")

	err := repo.Save(context.Background(), &entities.Bookmark{ID: "b2", URL: "https://example.com/a"})
	assert.Error(t, err)
}

func TestRepository_UpsertUserBookmark_ReplacesTags(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()
	saveBookmark(t, repo, "b1", "https://example.com/a")

	firstID, err := repo.UpsertUserBookmark(ctx, "b1", 1, []string{"x", "y"})
	require.NoError(t, err)
	require.NotEmpty(t, firstID)

	first, err := repo.GetWithUserData(ctx, 1, "b1")
	require.NoError(t, err)
	require.NotNil(t, first)

	secondID, err := repo.UpsertUserBookmark(ctx, "b1", 1, []string{"z"})
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)

	var count int64
	require.NoError(t, db.Model(&entities.BookmarkUser{}).Where("bookmark_id = ? AND user_id = ?", "b1", 1).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err := repo.GetWithUserData(ctx, 1, "b1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"z"}, got.Tags)
	assert.Equal(t, *first.UserCreatedAt, *got.UserCreatedAt)
	assert.False(t, got.UserUpdatedAt.Before(*first.UserUpdatedAt))
}

func TestRepository_UpsertUserBookmark_NilTagsStoredAsEmptyList(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()
	saveBookmark(t, repo, "b1", "https://example.com/a")

	_, err := repo.UpsertUserBookmark(ctx, "b1", 1, nil)
	require.NoError(t, err)

	got, err := repo.GetWithUserData(ctx, 1, "b1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{}, got.Tags)
}

func TestRepository_UpdateTags_Append(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()
	saveBookmark(t, repo, "b1", "https://example.com/a")
	_, err := repo.UpsertUserBookmark(ctx, "b1", 1, []string{"a", "b"})
	require.NoError(t, err)

	got, err := repo.UpdateTags(ctx, 1, "b1", entities.AppendTags([]string{"b", "c"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "b", "c"}, got.Tags)
	assert.Equal(t, "https://example.com/a", got.URL)
	require.NotNil(t, got.UserID)
	assert.Equal(t, uint(1), *got.UserID)
}

func TestRepository_UpdateTags_AppendToEmpty(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()
	saveBookmark(t, repo, "b1", "https://example.com/a")
	_, err := repo.UpsertUserBookmark(ctx, "b1", 1, []string{})
	require.NoError(t, err)

	got, err := repo.UpdateTags(ctx, 1, "b1", entities.AppendTags([]string{"x"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got.Tags)

	got, err = repo.UpdateTags(ctx, 1, "b1", entities.AppendTags(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got.Tags)
}

func TestRepository_UpdateTags_Set(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()
	saveBookmark(t, repo, "b1", "https://example.com/a")
	_, err := repo.UpsertUserBookmark(ctx, "b1", 1, []string{"a", "b"})
	require.NoError(t, err)

	got, err := repo.UpdateTags(ctx, 1, "b1", entities.SetTags([]string{"c"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, got.Tags)
}

func TestRepository_UpdateTags_NoAssociation(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()
	saveBookmark(t, repo, "b1", "https://example.com/a")
	_, err := repo.UpsertUserBookmark(ctx, "b1", 1, []string{"a"})
	require.NoError(t, err)

	_, err = repo.UpdateTags(ctx, 2, "b1", entities.SetTags([]string{"c"}))
	assert.ErrorIs(t, err, ErrAssociationNotFound)

	_, err = repo.UpdateTags(ctx, 1, "missing", entities.AppendTags([]string{"c"}))
	assert.ErrorIs(t, err, ErrAssociationNotFound)
}

func TestRepository_UpdateTags_InvalidOperation(t *testing.T) {
	repo, _ := setupTestDB(t)

	_, err := repo.UpdateTags(context.Background(), 1, "b1", entities.TagOperation{})
	assert.ErrorIs(t, err, ErrInvalidTagOperation)
}

func TestRepository_GetWithUserData_NoAssociation(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()
	saveBookmark(t, repo, "b1", "https://example.com/a")

	got, err := repo.GetWithUserData(ctx, 1, "b1")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetWithUserData(ctx, 1, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_GetByUser_OrderedBySaveTime(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"b3", "b1", "b2"} {
		saveBookmark(t, repo, id, "https://example.com/"+id)
	}
	// Saved by the user in the order b2, b3, b1.
	for _, id := range []string{"b2", "b3", "b1"} {
		_, err := repo.UpsertUserBookmark(ctx, id, 7, []string{"t"})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	_, err := repo.UpsertUserBookmark(ctx, "b1", 8, []string{"other"})
	require.NoError(t, err)

	items, err := repo.GetByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "b2", items[0].ID)
	assert.Equal(t, "b3", items[1].ID)
	assert.Equal(t, "b1", items[2].ID)
	assert.Equal(t, []string{"t"}, items[2].Tags)
}

func TestRepository_GetByUser_Empty(t *testing.T) {
	repo, _ := setupTestDB(t)

	items, err := repo.GetByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestRepository_GetByTag_ExactCaseSensitive(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()
	saveBookmark(t, repo, "b1", "https://example.com/1")
	saveBookmark(t, repo, "b2", "https://example.com/2")
	saveBookmark(t, repo, "b3", "https://example.com/3")

	_, err := repo.UpsertUserBookmark(ctx, "b1", 1, []string{"go", "db"})
	require.NoError(t, err)
	_, err = repo.UpsertUserBookmark(ctx, "b2", 1, []string{"Go"})
	require.NoError(t, err)
	_, err = repo.UpsertUserBookmark(ctx, "b3", 1, []string{"golang"})
	require.NoError(t, err)
	_, err = repo.UpsertUserBookmark(ctx, "b3", 2, []string{"go"})
	require.NoError(t, err)

	items, err := repo.GetByTag(ctx, 1, "go")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b1", items[0].ID)

	items, err = repo.GetByTag(ctx, 1, "Go")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b2", items[0].ID)

	items, err = repo.GetByTag(ctx, 1, "rust")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRepository_GetTagCountByUser(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()
	saveBookmark(t, repo, "b1", "https://example.com/1")
	saveBookmark(t, repo, "b2", "https://example.com/2")
	saveBookmark(t, repo, "b3", "https://example.com/3")

	_, err := repo.UpsertUserBookmark(ctx, "b1", 1, []string{"a", "b"})
	require.NoError(t, err)
	_, err = repo.UpsertUserBookmark(ctx, "b2", 1, []string{"a"})
	require.NoError(t, err)
	_, err = repo.UpsertUserBookmark(ctx, "b3", 1, []string{"a", "c"})
	require.NoError(t, err)
	_, err = repo.UpsertUserBookmark(ctx, "b3", 2, []string{"a", "z"})
	require.NoError(t, err)

	counts, err := repo.GetTagCountByUser(ctx, 1)
	require.NoError(t, err)

	got := map[string]int64{}
	for _, c := range counts {
		got[c.Tag] = c.Count
	}
	assert.Equal(t, map[string]int64{"a": 3, "b": 1, "c": 1}, got)
}

func TestRepository_Transaction_RollsBackOnError(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()
	saveBookmark(t, repo, "b1", "https://example.com/a")
	_, err := repo.UpsertUserBookmark(ctx, "b1", 1, []string{"a"})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = repo.Transaction(ctx, func(tx Tx) error {
		if _, err := tx.UpdateTags(ctx, 1, "b1", entities.SetTags([]string{"changed"})); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.GetWithUserData(ctx, 1, "b1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.Tags)
}

func TestRepository_Transaction_Commits(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	err := repo.Transaction(ctx, func(tx Tx) error {
		if err := tx.Save(ctx, &entities.Bookmark{ID: "b1", URL: "https://example.com/a"}); err != nil {
			return err
		}
		_, err := tx.UpsertUserBookmark(ctx, "b1", 1, []string{"x"})
		return err
	})
	require.NoError(t, err)

	got, err := repo.GetWithUserData(ctx, 1, "b1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"x"}, got.Tags)
}
