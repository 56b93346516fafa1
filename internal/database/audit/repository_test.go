package audit

import (
	"context"
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

func setupTestDB(t *testing.T) *Repository {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewRepository(db)
}

func TestRepository_LogEvent(t *testing.T) {
	repo := setupTestDB(t)

	event := &entities.AuditEvent{
		UserID:      1,
		EventType:   entities.AuditEventBookmark,
		Action:      "bookmark_submit",
		Description: "Submitted https://example.com",
		Status:      entities.AuditStatusSuccess,
	}

	err := repo.LogEvent(context.Background(), event)
	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestRepository_GetEvents(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		require.NoError(t, repo.LogEvent(ctx, &entities.AuditEvent{
			UserID:    1,
			EventType: entities.AuditEventTags,
			Action:    "tags_set",
			Status:    entities.AuditStatusSuccess,
			CreatedAt: time.Now().UTC().Add(time.Duration(-i) * time.Hour),
		}))
	}
	require.NoError(t, repo.LogEvent(ctx, &entities.AuditEvent{
		UserID:    1,
		EventType: entities.AuditEventAuth,
		Action:    "sign_in",
		Status:    entities.AuditStatusSuccess,
	}))
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.LogEvent(ctx, &entities.AuditEvent{
			UserID:    2,
			EventType: entities.AuditEventBookmark,
			Action:    "bookmark_submit",
			Status:    entities.AuditStatusSuccess,
		}))
	}

	t.Run("scoped to user", func(t *testing.T) {
		events, total, err := repo.GetEvents(ctx, 1, "", 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(16), total)
		assert.Len(t, events, 16)
	})

	t.Run("filtered by type", func(t *testing.T) {
		events, total, err := repo.GetEvents(ctx, 1, entities.AuditEventAuth, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, events, 1)
		assert.Equal(t, "sign_in", events[0].Action)
	})

	t.Run("pagination", func(t *testing.T) {
		events, total, err := repo.GetEvents(ctx, 1, "", 5, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(16), total)
		assert.Len(t, events, 5)

		events2, _, err := repo.GetEvents(ctx, 1, "", 5, 5)
		require.NoError(t, err)
		assert.Len(t, events2, 5)
		assert.NotEqual(t, events[0].ID, events2[0].ID)
	})

	t.Run("order by created_at desc", func(t *testing.T) {
		events, _, err := repo.GetEvents(ctx, 1, "", 10, 0)
		require.NoError(t, err)
		for i := 1; i < len(events); i++ {
			assert.False(t, events[i-1].CreatedAt.Before(events[i].CreatedAt))
		}
	})

	t.Run("default limit", func(t *testing.T) {
		events, _, err := repo.GetEvents(ctx, 1, "", 0, -3)
		require.NoError(t, err)
		assert.Len(t, events, 16)
	})
}

func TestRepository_DeleteOldEvents(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.LogEvent(ctx, &entities.AuditEvent{
		UserID:    1,
		EventType: entities.AuditEventBookmark,
		Action:    "old",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: now.Add(-48 * time.Hour),
	}))
	require.NoError(t, repo.LogEvent(ctx, &entities.AuditEvent{
		UserID:    1,
		EventType: entities.AuditEventBookmark,
		Action:    "new",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: now.Add(-1 * time.Hour),
	}))

	deleted, err := repo.DeleteOldEvents(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	events, total, err := repo.GetEvents(ctx, 1, "", 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "new", events[0].Action)
}
