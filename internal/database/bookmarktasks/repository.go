// Package bookmarktasks stores URL submissions while the background worker
// fetches the page and links it to the submitting user.
package bookmarktasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/bookmarks/internal/entities"
)

// Repository handles bookmark task database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new bookmark task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to an existing transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreatePending records a new pending task inside its own transaction.
// The task id is generated when empty.
func (r *Repository) CreatePending(ctx context.Context, task *entities.BookmarkTask) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.Status = entities.BookmarkTaskPending
	task.Tags = entities.NormalizeTags(task.Tags)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return fmt.Errorf("create bookmark task: %w", err)
		}
		return nil
	})
}

// GetByID returns the task or (nil, nil) when it does not exist.
func (r *Repository) GetByID(ctx context.Context, taskID string) (*entities.BookmarkTask, error) {
	var task entities.BookmarkTask
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bookmark task %s: %w", taskID, err)
	}
	return &task, nil
}

// GetForUser returns the task only when it belongs to userID.
func (r *Repository) GetForUser(ctx context.Context, userID uint, taskID string) (*entities.BookmarkTask, error) {
	var task entities.BookmarkTask
	err := r.db.WithContext(ctx).Where("task_id = ? AND user_id = ?", taskID, userID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bookmark task %s: %w", taskID, err)
	}
	return &task, nil
}

// MarkDone records the bookmark the task produced.
func (r *Repository) MarkDone(ctx context.Context, taskID, bookmarkID string) error {
	return r.update(ctx, taskID, map[string]any{
		"status":      entities.BookmarkTaskDone,
		"bookmark_id": bookmarkID,
		"error":       "",
	})
}

// MarkFailed records the last error. The task may still be retried.
func (r *Repository) MarkFailed(ctx context.Context, taskID, message string) error {
	if len(message) > 1000 {
		message = message[:1000]
	}
	return r.update(ctx, taskID, map[string]any{
		"status": entities.BookmarkTaskError,
		"error":  message,
	})
}

func (r *Repository) update(ctx context.Context, taskID string, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&entities.BookmarkTask{}).
		Where("task_id = ?", taskID).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("update bookmark task %s: %w", taskID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("bookmark task %s: %w", taskID, gorm.ErrRecordNotFound)
	}
	return nil
}
