package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/mikestefanello/backlite"
	"gorm.io/gorm"

	"github.com/mrlokans/bookmarks/internal/database"
	"github.com/mrlokans/bookmarks/internal/database/bookmarks"
	"github.com/mrlokans/bookmarks/internal/database/bookmarktasks"
	"github.com/mrlokans/bookmarks/internal/entities"
	"github.com/mrlokans/bookmarks/internal/fetcher"
	"github.com/mrlokans/bookmarks/internal/logger"
)

// CreateBookmarkTask turns a recorded URL submission into a bookmark linked
// to the submitting user.
type CreateBookmarkTask struct {
	TaskID string `json:"task_id"`
}

// Config returns the queue configuration for bookmark creation tasks.
func (t CreateBookmarkTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "create_bookmark",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PageFetcher downloads a submitted URL.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Page, error)
}

// TaskResultAuditor records the outcome of a processed submission.
type TaskResultAuditor interface {
	LogTaskResult(userID uint, taskID, bookmarkID string, err error)
}

// TagCountInvalidator drops cached tag counts after a user's tags change.
type TagCountInvalidator interface {
	Invalidate(ctx context.Context, userID uint)
}

// BookmarkCreator processes CreateBookmarkTask. The bookmark, the user's
// association and the task status are written in one transaction.
type BookmarkCreator struct {
	db      *gorm.DB
	fetcher PageFetcher
	auditor TaskResultAuditor
	cache   TagCountInvalidator
	log     logger.Logger
	newID   func() (string, error)
}

// NewBookmarkCreator wires the processor. auditor and cache may be nil.
func NewBookmarkCreator(db *gorm.DB, pages PageFetcher, auditor TaskResultAuditor, cache TagCountInvalidator, log logger.Logger) *BookmarkCreator {
	return &BookmarkCreator{
		db:      db,
		fetcher: pages,
		auditor: auditor,
		cache:   cache,
		log:     log,
		newID:   func() (string, error) { return gonanoid.New() },
	}
}

// Process handles one submission and returns the id of the linked bookmark.
// Missing and already completed tasks are no-ops.
func (bc *BookmarkCreator) Process(ctx context.Context, taskID string) (string, error) {
	taskRepo := bookmarktasks.NewRepository(bc.db)
	task, err := taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return "", err
	}
	if task == nil {
		bc.log.Warn("bookmark task not found, skipping", logger.String("task_id", taskID))
		return "", nil
	}
	if task.Status == entities.BookmarkTaskDone && task.BookmarkID != nil {
		return *task.BookmarkID, nil
	}

	bookmarkID, err := bc.create(ctx, task)
	if err != nil {
		if markErr := taskRepo.MarkFailed(ctx, task.ID, err.Error()); markErr != nil {
			bc.log.Error("failed to record task failure",
				logger.String("task_id", task.ID), logger.Error(markErr))
		}
		bc.audit(task, "", err)
		return "", err
	}

	if bc.cache != nil {
		bc.cache.Invalidate(ctx, task.UserID)
	}
	bc.audit(task, bookmarkID, nil)
	bc.log.Info("bookmark created",
		logger.String("task_id", task.ID),
		logger.String("bookmark_id", bookmarkID),
		logger.Uint("user_id", task.UserID))
	return bookmarkID, nil
}

func (bc *BookmarkCreator) create(ctx context.Context, task *entities.BookmarkTask) (string, error) {
	existing, err := bookmarks.NewRepository(bc.db).GetByURL(ctx, task.URL)
	if err != nil {
		return "", err
	}

	// The page is fetched outside the transaction so a slow site does not
	// hold the database write lock.
	var page *fetcher.Page
	if existing == nil {
		page, err = bc.fetcher.Fetch(ctx, task.URL)
		if err != nil {
			return "", err
		}
	}

	var bookmarkID string
	err = bc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := bookmarks.NewRepository(tx)

		bookmark, err := repo.GetByURL(ctx, task.URL)
		if err != nil {
			return err
		}
		if bookmark == nil {
			if page == nil {
				return fmt.Errorf("bookmark for %s disappeared", task.URL)
			}
			if bookmark, err = bc.save(ctx, repo, page); err != nil {
				return err
			}
		}

		if _, err := repo.UpsertUserBookmark(ctx, bookmark.ID, task.UserID, task.Tags); err != nil {
			return err
		}
		if err := bookmarktasks.NewRepository(bc.db).WithTx(tx).MarkDone(ctx, task.ID, bookmark.ID); err != nil {
			return err
		}
		bookmarkID = bookmark.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return bookmarkID, nil
}

// save inserts the fetched page. Losing the URL uniqueness race to a
// concurrent submission returns the winner instead.
func (bc *BookmarkCreator) save(ctx context.Context, repo *bookmarks.Repository, page *fetcher.Page) (*entities.Bookmark, error) {
	id, err := bc.newID()
	if err != nil {
		return nil, fmt.Errorf("generate bookmark id: %w", err)
	}

	bookmark := &entities.Bookmark{
		ID:          id,
		URL:         page.URL,
		Domain:      page.Domain,
		Title:       page.Title,
		TextContent: page.TextContent,
	}
	err = repo.Save(ctx, bookmark)
	if err == nil {
		return bookmark, nil
	}

	if _, ok := database.ConstraintViolation(err); !ok {
		return nil, err
	}
	winner, getErr := repo.GetByURL(ctx, page.URL)
	if getErr != nil {
		return nil, errors.Join(err, getErr)
	}
	if winner == nil {
		return nil, err
	}
	return winner, nil
}

func (bc *BookmarkCreator) audit(task *entities.BookmarkTask, bookmarkID string, err error) {
	if bc.auditor == nil {
		return
	}
	bc.auditor.LogTaskResult(task.UserID, task.ID, bookmarkID, err)
}

// CreateBookmarkProcessor creates a processor function for CreateBookmarkTask.
func CreateBookmarkProcessor(creator *BookmarkCreator) backlite.QueueProcessor[CreateBookmarkTask] {
	return func(ctx context.Context, task CreateBookmarkTask) error {
		if creator == nil {
			return errors.New("bookmark creator not configured")
		}
		if _, err := creator.Process(ctx, task.TaskID); err != nil {
			return fmt.Errorf("create bookmark for task %s: %w", task.TaskID, err)
		}
		return nil
	}
}

// NewCreateBookmarkQueue creates a backlite queue for bookmark creation tasks.
func NewCreateBookmarkQueue(creator *BookmarkCreator) backlite.Queue {
	return backlite.NewQueue(CreateBookmarkProcessor(creator))
}
