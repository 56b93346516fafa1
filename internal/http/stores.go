package http

import (
	"context"

	"github.com/mrlokans/bookmarks/internal/database/bookmarks"
	"github.com/mrlokans/bookmarks/internal/entities"
)

// Each controller depends only on the store methods it calls. The concrete
// implementations live in internal/database and internal/cache.

// BookmarkReader provides the read-only bookmark listings.
type BookmarkReader interface {
	GetByUser(ctx context.Context, userID uint) ([]entities.BookmarkWithUser, error)
	GetByTag(ctx context.Context, userID uint, tag string) ([]entities.BookmarkWithUser, error)
	GetWithUserData(ctx context.Context, userID uint, bookmarkID string) (*entities.BookmarkWithUser, error)
}

// BookmarkTransactor runs tag mutations in a single transaction.
type BookmarkTransactor interface {
	Transaction(ctx context.Context, fn func(tx bookmarks.Tx) error) error
}

// BookmarkStore is implemented by *bookmarks.Repository.
type BookmarkStore interface {
	BookmarkReader
	BookmarkTransactor
}

// TagCountReader returns per-tag bookmark counts for a user.
type TagCountReader interface {
	GetTagCountByUser(ctx context.Context, userID uint) ([]entities.TagCount, error)
}

// TagCountInvalidator drops cached tag counts after a write.
type TagCountInvalidator interface {
	Invalidate(ctx context.Context, userID uint)
}

// BookmarkTaskStore records URL submissions for the worker.
type BookmarkTaskStore interface {
	CreatePending(ctx context.Context, task *entities.BookmarkTask) error
	GetForUser(ctx context.Context, userID uint, taskID string) (*entities.BookmarkTask, error)
}

// BookmarkTaskQueue hands a recorded submission to the worker.
type BookmarkTaskQueue interface {
	EnqueueCreateBookmark(ctx context.Context, taskID string) error
}

// BookmarkAuditor records bookmark and tag changes.
type BookmarkAuditor interface {
	LogBookmarkSubmit(userID uint, taskID, url string, err error)
	LogTagUpdate(userID uint, bookmarkID string, op entities.TagOperation, err error)
}

// AuditReader lists a user's audit events.
type AuditReader interface {
	GetEvents(ctx context.Context, userID uint, eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ BookmarkStore  = (*bookmarks.Repository)(nil)
	_ TagCountReader = (*bookmarks.Repository)(nil)
)
