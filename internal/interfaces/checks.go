package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/bookmarks/internal/audit"
	"github.com/mrlokans/bookmarks/internal/auth"
	"github.com/mrlokans/bookmarks/internal/cache"
	"github.com/mrlokans/bookmarks/internal/database"
	"github.com/mrlokans/bookmarks/internal/database/bookmarks"
	"github.com/mrlokans/bookmarks/internal/database/bookmarktasks"
	"github.com/mrlokans/bookmarks/internal/database/users"
	"github.com/mrlokans/bookmarks/internal/fetcher"
	"github.com/mrlokans/bookmarks/internal/http"
	"github.com/mrlokans/bookmarks/internal/scheduler"
	"github.com/mrlokans/bookmarks/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.BookmarkStore = (*bookmarks.Repository)(nil)
var _ http.TagStore = (*bookmarks.Repository)(nil)
var _ http.BookmarkTaskStore = (*bookmarktasks.Repository)(nil)
var _ http.Pinger = (*database.Database)(nil)
var _ auth.UserStore = (*users.Repository)(nil)
var _ cache.TagCounter = (*bookmarks.Repository)(nil)

// =============================================================================
// Cache
// =============================================================================

var _ http.TagCountReader = (*cache.TagCountCache)(nil)
var _ http.TagCountInvalidator = (*cache.TagCountCache)(nil)
var _ tasks.TagCountInvalidator = (*cache.TagCountCache)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ http.BookmarkTaskQueue = (*tasks.Client)(nil)
var _ http.BookmarkTaskQueue = (*tasks.InlineQueue)(nil)
var _ scheduler.AuditCleanupEnqueuer = (*tasks.Client)(nil)
var _ tasks.PageFetcher = (*fetcher.Fetcher)(nil)

// =============================================================================
// Audit
// =============================================================================

var _ http.BookmarkAuditor = (*audit.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)
var _ auth.AuthAuditor = (*audit.Service)(nil)
var _ tasks.TaskResultAuditor = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
