// Package interfaces documents the core abstractions used throughout the application.
//
// Interfaces are declared by the package that consumes them; concrete types
// live next to their storage or transport. This package only ties the two
// together with compile-time checks.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - BookmarkReader, BookmarkTransactor, TagStore: bookmark listings and
//     tag mutations (internal/http/stores.go, internal/http/tags.go)
//   - BookmarkTaskStore: URL submissions awaiting the worker (internal/http/stores.go)
//   - UserStore: local accounts (internal/auth/service.go)
//   - TagCounter: per-tag counts behind the cache (internal/cache/tagcount.go)
//
// ## Background Work Interfaces
//
//   - BookmarkTaskQueue: hands a submission to the worker (internal/http/stores.go)
//   - PageFetcher: downloads and extracts a page (internal/tasks/create_bookmark.go)
//   - AuditCleanupEnqueuer: periodic retention job (internal/scheduler/audit_cleanup.go)
//
// ## Audit Interfaces
//
//   - BookmarkAuditor, AuditReader (internal/http/stores.go)
//   - AuthAuditor (internal/auth/handlers.go)
//   - TaskResultAuditor, AuditEventCleaner (internal/tasks)
//
// # Adding a New Tag Operation
//
//  1. Add a constructor next to SetTags and AppendTags in internal/entities
//     and a fixed SQL fragment in internal/database/bookmarks.
//
//  2. Add a handler to TagsController that calls updateTags with it.
//
//  3. Register the route in router.go.
//
// # Adding a New Background Task
//
//  1. Define the task type with a Config method in internal/tasks:
//
//     type RefreshBookmarkTask struct {
//     BookmarkID string
//     }
//
//     func (t RefreshBookmarkTask) Config() backlite.QueueConfig
//
//  2. Provide NewRefreshBookmarkQueue and register it in entrypoint.go.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
