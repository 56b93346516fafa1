// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, constraint errors
//	├── bookmarks/       # Bookmarks, per-user associations and tags
//	├── bookmarktasks/   # Pending URL submissions
//	├── audit/           # Audit trail
//	└── users/           # Local user accounts
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type built on the *gorm.DB handle:
//
//	db, err := database.NewDatabase("./bookmarks.db", "warn")
//
//	bookmarksRepo := bookmarks.NewRepository(db.DB)
//	tasksRepo := bookmarktasks.NewRepository(db.DB)
//
//	items, err := bookmarksRepo.GetByUser(ctx, userID)
//
// # Interface Implementations
//
//   - bookmarks.Repository: implements http.BookmarkStore and tasks.BookmarkWriter
//   - bookmarktasks.Repository: implements http.TaskStore
//   - audit.Repository: implements http.AuditStore and tasks.AuditCleaner
//   - users.Repository: implements auth.UserStore
//
// Writes that span several statements go through the repository's
// Transaction method, which hands the callback a repository bound to the
// transaction handle.
package database
