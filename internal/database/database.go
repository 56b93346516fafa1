package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookmarks/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the SQLite database at dbPath and migrates every entity.
// logLevel is one of silent, error, warn, info; anything else means warn.
func NewDatabase(dbPath string, logLevel string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dsn(dbPath)), &gorm.Config{
		Logger: logger.Default.LogMode(parseLogLevel(logLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Bookmark{},
		&entities.BookmarkUser{},
		&entities.BookmarkTask{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the underlying connection pool can reach the database.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func parseLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Violation describes a uniqueness or check constraint rejected by the store.
type Violation struct {
	Constraint string
	Message    string
}

func (v *Violation) Error() string {
	return v.Message
}

// ConstraintViolation reports whether err carries an SQLite constraint
// failure and, if so, which constraint fired.
func ConstraintViolation(err error) (*Violation, bool) {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return nil, false
	}

	msg := sqliteErr.Error()
	constraint := sqliteErr.ExtendedCode.Error()
	// "UNIQUE constraint failed: bookmark.url" -> "bookmark.url"
	if idx := strings.LastIndex(msg, ": "); idx >= 0 {
		constraint = strings.TrimSpace(msg[idx+2:])
	}

	return &Violation{Constraint: constraint, Message: msg}, true
}

// IsStoreError reports whether err came from the database driver or the
// connection pool rather than from application code.
func IsStoreError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, sql.ErrTxDone) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, gorm.ErrInvalidTransaction) ||
		errors.Is(err, gorm.ErrInvalidDB)
}
