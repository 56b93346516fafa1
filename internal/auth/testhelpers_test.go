package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookmarks/internal/config"
	"github.com/mrlokans/bookmarks/internal/database/users"
	"github.com/mrlokans/bookmarks/internal/entities"
)

const testPassword = "correct horse battery"

func init() {
	gin.SetMode(gin.TestMode)
}

func testAuthConfig(mode config.AuthMode) config.Auth {
	return config.Auth{
		Mode:             mode,
		JWTSecret:        "test-jwt-secret",
		TokenExpiry:      time.Hour,
		SessionSecret:    "test-secret-key-32-bytes-long!!!",
		SessionLifetime:  24 * time.Hour,
		SecureCookies:    false,
		BcryptCost:       4, // Low cost for faster tests
		LockoutThreshold: 3,
		LockoutDuration:  time.Minute,
	}
}

func setupService(t *testing.T, mode config.AuthMode) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewService(users.NewRepository(db), testAuthConfig(mode)), db
}
