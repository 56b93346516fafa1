// Package http exposes the bookmark API over gin.
//
// Routes under /api/v1 require authentication (or run as the default user
// when auth is disabled). /health and /ping are always public.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookmarks/internal/auth"
	"github.com/mrlokans/bookmarks/internal/logger"
)

const (
	APIPrefix  = "/api/v1"
	signInPath = APIPrefix + "/auth/sign-in"
	signUpPath = APIPrefix + "/auth/sign-up"
)

// RouterConfig holds every dependency of the router. Optional collaborators
// may be nil: TagCache, BookmarkAuditor, AuthAuditor, AuditReader, the auth
// fields and RateLimiter.
type RouterConfig struct {
	Log     logger.Logger
	Version string

	Database  Pinger
	Bookmarks BookmarkStore
	TagCounts TagCountReader
	TagCache  TagCountInvalidator
	Tasks     BookmarkTaskStore
	Queue     BookmarkTaskQueue

	BookmarkAuditor BookmarkAuditor
	AuthAuditor     auth.AuthAuditor
	AuditReader     AuditReader

	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	RateLimiter    *auth.RateLimiter
	CSRFSecret     []byte
	SecureCookies  bool
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.Use(AccessLog(cfg.Log))
	router.Use(Recovery(cfg.Log))
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	api := router.Group(APIPrefix)

	// Sessions load before CSRF so the CSRF check sees the session cookie.
	if cfg.SessionManager != nil {
		api.Use(cfg.SessionManager.SessionLoadSave())
	}
	if len(cfg.CSRFSecret) > 0 {
		api.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService, cfg.SessionManager,
			signInPath, signUpPath))
	}

	var authController *auth.AuthController
	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() {
		authController = auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.AuthAuditor, cfg.Log)

		public := api.Group("/auth")
		if cfg.RateLimiter != nil {
			public.Use(cfg.RateLimiter.Middleware())
		}
		public.POST("/sign-up", authController.SignUp)
		public.POST("/sign-in", authController.SignIn)
	}

	protected := api.Group("")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.Handler())
	} else {
		protected.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Set(auth.ContextKeyAuthType, auth.AuthTypeNone)
			c.Next()
		})
	}

	if authController != nil {
		protected.POST("/auth/sign-out", authController.SignOut)
		protected.GET("/auth/user-profile", authController.UserProfile)
	}

	bookmarksController := NewBookmarksController(cfg.Bookmarks, cfg.Tasks, cfg.Queue, cfg.BookmarkAuditor, cfg.Log)
	protected.GET("/bookmarks", bookmarksController.GetBookmarks)
	protected.POST("/bookmarks", bookmarksController.NewBookmark)
	protected.GET("/bookmarks/:id", bookmarksController.GetBookmark)

	tagsController := NewTagsController(cfg.Bookmarks, cfg.TagCounts, cfg.TagCache, cfg.BookmarkAuditor, cfg.Log)
	protected.GET("/tags", tagsController.GetAllTags)
	protected.GET("/tags/:tag", tagsController.GetBookmarksByTag)
	protected.POST("/bookmarks/:id/tags", tagsController.SetTags)
	protected.PATCH("/bookmarks/:id/tags", tagsController.AppendTags)

	tasksController := NewTasksController(cfg.Tasks, cfg.Log)
	protected.GET("/tasks/:id", tasksController.GetTask)

	if cfg.AuditReader != nil {
		auditController := NewAuditController(cfg.AuditReader, cfg.Log)
		protected.GET("/audit", auditController.GetAuditEvents)
	}

	return router
}
