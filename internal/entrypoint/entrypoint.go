package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookmarks/internal/audit"
	"github.com/mrlokans/bookmarks/internal/auth"
	"github.com/mrlokans/bookmarks/internal/cache"
	"github.com/mrlokans/bookmarks/internal/config"
	"github.com/mrlokans/bookmarks/internal/database"
	auditrepo "github.com/mrlokans/bookmarks/internal/database/audit"
	"github.com/mrlokans/bookmarks/internal/database/bookmarks"
	"github.com/mrlokans/bookmarks/internal/database/bookmarktasks"
	"github.com/mrlokans/bookmarks/internal/database/users"
	"github.com/mrlokans/bookmarks/internal/fetcher"
	http_controllers "github.com/mrlokans/bookmarks/internal/http"
	"github.com/mrlokans/bookmarks/internal/logger"
	"github.com/mrlokans/bookmarks/internal/scheduler"
	"github.com/mrlokans/bookmarks/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then calls onShutdown
// and drains in-flight requests within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, log logger.Logger, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen failed", logger.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server", logger.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Background work stops first so nothing new is enqueued mid-drain.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", logger.Error(err))
	}

	log.Info("server exiting")
}

func Run(cfg *config.Config, version string) {
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	defer log.Sync()

	log.Info("starting bookmarks", logger.String("version", version))

	db, err := database.NewDatabase(cfg.Database.Path, cfg.Database.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize database", logger.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", logger.Error(err))
		}
	}()

	bookmarkRepo := bookmarks.NewRepository(db.DB)
	taskRepo := bookmarktasks.NewRepository(db.DB)

	auditService := audit.NewService(auditrepo.NewRepository(db.DB), log)
	defer auditService.Wait()

	// Tag count cache (disabled when REDIS_ADDR is empty)
	redisClient, err := cache.Connect(context.Background(), cfg.Redis, log)
	if err != nil {
		log.Warn("redis unavailable, tag counts will not be cached", logger.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	tagCounts := cache.NewTagCountCache(bookmarkRepo, redisClient, cfg.Redis.TagCountTTL, log)

	pages := fetcher.New(cfg.Fetcher)
	creator := tasks.NewBookmarkCreator(db.DB, pages, auditService, tagCounts, log)

	// Background processing: backlite when enabled, in-process goroutines otherwise.
	var queue http_controllers.BookmarkTaskQueue
	var cleanupQueue scheduler.AuditCleanupEnqueuer
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var inline *tasks.InlineQueue

	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromSettings(cfg.Tasks), log)
		if err != nil {
			log.Fatal("failed to initialize task queue", logger.Error(err))
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error("error closing task client", logger.Error(err))
			}
		}()

		taskClient.Register(
			tasks.NewCreateBookmarkQueue(creator),
			tasks.NewCleanupAuditEventsQueue(auditService, log),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		queue = taskClient
		cleanupQueue = taskClient
	} else {
		log.Warn("task queue disabled, submissions are processed in-process without retries")
		inline = tasks.NewInlineQueue(creator, cfg.Tasks.TaskTimeout, log)
		queue = inline
		cleanupQueue = directAuditCleanup{cleaner: auditService, log: log}
	}

	auditScheduler := scheduler.NewAuditCleanupScheduler(cleanupQueue, cfg.Audit.CleanupSchedule, cfg.Audit.RetentionDays, log)
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	if err := auditScheduler.Start(schedCtx); err != nil {
		log.Error("failed to start audit cleanup scheduler", logger.Error(err))
	}

	routerCfg := http_controllers.RouterConfig{
		Log:             log,
		Version:         version,
		Database:        db,
		Bookmarks:       bookmarkRepo,
		TagCounts:       tagCounts,
		TagCache:        tagCounts,
		Tasks:           taskRepo,
		Queue:           queue,
		BookmarkAuditor: auditService,
		AuthAuditor:     auditService,
		AuditReader:     auditService,
		SecureCookies:   cfg.Auth.SecureCookies,
	}

	var rateLimiter *auth.RateLimiter
	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Info("authentication mode: local")
		if err := setupAuth(cfg, db, log, &routerCfg); err != nil {
			log.Fatal("failed to initialize authentication", logger.Error(err))
		}
		rateLimiter = routerCfg.RateLimiter
	} else {
		log.Info("authentication mode: none (every request runs as the default user)")
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		auditScheduler.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			if !taskClient.Stop(ctx) {
				log.Warn("task queue did not drain before the shutdown timeout")
			}
			taskCtxCancel()
		}
		if inline != nil {
			inline.Wait()
		}
		if rateLimiter != nil {
			rateLimiter.Stop()
		}
	}

	Serve(router, cfg, log, onShutdown)
}

// setupAuth fills the auth fields of routerCfg. Missing secrets are generated
// per process, which invalidates tokens and sessions on restart.
func setupAuth(cfg *config.Config, db *database.Database, log logger.Logger, routerCfg *http_controllers.RouterConfig) error {
	if cfg.Auth.JWTSecret == "" {
		secret, err := auth.GenerateSecret()
		if err != nil {
			return fmt.Errorf("generate JWT secret: %w", err)
		}
		cfg.Auth.JWTSecret = secret
		log.Warn("generated JWT secret (set AUTH_JWT_SECRET to persist tokens across restarts)")
	}

	authService := auth.NewService(users.NewRepository(db.DB), cfg.Auth)

	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("get SQL DB for sessions: %w", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		return fmt.Errorf("initialize session manager: %w", err)
	}

	var csrfSecret []byte
	if cfg.Auth.SessionSecret != "" {
		csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
		if err != nil {
			// Not hex, use as raw bytes
			csrfSecret = []byte(cfg.Auth.SessionSecret)
		}
	} else {
		secret, err := auth.GenerateSecret()
		if err != nil {
			return fmt.Errorf("generate session secret: %w", err)
		}
		csrfSecret, _ = hex.DecodeString(secret)
		log.Warn("generated session secret (set AUTH_SESSION_SECRET to persist)")
	}

	routerCfg.AuthService = authService
	routerCfg.AuthMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)
	routerCfg.SessionManager = sessionManager
	routerCfg.RateLimiter = auth.NewRateLimiter(auth.RateLimitConfig{})
	routerCfg.CSRFSecret = csrfSecret

	count, err := users.NewRepository(db.DB).Count(context.Background())
	if err == nil && count == 0 {
		log.Info("no users found, create one with 'create-user' or POST /api/v1/auth/sign-up")
	}
	return nil
}

// directAuditCleanup deletes expired audit events synchronously when the
// task queue is disabled.
type directAuditCleanup struct {
	cleaner tasks.AuditEventCleaner
	log     logger.Logger
}

func (d directAuditCleanup) EnqueueAuditCleanup(ctx context.Context, retentionDays int) error {
	deleted, err := d.cleaner.DeleteOldEvents(ctx, time.Duration(retentionDays)*24*time.Hour)
	if err != nil {
		return err
	}
	d.log.Info("audit events cleaned up", logger.Int64("deleted", deleted))
	return nil
}
