package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookmarks/internal/auth"
	"github.com/mrlokans/bookmarks/internal/config"
	"github.com/mrlokans/bookmarks/internal/database"
	"github.com/mrlokans/bookmarks/internal/database/bookmarks"
	"github.com/mrlokans/bookmarks/internal/database/bookmarktasks"
	"github.com/mrlokans/bookmarks/internal/database/users"
	"github.com/mrlokans/bookmarks/internal/entities"
	"github.com/mrlokans/bookmarks/internal/fetcher"
	"github.com/mrlokans/bookmarks/internal/logger"
	"github.com/mrlokans/bookmarks/internal/tasks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPages struct{}

func (stubPages) Fetch(_ context.Context, url string) (*fetcher.Page, error) {
	return &fetcher.Page{URL: url, Domain: "example.com", Title: "Title of " + url, TextContent: "text"}, nil
}

type recordingCache struct {
	mu    sync.Mutex
	users []uint
}

func (r *recordingCache) Invalidate(_ context.Context, userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
}

func (r *recordingCache) invalidated() []uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint(nil), r.users...)
}

type failingQueue struct{ err error }

func (q failingQueue) EnqueueCreateBookmark(context.Context, string) error { return q.err }

type apiEnv struct {
	db        *database.Database
	bookmarks *bookmarks.Repository
	tasks     *bookmarktasks.Repository
	queue     *tasks.InlineQueue
	cache     *recordingCache
	auth      *auth.Service
	router    *gin.Engine
}

type envOption func(*RouterConfig)

// newAPIEnv builds the full router on a temporary database. Submissions are
// processed in-process; call env.queue.Wait() before asserting on them.
// Without options auth is disabled and every request runs as user 0.
func newAPIEnv(t *testing.T, opts ...envOption) *apiEnv {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "bookmarks.db"), "silent")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewNop()
	env := &apiEnv{
		db:        db,
		bookmarks: bookmarks.NewRepository(db.DB),
		tasks:     bookmarktasks.NewRepository(db.DB),
		cache:     &recordingCache{},
	}
	creator := tasks.NewBookmarkCreator(db.DB, stubPages{}, nil, env.cache, log)
	env.queue = tasks.NewInlineQueue(creator, 5*time.Second, log)

	cfg := RouterConfig{
		Log:       log,
		Version:   "test",
		Database:  db,
		Bookmarks: env.bookmarks,
		TagCounts: env.bookmarks,
		TagCache:  env.cache,
		Tasks:     env.tasks,
		Queue:     env.queue,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	env.router = NewRouter(cfg)
	return env
}

// withLocalAuth enables bearer-token authentication against the env's user table.
func withLocalAuth(env **auth.Service) envOption {
	return func(cfg *RouterConfig) {
		db := cfg.Database.(*database.Database)
		authCfg := config.Auth{
			Mode:             config.AuthModeLocal,
			JWTSecret:        "test-jwt-secret",
			TokenExpiry:      time.Hour,
			BcryptCost:       4,
			LockoutThreshold: 5,
			LockoutDuration:  time.Minute,
		}
		svc := auth.NewService(users.NewRepository(db.DB), authCfg)
		cfg.AuthService = svc
		cfg.AuthMiddleware = auth.NewMiddleware(svc, nil, authCfg)
		*env = svc
	}
}

func (e *apiEnv) tokenFor(t *testing.T, svc *auth.Service, email string) (uint, string) {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), email, "correct horse battery")
	require.NoError(t, err)
	token, _, err := svc.IssueToken(user)
	require.NoError(t, err)
	return user.ID, token
}

// link stores a bookmark for url (creating it if needed) and associates it with userID.
func (e *apiEnv) link(t *testing.T, userID uint, id, url string, tags ...string) {
	t.Helper()
	ctx := context.Background()
	existing, err := e.bookmarks.GetByURL(ctx, url)
	require.NoError(t, err)
	if existing == nil {
		require.NoError(t, e.bookmarks.Save(ctx, &entities.Bookmark{ID: id, URL: url, Domain: "example.com", Title: id}))
	} else {
		id = existing.ID
	}
	_, err = e.bookmarks.UpsertUserBookmark(ctx, id, userID, tags)
	require.NoError(t, err)
}

type request struct {
	method string
	path   string
	body   any
	raw    string
	token  string
}

func (e *apiEnv) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	switch {
	case r.raw != "":
		body = bytes.NewReader([]byte(r.raw))
	case r.body != nil:
		data, err := json.Marshal(r.body)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	default:
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(r.method, r.path, body)
	if r.raw != "" || r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}
