package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookmarks/internal/audit"
	"github.com/mrlokans/bookmarks/internal/database"
	auditrepo "github.com/mrlokans/bookmarks/internal/database/audit"
	"github.com/mrlokans/bookmarks/internal/entities"
	"github.com/mrlokans/bookmarks/internal/logger"
)

type auditPage struct {
	Data    []entities.AuditEvent `json:"data"`
	Total   int64                 `json:"total"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
	HasMore bool                  `json:"has_more"`
}

func withAudit(svc **audit.Service) envOption {
	return func(cfg *RouterConfig) {
		db := cfg.Database.(*database.Database)
		*svc = audit.NewService(auditrepo.NewRepository(db.DB), logger.NewNop())
		cfg.BookmarkAuditor = *svc
		cfg.AuditReader = *svc
	}
}

func TestGetAuditEvents(t *testing.T) {
	var svc *audit.Service
	env := newAPIEnv(t, withAudit(&svc))
	env.link(t, 0, "b1", "https://example.com/1", "a")

	w := env.do(t, request{method: http.MethodPost, path: "/api/v1/bookmarks",
		body: NewBookmarkRequest{URL: "https://example.com/2"}})
	requireStatus(t, w, http.StatusCreated)
	w = env.do(t, request{method: http.MethodPost, path: "/api/v1/bookmarks/b1/tags",
		body: TagsRequest{Tags: []string{"b"}}})
	requireStatus(t, w, http.StatusOK)
	w = env.do(t, request{method: http.MethodPatch, path: "/api/v1/bookmarks/missing/tags",
		body: TagsRequest{Tags: []string{"b"}}})
	requireStatus(t, w, http.StatusNotFound)
	env.queue.Wait()
	svc.Wait()

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/audit"})
	requireStatus(t, w, http.StatusOK)
	page := decode[auditPage](t, w)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, defaultPageLimit, page.Limit)
	assert.False(t, page.HasMore)

	statuses := map[string]entities.AuditStatus{}
	for _, e := range page.Data {
		statuses[e.Action] = e.Status
	}
	assert.Equal(t, map[string]entities.AuditStatus{
		"bookmark_submit": entities.AuditStatusSuccess,
		"tags_set":        entities.AuditStatusSuccess,
		"tags_append":     entities.AuditStatusFailed,
	}, statuses)
}

func TestGetAuditEvents_PaginationAndFilter(t *testing.T) {
	var svc *audit.Service
	env := newAPIEnv(t, withAudit(&svc))
	env.link(t, 0, "b1", "https://example.com/1")

	for _, tag := range []string{"a", "b", "c"} {
		w := env.do(t, request{method: http.MethodPatch, path: "/api/v1/bookmarks/b1/tags",
			body: TagsRequest{Tags: []string{tag}}})
		requireStatus(t, w, http.StatusOK)
	}
	svc.LogBookmarkSubmit(0, "task-1", "https://example.com/x", nil)
	svc.LogBookmarkSubmit(5, "task-2", "https://example.com/y", nil)
	svc.Wait()

	w := env.do(t, request{method: http.MethodGet, path: "/api/v1/audit?limit=2&offset=1"})
	requireStatus(t, w, http.StatusOK)
	page := decode[auditPage](t, w)
	assert.Equal(t, int64(4), page.Total)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 1, page.Offset)
	assert.True(t, page.HasMore)

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/audit?type=bookmark"})
	requireStatus(t, w, http.StatusOK)
	page = decode[auditPage](t, w)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "bookmark_submit", page.Data[0].Action)
	assert.Equal(t, uint(0), page.Data[0].UserID)
}

func TestGetAuditEvents_NotMountedWithoutReader(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, request{method: http.MethodGet, path: "/api/v1/audit"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}
