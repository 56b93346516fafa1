package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookmarks/internal/database/bookmarks"
	"github.com/mrlokans/bookmarks/internal/entities"
	"github.com/mrlokans/bookmarks/internal/logger"
	"github.com/mrlokans/bookmarks/internal/validation"
)

// TagStore is what TagsController needs from the bookmark repository.
type TagStore interface {
	GetByTag(ctx context.Context, userID uint, tag string) ([]entities.BookmarkWithUser, error)
	BookmarkTransactor
}

// TagsController serves tag counts, tag filtering and tag mutations.
type TagsController struct {
	store   TagStore
	counts  TagCountReader
	cache   TagCountInvalidator
	auditor BookmarkAuditor
	log     logger.Logger
}

// NewTagsController creates a controller. cache and auditor may be nil.
func NewTagsController(store TagStore, counts TagCountReader, cache TagCountInvalidator, auditor BookmarkAuditor, log logger.Logger) *TagsController {
	return &TagsController{
		store:   store,
		counts:  counts,
		cache:   cache,
		auditor: auditor,
		log:     log,
	}
}

// TagsResponse wraps tag counts.
type TagsResponse struct {
	Tags []entities.TagCount `json:"tags"`
}

// TagsRequest is the body of the tag mutation endpoints.
type TagsRequest struct {
	Tags []string `json:"tags" binding:"required,max=100,dive,max=200"`
}

// GetAllTags handles GET /api/v1/tags
func (tc *TagsController) GetAllTags(c *gin.Context) {
	counts, err := tc.counts.GetTagCountByUser(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondError(c, tc.log, err)
		return
	}
	if counts == nil {
		counts = []entities.TagCount{}
	}
	c.JSON(http.StatusOK, TagsResponse{Tags: counts})
}

// GetBookmarksByTag handles GET /api/v1/tags/:tag
func (tc *TagsController) GetBookmarksByTag(c *gin.Context) {
	items, err := tc.store.GetByTag(c.Request.Context(), GetUserID(c), c.Param("tag"))
	if err != nil {
		respondError(c, tc.log, err)
		return
	}
	c.JSON(http.StatusOK, BookmarksResponse{Bookmarks: nonNilBookmarks(items)})
}

// SetTags handles POST /api/v1/bookmarks/:id/tags
// The user's tag list is replaced.
func (tc *TagsController) SetTags(c *gin.Context) {
	tc.updateTags(c, entities.SetTags)
}

// AppendTags handles PATCH /api/v1/bookmarks/:id/tags
// The tags are added after the existing ones; duplicates are kept.
func (tc *TagsController) AppendTags(c *gin.Context) {
	tc.updateTags(c, entities.AppendTags)
}

func (tc *TagsController) updateTags(c *gin.Context, newOp func([]string) entities.TagOperation) {
	var req TagsRequest
	if err := validation.BindJSON(c, &req); err != nil {
		respondError(c, tc.log, err)
		return
	}

	ctx := c.Request.Context()
	userID := GetUserID(c)
	bookmarkID := c.Param("id")
	op := newOp(req.Tags)

	var updated *entities.BookmarkWithUser
	err := tc.store.Transaction(ctx, func(tx bookmarks.Tx) error {
		var err error
		updated, err = tx.UpdateTags(ctx, userID, bookmarkID, op)
		return err
	})
	if tc.auditor != nil {
		tc.auditor.LogTagUpdate(userID, bookmarkID, op, err)
	}
	if err != nil {
		respondError(c, tc.log, err)
		return
	}

	if tc.cache != nil {
		tc.cache.Invalidate(ctx, userID)
	}
	c.JSON(http.StatusOK, updated)
}
