package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookmarks/internal/entities"
	"github.com/mrlokans/bookmarks/internal/logger"
	"github.com/mrlokans/bookmarks/internal/validation"
)

// BookmarksController serves bookmark listings and URL submissions.
type BookmarksController struct {
	store   BookmarkReader
	tasks   BookmarkTaskStore
	queue   BookmarkTaskQueue
	auditor BookmarkAuditor
	log     logger.Logger
}

// NewBookmarksController creates a controller. auditor may be nil.
func NewBookmarksController(store BookmarkReader, tasks BookmarkTaskStore, queue BookmarkTaskQueue, auditor BookmarkAuditor, log logger.Logger) *BookmarksController {
	return &BookmarksController{
		store:   store,
		tasks:   tasks,
		queue:   queue,
		auditor: auditor,
		log:     log,
	}
}

// BookmarksResponse wraps bookmark listings.
type BookmarksResponse struct {
	Bookmarks []entities.BookmarkWithUser `json:"bookmarks"`
}

// NewBookmarkRequest is the body of POST /bookmarks.
type NewBookmarkRequest struct {
	URL  string   `json:"url" binding:"required,http_url,max=2048"`
	Tags []string `json:"tags" binding:"omitempty,max=100,dive,max=200"`
}

// GetBookmarks handles GET /api/v1/bookmarks
func (bc *BookmarksController) GetBookmarks(c *gin.Context) {
	items, err := bc.store.GetByUser(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondError(c, bc.log, err)
		return
	}
	c.JSON(http.StatusOK, BookmarksResponse{Bookmarks: nonNilBookmarks(items)})
}

// GetBookmark handles GET /api/v1/bookmarks/:id
func (bc *BookmarksController) GetBookmark(c *gin.Context) {
	item, err := bc.store.GetWithUserData(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, bc.log, err)
		return
	}
	if item == nil {
		respondError(c, bc.log, errNotFound)
		return
	}
	c.JSON(http.StatusOK, item)
}

// NewBookmark handles POST /api/v1/bookmarks
// The page is fetched asynchronously; the response is the pending task.
func (bc *BookmarksController) NewBookmark(c *gin.Context) {
	var req NewBookmarkRequest
	if err := validation.BindJSON(c, &req); err != nil {
		respondError(c, bc.log, err)
		return
	}

	userID := GetUserID(c)
	task := &entities.BookmarkTask{
		UserID: userID,
		URL:    req.URL,
		Tags:   stripBlankTags(req.Tags),
	}

	ctx := c.Request.Context()
	if err := bc.tasks.CreatePending(ctx, task); err != nil {
		bc.audit(userID, "", req.URL, err)
		respondError(c, bc.log, err)
		return
	}
	if err := bc.queue.EnqueueCreateBookmark(ctx, task.ID); err != nil {
		bc.audit(userID, task.ID, req.URL, err)
		respondError(c, bc.log, err)
		return
	}

	bc.audit(userID, task.ID, req.URL, nil)
	c.JSON(http.StatusCreated, task)
}

func (bc *BookmarksController) audit(userID uint, taskID, url string, err error) {
	if bc.auditor != nil {
		bc.auditor.LogBookmarkSubmit(userID, taskID, url, err)
	}
}

// stripBlankTags drops empty and whitespace-only tags, keeping order.
func stripBlankTags(tags []string) []string {
	kept := make([]string, 0, len(tags))
	for _, t := range tags {
		if strings.TrimSpace(t) != "" {
			kept = append(kept, t)
		}
	}
	return kept
}

func nonNilBookmarks(items []entities.BookmarkWithUser) []entities.BookmarkWithUser {
	if items == nil {
		return []entities.BookmarkWithUser{}
	}
	return items
}
