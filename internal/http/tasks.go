package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookmarks/internal/logger"
)

// TasksController reports the progress of URL submissions.
type TasksController struct {
	tasks BookmarkTaskStore
	log   logger.Logger
}

// NewTasksController creates a new TasksController.
func NewTasksController(tasks BookmarkTaskStore, log logger.Logger) *TasksController {
	return &TasksController{tasks: tasks, log: log}
}

// GetTask handles GET /api/v1/tasks/:id
// Tasks of other users are reported as not found.
func (tc *TasksController) GetTask(c *gin.Context) {
	task, err := tc.tasks.GetForUser(c.Request.Context(), GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, tc.log, err)
		return
	}
	if task == nil {
		respondError(c, tc.log, errNotFound)
		return
	}
	c.JSON(http.StatusOK, task)
}
