package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookmarks/internal/entities"
	"github.com/mrlokans/bookmarks/internal/logger"
)

type AuditController struct {
	events AuditReader
	log    logger.Logger
}

func NewAuditController(events AuditReader, log logger.Logger) *AuditController {
	return &AuditController{events: events, log: log}
}

// GetAuditEvents returns the caller's audit events, newest first.
// GET /api/v1/audit?limit=&offset=&type=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	limit, offset := parsePagination(c)
	eventType := entities.AuditEventType(c.Query("type"))

	events, total, err := ac.events.GetEvents(c.Request.Context(), GetUserID(c), eventType, limit, offset)
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    events,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(events)) < total,
	})
}
