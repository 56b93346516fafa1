package audit

import (
	"context"
	"sync"
	"time"

	"github.com/mrlokans/bookmarks/internal/database/audit"
	"github.com/mrlokans/bookmarks/internal/entities"
	"github.com/mrlokans/bookmarks/internal/logger"
)

const asyncWriteTimeout = 5 * time.Second

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
	log  logger.Logger
	wg   sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository, log logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Log records an audit event synchronously.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), asyncWriteTimeout)
		defer cancel()
		if err := s.repo.LogEvent(ctx, event); err != nil {
			s.log.Warn("failed to log audit event",
				logger.String("action", event.Action),
				logger.Error(err),
			)
		}
	}()
}

// Wait blocks until every pending asynchronous write has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// LogBookmarkSubmit records a URL submission.
func (s *Service) LogBookmarkSubmit(userID uint, taskID, url string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventBookmark,
		Action:      "bookmark_submit",
		Description: "Submitted " + truncate(url, 480),
		EntityType:  "task",
		EntityID:    taskID,
		Status:      entities.AuditStatusSuccess,
	}
	withError(event, err)
	s.LogAsync(event)
}

// LogTagUpdate records a set or append on a bookmark's tags.
func (s *Service) LogTagUpdate(userID uint, bookmarkID string, op entities.TagOperation, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventTags,
		Action:      "tags_" + op.String(),
		Description: "Updated tags",
		EntityType:  "bookmark",
		EntityID:    bookmarkID,
		Status:      entities.AuditStatusSuccess,
	}
	withError(event, err)
	s.LogAsync(event)
}

// LogTaskResult records the outcome of a background bookmark task.
func (s *Service) LogTaskResult(userID uint, taskID, bookmarkID string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventTask,
		Action:      "bookmark_create",
		Description: "Bookmark " + bookmarkID,
		EntityType:  "task",
		EntityID:    taskID,
		Status:      entities.AuditStatusSuccess,
	}
	withError(event, err)
	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action string, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		UserID:     userID,
		EventType:  entities.AuditEventAuth,
		Action:     action,
		EntityType: "user",
		IPAddress:  ipAddr,
		UserAgent:  truncate(userAgent, 500),
		Status:     entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, userID uint, eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, userID, eventType, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteOldEvents(ctx, retention)
}

func withError(event *entities.AuditEvent, err error) {
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
