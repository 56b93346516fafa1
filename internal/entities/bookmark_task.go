package entities

import "time"

type BookmarkTaskStatus string

const (
	BookmarkTaskPending BookmarkTaskStatus = "pending"
	BookmarkTaskDone    BookmarkTaskStatus = "done"
	BookmarkTaskError   BookmarkTaskStatus = "error"
)

// BookmarkTask tracks one URL submission until the worker has fetched the
// page and linked it to the submitting user.
type BookmarkTask struct {
	ID         string             `gorm:"column:task_id;primaryKey;size:36" json:"task_id"`
	UserID     uint               `gorm:"index;not null" json:"user_id"`
	URL        string             `gorm:"size:2048;not null" json:"url"`
	Tags       []string           `gorm:"type:text;serializer:json;not null" json:"tags"`
	Status     BookmarkTaskStatus `gorm:"size:20;index" json:"status"`
	BookmarkID *string            `gorm:"size:32" json:"bookmark_id,omitempty"`
	Error      string             `gorm:"size:1000" json:"error,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func (BookmarkTask) TableName() string {
	return "bookmark_task"
}
