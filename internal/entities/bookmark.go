package entities

import "time"

// Bookmark is the globally shared record of a fetched URL. One row per URL.
type Bookmark struct {
	ID          string    `gorm:"column:bookmark_id;primaryKey;size:32" json:"bookmark_id"`
	URL         string    `gorm:"column:url;uniqueIndex;size:2048;not null" json:"url"`
	Domain      string    `gorm:"column:domain;size:255" json:"domain"`
	Title       string    `gorm:"column:title;size:1024" json:"title"`
	TextContent string    `gorm:"column:text_content;type:text" json:"text_content"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Bookmark) TableName() string {
	return "bookmark"
}

// BookmarkUser links a user to a bookmark and carries that user's tags.
type BookmarkUser struct {
	ID         string    `gorm:"column:bookmark_user_id;primaryKey;size:36" json:"bookmark_user_id"`
	BookmarkID string    `gorm:"column:bookmark_id;size:32;not null;uniqueIndex:bookmark_user_unique" json:"bookmark_id"`
	UserID     uint      `gorm:"column:user_id;not null;uniqueIndex:bookmark_user_unique;index" json:"user_id"`
	Tags       []string  `gorm:"column:tags;type:text;serializer:json;not null" json:"tags"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`

	Bookmark *Bookmark `gorm:"foreignKey:BookmarkID;references:ID" json:"-"`
}

func (BookmarkUser) TableName() string {
	return "bookmark_user"
}

// BookmarkWithUser is the read projection of a bookmark joined with one
// user's association. The association fields are nil when no association
// exists. Text content is left out to keep listings small.
type BookmarkWithUser struct {
	ID            string     `json:"bookmark_id"`
	URL           string     `json:"url"`
	Domain        string     `json:"domain"`
	Title         string     `json:"title"`
	CreatedAt     time.Time  `json:"created_at"`
	UserID        *uint      `json:"user_id,omitempty"`
	Tags          []string   `json:"tags"`
	UserCreatedAt *time.Time `json:"user_created_at,omitempty"`
	UserUpdatedAt *time.Time `json:"user_updated_at,omitempty"`
}

// TagCount is the number of a user's bookmarks carrying a tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// NormalizeTags never returns nil so that stored lists serialize as "[]".
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
