// Package bookmarks provides database operations for bookmarks and the
// per-user associations that carry tags.
//
// A bookmark row is shared by every user who saved the same URL. Tags and
// per-user timestamps live in bookmark_user, one row per (bookmark, user).
// Tags are stored as a JSON array in a text column.
//
// # Interface Implementation
//
//	var _ http.BookmarkStore = (*Repository)(nil)
//
// # Usage
//
//	repo := bookmarks.NewRepository(db)
//	items, err := repo.GetByUser(ctx, userID)
package bookmarks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/bookmarks/internal/entities"
)

var (
	// ErrAssociationNotFound is returned when a tag update matches no
	// (user, bookmark) association.
	ErrAssociationNotFound = errors.New("bookmark association not found")

	ErrInvalidTagOperation = errors.New("invalid tag operation")
)

// Tx is the subset of the repository available inside Transaction.
type Tx interface {
	GetByURL(ctx context.Context, url string) (*entities.Bookmark, error)
	GetWithUserData(ctx context.Context, userID uint, bookmarkID string) (*entities.BookmarkWithUser, error)
	UpdateTags(ctx context.Context, userID uint, bookmarkID string, op entities.TagOperation) (*entities.BookmarkWithUser, error)
	UpsertUserBookmark(ctx context.Context, bookmarkID string, userID uint, tags []string) (string, error)
	Save(ctx context.Context, bookmark *entities.Bookmark) error
}

var _ Tx = (*Repository)(nil)

// Repository handles all bookmark database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new bookmarks repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn against a repository bound to a single database
// transaction. The transaction commits when fn returns nil and rolls back otherwise.
func (r *Repository) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

const selectWithUser = `
	SELECT
		b.bookmark_id,
		b.url,
		b.domain,
		b.title,
		b.created_at,
		bu.user_id,
		bu.tags,
		bu.created_at,
		bu.updated_at
	FROM bookmark_user bu
	INNER JOIN bookmark b ON b.bookmark_id = bu.bookmark_id`

const orderByAssociation = ` ORDER BY bu.created_at ASC, bu.rowid ASC`

// The tag payload is always bound as a JSON array parameter.
const (
	setTagsSQL    = `tags = ?`
	appendTagsSQL = `tags = (
		SELECT json_group_array(value ORDER BY src, k) FROM (
			SELECT value, 0 AS src, key AS k FROM json_each(bookmark_user.tags)
			UNION ALL
			SELECT value, 1 AS src, key AS k FROM json_each(?)
		)
	)`
)

// GetTagCountByUser counts how many of the user's bookmarks carry each tag.
// The result order is not significant.
func (r *Repository) GetTagCountByUser(ctx context.Context, userID uint) ([]entities.TagCount, error) {
	rows, err := r.db.WithContext(ctx).Raw(`
		SELECT j.value AS tag, COUNT(1) AS counter
		FROM bookmark_user bu, json_each(bu.tags) j
		WHERE bu.user_id = ?
		GROUP BY j.value`, userID).Rows()
	if err != nil {
		return nil, fmt.Errorf("query tag counts: %w", err)
	}
	defer rows.Close()

	counts := []entities.TagCount{}
	for rows.Next() {
		var tc entities.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan tag count: %w", err)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tag counts: %w", err)
	}
	return counts, nil
}

// GetByUser returns every bookmark the user saved, oldest save first.
func (r *Repository) GetByUser(ctx context.Context, userID uint) ([]entities.BookmarkWithUser, error) {
	return r.queryWithUser(ctx, selectWithUser+` WHERE bu.user_id = ?`+orderByAssociation, userID)
}

// GetByTag returns the user's bookmarks whose tag list contains tag exactly.
// Matching is case-sensitive.
func (r *Repository) GetByTag(ctx context.Context, userID uint, tag string) ([]entities.BookmarkWithUser, error) {
	return r.queryWithUser(ctx, selectWithUser+`
		WHERE bu.user_id = ?
		AND EXISTS (SELECT 1 FROM json_each(bu.tags) WHERE json_each.value = ?)`+orderByAssociation,
		userID, tag)
}

// GetByURL looks a bookmark up by its URL. A missing bookmark yields (nil, nil).
func (r *Repository) GetByURL(ctx context.Context, url string) (*entities.Bookmark, error) {
	row := r.db.WithContext(ctx).Raw(`
		SELECT bookmark_id, url, domain, title, text_content, created_at
		FROM bookmark
		WHERE url = ?`, url).Row()

	var b entities.Bookmark
	err := row.Scan(&b.ID, &b.URL, &b.Domain, &b.Title, &b.TextContent, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bookmark by url: %w", err)
	}
	return &b, nil
}

// GetWithUserData returns the bookmark joined with the user's association.
// No association (or no bookmark) yields (nil, nil).
func (r *Repository) GetWithUserData(ctx context.Context, userID uint, bookmarkID string) (*entities.BookmarkWithUser, error) {
	items, err := r.queryWithUser(ctx, selectWithUser+`
		WHERE bu.user_id = ?
		AND bu.bookmark_id = ?`, userID, bookmarkID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// UpdateTags applies op to the user's tag list for the bookmark, stamps
// updated_at and returns the refreshed view. ErrAssociationNotFound is
// returned when the user has no association with the bookmark.
func (r *Repository) UpdateTags(ctx context.Context, userID uint, bookmarkID string, op entities.TagOperation) (*entities.BookmarkWithUser, error) {
	var setClause string
	switch {
	case op.IsSet():
		setClause = setTagsSQL
	case op.IsAppend():
		setClause = appendTagsSQL
	default:
		return nil, ErrInvalidTagOperation
	}

	payload, err := encodeTags(op.Tags())
	if err != nil {
		return nil, err
	}

	result := r.db.WithContext(ctx).Exec(
		`UPDATE bookmark_user SET `+setClause+`, updated_at = ? WHERE bookmark_id = ? AND user_id = ?`,
		payload, now(), bookmarkID, userID,
	)
	if result.Error != nil {
		return nil, fmt.Errorf("update tags (%s): %w", op, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrAssociationNotFound
	}

	updated, err := r.GetWithUserData(ctx, userID, bookmarkID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrAssociationNotFound
	}
	return updated, nil
}

// UpsertUserBookmark links the user to the bookmark with the given tags. If
// the link already exists its tags are replaced and updated_at refreshed.
// The association id is returned in both cases.
func (r *Repository) UpsertUserBookmark(ctx context.Context, bookmarkID string, userID uint, tags []string) (string, error) {
	payload, err := encodeTags(tags)
	if err != nil {
		return "", err
	}

	ts := now()
	var id string
	err = r.db.WithContext(ctx).Raw(`
		INSERT INTO bookmark_user
			(bookmark_user_id, bookmark_id, user_id, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (bookmark_id, user_id)
		DO UPDATE SET tags = excluded.tags, updated_at = excluded.updated_at
		RETURNING bookmark_user_id`,
		uuid.NewString(), bookmarkID, userID, payload, ts, ts,
	).Row().Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert user bookmark: %w", err)
	}
	return id, nil
}

// Save inserts a new bookmark with created_at set to now. URL uniqueness is
// left to the store; callers check GetByURL first.
func (r *Repository) Save(ctx context.Context, bookmark *entities.Bookmark) error {
	bookmark.CreatedAt = now()
	err := r.db.WithContext(ctx).Exec(`
		INSERT INTO bookmark
			(bookmark_id, url, domain, title, text_content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		bookmark.ID, bookmark.URL, bookmark.Domain, bookmark.Title, bookmark.TextContent, bookmark.CreatedAt,
	).Error
	if err != nil {
		return fmt.Errorf("save bookmark: %w", err)
	}
	return nil
}

func (r *Repository) queryWithUser(ctx context.Context, query string, args ...any) ([]entities.BookmarkWithUser, error) {
	rows, err := r.db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	items := []entities.BookmarkWithUser{}
	for rows.Next() {
		item, err := scanWithUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}
	return items, nil
}

func scanWithUser(rows *sql.Rows) (entities.BookmarkWithUser, error) {
	var (
		item          entities.BookmarkWithUser
		userID        sql.NullInt64
		tags          sql.NullString
		userCreatedAt sql.NullTime
		userUpdatedAt sql.NullTime
	)

	err := rows.Scan(
		&item.ID,
		&item.URL,
		&item.Domain,
		&item.Title,
		&item.CreatedAt,
		&userID,
		&tags,
		&userCreatedAt,
		&userUpdatedAt,
	)
	if err != nil {
		return item, fmt.Errorf("scan bookmark: %w", err)
	}

	if userID.Valid {
		id := uint(userID.Int64)
		item.UserID = &id
	}
	if tags.Valid {
		if err := json.Unmarshal([]byte(tags.String), &item.Tags); err != nil {
			return item, fmt.Errorf("decode tags of bookmark %s: %w", item.ID, err)
		}
		item.Tags = entities.NormalizeTags(item.Tags)
	}
	if userCreatedAt.Valid {
		item.UserCreatedAt = &userCreatedAt.Time
	}
	if userUpdatedAt.Valid {
		item.UserUpdatedAt = &userUpdatedAt.Time
	}
	return item, nil
}

func encodeTags(tags []string) (string, error) {
	payload, err := json.Marshal(entities.NormalizeTags(tags))
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(payload), nil
}

func now() time.Time {
	return time.Now().UTC()
}
