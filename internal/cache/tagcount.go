package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/bookmarks/internal/entities"
	"github.com/mrlokans/bookmarks/internal/logger"
)

const (
	KeyPrefixTagCount  = "bookmarks:tagcount:"
	DefaultTagCountTTL = 10 * time.Minute
)

// TagCounter computes tag counts from the database.
type TagCounter interface {
	GetTagCountByUser(ctx context.Context, userID uint) ([]entities.TagCount, error)
}

// TagCountCache reads tag counts through redis. With a nil client it calls
// the backing store directly.
type TagCountCache struct {
	store  TagCounter
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

func NewTagCountCache(store TagCounter, client *redis.Client, ttl time.Duration, log logger.Logger) *TagCountCache {
	if ttl <= 0 {
		ttl = DefaultTagCountTTL
	}
	return &TagCountCache{store: store, client: client, ttl: ttl, log: log}
}

// TagCountKey returns the redis key holding a user's tag counts.
func TagCountKey(userID uint) string {
	return KeyPrefixTagCount + strconv.FormatUint(uint64(userID), 10)
}

// GetTagCountByUser returns cached counts when present. Redis failures are
// logged and treated as misses.
func (c *TagCountCache) GetTagCountByUser(ctx context.Context, userID uint) ([]entities.TagCount, error) {
	if c.client == nil {
		return c.store.GetTagCountByUser(ctx, userID)
	}

	if counts, ok := c.get(ctx, userID); ok {
		return counts, nil
	}

	counts, err := c.store.GetTagCountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, userID, counts)
	return counts, nil
}

// Invalidate drops the cached counts of a user.
func (c *TagCountCache) Invalidate(ctx context.Context, userID uint) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, TagCountKey(userID)).Err(); err != nil {
		c.log.Warn("failed to invalidate tag counts",
			logger.Uint("user_id", userID), logger.Error(err))
	}
}

func (c *TagCountCache) get(ctx context.Context, userID uint) ([]entities.TagCount, bool) {
	data, err := c.client.Get(ctx, TagCountKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("tag count cache read failed",
				logger.Uint("user_id", userID), logger.Error(err))
		}
		return nil, false
	}

	var counts []entities.TagCount
	if err := json.Unmarshal(data, &counts); err != nil {
		c.log.Warn("discarding corrupt tag count cache entry",
			logger.Uint("user_id", userID), logger.Error(err))
		return nil, false
	}
	return counts, true
}

func (c *TagCountCache) set(ctx context.Context, userID uint, counts []entities.TagCount) {
	if counts == nil {
		counts = []entities.TagCount{}
	}
	data, err := json.Marshal(counts)
	if err != nil {
		c.log.Warn("failed to encode tag counts", logger.Uint("user_id", userID), logger.Error(err))
		return
	}
	if err := c.client.Set(ctx, TagCountKey(userID), data, c.ttl).Err(); err != nil {
		c.log.Warn("tag count cache write failed",
			logger.Uint("user_id", userID), logger.Error(err))
	}
}
