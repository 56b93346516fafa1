package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/mrlokans/bookmarks/internal/logger"
)

// InlineQueue runs submissions in background goroutines of this process.
// It is used when the persistent queue is disabled; nothing is retried and
// pending work is lost on restart.
type InlineQueue struct {
	creator *BookmarkCreator
	timeout time.Duration
	log     logger.Logger
	wg      sync.WaitGroup
}

func NewInlineQueue(creator *BookmarkCreator, timeout time.Duration, log logger.Logger) *InlineQueue {
	if timeout <= 0 {
		timeout = DefaultConfig().TaskTimeout
	}
	return &InlineQueue{creator: creator, timeout: timeout, log: log}
}

// EnqueueCreateBookmark starts processing immediately and never fails.
func (q *InlineQueue) EnqueueCreateBookmark(_ context.Context, taskID string) error {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		defer cancel()
		if _, err := q.creator.Process(ctx, taskID); err != nil {
			q.log.Warn("inline bookmark task failed",
				logger.String("task_id", taskID), logger.Error(err))
		}
	}()
	return nil
}

// Wait blocks until every started submission has finished.
func (q *InlineQueue) Wait() {
	q.wg.Wait()
}
