// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookmarks/internal/logger"
)

// cronParser accepts standard five-field expressions.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// AuditCleanupEnqueuer hands audit cleanup work to the task queue.
type AuditCleanupEnqueuer interface {
	EnqueueAuditCleanup(ctx context.Context, retentionDays int) error
}

// AuditCleanupScheduler periodically enqueues removal of old audit events.
type AuditCleanupScheduler struct {
	queue         AuditCleanupEnqueuer
	schedule      string
	retentionDays int
	log           logger.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.Mutex
	isRunning  bool
	runCtx     context.Context
	cancelFunc context.CancelFunc
}

// NewAuditCleanupScheduler creates a scheduler for the given cron schedule.
func NewAuditCleanupScheduler(queue AuditCleanupEnqueuer, schedule string, retentionDays int, log logger.Logger) *AuditCleanupScheduler {
	return &AuditCleanupScheduler{
		queue:         queue,
		schedule:      schedule,
		retentionDays: retentionDays,
		log:           log,
		cron:          cron.New(cron.WithParser(cronParser)),
	}
}

// ValidateSchedule reports whether schedule is a valid five-field cron expression.
func ValidateSchedule(schedule string) error {
	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// NextRun returns when schedule fires next after from.
func NextRun(schedule string, from time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// Start registers the job and starts the cron runner. An empty schedule
// disables the job. The scheduler stops when ctx is cancelled.
func (s *AuditCleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if s.schedule == "" {
		s.log.Info("audit cleanup scheduler disabled")
		return nil
	}
	if err := ValidateSchedule(s.schedule); err != nil {
		return err
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.RunOnce)
	if err != nil {
		return fmt.Errorf("failed to schedule audit cleanup: %w", err)
	}
	s.entryID = entryID

	s.runCtx, s.cancelFunc = context.WithCancel(ctx)
	s.cron.Start()
	s.isRunning = true

	nextRun, _ := NextRun(s.schedule, time.Now())
	s.log.Info("audit cleanup scheduler started",
		logger.String("schedule", s.schedule),
		logger.Int("retention_days", s.retentionDays),
		logger.String("next_run", nextRun.Format(time.RFC3339)))

	runCtx := s.runCtx
	go func() {
		<-runCtx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce enqueues a cleanup immediately.
func (s *AuditCleanupScheduler) RunOnce() {
	ctx := context.Background()
	s.mu.Lock()
	if s.runCtx != nil {
		ctx = s.runCtx
	}
	s.mu.Unlock()

	if err := s.queue.EnqueueAuditCleanup(ctx, s.retentionDays); err != nil {
		s.log.Error("failed to enqueue audit cleanup", logger.Error(err))
		return
	}
	s.log.Debug("audit cleanup enqueued", logger.Int("retention_days", s.retentionDays))
}

// Stop stops the cron runner and waits for a running job to finish.
func (s *AuditCleanupScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	s.mu.Unlock()

	// RunOnce takes the lock, so wait for jobs without holding it.
	<-s.cron.Stop().Done()
	if cancel != nil {
		cancel()
	}

	s.log.Info("audit cleanup scheduler stopped")
}

// IsRunning reports whether the cron runner is active.
func (s *AuditCleanupScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
