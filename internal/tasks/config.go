package tasks

import (
	"time"

	"github.com/mrlokans/bookmarks/internal/config"
)

// Config holds configuration for the task queue system.
type Config struct {
	// Workers is the number of concurrent task workers. Default: 2
	Workers int

	// MaxRetries is how many times a failed bookmark submission is attempted. Default: 3
	MaxRetries int

	// RetryDelay is the backoff between attempts. Default: 30s
	RetryDelay time.Duration

	// TaskTimeout bounds one attempt, page fetch included. Default: 2m
	TaskTimeout time.Duration

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 15m
	ReleaseAfter time.Duration

	// CleanupInterval is how often to clean up completed tasks. Default: 1h
	CleanupInterval time.Duration

	// RetentionDuration is how long to keep completed tasks. Default: 24h
	RetentionDuration time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:           2,
		MaxRetries:        3,
		RetryDelay:        30 * time.Second,
		TaskTimeout:       2 * time.Minute,
		ReleaseAfter:      15 * time.Minute,
		CleanupInterval:   1 * time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}

// FromSettings builds a Config from application settings, keeping defaults
// for anything unset.
func FromSettings(s config.Tasks) Config {
	cfg := DefaultConfig()
	if s.Workers > 0 {
		cfg.Workers = s.Workers
	}
	if s.MaxRetries > 0 {
		cfg.MaxRetries = s.MaxRetries
	}
	if s.RetryDelay > 0 {
		cfg.RetryDelay = s.RetryDelay
	}
	if s.TaskTimeout > 0 {
		cfg.TaskTimeout = s.TaskTimeout
	}
	if s.ReleaseAfter > 0 {
		cfg.ReleaseAfter = s.ReleaseAfter
	}
	if s.CleanupInterval > 0 {
		cfg.CleanupInterval = s.CleanupInterval
	}
	if s.RetentionDuration > 0 {
		cfg.RetentionDuration = s.RetentionDuration
	}
	return cfg
}
