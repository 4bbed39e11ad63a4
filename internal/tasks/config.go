package tasks

import "time"

// Config holds configuration for the task queue. Retry, backoff and retention
// are per queue; see ImportClippingsTask.Config and FailStaleRunsTask.Config.
type Config struct {
	// Workers is the number of concurrent task workers. Imports hold a
	// cross-process lock, so more than one worker only helps other queues.
	// Default: 1
	Workers int

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 15m
	ReleaseAfter time.Duration

	// CleanupInterval is how often expired tasks are purged. Default: 1h
	CleanupInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:         1,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: 1 * time.Hour,
	}
}
