package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// StaleRunFailer marks abandoned "running" import runs as failed.
type StaleRunFailer interface {
	FailStale(ctx context.Context) (int64, error)
}

// FailStaleRunsTask closes out import runs left running by a crashed process.
type FailStaleRunsTask struct{}

// Config returns the queue configuration for stale run cleanup tasks.
func (t FailStaleRunsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "fail_stale_runs",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// FailStaleRunsProcessor creates a processor function for FailStaleRunsTask.
func FailStaleRunsProcessor(failer StaleRunFailer) backlite.QueueProcessor[FailStaleRunsTask] {
	return func(ctx context.Context, task FailStaleRunsTask) error {
		if failer == nil {
			return fmt.Errorf("run history not configured")
		}

		updated, err := failer.FailStale(ctx)
		if err != nil {
			return fmt.Errorf("fail stale runs: %w", err)
		}

		if updated > 0 {
			log.Printf("[TASK] Marked %d interrupted import run(s) as failed", updated)
		}
		return nil
	}
}

// NewFailStaleRunsQueue creates a backlite queue for stale run cleanup tasks.
func NewFailStaleRunsQueue(failer StaleRunFailer) backlite.Queue {
	return backlite.NewQueue(FailStaleRunsProcessor(failer))
}
