package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/services"
)

// ClippingsImporter runs a single import.
type ClippingsImporter interface {
	ImportFile(ctx context.Context, path string, source entities.ImportSource) (services.ImportReport, error)
	ImportText(ctx context.Context, text string, source entities.ImportSource, origin string) (services.ImportReport, error)
}

// ImportClippingsTask imports either the export at Path or the inline Text.
type ImportClippingsTask struct {
	Path   string                `json:"path,omitempty"`
	Text   string                `json:"text,omitempty"`
	Source entities.ImportSource `json:"source"`
	Origin string                `json:"origin,omitempty"`
}

// Config returns the queue configuration for import tasks. The backoff gives a
// concurrent run holding the import lock time to finish.
func (t ImportClippingsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_clippings",
		MaxAttempts: 5,
		Backoff:     30 * time.Second,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportClippingsProcessor creates a processor function for ImportClippingsTask.
func ImportClippingsProcessor(importer ClippingsImporter) backlite.QueueProcessor[ImportClippingsTask] {
	return func(ctx context.Context, task ImportClippingsTask) error {
		if importer == nil {
			return fmt.Errorf("clippings importer not configured")
		}

		var (
			report services.ImportReport
			err    error
		)
		switch {
		case task.Path != "":
			report, err = importer.ImportFile(ctx, task.Path, task.Source)
		case task.Text != "":
			report, err = importer.ImportText(ctx, task.Text, task.Source, task.Origin)
		default:
			log.Printf("[TASK] Import task has neither path nor text, dropping")
			return nil
		}

		if err != nil {
			if retryable(err) {
				log.Printf("[TASK] Import deferred: %v", err)
				return err
			}
			// The run is already recorded as failed; another attempt would fail
			// the same way and record it again.
			log.Printf("[TASK] Import run %s failed, not retrying: %v", report.RunID, err)
			return nil
		}

		log.Printf("[TASK] Import run %s: %d created, %d existing, %d failed",
			report.RunID, report.Result.HighlightsCreated, report.Result.HighlightsExisting, report.Result.Failed)
		return nil
	}
}

// retryable reports whether a failed import may succeed on a later attempt:
// another run held the lock, or the worker was stopped mid-run.
func retryable(err error) bool {
	return errors.Is(err, services.ErrImportInProgress) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// NewImportClippingsQueue creates a backlite queue for import tasks.
func NewImportClippingsQueue(importer ClippingsImporter) backlite.Queue {
	return backlite.NewQueue(ImportClippingsProcessor(importer))
}

// ScheduledImport enqueues a re-import of a fixed export path. It lets the
// scheduler go through the queue instead of importing inline.
type ScheduledImport struct {
	client *Client
	path   string
}

func NewScheduledImport(client *Client, path string) *ScheduledImport {
	return &ScheduledImport{client: client, path: path}
}

// TriggerImport enqueues one import of the configured path.
func (s *ScheduledImport) TriggerImport(ctx context.Context) error {
	if s.path == "" {
		return services.ErrNoClippingsPath
	}
	id, err := s.client.EnqueueImport(ctx, ImportClippingsTask{
		Path:   s.path,
		Source: entities.ImportSourceSchedule,
		Origin: s.path,
	})
	if err != nil {
		return err
	}
	log.Printf("[TASK] Scheduled import enqueued as task %s", id)
	return nil
}
