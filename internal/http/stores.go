package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/clippings/internal/database"
	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/scheduler"
	"github.com/mrlokans/clippings/internal/services"
	"github.com/mrlokans/clippings/internal/tasks"
)

// This file consolidates the interfaces HTTP controllers depend on. Each
// controller takes only what it uses so tests can pass small fakes.

// ClippingsImporter runs an import synchronously.
type ClippingsImporter interface {
	ImportText(ctx context.Context, text string, source entities.ImportSource, origin string) (services.ImportReport, error)
}

// ImportEnqueuer hands an import to the task queue.
type ImportEnqueuer interface {
	EnqueueImport(ctx context.Context, task tasks.ImportClippingsTask) (string, error)
}

// UploadArchiver keeps a copy of uploaded exports.
type UploadArchiver interface {
	Save(origin, text string) (string, error)
}

// WatermarkResetter clears the import watermark.
type WatermarkResetter interface {
	ResetWatermark(ctx context.Context) error
}

// ImportStatusStore provides what the status endpoint reports.
type ImportStatusStore interface {
	GetWatermark(ctx context.Context) (string, bool, error)
	GetStats(ctx context.Context) (database.Stats, error)
}

// RunHistory lists recorded import runs.
type RunHistory interface {
	Recent(ctx context.Context, limit int) ([]entities.ImportRun, error)
	GetByRunID(ctx context.Context, runID string) (*entities.ImportRun, error)
}

// SyncStatusProvider reports the scheduled re-import state and starts an
// out-of-schedule run.
type SyncStatusProvider interface {
	Status() scheduler.ClippingsSyncStatus
	RunNow() error
}

// TaskStatusReader looks up queued task state.
type TaskStatusReader interface {
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}
