package services

import (
	"context"

	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/importers"
)

// ClippingsStore is the storage the import service writes through.
type ClippingsStore interface {
	importers.Store
	ResetWatermark(ctx context.Context) error
}

// RunRecorder keeps the import run history.
type RunRecorder interface {
	Start(ctx context.Context, source entities.ImportSource, origin string) (*entities.ImportRun, error)
	Complete(ctx context.Context, run *entities.ImportRun, result importers.Result, runErr error) error
}

// ImportReport is what a finished import run returns to its caller.
type ImportReport struct {
	RunID  string
	Result importers.Result
}
