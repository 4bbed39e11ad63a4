// Package runs provides database operations for the import run history.
//
// # Usage
//
//	repo := runs.NewRepository(db)
//	run, err := repo.Start(ctx, entities.ImportSourceCLI, path)
//	result, err := importer.Run(ctx, text)
//	err = repo.Complete(ctx, run, result, err)
package runs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/importers"
)

// staleAfter is how long a run may stay "running" before it is considered
// abandoned by a crashed process.
const staleAfter = 30 * time.Minute

// Repository handles all import run database operations.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository creates a new runs repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Start records a new running import and returns it.
func (r *Repository) Start(ctx context.Context, source entities.ImportSource, origin string) (*entities.ImportRun, error) {
	run := &entities.ImportRun{
		RunID:     uuid.NewString(),
		Source:    source,
		Origin:    origin,
		Status:    entities.ImportStatusRunning,
		StartedAt: r.now(),
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// Complete stores the outcome of a run. A non-nil runErr marks it failed.
func (r *Repository) Complete(ctx context.Context, run *entities.ImportRun, result importers.Result, runErr error) error {
	now := r.now()

	run.Status = entities.ImportStatusCompleted
	run.Error = ""
	if runErr != nil {
		run.Status = entities.ImportStatusFailed
		run.Error = runErr.Error()
	}
	run.PreviousWatermark = result.PreviousWatermark
	run.Watermark = result.Watermark
	run.EntriesParsed = result.Parsed
	run.RecordsSkipped = result.Skipped
	run.EntriesFiltered = result.Filtered
	run.HighlightsCreated = result.HighlightsCreated
	run.HighlightsExisting = result.HighlightsExisting
	run.EntriesFailed = result.Failed
	run.FormatErrors = len(result.FormatErrors)
	run.Errors = ""
	if msgs := result.ErrorMessages(); len(msgs) > 0 {
		encoded, err := json.Marshal(msgs)
		if err != nil {
			return err
		}
		run.Errors = string(encoded)
	}
	run.CompletedAt = &now

	return r.db.WithContext(ctx).Save(run).Error
}

// GetByRunID retrieves a run by its public identifier.
func (r *Repository) GetByRunID(ctx context.Context, runID string) (*entities.ImportRun, error) {
	var run entities.ImportRun
	err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Recent returns up to limit runs, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]entities.ImportRun, error) {
	var list []entities.ImportRun
	err := r.db.WithContext(ctx).Order("started_at DESC, id DESC").Limit(limit).Find(&list).Error
	return list, err
}

// LastCompleted returns the most recent successful run, or nil if none.
func (r *Repository) LastCompleted(ctx context.Context) (*entities.ImportRun, error) {
	var run entities.ImportRun
	err := r.db.WithContext(ctx).
		Where("status = ?", entities.ImportStatusCompleted).
		Order("started_at DESC, id DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// FailStale marks runs left "running" for longer than staleAfter as failed and
// returns how many were updated.
func (r *Repository) FailStale(ctx context.Context) (int64, error) {
	now := r.now()
	result := r.db.WithContext(ctx).Model(&entities.ImportRun{}).
		Where("status = ? AND started_at < ?", entities.ImportStatusRunning, now.Add(-staleAfter)).
		Updates(map[string]any{
			"status":       entities.ImportStatusFailed,
			"error":        "import was interrupted",
			"completed_at": now,
		})
	return result.RowsAffected, result.Error
}

// DecodeErrors returns the messages stored in run.Errors.
func DecodeErrors(run entities.ImportRun) []string {
	if run.Errors == "" {
		return nil
	}
	var msgs []string
	if err := json.Unmarshal([]byte(run.Errors), &msgs); err != nil {
		return []string{run.Errors}
	}
	return msgs
}
