package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofrs/flock"

	"github.com/mrlokans/clippings/internal/clippings"
	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/importers"
)

// ErrImportInProgress is returned when another run holds the import lock.
var ErrImportInProgress = errors.New("another import is in progress")

// ErrNoClippingsPath is returned by TriggerImport when no export file is configured.
var ErrNoClippingsPath = errors.New("clippings path is not configured")

// ClippingsImportService runs imports of a Kindle clippings export, one at a
// time across all processes sharing the lock file, and records each run.
type ClippingsImportService struct {
	store         ClippingsStore
	runs          RunRecorder
	lockPath      string
	clippingsPath string
	strict        bool
	clock         func() time.Time
}

type ClippingsImportConfig struct {
	// LockPath is the file used for the cross-process lock. Empty disables it.
	LockPath string
	// ClippingsPath is the export re-imported by TriggerImport.
	ClippingsPath string
	// StrictTimestamps aborts a run on any malformed "Added on" value.
	StrictTimestamps bool
}

func NewClippingsImportService(store ClippingsStore, runs RunRecorder, cfg ClippingsImportConfig) *ClippingsImportService {
	return &ClippingsImportService{
		store:         store,
		runs:          runs,
		lockPath:      cfg.LockPath,
		clippingsPath: cfg.ClippingsPath,
		strict:        cfg.StrictTimestamps,
		clock:         time.Now,
	}
}

// ClippingsPath returns the configured export path.
func (s *ClippingsImportService) ClippingsPath() string {
	return s.clippingsPath
}

// ImportFile imports the export at path.
func (s *ClippingsImportService) ImportFile(ctx context.Context, path string, source entities.ImportSource) (ImportReport, error) {
	return s.run(ctx, source, path, func() (string, error) {
		text, err := clippings.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read clippings: %w", err)
		}
		return text, nil
	})
}

// ImportText imports already decoded export text. origin names where the text
// came from, e.g. an upload's file name.
func (s *ClippingsImportService) ImportText(ctx context.Context, text string, source entities.ImportSource, origin string) (ImportReport, error) {
	return s.run(ctx, source, origin, func() (string, error) {
		return text, nil
	})
}

// TriggerImport re-imports the configured export. It is what the scheduler and
// the task queue call.
func (s *ClippingsImportService) TriggerImport(ctx context.Context) error {
	if s.clippingsPath == "" {
		return ErrNoClippingsPath
	}
	_, err := s.ImportFile(ctx, s.clippingsPath, entities.ImportSourceSchedule)
	return err
}

// Preview reports what an import of text would do without writing anything.
func (s *ClippingsImportService) Preview(ctx context.Context, text string) (importers.Result, []clippings.Entry, error) {
	return s.importer().DryRun(ctx, text)
}

// ResetWatermark clears the watermark under the import lock.
func (s *ClippingsImportService) ResetWatermark(ctx context.Context) error {
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.store.ResetWatermark(ctx); err != nil {
		return fmt.Errorf("failed to reset watermark: %w", err)
	}
	log.Printf("[IMPORT] Watermark reset")
	return nil
}

func (s *ClippingsImportService) importer() *importers.Importer {
	return importers.NewImporter(s.store,
		importers.WithClock(s.clock),
		importers.WithStrictTimestamps(s.strict),
	)
}

func (s *ClippingsImportService) run(ctx context.Context, source entities.ImportSource, origin string, load func() (string, error)) (ImportReport, error) {
	var report ImportReport

	unlock, err := s.lock()
	if err != nil {
		return report, err
	}
	defer unlock()

	run, err := s.runs.Start(ctx, source, origin)
	if err != nil {
		return report, fmt.Errorf("failed to record import run: %w", err)
	}
	report.RunID = run.RunID

	log.Printf("[IMPORT] Run %s started (source=%s, origin=%s)", run.RunID, source, origin)
	started := time.Now()

	var result importers.Result
	text, runErr := load()
	if runErr == nil {
		result, runErr = s.importer().Run(ctx, text)
	}
	report.Result = result

	// Record the outcome even when ctx was cancelled mid-run.
	if err := s.runs.Complete(context.WithoutCancel(ctx), run, result, runErr); err != nil {
		log.Printf("[IMPORT] Failed to record outcome of run %s: %v", run.RunID, err)
	}

	if runErr != nil {
		log.Printf("[IMPORT] Run %s failed after %s: %v", run.RunID, time.Since(started).Round(time.Millisecond), runErr)
		return report, runErr
	}

	log.Printf("[IMPORT] Run %s completed in %s: parsed=%d skipped=%d filtered=%d created=%d existing=%d failed=%d format_errors=%d watermark=%s",
		run.RunID, time.Since(started).Round(time.Millisecond),
		result.Parsed, result.Skipped, result.Filtered,
		result.HighlightsCreated, result.HighlightsExisting, result.Failed,
		len(result.FormatErrors), result.Watermark)

	return report, nil
}

// lock takes the cross-process import lock without blocking.
func (s *ClippingsImportService) lock() (func(), error) {
	if s.lockPath == "" {
		return func() {}, nil
	}

	fileLock := flock.New(s.lockPath)
	ok, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire import lock: %w", err)
	}
	if !ok {
		return nil, ErrImportInProgress
	}

	return func() {
		if err := fileLock.Unlock(); err != nil {
			log.Printf("[IMPORT] Failed to release import lock: %v", err)
		}
	}, nil
}
