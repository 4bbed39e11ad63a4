package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Trigger starts one import. It is implemented by the import service (inline)
// and by tasks.ScheduledImport (through the task queue).
type Trigger interface {
	TriggerImport(ctx context.Context) error
}

// ClippingsSyncConfig controls periodic re-import of the clippings export.
type ClippingsSyncConfig struct {
	Enabled  bool
	Schedule string
	Path     string
}

// ClippingsSyncStatus is the outcome of the last scheduled run.
type ClippingsSyncStatus struct {
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	Running   bool       `json:"running"`
}

// ClippingsSyncScheduler re-imports the append-only export on a cron schedule.
type ClippingsSyncScheduler struct {
	trigger Trigger
	config  ClippingsSyncConfig

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	runCtx     context.Context
	cancelFunc context.CancelFunc

	lastRun   *time.Time
	lastError string
}

// NewClippingsSyncScheduler creates a new scheduler instance
func NewClippingsSyncScheduler(trigger Trigger, config ClippingsSyncConfig) *ClippingsSyncScheduler {
	if config.Schedule == "" {
		config.Schedule = DefaultSchedule
	}
	return &ClippingsSyncScheduler{
		trigger: trigger,
		config:  config,
		cron:    cron.New(cron.WithParser(parser)),
	}
}

// Start begins the scheduler if sync is enabled
func (s *ClippingsSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("[SCHEDULER] Clippings sync: disabled")
		return nil
	}

	if s.config.Path == "" {
		log.Printf("[SCHEDULER] Clippings sync: clippings path not configured, skipping")
		return nil
	}

	if err := ValidateCronSchedule(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.entryID = entryID

	s.runCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := NextRunTime(s.config.Schedule, time.Now())
	log.Printf("[SCHEDULER] Clippings sync: started with schedule '%s' (%s) for %s. Next run: %v",
		s.config.Schedule,
		GetCronDescription(s.config.Schedule),
		s.config.Path,
		nextRun)

	runCtx := s.runCtx
	go func() {
		<-runCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for a running sync to finish.
func (s *ClippingsSyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	entryID := s.entryID
	s.mu.Unlock()

	// A running job takes s.mu when it finishes, so wait without holding it.
	ctx := s.cron.Stop()
	if cancel != nil {
		cancel()
	}
	<-ctx.Done()
	s.cron.Remove(entryID)

	log.Printf("[SCHEDULER] Clippings sync: stopped")
}

// ErrPathNotConfigured is returned by RunNow when there is no export to sync.
var ErrPathNotConfigured = errors.New("clippings path not configured")

// RunNow triggers an immediate sync in the background. It works whether or
// not the cron schedule is enabled.
func (s *ClippingsSyncScheduler) RunNow() error {
	if s.config.Path == "" {
		return ErrPathNotConfigured
	}
	go s.runSync()
	return nil
}

// IsRunning returns whether the scheduler is active
func (s *ClippingsSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Status reports the last scheduled run and the next one.
func (s *ClippingsSyncScheduler) Status() ClippingsSyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := ClippingsSyncStatus{
		LastRun:   s.lastRun,
		LastError: s.lastError,
		Running:   s.isRunning,
	}
	if s.isRunning {
		for _, entry := range s.cron.Entries() {
			if entry.ID == s.entryID {
				next := entry.Next
				status.NextRun = &next
			}
		}
	}
	return status
}

func (s *ClippingsSyncScheduler) runSync() {
	s.mu.RLock()
	ctx := s.runCtx
	s.mu.RUnlock()
	if ctx == nil {
		ctx = context.Background()
	}

	log.Printf("[SCHEDULER] Clippings sync: starting import of %s", s.config.Path)
	err := s.trigger.TriggerImport(ctx)

	now := time.Now()
	s.mu.Lock()
	s.lastRun = &now
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()

	switch {
	case err == nil:
		log.Printf("[SCHEDULER] Clippings sync: done")
	case errors.Is(err, context.Canceled):
		log.Printf("[SCHEDULER] Clippings sync: cancelled")
	default:
		log.Printf("[SCHEDULER] Clippings sync: failed: %v", err)
	}
}
