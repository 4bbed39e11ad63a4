package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/clippings/internal/audit"
	"github.com/mrlokans/clippings/internal/config"
	"github.com/mrlokans/clippings/internal/database"
	"github.com/mrlokans/clippings/internal/database/runs"
	http_controllers "github.com/mrlokans/clippings/internal/http"
	"github.com/mrlokans/clippings/internal/scheduler"
	"github.com/mrlokans/clippings/internal/services"
	"github.com/mrlokans/clippings/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	if cfg.Clippings.Path == "" {
		log.Printf("WARNING: clippings path is not set. Scheduled imports are disabled. Set 'CLIPPINGS_PATH' to enable.")
	} else if _, err := os.Stat(cfg.Clippings.Path); err != nil {
		log.Printf("WARNING: clippings file %s is not readable yet: %v", cfg.Clippings.Path, err)
	}

	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill -9 can't be caught, so only SIGINT and SIGTERM are handled
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Stop background work after HTTP so no new imports get enqueued
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

// App holds the wired components of the server.
type App struct {
	Router    *gin.Engine
	DB        *database.Database
	Runs      *runs.Repository
	Service   *services.ClippingsImportService
	Tasks     *tasks.Client
	Scheduler *scheduler.ClippingsSyncScheduler

	cancel context.CancelFunc
}

// Build opens storage and wires the import service, task queue, scheduler
// and router. Background work starts under ctx.
func Build(ctx context.Context, cfg *config.Config, version string) (*App, error) {
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	runsRepo := runs.NewRepository(db.DB)
	service := services.NewClippingsImportService(db, runsRepo, services.ClippingsImportConfig{
		LockPath:         cfg.ImportLockPath(),
		ClippingsPath:    cfg.Clippings.Path,
		StrictTimestamps: cfg.Import.StrictTimestamps,
	})

	// A crash mid-import leaves its run "running"; settle those before serving.
	if n, err := runsRepo.FailStale(ctx); err != nil {
		log.Printf("Failed to settle stale import runs: %v", err)
	} else if n > 0 {
		log.Printf("Marked %d stale import runs as failed", n)
	}

	appCtx, cancel := context.WithCancel(ctx)
	app := &App{
		DB:      db,
		Runs:    runsRepo,
		Service: service,
		cancel:  cancel,
	}

	var trigger scheduler.Trigger = service
	if cfg.Tasks.Enabled {
		taskCfg := tasks.DefaultConfig()
		if cfg.Tasks.Workers > 0 {
			taskCfg.Workers = cfg.Tasks.Workers
		}
		if cfg.Tasks.ReleaseAfter > 0 {
			taskCfg.ReleaseAfter = cfg.Tasks.ReleaseAfter
		}
		if cfg.Tasks.CleanupInterval > 0 {
			taskCfg.CleanupInterval = cfg.Tasks.CleanupInterval
		}

		client, err := tasks.NewClient(cfg.Database.Path, taskCfg, service, runsRepo)
		if err != nil {
			cancel()
			db.Close()
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		go client.Start(appCtx)

		if _, err := client.EnqueueStaleRunSweep(appCtx); err != nil {
			log.Printf("Failed to enqueue stale run sweep: %v", err)
		}

		app.Tasks = client
		trigger = tasks.NewScheduledImport(client, cfg.Clippings.Path)
	} else {
		log.Printf("Task queue disabled; uploads are imported synchronously")
	}

	app.Scheduler = scheduler.NewClippingsSyncScheduler(trigger, scheduler.ClippingsSyncConfig{
		Enabled:  cfg.ImportSync.Enabled,
		Schedule: cfg.ImportSync.Schedule,
		Path:     cfg.Clippings.Path,
	})
	if err := app.Scheduler.Start(appCtx); err != nil {
		log.Printf("Failed to start clippings sync scheduler: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Database:      db,
		StatusStore:   db,
		Importer:      service,
		Resetter:      service,
		Runs:          runsRepo,
		Sync:          app.Scheduler,
		MaxUploadSize: cfg.Upload.MaxSize,
		Version:       version,
	}
	// Interface fields stay nil when the queue is off so the router can tell.
	if app.Tasks != nil {
		routerCfg.Enqueuer = app.Tasks
		routerCfg.TaskStatus = app.Tasks
	}
	if cfg.Upload.ArchiveDir != "" {
		routerCfg.Archive = audit.NewArchiver(cfg.Upload.ArchiveDir)
	}
	app.Router = http_controllers.NewRouter(routerCfg)

	return app, nil
}

// Shutdown stops background work and closes storage.
func (a *App) Shutdown(ctx context.Context) {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Tasks != nil {
		a.Tasks.Stop(ctx)
		if err := a.Tasks.Close(); err != nil {
			log.Printf("Failed to close task queue: %v", err)
		}
	}
	a.cancel()
	if err := a.DB.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
}

func Run(cfg *config.Config, version string) {
	app, err := Build(context.Background(), cfg, version)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	Serve(app.Router, cfg, app.Shutdown)
}
