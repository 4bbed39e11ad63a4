package http

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	if cfg.MaxUploadSize > 0 {
		router.MaxMultipartMemory = cfg.MaxUploadSize
	}

	healthController := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", healthController.Status)

	api := router.Group("/api")

	importController := NewClippingsImportController(cfg.Importer, cfg.Enqueuer, cfg.Archive, cfg.MaxUploadSize)
	api.POST("/import/clippings", importController.Import)

	statusController := NewImportStatusController(cfg.StatusStore, cfg.Runs, cfg.Sync, cfg.Resetter)
	api.GET("/import/status", statusController.Status)
	api.GET("/import/runs/:id", statusController.GetRun)
	api.DELETE("/import/watermark", statusController.ResetWatermark)
	api.POST("/import/sync", statusController.TriggerSync)

	if cfg.TaskStatus != nil {
		tasksController := NewTasksController(cfg.TaskStatus)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
	}

	return router
}
