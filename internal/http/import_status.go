package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/clippings/internal/database"
	"github.com/mrlokans/clippings/internal/database/runs"
	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/scheduler"
	"github.com/mrlokans/clippings/internal/services"
)

const (
	defaultRunsLimit = 10
	maxRunsLimit     = 100
)

// ImportStatusController reports import state and resets the watermark.
type ImportStatusController struct {
	store    ImportStatusStore
	runs     RunHistory
	sync     SyncStatusProvider
	resetter WatermarkResetter
}

func NewImportStatusController(store ImportStatusStore, history RunHistory, sync SyncStatusProvider, resetter WatermarkResetter) *ImportStatusController {
	return &ImportStatusController{
		store:    store,
		runs:     history,
		sync:     sync,
		resetter: resetter,
	}
}

type ImportStatusResponse struct {
	Watermark  string                         `json:"watermark,omitempty"`
	Stats      database.Stats                 `json:"stats"`
	RecentRuns []entities.ImportRun           `json:"recent_runs"`
	Sync       *scheduler.ClippingsSyncStatus `json:"sync,omitempty"`
}

// ImportRunResponse is a recorded run with its stored error list decoded.
type ImportRunResponse struct {
	entities.ImportRun
	ErrorMessages []string `json:"error_messages"`
}

// Status handles GET /api/import/status?limit=N
func (c *ImportStatusController) Status(ctx *gin.Context) {
	if c.store == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not configured"})
		return
	}

	limit := defaultRunsLimit
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxRunsLimit)
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	var resp ImportStatusResponse

	watermark, _, err := c.store.GetWatermark(reqCtx)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	resp.Watermark = watermark

	resp.Stats, err = c.store.GetStats(reqCtx)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp.RecentRuns = []entities.ImportRun{}
	if c.runs != nil {
		recent, err := c.runs.Recent(reqCtx, limit)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		resp.RecentRuns = recent
	}

	if c.sync != nil {
		status := c.sync.Status()
		resp.Sync = &status
	}

	ctx.JSON(http.StatusOK, resp)
}

// GetRun handles GET /api/import/runs/:id
func (c *ImportStatusController) GetRun(ctx *gin.Context) {
	if c.runs == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "run history not configured"})
		return
	}

	run, err := c.runs.GetByRunID(ctx.Request.Context(), ctx.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	messages := runs.DecodeErrors(*run)
	if messages == nil {
		messages = []string{}
	}
	ctx.JSON(http.StatusOK, ImportRunResponse{ImportRun: *run, ErrorMessages: messages})
}

// TriggerSync handles POST /api/import/sync. The import of the configured
// export runs in the background; its outcome shows up in /api/import/status.
func (c *ImportStatusController) TriggerSync(ctx *gin.Context) {
	if c.sync == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "clippings sync not configured"})
		return
	}

	if err := c.sync.RunNow(); err != nil {
		if errors.Is(err, scheduler.ErrPathNotConfigured) {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{"success": true, "message": "sync started"})
}

// ResetWatermark handles DELETE /api/import/watermark. The next import then
// resubmits every entry; existing highlights are left as they are.
func (c *ImportStatusController) ResetWatermark(ctx *gin.Context) {
	if c.resetter == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "import service not configured"})
		return
	}

	err := c.resetter.ResetWatermark(ctx.Request.Context())
	if errors.Is(err, services.ErrImportInProgress) {
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}
