package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/clippings/internal/clippings"
	"github.com/mrlokans/clippings/internal/config"
	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/importers"
	"github.com/mrlokans/clippings/internal/services"
	"github.com/mrlokans/clippings/internal/tasks"
)

// ClippingsImportController accepts uploaded "My Clippings.txt" exports.
type ClippingsImportController struct {
	importer ClippingsImporter
	enqueuer ImportEnqueuer
	archive  UploadArchiver
	maxSize  int64
}

func NewClippingsImportController(importer ClippingsImporter, enqueuer ImportEnqueuer, archive UploadArchiver, maxSize int64) *ClippingsImportController {
	if maxSize <= 0 {
		maxSize = config.DefaultMaxUploadSize
	}
	return &ClippingsImportController{
		importer: importer,
		enqueuer: enqueuer,
		archive:  archive,
		maxSize:  maxSize,
	}
}

type ClippingsImportResponse struct {
	Success            bool     `json:"success"`
	Error              string   `json:"error,omitempty"`
	TaskID             string   `json:"task_id,omitempty"`
	RunID              string   `json:"run_id,omitempty"`
	Watermark          string   `json:"watermark,omitempty"`
	EntriesParsed      int      `json:"entries_parsed"`
	RecordsSkipped     int      `json:"records_skipped"`
	EntriesFiltered    int      `json:"entries_filtered"`
	HighlightsCreated  int      `json:"highlights_created"`
	HighlightsExisting int      `json:"highlights_existing"`
	EntriesFailed      int      `json:"entries_failed"`
	Errors             []string `json:"errors,omitempty"`
}

func newClippingsImportResponse(report services.ImportReport) ClippingsImportResponse {
	result := report.Result
	return ClippingsImportResponse{
		Success:            true,
		RunID:              report.RunID,
		Watermark:          result.Watermark,
		EntriesParsed:      result.Parsed,
		RecordsSkipped:     result.Skipped,
		EntriesFiltered:    result.Filtered,
		HighlightsCreated:  result.HighlightsCreated,
		HighlightsExisting: result.HighlightsExisting,
		EntriesFailed:      result.Failed,
		Errors:             result.ErrorMessages(),
	}
}

// Import handles POST /api/import/clippings with multipart field
// "clippings_file". With a task queue the import runs in the background and
// the response is 202 with the task ID; otherwise it runs inline.
func (c *ClippingsImportController) Import(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("clippings_file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ClippingsImportResponse{Error: "Clippings file not provided"})
		return
	}
	defer file.Close()

	if header.Size > c.maxSize {
		ctx.JSON(http.StatusRequestEntityTooLarge, ClippingsImportResponse{
			Error: fmt.Sprintf("File too large (max %d MB)", c.maxSize/(1024*1024)),
		})
		return
	}

	text, err := clippings.Decode(file, c.maxSize)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ClippingsImportResponse{
			Error: fmt.Sprintf("Failed to read clippings: %v", err),
		})
		return
	}

	// Archiving is best effort; the import goes ahead without it.
	if c.archive != nil {
		if _, err := c.archive.Save(header.Filename, text); err != nil {
			log.Printf("[IMPORT] Failed to archive upload %q: %v", header.Filename, err)
		}
	}

	if c.enqueuer != nil {
		taskID, err := c.enqueuer.EnqueueImport(ctx.Request.Context(), tasks.ImportClippingsTask{
			Text:   text,
			Source: entities.ImportSourceUpload,
			Origin: header.Filename,
		})
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, ClippingsImportResponse{Error: err.Error()})
			return
		}
		ctx.JSON(http.StatusAccepted, ClippingsImportResponse{Success: true, TaskID: taskID})
		return
	}

	report, err := c.importer.ImportText(ctx.Request.Context(), text, entities.ImportSourceUpload, header.Filename)
	if err != nil {
		resp := newClippingsImportResponse(report)
		resp.Success = false
		resp.Error = err.Error()
		ctx.JSON(importErrorStatus(err), resp)
		return
	}

	ctx.JSON(http.StatusOK, newClippingsImportResponse(report))
}

func importErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrImportInProgress):
		return http.StatusConflict
	case errors.Is(err, importers.ErrStrictTimestamps):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
