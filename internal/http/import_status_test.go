package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/clippings/internal/database"
	"github.com/mrlokans/clippings/internal/database/runs"
	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/scheduler"
	"github.com/mrlokans/clippings/internal/services"
)

type testServer struct {
	db      *database.Database
	runs    *runs.Repository
	service *services.ClippingsImportService
	router  *gin.Engine
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	db, err := database.Open(filepath.Join(dir, "server.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runsRepo := runs.NewRepository(db.DB)
	service := services.NewClippingsImportService(db, runsRepo, services.ClippingsImportConfig{
		LockPath: filepath.Join(dir, "import.lock"),
	})

	router := NewRouter(RouterConfig{
		Database:    db,
		StatusStore: db,
		Importer:    service,
		Resetter:    service,
		Runs:        runsRepo,
		Version:     "test",
	})

	return &testServer{db: db, runs: runsRepo, service: service, router: router}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestRouter_UploadThenStatus(t *testing.T) {
	srv := setupServer(t)

	w := srv.do(newUploadRequest(t, "clippings_file", "My Clippings.txt", []byte(uploadExport)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var upload ClippingsImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &upload))
	assert.Equal(t, 1, upload.HighlightsCreated)

	// Same upload again: filtered by the watermark, nothing new.
	w = srv.do(newUploadRequest(t, "clippings_file", "My Clippings.txt", []byte(uploadExport)))
	require.Equal(t, http.StatusOK, w.Code)
	var again ClippingsImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &again))
	assert.Equal(t, 0, again.HighlightsCreated)
	assert.Equal(t, 1, again.EntriesFiltered)

	w = srv.do(httptest.NewRequest(http.MethodGet, "/api/import/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var status ImportStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, again.Watermark, status.Watermark)
	assert.Equal(t, database.Stats{Books: 1, Highlights: 1}, status.Stats)
	require.Len(t, status.RecentRuns, 2)
	assert.Equal(t, entities.ImportStatusCompleted, status.RecentRuns[0].Status)
	assert.Nil(t, status.Sync)

	w = srv.do(httptest.NewRequest(http.MethodGet, "/api/import/runs/"+upload.RunID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var run entities.ImportRun
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, upload.RunID, run.RunID)
	assert.Equal(t, "My Clippings.txt", run.Origin)
}

func TestRouter_RunReportsErrors(t *testing.T) {
	srv := setupServer(t)

	export := uploadExport +
		"Another Book (Someone)\n" +
		"- Your Highlight | Location 1-2 | Added on sometime last week\n" +
		"\n" +
		"A quote with a bad date.\n" +
		"==========\n"

	w := srv.do(newUploadRequest(t, "clippings_file", "My Clippings.txt", []byte(export)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var upload ClippingsImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &upload))
	assert.Equal(t, 1, upload.HighlightsCreated)
	require.Len(t, upload.Errors, 1)

	w = srv.do(httptest.NewRequest(http.MethodGet, "/api/import/runs/"+upload.RunID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var run ImportRunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, 1, run.FormatErrors)
	require.Len(t, run.ErrorMessages, 1)
	assert.Contains(t, run.ErrorMessages[0], "sometime last week")
}

func TestRouter_ResetWatermark(t *testing.T) {
	srv := setupServer(t)
	ctx := context.Background()
	require.NoError(t, srv.db.SetWatermark(ctx, "2024-11-10T00:00:00"))

	w := srv.do(httptest.NewRequest(http.MethodDelete, "/api/import/watermark", nil))
	require.Equal(t, http.StatusOK, w.Code)

	_, ok, err := srv.db.GetWatermark(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRouter_RunNotFound(t *testing.T) {
	srv := setupServer(t)

	w := srv.do(httptest.NewRequest(http.MethodGet, "/api/import/runs/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_StatusBadLimit(t *testing.T) {
	srv := setupServer(t)

	w := srv.do(httptest.NewRequest(http.MethodGet, "/api/import/status?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Health(t *testing.T) {
	srv := setupServer(t)

	w := srv.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

type fakeSync struct {
	runErr error
	runs   int
}

func (f *fakeSync) Status() scheduler.ClippingsSyncStatus {
	return scheduler.ClippingsSyncStatus{Running: true, LastError: "boom"}
}

func (f *fakeSync) RunNow() error {
	if f.runErr != nil {
		return f.runErr
	}
	f.runs++
	return nil
}

func TestImportStatus_IncludesSync(t *testing.T) {
	srv := setupServer(t)
	controller := NewImportStatusController(srv.db, srv.runs, &fakeSync{}, srv.service)

	router := gin.New()
	router.GET("/status", controller.Status)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var status ImportStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.NotNil(t, status.Sync)
	assert.True(t, status.Sync.Running)
	assert.Equal(t, "boom", status.Sync.LastError)
}

func TestImportStatus_TriggerSync(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		sync *fakeSync
		code int
		runs int
	}{
		{"started", &fakeSync{}, http.StatusAccepted, 1},
		{"no path", &fakeSync{runErr: scheduler.ErrPathNotConfigured}, http.StatusServiceUnavailable, 0},
		{"unexpected error", &fakeSync{runErr: errors.New("boom")}, http.StatusInternalServerError, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/api/import/sync", NewImportStatusController(nil, nil, tt.sync, nil).TriggerSync)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/import/sync", nil))

			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Equal(t, tt.runs, tt.sync.runs)
		})
	}
}

func TestRouter_TriggerSyncWithoutScheduler(t *testing.T) {
	srv := setupServer(t)

	w := srv.do(httptest.NewRequest(http.MethodPost, "/api/import/sync", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

type fakeTaskStatus struct {
	status backlite.TaskStatus
}

func (f fakeTaskStatus) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return f.status, nil
}

func TestTasksController_GetTaskStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		status backlite.TaskStatus
		code   int
		want   string
	}{
		{backlite.TaskStatusPending, http.StatusOK, "pending"},
		{backlite.TaskStatusSuccess, http.StatusOK, "success"},
		{backlite.TaskStatusNotFound, http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			router := gin.New()
			router.GET("/api/tasks/:id", NewTasksController(fakeTaskStatus{status: tt.status}).GetTaskStatus)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks/abc", nil))

			assert.Equal(t, tt.code, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body["status"])
			assert.Equal(t, "abc", body["id"])
		})
	}
}
