package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.False(t, cfg.Import.StrictTimestamps)
	assert.False(t, cfg.ImportSync.Enabled)
	assert.Equal(t, "0 * * * *", cfg.ImportSync.Schedule)
	assert.True(t, cfg.Tasks.Enabled)
	assert.Equal(t, 1, cfg.Tasks.Workers)
	assert.Equal(t, 15*time.Minute, cfg.Tasks.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.Tasks.CleanupInterval)
	assert.Equal(t, int64(DefaultMaxUploadSize), cfg.Upload.MaxSize)
	assert.Equal(t, DefaultDatabasePath+".lock", cfg.ImportLockPath())
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_PATH", "/data/clippings.db")
	t.Setenv("CLIPPINGS_PATH", "/kindle/documents/My Clippings.txt")
	t.Setenv("IMPORT_STRICT_TIMESTAMPS", "true")
	t.Setenv("IMPORT_LOCK_PATH", "/run/clippings.lock")
	t.Setenv("IMPORT_SYNC_ENABLED", "true")
	t.Setenv("IMPORT_SYNC_SCHEDULE", "*/15 * * * *")
	t.Setenv("TASKS_ENABLED", "false")
	t.Setenv("MAX_UPLOAD_SIZE", "1024")
	t.Setenv("UPLOAD_ARCHIVE_DIR", "/data/uploads")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, "/data/clippings.db", cfg.Database.Path)
	assert.Equal(t, "/kindle/documents/My Clippings.txt", cfg.Clippings.Path)
	assert.True(t, cfg.Import.StrictTimestamps)
	assert.Equal(t, "/run/clippings.lock", cfg.ImportLockPath())
	assert.True(t, cfg.ImportSync.Enabled)
	assert.Equal(t, "*/15 * * * *", cfg.ImportSync.Schedule)
	assert.False(t, cfg.Tasks.Enabled)
	assert.Equal(t, int64(1024), cfg.Upload.MaxSize)
	assert.Equal(t, "/data/uploads", cfg.Upload.ArchiveDir)
}
