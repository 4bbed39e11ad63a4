package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Clippings
		Import
		ImportSync
		Tasks
		Upload
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Clippings struct {
		Path string // "My Clippings.txt" re-imported by the scheduler and the CLI default
	}
	Import struct {
		StrictTimestamps bool   // Abort a run on any malformed "Added on" value
		LockPath         string // Cross-process import lock; defaults to <database>.lock
	}
	ImportSync struct {
		Enabled  bool
		Schedule string // Cron format: "0 * * * *" = hourly
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Upload struct {
		MaxSize    int64  // Bytes
		ArchiveDir string // Keep a copy of every upload here; empty disables
	}
)

// ImportLockPath returns the configured lock path or one next to the database.
func (c *Config) ImportLockPath() string {
	if c.Import.LockPath != "" {
		return c.Import.LockPath
	}
	return c.Database.Path + ".lock"
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("clippings_path", DefaultClippingsPath)

	// Import defaults
	v.SetDefault("import_strict_timestamps", false)
	v.SetDefault("import_lock_path", "")
	v.SetDefault("import_sync_enabled", false)
	v.SetDefault("import_sync_schedule", "0 * * * *") // Hourly at :00

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("max_upload_size", DefaultMaxUploadSize)
	v.SetDefault("upload_archive_dir", "")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Clippings: Clippings{
			Path: v.GetString("CLIPPINGS_PATH"),
		},
		Import: Import{
			StrictTimestamps: v.GetBool("IMPORT_STRICT_TIMESTAMPS"),
			LockPath:         v.GetString("IMPORT_LOCK_PATH"),
		},
		ImportSync: ImportSync{
			Enabled:  v.GetBool("IMPORT_SYNC_ENABLED"),
			Schedule: v.GetString("IMPORT_SYNC_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Upload: Upload{
			MaxSize:    v.GetInt64("MAX_UPLOAD_SIZE"),
			ArchiveDir: v.GetString("UPLOAD_ARCHIVE_DIR"),
		},
	}
}
