package http

import (
	"github.com/mrlokans/clippings/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database    *database.Database
	StatusStore ImportStatusStore
	Importer    ClippingsImporter
	Resetter    WatermarkResetter
	Runs        RunHistory

	// Task queue; nil runs uploads synchronously
	Enqueuer   ImportEnqueuer
	TaskStatus TaskStatusReader

	// Upload archive; nil disables it
	Archive UploadArchiver

	// Scheduled re-import; nil when disabled
	Sync SyncStatusProvider

	// MaxUploadSize caps uploaded exports in bytes.
	MaxUploadSize int64

	// Application info
	Version string
}
