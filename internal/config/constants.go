package config

// Default paths
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./clippings.db"

	// DefaultClippingsPath is where a mounted Kindle keeps its export.
	DefaultClippingsPath = ""

	// DefaultMaxUploadSize caps uploaded exports at 32 MiB.
	DefaultMaxUploadSize = 32 << 20
)
