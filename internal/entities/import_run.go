package entities

import (
	"time"
)

type ImportStatus string

const (
	ImportStatusRunning   ImportStatus = "running"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusFailed    ImportStatus = "failed"
)

// ImportSource tells where an import run was started from.
type ImportSource string

const (
	ImportSourceCLI      ImportSource = "cli"
	ImportSourceUpload   ImportSource = "upload"
	ImportSourceSchedule ImportSource = "schedule"
)

// ImportRun is the history record of one ingestion run.
type ImportRun struct {
	ID                 uint         `gorm:"primaryKey" json:"id"`
	RunID              string       `gorm:"uniqueIndex;size:36" json:"run_id"`
	Source             ImportSource `gorm:"size:20;index" json:"source"`
	Origin             string       `gorm:"size:1024" json:"origin,omitempty"` // file path or upload name
	Status             ImportStatus `gorm:"size:20;default:'running'" json:"status"`
	PreviousWatermark  string       `gorm:"size:32" json:"previous_watermark,omitempty"`
	Watermark          string       `gorm:"size:32" json:"watermark,omitempty"`
	EntriesParsed      int          `json:"entries_parsed"`
	RecordsSkipped     int          `json:"records_skipped"`
	EntriesFiltered    int          `json:"entries_filtered"`
	HighlightsCreated  int          `json:"highlights_created"`
	HighlightsExisting int          `json:"highlights_existing"`
	EntriesFailed      int          `json:"entries_failed"`
	FormatErrors       int          `json:"format_errors"`
	Errors             string       `gorm:"type:text" json:"errors,omitempty"` // JSON array of messages
	Error              string       `gorm:"type:text" json:"error,omitempty"`  // run-level failure
	StartedAt          time.Time    `gorm:"index" json:"started_at"`
	CompletedAt        *time.Time   `json:"completed_at,omitempty"`
}

func (ImportRun) TableName() string {
	return "import_runs"
}
