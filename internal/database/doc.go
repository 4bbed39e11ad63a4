// Package database provides the sqlite storage layer.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup, migrations, stats
//	├── store.go         # importers.Store: watermark and idempotent upserts
//	├── settings/        # Key/value settings (holds the watermark)
//	└── runs/            # Import run history
//
// # Natural keys
//
// Uniqueness is enforced by the schema, not by callers:
//
//   - books: unique (title, author)
//   - highlights: unique (book_id, location)
//
// Upserts are INSERT ... ON CONFLICT DO NOTHING followed by a lookup when no
// row was inserted, so a conflict is never reported as an error.
//
// # Usage
//
//	db, err := database.NewDatabase("./clippings.db")
//	importer := importers.NewImporter(db)
//	runsRepo := runs.NewRepository(db.DB)
package database
