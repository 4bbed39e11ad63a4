package importers

import (
	"context"

	"github.com/mrlokans/clippings/internal/clippings"
)

// Store persists books, highlights and the import watermark.
//
// Implementations:
//   - database.Database (internal/database/store.go) - sqlite via gorm
type Store interface {
	// GetWatermark returns the stored watermark; ok is false before the first
	// successful run.
	GetWatermark(ctx context.Context) (watermark string, ok bool, err error)

	// SetWatermark overwrites the stored watermark.
	SetWatermark(ctx context.Context, watermark string) error

	// UpsertBook returns the ID of the book with the given title and author,
	// creating it if it does not exist.
	UpsertBook(ctx context.Context, title, author string) (uint, error)

	// UpsertHighlight stores the entry under bookID unless a highlight already
	// exists at (bookID, entry.Location). created reports whether a row was
	// inserted. A conflict is not an error.
	UpsertHighlight(ctx context.Context, bookID uint, entry clippings.Entry) (id uint, created bool, err error)
}
