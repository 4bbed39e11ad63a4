package importers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/clippings/internal/clippings"
)

// ErrStrictTimestamps is returned when strict mode is on and the export holds
// at least one malformed "Added on" value.
var ErrStrictTimestamps = errors.New("export contains malformed timestamps")

// Importer performs watermark-driven incremental imports into a Store.
type Importer struct {
	store  Store
	now    func() time.Time
	strict bool
}

// Option configures an Importer.
type Option func(*Importer)

// WithClock replaces time.Now as the source of the new watermark.
func WithClock(now func() time.Time) Option {
	return func(i *Importer) {
		i.now = now
	}
}

// WithStrictTimestamps makes any malformed timestamp fail the whole run.
func WithStrictTimestamps(strict bool) Option {
	return func(i *Importer) {
		i.strict = strict
	}
}

func NewImporter(store Store, opts ...Option) *Importer {
	i := &Importer{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run imports every entry of text that is newer than the stored watermark and
// then advances the watermark. The returned Result is populated as far as the
// run got, even when err is non-nil.
func (i *Importer) Run(ctx context.Context, text string) (Result, error) {
	result, kept, err := i.prepare(ctx, text)
	if err != nil {
		return result, err
	}

	for _, formatErr := range result.FormatErrors {
		log.Printf("[IMPORT] %v", formatErr)
	}
	if i.strict && len(result.FormatErrors) > 0 {
		return result, fmt.Errorf("%w: %d record(s), first: %v", ErrStrictTimestamps, len(result.FormatErrors), result.FormatErrors[0])
	}

	for _, entry := range kept {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("import interrupted: %w", err)
		}

		created, err := i.submit(ctx, entry)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, fmt.Errorf("import interrupted: %w", ctxErr)
			}
			result.Failed++
			result.EntryErrors = append(result.EntryErrors, &EntryError{
				BookTitle: entry.BookTitle,
				Location:  entry.Location,
				Err:       err,
			})
			log.Printf("[IMPORT] Failed to store %q at %s: %v", entry.BookTitle, entry.Location, err)
			continue
		}
		if created {
			result.HighlightsCreated++
		} else {
			result.HighlightsExisting++
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("import interrupted: %w", err)
	}

	next := FormatWatermark(i.now())
	if err := i.store.SetWatermark(ctx, next); err != nil {
		return result, fmt.Errorf("failed to write watermark: %w", err)
	}
	result.Watermark = next

	return result, nil
}

// submit resolves the entry's book and then upserts the highlight under it.
func (i *Importer) submit(ctx context.Context, entry clippings.Entry) (bool, error) {
	bookID, err := i.store.UpsertBook(ctx, entry.BookTitle, entry.BookAuthor)
	if err != nil {
		return false, fmt.Errorf("upsert book: %w", err)
	}

	_, created, err := i.store.UpsertHighlight(ctx, bookID, entry)
	if err != nil {
		return false, fmt.Errorf("upsert highlight: %w", err)
	}
	return created, nil
}

// DryRun reads the watermark, parses and filters text exactly like Run but
// writes nothing. It returns the entries Run would submit.
func (i *Importer) DryRun(ctx context.Context, text string) (Result, []clippings.Entry, error) {
	return i.prepare(ctx, text)
}

func (i *Importer) prepare(ctx context.Context, text string) (Result, []clippings.Entry, error) {
	var result Result

	watermark, hasWatermark, err := i.store.GetWatermark(ctx)
	if err != nil {
		return result, nil, fmt.Errorf("failed to read watermark: %w", err)
	}
	result.PreviousWatermark = watermark

	parsed := clippings.Parse(text)
	result.Parsed = len(parsed.Entries)
	result.Skipped = parsed.Skipped
	result.FormatErrors = parsed.Errors

	kept := FilterEntries(parsed.Entries, watermark, hasWatermark)
	result.Filtered = len(parsed.Entries) - len(kept)

	return result, kept, nil
}
