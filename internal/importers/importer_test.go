package importers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/clippings/internal/clippings"
)

type memoryBook struct {
	id     uint
	title  string
	author string
}

type memoryHighlight struct {
	id     uint
	bookID uint
	entry  clippings.Entry
}

// memoryStore is an in-memory Store with the same natural keys as the database.
type memoryStore struct {
	watermark    string
	hasWatermark bool

	books      []memoryBook
	highlights []memoryHighlight

	getWatermarkErr error
	setWatermarkErr error
	failBook        map[string]error

	bookCalls      int
	highlightCalls int
	onHighlight    func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{failBook: map[string]error{}}
}

func (s *memoryStore) GetWatermark(ctx context.Context) (string, bool, error) {
	if s.getWatermarkErr != nil {
		return "", false, s.getWatermarkErr
	}
	return s.watermark, s.hasWatermark, nil
}

func (s *memoryStore) SetWatermark(ctx context.Context, watermark string) error {
	if s.setWatermarkErr != nil {
		return s.setWatermarkErr
	}
	s.watermark = watermark
	s.hasWatermark = true
	return nil
}

func (s *memoryStore) UpsertBook(ctx context.Context, title, author string) (uint, error) {
	s.bookCalls++
	if err := s.failBook[title]; err != nil {
		return 0, err
	}
	for _, b := range s.books {
		if b.title == title && b.author == author {
			return b.id, nil
		}
	}
	id := uint(len(s.books) + 1)
	s.books = append(s.books, memoryBook{id: id, title: title, author: author})
	return id, nil
}

func (s *memoryStore) UpsertHighlight(ctx context.Context, bookID uint, entry clippings.Entry) (uint, bool, error) {
	s.highlightCalls++
	if s.onHighlight != nil {
		s.onHighlight()
	}
	for _, h := range s.highlights {
		if h.bookID == bookID && h.entry.Location == entry.Location {
			return h.id, false, nil
		}
	}
	id := uint(len(s.highlights) + 1)
	s.highlights = append(s.highlights, memoryHighlight{id: id, bookID: bookID, entry: entry})
	return id, true, nil
}

const exportText = `Churchill (Roberts, Andrew)
- Your Highlight on page 285 | Location 6982-6984 | Added on Sunday, November 10, 2024 11:21:35 AM

Churchill asked him to sit down.
==========
Churchill (Roberts, Andrew)
- Your Highlight on page 12 | Location 300-301 | Added on Saturday, November 9, 2024 9:00:00 PM

The war had begun.
==========
Dune (Herbert, Frank)
- Your Note | Location 10-11

Fear is the mind-killer.
==========
Dune (Herbert, Frank)
- Your Bookmark on page 3 | Location 40 | Added on Friday, November 8, 2024 8:00:00 AM


==========
`

func fixedClock(ts string) func() time.Time {
	return func() time.Time {
		t, err := time.ParseInLocation(clippings.TimestampLayout, ts, time.Local)
		if err != nil {
			panic(err)
		}
		return t
	}
}

func TestRun_FirstImport(t *testing.T) {
	store := newMemoryStore()
	importer := NewImporter(store, WithClock(fixedClock("2024-11-11T08:00:00")))

	result, err := importer.Run(context.Background(), exportText)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Parsed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Filtered)
	assert.Equal(t, 3, result.HighlightsCreated)
	assert.Equal(t, 0, result.HighlightsExisting)
	assert.Equal(t, "", result.PreviousWatermark)
	assert.Equal(t, "2024-11-11T08:00:00", result.Watermark)

	assert.Len(t, store.books, 2)
	assert.Len(t, store.highlights, 3)
	assert.Equal(t, "2024-11-11T08:00:00", store.watermark)
	assert.Equal(t, "6982-6984", store.highlights[0].entry.Location)
	assert.Equal(t, "300-301", store.highlights[1].entry.Location)
}

func TestRun_IdempotentReimport(t *testing.T) {
	store := newMemoryStore()

	_, err := NewImporter(store, WithClock(fixedClock("2024-11-11T08:00:00"))).Run(context.Background(), exportText)
	require.NoError(t, err)
	books := append([]memoryBook(nil), store.books...)
	highlights := append([]memoryHighlight(nil), store.highlights...)

	// Drop the watermark so every entry is resubmitted.
	store.hasWatermark = false
	store.watermark = ""

	result, err := NewImporter(store, WithClock(fixedClock("2024-11-12T08:00:00"))).Run(context.Background(), exportText)
	require.NoError(t, err)

	assert.Equal(t, 0, result.HighlightsCreated)
	assert.Equal(t, 3, result.HighlightsExisting)
	assert.Equal(t, books, store.books)
	assert.Equal(t, highlights, store.highlights)
}

func TestRun_WatermarkFilter(t *testing.T) {
	text := `Book (Author)
- Your Highlight | Location 1-2 | Added on Saturday, November 9, 2024 11:59:59 PM

Before the watermark.
==========
Book (Author)
- Your Highlight | Location 3-4 | Added on Sunday, November 10, 2024 12:00:01 AM

After the watermark.
==========
Book (Author)
- Your Highlight | Location 5-6

No timestamp.
==========
`
	store := newMemoryStore()
	store.watermark = "2024-11-10T00:00:00"
	store.hasWatermark = true

	result, err := NewImporter(store, WithClock(fixedClock("2024-11-11T00:00:00"))).Run(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Parsed)
	assert.Equal(t, 1, result.Filtered)
	assert.Equal(t, 2, result.HighlightsCreated)
	assert.Equal(t, "2024-11-10T00:00:00", result.PreviousWatermark)

	require.Len(t, store.highlights, 2)
	assert.Equal(t, "3-4", store.highlights[0].entry.Location)
	assert.Equal(t, "5-6", store.highlights[1].entry.Location)
}

func TestRun_EntryFailureDoesNotAbort(t *testing.T) {
	store := newMemoryStore()
	store.failBook["Churchill"] = errors.New("disk I/O error")

	result, err := NewImporter(store, WithClock(fixedClock("2024-11-11T08:00:00"))).Run(context.Background(), exportText)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 1, result.HighlightsCreated)
	require.Len(t, result.EntryErrors, 2)
	assert.Equal(t, "Churchill", result.EntryErrors[0].BookTitle)
	assert.Equal(t, "6982-6984", result.EntryErrors[0].Location)
	assert.ErrorContains(t, result.EntryErrors[0], "disk I/O error")

	// Per-entry failures still advance the watermark.
	assert.Equal(t, "2024-11-11T08:00:00", store.watermark)
}

func TestRun_WatermarkReadFailure(t *testing.T) {
	store := newMemoryStore()
	store.getWatermarkErr = errors.New("database is locked")

	_, err := NewImporter(store).Run(context.Background(), exportText)
	require.Error(t, err)

	assert.Equal(t, 0, store.bookCalls)
	assert.False(t, store.hasWatermark)
}

func TestRun_WatermarkWriteFailure(t *testing.T) {
	store := newMemoryStore()
	store.setWatermarkErr = errors.New("read-only database")

	result, err := NewImporter(store).Run(context.Background(), exportText)
	require.Error(t, err)

	assert.Equal(t, "", result.Watermark)
	assert.False(t, store.hasWatermark)
}

func TestRun_CancelledContextLeavesWatermark(t *testing.T) {
	store := newMemoryStore()
	store.watermark = "2024-01-01T00:00:00"
	store.hasWatermark = true

	ctx, cancel := context.WithCancel(context.Background())
	store.onHighlight = cancel

	_, err := NewImporter(store).Run(ctx, exportText)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 1, store.highlightCalls)
	assert.Equal(t, "2024-01-01T00:00:00", store.watermark)
}

const badTimestampText = `Churchill (Roberts, Andrew)
- Your Highlight on page 285 | Location 6982-6984 | Added on Sunday, November 10, 2024 11:21:35 AM

Churchill asked him to sit down.
==========
Localized Book (Someone)
- Your Highlight | Location 1-2 | Added on Sonntag, 10. November 2024 11:21:35

Ein Zitat.
==========
`

func TestRun_FormatErrorsReportedPerRecord(t *testing.T) {
	store := newMemoryStore()

	result, err := NewImporter(store, WithClock(fixedClock("2024-11-11T08:00:00"))).Run(context.Background(), badTimestampText)
	require.NoError(t, err)

	assert.Equal(t, 1, result.HighlightsCreated)
	require.Len(t, result.FormatErrors, 1)
	assert.Equal(t, "Localized Book", result.FormatErrors[0].Title)
	assert.ErrorIs(t, result.FormatErrors[0], clippings.ErrTimestampFormat)
	assert.Len(t, result.ErrorMessages(), 1)
	assert.True(t, store.hasWatermark)
}

func TestRun_StrictTimestampsAbortBeforeWrites(t *testing.T) {
	store := newMemoryStore()

	result, err := NewImporter(store, WithStrictTimestamps(true)).Run(context.Background(), badTimestampText)
	require.ErrorIs(t, err, ErrStrictTimestamps)

	assert.Len(t, result.FormatErrors, 1)
	assert.Equal(t, 0, store.bookCalls)
	assert.Equal(t, 0, store.highlightCalls)
	assert.False(t, store.hasWatermark)
}

func TestRun_DuplicateLocationAcrossRuns(t *testing.T) {
	first := `Book (Author)
- Your Highlight | Location 100-101

First quote.
==========
`
	second := `Book (Author)
- Your Highlight | Location 100-101

Edited quote.
==========
`
	store := newMemoryStore()

	_, err := NewImporter(store).Run(context.Background(), first)
	require.NoError(t, err)
	result, err := NewImporter(store).Run(context.Background(), second)
	require.NoError(t, err)

	assert.Equal(t, 1, result.HighlightsExisting)
	require.Len(t, store.highlights, 1)
	assert.Equal(t, "First quote.", store.highlights[0].entry.Quote)
}

func TestDryRun_WritesNothing(t *testing.T) {
	store := newMemoryStore()
	store.watermark = "2024-11-10T00:00:00"
	store.hasWatermark = true

	result, kept, err := NewImporter(store).DryRun(context.Background(), exportText)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Parsed)
	assert.Equal(t, 1, result.Filtered)
	require.Len(t, kept, 2)
	assert.Equal(t, "6982-6984", kept[0].Location)
	assert.Equal(t, "10-11", kept[1].Location)

	assert.Equal(t, 0, store.bookCalls)
	assert.Equal(t, "2024-11-10T00:00:00", store.watermark)
}
