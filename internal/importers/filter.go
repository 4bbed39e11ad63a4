package importers

import (
	"time"

	"github.com/mrlokans/clippings/internal/clippings"
)

// Keep reports whether an entry must be submitted given the stored watermark.
// Entries are kept when there is no watermark, when they carry no timestamp, or
// when their timestamp is strictly later than the watermark. Timestamps are
// compared as strings, which is valid for clippings.TimestampLayout.
func Keep(entry clippings.Entry, watermark string, hasWatermark bool) bool {
	if !hasWatermark || entry.AddedAt == nil {
		return true
	}
	return *entry.AddedAt > watermark
}

// FilterEntries returns the entries Keep accepts, in their original order.
func FilterEntries(entries []clippings.Entry, watermark string, hasWatermark bool) []clippings.Entry {
	kept := make([]clippings.Entry, 0, len(entries))
	for _, entry := range entries {
		if Keep(entry, watermark, hasWatermark) {
			kept = append(kept, entry)
		}
	}
	return kept
}

// FormatWatermark formats t in the layout entries use.
func FormatWatermark(t time.Time) string {
	return t.Format(clippings.TimestampLayout)
}
