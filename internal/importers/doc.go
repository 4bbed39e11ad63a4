// Package importers runs incremental imports of a Kindle clippings export.
//
// # Architecture
//
// One run follows a fixed flow:
//
//	Store.GetWatermark → clippings.Parse → Keep (watermark filter)
//	  → for each entry: Store.UpsertBook → Store.UpsertHighlight
//	  → Store.SetWatermark(now)
//
// The export file is append-only and is re-read in full on every run. The
// watermark (completion time of the last successful run) only reduces how many
// entries are resubmitted; it does not guarantee uniqueness. Uniqueness comes
// from the Store: books are keyed on (title, author) and highlights on
// (book, location), and UpsertHighlight on an existing key is a no-op.
//
// Entries without a timestamp are always resubmitted, since they can never be
// shown to be older than the watermark.
//
// # Failure policy
//
//   - Records the parser drops (too few lines, no location, no quote) are counted
//     in Result.Skipped.
//   - Malformed "Added on" values are reported in Result.FormatErrors and the
//     record is not persisted. With WithStrictTimestamps(true) any such error
//     aborts the run before the first write instead.
//   - A failed upsert for one entry is recorded in Result.EntryErrors and the run
//     carries on with the next entry.
//   - Failing to read the watermark, a cancelled context, or failing to write the
//     watermark fail the run. The stored watermark is left as it was, so the next
//     run starts from the same point.
//
// # Example Usage
//
//	importer := importers.NewImporter(store)
//	result, err := importer.Run(ctx, text)
package importers
