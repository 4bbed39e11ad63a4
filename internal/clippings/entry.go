package clippings

import (
	"errors"
	"fmt"
)

// Entry is a single annotation parsed from a Kindle "My Clippings.txt" export.
// BookTitle, Location and Quote are always non-empty. Page and AddedAt are nil
// when the metadata line did not carry them.
type Entry struct {
	BookTitle  string
	BookAuthor string
	Kind       string
	Page       *int
	Location   string
	AddedAt    *string // ISO-8601, see TimestampLayout
	Quote      string
}

// HasAddedAt reports whether the entry carries a timestamp.
func (e Entry) HasAddedAt() bool {
	return e.AddedAt != nil
}

// Outcome is the result category of parsing one record.
type Outcome int

const (
	OutcomeProduced Outcome = iota
	OutcomeSkipped
	OutcomeFormatError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProduced:
		return "produced"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFormatError:
		return "format_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Reasons a record is dropped without an error.
const (
	SkipTooFewLines     = "too few lines"
	SkipMissingTitle    = "missing title"
	SkipMissingLocation = "missing location"
	SkipEmptyQuote      = "empty quote"
)

// RecordResult is the outcome of parsing a single delimiter-separated record.
// Entry is set only for OutcomeProduced, SkipReason only for OutcomeSkipped and
// Err only for OutcomeFormatError.
type RecordResult struct {
	Index      int
	Outcome    Outcome
	Entry      Entry
	SkipReason string
	Err        *FormatError
}

// ErrTimestampFormat is wrapped by every FormatError.
var ErrTimestampFormat = errors.New("timestamp does not match expected layout")

// FormatError reports an "Added on" value that could not be parsed.
type FormatError struct {
	Record int    // zero-based index among non-blank records
	Title  string // book title from the record's first line
	Line   string // the metadata line as it appeared in the export
	Value  string // the text following "Added on"
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("record %d (%q): invalid added-on timestamp %q: %v", e.Record, e.Title, e.Value, e.Err)
}

func (e *FormatError) Unwrap() []error {
	return []error{ErrTimestampFormat, e.Err}
}
