package importers

import (
	"fmt"

	"github.com/mrlokans/clippings/internal/clippings"
)

// EntryError records an entry whose upsert failed. The run continues past it.
type EntryError struct {
	BookTitle string
	Location  string
	Err       error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry %q at %s: %v", e.BookTitle, e.Location, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Result summarises one import run.
type Result struct {
	PreviousWatermark string // empty when there was none
	Watermark         string // new watermark; empty unless the run completed

	Parsed             int // entries produced by the parser
	Skipped            int // records the parser dropped
	Filtered           int // entries at or before the previous watermark
	HighlightsCreated  int
	HighlightsExisting int
	Failed             int

	FormatErrors []*clippings.FormatError
	EntryErrors  []*EntryError
}

// Submitted is the number of entries handed to the store.
func (r Result) Submitted() int {
	return r.HighlightsCreated + r.HighlightsExisting + r.Failed
}

// ErrorMessages flattens format and entry errors for reporting.
func (r Result) ErrorMessages() []string {
	msgs := make([]string, 0, len(r.FormatErrors)+len(r.EntryErrors))
	for _, err := range r.FormatErrors {
		msgs = append(msgs, err.Error())
	}
	for _, err := range r.EntryErrors {
		msgs = append(msgs, err.Error())
	}
	return msgs
}
