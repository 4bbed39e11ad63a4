// Package clippings parses the Kindle "My Clippings.txt" export format.
//
// An export is a sequence of records separated by lines of ten '=' characters:
//
//	Churchill (Roberts, Andrew)
//	- Your Highlight on page 285 | Location 6982-6984 | Added on Sunday, November 10, 2024 11:21:35 AM
//
//	Churchill asked him to sit down.
//	==========
//
// Parsing is tolerant: records that lack a title, a location or quote text are
// dropped without an error, because real exports contain bookmark-only and
// metadata-only records. The one thing that is reported is an "Added on" value
// that does not match AddedOnLayout, so a wrong date is never stored silently.
package clippings

import (
	"strings"
)

// RecordSeparator is the line that delimits records.
const RecordSeparator = "=========="

const bom = "\ufeff"

// Result is the outcome of parsing a whole export.
type Result struct {
	Entries []Entry
	Skipped int
	Errors  []*FormatError
}

// Parse converts export text into entries, preserving source order. It is a pure
// function of its input.
func Parse(text string) Result {
	var result Result
	for _, rec := range ParseRecords(text) {
		switch rec.Outcome {
		case OutcomeProduced:
			result.Entries = append(result.Entries, rec.Entry)
		case OutcomeSkipped:
			result.Skipped++
		case OutcomeFormatError:
			result.Errors = append(result.Errors, rec.Err)
		}
	}
	return result
}

// ParseRecords parses every non-blank record and reports its individual outcome.
func ParseRecords(text string) []RecordResult {
	blocks := SplitRecords(text)
	results := make([]RecordResult, 0, len(blocks))
	for i, block := range blocks {
		results = append(results, ParseRecord(i, block))
	}
	return results
}

// SplitRecords splits export text on separator lines and returns the non-blank
// records in order. Leading byte-order marks are removed and CRLF line endings
// are accepted.
func SplitRecords(text string) []string {
	text = strings.TrimLeft(text, bom)

	var records []string
	var current []string

	flush := func() {
		block := strings.Join(current, "\n")
		if strings.TrimSpace(block) != "" {
			records = append(records, block)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == RecordSeparator {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return records
}

// ParseRecord parses a single record. index identifies the record in errors.
func ParseRecord(index int, block string) RecordResult {
	result := RecordResult{Index: index, Outcome: OutcomeSkipped}

	lines := nonBlankLines(block)
	if len(lines) < 3 {
		result.SkipReason = SkipTooFewLines
		return result
	}

	title, author := ParseTitleLine(lines[0])
	meta := ParseMetadata(lines[1])

	var addedAt *string
	if meta.AddedAt != nil {
		iso, err := ConvertAddedOn(*meta.AddedAt)
		if err != nil {
			result.Outcome = OutcomeFormatError
			result.Err = &FormatError{
				Record: index,
				Title:  title,
				Line:   strings.TrimSpace(lines[1]),
				Value:  *meta.AddedAt,
				Err:    err,
			}
			return result
		}
		addedAt = &iso
	}

	quote := joinQuote(lines[2:])

	switch {
	case title == "":
		result.SkipReason = SkipMissingTitle
		return result
	case meta.Location == "":
		result.SkipReason = SkipMissingLocation
		return result
	case quote == "":
		result.SkipReason = SkipEmptyQuote
		return result
	}

	result.Outcome = OutcomeProduced
	result.Entry = Entry{
		BookTitle:  title,
		BookAuthor: author,
		Kind:       meta.Kind,
		Page:       meta.Page,
		Location:   meta.Location,
		AddedAt:    addedAt,
		Quote:      quote,
	}
	return result
}

func nonBlankLines(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func joinQuote(lines []string) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, strings.TrimSpace(line))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
