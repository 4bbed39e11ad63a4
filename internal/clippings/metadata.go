package clippings

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultKind is used when the metadata line has no "Your <word>" marker.
const DefaultKind = "Unknown"

const (
	// AddedOnLayout is the only accepted layout for "Added on" values, e.g.
	// "Sunday, November 10, 2024 11:21:35 AM".
	AddedOnLayout = "Monday, January 2, 2006 3:04:05 PM"

	// TimestampLayout is the ISO-8601 form entries and the import watermark use.
	// Values in this layout compare correctly as plain strings.
	TimestampLayout = "2006-01-02T15:04:05"
)

// Metadata is the tokenized second line of a record. Each field is matched
// independently; any subset may be present.
type Metadata struct {
	Kind     string
	Page     *int
	Location string  // empty when absent
	AddedAt  *string // raw text after "Added on", nil when absent
}

var (
	// "- Your Highlight on page 285 | Location 6982-6984 | Added on Sunday, November 10, 2024 11:21:35 AM"
	kindPattern     = regexp.MustCompile(`^Your ([\p{L}\p{N}_]+)`)
	pagePattern     = regexp.MustCompile(`on page (\d+)`)
	locationPattern = regexp.MustCompile(`Location (\d+-\d+)`)
	addedOnPattern  = regexp.MustCompile(`Added on (.+)$`)

	// "Churchill (Roberts, Andrew)"; the last parenthesized group is the author
	titleAuthorPattern = regexp.MustCompile(`^(.*)\s*\((.*?)\)\s*$`)
)

// ParseMetadata tokenizes a record's metadata line.
func ParseMetadata(line string) Metadata {
	line = stripBullet(line)

	meta := Metadata{Kind: DefaultKind}

	if m := kindPattern.FindStringSubmatch(line); m != nil {
		meta.Kind = m[1]
	}

	if m := pagePattern.FindStringSubmatch(line); m != nil {
		if page, err := strconv.Atoi(m[1]); err == nil {
			meta.Page = &page
		}
	}

	if m := locationPattern.FindStringSubmatch(line); m != nil {
		meta.Location = m[1]
	}

	if m := addedOnPattern.FindStringSubmatch(line); m != nil {
		raw := strings.TrimSpace(m[1])
		meta.AddedAt = &raw
	}

	return meta
}

// ParseTitleLine splits "Title (Author)" into its parts. Lines without a
// trailing parenthesized author yield the whole trimmed line as the title.
func ParseTitleLine(line string) (title, author string) {
	line = strings.TrimSpace(strings.ReplaceAll(line, bom, ""))
	if m := titleAuthorPattern.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return line, ""
}

// ConvertAddedOn converts an "Added on" value to TimestampLayout.
func ConvertAddedOn(value string) (string, error) {
	t, err := time.Parse(AddedOnLayout, value)
	if err != nil {
		return "", err
	}
	return t.Format(TimestampLayout), nil
}

func stripBullet(line string) string {
	line = strings.TrimLeft(line, "* ")
	line = strings.TrimLeft(line, "- ")
	return strings.TrimSpace(line)
}
