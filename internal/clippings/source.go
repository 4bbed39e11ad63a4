package clippings

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode reads an export from r and returns it as UTF-8 text. A leading BOM
// selects UTF-8 or UTF-16 decoding and is removed; input without a BOM is
// treated as UTF-8. When maxBytes is positive, larger inputs are rejected.
func Decode(r io.Reader, maxBytes int64) (string, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read clippings: %w", err)
	}
	if maxBytes > 0 && int64(len(raw)) > maxBytes {
		return "", fmt.Errorf("clippings exceed %d bytes", maxBytes)
	}

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode clippings: %w", err)
	}
	return string(decoded), nil
}

// ReadFile reads and decodes the export at path.
func ReadFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open clippings file: %w", err)
	}
	defer file.Close()

	return Decode(file, 0)
}
