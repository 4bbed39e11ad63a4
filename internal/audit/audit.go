// Package audit keeps a copy of every uploaded clippings export so a run can
// be replayed or inspected after the fact.
package audit

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type Archiver struct {
	Dir string
	now func() time.Time
}

func NewArchiver(dir string) *Archiver {
	return &Archiver{
		Dir: dir,
		now: time.Now,
	}
}

// Save writes the decoded export text to <dir>/<date>-<uuid>-<origin>.txt and
// returns the file name.
func (a *Archiver) Save(origin, text string) (string, error) {
	if err := a.ensureDir(); err != nil {
		return "", fmt.Errorf("failed to ensure archive directory: %w", err)
	}

	filename := fmt.Sprintf("%s-%s", a.now().Format("20060102-150405"), uuid.New().String())
	if name := sanitize(origin); name != "" {
		filename += "-" + name
	}
	if filepath.Ext(filename) != ".txt" {
		filename += ".txt"
	}

	path := filepath.Join(a.Dir, filename)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}

	log.Printf("[IMPORT] Archived upload %q as %s", origin, path)
	return filename, nil
}

func (a *Archiver) ensureDir() error {
	if _, err := os.Stat(a.Dir); os.IsNotExist(err) {
		if err := os.MkdirAll(a.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create archive directory: %w", err)
		}
	}
	return nil
}

func sanitize(origin string) string {
	name := unsafeNameChars.ReplaceAllString(filepath.Base(origin), "_")
	if name == "." || name == "_" {
		return ""
	}
	if len(name) > 64 {
		name = name[len(name)-64:]
	}
	return name
}
