package record

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Archive keeps copies of accepted receipt photos so they can be
// re-delivered later.
type Archive interface {
	// Save stores a file and returns the archive-relative path.
	Save(filename string, data []byte) (string, error)

	// Get retrieves a previously saved file.
	Get(path string) ([]byte, error)

	// Delete removes a file.
	Delete(path string) error
}

// DirArchive implements Archive on a local directory.
type DirArchive struct {
	basePath string
}

// NewDirArchive creates the directory if needed.
func NewDirArchive(basePath string) (*DirArchive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return &DirArchive{basePath: basePath}, nil
}

// Save writes the file under a sanitized name.
func (a *DirArchive) Save(filename string, data []byte) (string, error) {
	name := sanitizeFilename(filename)
	if err := os.WriteFile(filepath.Join(a.basePath, name), data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return name, nil
}

// Get reads a file back.
func (a *DirArchive) Get(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(a.basePath, path))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a file.
func (a *DirArchive) Delete(path string) error {
	if err := os.Remove(filepath.Join(a.basePath, path)); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	multiSpace  = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up phone-generated filenames: special
// characters stripped, whitespace collapsed, base truncated to 50 chars.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeChars.ReplaceAllString(base, "")
	base = multiSpace.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "photo"
	}
	return base + ext
}
