// Package archive creates package archives with 7-Zip and checks their contents.
package archive

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/rprichard/winpty-ship/internal/runner"
)

// SevenZip drives the 7z command-line archiver.
type SevenZip struct {
	runner runner.Runner
	path   string
}

// NewSevenZip returns a SevenZip running the executable at path.
func NewSevenZip(r runner.Runner, path string) *SevenZip {
	return &SevenZip{runner: r, path: path}
}

// Create writes dest from the contents of rootDir. Members are stored
// relative to rootDir. If 7z fails, a partially written dest is removed.
func (z *SevenZip) Create(ctx context.Context, dest, rootDir string) error {
	err := z.runner.Run(ctx, runner.Command(rootDir, z.path, "a", dest, "."))
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("archive %s: %w", dest, err)
	}
	return nil
}

// Members returns the sorted member names of the zip file at path.
// Directory members keep their trailing slash.
func Members(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, strings.ReplaceAll(f.Name, `\`, "/"))
	}
	slices.Sort(names)
	return names, nil
}

// IncompleteError reports an archive lacking a required top-level entry.
type IncompleteError struct {
	Path    string
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("archive %s is missing %s", e.Path, strings.Join(e.Missing, ", "))
}

// Verify checks that every name in required appears as a top-level
// member (file or directory) of the zip file at path.
func Verify(path string, required []string) error {
	names, err := Members(path)
	if err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	top := make(map[string]bool)
	for _, n := range names {
		first, _, _ := strings.Cut(n, "/")
		top[first] = true
	}
	var missing []string
	for _, r := range required {
		if !top[r] {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return &IncompleteError{Path: path, Missing: missing}
	}
	return nil
}
