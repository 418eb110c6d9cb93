// Package workspace removes generated MSVC build state from a winpty source tree.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Generated lists the build outputs and gyp-generated project files,
// relative to the top of the source tree. Entries may be glob patterns.
var Generated = []string{
	"src/Release",
	"src/.vs",
	"src/*.vcxproj",
	"src/*.vcxproj.filters",
	"src/*.sln",
	"src/*.sdf",
}

// Clean deletes everything in Generated under topDir and returns the paths
// it removed. Missing paths are not an error.
func Clean(topDir string) ([]string, error) {
	var removed []string
	for _, pattern := range Generated {
		matches, err := filepath.Glob(filepath.Join(topDir, filepath.FromSlash(pattern)))
		if err != nil {
			return removed, fmt.Errorf("clean %s: %w", pattern, err)
		}
		for _, m := range matches {
			if err := os.RemoveAll(m); err != nil {
				return removed, fmt.Errorf("clean: %w", err)
			}
			removed = append(removed, m)
		}
	}
	return removed, nil
}
