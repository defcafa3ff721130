// Package pathmap aliases absolute paths under the user's home directory to
// their ~/ form for transmission to the client, and resolves them back on
// input. Paths outside home pass through unchanged.
package pathmap

import (
	"os"
	"path/filepath"
	"strings"
)

// Mapper aliases and resolves paths against one home directory.
type Mapper struct {
	home string
}

// New creates a mapper for the current user's home directory. When the home
// directory cannot be determined, the mapper degrades to identity in both
// directions.
func New() *Mapper {
	home, err := os.UserHomeDir()
	if err != nil {
		return &Mapper{}
	}
	return &Mapper{home: filepath.Clean(home)}
}

// NewWithHome creates a mapper rooted at an explicit home directory.
func NewWithHome(home string) *Mapper {
	return &Mapper{home: filepath.Clean(home)}
}

// Alias converts an absolute path under home to ~/ form.
func (m *Mapper) Alias(path string) string {
	if m.home == "" || path == "" {
		return path
	}
	if path == m.home {
		return "~"
	}
	prefix := m.home + string(os.PathSeparator)
	if strings.HasPrefix(path, prefix) {
		return "~/" + filepath.ToSlash(path[len(prefix):])
	}
	return path
}

// Resolve converts a ~/ path back to its absolute form. Absolute paths and
// paths with no alias pass through unchanged.
func (m *Mapper) Resolve(path string) string {
	if m.home == "" || path == "" {
		return path
	}
	if path == "~" {
		return m.home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(m.home, filepath.FromSlash(path[2:]))
	}
	return path
}
