// Package storage persists the session snapshot as a single JSON file.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// File reads and writes the snapshot file. The file is exclusively owned by
// this process: read once at session start, written once at clean shutdown.
type File struct {
	path string
}

// NewFile creates a store for the snapshot at path. The file does not have
// to exist; an absent file is the normal first-session state.
func NewFile(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve path: %w", err)
	}
	return &File{path: abs}, nil
}

// Path returns the absolute snapshot path.
func (f *File) Path() string {
	return f.path
}

// Load returns the raw snapshot bytes. An absent file surfaces as an error
// satisfying errors.Is(err, fs.ErrNotExist); callers treat that as "no
// persisted state".
func (f *File) Load() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", f.path, err)
	}
	return data, nil
}

// Save atomically writes the snapshot: tmp file, fsync, rename.
func (f *File) Save(data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".markerd-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
