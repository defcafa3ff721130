package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/changsongyang/markerd/internal/index"
	"github.com/changsongyang/markerd/internal/marker"
	"github.com/changsongyang/markerd/internal/pathmap"
	"github.com/changsongyang/markerd/internal/storage"
)

// session bundles the long-lived marker state shared by the serve and MCP
// entry points: the in-memory store, its snapshot file, and the SQLite index.
type session struct {
	store *marker.Store
	file  *storage.File
	db    *index.DB
}

// openSession builds the store, restores the last snapshot from disk, and
// rebuilds the search index from the restored sets. A missing or unreadable
// snapshot starts the session empty; only index setup errors are fatal.
func openSession(cfg *Config, logger *slog.Logger) (*session, error) {
	store := marker.NewStore(pathmap.New())

	file, err := storage.NewFile(cfg.State.Path)
	if err != nil {
		return nil, fmt.Errorf("init state file: %w", err)
	}

	data, err := file.Load()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("No marker state on disk, starting empty",
			slog.String("path", file.Path()))
	case err != nil:
		logger.Warn("Failed to read marker state, starting empty",
			slog.String("path", file.Path()),
			slog.String("error", err.Error()))
	default:
		if err := store.LoadSnapshot(data); err != nil {
			logger.Error("Marker state unreadable, starting empty",
				slog.String("path", file.Path()),
				slog.String("error", err.Error()))
		}
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	if err := db.Rebuild(store.All()); err != nil {
		logger.Warn("Index rebuild failed", slog.String("error", err.Error()))
	}

	return &session{store: store, file: file, db: db}, nil
}

// saveState writes the current snapshot back to the state file. Failures
// are logged, not returned: losing the snapshot loses session markers only.
func (s *session) saveState(logger *slog.Logger) {
	data, err := s.store.Snapshot().Encode()
	if err != nil {
		logger.Error("Failed to encode marker state", slog.String("error", err.Error()))
		return
	}
	if err := s.file.Save(data); err != nil {
		logger.Error("Failed to write marker state",
			slog.String("path", s.file.Path()),
			slog.String("error", err.Error()))
		return
	}
	logger.Info("Marker state saved", slog.String("path", s.file.Path()))
}
