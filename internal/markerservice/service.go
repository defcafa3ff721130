// Package markerservice coordinates the marker store, the session index,
// and client change notifications. Handlers on every transport (HTTP, MCP,
// intake) drive the session through this one service instance.
package markerservice

import (
	"context"
	"log/slog"

	"github.com/changsongyang/markerd/internal/apperr"
	"github.com/changsongyang/markerd/internal/index"
	"github.com/changsongyang/markerd/internal/marker"
)

// Notifier delivers marker state change events to connected clients. A nil
// Notifier is allowed and disables delivery (stdio MCP mode, tests).
type Notifier interface {
	MarkersChanged(state marker.StateView, auto marker.AutoSelect)
}

// Service owns the session's marker state. Every mutation performs exactly
// one store operation, mirrors it into the index, and always emits a change
// notification. The store is authoritative; index failures are logged and
// never fail the mutation.
type Service struct {
	store    *marker.Store
	db       index.MarkerIndex
	notifier Notifier
}

// NewService creates the session service.
func NewService(store *marker.Store, db index.MarkerIndex, notifier Notifier) *Service {
	return &Service{store: store, db: db, notifier: notifier}
}

// TabClosed discards every marker set. Fired when the client closes the
// markers tab.
func (s *Service) TabClosed(_ context.Context) {
	s.store.Clear()
	if err := s.db.Clear(); err != nil {
		slog.Warn("markers: index clear failed", slog.String("error", err.Error()))
	}
	s.notify(marker.AutoSelectNone)
}

// SetActive selects the named set. Unknown names are a tolerated no-op; the
// returned bool reports whether the selection changed. A notification is
// emitted either way.
func (s *Service) SetActive(_ context.Context, name string) bool {
	changed := s.store.SetActive(name)
	s.notify(marker.AutoSelectNone)
	return changed
}

// ClearActive removes the active set and falls back to the most recently
// appended survivor.
func (s *Service) ClearActive(_ context.Context) {
	removed := s.store.ClearActive()
	if removed != "" {
		if err := s.db.DeleteSet(removed); err != nil {
			slog.Warn("markers: index delete failed",
				slog.String("set", removed),
				slog.String("error", err.Error()))
		}
	}
	s.notify(marker.AutoSelectNone)
}

// Publish validates and upserts a complete set, makes it active, and asks
// the client to focus its first marker. This is the producer surface shared
// by the HTTP endpoint, the intake watcher, and the MCP tools.
func (s *Service) Publish(_ context.Context, set marker.Set) error {
	if err := set.Validate(); err != nil {
		return err
	}
	s.store.Publish(set)
	s.reindex(set.Name)
	s.notify(marker.AutoSelectFirst)
	return nil
}

// State returns the client-facing projection of the session.
func (s *Service) State(_ context.Context) marker.StateView {
	return s.store.StateView()
}

// Get returns one set's client view, or apperr.ErrNotFound.
func (s *Service) Get(_ context.Context, name string) (marker.SetView, error) {
	view, ok := s.store.SetViewOf(name)
	if !ok {
		return marker.SetView{}, apperr.ErrNotFound
	}
	return view, nil
}

// Names returns every set name in store order plus the active name.
func (s *Service) Names(_ context.Context) ([]string, string) {
	return s.store.Names(), s.store.ActiveName()
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.Hit, error) {
	return s.db.Search(query, limit)
}

// ErrorList returns markers promoted to the error-list view.
func (s *Service) ErrorList(_ context.Context, limit int) ([]index.Hit, error) {
	return s.db.ErrorList(limit)
}

// Totals counts markers by kind for one set, or all sets when name is "".
func (s *Service) Totals(_ context.Context, name string) (index.Totals, error) {
	return s.db.Totals(name)
}

// reindex mirrors the stored form of one set into the index at its current
// store position.
func (s *Service) reindex(name string) {
	stored, ok := s.store.Get(name)
	if !ok {
		return
	}
	position := 0
	for i, n := range s.store.Names() {
		if n == name {
			position = i
			break
		}
	}
	if err := s.db.ReplaceSet(stored, position); err != nil {
		slog.Warn("markers: index replace failed",
			slog.String("set", name),
			slog.String("error", err.Error()))
	}
}

func (s *Service) notify(auto marker.AutoSelect) {
	if s.notifier == nil {
		return
	}
	s.notifier.MarkersChanged(s.store.StateView(), auto)
}
