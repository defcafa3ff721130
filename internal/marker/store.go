package marker

import (
	"strings"
	"sync"
)

// Store owns the session's marker sets and the active-set selection. It is
// created once per session, mutated by handler calls for the session's life,
// and persisted only at clean shutdown. A mutex serializes access so the
// observable behavior matches a single control thread: every operation is
// immediate and atomic, and racing publishes are last-write-wins.
type Store struct {
	paths PathMapper

	mu     sync.Mutex
	active string
	sets   []Set
}

// NewStore creates an empty store. Paths entering through Publish or
// LoadSnapshot are resolved through paths; paths leaving through StateView
// are aliased back.
func NewStore(paths PathMapper) *Store {
	return &Store{paths: paths}
}

// Clear removes all sets and blanks the active selection.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = ""
	s.sets = nil
}

// SetActive selects the set named name. Unknown names leave the selection
// unchanged; this is deliberately tolerant of stale names from the client.
// The returned bool reports whether the selection now points at name.
func (s *Store) SetActive(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, set := range s.sets {
		if set.Name == name {
			s.active = name
			return true
		}
	}
	return false
}

// Publish upserts a complete set and makes it active. An existing set with
// the same name is replaced in place, keeping its position in store order;
// a new name is appended at the end. This is the sole way producers hand
// marker data to the session.
func (s *Store) Publish(set Set) {
	set = s.resolved(set)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsert(set)
	s.active = set.Name
}

// upsert replaces the entry with set's name, preserving its index, or
// appends. Callers hold s.mu.
func (s *Store) upsert(set Set) {
	for i := range s.sets {
		if s.sets[i].Name == set.Name {
			s.sets[i] = set
			return
		}
	}
	s.sets = append(s.sets, set)
}

// ClearActive removes the currently active set, if it resolves, and then
// selects the last remaining set in insertion order. Closing the current
// view reveals whatever was shown before it, like a tab stack. Returns the
// name of the removed set, or "" when the active name did not resolve.
func (s *Store) ClearActive() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed string
	for i := range s.sets {
		if s.sets[i].Name == s.active {
			removed = s.active
			s.sets = append(s.sets[:i], s.sets[i+1:]...)
			break
		}
	}
	s.active = ""
	if len(s.sets) > 0 {
		s.active = s.sets[len(s.sets)-1].Name
	}
	return removed
}

// ActiveName returns the current active-set name, or "" when none.
func (s *Store) ActiveName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Names returns every set name in store order.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.sets))
	for i, set := range s.sets {
		names[i] = set.Name
	}
	return names
}

// Get returns a copy of the named set.
func (s *Store) Get(name string) (Set, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, set := range s.sets {
		if set.Name == name {
			return copySet(set), true
		}
	}
	return Set{}, false
}

// All returns copies of every set in store order.
func (s *Store) All() []Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Set, len(s.sets))
	for i, set := range s.sets {
		out[i] = copySet(set)
	}
	return out
}

// StateView builds the client-facing projection of the store. An active name
// that does not resolve yields populated Names with nil Markers: the client
// can always list the available sets but only renders a genuinely resolvable
// active set.
func (s *Store) StateView() StateView {
	s.mu.Lock()
	defer s.mu.Unlock()
	var view StateView
	if len(s.sets) == 0 {
		return view
	}
	view.Names = make([]string, len(s.sets))
	for i, set := range s.sets {
		view.Names[i] = set.Name
	}
	for _, set := range s.sets {
		if set.Name == s.active {
			sv := s.setView(set)
			view.Markers = &sv
			break
		}
	}
	return view
}

// SetViewOf returns the client-facing form of the named set.
func (s *Store) SetViewOf(name string) (SetView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, set := range s.sets {
		if set.Name == name {
			return s.setView(set), true
		}
	}
	return SetView{}, false
}

// setView aliases a set for transmission. base_path is null when unset and
// carries an enforced trailing slash when present. Callers hold s.mu.
func (s *Store) setView(set Set) SetView {
	view := SetView{
		Name:    set.Name,
		Markers: make([]Marker, len(set.Markers)),
	}
	if set.BasePath != "" {
		bp := s.paths.Alias(set.BasePath)
		if !strings.HasSuffix(bp, "/") {
			bp += "/"
		}
		view.BasePath = &bp
	}
	for i, m := range set.Markers {
		m.Path = s.paths.Alias(m.Path)
		view.Markers[i] = m
	}
	return view
}

// Snapshot returns the full persisted form: every set serialized with
// resolved paths, base_path always a string (empty when unset).
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ActiveSet: s.active,
		Sets:      make([]Set, len(s.sets)),
	}
	for i, set := range s.sets {
		snap.Sets[i] = copySet(set)
	}
	return snap
}

// resolved returns set with every path run through the resolver. Resolution
// is identity for already-absolute paths.
func (s *Store) resolved(set Set) Set {
	set = copySet(set)
	if set.BasePath != "" {
		set.BasePath = s.paths.Resolve(set.BasePath)
	}
	for i := range set.Markers {
		set.Markers[i].Path = s.paths.Resolve(set.Markers[i].Path)
	}
	return set
}

// copySet deep-copies a set so store-internal data never aliases caller
// slices. Markers comes back non-nil so serialized sets always carry an
// array, never null.
func copySet(set Set) Set {
	markers := make([]Marker, len(set.Markers))
	copy(markers, set.Markers)
	set.Markers = markers
	return set
}
