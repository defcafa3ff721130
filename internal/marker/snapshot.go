package marker

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Snapshot is the full persisted form of the store, written only at clean
// shutdown and read back at the next session start.
type Snapshot struct {
	ActiveSet string `json:"active_set"`
	Sets      []Set  `json:"sets"`
}

// Encode renders the snapshot as formatted JSON.
func (s Snapshot) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marker: encode snapshot: %w", err)
	}
	return data, nil
}

// Raw decode shapes. Pointer fields distinguish a missing key from a zero
// value: every key below is required, and a nil pointer after unmarshal
// marks the entry malformed.
type snapshotDoc struct {
	ActiveSet *string            `json:"active_set"`
	Sets      *[]json.RawMessage `json:"sets"`
}

type setEntry struct {
	Name     *string            `json:"name"`
	BasePath *string            `json:"base_path"`
	Markers  *[]json.RawMessage `json:"markers"`
}

type markerEntry struct {
	Kind          *int    `json:"type"`
	Path          *string `json:"path"`
	Line          *int    `json:"line"`
	Column        *int    `json:"column"`
	Message       *string `json:"message"`
	ShowErrorList *bool   `json:"show_error_list"`
}

// LoadSnapshot rebuilds the store from a persisted snapshot. Decoding is a
// fold over the set entries: a malformed set or marker is skipped with a
// logged warning and the load continues. Only an unreadable top level
// (bad JSON, or a missing active_set or sets key) fails the call, and then
// the store is left untouched. On success the store contents are replaced
// wholesale; the loaded active name is kept even if no surviving set carries
// it, since readers treat an unresolvable active name as "no active set".
func (s *Store) LoadSnapshot(data []byte) error {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("marker: parse snapshot: %w", err)
	}
	if doc.ActiveSet == nil {
		return fmt.Errorf("marker: parse snapshot: missing active_set")
	}
	if doc.Sets == nil {
		return fmt.Errorf("marker: parse snapshot: missing sets")
	}

	sets := make([]Set, 0, len(*doc.Sets))
	for i, raw := range *doc.Sets {
		set, err := s.decodeSet(raw)
		if err != nil {
			slog.Warn("markers: skipping malformed set entry",
				slog.Int("index", i),
				slog.String("error", err.Error()))
			continue
		}
		sets = upsertLoaded(sets, set)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = *doc.ActiveSet
	s.sets = sets
	return nil
}

// upsertLoaded folds a decoded set into the accumulator, replacing an
// earlier entry with the same name in place. Snapshots written by this
// process never contain duplicates, but a hand-edited file must not be able
// to break the one-set-per-name invariant.
func upsertLoaded(sets []Set, set Set) []Set {
	for i := range sets {
		if sets[i].Name == set.Name {
			sets[i] = set
			return sets
		}
	}
	return append(sets, set)
}

func (s *Store) decodeSet(raw json.RawMessage) (Set, error) {
	var entry setEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Set{}, err
	}
	if entry.Name == nil {
		return Set{}, fmt.Errorf("missing name")
	}
	if entry.BasePath == nil {
		return Set{}, fmt.Errorf("missing base_path")
	}
	if entry.Markers == nil {
		return Set{}, fmt.Errorf("missing markers")
	}
	if *entry.Name == "" {
		return Set{}, fmt.Errorf("empty name")
	}

	set := Set{
		Name:    *entry.Name,
		Markers: make([]Marker, 0, len(*entry.Markers)),
	}
	if *entry.BasePath != "" {
		set.BasePath = s.paths.Resolve(*entry.BasePath)
	}
	for i, rawMarker := range *entry.Markers {
		m, err := s.decodeMarker(rawMarker)
		if err != nil {
			slog.Warn("markers: skipping malformed marker entry",
				slog.String("set", set.Name),
				slog.Int("index", i),
				slog.String("error", err.Error()))
			continue
		}
		set.Markers = append(set.Markers, m)
	}
	return set, nil
}

func (s *Store) decodeMarker(raw json.RawMessage) (Marker, error) {
	var entry markerEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Marker{}, err
	}
	switch {
	case entry.Kind == nil:
		return Marker{}, fmt.Errorf("missing type")
	case entry.Path == nil:
		return Marker{}, fmt.Errorf("missing path")
	case entry.Line == nil:
		return Marker{}, fmt.Errorf("missing line")
	case entry.Column == nil:
		return Marker{}, fmt.Errorf("missing column")
	case entry.Message == nil:
		return Marker{}, fmt.Errorf("missing message")
	case entry.ShowErrorList == nil:
		return Marker{}, fmt.Errorf("missing show_error_list")
	}
	m := Marker{
		Kind:          Kind(*entry.Kind),
		Path:          s.paths.Resolve(*entry.Path),
		Line:          max(*entry.Line, 1),
		Column:        max(*entry.Column, 1),
		Message:       *entry.Message,
		ShowErrorList: *entry.ShowErrorList,
	}
	return m, nil
}
