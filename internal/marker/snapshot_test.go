package marker

import (
	"reflect"
	"strings"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore()
	s.Publish(lintSet())
	s.Publish(namedSet("Build"))
	s.SetActive("Lint")

	data, err := s.Snapshot().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	restored := newTestStore()
	if err := restored.LoadSnapshot(data); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if got := restored.ActiveName(); got != "Lint" {
		t.Errorf("active = %q, want Lint", got)
	}
	if !reflect.DeepEqual(restored.All(), s.All()) {
		t.Errorf("restored sets differ:\n got %+v\nwant %+v", restored.All(), s.All())
	}
}

func TestSnapshotStoresResolvedPaths(t *testing.T) {
	s := newTestStore()
	s.Publish(Set{
		Name:     "Lint",
		BasePath: "~/p",
		Markers: []Marker{
			{Kind: KindError, Path: "~/p/a.c", Line: 3, Column: 1, Message: "m", ShowErrorList: true},
		},
	})
	s.Publish(Set{Name: "NoBase", Markers: []Marker{}})

	snap := s.Snapshot()
	if snap.Sets[0].BasePath != "/home/dev/p" {
		t.Errorf("base path = %q, want resolved", snap.Sets[0].BasePath)
	}
	if snap.Sets[0].Markers[0].Path != "/home/dev/p/a.c" {
		t.Errorf("marker path = %q, want resolved", snap.Sets[0].Markers[0].Path)
	}

	data, err := snap.Encode()
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)
	// base_path is always a string and markers always an array, so the file
	// reloads under the strict decoder even for empty sets.
	if !strings.Contains(body, `"base_path": ""`) {
		t.Errorf("unset base_path should serialize as empty string:\n%s", body)
	}
	if !strings.Contains(body, `"markers": []`) {
		t.Errorf("empty markers should serialize as array:\n%s", body)
	}
}

func TestEncodeEmptyStore(t *testing.T) {
	data, err := newTestStore().Snapshot().Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"sets": []`) {
		t.Errorf("empty store should serialize sets as array:\n%s", data)
	}
}

func TestLoadSnapshotResolvesAliasedPaths(t *testing.T) {
	// Snapshots from older sessions carry ~/ paths; loading resolves them.
	data := []byte(`{
		"active_set": "Lint",
		"sets": [
			{
				"name": "Lint",
				"base_path": "~/p/",
				"markers": [
					{"type": 0, "path": "~/p/a.c", "line": 3, "column": 1, "message": "m", "show_error_list": true}
				]
			}
		]
	}`)

	s := newTestStore()
	if err := s.LoadSnapshot(data); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	got, ok := s.Get("Lint")
	if !ok {
		t.Fatal("Lint not loaded")
	}
	if got.BasePath != "/home/dev/p" {
		t.Errorf("base path = %q, want resolved", got.BasePath)
	}
	if got.Markers[0].Path != "/home/dev/p/a.c" {
		t.Errorf("marker path = %q, want resolved", got.Markers[0].Path)
	}
}

func TestLoadSnapshotStructuralErrorLeavesStoreUntouched(t *testing.T) {
	s := newTestStore()
	s.Publish(lintSet())

	for _, bad := range []string{
		`not json`,
		`[]`,
		`{}`,
		`{"sets": []}`,
		`{"active_set": "x"}`,
	} {
		if err := s.LoadSnapshot([]byte(bad)); err == nil {
			t.Errorf("LoadSnapshot(%q) should fail", bad)
		}
	}

	if got := s.ActiveName(); got != "Lint" {
		t.Errorf("active = %q, store should be untouched", got)
	}
	if len(s.Names()) != 1 {
		t.Errorf("names = %v, store should be untouched", s.Names())
	}
}

func TestLoadSnapshotSkipsMalformedEntries(t *testing.T) {
	data := []byte(`{
		"active_set": "Good",
		"sets": [
			{"name": "Good", "base_path": "", "markers": [
				{"type": 1, "path": "/tmp/a.c", "line": 2, "column": 1, "message": "ok", "show_error_list": false},
				{"type": 0, "path": "/tmp/b.c", "line": 5, "column": 2, "show_error_list": true}
			]},
			{"name": "NoMarkersKey", "base_path": ""},
			{"name": "", "base_path": "", "markers": []},
			"not an object",
			{"name": "AlsoGood", "base_path": "", "markers": []}
		]
	}`)

	s := newTestStore()
	if err := s.LoadSnapshot(data); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	names := s.Names()
	if len(names) != 2 || names[0] != "Good" || names[1] != "AlsoGood" {
		t.Errorf("names = %v, want [Good AlsoGood]", names)
	}

	// The marker with no message is dropped; its healthy sibling survives.
	got, _ := s.Get("Good")
	if len(got.Markers) != 1 || got.Markers[0].Message != "ok" {
		t.Errorf("markers = %+v, want the one complete marker", got.Markers)
	}
}

func TestLoadSnapshotReplacesExistingState(t *testing.T) {
	s := newTestStore()
	s.Publish(lintSet())

	if err := s.LoadSnapshot([]byte(`{"active_set": "", "sets": []}`)); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(s.Names()) != 0 {
		t.Errorf("names = %v, want store replaced wholesale", s.Names())
	}
	if s.ActiveName() != "" {
		t.Errorf("active = %q, want blank", s.ActiveName())
	}
}

func TestLoadSnapshotKeepsUnresolvableActive(t *testing.T) {
	data := []byte(`{
		"active_set": "Ghost",
		"sets": [
			{"name": "A", "base_path": "", "markers": []},
			{"name": "B", "base_path": "", "markers": []}
		]
	}`)

	s := newTestStore()
	if err := s.LoadSnapshot(data); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if got := s.ActiveName(); got != "Ghost" {
		t.Errorf("active = %q, want the loaded name kept", got)
	}
	view := s.StateView()
	if len(view.Names) != 2 {
		t.Errorf("names = %v", view.Names)
	}
	if view.Markers != nil {
		t.Error("unresolvable active should render no markers")
	}
}

func TestLoadSnapshotDeduplicatesNames(t *testing.T) {
	data := []byte(`{
		"active_set": "Dup",
		"sets": [
			{"name": "Dup", "base_path": "", "markers": [
				{"type": 0, "path": "/a.c", "line": 1, "column": 1, "message": "first", "show_error_list": true}
			]},
			{"name": "Other", "base_path": "", "markers": []},
			{"name": "Dup", "base_path": "", "markers": [
				{"type": 0, "path": "/a.c", "line": 1, "column": 1, "message": "second", "show_error_list": true}
			]}
		]
	}`)

	s := newTestStore()
	if err := s.LoadSnapshot(data); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	names := s.Names()
	if len(names) != 2 || names[0] != "Dup" || names[1] != "Other" {
		t.Errorf("names = %v, want [Dup Other]", names)
	}
	got, _ := s.Get("Dup")
	if len(got.Markers) != 1 || got.Markers[0].Message != "second" {
		t.Errorf("duplicate should resolve to the later entry: %+v", got.Markers)
	}
}

func TestLoadSnapshotNormalizesLineAndColumn(t *testing.T) {
	data := []byte(`{
		"active_set": "T",
		"sets": [
			{"name": "T", "base_path": "", "markers": [
				{"type": 2, "path": "/a.c", "line": 0, "column": -4, "message": "m", "show_error_list": false}
			]}
		]
	}`)

	s := newTestStore()
	if err := s.LoadSnapshot(data); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	got, _ := s.Get("T")
	if got.Markers[0].Line != 1 || got.Markers[0].Column != 1 {
		t.Errorf("line/column = %d/%d, want clamped to 1/1",
			got.Markers[0].Line, got.Markers[0].Column)
	}
}
