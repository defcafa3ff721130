package index

import "github.com/changsongyang/markerd/internal/marker"

// MarkerIndex defines the interface for marker index operations.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type MarkerIndex interface {
	ReplaceSet(set marker.Set, position int) error
	DeleteSet(name string) error
	Clear() error
	Rebuild(sets []marker.Set) error
	Search(query string, limit int) ([]Hit, error)
	ErrorList(limit int) ([]Hit, error)
	Totals(setName string) (Totals, error)
	Close() error
}

// Verify *DB satisfies MarkerIndex at compile time.
var _ MarkerIndex = (*DB)(nil)
