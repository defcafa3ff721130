// Package testutil provides shared test helpers for marker stores and index databases.
package testutil

import (
	"os"
	"testing"

	"github.com/changsongyang/markerd/internal/index"
	"github.com/changsongyang/markerd/internal/marker"
	"github.com/changsongyang/markerd/internal/markerservice"
	"github.com/changsongyang/markerd/internal/pathmap"
)

// Home is the fixed home directory used by test stores, so path aliasing
// is deterministic regardless of the machine running the tests.
const Home = "/home/dev"

// TestDB creates a temporary SQLite index database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "markerd-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a marker store whose path mapper aliases against Home.
func TestStore(t *testing.T) *marker.Store {
	t.Helper()
	return marker.NewStore(pathmap.NewWithHome(Home))
}

// TestService creates a marker service over a fresh store and index,
// without a change notifier.
func TestService(t *testing.T) *markerservice.Service {
	t.Helper()
	return markerservice.NewService(TestStore(t), TestDB(t), nil)
}
