// Package index provides a SQLite-backed query index over the session's
// markers, with optional FTS5 full-text search. The index shadows the marker
// store: it is rebuilt from the store at startup and updated on every
// mutation, and holds nothing the store does not.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS marker_sets (
	name      TEXT PRIMARY KEY,
	base_path TEXT NOT NULL DEFAULT '',
	position  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS markers (
	set_name      TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	kind          INTEGER NOT NULL DEFAULT 0,
	path          TEXT NOT NULL DEFAULT '',
	line          INTEGER NOT NULL DEFAULT 1,
	col           INTEGER NOT NULL DEFAULT 1,
	message       TEXT NOT NULL DEFAULT '',
	in_error_list INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (set_name, seq)
);

CREATE INDEX IF NOT EXISTS idx_markers_error_list ON markers(in_error_list);
`

// DB wraps a sql.DB with marker-index operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
