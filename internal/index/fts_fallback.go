//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses a LIKE fallback over the markers table.
	return nil
}

func ftsInsert(_ *sql.Tx, _ string, _ int, _, _ string) error {
	// Message and path already live in the markers table; nothing extra to do.
	return nil
}

func ftsDeleteSet(_ *sql.Tx, _ string) {}

func ftsClear(_ *sql.Tx) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT m.set_name, m.kind, m.path, m.line, m.col, m.message
		FROM markers m
		JOIN marker_sets s ON s.name = m.set_name
		WHERE m.message LIKE ? OR m.path LIKE ?
		ORDER BY s.position, m.seq
		LIMIT ?
	`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()
	return scanHits(rows)
}
