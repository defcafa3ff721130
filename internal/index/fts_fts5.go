//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS markers_fts USING fts5(
			set_name UNINDEXED,
			seq UNINDEXED,
			path,
			message,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(tx *sql.Tx, setName string, seq int, path, message string) error {
	_, err := tx.Exec(`INSERT INTO markers_fts (set_name, seq, path, message) VALUES (?, ?, ?, ?)`,
		setName, seq, path, message)
	if err != nil {
		return fmt.Errorf("index: insert fts: %w", err)
	}
	return nil
}

func ftsDeleteSet(tx *sql.Tx, setName string) {
	_, _ = tx.Exec(`DELETE FROM markers_fts WHERE set_name = ?`, setName)
}

func ftsClear(tx *sql.Tx) {
	_, _ = tx.Exec(`DELETE FROM markers_fts`)
}

// Search performs an FTS5 full-text search over marker messages and paths.
func (db *DB) Search(query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT m.set_name, m.kind, m.path, m.line, m.col, m.message
		FROM markers_fts f
		JOIN markers m ON m.set_name = f.set_name AND m.seq = f.seq
		WHERE markers_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()
	return scanHits(rows)
}
