package index

import (
	"database/sql"
	"fmt"

	"github.com/changsongyang/markerd/internal/marker"
)

// Hit is one marker row returned by a query.
type Hit struct {
	SetName string      `json:"set_name"`
	Kind    marker.Kind `json:"type"`
	Path    string      `json:"path"`
	Line    int         `json:"line"`
	Column  int         `json:"column"`
	Message string      `json:"message"`
}

// Totals counts a slice of the session's markers by kind.
type Totals struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
	Usages   int `json:"usages"`
	Others   int `json:"others"`
}

// ReplaceSet replaces the indexed rows for one set within a transaction.
// position is the set's index in store order, kept so error-list output
// follows the store's display order.
func (db *DB) ReplaceSet(set marker.Set, position int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := insertSet(tx, set, position); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteSet removes one set and its markers from the index.
func (db *DB) DeleteSet(name string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDeleteSet(tx, name)
	_, _ = tx.Exec(`DELETE FROM markers WHERE set_name = ?`, name)
	_, _ = tx.Exec(`DELETE FROM marker_sets WHERE name = ?`, name)

	return tx.Commit()
}

// Clear empties the index.
func (db *DB) Clear() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsClear(tx)
	_, _ = tx.Exec(`DELETE FROM markers`)
	_, _ = tx.Exec(`DELETE FROM marker_sets`)

	return tx.Commit()
}

// Rebuild drops everything and re-indexes the given sets in store order.
// Called once at startup after the snapshot load; the index is disposable
// session state.
func (db *DB) Rebuild(sets []marker.Set) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsClear(tx)
	_, _ = tx.Exec(`DELETE FROM markers`)
	_, _ = tx.Exec(`DELETE FROM marker_sets`)
	for i, set := range sets {
		if err := insertSet(tx, set, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// insertSet upserts the set row and replaces its marker rows. Callers own
// the transaction.
func insertSet(tx *sql.Tx, set marker.Set, position int) error {
	_, err := tx.Exec(`
		INSERT INTO marker_sets (name, base_path, position)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			base_path = excluded.base_path,
			position  = excluded.position
	`, set.Name, set.BasePath, position)
	if err != nil {
		return fmt.Errorf("index: upsert set: %w", err)
	}

	ftsDeleteSet(tx, set.Name)
	_, _ = tx.Exec(`DELETE FROM markers WHERE set_name = ?`, set.Name)

	if len(set.Markers) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`
		INSERT INTO markers (set_name, seq, kind, path, line, col, message, in_error_list)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare marker insert: %w", err)
	}
	defer stmt.Close()
	for i, m := range set.Markers {
		inList := 0
		if m.ShowErrorList {
			inList = 1
		}
		if _, err := stmt.Exec(set.Name, i, int(m.Kind), m.Path, m.Line, m.Column, m.Message, inList); err != nil {
			return fmt.Errorf("index: insert marker: %w", err)
		}
		if err := ftsInsert(tx, set.Name, i, m.Path, m.Message); err != nil {
			return err
		}
	}
	return nil
}

// ErrorList returns markers flagged for the error-list view, in store order.
func (db *DB) ErrorList(limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.Query(`
		SELECT m.set_name, m.kind, m.path, m.line, m.col, m.message
		FROM markers m
		JOIN marker_sets s ON s.name = m.set_name
		WHERE m.in_error_list = 1
		ORDER BY s.position, m.seq
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: error list: %w", err)
	}
	defer rows.Close()
	return scanHits(rows)
}

// Totals counts markers by kind, for one set or (with setName "") the whole
// session.
func (db *DB) Totals(setName string) (Totals, error) {
	query := `SELECT kind, COUNT(*) FROM markers GROUP BY kind`
	args := []any{}
	if setName != "" {
		query = `SELECT kind, COUNT(*) FROM markers WHERE set_name = ? GROUP BY kind`
		args = append(args, setName)
	}
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return Totals{}, fmt.Errorf("index: totals: %w", err)
	}
	defer rows.Close()

	var t Totals
	for rows.Next() {
		var kind, n int
		if err := rows.Scan(&kind, &n); err != nil {
			return Totals{}, err
		}
		switch marker.Kind(kind) {
		case marker.KindError:
			t.Errors = n
		case marker.KindWarning:
			t.Warnings = n
		case marker.KindInfo:
			t.Infos = n
		case marker.KindUsage:
			t.Usages = n
		default:
			t.Others += n
		}
	}
	return t, rows.Err()
}

// scanHits drains a result set whose columns match Hit's fields:
// set_name, kind, path, line, col, message.
func scanHits(rows *sql.Rows) ([]Hit, error) {
	var out []Hit
	for rows.Next() {
		var h Hit
		var kind int
		if err := rows.Scan(&h.SetName, &kind, &h.Path, &h.Line, &h.Column, &h.Message); err != nil {
			return nil, err
		}
		h.Kind = marker.Kind(kind)
		out = append(out, h)
	}
	return out, rows.Err()
}
