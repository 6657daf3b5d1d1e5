package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/nikbrunner/linksaver/internal/model"
)

// SQLiteStorage implements Backend and KV using a SQLite database.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage creates a new SQLiteStorage with the given database path.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &SQLiteStorage{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// migrate runs database migrations.
func (s *SQLiteStorage) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		// Table doesn't exist or is empty, start fresh
		version = 0
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	if version < 2 {
		if err := s.migrateV2(); err != nil {
			return err
		}
	}

	return nil
}

// migrateV1 creates the node table.
func (s *SQLiteStorage) migrateV1() error {
	schema := `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS nodes (
			id TEXT PRIMARY KEY NOT NULL,
			parent_id TEXT,
			idx INTEGER NOT NULL DEFAULT 0,
			title TEXT NOT NULL DEFAULT '',
			url TEXT,
			date_added INTEGER NOT NULL DEFAULT 0,
			date_group_modified INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_nodes_parent_id ON nodes(parent_id, idx);
		CREATE INDEX IF NOT EXISTS idx_nodes_url ON nodes(url) WHERE url IS NOT NULL;

		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// migrateV2 adds the settings key-value table.
func (s *SQLiteStorage) migrateV2() error {
	migration := `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY NOT NULL,
			value TEXT NOT NULL
		);
		UPDATE schema_version SET version = 2;
	`
	_, err := s.db.Exec(migration)
	return err
}

// Load reads the tree from the database.
func (s *SQLiteStorage) Load() ([]model.Node, error) {
	rows, err := s.db.Query(`
		SELECT id, parent_id, idx, title, url, date_added, date_group_modified
		FROM nodes
		ORDER BY idx
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type row struct {
		node   model.Node
		parent string
		root   bool
	}

	var all []row
	for rows.Next() {
		var r row
		var parentID, url sql.NullString
		var idx int

		if err := rows.Scan(
			&r.node.ID, &parentID, &idx, &r.node.Title, &url,
			&r.node.DateAdded, &r.node.DateGroupModified,
		); err != nil {
			return nil, err
		}

		if parentID.Valid {
			r.parent = parentID.String
			r.node.ParentID = parentID.String
			r.node.Index = model.IntPtr(idx)
		} else {
			r.root = true
		}
		if url.Valid {
			r.node.URL = url.String
		} else {
			r.node.Children = []model.Node{}
		}

		all = append(all, r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	children := make(map[string][]model.Node)
	for _, r := range all {
		if !r.root {
			children[r.parent] = append(children[r.parent], r.node)
		}
	}

	var attach func(n model.Node) model.Node
	attach = func(n model.Node) model.Node {
		if n.IsLink() {
			return n
		}
		for _, c := range children[n.ID] {
			n.Children = append(n.Children, attach(c))
		}
		return n
	}

	roots := []model.Node{}
	for _, r := range all {
		if r.root {
			roots = append(roots, attach(r.node))
		}
	}

	return roots, nil
}

// Save writes the tree to the database.
// Uses a transaction for atomicity - all or nothing.
func (s *SQLiteStorage) Save(roots []model.Node) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM nodes"); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO nodes (id, parent_id, idx, title, url, date_added, date_group_modified)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, n := range model.Flatten(roots) {
		var parentID, url *string
		if n.ParentID != "" {
			parentID = &n.ParentID
		}
		if n.IsLink() {
			url = &n.URL
		}

		idx := i
		if n.Index != nil {
			idx = *n.Index
		}

		if _, err := stmt.Exec(
			n.ID, parentID, idx, n.Title, url, n.DateAdded, n.DateGroupModified,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Get reads one settings key.
func (s *SQLiteStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

// Set writes one settings key.
func (s *SQLiteStorage) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, string(value))
	return err
}
